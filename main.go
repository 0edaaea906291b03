// Package main.
package main

import (
	"log/slog"
	"os"

	"github.com/wispwm/wisp/config"
	"github.com/wispwm/wisp/wm"
)

func main() {
	path := os.Getenv("WISP_CONFIG")
	if path == "" {
		path = config.DefaultPath()
	}

	cfg, err := config.Load(path)
	if err != nil {
		slog.Error("Couldn't load configuration", "error:", err)
		os.Exit(1)
	}

	WM, err := wm.Create(cfg)
	if err != nil {
		slog.Error("Couldn't initialise window manager", "error:", err)
		os.Exit(1)
	}
	defer WM.Close()

	if err := WM.Run(); err != nil {
		slog.Error("window manager exited", "error:", err)
		os.Exit(1)
	}
}
