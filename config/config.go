// Package config loads the window manager configuration: tiling
// metrics, workspace count, autostart commands and key bindings. It is
// read once at startup.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	shellwords "github.com/mattn/go-shellwords"
)

// MaxWorkspaces mirrors the layout manager's cap.
const MaxWorkspaces = 16

// Gaps are pixel insets around the tiled area plus the vertical gap
// between stacked windows.
type Gaps struct {
	Left     int `koanf:"left"`
	Right    int `koanf:"right"`
	Top      int `koanf:"top"`
	Bottom   int `koanf:"bottom"`
	Vertical int `koanf:"vertical"`
}

// Binding is one key binding entry. Key and modifier names are
// normalized to lower case; spawn commands are split into argv with
// shell word rules at load time.
type Binding struct {
	Key       string   `koanf:"key"`
	Mods      []string `koanf:"mods"`
	Action    string   `koanf:"action"`
	Command   string   `koanf:"command"`
	Workspace int      `koanf:"workspace"`
	Direction string   `koanf:"direction"`

	Argv []string `koanf:"-"`
}

// Config is the fully parsed configuration.
type Config struct {
	Workspaces  int       `koanf:"workspaces"`
	BorderWidth int       `koanf:"border_width"`
	Gaps        Gaps      `koanf:"gaps"`
	Autostart   []string  `koanf:"autostart"`
	Bindings    []Binding `koanf:"bindings"`

	AutostartArgv [][]string `koanf:"-"`
}

var defaults = map[string]interface{}{
	"workspaces":   9,
	"border_width": 1,
	"gaps": map[string]interface{}{
		"left":     4,
		"right":    4,
		"top":      4,
		"bottom":   4,
		"vertical": 4,
	},
}

// DefaultPath returns the conventional config location.
func DefaultPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return xdg + "/wisp/config.yml"
	}
	return os.Getenv("HOME") + "/.config/wisp/config.yml"
}

// Load reads the configuration file at path on top of built-in
// defaults. A missing file is not an error: the defaults plus the
// built-in bindings apply.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if err := k.Load(confmap.Provider(defaults, "."), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("loading %s: %w", path, err)
			}
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}
	if len(cfg.Bindings) == 0 {
		cfg.Bindings = defaultBindings(cfg.Workspaces)
	}
	if err := cfg.finish(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// finish validates ranges, normalizes names and splits command strings.
func (c *Config) finish() error {
	if c.Workspaces < 1 || c.Workspaces > MaxWorkspaces {
		return fmt.Errorf("workspaces must be between 1 and %d, got %d", MaxWorkspaces, c.Workspaces)
	}
	if c.BorderWidth < 0 {
		return fmt.Errorf("border_width must not be negative")
	}
	if c.Gaps.Left < 0 || c.Gaps.Right < 0 || c.Gaps.Top < 0 || c.Gaps.Bottom < 0 || c.Gaps.Vertical < 0 {
		return fmt.Errorf("gaps must not be negative")
	}

	parser := shellwords.NewParser()
	for i := range c.Bindings {
		b := &c.Bindings[i]
		b.Action = strings.ToLower(b.Action)
		b.Direction = strings.ToLower(b.Direction)
		for j, m := range b.Mods {
			b.Mods[j] = strings.ToLower(m)
		}
		if b.Action == "" && b.Command != "" {
			b.Action = "spawn"
		}
		if b.Action == "spawn" {
			argv, err := parser.Parse(b.Command)
			if err != nil {
				return fmt.Errorf("binding %q: parsing command: %w", b.Key, err)
			}
			if len(argv) == 0 {
				return fmt.Errorf("binding %q: empty spawn command", b.Key)
			}
			b.Argv = argv
		}
	}

	c.AutostartArgv = c.AutostartArgv[:0]
	for _, cmd := range c.Autostart {
		argv, err := parser.Parse(cmd)
		if err != nil {
			return fmt.Errorf("autostart %q: %w", cmd, err)
		}
		if len(argv) == 0 {
			continue
		}
		c.AutostartArgv = append(c.AutostartArgv, argv)
	}
	return nil
}

// defaultBindings is the fallback table for a config file with no
// bindings section: terminal, close, fullscreen, directional moves and
// one binding per workspace.
func defaultBindings(workspaces int) []Binding {
	bindings := []Binding{
		{Key: "return", Mods: []string{"mod4"}, Action: "spawn", Command: "xterm"},
		{Key: "q", Mods: []string{"mod4"}, Action: "close"},
		{Key: "f", Mods: []string{"mod4"}, Action: "fullscreen"},
		{Key: "p", Mods: []string{"mod4"}, Action: "pin"},
		{Key: "h", Mods: []string{"mod4"}, Action: "focus", Direction: "left"},
		{Key: "l", Mods: []string{"mod4"}, Action: "focus", Direction: "right"},
		{Key: "k", Mods: []string{"mod4"}, Action: "focus", Direction: "up"},
		{Key: "j", Mods: []string{"mod4"}, Action: "focus", Direction: "down"},
		{Key: "h", Mods: []string{"mod4", "shift"}, Action: "swap", Direction: "left"},
		{Key: "l", Mods: []string{"mod4", "shift"}, Action: "swap", Direction: "right"},
		{Key: "k", Mods: []string{"mod4", "shift"}, Action: "swap", Direction: "up"},
		{Key: "j", Mods: []string{"mod4", "shift"}, Action: "swap", Direction: "down"},
	}
	for i := 0; i < workspaces && i < 9; i++ {
		key := string(rune('1' + i))
		bindings = append(bindings,
			Binding{Key: key, Mods: []string{"mod4"}, Action: "workspace", Workspace: i},
			Binding{Key: key, Mods: []string{"mod4", "shift"}, Action: "move", Workspace: i},
		)
	}
	return bindings
}
