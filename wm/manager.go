package wm

import (
	"errors"
	"fmt"
	"log/slog"
	"os/exec"

	"github.com/wispwm/wisp/config"
	"github.com/wispwm/wisp/x11"
)

// WindowManager owns the connection, the keyboard mapping and the
// layout manager, and runs the event loop that binds them together.
type WindowManager struct {
	conn     *x11.Conn
	root     uint32
	keys     *x11.KeysymTable
	layout   *LayoutManager
	bindings []binding
	cfg      *config.Config
}

var errQuit = errors.New("quit requested")

// Create connects to the display named by $DISPLAY, loads the keyboard
// mapping and builds the layout manager from the configuration. Any
// failure here is fatal to the process: a window manager that cannot
// complete the handshake has nothing to manage.
func Create(cfg *config.Config) (*WindowManager, error) {
	conn, err := x11.Connect()
	if err != nil {
		return nil, fmt.Errorf("couldn't open X display: %w", err)
	}

	keys, err := x11.LoadKeysymTable(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("couldn't load keyboard mapping: %w", err)
	}

	bindings, err := compileBindings(cfg)
	if err != nil {
		conn.Close()
		return nil, err
	}

	screen := conn.Screen()
	layout := NewLayoutManager(
		cfg.Workspaces,
		int(screen.WidthPixels),
		int(screen.HeightPixels),
		cfg.BorderWidth,
		Gaps{
			Left:     cfg.Gaps.Left,
			Right:    cfg.Gaps.Right,
			Top:      cfg.Gaps.Top,
			Bottom:   cfg.Gaps.Bottom,
			Vertical: cfg.Gaps.Vertical,
		},
	)

	return &WindowManager{
		conn:     conn,
		root:     screen.Root,
		keys:     keys,
		layout:   layout,
		bindings: bindings,
		cfg:      cfg,
	}, nil
}

// Close tears down the connection.
func (wm *WindowManager) Close() {
	if wm.conn != nil {
		wm.conn.Close()
	}
}

// Run claims the root window, adopts existing clients, grabs the bound
// keys and processes events until the connection drops or a quit
// binding fires.
func (wm *WindowManager) Run() error {
	if err := wm.becomeWM(); err != nil {
		return err
	}
	wm.adoptExisting()
	wm.grabKeys()
	wm.autostart()

	slog.Info("window manager up and running", "workspaces", wm.cfg.Workspaces)

	for {
		frame, err := wm.conn.NextFrame()
		if err != nil {
			return fmt.Errorf("reading event: %w", err)
		}
		if err := wm.dispatch(frame); err != nil {
			if errors.Is(err, errQuit) {
				return nil
			}
			return err
		}
	}
}

// becomeWM subscribes to substructure redirection on the root. Only one
// client may hold it; a BadAccess here means another window manager is
// running.
func (wm *WindowManager) becomeWM() error {
	root := wm.conn.WindowFor(wm.root)
	err := root.ChangeAttributes([]x11.Value{
		{Mask: x11.CWEventMask, Value: x11.EventMaskSubstructureRedirect | x11.EventMaskSubstructureNotify},
	})
	if err != nil {
		return err
	}
	if err := wm.conn.Sync(); err != nil {
		var perr *x11.ProtocolError
		if errors.As(err, &perr) && perr.Detail == x11.ErrCodeAccess {
			return errors.New("other window manager running on display")
		}
		return err
	}
	return nil
}

// adoptExisting walks the root's children and manages every viewable
// window that was mapped before we started, skipping override-redirect
// ones.
func (wm *WindowManager) adoptExisting() {
	children, err := wm.conn.QueryTree(wm.root)
	if err != nil {
		slog.Error("couldn't query tree", "error:", err)
		return
	}
	for _, child := range children {
		attrs, err := wm.conn.GetWindowAttributes(child)
		if err != nil {
			slog.Error("couldn't get window attributes", "error:", err, "window", child)
			continue
		}
		if attrs.OverrideRedirect || attrs.MapState != x11.MapStateViewable {
			continue
		}
		wm.layout.MapWindow(wm.conn.WindowFor(child))
	}
}

// grabKeys registers a passive grab for every binding whose keysym maps
// to a keycode on this keyboard. Bindings without a keycode are logged
// and skipped; the layout may simply not have that key.
func (wm *WindowManager) grabKeys() {
	for i := range wm.bindings {
		b := &wm.bindings[i]
		b.keycode = wm.keys.KeysymToKeycode(b.keysym)
		if b.keycode == 0 {
			slog.Info("no keycode for bound keysym", "keysym", b.keysym)
			continue
		}
		if err := wm.conn.GrabKey(wm.root, b.mods, b.keycode); err != nil {
			slog.Error("couldn't grab key", "error:", err, "keycode", b.keycode)
		}
	}
}

// autostart spawns the configured startup commands, detached.
func (wm *WindowManager) autostart() {
	for _, argv := range wm.cfg.AutostartArgv {
		spawn(argv)
	}
}

// ignoredModifiers are mask bits not considered when matching a key
// binding: caps lock and num lock.
const ignoredModifiers = x11.ModMaskLock | x11.ModMask2

// dispatch routes one 32-byte server frame. Protocol errors are logged
// and absorbed; a reply frame here is a defect since every reply is
// consumed synchronously at its call site.
func (wm *WindowManager) dispatch(frame []byte) error {
	switch frame[0] & 0x7f {
	case x11.FrameError:
		slog.Error("x protocol error", "error:", x11.DecodeError(frame))
		return nil
	case x11.FrameReply:
		slog.Error("stray reply in event loop; replies must be consumed at their call site")
		return nil
	}

	switch ev := x11.DecodeEvent(frame).(type) {
	case x11.KeyPressEvent:
		return wm.onKeyPress(ev)
	case x11.ConfigureRequestEvent:
		// Honoring the requested geometry right away makes new
		// windows feel snappier than waiting for the MapRequest.
		wm.onConfigureRequest(ev)
	case x11.MapRequestEvent:
		wm.layout.MapWindow(wm.conn.WindowFor(ev.Window))
	case x11.DestroyNotifyEvent:
		wm.layout.CloseWindow(ev.Window)
	case x11.EnterNotifyEvent:
		// Focus follows the pointer.
		wm.layout.FocusWindow(ev.Window)
	}
	return nil
}

func (wm *WindowManager) onKeyPress(ev x11.KeyPressEvent) error {
	sym := wm.keys.KeycodeToKeysym(ev.Keycode)
	state := ev.State &^ ignoredModifiers
	for i := range wm.bindings {
		b := &wm.bindings[i]
		if b.keysym == sym && b.mods == state {
			return wm.runAction(b.action)
		}
	}
	return nil
}

func (wm *WindowManager) onConfigureRequest(ev x11.ConfigureRequestEvent) {
	values := make([]x11.Value, 0, 7)
	if ev.ValueMask&x11.ConfigX != 0 {
		values = append(values, x11.Value{Mask: x11.ConfigX, Value: uint32(int32(ev.X))})
	}
	if ev.ValueMask&x11.ConfigY != 0 {
		values = append(values, x11.Value{Mask: x11.ConfigY, Value: uint32(int32(ev.Y))})
	}
	if ev.ValueMask&x11.ConfigWidth != 0 {
		values = append(values, x11.Value{Mask: x11.ConfigWidth, Value: uint32(ev.Width)})
	}
	if ev.ValueMask&x11.ConfigHeight != 0 {
		values = append(values, x11.Value{Mask: x11.ConfigHeight, Value: uint32(ev.Height)})
	}
	if ev.ValueMask&x11.ConfigBorderWidth != 0 {
		values = append(values, x11.Value{Mask: x11.ConfigBorderWidth, Value: uint32(ev.BorderWidth)})
	}
	if ev.ValueMask&x11.ConfigSibling != 0 {
		values = append(values, x11.Value{Mask: x11.ConfigSibling, Value: ev.Sibling})
	}
	if ev.ValueMask&x11.ConfigStackMode != 0 {
		values = append(values, x11.Value{Mask: x11.ConfigStackMode, Value: uint32(ev.StackMode)})
	}
	if err := wm.conn.WindowFor(ev.Window).Configure(values); err != nil {
		slog.Error("couldn't configure window", "error:", err, "window", ev.Window)
	}
}

// runAction executes one bound action. Out-of-range workspace indices
// are logged and ignored; directional moves absorb their own failed
// preconditions.
func (wm *WindowManager) runAction(a Action) error {
	switch a.Kind {
	case ActionSpawn:
		spawn(a.Argv)
	case ActionSwitchWorkspace:
		if err := wm.layout.SwitchTo(a.Workspace); err != nil {
			slog.Error("couldn't switch workspace", "error:", err, "workspace", a.Workspace)
		}
	case ActionMoveToWorkspace:
		focused := wm.layout.Current().Focused()
		if focused == nil {
			return nil
		}
		if err := wm.layout.MoveWindow(focused, a.Workspace); err != nil {
			slog.Error("couldn't move window", "error:", err, "workspace", a.Workspace)
		}
	case ActionCloseWindow:
		if focused := wm.layout.Current().Focused(); focused != nil {
			id := focused.ID
			if err := focused.Kill(); err != nil {
				slog.Error("couldn't kill client", "error:", err, "window", id)
			}
			wm.layout.CloseWindow(id)
		}
	case ActionToggleFullscreen:
		wm.layout.ToggleFullscreen()
	case ActionSwapWindow:
		wm.layout.SwapWindow(a.Direction)
	case ActionSwapFocus:
		wm.layout.SwapFocus(a.Direction)
	case ActionPinFocus:
		wm.layout.PinFocus()
	case ActionQuit:
		return errQuit
	}
	return nil
}

// spawn starts a command detached. The child is neither waited on nor
// reaped here.
func spawn(argv []string) {
	if len(argv) == 0 {
		slog.Info("skipping spawn with empty command")
		return
	}
	if err := exec.Command(argv[0], argv[1:]...).Start(); err != nil {
		slog.Error("couldn't run command", "error:", err, "command", argv[0])
	}
}
