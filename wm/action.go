package wm

import (
	"fmt"

	"github.com/wispwm/wisp/config"
	"github.com/wispwm/wisp/x11"
)

// ActionKind discriminates the Action variants.
type ActionKind int

const (
	ActionSpawn ActionKind = iota
	ActionSwitchWorkspace
	ActionMoveToWorkspace
	ActionCloseWindow
	ActionToggleFullscreen
	ActionSwapWindow
	ActionSwapFocus
	ActionPinFocus
	ActionQuit
)

// Action is a tagged variant with a strongly typed payload, dispatched
// by exhaustive switch. Only the fields relevant to the kind are set.
type Action struct {
	Kind      ActionKind
	Workspace int       // SwitchWorkspace, MoveToWorkspace
	Direction Direction // SwapWindow, SwapFocus
	Argv      []string  // Spawn
}

// binding is one compiled key binding: the grab parameters plus the
// action to run when the grabbed combination arrives.
type binding struct {
	keysym  uint32
	mods    uint16
	keycode byte
	action  Action
}

var modMasks = map[string]uint16{
	"shift":   x11.ModMaskShift,
	"lock":    x11.ModMaskLock,
	"control": x11.ModMaskControl,
	"ctrl":    x11.ModMaskControl,
	"mod1":    x11.ModMask1,
	"alt":     x11.ModMask1,
	"mod2":    x11.ModMask2,
	"mod3":    x11.ModMask3,
	"mod4":    x11.ModMask4,
	"super":   x11.ModMask4,
	"mod5":    x11.ModMask5,
}

var directions = map[string]Direction{
	"left":  DirLeft,
	"right": DirRight,
	"up":    DirUp,
	"down":  DirDown,
}

// compileBindings turns the parsed configuration into grab-ready
// bindings. Key and modifier names must resolve; a bad entry fails the
// whole configuration rather than silently dropping a binding.
func compileBindings(cfg *config.Config) ([]binding, error) {
	bindings := make([]binding, 0, len(cfg.Bindings))
	for _, b := range cfg.Bindings {
		sym := x11.KeysymFromName(b.Key)
		if sym == x11.NoSymbol {
			return nil, fmt.Errorf("binding %q: unknown key", b.Key)
		}
		mods := uint16(0)
		for _, m := range b.Mods {
			mask, ok := modMasks[m]
			if !ok {
				return nil, fmt.Errorf("binding %q: unknown modifier %q", b.Key, m)
			}
			mods |= mask
		}
		action, err := compileAction(&b, cfg)
		if err != nil {
			return nil, fmt.Errorf("binding %q: %w", b.Key, err)
		}
		bindings = append(bindings, binding{keysym: sym, mods: mods, action: action})
	}
	return bindings, nil
}

func compileAction(b *config.Binding, cfg *config.Config) (Action, error) {
	switch b.Action {
	case "spawn":
		if len(b.Argv) == 0 {
			return Action{}, fmt.Errorf("spawn action with empty command")
		}
		return Action{Kind: ActionSpawn, Argv: b.Argv}, nil
	case "workspace":
		if b.Workspace < 0 || b.Workspace >= cfg.Workspaces {
			return Action{}, fmt.Errorf("workspace %d out of range", b.Workspace)
		}
		return Action{Kind: ActionSwitchWorkspace, Workspace: b.Workspace}, nil
	case "move":
		if b.Workspace < 0 || b.Workspace >= cfg.Workspaces {
			return Action{}, fmt.Errorf("workspace %d out of range", b.Workspace)
		}
		return Action{Kind: ActionMoveToWorkspace, Workspace: b.Workspace}, nil
	case "close":
		return Action{Kind: ActionCloseWindow}, nil
	case "fullscreen":
		return Action{Kind: ActionToggleFullscreen}, nil
	case "swap":
		dir, ok := directions[b.Direction]
		if !ok {
			return Action{}, fmt.Errorf("unknown direction %q", b.Direction)
		}
		return Action{Kind: ActionSwapWindow, Direction: dir}, nil
	case "focus":
		dir, ok := directions[b.Direction]
		if !ok {
			return Action{}, fmt.Errorf("unknown direction %q", b.Direction)
		}
		return Action{Kind: ActionSwapFocus, Direction: dir}, nil
	case "pin":
		return Action{Kind: ActionPinFocus}, nil
	case "quit":
		return Action{Kind: ActionQuit}, nil
	default:
		return Action{}, fmt.Errorf("unknown action %q", b.Action)
	}
}
