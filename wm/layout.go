// Package wm contains the tiling policy and the event loop: workspaces,
// the layout manager that owns them, and the manager that binds server
// events to layout operations.
package wm

import (
	"errors"
	"log/slog"

	"github.com/wispwm/wisp/x11"
)

// MaxWorkspaces caps the configured workspace count.
const MaxWorkspaces = 16

// ErrWorkspaceOutOfRange is returned for a workspace index at or past
// the configured count. The action layer logs it and moves on.
var ErrWorkspaceOutOfRange = errors.New("workspace index out of range")

// Mode is the per-workspace layout state.
type Mode int

const (
	ModeTiled Mode = iota
	ModeFullscreen
)

// Gaps are the pixel insets around the tiled area plus the vertical gap
// between stacked windows.
type Gaps struct {
	Left, Right, Top, Bottom int
	Vertical                 int
}

// Workspace is an ordered window list. List order is stacking order:
// index 0 is the master pane, everything after stacks on the right.
// A handle appears at most once per workspace; pinning is the one case
// where the same handle lives in several workspaces at once.
type Workspace struct {
	ID      int
	windows []*x11.Window
	focused *x11.Window
	mode    Mode
}

// Windows returns the window list in stacking order.
func (ws *Workspace) Windows() []*x11.Window { return ws.windows }

// Focused returns the focused window, or nil.
func (ws *Workspace) Focused() *x11.Window { return ws.focused }

// Mode returns the workspace layout mode.
func (ws *Workspace) Mode() Mode { return ws.mode }

func (ws *Workspace) indexOf(id uint32) int {
	for i, w := range ws.windows {
		if w.ID == id {
			return i
		}
	}
	return -1
}

func (ws *Workspace) removeAt(i int) {
	ws.windows = append(ws.windows[:i], ws.windows[i+1:]...)
}

// focusFallback moves focus to the predecessor of index i in stacking
// order, ahead of that window's removal. Removing the first window
// leaves the workspace unfocused.
func (ws *Workspace) focusFallback(i int) {
	if i > 0 {
		ws.focused = ws.windows[i-1]
	} else {
		ws.focused = nil
	}
}

// LayoutManager owns the fixed workspace set, the screen size and the
// tiling metrics. The current index is always within range.
type LayoutManager struct {
	workspaces []*Workspace
	current    int
	screenW    int
	screenH    int
	border     int
	gaps       Gaps
}

// NewLayoutManager builds the workspace array. The count is clamped to
// at least one and at most MaxWorkspaces.
func NewLayoutManager(count, screenW, screenH, borderWidth int, gaps Gaps) *LayoutManager {
	if count < 1 {
		count = 1
	}
	if count > MaxWorkspaces {
		count = MaxWorkspaces
	}
	workspaces := make([]*Workspace, count)
	for i := range workspaces {
		workspaces[i] = &Workspace{ID: i}
	}
	return &LayoutManager{
		workspaces: workspaces,
		screenW:    screenW,
		screenH:    screenH,
		border:     borderWidth,
		gaps:       gaps,
	}
}

// Current returns the active workspace.
func (lm *LayoutManager) Current() *Workspace { return lm.workspaces[lm.current] }

// CurrentIndex returns the active workspace index.
func (lm *LayoutManager) CurrentIndex() int { return lm.current }

// Workspaces returns the workspace set.
func (lm *LayoutManager) Workspaces() []*Workspace { return lm.workspaces }

// FindWindow returns the window handle for an ID from any workspace.
func (lm *LayoutManager) FindWindow(id uint32) *x11.Window {
	for _, ws := range lm.workspaces {
		if i := ws.indexOf(id); i >= 0 {
			return ws.windows[i]
		}
	}
	return nil
}

// MapWindow adopts a window into the active workspace: append, retile,
// subscribe it to enter/focus events, map, focus.
func (lm *LayoutManager) MapWindow(w *x11.Window) {
	ws := lm.Current()
	if ws.indexOf(w.ID) >= 0 {
		slog.Info("window already managed", "window", w.ID, "workspace", ws.ID)
		return
	}
	ws.windows = append(ws.windows, w)
	lm.retile(ws)

	if err := w.ChangeAttributes([]x11.Value{
		{Mask: x11.CWEventMask, Value: x11.EventMaskEnterWindow | x11.EventMaskFocusChange},
	}); err != nil {
		slog.Error("couldn't subscribe window events", "error:", err)
	}
	if err := w.Map(); err != nil {
		slog.Error("couldn't map window", "error:", err)
	}
	lm.FocusWindow(w.ID)
}

// CloseWindow drops a handle from every workspace that lists it. For an
// unpinned window that is exactly one workspace; for a pinned one the
// handle is gone everywhere, so no workspace keeps a dead entry.
func (lm *LayoutManager) CloseWindow(id uint32) {
	for _, ws := range lm.workspaces {
		i := ws.indexOf(id)
		if i < 0 {
			continue
		}
		if ws.focused != nil && ws.focused.ID == id {
			ws.focusFallback(i)
		}
		ws.removeAt(i)
		lm.retile(ws)
	}
}

// SwitchTo changes the visible workspace. Pure visibility toggle:
// membership is untouched, the old set is unmapped and the new set
// mapped, and input focus is reasserted.
func (lm *LayoutManager) SwitchTo(idx int) error {
	if idx < 0 || idx >= len(lm.workspaces) {
		return ErrWorkspaceOutOfRange
	}
	if idx == lm.current {
		return nil
	}
	for _, w := range lm.Current().windows {
		if err := w.Unmap(); err != nil {
			slog.Error("couldn't unmap window", "error:", err)
		}
	}
	lm.current = idx
	ws := lm.Current()
	for _, w := range ws.windows {
		if err := w.Map(); err != nil {
			slog.Error("couldn't map window", "error:", err)
		}
	}
	if ws.focused != nil {
		if err := ws.focused.InputFocus(); err != nil {
			slog.Error("couldn't focus window", "error:", err)
		}
	}
	return nil
}

// MoveWindow sends a window to another workspace. The source loses it
// (focus falls back to its predecessor), the destination appends and
// focuses it, and both are retiled.
func (lm *LayoutManager) MoveWindow(w *x11.Window, idx int) error {
	if idx < 0 || idx >= len(lm.workspaces) {
		return ErrWorkspaceOutOfRange
	}
	dst := lm.workspaces[idx]
	src := lm.Current()
	i := src.indexOf(w.ID)
	if i < 0 {
		return nil
	}
	if dst == src {
		return nil
	}

	if src.focused != nil && src.focused.ID == w.ID {
		src.focusFallback(i)
	}
	src.removeAt(i)
	if err := w.Unmap(); err != nil {
		slog.Error("couldn't unmap window", "error:", err)
	}

	dst.windows = append(dst.windows, w)
	dst.focused = w

	lm.retile(src)
	lm.retile(dst)
	return nil
}

// ToggleFullscreen flips the active workspace between tiled and
// fullscreen. Entering resizes only the focused window to cover the
// screen with no border; the rest stay mapped underneath. Leaving
// retiles.
func (lm *LayoutManager) ToggleFullscreen() {
	ws := lm.Current()
	if ws.mode == ModeTiled {
		if ws.focused == nil {
			return
		}
		ws.mode = ModeFullscreen
		if err := ws.focused.MoveResize(0, 0, lm.screenW, lm.screenH, 0); err != nil {
			slog.Error("couldn't resize fullscreen window", "error:", err)
		}
		return
	}
	ws.mode = ModeTiled
	lm.retile(ws)
}

// Direction names the four swap/focus moves over list positions.
type Direction int

const (
	DirLeft Direction = iota
	DirRight
	DirUp
	DirDown
)

// swapTarget resolves the list index a directional move works against.
// Index 0 is the sole master pane; indices >=1 stack vertically. A
// violated precondition returns -1 and the move is silently dropped.
func (ws *Workspace) swapTarget(dir Direction) (from, to int) {
	if ws.focused == nil {
		return -1, -1
	}
	i := ws.indexOf(ws.focused.ID)
	if i < 0 {
		return -1, -1
	}
	switch dir {
	case DirLeft:
		if i == 0 {
			return -1, -1
		}
		return i, 0
	case DirRight:
		if i != 0 || len(ws.windows) < 2 {
			return -1, -1
		}
		return i, 1
	case DirUp:
		if i < 2 {
			return -1, -1
		}
		return i, i - 1
	case DirDown:
		if i < 1 || i+1 >= len(ws.windows) {
			return -1, -1
		}
		return i, i + 1
	}
	return -1, -1
}

// SwapWindow exchanges the focused window's list position with its
// directional neighbour and retiles. Focus stays on the same window.
func (lm *LayoutManager) SwapWindow(dir Direction) {
	ws := lm.Current()
	from, to := ws.swapTarget(dir)
	if from < 0 {
		return
	}
	ws.windows[from], ws.windows[to] = ws.windows[to], ws.windows[from]
	lm.retile(ws)
}

// SwapFocus moves focus to the directional neighbour without touching
// the list.
func (lm *LayoutManager) SwapFocus(dir Direction) {
	ws := lm.Current()
	_, to := ws.swapTarget(dir)
	if to < 0 {
		return
	}
	lm.FocusWindow(ws.windows[to].ID)
}

// PinFocus toggles the focused window's membership in every other
// workspace: present means unpin (remove), absent means pin (append
// and focus). This is the one sanctioned way a handle appears in more
// than one list.
func (lm *LayoutManager) PinFocus() {
	ws := lm.Current()
	w := ws.focused
	if w == nil {
		return
	}
	for _, other := range lm.workspaces {
		if other == ws {
			continue
		}
		if i := other.indexOf(w.ID); i >= 0 {
			if other.focused != nil && other.focused.ID == w.ID {
				other.focusFallback(i)
			}
			other.removeAt(i)
		} else {
			other.windows = append(other.windows, w)
			other.focused = w
		}
		lm.retile(other)
	}
}

// FocusWindow gives input focus to a window of the active workspace.
// Unknown IDs are ignored; the server sends crossing events for
// windows we never managed.
func (lm *LayoutManager) FocusWindow(id uint32) {
	ws := lm.Current()
	i := ws.indexOf(id)
	if i < 0 {
		return
	}
	ws.focused = ws.windows[i]
	if err := ws.focused.InputFocus(); err != nil {
		slog.Error("couldn't focus window", "error:", err)
	}
}

// geometry is one tiled window frame.
type geometry struct {
	x, y          int
	width, height int
}

// tileGeometries computes the master/stack arrangement for n windows.
// One window fills the gap-inset screen. With more, index 0 takes the
// left half and the rest stack vertically on the right, all separated
// by borders and the vertical gap.
func tileGeometries(screenW, screenH, border int, gaps Gaps, n int) []geometry {
	if n <= 0 {
		return nil
	}
	availW := screenW - gaps.Left - gaps.Right
	availH := screenH - gaps.Top - gaps.Bottom
	if n == 1 {
		return []geometry{{x: gaps.Left, y: gaps.Top, width: availW, height: availH}}
	}

	masterW := (screenW - gaps.Left - gaps.Right - 4*border) / 2
	geoms := make([]geometry, 0, n)
	geoms = append(geoms, geometry{x: gaps.Left, y: gaps.Top, width: masterW, height: availH})

	stackX := masterW + gaps.Left + gaps.Right + gaps.Left + 2*border
	stackW := screenW - stackX - gaps.Right - 2*border
	count := n - 1
	stackH := (availH - (count-1)*(2*border+gaps.Vertical)) / count

	y := gaps.Top
	for i := 0; i < count; i++ {
		geoms = append(geoms, geometry{x: stackX, y: y, width: stackW, height: stackH})
		y += stackH + 2*border + gaps.Vertical
	}
	return geoms
}

// retile pushes fresh geometry to every window of a workspace, one
// configure request per window, in list order. The protocol applies
// them in order on this connection; no per-request acknowledgement is
// needed.
func (lm *LayoutManager) retile(ws *Workspace) {
	geoms := tileGeometries(lm.screenW, lm.screenH, lm.border, lm.gaps, len(ws.windows))
	for i, w := range ws.windows {
		g := geoms[i]
		if err := w.MoveResize(g.x, g.y, g.width, g.height, lm.border); err != nil {
			slog.Error("couldn't configure window", "error:", err, "window", w.ID)
		}
	}
}
