package wm

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wispwm/wisp/config"
	"github.com/wispwm/wisp/x11"
)

// recordConn captures everything the manager sends.
type recordConn struct {
	nullConn
	sent bytes.Buffer
}

func (c *recordConn) Write(p []byte) (int, error) { return c.sent.Write(p) }

// scriptedConn additionally serves pre-scripted server replies.
type scriptedConn struct {
	recordConn
	replies bytes.Buffer
}

func (c *scriptedConn) Read(p []byte) (int, error) {
	if c.replies.Len() == 0 {
		return 0, io.EOF
	}
	return c.replies.Read(p)
}

func put32(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}

func testManager(t *testing.T) (*WindowManager, *recordConn) {
	t.Helper()
	cfg := &config.Config{
		Workspaces: 3,
		Bindings: []config.Binding{
			{Key: "f", Mods: []string{"mod4"}, Action: "fullscreen"},
			{Key: "2", Mods: []string{"mod4"}, Action: "workspace", Workspace: 1},
			{Key: "escape", Mods: []string{"mod4"}, Action: "quit"},
		},
	}
	bindings, err := compileBindings(cfg)
	require.NoError(t, err)

	rc := &recordConn{}
	conn := x11.NewConn(rc, &x11.SetupInfo{
		ResourceIDBase: 0x1000000,
		ResourceIDMask: 0xfffff,
		MinKeycode:     8,
		MaxKeycode:     11,
		Screens:        []x11.Screen{{Root: 1, WidthPixels: 800, HeightPixels: 600}},
	})
	keys := x11.NewKeysymTable(8, 2, []uint32{
		'q', x11.NoSymbol,
		'2', x11.NoSymbol,
		x11.XKEscape, x11.NoSymbol,
		'f', x11.NoSymbol,
	})

	return &WindowManager{
		conn:     conn,
		root:     1,
		keys:     keys,
		layout:   NewLayoutManager(cfg.Workspaces, 800, 600, 1, Gaps{}),
		bindings: bindings,
		cfg:      cfg,
	}, rc
}

func keyPressFrame(keycode byte, state uint16) []byte {
	frame := make([]byte, 32)
	frame[0] = x11.EventKeyPress
	frame[1] = keycode
	frame[28] = byte(state)
	frame[29] = byte(state >> 8)
	return frame
}

func eventFrame(code byte, window uint32) []byte {
	frame := make([]byte, 32)
	frame[0] = code
	frame[8] = byte(window)
	frame[9] = byte(window >> 8)
	frame[10] = byte(window >> 16)
	frame[11] = byte(window >> 24)
	return frame
}

func TestDispatchKeyPressRunsAction(t *testing.T) {
	wm, _ := testManager(t)
	wm.layout.MapWindow(wm.conn.WindowFor(50))

	// keycode 11 resolves to 'f'; mod4 is the bound modifier.
	require.NoError(t, wm.dispatch(keyPressFrame(11, x11.ModMask4)))
	assert.Equal(t, ModeFullscreen, wm.layout.Current().Mode())
}

func TestDispatchKeyPressIgnoresLockModifiers(t *testing.T) {
	wm, _ := testManager(t)

	state := uint16(x11.ModMask4 | x11.ModMaskLock | x11.ModMask2)
	require.NoError(t, wm.dispatch(keyPressFrame(9, state)))
	assert.Equal(t, 1, wm.layout.CurrentIndex(), "caps and num lock do not break matching")
}

func TestDispatchKeyPressUnboundCombination(t *testing.T) {
	wm, _ := testManager(t)

	// Right key, wrong modifiers.
	require.NoError(t, wm.dispatch(keyPressFrame(9, x11.ModMaskShift)))
	assert.Equal(t, 0, wm.layout.CurrentIndex())

	// Unbound key.
	require.NoError(t, wm.dispatch(keyPressFrame(8, x11.ModMask4)))
	assert.Equal(t, 0, wm.layout.CurrentIndex())
}

func TestDispatchQuitBinding(t *testing.T) {
	wm, _ := testManager(t)

	err := wm.dispatch(keyPressFrame(10, x11.ModMask4))
	assert.ErrorIs(t, err, errQuit)
}

func TestDispatchMapAndDestroy(t *testing.T) {
	wm, _ := testManager(t)

	require.NoError(t, wm.dispatch(eventFrame(x11.EventMapRequest, 55)))
	assert.Equal(t, []uint32{55}, windowIDs(wm.layout.Current()))

	require.NoError(t, wm.dispatch(eventFrame(x11.EventDestroyNotify, 55)))
	assert.Empty(t, wm.layout.Current().Windows())
}

func TestDispatchEnterNotifyFocuses(t *testing.T) {
	wm, _ := testManager(t)
	wm.layout.MapWindow(wm.conn.WindowFor(50))
	wm.layout.MapWindow(wm.conn.WindowFor(51))
	require.Equal(t, uint32(51), wm.layout.Current().Focused().ID)

	frame := make([]byte, 32)
	frame[0] = x11.EventEnterNotify
	frame[12] = 50
	require.NoError(t, wm.dispatch(frame))
	assert.Equal(t, uint32(50), wm.layout.Current().Focused().ID)
}

func TestDispatchConfigureRequestPassesGeometryThrough(t *testing.T) {
	wm, rc := testManager(t)

	ev := x11.ConfigureRequestEvent{
		Window:    60,
		X:         10,
		Width:     640,
		Height:    480,
		ValueMask: x11.ConfigX | x11.ConfigWidth | x11.ConfigHeight,
	}
	wm.onConfigureRequest(ev)

	req := rc.sent.Bytes()
	require.NotEmpty(t, req)
	assert.Equal(t, byte(12), req[0], "ConfigureWindow opcode")
	assert.Equal(t, uint32(60), uint32(req[4])|uint32(req[5])<<8|uint32(req[6])<<16|uint32(req[7])<<24)
}

func TestDispatchAbsorbsErrorsAndStrayReplies(t *testing.T) {
	wm, _ := testManager(t)

	errFrame := make([]byte, 32)
	errFrame[0] = x11.FrameError
	errFrame[1] = 3
	assert.NoError(t, wm.dispatch(errFrame))

	reply := make([]byte, 32)
	reply[0] = x11.FrameReply
	assert.NoError(t, wm.dispatch(reply))
}

func TestAdoptExistingManagesViewableWindows(t *testing.T) {
	sc := &scriptedConn{}

	// QueryTree reply: three children after the fixed 32-byte header.
	tree := make([]byte, 44)
	tree[0] = 1
	put32(tree[4:], 3) // extra length in 4-byte units
	tree[16] = 3       // child count
	put32(tree[32:], 71)
	put32(tree[36:], 72)
	put32(tree[40:], 73)
	sc.replies.Write(tree)

	// 71: viewable, 72: override-redirect, 73: never mapped.
	viewable := make([]byte, 32)
	viewable[0] = 1
	viewable[26] = x11.MapStateViewable
	sc.replies.Write(viewable)

	override := make([]byte, 32)
	override[0] = 1
	override[26] = x11.MapStateViewable
	override[27] = 1
	sc.replies.Write(override)

	unmapped := make([]byte, 32)
	unmapped[0] = 1
	unmapped[26] = x11.MapStateUnmapped
	sc.replies.Write(unmapped)

	conn := x11.NewConn(sc, &x11.SetupInfo{
		ResourceIDBase: 0x1000000,
		ResourceIDMask: 0xfffff,
		Screens:        []x11.Screen{{Root: 1, WidthPixels: 800, HeightPixels: 600}},
	})
	wm := &WindowManager{
		conn:   conn,
		root:   1,
		layout: NewLayoutManager(2, 800, 600, 1, Gaps{}),
	}

	wm.adoptExisting()
	assert.Equal(t, []uint32{71}, windowIDs(wm.layout.Current()),
		"only pre-mapped ordinary windows are adopted")
}

func TestRunActionMoveWithoutFocusIsNoOp(t *testing.T) {
	wm, _ := testManager(t)
	require.NoError(t, wm.runAction(Action{Kind: ActionMoveToWorkspace, Workspace: 1}))
	assert.Empty(t, wm.layout.Workspaces()[1].Windows())
}
