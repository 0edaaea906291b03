package x11

import (
	"bytes"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptConn is a net.Conn whose read side serves pre-scripted server
// frames and whose write side records every request.
type scriptConn struct {
	replies bytes.Buffer
	sent    bytes.Buffer
}

func (c *scriptConn) Read(p []byte) (int, error) {
	if c.replies.Len() == 0 {
		return 0, io.EOF
	}
	return c.replies.Read(p)
}

func (c *scriptConn) Write(p []byte) (int, error)      { return c.sent.Write(p) }
func (c *scriptConn) Close() error                     { return nil }
func (c *scriptConn) LocalAddr() net.Addr              { return nil }
func (c *scriptConn) RemoteAddr() net.Addr             { return nil }
func (c *scriptConn) SetDeadline(time.Time) error      { return nil }
func (c *scriptConn) SetReadDeadline(time.Time) error  { return nil }
func (c *scriptConn) SetWriteDeadline(time.Time) error { return nil }

func (c *scriptConn) queueReply(frame []byte) {
	if len(frame) < 32 {
		padded := make([]byte, 32)
		copy(padded, frame)
		frame = padded
	}
	c.replies.Write(frame)
}

func testSetup(base, mask uint32) *SetupInfo {
	return &SetupInfo{
		ResourceIDBase: base,
		ResourceIDMask: mask,
		MinKeycode:     8,
		MaxKeycode:     255,
		Screens: []Screen{{
			Root:         1,
			WidthPixels:  800,
			HeightPixels: 600,
		}},
	}
}

func TestParseDisplay(t *testing.T) {
	tests := []struct {
		spec    string
		host    string
		display int
		screen  int
		wantErr bool
	}{
		{spec: ":0", host: "", display: 0, screen: 0},
		{spec: ":1.2", host: "", display: 1, screen: 2},
		{spec: "unix/:10", host: "", display: 10},
		{spec: "remote:2", host: "remote", display: 2},
		{spec: "remote:2.1", host: "remote", display: 2, screen: 1},
		{spec: "tcp/remote:2", wantErr: true},
		{spec: "", wantErr: true},
		{spec: "nodisplay", wantErr: true},
		{spec: ":abc", wantErr: true},
		{spec: ":1.x", wantErr: true},
	}
	for _, tt := range tests {
		host, display, screen, err := parseDisplay(tt.spec)
		if tt.wantErr {
			assert.Error(t, err, "spec %q", tt.spec)
			continue
		}
		require.NoError(t, err, "spec %q", tt.spec)
		assert.Equal(t, tt.host, host, "spec %q", tt.spec)
		assert.Equal(t, tt.display, display, "spec %q", tt.spec)
		assert.Equal(t, tt.screen, screen, "spec %q", tt.spec)
	}
}

func TestNewIDSequence(t *testing.T) {
	const (
		base = uint32(0x02800000)
		mask = uint32(0x001fffff)
	)
	c := NewConn(&scriptConn{}, testSetup(base, mask))

	m := mask
	inc := m & -m
	require.Equal(t, uint32(1), inc, "contiguous mask increments by one")

	seen := make(map[uint32]bool)
	prev := uint32(0)
	for i := 0; i < 1000; i++ {
		id, err := c.NewID()
		require.NoError(t, err)

		assert.False(t, seen[id], "id %#x repeated", id)
		seen[id] = true

		assert.Equal(t, base, id&^mask, "id carries the client base")
		if prev != 0 {
			assert.Equal(t, prev+inc, id, "sequence increases by inc")
		}
		prev = id
	}
}

func TestNewIDSparseMask(t *testing.T) {
	// A shifted mask: increments follow the lowest set bit.
	const (
		base = uint32(0x00a00000)
		mask = uint32(0x000ffff0)
	)
	c := NewConn(&scriptConn{}, testSetup(base, mask))

	first, err := c.NewID()
	require.NoError(t, err)
	second, err := c.NewID()
	require.NoError(t, err)

	assert.Equal(t, base|0x10, first)
	assert.Equal(t, base|0x20, second)
}

func TestNewIDRangeRefresh(t *testing.T) {
	const (
		base = uint32(0x04000000)
		mask = uint32(0x00000003) // room for three IDs before exhaustion
	)
	sc := &scriptConn{}

	// QueryExtension("XC-MISC") reply: present, major opcode 136.
	ext := make([]byte, 32)
	ext[0] = 1
	ext[8] = 1
	ext[9] = 136
	sc.queueReply(ext)

	// GetXIDRange reply: a fresh range of 16 IDs.
	const rangeStart = base | 0x100
	xidRange := make([]byte, 32)
	xidRange[0] = 1
	order.PutUint32(xidRange[8:], rangeStart)
	order.PutUint32(xidRange[12:], 16)
	sc.queueReply(xidRange)

	c := NewConn(sc, testSetup(base, mask))

	var ids []uint32
	for i := 0; i < 6; i++ {
		id, err := c.NewID()
		require.NoError(t, err)
		ids = append(ids, id)
	}

	assert.Equal(t, []uint32{
		base | 1, base | 2, base | 3,
		rangeStart, rangeStart + 1, rangeStart + 2,
	}, ids)

	// The refresh went over the wire: QueryExtension then the
	// extension request.
	sent := sc.sent.Bytes()
	require.NotEmpty(t, sent)
	assert.Equal(t, byte(opQueryExtension), sent[0])
}

func TestNewIDExhaustedWithoutExtension(t *testing.T) {
	sc := &scriptConn{}
	ext := make([]byte, 32)
	ext[0] = 1
	ext[8] = 0 // not present
	sc.queueReply(ext)

	c := NewConn(sc, testSetup(0x04000000, 0x3))
	for i := 0; i < 3; i++ {
		_, err := c.NewID()
		require.NoError(t, err)
	}
	_, err := c.NewID()
	assert.Error(t, err)
}

func TestRoundTripQueuesEvents(t *testing.T) {
	sc := &scriptConn{}

	// An event frame arrives before the awaited reply.
	event := make([]byte, 32)
	event[0] = EventMapRequest
	order.PutUint32(event[8:], 77)
	sc.queueReply(event)

	reply := make([]byte, 32)
	reply[0] = 1
	order.PutUint32(reply[8:], 42) // atom value
	sc.queueReply(reply)

	c := NewConn(sc, testSetup(0x1000000, 0xff))
	atom, err := c.InternAtom("WM_NAME")
	require.NoError(t, err)
	assert.Equal(t, uint32(42), atom)

	frame, err := c.NextFrame()
	require.NoError(t, err)
	ev, ok := DecodeEvent(frame).(MapRequestEvent)
	require.True(t, ok, "queued event is served to the loop")
	assert.Equal(t, uint32(77), ev.Window)
}

func TestRoundTripSurfacesError(t *testing.T) {
	sc := &scriptConn{}
	errFrame := make([]byte, 32)
	errFrame[0] = 0
	errFrame[1] = 3 // BadWindow
	order.PutUint32(errFrame[4:], 0xbad)
	sc.queueReply(errFrame)

	c := NewConn(sc, testSetup(0x1000000, 0xff))
	_, err := c.InternAtom("WM_NAME")
	require.Error(t, err)

	perr, ok := err.(*ProtocolError)
	require.True(t, ok)
	assert.Equal(t, "BadWindow", perr.Name())
	assert.Equal(t, uint32(0xbad), perr.BadValue)
}
