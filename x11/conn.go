package x11

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"strings"
)

// Conn is a synchronous connection to an X server. It owns the
// transport socket, the parsed setup data and the resource-ID
// allocator. Every request that expects a reply blocks until that reply
// arrives; there is no outstanding-request table.
type Conn struct {
	conn   net.Conn
	Setup  *SetupInfo
	screen int

	// Resource-ID allocator, initialized from the setup reply.
	xidLast uint32
	xidMax  uint32
	xidBase uint32
	xidInc  uint32

	// Event frames that arrived while a reply was being awaited.
	pending [][]byte
}

// parseDisplay splits a display specifier of the form
// [protocol/]host:display[.screen]. Only an empty protocol or "unix"
// is accepted.
func parseDisplay(spec string) (host string, display, screen int, err error) {
	if spec == "" {
		return "", 0, 0, errors.New("empty display specifier")
	}

	if i := strings.IndexByte(spec, '/'); i >= 0 {
		proto := spec[:i]
		if proto != "" && proto != "unix" {
			return "", 0, 0, fmt.Errorf("unsupported display protocol %q", proto)
		}
		spec = spec[i+1:]
	}

	colon := strings.LastIndexByte(spec, ':')
	if colon < 0 {
		return "", 0, 0, fmt.Errorf("malformed display %q: missing ':'", spec)
	}
	host = spec[:colon]
	rest := spec[colon+1:]

	if dot := strings.IndexByte(rest, '.'); dot >= 0 {
		screen, err = strconv.Atoi(rest[dot+1:])
		if err != nil {
			return "", 0, 0, fmt.Errorf("malformed screen in display %q", spec)
		}
		rest = rest[:dot]
	}
	display, err = strconv.Atoi(rest)
	if err != nil {
		return "", 0, 0, fmt.Errorf("malformed display number in %q", spec)
	}
	return host, display, screen, nil
}

// Connect dials the server named by $DISPLAY and completes the
// handshake.
func Connect() (*Conn, error) {
	display := os.Getenv("DISPLAY")
	if display == "" {
		return nil, errors.New("DISPLAY is not set")
	}
	return ConnectDisplay(display)
}

// ConnectDisplay dials the given display specifier. An empty host means
// the local domain socket for that display number; anything else is TCP
// to port 6000+display.
func ConnectDisplay(spec string) (*Conn, error) {
	host, display, screen, err := parseDisplay(spec)
	if err != nil {
		return nil, err
	}

	var nc net.Conn
	if host == "" {
		nc, err = net.Dial("unix", fmt.Sprintf("/tmp/.X11-unix/X%d", display))
	} else {
		nc, err = net.Dial("tcp", fmt.Sprintf("%s:%d", host, 6000+display))
	}
	if err != nil {
		return nil, fmt.Errorf("connecting to display %q: %w", spec, err)
	}

	authName, authData, err := readAuthority()
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("reading authority: %w", err)
	}

	c := &Conn{conn: nc, screen: screen}
	if err := c.handshake(authName, authData); err != nil {
		nc.Close()
		return nil, err
	}
	return c, nil
}

// NewConn wraps an established transport and takes the setup data as
// given, skipping the handshake. It exists for tests against a scripted
// transport.
func NewConn(nc net.Conn, setup *SetupInfo) *Conn {
	c := &Conn{conn: nc, Setup: setup}
	c.initXID()
	return c
}

// Close tears down the transport. Setup data is garbage collected with
// the Conn.
func (c *Conn) Close() error {
	return c.conn.Close()
}

// Screen returns the screen selected by the display specifier, falling
// back to the first one.
func (c *Conn) Screen() *Screen {
	if c.screen < len(c.Setup.Screens) {
		return &c.Setup.Screens[c.screen]
	}
	return &c.Setup.Screens[0]
}

func (c *Conn) handshake(authName string, authData []byte) error {
	req := make([]byte, 0, 12+len(authName)+len(authData)+6)
	req = append(req, setupByteOrder, 0)
	req = append(req, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0)
	order.PutUint16(req[2:], 11) // protocol major version
	order.PutUint16(req[4:], 0)  // protocol minor version
	order.PutUint16(req[6:], uint16(len(authName)))
	order.PutUint16(req[8:], uint16(len(authData)))
	req = append(req, authName...)
	req = append(req, make([]byte, pad(len(authName)))...)
	req = append(req, authData...)
	req = append(req, make([]byte, pad(len(authData)))...)

	if _, err := c.conn.Write(req); err != nil {
		return fmt.Errorf("sending setup request: %w", err)
	}

	// Generic header: status, 5 pad bytes, body length in 4-byte units.
	var header [8]byte
	if _, err := io.ReadFull(c.conn, header[:]); err != nil {
		return fmt.Errorf("reading setup header: %w", err)
	}
	body := make([]byte, int(order.Uint16(header[6:]))*4)
	if _, err := io.ReadFull(c.conn, body); err != nil {
		return fmt.Errorf("reading setup body: %w", err)
	}

	switch header[0] {
	case 0:
		reasonLen := int(header[1])
		if reasonLen > len(body) {
			reasonLen = len(body)
		}
		return fmt.Errorf("setup refused: %s", strings.TrimRight(string(body[:reasonLen]), "\x00"))
	case 2:
		return errors.New("setup requires further authentication")
	case 1:
		setup, err := parseSetup(body)
		if err != nil {
			return fmt.Errorf("parsing setup: %w", err)
		}
		c.Setup = setup
		c.initXID()
		return nil
	default:
		return fmt.Errorf("unknown setup status %d", header[0])
	}
}

func (c *Conn) initXID() {
	mask := c.Setup.ResourceIDMask
	c.xidBase = c.Setup.ResourceIDBase
	c.xidInc = mask & -mask
	c.xidMax = mask
	c.xidLast = 0
}

// NewID allocates the next resource ID. The sequence increases by the
// lowest set bit of the resource-ID mask; when the range is exhausted a
// fresh one is requested through XC-MISC.
func (c *Conn) NewID() (uint32, error) {
	if c.xidLast >= c.xidMax-c.xidInc+1 {
		if err := c.refreshXIDRange(); err != nil {
			return 0, err
		}
	}
	c.xidLast += c.xidInc
	return c.xidLast | c.xidBase, nil
}

func (c *Conn) refreshXIDRange() error {
	present, major, err := c.QueryExtension("XC-MISC")
	if err != nil {
		return err
	}
	if !present {
		return errors.New("resource IDs exhausted and XC-MISC is not present")
	}

	reply, err := c.roundTrip(newRequest(major, xcMiscGetXIDRange).done())
	if err != nil {
		return err
	}
	start := order.Uint32(reply[8:])
	count := order.Uint32(reply[12:])
	if count == 0 {
		return errors.New("XC-MISC returned an empty ID range")
	}
	c.xidLast = start - c.xidInc
	c.xidMax = start + (count-1)*c.xidInc
	return nil
}

// send writes a fire-and-forget request.
func (c *Conn) send(buf []byte) error {
	_, err := c.conn.Write(buf)
	return err
}

// roundTrip writes a request and blocks for its reply. Event frames
// arriving in between are queued for the main loop; an error frame is
// returned as a *ProtocolError.
func (c *Conn) roundTrip(buf []byte) ([]byte, error) {
	if err := c.send(buf); err != nil {
		return nil, err
	}
	for {
		frame, err := c.readFrame()
		if err != nil {
			return nil, err
		}
		switch frame[0] {
		case 0:
			return nil, DecodeError(frame)
		case 1:
			extra := int(order.Uint32(frame[4:])) * 4
			if extra == 0 {
				return frame, nil
			}
			full := make([]byte, 32+extra)
			copy(full, frame)
			if _, err := io.ReadFull(c.conn, full[32:]); err != nil {
				return nil, err
			}
			return full, nil
		default:
			c.pending = append(c.pending, frame)
		}
	}
}

// readFrame reads one fixed 32-byte server message.
func (c *Conn) readFrame() ([]byte, error) {
	frame := make([]byte, 32)
	if _, err := io.ReadFull(c.conn, frame); err != nil {
		return nil, err
	}
	return frame, nil
}

// NextFrame returns the next server message, draining frames queued
// during synchronous round trips first.
func (c *Conn) NextFrame() ([]byte, error) {
	if len(c.pending) > 0 {
		frame := c.pending[0]
		c.pending = c.pending[1:]
		return frame, nil
	}
	return c.readFrame()
}

// QueryExtension asks whether the named extension is present and
// returns its major opcode.
func (c *Conn) QueryExtension(name string) (present bool, major byte, err error) {
	req := newRequest(opQueryExtension, 0).
		u16(uint16(len(name))).
		skip(2).
		string(name).
		done()
	reply, err := c.roundTrip(req)
	if err != nil {
		return false, 0, err
	}
	return reply[8] != 0, reply[9], nil
}

// InternAtom resolves an atom name, creating the atom if needed.
func (c *Conn) InternAtom(name string) (uint32, error) {
	req := newRequest(opInternAtom, 0).
		u16(uint16(len(name))).
		skip(2).
		string(name).
		done()
	reply, err := c.roundTrip(req)
	if err != nil {
		return 0, err
	}
	return order.Uint32(reply[8:]), nil
}

// Sync round-trips a GetInputFocus request. Because requests are
// applied in order on a single connection, any error caused by an
// earlier fire-and-forget request surfaces here.
func (c *Conn) Sync() error {
	_, err := c.roundTrip(newRequest(opGetInputFocus, 0).done())
	return err
}

// QueryTree returns the children of a window in bottom-to-top stacking
// order.
func (c *Conn) QueryTree(window uint32) ([]uint32, error) {
	reply, err := c.roundTrip(newRequest(opQueryTree, 0).u32(window).done())
	if err != nil {
		return nil, err
	}
	n := int(order.Uint16(reply[16:]))
	children := make([]uint32, 0, n)
	for i := 0; i < n; i++ {
		children = append(children, order.Uint32(reply[32+4*i:]))
	}
	return children, nil
}

// WindowAttributes is the subset of GetWindowAttributes the manager
// cares about when adopting existing windows.
type WindowAttributes struct {
	MapState         byte
	OverrideRedirect bool
}

// GetWindowAttributes fetches attributes for a window.
func (c *Conn) GetWindowAttributes(window uint32) (*WindowAttributes, error) {
	reply, err := c.roundTrip(newRequest(opGetWindowAttributes, 0).u32(window).done())
	if err != nil {
		return nil, err
	}
	return &WindowAttributes{
		MapState:         reply[26],
		OverrideRedirect: reply[27] != 0,
	}, nil
}

// GrabKey registers a passive grab for keycode+modifiers on the window.
func (c *Conn) GrabKey(window uint32, modifiers uint16, keycode byte) error {
	req := newRequest(opGrabKey, 1). // owner-events true
		u32(window).
		u16(modifiers).
		u8(keycode).
		u8(GrabModeAsync).
		u8(GrabModeAsync).
		skip(3).
		done()
	return c.send(req)
}

// UngrabKey releases a passive grab.
func (c *Conn) UngrabKey(window uint32, modifiers uint16, keycode byte) error {
	req := newRequest(opUngrabKey, keycode).
		u32(window).
		u16(modifiers).
		skip(2).
		done()
	return c.send(req)
}
