// Package x11 speaks the core X11 wire protocol over a raw socket: no
// client library, no extension machinery beyond XC-MISC resource-ID
// ranges. Requests are fixed-layout records; variable-length fields are
// padded to 4-byte boundaries.
package x11

import (
	"encoding/binary"
	"sort"
)

// Core request opcodes.
const (
	opCreateWindow           = 1
	opChangeWindowAttributes = 2
	opGetWindowAttributes    = 3
	opMapWindow              = 8
	opUnmapWindow            = 10
	opConfigureWindow        = 12
	opQueryTree              = 15
	opInternAtom             = 16
	opChangeProperty         = 18
	opGrabKey                = 33
	opUngrabKey              = 34
	opSetInputFocus          = 42
	opGetInputFocus          = 43
	opQueryExtension         = 98
	opGetKeyboardMapping     = 101
	opKillClient             = 113
)

// XC-MISC minor opcode; the major opcode comes from QueryExtension.
const xcMiscGetXIDRange = 1

// Predefined atoms.
const (
	AtomPrimary  = 1
	AtomAtom     = 4
	AtomCardinal = 6
	AtomInteger  = 19
	AtomString   = 31
	AtomWMName   = 39
)

// ChangeProperty modes.
const (
	PropModeReplace = 0
	PropModePrepend = 1
	PropModeAppend  = 2
)

// Window attribute value masks (CreateWindow / ChangeWindowAttributes).
const (
	CWBackPixmap       = 1 << 0
	CWBackPixel        = 1 << 1
	CWBorderPixmap     = 1 << 2
	CWBorderPixel      = 1 << 3
	CWBitGravity       = 1 << 4
	CWWinGravity       = 1 << 5
	CWBackingStore     = 1 << 6
	CWBackingPlanes    = 1 << 7
	CWBackingPixel     = 1 << 8
	CWOverrideRedirect = 1 << 9
	CWSaveUnder        = 1 << 10
	CWEventMask        = 1 << 11
	CWDontPropagate    = 1 << 12
	CWColormap         = 1 << 13
	CWCursor           = 1 << 14
)

// ConfigureWindow value masks.
const (
	ConfigX           = 1 << 0
	ConfigY           = 1 << 1
	ConfigWidth       = 1 << 2
	ConfigHeight      = 1 << 3
	ConfigBorderWidth = 1 << 4
	ConfigSibling     = 1 << 5
	ConfigStackMode   = 1 << 6
)

// Event masks.
const (
	EventMaskKeyPress             = 1 << 0
	EventMaskKeyRelease           = 1 << 1
	EventMaskButtonPress          = 1 << 2
	EventMaskButtonRelease        = 1 << 3
	EventMaskEnterWindow          = 1 << 4
	EventMaskLeaveWindow          = 1 << 5
	EventMaskPointerMotion        = 1 << 6
	EventMaskExposure             = 1 << 15
	EventMaskStructureNotify      = 1 << 17
	EventMaskSubstructureNotify   = 1 << 19
	EventMaskSubstructureRedirect = 1 << 20
	EventMaskFocusChange          = 1 << 21
)

// Modifier masks as they appear in the state field of input events.
const (
	ModMaskShift   = 1 << 0
	ModMaskLock    = 1 << 1
	ModMaskControl = 1 << 2
	ModMask1       = 1 << 3
	ModMask2       = 1 << 4
	ModMask3       = 1 << 5
	ModMask4       = 1 << 6
	ModMask5       = 1 << 7
)

// Window classes and misc protocol constants.
const (
	WindowClassCopyFromParent = 0
	WindowClassInputOutput    = 1
	WindowClassInputOnly      = 2

	InputFocusPointerRoot = 1

	GrabModeSync  = 0
	GrabModeAsync = 1

	StackModeAbove = 0
	StackModeBelow = 1

	TimeCurrentTime = 0

	MapStateUnmapped   = 0
	MapStateUnviewable = 1
	MapStateViewable   = 2
)

// pad returns the number of bytes needed to round n up to a 4-byte
// boundary.
func pad(n int) int {
	return (-n) & 3
}

// order is the byte order negotiated at handshake. The setup request
// announces 'l', so every multi-byte integer on this connection is
// little-endian.
var order binary.ByteOrder = binary.LittleEndian

const setupByteOrder = 'l'

// request builds a fixed-layout request record. The length field at
// bytes 2..3 is filled in by done, in 4-byte units.
type request struct {
	b []byte
}

func newRequest(opcode, detail byte) *request {
	return &request{b: []byte{opcode, detail, 0, 0}}
}

func (r *request) u8(v byte) *request {
	r.b = append(r.b, v)
	return r
}

func (r *request) u16(v uint16) *request {
	r.b = append(r.b, 0, 0)
	order.PutUint16(r.b[len(r.b)-2:], v)
	return r
}

func (r *request) u32(v uint32) *request {
	r.b = append(r.b, 0, 0, 0, 0)
	order.PutUint32(r.b[len(r.b)-4:], v)
	return r
}

func (r *request) skip(n int) *request {
	for i := 0; i < n; i++ {
		r.b = append(r.b, 0)
	}
	return r
}

func (r *request) string(s string) *request {
	r.b = append(r.b, s...)
	return r.skip(pad(len(s)))
}

func (r *request) bytes(p []byte) *request {
	r.b = append(r.b, p...)
	return r.skip(pad(len(p)))
}

// done pads the record and stamps the length field.
func (r *request) done() []byte {
	r.b = append(r.b, make([]byte, pad(len(r.b)))...)
	order.PutUint16(r.b[2:], uint16(len(r.b)/4))
	return r.b
}

// Value is one {mask bit, value} pair for a value-list request. The
// protocol requires values to appear in ascending mask-bit order.
type Value struct {
	Mask  uint32
	Value uint32
}

// valueList collapses pairs into a combined mask and an ordered value
// slice. Pairs may be given in any order; they are sorted by mask bit.
func valueList(values []Value) (uint32, []uint32) {
	sorted := make([]Value, len(values))
	copy(sorted, values)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Mask < sorted[j].Mask })

	mask := uint32(0)
	list := make([]uint32, 0, len(sorted))
	for _, v := range sorted {
		mask |= v.Mask
		list = append(list, v.Value)
	}
	return mask, list
}
