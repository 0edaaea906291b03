package x11

import "fmt"

// Server message discriminators. The first byte of every 32-byte frame
// is 0 for an error, 1 for a reply, and 2..34 for a core event. The
// high bit marks synthetic events sent with SendEvent.
const (
	FrameError = 0
	FrameReply = 1

	EventKeyPress         = 2
	EventKeyRelease       = 3
	EventButtonPress      = 4
	EventButtonRelease    = 5
	EventMotionNotify     = 6
	EventEnterNotify      = 7
	EventLeaveNotify      = 8
	EventFocusIn          = 9
	EventFocusOut         = 10
	EventExpose           = 12
	EventCreateNotify     = 16
	EventDestroyNotify    = 17
	EventUnmapNotify      = 18
	EventMapNotify        = 19
	EventMapRequest       = 20
	EventReparentNotify   = 21
	EventConfigureNotify  = 22
	EventConfigureRequest = 23
	EventClientMessage    = 33
	EventMappingNotify    = 34
)

// Event is any decoded server event.
type Event interface {
	Code() int
}

// KeyPressEvent reports a grabbed key going down.
type KeyPressEvent struct {
	Keycode byte
	State   uint16
	Root    uint32
	Child   uint32
}

func (KeyPressEvent) Code() int { return EventKeyPress }

// EnterNotifyEvent reports the pointer crossing into a window.
type EnterNotifyEvent struct {
	Window uint32
}

func (EnterNotifyEvent) Code() int { return EventEnterNotify }

// DestroyNotifyEvent reports a window being destroyed.
type DestroyNotifyEvent struct {
	Window uint32
}

func (DestroyNotifyEvent) Code() int { return EventDestroyNotify }

// UnmapNotifyEvent reports a window being unmapped.
type UnmapNotifyEvent struct {
	Window uint32
}

func (UnmapNotifyEvent) Code() int { return EventUnmapNotify }

// MapRequestEvent is a client asking to have a window mapped; as the
// substructure-redirect holder we get to decide.
type MapRequestEvent struct {
	Parent uint32
	Window uint32
}

func (MapRequestEvent) Code() int { return EventMapRequest }

// ConfigureRequestEvent is a client asking for new geometry.
type ConfigureRequestEvent struct {
	Window      uint32
	Sibling     uint32
	X, Y        int16
	Width       uint16
	Height      uint16
	BorderWidth uint16
	StackMode   byte
	ValueMask   uint16
}

func (ConfigureRequestEvent) Code() int { return EventConfigureRequest }

// RawEvent carries any event the manager has no typed decoding for.
type RawEvent struct {
	EventCode int
	Frame     [32]byte
}

func (e RawEvent) Code() int { return e.EventCode }

// DecodeEvent turns a 32-byte frame with code 2..34 into a typed event.
func DecodeEvent(frame []byte) Event {
	code := int(frame[0] & 0x7f)
	switch code {
	case EventKeyPress:
		return KeyPressEvent{
			Keycode: frame[1],
			State:   order.Uint16(frame[28:]),
			Root:    order.Uint32(frame[8:]),
			Child:   order.Uint32(frame[16:]),
		}
	case EventEnterNotify:
		return EnterNotifyEvent{Window: order.Uint32(frame[12:])}
	case EventDestroyNotify:
		return DestroyNotifyEvent{Window: order.Uint32(frame[8:])}
	case EventUnmapNotify:
		return UnmapNotifyEvent{Window: order.Uint32(frame[8:])}
	case EventMapRequest:
		return MapRequestEvent{
			Parent: order.Uint32(frame[4:]),
			Window: order.Uint32(frame[8:]),
		}
	case EventConfigureRequest:
		return ConfigureRequestEvent{
			StackMode:   frame[1],
			Window:      order.Uint32(frame[8:]),
			Sibling:     order.Uint32(frame[12:]),
			X:           int16(order.Uint16(frame[16:])),
			Y:           int16(order.Uint16(frame[18:])),
			Width:       order.Uint16(frame[20:]),
			Height:      order.Uint16(frame[22:]),
			BorderWidth: order.Uint16(frame[24:]),
			ValueMask:   order.Uint16(frame[26:]),
		}
	default:
		e := RawEvent{EventCode: code}
		copy(e.Frame[:], frame)
		return e
	}
}

// ProtocolError is a server-reported error frame. The manager logs
// these and keeps going; they are never fatal on their own.
type ProtocolError struct {
	Detail      byte
	Sequence    uint16
	BadValue    uint32
	MinorOpcode uint16
	MajorOpcode byte
}

var errorNames = map[byte]string{
	1:  "BadRequest",
	2:  "BadValue",
	3:  "BadWindow",
	4:  "BadPixmap",
	5:  "BadAtom",
	6:  "BadCursor",
	7:  "BadFont",
	8:  "BadMatch",
	9:  "BadDrawable",
	10: "BadAccess",
	11: "BadAlloc",
	12: "BadColormap",
	13: "BadGContext",
	14: "BadIDChoice",
	15: "BadName",
	16: "BadLength",
	17: "BadImplementation",
}

// Error codes referenced by name.
const (
	ErrCodeAccess = 10
)

func (e *ProtocolError) Name() string {
	if name, ok := errorNames[e.Detail]; ok {
		return name
	}
	return fmt.Sprintf("Error%d", e.Detail)
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("%s: bad value %#x (request %d.%d, sequence %d)",
		e.Name(), e.BadValue, e.MajorOpcode, e.MinorOpcode, e.Sequence)
}

// DecodeError decodes a frame whose first byte is 0.
func DecodeError(frame []byte) *ProtocolError {
	return &ProtocolError{
		Detail:      frame[1],
		Sequence:    order.Uint16(frame[2:]),
		BadValue:    order.Uint32(frame[4:]),
		MinorOpcode: order.Uint16(frame[8:]),
		MajorOpcode: frame[10],
	}
}
