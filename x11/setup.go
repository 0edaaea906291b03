package x11

import (
	"errors"
	"fmt"
)

// SetupInfo is the parsed body of a successful connection setup reply.
// It owns every format, screen, depth and visual record received during
// the handshake.
type SetupInfo struct {
	ReleaseNumber    uint32
	ResourceIDBase   uint32
	ResourceIDMask   uint32
	MotionBufferSize uint32
	MaxRequestLen    uint16
	ImageByteOrder   byte
	MinKeycode       byte
	MaxKeycode       byte
	Vendor           string
	Formats          []Format
	Screens          []Screen
}

// Format describes a supported pixmap format.
type Format struct {
	Depth        byte
	BitsPerPixel byte
	ScanlinePad  byte
}

// Screen describes one root. Depth records nest under it, visuals under
// those.
type Screen struct {
	Root            uint32
	DefaultColormap uint32
	WhitePixel      uint32
	BlackPixel      uint32
	InputMasks      uint32
	WidthPixels     uint16
	HeightPixels    uint16
	WidthMM         uint16
	HeightMM        uint16
	RootVisual      uint32
	RootDepth       byte
	AllowedDepths   []Depth
}

type Depth struct {
	Depth   byte
	Visuals []VisualType
}

type VisualType struct {
	VisualID        uint32
	Class           byte
	BitsPerRGBValue byte
	ColormapEntries uint16
	RedMask         uint32
	GreenMask       uint32
	BlueMask        uint32
}

// setupReader walks the handshake body. Every read is bounds-checked so
// that a short buffer surfaces as an error instead of a panic, and the
// final position is compared against the buffer length: the protocol
// states the body size exactly, so anything else means we mis-parsed.
type setupReader struct {
	buf []byte
	pos int
	err error
}

func (r *setupReader) u8() byte {
	if r.err != nil {
		return 0
	}
	if r.pos+1 > len(r.buf) {
		r.err = errors.New("setup truncated")
		return 0
	}
	v := r.buf[r.pos]
	r.pos++
	return v
}

func (r *setupReader) u16() uint16 {
	if r.err != nil {
		return 0
	}
	if r.pos+2 > len(r.buf) {
		r.err = errors.New("setup truncated")
		return 0
	}
	v := order.Uint16(r.buf[r.pos:])
	r.pos += 2
	return v
}

func (r *setupReader) u32() uint32 {
	if r.err != nil {
		return 0
	}
	if r.pos+4 > len(r.buf) {
		r.err = errors.New("setup truncated")
		return 0
	}
	v := order.Uint32(r.buf[r.pos:])
	r.pos += 4
	return v
}

func (r *setupReader) skip(n int) {
	if r.err != nil {
		return
	}
	if r.pos+n > len(r.buf) {
		r.err = errors.New("setup truncated")
		return
	}
	r.pos += n
}

func (r *setupReader) string(n int) string {
	if r.err != nil {
		return ""
	}
	if r.pos+n > len(r.buf) {
		r.err = errors.New("setup truncated")
		return ""
	}
	s := string(r.buf[r.pos : r.pos+n])
	r.pos += n
	return s
}

// parseSetup decodes the post-header handshake body: Setup, vendor
// string, pixmap formats, then screens with their nested depth and
// visual lists. The buffer must be consumed exactly.
func parseSetup(buf []byte) (*SetupInfo, error) {
	r := &setupReader{buf: buf}
	s := &SetupInfo{}

	s.ReleaseNumber = r.u32()
	s.ResourceIDBase = r.u32()
	s.ResourceIDMask = r.u32()
	s.MotionBufferSize = r.u32()
	vendorLen := int(r.u16())
	s.MaxRequestLen = r.u16()
	rootsLen := int(r.u8())
	formatsLen := int(r.u8())
	s.ImageByteOrder = r.u8()
	r.skip(1) // bitmap bit order
	r.skip(2) // bitmap scanline unit, pad
	s.MinKeycode = r.u8()
	s.MaxKeycode = r.u8()
	r.skip(4)

	s.Vendor = r.string(vendorLen)
	r.skip(pad(vendorLen))

	s.Formats = make([]Format, 0, formatsLen)
	for i := 0; i < formatsLen; i++ {
		f := Format{
			Depth:        r.u8(),
			BitsPerPixel: r.u8(),
			ScanlinePad:  r.u8(),
		}
		r.skip(5)
		s.Formats = append(s.Formats, f)
	}

	s.Screens = make([]Screen, 0, rootsLen)
	for i := 0; i < rootsLen; i++ {
		sc := Screen{
			Root:            r.u32(),
			DefaultColormap: r.u32(),
			WhitePixel:      r.u32(),
			BlackPixel:      r.u32(),
			InputMasks:      r.u32(),
			WidthPixels:     r.u16(),
			HeightPixels:    r.u16(),
			WidthMM:         r.u16(),
			HeightMM:        r.u16(),
		}
		r.skip(4) // min, max installed maps
		sc.RootVisual = r.u32()
		r.skip(2) // backing stores, save unders
		sc.RootDepth = r.u8()
		depthsLen := int(r.u8())

		sc.AllowedDepths = make([]Depth, 0, depthsLen)
		for j := 0; j < depthsLen; j++ {
			d := Depth{Depth: r.u8()}
			r.skip(1)
			visualsLen := int(r.u16())
			r.skip(4)
			d.Visuals = make([]VisualType, 0, visualsLen)
			for k := 0; k < visualsLen; k++ {
				v := VisualType{
					VisualID:        r.u32(),
					Class:           r.u8(),
					BitsPerRGBValue: r.u8(),
					ColormapEntries: r.u16(),
					RedMask:         r.u32(),
					GreenMask:       r.u32(),
					BlueMask:        r.u32(),
				}
				r.skip(4)
				d.Visuals = append(d.Visuals, v)
			}
			sc.AllowedDepths = append(sc.AllowedDepths, d)
		}
		s.Screens = append(s.Screens, sc)
	}

	if r.err != nil {
		return nil, r.err
	}
	if r.pos != len(buf) {
		return nil, fmt.Errorf("setup length mismatch: parsed %d of %d bytes", r.pos, len(buf))
	}
	return s, nil
}
