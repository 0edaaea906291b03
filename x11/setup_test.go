package x11

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildSetupBody assembles a handshake body with one format and one
// screen holding one depth with one visual.
func buildSetupBody(vendor string) []byte {
	b := &request{} // reuse the request builder's little-endian writers
	b.u32(11403000)   // release number
	b.u32(0x02a00000) // resource id base
	b.u32(0x001fffff) // resource id mask
	b.u32(256)        // motion buffer size
	b.u16(uint16(len(vendor)))
	b.u16(0xffff) // max request length
	b.u8(1)       // roots
	b.u8(1)       // formats
	b.u8(0)       // image byte order
	b.u8(0)       // bitmap bit order
	b.skip(2)     // scanline unit, pad
	b.u8(8)       // min keycode
	b.u8(255)     // max keycode
	b.skip(4)
	b.string(vendor)

	// One pixmap format.
	b.u8(24).u8(32).u8(32).skip(5)

	// One screen.
	b.u32(0x25c)      // root
	b.u32(0x20)       // default colormap
	b.u32(0xffffff)   // white pixel
	b.u32(0)          // black pixel
	b.u32(0x1aa000)   // input masks
	b.u16(800)        // width px
	b.u16(600)        // height px
	b.u16(211)        // width mm
	b.u16(158)        // height mm
	b.u16(1).u16(1)   // installed maps
	b.u32(0x21)       // root visual
	b.u8(0).u8(0)     // backing stores, save unders
	b.u8(24)          // root depth
	b.u8(1)           // allowed depths

	// One depth with one visual.
	b.u8(24)
	b.skip(1)
	b.u16(1)
	b.skip(4)
	b.u32(0x21) // visual id
	b.u8(4)     // true color
	b.u8(8)     // bits per rgb
	b.u16(256)  // colormap entries
	b.u32(0xff0000).u32(0x00ff00).u32(0x0000ff)
	b.skip(4)

	return b.b
}

func TestParseSetup(t *testing.T) {
	setup, err := parseSetup(buildSetupBody("test vendor"))
	require.NoError(t, err)

	assert.Equal(t, uint32(0x02a00000), setup.ResourceIDBase)
	assert.Equal(t, uint32(0x001fffff), setup.ResourceIDMask)
	assert.Equal(t, byte(8), setup.MinKeycode)
	assert.Equal(t, byte(255), setup.MaxKeycode)
	assert.Equal(t, "test vendor", setup.Vendor)

	require.Len(t, setup.Formats, 1)
	assert.Equal(t, byte(24), setup.Formats[0].Depth)
	assert.Equal(t, byte(32), setup.Formats[0].BitsPerPixel)

	require.Len(t, setup.Screens, 1)
	screen := setup.Screens[0]
	assert.Equal(t, uint32(0x25c), screen.Root)
	assert.Equal(t, uint16(800), screen.WidthPixels)
	assert.Equal(t, uint16(600), screen.HeightPixels)
	assert.Equal(t, uint32(0x21), screen.RootVisual)
	assert.Equal(t, byte(24), screen.RootDepth)

	require.Len(t, screen.AllowedDepths, 1)
	require.Len(t, screen.AllowedDepths[0].Visuals, 1)
	visual := screen.AllowedDepths[0].Visuals[0]
	assert.Equal(t, uint32(0x21), visual.VisualID)
	assert.Equal(t, uint32(0xff0000), visual.RedMask)
}

func TestParseSetupVendorPadding(t *testing.T) {
	// A vendor whose length is not a multiple of four exercises the
	// padding skip; exact consumption must still hold.
	for _, vendor := range []string{"", "x", "xy", "xyz", "xyzw"} {
		_, err := parseSetup(buildSetupBody(vendor))
		assert.NoError(t, err, "vendor %q", vendor)
	}
}

func TestParseSetupTrailingBytes(t *testing.T) {
	body := append(buildSetupBody("test vendor"), 0, 0, 0, 0)
	_, err := parseSetup(body)
	assert.Error(t, err, "unconsumed bytes are an integrity failure")
}

func TestParseSetupTruncated(t *testing.T) {
	body := buildSetupBody("test vendor")
	_, err := parseSetup(body[:len(body)-5])
	assert.Error(t, err)
}
