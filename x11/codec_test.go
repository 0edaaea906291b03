package x11

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPad(t *testing.T) {
	assert.Equal(t, 0, pad(0))
	assert.Equal(t, 3, pad(1))
	assert.Equal(t, 2, pad(2))
	assert.Equal(t, 1, pad(3))
	assert.Equal(t, 0, pad(4))
	assert.Equal(t, 3, pad(5))
}

func TestRequestFraming(t *testing.T) {
	buf := newRequest(opMapWindow, 0).u32(0xdeadbeef).done()

	require.Len(t, buf, 8)
	assert.Equal(t, byte(opMapWindow), buf[0])
	assert.Equal(t, uint16(2), order.Uint16(buf[2:]), "length in 4-byte units")
	assert.Equal(t, uint32(0xdeadbeef), order.Uint32(buf[4:]))
}

func TestRequestStringPadding(t *testing.T) {
	buf := newRequest(opInternAtom, 0).
		u16(uint16(len("WM_NAME"))).
		skip(2).
		string("WM_NAME").
		done()

	require.Equal(t, 0, len(buf)%4)
	assert.Equal(t, uint16(uint16(len(buf)/4)), order.Uint16(buf[2:]))
	assert.Equal(t, "WM_NAME", string(buf[8:15]))
	assert.Equal(t, byte(0), buf[15], "name padded with zero bytes")
}

func TestValueListOrdering(t *testing.T) {
	mask, list := valueList([]Value{
		{ConfigHeight, 600},
		{ConfigX, 10},
		{ConfigWidth, 800},
		{ConfigY, 20},
	})

	assert.Equal(t, uint32(ConfigX|ConfigY|ConfigWidth|ConfigHeight), mask)
	assert.Equal(t, []uint32{10, 20, 800, 600}, list, "values follow ascending mask-bit order")
}

func TestValueListEmpty(t *testing.T) {
	mask, list := valueList(nil)
	assert.Zero(t, mask)
	assert.Empty(t, list)
}
