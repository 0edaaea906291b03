package x11

// NoSymbol is the keysym of an unpopulated mapping slot.
const NoSymbol = 0

// KeysymTable caches the server's keyboard mapping. It is fetched once
// with a single GetKeyboardMapping request covering the full keycode
// range; the layout is a flat array indexed by
// (keycode-minKeycode)*symsPerKeycode + column.
type KeysymTable struct {
	syms           []uint32
	minKeycode     byte
	maxKeycode     byte
	symsPerKeycode int
}

// LoadKeysymTable fetches the keyboard mapping for the connection's
// full keycode range.
func LoadKeysymTable(c *Conn) (*KeysymTable, error) {
	min, max := c.Setup.MinKeycode, c.Setup.MaxKeycode
	req := newRequest(opGetKeyboardMapping, 0).
		u8(min).
		u8(max - min + 1).
		skip(2).
		done()
	reply, err := c.roundTrip(req)
	if err != nil {
		return nil, err
	}

	per := int(reply[1])
	n := int(order.Uint32(reply[4:])) // keysym count, one u32 each
	syms := make([]uint32, n)
	for i := range syms {
		syms[i] = order.Uint32(reply[32+4*i:])
	}
	return &KeysymTable{
		syms:           syms,
		minKeycode:     min,
		maxKeycode:     max,
		symsPerKeycode: per,
	}, nil
}

// NewKeysymTable builds a table from raw mapping rows laid out the way
// the server sends them: symsPerKeycode columns per keycode, starting
// at minKeycode.
func NewKeysymTable(minKeycode byte, symsPerKeycode int, syms []uint32) *KeysymTable {
	maxKeycode := minKeycode + byte(len(syms)/symsPerKeycode) - 1
	return &KeysymTable{
		syms:           syms,
		minKeycode:     minKeycode,
		maxKeycode:     maxKeycode,
		symsPerKeycode: symsPerKeycode,
	}
}

// KeysymToKeycode scans every keycode and column for an exact match.
// The first match wins; 0 means the keysym is not mapped.
func (t *KeysymTable) KeysymToKeycode(sym uint32) byte {
	if sym == NoSymbol {
		return 0
	}
	for code := int(t.minKeycode); code <= int(t.maxKeycode); code++ {
		row := t.row(byte(code))
		for col := 0; col < t.symsPerKeycode; col++ {
			if row[col] == sym {
				return byte(code)
			}
		}
	}
	return 0
}

// KeycodeToKeysym resolves column 0 of a keycode, applying the standard
// column-folding rules.
func (t *KeysymTable) KeycodeToKeysym(code byte) uint32 {
	return t.keysymAtCol(code, 0)
}

func (t *KeysymTable) row(code byte) []uint32 {
	i := (int(code) - int(t.minKeycode)) * t.symsPerKeycode
	return t.syms[i : i+t.symsPerKeycode]
}

// keysymAtCol implements the folding Xlib applies in XKeycodeToKeysym:
// if every column past the first two is unpopulated, column selection
// beyond 1 folds down by 2; and when a group's second column is
// NoSymbol, columns 0/1 are the lowercase/uppercase forms of the single
// stored base symbol.
func (t *KeysymTable) keysymAtCol(code byte, col int) uint32 {
	if code < t.minKeycode || code > t.maxKeycode || col < 0 {
		return NoSymbol
	}
	if col > 3 && col >= t.symsPerKeycode {
		return NoSymbol
	}
	row := t.row(code)
	per := t.symsPerKeycode

	if col < 4 {
		if col > 1 {
			for per > 2 && row[per-1] == NoSymbol {
				per--
			}
			if per < 3 {
				col -= 2
			}
		}
		if per <= col|1 || row[col|1] == NoSymbol {
			lower, upper := ConvertCase(row[col&^1])
			if col&1 == 0 {
				return lower
			}
			if lower == upper {
				return NoSymbol
			}
			return upper
		}
	}
	if col >= t.symsPerKeycode {
		return NoSymbol
	}
	return row[col]
}
