package x11

// Keysym case conversion. Keysyms below 0x100 are Latin-1 code points;
// keysyms of the form 0x01xxxxxx carry a Unicode code point in the low
// 24 bits. Conversion is table-driven over disjoint code point ranges,
// each with its own rule: a fixed arithmetic offset, parity-based
// pairing (adjacent even/odd code points form a case pair), or an
// explicit pair list. Grab matching depends on these tables; the
// mapping for a range must not drift from the Unicode simple case
// mappings it encodes.

type caseRule int

const (
	// caseToLower: the range holds uppercase letters; delta is added
	// to reach the lowercase form.
	caseToLower caseRule = iota
	// caseToUpper: the range holds lowercase letters; delta is added
	// to reach the uppercase form.
	caseToUpper
	// caseEvenUpper: even code points are uppercase, odd lowercase.
	caseEvenUpper
	// caseOddUpper: odd code points are uppercase, even lowercase.
	caseOddUpper
)

type caseRange struct {
	lo, hi uint32
	rule   caseRule
	delta  int32
}

var caseRanges = []caseRange{
	// Basic Latin and Latin-1.
	{0x0041, 0x005a, caseToLower, 0x20},
	{0x0061, 0x007a, caseToUpper, -0x20},
	{0x00c0, 0x00d6, caseToLower, 0x20},
	{0x00d8, 0x00de, caseToLower, 0x20},
	{0x00e0, 0x00f6, caseToUpper, -0x20},
	{0x00f8, 0x00fe, caseToUpper, -0x20},

	// Latin Extended-A. Parity pairs except for the dotted/dotless i
	// and long s oddities, which live in the pair lists.
	{0x0100, 0x012f, caseEvenUpper, 0},
	{0x0132, 0x0137, caseEvenUpper, 0},
	{0x0139, 0x0148, caseOddUpper, 0},
	{0x014a, 0x0177, caseEvenUpper, 0},
	{0x0179, 0x017e, caseOddUpper, 0},

	// Latin Extended-B parity blocks; irregular pairs are explicit.
	{0x01cd, 0x01dc, caseOddUpper, 0},
	{0x01de, 0x01ef, caseEvenUpper, 0},
	{0x01f8, 0x021f, caseEvenUpper, 0},
	{0x0222, 0x0233, caseEvenUpper, 0},
	{0x0246, 0x024f, caseEvenUpper, 0},

	// Greek and Coptic.
	{0x0391, 0x03a1, caseToLower, 0x20},
	{0x03a3, 0x03ab, caseToLower, 0x20},
	{0x03b1, 0x03c1, caseToUpper, -0x20},
	{0x03c3, 0x03cb, caseToUpper, -0x20},

	// Cyrillic and Cyrillic Supplement.
	{0x0400, 0x040f, caseToLower, 0x50},
	{0x0410, 0x042f, caseToLower, 0x20},
	{0x0430, 0x044f, caseToUpper, -0x20},
	{0x0450, 0x045f, caseToUpper, -0x50},
	{0x0460, 0x0481, caseEvenUpper, 0},
	{0x048a, 0x04bf, caseEvenUpper, 0},
	{0x04c1, 0x04ce, caseOddUpper, 0},
	{0x04d0, 0x052f, caseEvenUpper, 0},

	// Armenian.
	{0x0531, 0x0556, caseToLower, 0x30},
	{0x0561, 0x0586, caseToUpper, -0x30},

	// Latin Extended Additional.
	{0x1e00, 0x1e95, caseEvenUpper, 0},
	{0x1ea0, 0x1eff, caseEvenUpper, 0},

	// Greek Extended: within each block the uppercase form sits 8
	// above the lowercase one.
	{0x1f00, 0x1f07, caseToUpper, 8},
	{0x1f08, 0x1f0f, caseToLower, -8},
	{0x1f10, 0x1f15, caseToUpper, 8},
	{0x1f18, 0x1f1d, caseToLower, -8},
	{0x1f20, 0x1f27, caseToUpper, 8},
	{0x1f28, 0x1f2f, caseToLower, -8},
	{0x1f30, 0x1f37, caseToUpper, 8},
	{0x1f38, 0x1f3f, caseToLower, -8},
	{0x1f40, 0x1f45, caseToUpper, 8},
	{0x1f48, 0x1f4d, caseToLower, -8},
	{0x1f60, 0x1f67, caseToUpper, 8},
	{0x1f68, 0x1f6f, caseToLower, -8},
	{0x1f80, 0x1f87, caseToUpper, 8},
	{0x1f88, 0x1f8f, caseToLower, -8},
	{0x1f90, 0x1f97, caseToUpper, 8},
	{0x1f98, 0x1f9f, caseToLower, -8},
	{0x1fa0, 0x1fa7, caseToUpper, 8},
	{0x1fa8, 0x1faf, caseToLower, -8},

	// Enclosed alphanumerics (circled letters).
	{0x24b6, 0x24cf, caseToLower, 0x1a},
	{0x24d0, 0x24e9, caseToUpper, -0x1a},

	// Fullwidth Latin.
	{0xff21, 0xff3a, caseToLower, 0x20},
	{0xff41, 0xff5a, caseToUpper, -0x20},

	// Deseret.
	{0x10400, 0x10427, caseToLower, 0x28},
	{0x10428, 0x1044f, caseToUpper, -0x28},
}

// symmetricPairs are {upper, lower} pairs outside any arithmetic or
// parity rule, convertible in both directions: Latin Extended-B with
// its IPA Extensions lowercase forms, accented Greek, the palochka,
// and the Greek Extended strays.
var symmetricPairs = [][2]uint32{
	{0x0178, 0x00ff}, // Y diaeresis

	// Latin Extended-B <-> IPA Extensions.
	{0x0181, 0x0253},
	{0x0182, 0x0183},
	{0x0184, 0x0185},
	{0x0186, 0x0254},
	{0x0187, 0x0188},
	{0x0189, 0x0256},
	{0x018a, 0x0257},
	{0x018b, 0x018c},
	{0x018e, 0x01dd},
	{0x018f, 0x0259},
	{0x0190, 0x025b},
	{0x0191, 0x0192},
	{0x0193, 0x0260},
	{0x0194, 0x0263},
	{0x0196, 0x0269},
	{0x0197, 0x0268},
	{0x0198, 0x0199},
	{0x019c, 0x026f},
	{0x019d, 0x0272},
	{0x019f, 0x0275},
	{0x01a0, 0x01a1},
	{0x01a2, 0x01a3},
	{0x01a4, 0x01a5},
	{0x01a6, 0x0280},
	{0x01a7, 0x01a8},
	{0x01a9, 0x0283},
	{0x01ac, 0x01ad},
	{0x01ae, 0x0288},
	{0x01af, 0x01b0},
	{0x01b1, 0x028a},
	{0x01b2, 0x028b},
	{0x01b3, 0x01b4},
	{0x01b5, 0x01b6},
	{0x01b7, 0x0292},
	{0x01b8, 0x01b9},
	{0x01bc, 0x01bd},
	{0x01c4, 0x01c6},
	{0x01c7, 0x01c9},
	{0x01ca, 0x01cc},
	{0x01f1, 0x01f3},
	{0x01f4, 0x01f5},
	{0x01f6, 0x0195},
	{0x01f7, 0x01bf},
	{0x0220, 0x019e},
	{0x023b, 0x023c},
	{0x0241, 0x0242},

	// Accented Greek.
	{0x0386, 0x03ac},
	{0x0388, 0x03ad},
	{0x0389, 0x03ae},
	{0x038a, 0x03af},
	{0x038c, 0x03cc},
	{0x038e, 0x03cd},
	{0x038f, 0x03ce},

	// Cyrillic palochka.
	{0x04c0, 0x04cf},

	// Greek Extended: odd-only upsilon block, vowels with varia, and
	// the prosgegrammeni forms.
	{0x1f59, 0x1f51},
	{0x1f5b, 0x1f53},
	{0x1f5d, 0x1f55},
	{0x1f5f, 0x1f57},
	{0x1fba, 0x1f70},
	{0x1fbb, 0x1f71},
	{0x1fc8, 0x1f72},
	{0x1fc9, 0x1f73},
	{0x1fca, 0x1f74},
	{0x1fcb, 0x1f75},
	{0x1fda, 0x1f76},
	{0x1fdb, 0x1f77},
	{0x1ff8, 0x1f78},
	{0x1ff9, 0x1f79},
	{0x1fea, 0x1f7a},
	{0x1feb, 0x1f7b},
	{0x1ffa, 0x1f7c},
	{0x1ffb, 0x1f7d},
	{0x1fb8, 0x1fb0},
	{0x1fb9, 0x1fb1},
	{0x1fbc, 0x1fb3},
	{0x1fcc, 0x1fc3},
	{0x1fd8, 0x1fd0},
	{0x1fd9, 0x1fd1},
	{0x1fe8, 0x1fe0},
	{0x1fe9, 0x1fe1},
	{0x1fec, 0x1fe5},
	{0x1ffc, 0x1ff3},
}

// lowerOnlyPairs map an uppercase-like code point to its lowercase form
// without implying the reverse: the letterlike symbols lowercase into
// the ordinary letter ranges, whose uppercase forms are the ordinary
// capitals.
var lowerOnlyPairs = [][2]uint32{
	{0x0130, 0x0069}, // dotted I lowercases to plain i
	{0x1e9e, 0x00df}, // capital sharp s
	{0x2126, 0x03c9}, // ohm sign
	{0x212a, 0x006b}, // kelvin sign
	{0x212b, 0x00e5}, // angstrom sign
}

// upperOnlyPairs map a lowercase code point to its uppercase form
// without implying the reverse.
var upperOnlyPairs = [][2]uint32{
	{0x0131, 0x0049}, // dotless i uppercases to plain I
	{0x017f, 0x0053}, // long s
	{0x00b5, 0x039c}, // micro sign
	{0x03c2, 0x03a3}, // final sigma
}

var (
	lowerOf = map[uint32]uint32{}
	upperOf = map[uint32]uint32{}
)

func init() {
	for _, p := range symmetricPairs {
		lowerOf[p[0]] = p[1]
		upperOf[p[1]] = p[0]
	}
	for _, p := range lowerOnlyPairs {
		lowerOf[p[0]] = p[1]
	}
	for _, p := range upperOnlyPairs {
		upperOf[p[0]] = p[1]
	}
}

const unicodeKeysymOffset = 0x01000000

// ConvertCase returns the lowercase and uppercase keysyms for sym. A
// caseless keysym converts to itself in both directions.
func ConvertCase(sym uint32) (lower, upper uint32) {
	cp := sym
	prefix := uint32(0)
	switch {
	case sym&0xff000000 == unicodeKeysymOffset:
		cp = sym & 0x00ffffff
		prefix = unicodeKeysymOffset
	case sym > 0xff:
		// Legacy keysyms above Latin-1 (function keys, keypad,
		// national layouts) carry encodings of their own and do not
		// case-fold.
		return sym, sym
	}

	lo, up := convertCodePoint(cp)
	if prefix == 0 {
		// A Latin-1 keysym can only fold within Latin-1. Counterparts
		// in other blocks (micro sign, y diaeresis) are reachable only
		// through the Unicode keysym encoding.
		if lo > 0xff {
			lo = cp
		}
		if up > 0xff {
			up = cp
		}
	}
	return lo | prefix, up | prefix
}

func convertCodePoint(cp uint32) (lower, upper uint32) {
	lower, upper = cp, cp

	if l, ok := lowerOf[cp]; ok {
		lower = l
	}
	if u, ok := upperOf[cp]; ok {
		upper = u
	}
	if lower != cp || upper != cp {
		return lower, upper
	}

	for _, r := range caseRanges {
		if cp < r.lo || cp > r.hi {
			continue
		}
		switch r.rule {
		case caseToLower:
			return uint32(int32(cp) + r.delta), cp
		case caseToUpper:
			return cp, uint32(int32(cp) + r.delta)
		case caseEvenUpper:
			if cp&1 == 0 {
				return cp + 1, cp
			}
			return cp, cp - 1
		case caseOddUpper:
			if cp&1 == 1 {
				return cp + 1, cp
			}
			return cp, cp - 1
		}
	}
	return lower, upper
}
