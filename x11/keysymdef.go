package x11

// Keysym constants from keysymdef.h, limited to what key bindings
// commonly name.
const (
	XKSpace     = 0x0020
	XKBackspace = 0xff08
	XKTab       = 0xff09
	XKReturn    = 0xff0d
	XKEscape    = 0xff1b
	XKHome      = 0xff50
	XKLeft      = 0xff51
	XKUp        = 0xff52
	XKRight     = 0xff53
	XKDown      = 0xff54
	XKPageUp    = 0xff55
	XKPageDown  = 0xff56
	XKEnd       = 0xff57
	XKDelete    = 0xffff
	XKF1        = 0xffbe

	// XF86 multimedia keysyms.
	XKAudioLowerVolume = 0x1008ff11
	XKAudioMute        = 0x1008ff12
	XKAudioRaiseVolume = 0x1008ff13
)

var keysymNames = map[string]uint32{
	"space":            XKSpace,
	"backspace":        XKBackspace,
	"tab":              XKTab,
	"return":           XKReturn,
	"enter":            XKReturn,
	"escape":           XKEscape,
	"home":             XKHome,
	"left":             XKLeft,
	"up":               XKUp,
	"right":            XKRight,
	"down":             XKDown,
	"pageup":           XKPageUp,
	"pagedown":         XKPageDown,
	"end":              XKEnd,
	"delete":           XKDelete,
	"audiolowervolume": XKAudioLowerVolume,
	"audiomute":        XKAudioMute,
	"audioraisevolume": XKAudioRaiseVolume,
}

// KeysymFromName resolves a key name from the configuration file: a
// single Latin-1 character stands for itself (lowercased, since grabs
// match the base column), "f1".."f35" are function keys, and a small
// set of names covers the specials. Unknown names yield NoSymbol.
func KeysymFromName(name string) uint32 {
	if name == "" {
		return NoSymbol
	}
	runes := []rune(name)
	if len(runes) == 1 {
		cp := uint32(runes[0])
		if cp >= 0x20 && cp <= 0xff {
			lower, _ := ConvertCase(cp)
			return lower
		}
		lower, _ := ConvertCase(cp | unicodeKeysymOffset)
		return lower
	}

	lowered := asciiLower(name)
	if sym, ok := keysymNames[lowered]; ok {
		return sym
	}
	if lowered[0] == 'f' && len(lowered) <= 3 {
		n := 0
		for _, r := range lowered[1:] {
			if r < '0' || r > '9' {
				return NoSymbol
			}
			n = n*10 + int(r-'0')
		}
		if n >= 1 && n <= 35 {
			return XKF1 + uint32(n-1)
		}
	}
	return NoSymbol
}

func asciiLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + 0x20
		}
	}
	return string(b)
}
