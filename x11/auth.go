package x11

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
)

func readU16BE(r io.Reader, b []byte) (uint16, error) {
	if _, err := io.ReadFull(r, b[:2]); err != nil {
		return 0, err
	}
	return uint16(b[0])<<8 | uint16(b[1]), nil
}

func readCounted(r io.Reader, b []byte) ([]byte, error) {
	n, err := readU16BE(r, b)
	if err != nil {
		return nil, err
	}
	if int(n) > len(b) {
		return nil, errors.New("authority field too long")
	}
	if _, err := io.ReadFull(r, b[:n]); err != nil {
		return nil, err
	}
	return b[:n], nil
}

// readAuthority scans the authority file named by $XAUTHORITY (or
// ~/.Xauthority) in file order and returns the first entry whose
// address matches the local hostname. No match is an error: the server
// will not accept an unauthenticated setup on a cookie-protected
// display.
func readAuthority() (name string, data []byte, err error) {
	hostname, err := os.Hostname()
	if err != nil {
		return "", nil, err
	}

	fname := os.Getenv("XAUTHORITY")
	if fname == "" {
		home := os.Getenv("HOME")
		if home == "" {
			return "", nil, errors.New("Xauthority not found: $XAUTHORITY and $HOME are unset")
		}
		fname = home + "/.Xauthority"
	}

	f, err := os.Open(fname)
	if err != nil {
		return "", nil, err
	}
	defer f.Close()

	return findAuthority(bufio.NewReader(f), hostname)
}

func findAuthority(r io.Reader, hostname string) (string, []byte, error) {
	// Each record: family (raw big-endian u16), then address, display
	// number, auth name and auth data, all length-prefixed.
	var b [256]byte
	for {
		if _, err := readU16BE(r, b[:]); err == io.EOF {
			break
		} else if err != nil {
			return "", nil, err
		}

		addr, err := readCounted(r, b[:])
		if err != nil {
			return "", nil, err
		}
		address := string(addr)

		if _, err := readCounted(r, b[:]); err != nil { // display number
			return "", nil, err
		}

		nameb, err := readCounted(r, b[:])
		if err != nil {
			return "", nil, err
		}
		name := string(nameb)

		datab, err := readCounted(r, b[:])
		if err != nil {
			return "", nil, err
		}

		if address == hostname {
			data := make([]byte, len(datab))
			copy(data, datab)
			return name, data, nil
		}
	}
	return "", nil, fmt.Errorf("no authority entry for host %q", hostname)
}
