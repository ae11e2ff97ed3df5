// Package arpeek sniffs and describes foreign ar(1) archives encountered
// where a VIV/BIG archive was expected, so the inspector can give a
// useful diagnostic instead of just "invalid magic".
package arpeek

import (
	"fmt"
	"io"

	"github.com/blakesmith/ar"
)

// arMagic is the fixed 8-byte prefix of every Unix ar archive.
const arMagic = "!<arch>\n"

// Looks reports whether head begins with the ar(1) magic.
func Looks(head []byte) bool {
	if len(head) < len(arMagic) {
		return false
	}
	return string(head[:len(arMagic)]) == arMagic
}

// Describe renders a one-line-per-entry summary of the ar archive read
// from r, for display when a user points the inspector at a mistaken
// file.
func Describe(r io.Reader) (string, error) {
	reader := ar.NewReader(r)
	summary := ""
	for {
		header, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		summary += fmt.Sprintf("%s (mode: %o, owner: %d, group: %d, size: %d)\n",
			header.Name, header.Mode, header.Uid, header.Gid, header.Size)
	}
	return summary, nil
}
