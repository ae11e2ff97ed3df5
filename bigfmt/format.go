// Package bigfmt implements the VIV/BIG archive container format used by
// Electronic Arts "Need for Speed" era titles: header codec, directory
// parser and validator, layout-driven encoder, in-place updater, and
// directory inspector.
package bigfmt

import "encoding/binary"

// ArchiveFormat identifies one of the three VIV/BIG magic variants. The
// format tag determines both the magic bytes and the byte order of every
// integer field in the header and directory, so callers never branch on
// endianness themselves.
type ArchiveFormat int

const (
	BigF ArchiveFormat = iota
	BigH
	Big4
)

func (f ArchiveFormat) String() string {
	switch f {
	case BigF:
		return "BIGF"
	case BigH:
		return "BIGH"
	case Big4:
		return "BIG4"
	default:
		return "UNKNOWN"
	}
}

func (f ArchiveFormat) magic() [4]byte {
	switch f {
	case BigF:
		return [4]byte{'B', 'I', 'G', 'F'}
	case BigH:
		return [4]byte{'B', 'I', 'G', 'H'}
	case Big4:
		return [4]byte{'B', 'I', 'G', '4'}
	default:
		panic("bigfmt: unknown ArchiveFormat")
	}
}

// byteOrder returns the byte order mandated for this format: BIGF and BIGH
// are big-endian, BIG4 is little-endian.
func (f ArchiveFormat) byteOrder() binary.ByteOrder {
	if f == Big4 {
		return binary.LittleEndian
	}
	return binary.BigEndian
}

func formatFromMagic(magic [4]byte) (ArchiveFormat, bool) {
	switch string(magic[:]) {
	case "BIGF":
		return BigF, true
	case "BIGH":
		return BigH, true
	case "BIG4":
		return Big4, true
	default:
		return 0, false
	}
}

// ParseFormat maps a CLI-style format name ("BIGF", "BIGH", "BIG4",
// case-insensitively) to an ArchiveFormat.
func ParseFormat(name string) (ArchiveFormat, bool) {
	var magic [4]byte
	if len(name) != 4 {
		return 0, false
	}
	for i := 0; i < 4; i++ {
		c := name[i]
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		magic[i] = c
	}
	return formatFromMagic(magic)
}
