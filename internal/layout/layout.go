// Package layout computes the on-disk placement of directory records and
// payloads for a new VIV/BIG archive: header length, per-entry offsets
// and padding, and the resulting total archive size.
package layout

import "errors"

// ErrFilenameTooLong is returned when an input's name is longer than
// maxNameLength bytes, or cannot fit a fixed entry stride.
var ErrFilenameTooLong = errors.New("layout: filename too long")

// ErrStrideTooSmall is returned when a caller-supplied fixed stride is
// smaller than the minimum 8-byte offset/size prefix plus one NUL.
var ErrStrideTooSmall = errors.New("layout: fixed entry stride too small")

// InputSpec describes one file to be packed: its archive name and size.
type InputSpec struct {
	Name string
	Size int64
}

// Options configures how directory records and payloads are laid out.
// FixedEntryStride of 0 selects variable-length records (8-byte prefix
// plus name plus a single NUL terminator). PayloadAlignment of 0 or 1
// disables payload alignment padding.
type Options struct {
	FixedEntryStride int
	PayloadAlignment int
}

// EntryLayout is the computed placement of one input.
type EntryLayout struct {
	Name   string
	Size   int64
	Offset int64
	Pad    int64 // padding bytes following this entry's payload
}

// Plan is the full computed layout of an archive.
type Plan struct {
	HeaderLength int64
	ArchiveSize  int64
	Entries      []EntryLayout
}

func roundUp(x, align int64) int64 {
	if align <= 1 {
		return x
	}
	rem := x % align
	if rem == 0 {
		return x
	}
	return x + (align - rem)
}

// maxNameLength is the spec's hard ceiling on a stored filename, NUL
// excluded: 255 bytes of name plus the terminator must fit the 256-byte
// scan window the parser uses to find it again, regardless of whether
// the archive uses variable or fixed-stride directory records.
const maxNameLength = 255

func recordLength(name string, stride int) (int64, error) {
	if len(name) > maxNameLength {
		return 0, ErrFilenameTooLong
	}
	if stride > 0 {
		if stride < 9 {
			return 0, ErrStrideTooSmall
		}
		if 8+len(name)+1 > stride {
			return 0, ErrFilenameTooLong
		}
		return int64(stride), nil
	}
	return int64(8 + len(name) + 1), nil
}

func directoryBytes(inputs []InputSpec, stride int) (int64, error) {
	var total int64
	for _, in := range inputs {
		n, err := recordLength(in.Name, stride)
		if err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}

// Compute plans header length, per-entry offsets, and total archive size
// for the given inputs. Padding between payload i and payload i+1 is
// attributed to entries[i].Pad; the final entry's Pad is always 0.
func Compute(inputs []InputSpec, opts Options) (*Plan, error) {
	dirBytes, err := directoryBytes(inputs, opts.FixedEntryStride)
	if err != nil {
		return nil, err
	}

	const headerSize = 16
	headerLength := headerSize + dirBytes

	entries := make([]EntryLayout, len(inputs))
	offset := roundUp(headerLength, int64(maxInt(opts.PayloadAlignment, 1)))
	for i, in := range inputs {
		entries[i] = EntryLayout{Name: in.Name, Size: in.Size, Offset: offset}
		next := offset + in.Size
		aligned := roundUp(next, int64(maxInt(opts.PayloadAlignment, 1)))
		entries[i].Pad = aligned - next
		offset = aligned
	}

	var archiveSize int64
	if len(entries) == 0 {
		archiveSize = roundUp(headerLength, int64(maxInt(opts.PayloadAlignment, 1)))
	} else {
		entries[len(entries)-1].Pad = 0
		last := entries[len(entries)-1]
		archiveSize = last.Offset + last.Size
	}

	return &Plan{
		HeaderLength: headerLength,
		ArchiveSize:  archiveSize,
		Entries:      entries,
	}, nil
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
