package bigfmt

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// ParseOptions configures directory parsing. FixedEntryStride of 0
// expects variable-length, NUL-terminated name fields; a positive value
// expects every record to occupy exactly that many bytes. MaxEntryCount
// of 0 selects DefaultMaxEntryCount. PayloadAlignment of 0 or 1 disables
// alignment checks on entry offsets.
type ParseOptions struct {
	FixedEntryStride int
	MaxEntryCount    uint32
	PayloadAlignment int
}

// maxNameScan bounds how far parseVariableEntry will scan for a NUL
// terminator before giving up, so a corrupt archive can't make the parser
// read unboundedly far looking for one.
const maxNameScan = 256

// errNameOverrun signals that a variable-stride name field ran past the
// archive's bounds, or past the maxNameScan window, without finding its
// NUL terminator. It is not a hard
// parse failure: the caller synthesizes an InvalidName entry from the
// partial scan and stops, per spec §4.2's tie-break rule.
var errNameOverrun = errors.New("bigfmt: name field runs past archive bounds")

// ParseDirectory reads and validates the header and directory of an
// archive accessible via r, whose total size is fileSize. Three
// conditions can end the directory scan, whichever comes first: the
// header's declared entry_count, the header_length boundary, or running
// out of file to read.
func ParseDirectory(r io.ReaderAt, fileSize int64, opts ParseOptions) (*Directory, error) {
	if opts.MaxEntryCount == 0 {
		opts.MaxEntryCount = DefaultMaxEntryCount
	}
	if opts.FixedEntryStride != 0 && (opts.FixedEntryStride < 10 || opts.FixedEntryStride > 255) {
		return nil, newErrf(StrideTooSmall, "fixed entry stride %d outside the valid [10,255] range", opts.FixedEntryStride)
	}

	hr := io.NewSectionReader(r, 0, fileSize)
	header, err := ReadHeader(hr, opts.MaxEntryCount)
	if err != nil {
		if e, ok := err.(*Error); !ok || e.Kind != SuspiciousCount {
			return nil, err
		}
	}

	dir := &Directory{
		Format:              header.Format,
		HeaderDeclaredCount: header.EntryCount,
		HeaderLength:        header.HeaderLength,
		FileSize:            fileSize,
		FixedEntryStride:    opts.FixedEntryStride,
	}

	declaredCount := header.EntryCount
	if declaredCount > opts.MaxEntryCount {
		dir.Warnings = append(dir.Warnings, fmt.Sprintf("declared entry_count %d exceeds limit %d; scan bounded by file size and header_length only", declaredCount, opts.MaxEntryCount))
		declaredCount = 0 // fall back to the other two termination conditions
	}

	firstPayloadOffset := int64(header.HeaderLength)

	pos := int64(HeaderSize)
	headerBoundary := int64(header.HeaderLength)
	var entries []DirectoryEntry

	for {
		if declaredCount > 0 && int64(len(entries)) >= int64(declaredCount) {
			break
		}
		if headerBoundary > 0 && pos >= headerBoundary {
			break
		}
		if pos >= fileSize {
			dir.Truncated = true
			break
		}

		var e DirectoryEntry
		var n int64
		var perr error
		if opts.FixedEntryStride > 0 {
			e, n, perr = parseFixedEntry(r, header.Format.byteOrder(), pos, fileSize, opts.FixedEntryStride)
		} else {
			e, n, perr = parseVariableEntry(r, header.Format.byteOrder(), pos, fileSize)
		}
		if perr != nil {
			if perr == errNameOverrun {
				// spec §4.2: the name field ran past archive bounds; the
				// entry is still emitted, tagged InvalidName, and parsing
				// stops here rather than aborting the whole directory.
				entries = append(entries, e)
			} else {
				dir.Truncated = true
			}
			break
		}

		classifyAndValidate(&e, firstPayloadOffset, fileSize, opts.PayloadAlignment, entries)
		entries = append(entries, e)
		pos += n
	}

	dir.Entries = entries

	if header.HeaderLength != 0 && header.HeaderLength < HeaderSize {
		dir.HeaderLengthMismatch = true
		dir.Warnings = append(dir.Warnings, fmt.Sprintf("header_length %d is smaller than the fixed header size %d", header.HeaderLength, HeaderSize))
	}
	if declaredCount > 0 && uint32(len(entries)) != declaredCount && !dir.Truncated {
		dir.HeaderLengthMismatch = true
		dir.Warnings = append(dir.Warnings, fmt.Sprintf("parsed %d entries but header declared %d", len(entries), declaredCount))
	}

	var maxEnd int64
	for _, e := range entries {
		end := int64(e.Offset) + int64(e.Size)
		if end > maxEnd {
			maxEnd = end
		}
	}
	dir.ComputedArchiveSize = maxEnd
	if maxEnd == 0 {
		dir.ComputedArchiveSize = int64(header.ArchiveSize)
	}
	if int64(header.ArchiveSize) != dir.ComputedArchiveSize {
		dir.Warnings = append(dir.Warnings, fmt.Sprintf("declared archive_size %d does not match computed extent %d", header.ArchiveSize, dir.ComputedArchiveSize))
	}

	return dir, nil
}

// parseVariableEntry reads one 8-byte offset/size prefix followed by a
// NUL-terminated name, starting at pos.
func parseVariableEntry(r io.ReaderAt, bo binary.ByteOrder, pos, fileSize int64) (DirectoryEntry, int64, error) {
	if pos+8 > fileSize {
		return DirectoryEntry{}, 0, io.ErrUnexpectedEOF
	}
	var prefix [8]byte
	if _, err := r.ReadAt(prefix[:], pos); err != nil {
		return DirectoryEntry{}, 0, err
	}

	offset := bo.Uint32(prefix[0:4])
	size := bo.Uint32(prefix[4:8])

	scanLen := maxNameScan
	if pos+8+int64(scanLen) > fileSize {
		scanLen = int(fileSize - pos - 8)
	}
	if scanLen < 0 {
		return DirectoryEntry{}, 0, io.ErrUnexpectedEOF
	}
	buf := make([]byte, scanLen)
	if scanLen > 0 {
		if _, err := r.ReadAt(buf, pos+8); err != nil && err != io.EOF {
			return DirectoryEntry{}, 0, err
		}
	}
	nulIdx := bytes.IndexByte(buf, 0)
	if nulIdx < 0 {
		partial := append([]byte(nil), buf...)
		class, hexName := classifyName(partial)
		e := DirectoryEntry{
			Offset:     offset,
			Size:       size,
			Name:       partial,
			NameOffset: pos + 8,
			Class:      class,
			HexName:    hexName,
			Validity:   InvalidName,
		}
		return e, 0, errNameOverrun
	}

	name := append([]byte(nil), buf[:nulIdx]...)
	class, hexName := classifyName(name)

	e := DirectoryEntry{
		Offset:     offset,
		Size:       size,
		Name:       name,
		NameOffset: pos + 8,
		Class:      class,
		HexName:    hexName,
	}
	recordLen := int64(8 + nulIdx + 1)
	return e, recordLen, nil
}

// parseFixedEntry reads one fixed-stride record: the same 8-byte prefix,
// then a name field padded to stride-8 bytes, NUL-terminated within it.
func parseFixedEntry(r io.ReaderAt, bo binary.ByteOrder, pos, fileSize int64, stride int) (DirectoryEntry, int64, error) {
	if pos+int64(stride) > fileSize {
		return DirectoryEntry{}, 0, io.ErrUnexpectedEOF
	}
	raw := make([]byte, stride)
	if _, err := r.ReadAt(raw, pos); err != nil {
		return DirectoryEntry{}, 0, err
	}

	offset := bo.Uint32(raw[0:4])
	size := bo.Uint32(raw[4:8])

	nameField := raw[8:]
	nulIdx := bytes.IndexByte(nameField, 0)
	if nulIdx < 0 {
		nulIdx = len(nameField)
	}
	name := append([]byte(nil), nameField[:nulIdx]...)
	class, hexName := classifyName(name)

	e := DirectoryEntry{
		Offset:     offset,
		Size:       size,
		Name:       name,
		NameOffset: pos + 8,
		Class:      class,
		HexName:    hexName,
	}
	return e, int64(stride), nil
}

// classifyAndValidate fills in e.Validity (and e.Class/HexName, already
// set by the caller) by checking the entry's payload bounds, alignment,
// name safety, and overlap against entries already known to be valid.
func classifyAndValidate(e *DirectoryEntry, firstPayloadOffset, fileSize int64, alignment int, validSoFar []DirectoryEntry) {
	if isUnsafeName(e.Name) {
		e.Validity = InvalidName
		return
	}

	start := int64(e.Offset)
	end := start + int64(e.Size)

	if start < firstPayloadOffset || start > fileSize {
		e.Validity = InvalidOffset
		return
	}
	if alignment > 1 && start%int64(alignment) != 0 {
		e.Validity = InvalidOffset
		return
	}
	if end > fileSize || end < start {
		e.Validity = InvalidSize
		return
	}

	for _, other := range validSoFar {
		if other.Validity != Valid {
			continue
		}
		oStart := int64(other.Offset)
		oEnd := oStart + int64(other.Size)
		if start < oEnd && oStart < end {
			e.Validity = Overlaps
			return
		}
	}

	e.Validity = Valid
}
