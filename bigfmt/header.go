package bigfmt

import "io"

// HeaderSize is the fixed on-disk size of a VIV/BIG header: 4-byte magic
// plus three uint32 fields.
const HeaderSize = 16

// DefaultMaxEntryCount bounds how many directory entries ReadHeader/
// ParseDirectory will ever trust from a declared entry_count field before
// flagging SuspiciousCount. It exists so a corrupt or hostile header can't
// make a caller pre-allocate an unreasonable slice.
const DefaultMaxEntryCount = 10000

// Header is the 16-byte fixed preamble of a VIV/BIG archive.
type Header struct {
	Format       ArchiveFormat
	ArchiveSize  uint32
	EntryCount   uint32
	HeaderLength uint32
}

// ReadHeader reads and validates the 16-byte header from r. maxEntryCount
// of 0 selects DefaultMaxEntryCount. A declared entry_count above the
// limit is reported as SuspiciousCount rather than silently accepted.
func ReadHeader(r io.Reader, maxEntryCount uint32) (Header, error) {
	if maxEntryCount == 0 {
		maxEntryCount = DefaultMaxEntryCount
	}

	var raw [HeaderSize]byte
	if _, err := io.ReadFull(r, raw[:]); err != nil {
		if err == io.ErrUnexpectedEOF || err == io.EOF {
			return Header{}, wrapErr(ShortRead, "archive shorter than 16-byte header", err)
		}
		return Header{}, wrapErr(IoError, "reading header", err)
	}

	var magic [4]byte
	copy(magic[:], raw[0:4])
	format, ok := formatFromMagic(magic)
	if !ok {
		return Header{}, newErrf(InvalidMagic, "unrecognized magic %q", string(magic[:]))
	}

	bo := format.byteOrder()
	h := Header{
		Format:       format,
		ArchiveSize:  bo.Uint32(raw[4:8]),
		EntryCount:   bo.Uint32(raw[8:12]),
		HeaderLength: bo.Uint32(raw[12:16]),
	}
	if h.EntryCount > maxEntryCount {
		return h, newErrf(SuspiciousCount, "declared entry_count %d exceeds limit %d", h.EntryCount, maxEntryCount)
	}
	return h, nil
}

// WriteHeader writes the 16-byte header in the byte order mandated by
// format.
func WriteHeader(w io.Writer, format ArchiveFormat, archiveSize, count, headerLength uint32) error {
	var raw [HeaderSize]byte
	magic := format.magic()
	copy(raw[0:4], magic[:])

	bo := format.byteOrder()
	bo.PutUint32(raw[4:8], archiveSize)
	bo.PutUint32(raw[8:12], count)
	bo.PutUint32(raw[12:16], headerLength)

	if _, err := w.Write(raw[:]); err != nil {
		return wrapErr(IoError, "writing header", err)
	}
	return nil
}
