package bigfmt

import (
	"encoding/binary"
	"errors"
	"io"

	"github.com/bfut/vivbig/internal/layout"
)

// transferBufferSize bounds how much of a payload is ever held in memory
// at once while copying entries in or out of an archive.
const transferBufferSize = 64 * 1024

// wrapLayoutErr maps internal/layout's sentinel errors onto the matching
// bigfmt.ErrorKind, so callers planning a layout see the same stable kinds
// spec §7's error table names rather than a generic InvalidEntry.
func wrapLayoutErr(err error) error {
	switch {
	case errors.Is(err, layout.ErrFilenameTooLong):
		return wrapErr(FilenameTooLong, "computing layout", err)
	case errors.Is(err, layout.ErrStrideTooSmall):
		return wrapErr(StrideTooSmall, "computing layout", err)
	default:
		return wrapErr(InvalidEntry, "computing layout", err)
	}
}

// writeDirectoryRecord writes one directory record: the 8-byte
// offset/size prefix, the name, a NUL terminator, and (for fixed-stride
// directories) trailing zero padding out to stride bytes.
func writeDirectoryRecord(w io.Writer, bo binary.ByteOrder, e layout.EntryLayout, stride int) error {
	var prefix [8]byte
	bo.PutUint32(prefix[0:4], uint32(e.Offset))
	bo.PutUint32(prefix[4:8], uint32(e.Size))
	if _, err := w.Write(prefix[:]); err != nil {
		return wrapErr(IoError, "writing directory record prefix", err)
	}

	nameBytes := append([]byte(e.Name), 0)
	if _, err := w.Write(nameBytes); err != nil {
		return wrapErr(IoError, "writing directory record name", err)
	}

	if stride > 0 {
		written := 8 + len(nameBytes)
		if pad := stride - written; pad > 0 {
			if _, err := w.Write(make([]byte, pad)); err != nil {
				return wrapErr(IoError, "padding fixed-stride directory record", err)
			}
		}
	}
	return nil
}

// copyExactly copies exactly n bytes from src to dst using buf as scratch
// space. If src yields fewer than n bytes before EOF (the source file
// changed size between planning and writing), the remainder is zero
// padded so the archive's declared layout still holds.
func copyExactly(dst io.Writer, src io.Reader, n int64, buf []byte) (int64, error) {
	var total int64
	for total < n {
		chunk := int64(len(buf))
		if remaining := n - total; remaining < chunk {
			chunk = remaining
		}
		r, err := io.ReadFull(src, buf[:chunk])
		if r > 0 {
			if _, werr := dst.Write(buf[:r]); werr != nil {
				return total, wrapErr(IoError, "writing payload", werr)
			}
			total += int64(r)
		}
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			if total < n {
				if _, werr := io.CopyN(dst, zeroReader{}, n-total); werr != nil {
					return total, wrapErr(IoError, "zero-padding short payload", werr)
				}
				total = n
			}
			break
		}
		if err != nil {
			return total, wrapErr(IoError, "reading payload", err)
		}
	}
	return total, nil
}

// zeroReader is an io.Reader that yields an unbounded stream of zero
// bytes, used to pad a payload that shrank after layout was planned.
type zeroReader struct{}

func (zeroReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = 0
	}
	return len(p), nil
}

// writePadding writes n zero bytes to w.
func writePadding(w io.Writer, n int64, buf []byte) error {
	for n > 0 {
		chunk := int64(len(buf))
		if n < chunk {
			chunk = n
		}
		for i := int64(0); i < chunk; i++ {
			buf[i] = 0
		}
		written, err := w.Write(buf[:chunk])
		if err != nil {
			return wrapErr(IoError, "writing padding", err)
		}
		n -= int64(written)
	}
	return nil
}
