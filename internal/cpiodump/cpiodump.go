// Package cpiodump re-exports extracted archive entries as a cpio
// archive, for users who want a single file to hand to other Unix
// archive tooling instead of a directory of loose files.
package cpiodump

import (
	"io"

	cpio "github.com/surma/gocpio"
)

// Entry is one file to be written into the cpio archive.
type Entry struct {
	Name    string
	Size    int64
	Payload io.Reader
}

// WriteAll writes entries as a cpio "newc"-style archive to w, followed
// by the standard TRAILER!!! record.
func WriteAll(w io.Writer, entries []Entry) error {
	cw := cpio.NewWriter(w)
	defer cw.Close()

	for _, e := range entries {
		hdr := &cpio.Header{
			Name: e.Name,
			Mode: cpio.TYPE_REG | 0o644,
			Size: e.Size,
		}
		if err := cw.WriteHeader(hdr); err != nil {
			return err
		}
		if _, err := io.Copy(cw, e.Payload); err != nil {
			return err
		}
	}
	return nil
}
