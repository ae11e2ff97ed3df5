// Package fsnode adapts a single filesystem path into the minimal
// metadata the archive encoder needs: an archive-relative name, a size,
// and a mode check that quietly rejects anything that isn't a regular
// file.
package fsnode

import (
	"os"
	"path/filepath"
)

// Metadata is the subset of os.FileInfo the encoder actually consumes.
type Metadata struct {
	Mode os.FileMode
	Size int64
}

// RegularFile is one input file resolved on disk, ready to be laid out
// into an archive.
type RegularFile struct {
	Path string // path on the local filesystem
	Name string // name to store in the archive directory
	Metadata
}

// Stat resolves path to a RegularFile. ok is false (with a nil error) for
// paths that don't exist or name something other than a regular file;
// err is reserved for unexpected stat failures such as a permissions
// error on an intermediate directory.
func Stat(path string) (*RegularFile, bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	if !info.Mode().IsRegular() {
		return nil, false, nil
	}
	return &RegularFile{
		Path: path,
		Name: filepath.Base(path),
		Metadata: Metadata{
			Mode: info.Mode(),
			Size: info.Size(),
		},
	}, true, nil
}
