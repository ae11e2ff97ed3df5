package bigfmt

import (
	"io"
	"os"
	"path/filepath"

	"github.com/bfut/vivbig/internal/layout"
)

// UpdateOptions selects which entry to replace and whether its stored
// name should change along with its payload.
type UpdateOptions struct {
	Index           int
	ReplaceFilename bool
	NewName         string
}

// UpdateResult reports the archive's layout after the update.
type UpdateResult struct {
	ArchiveSize  int64
	HeaderLength int64
	Offsets      []int64
}

// Update replaces the payload (and optionally the name) of the entry at
// opts.Index in the archive at archivePath with the contents of
// newPayloadPath.
//
// When the target entry's size is unchanged and its name is not being
// replaced, every other entry's offset is provably unaffected, and the
// update is applied in place with a single seek-and-rewrite of the
// target's payload. Any other case — a size change, or a filename
// replacement — goes through the full rewrite below; a size change or a
// name-length change under variable-stride directories shifts
// every payload offset from the target entry onward, including entries
// that precede it in payload order but whose directory record offset
// field must still be rewritten; those cases always go through a full,
// atomic rewrite to a temp file so a crash mid-update cannot leave the
// archive in a half-shifted, corrupt state.
func Update(archivePath, newPayloadPath string, opts UpdateOptions) (*UpdateResult, error) {
	f, err := os.Open(archivePath)
	if err != nil {
		return nil, wrapErr(IoError, "opening archive", err)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, wrapErr(IoError, "stat archive", err)
	}
	fileSize := fi.Size()

	dir, err := ParseDirectory(f, fileSize, ParseOptions{FixedEntryStride: 0})
	if err != nil {
		return nil, err
	}
	if opts.Index < 0 || opts.Index >= len(dir.Entries) {
		return nil, newErrf(IndexOutOfRange, "index %d out of range [0,%d)", opts.Index, len(dir.Entries))
	}

	newInfo, err := os.Stat(newPayloadPath)
	if err != nil {
		return nil, wrapErr(IoError, "stat new payload", err)
	}

	newName := string(dir.Entries[opts.Index].Name)
	if opts.ReplaceFilename {
		if opts.NewName != "" {
			newName = opts.NewName
		} else {
			newName = filepath.Base(newPayloadPath)
		}
	}

	sizeDelta := newInfo.Size() - int64(dir.Entries[opts.Index].Size)
	nameDelta := int64(len(newName)) - int64(len(dir.Entries[opts.Index].Name))

	if sizeDelta == 0 && nameDelta == 0 && !opts.ReplaceFilename {
		return updateInPlace(archivePath, newPayloadPath, dir, opts.Index)
	}
	return rewriteFromEntry(archivePath, newPayloadPath, dir, opts.Index, newName)
}

// updateInPlace handles the case where the target entry's size and name
// are unchanged: no other entry's offset or directory record is
// affected, so only the target payload bytes need rewriting.
func updateInPlace(archivePath, newPayloadPath string, dir *Directory, index int) (*UpdateResult, error) {
	f, err := os.OpenFile(archivePath, os.O_RDWR, 0)
	if err != nil {
		return nil, wrapErr(IoError, "opening archive for write", err)
	}
	defer f.Close()

	target := dir.Entries[index]
	newPayload, err := os.Open(newPayloadPath)
	if err != nil {
		return nil, wrapErr(IoError, "opening new payload", err)
	}
	defer newPayload.Close()

	if _, err := f.Seek(int64(target.Offset), io.SeekStart); err != nil {
		return nil, wrapErr(IoError, "seeking to payload", err)
	}
	buf := make([]byte, transferBufferSize)
	if _, err := copyExactly(f, newPayload, int64(target.Size), buf); err != nil {
		return nil, err
	}

	result := &UpdateResult{ArchiveSize: dir.ComputedArchiveSize, HeaderLength: int64(dir.HeaderLength)}
	for _, e := range dir.Entries {
		result.Offsets = append(result.Offsets, int64(e.Offset))
	}
	return result, nil
}

// rewriteFromEntry performs a full, atomic rewrite of the archive: a new
// layout is computed from the updated entry list (with the target's size
// and possibly name changed), and the whole archive — directory plus
// every payload, unchanged entries included — is written to a temp file
// before being renamed over the original.
func rewriteFromEntry(archivePath, newPayloadPath string, dir *Directory, index int, newName string) (*UpdateResult, error) {
	src, err := os.Open(archivePath)
	if err != nil {
		return nil, wrapErr(IoError, "opening archive", err)
	}
	defer src.Close()

	newInfo, err := os.Stat(newPayloadPath)
	if err != nil {
		return nil, wrapErr(IoError, "stat new payload", err)
	}

	specs := make([]layout.InputSpec, len(dir.Entries))
	for i, e := range dir.Entries {
		if i == index {
			specs[i] = layout.InputSpec{Name: newName, Size: newInfo.Size()}
		} else {
			specs[i] = layout.InputSpec{Name: string(e.Name), Size: int64(e.Size)}
		}
	}

	plan, err := layout.Compute(specs, layout.Options{FixedEntryStride: dir.FixedEntryStride})
	if err != nil {
		return nil, wrapLayoutErr(err)
	}

	dstDir := filepath.Dir(archivePath)
	tmp, err := os.CreateTemp(dstDir, ".vivbig-update-*")
	if err != nil {
		return nil, wrapErr(OutputOpenFailed, "creating temp file", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		tmp.Close()
		os.Remove(tmpPath)
	}()

	bo := dir.Format.byteOrder()
	if err := WriteHeader(tmp, dir.Format, uint32(plan.ArchiveSize), uint32(len(plan.Entries)), uint32(plan.HeaderLength)); err != nil {
		return nil, err
	}
	for _, e := range plan.Entries {
		if err := writeDirectoryRecord(tmp, bo, e, dir.FixedEntryStride); err != nil {
			return nil, err
		}
	}

	firstPayload := plan.HeaderLength
	if len(plan.Entries) > 0 {
		firstPayload = plan.Entries[0].Offset
	}
	buf := make([]byte, transferBufferSize)
	if pad := firstPayload - plan.HeaderLength; pad > 0 {
		if err := writePadding(tmp, pad, buf); err != nil {
			return nil, err
		}
	}

	for i, e := range plan.Entries {
		if i == index {
			newPayload, err := os.Open(newPayloadPath)
			if err != nil {
				return nil, wrapErr(IoError, "opening new payload", err)
			}
			_, cerr := copyExactly(tmp, newPayload, e.Size, buf)
			newPayload.Close()
			if cerr != nil {
				return nil, cerr
			}
		} else {
			orig := dir.Entries[i]
			sr := io.NewSectionReader(src, int64(orig.Offset), int64(orig.Size))
			if _, cerr := copyExactly(tmp, sr, e.Size, buf); cerr != nil {
				return nil, cerr
			}
		}
		if e.Pad > 0 {
			if err := writePadding(tmp, e.Pad, buf); err != nil {
				return nil, err
			}
		}
	}

	if err := tmp.Close(); err != nil {
		return nil, wrapErr(IoError, "closing temp file", err)
	}
	src.Close()
	if err := os.Rename(tmpPath, archivePath); err != nil {
		return nil, wrapErr(IoError, "renaming temp file over archive", err)
	}

	result := &UpdateResult{ArchiveSize: plan.ArchiveSize, HeaderLength: plan.HeaderLength}
	for _, e := range plan.Entries {
		result.Offsets = append(result.Offsets, e.Offset)
	}
	return result, nil
}
