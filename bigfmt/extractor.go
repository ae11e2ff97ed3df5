package bigfmt

import (
	"io"
	"os"
	"path/filepath"
)

// Selector picks which directory entries Extract should act on. Name, if
// non-empty, takes precedence over Index; All overrides both.
type Selector struct {
	All   bool
	Index int
	Name  []byte
}

// ExtractOptions configures extraction behavior.
type ExtractOptions struct {
	Overwrite bool
	DryRun    bool // resolve the selector and report what would be written, without touching the filesystem
}

// ExtractedFile records one file written to outDir.
type ExtractedFile struct {
	Index int
	Name  string
	Size  int64
}

// ExtractResult reports the outcome of an Extract call.
type ExtractResult struct {
	Files    []ExtractedFile
	Skipped  []int   // indices of entries skipped as invalid or because the output file already exists
	NotFound bool    // selector matched nothing
	Errors   []error // non-fatal per-entry diagnostics, e.g. UnsafeName skips
}

// Extract writes the payload of each entry matched by sel to outDir,
// reading payload bytes from src via dir's offsets. Entries with
// Validity != Valid are skipped and recorded rather than extracted.
func Extract(src io.ReaderAt, dir *Directory, outDir string, sel Selector, opts ExtractOptions) (*ExtractResult, error) {
	indices, err := resolveSelector(dir, sel)
	if err != nil {
		return nil, err
	}
	result := &ExtractResult{}
	if len(indices) == 0 {
		result.NotFound = true
		return result, nil
	}

	if !opts.DryRun {
		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return nil, wrapErr(IoError, "creating output directory", err)
		}
	}

	buf := make([]byte, transferBufferSize)
	for _, idx := range indices {
		e := dir.Entries[idx]
		if e.Validity != Valid {
			result.Skipped = append(result.Skipped, idx)
			continue
		}

		outName := e.OutputName()
		if isUnsafeName([]byte(outName)) || filepath.IsAbs(outName) {
			// spec §4.4: path-traversal safety is the extractor's own
			// invariant, enforced here regardless of how the parser
			// already classified the entry. Recorded in Errors only (not
			// Skipped), since it is a distinct, named failure kind rather
			// than the generic invalid/pre-existing skip.
			result.Errors = append(result.Errors, newErrf(UnsafeName, "entry %d resolves to unsafe output path %q; skipped", idx, outName))
			continue
		}
		outPath := filepath.Join(outDir, outName)
		if !opts.Overwrite {
			if _, err := os.Stat(outPath); err == nil {
				result.Skipped = append(result.Skipped, idx)
				continue
			}
		}

		if opts.DryRun {
			result.Files = append(result.Files, ExtractedFile{Index: idx, Name: outName, Size: int64(e.Size)})
			continue
		}

		out, err := os.OpenFile(outPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
		if err != nil {
			return nil, wrapErr(OutputOpenFailed, "creating "+outPath, err)
		}
		sr := io.NewSectionReader(src, int64(e.Offset), int64(e.Size))
		if _, err := io.CopyBuffer(out, sr, buf); err != nil {
			out.Close()
			return nil, wrapErr(IoError, "extracting "+outName, err)
		}
		out.Close()

		result.Files = append(result.Files, ExtractedFile{Index: idx, Name: outName, Size: int64(e.Size)})
	}

	return result, nil
}

// resolveSelector turns a Selector into a concrete list of entry indices.
// A Name selector matches the first entry whose raw name equals sel.Name;
// it takes precedence over Index when both are set.
func resolveSelector(dir *Directory, sel Selector) ([]int, error) {
	if sel.All {
		indices := make([]int, len(dir.Entries))
		for i := range dir.Entries {
			indices[i] = i
		}
		return indices, nil
	}
	if len(sel.Name) > 0 {
		for i, e := range dir.Entries {
			if string(e.Name) == string(sel.Name) {
				return []int{i}, nil
			}
		}
		return nil, nil
	}
	if sel.Index < 0 || sel.Index >= len(dir.Entries) {
		return nil, newErrf(IndexOutOfRange, "index %d out of range [0,%d)", sel.Index, len(dir.Entries))
	}
	return []int{sel.Index}, nil
}
