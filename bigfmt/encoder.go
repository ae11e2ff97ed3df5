package bigfmt

import (
	"io"
	"os"

	"github.com/bfut/vivbig/internal/errs"
	"github.com/bfut/vivbig/internal/fsnode"
	"github.com/bfut/vivbig/internal/layout"
)

// EncodeOptions configures archive construction.
type EncodeOptions struct {
	Format           ArchiveFormat
	FixedEntryStride int
	PayloadAlignment int
	DryRun           bool
}

// DefaultEncodeOptions returns the BIGF, variable-stride, unaligned
// defaults used when a caller doesn't care about the format variant.
func DefaultEncodeOptions() EncodeOptions {
	return EncodeOptions{Format: BigF, FixedEntryStride: 0, PayloadAlignment: 0}
}

// EncodeResult reports what Encode actually wrote.
type EncodeResult struct {
	ArchiveSize  int64
	HeaderLength int64
	Offsets      []int64
	Names        []string
	Warnings     []string
}

// Encode packs the files named by inputPaths into a new archive written
// to dst, in the order given. Missing, unreadable, or non-regular inputs
// are skipped with a warning rather than aborting the whole encode.
func Encode(dst io.Writer, inputPaths []string, opts EncodeOptions) (*EncodeResult, error) {
	var specs []layout.InputSpec
	var files []*fsnode.RegularFile
	var skipped errs.Collector

	for _, p := range inputPaths {
		rf, ok, err := fsnode.Stat(p)
		if err != nil {
			skipped.AddSkippedInput(p, err)
			continue
		}
		if !ok {
			var reason error
			if _, serr := os.Stat(p); os.IsNotExist(serr) {
				reason = serr
			}
			skipped.AddSkippedInput(p, reason)
			continue
		}
		files = append(files, rf)
		specs = append(specs, layout.InputSpec{Name: rf.Name, Size: rf.Metadata.Size})
	}

	var warnings []string
	for _, e := range skipped.Errors {
		warnings = append(warnings, e.Error())
	}

	plan, err := layout.Compute(specs, layout.Options{
		FixedEntryStride: opts.FixedEntryStride,
		PayloadAlignment: opts.PayloadAlignment,
	})
	if err != nil {
		return nil, wrapLayoutErr(err)
	}

	result := &EncodeResult{
		ArchiveSize:  plan.ArchiveSize,
		HeaderLength: plan.HeaderLength,
		Warnings:     warnings,
	}
	for _, e := range plan.Entries {
		result.Offsets = append(result.Offsets, e.Offset)
		result.Names = append(result.Names, e.Name)
	}

	if opts.DryRun {
		return result, nil
	}

	bo := opts.Format.byteOrder()
	if err := WriteHeader(dst, opts.Format, uint32(plan.ArchiveSize), uint32(len(plan.Entries)), uint32(plan.HeaderLength)); err != nil {
		return nil, err
	}

	for _, e := range plan.Entries {
		if err := writeDirectoryRecord(dst, bo, e, opts.FixedEntryStride); err != nil {
			return nil, err
		}
	}

	firstPayload := plan.HeaderLength
	if len(plan.Entries) > 0 {
		firstPayload = plan.Entries[0].Offset
	}
	if pad := firstPayload - plan.HeaderLength; pad > 0 {
		if err := writePadding(dst, pad, make([]byte, transferBufferSize)); err != nil {
			return nil, err
		}
	}

	buf := make([]byte, transferBufferSize)
	for i, e := range plan.Entries {
		f, err := os.Open(files[i].Path)
		if err != nil {
			return nil, wrapErr(IoError, "opening "+files[i].Path, err)
		}
		_, cerr := copyExactly(dst, f, e.Size, buf)
		f.Close()
		if cerr != nil {
			return nil, cerr
		}
		if e.Pad > 0 {
			if err := writePadding(dst, e.Pad, buf); err != nil {
				return nil, err
			}
		}
	}

	return result, nil
}
