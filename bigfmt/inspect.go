package bigfmt

import "os"

// DirectorySummary is the information-mode view of an archive: enough to
// print a report without exposing the raw Directory plumbing.
type DirectorySummary struct {
	Path       string
	Format     ArchiveFormat
	FileSize   int64
	State      OverallValidity
	EntryCount int
	ValidCount int
	Directory  *Directory
}

// InspectOptions configures how GetInfo parses the archive's directory.
type InspectOptions struct {
	FixedEntryStride int
	MaxEntryCount    uint32
}

// GetInfo opens the archive at path and parses its directory for display,
// without extracting any payload.
func GetInfo(path string, opts InspectOptions) (*DirectorySummary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, wrapErr(IoError, "opening archive", err)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, wrapErr(IoError, "stat archive", err)
	}

	dir, err := ParseDirectory(f, fi.Size(), ParseOptions{
		FixedEntryStride: opts.FixedEntryStride,
		MaxEntryCount:    opts.MaxEntryCount,
	})
	if err != nil {
		return nil, err
	}

	return &DirectorySummary{
		Path:       path,
		Format:     dir.Format,
		FileSize:   fi.Size(),
		State:      dir.State(),
		EntryCount: len(dir.Entries),
		ValidCount: dir.ValidEntryCount(),
		Directory:  dir,
	}, nil
}
