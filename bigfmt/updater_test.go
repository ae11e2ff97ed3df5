package bigfmt

import (
	"os"
	"path/filepath"
	"testing"
)

func buildArchiveFile(t *testing.T, dir string, inputPaths []string) string {
	t.Helper()
	archivePath := filepath.Join(dir, "archive.viv")
	out, err := os.Create(archivePath)
	if err != nil {
		t.Fatalf("creating archive: %v", err)
	}
	defer out.Close()
	if _, err := Encode(out, inputPaths, DefaultEncodeOptions()); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	return archivePath
}

func TestUpdateIdempotentSameSizeSamePayload(t *testing.T) {
	dir := t.TempDir()
	p1 := writeTempFile(t, dir, "a.txt", []byte("1234567890"))
	p2 := writeTempFile(t, dir, "b.txt", []byte("abcdefghij"))
	archivePath := buildArchiveFile(t, dir, []string{p1, p2})

	before, err := os.ReadFile(archivePath)
	if err != nil {
		t.Fatalf("reading archive: %v", err)
	}

	// Re-supply entry 0's exact current payload; archive must be unchanged.
	same := writeTempFile(t, dir, "same.txt", []byte("1234567890"))
	if _, err := Update(archivePath, same, UpdateOptions{Index: 0}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	after, err := os.ReadFile(archivePath)
	if err != nil {
		t.Fatalf("reading archive after update: %v", err)
	}
	if string(before) != string(after) {
		t.Errorf("no-op update changed archive bytes")
	}
}

func TestUpdateInPlaceFastPath(t *testing.T) {
	dir := t.TempDir()
	p1 := writeTempFile(t, dir, "a.txt", []byte("1234567890"))
	p2 := writeTempFile(t, dir, "b.txt", []byte("abcdefghij"))
	archivePath := buildArchiveFile(t, dir, []string{p1, p2})

	newPayload := writeTempFile(t, dir, "a_new.txt", []byte("ZZZZZZZZZZ")) // same length, different content
	result, err := Update(archivePath, newPayload, UpdateOptions{Index: 0})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	f, err := os.Open(archivePath)
	if err != nil {
		t.Fatalf("opening archive: %v", err)
	}
	defer f.Close()
	fi, _ := f.Stat()
	parsed, err := ParseDirectory(f, fi.Size(), ParseOptions{})
	if err != nil {
		t.Fatalf("ParseDirectory: %v", err)
	}

	if parsed.Entries[1].Offset != uint32(result.Offsets[1]) {
		t.Errorf("entry 1 offset drifted after same-size update")
	}

	raw, _ := os.ReadFile(archivePath)
	e0 := parsed.Entries[0]
	if got := string(raw[e0.Offset : e0.Offset+e0.Size]); got != "ZZZZZZZZZZ" {
		t.Errorf("entry 0 payload = %q, want ZZZZZZZZZZ", got)
	}
}

func TestUpdateRewriteOnSizeChange(t *testing.T) {
	dir := t.TempDir()
	p1 := writeTempFile(t, dir, "a.txt", []byte("short"))
	p2 := writeTempFile(t, dir, "b.txt", []byte("unchanged-payload"))
	archivePath := buildArchiveFile(t, dir, []string{p1, p2})

	bigger := writeTempFile(t, dir, "bigger.txt", []byte("this payload is a lot longer than the original"))
	result, err := Update(archivePath, bigger, UpdateOptions{Index: 0})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	f, err := os.Open(archivePath)
	if err != nil {
		t.Fatalf("opening archive: %v", err)
	}
	defer f.Close()
	fi, _ := f.Stat()
	parsed, err := ParseDirectory(f, fi.Size(), ParseOptions{})
	if err != nil {
		t.Fatalf("ParseDirectory: %v", err)
	}

	if len(parsed.Entries) != 2 {
		t.Fatalf("expected 2 entries after update, got %d", len(parsed.Entries))
	}
	for i, e := range parsed.Entries {
		if e.Validity != Valid {
			t.Errorf("entry %d invalid after rewrite: %v", i, e.Validity)
		}
	}
	raw, _ := os.ReadFile(archivePath)
	e1 := parsed.Entries[1]
	if got := string(raw[e1.Offset : e1.Offset+e1.Size]); got != "unchanged-payload" {
		t.Errorf("entry 1 payload corrupted by rewrite: %q", got)
	}
	if result.ArchiveSize != fi.Size() {
		t.Errorf("reported archive size %d does not match file size %d", result.ArchiveSize, fi.Size())
	}
}

func TestUpdateIndexOutOfRange(t *testing.T) {
	dir := t.TempDir()
	p1 := writeTempFile(t, dir, "a.txt", []byte("x"))
	archivePath := buildArchiveFile(t, dir, []string{p1})

	newPayload := writeTempFile(t, dir, "y.txt", []byte("y"))
	_, err := Update(archivePath, newPayload, UpdateOptions{Index: 5})
	e, ok := err.(*Error)
	if !ok || e.Kind != IndexOutOfRange {
		t.Fatalf("expected IndexOutOfRange error, got %v", err)
	}
}
