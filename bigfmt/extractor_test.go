package bigfmt

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestExtractByIndexAndName(t *testing.T) {
	dir := t.TempDir()
	p1 := writeTempFile(t, dir, "a.txt", []byte("first"))
	p2 := writeTempFile(t, dir, "b.txt", []byte("second"))
	archivePath := buildArchiveFile(t, dir, []string{p1, p2})

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

	outDir := filepath.Join(dir, "out")
	result, err := Extract(f, parsed, outDir, Selector{Name: []byte("b.txt")}, ExtractOptions{})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(result.Files) != 1 || result.Files[0].Name != "b.txt" {
		t.Fatalf("unexpected extract result: %+v", result)
	}
	got, err := os.ReadFile(filepath.Join(outDir, "b.txt"))
	if err != nil {
		t.Fatalf("reading extracted file: %v", err)
	}
	if string(got) != "second" {
		t.Errorf("extracted content = %q, want %q", got, "second")
	}
}

func TestExtractAll(t *testing.T) {
	dir := t.TempDir()
	p1 := writeTempFile(t, dir, "a.txt", []byte("1"))
	p2 := writeTempFile(t, dir, "b.txt", []byte("2"))
	archivePath := buildArchiveFile(t, dir, []string{p1, p2})

	f, _ := os.Open(archivePath)
	defer f.Close()
	fi, _ := f.Stat()
	parsed, err := ParseDirectory(f, fi.Size(), ParseOptions{})
	if err != nil {
		t.Fatalf("ParseDirectory: %v", err)
	}

	outDir := filepath.Join(dir, "out-all")
	result, err := Extract(f, parsed, outDir, Selector{All: true}, ExtractOptions{})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(result.Files) != 2 {
		t.Fatalf("expected 2 files extracted, got %d", len(result.Files))
	}
}

func TestExtractNotFound(t *testing.T) {
	dir := t.TempDir()
	p1 := writeTempFile(t, dir, "a.txt", []byte("1"))
	archivePath := buildArchiveFile(t, dir, []string{p1})

	f, _ := os.Open(archivePath)
	defer f.Close()
	fi, _ := f.Stat()
	parsed, err := ParseDirectory(f, fi.Size(), ParseOptions{})
	if err != nil {
		t.Fatalf("ParseDirectory: %v", err)
	}

	result, err := Extract(f, parsed, filepath.Join(dir, "out"), Selector{Name: []byte("missing.txt")}, ExtractOptions{})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if !result.NotFound {
		t.Errorf("expected NotFound for unmatched selector")
	}
}

func TestExtractSkipsInvalidEntry(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "archive.viv")

	// Hand-assemble a directory whose one entry claims an offset beyond
	// the (short) file: ParseDirectory must tag it InvalidOffset rather
	// than materialize or extract it.
	var raw []byte
	bo := BigF.byteOrder()
	prefix := make([]byte, 8)
	bo.PutUint32(prefix[0:4], 9999999)
	bo.PutUint32(prefix[4:8], 10)
	raw = append(raw, 'B', 'I', 'G', 'F')
	sizeField := make([]byte, 4)
	bo.PutUint32(sizeField, 26)
	raw = append(raw, sizeField...)
	countField := make([]byte, 4)
	bo.PutUint32(countField, 1)
	raw = append(raw, countField...)
	headerLenField := make([]byte, 4)
	bo.PutUint32(headerLenField, 26)
	raw = append(raw, headerLenField...)
	raw = append(raw, prefix...)
	raw = append(raw, 'b', 'a', 'd', 0)

	if err := os.WriteFile(archivePath, raw, 0o644); err != nil {
		t.Fatalf("writing corrupted archive: %v", err)
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

	result, err := Extract(f, parsed, filepath.Join(dir, "out"), Selector{All: true}, ExtractOptions{})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(result.Skipped) != 1 {
		t.Errorf("expected 1 skipped invalid entry, got %d", len(result.Skipped))
	}
}

func TestExtractRejectsUnsafeNameRegardlessOfParserClassification(t *testing.T) {
	dir := t.TempDir()

	// A hand-built Directory whose entry is tagged Valid despite a
	// path-traversal name: Extract must still refuse it on its own, not
	// rely on the parser having already caught it.
	parsed := &Directory{
		Format: BigF,
		Entries: []DirectoryEntry{
			{Offset: 0, Size: 0, Name: []byte(".."), Validity: Valid, Class: PrintableASCII},
		},
	}

	result, err := Extract(bytes.NewReader(nil), parsed, filepath.Join(dir, "out"), Selector{All: true}, ExtractOptions{})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(result.Files) != 0 {
		t.Fatalf("expected 0 files written for unsafe name, got %d", len(result.Files))
	}
	if len(result.Errors) != 1 {
		t.Fatalf("expected 1 UnsafeName error, got %d", len(result.Errors))
	}
	e, ok := result.Errors[0].(*Error)
	if !ok || e.Kind != UnsafeName {
		t.Errorf("expected UnsafeName error, got %v", result.Errors[0])
	}
}
