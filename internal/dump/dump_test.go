package dump

import (
	"strings"
	"testing"
)

func TestWalkIndentsAndPreservesOrder(t *testing.T) {
	entries := []Entry{
		{Index: 0, Name: "b.txt"},
		{Index: 1, Name: "a.txt"},
	}
	out := Walk("test archive", entries, func(e Entry) string {
		return e.Name
	})
	if !strings.HasPrefix(out, "test archive\n") {
		t.Fatalf("missing header: %q", out)
	}
	lines := strings.Split(strings.TrimPrefix(out, "test archive\n"), "\n")
	if lines[0] != "  b.txt" || lines[1] != "  a.txt" {
		t.Errorf("expected archive order preserved, got %v", lines)
	}
}

func TestCRC32(t *testing.T) {
	sum, err := CRC32(strings.NewReader("hello"), make([]byte, 16))
	if err != nil {
		t.Fatalf("CRC32: %v", err)
	}
	if sum == 0 {
		t.Errorf("expected non-zero CRC32 for non-empty input")
	}

	sum2, err := CRC32(strings.NewReader("hello"), make([]byte, 16))
	if err != nil {
		t.Fatalf("CRC32: %v", err)
	}
	if sum != sum2 {
		t.Errorf("CRC32 not deterministic: %d vs %d", sum, sum2)
	}
}

func TestSortedNames(t *testing.T) {
	entries := []Entry{{Name: "b"}, {Name: "a"}, {Name: "c"}}
	got := SortedNames(entries)
	want := []string{"a", "b", "c"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("SortedNames() = %v, want %v", got, want)
			break
		}
	}
}
