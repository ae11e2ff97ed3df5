package errs

import (
	"errors"
	"testing"
)

func TestCollectorAdd(t *testing.T) {
	var c Collector
	c.Add(nil)
	if c.HasErrors() {
		t.Fatalf("Add(nil) should not register an error")
	}
	c.Add(errors.New("boom"))
	if !c.HasErrors() {
		t.Fatalf("expected HasErrors() true after Add")
	}
	if len(c.Errors) != 1 {
		t.Fatalf("expected 1 error, got %d", len(c.Errors))
	}
}

func TestCollectorAddf(t *testing.T) {
	var c Collector
	c.Addf("plain message")
	c.Addf("formatted %d", 42)
	if len(c.Errors) != 2 {
		t.Fatalf("expected 2 errors, got %d", len(c.Errors))
	}
	if c.Errors[0].Error() != "plain message" {
		t.Errorf("Errors[0] = %q, want %q", c.Errors[0].Error(), "plain message")
	}
	if c.Errors[1].Error() != "formatted 42" {
		t.Errorf("Errors[1] = %q, want %q", c.Errors[1].Error(), "formatted 42")
	}
}

func TestCollectorAddSkippedInput(t *testing.T) {
	var c Collector
	c.AddSkippedInput("/tmp/missing.txt", errors.New("no such file or directory"))
	c.AddSkippedInput("/tmp/a-fifo", nil)
	if len(c.Errors) != 2 {
		t.Fatalf("expected 2 errors, got %d", len(c.Errors))
	}
	if got, want := c.Errors[0].Error(), "skipping /tmp/missing.txt: no such file or directory"; got != want {
		t.Errorf("Errors[0] = %q, want %q", got, want)
	}
	if got, want := c.Errors[1].Error(), "skipping /tmp/a-fifo: not a regular file"; got != want {
		t.Errorf("Errors[1] = %q, want %q", got, want)
	}
	si, ok := c.Errors[1].(SkippedInput)
	if !ok || si.Reason != nil {
		t.Errorf("expected SkippedInput with nil Reason, got %+v", c.Errors[1])
	}
}
