// Package errs provides a small error aggregator for operations, like
// batch extraction, where one bad entry shouldn't abort the rest.
package errs

import (
	"errors"
	"fmt"
)

// Collector is a wrapper around []error that simplifies code where
// multiple errors can happen and need to be aggregated for collective
// display.
type Collector struct {
	Errors []error
}

// Add adds an error to this collector. If nil is given, nothing happens,
// so you can safely write
//
//	c.Add(OperationThatMightFail())
func (c *Collector) Add(err error) {
	if err != nil {
		c.Errors = append(c.Errors, err)
	}
}

// Addf adds an error to this collector by passing the arguments into
// fmt.Errorf(). If only one argument is given, it is used as the error
// string verbatim.
func (c *Collector) Addf(format string, args ...interface{}) {
	if len(args) > 0 {
		c.Errors = append(c.Errors, fmt.Errorf(format, args...))
	} else {
		c.Errors = append(c.Errors, errors.New(format))
	}
}

// HasErrors reports whether any error was added.
func (c *Collector) HasErrors() bool {
	return len(c.Errors) > 0
}

// SkippedInput records one input path that Encode declined to pack, along
// with why. It normalizes the two ways a candidate input can be rejected
// (stat failure vs. not-a-regular-file) into a single diagnostic shape so
// callers presenting EncodeResult.Warnings don't need to re-derive which
// case happened from free-form text.
type SkippedInput struct {
	Path   string
	Reason error // nil for "not a regular file" (no underlying OS error)
}

func (s SkippedInput) Error() string {
	if s.Reason != nil {
		return fmt.Sprintf("skipping %s: %v", s.Path, s.Reason)
	}
	return fmt.Sprintf("skipping %s: not a regular file", s.Path)
}

// AddSkippedInput records a skipped encode input. Pass a nil reason for
// inputs rejected for being a directory, device, or other non-regular
// file rather than an I/O error.
func (c *Collector) AddSkippedInput(path string, reason error) {
	c.Errors = append(c.Errors, SkippedInput{Path: path, Reason: reason})
}
