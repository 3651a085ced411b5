// Package fmtt prints error chains for fatal top-level failures.
package fmtt

import (
	"errors"
	"fmt"
	"io"

	"github.com/davecgh/go-spew/spew"
)

// PrintErrChain walks err's Unwrap chain, writing each layer's type and
// message to w.
func PrintErrChain(w io.Writer, err error) {
	if err == nil {
		fmt.Fprintln(w, "<nil>")
		return
	}
	for i, e := 0, err; e != nil; i, e = i+1, errors.Unwrap(e) {
		fmt.Fprintf(w, "[%d] %T: %v\n", i, e, e)
	}
}

// DumpInvariantViolation spew-dumps a struct describing a fatal invariant
// violation (e.g. the offending ids from a failed imagined-list move), for
// cases where the plain error message doesn't carry enough detail to
// diagnose a bug report.
func DumpInvariantViolation(w io.Writer, v any) {
	spew.Fdump(w, v)
}
