package bench

import (
	"errors"
	"fmt"
)

// Configuration errors. They are always returned before any snippet runs or
// any line is printed.
var (
	ErrInvalidSnippet   = errors.New("snippet is neither text nor an executable, nor a sequence of those")
	ErrInvalidSetup     = errors.New("setup is neither text nor an executable")
	ErrPositionalText   = errors.New("text snippets take their variables through keywords, not positional values")
	ErrInvalidMaxLoop   = errors.New("maxloop must be >= 1")
	ErrInvalidRepeat    = errors.New("repeat must be >= 1")
	ErrInvalidVerbosity = errors.New("verbosity must be Silent, Brief or Detailed")
	ErrInvalidFloor     = errors.New("calibration floor must be positive")
	ErrInvalidName      = errors.New("variable name must be an identifier")
	ErrReservedName     = errors.New("variable name is reserved")
	ErrDuplicateName    = errors.New("variable declared twice")
	ErrEmptySweep       = errors.New("sweep has no values")
	ErrNoRuntime        = errors.New("text snippets need a runtime")
	ErrArgumentMismatch = errors.New("snippet signature does not accept the declared inputs")
)

// SnippetError reports a failure raised by benchmarked code (or its setup).
// Unwrap returns the original error untouched.
type SnippetError struct {
	Label string
	Err   error
}

func (e *SnippetError) Error() string {
	if e.Label == "" {
		return fmt.Sprintf("benchmark failed: %v", e.Err)
	}
	return fmt.Sprintf("benchmark %q failed: %v", e.Label, e.Err)
}

func (e *SnippetError) Unwrap() error { return e.Err }
