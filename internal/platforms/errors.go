package platforms

import (
	"fmt"
	"strings"
)

// UnsupportedSourceError is returned when a caller names a source that no
// registered adapter serves.
type UnsupportedSourceError struct {
	Source    string
	Available []string
}

func (e *UnsupportedSourceError) Error() string {
	return fmt.Sprintf("unsupported platform %q (available: %s)", e.Source, strings.Join(e.Available, ", "))
}

// UpstreamError records the failure of one adapter leg.
type UpstreamError struct {
	Source string
	Cause  error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: %v", e.Source, e.Cause)
}

func (e *UpstreamError) Unwrap() error {
	return e.Cause
}
