package pipeline

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationError is a request the pipeline refuses to run.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// invalid converts a validator error into a *ValidationError naming the
// first failing field.
func invalid(err error) error {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) && len(ve) > 0 {
		fe := ve[0]
		msg := fmt.Sprintf("failed %q check", fe.Tag())
		if fe.Param() != "" {
			msg = fmt.Sprintf("failed %q check (%s)", fe.Tag(), fe.Param())
		}
		return &ValidationError{Field: lowerFirst(fe.Field()), Message: msg}
	}
	return &ValidationError{Message: err.Error()}
}

// AggregateFailure means no retrieval path produced a usable result.
type AggregateFailure struct {
	Reason string
	// Sources maps each failed source to its error message.
	Sources map[string]string
	Cause   error
}

func (e *AggregateFailure) Error() string {
	var b strings.Builder
	b.WriteString(e.Reason)
	if len(e.Sources) > 0 {
		names := make([]string, 0, len(e.Sources))
		for n := range e.Sources {
			names = append(names, n)
		}
		sort.Strings(names)
		for i, n := range names {
			if i == 0 {
				b.WriteString(": ")
			} else {
				b.WriteString("; ")
			}
			b.WriteString(e.Sources[n])
		}
	} else if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	return b.String()
}

func (e *AggregateFailure) Unwrap() error {
	return e.Cause
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
