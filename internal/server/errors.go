// Package server provides the HTTP API for job search and scoring.
package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jonathan/job-matcher/internal/pipeline"
	"github.com/jonathan/job-matcher/internal/platforms"
)

// ErrValidation indicates a malformed request parameter or body.
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		badParam    *ErrValidation
		invalid     *pipeline.ValidationError
		unsupported *platforms.UnsupportedSourceError
		tooLarge    *http.MaxBytesError
	)
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.As(err, &badParam), errors.As(err, &invalid), errors.As(err, &unsupported):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
