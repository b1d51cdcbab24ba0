package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/jonathan/job-matcher/internal/server/middleware"
	"github.com/jonathan/job-matcher/internal/types"
	"go.uber.org/zap"
)

// handleSearch serves GET /jobs.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := types.SearchRequest{
		JobTitle: q.Get("jobTitle"),
		City:     q.Get("city"),
		Platform: q.Get("platform"),
	}
	var err error
	if req.Limit, err = intParam(q, "limit"); err != nil {
		s.fail(w, r, err)
		return
	}
	if req.Page, err = intParam(q, "page"); err != nil {
		s.fail(w, r, err)
		return
	}

	resp, err := s.svc.Search(r.Context(), req, nil)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, resp)
}

// handleScore serves POST /jobs/score.
func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBodyBytes)

	var req types.ScoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.fail(w, r, err)
			return
		}
		s.fail(w, r, &ErrValidation{Field: "body", Message: "invalid JSON: " + err.Error()})
		return
	}

	resp, err := s.svc.Score(r.Context(), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, resp)
}

// fail maps err to a status and writes the error envelope.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := HTTPStatus(err)
	message := "failed to process request"
	switch {
	case status == http.StatusBadRequest:
		message = "invalid request"
	case status == http.StatusRequestEntityTooLarge:
		message = "request body too large"
	case strings.HasPrefix(r.URL.Path, "/jobs/score"):
		message = "failed to score jobs"
	case strings.HasPrefix(r.URL.Path, "/jobs"):
		message = "failed to search jobs"
	}

	fields := []zap.Field{
		zap.String("request_id", middleware.RequestIDFrom(r.Context())),
		zap.Int("status", status),
		zap.Error(err),
	}
	if status >= http.StatusInternalServerError {
		s.log.Error(message, fields...)
	} else {
		s.log.Info(message, fields...)
	}
	s.errorResponse(w, status, message, err)
}

func intParam(q url.Values, name string) (int, error) {
	raw := strings.TrimSpace(q.Get(name))
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, &ErrValidation{Field: name, Message: "must be a non-negative integer"}
	}
	return v, nil
}
