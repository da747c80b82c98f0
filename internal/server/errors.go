package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/spigell/resume-matcher/internal/ai"
	"github.com/spigell/resume-matcher/internal/ai/gemini"
	"github.com/spigell/resume-matcher/internal/extract"
	"github.com/spigell/resume-matcher/internal/filtering"
	"github.com/spigell/resume-matcher/internal/jobs"
	"github.com/spigell/resume-matcher/internal/logger"
	"github.com/spigell/resume-matcher/internal/matching"
)

var (
	errBadRequest        = errors.New("bad request")
	errNotFound          = errors.New("not found")
	errDashboardDisabled = errors.New("dashboard is not configured")
)

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		validationErrs validator.ValidationErrors
		tooLarge       *http.MaxBytesError
		decodeErr      *gemini.DecodeError
	)

	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, ai.ErrEmptyInput),
		errors.Is(err, extract.ErrEmptyDocument),
		errors.Is(err, filtering.ErrInvalidConfig),
		errors.As(err, &validationErrs):
		return http.StatusBadRequest
	case errors.Is(err, errNotFound):
		return http.StatusNotFound
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, extract.ErrUnsupportedType):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, matching.ErrModelUnavailable), errors.Is(err, errDashboardDisabled):
		return http.StatusServiceUnavailable
	case errors.As(err, &decodeErr), isAPIError(err), errors.Is(err, jobs.ErrPermission):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func isAPIError(err error) bool {
	var value genai.APIError
	if errors.As(err, &value) {
		return true
	}
	var ptr *genai.APIError
	return errors.As(err, &ptr)
}

type errorBody struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Warn("encoding json response", zap.Error(err))
	}
}

func (s *Server) errorResponse(w http.ResponseWriter, r *http.Request, status int, message string) {
	s.jsonResponse(w, status, errorBody{Error: message, RequestID: logger.RequestID(r.Context())})
}

// fail maps err to a status. Server-side failures are logged with detail and
// answered with a generic message.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := HTTPStatus(err)

	message := err.Error()
	if status == http.StatusInternalServerError {
		message = http.StatusText(status)
	}

	log := logger.WithFields(s.logger, logger.RequestFields(logger.RequestID(r.Context()), r.PathValue("tool"))...)
	if status >= http.StatusInternalServerError {
		log.Error("request failed", zap.Int("status", status), zap.Error(err))
	} else {
		log.Debug("request rejected", zap.Int("status", status), zap.Error(err))
	}

	s.errorResponse(w, r, status, message)
}
