package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/spigell/resume-matcher/internal/ai"
	"github.com/spigell/resume-matcher/internal/dashboard"
	"github.com/spigell/resume-matcher/internal/extract"
	"github.com/spigell/resume-matcher/internal/filtering"
	"github.com/spigell/resume-matcher/internal/tools"
)

// multipartMemory is kept in memory; larger parts spill to temp files.
const multipartMemory = 8 << 20

var validate = validator.New(validator.WithRequiredStructEnabled())

type toolRequest struct {
	Resume         string `json:"resume"`
	JobDescription string `json:"job_description"`
	UserInput      string `json:"user_input"`
}

type dashboardQuery struct {
	From   string `validate:"omitempty,datetime=2006-01-02"`
	To     string `validate:"omitempty,datetime=2006-01-02"`
	Status string `validate:"omitempty,oneof=All Active Expired all active expired"`
	Search string `validate:"max=200"`
	// Page and PageSize are unsigned integers. Out-of-range values are clamped.
	Page     string `validate:"omitempty,number,max=9"`
	PageSize string `validate:"omitempty,number,max=9"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleMatch(w http.ResponseWriter, r *http.Request) {
	in, err := s.readInput(w, r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	result, err := s.runner.Match(r.Context(), in)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, result)
}

func (s *Server) handleTool(w http.ResponseWriter, r *http.Request) {
	tool, err := ai.ParseTool(r.PathValue("tool"))
	if err != nil {
		s.fail(w, r, fmt.Errorf("%w: %v", errNotFound, err))
		return
	}

	in, err := s.readInput(w, r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	out, err := s.runner.Run(r.Context(), tool, in)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, out)
}

func (s *Server) handleDashboardOptions(w http.ResponseWriter, r *http.Request) {
	if s.dashboard == nil {
		s.fail(w, r, errDashboardDisabled)
		return
	}

	opts, err := s.dashboard.Options(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, opts)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if s.dashboard == nil {
		s.fail(w, r, errDashboardDisabled)
		return
	}

	cfg, listing, err := parseDashboardQuery(r.URL.Query())
	if err != nil {
		s.fail(w, r, err)
		return
	}

	view, err := s.dashboard.View(r.Context(), cfg, listing)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, view)
}

func (s *Server) handleDashboardRefresh(w http.ResponseWriter, r *http.Request) {
	if s.dashboard == nil {
		s.fail(w, r, errDashboardDisabled)
		return
	}

	s.dashboard.Refresh()
	w.WriteHeader(http.StatusNoContent)
}

// readInput accepts a JSON body or a multipart form with a "resume" file.
func (s *Server) readInput(w http.ResponseWriter, r *http.Request) (tools.Input, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		return readMultipart(r)
	}

	var req toolRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return tools.Input{}, err
		}
		return tools.Input{}, fmt.Errorf("%w: decode json body: %v", errBadRequest, err)
	}

	doc, err := textDocument(req.Resume)
	if err != nil {
		return tools.Input{}, err
	}
	return tools.Input{Resume: doc, JobDescription: req.JobDescription, UserInput: req.UserInput}, nil
}

func readMultipart(r *http.Request) (tools.Input, error) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return tools.Input{}, err
		}
		return tools.Input{}, fmt.Errorf("%w: parse multipart form: %v", errBadRequest, err)
	}

	in := tools.Input{
		JobDescription: r.FormValue("job_description"),
		UserInput:      r.FormValue("user_input"),
	}

	file, header, err := r.FormFile("resume")
	switch {
	case errors.Is(err, http.ErrMissingFile):
		doc, err := textDocument(r.FormValue("resume"))
		if err != nil {
			return tools.Input{}, err
		}
		in.Resume = doc
		return in, nil
	case err != nil:
		return tools.Input{}, fmt.Errorf("%w: read resume file: %v", errBadRequest, err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return tools.Input{}, fmt.Errorf("read resume file: %w", err)
	}

	in.Resume, err = extract.Text(header.Filename, data)
	if err != nil {
		return tools.Input{}, err
	}
	return in, nil
}

// textDocument wraps pasted resume text. Blank text yields no document so that the
// tool reports which input is missing.
func textDocument(text string) (*extract.Document, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	return extract.Text("resume.txt", []byte(text))
}

func parseDashboardQuery(q url.Values) (*filtering.Config, dashboard.Listing, error) {
	query := dashboardQuery{
		From:     strings.TrimSpace(q.Get("from")),
		To:       strings.TrimSpace(q.Get("to")),
		Status:   strings.TrimSpace(q.Get("status")),
		Search:   strings.TrimSpace(q.Get("q")),
		Page:     strings.TrimSpace(q.Get("page")),
		PageSize: strings.TrimSpace(q.Get("page_size")),
	}
	if err := validate.Struct(query); err != nil {
		return nil, dashboard.Listing{}, err
	}

	cfg := &filtering.Config{
		Companies: q["company"],
		Titles:    q["title"],
		Locations: q["location"],
		Status:    query.Status,
	}
	// Layouts and digits were checked by the validator.
	if query.From != "" {
		cfg.From, _ = time.Parse(time.DateOnly, query.From)
	}
	if query.To != "" {
		cfg.To, _ = time.Parse(time.DateOnly, query.To)
	}

	listing := dashboard.Listing{Search: query.Search}
	listing.Page, _ = strconv.Atoi(query.Page)
	listing.PageSize, _ = strconv.Atoi(query.PageSize)

	return cfg, listing, nil
}
