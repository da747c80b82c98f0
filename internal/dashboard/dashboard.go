package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/resume-matcher/internal/filtering"
	"github.com/spigell/resume-matcher/internal/jobs"
)

// defaultWindow is the date range offered when there is no data.
const defaultWindow = 30 * 24 * time.Hour

const (
	DefaultPageSize = 15
	MaxPageSize     = 100
)

// Options are the values a client can pick from.
type Options struct {
	Companies []string  `json:"companies"`
	Positions []string  `json:"positions"`
	Cities    []string  `json:"cities"`
	MinDate   time.Time `json:"min_date"`
	MaxDate   time.Time `json:"max_date"`
}

// Listing selects one page of the filtered postings. Search is a case-insensitive
// substring matched against position, company, location and city. Pages start at 1.
type Listing struct {
	Search   string
	Page     int
	PageSize int
}

// View is the filtered dashboard. Metrics cover every filtered posting; Postings
// hold only the requested page of the search results.
type View struct {
	Metrics     jobs.Metrics       `json:"metrics"`
	Postings    []jobs.Posting     `json:"postings"`
	Total       int                `json:"total"`
	Page        int                `json:"page"`
	PageSize    int                `json:"page_size"`
	Pages       int                `json:"pages"`
	Filters     []filtering.Status `json:"filters"`
	DroppedRows int                `json:"dropped_rows"`
}

type Service struct {
	source   jobs.Source
	disabled []string
	logger   *zap.Logger
	now      func() time.Time
}

type Option func(*Service)

// WithDisabledFilters turns off the named filter steps. Their selections are ignored.
func WithDisabledFilters(names ...string) Option {
	return func(s *Service) {
		s.disabled = append(s.disabled, names...)
	}
}

func New(source jobs.Source, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{source: source, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// postings loads and cleans the table. An empty table is not an error.
func (s *Service) postings(ctx context.Context) ([]jobs.Posting, int, error) {
	rows, err := s.source.Fetch(ctx)
	if errors.Is(err, jobs.ErrNoData) {
		s.logger.Info("jobs table is empty")
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("fetch jobs: %w", err)
	}

	postings, dropped := jobs.Clean(rows)
	if dropped > 0 {
		s.logger.Warn("dropped rows with invalid dates", zap.Int("dropped", dropped), zap.Int("kept", len(postings)))
	}
	return postings, dropped, nil
}

// Options lists the companies, positions and cities, each led by All, and the posting date
// bounds. Without data the dates cover the last 30 days.
func (s *Service) Options(ctx context.Context) (*Options, error) {
	postings, _, err := s.postings(ctx)
	if err != nil {
		return nil, err
	}

	if len(postings) == 0 {
		now := s.now()
		return &Options{
			Companies: []string{filtering.All},
			Positions: []string{filtering.All},
			Cities:    []string{filtering.All},
			MinDate:   now.Add(-defaultWindow),
			MaxDate:   now,
		}, nil
	}

	companies := map[string]struct{}{}
	positions := map[string]struct{}{}
	cities := map[string]struct{}{}

	opts := &Options{MinDate: postings[0].PostingDate, MaxDate: postings[0].PostingDate}
	for _, p := range postings {
		if p.Company != "" {
			companies[p.Company] = struct{}{}
		}
		positions[p.BasePosition] = struct{}{}
		cities[p.City] = struct{}{}

		if p.PostingDate.Before(opts.MinDate) {
			opts.MinDate = p.PostingDate
		}
		if p.PostingDate.After(opts.MaxDate) {
			opts.MaxDate = p.PostingDate
		}
	}

	opts.Companies = withAll(companies)
	opts.Positions = withAll(positions)
	opts.Cities = withAll(cities)
	return opts, nil
}

// View applies the filters, computes metrics over what is left and returns one
// page of the postings matching the listing search.
func (s *Service) View(ctx context.Context, cfg *filtering.Config, listing Listing) (*View, error) {
	postings, dropped, err := s.postings(ctx)
	if err != nil {
		return nil, err
	}

	steps := filtering.Default()
	for _, name := range s.disabled {
		filtering.DisableByName(steps, name, "disabled in config")
	}

	filtered, err := filtering.Run(ctx, cfg, filtering.Deps{Logger: s.logger}, steps, postings)
	if err != nil {
		return nil, fmt.Errorf("filter postings: %w", err)
	}

	found := search(filtered, listing.Search)
	view := &View{
		Metrics:     jobs.Compute(filtered),
		Total:       len(found),
		Filters:     filtering.Describe(steps),
		DroppedRows: dropped,
	}
	view.Postings, view.Page, view.PageSize, view.Pages = paginate(found, listing.Page, listing.PageSize)

	s.logger.Debug("dashboard view",
		zap.Int("postings", len(postings)),
		zap.Int("filtered", len(filtered)),
		zap.Int("found", len(found)),
		zap.Int("page", view.Page),
	)

	return view, nil
}

func search(postings []jobs.Posting, term string) []jobs.Posting {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return postings
	}

	var out []jobs.Posting
	for _, p := range postings {
		for _, field := range []string{p.Position, p.Company, p.Location, p.City} {
			if strings.Contains(strings.ToLower(field), term) {
				out = append(out, p)
				break
			}
		}
	}
	return out
}

// paginate clamps page into [1, pages]. There is always at least one page.
func paginate(postings []jobs.Posting, page, size int) ([]jobs.Posting, int, int, int) {
	if size <= 0 {
		size = DefaultPageSize
	}
	size = min(size, MaxPageSize)

	pages := max(1, (len(postings)+size-1)/size)
	page = min(max(page, 1), pages)

	start := min((page-1)*size, len(postings))
	end := min(start+size, len(postings))

	out := make([]jobs.Posting, end-start)
	copy(out, postings[start:end])
	return out, page, size, pages
}

type invalidator interface {
	Invalidate()
}

// Refresh drops cached rows so that the next read goes to the database. It is a
// no-op for uncached sources.
func (s *Service) Refresh() {
	if c, ok := s.source.(invalidator); ok {
		c.Invalidate()
		s.logger.Info("jobs cache invalidated")
	}
}

// DumpToTmpFile writes postings as indented JSON to a new temp file and returns its name.
func DumpToTmpFile(postings []jobs.Posting) (string, error) {
	file, err := os.CreateTemp("", "postings_*.json")
	if err != nil {
		return "", err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(postings); err != nil {
		return "", err
	}
	return file.Name(), nil
}

func withAll(set map[string]struct{}) []string {
	values := make([]string, 0, len(set))
	for v := range set {
		values = append(values, v)
	}
	sort.Strings(values)
	return append([]string{filtering.All}, values...)
}
