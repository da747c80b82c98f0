package filtering

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spigell/resume-matcher/internal/jobs"
)

type dateRangeFilter struct {
	disabled bool
	reason   string
	from, to string
}

// NewDateRange keeps postings whose posting date falls within [From, To], compared by day.
func NewDateRange() Filter {
	return &dateRangeFilter{}
}

func (f *dateRangeFilter) Name() string { return "date_range" }

func (f *dateRangeFilter) Disable(reason string) {
	f.disabled = true
	f.reason = reason
}

func (f *dateRangeFilter) IsEnabled() bool { return !f.disabled }

func (f *dateRangeFilter) Validate(cfg *Config) error {
	f.from, f.to = "", ""
	if cfg == nil {
		return nil
	}
	if !cfg.From.IsZero() {
		f.from = cfg.From.Format(time.DateOnly)
	}
	if !cfg.To.IsZero() {
		f.to = cfg.To.Format(time.DateOnly)
	}
	if f.from != "" && f.to != "" && f.from > f.to {
		return fmt.Errorf("%w: start date %s is after end date %s", ErrInvalidConfig, f.from, f.to)
	}
	return nil
}

func (f *dateRangeFilter) Apply(_ context.Context, _ Deps, postings []jobs.Posting) ([]jobs.Posting, Step, error) {
	if f.from == "" && f.to == "" {
		return postings, Step{Initial: len(postings), Left: len(postings)}, nil
	}

	out, step := keep(postings, func(p jobs.Posting) bool {
		day := p.PostingDate.Format(time.DateOnly)
		return (f.from == "" || day >= f.from) && (f.to == "" || day <= f.to)
	})
	return out, step, nil
}

func (f *dateRangeFilter) Status() Status {
	details := map[string]string{}
	if f.from != "" {
		details["from"] = f.from
	}
	if f.to != "" {
		details["to"] = f.to
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}

// valueFilter keeps postings whose field is one of the selected values.
type valueFilter struct {
	name     string
	disabled bool
	reason   string
	values   func(cfg *Config) []string
	field    func(p jobs.Posting) string
	selected map[string]struct{}
}

// NewCompany filters by company name.
func NewCompany() Filter {
	return &valueFilter{
		name:   "company",
		values: func(cfg *Config) []string { return cfg.Companies },
		field:  func(p jobs.Posting) string { return p.Company },
	}
}

// NewTitle filters by base position, the title without seniority words.
func NewTitle() Filter {
	return &valueFilter{
		name:   "title",
		values: func(cfg *Config) []string { return cfg.Titles },
		field:  func(p jobs.Posting) string { return p.BasePosition },
	}
}

// NewLocation filters by extracted city.
func NewLocation() Filter {
	return &valueFilter{
		name:   "location",
		values: func(cfg *Config) []string { return cfg.Locations },
		field:  func(p jobs.Posting) string { return p.City },
	}
}

func (f *valueFilter) Name() string { return f.name }

func (f *valueFilter) Disable(reason string) {
	f.disabled = true
	f.reason = reason
}

func (f *valueFilter) IsEnabled() bool { return !f.disabled }

func (f *valueFilter) Validate(cfg *Config) error {
	f.selected = nil
	if cfg != nil {
		f.selected = selection(f.values(cfg))
	}
	return nil
}

func (f *valueFilter) Apply(_ context.Context, _ Deps, postings []jobs.Posting) ([]jobs.Posting, Step, error) {
	if f.selected == nil {
		return postings, Step{Initial: len(postings), Left: len(postings)}, nil
	}

	out, step := keep(postings, func(p jobs.Posting) bool {
		_, ok := f.selected[f.field(p)]
		return ok
	})
	return out, step, nil
}

func (f *valueFilter) Status() Status {
	details := map[string]string{}
	if len(f.selected) > 0 {
		values := make([]string, 0, len(f.selected))
		for v := range f.selected {
			values = append(values, v)
		}
		sort.Strings(values)
		details["selected"] = strings.Join(values, ",")
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}

type statusFilter struct {
	disabled bool
	reason   string
	status   string
}

// NewStatus filters by the posting's expired flag.
func NewStatus() Filter {
	return &statusFilter{status: StatusAll}
}

func (f *statusFilter) Name() string { return "status" }

func (f *statusFilter) Disable(reason string) {
	f.disabled = true
	f.reason = reason
}

func (f *statusFilter) IsEnabled() bool { return !f.disabled }

func (f *statusFilter) Validate(cfg *Config) error {
	f.status = StatusAll
	if cfg == nil || strings.TrimSpace(cfg.Status) == "" {
		return nil
	}

	for _, s := range []string{StatusAll, StatusActive, StatusExpired} {
		if strings.EqualFold(strings.TrimSpace(cfg.Status), s) {
			f.status = s
			return nil
		}
	}
	return fmt.Errorf("%w: unknown status %q (want %s, %s or %s)", ErrInvalidConfig, cfg.Status, StatusAll, StatusActive, StatusExpired)
}

func (f *statusFilter) Apply(_ context.Context, _ Deps, postings []jobs.Posting) ([]jobs.Posting, Step, error) {
	if f.status == StatusAll {
		return postings, Step{Initial: len(postings), Left: len(postings)}, nil
	}

	expired := f.status == StatusExpired
	out, step := keep(postings, func(p jobs.Posting) bool { return p.Expired == expired })
	return out, step, nil
}

func (f *statusFilter) Status() Status {
	return Status{
		Name:    f.Name(),
		Enabled: f.IsEnabled(),
		Reason:  f.reason,
		Details: map[string]string{"status": f.status},
	}
}
