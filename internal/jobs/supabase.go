package jobs

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	contentType     = "application/json"
	contentEncoding = "gzip"
	defaultTable    = "jobs"
	// PostgREST caps responses at 1000 rows unless configured otherwise.
	defaultPageSize = 1000
)

// SupabaseSource reads the jobs table through the PostgREST API of a Supabase
// project.
type SupabaseSource struct {
	baseURL    string
	key        string
	table      string
	pageSize   int
	logger     *zap.Logger
	HTTPClient *http.Client
}

type SupabaseOption func(*SupabaseSource)

func WithTable(table string) SupabaseOption {
	return func(s *SupabaseSource) {
		if table = strings.TrimSpace(table); table != "" {
			s.table = table
		}
	}
}

func WithPageSize(n int) SupabaseOption {
	return func(s *SupabaseSource) {
		if n > 0 {
			s.pageSize = n
		}
	}
}

func NewSupabaseSource(baseURL, key string, logger *zap.Logger, opts ...SupabaseOption) (*SupabaseSource, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("supabase url is required")
	}
	if strings.TrimSpace(key) == "" {
		return nil, errors.New("supabase key is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &SupabaseSource{
		baseURL:  baseURL,
		key:      strings.TrimSpace(key),
		table:    defaultTable,
		pageSize: defaultPageSize,
		logger:   logger,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Fetch reads every row, one page at a time, until a short page arrives.
func (s *SupabaseSource) Fetch(ctx context.Context) ([]Row, error) {
	endpoint := s.baseURL + "/rest/v1/" + url.PathEscape(s.table)

	var items []map[string]any
	for offset := 0; ; offset += s.pageSize {
		q := url.Values{}
		q.Set("select", strings.Join(Columns, ","))
		q.Set("limit", strconv.Itoa(s.pageSize))
		q.Set("offset", strconv.Itoa(offset))

		var page []map[string]any
		if err := s.getJSON(ctx, endpoint, q, &page); err != nil {
			return nil, err
		}
		items = append(items, page...)

		if len(page) < s.pageSize {
			break
		}
		s.logger.Debug("additional request needed", zap.Int("offset", offset+s.pageSize))
	}

	s.logger.Debug("got rows from supabase", zap.Int("rows", len(items)))

	if len(items) == 0 {
		count, err := s.count(ctx, endpoint)
		if err != nil {
			return nil, err
		}
		if count == 0 {
			return nil, ErrNoData
		}
		return nil, fmt.Errorf("%w (%d rows counted)", ErrPermission, count)
	}

	return decodeRows(items)
}

// count asks PostgREST for the exact row count without fetching rows.
func (s *SupabaseSource) count(ctx context.Context, endpoint string) (int, error) {
	q := url.Values{}
	q.Set("select", "job_id")

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, endpoint, nil)
	if err != nil {
		return 0, err
	}
	req.URL.RawQuery = q.Encode()
	s.setHeaders(req)
	req.Header.Set("Prefer", "count=exact")

	resp, err := s.request(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		return 0, fmt.Errorf("count rows: bad status: %s", resp.Status)
	}

	return parseContentRange(resp.Header.Get("Content-Range"))
}

// parseContentRange reads the total from a PostgREST range such as "0-24/3573"
// or "*/0".
func parseContentRange(value string) (int, error) {
	_, total, ok := strings.Cut(value, "/")
	if !ok || total == "*" {
		return 0, fmt.Errorf("no row count in content range %q", value)
	}
	n, err := strconv.Atoi(strings.TrimSpace(total))
	if err != nil {
		return 0, fmt.Errorf("parse content range %q: %w", value, err)
	}
	return n, nil
}

func (s *SupabaseSource) getJSON(ctx context.Context, endpoint string, q url.Values, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	s.setHeaders(req)
	req.Header.Set("Accept", contentType)
	req.URL.RawQuery = q.Encode()

	resp, err := s.request(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var reader io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gzipReader, err := gzip.NewReader(resp.Body)
		if err != nil {
			return err
		}
		defer gzipReader.Close()
		reader = gzipReader
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		return fmt.Errorf("bad status: %s: %s", resp.Status, strings.TrimSpace(string(data)))
	}

	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	return decoder.Decode(target)
}

func (s *SupabaseSource) request(req *http.Request) (*http.Response, error) {
	s.logger.Debug("make request", zap.String("method", req.Method), zap.String("url", req.URL.String()))
	return s.HTTPClient.Do(req)
}

func (s *SupabaseSource) setHeaders(req *http.Request) {
	req.Header.Set("apikey", s.key)
	req.Header.Set("Authorization", "Bearer "+s.key)
	req.Header.Set("Accept-Encoding", contentEncoding)
}
