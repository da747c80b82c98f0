// Package jobs loads scraped job postings and computes dashboard metrics over them.
package jobs

import (
	"errors"
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// Columns is the projection read from the jobs table.
var Columns = []string{
	"job_id", "position", "company", "location", "rating", "reviews_count", "salary",
	"job_url", "company_url", "posting_date", "scraped_at", "is_expired",
}

var (
	// ErrNoData is returned when the jobs table exists but holds no rows.
	ErrNoData = errors.New("jobs table contains no data")
	// ErrPermission is returned when rows exist but the query returns none.
	ErrPermission = errors.New("jobs query returned no rows for a non-empty table; check permissions")
)

// Row is one raw record of the jobs table. Loosely typed columns are coerced
// by Clean.
type Row struct {
	JobID        string `mapstructure:"job_id" json:"job_id"`
	Position     string `mapstructure:"position" json:"position"`
	Company      string `mapstructure:"company" json:"company"`
	Location     string `mapstructure:"location" json:"location"`
	Rating       any    `mapstructure:"rating" json:"rating"`
	ReviewsCount any    `mapstructure:"reviews_count" json:"reviews_count"`
	Salary       string `mapstructure:"salary" json:"salary"`
	JobURL       string `mapstructure:"job_url" json:"job_url"`
	CompanyURL   string `mapstructure:"company_url" json:"company_url"`
	PostingDate  any    `mapstructure:"posting_date" json:"posting_date"`
	ScrapedAt    any    `mapstructure:"scraped_at" json:"scraped_at"`
	IsExpired    any    `mapstructure:"is_expired" json:"is_expired"`
}

// decodeRows maps column/value records onto rows. Numbers in text columns are
// stringified and nulls become empty strings.
func decodeRows(items []map[string]any) ([]Row, error) {
	rows := make([]Row, 0, len(items))
	for i, item := range items {
		var row Row
		decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			WeaklyTypedInput: true,
			ZeroFields:       true,
			Result:           &row,
		})
		if err != nil {
			return nil, err
		}
		if err := decoder.Decode(item); err != nil {
			return nil, fmt.Errorf("decode row %d: %w", i, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}
