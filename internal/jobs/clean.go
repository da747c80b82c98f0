package jobs

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/spigell/resume-matcher/internal/utils"
)

// Unknown stands in for a city or position that cannot be derived.
const Unknown = "Unknown"

// Posting is a cleaned job posting.
type Posting struct {
	JobID         string    `json:"job_id"`
	Position      string    `json:"position"`
	BasePosition  string    `json:"base_position"`
	Company       string    `json:"company"`
	Location      string    `json:"location"`
	City          string    `json:"city"`
	Rating        float64   `json:"rating"`
	ReviewsCount  int       `json:"reviews_count"`
	Salary        string    `json:"salary"`
	JobURL        string    `json:"job_url"`
	CompanyURL    string    `json:"company_url"`
	PostingDate   time.Time `json:"posting_date"`
	ScrapedAt     time.Time `json:"scraped_at"`
	Expired       bool      `json:"is_expired"`
	FreshnessDays int       `json:"job_freshness_days"`
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999Z07",
	"2006-01-02 15:04:05.999999999",
	time.DateOnly,
}

// Clean coerces raw rows into postings. Rows with an unparsable posting date
// or scrape time are dropped and counted.
func Clean(rows []Row) (postings []Posting, dropped int) {
	postings = make([]Posting, 0, len(rows))
	for _, row := range rows {
		posted, ok := parseTime(row.PostingDate)
		if !ok {
			dropped++
			continue
		}
		scraped, ok := parseTime(row.ScrapedAt)
		if !ok {
			dropped++
			continue
		}

		postings = append(postings, Posting{
			JobID:         row.JobID,
			Position:      row.Position,
			BasePosition:  BasePosition(row.Position),
			Company:       strings.TrimSpace(row.Company),
			Location:      row.Location,
			City:          City(row.Location),
			Rating:        toFloat(row.Rating),
			ReviewsCount:  int(toFloat(row.ReviewsCount)),
			Salary:        row.Salary,
			JobURL:        row.JobURL,
			CompanyURL:    row.CompanyURL,
			PostingDate:   posted,
			ScrapedAt:     scraped,
			Expired:       toBool(row.IsExpired),
			FreshnessDays: freshness(posted, scraped),
		})
	}
	return postings, dropped
}

func parseTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, !t.IsZero()
	case string:
		s := strings.TrimSpace(t)
		for _, layout := range timeLayouts {
			if parsed, err := time.Parse(layout, s); err == nil {
				return parsed, true
			}
		}
	}
	return time.Time{}, false
}

func freshness(posted, scraped time.Time) int {
	days := math.Floor(scraped.Sub(posted).Hours() / 24)
	return max(0, int(days))
}

type float64Valuer interface {
	Float64() (float64, error)
}

// toFloat coerces a loosely typed numeric column. Anything unparsable is 0.
func toFloat(v any) float64 {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0
		}
		f = parsed
	case float64Valuer:
		parsed, err := n.Float64()
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

func toBool(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		switch strings.ToLower(strings.TrimSpace(b)) {
		case "true", "1":
			return true
		}
		return false
	case nil:
		return false
	default:
		return toFloat(v) != 0
	}
}

var indianStates = map[string]bool{
	"andhra pradesh": true, "arunachal pradesh": true, "assam": true, "bihar": true, "chhattisgarh": true,
	"goa": true, "gujarat": true, "haryana": true, "himachal pradesh": true, "jharkhand": true, "karnataka": true,
	"kerala": true, "madhya pradesh": true, "maharashtra": true, "manipur": true, "meghalaya": true,
	"mizoram": true, "nagaland": true, "odisha": true, "punjab": true, "rajasthan": true, "sikkim": true,
	"tamil nadu": true, "telangana": true, "tripura": true, "uttar pradesh": true, "uttarakhand": true,
	"west bengal": true, "andaman and nicobar islands": true, "chandigarh": true,
	"dadra and nagar haveli and daman and diu": true, "delhi": true,
	"jammu and kashmir": true, "ladakh": true, "lakshadweep": true, "puducherry": true,
}

var hasDigit = regexp.MustCompile(`\d`)

// title upper-cases the first letter of every word. Casers are stateful, so
// one is built per call.
func title(s string) string {
	return cases.Title(language.Und).String(s)
}

func cityCandidate(part string) bool {
	lower := strings.ToLower(part)
	return lower != "" &&
		!indianStates[lower] &&
		!strings.Contains(lower, "sector") &&
		!strings.Contains(lower, "nagar") &&
		!hasDigit.MatchString(lower)
}

// City picks the city out of a free-form location such as
// "Sector 62, Noida, Uttar Pradesh".
func City(location string) string {
	parts := strings.Split(strings.TrimSpace(location), ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	city := parts[0]
	switch {
	case cityCandidate(parts[0]):
	case len(parts) > 1 && cityCandidate(parts[1]):
		city = parts[1]
	}

	if city = strings.TrimSpace(title(city)); city == "" {
		return Unknown
	}
	return city
}

var (
	seniority      = regexp.MustCompile(`(?i)\b(senior|sr|junior|jr|lead|principal|staff|manager|director|vp|head of)\b\.?`)
	parenthesised  = regexp.MustCompile(`\s*\(.*?\)`)
	nonAlphaNumSpc = regexp.MustCompile(`[^a-zA-Z\s\d]`)
)

// BasePosition strips seniority and qualifiers from a job title so that
// "Sr. Data Engineer (Remote)" and "Data Engineer" group together.
func BasePosition(position string) string {
	base := seniority.ReplaceAllString(position, "")
	base = parenthesised.ReplaceAllString(base, "")
	base = nonAlphaNumSpc.ReplaceAllString(base, "")
	base = utils.CollapseSpaces(base)
	if base == "" {
		return Unknown
	}
	return title(base)
}
