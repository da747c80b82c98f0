package jobs

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

const topN = 10

var (
	salaryNumber   = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(k|lakh|lac|crore)?`)
	salaryStripper = strings.NewReplacer(",", "", "₹", "", "$", "", "£", "", "€", "")
)

// SalaryRange reads a min/max pair out of free-form salary text such as
// "$80k-$120k" or "₹12,00,000 - ₹18,00,000". ok is false when no number is present.
func SalaryRange(text string) (minSalary, maxSalary float64, ok bool) {
	text = salaryStripper.Replace(strings.ToLower(text))

	matches := salaryNumber.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return 0, 0, false
	}

	numbers := make([]float64, 0, len(matches))
	for _, m := range matches {
		n, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return 0, 0, false
		}
		switch m[2] {
		case "k":
			n *= 1_000
		case "lakh", "lac":
			n *= 100_000
		case "crore":
			n *= 10_000_000
		}
		numbers = append(numbers, n)
	}

	minSalary, maxSalary = numbers[0], numbers[len(numbers)-1]
	if maxSalary < minSalary {
		minSalary, maxSalary = maxSalary, minSalary
	}
	return minSalary, maxSalary, true
}

type Summary struct {
	Total           int     `json:"total"`
	Active          int     `json:"active"`
	UniqueCompanies int     `json:"unique_companies"`
	AverageRating   float64 `json:"average_rating"`
}

type DailyCount struct {
	Date    string `json:"date"`
	Count   int    `json:"count"`
	Active  int    `json:"active"`
	Expired int    `json:"expired"`
}

type Count struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type Average struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

type FreshnessBucket struct {
	Days  int `json:"days"`
	Count int `json:"count"`
}

type SalaryStats struct {
	Count     int       `json:"count"`
	Min       float64   `json:"min"`
	Average   float64   `json:"average"`
	Max       float64   `json:"max"`
	TopTitles []Average `json:"top_titles"`
}

// Metrics is everything the dashboard charts.
type Metrics struct {
	Summary           Summary           `json:"summary"`
	DailyTrends       []DailyCount      `json:"daily_trends"`
	TopCompanies      []Count           `json:"top_companies"`
	TopPositions      []Count           `json:"top_positions"`
	TopCities         []Count           `json:"top_cities"`
	TopRatedCompanies []Average         `json:"top_rated_companies"`
	Freshness         []FreshnessBucket `json:"freshness"`
	Salary            SalaryStats       `json:"salary"`
}

// Compute aggregates the postings. Top lists are ordered by count, then name;
// the top cities leave out Unknown.
func Compute(postings []Posting) Metrics {
	m := Metrics{Summary: Summary{Total: len(postings)}}

	companies := map[string]int{}
	positions := map[string]int{}
	cities := map[string]int{}
	daily := map[string]*DailyCount{}
	fresh := map[int]int{}
	ratings := map[string][]float64{}
	salaries := map[string][]float64{}

	var ratingSum float64
	var rated int

	for _, p := range postings {
		if !p.Expired {
			m.Summary.Active++
		}
		if p.Company != "" {
			companies[p.Company]++
		}
		positions[p.BasePosition]++
		if p.City != Unknown {
			cities[p.City]++
		}

		day := p.PostingDate.Format(time.DateOnly)
		d, ok := daily[day]
		if !ok {
			d = &DailyCount{Date: day}
			daily[day] = d
		}
		d.Count++
		if p.Expired {
			d.Expired++
		} else {
			d.Active++
		}

		fresh[p.FreshnessDays]++

		if p.Rating > 0 {
			ratingSum += p.Rating
			rated++
			if p.Company != "" {
				ratings[p.Company] = append(ratings[p.Company], p.Rating)
			}
		}

		if low, _, ok := SalaryRange(p.Salary); ok {
			salaries[p.BasePosition] = append(salaries[p.BasePosition], low)
			if m.Salary.Count == 0 || low < m.Salary.Min {
				m.Salary.Min = low
			}
			m.Salary.Max = math.Max(m.Salary.Max, low)
			m.Salary.Average += low
			m.Salary.Count++
		}
	}

	m.Summary.UniqueCompanies = len(companies)
	if rated > 0 {
		m.Summary.AverageRating = round2(ratingSum / float64(rated))
	}
	if m.Salary.Count > 0 {
		m.Salary.Average /= float64(m.Salary.Count)
	}

	m.TopCompanies = topCounts(companies)
	m.TopPositions = topCounts(positions)
	m.TopCities = topCounts(cities)
	m.TopRatedCompanies = topAverages(ratings)
	m.Salary.TopTitles = topAverages(salaries)

	m.DailyTrends = make([]DailyCount, 0, len(daily))
	for _, d := range daily {
		m.DailyTrends = append(m.DailyTrends, *d)
	}
	sort.Slice(m.DailyTrends, func(i, j int) bool { return m.DailyTrends[i].Date < m.DailyTrends[j].Date })

	m.Freshness = make([]FreshnessBucket, 0, len(fresh))
	for days, count := range fresh {
		m.Freshness = append(m.Freshness, FreshnessBucket{Days: days, Count: count})
	}
	sort.Slice(m.Freshness, func(i, j int) bool { return m.Freshness[i].Days < m.Freshness[j].Days })

	return m
}

func topCounts(counts map[string]int) []Count {
	out := make([]Count, 0, len(counts))
	for name, n := range counts {
		out = append(out, Count{Name: name, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	if len(out) > topN {
		out = out[:topN]
	}
	return out
}

func topAverages(values map[string][]float64) []Average {
	out := make([]Average, 0, len(values))
	for name, vs := range values {
		var sum float64
		for _, v := range vs {
			sum += v
		}
		out = append(out, Average{Name: name, Value: round2(sum / float64(len(vs)))})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Value != out[j].Value {
			return out[i].Value > out[j].Value
		}
		return out[i].Name < out[j].Name
	})
	if len(out) > topN {
		out = out[:topN]
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
