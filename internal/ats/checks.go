// Package ats runs the local, model-free resume checks and assembles the ATS report.
package ats

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	wordsPerPage   = 450
	shortResume    = 350
	longResume     = 800
	maxParseRate   = 99
	tabPenalty     = 5
	spacingPenalty = 5
	gapsPenalty    = 10
	maxGappedLines = 3
)

var (
	wideSpacing = regexp.MustCompile(`\s{3,}`)
	midLineGap  = regexp.MustCompile(`\S\s{3,}\S`)
)

// ParseRate estimates how much of the text a simple ATS parser keeps, as a
// percentage capped at 99.
func ParseRate(text string) int {
	total := utf8.RuneCountInString(text)
	if total == 0 {
		return 0
	}

	visible := 0
	for _, r := range text {
		if !unicode.IsSpace(r) {
			visible++
		}
	}

	penalty := 0
	if strings.Contains(text, "\t") {
		penalty += tabPenalty
	}
	if wideSpacing.MatchString(text) {
		penalty += spacingPenalty
	}

	gapped := 0
	for _, line := range strings.Split(text, "\n") {
		if midLineGap.MatchString(line) {
			gapped++
		}
	}
	if gapped > maxGappedLines {
		penalty += gapsPenalty
	}

	rate := int(math.Round(float64(visible)/float64(total)*100)) - penalty
	return min(max(rate, 0), maxParseRate)
}

// LengthCheck describes the resume length in words and estimated pages.
type LengthCheck struct {
	Words   int    `json:"words"`
	Pages   int    `json:"estimated_pages"`
	Message string `json:"message"`
}

func Length(text string) LengthCheck {
	words := len(strings.Fields(text))
	pages := max(1, int(math.Round(float64(words)/wordsPerPage)))

	switch {
	case words == 0:
		return LengthCheck{Message: "Resume is empty."}
	case words < shortResume:
		return LengthCheck{Words: words, Pages: pages, Message: fmt.Sprintf(
			"Resume is likely too short (%d words). Consider adding more detail, especially quantifiable achievements.", words)}
	case words > longResume && pages > 2:
		return LengthCheck{Words: words, Pages: pages, Message: fmt.Sprintf(
			"Resume might be too long (%d words, est. %d pages). Aim for conciseness (1 page preferred, 2 max for extensive experience). Prioritize relevance.", words, pages)}
	case pages == 2:
		return LengthCheck{Words: words, Pages: pages, Message: fmt.Sprintf(
			"Resume length is %d words (est. %d pages). Ensure all content is highly relevant and impactful.", words, pages)}
	default:
		return LengthCheck{Words: words, Pages: pages, Message: fmt.Sprintf(
			"Resume length (%d words, est. 1 page) is within the optimal range.", words)}
	}
}

var buzzwords = []string{
	"results-driven", "team player", "detail-oriented", "go-getter", "synergy", "leverage",
	"proactive", "dynamic", "self-starter", "thought leader", "goal-oriented", "hardworking",
	"motivated", "passionate", "strategic thinker", "out-of-the-box", "think outside the box",
	"value add", "impactful", "excellent communication skills",
}

var buzzwordPatterns = func() []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, len(buzzwords))
	for i, word := range buzzwords {
		patterns[i] = regexp.MustCompile(`\b` + regexp.QuoteMeta(word) + `\b`)
	}
	return patterns
}()

// Buzzwords returns the cliches found in text, in list order.
func Buzzwords(text string) []string {
	lower := strings.ToLower(text)

	found := []string{}
	for i, pattern := range buzzwordPatterns {
		if pattern.MatchString(lower) {
			found = append(found, buzzwords[i])
		}
	}
	return found
}

const (
	SectionSkills     = "Skills"
	SectionExperience = "Experience"
	SectionEducation  = "Education"
	SectionSummary    = "Summary/Profile/Objective"
	SectionProjects   = "Projects"
)

var sections = []struct {
	name    string
	missing string
	pattern *regexp.Regexp
}{
	{SectionSkills, "Skills/Technologies", regexp.MustCompile(`(?m)^\s*(skills?|technical skills?|proficiencies|technologies)\b`)},
	{SectionExperience, "Experience", regexp.MustCompile(`(?m)^\s*(experience|work experience|professional experience|employment history|career)\b`)},
	{SectionEducation, "Education", regexp.MustCompile(`(?m)^\s*(education|academic background|qualifications)\b`)},
	{SectionSummary, "Summary/Profile/Objective", regexp.MustCompile(`\b(summary|profile|objective|about me)\b`)},
	{SectionProjects, "Projects (Highly Recommended)", regexp.MustCompile(`(?m)^\s*(projects?|personal projects?|portfolio)\b`)},
}

// Sections reports which essential resume sections have a heading. Headings
// other than the summary must start a line.
func Sections(text string) (found, missing []string) {
	lower := strings.ToLower(text)

	found, missing = []string{}, []string{}
	for _, s := range sections {
		if s.pattern.MatchString(lower) {
			found = append(found, s.name)
		} else {
			missing = append(missing, s.missing)
		}
	}
	return found, missing
}
