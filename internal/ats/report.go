package ats

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/spigell/resume-matcher/internal/ai"
	"github.com/spigell/resume-matcher/internal/extract"
)

// LayoutCheck scores the visual layout. Estimated is set when the document
// carries no page information and the score comes from the text checks alone.
type LayoutCheck struct {
	Pages     int      `json:"num_pages"`
	Issues    []string `json:"layout_issues"`
	Score     int      `json:"formatting_score"`
	Estimated bool     `json:"estimated,omitempty"`
}

var (
	blankLines     = regexp.MustCompile(`\n\s*\n\s*\n`)
	alignmentSpace = regexp.MustCompile(`[^\S\n]{3,}`)
)

const (
	estimatedLayoutScore = 70
	missingSectionCost   = 5
)

// Layout runs the layout heuristics on a document with a known page count.
func Layout(doc *extract.Document) LayoutCheck {
	check := LayoutCheck{Pages: doc.Pages, Issues: []string{}, Score: 100}

	switch {
	case doc.Pages <= 0:
		return LayoutCheck{Issues: []string{"Could not read PDF pages."}}
	case doc.Pages > 2:
		check.Issues = append(check.Issues, fmt.Sprintf(
			"Resume is %d pages long. Action: aim for 1-2 pages maximum for most roles. Prioritize relevance and conciseness.", doc.Pages))
		check.Score -= 20
	case doc.Pages == 2:
		check.Issues = append(check.Issues,
			"Resume is 2 pages. Action: ensure this length is necessary (e.g., 10+ years of relevant experience). Prioritize key information on page 1.")
		check.Score -= 5
	}

	check.Issues = append(check.Issues,
		"Font Usage: Ensure consistent use of 1-2 professional, readable fonts (e.g., Arial, Calibri, Georgia). Avoid script or overly decorative fonts.")

	if blankLines.MatchString(doc.Text) {
		check.Issues = append(check.Issues,
			"Excessive vertical whitespace detected. Action: remove extra blank lines between sections or paragraphs.")
		check.Score -= 5
	}
	if alignmentSpace.MatchString(doc.Text) {
		check.Issues = append(check.Issues,
			"Avoid using multiple spaces/tabs for alignment. Action: use standard indentation or section formatting.")
		check.Score -= 5
	}

	lines := strings.Split(doc.Text, "\n")
	total, nonEmpty := 0, 0
	for _, line := range lines {
		if l := len(strings.TrimSpace(line)); l > 0 {
			total += l
			nonEmpty++
		}
	}
	avg := 0.0
	if nonEmpty > 0 {
		avg = float64(total) / float64(nonEmpty)
	}

	switch {
	case avg > 90:
		check.Issues = append(check.Issues,
			"Lines seem long, possibly indicating narrow margins. Action: ensure margins are adequate (0.5 - 1 inch recommended).")
		check.Score -= 5
	case avg < 40 && len(lines) > 20:
		check.Issues = append(check.Issues,
			"Lines seem short, possibly indicating wide margins or use of columns. Action: verify margins and avoid columns for ATS compatibility.")
		check.Score -= 5
	default:
		check.Issues = append(check.Issues, "Margins: Aim for standard margins (0.5-1 inch) for a balanced look.")
	}

	check.Issues = append(check.Issues,
		"ATS Compatibility: Avoid complex tables, columns, images, headers/footers, text boxes, or graphics. Simple, single-column layouts parse best.")
	check.Score -= 10

	check.Score = max(check.Score, 0)
	return check
}

// StandardChecks are the checks that run without a model.
type StandardChecks struct {
	ParseRate       int      `json:"parse_rate"`
	Length          string   `json:"resume_length_feedback"`
	Words           int      `json:"resume_word_count"`
	Buzzwords       []string `json:"buzzwords"`
	Contact         Contact  `json:"contact_information"`
	SectionsFound   []string `json:"essential_sections_found"`
	SectionsMissing []string `json:"essential_sections_missing"`
}

// Report is the full ATS optimization report.
type Report struct {
	AIChecks      *ai.ATSChecks     `json:"ai_checks"`
	Standard      StandardChecks    `json:"standard_checks"`
	Layout        LayoutCheck       `json:"layout_analysis"`
	MatchAnalysis *ai.MatchAnalysis `json:"match_analysis,omitempty"`
	Enhancement   *ai.Enhancement   `json:"enhancement_suggestions,omitempty"`
}

const aiUnavailable = "AI model unavailable."

// Build combines the local checks with optional model checks and a preliminary
// match analysis. Missing model checks are reported as unavailable.
func Build(doc *extract.Document, checks *ai.ATSChecks, analysis *ai.MatchAnalysis) *Report {
	length := Length(doc.Text)
	found, missing := Sections(doc.Text)

	report := &Report{
		AIChecks: checks,
		Standard: StandardChecks{
			ParseRate:       ParseRate(doc.Text),
			Length:          length.Message,
			Words:           length.Words,
			Buzzwords:       Buzzwords(doc.Text),
			Contact:         ContactInfo(doc.Text),
			SectionsFound:   found,
			SectionsMissing: missing,
		},
		MatchAnalysis: analysis,
	}

	if report.AIChecks == nil {
		report.AIChecks = unavailableChecks()
	}

	if doc.Pages > 0 {
		report.Layout = Layout(doc)
	} else {
		report.Layout = LayoutCheck{
			Pages:     length.Pages,
			Issues:    []string{"Could not perform detailed layout analysis (no page information). Using estimate for page count."},
			Score:     max(estimatedLayoutScore-missingSectionCost*len(missing), 0),
			Estimated: true,
		}
	}

	return report
}

func unavailableChecks() *ai.ATSChecks {
	return &ai.ATSChecks{
		SpellingGrammar: ai.SpellingCheck{Message: aiUnavailable},
		Repetition:      ai.RepetitionCheck{Message: aiUnavailable},
		Quantification:  ai.QuantificationCheck{Message: aiUnavailable},
		LongBullets:     ai.LongBulletsCheck{Message: aiUnavailable},
		ActiveVoice:     ai.ActiveVoiceCheck{Message: aiUnavailable},
		Hobbies:         ai.HobbiesCheck{Analysis: aiUnavailable},
	}
}
