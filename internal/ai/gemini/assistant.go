package gemini

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/spigell/resume-matcher/internal/ai"
	"github.com/spigell/resume-matcher/internal/logger"
	"github.com/spigell/resume-matcher/internal/matching"
	"github.com/spigell/resume-matcher/internal/utils"
)

const (
	defaultMaxLogLength = 200
	providerName        = "gemini"

	coverLetterTemperature = 0.6
	coverLetterDateLayout  = "January 02, 2006"
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, system, message string, opts ...CallOption) (string, error)
	Model() string
}

// Assistant implements ai.Assistant on top of a Gemini generator.
type Assistant struct {
	generator contentGenerator
	system    string
	overrides PromptOverrides
	logger    *zap.Logger
	maxLogLen int
	now       func() time.Time
}

var _ ai.Assistant = (*Assistant)(nil)

func NewAssistant(generator contentGenerator, logger *zap.Logger, maxLogLength int) (*Assistant, error) {
	if generator == nil {
		return nil, errors.New("content generator is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}

	system, err := loadPrompt("system")
	if err != nil {
		return nil, err
	}

	return &Assistant{
		generator: generator,
		system:    strings.TrimSpace(system),
		logger:    logger,
		maxLogLen: maxLogLength,
		now:       time.Now,
	}, nil
}

// SetPromptOverrides replaces the user preferences rendered into prompts.
func (a *Assistant) SetPromptOverrides(o PromptOverrides) {
	a.overrides = o
}

func (a *Assistant) AnalyzeMatch(ctx context.Context, resume, job string, result *matching.Result) (*ai.MatchAnalysis, error) {
	if err := requireText("resume", resume); err != nil {
		return nil, err
	}
	if err := requireText("job description", job); err != nil {
		return nil, err
	}
	if result == nil {
		return nil, errors.New("match result is required")
	}

	overall, keyword, semantic := result.Percentages()
	values := map[string]string{
		"OVERALL":     fmt.Sprintf("%d", overall),
		"KEYWORD":     fmt.Sprintf("%d", keyword),
		"SEMANTIC":    fmt.Sprintf("%d", semantic),
		"MATCHED":     listOrNone(result.MatchedKeywords),
		"MISSING":     listOrNone(result.MissingKeywords),
		"JOB":         job,
		"RESUME":      resume,
		"PREFERENCES": a.overrides.render(),
	}

	prompt, err := renderPrompt("analysis", values)
	if err != nil {
		return nil, err
	}
	fallback, err := renderPrompt("analysis_simple", values)
	if err != nil {
		return nil, err
	}

	var analysis ai.MatchAnalysis
	if err := a.generateJSON(ctx, ai.ToolAnalysis, prompt, fallback, "match_analysis", &analysis, WithJSONResponse()); err != nil {
		return nil, err
	}

	analysis.OverallMatch = ai.Percent(overall)
	analysis.KeywordMatchScore = ai.Percent(keyword)
	analysis.SemanticSimilarityScore = ai.Percent(semantic)
	analysis.MatchedKeywords = result.MatchedKeywords
	analysis.MissingKeywords = result.MissingKeywords
	analysis.LowConfidence = result.LowConfidence

	return &analysis, nil
}

func (a *Assistant) SuggestEnhancements(ctx context.Context, resume string, analysis *ai.MatchAnalysis) (*ai.Enhancement, error) {
	if err := requireText("resume", resume); err != nil {
		return nil, err
	}

	values := map[string]string{
		"OVERALL":        "n/a",
		"KEYWORD":        "n/a",
		"SEMANTIC":       "n/a",
		"MISSING_SKILLS": missingSkillsBlock(analysis),
		"RESUME":         resume,
		"PREFERENCES":    a.overrides.render(),
	}
	if analysis != nil {
		values["OVERALL"] = fmt.Sprintf("%d", analysis.OverallMatch)
		values["KEYWORD"] = fmt.Sprintf("%d", analysis.KeywordMatchScore)
		values["SEMANTIC"] = fmt.Sprintf("%d", analysis.SemanticSimilarityScore)
	}

	prompt, err := renderPrompt("enhancement", values)
	if err != nil {
		return nil, err
	}

	var enhancement ai.Enhancement
	if err := a.generateJSON(ctx, ai.ToolEnhancement, prompt, "", "enhancement", &enhancement, WithJSONResponse()); err != nil {
		return nil, err
	}
	return &enhancement, nil
}

func missingSkillsBlock(analysis *ai.MatchAnalysis) string {
	if analysis == nil {
		return ""
	}

	var b strings.Builder
	writeSkills := func(kind string, skills []ai.MissingSkill, hint string) {
		if len(skills) == 0 {
			return
		}
		fmt.Fprintf(&b, "The following %s skills are MISSING from the resume, based on a comparison with a relevant job description:\n", kind)
		for _, s := range skills {
			if s.Reason != "" {
				fmt.Fprintf(&b, "- %s: %s\n", s.Skill, s.Reason)
			} else {
				fmt.Fprintf(&b, "- %s\n", s.Skill)
			}
		}
		b.WriteString(hint + "\n")
	}

	writeSkills("technical", analysis.Categories.TechnicalSkills.MissingSkills,
		"Consider these missing skills when suggesting certifications and technologies.")
	writeSkills("soft", analysis.Categories.SoftSkills.MissingSkills,
		"Consider these missing skills when suggesting improvements.")
	return b.String()
}

func (a *Assistant) CoverLetter(ctx context.Context, resume, job string) (*ai.CoverLetter, error) {
	if err := requireText("resume", resume); err != nil {
		return nil, err
	}
	if err := requireText("job description", job); err != nil {
		return nil, err
	}

	contact := ExtractContact(resume)
	date := a.now().Format(coverLetterDateLayout)

	prompt, err := renderPrompt("cover_letter", map[string]string{
		"DATE":        date,
		"CONTACT":     contactFallbacks(contact),
		"JOB":         job,
		"RESUME":      resume,
		"PREFERENCES": a.overrides.render(),
	})
	if err != nil {
		return nil, err
	}

	raw, err := a.generate(ctx, ai.ToolCoverLetter, prompt, WithTemperature(coverLetterTemperature))
	if err != nil {
		return nil, err
	}

	letter := &ai.CoverLetter{
		Text:    strings.TrimSpace(strings.ReplaceAll(raw, "```", "")),
		Date:    date,
		Contact: contact,
	}
	if !looksLikeLetter(letter.Text, contact.Name, date) {
		letter.Warning = "The generated text may not be formatted as a complete cover letter."
		a.logger.Warn("cover letter format looks off",
			zap.String("response_preview", utils.TruncateForLog(letter.Text, a.maxLogLen)),
		)
	}
	return letter, nil
}

// looksLikeLetter checks for the header near the top and a sign-off near the end.
func looksLikeLetter(text, name, date string) bool {
	head := firstRunes(text, 200)
	tail := lastRunes(text, 50)

	opened := strings.Contains(head, date) || (name != "" && strings.Contains(head, name))
	closed := strings.Contains(tail, "Sincerely,") || strings.Contains(tail, "Best regards,")
	return opened && closed
}

func (a *Assistant) OptimizeLinkedIn(ctx context.Context, resume string) (*ai.LinkedInProfile, error) {
	if err := requireText("resume", resume); err != nil {
		return nil, err
	}

	prompt, err := renderPrompt("linkedin", map[string]string{
		"RESUME":      resume,
		"PREFERENCES": a.overrides.render(),
	})
	if err != nil {
		return nil, err
	}

	var profile ai.LinkedInProfile
	if err := a.generateJSON(ctx, ai.ToolLinkedIn, prompt, "", "linkedin", &profile, WithJSONResponse()); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (a *Assistant) InterviewTips(ctx context.Context, resume, job string) (*ai.InterviewTips, error) {
	if err := requireText("resume", resume); err != nil {
		return nil, err
	}
	if err := requireText("job description", job); err != nil {
		return nil, err
	}

	prompt, err := renderPrompt("interview", map[string]string{
		"JOB":         job,
		"RESUME":      resume,
		"PREFERENCES": a.overrides.render(),
	})
	if err != nil {
		return nil, err
	}

	var tips ai.InterviewTips
	if err := a.generateJSON(ctx, ai.ToolInterview, prompt, "", "interview", &tips, WithJSONResponse()); err != nil {
		return nil, err
	}
	return &tips, nil
}

func (a *Assistant) CareerRoadmap(ctx context.Context, resume string) (*ai.CareerRoadmap, error) {
	if err := requireText("resume", resume); err != nil {
		return nil, err
	}

	prompt, err := renderPrompt("roadmap", map[string]string{
		"RESUME":      resume,
		"PREFERENCES": a.overrides.render(),
	})
	if err != nil {
		return nil, err
	}

	var roadmap ai.CareerRoadmap
	if err := a.generateJSON(ctx, ai.ToolRoadmap, prompt, "", "roadmap", &roadmap, WithJSONResponse()); err != nil {
		return nil, err
	}
	return &roadmap, nil
}

func (a *Assistant) RecommendJob(ctx context.Context, userInput string) (*ai.JobRecommendation, error) {
	if err := requireText("user input", userInput); err != nil {
		return nil, err
	}

	prompt, err := renderPrompt("recommendation", map[string]string{
		"USER_INPUT":  userInput,
		"PREFERENCES": a.overrides.render(),
	})
	if err != nil {
		return nil, err
	}

	var rec ai.JobRecommendation
	if err := a.generateJSON(ctx, ai.ToolRecommendation, prompt, "", "recommendation", &rec, WithJSONResponse()); err != nil {
		return nil, err
	}
	return &rec, nil
}

// generate sends one prompt and logs truncated previews of both directions.
func (a *Assistant) generate(ctx context.Context, tool ai.Tool, prompt string, opts ...CallOption) (string, error) {
	fields := append(logger.CommonFields(providerName, a.generator.Model()),
		zap.String(logger.FieldTool, string(tool)))

	a.logger.Debug("gemini generate content request", append(fields,
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, a.maxLogLen)),
	)...)

	raw, err := a.generator.GenerateContent(ctx, a.system, prompt, opts...)
	if err != nil {
		return "", fmt.Errorf("%s: %w", tool, err)
	}

	a.logger.Debug("gemini generate content response", append(fields,
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, a.maxLogLen)),
	)...)

	return raw, nil
}

// generateJSON decodes the reply into out. A reply that fails to decode is
// retried once, with fallback when given and otherwise with a format reminder.
func (a *Assistant) generateJSON(ctx context.Context, tool ai.Tool, prompt, fallback, schema string, out any, opts ...CallOption) error {
	raw, err := a.generate(ctx, tool, prompt, opts...)
	if err != nil {
		return err
	}

	err = decodeJSON(raw, schema, out)
	var decodeErr *DecodeError
	if !errors.As(err, &decodeErr) {
		return err
	}

	a.logger.Warn("model response did not decode, retrying once",
		zap.String(logger.FieldTool, string(tool)),
		zap.String("stage", decodeErr.Stage),
		zap.Error(err),
	)

	retry := fallback
	if retry == "" {
		retry = prompt + "\n\nYour previous reply was not valid JSON for the requested structure. Reply with the JSON object only."
	}

	raw, err = a.generate(ctx, tool, retry, opts...)
	if err != nil {
		return err
	}

	// A failed unmarshal may have filled out partially.
	if v := reflect.ValueOf(out); v.Kind() == reflect.Pointer && !v.IsNil() {
		v.Elem().SetZero()
	}
	return decodeJSON(raw, schema, out)
}

func requireText(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%w: %s", ai.ErrEmptyInput, name)
	}
	return nil
}

func listOrNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, ", ")
}

func firstRunes(s string, n int) string {
	r := []rune(s)
	if len(r) > n {
		r = r[:n]
	}
	return string(r)
}

func lastRunes(s string, n int) string {
	r := []rune(s)
	if len(r) > n {
		r = r[len(r)-n:]
	}
	return string(r)
}
