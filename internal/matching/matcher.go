// Package matching scores how well a resume fits a job description by combining
// keyword overlap with embedding similarity.
package matching

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/resume-matcher/internal/embedding"
)

// Result is the outcome of matching one resume against one job description.
type Result struct {
	KeywordScore    float64  `json:"keyword_score"`
	SemanticScore   float64  `json:"semantic_score"`
	CombinedScore   float64  `json:"combined_score"`
	MatchedKeywords []string `json:"matched_keywords"`
	MissingKeywords []string `json:"missing_keywords"`
	// LowConfidence is set when either input is empty or shorter than the minimum token count.
	LowConfidence bool `json:"low_confidence"`
	// Degraded is set when keywords came from the plain-token fallback.
	Degraded     bool `json:"degraded"`
	ResumeTokens int  `json:"resume_tokens"`
	JobTokens    int  `json:"job_tokens"`
}

// Percentages returns the three scores on a 0-100 scale, rounded to integers.
func (r *Result) Percentages() (combined, keyword, semantic int) {
	return percent(r.CombinedScore), percent(r.KeywordScore), percent(r.SemanticScore)
}

func percent(v float64) int {
	return int(v*100 + 0.5)
}

// Matcher runs Extract, Match, Embed and Combine for a resume/job pair. It holds no
// per-call state and is safe for concurrent use.
type Matcher struct {
	opts      Options
	tagger    Tagger
	taggerSet bool
	thesaurus *Thesaurus
	semantic  *SemanticScorer
	extractor *KeywordExtractor
	logger    *zap.Logger
}

// New builds a Matcher around the shared embedding model.
func New(model *embedding.Lazy, opts ...Option) (*Matcher, error) {
	m := &Matcher{opts: DefaultOptions()}
	for _, opt := range opts {
		opt(m)
	}

	if err := m.opts.Validate(); err != nil {
		return nil, err
	}

	if m.logger == nil {
		m.logger = zap.NewNop()
	}

	if m.thesaurus == nil {
		t, err := DefaultThesaurus()
		if err != nil {
			return nil, fmt.Errorf("loading synonyms: %w", err)
		}
		m.thesaurus = t
	}

	if !m.taggerSet {
		m.tagger = ProseTagger()
	}

	m.extractor = NewKeywordExtractor(m.tagger, m.thesaurus.Terms(), m.opts.MinFallbackTokenLength, m.logger)
	m.semantic = NewSemanticScorer(model)

	return m, nil
}

// Options returns the effective configuration.
func (m *Matcher) Options() Options {
	return m.opts
}

// Keywords returns the expanded keyword set of text and whether extraction degraded.
func (m *Matcher) Keywords(text string) (KeywordSet, bool) {
	set, degraded := m.extractor.Extract(text)
	return m.thesaurus.Expand(set, m.opts.SynonymLimit), degraded
}

// Match scores resume against job. Short or empty input yields a zero-scored,
// low-confidence result. Only an unavailable embedding model is an error.
func (m *Matcher) Match(ctx context.Context, resume, job string) (*Result, error) {
	result := &Result{
		ResumeTokens: len(strings.Fields(resume)),
		JobTokens:    len(strings.Fields(job)),
	}

	jobKeywords, jobDegraded := m.Keywords(job)
	resumeKeywords, resumeDegraded := m.Keywords(resume)
	result.Degraded = jobDegraded || resumeDegraded

	matched, missing, keywordScore := Overlap(jobKeywords, resumeKeywords)
	result.MatchedKeywords = matched.Sorted()
	result.MissingKeywords = missing.Sorted()

	if m.lowConfidence(result) {
		result.LowConfidence = true
		m.logger.Debug("skipping scoring for short input",
			zap.Int("resume_tokens", result.ResumeTokens),
			zap.Int("job_tokens", result.JobTokens),
			zap.Int("min_tokens", m.opts.MinTokens),
		)
		return result, nil
	}

	semanticScore, err := m.semantic.Score(ctx, resume, job)
	if err != nil {
		return nil, err
	}

	result.KeywordScore = keywordScore
	result.SemanticScore = semanticScore
	result.CombinedScore = clamp01(Combine(keywordScore, semanticScore, m.opts.Weights))

	m.logger.Debug("match scored",
		zap.Float64("keyword_score", result.KeywordScore),
		zap.Float64("semantic_score", result.SemanticScore),
		zap.Float64("combined_score", result.CombinedScore),
		zap.Int("matched", len(result.MatchedKeywords)),
		zap.Int("missing", len(result.MissingKeywords)),
		zap.Bool("degraded", result.Degraded),
	)

	return result, nil
}

func (m *Matcher) lowConfidence(r *Result) bool {
	if r.ResumeTokens == 0 || r.JobTokens == 0 {
		return true
	}
	return r.ResumeTokens < m.opts.MinTokens || r.JobTokens < m.opts.MinTokens
}
