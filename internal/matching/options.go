package matching

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// DefaultMinTokens is the shortest input, in whitespace tokens, scored with confidence.
const DefaultMinTokens = 5

// Options is the caller-tunable configuration of a Matcher.
type Options struct {
	Weights                Weights `json:"weights" mapstructure:"weights" validate:"required"`
	SynonymLimit           int     `json:"synonym_limit" mapstructure:"synonym-limit" validate:"gte=0,lte=20"`
	MinTokens              int     `json:"min_tokens" mapstructure:"min-tokens" validate:"gte=0"`
	MinFallbackTokenLength int     `json:"min_fallback_token_length" mapstructure:"min-fallback-token-length" validate:"gte=1"`
}

func DefaultOptions() Options {
	return Options{
		Weights:                DefaultWeights(),
		SynonymLimit:           DefaultSynonymLimit,
		MinTokens:              DefaultMinTokens,
		MinFallbackTokenLength: DefaultMinFallbackTokenLength,
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func (o Options) Validate() error {
	if err := validate.Struct(o); err != nil {
		return fmt.Errorf("invalid matching options: %w", err)
	}
	if err := o.Weights.Validate(); err != nil {
		return fmt.Errorf("invalid matching options: %w", err)
	}
	return nil
}

// Option customises a Matcher.
type Option func(*Matcher)

// WithOptions replaces the whole tunable configuration.
func WithOptions(o Options) Option {
	return func(m *Matcher) { m.opts = o }
}

func WithWeights(keyword, semantic float64) Option {
	return func(m *Matcher) { m.opts.Weights = Weights{Keyword: keyword, Semantic: semantic} }
}

func WithSynonymLimit(n int) Option {
	return func(m *Matcher) { m.opts.SynonymLimit = n }
}

func WithMinTokens(n int) Option {
	return func(m *Matcher) { m.opts.MinTokens = n }
}

// WithTagger swaps the part-of-speech tagger. A nil tagger forces the fallback extractor.
func WithTagger(t Tagger) Option {
	return func(m *Matcher) {
		m.tagger = t
		m.taggerSet = true
	}
}

func WithThesaurus(t *Thesaurus) Option {
	return func(m *Matcher) { m.thesaurus = t }
}

func WithLogger(l *zap.Logger) Option {
	return func(m *Matcher) { m.logger = l }
}
