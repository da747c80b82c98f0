package matching

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/jdkato/prose/v2"
	"go.uber.org/zap"
)

// DefaultMinFallbackTokenLength is the shortest token kept by the degraded extractor.
const DefaultMinFallbackTokenLength = 3

// ErrTaggerUnavailable reports that the part-of-speech model could not be loaded.
var ErrTaggerUnavailable = errors.New("part-of-speech tagger unavailable")

// KeywordSet is a set of normalized keywords.
type KeywordSet map[string]struct{}

func NewKeywordSet(words ...string) KeywordSet {
	set := make(KeywordSet, len(words))
	for _, w := range words {
		set.Add(w)
	}
	return set
}

func (s KeywordSet) Add(w string) {
	if w != "" {
		s[w] = struct{}{}
	}
}

func (s KeywordSet) Has(w string) bool {
	_, ok := s[w]
	return ok
}

func (s KeywordSet) Len() int {
	return len(s)
}

// Sorted returns the members in lexical order.
func (s KeywordSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for w := range s {
		out = append(out, w)
	}
	sort.Strings(out)
	return out
}

// Token is a single word with its Penn Treebank tag.
type Token struct {
	Text string
	Tag  string
}

// Tagger assigns part-of-speech tags to text.
type Tagger interface {
	Tag(text string) ([]Token, error)
}

// nouns and foreign words; technical terms are admitted separately.
var keywordTags = map[string]struct{}{
	"NN": {}, "NNS": {}, "NNP": {}, "NNPS": {}, "FW": {},
}

// ambiguousTerms are lexicon entries that are also everyday English words. They
// are kept only when tagged as nouns or written with a capital letter.
var ambiguousTerms = toSet(
	"go", "rest", "node", "spark", "swift", "rust", "shell", "cache", "elastic", "excel", "torch",
)

// KeywordExtractor pulls normalized keywords out of free text. When the tagger
// fails it degrades to plain alphabetic tokens and reports the degradation
// instead of an error.
type KeywordExtractor struct {
	tagger            Tagger
	lexicon           map[string]struct{}
	phrases           [][]string
	minFallbackLength int
	logger            *zap.Logger
}

// NewKeywordExtractor builds an extractor. lexicon lists terms that are always
// kept when seen, regardless of their tag. Multi-word lexicon terms are emitted
// when their words appear next to each other.
func NewKeywordExtractor(tagger Tagger, lexicon map[string]struct{}, minFallbackLength int, logger *zap.Logger) *KeywordExtractor {
	if minFallbackLength <= 0 {
		minFallbackLength = DefaultMinFallbackTokenLength
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	var phrases [][]string
	for term := range lexicon {
		if words := strings.Fields(term); len(words) > 1 {
			phrases = append(phrases, words)
		}
	}

	return &KeywordExtractor{
		tagger:            tagger,
		lexicon:           lexicon,
		phrases:           phrases,
		minFallbackLength: minFallbackLength,
		logger:            logger,
	}
}

// Extract returns the keyword set of text and whether the degraded path was used.
func (e *KeywordExtractor) Extract(text string) (KeywordSet, bool) {
	if strings.TrimSpace(text) == "" {
		return KeywordSet{}, false
	}

	if e.tagger == nil {
		return e.fallback(text), true
	}

	tokens, err := e.tagger.Tag(text)
	if err != nil {
		e.logger.Warn("keyword extraction degraded to plain tokens", zap.Error(err))
		return e.fallback(text), true
	}

	set := KeywordSet{}
	words := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		w := normalizeToken(tok.Text)
		words = append(words, w)
		if w == "" || isStopWord(w) || isNumeric(w) {
			continue
		}

		_, known := e.lexicon[w]
		_, noun := keywordTags[tok.Tag]
		if _, ambiguous := ambiguousTerms[w]; ambiguous && known {
			known = noun || hasUpper(tok.Text)
		}

		switch {
		case known:
			set.Add(w)
		case (noun || isTechnicalTerm(w)) && len([]rune(w)) >= 2:
			set.Add(w)
		}
	}
	e.addPhrases(set, words)

	return set, false
}

func (e *KeywordExtractor) fallback(text string) KeywordSet {
	set := FallbackKeywords(text, e.minFallbackLength)

	words := strings.Fields(text)
	for i, w := range words {
		words[i] = normalizeToken(w)
	}
	e.addPhrases(set, words)
	return set
}

// addPhrases adds each multi-word lexicon term found as consecutive words.
func (e *KeywordExtractor) addPhrases(set KeywordSet, words []string) {
	for _, phrase := range e.phrases {
		for i := 0; i+len(phrase) <= len(words); i++ {
			if slices.Equal(words[i:i+len(phrase)], phrase) {
				set.Add(strings.Join(phrase, " "))
				break
			}
		}
	}
}

// FallbackKeywords keeps whitespace-delimited alphabetic tokens of at least minLength runes.
func FallbackKeywords(text string, minLength int) KeywordSet {
	set := KeywordSet{}
	for _, field := range strings.Fields(text) {
		w := normalizeToken(field)
		if len([]rune(w)) < minLength || isStopWord(w) {
			continue
		}
		if strings.IndexFunc(w, func(r rune) bool { return !unicode.IsLetter(r) }) != -1 {
			continue
		}
		set.Add(w)
	}
	return set
}

// normalizeToken lower-cases w and strips surrounding punctuation, keeping
// trailing + and # so c++ and c# survive.
func normalizeToken(w string) string {
	w = strings.ToLower(strings.TrimSpace(w))
	w = strings.TrimLeftFunc(w, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '.'
	})
	w = strings.TrimRightFunc(w, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '+' && r != '#'
	})
	if strings.Trim(w, ".") == "" {
		return ""
	}
	return w
}

// isTechnicalTerm matches tokens such as s3, ec2, c++, c#, node.js and ci/cd.
func isTechnicalTerm(w string) bool {
	hasLetter, hasMarker := false, false
	for _, r := range w {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r), strings.ContainsRune("+#./", r):
			hasMarker = true
		}
	}
	return hasLetter && hasMarker
}

func hasUpper(s string) bool {
	return strings.IndexFunc(s, unicode.IsUpper) != -1
}

func isNumeric(w string) bool {
	return strings.IndexFunc(w, func(r rune) bool {
		return !unicode.IsDigit(r) && r != '.' && r != ',' && r != '%'
	}) == -1
}

var proseModel struct {
	once  sync.Once
	model *prose.Model
	err   error
}

type proseTagger struct{}

// ProseTagger returns the shared averaged-perceptron tagger. Its model is loaded
// once per process on first use.
func ProseTagger() Tagger {
	return proseTagger{}
}

func (proseTagger) Tag(text string) (tokens []Token, err error) {
	proseModel.once.Do(func() {
		proseModel.model, proseModel.err = loadProseModel()
	})
	if proseModel.err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTaggerUnavailable, proseModel.err)
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("tagging text: %v", r)
		}
	}()

	doc, err := prose.NewDocument(text,
		prose.UsingModel(proseModel.model),
		prose.WithSegmentation(false),
		prose.WithExtraction(false),
	)
	if err != nil {
		return nil, fmt.Errorf("tagging text: %w", err)
	}

	for _, tok := range doc.Tokens() {
		tokens = append(tokens, Token{Text: tok.Text, Tag: tok.Tag})
	}
	return tokens, nil
}

func loadProseModel() (model *prose.Model, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("loading prose model: %v", r)
		}
	}()

	doc, err := prose.NewDocument("load the tagger model",
		prose.WithSegmentation(false),
		prose.WithExtraction(false),
	)
	if err != nil {
		return nil, err
	}
	if doc.Model == nil {
		return nil, errors.New("prose returned no model")
	}
	return doc.Model, nil
}
