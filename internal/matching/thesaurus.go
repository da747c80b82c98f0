package matching

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/viper"
)

// DefaultSynonymLimit bounds how many synonyms a single keyword may add.
const DefaultSynonymLimit = 3

//go:embed synonyms.yaml
var synonymsYAML []byte

// Thesaurus maps a term to its interchangeable alternatives.
type Thesaurus struct {
	synonyms map[string][]string
}

type synonymTable struct {
	Groups [][]string `mapstructure:"groups"`
}

// LoadThesaurus parses a YAML document with a top-level "groups" list.
func LoadThesaurus(data []byte) (*Thesaurus, error) {
	v := viper.NewWithOptions(viper.KeyDelimiter("::"))
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("reading synonym table: %w", err)
	}

	var table synonymTable
	if err := v.Unmarshal(&table); err != nil {
		return nil, fmt.Errorf("decoding synonym table: %w", err)
	}

	t := &Thesaurus{synonyms: make(map[string][]string)}
	for _, group := range table.Groups {
		terms := make([]string, 0, len(group))
		for _, term := range group {
			if term = strings.ToLower(strings.TrimSpace(term)); term != "" {
				terms = append(terms, term)
			}
		}
		for _, term := range terms {
			for _, other := range terms {
				if other != term && !contains(t.synonyms[term], other) {
					t.synonyms[term] = append(t.synonyms[term], other)
				}
			}
		}
	}

	return t, nil
}

var defaultThesaurus struct {
	once sync.Once
	t    *Thesaurus
	err  error
}

// DefaultThesaurus returns the built-in synonym table, parsed once per process.
func DefaultThesaurus() (*Thesaurus, error) {
	defaultThesaurus.once.Do(func() {
		defaultThesaurus.t, defaultThesaurus.err = LoadThesaurus(synonymsYAML)
	})
	return defaultThesaurus.t, defaultThesaurus.err
}

// Synonyms returns at most limit alternatives for term.
func (t *Thesaurus) Synonyms(term string, limit int) []string {
	if t == nil || limit <= 0 {
		return nil
	}
	syns := t.synonyms[term]
	if len(syns) > limit {
		syns = syns[:limit]
	}
	return syns
}

// Expand returns a new set holding every keyword plus up to limit synonyms each.
func (t *Thesaurus) Expand(set KeywordSet, limit int) KeywordSet {
	out := make(KeywordSet, len(set))
	for w := range set {
		out.Add(w)
		for _, syn := range t.Synonyms(w, limit) {
			out.Add(syn)
		}
	}
	return out
}

// Terms lists every term the thesaurus knows about.
func (t *Thesaurus) Terms() map[string]struct{} {
	terms := make(map[string]struct{})
	if t == nil {
		return terms
	}
	for term := range t.synonyms {
		terms[term] = struct{}{}
	}
	return terms
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
