package features

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed lexicon.yaml
var defaultLexicon []byte

// Lexicon holds the word and domain lists the extractor matches against.
// Loaded once at startup and read-only afterwards.
type Lexicon struct {
	SuspiciousWords  []string `yaml:"suspicious_words"`
	ShortenerDomains []string `yaml:"shortener_domains"`
}

// LoadLexicon reads a lexicon from path, or the embedded default when path
// is empty.
func LoadLexicon(path string) (*Lexicon, error) {
	data := defaultLexicon
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read lexicon: %w", err)
		}
	}

	var lex Lexicon
	if err := yaml.Unmarshal(data, &lex); err != nil {
		return nil, fmt.Errorf("parse lexicon: %w", err)
	}
	if len(lex.SuspiciousWords) == 0 || len(lex.ShortenerDomains) == 0 {
		return nil, fmt.Errorf("lexicon at %q is missing word lists", path)
	}
	return &lex, nil
}

// MustDefaultLexicon returns the embedded lexicon. It panics only if the
// embedded file is broken, which is a build defect.
func MustDefaultLexicon() *Lexicon {
	lex, err := LoadLexicon("")
	if err != nil {
		panic(err)
	}
	return lex
}
