// Package morph reduces Russian word forms to a dictionary lemma so that
// "билеты" and "билетов" both resolve through the keyword "билет".
package morph

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"unicode"

	"github.com/kljensen/snowball"
	"gopkg.in/yaml.v3"
)

//go:embed dictionary.yaml
var defaultDictionary []byte

const stemLanguage = "russian"

// ErrNotAWord is returned for tokens that contain no letters, such as "123" or "!!!".
var ErrNotAWord = errors.New("token is not a word")

// nounEndings are the case and number endings a stem match may strip. Stems
// reached through any other suffix belong to a derived word (курсив, телефонный)
// rather than an inflected form of the lemma.
var nounEndings = map[string]bool{
	"": true, "а": true, "я": true, "о": true, "е": true, "ё": true, "ь": true,
	"у": true, "ю": true, "ы": true, "и": true,
	"ом": true, "ем": true, "ём": true, "ой": true, "ей": true, "ою": true, "ею": true, "ью": true,
	"ов": true, "ев": true, "ёв": true, "ам": true, "ям": true, "ах": true, "ях": true,
	"ами": true, "ями": true, "ьми": true, "ии": true, "ия": true, "ие": true, "ию": true,
}

// Normalizer maps a word to its lemma.
type Normalizer interface {
	Lemmatize(word string) (string, error)
}

// Dictionary lists inflected forms per lemma.
type Dictionary struct {
	Lemmas map[string][]string `yaml:"lemmas"`
}

// LoadDictionary reads a dictionary file, or the built-in one when path is empty.
func LoadDictionary(path string) (Dictionary, error) {
	data := defaultDictionary
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return Dictionary{}, fmt.Errorf("error reading dictionary file: %w", err)
		}
	}

	var dict Dictionary
	if err := yaml.Unmarshal(data, &dict); err != nil {
		return Dictionary{}, fmt.Errorf("error parsing dictionary file: %w", err)
	}
	return dict, nil
}

// Analyzer is an immutable lemmatizer safe for concurrent use.
type Analyzer struct {
	forms map[string]string
	stems map[string]string
}

// NewAnalyzer builds an Analyzer from a dictionary plus extra lemmas, typically
// the keywords of the static category table. When two lemmas share a form or a
// stem, the dictionary wins over extras and earlier lemmas (in sorted order)
// win over later ones.
func NewAnalyzer(dict Dictionary, extraLemmas []string) *Analyzer {
	a := &Analyzer{
		forms: make(map[string]string),
		stems: make(map[string]string),
	}

	lemmas := make([]string, 0, len(dict.Lemmas))
	for lemma := range dict.Lemmas {
		lemmas = append(lemmas, lemma)
	}
	sort.Strings(lemmas)

	for _, lemma := range lemmas {
		l := strings.ToLower(lemma)
		a.register(l, l)
		for _, form := range dict.Lemmas[lemma] {
			a.register(strings.ToLower(form), l)
		}
	}

	for _, extra := range extraLemmas {
		l := strings.ToLower(strings.TrimSpace(extra))
		if l == "" || strings.Contains(l, " ") {
			continue
		}
		a.register(l, l)
	}

	return a
}

func (a *Analyzer) register(form, lemma string) {
	if _, ok := a.forms[form]; !ok {
		a.forms[form] = lemma
	}
	s := stem(form)
	if _, ok := a.stems[s]; !ok {
		a.stems[s] = lemma
	}
}

// Lemmatize returns the lemma for word. Known forms map directly; otherwise the
// word's stem is matched against the stems of known lemmas, provided the part
// the stemmer removed is a noun ending. Unknown words are returned lowercased
// and unchanged.
func (a *Analyzer) Lemmatize(word string) (string, error) {
	w := strings.TrimFunc(strings.ToLower(word), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	if !hasLetter(w) {
		return "", ErrNotAWord
	}

	if lemma, ok := a.forms[w]; ok {
		return lemma, nil
	}
	s := stem(w)
	if lemma, ok := a.stems[s]; ok && inflects(w, s) {
		return lemma, nil
	}
	return w, nil
}

// Size returns the number of known forms.
func (a *Analyzer) Size() int {
	return len(a.forms)
}

func stem(word string) string {
	s, err := snowball.Stem(word, stemLanguage, true)
	if err != nil || s == "" {
		return word
	}
	return s
}

// inflects reports whether word is its stem plus a noun ending.
func inflects(word, stem string) bool {
	if !strings.HasPrefix(word, stem) {
		return false
	}
	return nounEndings[strings.TrimPrefix(word, stem)]
}

func hasLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}
