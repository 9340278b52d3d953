package keywords

import (
	"cmp"
	"iter"
	"slices"
	"strings"
	"sync"
	"unicode"
)

// Rake implements Rapid Automatic Keyword Extraction.
// Candidate phrases are runs of non-stop words between stop words and punctuation;
// each word scores degree/frequency and a phrase scores the sum of its words.
type Rake struct {
	stopWords map[string]struct{}
}

// Ensure Rake implements Extractor.
var _ Extractor = (*Rake)(nil)

// NewRake creates an extractor using the English stop-word list plus any extra words.
func NewRake(extraStopWords ...string) *Rake {
	stop := make(map[string]struct{}, len(englishStopWords)+len(extraStopWords))

	for _, w := range englishStopWords {
		stop[w] = struct{}{}
	}

	for _, w := range extraStopWords {
		if w = strings.ToLower(strings.TrimSpace(w)); w != "" {
			stop[w] = struct{}{}
		}
	}

	return &Rake{stopWords: stop}
}

// Extract implements Extractor. Scoring runs on first iteration of the returned sequence.
func (r *Rake) Extract(text string) (iter.Seq[string], error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}

	ranked := sync.OnceValue(func() []string {
		return r.rank(r.candidates(text))
	})

	return func(yield func(string) bool) {
		for _, phrase := range ranked() {
			if !yield(phrase) {
				return
			}
		}
	}, nil
}

// isStopWord reports whether the lower-cased word w splits phrases.
func (r *Rake) isStopWord(w string) bool {
	_, ok := r.stopWords[w]

	return ok
}

// candidates splits text into candidate phrases, in order of appearance, repeats included.
func (r *Rake) candidates(text string) [][]string {
	var (
		phrases [][]string
		current []string
		word    strings.Builder
	)

	flushPhrase := func() {
		if len(current) > 0 {
			phrases = append(phrases, current)
			current = nil
		}
	}

	flushWord := func() {
		if word.Len() == 0 {
			return
		}

		w := strings.Trim(word.String(), "'-")
		word.Reset()

		if w == "" {
			return
		}

		if r.isStopWord(w) || isNumeric(w) {
			flushPhrase()

			return
		}

		current = append(current, w)
	}

	runes := []rune(strings.ToLower(text))
	for i, ch := range runes {
		switch {
		case unicode.IsLetter(ch) || unicode.IsDigit(ch):
			word.WriteRune(ch)
		case (ch == '\'' || ch == '’' || ch == '-') && word.Len() > 0 && i+1 < len(runes) && isWordRune(runes[i+1]):
			if ch == '’' {
				ch = '\''
			}

			word.WriteRune(ch)
		case unicode.IsSpace(ch):
			flushWord()
		default:
			flushWord()
			flushPhrase()
		}
	}

	flushWord()
	flushPhrase()

	return phrases
}

type scoredPhrase struct {
	text  string
	score float64
	first int
}

// rank scores candidate phrases and returns the distinct phrases best first.
func (r *Rake) rank(phrases [][]string) []string {
	freq := make(map[string]int)
	degree := make(map[string]int)

	for _, p := range phrases {
		for _, w := range p {
			freq[w]++
			degree[w] += len(p)
		}
	}

	byText := make(map[string]*scoredPhrase)

	var ordered []*scoredPhrase

	for i, p := range phrases {
		text := strings.Join(p, " ")
		if _, ok := byText[text]; ok {
			continue
		}

		score := 0.0
		for _, w := range p {
			score += float64(degree[w]) / float64(freq[w])
		}

		sp := &scoredPhrase{text: text, score: score, first: i}
		byText[text] = sp
		ordered = append(ordered, sp)
	}

	slices.SortStableFunc(ordered, func(a, b *scoredPhrase) int {
		if c := cmp.Compare(b.score, a.score); c != 0 {
			return c
		}

		return cmp.Compare(a.first, b.first)
	})

	out := make([]string, len(ordered))
	for i, sp := range ordered {
		out[i] = sp.text
	}

	return out
}

func isWordRune(ch rune) bool {
	return unicode.IsLetter(ch) || unicode.IsDigit(ch)
}

func isNumeric(w string) bool {
	for _, ch := range w {
		if !unicode.IsDigit(ch) {
			return false
		}
	}

	return true
}
