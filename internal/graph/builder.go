package graph

import (
	"cmp"
	"errors"
	"fmt"
	"slices"

	"newsgraph/internal/keywords"
	"newsgraph/internal/models"
)

// ErrNoPhrases marks a document whose text yielded no usable phrases.
var ErrNoPhrases = errors.New("no keyword phrases extracted")

// Options controls a build.
type Options struct {
	// MaxPhrasesPerDoc caps the phrases taken from each document. Non-positive means keywords.DefaultLimit.
	MaxPhrasesPerDoc int
	// IncludeArticles adds an article node per document and a mention edge to each of its keywords.
	IncludeArticles bool
}

// Skipped records a document that contributed nothing.
type Skipped struct {
	Err    error
	Source string
	Title  string
	Index  int
}

// BuildReport summarizes how the input documents were used.
type BuildReport struct {
	Skipped      []Skipped
	Documents    int
	Contributing int
}

// Build folds documents into a co-occurrence graph.
//
// Each document's phrases are treated as a set; every phrase adds one to its node
// frequency and every unordered pair of distinct phrases adds one to its edge weight.
// A document whose extraction fails or yields nothing is skipped without touching the counts.
func Build(docs []models.Document, ex keywords.Extractor, opts Options) (*Graph, BuildReport) {
	acc := newAccumulator(opts.IncludeArticles)
	report := BuildReport{Documents: len(docs)}

	for i, doc := range docs {
		phrases, err := keywords.Take(ex, doc.Text(), opts.MaxPhrasesPerDoc)
		if err == nil && len(phrases) == 0 {
			err = ErrNoPhrases
		}

		if err != nil {
			report.Skipped = append(report.Skipped, Skipped{
				Index:  i,
				Source: doc.Source,
				Title:  doc.Title,
				Err:    fmt.Errorf("document %d: %w", i, err),
			})

			continue
		}

		acc.add(doc, phrases)
		report.Contributing++
	}

	return acc.graph(), report
}

// accumulator holds the counters for a single build.
type accumulator struct {
	frequency    map[string]int
	cooccurrence map[pair]int
	articles     map[string]int
	mentions     map[pair]struct{}
	withArticles bool
}

func newAccumulator(withArticles bool) *accumulator {
	return &accumulator{
		frequency:    make(map[string]int),
		cooccurrence: make(map[pair]int),
		articles:     make(map[string]int),
		mentions:     make(map[pair]struct{}),
		withArticles: withArticles,
	}
}

// add counts one document. phrases must already be distinct.
func (a *accumulator) add(doc models.Document, phrases []string) {
	for i, p := range phrases {
		a.frequency[p]++

		for _, q := range phrases[i+1:] {
			if p != q {
				a.cooccurrence[newPair(p, q)]++
			}
		}
	}

	if !a.withArticles || doc.Title == "" {
		return
	}

	articleID := ArticleID(doc.Title)
	a.articles[doc.Title]++

	for _, p := range phrases {
		a.mentions[newPair(articleID, p)] = struct{}{}
	}
}

func (a *accumulator) graph() *Graph {
	g := &Graph{
		Nodes: make([]Node, 0, len(a.frequency)+len(a.articles)),
		Edges: make([]Edge, 0, len(a.cooccurrence)+len(a.mentions)),
	}

	for phrase, n := range a.frequency {
		g.Nodes = append(g.Nodes, Node{ID: phrase, Label: phrase, Type: NodeKeyword, Frequency: n})
	}

	for title, n := range a.articles {
		g.Nodes = append(g.Nodes, Node{ID: ArticleID(title), Label: title, Type: NodeArticle, Frequency: n})
	}

	for p, w := range a.cooccurrence {
		g.Edges = append(g.Edges, Edge{A: p.a, B: p.b, Kind: EdgeCooccurrence, Weight: w})
	}

	for p := range a.mentions {
		g.Edges = append(g.Edges, Edge{A: p.a, B: p.b, Kind: EdgeMention, Weight: 1})
	}

	slices.SortFunc(g.Nodes, func(x, y Node) int {
		return cmp.Compare(x.ID, y.ID)
	})

	slices.SortFunc(g.Edges, func(x, y Edge) int {
		if c := comparePairs(pair{x.A, x.B}, pair{y.A, y.B}); c != 0 {
			return c
		}

		return cmp.Compare(string(x.Kind), string(y.Kind))
	})

	return g
}
