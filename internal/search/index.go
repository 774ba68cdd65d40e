// Package search provides a deterministic, concurrency-safe in-memory index
// over short catalog entries (ingredient names). It complements the database
// prefix filter with word matches anywhere in the name, so "oil" finds
// "olive oil".
//
//   - No logging in the library (callers decide how/what to log)
//   - Functional options (Option pattern)
//   - Unicode-aware tokenization with case folding and optional stop words
//   - Immutable index after construction; Holder swaps whole indices
//   - Deterministic scoring and sorting (stable order for ties)
//
// Scoring uses Jaccard similarity between the query token set and each
// entry's token set: score = |Q ∩ E| / |Q ∪ E|. With prefix matching on, a
// query token also matches entry tokens it is a prefix of.
package search

import (
	"regexp"
	"sort"
	"strings"
	"sync/atomic"
	"unicode/utf8"

	"golang.org/x/text/cases"
)

// Entry is one indexed document.
type Entry struct {
	ID   uint
	Text string
}

// Result is a ranked entry with its similarity score.
type Result struct {
	ID    uint
	Text  string
	Score float64
}

// Index is the minimal interface implemented by all search indices.
type Index interface {
	TopK(query string, k int) []Result
	Len() int
}

// ----------------------------------------------------------------------------
// Options

type Option func(*config)

type config struct {
	minPrefixRunes int
	stopwords      map[string]struct{}
	maxDocs        int
}

func defaultConfig() config {
	return config{
		minPrefixRunes: 2,
		stopwords:      nil,
		maxDocs:        0,
	}
}

// WithMinPrefixRunes sets the shortest query token that may match as a
// prefix. 0 disables prefix matching.
func WithMinPrefixRunes(n int) Option {
	return func(c *config) {
		if n >= 0 {
			c.minPrefixRunes = n
		}
	}
}

func WithStopwords(words []string) Option {
	return func(c *config) {
		m := make(map[string]struct{}, len(words))
		for _, w := range words {
			w = fold(strings.TrimSpace(w))
			if w != "" {
				m[w] = struct{}{}
			}
		}
		if len(m) > 0 {
			c.stopwords = m
		}
	}
}

func WithMaxDocs(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxDocs = n
		}
	}
}

// ----------------------------------------------------------------------------
// Implementation

type doc struct {
	id     uint
	text   string
	tokens map[string]struct{}
	tLen   int
}

type index struct {
	cfg  config
	docs []doc
}

// NewIndex builds an Index from entries. Entries without word characters
// are skipped.
func NewIndex(entries []Entry, opts ...Option) Index {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	docs := make([]doc, 0, len(entries))
	for _, e := range entries {
		t := strings.TrimSpace(normalizeWhitespace(e.Text))
		if t == "" {
			continue
		}
		toks := tokenize(t, cfg.stopwords)
		if len(toks) == 0 {
			continue
		}
		docs = append(docs, doc{id: e.ID, text: t, tokens: toks, tLen: len(toks)})
		if cfg.maxDocs > 0 && len(docs) >= cfg.maxDocs {
			break
		}
	}
	return &index{cfg: cfg, docs: docs}
}

func (i *index) Len() int { return len(i.docs) }

// TopK returns up to k best-matching entries.
func (i *index) TopK(q string, k int) []Result {
	if len(i.docs) == 0 || strings.TrimSpace(q) == "" {
		return nil
	}
	if k <= 0 {
		k = 10
	}
	qTokens := tokenize(q, i.cfg.stopwords)
	if len(qTokens) == 0 {
		return nil
	}
	qLen := len(qTokens)

	type scored struct {
		Result
		lenRunes int
	}

	buf := make([]scored, 0, min(k*4, len(i.docs)))
	for _, d := range i.docs {
		over := i.overlap(qTokens, d.tokens)
		if over == 0 {
			continue
		}
		union := float64(qLen + d.tLen - over)
		if union <= 0 {
			continue
		}
		buf = append(buf, scored{
			Result:   Result{ID: d.id, Text: d.text, Score: float64(over) / union},
			lenRunes: utf8.RuneCountInString(d.text),
		})
	}
	if len(buf) == 0 {
		return nil
	}

	sort.SliceStable(buf, func(a, b int) bool {
		if buf[a].Score != buf[b].Score {
			return buf[a].Score > buf[b].Score
		}
		if buf[a].lenRunes != buf[b].lenRunes {
			return buf[a].lenRunes < buf[b].lenRunes
		}
		if buf[a].Text != buf[b].Text {
			return buf[a].Text < buf[b].Text
		}
		return buf[a].ID < buf[b].ID
	})

	if k > len(buf) {
		k = len(buf)
	}
	out := make([]Result, k)
	for n := 0; n < k; n++ {
		out[n] = buf[n].Result
	}
	return out
}

// overlap counts query tokens that hit the entry, exactly or as a prefix.
func (i *index) overlap(q, d map[string]struct{}) int {
	n := 0
	for qt := range q {
		if _, ok := d[qt]; ok {
			n++
			continue
		}
		if i.cfg.minPrefixRunes == 0 || utf8.RuneCountInString(qt) < i.cfg.minPrefixRunes {
			continue
		}
		for dt := range d {
			if strings.HasPrefix(dt, qt) {
				n++
				break
			}
		}
	}
	return n
}

// ----------------------------------------------------------------------------
// Holder

// Holder publishes the current Index to concurrent readers and lets a
// rebuild replace it atomically.
type Holder struct {
	p atomic.Pointer[Index]
}

// NewHolder returns a Holder serving idx (an empty index when nil).
func NewHolder(idx Index) *Holder {
	h := &Holder{}
	h.Store(idx)
	return h
}

// Load returns the current index.
func (h *Holder) Load() Index {
	if p := h.p.Load(); p != nil {
		return *p
	}
	return NewIndex(nil)
}

// Store replaces the current index.
func (h *Holder) Store(idx Index) {
	if idx == nil {
		idx = NewIndex(nil)
	}
	h.p.Store(&idx)
}

// ----------------------------------------------------------------------------
// Helpers

var wordRE = regexp.MustCompile(`[\p{L}\p{N}]+`)

// fold case-folds s. Casers keep state, so one is made per call.
func fold(s string) string { return cases.Fold().String(s) }

func tokenize(s string, stop map[string]struct{}) map[string]struct{} {
	words := wordRE.FindAllString(fold(s), -1)
	if len(words) == 0 {
		return nil
	}
	out := make(map[string]struct{}, len(words))
	for _, w := range words {
		if stop != nil {
			if _, skip := stop[w]; skip {
				continue
			}
		}
		out[w] = struct{}{}
	}
	return out
}

func normalizeWhitespace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevSpace := false
	for _, r := range s {
		if r == ' ' || r == '\t' || r == '\r' || r == '\n' {
			if !prevSpace {
				b.WriteByte(' ')
				prevSpace = true
			}
			continue
		}
		prevSpace = false
		b.WriteRune(r)
	}
	return b.String()
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
