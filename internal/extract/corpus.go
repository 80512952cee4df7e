package extract

import (
	"regexp"
	"strings"

	"formflow/internal/model"
)

// Block is one searchable unit of corpus text. Text is folded (see Fold)
// so spans refer to offsets in the folded form.
type Block struct {
	DocumentID string
	Quality    float64
	Page       int
	Region     int
	Index      int
	Text       string
}

// Match is one hit of a corpus search.
type Match struct {
	DocumentID string
	Quality    float64
	Block      int
	Start      int
	End        int
	Value      string
}

// Corpus is the merged, read-only view over all extracted documents.
// Safe for concurrent readers; never mutated after construction.
type Corpus struct {
	docs   []model.SourceDocument
	blocks []Block
}

// NewCorpus indexes the given documents in order. Empty documents are
// kept for provenance but contribute no searchable blocks.
func NewCorpus(docs []model.SourceDocument) *Corpus {
	c := &Corpus{docs: docs}
	for _, doc := range docs {
		for i, b := range doc.Blocks {
			folded := Fold(b.Text)
			if folded == "" {
				continue
			}
			c.blocks = append(c.blocks, Block{
				DocumentID: doc.ID,
				Quality:    doc.QualityScore,
				Page:       b.Page,
				Region:     b.Region,
				Index:      i,
				Text:       folded,
			})
		}
	}
	return c
}

// Documents returns the underlying documents in input order.
func (c *Corpus) Documents() []model.SourceDocument {
	return c.docs
}

// Blocks returns every searchable block in document order.
func (c *Corpus) Blocks() []Block {
	return c.blocks
}

// FindAll returns every match of the pattern across the corpus, in
// block order then offset order, so results are reproducible.
func (c *Corpus) FindAll(re *regexp.Regexp) []Match {
	var out []Match
	for bi, b := range c.blocks {
		for _, loc := range re.FindAllStringIndex(b.Text, -1) {
			out = append(out, Match{
				DocumentID: b.DocumentID,
				Quality:    b.Quality,
				Block:      bi,
				Start:      loc[0],
				End:        loc[1],
				Value:      b.Text[loc[0]:loc[1]],
			})
		}
	}
	return out
}

// FindString returns case-insensitive matches of a literal needle.
func (c *Corpus) FindString(needle string) []Match {
	needle = Canon(needle)
	if needle == "" {
		return nil
	}
	var out []Match
	for bi, b := range c.blocks {
		lower := strings.ToLower(b.Text)
		from := 0
		for {
			idx := strings.Index(lower[from:], needle)
			if idx < 0 {
				break
			}
			start := from + idx
			end := start + len(needle)
			out = append(out, Match{
				DocumentID: b.DocumentID,
				Quality:    b.Quality,
				Block:      bi,
				Start:      start,
				End:        end,
				Value:      b.Text[start:end],
			})
			from = end
		}
	}
	return out
}

// Window returns the folded text immediately before and after a match,
// clipped to the match's block. Used for label-proximity scoring.
func (c *Corpus) Window(m Match, radius int) (before, after string) {
	if m.Block < 0 || m.Block >= len(c.blocks) {
		return "", ""
	}
	text := c.blocks[m.Block].Text
	lo := m.Start - radius
	if lo < 0 {
		lo = 0
	}
	hi := m.End + radius
	if hi > len(text) {
		hi = len(text)
	}
	return text[lo:m.Start], text[m.End:hi]
}
