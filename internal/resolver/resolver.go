package resolver

import (
	"context"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"formflow/internal/extract"
	"formflow/internal/model"
)

// Config holds the tunable thresholds of field resolution.
type Config struct {
	// AcceptThreshold is the minimum confidence for automatic acceptance.
	AcceptThreshold float64
	// TieMargin is the confidence band within which candidates compete.
	TieMargin float64
	// ProximityRadius is how far around a match label text is searched.
	ProximityRadius int
	// Parallelism bounds concurrent per-field resolution.
	Parallelism int
}

// DefaultConfig returns the default resolution thresholds.
func DefaultConfig() Config {
	return Config{
		AcceptThreshold: 0.75,
		TieMargin:       0.10,
		ProximityRadius: 60,
		Parallelism:     4,
	}
}

// Resolver classifies required fields against an immutable corpus.
// Given identical corpus and fields, every classification is
// reproducible: candidate order is fully determined by confidence,
// document id, and span.
type Resolver struct {
	corpus *extract.Corpus
	cfg    Config
}

// New creates a resolver over the given corpus.
func New(corpus *extract.Corpus, cfg Config) *Resolver {
	if cfg.AcceptThreshold <= 0 {
		cfg.AcceptThreshold = DefaultConfig().AcceptThreshold
	}
	if cfg.TieMargin <= 0 {
		cfg.TieMargin = DefaultConfig().TieMargin
	}
	if cfg.ProximityRadius <= 0 {
		cfg.ProximityRadius = DefaultConfig().ProximityRadius
	}
	if cfg.Parallelism <= 0 {
		cfg.Parallelism = DefaultConfig().Parallelism
	}
	return &Resolver{corpus: corpus, cfg: cfg}
}

// ResolveAll resolves every field in parallel and returns resolutions in
// field order. Each field reads the shared corpus and writes only its
// own candidate set, so no synchronization beyond the join is needed.
func (r *Resolver) ResolveAll(ctx context.Context, fields []model.RequiredField) ([]model.FieldResolution, error) {
	results := make([]model.FieldResolution, len(fields))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Parallelism)

	for i, field := range fields {
		g.Go(func() error {
			results[i] = r.Resolve(field)
			return gctx.Err()
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, res := range results {
		slog.Debug("Field resolution",
			"field", res.Field.Key,
			"status", res.Status,
			"candidates", len(res.Candidates))
	}

	return results, nil
}

// Resolve classifies a single field as resolved, ambiguous, or missing.
func (r *Resolver) Resolve(field model.RequiredField) model.FieldResolution {
	cands := r.candidates(field)
	sortCandidates(cands)

	res := model.FieldResolution{Field: field, Status: model.StatusMissing}
	if len(cands) == 0 {
		return res
	}

	top := cands[0]
	if top.Confidence < r.cfg.AcceptThreshold {
		// All candidates below the acceptance threshold: treated the same
		// as zero candidates.
		return res
	}

	// Competing candidates are everything within the tie margin of the
	// top score; these are exactly what an ambiguity question shows.
	var competing []model.Candidate
	for _, c := range cands {
		if c.Confidence >= top.Confidence-r.cfg.TieMargin {
			competing = append(competing, c)
		}
	}

	ambiguous := false
	for _, c := range competing {
		if c.NormalizedValue != top.NormalizedValue {
			ambiguous = true
			break
		}
	}
	if !ambiguous {
		// Values above the threshold that disagree are ambiguous even
		// outside the tie margin: two different dates cannot both claim
		// the field.
		for _, c := range cands {
			if c.Confidence >= r.cfg.AcceptThreshold && c.NormalizedValue != top.NormalizedValue {
				ambiguous = true
				break
			}
		}
	}

	if ambiguous {
		res.Status = model.StatusAmbiguous
		res.Candidates = competing
		return res
	}

	var supporting []string
	for _, c := range cands {
		if c.NormalizedValue == top.NormalizedValue {
			supporting = append(supporting, c.ID)
		}
	}

	res.Status = model.StatusResolved
	res.Candidates = competing
	res.Value = &model.ResolvedValue{
		FieldKey:               field.Key,
		Value:                  fillValue(field, top),
		Provenance:             model.ProvenanceMatched,
		Confidence:             top.Confidence,
		SupportingCandidateIDs: supporting,
	}
	return res
}

// fillValue is the string actually written into the document: canonical
// for typed fields, the source text for free text.
func fillValue(field model.RequiredField, c model.Candidate) string {
	switch field.TypeHint {
	case model.FieldDate, model.FieldAmount:
		return c.NormalizedValue
	default:
		return strings.TrimSpace(c.Value)
	}
}

var (
	datePattern = regexp.MustCompile(`(?i)\b(?:\d{4}-\d{2}-\d{2}|\d{1,2}[./-]\d{1,2}[./-]\d{4}|(?:jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|jun(?:e)?|jul(?:y)?|aug(?:ust)?|sep(?:tember)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)\.? \d{1,2}, \d{4}|\d{1,2}\.? (?:january|february|march|april|may|june|july|august|september|october|november|december) \d{4})\b`)

	amountPattern = regexp.MustCompile(`\b\d[\d.,']*\d\b|\b\d\b`)

	identifierPattern = regexp.MustCompile(`\b[A-Za-z0-9][A-Za-z0-9/-]{4,}\b`)

	yearPattern = regexp.MustCompile(`^(19|20)\d{2}$`)
)

// candidates searches the corpus for possible values of one field.
func (r *Resolver) candidates(field model.RequiredField) []model.Candidate {
	switch field.TypeHint {
	case model.FieldDate:
		return r.patternCandidates(field, datePattern, func(raw string) (string, bool) {
			return NormalizeValue(model.FieldDate, raw)
		})
	case model.FieldAmount:
		return r.patternCandidates(field, amountPattern, func(raw string) (string, bool) {
			// Date fragments and bare years match the amount pattern;
			// they are not amounts.
			if _, isDate := ParseDate(raw); isDate || yearPattern.MatchString(raw) {
				return "", false
			}
			return NormalizeValue(model.FieldAmount, raw)
		})
	case model.FieldIdentifier:
		return r.patternCandidates(field, identifierPattern, func(raw string) (string, bool) {
			if _, isDate := ParseDate(raw); isDate {
				return "", false
			}
			if !strings.ContainsAny(raw, "0123456789") {
				return "", false
			}
			return NormalizeValue(model.FieldIdentifier, raw)
		})
	case model.FieldEnum:
		return r.enumCandidates(field)
	default:
		return r.labelAnchoredCandidates(field)
	}
}

// patternCandidates emits one candidate per well-formed pattern match.
func (r *Resolver) patternCandidates(field model.RequiredField, re *regexp.Regexp, normalize func(string) (string, bool)) []model.Candidate {
	var out []model.Candidate
	for _, m := range r.corpus.FindAll(re) {
		normalized, ok := normalize(m.Value)
		if !ok {
			continue
		}
		out = append(out, r.newCandidate(field, m, m.Value, normalized))
	}
	return out
}

// enumCandidates searches for each allowed value literally.
func (r *Resolver) enumCandidates(field model.RequiredField) []model.Candidate {
	var out []model.Candidate
	for _, allowed := range field.AllowedValues {
		for _, m := range r.corpus.FindString(allowed) {
			out = append(out, r.newCandidate(field, m, allowed, extract.Canon(allowed)))
		}
	}
	return out
}

// labelAnchoredCandidates handles free text and addresses: the value is
// whatever follows an occurrence of the field's label in the corpus.
func (r *Resolver) labelAnchoredCandidates(field model.RequiredField) []model.Candidate {
	var out []model.Candidate
	for _, m := range r.corpus.FindString(field.Label) {
		value, span, ok := r.textAfterLabel(m, field.TypeHint == model.FieldAddress)
		if !ok {
			continue
		}
		vm := m
		vm.Start, vm.End, vm.Value = span.Start, span.End, value
		normalized, ok := NormalizeValue(field.TypeHint, value)
		if !ok {
			continue
		}
		out = append(out, r.newCandidate(field, vm, value, normalized))
	}
	return out
}

// textAfterLabel extracts the value text following a label match: the
// remainder of the label's line, or the next line when the label ends
// its line. Addresses may span one continuation line.
func (r *Resolver) textAfterLabel(m extract.Match, multiline bool) (string, model.Span, bool) {
	blocks := r.corpus.Blocks()
	if m.Block < 0 || m.Block >= len(blocks) {
		return "", model.Span{}, false
	}
	text := blocks[m.Block].Text

	rest := text[m.End:]
	offset := m.End
	for len(rest) > 0 && strings.ContainsRune(":–—- \t", rune(rest[0])) {
		rest = rest[1:]
		offset++
	}

	line, remainder, _ := strings.Cut(rest, "\n")
	if strings.TrimSpace(line) == "" {
		// Label ends its line; the value is the next line.
		offset += len(line) + 1
		line, remainder, _ = strings.Cut(remainder, "\n")
	}

	value := strings.TrimSpace(line)
	if value == "" {
		return "", model.Span{}, false
	}
	end := offset + len(line)

	if multiline {
		if next, _, _ := strings.Cut(remainder, "\n"); looksLikeAddressContinuation(next) {
			value = value + ", " + strings.TrimSpace(next)
			end += 1 + len(next)
		}
	}

	return value, model.Span{Block: m.Block, Start: offset, End: end}, true
}

func looksLikeAddressContinuation(line string) bool {
	line = strings.TrimSpace(line)
	if line == "" || strings.Contains(line, ":") {
		return false
	}
	return strings.ContainsAny(line, "0123456789")
}

func (r *Resolver) newCandidate(field model.RequiredField, m extract.Match, value, normalized string) model.Candidate {
	c := model.Candidate{
		ID:               uuid.NewString(),
		FieldKey:         field.Key,
		Value:            value,
		NormalizedValue:  normalized,
		SourceDocumentID: m.DocumentID,
		Span:             model.Span{Block: m.Block, Start: m.Start, End: m.End},
	}
	c.Confidence = r.score(m, field)
	return c
}

// score derives a candidate's confidence from document quality and label
// proximity. Proximity boosts confidence; it never filters a candidate.
func (r *Resolver) score(m extract.Match, field model.RequiredField) float64 {
	conf := 0.50 + 0.20*m.Quality

	before, after := r.corpus.Window(m, r.cfg.ProximityRadius)
	window := extract.Canon(before + " " + after)

	labelWords := strings.Fields(extract.Canon(field.Label))
	if len(labelWords) > 0 {
		matched := 0
		for _, w := range labelWords {
			if strings.Contains(window, w) {
				matched++
			}
		}
		// A full label match is strong evidence; a partial one (shared
		// words like "date") only nudges, so near-miss fields stay below
		// the acceptance threshold.
		if matched == len(labelWords) {
			conf += 0.25
		} else {
			conf += 0.08 * float64(matched) / float64(len(labelWords))
		}
	}

	if field.ContextHint != "" {
		for _, w := range strings.Fields(extract.Canon(field.ContextHint)) {
			if len(w) >= 4 && strings.Contains(window, w) {
				conf += 0.04
				break
			}
		}
	}

	if conf > 0.99 {
		conf = 0.99
	}
	return conf
}

// sortCandidates orders by confidence descending, then document id,
// block, and span start, which makes classification reproducible.
func sortCandidates(cands []model.Candidate) {
	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].Confidence != cands[j].Confidence {
			return cands[i].Confidence > cands[j].Confidence
		}
		if cands[i].SourceDocumentID != cands[j].SourceDocumentID {
			return cands[i].SourceDocumentID < cands[j].SourceDocumentID
		}
		if cands[i].Span.Block != cands[j].Span.Block {
			return cands[i].Span.Block < cands[j].Span.Block
		}
		return cands[i].Span.Start < cands[j].Span.Start
	})
}
