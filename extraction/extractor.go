// Package extraction reads oncology features out of free-text imaging reports.
package extraction

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/rawmatterx/oncostaging/config"
	"github.com/rawmatterx/oncostaging/entities"
)

// MinPlausibleSizeCM is the smallest size treated as a confident measurement.
const MinPlausibleSizeCM = 0.1

type depthTerm struct {
	term string
	re   *regexp.Regexp
}

// Extractor applies the pattern tables to report text. It holds only
// read-only state after construction and is safe for concurrent use.
type Extractor struct {
	cfg        config.StagingConfig
	depthTerms []depthTerm
}

// NewExtractor builds an extractor for the given tunables.
func NewExtractor(cfg config.StagingConfig) *Extractor {
	terms := make([]depthTerm, 0, len(cfg.DepthPriority))
	for _, term := range cfg.DepthPriority {
		term = strings.ToLower(strings.TrimSpace(term))
		if term == "" {
			continue
		}
		terms = append(terms, depthTerm{term: term, re: wordPattern(term)})
	}
	return &Extractor{cfg: cfg, depthTerms: terms}
}

// fieldResult is one field's extracted value with its confidence and evidence.
type fieldResult[T any] struct {
	value      T
	confidence float64
	evidence   []string
	found      bool
}

// ExtractBytes decodes raw report bytes and extracts features from them.
func (e *Extractor) ExtractBytes(raw []byte) (entities.MedicalFeatures, error) {
	text, err := DecodeReport(raw)
	if err != nil {
		return entities.MedicalFeatures{}, &entities.ExtractionError{Reason: "report could not be decoded", Err: err}
	}
	return e.Extract(text)
}

// Extract reads every supported field from the report. Fields without a
// match are left at their zero value; only empty or unreadable text fails.
func (e *Extractor) Extract(text string) (entities.MedicalFeatures, error) {
	if strings.TrimSpace(text) == "" {
		return entities.MedicalFeatures{}, &entities.ExtractionError{Reason: "report text is empty"}
	}
	normalized := Normalize(text)
	if !hasReadableContent(normalized) {
		return entities.MedicalFeatures{}, &entities.ExtractionError{Reason: "report text has no readable content"}
	}

	f := entities.MedicalFeatures{
		ConfidenceScores: make(map[string]float64),
		ExtractedValues:  make(map[string][]string),
	}

	if r := e.cancerType(normalized); r.found {
		f.CancerType = r.value
		record(&f, entities.FieldCancerType, r.confidence, r.evidence)
	}

	if r := e.tumorSize(normalized); r.found {
		f.TumorSizeCM = math.Min(r.value, e.cfg.MaxTumorSizeCM)
		record(&f, entities.FieldTumorSize, r.confidence, r.evidence)
	}

	if r := e.tumorDepth(normalized); r.found {
		f.TumorDepth = r.value
		record(&f, entities.FieldTumorDepth, r.confidence, r.evidence)
	}

	nodes := e.lymphNodes(normalized)
	f.LymphNodesInvolved = min(nodes.value, e.cfg.MaxLymphNodes)
	record(&f, entities.FieldLymphNodes, nodes.confidence, nodes.evidence)

	meta := e.distantMetastasis(normalized)
	f.DistantMetastasis = meta.value
	record(&f, entities.FieldDistantMetastasis, meta.confidence, meta.evidence)

	liver := e.liverInvasion(normalized)
	f.LiverInvasion = liver.value
	record(&f, entities.FieldLiverInvasion, liver.confidence, liver.evidence)

	return f, nil
}

func record(f *entities.MedicalFeatures, field string, confidence float64, evidence []string) {
	f.ConfidenceScores[field] = confidence
	if len(evidence) > 0 {
		f.ExtractedValues[field] = evidence
	}
}

func (e *Extractor) cancerType(text string) fieldResult[string] {
	var best fieldResult[string]
	bestScore := 0

	for _, set := range compiledCancerKeywords {
		score := 0
		var evidence []string
		for _, kw := range set.keywords {
			if kw.re.MatchString(text) {
				score += kw.weight
				evidence = append(evidence, kw.phrase)
			}
		}
		if score > bestScore {
			bestScore = score
			best = fieldResult[string]{value: set.cancerType, evidence: evidence, found: true}
		}
	}

	if best.found {
		best.confidence = math.Min(float64(bestScore)/3.0, 1.0)
	}
	return best
}

func (e *Extractor) tumorSize(text string) fieldResult[float64] {
	for _, re := range sizePatterns {
		matches := re.FindAllStringSubmatch(text, -1)
		if len(matches) == 0 {
			continue
		}

		var r fieldResult[float64]
		for _, m := range matches {
			size := largestDimension(m[1:4])
			if m[4] == "mm" {
				size /= 10
			}
			if !r.found || size > r.value {
				r.value = size
			}
			r.found = true
			r.evidence = append(r.evidence, strings.TrimSpace(m[0]))
		}

		r.confidence = 0.7
		if len(matches) == 1 {
			r.confidence = 0.9
		}
		if r.value < MinPlausibleSizeCM || r.value > e.cfg.MaxTumorSizeCM {
			r.confidence = 0.3
		}
		return r
	}
	return fieldResult[float64]{}
}

func largestDimension(dims []string) float64 {
	largest := 0.0
	for _, d := range dims {
		if d == "" {
			continue
		}
		if v, err := strconv.ParseFloat(d, 64); err == nil && v > largest {
			largest = v
		}
	}
	return largest
}

func parseCount(tok string) (int, bool) {
	if n, ok := numberWords[tok]; ok {
		return n, true
	}
	n, err := strconv.Atoi(tok)
	if err != nil {
		return 0, false
	}
	return n, true
}

func (e *Extractor) lymphNodes(text string) fieldResult[int] {
	var numeric fieldResult[int]
	var claimed []span
	distinct := make(map[int]bool)
	for _, re := range numericNodePatterns {
		for _, loc := range re.FindAllStringSubmatchIndex(text, -1) {
			// "3/12 nodes" must not be read again as "12 nodes" by a later pattern.
			if insideAny(claimed, loc[2], loc[3]) {
				continue
			}
			n, ok := parseCount(text[loc[2]:loc[3]])
			if !ok {
				continue
			}
			claimed = append(claimed, span{loc[0], loc[1]})
			distinct[n] = true
			if !numeric.found || n > numeric.value {
				numeric.value = n
			}
			numeric.found = true
			numeric.evidence = append(numeric.evidence, text[loc[0]:loc[1]])
		}
	}
	if numeric.found {
		numeric.confidence = 0.9
		if len(distinct) > 1 {
			numeric.confidence = 0.8
		}
		return numeric
	}

	if matches := qualitativeNodePattern.FindAllStringSubmatch(text, -1); len(matches) > 0 {
		r := fieldResult[int]{found: true, confidence: 0.6}
		for _, m := range matches {
			r.value = max(r.value, qualitativeNodeCounts[m[1]])
			r.evidence = append(r.evidence, m[0])
		}
		return r
	}

	for _, re := range negativeNodePatterns {
		if m := re.FindString(text); m != "" {
			return fieldResult[int]{value: 0, confidence: 0.85, evidence: []string{m}, found: true}
		}
	}

	return fieldResult[int]{value: 0, confidence: 0.5}
}

func (e *Extractor) distantMetastasis(text string) fieldResult[bool] {
	var evidence []string
	negated := false

	for _, re := range metastasisPatterns {
		for _, loc := range re.FindAllStringIndex(text, -1) {
			evidence = append(evidence, text[loc[0]:loc[1]])
			if e.isNegated(text, loc[0]) {
				negated = true
			}
		}
	}

	switch {
	case len(evidence) == 0:
		return fieldResult[bool]{value: false, confidence: 0.6}
	case negated:
		return fieldResult[bool]{value: false, confidence: 0.8, evidence: evidence, found: true}
	default:
		return fieldResult[bool]{value: true, confidence: 0.9, evidence: evidence, found: true}
	}
}

// isNegated looks for a negation cue in the window before start. The window
// stops at the previous sentence or line boundary.
func (e *Extractor) isNegated(text string, start int) bool {
	from := max(0, start-e.cfg.NegationWindow)
	window := text[from:start]
	if i := lastSentenceBreak(window); i >= 0 {
		window = window[i:]
	}
	return negationCuePattern.MatchString(window)
}

func lastSentenceBreak(window string) int {
	cut := -1
	for i := 0; i < len(window); i++ {
		switch window[i] {
		case ';', '\n':
			cut = i + 1
		case '.':
			if i+1 == len(window) || window[i+1] == ' ' {
				cut = i + 1
			}
		}
	}
	return cut
}

func (e *Extractor) liverInvasion(text string) fieldResult[bool] {
	var evidence []string
	for _, re := range liverInvasionPatterns {
		evidence = append(evidence, re.FindAllString(text, -1)...)
	}
	if len(evidence) == 0 {
		return fieldResult[bool]{value: false, confidence: 0.7}
	}
	return fieldResult[bool]{value: true, confidence: 0.9, evidence: evidence, found: true}
}

type span struct{ start, end int }

func (e *Extractor) tumorDepth(text string) fieldResult[string] {
	var claimed []span
	var found []string

	for _, dt := range e.depthTerms {
		hit := false
		for _, loc := range dt.re.FindAllStringIndex(text, -1) {
			if insideAny(claimed, loc[0], loc[1]) {
				continue
			}
			claimed = append(claimed, span{loc[0], loc[1]})
			hit = true
		}
		if hit {
			found = append(found, dt.term)
		}
	}

	if len(found) == 0 {
		return fieldResult[string]{}
	}
	// found is already in priority order.
	r := fieldResult[string]{value: found[0], confidence: 0.8, evidence: found, found: true}
	if len(found) > 1 {
		r.confidence = 0.7
	}
	return r
}

func insideAny(spans []span, start, end int) bool {
	for _, s := range spans {
		if start >= s.start && end <= s.end {
			return true
		}
	}
	return false
}
