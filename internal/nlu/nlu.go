package nlu

import (
	"sort"
	"strings"
)

// DefaultConfidenceThreshold is the minimum score an intent match must
// reach before the result is forced to UNKNOWN.
const DefaultConfidenceThreshold = 0.7

// entityConfidence is the fixed confidence assigned to every extracted entity.
const entityConfidence = 0.8

// Entity is a typed, located substring extracted from a command.
// The span [Start, End) indexes into the normalized text.
type Entity struct {
	Type       string  `json:"type"`
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
	Start      int     `json:"start"`
	End        int     `json:"end"`
}

// Result is the outcome of classifying one utterance.
type Result struct {
	Intent         Intent   `json:"intent"`
	Confidence     float64  `json:"confidence"`
	Entities       []Entity `json:"entities"`
	OriginalText   string   `json:"original_text"`
	NormalizedText string   `json:"normalized_text"`
}

// Engine classifies utterances against immutable pattern tables.
// Safe for concurrent use; the tables are built once at construction.
type Engine struct {
	threshold float64
	intents   []IntentPatterns
	entities  []EntityPatterns
}

// Option configures the Engine.
type Option func(*Engine)

// WithConfidenceThreshold overrides the default confidence threshold.
func WithConfidenceThreshold(threshold float64) Option {
	return func(e *Engine) {
		e.threshold = threshold
	}
}

// NewEngine creates a classifier with the builtin pattern tables.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		threshold: DefaultConfidenceThreshold,
		intents:   buildIntentPatterns(),
		entities:  buildEntityPatterns(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ConfidenceThreshold returns the configured threshold.
func (e *Engine) ConfidenceThreshold() float64 {
	return e.threshold
}

// IntentPatterns returns the intent pattern table for inspection.
func (e *Engine) IntentPatterns() []IntentPatterns {
	return e.intents
}

// EntityPatterns returns the entity pattern table for inspection.
func (e *Engine) EntityPatterns() []EntityPatterns {
	return e.entities
}

// Classify maps an utterance to an intent plus extracted entities.
// It never fails: unparseable or ambiguous input yields UNKNOWN with
// confidence 0, not an error.
func (e *Engine) Classify(text string) *Result {
	normalized := Normalize(text)

	bestIntent := IntentUnknown
	bestScore := 0.0

	if normalized != "" {
		for _, ip := range e.intents {
			for _, p := range ip.Patterns {
				loc := p.Compiled.FindStringIndex(normalized)
				if loc == nil {
					continue
				}
				score := matchScore(normalized, loc[0], loc[1])
				// Strictly greater: ties keep the earlier intent
				// in enumeration order.
				if score > bestScore {
					bestScore = score
					bestIntent = ip.Intent
				}
			}
		}
	}

	if bestScore < e.threshold {
		bestIntent = IntentUnknown
		bestScore = 0.0
	}

	return &Result{
		Intent:         bestIntent,
		Confidence:     bestScore,
		Entities:       e.extractEntities(normalized),
		OriginalText:   text,
		NormalizedText: normalized,
	}
}

// Normalize lowercases, collapses whitespace runs, trims, and expands
// contractions in table order.
func Normalize(text string) string {
	if text == "" {
		return ""
	}
	normalized := strings.ToLower(text)
	normalized = strings.Join(strings.Fields(normalized), " ")
	for _, c := range contractions {
		normalized = strings.ReplaceAll(normalized, c.from, c.to)
	}
	return normalized
}

// matchScore computes the confidence for a single pattern match.
func matchScore(text string, start, end int) float64 {
	matched := text[start:end]

	base := float64(len(matched)) / float64(len(text))
	if matched == text {
		base = 1.0
	}
	if start == 0 {
		base += 0.2
	}
	if (start == 0 || text[start-1] == ' ') && (end == len(text) || text[end] == ' ') {
		base += 0.1
	}
	if base > 1.0 {
		base = 1.0
	}
	return base
}

// extractEntities runs every entity pattern globally over the normalized
// text and resolves overlaps by keeping the longer value.
func (e *Engine) extractEntities(text string) []Entity {
	if text == "" {
		return []Entity{}
	}

	var candidates []Entity
	for _, ep := range e.entities {
		for _, p := range ep.Patterns {
			for _, loc := range p.Compiled.FindAllStringIndex(text, -1) {
				candidates = append(candidates, Entity{
					Type:       ep.Type,
					Value:      text[loc[0]:loc[1]],
					Confidence: entityConfidence,
					Start:      loc[0],
					End:        loc[1],
				})
			}
		}
	}

	return resolveOverlaps(candidates)
}

// resolveOverlaps removes overlapping candidates, keeping the one with the
// longer value. Candidates are considered in span-start order; each is
// checked against the first accepted entity it overlaps.
func resolveOverlaps(candidates []Entity) []Entity {
	if len(candidates) == 0 {
		return []Entity{}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Start < candidates[j].Start
	})

	accepted := make([]Entity, 0, len(candidates))
	for _, cand := range candidates {
		overlaps := false
		for i, existing := range accepted {
			if cand.Start < existing.End && cand.End > existing.Start {
				overlaps = true
				if len(cand.Value) > len(existing.Value) {
					accepted = append(accepted[:i], accepted[i+1:]...)
					accepted = append(accepted, cand)
				}
				break
			}
		}
		if !overlaps {
			accepted = append(accepted, cand)
		}
	}
	return accepted
}

// EntityValue returns the value of the first entity of the given type,
// or "" if none is present.
func EntityValue(entities []Entity, typ string) string {
	for _, ent := range entities {
		if ent.Type == typ {
			return ent.Value
		}
	}
	return ""
}

// EntityValues returns all values of the given entity type in order.
func EntityValues(entities []Entity, typ string) []string {
	var values []string
	for _, ent := range entities {
		if ent.Type == typ {
			values = append(values, ent.Value)
		}
	}
	return values
}
