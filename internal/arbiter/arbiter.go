package arbiter

import (
	"recognition-api/internal/config"
	"recognition-api/internal/models"

	"github.com/rs/zerolog/log"
)

// ReasonBelowConfidence marks a terminal rejection: no candidate cleared its
// thresholds. Rejection is a legitimate outcome surfaced to the caller, not
// an error.
const ReasonBelowConfidence = "below_confidence"

// Discard records one candidate that failed arbitration and why, kept for
// diagnostics alongside the decision.
type Discard struct {
	Candidate models.Candidate `json:"candidate"`
	Reason    string           `json:"reason"`
}

// Decision is the arbiter's terminal state for one request: either a single
// winner or an explicit rejection. Discarded always carries the full list of
// losing candidates.
type Decision struct {
	Decided   bool              `json:"decided"`
	Winner    *models.Candidate `json:"winner,omitempty"`
	Reason    string            `json:"reason,omitempty"`
	Discarded []Discard         `json:"discarded,omitempty"`
}

// Arbiter selects one winning candidate from a pool, or none. It holds no
// mutable state; Decide is a pure function over its inputs.
type Arbiter struct {
	confidence config.ConfidenceConfig
}

// New creates an arbiter bound to the configured thresholds. Every source
// kind is guaranteed a threshold by config validation at startup.
func New(confidence config.ConfidenceConfig) *Arbiter {
	return &Arbiter{confidence: confidence}
}

// Decide arbitrates a candidate pool.
//
// A known-location hit short-circuits immediately: a curated override can
// never be outranked, whatever else is in the pool. Otherwise candidates
// must clear both their source threshold and the global floor; failures are
// discarded outright, not down-ranked. Among survivors the highest raw
// confidence wins, with ties broken by fixed source priority so that GPS
// ground truth never loses to a noisy vision match on miscalibrated numbers.
func (a *Arbiter) Decide(knownHit *models.Candidate, candidates []models.Candidate) Decision {
	if knownHit != nil {
		discarded := make([]Discard, 0, len(candidates))
		for _, c := range candidates {
			discarded = append(discarded, Discard{Candidate: c, Reason: "known_location_override"})
		}
		winner := *knownHit
		return Decision{Decided: true, Winner: &winner, Discarded: discarded}
	}

	var survivors []models.Candidate
	var discarded []Discard

	for _, c := range candidates {
		threshold, ok := a.confidence.Threshold(c.Source)
		if !ok {
			// Unreachable for configured sources; config validation fails
			// fast at startup. Guards candidates from unknown sources.
			discarded = append(discarded, Discard{Candidate: c, Reason: "unknown_source"})
			continue
		}
		if c.RawConfidence < a.confidence.Minimum {
			discarded = append(discarded, Discard{Candidate: c, Reason: "below_global_minimum"})
			continue
		}
		if c.RawConfidence < threshold {
			discarded = append(discarded, Discard{Candidate: c, Reason: "below_source_threshold"})
			continue
		}
		survivors = append(survivors, c)
	}

	if len(survivors) == 0 {
		log.Debug().Int("discarded", len(discarded)).Msg("no candidate cleared confidence thresholds")
		return Decision{Decided: false, Reason: ReasonBelowConfidence, Discarded: discarded}
	}

	winnerIdx := 0
	for i, c := range survivors[1:] {
		if better(c, survivors[winnerIdx]) {
			winnerIdx = i + 1
		}
	}

	for i, c := range survivors {
		if i == winnerIdx {
			continue
		}
		discarded = append(discarded, Discard{Candidate: c, Reason: "outranked"})
	}

	winner := survivors[winnerIdx]
	return Decision{Decided: true, Winner: &winner, Discarded: discarded}
}

// better reports whether a should win over b: higher raw confidence, then
// fixed source priority at equal confidence.
func better(a, b models.Candidate) bool {
	if a.RawConfidence != b.RawConfidence {
		return a.RawConfidence > b.RawConfidence
	}
	return a.Source.Priority() > b.Source.Priority()
}
