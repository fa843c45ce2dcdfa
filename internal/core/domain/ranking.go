package domain

import "math"

const (
	// FanBonus is added when the user already has the act among their top
	// artists. It outranks every other signal combined.
	FanBonus = 1000.0
	// GenreMatchPoints is awarded per shared genre label.
	GenreMatchPoints = 50.0
)

// ReasonKind identifies which scoring step produced a Reason.
type ReasonKind string

const (
	ReasonExactFan        ReasonKind = "exact_fan"
	ReasonGenreOverlap    ReasonKind = "genre_overlap"
	ReasonAudioSimilarity ReasonKind = "audio_similarity"
)

// Reason is one scoring component with its contribution.
type Reason struct {
	Kind   ReasonKind `json:"kind"`
	Points float64    `json:"points"`
	Text   string     `json:"text"`
}

// ScoredCandidate is a catalog act with its score. Reasons are ordered
// exact-fan, genre overlap, audio similarity.
type ScoredCandidate struct {
	CandidateAct
	Score       float64  `json:"score"`
	Reasons     []Reason `json:"reasons"`
	Explanation string   `json:"reason"`
}

// MatchPercent is the displayed match value: score*10 rounded, capped at 100.
func (s ScoredCandidate) MatchPercent() int {
	return int(math.Min(math.Round(s.Score/10*100), 100))
}

// IsFan reports whether the exact-fan bonus applied.
func (s ScoredCandidate) IsFan() bool {
	for _, r := range s.Reasons {
		if r.Kind == ReasonExactFan {
			return true
		}
	}
	return false
}

// RankedResult is the output of one ranking run.
type RankedResult struct {
	TimeRange     TimeRange         `json:"timeRange"`
	Matches       []ScoredCandidate `json:"matches"`
	UserTopGenres []string          `json:"userTopGenres"`
	UserProfile   *AudioProfile     `json:"userProfile"`
}

// NoMatch reports the "no clear match" outcome: nothing ranked, or the best
// act scored zero.
func (r RankedResult) NoMatch() bool {
	return len(r.Matches) == 0 || r.Matches[0].Score <= 0
}

// Top returns the best-ranked act.
func (r RankedResult) Top() (ScoredCandidate, bool) {
	if len(r.Matches) == 0 {
		return ScoredCandidate{}, false
	}
	return r.Matches[0], true
}

// DiscoveryPick returns the best-ranked act the user is not already a fan of.
func (r RankedResult) DiscoveryPick() (ScoredCandidate, bool) {
	for _, m := range r.Matches {
		if m.Score < FanBonus {
			return m, true
		}
	}
	return ScoredCandidate{}, false
}

// RunnersUp returns up to n acts following the top one.
func (r RankedResult) RunnersUp(n int) []ScoredCandidate {
	if len(r.Matches) <= 1 || n <= 0 {
		return nil
	}
	end := min(1+n, len(r.Matches))
	return r.Matches[1:end]
}

// Find returns the ranked entry for the named act, ignoring case.
func (r RankedResult) Find(name string) (ScoredCandidate, bool) {
	key := normalizeKey(name)
	for _, m := range r.Matches {
		if normalizeKey(m.Name) == key {
			return m, true
		}
	}
	return ScoredCandidate{}, false
}
