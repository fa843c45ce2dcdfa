// Package scoring computes how well a festival act matches a listener.
package scoring

import (
	"fmt"
	"strings"

	"github.com/dullmace/faux-must-see/internal/core/domain"
)

const audioSimilarityText = "their music has a similar sonic vibe to what you listen to"

// Scorer scores one act against one taste profile. It is pure and safe for
// concurrent use.
type Scorer struct {
	// Festival is named in the fallback explanation.
	Festival string
}

// NewScorer returns a Scorer for the given festival name.
func NewScorer(festival string) Scorer {
	return Scorer{Festival: festival}
}

// Score applies the exact-fan, genre overlap and audio similarity steps in
// that order. A step only adds a reason when it contributes a positive amount.
func (s Scorer) Score(user domain.UserTasteProfile, act domain.CandidateAct) domain.ScoredCandidate {
	var (
		score   float64
		reasons []domain.Reason
	)

	if user.IsFan(act.Name) {
		score += domain.FanBonus
		reasons = append(reasons, domain.Reason{
			Kind:   domain.ReasonExactFan,
			Points: domain.FanBonus,
			Text:   fmt.Sprintf("you're already a huge fan of %s", act.Name),
		})
	}

	var shared []string
	for _, label := range act.Genres() {
		if user.LikesGenre(label) {
			shared = append(shared, label)
		}
	}
	if len(shared) > 0 {
		points := float64(len(shared)) * domain.GenreMatchPoints
		score += points
		reasons = append(reasons, domain.Reason{
			Kind:   domain.ReasonGenreOverlap,
			Points: points,
			Text:   "you love genres like: " + strings.Join(shared, ", "),
		})
	}

	// Energy > 0 stands in for "the user aggregate was really populated".
	if user.Audio != nil && act.AudioProfile != nil && user.Audio.Energy > 0 {
		if sim := domain.Similarity(*user.Audio, *act.AudioProfile); sim > 0 {
			score += sim
			reasons = append(reasons, domain.Reason{
				Kind:   domain.ReasonAudioSimilarity,
				Points: sim,
				Text:   audioSimilarityText,
			})
		}
	}

	return domain.ScoredCandidate{
		CandidateAct: act,
		Score:        score,
		Reasons:      reasons,
		Explanation:  s.Explain(reasons),
	}
}

// Explain joins reasons into a single sentence, or returns the discovery
// fallback when there are none.
func (s Scorer) Explain(reasons []domain.Reason) string {
	if len(reasons) == 0 {
		if s.Festival == "" {
			return "They're a great act to discover!"
		}
		return fmt.Sprintf("They're a great act to discover at %s!", s.Festival)
	}

	parts := make([]string, len(reasons))
	for i, r := range reasons {
		parts[i] = r.Text
	}
	return "Because " + strings.Join(parts, " and ") + "."
}
