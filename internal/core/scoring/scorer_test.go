package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dullmace/faux-must-see/internal/core/domain"
)

func profile(d, e, v, a float64) *domain.AudioProfile {
	return &domain.AudioProfile{Danceability: d, Energy: e, Valence: v, Acousticness: a}
}

func kinds(reasons []domain.Reason) []domain.ReasonKind {
	out := make([]domain.ReasonKind, len(reasons))
	for i, r := range reasons {
		out[i] = r.Kind
	}
	return out
}

func TestScorer_Score(t *testing.T) {
	scorer := NewScorer("Faux")

	tests := []struct {
		name        string
		artists     []domain.Artist
		userAudio   *domain.AudioProfile
		act         domain.CandidateAct
		wantScore   float64
		wantKinds   []domain.ReasonKind
		wantExplain string
	}{
		{
			name:        "no overlap falls back to discovery text",
			artists:     []domain.Artist{{Name: "Someone", Genres: []string{"metal"}}},
			act:         domain.CandidateAct{Name: "Other Band", Genre: "jazz"},
			wantScore:   0,
			wantKinds:   []domain.ReasonKind{},
			wantExplain: "They're a great act to discover at Faux!",
		},
		{
			name:        "exact fan ignores case",
			artists:     []domain.Artist{{Name: "ECHO valley"}},
			act:         domain.CandidateAct{Name: "Echo Valley", Genre: "jazz"},
			wantScore:   1000,
			wantKinds:   []domain.ReasonKind{domain.ReasonExactFan},
			wantExplain: "Because you're already a huge fan of Echo Valley.",
		},
		{
			name:        "fan and genre",
			artists:     []domain.Artist{{Name: "Echo Valley", Genres: []string{"indie rock"}}},
			act:         domain.CandidateAct{Name: "Echo Valley", Genre: "indie rock"},
			wantScore:   1050,
			wantKinds:   []domain.ReasonKind{domain.ReasonExactFan, domain.ReasonGenreOverlap},
			wantExplain: "Because you're already a huge fan of Echo Valley and you love genres like: indie rock.",
		},
		{
			name:        "two shared genres",
			artists:     []domain.Artist{{Name: "X", Genres: []string{"punk", "emo", "ska"}}},
			act:         domain.CandidateAct{Name: "Y", Genre: "punk - post-hardcore - emo"},
			wantScore:   100,
			wantKinds:   []domain.ReasonKind{domain.ReasonGenreOverlap},
			wantExplain: "Because you love genres like: punk, emo.",
		},
		{
			name:        "repeated label counts twice",
			artists:     []domain.Artist{{Name: "X", Genres: []string{"rock"}}},
			act:         domain.CandidateAct{Name: "Y", Genre: "rock - rock"},
			wantScore:   100,
			wantKinds:   []domain.ReasonKind{domain.ReasonGenreOverlap},
			wantExplain: "Because you love genres like: rock, rock.",
		},
		{
			name:        "genre labels match case-sensitively",
			artists:     []domain.Artist{{Name: "X", Genres: []string{"indie rock"}}},
			act:         domain.CandidateAct{Name: "Y", Genre: "Indie Rock"},
			wantScore:   0,
			wantKinds:   []domain.ReasonKind{},
			wantExplain: "They're a great act to discover at Faux!",
		},
		{
			name:        "identical audio profile adds 100",
			artists:     nil,
			userAudio:   profile(0.5, 0.6, 0.4, 0.2),
			act:         domain.CandidateAct{Name: "Z", AudioProfile: profile(0.5, 0.6, 0.4, 0.2)},
			wantScore:   100,
			wantKinds:   []domain.ReasonKind{domain.ReasonAudioSimilarity},
			wantExplain: "Because " + audioSimilarityText + ".",
		},
		{
			name:        "zero user energy skips audio step",
			userAudio:   profile(0.5, 0, 0.4, 0.2),
			act:         domain.CandidateAct{Name: "Z", AudioProfile: profile(0.5, 0, 0.4, 0.2)},
			wantScore:   0,
			wantKinds:   []domain.ReasonKind{},
			wantExplain: "They're a great act to discover at Faux!",
		},
		{
			name:        "act without profile skips audio step",
			userAudio:   profile(0.5, 0.6, 0.4, 0.2),
			act:         domain.CandidateAct{Name: "Z"},
			wantScore:   0,
			wantKinds:   []domain.ReasonKind{},
			wantExplain: "They're a great act to discover at Faux!",
		},
		{
			name:        "distant profiles add nothing",
			userAudio:   profile(0, 1, 0, 0),
			act:         domain.CandidateAct{Name: "Z", AudioProfile: profile(1, 0, 1, 1)},
			wantScore:   0,
			wantKinds:   []domain.ReasonKind{},
			wantExplain: "They're a great act to discover at Faux!",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			user := domain.NewUserTasteProfile(tc.artists, tc.userAudio)
			got := scorer.Score(user, tc.act)

			assert.InDelta(t, tc.wantScore, got.Score, 1e-9)
			assert.Equal(t, tc.wantKinds, kinds(got.Reasons))
			assert.Equal(t, tc.wantExplain, got.Explanation)
			assert.Equal(t, tc.act, got.CandidateAct)
		})
	}
}

func TestScorer_FanAlwaysAtLeastBonus(t *testing.T) {
	scorer := NewScorer("Faux")
	user := domain.NewUserTasteProfile(
		[]domain.Artist{{Name: "Headliner", Genres: []string{"rock"}}},
		profile(0, 1, 0, 0),
	)

	acts := []domain.CandidateAct{
		{Name: "headliner"},
		{Name: "Headliner", Genre: "rock", AudioProfile: profile(1, 0, 1, 1)},
		{Name: "HEADLINER", Genre: "jazz", AudioProfile: profile(0, 1, 0, 0)},
	}
	for _, act := range acts {
		got := scorer.Score(user, act)
		assert.GreaterOrEqual(t, got.Score, domain.FanBonus, act.Name)
		require.NotEmpty(t, got.Reasons)
		assert.Equal(t, domain.ReasonExactFan, got.Reasons[0].Kind)
	}
}

func TestScorer_GenreMonotonic(t *testing.T) {
	scorer := NewScorer("Faux")
	user := domain.NewUserTasteProfile(
		[]domain.Artist{{Name: "X", Genres: []string{"a", "b", "c", "d"}}},
		nil,
	)

	descriptors := []string{"z", "a - z", "a - b - z", "a - b - c", "a - b - c - d"}
	prev := -1.0
	for _, g := range descriptors {
		got := scorer.Score(user, domain.CandidateAct{Name: "Act", Genre: g}).Score
		assert.GreaterOrEqual(t, got, prev, g)
		prev = got
	}
	assert.InDelta(t, 200, prev, 1e-9)
}

func TestScorer_ExplainWithoutFestival(t *testing.T) {
	assert.Equal(t, "They're a great act to discover!", Scorer{}.Explain(nil))
}
