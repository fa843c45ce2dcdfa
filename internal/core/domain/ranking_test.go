package domain

import (
	"errors"
	"math/rand/v2"
	"reflect"
	"strings"
	"testing"
)

func TestRankedResult_NoMatch(t *testing.T) {
	tests := []struct {
		name   string
		result RankedResult
		want   bool
	}{
		{name: "empty result", result: RankedResult{}, want: true},
		{name: "top score zero", result: RankedResult{Matches: []ScoredCandidate{{Score: 0}, {Score: 0}}}, want: true},
		{name: "top score positive", result: RankedResult{Matches: []ScoredCandidate{{Score: 50}, {Score: 0}}}, want: false},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.result.NoMatch(); got != tc.want {
				t.Fatalf("NoMatch() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestRankedResult_DiscoveryPick(t *testing.T) {
	result := RankedResult{Matches: []ScoredCandidate{
		{CandidateAct: CandidateAct{Name: "Fan Fave"}, Score: 1100},
		{CandidateAct: CandidateAct{Name: "Also Fan"}, Score: 1000},
		{CandidateAct: CandidateAct{Name: "New One"}, Score: 150},
		{CandidateAct: CandidateAct{Name: "Other"}, Score: 0},
	}}

	got, ok := result.DiscoveryPick()
	if !ok || got.Name != "New One" {
		t.Fatalf("DiscoveryPick() = %q, %v; want New One", got.Name, ok)
	}

	allFans := RankedResult{Matches: []ScoredCandidate{{Score: 1000}}}
	if _, ok := allFans.DiscoveryPick(); ok {
		t.Fatal("expected no discovery pick when every act is a fan match")
	}
}

func TestRankedResult_RunnersUpAndFind(t *testing.T) {
	result := RankedResult{Matches: []ScoredCandidate{
		{CandidateAct: CandidateAct{Name: "A"}},
		{CandidateAct: CandidateAct{Name: "B"}},
		{CandidateAct: CandidateAct{Name: "C"}},
	}}

	runners := result.RunnersUp(5)
	if len(runners) != 2 || runners[0].Name != "B" || runners[1].Name != "C" {
		t.Fatalf("unexpected runners up: %+v", runners)
	}
	if got := result.RunnersUp(1); len(got) != 1 {
		t.Fatalf("expected one runner up, got %d", len(got))
	}

	if got, ok := result.Find("c"); !ok || got.Name != "C" {
		t.Fatalf("Find(c) = %+v, %v", got, ok)
	}
	if _, ok := result.Find("missing"); ok {
		t.Fatal("expected missing act not to be found")
	}
}

func TestScoredCandidate_MatchPercent(t *testing.T) {
	tests := []struct {
		score float64
		want  int
	}{
		{score: 0, want: 0},
		{score: 4.44, want: 44},
		{score: 9.96, want: 100},
		{score: 1050, want: 100},
	}

	for _, tc := range tests {
		if got := (ScoredCandidate{Score: tc.score}).MatchPercent(); got != tc.want {
			t.Fatalf("MatchPercent(%v) = %d, want %d", tc.score, got, tc.want)
		}
	}
}

func TestTopGenres(t *testing.T) {
	artists := []Artist{
		{Name: "a", Genres: []string{"indie", "rock"}},
		{Name: "b", Genres: []string{"rock", "punk"}},
		{Name: "c", Genres: []string{"punk", "rock", "emo"}},
		{Name: "d", Genres: []string{"shoegaze", "dream pop", "  "}},
	}

	got := TopGenres(artists, 5)
	want := []string{"rock", "punk", "indie", "emo", "shoegaze"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("TopGenres() = %v, want %v", got, want)
	}

	if got := TopGenres(nil, 5); len(got) != 0 {
		t.Fatalf("expected no genres, got %v", got)
	}
}

func TestUserTasteProfile(t *testing.T) {
	p := NewUserTasteProfile([]Artist{
		{Name: "Echo Valley", Genres: []string{"Indie Rock"}},
		{Name: "  ", Genres: []string{"indie rock", "jazz"}},
	}, nil)

	if !p.IsFan("echo valley") || !p.IsFan("ECHO VALLEY") {
		t.Fatal("expected case-insensitive fan match")
	}
	if p.IsFan("") {
		t.Fatal("blank artist names must not match")
	}
	if !p.LikesGenre("indie rock") || !p.LikesGenre("Indie Rock") || !p.LikesGenre("jazz") {
		t.Fatal("expected genre union to contain Indie Rock, indie rock and jazz")
	}
	if p.LikesGenre("Jazz") {
		t.Fatal("genre labels must compare case-sensitively")
	}
	if p.GenreCount() != 3 {
		t.Fatalf("GenreCount() = %d, want 3", p.GenreCount())
	}
	if p.Audio != nil {
		t.Fatal("expected absent audio profile")
	}
}

func TestParseTimeRange(t *testing.T) {
	for _, tr := range TimeRanges {
		got, err := ParseTimeRange(string(tr))
		if err != nil || got != tr {
			t.Fatalf("ParseTimeRange(%q) = %q, %v", tr, got, err)
		}
	}

	for _, bad := range []string{"", "SHORT_TERM", "weekly", "long"} {
		if _, err := ParseTimeRange(bad); !errors.Is(err, ErrInvalidTimeRange) {
			t.Fatalf("ParseTimeRange(%q): expected ErrInvalidTimeRange, got %v", bad, err)
		}
	}
}

func TestShareText(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 20; i++ {
		msg := ShareText(rng, "Echo Valley", "Faux", "https://dullmace.lol")
		if !strings.Contains(msg, "Echo Valley") || !strings.Contains(msg, "https://dullmace.lol") {
			t.Fatalf("share text missing act or url: %q", msg)
		}
	}

	a := ShareText(rand.New(rand.NewPCG(7, 7)), "X", "F", "u")
	b := ShareText(rand.New(rand.NewPCG(7, 7)), "X", "F", "u")
	if a != b {
		t.Fatalf("same seed produced different text: %q vs %q", a, b)
	}
}

func TestMustSeePlaylist(t *testing.T) {
	sc := ScoredCandidate{CandidateAct: CandidateAct{Name: "Echo Valley"}, Score: 7.5}
	if got := MustSeePlaylistName("Faux", sc.Name); got != "Faux Must-See: Echo Valley" {
		t.Fatalf("unexpected playlist name %q", got)
	}
	want := "Don't miss Echo Valley at Faux! 🎵 75% match based on your music taste."
	if got := MustSeePlaylistDescription("Faux", sc); got != want {
		t.Fatalf("description = %q, want %q", got, want)
	}
}
