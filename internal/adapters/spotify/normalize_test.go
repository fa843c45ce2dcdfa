package spotify

import "testing"

func TestNormalizeSearchInput(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "strips bracketed billing",
			input: "Echo Valley (DJ Set)",
			want:  "echo valley",
		},
		{
			name:  "drops leading article",
			input: "The Night Owls",
			want:  "night owls",
		},
		{
			name:  "keeps digits",
			input: "Room 101",
			want:  "room 101",
		},
		{
			name:  "removes feat tokens",
			input: "Artist feat. Someone",
			want:  "artist someone",
		},
		{
			name:  "all noise falls back to tokens",
			input: "The The",
			want:  "the the",
		},
		{
			name:  "empty",
			input: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := normalizeSearchInput(tt.input)
			if got != tt.want {
				t.Fatalf("normalizeSearchInput: got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBestArtistMatch(t *testing.T) {
	candidates := []spotifyArtist{
		{ID: "1", Name: "Echo Valley Tribute Band"},
		{ID: "2", Name: "Echo Vally"},
		{ID: "3", Name: "Echo Valley"},
	}

	got, ok := bestArtistMatch("The Echo Valley", candidates)
	if !ok {
		t.Fatal("expected a match")
	}
	if got.ID != "3" {
		t.Fatalf("bestArtistMatch: got %q, want %q", got.ID, "3")
	}

	if _, ok := bestArtistMatch("Completely Different", candidates); ok {
		t.Fatal("expected no match for an unrelated name")
	}
}

func TestLevenshteinDistance(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"abc", "", 3},
		{"kitten", "sitting", 3},
		{"björk", "bjork", 1},
	}
	for _, tt := range tests {
		if got := levenshteinDistance(tt.a, tt.b); got != tt.want {
			t.Errorf("levenshteinDistance(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}
