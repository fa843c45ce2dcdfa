package domain

import "fmt"

// MaxPlaylistTracks caps how many of an act's top tracks go into a curated
// playlist.
const MaxPlaylistTracks = 10

// PlaylistResult reports the outcome of a curated playlist request.
type PlaylistResult struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	URL         string `json:"url"`
	Existing    bool   `json:"existing"`
	TracksAdded int    `json:"tracksAdded"`
}

// PlaylistDraft describes a playlist to create.
type PlaylistDraft struct {
	Name        string
	Description string
	Public      bool
}

// PlaylistRef is a minimal view of a playlist owned by the user.
type PlaylistRef struct {
	ID   string
	Name string
	URL  string
}

// MustSeePlaylistName is the name used to find or create an act's playlist.
func MustSeePlaylistName(festival, act string) string {
	return fmt.Sprintf("%s Must-See: %s", festival, act)
}

// MustSeePlaylistDescription embeds the match percentage in the playlist
// description.
func MustSeePlaylistDescription(festival string, sc ScoredCandidate) string {
	return fmt.Sprintf("Don't miss %s at %s! 🎵 %d%% match based on your music taste.", sc.Name, festival, sc.MatchPercent())
}
