package domain

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// GenreSeparator delimits labels inside CandidateAct.Genre.
const GenreSeparator = " - "

var (
	ErrDuplicateAct = errors.New("domain: duplicate act name")
	ErrEmptyActName = errors.New("domain: act name is required")
)

// CandidateAct is one entry of the festival lineup.
type CandidateAct struct {
	Name         string        `json:"name"`
	Location     string        `json:"bandLocation"`
	Genre        string        `json:"bandGenre"`
	SpotifyLink  string        `json:"spotifyLink"`
	Image        string        `json:"bandImage"`
	AudioProfile *AudioProfile `json:"audioProfile"`
}

// Genres splits the genre descriptor into trimmed labels in their original
// order. Repeated labels are kept; each one counts toward genre overlap.
func (a CandidateAct) Genres() []string {
	if strings.TrimSpace(a.Genre) == "" {
		return nil
	}
	parts := strings.Split(a.Genre, GenreSeparator)
	labels := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			labels = append(labels, p)
		}
	}
	return labels
}

// ArtistID extracts the Spotify artist ID from SpotifyLink. It accepts both
// open.spotify.com URLs and spotify:artist: URIs.
func (a CandidateAct) ArtistID() string {
	link := strings.TrimSpace(a.SpotifyLink)
	if link == "" {
		return ""
	}
	if id, ok := strings.CutPrefix(link, "spotify:artist:"); ok {
		return id
	}

	u, err := url.Parse(link)
	if err != nil {
		return ""
	}
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i := 0; i < len(segments)-1; i++ {
		if segments[i] == "artist" {
			return segments[i+1]
		}
	}
	return ""
}

// ValidateCatalog checks that every act has a name and that names are unique
// (case-insensitively).
func ValidateCatalog(acts []CandidateAct) error {
	seen := make(map[string]int, len(acts))
	for i, a := range acts {
		name := strings.ToLower(strings.TrimSpace(a.Name))
		if name == "" {
			return fmt.Errorf("%w: entry %d", ErrEmptyActName, i)
		}
		if first, dup := seen[name]; dup {
			return fmt.Errorf("%w: %q at entries %d and %d", ErrDuplicateAct, a.Name, first, i)
		}
		seen[name] = i
	}
	return nil
}
