package domain

import (
	"sort"
	"strings"
)

// Artist is one of the user's top artists.
type Artist struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Genres []string `json:"genres"`
}

// TrackRef identifies a track returned by a top-tracks query.
type TrackRef struct {
	ID   string `json:"id"`
	URI  string `json:"uri"`
	Name string `json:"name"`
}

// UserTasteProfile is built fresh for every ranking request.
type UserTasteProfile struct {
	artistNames map[string]struct{}
	genres      map[string]struct{}
	Audio       *AudioProfile
}

// NewUserTasteProfile indexes the top artists by lower-cased name and the
// union of their genres. audio may be nil.
func NewUserTasteProfile(artists []Artist, audio *AudioProfile) UserTasteProfile {
	p := UserTasteProfile{
		artistNames: make(map[string]struct{}, len(artists)),
		genres:      make(map[string]struct{}),
		Audio:       audio,
	}
	for _, a := range artists {
		if name := normalizeKey(a.Name); name != "" {
			p.artistNames[name] = struct{}{}
		}
		for _, g := range a.Genres {
			if g = strings.TrimSpace(g); g != "" {
				p.genres[g] = struct{}{}
			}
		}
	}
	return p
}

// IsFan reports whether name matches one of the top artists, ignoring case.
func (p UserTasteProfile) IsFan(name string) bool {
	_, ok := p.artistNames[normalizeKey(name)]
	return ok
}

// LikesGenre reports whether the genre label appears in the user's genre set.
// Labels compare case-sensitively, as the provider returns them.
func (p UserTasteProfile) LikesGenre(label string) bool {
	_, ok := p.genres[strings.TrimSpace(label)]
	return ok
}

// GenreCount is the size of the genre union.
func (p UserTasteProfile) GenreCount() int {
	return len(p.genres)
}

// TopGenres returns up to n genres ordered by how many top artists carry
// them. Ties keep first-seen order.
func TopGenres(artists []Artist, n int) []string {
	if n <= 0 {
		return nil
	}

	counts := make(map[string]int)
	var order []string
	for _, a := range artists {
		for _, g := range a.Genres {
			g = strings.TrimSpace(g)
			if g == "" {
				continue
			}
			if _, ok := counts[g]; !ok {
				order = append(order, g)
			}
			counts[g]++
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if len(order) > n {
		order = order[:n]
	}
	return order
}

func normalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
