package spotify

import (
	"github.com/dullmace/faux-must-see/internal/core/domain"
)

func mapArtistToDomain(sa spotifyArtist) domain.Artist {
	return domain.Artist{
		ID:     sa.ID,
		Name:   sa.Name,
		Genres: sa.Genres,
	}
}

func mapArtistsToDomain(items []spotifyArtist) []domain.Artist {
	out := make([]domain.Artist, 0, len(items))
	for _, a := range items {
		out = append(out, mapArtistToDomain(a))
	}
	return out
}

// mapTracksToDomain drops items without an ID (local files, unavailable tracks).
func mapTracksToDomain(items []spotifyTrack) []domain.TrackRef {
	out := make([]domain.TrackRef, 0, len(items))
	for _, t := range items {
		if t.ID == "" {
			continue
		}
		uri := t.URI
		if uri == "" {
			uri = "spotify:track:" + t.ID
		}
		out = append(out, domain.TrackRef{ID: t.ID, URI: uri, Name: t.Name})
	}
	return out
}

// mapFeaturesToDomain keeps nil entries so the result lines up with the
// requested ids.
func mapFeaturesToDomain(items []*spotifyAudioFeatures) []*domain.AudioFeatures {
	out := make([]*domain.AudioFeatures, len(items))
	for i, f := range items {
		if f == nil {
			continue
		}
		out[i] = &domain.AudioFeatures{
			TrackID:      f.ID,
			Danceability: f.Danceability,
			Energy:       f.Energy,
			Valence:      f.Valence,
			Acousticness: f.Acousticness,
		}
	}
	return out
}

func mapPlaylistToDomain(sp spotifyPlaylist) domain.PlaylistRef {
	url := sp.ExternalURLs.Spotify
	if url == "" && sp.ID != "" {
		url = "https://open.spotify.com/playlist/" + sp.ID
	}
	return domain.PlaylistRef{ID: sp.ID, Name: sp.Name, URL: url}
}
