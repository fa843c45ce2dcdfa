package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/dullmace/faux-must-see/internal/core/domain"
	"github.com/dullmace/faux-must-see/internal/core/ports"
	"github.com/dullmace/faux-must-see/internal/logging"
)

// playlistSearchLimit is how many of the user's playlists are checked for an
// existing must-see playlist.
const playlistSearchLimit = 50

var ErrActNotFound = errors.New("service: act not in results")

// PlaylistCurator creates a playlist of an act's top tracks in the user's
// library.
type PlaylistCurator struct {
	publisher ports.PlaylistPublisher
	festival  string
	market    string
	logger    zerolog.Logger
}

// NewPlaylistCurator constructs a PlaylistCurator.
func NewPlaylistCurator(publisher ports.PlaylistPublisher, festival, market string) *PlaylistCurator {
	if market == "" {
		market = "US"
	}
	return &PlaylistCurator{
		publisher: publisher,
		festival:  festival,
		market:    market,
		logger:    logging.Component("playlist"),
	}
}

// CreateForAct reuses the user's existing must-see playlist for the act when
// one exists, otherwise creates a private one and fills it with up to
// domain.MaxPlaylistTracks of the act's top tracks.
func (c *PlaylistCurator) CreateForAct(ctx context.Context, token string, sc domain.ScoredCandidate) (domain.PlaylistResult, error) {
	name := domain.MustSeePlaylistName(c.festival, sc.Name)

	existing, found, err := c.publisher.FindPlaylist(ctx, token, name, playlistSearchLimit)
	if err != nil {
		return domain.PlaylistResult{}, fmt.Errorf("service: failed to list playlists: %w", err)
	}
	if found {
		return domain.PlaylistResult{ID: existing.ID, Name: existing.Name, URL: existing.URL, Existing: true}, nil
	}

	userID, err := c.publisher.CurrentUserID(ctx, token)
	if err != nil {
		return domain.PlaylistResult{}, fmt.Errorf("service: failed to load user: %w", err)
	}

	created, err := c.publisher.CreatePlaylist(ctx, token, userID, domain.PlaylistDraft{
		Name:        name,
		Description: domain.MustSeePlaylistDescription(c.festival, sc),
		Public:      false,
	})
	if err != nil {
		return domain.PlaylistResult{}, fmt.Errorf("service: failed to create playlist: %w", err)
	}
	result := domain.PlaylistResult{ID: created.ID, Name: created.Name, URL: created.URL}

	artistID := sc.ArtistID()
	if artistID == "" {
		c.logger.Warn().Str("act", sc.Name).Msg("act has no artist link, playlist left empty")
		return result, nil
	}

	tracks, err := c.publisher.ArtistTopTracks(ctx, token, artistID, c.market)
	if err != nil {
		return result, fmt.Errorf("service: failed to fetch top tracks: %w", err)
	}
	uris := make([]string, 0, domain.MaxPlaylistTracks)
	for _, t := range tracks {
		if t.URI == "" {
			continue
		}
		uris = append(uris, t.URI)
		if len(uris) == domain.MaxPlaylistTracks {
			break
		}
	}
	if len(uris) == 0 {
		return result, nil
	}

	if err := c.publisher.AddTracks(ctx, token, created.ID, uris); err != nil {
		return result, fmt.Errorf("service: failed to add tracks: %w", err)
	}
	result.TracksAdded = len(uris)

	c.logger.Info().Str("act", sc.Name).Str("playlist_id", created.ID).Int("tracks", len(uris)).Msg("playlist created")
	return result, nil
}
