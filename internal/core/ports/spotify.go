package ports

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/dullmace/faux-must-see/internal/core/domain"
)

// ErrUpstreamUnavailable matches transport failures, timeouts, 5xx responses
// and an open circuit breaker.
var ErrUpstreamUnavailable = errors.New("upstream unavailable")

// ErrMissingCredentials means the OAuth client id or secret is not configured.
var ErrMissingCredentials = errors.New("client credentials not configured")

// UpstreamError describes a failed call to the music API.
type UpstreamError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *UpstreamError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Err != nil:
		return fmt.Sprintf("%s: status %d: %v", e.Op, e.StatusCode, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: status %d", e.Op, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return e.Op + ": " + ErrUpstreamUnavailable.Error()
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

func (e *UpstreamError) Is(target error) bool {
	if target != ErrUpstreamUnavailable {
		return false
	}
	return e.StatusCode == 0 || e.StatusCode >= http.StatusInternalServerError
}

// IsUnauthorized reports whether the token was rejected.
func (e *UpstreamError) IsUnauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// IsUnauthorized reports whether err carries a rejected-token UpstreamError.
func IsUnauthorized(err error) bool {
	var ue *UpstreamError
	return errors.As(err, &ue) && ue.IsUnauthorized()
}

// TasteSource reads the signed-in user's listening history.
type TasteSource interface {
	TopArtists(ctx context.Context, token string, tr domain.TimeRange, limit int) ([]domain.Artist, error)
	TopTracks(ctx context.Context, token string, tr domain.TimeRange, limit int) ([]domain.TrackRef, error)
	// AudioFeatures returns one entry per id, nil where no analysis exists.
	AudioFeatures(ctx context.Context, token string, trackIDs []string) ([]*domain.AudioFeatures, error)
}

// ArtistTrackSource reads catalog-side track data for an artist.
type ArtistTrackSource interface {
	// SearchArtist resolves a display name to the closest matching artist.
	// found is false when no candidate is close enough.
	SearchArtist(ctx context.Context, token, name string) (artist domain.Artist, found bool, err error)
	ArtistTopTracks(ctx context.Context, token, artistID, market string) ([]domain.TrackRef, error)
	AudioFeatures(ctx context.Context, token string, trackIDs []string) ([]*domain.AudioFeatures, error)
}

// PlaylistPublisher manages playlists in the user's library.
type PlaylistPublisher interface {
	CurrentUserID(ctx context.Context, token string) (string, error)
	FindPlaylist(ctx context.Context, token, name string, limit int) (domain.PlaylistRef, bool, error)
	CreatePlaylist(ctx context.Context, token, userID string, draft domain.PlaylistDraft) (domain.PlaylistRef, error)
	ArtistTopTracks(ctx context.Context, token, artistID, market string) ([]domain.TrackRef, error)
	AddTracks(ctx context.Context, token, playlistID string, uris []string) error
}

// TokenExchanger performs the OAuth authorization-code flow.
type TokenExchanger interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (domain.AccessToken, error)
}
