package spotify

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/dullmace/faux-must-see/internal/core/domain"
)

const (
	// audioFeaturesBatch is the API's per-request id ceiling.
	audioFeaturesBatch = 100
	searchCandidates   = 5
)

// ArtistTopTracks returns the artist's top tracks in the given market.
func (c *Client) ArtistTopTracks(ctx context.Context, token, artistID, market string) ([]domain.TrackRef, error) {
	q := url.Values{}
	q.Set("market", market)

	var body artistTopTracksResponse
	path := "/artists/" + url.PathEscape(artistID) + "/top-tracks"
	if err := c.getJSON(ctx, "artist top tracks", token, path, q, &body); err != nil {
		return nil, err
	}
	return mapTracksToDomain(body.Tracks), nil
}

// AudioFeatures fetches features for trackIDs, chunked to the API limit.
// The result is aligned with trackIDs; missing analyses are nil.
func (c *Client) AudioFeatures(ctx context.Context, token string, trackIDs []string) ([]*domain.AudioFeatures, error) {
	out := make([]*domain.AudioFeatures, 0, len(trackIDs))

	for start := 0; start < len(trackIDs); start += audioFeaturesBatch {
		end := min(start+audioFeaturesBatch, len(trackIDs))
		chunk := trackIDs[start:end]

		q := url.Values{}
		q.Set("ids", strings.Join(chunk, ","))

		var body audioFeaturesResponse
		if err := c.getJSON(ctx, "audio features", token, "/audio-features", q, &body); err != nil {
			return nil, err
		}

		mapped := mapFeaturesToDomain(body.AudioFeatures)
		// pad or trim so positions always line up with the request
		for i := range chunk {
			if i < len(mapped) {
				out = append(out, mapped[i])
			} else {
				out = append(out, nil)
			}
		}
	}

	return out, nil
}

// SearchArtist looks the name up and returns the best fuzzy match.
func (c *Client) SearchArtist(ctx context.Context, token, name string) (domain.Artist, bool, error) {
	query := normalizeSearchInput(name)
	if query == "" {
		return domain.Artist{}, false, nil
	}

	q := url.Values{}
	q.Set("q", name)
	q.Set("type", "artist")
	q.Set("limit", strconv.Itoa(searchCandidates))

	var body searchArtistsResponse
	if err := c.getJSON(ctx, "search artist", token, "/search", q, &body); err != nil {
		return domain.Artist{}, false, err
	}

	items := body.Artists.Items
	if len(items) > searchCandidates {
		items = items[:searchCandidates]
	}
	best, ok := bestArtistMatch(name, items)
	if !ok {
		c.logger.Debug().Str("name", name).Int("candidates", len(items)).Msg("no close artist match")
		return domain.Artist{}, false, nil
	}
	return mapArtistToDomain(best), true, nil
}
