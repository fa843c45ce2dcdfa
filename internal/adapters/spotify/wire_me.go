package spotify

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/dullmace/faux-must-see/internal/core/domain"
)

// TopArtists returns the user's most-listened artists for the window.
func (c *Client) TopArtists(ctx context.Context, token string, tr domain.TimeRange, limit int) ([]domain.Artist, error) {
	var page pagingArtists
	if err := c.getJSON(ctx, "top artists", token, "/me/top/artists", topQuery(tr, limit), &page); err != nil {
		return nil, err
	}
	return mapArtistsToDomain(page.Items), nil
}

// TopTracks returns the user's most-listened tracks for the window.
func (c *Client) TopTracks(ctx context.Context, token string, tr domain.TimeRange, limit int) ([]domain.TrackRef, error) {
	var page pagingTracks
	if err := c.getJSON(ctx, "top tracks", token, "/me/top/tracks", topQuery(tr, limit), &page); err != nil {
		return nil, err
	}
	return mapTracksToDomain(page.Items), nil
}

// CurrentUserID returns the Spotify user id owning the token.
func (c *Client) CurrentUserID(ctx context.Context, token string) (string, error) {
	var user spotifyUser
	if err := c.getJSON(ctx, "current user", token, "/me", nil, &user); err != nil {
		return "", err
	}
	if user.ID == "" {
		return "", fmt.Errorf("spotify adapter: current user: empty id")
	}
	return user.ID, nil
}

func topQuery(tr domain.TimeRange, limit int) url.Values {
	q := url.Values{}
	q.Set("time_range", string(tr))
	q.Set("limit", strconv.Itoa(limit))
	return q
}
