package spotify

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/dullmace/faux-must-see/internal/core/domain"
)

// FindPlaylist scans the first page of the user's playlists for an exact name.
func (c *Client) FindPlaylist(ctx context.Context, token, name string, limit int) (domain.PlaylistRef, bool, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))

	var page pagingPlaylists
	if err := c.getJSON(ctx, "list playlists", token, "/me/playlists", q, &page); err != nil {
		return domain.PlaylistRef{}, false, err
	}
	for _, p := range page.Items {
		if p.Name == name {
			return mapPlaylistToDomain(p), true, nil
		}
	}
	return domain.PlaylistRef{}, false, nil
}

// CreatePlaylist creates a playlist owned by userID.
func (c *Client) CreatePlaylist(ctx context.Context, token, userID string, draft domain.PlaylistDraft) (domain.PlaylistRef, error) {
	req := createPlaylistRequest{
		Name:        draft.Name,
		Description: draft.Description,
		Public:      draft.Public,
	}

	var created spotifyPlaylist
	path := "/users/" + url.PathEscape(userID) + "/playlists"
	if err := c.sendJSON(ctx, "create playlist", http.MethodPost, token, path, req, &created); err != nil {
		return domain.PlaylistRef{}, err
	}
	return mapPlaylistToDomain(created), nil
}

// AddTracks appends track URIs to the playlist.
func (c *Client) AddTracks(ctx context.Context, token, playlistID string, uris []string) error {
	if len(uris) == 0 {
		return nil
	}
	var snap snapshotResponse
	path := "/playlists/" + url.PathEscape(playlistID) + "/tracks"
	return c.sendJSON(ctx, "add tracks", http.MethodPost, token, path, addTracksRequest{URIs: uris}, &snap)
}
