package spotify

// Wire shapes of the Spotify Web API responses this adapter reads.

type spotifyImage struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

type spotifyArtist struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Genres []string       `json:"genres"`
	Images []spotifyImage `json:"images,omitempty"`
}

type spotifyTrack struct {
	ID      string          `json:"id"`
	URI     string          `json:"uri"`
	Name    string          `json:"name"`
	Artists []spotifyArtist `json:"artists"`
}

// spotifyAudioFeatures is one element of /audio-features. The API sends
// JSON null for tracks without analysis, which decodes to a nil pointer.
type spotifyAudioFeatures struct {
	ID           string  `json:"id"`
	Danceability float64 `json:"danceability"`
	Energy       float64 `json:"energy"`
	Valence      float64 `json:"valence"`
	Acousticness float64 `json:"acousticness"`
}

type pagingArtists struct {
	Items []spotifyArtist `json:"items"`
	Total int             `json:"total"`
}

type pagingTracks struct {
	Items []spotifyTrack `json:"items"`
	Total int            `json:"total"`
}

type audioFeaturesResponse struct {
	AudioFeatures []*spotifyAudioFeatures `json:"audio_features"`
}

type artistTopTracksResponse struct {
	Tracks []spotifyTrack `json:"tracks"`
}

type searchArtistsResponse struct {
	Artists pagingArtists `json:"artists"`
}

type spotifyUser struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

type externalURLs struct {
	Spotify string `json:"spotify"`
}

type spotifyPlaylist struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	ExternalURLs externalURLs `json:"external_urls"`
}

type pagingPlaylists struct {
	Items []spotifyPlaylist `json:"items"`
	Next  string            `json:"next"`
}

type createPlaylistRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Public      bool   `json:"public"`
}

// addTracksRequest represents the request body for adding tracks to a playlist.
type addTracksRequest struct {
	URIs []string `json:"uris"`
}

type snapshotResponse struct {
	SnapshotID string `json:"snapshot_id"`
}

type apiErrorBody struct {
	Error struct {
		Status  int    `json:"status"`
		Message string `json:"message"`
	} `json:"error"`
}
