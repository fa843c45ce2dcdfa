package services

import (
	"context"
	"errors"
	"sync"

	"github.com/dullmace/faux-must-see/internal/core/domain"
	"github.com/dullmace/faux-must-see/internal/core/ports"
	"github.com/dullmace/faux-must-see/internal/worker"
)

// mockSpotify implements the taste, artist-track and playlist ports.
type mockSpotify struct {
	mu sync.Mutex

	artists     []domain.Artist
	tracks      []domain.TrackRef
	features    map[string]*domain.AudioFeatures
	artistsErr  error
	tracksErr   error
	featuresErr error

	topTracksByArtist map[string][]domain.TrackRef
	artistTracksErr   error
	searchResults     map[string]domain.Artist
	searchErr         error
	searched          []string

	userID      string
	existing    *domain.PlaylistRef
	findErr     error
	createErr   error
	addErr      error
	created     []domain.PlaylistDraft
	addedURIs   []string
	featureIDs  [][]string
	gotRanges   []domain.TimeRange
	gotLimits   []int
	gotMarkets  []string
	gotTokens   []string
}

var (
	_ ports.TasteSource       = (*mockSpotify)(nil)
	_ ports.ArtistTrackSource = (*mockSpotify)(nil)
	_ ports.PlaylistPublisher = (*mockSpotify)(nil)
)

func (m *mockSpotify) TopArtists(_ context.Context, token string, tr domain.TimeRange, limit int) ([]domain.Artist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gotRanges = append(m.gotRanges, tr)
	m.gotLimits = append(m.gotLimits, limit)
	m.gotTokens = append(m.gotTokens, token)
	return m.artists, m.artistsErr
}

func (m *mockSpotify) TopTracks(_ context.Context, _ string, tr domain.TimeRange, limit int) ([]domain.TrackRef, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gotRanges = append(m.gotRanges, tr)
	m.gotLimits = append(m.gotLimits, limit)
	return m.tracks, m.tracksErr
}

func (m *mockSpotify) AudioFeatures(_ context.Context, _ string, ids []string) ([]*domain.AudioFeatures, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.featureIDs = append(m.featureIDs, ids)
	if m.featuresErr != nil {
		return nil, m.featuresErr
	}
	out := make([]*domain.AudioFeatures, len(ids))
	for i, id := range ids {
		out[i] = m.features[id]
	}
	return out, nil
}

func (m *mockSpotify) ArtistTopTracks(_ context.Context, _ string, artistID, market string) ([]domain.TrackRef, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gotMarkets = append(m.gotMarkets, market)
	if m.artistTracksErr != nil {
		return nil, m.artistTracksErr
	}
	return m.topTracksByArtist[artistID], nil
}

func (m *mockSpotify) SearchArtist(_ context.Context, _ string, name string) (domain.Artist, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.searched = append(m.searched, name)
	if m.searchErr != nil {
		return domain.Artist{}, false, m.searchErr
	}
	a, ok := m.searchResults[name]
	return a, ok, nil
}

func (m *mockSpotify) CurrentUserID(context.Context, string) (string, error) {
	if m.userID == "" {
		return "", errors.New("no user")
	}
	return m.userID, nil
}

func (m *mockSpotify) FindPlaylist(_ context.Context, _ string, name string, _ int) (domain.PlaylistRef, bool, error) {
	if m.findErr != nil {
		return domain.PlaylistRef{}, false, m.findErr
	}
	if m.existing != nil && m.existing.Name == name {
		return *m.existing, true, nil
	}
	return domain.PlaylistRef{}, false, nil
}

func (m *mockSpotify) CreatePlaylist(_ context.Context, _ string, _ string, draft domain.PlaylistDraft) (domain.PlaylistRef, error) {
	if m.createErr != nil {
		return domain.PlaylistRef{}, m.createErr
	}
	m.created = append(m.created, draft)
	return domain.PlaylistRef{ID: "pl-1", Name: draft.Name, URL: "https://open.spotify.com/playlist/pl-1"}, nil
}

func (m *mockSpotify) AddTracks(_ context.Context, _ string, _ string, uris []string) error {
	if m.addErr != nil {
		return m.addErr
	}
	m.addedURIs = append(m.addedURIs, uris...)
	return nil
}

// mockExchanger implements ports.TokenExchanger.
type mockExchanger struct {
	token    domain.AccessToken
	err      error
	lastCode string
}

func (m *mockExchanger) AuthCodeURL(state string) string {
	return "https://accounts.example/authorize?state=" + state
}

func (m *mockExchanger) Exchange(_ context.Context, code string) (domain.AccessToken, error) {
	m.lastCode = code
	return m.token, m.err
}

// syncRunner runs jobs inline on Submit.
type syncRunner struct {
	err error
}

func (r syncRunner) Submit(job worker.Job) error {
	if r.err != nil {
		return r.err
	}
	job.Run(context.Background())
	return nil
}

// heldRunner queues jobs until release is called.
type heldRunner struct {
	mu   sync.Mutex
	jobs []worker.Job
}

func (r *heldRunner) Submit(job worker.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs = append(r.jobs, job)
	return nil
}

func (r *heldRunner) release() {
	r.mu.Lock()
	jobs := r.jobs
	r.jobs = nil
	r.mu.Unlock()
	for _, j := range jobs {
		j.Run(context.Background())
	}
}

// stubRanker returns a fixed result or error.
type stubRanker struct {
	result domain.RankedResult
	err    error
	calls  int
}

func (s *stubRanker) Rank(_ context.Context, _ string, tr domain.TimeRange) (domain.RankedResult, error) {
	s.calls++
	if s.err != nil {
		return domain.RankedResult{}, s.err
	}
	r := s.result
	r.TimeRange = tr
	return r, nil
}

// blockingRanker waits until its context ends and returns the context error.
type blockingRanker struct{}

func (blockingRanker) Rank(ctx context.Context, _ string, _ domain.TimeRange) (domain.RankedResult, error) {
	<-ctx.Done()
	return domain.RankedResult{}, ctx.Err()
}
