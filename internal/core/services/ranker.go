package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/dullmace/faux-must-see/internal/core/domain"
	"github.com/dullmace/faux-must-see/internal/core/ports"
	"github.com/dullmace/faux-must-see/internal/core/scoring"
	"github.com/dullmace/faux-must-see/internal/logging"
	"github.com/dullmace/faux-must-see/internal/metrics"
)

const (
	// TopItemsLimit is the single-page maximum for top artists and tracks.
	TopItemsLimit = 50
	// topGenresShown is how many of the user's genres accompany a result.
	topGenresShown     = 5
	defaultConcurrency = 8
)

// Ranker scores the whole catalog against one user's listening history.
type Ranker struct {
	source      ports.TasteSource
	catalog     []domain.CandidateAct
	scorer      scoring.Scorer
	concurrency int
	logger      zerolog.Logger
}

// RankerOption configures a Ranker.
type RankerOption func(*Ranker)

// WithScoringConcurrency bounds how many acts are scored at once.
func WithScoringConcurrency(n int) RankerOption {
	return func(r *Ranker) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// NewRanker constructs a Ranker. The catalog slice is shared read-only across
// calls and must not be mutated afterwards.
func NewRanker(source ports.TasteSource, catalog []domain.CandidateAct, scorer scoring.Scorer, opts ...RankerOption) *Ranker {
	r := &Ranker{
		source:      source,
		catalog:     catalog,
		scorer:      scorer,
		concurrency: defaultConcurrency,
		logger:      logging.Component("ranker"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Catalog returns the lineup the ranker scores against.
func (r *Ranker) Catalog() []domain.CandidateAct {
	return r.catalog
}

// Rank builds the user's taste profile for the time range and returns every
// catalog act sorted by descending score. Ties keep catalog order. Any
// upstream failure fails the whole call.
func (r *Ranker) Rank(ctx context.Context, token string, tr domain.TimeRange) (domain.RankedResult, error) {
	if !tr.Valid() {
		return domain.RankedResult{}, fmt.Errorf("service: %w: %q", domain.ErrInvalidTimeRange, tr)
	}

	start := time.Now()
	result, err := r.rank(ctx, token, tr)
	elapsed := time.Since(start)

	outcome := "success"
	switch {
	case err != nil:
		outcome = "error"
		r.logger.Warn().Err(err).Str("time_range", string(tr)).Dur("elapsed", elapsed).Msg("ranking failed")
	case result.NoMatch():
		outcome = "no_match"
	}
	metrics.ObserveRanking(string(tr), outcome, elapsed)

	if err != nil {
		return domain.RankedResult{}, err
	}
	r.logger.Info().
		Str("time_range", string(tr)).
		Int("acts", len(result.Matches)).
		Bool("no_match", result.NoMatch()).
		Dur("elapsed", elapsed).
		Msg("ranking complete")
	return result, nil
}

func (r *Ranker) rank(ctx context.Context, token string, tr domain.TimeRange) (domain.RankedResult, error) {
	var (
		artists []domain.Artist
		tracks  []domain.TrackRef
	)

	// 1. Top artists and top tracks are independent of each other.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		artists, err = r.source.TopArtists(gctx, token, tr, TopItemsLimit)
		if err != nil {
			return fmt.Errorf("service: failed to fetch top artists: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		tracks, err = r.source.TopTracks(gctx, token, tr, TopItemsLimit)
		if err != nil {
			return fmt.Errorf("service: failed to fetch top tracks: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return domain.RankedResult{}, err
	}

	// 2. Audio profile from one batched features call.
	var userAudio *domain.AudioProfile
	if len(tracks) > 0 {
		ids := make([]string, 0, len(tracks))
		for _, t := range tracks {
			if t.ID != "" {
				ids = append(ids, t.ID)
			}
		}
		features, err := r.source.AudioFeatures(ctx, token, ids)
		if err != nil {
			return domain.RankedResult{}, fmt.Errorf("service: failed to fetch audio features: %w", err)
		}
		if p, ok := domain.AggregateProfile(domain.PresentFeatures(features)); ok {
			userAudio = &p
		}
	}

	user := domain.NewUserTasteProfile(artists, userAudio)
	r.logger.Debug().
		Int("artists", len(artists)).
		Int("tracks", len(tracks)).
		Int("genres", user.GenreCount()).
		Bool("audio_profile", userAudio != nil).
		Msg("taste profile built")

	// 3. Score every act. Each result lands at its catalog index so the
	// stable sort below sees catalog order.
	matches := make([]domain.ScoredCandidate, len(r.catalog))
	sg, sctx := errgroup.WithContext(ctx)
	sg.SetLimit(r.concurrency)
	for i, act := range r.catalog {
		sg.Go(func() error {
			if err := sctx.Err(); err != nil {
				return err
			}
			matches[i] = r.scorer.Score(user, act)
			return nil
		})
	}
	if err := sg.Wait(); err != nil {
		return domain.RankedResult{}, fmt.Errorf("service: scoring interrupted: %w", err)
	}

	// 4. Descending, stable.
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	return domain.RankedResult{
		TimeRange:     tr,
		Matches:       matches,
		UserTopGenres: domain.TopGenres(artists, topGenresShown),
		UserProfile:   userAudio,
	}, nil
}
