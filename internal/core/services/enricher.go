package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/dullmace/faux-must-see/internal/core/domain"
	"github.com/dullmace/faux-must-see/internal/core/ports"
	"github.com/dullmace/faux-must-see/internal/logging"
	"github.com/dullmace/faux-must-see/internal/metrics"
)

// DefaultEnrichInterval paces enrichment requests between acts.
const DefaultEnrichInterval = 200 * time.Millisecond

// EnrichStats summarizes an enrichment run.
type EnrichStats struct {
	Enriched int `json:"enriched" yaml:"enriched"`
	Skipped  int `json:"skipped" yaml:"skipped"`
	Failed   int `json:"failed" yaml:"failed"`
}

// Enricher precomputes catalog audio profiles from each act's top tracks.
type Enricher struct {
	source  ports.ArtistTrackSource
	market  string
	limiter *rate.Limiter
	logger  zerolog.Logger
}

// NewEnricher constructs an Enricher issuing at most one act lookup per
// interval.
func NewEnricher(source ports.ArtistTrackSource, market string, interval time.Duration) *Enricher {
	if market == "" {
		market = "US"
	}
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &Enricher{
		source:  source,
		market:  market,
		limiter: rate.NewLimiter(limit, 1),
		logger:  logging.Component("enricher"),
	}
}

// Enrich returns a copy of acts with AudioProfile set to the rounded mean of
// each act's top tracks. Acts that cannot be resolved keep a nil profile; only
// context cancellation aborts the run.
func (e *Enricher) Enrich(ctx context.Context, token string, acts []domain.CandidateAct) ([]domain.CandidateAct, EnrichStats, error) {
	out := make([]domain.CandidateAct, len(acts))
	var stats EnrichStats

	for i, act := range acts {
		if err := e.limiter.Wait(ctx); err != nil {
			return nil, stats, fmt.Errorf("service: enrichment interrupted: %w", err)
		}

		profile, err := e.profileFor(ctx, token, act)
		act.AudioProfile = profile
		out[i] = act

		switch {
		case ctx.Err() != nil:
			return nil, stats, fmt.Errorf("service: enrichment interrupted: %w", ctx.Err())
		case err != nil:
			stats.Failed++
			metrics.EnrichedActs.WithLabelValues("failed").Inc()
			e.logger.Warn().Err(err).Str("act", act.Name).Msg("enrichment failed")
		case profile == nil:
			stats.Skipped++
			metrics.EnrichedActs.WithLabelValues("skipped").Inc()
			e.logger.Info().Str("act", act.Name).Msg("no usable tracks")
		default:
			stats.Enriched++
			metrics.EnrichedActs.WithLabelValues("enriched").Inc()
			e.logger.Debug().Str("act", act.Name).Float64("energy", profile.Energy).Msg("act enriched")
		}
	}

	return out, stats, nil
}

func (e *Enricher) profileFor(ctx context.Context, token string, act domain.CandidateAct) (*domain.AudioProfile, error) {
	artistID := act.ArtistID()
	if artistID == "" {
		artist, found, err := e.source.SearchArtist(ctx, token, act.Name)
		if err != nil {
			return nil, fmt.Errorf("search: %w", err)
		}
		if !found {
			return nil, nil
		}
		artistID = artist.ID
	}

	tracks, err := e.source.ArtistTopTracks(ctx, token, artistID, e.market)
	if err != nil {
		return nil, fmt.Errorf("top tracks: %w", err)
	}
	if len(tracks) == 0 {
		return nil, nil
	}

	ids := make([]string, 0, len(tracks))
	for _, t := range tracks {
		ids = append(ids, t.ID)
	}
	features, err := e.source.AudioFeatures(ctx, token, ids)
	if err != nil {
		return nil, fmt.Errorf("audio features: %w", err)
	}

	p, ok := domain.AggregateProfileRounded(domain.PresentFeatures(features))
	if !ok {
		return nil, nil
	}
	return &p, nil
}
