package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/dullmace/faux-must-see/internal/adapters/rest"
	"github.com/dullmace/faux-must-see/internal/core/scoring"
	"github.com/dullmace/faux-must-see/internal/core/services"
	"github.com/dullmace/faux-must-see/internal/logging"
	"github.com/dullmace/faux-must-see/internal/worker"
)

func (a *app) newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE:  a.runServe,
	}
	cmd.Flags().String("addr", "", "listen address (default :8080)")
	a.bind(cmd.Flags(), "server.addr", "addr")
	return cmd
}

func (a *app) runServe(cmd *cobra.Command, _ []string) error {
	cfg := a.cfg
	logger := logging.Component("serve")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	acts, err := a.loadCatalog(ctx)
	if err != nil {
		return err
	}

	client := a.spotifyClient()
	auth := a.authenticator()
	if !auth.Configured() {
		logger.Warn().Msg("spotify client credentials are not configured; sign-in will fail")
	}

	ranker := services.NewRanker(client, acts, scoring.NewScorer(cfg.Festival.Name))

	pool := worker.NewPool(cfg.Worker.QueueSize)
	pool.Start(cfg.Worker.Workers)
	defer pool.Stop()

	flow := services.NewSessionFlow(ranker, auth, pool,
		services.WithShare(cfg.Festival.Name, cfg.Festival.ShareURL),
		services.WithRankingTimeout(cfg.Session.RankingTimeout),
	)
	go sweepSessions(ctx, flow, cfg.Session.SweepInterval, cfg.Session.IdleTimeout, logger)

	handler := rest.NewHandler(rest.Deps{
		Sessions: flow,
		Ranker:   ranker,
		Curator:  services.NewPlaylistCurator(client, cfg.Festival.Name, cfg.Festival.Market),
		Auth:     auth,
		Catalog:  ranker.Catalog(),
	}, rest.Config{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RateLimit:      cfg.Server.RateLimit,
		RateWindow:     cfg.Server.RateWindow,
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 15 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		err := srv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	logger.Info().
		Str("addr", cfg.Server.Addr).
		Str("festival", cfg.Festival.Name).
		Int("acts", len(acts)).
		Msg("API listening")

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("cli: serve: %w", err)
		}
		return nil
	case <-ctx.Done():
		logger.Info().Msg("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("shutdown error")
		}
		return nil
	}
}

// sweepSessions drops idle sessions until ctx is done.
func sweepSessions(ctx context.Context, flow *services.SessionFlow, interval, idle time.Duration, logger zerolog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := flow.Sweep(idle); n > 0 {
				logger.Info().Int("removed", n).Msg("expired idle sessions")
			}
		}
	}
}
