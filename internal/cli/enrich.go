package cli

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/dullmace/faux-must-see/internal/adapters/catalog"
	"github.com/dullmace/faux-must-see/internal/core/services"
	"github.com/dullmace/faux-must-see/internal/logging"
)

type enrichReport struct {
	Output   string               `json:"output" yaml:"output"`
	Snapshot bool                 `json:"snapshot" yaml:"snapshot"`
	Stats    services.EnrichStats `json:"stats" yaml:"stats"`
}

func (a *app) newEnrichCmd() *cobra.Command {
	var (
		out      string
		format   string
		snapshot bool
	)
	cmd := &cobra.Command{
		Use:   "enrich",
		Short: "Precompute audio profiles for the lineup",
		Long: `Enrich resolves every act on Spotify with the app's client credentials,
averages the audio features of its top tracks and writes the profiles back
into the lineup file. Acts that cannot be resolved keep an empty profile.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			logger := logging.Component("enrich")

			acts, err := catalog.NewFileStore(a.cfg.Catalog.Path).Load(ctx)
			if err != nil {
				return fmt.Errorf("cli: load catalog: %w", err)
			}

			token, err := a.authenticator().ClientCredentialsToken(ctx)
			if err != nil {
				return fmt.Errorf("cli: client credentials: %w", err)
			}

			enricher := services.NewEnricher(a.spotifyClient(), a.cfg.Festival.Market, a.cfg.Catalog.EnrichInterval)
			enriched, stats, err := enricher.Enrich(ctx, token.AccessToken, acts)
			if err != nil {
				return err
			}

			dest := out
			if dest == "" {
				dest = a.cfg.Catalog.Path
			}
			if err := catalog.NewFileStore(dest).Save(ctx, enriched); err != nil {
				return fmt.Errorf("cli: save catalog: %w", err)
			}

			if snapshot {
				db, err := a.openSnapshots()
				if err != nil {
					return err
				}
				defer db.Close()
				if err := db.Save(ctx, enriched); err != nil {
					return fmt.Errorf("cli: save snapshot: %w", err)
				}
			}

			logger.Info().
				Str("output", dest).
				Int("enriched", stats.Enriched).
				Int("skipped", stats.Skipped).
				Int("failed", stats.Failed).
				Msg("enrichment finished")

			report := enrichReport{Output: dest, Snapshot: snapshot, Stats: stats}
			if format != formatTable {
				return encode(cmd.OutOrStdout(), format, report)
			}
			return renderTable(cmd.OutOrStdout(), []string{"Enriched", "Skipped", "Failed", "Output"}, [][]string{{
				strconv.Itoa(stats.Enriched),
				strconv.Itoa(stats.Skipped),
				strconv.Itoa(stats.Failed),
				dest,
			}})
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "write the enriched lineup here instead of overwriting --catalog")
	cmd.Flags().BoolVar(&snapshot, "snapshot", false, "also store the result as a snapshot in catalog.sqlite_path")
	cmd.Flags().StringVarP(&format, "output", "o", formatTable, "output format: table, json or yaml")
	return cmd
}
