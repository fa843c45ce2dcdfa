package cli

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/dullmace/faux-must-see/internal/core/domain"
	"github.com/dullmace/faux-must-see/internal/core/scoring"
	"github.com/dullmace/faux-must-see/internal/core/services"
)

var errMissingToken = errors.New("cli: a user access token is required (--token or MUSTSEE_TOKEN)")

type rankedRow struct {
	Rank         int     `json:"rank" yaml:"rank"`
	Act          string  `json:"act" yaml:"act"`
	Location     string  `json:"location,omitempty" yaml:"location,omitempty"`
	Score        float64 `json:"score" yaml:"score"`
	MatchPercent int     `json:"matchPercent" yaml:"match_percent"`
	Why          string  `json:"why" yaml:"why"`
}

type rankingReport struct {
	TimeRange     domain.TimeRange `json:"timeRange" yaml:"time_range"`
	TopGenres     []string         `json:"topGenres" yaml:"top_genres"`
	NoMatch       bool             `json:"noMatch" yaml:"no_match"`
	TopMatch      *rankedRow       `json:"topMatch,omitempty" yaml:"top_match,omitempty"`
	DiscoveryPick *rankedRow       `json:"discoveryPick,omitempty" yaml:"discovery_pick,omitempty"`
	Matches       []rankedRow      `json:"matches" yaml:"matches"`
}

func (a *app) newRankCmd() *cobra.Command {
	var (
		timeRange string
		format    string
		limit     int
	)
	cmd := &cobra.Command{
		Use:   "rank",
		Short: "Rank the lineup for one listener",
		Long: `Rank scores every act of the lineup against the listener identified by
a Spotify user access token (--token or MUSTSEE_TOKEN).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			tr, err := domain.ParseTimeRange(timeRange)
			if err != nil {
				return fmt.Errorf("cli: %w", err)
			}
			token := a.v.GetString("token")
			if token == "" {
				return errMissingToken
			}

			acts, err := a.loadCatalog(cmd.Context())
			if err != nil {
				return err
			}
			ranker := services.NewRanker(a.spotifyClient(), acts, scoring.NewScorer(a.cfg.Festival.Name))
			result, err := ranker.Rank(cmd.Context(), token, tr)
			if err != nil {
				return err
			}
			return writeRanking(cmd.OutOrStdout(), format, buildReport(result, limit))
		},
	}
	cmd.Flags().String("token", "", "Spotify user access token")
	a.bind(cmd.Flags(), "token", "token")
	cmd.Flags().StringVarP(&timeRange, "time-range", "t", string(domain.MediumTerm), "short_term, medium_term or long_term")
	cmd.Flags().StringVarP(&format, "output", "o", formatTable, "output format: table, json or yaml")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "show only the first n acts (0 shows all)")
	return cmd
}

func buildReport(result domain.RankedResult, limit int) rankingReport {
	report := rankingReport{
		TimeRange: result.TimeRange,
		TopGenres: result.UserTopGenres,
		NoMatch:   result.NoMatch(),
	}
	matches := result.Matches
	if limit > 0 && limit < len(matches) {
		matches = matches[:limit]
	}
	report.Matches = make([]rankedRow, 0, len(matches))
	for i, m := range matches {
		report.Matches = append(report.Matches, toRow(i+1, m))
	}
	if top, ok := result.Top(); ok {
		row := toRow(1, top)
		report.TopMatch = &row
	}
	if pick, ok := result.DiscoveryPick(); ok {
		for i, m := range result.Matches {
			if m.Name == pick.Name {
				row := toRow(i+1, pick)
				report.DiscoveryPick = &row
				break
			}
		}
	}
	return report
}

func toRow(rank int, m domain.ScoredCandidate) rankedRow {
	return rankedRow{
		Rank:         rank,
		Act:          m.Name,
		Location:     m.Location,
		Score:        m.Score,
		MatchPercent: m.MatchPercent(),
		Why:          m.Explanation,
	}
}

func writeRanking(w io.Writer, format string, report rankingReport) error {
	if format != formatTable {
		return encode(w, format, report)
	}

	fmt.Fprintf(w, "Time range: %s\n", report.TimeRange.Label())
	fmt.Fprintf(w, "Your top genres: %s\n", joinOrDash(report.TopGenres))
	if report.NoMatch {
		fmt.Fprintln(w, "No act on the lineup matches your listening yet.")
	}

	rows := make([][]string, 0, len(report.Matches))
	for _, m := range report.Matches {
		rows = append(rows, []string{
			strconv.Itoa(m.Rank),
			m.Act,
			strconv.Itoa(m.MatchPercent) + "%",
			formatScore(m.Score),
			m.Why,
		})
	}
	return renderTable(w, []string{"#", "Act", "Match", "Score", "Why"}, rows)
}
