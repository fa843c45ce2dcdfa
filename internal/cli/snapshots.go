package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/dullmace/faux-must-see/internal/adapters/catalog"
)

func (a *app) newSnapshotsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshots",
		Short: "Inspect stored catalog snapshots",
	}
	cmd.AddCommand(a.newSnapshotsListCmd(), a.newSnapshotsExportCmd())
	return cmd
}

func (a *app) newSnapshotsListCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List snapshots, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			db, err := a.openSnapshots()
			if err != nil {
				return err
			}
			defer db.Close()

			snaps, err := db.Snapshots(cmd.Context())
			if err != nil {
				return fmt.Errorf("cli: list snapshots: %w", err)
			}
			if format != formatTable {
				return encode(cmd.OutOrStdout(), format, snaps)
			}

			rows := make([][]string, 0, len(snaps))
			for _, s := range snaps {
				rows = append(rows, []string{
					strconv.FormatInt(s.ID, 10),
					s.Label,
					strconv.Itoa(s.Acts),
					strconv.Itoa(s.Enriched),
					s.CreatedAt.Local().Format(time.DateTime),
				})
			}
			return renderTable(cmd.OutOrStdout(), []string{"ID", "Label", "Acts", "Enriched", "Created"}, rows)
		},
	}
	cmd.Flags().StringVarP(&format, "output", "o", formatTable, "output format: table, json or yaml")
	return cmd
}

func (a *app) newSnapshotsExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export ID FILE",
		Short: "Write a snapshot out as a lineup JSON file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("cli: invalid snapshot id %q", args[0])
			}
			db, err := a.openSnapshots()
			if err != nil {
				return err
			}
			defer db.Close()

			acts, err := db.LoadSnapshot(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("cli: load snapshot %d: %w", id, err)
			}
			if err := catalog.NewFileStore(args[1]).Save(cmd.Context(), acts); err != nil {
				return fmt.Errorf("cli: export snapshot: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported %d acts to %s\n", len(acts), args[1])
			return nil
		},
	}
}
