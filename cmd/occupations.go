package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sells-group/postings-dashboard/internal/dashboard"
	"github.com/sells-group/postings-dashboard/internal/render"
)

var occupationsArchive string

var occupationsCmd = &cobra.Command{
	Use:   "occupations",
	Short: "List the occupations found in an archive",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("view"); err != nil {
			return err
		}

		builder, err := newBuilder(cfg, nil)
		if err != nil {
			return err
		}
		src, err := resolveSource(occupationsArchive, cfg)
		if err != nil {
			return err
		}

		ds, err := builder.LoadSource(cmd.Context(), src)
		if err != nil {
			return err
		}
		if ds.Entries == 0 {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), dashboard.NoCSVsMessage)
			return err
		}
		return render.Occupations(cmd.OutOrStdout(), ds.Occupations())
	},
}

func init() {
	occupationsCmd.Flags().StringVar(&occupationsArchive, "archive", "", "path to a .tar.gz or .zip of CSV exports")
	rootCmd.AddCommand(occupationsCmd)
}
