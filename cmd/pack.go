package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/postings-dashboard/internal/fetcher"
)

var (
	packDir    string
	packOutput string
)

var packCmd = &cobra.Command{
	Use:   "pack",
	Short: "Bundle a directory of CSV/XLSX exports into a .tar.gz archive",
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := packDir
		if dir == "" {
			dir = cfg.Source.Dir
		}
		return runPack(cmd, dir, packOutput)
	},
}

func init() {
	packCmd.Flags().StringVar(&packDir, "dir", "", "directory of exports (default from source.dir)")
	packCmd.Flags().StringVarP(&packOutput, "output", "o", "exports.tar.gz", "archive to write")
	rootCmd.AddCommand(packCmd)
}

func runPack(cmd *cobra.Command, dir, output string) error {
	if dir == "" {
		return eris.New("pack: --dir or source.dir is required")
	}

	src := fetcher.DirSource{Dir: dir}
	data, err := src.Archive(cmd.Context())
	if err != nil {
		return err
	}
	if err := os.WriteFile(output, data, 0o644); err != nil {
		return eris.Wrapf(err, "pack: write %s", output)
	}

	zap.L().Info("archive written", zap.String("dir", dir), zap.String("output", output), zap.Int("bytes", len(data)))
	return nil
}
