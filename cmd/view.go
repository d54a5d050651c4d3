package main

import (
	"context"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/postings-dashboard/internal/config"
	"github.com/sells-group/postings-dashboard/internal/render"
)

type viewOptions struct {
	Archive    string
	Occupation string
	Format     string
	Output     string
}

var viewOpts viewOptions

var viewCmd = &cobra.Command{
	Use:   "view",
	Short: "Build the dashboard view for one occupation",
	Long:  "Ranks companies by unique postings and lists the industry table for the selected occupation. Defaults to the first occupation in the archive.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("view"); err != nil {
			return err
		}
		return runView(cmd.Context(), cfg, viewOpts, cmd.OutOrStdout())
	},
}

func init() {
	f := viewCmd.Flags()
	f.StringVar(&viewOpts.Archive, "archive", "", "path to a .tar.gz or .zip of CSV exports")
	f.StringVar(&viewOpts.Occupation, "occupation", "", "occupation label (default: first in the archive)")
	f.StringVar(&viewOpts.Format, "format", "", "output format: text, json, yaml, csv, xlsx (default: from --output extension)")
	f.StringVarP(&viewOpts.Output, "output", "o", "", "write to this file instead of stdout")
	rootCmd.AddCommand(viewCmd)
}

func runView(ctx context.Context, c *config.Config, opts viewOptions, stdout io.Writer) error {
	format := render.FormatText
	switch {
	case opts.Format != "":
		f, err := render.ParseFormat(opts.Format)
		if err != nil {
			return err
		}
		format = f
	case opts.Output != "":
		format = render.FormatFromPath(opts.Output)
	}

	builder, err := newBuilder(c, nil)
	if err != nil {
		return err
	}
	src, err := resolveSource(opts.Archive, c)
	if err != nil {
		return err
	}
	ds, err := builder.LoadSource(ctx, src)
	if err != nil {
		return err
	}
	vm := ds.View(opts.Occupation)

	if format != render.FormatText {
		for _, n := range vm.Notices {
			zap.L().Warn(n.Message, zap.String("kind", string(n.Kind)), zap.String("source", n.Source))
		}
	}

	if err := writeView(opts.Output, stdout, func(w io.Writer) error {
		return render.Write(w, vm, format)
	}); err != nil {
		return err
	}

	zap.L().Info("view written",
		zap.String("request_id", vm.RequestID),
		zap.String("occupation", vm.Selected),
		zap.String("format", string(format)),
		zap.Int("companies", len(vm.Companies)),
		zap.Int("industries", len(vm.Industries)),
	)
	return nil
}

// writeView runs write against stdout, or against a new file at path when
// set. A failed close of the file fails the export.
func writeView(path string, stdout io.Writer, write func(io.Writer) error) (err error) {
	if path == "" {
		return write(stdout)
	}

	file, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "view: create %s", path)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = eris.Wrapf(cerr, "view: close %s", path)
		}
	}()

	return write(file)
}
