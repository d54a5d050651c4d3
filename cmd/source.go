package main

import (
	"os"

	"github.com/rotisserie/eris"

	"github.com/sells-group/postings-dashboard/internal/config"
	"github.com/sells-group/postings-dashboard/internal/dashboard"
	"github.com/sells-group/postings-dashboard/internal/fetcher"
	"github.com/sells-group/postings-dashboard/internal/occupation"
)

var errNoSource = eris.New("no archive: pass --archive or set source.archive or source.dir")

// newBuilder creates a dashboard builder from the view settings.
func newBuilder(c *config.Config, rec dashboard.Recorder) (*dashboard.Builder, error) {
	rules, err := occupation.Lookup(c.View.LabelRules)
	if err != nil {
		return nil, err
	}
	return dashboard.New(dashboard.Options{
		Rules:      rules,
		ChartLimit: c.View.ChartLimit,
		Recorder:   rec,
	}), nil
}

// resolveSource picks the archive to read: an explicit path wins over
// source.archive, which wins over source.dir. It returns errNoSource when
// none is set.
func resolveSource(archivePath string, c *config.Config) (fetcher.Source, error) {
	if archivePath == "" {
		archivePath = c.Source.Archive
	}
	if archivePath != "" {
		data, err := os.ReadFile(archivePath)
		if err != nil {
			return nil, eris.Wrapf(err, "read archive %s", archivePath)
		}
		return fetcher.BytesSource{Name: archivePath, Data: data}, nil
	}
	if c.Source.Dir != "" {
		return fetcher.DirSource{Dir: c.Source.Dir}, nil
	}
	return nil, errNoSource
}
