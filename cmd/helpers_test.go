package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sells-group/postings-dashboard/internal/config"
	"github.com/sells-group/postings-dashboard/internal/fetcher"
	"github.com/sells-group/postings-dashboard/internal/model"
)

const (
	cashiersCompany = "Job_Postings_Table_Cashiers_Company_in_Los_Angeles_County_CA.csv"
	bakersCompany   = "Job_Postings_Table_Bakers_Company_in_Los_Angeles_County_CA.csv"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Port:        8080,
			MaxUploadMB: 1,
			RateLimit:   100,
			RateBurst:   100,
			CORSOrigins: []string{"*"},
		},
		View: config.ViewConfig{ChartLimit: 20},
		Log:  config.LogConfig{Level: "info", Format: "json"},
	}
}

// writeArchive writes a small two-occupation archive and returns its path.
func writeArchive(t *testing.T) string {
	t.Helper()
	data, err := fetcher.BuildTarGz([]model.ArchiveEntry{
		{Name: cashiersCompany, Content: []byte("Company,Unique Postings\nRalphs,12\nVons,20\nRalphs,10\n")},
		{Name: bakersCompany, Content: []byte("Company,Unique Postings\nAcme,1\n")},
	})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "exports.tar.gz")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}
