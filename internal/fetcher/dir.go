package fetcher

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/postings-dashboard/internal/model"
)

// DirSource synthesizes an archive from loose exports in a local directory.
// "*.csv" files are taken as-is; "*.xlsx" files contribute their first sheet
// as "<base>.csv".
type DirSource struct {
	Dir string
}

// Describe returns the directory path.
func (s DirSource) Describe() string {
	return s.Dir
}

// Entries reads the directory's exports sorted by file name.
func (s DirSource) Entries(ctx context.Context) ([]model.ArchiveEntry, error) {
	if s.Dir == "" {
		return nil, eris.New("dir: no directory configured")
	}

	dirEntries, err := os.ReadDir(s.Dir)
	if err != nil {
		return nil, eris.Wrapf(err, "dir: read %s", s.Dir)
	}

	var names []string
	for _, de := range dirEntries {
		if de.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(de.Name()))
		if ext == ".csv" || ext == ".xlsx" {
			names = append(names, de.Name())
		}
	}
	sort.Strings(names)

	entries := []model.ArchiveEntry{}
	for _, name := range names {
		if ctx.Err() != nil {
			return nil, eris.Wrap(ctx.Err(), "dir: context cancelled")
		}

		p := filepath.Join(s.Dir, name)
		var content []byte
		if strings.EqualFold(filepath.Ext(name), ".xlsx") {
			content, err = XLSXToCSV(p, XLSXOptions{})
			if err != nil {
				zap.L().Warn("dir: skipping unreadable xlsx", zap.String("file", p), zap.Error(err))
				continue
			}
			name = strings.TrimSuffix(name, filepath.Ext(name)) + ".csv"
		} else {
			content, err = os.ReadFile(p)
			if err != nil {
				return nil, eris.Wrapf(err, "dir: read %s", p)
			}
			// Keep the archive's literal ".csv" suffix rule.
			name = strings.TrimSuffix(name, filepath.Ext(name)) + ".csv"
		}
		if len(content) == 0 {
			continue
		}
		entries = append(entries, model.ArchiveEntry{Name: name, Content: content})
	}

	return entries, nil
}

// Archive packs the directory's exports into a gzip-compressed tar archive.
func (s DirSource) Archive(ctx context.Context) ([]byte, error) {
	entries, err := s.Entries(ctx)
	if err != nil {
		return nil, err
	}
	return BuildTarGz(entries)
}
