package fetcher

import (
	"archive/zip"
	"bytes"
	"context"
	"io"

	"github.com/rotisserie/eris"

	"github.com/sells-group/postings-dashboard/internal/model"
)

// EnumerateZIP returns every ".csv" file in a ZIP archive held in memory, in
// central-directory order. Directories and empty files are skipped.
func EnumerateZIP(ctx context.Context, data []byte) ([]model.ArchiveEntry, error) {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, model.NewArchiveFormatError(eris.Wrap(err, "zip: open archive"))
	}

	entries := []model.ArchiveEntry{}
	for _, f := range r.File {
		if ctx.Err() != nil {
			return nil, eris.Wrap(ctx.Err(), "zip: context cancelled")
		}
		if f.FileInfo().IsDir() || !isCSVEntry(f.Name) {
			continue
		}

		content, err := readZIPEntry(f)
		if err != nil {
			return nil, model.NewArchiveFormatError(err)
		}
		if len(content) == 0 {
			continue
		}
		entries = append(entries, model.ArchiveEntry{Name: f.Name, Content: content})
	}

	return entries, nil
}

func readZIPEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, eris.Wrapf(err, "zip: open entry %s", f.Name)
	}
	defer rc.Close() //nolint:errcheck

	content, err := io.ReadAll(rc)
	if err != nil {
		return nil, eris.Wrapf(err, "zip: read entry %s", f.Name)
	}
	return content, nil
}
