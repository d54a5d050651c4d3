package fetcher

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"io"
	"path"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/postings-dashboard/internal/model"
)

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zipMagic  = []byte("PK\x03\x04")
)

// ArchiveKind identifies the container format of an upload.
type ArchiveKind string

const (
	KindTarGz   ArchiveKind = "tar.gz"
	KindZIP     ArchiveKind = "zip"
	KindUnknown ArchiveKind = "unknown"
)

// Sniff detects the archive format from its leading bytes.
func Sniff(data []byte) ArchiveKind {
	switch {
	case bytes.HasPrefix(data, gzipMagic):
		return KindTarGz
	case bytes.HasPrefix(data, zipMagic):
		return KindZIP
	default:
		return KindUnknown
	}
}

// isCSVEntry matches member names the way the exports are named: a literal
// ".csv" suffix on the full path.
func isCSVEntry(name string) bool {
	return strings.HasSuffix(name, ".csv")
}

// Enumerate dispatches on the sniffed format and returns every CSV entry in
// archive order. Any open or read failure is an *model.ArchiveFormatError.
func Enumerate(ctx context.Context, data []byte) ([]model.ArchiveEntry, error) {
	switch Sniff(data) {
	case KindTarGz:
		return EnumerateTarGz(ctx, bytes.NewReader(data))
	case KindZIP:
		return EnumerateZIP(ctx, data)
	default:
		return nil, model.NewArchiveFormatError(eris.New("archive: not a gzip or zip archive"))
	}
}

// WalkTarGz calls fn for each regular ".csv" member of a gzip-compressed tar
// stream, in archive order. Zero-length members are skipped. Errors returned
// by fn stop the walk and are returned unchanged.
func WalkTarGz(ctx context.Context, r io.Reader, fn func(model.ArchiveEntry) error) error {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return model.NewArchiveFormatError(eris.Wrap(err, "archive: open gzip"))
	}
	defer gz.Close() //nolint:errcheck

	tr := tar.NewReader(gz)
	for {
		if ctx.Err() != nil {
			return eris.Wrap(ctx.Err(), "archive: context cancelled")
		}

		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return model.NewArchiveFormatError(eris.Wrap(err, "archive: read tar header"))
		}

		if !hdr.FileInfo().Mode().IsRegular() || !isCSVEntry(hdr.Name) {
			continue
		}

		content, err := io.ReadAll(tr)
		if err != nil {
			return model.NewArchiveFormatError(eris.Wrapf(err, "archive: read member %s", hdr.Name))
		}
		if len(content) == 0 {
			continue
		}

		if err := fn(model.ArchiveEntry{Name: hdr.Name, Content: content}); err != nil {
			return err
		}
	}
}

// EnumerateTarGz collects every CSV member of a gzip-compressed tar stream.
// An archive with no CSV members yields an empty slice and no error.
func EnumerateTarGz(ctx context.Context, r io.Reader) ([]model.ArchiveEntry, error) {
	entries := []model.ArchiveEntry{}
	err := WalkTarGz(ctx, r, func(e model.ArchiveEntry) error {
		entries = append(entries, e)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// BuildTarGz writes entries into an in-memory gzip-compressed tar archive,
// preserving their order. Entry names are reduced to their base name.
func BuildTarGz(entries []model.ArchiveEntry) ([]byte, error) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)

	now := time.Now().UTC()
	for _, e := range entries {
		hdr := &tar.Header{
			Name:     path.Base(e.Name),
			Mode:     0o644,
			Size:     int64(len(e.Content)),
			ModTime:  now,
			Typeflag: tar.TypeReg,
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return nil, eris.Wrapf(err, "archive: write header %s", e.Name)
		}
		if _, err := tw.Write(e.Content); err != nil {
			return nil, eris.Wrapf(err, "archive: write member %s", e.Name)
		}
	}

	if err := tw.Close(); err != nil {
		return nil, eris.Wrap(err, "archive: close tar")
	}
	if err := gz.Close(); err != nil {
		return nil, eris.Wrap(err, "archive: close gzip")
	}
	return buf.Bytes(), nil
}
