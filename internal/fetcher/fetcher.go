package fetcher

import (
	"context"
)

// Source produces the bytes of a gzip-compressed tar archive of CSV exports.
type Source interface {
	// Archive returns the full archive contents.
	Archive(ctx context.Context) ([]byte, error)

	// Describe names the source for logs.
	Describe() string
}

// BytesSource serves an archive already held in memory, e.g. an upload.
type BytesSource struct {
	Name string
	Data []byte
}

// Archive returns the wrapped bytes.
func (s BytesSource) Archive(_ context.Context) ([]byte, error) {
	return s.Data, nil
}

// Describe returns the upload name.
func (s BytesSource) Describe() string {
	if s.Name == "" {
		return "upload"
	}
	return s.Name
}
