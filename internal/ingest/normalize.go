// Package ingest turns archive entries into normalized, classified tables.
package ingest

import (
	"bytes"
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/postings-dashboard/internal/fetcher"
	"github.com/sells-group/postings-dashboard/internal/model"
	"github.com/sells-group/postings-dashboard/internal/occupation"
)

const uniquePostingsPrefix = "unique postings"

// Normalizer parses entries and labels them with an occupation rule set.
type Normalizer struct {
	rules occupation.RuleSet
}

// NewNormalizer creates a Normalizer using the given label rules.
func NewNormalizer(rules occupation.RuleSet) *Normalizer {
	return &Normalizer{rules: rules}
}

// Rules returns the label rule set in use.
func (n *Normalizer) Rules() occupation.RuleSet {
	return n.rules
}

// Parse reads one entry into a Table. A blank body returns model.ErrEmptyEntry;
// any other failure is a *model.RecordParseError for that entry alone.
func (n *Normalizer) Parse(ctx context.Context, entry model.ArchiveEntry) (*model.Table, error) {
	if len(bytes.TrimSpace(entry.Content)) == 0 {
		return nil, model.ErrEmptyEntry
	}

	header, rows, err := fetcher.ReadCSV(ctx, bytes.NewReader(entry.Content), fetcher.CSVOptions{DecodeBOM: true})
	if err != nil {
		return nil, &model.RecordParseError{Entry: entry.Name, Err: err}
	}
	if len(header) == 0 {
		return nil, &model.RecordParseError{Entry: entry.Name, Err: eris.New("ingest: no header row")}
	}

	for i, row := range rows {
		switch {
		case len(row) > len(header):
			return nil, &model.RecordParseError{
				Entry: entry.Name,
				Err:   eris.Errorf("ingest: row %d has %d fields, header has %d", i+2, len(row), len(header)),
			}
		case len(row) < len(header):
			padded := make([]string, len(header))
			copy(padded, row)
			rows[i] = padded
		}
	}

	columns := NormalizeColumns(header)
	return &model.Table{
		Source:     entry.Name,
		Occupation: n.rules.Label(entry.Name),
		Columns:    columns,
		Rows:       rows,
		Class:      Classify(columns),
	}, nil
}

// Usable reports why a parsed table cannot be offered for selection:
// model.ErrUnclassified when it has no category column, model.ErrNoLabel when
// its file name yields an empty occupation label.
func Usable(t *model.Table) error {
	switch {
	case t.Class == model.ClassUnclassified:
		return eris.Wrapf(model.ErrUnclassified, "ingest: %s", t.Source)
	case t.Occupation == "":
		return eris.Wrapf(model.ErrNoLabel, "ingest: %s", t.Source)
	}
	return nil
}

// NormalizeColumns trims every column name and renames the first
// "Unique Postings..." variant to the canonical model.ColUniquePostings.
// Later variants keep their trimmed names so no two columns collide.
func NormalizeColumns(header []string) []string {
	cols := make([]string, len(header))
	renamed := false
	for i, h := range header {
		col := strings.TrimSpace(h)
		if !renamed && strings.HasPrefix(strings.ToLower(col), uniquePostingsPrefix) {
			col = model.ColUniquePostings
			renamed = true
		}
		cols[i] = col
	}
	return cols
}

// Classify tags a column set. A company column wins over industry/NAICS.
func Classify(columns []string) model.Classification {
	var industry bool
	for _, col := range columns {
		switch strings.ToLower(strings.TrimSpace(col)) {
		case "company":
			return model.ClassCompany
		case "industry", "naics":
			industry = true
		}
	}
	if industry {
		return model.ClassIndustry
	}
	return model.ClassUnclassified
}
