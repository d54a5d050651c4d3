// Package model holds the request-scoped types shared by the pipeline stages.
package model

import "strings"

// Classification tags a parsed table by the category column it carries.
type Classification string

const (
	ClassCompany      Classification = "company"
	ClassIndustry     Classification = "industry"
	ClassUnclassified Classification = "unclassified"
)

// Canonical column names shared by the normalizer and the aggregator.
const (
	ColCompany        = "Company"
	ColIndustry       = "Industry"
	ColNAICS          = "NAICS"
	ColUniquePostings = "Unique Postings"
)

// ArchiveEntry is one CSV member read from an uploaded archive.
type ArchiveEntry struct {
	Name    string
	Content []byte
}

// Table is the record set parsed from one archive entry.
type Table struct {
	Source     string         `json:"source"`
	Occupation string         `json:"occupation"`
	Columns    []string       `json:"columns"`
	Rows       [][]string     `json:"rows"`
	Class      Classification `json:"class"`
}

// Index returns the position of the column matching name case-insensitively
// after trimming, or -1.
func (t *Table) Index(name string) int {
	want := strings.ToLower(strings.TrimSpace(name))
	for i, col := range t.Columns {
		if strings.ToLower(strings.TrimSpace(col)) == want {
			return i
		}
	}
	return -1
}

// HasColumn reports whether the table carries the named column.
func (t *Table) HasColumn(name string) bool {
	return t.Index(name) >= 0
}

// Value safely retrieves a trimmed cell by column name.
func (t *Table) Value(row []string, col string) string {
	idx := t.Index(col)
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
