package render

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/postings-dashboard/internal/aggregate"
	"github.com/sells-group/postings-dashboard/internal/fetcher"
	"github.com/sells-group/postings-dashboard/internal/model"
)

// Format names an export encoding.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatText, FormatJSON, FormatYAML, FormatCSV, FormatXLSX:
		return f, nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", eris.Errorf("render: unknown format %q", s)
	}
}

// FormatFromPath infers the format from a file extension, defaulting to text.
func FormatFromPath(path string) Format {
	f, err := ParseFormat(strings.TrimPrefix(filepath.Ext(path), "."))
	if err != nil {
		return FormatText
	}
	return f
}

// Write encodes vm in the given format.
func Write(w io.Writer, vm *model.ViewModel, f Format) error {
	switch f {
	case FormatText, "":
		return Text(w, vm)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(vm), "render: encode json")
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(vm); err != nil {
			return eris.Wrap(err, "render: encode yaml")
		}
		return eris.Wrap(enc.Close(), "render: close yaml")
	case FormatCSV:
		return writeCSV(w, vm)
	case FormatXLSX:
		return fetcher.WriteXLSX(w, []fetcher.Sheet{
			{Name: "Companies", Rows: CompanyRows(vm)},
			{Name: "Industries", Rows: IndustryRows(vm)},
		})
	default:
		return eris.Errorf("render: unknown format %q", f)
	}
}

// CompanyRows returns the company ranking with a header row.
func CompanyRows(vm *model.ViewModel) [][]string {
	rows := [][]string{{model.ColCompany, model.ColUniquePostings}}
	for _, e := range vm.Companies {
		rows = append(rows, []string{e.Category, FormatCount(e.Count)})
	}
	return rows
}

// IndustryRows returns the industry projection with a header row.
func IndustryRows(vm *model.ViewModel) [][]string {
	rows := [][]string{append([]string{}, aggregate.IndustryColumns...)}
	for _, r := range vm.Industries {
		row := make([]string, len(aggregate.IndustryColumns))
		for i, col := range aggregate.IndustryColumns {
			row[i] = r.Cells[col]
		}
		rows = append(rows, row)
	}
	return rows
}

// writeCSV writes the company table, then a blank line and the industry
// table when there is one.
func writeCSV(w io.Writer, vm *model.ViewModel) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(CompanyRows(vm)); err != nil {
		return eris.Wrap(err, "render: write companies csv")
	}
	if len(vm.Industries) == 0 {
		return nil
	}
	if _, err := io.WriteString(w, "\n"); err != nil {
		return eris.Wrap(err, "render: write csv separator")
	}
	if err := cw.WriteAll(IndustryRows(vm)); err != nil {
		return eris.Wrap(err, "render: write industries csv")
	}
	return nil
}
