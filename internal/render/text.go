// Package render presents a view model on a terminal or as an export file.
package render

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"text/tabwriter"
	"unicode/utf8"

	"github.com/rotisserie/eris"

	"github.com/sells-group/postings-dashboard/internal/aggregate"
	"github.com/sells-group/postings-dashboard/internal/model"
)

const (
	barWidth   = 40
	labelWidth = 36
)

// FormatCount prints integral counts without a fractional part.
func FormatCount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Text writes the view as plain-text tables and horizontal bar charts.
func Text(w io.Writer, vm *model.ViewModel) error {
	p := &printer{w: w}

	for _, n := range vm.Notices {
		if n.Source != "" {
			p.printf("! %s (%s)\n", n.Message, n.Source)
		} else {
			p.printf("! %s\n", n.Message)
		}
	}
	if vm.Empty {
		return p.err
	}

	p.printf("\n%s\n%s\n", vm.Selected, strings.Repeat("═", utf8.RuneCountInString(vm.Selected)))

	if len(vm.Companies) > 0 {
		p.printf("\nTop companies\n\n")
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintf(tw, "#\tCompany\t%s\n", model.ColUniquePostings) //nolint:errcheck
		for i, e := range vm.Companies {
			fmt.Fprintf(tw, "%d\t%s\t%s\n", i+1, e.Category, FormatCount(e.Count)) //nolint:errcheck
		}
		p.check(tw.Flush())
		p.chart(vm.CompanyChart)
	}

	if len(vm.Industries) > 0 {
		p.printf("\nIndustries\n\n")
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintf(tw, "#\t%s\n", strings.Join(aggregate.IndustryColumns, "\t")) //nolint:errcheck
		for _, r := range vm.Industries {
			cells := make([]string, len(aggregate.IndustryColumns))
			for i, col := range aggregate.IndustryColumns {
				cells[i] = r.Cells[col]
			}
			mark := ""
			if r.Duplicate {
				mark = "*"
			}
			fmt.Fprintf(tw, "%d%s\t%s\n", r.Rank, mark, strings.Join(cells, "\t")) //nolint:errcheck
		}
		p.check(tw.Flush())
		p.chart(vm.IndustryChart)
	}

	return p.err
}

// Occupations writes one label per line.
func Occupations(w io.Writer, occs []string) error {
	for _, o := range occs {
		if _, err := fmt.Fprintln(w, o); err != nil {
			return eris.Wrap(err, "render: write occupations")
		}
	}
	return nil
}

type printer struct {
	w   io.Writer
	err error
}

func (p *printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

func (p *printer) check(err error) {
	if p.err == nil && err != nil {
		p.err = eris.Wrap(err, "render: flush table")
	}
}

func (p *printer) chart(points []model.ChartPoint) {
	if len(points) == 0 {
		return
	}
	peak := 0.0
	for _, pt := range points {
		peak = math.Max(peak, pt.Value)
	}

	p.printf("\n")
	for _, pt := range points {
		n := 0
		if peak > 0 {
			n = int(math.Round(pt.Value / peak * barWidth))
		}
		p.printf("%s %s %s\n", padRight(truncate(pt.Label, labelWidth), labelWidth), strings.Repeat("█", n), FormatCount(pt.Value))
	}
}

// padRight pads s with spaces to n runes.
func padRight(s string, n int) string {
	if pad := n - utf8.RuneCountInString(s); pad > 0 {
		return s + strings.Repeat(" ", pad)
	}
	return s
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-1]) + "…"
}
