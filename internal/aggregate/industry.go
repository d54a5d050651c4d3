package aggregate

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/postings-dashboard/internal/model"
)

// JobsBaseColumn is the column that drives the industry chart.
const JobsBaseColumn = "Occupation Jobs in Industry (2024)"

// IndustryColumns is the fixed column contract of the industry view, in
// display order.
var IndustryColumns = []string{
	model.ColNAICS,
	model.ColIndustry,
	JobsBaseColumn,
	"Occupation Jobs in Industry (2029)",
	"Change (2024 - 2029)",
	"% Change (2024 - 2029)",
	"% of Occupation in Industry (2024)",
	"% of Total Jobs in Industry (2024)",
}

// RequireColumns returns a *model.MissingExpectedColumnError naming every
// column in cols that t does not carry, or nil.
func RequireColumns(t *model.Table, cols ...string) error {
	var missing []string
	for _, col := range cols {
		if !t.HasColumn(col) {
			missing = append(missing, col)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return &model.MissingExpectedColumnError{Entry: t.Source, Columns: missing}
}

// Industries concatenates every industry table labelled occupation and
// projects it onto IndustryColumns in source order, without re-aggregating.
// Tables missing a contract column are excluded with a notice. Industries
// appearing more than once are flagged, since exports are expected to carry
// one row per industry.
func Industries(tables []*model.Table, occupation string) ([]model.IndustryRow, []model.Notice) {
	log := zap.L().With(zap.String("occupation", occupation))

	rows := []model.IndustryRow{}
	var notices []model.Notice
	firstSeen := make(map[string]int)
	flagged := make(map[string]bool)

	for _, t := range tables {
		if !matches(t, model.ClassIndustry, occupation) {
			continue
		}

		if err := RequireColumns(t, IndustryColumns...); err != nil {
			notices = append(notices, excludeTable(log, t, err))
			continue
		}

		for r, row := range t.Rows {
			cells := make(map[string]string, len(IndustryColumns))
			for _, col := range IndustryColumns {
				cells[col] = t.Value(row, col)
			}

			jobs, err := parseCount(cells[JobsBaseColumn])
			if err != nil {
				log.Debug("aggregate: industry row without job count",
					zap.String("source", t.Source),
					zap.Int("row", r+2),
					zap.Error(err),
				)
			}

			ir := model.IndustryRow{
				Rank:     len(rows) + 1,
				NAICS:    cells[model.ColNAICS],
				Industry: cells[model.ColIndustry],
				Cells:    cells,
				Jobs:     jobs,
			}

			key := industryKey(ir)
			if first, ok := firstSeen[key]; ok {
				ir.Duplicate = true
				rows[first].Duplicate = true
				if !flagged[key] {
					flagged[key] = true
					log.Warn("aggregate: duplicate industry rows", zap.String("industry", ir.Industry), zap.String("naics", ir.NAICS))
					notices = append(notices, model.Notice{
						Kind:    model.NoticeDuplicate,
						Source:  t.Source,
						Message: fmt.Sprintf("industry %q appears more than once for %s", displayIndustry(ir), occupation),
					})
				}
			} else {
				firstSeen[key] = len(rows)
			}
			rows = append(rows, ir)
		}
	}

	return rows, notices
}

func industryKey(r model.IndustryRow) string {
	if r.Industry != "" {
		return "i:" + strings.ToLower(r.Industry)
	}
	return "n:" + r.NAICS
}

func displayIndustry(r model.IndustryRow) string {
	if r.Industry != "" {
		return r.Industry
	}
	return r.NAICS
}

// IndustryChart projects industry rows into chart points by base-year jobs.
func IndustryChart(rows []model.IndustryRow, limit int) []model.ChartPoint {
	points := make([]model.ChartPoint, len(rows))
	for i, r := range rows {
		points[i] = model.ChartPoint{Label: displayIndustry(r), Value: r.Jobs}
	}
	return Top(points, limit)
}
