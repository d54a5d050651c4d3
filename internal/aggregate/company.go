// Package aggregate ranks company postings and projects industry tables for
// one selected occupation.
package aggregate

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/postings-dashboard/internal/model"
)

// parseCount reads a posting count, tolerating thousands separators.
func parseCount(s string) (float64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0, eris.New("empty value")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, eris.Errorf("non-numeric value %q", s)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, eris.Errorf("non-finite value %q", s)
	}
	return v, nil
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// excludeTable logs why t was left out of a view and returns the matching notice.
func excludeTable(log *zap.Logger, t *model.Table, err error) model.Notice {
	kind := model.NoticeDiscrepancy
	if model.IsMissingExpectedColumn(err) {
		kind = model.NoticeMissingColumn
	}
	log.Warn("aggregate: table excluded", zap.String("source", t.Source), zap.String("class", string(t.Class)), zap.Error(err))
	return model.Notice{Kind: kind, Source: t.Source, Message: err.Error()}
}

func matches(t *model.Table, class model.Classification, occupation string) bool {
	return t != nil && t.Class == class && t.Occupation == occupation
}

// Companies concatenates every company table labelled occupation, sums
// Unique Postings per company and sorts descending. Ties keep the order in
// which each company first appeared. Rows with a blank company or an
// unreadable count are excluded and reported; tables without a Unique
// Postings column are excluded entirely.
func Companies(tables []*model.Table, occupation string) (model.Ranking, []model.Notice) {
	log := zap.L().With(zap.String("occupation", occupation))

	ranking := model.Ranking{}
	var notices []model.Notice
	index := make(map[string]int)

	for _, t := range tables {
		if !matches(t, model.ClassCompany, occupation) {
			continue
		}

		if err := RequireColumns(t, model.ColUniquePostings); err != nil {
			notices = append(notices, excludeTable(log, t, err))
			continue
		}
		ci := t.Index(model.ColCompany)
		pi := t.Index(model.ColUniquePostings)

		excluded := 0
		for r, row := range t.Rows {
			name := cell(row, ci)
			if name == "" {
				excluded++
				log.Warn("aggregate: row without company", zap.String("source", t.Source), zap.Int("row", r+2))
				continue
			}
			n, err := parseCount(cell(row, pi))
			if err != nil {
				excluded++
				log.Warn("aggregate: unreadable posting count",
					zap.String("source", t.Source),
					zap.Int("row", r+2),
					zap.String("company", name),
					zap.Error(err),
				)
				continue
			}

			if i, ok := index[name]; ok {
				ranking[i].Count += n
				continue
			}
			index[name] = len(ranking)
			ranking = append(ranking, model.RankingEntry{Category: name, Count: n})
		}

		if excluded > 0 {
			notices = append(notices, model.Notice{
				Kind:    model.NoticeDiscrepancy,
				Source:  t.Source,
				Message: fmt.Sprintf("%d row(s) excluded from the company totals", excluded),
			})
		}
	}

	sort.SliceStable(ranking, func(i, j int) bool {
		return ranking[i].Count > ranking[j].Count
	})
	return ranking, notices
}

// CompanyChart projects the ranking into chart points, keeping the top limit.
func CompanyChart(r model.Ranking, limit int) []model.ChartPoint {
	points := make([]model.ChartPoint, len(r))
	for i, e := range r {
		points[i] = model.ChartPoint{Label: e.Category, Value: e.Count}
	}
	return Top(points, limit)
}
