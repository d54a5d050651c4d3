package aggregate

import (
	"sort"

	"github.com/sells-group/postings-dashboard/internal/model"
)

// DefaultChartLimit caps chart mappings when no limit is configured.
const DefaultChartLimit = 20

// Top returns the limit highest-valued points, descending, ties in input
// order. The input slice is not modified. A non-positive limit uses
// DefaultChartLimit.
func Top(points []model.ChartPoint, limit int) []model.ChartPoint {
	if limit <= 0 {
		limit = DefaultChartLimit
	}
	out := make([]model.ChartPoint, len(points))
	copy(out, points)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Value > out[j].Value
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
