package http

import (
	"fmt"
	"math"
	"strconv"

	"github.com/shopspring/decimal"

	"govspend/internal/core"
)

const (
	pieCenter = 100.0
	pieRadius = 90.0
)

var palette = []string{
	"#4e79a7", "#f28e2b", "#e15759", "#76b7b2",
	"#59a14f", "#edc948", "#b07aa1", "#ff9da7",
}

type option struct {
	Value    string
	Selected bool
}

type sliceView struct {
	Label   string
	Amount  string
	Percent string
	Color   string
	// Path is the SVG arc; empty for non-positive values.
	Path string
	// Full marks a slice covering the whole pie, drawn as a circle.
	Full  bool
	Width int
}

type pointView struct {
	Year   string
	Amount string
}

type seriesView struct {
	Department string
	Points     []pointView
}

type pageData struct {
	Years       []option
	Departments []option
	Year        string
	Department  string
	Slices      []sliceView
	Total       string
	Series      []seriesView
	Fallback    bool
	Empty       bool
}

func newPageData(v core.DashboardView) pageData {
	data := pageData{
		Year:       v.Selection.Year,
		Department: v.Selection.Department,
		Slices:     pieSlices(v.Pie, v.PieTotal),
		Total:      formatAmount(v.PieTotal),
		Fallback:   v.UsedFallback,
		Empty:      len(v.Pie) == 0,
	}
	for _, y := range v.Years {
		s := strconv.Itoa(y)
		data.Years = append(data.Years, option{Value: s, Selected: s == v.Selection.Year})
	}
	for _, d := range v.Departments {
		data.Departments = append(data.Departments, option{Value: d, Selected: d == v.Selection.Department})
	}
	for _, ts := range v.Series {
		sv := seriesView{Department: ts.Department}
		for _, p := range ts.Data {
			sv.Points = append(sv.Points, pointView{Year: p.Year, Amount: formatAmount(p.Amount)})
		}
		data.Series = append(data.Series, sv)
	}
	return data
}

// pieSlices lays the slices clockwise from twelve o'clock and sizes the
// legend bars relative to the largest value. Percentages are shares of total;
// arcs are shares of the positive values only, since a pie cannot draw a
// negative slice.
func pieSlices(pie []core.PieSlice, total float64) []sliceView {
	maxValue, positive := 0.0, 0.0
	for _, p := range pie {
		if p.Value > 0 {
			maxValue = math.Max(maxValue, p.Value)
			positive += p.Value
		}
	}

	out := make([]sliceView, 0, len(pie))
	angle := -math.Pi / 2
	for i, p := range pie {
		sv := sliceView{
			Label:  p.Label,
			Amount: formatAmount(p.Value),
			Color:  palette[i%len(palette)],
		}
		share := 0.0
		if total > 0 && p.Value > 0 {
			share = p.Value / total
		}
		sv.Percent = fmt.Sprintf("%.1f%%", share*100)

		frac := 0.0
		if positive > 0 && p.Value > 0 {
			frac = math.Min(p.Value/positive, 1)
		}
		sweep := frac * 2 * math.Pi
		switch {
		case frac >= 0.9999:
			sv.Full = true
		case frac > 0:
			sv.Path = arcPath(angle, angle+sweep)
		}
		angle += sweep

		if maxValue > 0 && p.Value > 0 {
			sv.Width = int(math.Round(p.Value / maxValue * 100))
			if sv.Width < 2 {
				sv.Width = 2
			}
		}
		out = append(out, sv)
	}
	return out
}

func arcPath(from, to float64) string {
	x1, y1 := pieCenter+pieRadius*math.Cos(from), pieCenter+pieRadius*math.Sin(from)
	x2, y2 := pieCenter+pieRadius*math.Cos(to), pieCenter+pieRadius*math.Sin(to)
	large := 0
	if to-from > math.Pi {
		large = 1
	}
	return fmt.Sprintf("M %.2f %.2f L %.2f %.2f A %.2f %.2f 0 %d 1 %.2f %.2f Z",
		pieCenter, pieCenter, x1, y1, pieRadius, pieRadius, large, x2, y2)
}

// formatAmount renders at most two decimals, without trailing zeros.
func formatAmount(v float64) string {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
	return decimal.NewFromFloat(v).Round(2).String()
}
