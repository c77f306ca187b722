package core

import (
	"errors"
	"testing"
)

func TestUniqueValuesFirstOccurrence(t *testing.T) {
	records := []SpendingRecord{{Department: "A"}, {Department: "B"}, {Department: "A"}}
	got := Departments(records)
	if len(got) != 2 || got[0] != "A" || got[1] != "B" {
		t.Fatalf("unexpected departments: %v", got)
	}

	years := Years(FallbackRecords())
	if len(years) != 2 || years[0] != 2022 || years[1] != 2023 {
		t.Fatalf("unexpected years: %v", years)
	}
}

func TestFilter(t *testing.T) {
	data := FallbackRecords()

	all := Filter(data, FilterSelection{})
	if len(all) != len(data) {
		t.Fatalf("empty selection should return every record, got %d", len(all))
	}
	for i := range data {
		if all[i] != data[i] {
			t.Fatalf("record %d changed: %+v", i, all[i])
		}
	}

	y2022 := Filter(data, FilterSelection{Year: "2022"})
	if len(y2022) != 4 {
		t.Fatalf("expected 4 records for 2022, got %d", len(y2022))
	}
	for _, r := range y2022 {
		if r.Year != 2022 {
			t.Fatalf("unexpected record %+v", r)
		}
	}

	both := Filter(data, FilterSelection{Year: "2023", Department: "Defense"})
	if len(both) != 1 || both[0].Amount != 780 {
		t.Fatalf("unexpected result for 2023/Defense: %+v", both)
	}

	if got := Filter(data, FilterSelection{Department: "Agriculture"}); len(got) != 0 {
		t.Fatalf("expected no records, got %+v", got)
	}
}

func byDepartment(totals Totals) map[string]float64 {
	m := make(map[string]float64, len(totals))
	for _, dt := range totals {
		m[dt.Department] = dt.Amount
	}
	return m
}

func TestDepartmentTotals2023(t *testing.T) {
	totals, err := CalculateDepartmentTotals(Filter(FallbackRecords(), FilterSelection{Year: "2023"}))
	if err != nil {
		t.Fatalf("totals: %v", err)
	}
	want := map[string]float64{"Defense": 780, "Education": 160, "Healthcare": 210, "Transportation": 110}

	got := byDepartment(totals)
	if len(got) != len(want) {
		t.Fatalf("unexpected totals: %v", got)
	}
	for dept, amount := range want {
		if got[dept] != amount {
			t.Fatalf("%s: got %v, want %v", dept, got[dept], amount)
		}
	}

	order := []string{"Defense", "Education", "Healthcare", "Transportation"}
	for i, dept := range order {
		if totals[i].Department != dept {
			t.Fatalf("position %d: got %s, want %s", i, totals[i].Department, dept)
		}
	}
}

func TestDepartmentTotalsDecimalSum(t *testing.T) {
	totals, err := CalculateDepartmentTotals([]SpendingRecord{
		{Department: "A", Year: 2022, Amount: 0.1},
		{Department: "A", Year: 2023, Amount: 0.2},
	})
	if err != nil {
		t.Fatalf("totals: %v", err)
	}
	m := byDepartment(totals)
	if v, ok := m["A"]; !ok || v != 0.3 {
		t.Fatalf("expected 0.3, got %v (ok=%v)", v, ok)
	}
	if _, ok := m["B"]; ok {
		t.Fatalf("absent department must not be zero-filled")
	}
}

func TestTimeSeriesSortedByYear(t *testing.T) {
	shuffled := []SpendingRecord{
		{Department: "Defense", Year: 2023, Amount: 780},
		{Department: "Education", Year: 2022, Amount: 150},
		{Department: "Defense", Year: 2022, Amount: 750},
	}
	for _, data := range [][]SpendingRecord{FallbackRecords(), shuffled} {
		series := BuildTimeSeries(data, []string{"Defense"})
		if len(series) != 1 || series[0].Department != "Defense" {
			t.Fatalf("unexpected series: %+v", series)
		}
		want := []SeriesPoint{{Year: "2022", Amount: 750}, {Year: "2023", Amount: 780}}
		got := series[0].Data
		if len(got) != len(want) {
			t.Fatalf("unexpected points: %+v", got)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("point %d: got %+v, want %+v", i, got[i], want[i])
			}
		}
	}

	if shuffled[0].Year != 2023 {
		t.Fatalf("input slice was reordered")
	}
}

func TestTimeSeriesUnknownDepartment(t *testing.T) {
	series := BuildTimeSeries(FallbackRecords(), []string{"Agriculture"})
	if len(series) != 1 || series[0].Data == nil || len(series[0].Data) != 0 {
		t.Fatalf("expected one empty series, got %+v", series)
	}
}

func TestEmptyInputs(t *testing.T) {
	if got := Years(nil); len(got) != 0 {
		t.Fatalf("years: %v", got)
	}
	if got := Filter(nil, FilterSelection{Year: "2022"}); len(got) != 0 {
		t.Fatalf("filter: %v", got)
	}
	if got, err := CalculateDepartmentTotals(nil); err != nil || len(got) != 0 {
		t.Fatalf("totals: %v %v", got, err)
	}
	if got := PieChartSeries(nil); len(got) != 0 {
		t.Fatalf("pie: %v", got)
	}
	if got := BuildTimeSeries(nil, nil); len(got) != 0 {
		t.Fatalf("series: %v", got)
	}
}

func TestTotalsOverflow(t *testing.T) {
	huge := []SpendingRecord{
		{Department: "A", Year: 2022, Amount: 1e308},
		{Department: "A", Year: 2023, Amount: 1e308},
	}
	if _, err := CalculateDepartmentTotals(huge); !errors.Is(err, ErrTotalOverflow) {
		t.Fatalf("expected ErrTotalOverflow, got %v", err)
	}

	// Each department fits, their sum does not.
	pie := []PieSlice{{Label: "A", Value: 1e308}, {Label: "B", Value: 1e308}}
	if _, err := PieTotal(pie); !errors.Is(err, ErrTotalOverflow) {
		t.Fatalf("expected ErrTotalOverflow from PieTotal, got %v", err)
	}
	if total, err := PieTotal([]PieSlice{{Value: 1e308}, {Value: -1e308}}); err != nil || total != 0 {
		t.Fatalf("cancelling values: total=%v err=%v", total, err)
	}
}
