package core

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"

	"github.com/shopspring/decimal"
)

// ErrTotalOverflow means a sum of finite amounts does not fit in a float64.
var ErrTotalOverflow = errors.New("total exceeds the float64 range")

type (
	// DepartmentTotal is the summed amount of one department.
	DepartmentTotal struct {
		Department string  `json:"department"`
		Amount     float64 `json:"amount"`
	}

	// Totals holds department totals in first-occurrence order.
	Totals []DepartmentTotal

	// PieSlice is one entry of the share chart.
	PieSlice struct {
		Label string  `json:"label"`
		Value float64 `json:"value"`
	}

	// SeriesPoint is one year of a department's history.
	SeriesPoint struct {
		Year   string  `json:"year"`
		Amount float64 `json:"amount"`
	}

	// TimeSeries is a department's amounts ordered by ascending year.
	TimeSeries struct {
		Department string        `json:"department"`
		Data       []SeriesPoint `json:"data"`
	}
)

// UniqueValues returns the distinct values of field, in first-occurrence order.
func UniqueValues[T comparable](records []SpendingRecord, field func(SpendingRecord) T) []T {
	seen := make(map[T]struct{}, len(records))
	out := make([]T, 0)
	for _, r := range records {
		v := field(r)
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// Years lists the distinct record years in first-occurrence order.
func Years(records []SpendingRecord) []int {
	return UniqueValues(records, func(r SpendingRecord) int { return r.Year })
}

// Departments lists the distinct departments in first-occurrence order.
func Departments(records []SpendingRecord) []string {
	return UniqueValues(records, func(r SpendingRecord) string { return r.Department })
}

// Filter returns the records matching sel. The input is never modified.
func Filter(records []SpendingRecord, sel FilterSelection) []SpendingRecord {
	out := make([]SpendingRecord, 0, len(records))
	for _, r := range records {
		if sel.Matches(r) {
			out = append(out, r)
		}
	}
	return out
}

// CalculateDepartmentTotals sums amounts per department. Departments without
// records are absent from the result. A total that overflows float64 fails
// with ErrTotalOverflow.
func CalculateDepartmentTotals(records []SpendingRecord) (Totals, error) {
	index := make(map[string]int)
	names := make([]string, 0)
	sums := make([]decimal.Decimal, 0)
	for _, r := range records {
		i, ok := index[r.Department]
		if !ok {
			i = len(names)
			index[r.Department] = i
			names = append(names, r.Department)
			sums = append(sums, decimal.Zero)
		}
		sums[i] = sums[i].Add(decimal.NewFromFloat(r.Amount))
	}

	totals := make(Totals, len(names))
	for i, name := range names {
		amount := sums[i].InexactFloat64()
		if math.IsInf(amount, 0) {
			return nil, fmt.Errorf("%s: %w", name, ErrTotalOverflow)
		}
		totals[i] = DepartmentTotal{Department: name, Amount: amount}
	}
	return totals, nil
}

// PieChartSeries converts totals into chart slices, preserving their order.
func PieChartSeries(totals Totals) []PieSlice {
	out := make([]PieSlice, len(totals))
	for i, dt := range totals {
		out[i] = PieSlice{Label: dt.Department, Value: dt.Amount}
	}
	return out
}

// PieTotal sums the slice values.
func PieTotal(pie []PieSlice) (float64, error) {
	sum := decimal.Zero
	for _, s := range pie {
		sum = sum.Add(decimal.NewFromFloat(s.Value))
	}
	total := sum.InexactFloat64()
	if math.IsInf(total, 0) {
		return 0, fmt.Errorf("pie: %w", ErrTotalOverflow)
	}
	return total, nil
}

// BuildTimeSeries returns, for each department, its records sorted by
// ascending year. Records with equal years keep their input order.
func BuildTimeSeries(records []SpendingRecord, departments []string) []TimeSeries {
	out := make([]TimeSeries, 0, len(departments))
	for _, dept := range departments {
		matching := make([]SpendingRecord, 0)
		for _, r := range records {
			if r.Department == dept {
				matching = append(matching, r)
			}
		}
		slices.SortStableFunc(matching, func(a, b SpendingRecord) int {
			return cmp.Compare(a.Year, b.Year)
		})

		data := make([]SeriesPoint, len(matching))
		for i, r := range matching {
			data[i] = SeriesPoint{Year: strconv.Itoa(r.Year), Amount: r.Amount}
		}
		out = append(out, TimeSeries{Department: dept, Data: data})
	}
	return out
}
