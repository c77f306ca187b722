// Package export renders spending data as an Excel workbook.
package export

import (
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"

	"govspend/internal/core"
)

const (
	SheetRecords = "Records"
	SheetTotals  = "Totals"
	SheetSeries  = "Series"

	// ContentType is the MIME type of the generated workbook.
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Build creates a workbook with every record, the department totals for
// sel and the unfiltered per-department series.
func Build(records []core.SpendingRecord, sel core.FilterSelection) (*excelize.File, error) {
	f := excelize.NewFile()

	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#DDEBF7"}},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("header style: %w", err)
	}
	percent, err := f.NewStyle(&excelize.Style{NumFmt: 10})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("percent style: %w", err)
	}

	// The default sheet becomes Records.
	if err := f.SetSheetName("Sheet1", SheetRecords); err != nil {
		f.Close()
		return nil, err
	}
	for _, name := range []string{SheetTotals, SheetSeries} {
		if _, err := f.NewSheet(name); err != nil {
			f.Close()
			return nil, fmt.Errorf("create sheet %s: %w", name, err)
		}
	}

	w := sheetWriter{f: f, header: header}
	w.row(SheetRecords, 1, "Department", "Year", "Amount")
	for i, r := range records {
		w.row(SheetRecords, i+2, r.Department, r.Year, r.Amount)
	}

	totals, err := core.CalculateDepartmentTotals(core.Filter(records, sel))
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("department totals: %w", err)
	}
	grand, err := core.PieTotal(core.PieChartSeries(totals))
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("pie total: %w", err)
	}
	w.row(SheetTotals, 1, "Department", "Amount", "Share")
	for i, t := range totals {
		share := 0.0
		if grand != 0 {
			share = t.Amount / grand
		}
		w.row(SheetTotals, i+2, t.Department, t.Amount, share)
	}
	if len(totals) > 0 {
		last := "C" + strconv.Itoa(len(totals)+1)
		if w.err == nil {
			w.err = f.SetCellStyle(SheetTotals, "C2", last, percent)
		}
	}

	line := 2
	w.row(SheetSeries, 1, "Department", "Year", "Amount")
	for _, ts := range core.BuildTimeSeries(records, core.Departments(records)) {
		for _, p := range ts.Data {
			year, _ := strconv.Atoi(p.Year)
			w.row(SheetSeries, line, ts.Department, year, p.Amount)
			line++
		}
	}

	if w.err != nil {
		f.Close()
		return nil, w.err
	}
	return f, nil
}

// Write builds the workbook and streams it to out.
func Write(out io.Writer, records []core.SpendingRecord, sel core.FilterSelection) error {
	f, err := Build(records, sel)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.WriteTo(out); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// sheetWriter keeps the first error so rows can be written without checks.
type sheetWriter struct {
	f      *excelize.File
	header int
	err    error
}

func (w *sheetWriter) row(sheet string, n int, values ...any) {
	if w.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(1, n)
	if err != nil {
		w.err = err
		return
	}
	if err := w.f.SetSheetRow(sheet, cell, &values); err != nil {
		w.err = fmt.Errorf("%s row %d: %w", sheet, n, err)
		return
	}
	if n == 1 {
		end, _ := excelize.CoordinatesToCellName(len(values), 1)
		w.err = w.f.SetCellStyle(sheet, cell, end, w.header)
	}
}
