package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	ErrMissingDepartment = errors.New("missing department")
	ErrNotNumeric        = errors.New("not a number")
	ErrFractionalYear    = errors.New("year is not an integer")
	ErrNonFiniteAmount   = errors.New("amount is not finite")
)

// NormalizeRow coerces a raw row into a SpendingRecord.
//
// The department is converted to text, year and amount to numbers. The row is
// rejected when the department is blank, when either number fails coercion,
// when the year is not integral or when the amount is NaN or infinite.
func NormalizeRow(row RawRow) (SpendingRecord, error) {
	department := toText(row[KeyDepartment])
	if strings.TrimSpace(department) == "" {
		return SpendingRecord{}, ErrMissingDepartment
	}

	year, err := toNumber(row[KeyYear])
	if err != nil {
		return SpendingRecord{}, fmt.Errorf("year: %w", err)
	}
	if math.IsInf(year, 0) || math.Trunc(year) != year || math.Abs(year) > math.MaxInt32 {
		return SpendingRecord{}, ErrFractionalYear
	}

	amount, err := toNumber(row[KeyAmount])
	if err != nil {
		return SpendingRecord{}, fmt.Errorf("amount: %w", err)
	}
	if math.IsInf(amount, 0) {
		return SpendingRecord{}, ErrNonFiniteAmount
	}

	return SpendingRecord{Department: department, Year: int(year), Amount: amount}, nil
}

// Normalize returns the records of all rows accepted by NormalizeRow, in input
// order. Rejected rows are skipped silently.
func Normalize(rows []RawRow) []SpendingRecord {
	records, _ := NormalizeWithRejects(rows)
	return records
}

// NormalizeWithRejects is Normalize that also reports how many rows were dropped.
func NormalizeWithRejects(rows []RawRow) ([]SpendingRecord, int) {
	records := make([]SpendingRecord, 0, len(rows))
	rejected := 0
	for _, row := range rows {
		rec, err := NormalizeRow(row)
		if err != nil {
			rejected++
			continue
		}
		records = append(records, rec)
	}
	return records, rejected
}

func toText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case bool:
		return strconv.FormatBool(t)
	case json.Number:
		return t.String()
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}

func toNumber(v any) (float64, error) {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int8:
		f = float64(t)
	case int16:
		f = float64(t)
	case int32:
		f = float64(t)
	case int64:
		f = float64(t)
	case uint:
		f = float64(t)
	case uint8:
		f = float64(t)
	case uint16:
		f = float64(t)
	case uint32:
		f = float64(t)
	case uint64:
		f = float64(t)
	case json.Number:
		return parseNumber(t.String())
	case string:
		return parseNumber(t)
	case []byte:
		return parseNumber(string(t))
	default:
		return 0, ErrNotNumeric
	}
	if math.IsNaN(f) {
		return 0, ErrNotNumeric
	}
	return f, nil
}

func parseNumber(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrNotNumeric
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) {
		return 0, ErrNotNumeric
	}
	return f, nil
}
