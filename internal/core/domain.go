package core

import (
	"strconv"
	"strings"
)

// Raw row keys as stored by every backend.
const (
	KeyDepartment = "department"
	KeyYear       = "year"
	KeyAmount     = "amount"
)

type (
	// RawRow is an untyped row as returned by a data source, before normalization.
	RawRow map[string]any

	// SpendingRecord is one validated spending observation.
	SpendingRecord struct {
		Department string  `json:"department"`
		Year       int     `json:"year"`
		Amount     float64 `json:"amount"`
	}

	// FilterSelection is the user's filter choice. An empty field matches everything.
	FilterSelection struct {
		Year       string `json:"year"`
		Department string `json:"department"`
	}
)

// NewSelection builds a selection from raw user input.
func NewSelection(year, department string) FilterSelection {
	return FilterSelection{
		Year:       strings.TrimSpace(year),
		Department: strings.TrimSpace(department),
	}
}

// Matches reports whether r passes both dimensions of the selection.
func (s FilterSelection) Matches(r SpendingRecord) bool {
	yearMatch := s.Year == "" || strconv.Itoa(r.Year) == s.Year
	departmentMatch := s.Department == "" || r.Department == s.Department
	return yearMatch && departmentMatch
}

// Key returns a stable string form of the selection, usable as a cache key.
func (s FilterSelection) Key() string {
	return s.Year + "|" + s.Department
}
