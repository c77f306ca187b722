package google

import (
	"fmt"
	"strings"

	"govspend/internal/core"
)

var columns = []string{core.KeyDepartment, core.KeyYear, core.KeyAmount}

// parseRows converts a values matrix (as returned by the Sheets API) into raw
// rows. The first row must name the department, year and amount columns, in
// any order and case. Cells past the end of a short row are left nil.
func parseRows(values [][]interface{}) ([]core.RawRow, error) {
	if len(values) == 0 {
		return []core.RawRow{}, nil
	}

	index := make(map[string]int, len(columns))
	for i, h := range values[0] {
		name := strings.ToLower(strings.TrimSpace(fmt.Sprint(h)))
		if _, dup := index[name]; !dup {
			index[name] = i
		}
	}
	var missing []string
	for _, col := range columns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("unexpected header: missing %s; got headers=%v", strings.Join(missing, ","), values[0])
	}

	rows := make([]core.RawRow, 0, len(values)-1)
	for _, line := range values[1:] {
		if isBlank(line) {
			continue
		}
		row := make(core.RawRow, len(columns))
		for _, col := range columns {
			row[col] = safeGet(line, index[col])
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func safeGet(line []interface{}, i int) interface{} {
	if i < 0 || i >= len(line) {
		return nil
	}
	return line[i]
}

func isBlank(line []interface{}) bool {
	for _, v := range line {
		if strings.TrimSpace(fmt.Sprint(v)) != "" {
			return false
		}
	}
	return true
}
