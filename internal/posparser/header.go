package posparser

import (
	"strings"

	"github.com/ginjaninja78/plan-of-study-converter/internal/types"
)

// Column positions of a data row.
const (
	colCode = iota
	colTitle
	colCredits
	colPrerequisites
	colCorequisites
	colType
	colSemesters
)

// LocateHeader returns the 0-based index of the first row whose first three
// cells are exactly "Code", "Title", "Credits".
func LocateHeader(grid types.Grid) (int, error) {
	for i, row := range grid {
		if row.At(colCode).Value == "Code" &&
			row.At(colTitle).Value == "Title" &&
			row.At(colCredits).Value == "Credits" {
			return i, nil
		}
	}
	return -1, ErrMissingHeader
}

// dataRow is a retained course row and its 1-based sheet row number.
type dataRow struct {
	Number int
	Cells  types.Row
}

// dataRows returns the rows after the header that describe a course.
// Separators (empty code, "Total..." rows, repeated "Code" headers) are
// dropped here so both passes skip exactly the same rows.
func dataRows(grid types.Grid, headerIdx int) []dataRow {
	var rows []dataRow
	for i := headerIdx + 1; i < len(grid); i++ {
		if isSeparator(grid[i]) {
			continue
		}
		rows = append(rows, dataRow{Number: i + 1, Cells: grid[i]})
	}
	return rows
}

func isSeparator(row types.Row) bool {
	code := row.At(colCode)
	if code.IsAbsent() {
		return true
	}
	trimmed := code.Trimmed()
	return strings.HasPrefix(trimmed, "Total") || trimmed == "Code"
}
