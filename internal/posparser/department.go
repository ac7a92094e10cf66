package posparser

import (
	"regexp"
	"strconv"

	"github.com/ginjaninja78/plan-of-study-converter/internal/types"
)

// departmentCodePattern matches e.g. "Bachelor of Science in X (TENG)-43".
var departmentCodePattern = regexp.MustCompile(`-(\d+)$`)

// ExtractDepartmentCode returns the department id encoded in the first row
// that holds exactly one populated text cell ending in "-<digits>", along
// with that row's 0-based index.
func ExtractDepartmentCode(grid types.Grid) (int, int, error) {
	for i, row := range grid {
		if row.PopulatedCount() != 1 {
			continue
		}

		cell := singleCell(row)
		if cell.Numeric {
			continue
		}

		m := departmentCodePattern.FindStringSubmatch(cell.Trimmed())
		if m == nil {
			continue
		}
		id, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		return id, i, nil
	}

	return 0, -1, ErrMissingDepartmentCode
}

// singleCell returns the one populated cell of a row.
func singleCell(row types.Row) types.Cell {
	for _, c := range row {
		if !c.IsAbsent() {
			return c
		}
	}
	return types.Cell{}
}
