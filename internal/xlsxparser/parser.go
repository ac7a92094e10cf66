// =============================================================================
// Plan of Study Converter - XLSX Grid Loader
// =============================================================================
//
// This module decodes a spreadsheet binary into a raw Grid. It is the first
// stage of the plan pipeline and the only one that touches the spreadsheet
// library.
//
// LOADING RULES:
//   - Only the first worksheet is read; later worksheets are ignored.
//   - Every cell keeps its displayed value. Cells stored as numbers are
//     flagged so later stages can tell "43" the number from "43" the text.
//   - Trailing empty cells are dropped by excelize; interior empty cells are
//     kept as absent cells so column positions stay stable.
//
// ERRORS:
//   Anything that is not a valid workbook container fails with a
//   *types.DecodeError. There is no retry: the caller re-selects a file.
//
// =============================================================================

package xlsxparser

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/ginjaninja78/plan-of-study-converter/internal/types"
	"github.com/xuri/excelize/v2"
)

// format is the name reported in decode errors.
const format = "xlsx"

// =============================================================================
// LOADER FUNCTIONS
// =============================================================================

// Load decodes raw workbook bytes into a Grid.
//
// PARAMETERS:
//   - data: The raw content of an .xlsx/.xlsm file.
//
// RETURNS:
//   - The Grid of the first worksheet.
//   - A *types.DecodeError if the bytes are not a readable workbook.
func Load(data []byte) (types.Grid, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, &types.DecodeError{Format: format, Err: err}
	}
	defer f.Close()

	return readFirstSheet(f)
}

// LoadFile reads a workbook from disk and decodes it into a Grid.
func LoadFile(path string) (types.Grid, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read workbook: %w", err)
	}
	return Load(data)
}

// readFirstSheet converts the first worksheet of an open workbook.
func readFirstSheet(f *excelize.File) (types.Grid, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &types.DecodeError{Format: format, Err: errors.New("workbook has no sheets")}
	}
	sheetName := sheets[0]

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, &types.DecodeError{Format: format, Err: fmt.Errorf("failed to read rows: %w", err)}
	}

	grid := make(types.Grid, len(rows))
	for rowIdx, row := range rows {
		cells := make(types.Row, len(row))
		for colIdx, value := range row {
			if value == "" {
				continue
			}
			cells[colIdx] = types.Cell{
				Value:   value,
				Numeric: isNumericCell(f, sheetName, colIdx, rowIdx),
			}
		}
		grid[rowIdx] = cells
	}

	return grid, nil
}

// isNumericCell reports whether the cell at the 0-based position is stored
// as a number. Cells without an explicit type attribute are numbers in OOXML.
func isNumericCell(f *excelize.File, sheetName string, colIdx, rowIdx int) bool {
	cellName, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+1)
	if err != nil {
		return false
	}
	cellType, err := f.GetCellType(sheetName, cellName)
	if err != nil {
		return false
	}
	return cellType == excelize.CellTypeNumber || cellType == excelize.CellTypeUnset
}
