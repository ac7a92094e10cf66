// =============================================================================
// Plan of Study Converter - CSV Grid Loader
// =============================================================================
//
// Some departments export their Plan of Study as CSV instead of a workbook.
// This module decodes such an export into the same raw Grid the XLSX loader
// produces, so the plan parser never has to care where the grid came from.
//
// LOADING RULES:
//   - Quoted fields may span several lines (the metadata cell does).
//   - Rows may have different lengths.
//   - Fields are kept verbatim; header matching downstream is exact.
//   - A field that parses as a number is flagged Numeric, mirroring what a
//     workbook would have stored.
//
// =============================================================================

package csvparser

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/ginjaninja78/plan-of-study-converter/internal/types"
)

// format is the name reported in decode errors.
const format = "csv"

// utf8BOM is stripped from the start of the input when present.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// =============================================================================
// SETTINGS
// =============================================================================

// Settings controls how the CSV bytes are tokenized.
type Settings struct {
	// Delimiter separates fields. Accepts a literal character or one of the
	// names "tab", "pipe", "semicolon".
	// Default: ","
	Delimiter string
}

// DefaultSettings returns comma-separated settings.
func DefaultSettings() Settings {
	return Settings{Delimiter: ","}
}

// =============================================================================
// LOADER FUNCTIONS
// =============================================================================

// Load decodes CSV bytes into a Grid.
//
// PARAMETERS:
//   - data: The raw CSV content.
//   - settings: Tokenizer settings.
//
// RETURNS:
//   - The decoded Grid.
//   - A *types.DecodeError if the content is empty or malformed.
func Load(data []byte, settings Settings) (types.Grid, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &types.DecodeError{Format: format, Err: errors.New("file is empty")}
	}

	reader := csv.NewReader(bytes.NewReader(data))
	configureReader(reader, settings)

	records, err := reader.ReadAll()
	if err != nil {
		return nil, &types.DecodeError{Format: format, Err: err}
	}

	grid := make(types.Grid, len(records))
	for i, record := range records {
		row := make(types.Row, len(record))
		for j, value := range record {
			row[j] = types.Cell{Value: value, Numeric: isNumber(value)}
		}
		grid[i] = trimTrailing(row)
	}

	return grid, nil
}

// LoadFile reads a CSV file from disk and decodes it into a Grid.
func LoadFile(path string, settings Settings) (types.Grid, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	return Load(data, settings)
}

// configureReader applies the tokenizer settings to the reader.
func configureReader(reader *csv.Reader, settings Settings) {
	switch settings.Delimiter {
	case "\\t", "\t", "tab", "TAB":
		reader.Comma = '\t'
	case "|", "pipe", "PIPE":
		reader.Comma = '|'
	case ";", "semicolon":
		reader.Comma = ';'
	default:
		if len(settings.Delimiter) > 0 {
			reader.Comma = rune(settings.Delimiter[0])
		} else {
			reader.Comma = ','
		}
	}

	// Exports pad rows unevenly and quote sloppily.
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// trimTrailing drops trailing empty cells so a CSV row with a single
// populated first cell looks the same as the workbook equivalent.
func trimTrailing(row types.Row) types.Row {
	end := len(row)
	for end > 0 && row[end-1].Value == "" {
		end--
	}
	return row[:end]
}

// isNumber reports whether the field is a plain decimal number.
func isNumber(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}
