// =============================================================================
// Plan of Study Converter - Shared Grid Types
// =============================================================================
//
// This package contains the raw grid types shared by the grid loaders and the
// plan parser. Keeping them here avoids import cycles between:
//   - xlsxparser
//   - csvparser
//   - posparser
//
// A Grid is the untyped 2-D table decoded from the first worksheet of a
// spreadsheet. Nothing in this package knows about courses or departments.
//
// =============================================================================

package types

import (
	"fmt"
	"strings"
)

// =============================================================================
// CELL / ROW / GRID
// =============================================================================

// Cell is a single spreadsheet value.
// An absent cell and an empty string are the same thing: the zero Cell.
type Cell struct {
	// Value is the cell content as displayed by the spreadsheet.
	Value string

	// Numeric is true when the source stored the cell as a number rather
	// than as text.
	Numeric bool
}

// Text returns a text cell.
func Text(s string) Cell {
	return Cell{Value: s}
}

// Number returns a numeric cell holding the given display value.
func Number(s string) Cell {
	return Cell{Value: s, Numeric: true}
}

// IsAbsent reports whether the cell carries no content.
func (c Cell) IsAbsent() bool {
	return strings.TrimSpace(c.Value) == ""
}

// Trimmed returns the cell value without surrounding whitespace.
func (c Cell) Trimmed() string {
	return strings.TrimSpace(c.Value)
}

// String implements fmt.Stringer.
func (c Cell) String() string {
	return c.Value
}

// Row is an ordered, index-addressed sequence of cells.
type Row []Cell

// At returns the cell at column i, or the absent cell when the row is
// shorter than i+1.
func (r Row) At(i int) Cell {
	if i < 0 || i >= len(r) {
		return Cell{}
	}
	return r[i]
}

// PopulatedCount returns the number of non-absent cells in the row.
func (r Row) PopulatedCount() int {
	n := 0
	for _, c := range r {
		if !c.IsAbsent() {
			n++
		}
	}
	return n
}

// Grid is the full decoded sheet.
type Grid []Row

// TextRows builds a Grid of text cells. It is mostly useful for tests and
// for loaders that have no type information.
func TextRows(rows [][]string) Grid {
	g := make(Grid, len(rows))
	for i, row := range rows {
		r := make(Row, len(row))
		for j, v := range row {
			r[j] = Text(v)
		}
		g[i] = r
	}
	return g
}

// =============================================================================
// DECODE ERROR
// =============================================================================

// DecodeError reports that the input bytes are not a readable spreadsheet.
// The caller has to re-select a file; there is nothing to retry.
type DecodeError struct {
	// Format is the container format the loader expected ("xlsx", "csv").
	Format string

	// Err is the underlying decoder error.
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("cannot decode %s spreadsheet: %v", e.Format, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
