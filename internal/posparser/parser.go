// =============================================================================
// Plan of Study Converter - Plan Parser
// =============================================================================
//
// This module turns a decoded Grid into a PlanOfStudy. Each stage is a plain
// function over the Grid; nothing is shared between calls, so any number of
// parses may run side by side.
//
// STAGES:
//   1. ExtractDepartmentCode - department id from the "...-43" row
//   2. ExtractMetadata       - department name and major code
//   3. LocateHeader          - the "Code | Title | Credits" row
//   4. buildCourses          - one Course per data row
//   5. buildLinks            - prerequisite/corequisite pairs per data row
//   6. assemble              - the PlanOfStudy
//
// ERROR POLICY:
//   - Structural errors (missing department code, metadata or header) stop
//     the parse and no plan is returned.
//   - Field errors (credits, semesters) are collected per row and returned
//     with a best-effort plan. The offending row is left out of the course
//     list but still contributes links.
//   - Duplicate course codes are warnings; the later row wins.
//
// =============================================================================

package posparser

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ginjaninja78/plan-of-study-converter/internal/csvparser"
	"github.com/ginjaninja78/plan-of-study-converter/internal/plan"
	"github.com/ginjaninja78/plan-of-study-converter/internal/types"
	"github.com/ginjaninja78/plan-of-study-converter/internal/xlsxparser"
)

// DefaultMajorCodePrefix is the prefix major codes are matched against.
const DefaultMajorCodePrefix = "TENG"

// Options tune the parse. The zero value is usable.
type Options struct {
	// MajorCodePrefix is the prefix of "<prefix><digits>" major codes.
	MajorCodePrefix string

	// CSV is used when the input is a .csv export.
	CSV csvparser.Settings
}

func (o Options) withDefaults() Options {
	if o.MajorCodePrefix == "" {
		o.MajorCodePrefix = DefaultMajorCodePrefix
	}
	if o.CSV.Delimiter == "" {
		o.CSV = csvparser.DefaultSettings()
	}
	return o
}

// Result is a parsed plan plus whatever was wrong with individual rows.
type Result struct {
	Plan *plan.PlanOfStudy

	// FieldErrors holds *MalformedCreditsError and *MalformedSemesterError
	// values in sheet order.
	FieldErrors []error

	Warnings []*DuplicateCourseCodeWarning

	// HeaderRow is the 1-based sheet row of the column header.
	HeaderRow int
}

// HasFieldErrors reports whether any course row was rejected.
func (r *Result) HasFieldErrors() bool {
	return len(r.FieldErrors) > 0
}

// =============================================================================
// ENTRY POINTS
// =============================================================================

// Parse decodes workbook bytes and parses the first worksheet.
//
// PARAMETERS:
//   - data: Raw .xlsx content.
//   - opts: Parse options.
//
// RETURNS:
//   - The Result, or a *types.DecodeError / structural error.
func Parse(data []byte, opts Options) (*Result, error) {
	grid, err := xlsxparser.Load(data)
	if err != nil {
		return nil, err
	}
	return ParseGrid(grid, opts)
}

// ParseFile picks a grid loader from the file name's extension, then parses.
// Unknown extensions are tried as workbooks.
func ParseFile(name string, data []byte, opts Options) (*Result, error) {
	opts = opts.withDefaults()

	var (
		grid types.Grid
		err  error
	)
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".tsv", ".txt":
		grid, err = csvparser.Load(data, opts.CSV)
	default:
		grid, err = xlsxparser.Load(data)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	return ParseGrid(grid, opts)
}

// ParseGrid runs every stage over an already decoded Grid.
func ParseGrid(grid types.Grid, opts Options) (*Result, error) {
	opts = opts.withDefaults()

	deptID, _, err := ExtractDepartmentCode(grid)
	if err != nil {
		return nil, err
	}

	meta, err := ExtractMetadata(grid, opts.MajorCodePrefix)
	if err != nil {
		return nil, err
	}

	headerIdx, err := LocateHeader(grid)
	if err != nil {
		return nil, err
	}

	rows := dataRows(grid, headerIdx)
	courses := buildCourses(rows)
	links := buildLinks(rows)

	return &Result{
		Plan:        assemble(deptID, meta, courses.Courses, links),
		FieldErrors: courses.FieldErrors,
		Warnings:    courses.Warnings,
		HeaderRow:   headerIdx + 1,
	}, nil
}

// assemble keeps the id and the name as the two independent extractions
// they are.
func assemble(deptID int, meta Metadata, courses []plan.Course, links []plan.CourseLink) *plan.PlanOfStudy {
	dept := plan.Department{ID: deptID, Name: meta.DepartmentName}
	return plan.New(dept, meta.MajorCode, courses, links)
}
