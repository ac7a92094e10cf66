package posparser

import (
	"math"
	"strconv"
	"strings"

	"github.com/ginjaninja78/plan-of-study-converter/internal/plan"
)

// courseSet is what buildCourses hands back to the assembler.
type courseSet struct {
	Courses     []plan.Course
	FieldErrors []error
	Warnings    []*DuplicateCourseCodeWarning
}

// buildCourses turns each data row into a Course. Rows with a malformed
// credits or semesters cell are reported and left out. A code seen twice
// keeps its first position but takes the later row's values.
func buildCourses(rows []dataRow) courseSet {
	var set courseSet
	seen := make(map[string]int)     // code -> index in set.Courses
	firstRow := make(map[string]int) // code -> sheet row of the kept entry

	for _, r := range rows {
		course, errs := buildCourse(r)
		if len(errs) > 0 {
			set.FieldErrors = append(set.FieldErrors, errs...)
			continue
		}

		if idx, dup := seen[course.Code]; dup {
			set.Warnings = append(set.Warnings, &DuplicateCourseCodeWarning{
				Code:          course.Code,
				FirstRow:      firstRow[course.Code],
				Row:           r.Number,
				PreviousTitle: set.Courses[idx].Title,
				Title:         course.Title,
			})
			set.Courses[idx] = course
			firstRow[course.Code] = r.Number
			continue
		}

		seen[course.Code] = len(set.Courses)
		firstRow[course.Code] = r.Number
		set.Courses = append(set.Courses, course)
	}

	return set
}

func buildCourse(r dataRow) (plan.Course, []error) {
	code := r.Cells.At(colCode).Trimmed()
	var errs []error

	credits, ok := parseCredits(r.Cells.At(colCredits).Trimmed())
	if !ok {
		errs = append(errs, &MalformedCreditsError{Row: r.Number, Code: code, Value: r.Cells.At(colCredits).Value})
	}

	semesters, ok := plan.ParseSemester(r.Cells.At(colSemesters).Value)
	if !ok {
		errs = append(errs, &MalformedSemesterError{Row: r.Number, Code: code, Value: r.Cells.At(colSemesters).Trimmed()})
	}

	if len(errs) > 0 {
		return plan.Course{}, errs
	}

	return plan.Course{
		Code:          code,
		CatalogNumber: plan.CatalogNumber(code),
		Title:         code + ": " + r.Cells.At(colTitle).Trimmed(),
		Credits:       credits,
		Type:          plan.ParseCourseType(r.Cells.At(colType).Value),
		Semesters:     semesters,
	}, nil
}

// parseCredits accepts finite non-negative numbers only. An empty cell is
// malformed, not zero.
func parseCredits(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, false
	}
	return v, true
}
