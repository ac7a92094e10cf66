package posparser

import (
	"errors"
	"fmt"
)

// Structural errors. The sheet does not follow the Plan of Study layout and
// no plan is produced.
var (
	// ErrMissingDepartmentCode means no single-cell row ends in "-<digits>".
	ErrMissingDepartmentCode = errors.New("department code row not found")

	// ErrMissingMetadata means no column E (index 4) cell carries both "Major Title:"
	// and "Major Code:", or that cell is missing the expected lines.
	ErrMissingMetadata = errors.New("metadata row not found")

	// ErrMissingHeader means no row starts with "Code", "Title", "Credits".
	ErrMissingHeader = errors.New(`header row ("Code", "Title", "Credits") not found`)
)

// MalformedCreditsError reports a course row whose credits cell is not a
// non-negative number. The row is left out of the course list.
type MalformedCreditsError struct {
	Row   int // 1-based sheet row
	Code  string
	Value string
}

func (e *MalformedCreditsError) Error() string {
	return fmt.Sprintf("row %d (%s): malformed credits %q", e.Row, e.Code, e.Value)
}

// MalformedSemesterError reports a course row whose semesters cell is absent
// or not a known term combination. The row is left out of the course list.
type MalformedSemesterError struct {
	Row   int // 1-based sheet row
	Code  string
	Value string
}

func (e *MalformedSemesterError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("row %d (%s): semesters missing", e.Row, e.Code)
	}
	return fmt.Sprintf("row %d (%s): unknown semesters %q", e.Row, e.Code, e.Value)
}

// DuplicateCourseCodeWarning reports a course code seen on more than one
// row. The later row replaces the earlier one.
type DuplicateCourseCodeWarning struct {
	Code          string
	FirstRow      int
	Row           int
	PreviousTitle string
	Title         string
}

// Conflicting reports whether the two rows disagree on the title.
func (w *DuplicateCourseCodeWarning) Conflicting() bool {
	return w.PreviousTitle != w.Title
}

func (w *DuplicateCourseCodeWarning) Error() string {
	msg := fmt.Sprintf("row %d: course %s already defined on row %d, later row wins", w.Row, w.Code, w.FirstRow)
	if w.Conflicting() {
		msg += fmt.Sprintf(" (title %q replaced by %q)", w.PreviousTitle, w.Title)
	}
	return msg
}
