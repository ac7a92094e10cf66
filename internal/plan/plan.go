// Package plan defines the Plan of Study aggregate: a department, its courses
// and the prerequisite/corequisite links between course codes.
//
// A PlanOfStudy is built fresh by every parse and is not mutated afterwards;
// corrections require re-parsing the source file.
package plan

import (
	"regexp"
	"strconv"
	"strings"
)

// SchemaVersion is the version of the canonical JSON shape written by this
// package. Versions 1 and 2 are the legacy link shapes accepted by DecodeJSON.
const SchemaVersion = 3

// Department identifies the department a plan belongs to.
type Department struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// CourseType classifies a course within the plan.
type CourseType string

const (
	CourseTypeCore               CourseType = "Core"
	CourseTypeMajor              CourseType = "Major"
	CourseTypeMajorElective      CourseType = "Major Elective"
	CourseTypeGeneralElective    CourseType = "General Elective"
	CourseTypeGeneralRequirement CourseType = "General Requirement"
)

// CourseTypes lists every course type, Core first.
var CourseTypes = []CourseType{
	CourseTypeCore,
	CourseTypeMajor,
	CourseTypeMajorElective,
	CourseTypeGeneralElective,
	CourseTypeGeneralRequirement,
}

// ParseCourseType matches s against the known course types. Anything
// unknown, including the empty string, is Core.
func ParseCourseType(s string) CourseType {
	s = strings.TrimSpace(s)
	for _, t := range CourseTypes {
		if string(t) == s {
			return t
		}
	}
	return CourseTypeCore
}

// Semester is the set of terms a course is offered in.
type Semester string

const (
	SemesterFall             Semester = "Fall"
	SemesterSpring           Semester = "Spring"
	SemesterSummer           Semester = "Summer"
	SemesterFallSpring       Semester = "Fall-Spring"
	SemesterFallSummer       Semester = "Fall-Summer"
	SemesterSpringSummer     Semester = "Spring-Summer"
	SemesterFallSpringSummer Semester = "Fall-Spring-Summer"
)

// Semesters lists every canonical semester value.
var Semesters = []Semester{
	SemesterFall,
	SemesterSpring,
	SemesterSummer,
	SemesterFallSpring,
	SemesterFallSummer,
	SemesterSpringSummer,
	SemesterFallSpringSummer,
}

// termOrder is the canonical order terms are joined in.
var termOrder = []string{"Fall", "Spring", "Summer"}

// ParseSemester normalizes a dash-joined term list such as "Spring - Fall"
// into its canonical Semester ("Fall-Spring"). It reports false for empty
// input, unknown terms and repeated terms.
func ParseSemester(s string) (Semester, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}

	seen := make(map[string]bool, len(termOrder))
	for _, part := range strings.Split(s, "-") {
		term := canonicalTerm(strings.TrimSpace(part))
		if term == "" || seen[term] {
			return "", false
		}
		seen[term] = true
	}

	var terms []string
	for _, term := range termOrder {
		if seen[term] {
			terms = append(terms, term)
		}
	}
	return Semester(strings.Join(terms, "-")), true
}

func canonicalTerm(s string) string {
	for _, term := range termOrder {
		if strings.EqualFold(term, s) {
			return term
		}
	}
	return ""
}

// Course is one row of the plan. Code is the natural key.
type Course struct {
	Code          string     `json:"code"`
	CatalogNumber int        `json:"catalogNumber,omitempty"`
	Title         string     `json:"title"`
	Credits       float64    `json:"credits"`
	Type          CourseType `json:"type"`
	Semesters     Semester   `json:"semesters"`
}

var digitRun = regexp.MustCompile(`\d+`)

// CatalogNumber returns the first run of digits in a course code
// ("COMM101" -> 101), or 0 when the code has none.
func CatalogNumber(code string) int {
	m := digitRun.FindString(code)
	if m == "" {
		return 0
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0
	}
	return n
}

// CourseLink ties a course to one prerequisite and/or one corequisite code.
// At least one side is always present. The two sides of one link are only
// index-aligned; they say nothing about each other.
type CourseLink struct {
	CourseCode       string  `json:"courseCode"`
	PrerequisiteCode *string `json:"prerequisiteCourseCode"`
	CorequisiteCode  *string `json:"corequisiteCourseCode"`
}

// Code returns a pointer to s, for filling CourseLink sides.
func Code(s string) *string {
	return &s
}

// PlanOfStudy is the root aggregate produced by one parse.
type PlanOfStudy struct {
	SchemaVersion int          `json:"schemaVersion"`
	Department    Department   `json:"department"`
	MajorCode     string       `json:"majorCode,omitempty"`
	Courses       []Course     `json:"courses"`
	Links         []CourseLink `json:"links"`
}

// New assembles a plan. The slices and link codes are copied so the
// caller's buffers can be reused without touching the plan.
func New(dept Department, majorCode string, courses []Course, links []CourseLink) *PlanOfStudy {
	p := &PlanOfStudy{
		SchemaVersion: SchemaVersion,
		Department:    dept,
		MajorCode:     majorCode,
		Courses:       make([]Course, len(courses)),
		Links:         make([]CourseLink, len(links)),
	}
	copy(p.Courses, courses)
	for i, l := range links {
		p.Links[i] = CourseLink{
			CourseCode:       l.CourseCode,
			PrerequisiteCode: cloneCode(l.PrerequisiteCode),
			CorequisiteCode:  cloneCode(l.CorequisiteCode),
		}
	}
	return p
}

func cloneCode(s *string) *string {
	if s == nil {
		return nil
	}
	return Code(*s)
}

// Course returns the course with the given code.
func (p *PlanOfStudy) Course(code string) (Course, bool) {
	for _, c := range p.Courses {
		if c.Code == code {
			return c, true
		}
	}
	return Course{}, false
}

// TotalCredits sums the credits of every course in the plan.
func (p *PlanOfStudy) TotalCredits() float64 {
	var total float64
	for _, c := range p.Courses {
		total += c.Credits
	}
	return total
}
