// =============================================================================
// Plan of Study Converter - Reference Validation
// =============================================================================
//
// The parser pairs prerequisite and corequisite codes purely syntactically.
// This module checks, before a plan is persisted, that the links actually
// point at courses of the plan.
//
// CHECKS:
//   1. unknown_course           - a link's course code names no course (error)
//   2. unresolved_prerequisite  - a prerequisite code matches no course
//   3. unresolved_corequisite   - a corequisite code matches no course
//   4. self_reference           - a course requires itself
//   5. duplicate_link           - the same link appears twice
//
// Checks 2 to 5 are warnings unless the validator runs in strict mode, in
// which case 2 and 3 become errors.
//
// REFERENCE RESOLUTION:
//   A code resolves when it equals a course code. A purely numeric code
//   ("101") also resolves against a course's catalog number ("COMM101"),
//   since older sheets list prerequisites by number only.
//
// =============================================================================

package validation

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ginjaninja78/plan-of-study-converter/internal/plan"
)

// Severity levels.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// Rule names.
const (
	RuleUnknownCourse          = "unknown_course"
	RuleUnresolvedPrerequisite = "unresolved_prerequisite"
	RuleUnresolvedCorequisite  = "unresolved_corequisite"
	RuleSelfReference          = "self_reference"
	RuleDuplicateLink          = "duplicate_link"
)

// =============================================================================
// VALIDATION ERROR TYPES
// =============================================================================

// ValidationError represents a single reference problem.
type ValidationError struct {
	// Severity is SeverityError or SeverityWarning.
	Severity string `json:"severity"`

	// Field is the link field holding the offending value.
	Field string `json:"field"`

	// Value is the offending code.
	Value string `json:"value"`

	// Rule is the check that failed.
	Rule string `json:"rule"`

	// Message is a human-readable description.
	Message string `json:"message"`

	// LinkIndex is the 0-based position of the link in the plan.
	LinkIndex int `json:"linkIndex"`
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("[%s] Link %d, Field '%s': %s (value: '%s')",
		strings.ToUpper(e.Severity),
		e.LinkIndex,
		e.Field,
		e.Message,
		e.Value,
	)
}

// =============================================================================
// VALIDATION RESULT
// =============================================================================

// ValidationResult contains the results of validation.
type ValidationResult struct {
	// IsValid is true if there are no errors (warnings allowed).
	IsValid bool

	// Errors contains all findings, warnings included, in link order.
	Errors []*ValidationError

	ErrorCount   int
	WarningCount int

	// LinksValidated is the number of links checked.
	LinksValidated int
}

// =============================================================================
// VALIDATOR
// =============================================================================

// ValidationOptions configures the validator.
type ValidationOptions struct {
	// Strict turns unresolved prerequisite/corequisite codes into errors.
	Strict bool

	// MatchCatalogNumbers lets numeric codes resolve by catalog number.
	MatchCatalogNumbers bool
}

// DefaultValidationOptions returns lenient options with catalog matching.
func DefaultValidationOptions() ValidationOptions {
	return ValidationOptions{MatchCatalogNumbers: true}
}

// Validator checks the links of a plan against its courses.
type Validator struct {
	options ValidationOptions
}

// NewValidator creates a validator.
func NewValidator(options ValidationOptions) *Validator {
	return &Validator{options: options}
}

// CheckReferences validates a plan with the default options.
func CheckReferences(p *plan.PlanOfStudy) []*ValidationError {
	return NewValidator(DefaultValidationOptions()).ValidateAll(p).Errors
}

// ValidateAll runs every check over the plan.
func (v *Validator) ValidateAll(p *plan.PlanOfStudy) *ValidationResult {
	result := &ValidationResult{LinksValidated: len(p.Links)}
	idx := newCourseIndex(p.Courses)

	unresolved := SeverityWarning
	if v.options.Strict {
		unresolved = SeverityError
	}

	seen := make(map[string]int)
	for i, link := range p.Links {
		if !idx.hasCode(link.CourseCode) {
			result.add(&ValidationError{
				Severity:  SeverityError,
				Field:     "courseCode",
				Value:     link.CourseCode,
				Rule:      RuleUnknownCourse,
				Message:   "link belongs to a course that is not in the plan",
				LinkIndex: i,
			})
		}

		if link.PrerequisiteCode != nil {
			v.checkRef(result, idx, i, "prerequisiteCourseCode", *link.PrerequisiteCode, link.CourseCode, RuleUnresolvedPrerequisite, unresolved)
		}
		if link.CorequisiteCode != nil {
			v.checkRef(result, idx, i, "corequisiteCourseCode", *link.CorequisiteCode, link.CourseCode, RuleUnresolvedCorequisite, unresolved)
		}

		key := linkKey(link)
		if first, dup := seen[key]; dup {
			result.add(&ValidationError{
				Severity:  SeverityWarning,
				Field:     "courseCode",
				Value:     link.CourseCode,
				Rule:      RuleDuplicateLink,
				Message:   fmt.Sprintf("same link as link %d", first),
				LinkIndex: i,
			})
			continue
		}
		seen[key] = i
	}

	result.IsValid = result.ErrorCount == 0
	return result
}

func (v *Validator) checkRef(result *ValidationResult, idx courseIndex, linkIdx int, field, ref, owner, rule, severity string) {
	if ref == owner {
		result.add(&ValidationError{
			Severity:  SeverityWarning,
			Field:     field,
			Value:     ref,
			Rule:      RuleSelfReference,
			Message:   "course references itself",
			LinkIndex: linkIdx,
		})
		return
	}

	if idx.resolves(ref, v.options.MatchCatalogNumbers) {
		return
	}

	result.add(&ValidationError{
		Severity:  severity,
		Field:     field,
		Value:     ref,
		Rule:      rule,
		Message:   "code does not match any course in the plan",
		LinkIndex: linkIdx,
	})
}

func (r *ValidationResult) add(e *ValidationError) {
	r.Errors = append(r.Errors, e)
	if e.Severity == SeverityError {
		r.ErrorCount++
	} else {
		r.WarningCount++
	}
}

// HasErrors reports whether any finding has error severity.
func HasErrors(errors []*ValidationError) bool {
	for _, e := range errors {
		if e.Severity == SeverityError {
			return true
		}
	}
	return false
}

// =============================================================================
// COURSE INDEX
// =============================================================================

type courseIndex struct {
	codes   map[string]bool
	catalog map[int]bool
}

func newCourseIndex(courses []plan.Course) courseIndex {
	idx := courseIndex{codes: make(map[string]bool), catalog: make(map[int]bool)}
	for _, c := range courses {
		idx.codes[c.Code] = true
		n := c.CatalogNumber
		if n == 0 {
			n = plan.CatalogNumber(c.Code)
		}
		if n != 0 {
			idx.catalog[n] = true
		}
	}
	return idx
}

func (idx courseIndex) hasCode(code string) bool {
	return idx.codes[code]
}

func (idx courseIndex) resolves(ref string, byCatalog bool) bool {
	if idx.codes[ref] {
		return true
	}
	if !byCatalog {
		return false
	}
	n, err := strconv.Atoi(ref)
	return err == nil && n != 0 && idx.catalog[n]
}

func linkKey(l plan.CourseLink) string {
	side := func(s *string) string {
		if s == nil {
			return "\x00"
		}
		return *s
	}
	return l.CourseCode + "\x1f" + side(l.PrerequisiteCode) + "\x1f" + side(l.CorequisiteCode)
}

// =============================================================================
// ERROR REPORTING
// =============================================================================

// FormatErrors formats findings as a numbered list.
func FormatErrors(errors []*ValidationError) string {
	if len(errors) == 0 {
		return "No validation errors."
	}

	var builder strings.Builder

	builder.WriteString(fmt.Sprintf("Validation completed with %d error(s):\n\n", len(errors)))

	for i, err := range errors {
		builder.WriteString(fmt.Sprintf("%d. %s\n", i+1, err.Error()))
	}

	return builder.String()
}

// WriteErrorLog writes findings to a log file with a timestamped header.
//
// PARAMETERS:
//   - errors: The findings to write.
//   - source: The input file the findings belong to.
//   - filePath: The path to the output file.
func WriteErrorLog(errors []*ValidationError, source, filePath string) error {
	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create error log: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	fmt.Fprintf(writer, "Source: %s\nGenerated: %s\n\n", source, time.Now().Format(time.RFC3339))
	writer.WriteString(FormatErrors(errors))

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("failed to write error log: %w", err)
	}
	return file.Close()
}
