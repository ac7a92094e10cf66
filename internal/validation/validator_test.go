package validation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ginjaninja78/plan-of-study-converter/internal/plan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplePlan(links ...plan.CourseLink) *plan.PlanOfStudy {
	return plan.New(plan.Department{ID: 43, Name: "Comm Eng"}, "TENG12", []plan.Course{
		{Code: "COMM101", CatalogNumber: 101},
		{Code: "COMM201", CatalogNumber: 201},
		{Code: "MATH110"},
	}, links)
}

func rules(errs []*ValidationError) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Rule + ":" + e.Severity
	}
	return out
}

func TestCheckReferencesClean(t *testing.T) {
	p := samplePlan(
		plan.CourseLink{CourseCode: "COMM201", PrerequisiteCode: plan.Code("COMM101")},
		plan.CourseLink{CourseCode: "COMM201", PrerequisiteCode: plan.Code("110"), CorequisiteCode: plan.Code("101")},
	)
	assert.Empty(t, CheckReferences(p))
}

func TestCheckReferencesFindings(t *testing.T) {
	p := samplePlan(
		plan.CourseLink{CourseCode: "PHYS999", PrerequisiteCode: plan.Code("COMM101")},
		plan.CourseLink{CourseCode: "COMM201", PrerequisiteCode: plan.Code("CHEM100")},
		plan.CourseLink{CourseCode: "COMM201", CorequisiteCode: plan.Code("COMM201")},
		plan.CourseLink{CourseCode: "COMM201", PrerequisiteCode: plan.Code("CHEM100")},
		plan.CourseLink{CourseCode: "COMM101", CorequisiteCode: plan.Code("999")},
	)

	errs := CheckReferences(p)
	assert.Equal(t, []string{
		"unknown_course:error",
		"unresolved_prerequisite:warning",
		"self_reference:warning",
		"unresolved_prerequisite:warning",
		"duplicate_link:warning",
		"unresolved_corequisite:warning",
	}, rules(errs))
	assert.Equal(t, 3, errs[4].LinkIndex)
	assert.True(t, HasErrors(errs))
}

func TestStrictValidator(t *testing.T) {
	p := samplePlan(plan.CourseLink{CourseCode: "COMM201", PrerequisiteCode: plan.Code("CHEM100")})

	result := NewValidator(ValidationOptions{Strict: true, MatchCatalogNumbers: true}).ValidateAll(p)
	assert.False(t, result.IsValid)
	assert.Equal(t, 1, result.ErrorCount)
	assert.Equal(t, 0, result.WarningCount)
	assert.Equal(t, 1, result.LinksValidated)

	lenient := NewValidator(DefaultValidationOptions()).ValidateAll(p)
	assert.True(t, lenient.IsValid)
	assert.Equal(t, 1, lenient.WarningCount)
}

func TestCatalogMatchingCanBeDisabled(t *testing.T) {
	p := samplePlan(plan.CourseLink{CourseCode: "COMM201", PrerequisiteCode: plan.Code("101")})

	result := NewValidator(ValidationOptions{}).ValidateAll(p)
	assert.Equal(t, []string{"unresolved_prerequisite:warning"}, rules(result.Errors))
}

func TestFormatAndWriteErrors(t *testing.T) {
	assert.Equal(t, "No validation errors.", FormatErrors(nil))

	errs := CheckReferences(samplePlan(plan.CourseLink{CourseCode: "X1", PrerequisiteCode: plan.Code("COMM101")}))
	text := FormatErrors(errs)
	assert.Contains(t, text, "1 error(s)")
	assert.Contains(t, text, "[ERROR] Link 0, Field 'courseCode'")

	path := filepath.Join(t.TempDir(), "refs.log")
	require.NoError(t, WriteErrorLog(errs, "teng43.xlsx", path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Source: teng43.xlsx")
	assert.Contains(t, string(data), "value: 'X1'")
}
