package plan

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCourseType(t *testing.T) {
	tests := []struct {
		input    string
		expected CourseType
	}{
		{"Core", CourseTypeCore},
		{"Major", CourseTypeMajor},
		{" Major Elective ", CourseTypeMajorElective},
		{"General Elective", CourseTypeGeneralElective},
		{"General Requirement", CourseTypeGeneralRequirement},
		{"major", CourseTypeCore},
		{"Free Elective", CourseTypeCore},
		{"", CourseTypeCore},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, ParseCourseType(tt.input), "input %q", tt.input)
	}
}

func TestParseSemester(t *testing.T) {
	tests := []struct {
		input    string
		expected Semester
		ok       bool
	}{
		{"Fall", SemesterFall, true},
		{"Spring", SemesterSpring, true},
		{" Summer ", SemesterSummer, true},
		{"Fall-Spring", SemesterFallSpring, true},
		{"Spring-Fall", SemesterFallSpring, true},
		{"Fall - Summer", SemesterFallSummer, true},
		{"Spring-Summer", SemesterSpringSummer, true},
		{"Summer-Spring-Fall", SemesterFallSpringSummer, true},
		{"fall", SemesterFall, true},
		{"", "", false},
		{"Winter", "", false},
		{"Fall-Fall", "", false},
		{"Fall-", "", false},
	}

	for _, tt := range tests {
		got, ok := ParseSemester(tt.input)
		assert.Equal(t, tt.ok, ok, "input %q", tt.input)
		assert.Equal(t, tt.expected, got, "input %q", tt.input)
	}
}

func TestCatalogNumber(t *testing.T) {
	assert.Equal(t, 101, CatalogNumber("COMM101"))
	assert.Equal(t, 305, CatalogNumber("305"))
	assert.Equal(t, 2, CatalogNumber("MATH2-L"))
	assert.Equal(t, 0, CatalogNumber("LAB"))
}

func TestNewCopiesSlices(t *testing.T) {
	courses := []Course{{Code: "A1"}}
	links := []CourseLink{{CourseCode: "A1", PrerequisiteCode: Code("B2")}}

	p := New(Department{ID: 1, Name: "X"}, "TENG1", courses, links)
	courses[0].Code = "changed"
	links[0].CourseCode = "changed"
	*links[0].PrerequisiteCode = "changed"

	assert.Equal(t, SchemaVersion, p.SchemaVersion)
	assert.Equal(t, "A1", p.Courses[0].Code)
	assert.Equal(t, "A1", p.Links[0].CourseCode)
	assert.Equal(t, "B2", *p.Links[0].PrerequisiteCode)
	assert.Nil(t, p.Links[0].CorequisiteCode)
}

func TestPlanHelpers(t *testing.T) {
	p := New(Department{ID: 1}, "", []Course{
		{Code: "A1", Credits: 3},
		{Code: "B2", Credits: 1.5},
	}, nil)

	c, ok := p.Course("B2")
	require.True(t, ok)
	assert.Equal(t, 1.5, c.Credits)

	_, ok = p.Course("C3")
	assert.False(t, ok)

	assert.Equal(t, 4.5, p.TotalCredits())
}

func TestEncodeDecodeCanonical(t *testing.T) {
	p := New(Department{ID: 43, Name: "Comm Eng"}, "TENG12",
		[]Course{{Code: "COMM305", CatalogNumber: 305, Title: "COMM305: Signals", Credits: 3, Type: CourseTypeMajor, Semesters: SemesterFall}},
		[]CourseLink{
			{CourseCode: "COMM305", PrerequisiteCode: Code("101"), CorequisiteCode: Code("201")},
			{CourseCode: "COMM305", PrerequisiteCode: Code("102")},
		})

	data, err := EncodeJSON(p, false)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.EqualValues(t, 3, raw["schemaVersion"])
	second := raw["links"].([]any)[1].(map[string]any)
	assert.Equal(t, "102", second["prerequisiteCourseCode"])
	assert.Nil(t, second["corequisiteCourseCode"])

	decoded, err := DecodeJSON(data)
	require.NoError(t, err)
	assert.Equal(t, p, decoded)
}

func TestEncodeEmptyPlanUsesArrays(t *testing.T) {
	data, err := EncodeJSON(&PlanOfStudy{Department: Department{ID: 1}}, false)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"courses":[]`)
	assert.Contains(t, string(data), `"links":[]`)
}

func TestDecodeRejectsFutureSchema(t *testing.T) {
	_, err := DecodeJSON([]byte(`{"schemaVersion": 9}`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupportedSchema))
}

func TestDecodeLegacyV1(t *testing.T) {
	data := []byte(`{
		"departmentId": 43,
		"departmentName": "Comm Eng",
		"courses": [
			{"id": 305, "code": "COMM305", "title": "COMM305: Signals", "credits": 3, "type": "Major", "semesters": "Fall"},
			{"id": 101, "code": "COMM101", "title": "COMM101: Intro", "credits": 3, "type": "Bogus", "semesters": "Spring-Fall"}
		],
		"prerequisitesCorequisites": [
			{"courseId": 305, "coursePre": 101, "courseCo": 201},
			{"courseId": 305, "coursePre": 102, "courseCo": null},
			{"courseId": 101, "coursePre": 0, "courseCo": null}
		]
	}`)

	p, err := DecodeJSON(data)
	require.NoError(t, err)

	assert.Equal(t, Department{ID: 43, Name: "Comm Eng"}, p.Department)
	require.Len(t, p.Courses, 2)
	assert.Equal(t, CourseTypeCore, p.Courses[1].Type)
	assert.Equal(t, SemesterFallSpring, p.Courses[1].Semesters)

	require.Len(t, p.Links, 2)
	assert.Equal(t, CourseLink{CourseCode: "COMM305", PrerequisiteCode: Code("101"), CorequisiteCode: Code("201")}, p.Links[0])
	assert.Equal(t, CourseLink{CourseCode: "COMM305", PrerequisiteCode: Code("102")}, p.Links[1])
}

func TestDecodeLegacyV2(t *testing.T) {
	data := []byte(`{
		"departmentId": "43",
		"departmentName": "Comm Eng",
		"courses": [],
		"prerequisitesCorequisites": [
			{"coursecode": "COMM305", "coursePre": "101", "courseCo": "undefined"},
			{"coursecode": "COMM305", "prerequisiteCourseCode": null, "corequisiteCourseCode": "201"}
		]
	}`)

	p, err := DecodeJSON(data)
	require.NoError(t, err)
	assert.Equal(t, 43, p.Department.ID)
	require.Len(t, p.Links, 2)
	assert.Equal(t, CourseLink{CourseCode: "COMM305", PrerequisiteCode: Code("101")}, p.Links[0])
	assert.Equal(t, CourseLink{CourseCode: "COMM305", CorequisiteCode: Code("201")}, p.Links[1])
}

func TestDecodeLegacyErrors(t *testing.T) {
	_, err := DecodeJSON([]byte(`{"departmentId": "abc"}`))
	assert.Error(t, err)

	_, err = DecodeJSON([]byte(`{"prerequisitesCorequisites": [{"coursePre": "101"}]}`))
	assert.Error(t, err)

	_, err = DecodeJSON([]byte(`{"prerequisitesCorequisites": [{"courseId": 1, "coursePre": true}]}`))
	assert.Error(t, err)

	_, err = DecodeJSON([]byte(`not json`))
	assert.Error(t, err)
}
