package plan

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// The link record changed shape twice before the current schema:
//
//	v1: {"courseId": 305, "coursePre": 101, "courseCo": 201}   numeric ids
//	v2: {"coursecode": "305", "coursePre": "101", "courseCo": "201"}
//	v3: {"courseCode": "305", "prerequisiteCourseCode": "101", "corequisiteCourseCode": "201"}
//
// Plans written before v3 also used a flat layout (departmentId,
// departmentName, prerequisitesCorequisites). DecodeJSON accepts all of them
// and always returns the canonical v3 plan.

// ErrUnsupportedSchema is returned for a schemaVersion newer than this build.
var ErrUnsupportedSchema = errors.New("unsupported plan schema version")

// EncodeJSON renders the plan in the canonical schema.
func EncodeJSON(p *PlanOfStudy, indent bool) ([]byte, error) {
	out := *p
	out.SchemaVersion = SchemaVersion
	if out.Courses == nil {
		out.Courses = []Course{}
	}
	if out.Links == nil {
		out.Links = []CourseLink{}
	}
	if indent {
		return json.MarshalIndent(out, "", "  ")
	}
	return json.Marshal(out)
}

// DecodeJSON reads a plan in any known schema version.
func DecodeJSON(data []byte) (*PlanOfStudy, error) {
	var probe struct {
		SchemaVersion *int `json:"schemaVersion"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("failed to decode plan: %w", err)
	}

	if probe.SchemaVersion == nil {
		return decodeLegacy(data)
	}
	if *probe.SchemaVersion > SchemaVersion || *probe.SchemaVersion < 1 {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedSchema, *probe.SchemaVersion)
	}

	var p PlanOfStudy
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to decode plan: %w", err)
	}
	return New(p.Department, p.MajorCode, p.Courses, keepLinks(p.Links)), nil
}

// keepLinks drops links with neither side present.
func keepLinks(links []CourseLink) []CourseLink {
	out := links[:0:0]
	for _, l := range links {
		if l.PrerequisiteCode == nil && l.CorequisiteCode == nil {
			continue
		}
		out = append(out, l)
	}
	return out
}

// =============================================================================
// LEGACY SHAPES
// =============================================================================

type legacyPlan struct {
	DepartmentID   legacyValue                  `json:"departmentId"`
	DepartmentName string                       `json:"departmentName"`
	MajorCode      string                       `json:"majorCode"`
	Courses        []legacyCourse               `json:"courses"`
	Links          []map[string]json.RawMessage `json:"prerequisitesCorequisites"`
}

type legacyCourse struct {
	ID        legacyValue `json:"id"`
	Code      string      `json:"code"`
	Title     string      `json:"title"`
	Credits   float64     `json:"credits"`
	Type      string      `json:"type"`
	Semesters string      `json:"semesters"`
}

// legacyValue is a code or id that older clients wrote as a string, a
// number, or null. The old client turned empty fragments into 0 and
// unparsable ones into NaN (serialized as null); both mean absent.
type legacyValue struct {
	value   string
	present bool
}

func (v *legacyValue) UnmarshalJSON(b []byte) error {
	*v = legacyValue{}
	if string(b) == "null" {
		return nil
	}

	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		s = strings.TrimSpace(s)
		if s != "" && s != "undefined" && s != "NaN" && s != "0" {
			*v = legacyValue{value: s, present: true}
		}
		return nil
	}

	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return fmt.Errorf("expected code or number, got %s", string(b))
	}
	if f == 0 || math.IsNaN(f) {
		return nil
	}
	*v = legacyValue{value: strconv.FormatFloat(f, 'f', -1, 64), present: true}
	return nil
}

func (v legacyValue) ptr() *string {
	if !v.present {
		return nil
	}
	return Code(v.value)
}

func decodeLegacy(data []byte) (*PlanOfStudy, error) {
	var lp legacyPlan
	if err := json.Unmarshal(data, &lp); err != nil {
		return nil, fmt.Errorf("failed to decode legacy plan: %w", err)
	}

	deptID := 0
	if lp.DepartmentID.present {
		n, err := strconv.Atoi(lp.DepartmentID.value)
		if err != nil {
			return nil, fmt.Errorf("invalid legacy departmentId %q: %w", lp.DepartmentID.value, err)
		}
		deptID = n
	}

	courses := make([]Course, 0, len(lp.Courses))
	codeByID := make(map[string]string, len(lp.Courses))
	for _, lc := range lp.Courses {
		code := strings.TrimSpace(lc.Code)
		c := Course{
			Code:          code,
			CatalogNumber: CatalogNumber(code),
			Title:         lc.Title,
			Credits:       lc.Credits,
			Type:          ParseCourseType(lc.Type),
		}
		if s, ok := ParseSemester(lc.Semesters); ok {
			c.Semesters = s
		}
		if lc.ID.present {
			if _, taken := codeByID[lc.ID.value]; !taken {
				codeByID[lc.ID.value] = code
			}
		}
		courses = append(courses, c)
	}

	links := make([]CourseLink, 0, len(lp.Links))
	for i, raw := range lp.Links {
		link, err := decodeLegacyLink(raw, codeByID)
		if err != nil {
			return nil, fmt.Errorf("legacy link %d: %w", i, err)
		}
		if link.PrerequisiteCode == nil && link.CorequisiteCode == nil {
			continue
		}
		links = append(links, link)
	}

	return New(Department{ID: deptID, Name: lp.DepartmentName}, lp.MajorCode, courses, links), nil
}

// decodeLegacyLink maps one v1/v2/v3-named link record to the canonical link.
func decodeLegacyLink(raw map[string]json.RawMessage, codeByID map[string]string) (CourseLink, error) {
	field := func(names ...string) (legacyValue, error) {
		for _, name := range names {
			b, ok := raw[name]
			if !ok {
				continue
			}
			var v legacyValue
			if err := json.Unmarshal(b, &v); err != nil {
				return legacyValue{}, fmt.Errorf("%s: %w", name, err)
			}
			return v, nil
		}
		return legacyValue{}, nil
	}

	var link CourseLink

	if _, v1 := raw["courseId"]; v1 {
		id, err := field("courseId")
		if err != nil {
			return link, err
		}
		if !id.present {
			return link, errors.New("courseId is missing")
		}
		link.CourseCode = id.value
		if code, ok := codeByID[id.value]; ok {
			link.CourseCode = code
		}
	} else {
		code, err := field("courseCode", "coursecode")
		if err != nil {
			return link, err
		}
		if !code.present {
			return link, errors.New("course code is missing")
		}
		link.CourseCode = code.value
	}

	pre, err := field("prerequisiteCourseCode", "coursePre")
	if err != nil {
		return link, err
	}
	co, err := field("corequisiteCourseCode", "courseCo")
	if err != nil {
		return link, err
	}
	link.PrerequisiteCode = pre.ptr()
	link.CorequisiteCode = co.ptr()

	return link, nil
}
