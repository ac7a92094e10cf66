package posparser

import (
	"strings"

	"github.com/ginjaninja78/plan-of-study-converter/internal/plan"
)

// buildLinks pairs each row's prerequisite and corequisite lists by index.
// Index i of the prerequisite list says nothing about index i of the
// corequisite list; they only share a link record.
func buildLinks(rows []dataRow) []plan.CourseLink {
	var links []plan.CourseLink

	for _, r := range rows {
		code := r.Cells.At(colCode).Trimmed()
		pre := safeSplit(r.Cells.At(colPrerequisites).Value)
		co := safeSplit(r.Cells.At(colCorequisites).Value)

		n := max(len(pre), len(co))
		for i := 0; i < n; i++ {
			link := plan.CourseLink{CourseCode: code}
			if i < len(pre) {
				link.PrerequisiteCode = plan.Code(pre[i])
			}
			if i < len(co) {
				link.CorequisiteCode = plan.Code(co[i])
			}
			links = append(links, link)
		}
	}

	return links
}

// safeSplit splits a dash-joined code list, dropping blanks and the literal
// "undefined" that older exports wrote for empty cells.
func safeSplit(s string) []string {
	var out []string
	for _, part := range strings.Split(s, "-") {
		part = strings.TrimSpace(part)
		if part == "" || part == "undefined" {
			continue
		}
		out = append(out, part)
	}
	return out
}
