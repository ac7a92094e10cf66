// =============================================================================
// Plan of Study Converter - XML Writer Module
// =============================================================================
//
// This module renders a PlanOfStudy as XML for systems that do not take the
// JSON form.
//
// XML STRUCTURE:
//
//   <planOfStudy schemaVersion="3">
//     <department id="43">
//       <name>Communication Engineering</name>
//       <majorCode>TENG12</majorCode>
//     </department>
//     <courses count="2">
//       <course code="COMM101" catalogNumber="101" credits="3" type="Core" semesters="Fall">
//         <title>COMM101: Intro</title>
//       </course>
//       ...
//     </courses>
//     <links count="1">
//       <link n="1" course="COMM201" prerequisite="COMM101"/>
//     </links>
//   </planOfStudy>
//
// Absent link sides are omitted rather than written empty. Link numbering
// starts at 1 and follows plan order.
//
// =============================================================================

package xmlwriter

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strconv"

	"github.com/ginjaninja78/plan-of-study-converter/internal/plan"
)

// =============================================================================
// XML GENERATION OPTIONS
// =============================================================================

// GenerateOptions contains options for XML generation.
type GenerateOptions struct {
	// Indent is the string used for indentation.
	// Default: "  " (two spaces)
	Indent string

	// IncludeXMLDeclaration determines whether to include the XML declaration.
	// Default: true
	IncludeXMLDeclaration bool

	// Namespace is written as the root xmlns when set.
	Namespace string
}

// DefaultGenerateOptions returns the default generation options.
func DefaultGenerateOptions() GenerateOptions {
	return GenerateOptions{
		Indent:                "  ",
		IncludeXMLDeclaration: true,
	}
}

// =============================================================================
// XML DOCUMENT
// =============================================================================

// Document is the XML shape of a plan.
type Document struct {
	XMLName       xml.Name      `xml:"planOfStudy"`
	Namespace     string        `xml:"xmlns,attr,omitempty"`
	SchemaVersion int           `xml:"schemaVersion,attr"`
	Department    DepartmentXML `xml:"department"`
	Courses       CoursesXML    `xml:"courses"`
	Links         LinksXML      `xml:"links"`
}

type DepartmentXML struct {
	ID        int    `xml:"id,attr"`
	Name      string `xml:"name"`
	MajorCode string `xml:"majorCode,omitempty"`
}

type CoursesXML struct {
	Count   int         `xml:"count,attr"`
	Courses []CourseXML `xml:"course"`
}

type CourseXML struct {
	Code          string `xml:"code,attr"`
	CatalogNumber int    `xml:"catalogNumber,attr,omitempty"`
	Credits       string `xml:"credits,attr"`
	Type          string `xml:"type,attr"`
	Semesters     string `xml:"semesters,attr"`
	Title         string `xml:"title"`
}

type LinksXML struct {
	Count int       `xml:"count,attr"`
	Links []LinkXML `xml:"link"`
}

type LinkXML struct {
	N            int    `xml:"n,attr"`
	Course       string `xml:"course,attr"`
	Prerequisite string `xml:"prerequisite,attr,omitempty"`
	Corequisite  string `xml:"corequisite,attr,omitempty"`
}

// =============================================================================
// XML GENERATION FUNCTIONS
// =============================================================================

// Generate renders the plan with the default options.
func Generate(p *plan.PlanOfStudy) ([]byte, error) {
	return GenerateWithOptions(p, DefaultGenerateOptions())
}

// GenerateWithOptions renders the plan with custom options.
//
// RETURNS:
//   - The XML document as a byte slice, newline terminated.
//   - An error if marshaling fails.
func GenerateWithOptions(p *plan.PlanOfStudy, options GenerateOptions) ([]byte, error) {
	var buffer bytes.Buffer

	if options.IncludeXMLDeclaration {
		buffer.WriteString(xml.Header)
	}

	doc := BuildDocument(p)
	doc.Namespace = options.Namespace

	xmlBytes, err := xml.MarshalIndent(doc, "", options.Indent)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal XML: %w", err)
	}

	buffer.Write(xmlBytes)
	buffer.WriteString("\n")

	return buffer.Bytes(), nil
}

// BuildDocument maps a plan onto the XML structure.
func BuildDocument(p *plan.PlanOfStudy) *Document {
	doc := &Document{
		SchemaVersion: p.SchemaVersion,
		Department: DepartmentXML{
			ID:        p.Department.ID,
			Name:      p.Department.Name,
			MajorCode: p.MajorCode,
		},
		Courses: CoursesXML{Count: len(p.Courses)},
		Links:   LinksXML{Count: len(p.Links)},
	}

	for _, c := range p.Courses {
		doc.Courses.Courses = append(doc.Courses.Courses, CourseXML{
			Code:          c.Code,
			CatalogNumber: c.CatalogNumber,
			Credits:       strconv.FormatFloat(c.Credits, 'f', -1, 64),
			Type:          string(c.Type),
			Semesters:     string(c.Semesters),
			Title:         c.Title,
		})
	}

	for i, l := range p.Links {
		link := LinkXML{N: i + 1, Course: l.CourseCode}
		if l.PrerequisiteCode != nil {
			link.Prerequisite = *l.PrerequisiteCode
		}
		if l.CorequisiteCode != nil {
			link.Corequisite = *l.CorequisiteCode
		}
		doc.Links.Links = append(doc.Links.Links, link)
	}

	return doc
}

// =============================================================================
// XSD GENERATION
// =============================================================================

// GenerateXSD returns an XSD describing the documents Generate writes.
// The course type and semester enumerations come from the plan package so
// the schema follows the model.
func GenerateXSD() []byte {
	var buffer bytes.Buffer

	buffer.WriteString(xml.Header)
	buffer.WriteString(`<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema" elementFormDefault="qualified">` + "\n")

	writeEnum(&buffer, "courseType", courseTypes())
	writeEnum(&buffer, "semesters", semesters())

	buffer.WriteString(`  <xs:element name="planOfStudy">
    <xs:complexType>
      <xs:sequence>
        <xs:element name="department">
          <xs:complexType>
            <xs:sequence>
              <xs:element name="name" type="xs:string"/>
              <xs:element name="majorCode" type="xs:string" minOccurs="0"/>
            </xs:sequence>
            <xs:attribute name="id" type="xs:integer" use="required"/>
          </xs:complexType>
        </xs:element>
        <xs:element name="courses">
          <xs:complexType>
            <xs:sequence>
              <xs:element name="course" minOccurs="0" maxOccurs="unbounded">
                <xs:complexType>
                  <xs:sequence>
                    <xs:element name="title" type="xs:string"/>
                  </xs:sequence>
                  <xs:attribute name="code" type="xs:string" use="required"/>
                  <xs:attribute name="catalogNumber" type="xs:integer"/>
                  <xs:attribute name="credits" type="xs:decimal" use="required"/>
                  <xs:attribute name="type" type="courseType" use="required"/>
                  <xs:attribute name="semesters" type="semesters" use="required"/>
                </xs:complexType>
              </xs:element>
            </xs:sequence>
            <xs:attribute name="count" type="xs:integer" use="required"/>
          </xs:complexType>
        </xs:element>
        <xs:element name="links">
          <xs:complexType>
            <xs:sequence>
              <xs:element name="link" minOccurs="0" maxOccurs="unbounded">
                <xs:complexType>
                  <xs:attribute name="n" type="xs:positiveInteger" use="required"/>
                  <xs:attribute name="course" type="xs:string" use="required"/>
                  <xs:attribute name="prerequisite" type="xs:string"/>
                  <xs:attribute name="corequisite" type="xs:string"/>
                </xs:complexType>
              </xs:element>
            </xs:sequence>
            <xs:attribute name="count" type="xs:integer" use="required"/>
          </xs:complexType>
        </xs:element>
      </xs:sequence>
      <xs:attribute name="schemaVersion" type="xs:integer" use="required"/>
    </xs:complexType>
  </xs:element>
</xs:schema>
`)

	return buffer.Bytes()
}

func writeEnum(buffer *bytes.Buffer, name string, values []string) {
	fmt.Fprintf(buffer, "  <xs:simpleType name=%q>\n    <xs:restriction base=\"xs:string\">\n", name)
	for _, v := range values {
		fmt.Fprintf(buffer, "      <xs:enumeration value=%q/>\n", v)
	}
	buffer.WriteString("    </xs:restriction>\n  </xs:simpleType>\n")
}

func courseTypes() []string {
	out := make([]string, len(plan.CourseTypes))
	for i, t := range plan.CourseTypes {
		out[i] = string(t)
	}
	return out
}

func semesters() []string {
	out := make([]string, len(plan.Semesters))
	for i, s := range plan.Semesters {
		out[i] = string(s)
	}
	return out
}
