package posparser

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ginjaninja78/plan-of-study-converter/internal/types"
)

const (
	majorTitleLabel = "Major Title:"
	majorCodeLabel  = "Major Code:"

	// metadataColumn holds the metadata cell in header rows and the
	// corequisite list in data rows.
	metadataColumn = 4
)

// Metadata is what the multi-line metadata cell yields.
type Metadata struct {
	DepartmentName string
	MajorCode      string
	Row            int // 0-based grid index
}

// ExtractMetadata finds the first row whose column E (index 4) cell carries both the
// "Major Title:" and "Major Code:" labels and reads the department name from
// its first line and the major code from its third line.
func ExtractMetadata(grid types.Grid, majorCodePrefix string) (Metadata, error) {
	for i, row := range grid {
		content := row.At(metadataColumn).Value
		if !strings.Contains(content, majorTitleLabel) || !strings.Contains(content, majorCodeLabel) {
			continue
		}

		lines := splitLines(content)
		if len(lines) < 3 {
			return Metadata{}, fmt.Errorf("%w: row %d has %d metadata lines, need 3", ErrMissingMetadata, i+1, len(lines))
		}

		name := labelValue(lines[0])
		if name == "" {
			return Metadata{}, fmt.Errorf("%w: row %d has no department name", ErrMissingMetadata, i+1)
		}

		return Metadata{
			DepartmentName: name,
			MajorCode:      majorCode(lines[2], majorCodePrefix),
			Row:            i,
		}, nil
	}

	return Metadata{}, ErrMissingMetadata
}

// splitLines normalizes CRLF and lone CR to LF, then splits and trims.
func splitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	lines := strings.Split(s, "\n")
	for i := range lines {
		lines[i] = strings.TrimSpace(lines[i])
	}
	return lines
}

// labelValue returns the text after the first ": " of a labeled line.
func labelValue(line string) string {
	_, after, found := strings.Cut(line, ": ")
	if !found {
		return ""
	}
	return strings.TrimSpace(after)
}

// majorCode pulls "<prefix><digits>" out of the major-code line, falling
// back to "<prefix>000".
func majorCode(line, prefix string) string {
	value := labelValue(line)
	if value == "" {
		value = line
	}
	pattern := regexp.MustCompile(regexp.QuoteMeta(prefix) + `\d+`)
	if m := pattern.FindString(value); m != "" {
		return m
	}
	return prefix + "000"
}
