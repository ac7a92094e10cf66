// =============================================================================
// Plan of Study Converter - Main Entry Point
// =============================================================================
//
// USAGE:
//   posconv parse FILE    - Print one plan as JSON or XML
//   posconv convert       - Convert every spreadsheet in the input directory
//   posconv check FILE    - Report row and reference problems
//   posconv serve         - Run the HTTP API
//   posconv version       - Display the application version
//
// ARCHITECTURE:
//   - cmd/           : CLI command definitions (Cobra)
//   - internal/      : Parsing, conversion, storage and the HTTP API
//   - pkg/           : Shared file utilities
//   - configs/       : Optional department profiles (YAML)
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/plan-of-study-converter/cmd"
)

func main() {
	cmd.Execute()
}
