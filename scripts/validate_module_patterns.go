// validate_module_patterns.go lints report module packages so boundary
// violations fail CI before review: modules must stay behind pkg/reportapi,
// return errors instead of panicking, and export the Info/Run contract type.
package main

import (
	"fmt"
	"io"
	"os"

	"seqreport/internal/validation"
)

func main() {
	os.Exit(run(os.Args, os.Stderr, validation.ValidateModuleDirectory))
}

func run(args []string, stderr io.Writer, validate func(string) []validation.Error) int {
	if len(args) < 2 {
		progName := "validate_module_patterns"
		if len(args) > 0 {
			progName = args[0]
		}
		if _, err := fmt.Fprintf(stderr, "Usage: %s <module-directory> [<module-directory>...]\n", progName); err != nil {
			return 1
		}
		return 1
	}

	exit := 0
	for _, dir := range args[1:] {
		errors := validate(dir)
		if len(errors) == 0 {
			continue
		}
		exit = 1
		if _, err := fmt.Fprintf(stderr, "❌ Found %d module boundary violations in %s:\n\n", len(errors), dir); err != nil {
			return 1
		}
		for _, err := range errors {
			if _, writeErr := fmt.Fprintf(stderr, "🚨 %s:%d\n", err.File, err.Line); writeErr != nil {
				return 1
			}
			if _, writeErr := fmt.Fprintf(stderr, "   %s\n", err.Message); writeErr != nil {
				return 1
			}
			if _, writeErr := fmt.Fprintf(stderr, "   Code: %s\n\n", err.Code); writeErr != nil {
				return 1
			}
		}
	}
	return exit
}
