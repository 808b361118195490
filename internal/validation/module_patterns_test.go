package validation

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// moduleSource is a minimal module package that satisfies every rule.
const moduleSource = `package sample

import (
	"context"

	"seqreport/pkg/reportapi"
)

type Module struct{}

func (m *Module) Info() reportapi.Info { return reportapi.Info{Name: "Sample"} }

func (m *Module) Run(ctx context.Context, h reportapi.Host) error {
	return reportapi.ErrNoSamples
}
`

func writeModuleFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0600); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
}

func TestValidateModuleDirectoryCleanModule(t *testing.T) {
	tempDir := t.TempDir()
	writeModuleFile(t, tempDir, "module.go", moduleSource)

	if errors := ValidateModuleDirectory(tempDir); len(errors) != 0 {
		t.Fatalf("Expected no errors for clean module, got %v", errors)
	}
}

func TestValidateModuleDirectoryFlagsHostImports(t *testing.T) {
	tempDir := t.TempDir()
	writeModuleFile(t, tempDir, "module.go", moduleSource)
	writeModuleFile(t, tempDir, "leaky.go", `package sample

import (
	"seqreport/internal/report"
	"seqreport/modules/testhelper"
)

var _ = report.AuditEntry{}
var _ = testhelper.New
`)

	errors := ValidateModuleDirectory(tempDir)
	if len(errors) != 2 {
		t.Fatalf("Expected 2 import violations, got %d: %v", len(errors), errors)
	}
	for _, err := range errors {
		if !strings.Contains(err.Message, "only seqreport/pkg/reportapi") {
			t.Errorf("Expected import rule message, got: %s", err.Message)
		}
		if !strings.Contains(err.File, "leaky.go") {
			t.Errorf("Expected error from leaky.go, got error from %s", err.File)
		}
	}
}

func TestValidateModuleDirectoryFlagsPanic(t *testing.T) {
	tempDir := t.TempDir()
	writeModuleFile(t, tempDir, "module.go", moduleSource)
	writeModuleFile(t, tempDir, "panicky.go", `package sample

func mustParse(raw string) int {
	panic("unreachable")
}
`)

	errors := ValidateModuleDirectory(tempDir)
	if len(errors) != 1 {
		t.Fatalf("Expected 1 panic violation, got %d: %v", len(errors), errors)
	}
	if !strings.Contains(errors[0].Message, "instead of panicking") {
		t.Errorf("Expected panic message, got: %s", errors[0].Message)
	}
	if errors[0].Line != 4 {
		t.Errorf("Expected violation on line 4, got %d", errors[0].Line)
	}
}

func TestValidateModuleDirectoryFlagsProcessWrites(t *testing.T) {
	tempDir := t.TempDir()
	writeModuleFile(t, tempDir, "module.go", moduleSource)
	writeModuleFile(t, tempDir, "noisy.go", `package sample

import (
	"fmt"
	"log"
	"os"
)

func report() {
	fmt.Println("done")
	log.Printf("done")
	os.Exit(1)
}
`)

	errors := ValidateModuleDirectory(tempDir)

	foundPrint := false
	foundGlobalLog := false
	foundExit := false
	for _, err := range errors {
		if strings.Contains(err.Message, "host logger instead of standard output") {
			foundPrint = true
		}
		if strings.Contains(err.Message, "global log package") {
			foundGlobalLog = true
		}
		if strings.Contains(err.Message, "never exit the process") {
			foundExit = true
		}
	}
	if !foundPrint {
		t.Error("Expected to find fmt.Println violation")
	}
	if !foundGlobalLog {
		t.Error("Expected to find log.Printf violation")
	}
	if !foundExit {
		t.Error("Expected to find os.Exit violation")
	}
}

func TestValidateModuleDirectoryFlagsDirectFileAccess(t *testing.T) {
	tempDir := t.TempDir()
	writeModuleFile(t, tempDir, "module.go", moduleSource)
	writeModuleFile(t, tempDir, "reader.go", `package sample

import "os"

func slurp(path string) ([]byte, error) {
	return os.ReadFile(path)
}
`)

	errors := ValidateModuleDirectory(tempDir)
	if len(errors) != 1 {
		t.Fatalf("Expected 1 violation, got %d: %v", len(errors), errors)
	}
	if !strings.Contains(errors[0].Message, "through the host") {
		t.Errorf("Expected file access message, got: %s", errors[0].Message)
	}
}

func TestValidateModuleDirectoryRequiresContract(t *testing.T) {
	tempDir := t.TempDir()
	writeModuleFile(t, tempDir, "module.go", `package sample

import "seqreport/pkg/reportapi"

type Module struct{}

func (m *Module) Info() reportapi.Info { return reportapi.Info{} }
`)

	errors := ValidateModuleDirectory(tempDir)
	if len(errors) != 1 {
		t.Fatalf("Expected 1 contract violation, got %d: %v", len(errors), errors)
	}
	if !strings.Contains(errors[0].Message, "module contract") {
		t.Errorf("Expected contract message, got: %s", errors[0].Message)
	}
}

func TestValidateModuleDirectoryContractIgnoresUnexportedTypes(t *testing.T) {
	tempDir := t.TempDir()
	writeModuleFile(t, tempDir, "module.go", `package sample

import (
	"context"

	"seqreport/pkg/reportapi"
)

type module struct{}

func (m *module) Info() reportapi.Info { return reportapi.Info{} }

func (m *module) Run(ctx context.Context, h reportapi.Host) error { return nil }
`)

	errors := ValidateModuleDirectory(tempDir)
	if len(errors) != 1 || !strings.Contains(errors[0].Message, "module contract") {
		t.Fatalf("Expected contract violation for unexported type, got %v", errors)
	}
}

func TestValidateFileTextWithComments(t *testing.T) {
	tempDir := t.TempDir()
	testFile := filepath.Join(tempDir, "comments.go")
	content := `package sample

// fmt.Println in a comment should be ignored
/* log.Printf in a block comment too */
func example() {
	// inline comment mentioning os.Exit(
	value := os.Stdout // This should be caught
	_ = value
}
`
	writeModuleFile(t, tempDir, "comments.go", content)

	errors := validateFileText(testFile)

	if len(errors) != 1 {
		t.Fatalf("Expected 1 error but got %d: %v", len(errors), errors)
	}
	if !strings.Contains(errors[0].Code, "value := os.Stdout") {
		t.Errorf("Expected error on actual code line, got: %s", errors[0].Code)
	}
}

func TestForbiddenModuleImport(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"seqreport/pkg/reportapi", false},
		{"seqreport/internal/report", true},
		{"seqreport/internal/discovery", true},
		{"seqreport", true},
		{"encoding/json", false},
		{"github.com/google/uuid", false},
		{"seqreportkit/pkg/reportapi", false},
	}
	for _, c := range cases {
		if got := forbiddenModuleImport(c.in); got != c.want {
			t.Errorf("forbiddenModuleImport(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestIsCommentLine(t *testing.T) {
	tests := []struct {
		line     string
		expected bool
	}{
		{"// single line comment", true},
		{"   // indented comment", true},
		{"/* block comment */", true},
		{"  /* indented block comment", true},
		{"actual code", false},
		{"var x = 5 // inline comment should be false", false},
		{"", false},
		{"   ", false},
	}

	for _, test := range tests {
		result := isCommentLine(test.line)
		if result != test.expected {
			t.Errorf("isCommentLine(%q) = %v, expected %v", test.line, result, test.expected)
		}
	}
}

func TestValidateModuleDirectorySkipsTestFiles(t *testing.T) {
	tempDir := t.TempDir()
	writeModuleFile(t, tempDir, "module.go", moduleSource)
	writeModuleFile(t, tempDir, "module_test.go", `package sample

import "seqreport/modules/testhelper"

var _ = testhelper.New
`)

	if errors := ValidateModuleDirectory(tempDir); len(errors) != 0 {
		t.Fatalf("Test files must be exempt, got %v", errors)
	}
}

func TestValidateModuleDirectoryNonExistent(t *testing.T) {
	errors := ValidateModuleDirectory("/nonexistent/directory")

	if len(errors) == 0 {
		t.Fatal("Expected validation error for non-existent directory")
	}
	if !strings.Contains(errors[0].Message, "Failed to walk directory") {
		t.Errorf("Expected walk directory error, got: %s", errors[0].Message)
	}
}

func TestValidateFileTextUnreadableFile(t *testing.T) {
	errors := validateFileText("/nonexistent/file.go")

	if len(errors) == 0 {
		t.Fatal("Expected validation error for unreadable file")
	}
	if !strings.Contains(errors[0].Message, "Failed to open file") {
		t.Errorf("Expected file open error, got: %s", errors[0].Message)
	}
}

// TestValidateModuleDirectoryOnRealModules runs the lint over the repository's
// own module tree so regressions surface here before CI.
func TestValidateModuleDirectoryOnRealModules(t *testing.T) {
	if errors := ValidateModuleDirectory(filepath.Join("..", "..", "modules", "multivcfanalyzer")); len(errors) != 0 {
		t.Fatalf("modules/multivcfanalyzer violates module patterns: %v", errors)
	}
}
