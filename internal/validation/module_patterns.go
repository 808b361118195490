// Package validation provides source-level checks that keep report module
// code behind the pkg/reportapi boundary.
package validation

import (
	"bufio"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Error represents a module boundary violation found in code
type Error struct {
	File    string
	Line    int
	Message string
	Code    string
}

// reportAPIImport is the one repository import module packages may take.
const reportAPIImport = "seqreport/pkg/reportapi"

// ValidateModuleDirectory validates all Go files in a module directory for
// host boundary compliance: repository imports stay on the reportapi facade,
// failures surface as returned errors rather than panics or process writes,
// and the package exports a type satisfying the Info/Run module contract.
func ValidateModuleDirectory(dir string) []Error {
	var errors []Error

	err := filepath.Walk(dir, func(path string, _ os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		if !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return nil
		}

		fileErrors := validateModuleFile(path)
		errors = append(errors, fileErrors...)
		return nil
	})

	if err != nil {
		// Add a validation error for walk failures instead of just logging
		errors = append(errors, Error{
			File:    dir,
			Line:    0,
			Message: "Failed to walk directory: " + err.Error(),
			Code:    "",
		})
		return errors
	}

	errors = append(errors, validateModuleContract(dir)...)
	return errors
}

func validateModuleFile(filePath string) []Error {
	var errors []Error

	// Text-based validation (catches string patterns)
	textErrors := validateFileText(filePath)
	errors = append(errors, textErrors...)

	// AST-based validation (catches structural patterns)
	astErrors := validateFileAST(filePath)
	errors = append(errors, astErrors...)

	return errors
}

func validateFileText(filePath string) []Error {
	var errors []Error

	file, err := os.Open(filepath.Clean(filePath))
	if err != nil {
		return append(errors, Error{
			File:    filePath,
			Line:    0,
			Message: "Failed to open file: " + err.Error(),
			Code:    "",
		})
	}
	defer func() {
		_ = file.Close() // Best effort close, ignore error
	}()

	// Anti-patterns to detect via regex
	antiPatterns := getAntiPatterns()

	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := scanner.Text()

		// Skip comments and empty lines
		if strings.TrimSpace(line) == "" || isCommentLine(line) {
			continue
		}

		for pattern, message := range antiPatterns {
			if matched, _ := regexp.MatchString(pattern, line); matched {
				errors = append(errors, Error{
					File:    filePath,
					Line:    lineNum,
					Message: message,
					Code:    strings.TrimSpace(line),
				})
			}
		}
	}

	return errors
}

func getAntiPatterns() map[string]string {
	return map[string]string{
		`\bfmt\.(Print|Printf|Println)\(`:                                        "Write through the host logger instead of standard output",
		`\blog\.(Print|Printf|Println|Fatal|Fatalf|Fatalln|Panic|Panicf|Panicln)`: "Use the host logger instead of the global log package",
		`\bos\.(Stdout|Stderr)\b`:                                                 "Modules must not write to process streams",
		`\bos\.Exit\(`:                                                            "Modules must return errors, never exit the process",
		`\bos\.(Open|ReadFile|ReadDir|Create|WriteFile)\(`:                        "Read discovered files through the host, not the filesystem",
	}
}

func validateFileAST(filePath string) []Error {
	var errors []Error

	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, filePath, nil, parser.ParseComments)
	if err != nil {
		// If we can't parse it, skip AST validation
		return errors
	}

	for _, imp := range file.Imports {
		path := strings.Trim(imp.Path.Value, "\"")
		if forbiddenModuleImport(path) {
			pos := fset.Position(imp.Pos())
			errors = append(errors, Error{
				File:    pos.Filename,
				Line:    pos.Line,
				Message: "Modules import only " + reportAPIImport + " from this repository",
				Code:    path,
			})
		}
	}

	ast.Inspect(file, func(n ast.Node) bool {
		call, ok := n.(*ast.CallExpr)
		if !ok {
			return true
		}
		if ident, ok := call.Fun.(*ast.Ident); ok && ident.Name == "panic" {
			pos := fset.Position(call.Pos())
			errors = append(errors, Error{
				File:    pos.Filename,
				Line:    pos.Line,
				Message: "Modules must return errors instead of panicking",
				Code:    "panic(...)",
			})
		}
		return true
	})

	return errors
}

func forbiddenModuleImport(path string) bool {
	if path != "seqreport" && !strings.HasPrefix(path, "seqreport/") {
		return false
	}
	return path != reportAPIImport
}

// validateModuleContract checks that the package in dir exports a type with
// the two module methods: Info() with one result and Run(ctx, host) with two
// parameters and one result. The check is shape-only; the compiler enforces
// the exact signatures when the module is registered.
func validateModuleContract(dir string) []Error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return []Error{{
			File:    dir,
			Message: "Failed to read directory: " + err.Error(),
		}}
	}

	fset := token.NewFileSet()
	methods := make(map[string]map[string]*ast.FuncDecl)

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") {
			continue
		}
		file, err := parser.ParseFile(fset, filepath.Join(dir, name), nil, 0)
		if err != nil {
			// Parse trouble is reported by the per-file checks
			continue
		}
		for _, decl := range file.Decls {
			fn, ok := decl.(*ast.FuncDecl)
			if !ok {
				continue
			}
			recv := receiverTypeName(fn)
			if recv == "" || !ast.IsExported(recv) {
				continue
			}
			if methods[recv] == nil {
				methods[recv] = make(map[string]*ast.FuncDecl)
			}
			methods[recv][fn.Name.Name] = fn
		}
	}

	for _, set := range methods {
		info, hasInfo := set["Info"]
		run, hasRun := set["Run"]
		if !hasInfo || !hasRun {
			continue
		}
		if info.Type.Params.NumFields() == 0 && info.Type.Results.NumFields() == 1 &&
			run.Type.Params.NumFields() == 2 && run.Type.Results.NumFields() == 1 {
			return nil
		}
	}

	return []Error{{
		File:    dir,
		Message: "No exported type implements the module contract: Info() metadata and Run(ctx, host) error",
	}}
}

func receiverTypeName(fn *ast.FuncDecl) string {
	if fn.Recv == nil || len(fn.Recv.List) == 0 {
		return ""
	}
	switch t := fn.Recv.List[0].Type.(type) {
	case *ast.Ident:
		return t.Name
	case *ast.StarExpr:
		if ident, ok := t.X.(*ast.Ident); ok {
			return ident.Name
		}
	}
	return ""
}

func isCommentLine(line string) bool {
	trimmed := strings.TrimSpace(line)
	return strings.HasPrefix(trimmed, "//") || strings.HasPrefix(trimmed, "/*")
}
