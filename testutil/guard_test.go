package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestInternalImportForbiddenPredicate(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"seqreport/internal/report", true},
		{"example.com/mod/internal/x", true},
		{"example.com/some/internal/deep/path", true},
		{"example.com/mod/pkg/x", false},
		{"example.com/internal", false}, // no trailing slash, not a segment prefix
		{"notinternal", false},
		{"", false},
	}
	for _, c := range cases {
		if got := InternalImportForbidden(c.in); got != c.want {
			t.Fatalf("InternalImportForbidden(%q)=%v want %v", c.in, got, c.want)
		}
	}
}

func TestHostImportForbiddenPredicate(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"seqreport/pkg/reportapi", false},
		{"seqreport/internal/report", true},
		{"seqreport/internal/adapters/render", true},
		{"seqreport/modules/testhelper", true},
		{"seqreport", true}, // the bare module root is not the facade
		{"seqreportlib/pkg/reportapi", false}, // prefix of another module's name
		{"github.com/google/uuid", false},
		{"fmt", false},
	}
	for _, c := range cases {
		if got := HostImportForbidden(c.in); got != c.want {
			t.Fatalf("HostImportForbidden(%q)=%v want %v", c.in, got, c.want)
		}
	}
}

func writeSource(t *testing.T, dir, name, src string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(src), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

// TestAssertNoDirectImports exercises the success path with a tiny temp package.
func TestAssertNoDirectImports(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "x.go", "package tmp\nimport \"fmt\"\nfunc X(){fmt.Println(1)}")
	AssertNoDirectImports(t, dir, func(string) bool { return false }, "none")
}

// TestAssertNoDirectImportsSkipsTestFiles checks that _test.go files are not
// scanned: tests may import helpers that production code must not.
func TestAssertNoDirectImportsSkipsTestFiles(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "main.go", "package tmp\nimport \"fmt\"\nfunc X(){fmt.Println(1)}")
	writeSource(t, dir, "main_test.go", `package tmp
import "testing"
import "some/forbidden/package"
func TestX(t *testing.T) {}`)

	AssertNoDirectImports(t, dir, func(ip string) bool {
		return ip == "some/forbidden/package"
	}, "test files are exempt")
}

// TestAssertNoDirectImportsSkipsSubdirectories checks the scan is not recursive.
func TestAssertNoDirectImportsSkipsSubdirectories(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "sub")
	if err := os.Mkdir(sub, 0o750); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	writeSource(t, sub, "sub.go", "package sub\nimport \"some/forbidden/package\"\nfunc X(){}")
	writeSource(t, dir, "safe.go", "package tmp\nimport \"fmt\"\nfunc Y(){fmt.Println(1)}")

	AssertNoDirectImports(t, dir, func(ip string) bool {
		return ip == "some/forbidden/package"
	}, "subdirectories are their own packages")
}

// TestAssertNoDirectImportsImportStyles covers single imports, blocks,
// aliases, and dot imports.
func TestAssertNoDirectImportsImportStyles(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "styles.go", `package tmp
import "fmt"
import (
	"os"
	alias "context"
	. "io"
)
func X() { _ = fmt.Sprint(os.Args); _ = alias.Background() }`)

	var seen []string
	AssertNoDirectImports(t, dir, func(ip string) bool {
		seen = append(seen, ip)
		return false
	}, "collect only")
	want := []string{"fmt", "os", "context", "io"}
	if len(seen) != len(want) {
		t.Fatalf("scanned imports %v, want %v", seen, want)
	}
	for i, ip := range want {
		if seen[i] != ip {
			t.Fatalf("scanned imports %v, want %v", seen, want)
		}
	}
}

// TestAssertNoTransitiveDependency runs against this package with a predicate
// that always returns false to exercise the go list path.
func TestAssertNoTransitiveDependency(t *testing.T) {
	AssertNoTransitiveDependency(t, ".", func(string) bool { return false }, "none")
}

type recordingFatal struct {
	message string
}

func (r *recordingFatal) Fatalf(format string, args ...any) {
	r.message = fmt.Sprintf(format, args...)
}

func TestFailHelpersReportViolations(t *testing.T) {
	rec := &recordingFatal{}
	failIfDirectViolations(rec, "boundary", []string{"bad/import (in x.go)"})
	if rec.message == "" || !strings.Contains(rec.message, "forbidden direct imports") {
		t.Fatalf("unexpected failure message %q", rec.message)
	}

	rec = &recordingFatal{}
	failIfTransitiveViolations(rec, "boundary", []string{"bad/dep"})
	if !strings.Contains(rec.message, "forbidden transitive dependency") {
		t.Fatalf("unexpected failure message %q", rec.message)
	}

	rec = &recordingFatal{}
	failIfDirectViolations(rec, "boundary", nil)
	failIfTransitiveViolations(rec, "boundary", nil)
	if rec.message != "" {
		t.Fatalf("no violations must not fail, got %q", rec.message)
	}
}
