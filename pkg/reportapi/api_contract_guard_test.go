package reportapi

import (
	"strings"
	"testing"

	"seqreport/testutil"
)

// TestFacadeBoundaryGuards enforces that the facade stays dependency-free.
// Modules compile against this package alone, so anything it pulled in,
// every module would inherit.
func TestFacadeBoundaryGuards(t *testing.T) {
	testutil.AssertNoDirectImports(t, ".", testutil.InternalImportForbidden,
		"facade must not import host internals")

	// Standard library import paths carry no dot; anything with one is a
	// third-party module.
	testutil.AssertNoTransitiveDependency(t, ".", func(p string) bool {
		return testutil.InternalImportForbidden(p) || strings.Contains(p, ".")
	}, "facade depends on the standard library only")
}
