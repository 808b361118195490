// Package modules hosts the report module subpackages. It intentionally
// contains no production runtime code itself; this file exists to satisfy
// tooling (go vet, import linters) for the architectural guard tests that
// live alongside it.
//
// Every module subpackage must depend only on the stable facade in
// pkg/reportapi. The host wires discovery, sample filtering, data files,
// and sections behind that interface, so a module compiled today keeps
// working when the host internals move.
//
// A NOTE ON testhelper:
//
//	The subpackage modules/testhelper is test-only plumbing: a fake
//	reportapi.Host that records everything a module emits. It is not a
//	module and is excluded from the architecture test below so that it
//	stays free to reach into host internals for fixture construction if
//	that ever becomes necessary. Do not import testhelper in production
//	module code; it may change without stability guarantees.
package modules
