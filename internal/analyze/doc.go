// Package analyze loads Go packages and describes their named types as
// schema types.
//
// It uses golang.org/x/tools/go/packages with go/types, so the command line
// tool can validate rule files and generate mappers without running the
// code it describes.
//
// Key types:
//   - Graph: named types of the loaded packages, keyed by schema.TypeID
//   - Package: import path, name, directory and declared types
//   - Analyzer: the loader; one Analyzer shares its type cache across loads
package analyze
