// Package types defines the value model shared by every gomathex package.
//
// This package contains:
//   - ValueType / TypeSet: the closed set of supported value types
//   - Value: a typed runtime value
//   - Tolerance: comparison slack applied at evaluation time
//   - DataFinder: the external lookup collaborator
//   - Error: structured errors with kinds and codes
package types
