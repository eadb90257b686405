// Package ext provides optional function catalogs that go beyond the
// built-in function table.
//
// The functions live in sub-packages grouped by category:
//   - extnumeric - clamp, hypot, lerp, pi, e, median, variance, stddev, percentile, mode
//   - extstring  - startsWith, endsWith, lastIndexOf, camelCase, padLeft, repeat, …
//   - extcrypto  - uuid, sha256, crc32, hash, hmac
//
// # Integration - all extensions at once
//
//	ev := evaluator.New()
//	if err := ev.RegisterFunctionsCatalog(ext.All()); err != nil {
//	    return err
//	}
//
// # Integration - by category
//
//	err := ev.RegisterFunctionsCatalog(ext.Numeric())
//
// # Integration - single function from a sub-package
//
//	import "github.com/sandrolain/gomathex/pkg/ext/extstring"
//
//	err := ev.RegisterFunctionsCatalog(functions.Definitions{extstring.StartsWith()})
//
// Catalogs must be registered before the evaluator interprets its first
// expression.
package ext

import (
	"github.com/sandrolain/gomathex/pkg/ext/extcrypto"
	"github.com/sandrolain/gomathex/pkg/ext/extnumeric"
	"github.com/sandrolain/gomathex/pkg/ext/extstring"
	"github.com/sandrolain/gomathex/pkg/functions"
)

// All returns a catalog with every extension function.
func All() functions.Catalog {
	var all functions.Definitions
	all = append(all, extnumeric.All()...)
	all = append(all, extstring.All()...)
	all = append(all, extcrypto.All()...)
	return all
}

// Numeric returns the extended numeric functions.
func Numeric() functions.Catalog {
	return functions.Definitions(extnumeric.All())
}

// String returns the extended string functions.
func String() functions.Catalog {
	return functions.Definitions(extstring.All())
}

// Crypto returns the hashing and identifier functions.
func Crypto() functions.Catalog {
	return functions.Definitions(extcrypto.All())
}

// ByName returns the catalog registered under name: "all", "numeric",
// "string" or "crypto".
func ByName(name string) (functions.Catalog, bool) {
	switch name {
	case "all":
		return All(), true
	case "numeric":
		return Numeric(), true
	case "string":
		return String(), true
	case "crypto":
		return Crypto(), true
	}
	return nil, false
}
