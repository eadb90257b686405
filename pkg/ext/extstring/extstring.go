// Package extstring provides string functions beyond the built-ins.
// Positions and lengths count characters, not bytes.
package extstring

import (
	"context"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/sandrolain/gomathex/pkg/ext/extutil"
	"github.com/sandrolain/gomathex/pkg/functions"
	"github.com/sandrolain/gomathex/pkg/types"
)

// maxResultLen bounds the strings built by repeat and the pad functions.
const maxResultLen = 1 << 20

// All returns all extended string function definitions.
func All() []functions.Definition {
	return []functions.Definition{
		StartsWith(),
		EndsWith(),
		LastIndexOf(),
		Capitalize(),
		TitleCase(),
		CamelCase(),
		SnakeCase(),
		KebabCase(),
		Repeat(),
		PadLeft(),
		PadRight(),
		WordCount(),
	}
}

// StartsWith returns the definition for startsWith(str, prefix).
func StartsWith() functions.Definition {
	return predicate("startsWith", strings.HasPrefix)
}

// EndsWith returns the definition for endsWith(str, suffix).
func EndsWith() functions.Definition {
	return predicate("endsWith", strings.HasSuffix)
}

func predicate(name string, fn func(s, t string) bool) functions.Definition {
	return functions.Definition{
		Name:      name,
		Signature: "<ss:b>",
		Fn: func(_ context.Context, args ...types.Value) (types.Value, error) {
			return types.Bool(fn(args[0].Str, args[1].Str)), nil
		},
	}
}

// LastIndexOf returns the definition for lastIndexOf(str, search).
// Returns -1 when not found.
func LastIndexOf() functions.Definition {
	return functions.Definition{
		Name:        "lastIndexOf",
		Signature:   "<ss:i>",
		Description: "character index of the last occurrence or -1",
		Fn: func(_ context.Context, args ...types.Value) (types.Value, error) {
			str := args[0].Str
			idx := strings.LastIndex(str, args[1].Str)
			if idx < 0 {
				return types.Int(-1), nil
			}
			return types.Int(int64(utf8.RuneCountInString(str[:idx]))), nil
		},
	}
}

// Capitalize returns the definition for capitalize(str).
// Uppercases the first character, lowercases the rest.
func Capitalize() functions.Definition {
	return mapping("capitalize", func(str string) string {
		if str == "" {
			return str
		}
		runes := []rune(strings.ToLower(str))
		runes[0] = unicode.ToUpper(runes[0])
		return string(runes)
	})
}

// TitleCase returns the definition for titleCase(str).
// Uppercases the first character of each word.
func TitleCase() functions.Definition {
	return mapping("titleCase", func(str string) string {
		runes := []rune(strings.ToLower(str))
		start := true
		for i, r := range runes {
			if unicode.IsSpace(r) {
				start = true
				continue
			}
			if start {
				runes[i] = unicode.ToUpper(r)
				start = false
			}
		}
		return string(runes)
	})
}

// CamelCase returns the definition for camelCase(str).
func CamelCase() functions.Definition {
	return mapping("camelCase", func(str string) string {
		words := splitIntoWords(str)
		if len(words) == 0 {
			return ""
		}
		var b strings.Builder
		b.WriteString(strings.ToLower(words[0]))
		for _, w := range words[1:] {
			runes := []rune(strings.ToLower(w))
			runes[0] = unicode.ToUpper(runes[0])
			b.WriteString(string(runes))
		}
		return b.String()
	})
}

// SnakeCase returns the definition for snakeCase(str).
func SnakeCase() functions.Definition {
	return mapping("snakeCase", func(str string) string {
		return joinLower(splitIntoWords(str), "_")
	})
}

// KebabCase returns the definition for kebabCase(str).
func KebabCase() functions.Definition {
	return mapping("kebabCase", func(str string) string {
		return joinLower(splitIntoWords(str), "-")
	})
}

func mapping(name string, fn func(string) string) functions.Definition {
	return functions.Definition{
		Name:      name,
		Signature: "<s:s>",
		Fn: func(_ context.Context, args ...types.Value) (types.Value, error) {
			return types.String(fn(args[0].Str)), nil
		},
	}
}

// splitWordsRe splits on camelCase humps, snake_case, kebab-case and spaces.
var splitWordsRe = regexp.MustCompile(`[_\-\s]+|([a-z])([A-Z])`)

func splitIntoWords(str string) []string {
	expanded := splitWordsRe.ReplaceAllStringFunc(str, func(s string) string {
		if len(s) == 2 && s[0] >= 'a' && s[0] <= 'z' {
			return string(s[0]) + " " + string(s[1])
		}
		return " "
	})
	return strings.Fields(expanded)
}

func joinLower(words []string, sep string) string {
	for i, w := range words {
		words[i] = strings.ToLower(w)
	}
	return strings.Join(words, sep)
}

// Repeat returns the definition for repeat(str, n).
func Repeat() functions.Definition {
	return functions.Definition{
		Name:      "repeat",
		Signature: "<si:s>",
		Fn: func(_ context.Context, args ...types.Value) (types.Value, error) {
			str, n := args[0].Str, args[1].Int
			if n < 0 {
				return types.Value{}, extutil.Invalid("repeat", "count must be non-negative, got %d", n)
			}
			if len(str) > 0 && n > maxResultLen/int64(len(str)) {
				return types.Value{}, extutil.Invalid("repeat", "result longer than %d bytes", maxResultLen)
			}
			return types.String(strings.Repeat(str, int(n))), nil
		},
	}
}

// PadLeft returns the definition for padLeft(str, width, pad).
func PadLeft() functions.Definition {
	return pad("padLeft", true)
}

// PadRight returns the definition for padRight(str, width, pad).
func PadRight() functions.Definition {
	return pad("padRight", false)
}

func pad(name string, left bool) functions.Definition {
	return functions.Definition{
		Name:        name,
		Signature:   "<sis:s>",
		Description: "str padded with pad to width characters",
		Fn: func(_ context.Context, args ...types.Value) (types.Value, error) {
			str, width, filler := args[0].Str, args[1].Int, args[2].Str
			if width > maxResultLen {
				return types.Value{}, extutil.Invalid(name, "width %d exceeds %d", width, maxResultLen)
			}
			missing := int(width) - utf8.RuneCountInString(str)
			if missing <= 0 {
				return types.String(str), nil
			}
			if filler == "" {
				return types.Value{}, extutil.Invalid(name, "empty pad string")
			}
			fill := []rune(strings.Repeat(filler, missing/utf8.RuneCountInString(filler)+1))[:missing]
			if left {
				return types.String(string(fill) + str), nil
			}
			return types.String(str + string(fill)), nil
		},
	}
}

// WordCount returns the definition for wordCount(str).
func WordCount() functions.Definition {
	return functions.Definition{
		Name:      "wordCount",
		Signature: "<s:i>",
		Fn: func(_ context.Context, args ...types.Value) (types.Value, error) {
			return types.Int(int64(len(strings.Fields(args[0].Str)))), nil
		},
	}
}
