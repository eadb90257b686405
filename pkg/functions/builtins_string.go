package functions

import (
	"context"
	"encoding/hex"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/sandrolain/gomathex/pkg/types"
)

func stringBuiltins() []Definition {
	return []Definition{
		{Name: "len", Signature: "<(sy):i>", Fn: fnLen, Description: "characters of a string or bytes of a byte array"},
		{Name: "substring", Signature: "<si:s>", Fn: fnSubstring, Description: "characters from start to end"},
		{Name: "substring", Signature: "<sii:s>", Fn: fnSubstring, Description: "length characters from start"},
		{Name: "indexof", Signature: "<ss:i>", Fn: fnIndexOf, Description: "character index of needle or -1"},
		{Name: "indexof", Signature: "<ssi:i>", Fn: fnIndexOf, Description: "character index of needle at or after start or -1"},
		{Name: "upper", Signature: "<s:s>", Fn: stringMap(strings.ToUpper)},
		{Name: "lower", Signature: "<s:s>", Fn: stringMap(strings.ToLower)},
		{Name: "trim", Signature: "<s:s>", Fn: stringMap(strings.TrimSpace)},
		{Name: "replace", Signature: "<sss:s>", Fn: fnReplace, Description: "replace every occurrence"},
		{Name: "concat", Signature: "<s+:s>", Fn: fnConcat},
		{Name: "bytes", Signature: "<s:y>", Fn: fnBytes, Description: "UTF-8 encoding of a string"},
		{Name: "hex", Signature: "<(iy):s>", Fn: fnHex, Description: "lowercase hexadecimal form"},
	}
}

func stringMap(fn func(string) string) Func {
	return func(_ context.Context, args ...types.Value) (types.Value, error) {
		return types.String(fn(args[0].Str)), nil
	}
}

func fnLen(_ context.Context, args ...types.Value) (types.Value, error) {
	if args[0].Type == types.TypeByteArray {
		return types.Int(int64(len(args[0].Bytes))), nil
	}
	return types.Int(int64(utf8.RuneCountInString(args[0].Str))), nil
}

func fnSubstring(_ context.Context, args ...types.Value) (types.Value, error) {
	runes := []rune(args[0].Str)
	n := int64(len(runes))
	start := args[1].Int
	length := n - start
	if len(args) > 2 {
		length = args[2].Int
	}
	if start < 0 || start > n {
		return types.Value{}, types.Evalf(types.ErrCodeInvalidArgument,
			"substring: start %d out of range [0, %d]", start, n)
	}
	if length < 0 || length > n-start {
		return types.Value{}, types.Evalf(types.ErrCodeInvalidArgument,
			"substring: length %d out of range [0, %d]", length, n-start)
	}
	return types.String(string(runes[start : start+length])), nil
}

func fnIndexOf(_ context.Context, args ...types.Value) (types.Value, error) {
	haystack, needle := args[0].Str, args[1].Str
	var from int64
	if len(args) > 2 {
		from = args[2].Int
	}
	if from < 0 {
		return types.Value{}, types.Evalf(types.ErrCodeInvalidArgument, "indexof: negative start %d", from)
	}

	// Skip from characters, then convert the byte offset back to runes.
	offset := 0
	for i := int64(0); i < from; i++ {
		if offset >= len(haystack) {
			return types.Int(-1), nil
		}
		_, size := utf8.DecodeRuneInString(haystack[offset:])
		offset += size
	}
	idx := strings.Index(haystack[offset:], needle)
	if idx < 0 {
		return types.Int(-1), nil
	}
	return types.Int(from + int64(utf8.RuneCountInString(haystack[offset:offset+idx]))), nil
}

func fnReplace(_ context.Context, args ...types.Value) (types.Value, error) {
	if args[1].Str == "" {
		return types.Value{}, types.Evalf(types.ErrCodeInvalidArgument, "replace: empty search string")
	}
	return types.String(strings.ReplaceAll(args[0].Str, args[1].Str, args[2].Str)), nil
}

func fnConcat(ctx context.Context, args ...types.Value) (types.Value, error) {
	var b strings.Builder
	for _, a := range args {
		if err := ctx.Err(); err != nil {
			return types.Value{}, types.Canceled(err)
		}
		b.WriteString(a.Str)
	}
	return types.String(b.String()), nil
}

func fnBytes(_ context.Context, args ...types.Value) (types.Value, error) {
	return types.Value{Type: types.TypeByteArray, Bytes: []byte(args[0].Str)}, nil
}

func fnHex(_ context.Context, args ...types.Value) (types.Value, error) {
	if args[0].Type == types.TypeInteger {
		return types.String(strconv.FormatUint(uint64(args[0].Int), 16)), nil
	}
	return types.String(hex.EncodeToString(args[0].Bytes)), nil
}
