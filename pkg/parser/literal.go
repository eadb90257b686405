package parser

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/sandrolain/gomathex/pkg/types"
)

// ExtractLiteral converts the source text of a constant into a typed value.
// It recognizes decimal integers (falling back to Float when they overflow
// int64), floats, 0x/0o/0b prefixed integers, quoted strings, true/false in
// any case and #-prefixed byte arrays. A leading sign is accepted on
// numbers. ok is false when text is not a constant.
func ExtractLiteral(text string) (v types.Value, ok bool) {
	v, err := extractLiteral(strings.TrimSpace(text))
	return v, err == nil
}

// MustExtractLiteral is like ExtractLiteral but falls back to a String
// value holding text when it is not a constant.
func MustExtractLiteral(text string) types.Value {
	if v, ok := ExtractLiteral(text); ok {
		return v
	}
	return types.String(text)
}

var errNotLiteral = errors.New("not a literal")

func extractLiteral(text string) (types.Value, error) {
	if text == "" {
		return types.Value{}, errNotLiteral
	}
	switch c := text[0]; {
	case c == '"' || c == '\'':
		s, err := unquote(text)
		if err != nil {
			return types.Value{}, err
		}
		return types.String(s), nil
	case c == '#':
		b, err := hex.DecodeString(text[1:])
		if err != nil || len(text) == 1 {
			return types.Value{}, fmt.Errorf("invalid byte literal %q", text)
		}
		return types.Value{Type: types.TypeByteArray, Bytes: b}, nil
	case c == '+' || c == '-':
		if isDecimal(text[1:]) {
			if i, err := strconv.ParseInt(text, 10, 64); err == nil {
				return types.Int(i), nil
			}
		}
		v, err := parseNumber(text[1:])
		if err != nil || c == '+' {
			return v, err
		}
		if v.Type == types.TypeFloat {
			return types.Float(-v.Float), nil
		}
		return types.Int(-v.Int), nil
	case isDigit(rune(c)) || c == '.':
		return parseNumber(text)
	}
	switch strings.ToLower(text) {
	case "true":
		return types.Bool(true), nil
	case "false":
		return types.Bool(false), nil
	}
	return types.Value{}, errNotLiteral
}

func isDecimal(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !isDigit(r) {
			return false
		}
	}
	return true
}

// parseNumber parses an unsigned numeric literal.
func parseNumber(text string) (types.Value, error) {
	if text == "" {
		return types.Value{}, errNotLiteral
	}
	if len(text) > 2 && text[0] == '0' && strings.ContainsRune("xXoObB", rune(text[1])) {
		u, err := strconv.ParseUint(text, 0, 64)
		if err != nil {
			return types.Value{}, fmt.Errorf("invalid integer literal %q: %w", text, err)
		}
		// Full-width hexadecimal literals keep their two's complement bits.
		return types.Int(int64(u)), nil
	}
	if strings.ContainsAny(text, ".eE") {
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return types.Value{}, fmt.Errorf("invalid float literal %q: %w", text, err)
		}
		return types.Float(f), nil
	}
	if !isDecimal(text) {
		return types.Value{}, errNotLiteral
	}
	if i, err := strconv.ParseInt(text, 10, 64); err == nil {
		return types.Int(i), nil
	}
	f, ferr := strconv.ParseFloat(text, 64)
	if ferr != nil {
		return types.Value{}, fmt.Errorf("invalid number %q: %w", text, ferr)
	}
	return types.Float(f), nil
}

// unquote strips the quotes of a string literal and processes escape
// sequences. Handles \uXXXX escapes including UTF-16 surrogate pairs.
func unquote(text string) (string, error) {
	if len(text) < 2 || text[len(text)-1] != text[0] {
		return "", fmt.Errorf("unterminated string literal")
	}
	s := text[1 : len(text)-1]
	if !strings.Contains(s, "\\") {
		return s, nil
	}

	var result strings.Builder
	result.Grow(len(s))

	for i := 0; i < len(s); i++ {
		if s[i] != '\\' {
			result.WriteByte(s[i])
			continue
		}

		i++
		if i >= len(s) {
			return "", fmt.Errorf("invalid escape sequence at end of string")
		}

		switch s[i] {
		case 'n':
			result.WriteByte('\n')
		case 't':
			result.WriteByte('\t')
		case 'r':
			result.WriteByte('\r')
		case 'b':
			result.WriteByte('\b')
		case 'f':
			result.WriteByte('\f')
		case '0':
			result.WriteByte(0)
		case '\\', '"', '\'', '/':
			result.WriteByte(s[i])
		case 'u':
			r, consumed, err := decodeUnicodeEscape(s[i+1:])
			if err != nil {
				return "", err
			}
			result.WriteRune(r)
			i += consumed
		default:
			return "", fmt.Errorf("invalid escape sequence \\%c", s[i])
		}
	}

	return result.String(), nil
}

// decodeUnicodeEscape decodes the XXXX of a \uXXXX escape, joining a
// following low surrogate escape when s starts with a high surrogate.
func decodeUnicodeEscape(s string) (rune, int, error) {
	if len(s) < 4 {
		return 0, 0, fmt.Errorf("invalid \\u escape: not enough characters")
	}
	cp, err := strconv.ParseUint(s[:4], 16, 16)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid \\u escape: %s", s[:4])
	}
	r := rune(cp)
	if !utf16.IsSurrogate(r) || len(s) < 10 || s[4] != '\\' || s[5] != 'u' {
		return r, 4, nil
	}
	low, err := strconv.ParseUint(s[6:10], 16, 16)
	if err != nil {
		return r, 4, nil
	}
	if decoded := utf16.DecodeRune(r, rune(low)); decoded != utf8.RuneError {
		return decoded, 10, nil
	}
	return r, 4, nil
}

// literalFromToken converts a literal token, reporting failures as syntax
// errors at the token position.
func literalFromToken(t Token) (types.Value, error) {
	v, err := extractLiteral(t.Value)
	if err == nil {
		return v, nil
	}
	code := types.ErrCodeNumberOutOfRange
	switch t.Type {
	case TokenString:
		code = types.ErrCodeBadEscape
	case TokenBytes:
		code = types.ErrCodeBadBytes
	}
	return types.Value{}, types.Syntaxf(code, t.Position, "invalid literal %s: %v", t.Value, err).
		WithToken(t.Value)
}
