package parser

import (
	"unicode"
	"unicode/utf8"

	"github.com/sandrolain/gomathex/pkg/types"
)

const eof = -1

// Lexer converts an expression into a sequence of tokens.
// The implementation is based on Rob Pike's "Lexical Scanning in Go" technique.
type Lexer struct {
	input   string // Input string being scanned
	length  int    // Length of input string
	start   int    // Start position of current token
	current int    // Current position in input
	width   int    // Width of last rune read
	err     error  // First error encountered
}

// NewLexer creates a new lexer from the provided input string.
// The input is tokenized by successive calls to the Next method.
func NewLexer(input string) *Lexer {
	return &Lexer{
		input:  input,
		length: len(input),
	}
}

// Tokenize lexes the whole input. The returned slice never includes the
// trailing EOF token.
func Tokenize(input string) ([]Token, error) {
	l := NewLexer(input)
	tokens := make([]Token, 0, len(input)/2+1)
	for {
		t := l.Next()
		switch t.Type {
		case TokenEOF:
			return tokens, nil
		case TokenError:
			return nil, l.err
		}
		tokens = append(tokens, t)
	}
}

// Next returns the next token from the input.
// When the end of the input is reached, Next returns TokenEOF for all subsequent calls.
func (l *Lexer) Next() Token {
	l.skipWhitespace()

	// Check if skipWhitespace encountered an error (e.g., unclosed comment)
	if l.err != nil {
		return Token{Type: TokenError, Position: l.start}
	}

	ch := l.nextRune()
	if ch == eof {
		return l.eof()
	}

	// Check for two-character symbols first (e.g., !=, <=, **)
	if rts := lookupSymbol2(ch); rts != nil {
		for _, rt := range rts {
			if l.acceptRune(rt.r) {
				return l.newToken(rt.tt)
			}
		}
	}

	// Check for single-character symbols
	if tt := lookupSymbol1(ch); tt > 0 {
		return l.newToken(tt)
	}

	switch {
	case ch == '"' || ch == '\'':
		return l.scanString(ch)
	case isDigit(ch):
		l.backup()
		return l.scanNumber()
	case ch == '.' && isDigit(l.peek()):
		l.backup()
		return l.scanNumber()
	case ch == '#':
		return l.scanBytes()
	case ch == '`':
		l.ignore()
		return l.scanEscapedName(ch)
	case isNameStart(ch):
		l.backup()
		return l.scanName()
	}

	return l.error(types.ErrCodeSyntax, "unexpected character %q", ch)
}

// Error returns the first error encountered during lexing, if any.
func (l *Lexer) Error() error {
	return l.err
}

// scanString reads a string literal from the current position. The opening
// quote has already been consumed and stays part of the token. Escape
// sequences are validated by ExtractLiteral.
func (l *Lexer) scanString(quote rune) Token {
	for {
		switch l.nextRune() {
		case quote:
			return l.newToken(TokenString)
		case '\\':
			if l.nextRune() != eof {
				continue
			}
			return l.error(types.ErrCodeStringNotClosed, "unterminated string literal")
		case eof:
			return l.error(types.ErrCodeStringNotClosed, "unterminated string literal")
		}
	}
}

// scanNumber reads a number literal from the current position.
// Supports decimal integers, decimals, scientific notation and 0x/0o/0b
// prefixed integers.
func (l *Lexer) scanNumber() Token {
	if l.acceptRune('0') && l.acceptAny('x', 'X', 'o', 'O', 'b', 'B') {
		if !l.acceptAll(isAlnum) {
			return l.error(types.ErrCodeNumberOutOfRange, "missing digits after base prefix")
		}
		return l.newToken(TokenNumber)
	}
	l.acceptAll(isDigit)

	// Decimal part. A dot without digits is not part of the number.
	dot := l.current
	if l.acceptRune('.') && !l.acceptAll(isDigit) {
		l.current = dot
		return l.newToken(TokenNumber)
	}

	// Exponent part
	if l.acceptAny('e', 'E') {
		l.acceptAny('+', '-')
		if !l.acceptAll(isDigit) {
			return l.error(types.ErrCodeNumberOutOfRange, "missing exponent digits")
		}
	}

	return l.newToken(TokenNumber)
}

// scanBytes reads a byte array literal: '#' followed by an even number of
// hexadecimal digits. The '#' has already been consumed.
func (l *Lexer) scanBytes() Token {
	n := 0
	for l.accept(isHexDigit) {
		n++
	}
	if n == 0 || n%2 != 0 || isNameChar(l.peek()) {
		l.acceptAll(isNameChar)
		return l.error(types.ErrCodeBadBytes, "byte literal needs an even number of hexadecimal digits")
	}
	return l.newToken(TokenBytes)
}

// scanEscapedName reads an escaped name from the current position.
// The opening backtick has already been consumed.
// Format: `parameter name with spaces or special chars`
func (l *Lexer) scanEscapedName(quote rune) Token {
Loop:
	for {
		switch l.nextRune() {
		case quote:
			break Loop
		case eof, '\n':
			return l.error(types.ErrCodeStringNotClosed, "unterminated escaped name")
		}
	}

	l.backup()
	t := l.newToken(TokenNameEsc)
	l.acceptRune(quote)
	l.ignore()
	if t.Value == "" {
		l.err = types.Syntaxf(types.ErrCodeSyntax, t.Position, "empty escaped name")
		return Token{Type: TokenError, Position: t.Position}
	}
	return t
}

// scanName reads a name or keyword from the current position.
// Names contain letters, digits, underscores and dots.
// Keywords are: and, or, not, true, false
func (l *Lexer) scanName() Token {
	l.acceptAll(isNameChar)
	t := l.newToken(TokenName)
	if tt := lookupKeyword(t.Value); tt > 0 {
		t.Type = tt
	}
	return t
}

// Helper methods

func (l *Lexer) eof() Token {
	return Token{
		Type:     TokenEOF,
		Position: l.current,
	}
}

func (l *Lexer) error(code types.ErrorCode, format string, args ...any) Token {
	t := l.newToken(TokenError)
	l.err = types.Syntaxf(code, t.Position, format, args...).WithToken(t.Value)
	return t
}

func (l *Lexer) newToken(tt TokenType) Token {
	t := Token{
		Type:     tt,
		Value:    l.input[l.start:l.current],
		Position: l.start,
	}
	l.width = 0
	l.start = l.current
	return t
}

func (l *Lexer) nextRune() rune {
	if l.err != nil || l.current >= l.length {
		l.width = 0
		return eof
	}

	r, w := utf8.DecodeRuneInString(l.input[l.current:])
	l.width = w
	l.current += w
	return r
}

func (l *Lexer) peek() rune {
	if l.current >= l.length {
		return eof
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.current:])
	return r
}

func (l *Lexer) backup() {
	l.current -= l.width
}

func (l *Lexer) ignore() {
	l.start = l.current
}

func (l *Lexer) acceptRune(r rune) bool {
	return l.accept(func(c rune) bool {
		return c == r
	})
}

func (l *Lexer) acceptAny(rs ...rune) bool {
	return l.accept(func(c rune) bool {
		for _, r := range rs {
			if c == r {
				return true
			}
		}
		return false
	})
}

func (l *Lexer) accept(isValid func(rune) bool) bool {
	if isValid(l.nextRune()) {
		return true
	}
	l.backup()
	return false
}

func (l *Lexer) acceptAll(isValid func(rune) bool) bool {
	var matched bool
	for l.accept(isValid) {
		matched = true
	}
	return matched
}

func (l *Lexer) skipWhitespace() {
	for {
		if l.err != nil {
			return
		}

		l.acceptAll(isWhitespace)
		l.ignore()

		// Block comment /* ... */
		if !l.acceptRune('/') {
			return
		}
		if !l.acceptRune('*') {
			l.current = l.start
			return
		}
		for {
			ch := l.nextRune()
			if ch == eof {
				l.err = types.Syntaxf(types.ErrCodeCommentNotClosed, l.start, "unclosed comment")
				return
			}
			if ch == '*' && l.acceptRune('/') {
				break
			}
		}
		l.ignore()
	}
}

// Character classification functions

func isWhitespace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	default:
		return false
	}
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isHexDigit(r rune) bool {
	return isDigit(r) || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}

func isAlnum(r rune) bool {
	return isDigit(r) || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r == '_'
}

func isNameStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isNameChar(r rune) bool {
	return r == '_' || r == '.' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
