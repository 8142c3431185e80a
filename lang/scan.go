package lang

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf16"
	"unicode/utf8"
)

type tokenKind uint8

const (
	tokenEnd tokenKind = iota
	tokenLiteral
	tokenIdent
	tokenCall     // identifier immediately followed by "("
	tokenScope    // "." in operand position: the current frame
	tokenEmptyMap // "[:]"
	tokenOperator
)

type token struct {
	kind      tokenKind
	text      string
	signature string
	value     any
	backreach int // count of leading "../" groups
	offset    int
}

// scanner splits expression text into tokens. Whether an operand or an
// operator is expected is supplied by the compiler on every call.
type scanner struct {
	input string
	pos   int
}

func (s *scanner) errorf(offset int, format string, args ...any) *SyntaxError {
	return newSyntaxError(ErrSyntax, s.input, offset, fmt.Sprintf(format, args...))
}

// next returns the next token.
func (s *scanner) next(operand bool) (token, error) {
	s.skipWhitespace()

	start := s.pos

	if s.eof() {
		return token{kind: tokenEnd, offset: start}, nil
	}

	if strings.HasPrefix(s.rest(), "../") {
		if !operand {
			return token{}, s.errorf(start, "backreach cannot follow an operand")
		}

		depth := 0
		for strings.HasPrefix(s.rest(), "../") {
			depth++
			s.pos += 3
		}

		tok, err := s.operand(s.pos)
		if err != nil {
			return token{}, err
		}

		switch tok.kind {
		case tokenIdent, tokenCall, tokenScope:
		default:
			return token{}, s.errorf(start, "backreach must precede an identifier")
		}

		tok.backreach = depth
		tok.offset = start

		return tok, nil
	}

	if operand {
		return s.operand(start)
	}

	return s.operator(start)
}

func (s *scanner) operand(start int) (token, error) {
	r := s.peek()
	rest := s.rest()

	switch {
	case r == '.' && len(rest) > 1 && isDigit(rune(rest[1])):
		return s.number(start)

	case r == '.' && !strings.HasPrefix(rest, ".."):
		s.advance()

		return token{kind: tokenScope, text: ".", offset: start}, nil

	case isDigit(r):
		return s.number(start)

	case r == '"' || r == '\'':
		return s.string(start)

	case r == '`':
		return s.quotedIdentifier(start)

	case strings.HasPrefix(rest, "~/"):
		return s.pattern(start)

	case strings.HasPrefix(rest, "[:]"):
		s.pos += 3

		return token{kind: tokenEmptyMap, text: "[:]", offset: start}, nil

	case isIdentifierStart(r):
		return s.identifier(start)
	}

	return s.operator(start)
}

func (s *scanner) operator(start int) (token, error) {
	rest := s.rest()

	for _, text := range operatorSpellings {
		if strings.HasPrefix(rest, text) {
			s.pos += len(text)

			return token{kind: tokenOperator, text: text, offset: start}, nil
		}
	}

	return token{}, s.errorf(start, "unexpected character %q", s.peek())
}

func (s *scanner) identifier(start int) (token, error) {
	s.advance()

	for !s.eof() && isIdentifierContinue(s.peek()) {
		s.advance()
	}

	name := s.input[start:s.pos]

	switch name {
	case "true":
		return token{kind: tokenLiteral, text: name, value: true, offset: start}, nil
	case "false":
		return token{kind: tokenLiteral, text: name, value: false, offset: start}, nil
	case "null":
		return token{kind: tokenLiteral, text: name, value: nil, offset: start}, nil
	}

	return s.name(token{kind: tokenIdent, text: name, offset: start}), nil
}

// quotedIdentifier scans `text`, where text is any name optionally followed
// by a method signature: `name:type1,type2`.
func (s *scanner) quotedIdentifier(start int) (token, error) {
	end := strings.IndexByte(s.input[start+1:], '`')
	if end < 0 {
		return token{}, s.errorf(start, "unterminated quoted identifier")
	}

	body := s.input[start+1 : start+1+end]
	s.pos = start + end + 2

	name, signature, _ := strings.Cut(body, ":")
	if name == "" {
		return token{}, s.errorf(start, "empty identifier")
	}

	return s.name(token{kind: tokenIdent, text: name, signature: signature, offset: start}), nil
}

// name turns an identifier token into a call token when "(" follows.
func (s *scanner) name(tok token) token {
	if s.peek() == '(' {
		s.advance()

		tok.kind = tokenCall
	}

	return tok
}

func (s *scanner) number(start int) (token, error) {
	rest := s.rest()

	if len(rest) > 2 && rest[0] == '0' && (rest[1] == 'x' || rest[1] == 'X') {
		s.pos += 2
		for !s.eof() && (isHexDigit(s.peek()) || s.peek() == '_') {
			s.advance()
		}

		return s.integral(start, s.input[start:s.pos])
	}

	float := false

	s.digits()

	if s.peek() == '.' && s.pos+1 < len(s.input) && isDigit(rune(s.input[s.pos+1])) {
		float = true

		s.advance()
		s.digits()
	}

	if r := s.peek(); r == 'e' || r == 'E' {
		exp := s.rest()[1:]
		if len(exp) > 0 && (exp[0] == '+' || exp[0] == '-') {
			exp = exp[1:]
		}

		if len(exp) > 0 && isDigit(rune(exp[0])) {
			float = true

			s.pos = len(s.input) - len(exp)
			s.digits()
		}
	}

	text := s.input[start:s.pos]

	switch s.peek() {
	case 'f', 'F', 'd', 'D':
		s.advance()

		float = true
	case 'L', 'l':
		if float {
			return token{}, s.errorf(start, "invalid number literal %q", s.input[start:s.pos+1])
		}

		return s.integral(start, text)
	}

	if !s.eof() && isIdentifierContinue(s.peek()) {
		return token{}, s.errorf(start, "invalid number literal %q", s.input[start:s.pos+1])
	}

	if float {
		f, err := strconv.ParseFloat(strings.ReplaceAll(text, "_", ""), 64)
		if err != nil {
			return token{}, s.errorf(start, "invalid number literal %q", text)
		}

		return token{kind: tokenLiteral, text: text, value: f, offset: start}, nil
	}

	return s.integral(start, text)
}

// integral finishes an integral literal, consuming an optional "L" suffix
// that forces 64-bit width.
func (s *scanner) integral(start int, text string) (token, error) {
	wide := false
	if r := s.peek(); r == 'L' || r == 'l' {
		s.advance()

		wide = true
	}

	if !s.eof() && isIdentifierContinue(s.peek()) {
		return token{}, s.errorf(start, "invalid number literal %q", s.input[start:s.pos+1])
	}

	n, err := parseIntegral(text, wide)
	if err != nil {
		return token{}, s.errorf(start, "invalid integral literal %q", text)
	}

	return token{kind: tokenLiteral, text: s.input[start:s.pos], value: n.Value(), offset: start}, nil
}

func (s *scanner) digits() {
	for !s.eof() && (isDigit(s.peek()) || s.peek() == '_') {
		s.advance()
	}
}

func (s *scanner) string(start int) (token, error) {
	quote := s.input[start]
	i := start + 1

	for ; i < len(s.input); i++ {
		switch s.input[i] {
		case '\\':
			i++
		case quote:
			body, at, err := unescape(s.input[start+1 : i])
			if err != nil {
				return token{}, s.errorf(start+1+at, "%s", err.Error())
			}

			s.pos = i + 1

			return token{kind: tokenLiteral, text: s.input[start:s.pos], value: body, offset: start}, nil
		}
	}

	return token{}, s.errorf(start, "unterminated string literal")
}

// pattern scans ~/regexp/. A backslash before "/" escapes the delimiter;
// every other escape is passed to the regular expression unchanged.
func (s *scanner) pattern(start int) (token, error) {
	var sb strings.Builder

	for i := start + 2; i < len(s.input); i++ {
		c := s.input[i]

		switch {
		case c == '\\' && i+1 < len(s.input) && s.input[i+1] == '/':
			sb.WriteByte('/')

			i++
		case c == '\\' && i+1 < len(s.input):
			sb.WriteByte(c)
			sb.WriteByte(s.input[i+1])

			i++
		case c == '/':
			re, err := regexp.Compile(sb.String())
			if err != nil {
				return token{}, s.errorf(start, "invalid pattern: %s", err.Error())
			}

			s.pos = i + 1

			return token{kind: tokenLiteral, text: s.input[start:s.pos], value: re, offset: start}, nil
		default:
			sb.WriteByte(c)
		}
	}

	return token{}, s.errorf(start, "unterminated pattern literal")
}

// Helper methods

func (s *scanner) rest() string { return s.input[s.pos:] }

func (s *scanner) peek() rune {
	if s.eof() {
		return 0
	}

	r, _ := utf8.DecodeRuneInString(s.input[s.pos:])

	return r
}

func (s *scanner) advance() {
	if s.eof() {
		return
	}

	_, size := utf8.DecodeRuneInString(s.input[s.pos:])
	s.pos += size
}

func (s *scanner) eof() bool {
	return s.pos >= len(s.input)
}

func (s *scanner) skipWhitespace() {
	for !s.eof() && unicode.IsSpace(s.peek()) {
		s.advance()
	}
}

// IsIdentifier reports whether name can be referenced without backquotes:
// it is a well-formed identifier and not one of the literals true, false or
// null.
func IsIdentifier(name string) bool {
	switch name {
	case "", "true", "false", "null":
		return false
	}

	for i, r := range name {
		if (i == 0 && !isIdentifierStart(r)) || (i > 0 && !isIdentifierContinue(r)) {
			return false
		}
	}

	return true
}

// Character classification

func isIdentifierStart(r rune) bool {
	return unicode.In(r,
		unicode.L,  // Letter
		unicode.Nl, // Letter, Number
		unicode.Other_ID_Start,
	) || r == '_' || r == '$'
}

func isIdentifierContinue(r rune) bool {
	return unicode.In(r,
		unicode.L,  // Letter
		unicode.Nl, // Letter, Number
		unicode.Other_ID_Start,
		unicode.Mn, // Mark, Nonspacing
		unicode.Mc, // Mark, Spacing Combining
		unicode.Nd, // Number, Decimal Digit
		unicode.Pc, // Punctuation, Connector
		unicode.Other_ID_Continue,
	) || r == '$'
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

func isHexDigit(r rune) bool {
	return isDigit(r) || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}

// unescape decodes the escape sequences of a string literal body. On
// failure it returns the byte offset of the bad sequence within body.
func unescape(body string) (string, int, error) {
	if strings.IndexByte(body, '\\') < 0 {
		return body, 0, nil
	}

	var sb strings.Builder

	sb.Grow(len(body))

	for i := 0; i < len(body); {
		c := body[i]
		if c != '\\' {
			sb.WriteByte(c)

			i++

			continue
		}

		at := i
		if i+1 >= len(body) {
			return "", at, errEscape
		}

		e := body[i+1]
		i += 2

		switch e {
		case '0':
			sb.WriteByte(0)
		case 'b':
			sb.WriteByte('\b')
		case 'f':
			sb.WriteByte('\f')
		case 'n':
			sb.WriteByte('\n')
		case 'r':
			sb.WriteByte('\r')
		case 't':
			sb.WriteByte('\t')
		case 'v':
			sb.WriteByte('\v')
		case '\\', '\'', '"', '/', '$', '`':
			sb.WriteByte(e)
		case 'x':
			r, n, ok := hexRune(body[i:], 2)
			if !ok {
				return "", at, errEscape
			}

			i += n

			sb.WriteRune(r)
		case 'u':
			r, n, ok := unicodeRune(body[i:])
			if !ok {
				return "", at, errEscape
			}

			i += n

			// A high surrogate combines with a following \uXXXX low surrogate.
			if utf16.IsSurrogate(r) && strings.HasPrefix(body[i:], `\u`) {
				if r2, n2, ok := unicodeRune(body[i+2:]); ok {
					if d := utf16.DecodeRune(r, r2); d != utf8.RuneError {
						r = d
						i += 2 + n2
					}
				}
			}

			sb.WriteRune(r)
		default:
			return "", at, errEscape
		}
	}

	return sb.String(), 0, nil
}

var errEscape = NewError("invalid escape sequence")

// unicodeRune decodes XXXX or {X...} following "\u".
func unicodeRune(s string) (rune, int, bool) {
	if strings.HasPrefix(s, "{") {
		end := strings.IndexByte(s, '}')
		if end < 2 || end > 7 {
			return 0, 0, false
		}

		r, _, ok := hexRune(s[1:end], end-1)

		return r, end + 1, ok && r <= unicode.MaxRune
	}

	return hexRune(s, 4)
}

func hexRune(s string, n int) (rune, int, bool) {
	if len(s) < n {
		return 0, 0, false
	}

	x, err := strconv.ParseUint(s[:n], 16, 32)
	if err != nil {
		return 0, 0, false
	}

	return rune(x), n, true
}
