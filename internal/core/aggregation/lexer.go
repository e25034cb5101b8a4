package aggregation

import "unicode/utf8"

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokLParen
	tokRParen
	tokColon
	tokComma
	tokInvalid
)

func (k tokenKind) String() string {
	switch k {
	case tokEOF:
		return "end of fragment"
	case tokIdent:
		return "identifier"
	case tokLParen:
		return "'('"
	case tokRParen:
		return "')'"
	case tokColon:
		return "':'"
	case tokComma:
		return "','"
	}
	return "invalid character"
}

type token struct {
	kind tokenKind
	val  string
	pos  int
}

func isIdentByte(c byte) bool {
	return c == '_' ||
		('a' <= c && c <= 'z') ||
		('A' <= c && c <= 'Z') ||
		('0' <= c && c <= '9')
}

func isSpaceByte(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\f', '\v':
		return true
	}
	return false
}

// checkCharacters rejects a fragment containing anything outside the rule
// alphabet: letters, digits, '_', '(', ')', ':', ',' and ASCII whitespace.
func checkCharacters(fragment string) error {
	for i := 0; i < len(fragment); {
		c := fragment[i]
		if isIdentByte(c) || isSpaceByte(c) || c == '(' || c == ')' || c == ':' || c == ',' {
			i++
			continue
		}
		r, _ := utf8.DecodeRuneInString(fragment[i:])
		return &InvalidExpressionError{
			Kind:     ErrInvalidCharacters,
			Fragment: fragment,
			Offset:   i,
			Token:    string(r),
		}
	}
	return nil
}

// lexer splits one fragment into tokens. It keeps a one-token lookahead.
type lexer struct {
	src string
	pos int
	buf *token
}

func newLexer(src string) *lexer {
	return &lexer{src: src}
}

func (l *lexer) peek() token {
	if l.buf == nil {
		tok := l.scan()
		l.buf = &tok
	}
	return *l.buf
}

func (l *lexer) next() token {
	if l.buf != nil {
		tok := *l.buf
		l.buf = nil
		return tok
	}
	return l.scan()
}

func (l *lexer) scan() token {
	for l.pos < len(l.src) && isSpaceByte(l.src[l.pos]) {
		l.pos++
	}
	if l.pos >= len(l.src) {
		return token{kind: tokEOF, pos: l.pos}
	}

	start := l.pos
	switch l.src[l.pos] {
	case '(':
		l.pos++
		return token{kind: tokLParen, val: "(", pos: start}
	case ')':
		l.pos++
		return token{kind: tokRParen, val: ")", pos: start}
	case ':':
		l.pos++
		return token{kind: tokColon, val: ":", pos: start}
	case ',':
		l.pos++
		return token{kind: tokComma, val: ",", pos: start}
	}

	for l.pos < len(l.src) && isIdentByte(l.src[l.pos]) {
		l.pos++
	}
	if l.pos == start {
		_, size := utf8.DecodeRuneInString(l.src[start:])
		l.pos += size
		return token{kind: tokInvalid, val: l.src[start:l.pos], pos: start}
	}
	return token{kind: tokIdent, val: l.src[start:l.pos], pos: start}
}
