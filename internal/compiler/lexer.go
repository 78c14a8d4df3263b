package compiler

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// lexer turns source text into tokens. It is an internal helper of
// Parse; errors surface as *SyntaxError.
type lexer struct {
	file string
	src  string
	off  int
	line int
	col  int
}

func newLexer(file, src string) *lexer {
	return &lexer{file: file, src: src, line: 1, col: 1}
}

func (l *lexer) errorf(pos Pos, format string, args ...any) error {
	return &SyntaxError{File: l.file, Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

func (l *lexer) peek() rune {
	if l.off >= len(l.src) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.src[l.off:])
	return r
}

func (l *lexer) next() rune {
	if l.off >= len(l.src) {
		return 0
	}
	r, size := utf8.DecodeRuneInString(l.src[l.off:])
	l.off += size
	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return r
}

func (l *lexer) pos() Pos { return Pos{Line: l.line, Col: l.col} }

func (l *lexer) skipSpace() {
	for {
		r := l.peek()
		if r == '/' && strings.HasPrefix(l.src[l.off:], "//") {
			for l.peek() != '\n' && l.peek() != 0 {
				l.next()
			}
			continue
		}
		if r == ' ' || r == '\t' || r == '\r' || r == '\n' {
			l.next()
			continue
		}
		return
	}
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// scan returns the next token.
func (l *lexer) scan() (Token, error) {
	l.skipSpace()
	pos := l.pos()
	r := l.peek()

	switch {
	case r == 0:
		return Token{Kind: TokenEOF, Pos: pos}, nil
	case isIdentStart(r):
		start := l.off
		for isIdentPart(l.peek()) {
			l.next()
		}
		return Token{Kind: TokenIdent, Lit: l.src[start:l.off], Pos: pos}, nil
	case unicode.IsDigit(r) || r == '-':
		return l.scanNumber(pos)
	case r == '"':
		return l.scanString(pos)
	}

	l.next()
	switch r {
	case '{':
		return Token{Kind: TokenLBrace, Pos: pos}, nil
	case '}':
		return Token{Kind: TokenRBrace, Pos: pos}, nil
	case '(':
		return Token{Kind: TokenLParen, Pos: pos}, nil
	case ')':
		return Token{Kind: TokenRParen, Pos: pos}, nil
	case '[':
		return Token{Kind: TokenLBracket, Pos: pos}, nil
	case ']':
		return Token{Kind: TokenRBracket, Pos: pos}, nil
	case ',':
		return Token{Kind: TokenComma, Pos: pos}, nil
	case ':':
		return Token{Kind: TokenColon, Pos: pos}, nil
	case ';':
		return Token{Kind: TokenSemi, Pos: pos}, nil
	case '=':
		if l.peek() == '>' {
			l.next()
			return Token{Kind: TokenArrow, Pos: pos}, nil
		}
		return Token{Kind: TokenAssign, Pos: pos}, nil
	case '.':
		if l.peek() == '.' {
			l.next()
			return Token{Kind: TokenForward, Pos: pos}, nil
		}
		return Token{}, l.errorf(pos, "unexpected '.' (did you mean '..'?)")
	}
	return Token{}, l.errorf(pos, "unexpected character %q", r)
}

func (l *lexer) scanNumber(pos Pos) (Token, error) {
	start := l.off
	if l.peek() == '-' {
		l.next()
	}
	digits := 0
	for unicode.IsDigit(l.peek()) {
		l.next()
		digits++
	}
	if l.peek() == '.' && !strings.HasPrefix(l.src[l.off:], "..") {
		l.next()
		for unicode.IsDigit(l.peek()) {
			l.next()
			digits++
		}
	}
	if digits == 0 {
		return Token{}, l.errorf(pos, "malformed number %q", l.src[start:l.off])
	}
	return Token{Kind: TokenNumber, Lit: l.src[start:l.off], Pos: pos}, nil
}

func (l *lexer) scanString(pos Pos) (Token, error) {
	l.next() // opening quote
	var sb strings.Builder
	for {
		r := l.peek()
		switch r {
		case 0, '\n':
			return Token{}, l.errorf(pos, "unterminated string literal")
		case '"':
			l.next()
			return Token{Kind: TokenString, Lit: sb.String(), Pos: pos}, nil
		case '\\':
			l.next()
			esc := l.next()
			switch esc {
			case '"':
				sb.WriteRune('"')
			case '\\':
				sb.WriteRune('\\')
			case 'n':
				sb.WriteRune('\n')
			case 't':
				sb.WriteRune('\t')
			default:
				return Token{}, l.errorf(l.pos(), "invalid escape sequence '\\%c'", esc)
			}
		default:
			l.next()
			sb.WriteRune(r)
		}
	}
}

// lex tokenizes the whole source up front; the grammar is small enough
// that slice-backed lookahead beats streaming.
func lex(file, src string) ([]Token, error) {
	l := newLexer(file, src)
	var tokens []Token
	for {
		tok, err := l.scan()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.Kind == TokenEOF {
			return tokens, nil
		}
	}
}
