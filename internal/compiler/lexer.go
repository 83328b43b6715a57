package compiler

import (
	"fmt"
	"strings"
	"unicode"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokOpen
	tokClose
	tokQuote
	tokString
	tokAtom
)

type token struct {
	kind tokenKind
	text string
	pos  Position
}

// Position locates a token in the source.
type Position struct {
	Line   int
	Column int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// SyntaxError reports malformed source.
type SyntaxError struct {
	Pos Position
	Msg string
	// Incomplete is set when more input could complete the source.
	Incomplete bool
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at %s: %s", e.Pos, e.Msg)
}

type lexer struct {
	src  []rune
	off  int
	line int
	col  int
}

func newLexer(src string) *lexer {
	return &lexer{src: []rune(src), line: 1, col: 1}
}

func (l *lexer) peek() rune {
	if l.off >= len(l.src) {
		return 0
	}
	return l.src[l.off]
}

func (l *lexer) advance() rune {
	r := l.src[l.off]
	l.off++
	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return r
}

func (l *lexer) skipSpace() {
	for l.off < len(l.src) {
		r := l.peek()
		switch {
		case r == ';':
			for l.off < len(l.src) && l.peek() != '\n' {
				l.advance()
			}
		case unicode.IsSpace(r):
			l.advance()
		default:
			return
		}
	}
}

func isDelimiter(r rune) bool {
	return r == 0 || r == '(' || r == ')' || r == '"' || r == ';' || r == '\'' || unicode.IsSpace(r)
}

func (l *lexer) next() (token, error) {
	l.skipSpace()
	pos := Position{Line: l.line, Column: l.col}
	if l.off >= len(l.src) {
		return token{kind: tokEOF, pos: pos}, nil
	}

	switch r := l.advance(); r {
	case '(':
		return token{kind: tokOpen, text: "(", pos: pos}, nil
	case ')':
		return token{kind: tokClose, text: ")", pos: pos}, nil
	case '\'':
		return token{kind: tokQuote, text: "'", pos: pos}, nil
	case '"':
		text, err := l.readString(pos)
		return token{kind: tokString, text: text, pos: pos}, err
	default:
		var sb strings.Builder
		sb.WriteRune(r)
		for !isDelimiter(l.peek()) {
			sb.WriteRune(l.advance())
		}
		return token{kind: tokAtom, text: sb.String(), pos: pos}, nil
	}
}

func (l *lexer) readString(start Position) (string, error) {
	var sb strings.Builder
	for {
		if l.off >= len(l.src) {
			return "", &SyntaxError{Pos: start, Msg: "unterminated string", Incomplete: true}
		}
		r := l.advance()
		switch r {
		case '"':
			return sb.String(), nil
		case '\\':
			if l.off >= len(l.src) {
				return "", &SyntaxError{Pos: start, Msg: "unterminated string", Incomplete: true}
			}
			esc := l.advance()
			switch esc {
			case 'n':
				sb.WriteRune('\n')
			case 't':
				sb.WriteRune('\t')
			case 'r':
				sb.WriteRune('\r')
			case '\\', '"':
				sb.WriteRune(esc)
			default:
				return "", &SyntaxError{Pos: Position{Line: l.line, Column: l.col - 2}, Msg: fmt.Sprintf("unknown escape \\%c", esc)}
			}
		default:
			sb.WriteRune(r)
		}
	}
}
