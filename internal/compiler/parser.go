package compiler

import (
	"errors"
	"strconv"
	"strings"

	"github.com/aretw0/tlisp/pkg/types"
)

// Parser is responsible for converting source text into data.
type Parser struct{}

// NewParser creates a new parser instance.
func NewParser() *Parser {
	return &Parser{}
}

// Parse reads every datum in src.
func (p *Parser) Parse(src string) ([]types.Value, error) {
	r := &reader{lex: newLexer(src)}
	var out []types.Value
	for {
		tok, err := r.read()
		if err != nil {
			return nil, err
		}
		if tok.kind == tokEOF {
			return out, nil
		}
		v, err := r.datum(tok)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
}

// ParseOne reads exactly one datum.
func (p *Parser) ParseOne(src string) (types.Value, error) {
	vals, err := p.Parse(src)
	if err != nil {
		return nil, err
	}
	if len(vals) != 1 {
		return nil, &SyntaxError{Pos: Position{Line: 1, Column: 1}, Msg: "expected exactly one expression, got " + strconv.Itoa(len(vals))}
	}
	return vals[0], nil
}

type reader struct {
	lex *lexer
}

func (r *reader) read() (token, error) {
	return r.lex.next()
}

func (r *reader) datum(tok token) (types.Value, error) {
	switch tok.kind {
	case tokOpen:
		return r.list(tok.pos)
	case tokClose:
		return nil, &SyntaxError{Pos: tok.pos, Msg: "unexpected )"}
	case tokQuote:
		next, err := r.read()
		if err != nil {
			return nil, err
		}
		if next.kind == tokEOF {
			return nil, &SyntaxError{Pos: tok.pos, Msg: "quote at end of input", Incomplete: true}
		}
		quoted, err := r.datum(next)
		if err != nil {
			return nil, err
		}
		return types.List(types.Symbol("quote"), quoted), nil
	case tokString:
		return types.String(tok.text), nil
	case tokAtom:
		return atom(tok.text), nil
	default:
		return nil, &SyntaxError{Pos: tok.pos, Msg: "unexpected end of input"}
	}
}

func (r *reader) list(open Position) (types.Value, error) {
	var items []types.Value
	for {
		tok, err := r.read()
		if err != nil {
			return nil, err
		}
		switch tok.kind {
		case tokEOF:
			return nil, &SyntaxError{Pos: open, Msg: "unbalanced parentheses", Incomplete: true}
		case tokClose:
			return types.List(items...), nil
		}
		v, err := r.datum(tok)
		if err != nil {
			return nil, err
		}
		items = append(items, v)
	}
}

// atom classifies a bare token. The dot is an ordinary symbol (the no-op head operation),
// so there is no dotted-pair syntax.
func atom(text string) types.Value {
	switch text {
	case "#t", "#true":
		return types.Boolean(true)
	case "#f", "#false":
		return types.Boolean(false)
	case "null":
		return types.Null{}
	}
	if looksNumeric(text) {
		if i, err := strconv.ParseInt(text, 10, 64); err == nil {
			return types.Integer(i)
		}
		if f, err := strconv.ParseFloat(text, 64); err == nil {
			return types.Real(f)
		}
	}
	return types.Symbol(text)
}

func looksNumeric(text string) bool {
	t := strings.TrimLeft(text, "+-")
	if len(t) > 0 && t[0] == '.' {
		t = t[1:]
	}
	return len(t) > 0 && t[0] >= '0' && t[0] <= '9'
}

// IsIncomplete reports whether err means the source ended in the middle of a datum.
func IsIncomplete(err error) bool {
	var se *SyntaxError
	return errors.As(err, &se) && se.Incomplete
}
