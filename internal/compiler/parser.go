package compiler

import (
	"fmt"
	"math"
	"strconv"

	"github.com/aretw0/arbor/pkg/domain"
)

// Parse turns .tree source text into a module AST. It is a pure
// function of its input; all failures are *SyntaxError values carrying
// the offending location.
func Parse(file, src string) (*Module, error) {
	toks, err := lex(file, src)
	if err != nil {
		return nil, err
	}
	p := &parser{file: file, toks: toks}
	return p.parseModule()
}

type parser struct {
	file string
	toks []Token
	i    int
}

func (p *parser) cur() Token { return p.toks[p.i] }

func (p *parser) peek() Token {
	if p.i+1 < len(p.toks) {
		return p.toks[p.i+1]
	}
	return p.toks[len(p.toks)-1]
}

func (p *parser) advance() Token {
	tok := p.toks[p.i]
	if tok.Kind != TokenEOF {
		p.i++
	}
	return tok
}

func (p *parser) errorf(pos Pos, format string, args ...any) error {
	return &SyntaxError{File: p.file, Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) expect(kind TokenKind) (Token, error) {
	tok := p.cur()
	if tok.Kind != kind {
		return Token{}, p.errorf(tok.Pos, "expected %s, got %s", kind, describe(tok))
	}
	return p.advance(), nil
}

func describe(tok Token) string {
	switch tok.Kind {
	case TokenIdent:
		return fmt.Sprintf("identifier %q", tok.Lit)
	case TokenString:
		return fmt.Sprintf("string %q", tok.Lit)
	case TokenNumber:
		return fmt.Sprintf("number %s", tok.Lit)
	default:
		return tok.Kind.String()
	}
}

func (p *parser) parseModule() (*Module, error) {
	mod := &Module{Path: p.file}
	for {
		tok := p.cur()
		switch {
		case tok.Kind == TokenEOF:
			return mod, nil
		case tok.Kind == TokenIdent && tok.Lit == "import":
			imp, err := p.parseImport()
			if err != nil {
				return nil, err
			}
			mod.Imports = append(mod.Imports, imp)
		case tok.Kind == TokenIdent && tok.Lit == "impl":
			impl, err := p.parseImpl()
			if err != nil {
				return nil, err
			}
			mod.Impls = append(mod.Impls, impl)
		case tok.Kind == TokenIdent && treeKind(tok.Lit) != nil:
			tree, err := p.parseTree()
			if err != nil {
				return nil, err
			}
			mod.Trees = append(mod.Trees, tree)
		default:
			return nil, p.errorf(tok.Pos, "expected import, impl, or tree definition, got %s", describe(tok))
		}
	}
}

func treeKind(lit string) *TreeKind {
	var k TreeKind
	switch lit {
	case "sequence":
		k = TreeSequence
	case "fallback":
		k = TreeFallback
	case "root":
		k = TreeRoot
	default:
		return nil
	}
	return &k
}

func (p *parser) parseImport() (*Import, error) {
	kw := p.advance() // import
	path, err := p.expect(TokenString)
	if err != nil {
		return nil, err
	}
	imp := &Import{Path: path.Lit, Pos: kw.Pos}
	if p.cur().Kind != TokenLBrace {
		return imp, nil
	}
	p.advance() // {
	for p.cur().Kind != TokenRBrace {
		from, err := p.expect(TokenIdent)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenArrow); err != nil {
			return nil, err
		}
		to, err := p.expect(TokenIdent)
		if err != nil {
			return nil, err
		}
		imp.Renames = append(imp.Renames, Rename{From: from.Lit, To: to.Lit})
		if p.cur().Kind == TokenComma {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expect(TokenRBrace); err != nil {
		return nil, err
	}
	return imp, nil
}

func (p *parser) parseImpl() (*ImplDecl, error) {
	kw := p.advance() // impl
	name, err := p.expect(TokenIdent)
	if err != nil {
		return nil, err
	}
	params, err := p.parseParams()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenSemi); err != nil {
		return nil, err
	}
	return &ImplDecl{Name: name.Lit, Params: params, Pos: kw.Pos}, nil
}

func (p *parser) parseTree() (*TreeDecl, error) {
	kw := p.advance()
	kind := *treeKind(kw.Lit)
	name, err := p.expect(TokenIdent)
	if err != nil {
		return nil, err
	}
	var params []Param
	if p.cur().Kind == TokenLParen {
		params, err = p.parseParams()
		if err != nil {
			return nil, err
		}
	}
	body, err := p.parseBody()
	if err != nil {
		return nil, err
	}
	return &TreeDecl{Kind: kind, Name: name.Lit, Params: params, Body: body, Pos: kw.Pos}, nil
}

func (p *parser) parseParams() ([]Param, error) {
	if _, err := p.expect(TokenLParen); err != nil {
		return nil, err
	}
	var params []Param
	seen := make(map[string]Pos)
	for p.cur().Kind != TokenRParen {
		name, err := p.expect(TokenIdent)
		if err != nil {
			return nil, err
		}
		if first, dup := seen[name.Lit]; dup {
			return nil, p.errorf(name.Pos, "duplicate parameter %q (first declared at %s)", name.Lit, first)
		}
		seen[name.Lit] = name.Pos
		if _, err := p.expect(TokenColon); err != nil {
			return nil, err
		}
		kindTok, err := p.expect(TokenIdent)
		if err != nil {
			return nil, err
		}
		kind, ok := domain.KindFromName(kindTok.Lit)
		if !ok {
			return nil, p.errorf(kindTok.Pos, "unknown parameter kind %q", kindTok.Lit)
		}
		params = append(params, Param{Name: name.Lit, Kind: kind, Pos: name.Pos})
		if p.cur().Kind == TokenComma {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expect(TokenRParen); err != nil {
		return nil, err
	}
	return params, nil
}

func (p *parser) parseBody() ([]Node, error) {
	open, err := p.expect(TokenLBrace)
	if err != nil {
		return nil, err
	}
	var body []Node
	for {
		tok := p.cur()
		if tok.Kind == TokenRBrace {
			p.advance()
			return body, nil
		}
		if tok.Kind == TokenEOF {
			return nil, p.errorf(open.Pos, "unterminated block (missing '}')")
		}
		node, err := p.parseNode()
		if err != nil {
			return nil, err
		}
		body = append(body, node)
	}
}

func (p *parser) parseNode() (Node, error) {
	tok := p.cur()
	if tok.Kind != TokenIdent {
		return nil, p.errorf(tok.Pos, "expected a node, got %s", describe(tok))
	}
	switch tok.Lit {
	case "sequence", "fallback":
		if p.peek().Kind == TokenLBrace {
			p.advance()
			body, err := p.parseBody()
			if err != nil {
				return nil, err
			}
			return &Block{Kind: *treeKind(tok.Lit), Body: body, Pos: tok.Pos}, nil
		}
	case "root":
		return nil, p.errorf(tok.Pos, "root definitions cannot be nested")
	case "retry":
		if p.peek().Kind == TokenLParen {
			return p.parseRetry()
		}
	}
	return p.parseCall()
}

func (p *parser) parseRetry() (Node, error) {
	kw := p.advance() // retry
	if _, err := p.expect(TokenLParen); err != nil {
		return nil, err
	}
	num, err := p.expect(TokenNumber)
	if err != nil {
		return nil, err
	}
	limit, err := strconv.ParseFloat(num.Lit, 64)
	if err != nil || limit < 0 || limit != math.Trunc(limit) {
		return nil, p.errorf(num.Pos, "retry limit must be a non-negative integer, got %s", num.Lit)
	}
	if _, err := p.expect(TokenRParen); err != nil {
		return nil, err
	}
	child, err := p.parseNode()
	if err != nil {
		return nil, err
	}
	return &Retry{Limit: int(limit), Child: child, Pos: kw.Pos}, nil
}

func (p *parser) parseCall() (*Call, error) {
	name, err := p.expect(TokenIdent)
	if err != nil {
		return nil, err
	}
	args, forwarded, err := p.parseArgs()
	if err != nil {
		return nil, err
	}
	return &Call{Name: name.Lit, Args: args, Forwarded: forwarded, Pos: name.Pos}, nil
}

// parseArgs parses a parenthesized argument list. The `..` forwarding
// marker is only valid as the final entry.
func (p *parser) parseArgs() ([]Arg, bool, error) {
	if _, err := p.expect(TokenLParen); err != nil {
		return nil, false, err
	}
	var args []Arg
	forwarded := false
	for p.cur().Kind != TokenRParen {
		tok := p.cur()
		if forwarded {
			return nil, false, p.errorf(tok.Pos, "'..' must be the last argument")
		}
		if tok.Kind == TokenForward {
			p.advance()
			forwarded = true
		} else {
			arg, err := p.parseArg()
			if err != nil {
				return nil, false, err
			}
			args = append(args, arg)
		}
		if p.cur().Kind == TokenComma {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expect(TokenRParen); err != nil {
		return nil, false, err
	}
	return args, forwarded, nil
}

func (p *parser) parseArg() (Arg, error) {
	tok := p.cur()
	if tok.Kind == TokenIdent && p.peek().Kind == TokenAssign {
		p.advance() // name
		p.advance() // =
		value, err := p.parseExpr()
		if err != nil {
			return Arg{}, err
		}
		return Arg{Name: tok.Lit, Value: value, Pos: tok.Pos}, nil
	}
	value, err := p.parseExpr()
	if err != nil {
		return Arg{}, err
	}
	return Arg{Value: value, Pos: tok.Pos}, nil
}

func (p *parser) parseExpr() (Expr, error) {
	tok := p.cur()
	switch tok.Kind {
	case TokenString, TokenNumber, TokenLBrace, TokenLBracket:
		return p.parseLiteral()
	case TokenIdent:
		if tok.Lit == "true" || tok.Lit == "false" {
			return p.parseLiteral()
		}
		if p.peek().Kind == TokenLParen {
			p.advance()
			args, forwarded, err := p.parseArgs()
			if err != nil {
				return nil, err
			}
			if forwarded {
				return nil, p.errorf(tok.Pos, "'..' is not valid inside a tree-value argument")
			}
			return &SubCall{Name: tok.Lit, Args: args, Pos: tok.Pos}, nil
		}
		p.advance()
		return &Ref{Name: tok.Lit, Pos: tok.Pos}, nil
	}
	return nil, p.errorf(tok.Pos, "expected an argument value, got %s", describe(tok))
}

// parseLiteral parses a literal expression. Object and array literals
// may only contain literals; parameter references inside them are not
// part of the language.
func (p *parser) parseLiteral() (*Lit, error) {
	tok := p.cur()
	value, err := p.parseLiteralValue()
	if err != nil {
		return nil, err
	}
	return &Lit{Value: value, Pos: tok.Pos}, nil
}

func (p *parser) parseLiteralValue() (domain.Value, error) {
	tok := p.cur()
	switch tok.Kind {
	case TokenString:
		p.advance()
		return domain.Str(tok.Lit), nil
	case TokenNumber:
		p.advance()
		n, err := strconv.ParseFloat(tok.Lit, 64)
		if err != nil {
			return domain.Value{}, p.errorf(tok.Pos, "malformed number %q", tok.Lit)
		}
		return domain.Num(n), nil
	case TokenIdent:
		switch tok.Lit {
		case "true":
			p.advance()
			return domain.Bool(true), nil
		case "false":
			p.advance()
			return domain.Bool(false), nil
		}
	case TokenLBrace:
		return p.parseObjectLiteral()
	case TokenLBracket:
		return p.parseArrayLiteral()
	}
	return domain.Value{}, p.errorf(tok.Pos, "expected a literal, got %s", describe(tok))
}

func (p *parser) parseObjectLiteral() (domain.Value, error) {
	p.advance() // {
	entries := make(map[string]domain.Value)
	for p.cur().Kind != TokenRBrace {
		key, err := p.expect(TokenString)
		if err != nil {
			return domain.Value{}, err
		}
		if _, dup := entries[key.Lit]; dup {
			return domain.Value{}, p.errorf(key.Pos, "duplicate object key %q", key.Lit)
		}
		if _, err := p.expect(TokenColon); err != nil {
			return domain.Value{}, err
		}
		val, err := p.parseLiteralValue()
		if err != nil {
			return domain.Value{}, err
		}
		entries[key.Lit] = val
		if p.cur().Kind == TokenComma {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expect(TokenRBrace); err != nil {
		return domain.Value{}, err
	}
	return domain.Object(entries), nil
}

func (p *parser) parseArrayLiteral() (domain.Value, error) {
	p.advance() // [
	var elems []domain.Value
	for p.cur().Kind != TokenRBracket {
		val, err := p.parseLiteralValue()
		if err != nil {
			return domain.Value{}, err
		}
		elems = append(elems, val)
		if p.cur().Kind == TokenComma {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expect(TokenRBracket); err != nil {
		return domain.Value{}, err
	}
	return domain.Array(elems...), nil
}
