package compiler

import "fmt"

// TokenKind enumerates the lexical classes of the .tree language.
type TokenKind uint8

const (
	TokenEOF TokenKind = iota
	TokenIdent
	TokenString
	TokenNumber
	TokenLBrace   // {
	TokenRBrace   // }
	TokenLParen   // (
	TokenRParen   // )
	TokenLBracket // [
	TokenRBracket // ]
	TokenComma    // ,
	TokenColon    // :
	TokenSemi     // ;
	TokenAssign   // =
	TokenArrow    // =>
	TokenForward  // ..
)

// String returns a human-readable token class name for diagnostics.
func (k TokenKind) String() string {
	switch k {
	case TokenEOF:
		return "end of file"
	case TokenIdent:
		return "identifier"
	case TokenString:
		return "string"
	case TokenNumber:
		return "number"
	case TokenLBrace:
		return "'{'"
	case TokenRBrace:
		return "'}'"
	case TokenLParen:
		return "'('"
	case TokenRParen:
		return "')'"
	case TokenLBracket:
		return "'['"
	case TokenRBracket:
		return "']'"
	case TokenComma:
		return "','"
	case TokenColon:
		return "':'"
	case TokenSemi:
		return "';'"
	case TokenAssign:
		return "'='"
	case TokenArrow:
		return "'=>'"
	case TokenForward:
		return "'..'"
	}
	return fmt.Sprintf("token(%d)", uint8(k))
}

// Pos is a 1-based source location.
type Pos struct {
	Line int
	Col  int
}

func (p Pos) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Col)
}

// Token is one lexeme with its location. Lit holds the identifier text,
// the decoded string value, or the raw number spelling.
type Token struct {
	Kind TokenKind
	Lit  string
	Pos  Pos
}
