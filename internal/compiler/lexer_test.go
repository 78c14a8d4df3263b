package compiler

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kinds(toks []Token) []TokenKind {
	out := make([]TokenKind, len(toks))
	for i, t := range toks {
		out[i] = t.Kind
	}
	return out
}

func TestLex_CallWithArgs(t *testing.T) {
	toks, err := lex("test.tree", `place_to(what={"x": 1}, operation=place([10]))`)
	require.NoError(t, err)

	assert.Equal(t, []TokenKind{
		TokenIdent, TokenLParen,
		TokenIdent, TokenAssign, TokenLBrace, TokenString, TokenColon, TokenNumber, TokenRBrace, TokenComma,
		TokenIdent, TokenAssign, TokenIdent, TokenLParen, TokenLBracket, TokenNumber, TokenRBracket, TokenRParen,
		TokenRParen, TokenEOF,
	}, kinds(toks))
}

func TestLex_ForwardMarker(t *testing.T) {
	toks, err := lex("test.tree", "job(..)")
	require.NoError(t, err)
	assert.Equal(t, []TokenKind{TokenIdent, TokenLParen, TokenForward, TokenRParen, TokenEOF}, kinds(toks))
}

func TestLex_SingleDotIsError(t *testing.T) {
	_, err := lex("test.tree", "job(.)")
	var syn *SyntaxError
	require.True(t, errors.As(err, &syn))
}

func TestLex_ArrowVersusAssign(t *testing.T) {
	toks, err := lex("test.tree", "a => b = c")
	require.NoError(t, err)
	assert.Equal(t, []TokenKind{TokenIdent, TokenArrow, TokenIdent, TokenAssign, TokenIdent, TokenEOF}, kinds(toks))
}

func TestLex_CommentsAndPositions(t *testing.T) {
	src := "// a comment\nfoo() // trailing\nbar()\n"
	toks, err := lex("test.tree", src)
	require.NoError(t, err)

	require.Equal(t, TokenIdent, toks[0].Kind)
	assert.Equal(t, "foo", toks[0].Lit)
	assert.Equal(t, Pos{Line: 2, Col: 1}, toks[0].Pos)

	assert.Equal(t, "bar", toks[3].Lit)
	assert.Equal(t, Pos{Line: 3, Col: 1}, toks[3].Pos)
}

func TestLex_StringEscapes(t *testing.T) {
	toks, err := lex("test.tree", `"line\nbreak \"quoted\""`)
	require.NoError(t, err)
	require.Equal(t, TokenString, toks[0].Kind)
	assert.Equal(t, "line\nbreak \"quoted\"", toks[0].Lit)
}

func TestLex_UnterminatedString(t *testing.T) {
	_, err := lex("test.tree", `log("oops`)
	var syn *SyntaxError
	require.True(t, errors.As(err, &syn))
}

func TestLex_NegativeAndFractionalNumbers(t *testing.T) {
	toks, err := lex("test.tree", "-3.5 42")
	require.NoError(t, err)
	require.Equal(t, TokenNumber, toks[0].Kind)
	assert.Equal(t, "-3.5", toks[0].Lit)
	assert.Equal(t, "42", toks[1].Lit)
}
