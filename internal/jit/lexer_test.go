package jit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kinds(toks []token) []tokenKind {
	out := make([]tokenKind, len(toks))
	for i, t := range toks {
		out[i] = t.kind
	}
	return out
}

func TestTokenizeIndentation(t *testing.T) {
	toks, err := tokenize("def f(a):\n    return a\n")
	require.NoError(t, err)

	assert.Equal(t, []tokenKind{
		tokName, tokName, tokOp, tokName, tokOp, tokOp, tokNewline,
		tokIndent, tokName, tokName, tokNewline,
		tokDedent, tokEOF,
	}, kinds(toks))
}

func TestTokenizeDedentsEmbeddedSource(t *testing.T) {
	// Scripts embedded in Go string literals carry the surrounding indentation.
	src := "\n\t\tdef sum(a, b):\n\t\t\treturn a + b\n\t"
	toks, err := tokenize(src)
	require.NoError(t, err)
	assert.Equal(t, "def", toks[0].text)
	assert.Equal(t, Pos{Line: 2, Col: 1}, toks[0].pos)
}

func TestTokenizeBracketsJoinLines(t *testing.T) {
	toks, err := tokenize("x = f(a,\n      b)\n")
	require.NoError(t, err)

	newlines := 0
	for _, tok := range toks {
		if tok.kind == tokNewline {
			newlines++
		}
		assert.NotEqual(t, tokIndent, tok.kind)
	}
	assert.Equal(t, 1, newlines)
}

func TestTokenizeNumbersAndOperators(t *testing.T) {
	toks, err := tokenize("x = 1 + 2.5 * .5e1 @ y -> z += 3 # comment\n")
	require.NoError(t, err)

	var texts []string
	for _, tok := range toks {
		if tok.kind == tokInt || tok.kind == tokFloat || tok.kind == tokOp {
			texts = append(texts, tok.text)
		}
	}
	assert.Equal(t, []string{"=", "1", "+", "2.5", "*", ".5e1", "@", "->", "+=", "3"}, texts)
	assert.Equal(t, tokFloat, toks[4].kind)
}

func TestTokenizeErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		msg  string
	}{
		{"bad character", "x = a $ b\n", "unexpected character"},
		{"unclosed", "x = f(a\n", "unclosed bracket"},
		{"unmatched", "x = a)\n", "unmatched"},
		{"bad dedent", "def f(a):\n        x = a\n    return x\n", "unindent"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tokenize(tt.src)
			var syntaxErr *SyntaxError
			require.ErrorAs(t, err, &syntaxErr)
			assert.Contains(t, syntaxErr.Msg, tt.msg)
		})
	}
}

func TestDedent(t *testing.T) {
	assert.Equal(t, "a\n  b\n\nc", dedent("    a\n      b\n\n    c"))
	assert.Equal(t, "a\n b", dedent("a\n b"))
}
