// Copyright 2025 The Agex Authors
// SPDX-License-Identifier: Apache-2.0

package eval

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

func TestLexIndentAndDedent(t *testing.T) {
	src := "if x:\n    y = 1\nz = 2\n"
	toks, err := lex(src)
	require.NoError(t, err)
	ks := kinds(toks)
	assert.Contains(t, ks, tokIndent)
	assert.Contains(t, ks, tokDedent)
	// the DEDENT must land before the trailing assignment to z.
	var dedentIdx, zIdx int = -1, -1
	for i, tk := range toks {
		if tk.kind == tokDedent && dedentIdx == -1 {
			dedentIdx = i
		}
		if tk.kind == tokName && tk.text == "z" {
			zIdx = i
		}
	}
	require.NotEqual(t, -1, dedentIdx)
	require.NotEqual(t, -1, zIdx)
	assert.Less(t, dedentIdx, zIdx)
}

func TestLexInconsistentIndentationErrors(t *testing.T) {
	src := "if x:\n    y = 1\n  z = 2\n"
	_, err := lex(src)
	assert.Error(t, err)
}

func TestLexParenSuppressesNewline(t *testing.T) {
	src := "x = (1 +\n     2)\n"
	toks, err := lex(src)
	require.NoError(t, err)
	newlines := 0
	for _, tk := range toks {
		if tk.kind == tokNewline {
			newlines++
		}
	}
	// one trailing NEWLINE only; the line break inside parens is not one.
	assert.Equal(t, 1, newlines)
}

func TestLexBackslashContinuation(t *testing.T) {
	src := "x = 1 + \\\n    2\n"
	toks, err := lex(src)
	require.NoError(t, err)
	newlines := 0
	for _, tk := range toks {
		if tk.kind == tokNewline {
			newlines++
		}
	}
	assert.Equal(t, 1, newlines)
}

func TestLexTripleQuotedString(t *testing.T) {
	src := "x = \"\"\"hello\nworld\"\"\"\n"
	toks, err := lex(src)
	require.NoError(t, err)
	var found bool
	for _, tk := range toks {
		if tk.kind == tokString && tk.text == "hello\nworld" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestLexNumbers(t *testing.T) {
	toks, err := lex("1_000 3.14 2e10\n")
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(toks), 3)
	assert.Equal(t, tokInt, toks[0].kind)
	assert.Equal(t, "1000", toks[0].text)
	assert.Equal(t, tokFloat, toks[1].kind)
	assert.Equal(t, tokFloat, toks[2].kind)
}

func TestLexFStringIsRawUntilParsed(t *testing.T) {
	toks, err := lex(`f"hi {name}!"` + "\n")
	require.NoError(t, err)
	require.Equal(t, tokFString, toks[0].kind)
	assert.Equal(t, "hi {name}!", toks[0].text)
}

func TestLexFStringEscapedBraces(t *testing.T) {
	toks, err := lex(`f"{{literal}}"` + "\n")
	require.NoError(t, err)
	require.Equal(t, tokFString, toks[0].kind)
	assert.Equal(t, "{{literal}}", toks[0].text)
}

func TestLexKeywordsVsNames(t *testing.T) {
	toks, err := lex("if iffy\n")
	require.NoError(t, err)
	assert.Equal(t, tokKeyword, toks[0].kind)
	assert.Equal(t, tokName, toks[1].kind)
}
