package lex

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dekarrin/narratr/internal/token"
)

func classes(toks []token.Token) []token.Class {
	out := make([]token.Class, len(toks))
	for i, t := range toks {
		out[i] = t.Class
	}
	return out
}

func TestLex_tokenClassSequence(t *testing.T) {
	testCases := []struct {
		name   string
		input  string
		expect []token.Class
	}{
		{name: "empty source", input: "", expect: []token.Class{
			token.EOF,
		}},
		{name: "start declaration", input: "start: $1\n", expect: []token.Class{
			token.START, token.COLON, token.SCENEID, token.NEWLINE, token.EOF,
		}},
		{name: "indented block", input: "scene $1 {\n    setup:\n        say \"hi\"\n}\n", expect: []token.Class{
			token.SCENE, token.SCENEID, token.LBRACE, token.NEWLINE,
			token.INDENT, token.SETUP, token.COLON, token.NEWLINE,
			token.INDENT, token.SAY, token.STRING, token.NEWLINE,
			token.DEDENT, token.DEDENT, token.RBRACE, token.NEWLINE,
			token.EOF,
		}},
		{name: "comment-only line is skipped", input: "# a comment\nstart: $1\n", expect: []token.Class{
			token.START, token.COLON, token.SCENEID, token.NEWLINE, token.EOF,
		}},
		{name: "arithmetic and double-slash division", input: "1 // 2\n", expect: []token.Class{
			token.INTEGER, token.DSLASH, token.INTEGER, token.NEWLINE, token.EOF,
		}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			toks, err := Lex(tc.input)
			if !assert.NoError(t, err) {
				return
			}
			assert.Equal(t, tc.expect, classes(toks))
		})
	}
}

func TestLex_unterminatedStringIsError(t *testing.T) {
	_, err := Lex(`say "unterminated` + "\n")
	assert.Error(t, err)
}

func TestLex_inconsistentDedentIsError(t *testing.T) {
	src := "scene $1 {\n    setup:\n        say \"hi\"\n      say \"bad\"\n"
	_, err := Lex(src)
	assert.Error(t, err)
}

func TestLex_sceneIDRequiresDigits(t *testing.T) {
	_, err := Lex("moveto $\n")
	assert.Error(t, err)
}
