// Package lex implements the Narratr lexer: a hand-written scanner that
// turns source text into the indentation-aware token stream described in
// spec.md §4.1. It is grounded in the token-class/match-rule shape of
// github.com/dekarrin/tunaq's internal/tunascript lexer, generalized here
// to track an indent stack the way a layout-sensitive grammar requires.
package lex

import (
	"strings"
	"unicode"

	"github.com/dekarrin/narratr/internal/ntrerr"
	"github.com/dekarrin/narratr/internal/token"
)

// commentRune introduces a line comment; everything from it to end of line
// is discarded without affecting layout.
const commentRune = '#'

// Lex scans the full contents of src and returns the token stream, including
// synthetic NEWLINE/INDENT/DEDENT tokens, terminated by a single EOF token.
// The first lexical problem encountered (unknown character, unterminated
// string, or inconsistent dedent) aborts scanning and is returned as a
// *ntrerr.Diagnostic.
func Lex(src string) ([]token.Token, error) {
	l := &lexer{
		src:         []rune(src),
		line:        1,
		indentStack: []int{0},
		atLineStart: true,
	}
	return l.run()
}

type lexer struct {
	src  []rune
	pos  int
	line int

	indentStack []int
	atLineStart bool

	toks []token.Token
}

func (l *lexer) run() ([]token.Token, error) {
	for {
		if l.atLineStart {
			done, err := l.handleLineStart()
			if err != nil {
				return nil, err
			}
			if done {
				break
			}
			if l.atLineStart {
				// handleLineStart left us still needing to reprocess (blank
				// line consumed); loop again.
				continue
			}
		}

		if err := l.scanLineBody(); err != nil {
			return nil, err
		}
	}

	// unwind any remaining indentation at EOF
	for len(l.indentStack) > 1 {
		l.indentStack = l.indentStack[:len(l.indentStack)-1]
		l.emit(token.DEDENT, "")
	}
	l.emit(token.EOF, "")
	return l.toks, nil
}

// handleLineStart measures the indentation of the upcoming logical line,
// skipping blank and comment-only lines entirely (they do not affect the
// indent stack or emit layout tokens). It returns done=true once the source
// is exhausted.
func (l *lexer) handleLineStart() (done bool, err error) {
	for {
		if l.pos >= len(l.src) {
			return true, nil
		}

		width, chars := l.measureIndent()
		lineEmpty := l.pos+chars >= len(l.src) || l.src[l.pos+chars] == '\n'
		isComment := l.pos+chars < len(l.src) && l.src[l.pos+chars] == commentRune

		if lineEmpty {
			// blank line: consume it (including any trailing newline) and
			// keep looking for the next logical line.
			l.pos += chars
			if l.pos < len(l.src) && l.src[l.pos] == '\n' {
				l.pos++
				l.line++
			}
			continue
		}

		if isComment {
			l.pos += chars
			l.skipToEOL()
			if l.pos < len(l.src) && l.src[l.pos] == '\n' {
				l.pos++
				l.line++
			}
			continue
		}

		l.pos += chars
		top := l.indentStack[len(l.indentStack)-1]
		switch {
		case width > top:
			l.indentStack = append(l.indentStack, width)
			l.emit(token.INDENT, "")
		case width < top:
			for len(l.indentStack) > 0 && l.indentStack[len(l.indentStack)-1] > width {
				l.indentStack = l.indentStack[:len(l.indentStack)-1]
				l.emit(token.DEDENT, "")
			}
			if len(l.indentStack) == 0 || l.indentStack[len(l.indentStack)-1] != width {
				return false, ntrerr.Lexical(l.line, "inconsistent dedent: indentation does not match any enclosing block level")
			}
		}

		l.atLineStart = false
		return false, nil
	}
}

// measureIndent reports the visual width of the leading whitespace run at
// l.pos (tabs count as 8 columns, rounded to the next multiple) and the
// number of runes it spans.
func (l *lexer) measureIndent() (width, runeCount int) {
	for l.pos+runeCount < len(l.src) {
		c := l.src[l.pos+runeCount]
		if c == ' ' {
			width++
			runeCount++
		} else if c == '\t' {
			width += 8 - (width % 8)
			runeCount++
		} else {
			break
		}
	}
	return width, runeCount
}

func (l *lexer) skipToEOL() {
	for l.pos < len(l.src) && l.src[l.pos] != '\n' {
		l.pos++
	}
}

// scanLineBody tokenizes from the current position to the end of the
// logical line, emitting one NEWLINE once the line ends.
func (l *lexer) scanLineBody() error {
	for {
		if l.pos >= len(l.src) {
			l.emit(token.NEWLINE, "")
			l.atLineStart = true
			return nil
		}

		c := l.src[l.pos]

		switch {
		case c == '\n':
			l.pos++
			l.line++
			l.emit(token.NEWLINE, "")
			l.atLineStart = true
			return nil
		case c == ' ' || c == '\t' || c == '\r':
			l.pos++
		case c == commentRune:
			l.skipToEOL()
		case c == '"':
			if err := l.scanString(); err != nil {
				return err
			}
		case c == '$':
			if err := l.scanSceneID(); err != nil {
				return err
			}
		case unicode.IsDigit(c):
			l.scanNumber()
		case unicode.IsLetter(c) || c == '_':
			l.scanIdentOrKeyword()
		default:
			if err := l.scanPunct(); err != nil {
				return err
			}
		}
	}
}

func (l *lexer) emit(class token.Class, lexeme string) {
	l.toks = append(l.toks, token.New(class, lexeme, l.line))
}

func (l *lexer) scanString() error {
	startLine := l.line
	l.pos++ // opening quote
	var sb strings.Builder
	for {
		if l.pos >= len(l.src) {
			return ntrerr.Lexical(startLine, "unterminated string literal")
		}
		c := l.src[l.pos]
		if c == '\n' {
			return ntrerr.Lexical(startLine, "unterminated string literal")
		}
		if c == '\\' && l.pos+1 < len(l.src) {
			// preserve the escape verbatim for later re-emission (spec.md §4.1)
			sb.WriteRune(c)
			sb.WriteRune(l.src[l.pos+1])
			l.pos += 2
			continue
		}
		if c == '"' {
			l.pos++
			break
		}
		sb.WriteRune(c)
		l.pos++
	}
	l.emit(token.STRING, sb.String())
	return nil
}

func (l *lexer) scanSceneID() error {
	startLine := l.line
	start := l.pos
	l.pos++ // '$'
	digitsStart := l.pos
	for l.pos < len(l.src) && unicode.IsDigit(l.src[l.pos]) {
		l.pos++
	}
	if l.pos == digitsStart {
		return ntrerr.Lexical(startLine, "expected digits after '$' to form a scene id, found %q", string(l.src[start:min(start+1, len(l.src))]))
	}
	l.emit(token.SCENEID, string(l.src[digitsStart:l.pos]))
	return nil
}

func (l *lexer) scanNumber() {
	start := l.pos
	for l.pos < len(l.src) && unicode.IsDigit(l.src[l.pos]) {
		l.pos++
	}
	isFloat := false
	if l.pos < len(l.src) && l.src[l.pos] == '.' && l.pos+1 < len(l.src) && unicode.IsDigit(l.src[l.pos+1]) {
		isFloat = true
		l.pos++
		for l.pos < len(l.src) && unicode.IsDigit(l.src[l.pos]) {
			l.pos++
		}
	}
	lexeme := string(l.src[start:l.pos])
	if isFloat {
		l.emit(token.FLOAT, lexeme)
	} else {
		l.emit(token.INTEGER, lexeme)
	}
}

func (l *lexer) scanIdentOrKeyword() {
	start := l.pos
	for l.pos < len(l.src) && (unicode.IsLetter(l.src[l.pos]) || unicode.IsDigit(l.src[l.pos]) || l.src[l.pos] == '_') {
		l.pos++
	}
	word := string(l.src[start:l.pos])
	if class, ok := token.Keywords[word]; ok {
		l.emit(class, word)
		return
	}
	l.emit(token.ID, word)
}

type punctRule struct {
	lexeme string
	class  token.Class
}

// punctRules is checked longest-lexeme-first so e.g. "//" is preferred over
// two separate "/" tokens.
var punctRules = []punctRule{
	{"//", token.DSLASH},
	{"<=", token.LE},
	{">=", token.GE},
	{"==", token.EQ},
	{"!=", token.NE},
	{"{", token.LBRACE},
	{"}", token.RBRACE},
	{"(", token.LPAREN},
	{")", token.RPAREN},
	{"[", token.LBRACKET},
	{"]", token.RBRACKET},
	{",", token.COMMA},
	{":", token.COLON},
	{".", token.DOT},
	{"+", token.PLUS},
	{"-", token.MINUS},
	{"*", token.STAR},
	{"/", token.SLASH},
	{"<", token.LT},
	{">", token.GT},
}

func (l *lexer) scanPunct() error {
	remaining := l.src[l.pos:]
	for _, rule := range punctRules {
		rl := []rune(rule.lexeme)
		if len(remaining) < len(rl) {
			continue
		}
		if string(remaining[:len(rl)]) == rule.lexeme {
			l.pos += len(rl)
			l.emit(rule.class, rule.lexeme)
			return nil
		}
	}
	return ntrerr.Lexical(l.line, "unexpected character %q", string(l.src[l.pos]))
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
