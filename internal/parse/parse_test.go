package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dekarrin/narratr/internal/ast"
	"github.com/dekarrin/narratr/internal/lex"
	"github.com/dekarrin/narratr/internal/symtab"
)

func mustParse(t *testing.T, src string) (*ast.Program, *symtab.Table) {
	t.Helper()
	toks, err := lex.Lex(src)
	require.NoError(t, err)
	prog, table, _, err := Parse(toks)
	require.NoError(t, err)
	return prog, table
}

func TestParse_helloWorld(t *testing.T) {
	src := "scene $1 {\n    setup:\n        say \"hello\"\n    action:\n    cleanup:\n}\nstart: $1\n"
	prog, _ := mustParse(t, src)

	require.Len(t, prog.Scenes, 1)
	require.Len(t, prog.Starts, 1)
	assert.Equal(t, "1", prog.Starts[0].SceneID)

	require.Len(t, prog.Scenes[0].Setup, 1)
	say, ok := prog.Scenes[0].Setup[0].(*ast.SayStmt)
	require.True(t, ok)
	require.Len(t, say.Args, 1)
	lit, ok := say.Args[0].(*ast.LiteralExpr)
	require.True(t, ok)
	assert.Equal(t, "hello", lit.Str)
}

func TestParse_duplicateSceneIsError(t *testing.T) {
	src := "scene $1 {\n    setup:\n        say \"a\"\n    action:\n    cleanup:\n}\nscene $1 {\n    setup:\n        say \"b\"\n    action:\n    cleanup:\n}\nstart: $1\n"
	toks, err := lex.Lex(src)
	require.NoError(t, err)
	_, _, _, err = Parse(toks)
	assert.Error(t, err)
}

func TestParse_assignmentRegistersSymbol(t *testing.T) {
	src := "scene $1 {\n    setup:\n        score is 0\n        score is score + 1\n    action:\n    cleanup:\n}\nstart: $1\n"
	_, table := mustParse(t, src)

	entry, ok := table.Get("score", symtab.SceneScope("1"))
	require.True(t, ok)
	assert.False(t, entry.God)
}

func TestParse_godAssignmentSetsGodFlag(t *testing.T) {
	src := "scene $1 {\n    setup:\n        god flag is true\n    action:\n    cleanup:\n}\nstart: $1\n"
	_, table := mustParse(t, src)

	entry, ok := table.Get("flag", symtab.SceneScope("1"))
	require.True(t, ok)
	assert.True(t, entry.God)
}

func TestParse_undefinedIdentifierIsError(t *testing.T) {
	src := "scene $1 {\n    setup:\n    action:\n        say unknown\n    cleanup:\n}\nstart: $1\n"
	toks, err := lex.Lex(src)
	require.NoError(t, err)
	_, _, _, err = Parse(toks)
	assert.Error(t, err)
}

func TestParse_ifElifElse(t *testing.T) {
	src := "scene $1 {\n    setup:\n    action:\n        score is 1\n        if score == 1:\n            say \"one\"\n        elif score == 2:\n            say \"two\"\n        else:\n            say \"other\"\n    cleanup:\n}\nstart: $1\n"
	prog, _ := mustParse(t, src)

	ifStmt, ok := prog.Scenes[0].Action[1].(*ast.IfStmt)
	require.True(t, ok)
	assert.Len(t, ifStmt.Elifs, 1)
	assert.NotNil(t, ifStmt.Else)
}

func TestParse_whileBreakContinue(t *testing.T) {
	src := "scene $1 {\n    setup:\n    action:\n        i is 0\n        while i < 3:\n            i is i + 1\n            continue\n            break\n    cleanup:\n}\nstart: $1\n"
	prog, _ := mustParse(t, src)

	whileStmt, ok := prog.Scenes[0].Action[1].(*ast.WhileStmt)
	require.True(t, ok)
	require.Len(t, whileStmt.Body, 3)
	_, isContinue := whileStmt.Body[1].(*ast.ContinueStmt)
	assert.True(t, isContinue)
	_, isBreak := whileStmt.Body[2].(*ast.BreakStmt)
	assert.True(t, isBreak)
}

func TestParse_movesAndMoveto(t *testing.T) {
	src := "scene $1 {\n    setup:\n    action:\n        moves left($2), right($2)\n    cleanup:\n}\nscene $2 {\n    setup:\n    action:\n        moveto $1\n    cleanup:\n}\nstart: $1\n"
	prog, _ := mustParse(t, src)

	moves, ok := prog.Scenes[0].Action[0].(*ast.MovesStmt)
	require.True(t, ok)
	require.Len(t, moves.Directions, 2)
	assert.Equal(t, "left", moves.Directions[0].Keyword)
	assert.Equal(t, "2", moves.Directions[0].SceneID)

	moveto, ok := prog.Scenes[1].Action[0].(*ast.MovetoStmt)
	require.True(t, ok)
	assert.Equal(t, "1", moveto.SceneID)
}

func TestParse_itemDeclarationWithFormals(t *testing.T) {
	src := "item key(label) {\n}\nscene $1 {\n    setup:\n        pocket.add(\"k\", key(\"brass\"))\n    action:\n    cleanup:\n}\nstart: $1\n"
	prog, _ := mustParse(t, src)

	require.Len(t, prog.Items, 1)
	assert.Equal(t, "key", prog.Items[0].Name)
	assert.Equal(t, []string{"label"}, prog.Items[0].Formals)
}

func TestParse_winAndLoseWithArgs(t *testing.T) {
	src := "scene $1 {\n    setup:\n    action:\n        if true:\n            win \"you did it\"\n        else:\n            lose \"oh no\"\n    cleanup:\n}\nstart: $1\n"
	prog, _ := mustParse(t, src)

	ifStmt := prog.Scenes[0].Action[0].(*ast.IfStmt)
	_, ok := ifStmt.Then[0].(*ast.WinStmt)
	assert.True(t, ok)
	_, ok = ifStmt.Else[0].(*ast.LoseStmt)
	assert.True(t, ok)
}

func TestParse_integerDivisionOperator(t *testing.T) {
	src := "scene $1 {\n    setup:\n    action:\n        x is 7 // 2\n    cleanup:\n}\nstart: $1\n"
	prog, _ := mustParse(t, src)

	assign := prog.Scenes[0].Action[0].(*ast.AssignStmt)
	bin := assign.Value.(*ast.BinaryExpr)
	assert.Equal(t, "//", bin.Op)
}
