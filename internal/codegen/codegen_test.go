package codegen

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dekarrin/narratr/internal/lex"
	"github.com/dekarrin/narratr/internal/parse"
)

func generate(t *testing.T, src string, opts Options) (string, error) {
	t.Helper()
	toks, err := lex.Lex(src)
	require.NoError(t, err)
	prog, table, _, err := parse.Parse(toks)
	require.NoError(t, err)
	out, _, err := Generate(prog, table, opts)
	return out, err
}

func TestGenerate_frontmatterAndTrampoline(t *testing.T) {
	src := "scene $1 {\n    setup:\n        say \"hi\"\n    action:\n    cleanup:\n}\nstart: $1\n"
	out, err := generate(t, src, Options{})
	require.NoError(t, err)

	assert.Contains(t, out, "pocket = {}")
	assert.Contains(t, out, "def _trampoline(start):")
	assert.Contains(t, out, "while callable(step):")
	assert.Contains(t, out, `print("hi")`)
}

func TestGenerate_sayStatement(t *testing.T) {
	src := "scene $1 {\n    setup:\n        say \"hello\", \"world\"\n    action:\n    cleanup:\n}\nstart: $1\n"
	out, err := generate(t, src, Options{})
	require.NoError(t, err)
	assert.Contains(t, out, `print("hello", "world")`)
}

func TestGenerate_integerDivision(t *testing.T) {
	src := "scene $1 {\n    setup:\n    action:\n        x is 7 // 2\n    cleanup:\n}\nstart: $1\n"
	out, err := generate(t, src, Options{})
	require.NoError(t, err)
	assert.Contains(t, out, "(7 // 2)")
}

func TestGenerate_ifElifElse(t *testing.T) {
	src := "scene $1 {\n    setup:\n    action:\n        score is 1\n        if score == 1:\n            say \"one\"\n        elif score == 2:\n            say \"two\"\n        else:\n            say \"other\"\n    cleanup:\n}\nstart: $1\n"
	out, err := generate(t, src, Options{})
	require.NoError(t, err)
	assert.Contains(t, out, "if (self.__namespace[\"score\"] == 1):")
	assert.Contains(t, out, "elif (self.__namespace[\"score\"] == 2):")
	assert.Contains(t, out, "else:")
}

func TestGenerate_whileBreakContinue(t *testing.T) {
	src := "scene $1 {\n    setup:\n    action:\n        i is 0\n        while i < 3:\n            i is i + 1\n            continue\n            break\n    cleanup:\n}\nstart: $1\n"
	out, err := generate(t, src, Options{})
	require.NoError(t, err)
	assert.Contains(t, out, "while (self.__namespace[\"i\"] < 3):")
	assert.Contains(t, out, "continue")
	assert.Contains(t, out, "break")
}

func TestGenerate_godVariableBecomesSelfAttr(t *testing.T) {
	src := "scene $1 {\n    setup:\n        god flag is true\n    action:\n    cleanup:\n}\nstart: $1\n"
	out, err := generate(t, src, Options{})
	require.NoError(t, err)
	assert.Contains(t, out, "self.flag = True")
	assert.NotContains(t, out, "__namespace[\"flag\"]")
}

func TestGenerate_movesAndMoveto(t *testing.T) {
	src := "scene $1 {\n    setup:\n    action:\n        moves left($2), right($2)\n    cleanup:\n}\nscene $2 {\n    setup:\n    action:\n        moveto $1\n    cleanup:\n}\nstart: $1\n"
	out, err := generate(t, src, Options{})
	require.NoError(t, err)
	assert.Contains(t, out, `"left": s_2_inst.setup`)
	assert.Contains(t, out, `"right": s_2_inst.setup`)
	assert.Contains(t, out, "_moves.update({")
	assert.Contains(t, out, "_response = get_response(_moves)")
	assert.Contains(t, out, "return lambda: s_1_inst.setup()")
}

func TestGenerate_cleanupRunsBeforeMove(t *testing.T) {
	src := "scene $1 {\n    setup:\n    action:\n        moves left($2)\n    cleanup:\n        say \"leaving\"\n}\nscene $2 {\n    setup:\n    action:\n        moveto $1\n    cleanup:\n        say \"bye\"\n}\nstart: $1\n"
	out, err := generate(t, src, Options{})
	require.NoError(t, err)

	moveRespIdx := strings.Index(out, "if callable(_response):")
	cleanupCallIdx := strings.Index(out[moveRespIdx:], "self.cleanup()")
	require.NotEqual(t, -1, cleanupCallIdx)
	returnRespIdx := strings.Index(out[moveRespIdx:], "return _response")
	require.NotEqual(t, -1, returnRespIdx)
	assert.Less(t, cleanupCallIdx, returnRespIdx)

	movetoIdx := strings.Index(out, "s_1_inst.setup()")
	cleanupBeforeMoveto := strings.LastIndex(out[:movetoIdx], "self.cleanup()")
	require.NotEqual(t, -1, cleanupBeforeMoveto)
	assert.Less(t, cleanupBeforeMoveto, movetoIdx)
}

func TestGenerate_setupTailCallsAction(t *testing.T) {
	src := "scene $1 {\n    setup:\n        say \"welcome\"\n    action:\n    cleanup:\n}\nstart: $1\n"
	out, err := generate(t, src, Options{})
	require.NoError(t, err)
	assert.Contains(t, out, "def setup(self):")
	assert.Contains(t, out, "def action(self):")
	assert.Contains(t, out, "return lambda: self.action()")
}

func TestGenerate_helloWorldReadsResponseOnceBeforeLooping(t *testing.T) {
	src := "scene $1 {\n    setup:\n    action:\n        say \"Hello, World!\"\n    cleanup:\n}\nstart: $1\n"
	out, err := generate(t, src, Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(out, `print("Hello, World!")`))

	sayIdx := strings.Index(out, `print("Hello, World!")`)
	respIdx := strings.Index(out, "_response = get_response(_moves)")
	require.NotEqual(t, -1, respIdx)
	assert.Less(t, sayIdx, respIdx)
}

func TestGenerate_getResponseDispatcherNormalizesInput(t *testing.T) {
	out, err := generate(t, "scene $1 {\n    setup:\n    action:\n        moves left($1)\n    cleanup:\n}\nstart: $1\n", Options{})
	require.NoError(t, err)
	assert.Contains(t, out, "def get_response(direction):")
	assert.Contains(t, out, "response = input()")
	assert.Contains(t, out, "except EOFError:")
	assert.Contains(t, out, `response = response.lower()`)
	assert.Contains(t, out, `if response == "exit":`)
	assert.Contains(t, out, `words[0] == "move" and words[1] in direction`)
}

func TestGenerate_divisionFloors(t *testing.T) {
	src := "scene $1 {\n    setup:\n    action:\n        x is 10 / 3\n    cleanup:\n}\nstart: $1\n"
	out, err := generate(t, src, Options{})
	require.NoError(t, err)
	assert.Contains(t, out, "(10 // 3)")
	assert.NotContains(t, out, "(10 / 3)")
}

func TestGenerate_pocketAddIsInsertIfAbsent(t *testing.T) {
	src := "item key(label) {\n}\nscene $1 {\n    setup:\n        pocket.add(\"k\", key(\"brass\"))\n        x is pocket.get(\"k\")\n        pocket.remove(\"k\")\n    action:\n    cleanup:\n}\nstart: $1\n"
	out, err := generate(t, src, Options{})
	require.NoError(t, err)
	assert.Contains(t, out, `pocket_add("k", key("brass"))`)
	assert.Contains(t, out, `pocket["k"]`)
	assert.Contains(t, out, `pocket.pop("k")`)
	assert.Contains(t, out, `def key(label):`)
	assert.Contains(t, out, `return {"label": label}`)
	assert.Contains(t, out, "def pocket_add(key, val):")
	assert.Contains(t, out, "if key in pocket:")
}

func TestGenerate_pocketUpdateIsUnconditionalOverwrite(t *testing.T) {
	src := "scene $1 {\n    setup:\n        pocket.update(\"k\", \"v\")\n    action:\n    cleanup:\n}\nstart: $1\n"
	out, err := generate(t, src, Options{})
	require.NoError(t, err)
	assert.Contains(t, out, `pocket.__setitem__("k", "v")`)
}

func TestGenerate_pocketHas(t *testing.T) {
	src := "scene $1 {\n    setup:\n    action:\n        if pocket.has(\"k\"):\n            say \"yes\"\n    cleanup:\n}\nstart: $1\n"
	out, err := generate(t, src, Options{})
	require.NoError(t, err)
	assert.Contains(t, out, `if ("k" in pocket):`)
}

func TestGenerate_winAndLoseBothExitZero(t *testing.T) {
	src := "scene $1 {\n    setup:\n    action:\n        if true:\n            win \"you did it\"\n        else:\n            lose \"oh no\"\n    cleanup:\n}\nstart: $1\n"
	out, err := generate(t, src, Options{})
	require.NoError(t, err)
	// the frontmatter's get_response carries its own sys.exit(0) calls
	assert.Equal(t, 2, strings.Count(out, "sys.exit(0)")-strings.Count(getResponseSrc, "sys.exit(0)"))
	assert.Contains(t, out, `print("you did it")`)
	assert.Contains(t, out, `print("oh no")`)
}

func TestGenerate_missingStartSceneIsError(t *testing.T) {
	src := "scene $1 {\n    setup:\n        say \"hi\"\n    action:\n    cleanup:\n}\n"
	toks, err := lex.Lex(src)
	require.NoError(t, err)
	prog, table, _, err := parse.Parse(toks)
	require.NoError(t, err)

	_, _, err = Generate(prog, table, Options{})
	assert.Error(t, err)
}

func TestGenerate_movetoUnknownSceneIsError(t *testing.T) {
	src := "scene $1 {\n    setup:\n    action:\n        moveto $99\n    cleanup:\n}\nstart: $1\n"
	_, err := generate(t, src, Options{})
	assert.Error(t, err)
}

func TestGenerate_duplicateStartIsWarningByDefault(t *testing.T) {
	src := "scene $1 {\n    setup:\n        say \"a\"\n    action:\n    cleanup:\n}\nscene $2 {\n    setup:\n        say \"b\"\n    action:\n    cleanup:\n}\nstart: $1\nstart: $2\n"
	toks, err := lex.Lex(src)
	require.NoError(t, err)
	prog, table, _, err := parse.Parse(toks)
	require.NoError(t, err)

	out, warnings, err := Generate(prog, table, Options{})
	require.NoError(t, err)
	assert.NotEmpty(t, warnings)
	assert.Contains(t, out, "s_1_inst.setup()")
}

func TestGenerate_duplicateStartIsFatalInStrictMode(t *testing.T) {
	src := "scene $1 {\n    setup:\n        say \"a\"\n    action:\n    cleanup:\n}\nscene $2 {\n    setup:\n        say \"b\"\n    action:\n    cleanup:\n}\nstart: $1\nstart: $2\n"
	toks, err := lex.Lex(src)
	require.NoError(t, err)
	prog, table, _, err := parse.Parse(toks)
	require.NoError(t, err)

	_, _, err = Generate(prog, table, Options{StrictStart: true})
	assert.Error(t, err)
}

func TestGenerate_sceneInstancesAreSortedByID(t *testing.T) {
	src := "scene $2 {\n    setup:\n        say \"b\"\n    action:\n    cleanup:\n}\nscene $1 {\n    setup:\n        say \"a\"\n    action:\n    cleanup:\n}\nstart: $1\n"
	out, err := generate(t, src, Options{})
	require.NoError(t, err)

	firstIdx := strings.Index(out, "s_1_inst = Scene1()")
	secondIdx := strings.Index(out, "s_2_inst = Scene2()")
	require.NotEqual(t, -1, firstIdx)
	require.NotEqual(t, -1, secondIdx)
	assert.Less(t, firstIdx, secondIdx)
}
