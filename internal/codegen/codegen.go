// Package codegen lowers a parsed Narratr ast.Program into the three-section
// target-host script described in spec.md §5: a frontmatter (imports and
// runtime support), a declarations section (one class per scene, one
// constructor function per item), and a main section that builds the scene
// graph and starts the trampoline.
//
// This is a direct Go-idiomatic rewrite of the original narratr Python
// compiler's codegen.py, keeping its structural decisions (the POCKET
// dict, the per-scene __namespace dict for ordinary scene variables, god
// variables promoted to plain attributes, and the setup/action/cleanup
// method split) while replacing its string-concatenation-as-you-go
// recursion with a Generator that writes into a strings.Builder and uses
// github.com/dekarrin/rosed to keep the generated frontmatter comment block
// wrapped.
package codegen

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dekarrin/narratr/internal/ast"
	"github.com/dekarrin/narratr/internal/ntrerr"
	"github.com/dekarrin/narratr/internal/symtab"
	"github.com/dekarrin/rosed"
)

// indentWidth is the number of spaces one nesting level emits in generated
// output, matching the 4-space style codegen.py produces.
const indentWidth = 4

// Options configures how a program is lowered.
type Options struct {
	// StrictStart, when true, makes a second `start:` declaration a fatal
	// error instead of a warning (see SPEC_FULL.md's Open Question
	// resolution on this point).
	StrictStart bool
}

// Generate lowers prog into target-host source text. table must be the
// symbol table populated while parsing prog. It returns the text plus any
// non-fatal diagnostics (e.g. an ignored duplicate start: declaration).
func Generate(prog *ast.Program, table *symtab.Table, opts Options) (string, []*ntrerr.Diagnostic, error) {
	g := &generator{
		table: table,
		opts:  opts,
	}

	start, warnings, err := g.resolveStart(prog)
	if err != nil {
		return "", warnings, err
	}

	if err := g.validateSceneRefs(prog); err != nil {
		return "", warnings, err
	}

	var out strings.Builder
	out.WriteString(g.frontmatter())
	out.WriteString("\n")
	decls, err := g.declarations(prog)
	if err != nil {
		return "", warnings, err
	}
	out.WriteString(decls)
	out.WriteString("\n")
	out.WriteString(g.main(prog, start))

	return out.String(), warnings, nil
}

type generator struct {
	table *symtab.Table
	opts  Options
}

// resolveStart picks which start: declaration wins, per spec.md §7 and
// SPEC_FULL.md's lenient-by-default resolution of repeated start:
// declarations: the first one wins, and later ones are a warning unless
// StrictStart is set, in which case they are a fatal error.
func (g *generator) resolveStart(prog *ast.Program) (*ast.StartDecl, []*ntrerr.Diagnostic, error) {
	if len(prog.Starts) == 0 {
		return nil, nil, ntrerr.Semantic(ntrerr.ErrMissingStartScene, 0, "no start scene declared")
	}
	first := prog.Starts[0]
	var warnings []*ntrerr.Diagnostic
	for _, extra := range prog.Starts[1:] {
		if g.opts.StrictStart {
			return nil, nil, ntrerr.Semantic(ntrerr.ErrMultipleStarts, extra.Line,
				"multiple start scene declarations are not allowed in strict mode")
		}
		warnings = append(warnings, ntrerr.Warning(ntrerr.ErrMultipleStarts, extra.Line,
			"ignoring redundant start declaration; using $%s from line %d", first.SceneID, first.Line))
	}
	return first, warnings, nil
}

// validateSceneRefs checks that every scene id referenced by moveto/moves/
// start actually names a declared scene, matching the original compiler's
// _add_main existence check (codegen.py), performed here instead of during
// parsing since forward references to later scene declarations are allowed.
func (g *generator) validateSceneRefs(prog *ast.Program) error {
	declared := map[string]bool{}
	for _, sc := range prog.Scenes {
		declared[sc.SceneID] = true
	}
	check := func(id string, line int) error {
		if !declared[id] {
			return ntrerr.Semantic(ntrerr.ErrNoSuchStartScene, line, "scene $%s is never declared", id)
		}
		return nil
	}
	for _, st := range prog.Starts {
		if err := check(st.SceneID, st.Line); err != nil {
			return err
		}
	}
	var walkStmts func([]ast.Stmt) error
	walkStmts = func(stmts []ast.Stmt) error {
		for _, s := range stmts {
			switch n := s.(type) {
			case *ast.MovetoStmt:
				if err := check(n.SceneID, n.Line); err != nil {
					return err
				}
			case *ast.MovesStmt:
				for _, d := range n.Directions {
					if err := check(d.SceneID, d.Line); err != nil {
						return err
					}
				}
			case *ast.IfStmt:
				if err := walkStmts(n.Then); err != nil {
					return err
				}
				for _, el := range n.Elifs {
					if err := walkStmts(el.Body); err != nil {
						return err
					}
				}
				if err := walkStmts(n.Else); err != nil {
					return err
				}
			case *ast.WhileStmt:
				if err := walkStmts(n.Body); err != nil {
					return err
				}
			}
		}
		return nil
	}
	for _, sc := range prog.Scenes {
		for _, body := range [][]ast.Stmt{sc.Setup, sc.Action, sc.Cleanup} {
			if err := walkStmts(body); err != nil {
				return err
			}
		}
	}
	return nil
}

// getResponseSrc is the response dispatcher every generated program embeds,
// adapted from original_source/codegen.py's get_response() (its _add_main,
// lines ~123-140): read one line, fold case, strip punctuation other than
// the double quote, collapse whitespace runs to a single space, terminate
// the program on "exit" (or on EOF, which the original's raw_input() never
// had to handle but a fall-through action loop now does), and recognize
// "move <word>" against the direction map passed in, returning the mapped
// scene's bound setup method as the move marker the trampoline recognizes.
// Anything else comes back as the normalized string itself.
const getResponseSrc = `def get_response(direction):
    try:
        response = input()
    except EOFError:
        sys.exit(0)
    response = response.lower()
    response = "".join(c for c in response if c == "\"" or c not in "!#$%&'()*+,-./:;<=>?@[\\]^_` + "`" + `{|}~")
    response = " ".join(response.split())
    if response == "exit":
        sys.exit(0)
    words = response.split(" ")
    if len(words) == 2 and words[0] == "move" and words[1] in direction:
        return direction[words[1]]
    return response
`

// pocketAddSrc implements the insert-if-absent add() the inventory object
// requires (spec.md §4.4/§9): an existing key keeps its old value and a
// message is printed, matching the "reports a message" wording verbatim.
const pocketAddSrc = `def pocket_add(key, val):
    if key in pocket:
        print("pocket already has \"" + str(key) + "\"; keeping its value")
    else:
        pocket[key] = val
`

// frontmatter emits the runtime support every generated program needs: the
// pocket dict, its add helper, the response dispatcher, and the trampoline
// driver that bounds call-stack growth across scene transitions (spec.md
// §5.3) by returning a marker closure instead of calling directly.
func (g *generator) frontmatter() string {
	var b strings.Builder
	wrapped := rosed.Edit("Generated by the narratr compiler. Do not edit by hand.").Wrap(76).String()
	for _, line := range strings.Split(wrapped, "\n") {
		b.WriteString("# " + line + "\n")
	}
	b.WriteString("\n")
	b.WriteString("import sys\n\n")
	b.WriteString("pocket = {}\n\n")
	b.WriteString(pocketAddSrc)
	b.WriteString("\n")
	b.WriteString(getResponseSrc)
	b.WriteString("\n")
	b.WriteString("def _trampoline(start):\n")
	b.WriteString("    step = start\n")
	b.WriteString("    while callable(step):\n")
	b.WriteString("        step = step()\n")
	b.WriteString("    return step\n")
	return b.String()
}

// declarations emits one class per scene and one constructor function per
// item, in the order the items/scenes were declared.
func (g *generator) declarations(prog *ast.Program) (string, error) {
	var b strings.Builder
	for _, it := range prog.Items {
		def, err := g.itemDef(it)
		if err != nil {
			return "", err
		}
		b.WriteString(def)
		b.WriteString("\n")
	}
	for _, sc := range prog.Scenes {
		def, err := g.sceneDef(sc)
		if err != nil {
			return "", err
		}
		b.WriteString(def)
		b.WriteString("\n")
	}
	return b.String(), nil
}

func (g *generator) itemDef(it *ast.ItemDecl) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "def %s(%s):\n", it.Name, strings.Join(it.Formals, ", "))
	if len(it.Body) == 0 {
		b.WriteString("    return {" + itemFields(it) + "}\n")
		return b.String(), nil
	}
	body, err := g.stmts(it.Body, symtab.ItemScope(it.Name), 1)
	if err != nil {
		return "", err
	}
	b.WriteString(body)
	b.WriteString("    return {" + itemFields(it) + "}\n")
	return b.String(), nil
}

func itemFields(it *ast.ItemDecl) string {
	parts := make([]string, len(it.Formals))
	for i, f := range it.Formals {
		parts[i] = fmt.Sprintf("%q: %s", f, f)
	}
	return strings.Join(parts, ", ")
}

// sceneDef emits setup()/action()/cleanup() as three trampoline steps rather
// than the single looping action() method spec.md §4.4 sketches in a host
// with native call/return: setup() tail-calls into action() by returning a
// zero-argument closure (the same marker-closure mechanism moves/moveto use).
// action() runs its suite once, then (per original_source/codegen.py's
// _process_action_block, lines ~280-291) obtains one response via
// get_response() before deciding what to do next: a move marker returned by
// get_response runs cleanup() and is handed straight back to the trampoline;
// anything else (including EOF, which get_response already terminated the
// process on) falls through to a closure that re-enters action(), which is
// how the suite runs again on the next turn without growing the host call
// stack. A scene with no moves statement still calls get_response against an
// empty direction map, which is what stops a plain `say` scene from spinning
// forever: get_response hits EOF on the first read and exits.
func (g *generator) sceneDef(sc *ast.SceneDecl) (string, error) {
	var b strings.Builder
	className := sceneClassName(sc.SceneID)
	fmt.Fprintf(&b, "class %s:\n", className)
	b.WriteString("    def __init__(self):\n")
	b.WriteString("        self.__namespace = {}\n")

	scope := symtab.SceneScope(sc.SceneID)

	fmt.Fprintf(&b, "    def setup(self):\n")
	setupBody, err := g.stmts(sc.Setup, scope, 2)
	if err != nil {
		return "", err
	}
	b.WriteString(setupBody)
	b.WriteString("        return lambda: self.action()\n")

	fmt.Fprintf(&b, "    def action(self):\n")
	b.WriteString("        _moves = {}\n")
	actionBody, err := g.stmts(sc.Action, scope, 2)
	if err != nil {
		return "", err
	}
	b.WriteString(actionBody)
	b.WriteString("        _response = get_response(_moves)\n")
	b.WriteString("        if callable(_response):\n")
	b.WriteString("            self.cleanup()\n")
	b.WriteString("            return _response\n")
	b.WriteString("        return lambda: self.action()\n")

	fmt.Fprintf(&b, "    def cleanup(self):\n")
	cleanupBody, err := g.stmts(sc.Cleanup, scope, 2)
	if err != nil {
		return "", err
	}
	if cleanupBody == "" {
		b.WriteString("        pass\n")
	} else {
		b.WriteString(cleanupBody)
	}
	return b.String(), nil
}

func sceneClassName(sceneID string) string {
	return "Scene" + sceneID
}

// stmts lowers a statement list at the given scope and indent level (in
// units of indentWidth spaces). Each individual statement already renders
// its own leading indentation (and, for if/while, the deeper indentation of
// its own body), so this just joins them one per line.
func (g *generator) stmts(stmts []ast.Stmt, scope symtab.Scope, level int) (string, error) {
	var b strings.Builder
	for _, s := range stmts {
		line, err := g.stmt(s, scope, level)
		if err != nil {
			return "", err
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String(), nil
}

func (g *generator) stmt(s ast.Stmt, scope symtab.Scope, level int) (string, error) {
	prefix := strings.Repeat(" ", level*indentWidth)
	switch n := s.(type) {
	case *ast.SayStmt:
		args, err := g.exprList(n.Args, scope)
		if err != nil {
			return "", err
		}
		return prefix + "print(" + args + ")", nil
	case *ast.ExpositionStmt:
		args, err := g.exprList(n.Args, scope)
		if err != nil {
			return "", err
		}
		return prefix + "print(" + args + ")", nil
	case *ast.WinStmt:
		return g.exitStmt(n.Arg, 0, scope, prefix)
	case *ast.LoseStmt:
		return g.exitStmt(n.Arg, 0, scope, prefix)
	case *ast.BreakStmt:
		return prefix + "break", nil
	case *ast.ContinueStmt:
		return prefix + "continue", nil
	case *ast.MovesStmt:
		return g.movesStmt(n, prefix)
	case *ast.MovetoStmt:
		return prefix + fmt.Sprintf("self.cleanup()\n%sreturn lambda: %s_inst.setup()", prefix, sceneInstanceName(n.SceneID)), nil
	case *ast.AssignStmt:
		return g.assignStmt(n, scope, prefix)
	case *ast.ExprStmt:
		x, err := g.expr(n.X, scope)
		if err != nil {
			return "", err
		}
		return prefix + x, nil
	case *ast.IfStmt:
		return g.ifStmt(n, scope, level)
	case *ast.WhileStmt:
		return g.whileStmt(n, scope, level)
	default:
		return "", ntrerr.Syntax(s.Pos(), "codegen: unhandled statement type %T", s)
	}
}

// exitStmt emits the win/lose escape hatch. Per SPEC_FULL.md's resolution of
// the win-vs-lose exit code Open Question, both exit 0 (matching the
// original, which never distinguished them at the process level); the
// optional argument is printed first as a closing message.
func (g *generator) exitStmt(arg ast.Expr, code int, scope symtab.Scope, prefix string) (string, error) {
	if arg == nil {
		return fmt.Sprintf("%ssys.exit(%d)", prefix, code), nil
	}
	e, err := g.expr(arg, scope)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%sprint(%s)\n%ssys.exit(%d)", prefix, e, prefix, code), nil
}

// movesStmt merges this scene's direction words into the action method's
// _moves dict; it does not itself read input. action()'s single trailing
// get_response(_moves) call (see sceneDef) is what actually waits for and
// normalizes "move <word>" against whatever directions were registered here.
func (g *generator) movesStmt(n *ast.MovesStmt, prefix string) (string, error) {
	var b strings.Builder
	b.WriteString(prefix + "_moves.update({\n")
	for _, d := range n.Directions {
		fmt.Fprintf(&b, "%s    %q: %s_inst.setup,\n", prefix, d.Keyword, sceneInstanceName(d.SceneID))
	}
	b.WriteString(prefix + "})")
	return b.String(), nil
}

func sceneInstanceName(sceneID string) string {
	return "s_" + sceneID
}

func (g *generator) assignStmt(n *ast.AssignStmt, scope symtab.Scope, prefix string) (string, error) {
	value, err := g.expr(n.Value, scope)
	if err != nil {
		return "", err
	}
	target, err := g.assignTarget(n.Target, scope, n.God)
	if err != nil {
		return "", err
	}
	if attr := strings.TrimPrefix(target, "self."); n.God && attr != target {
		// `god x is y` initializes only if the attribute is not set yet
		return fmt.Sprintf("%sif not hasattr(self, %q):\n%s    %s = %s", prefix, attr, prefix, target, value), nil
	}
	return prefix + target + " = " + value, nil
}

// assignTarget renders the left-hand side of an assignment. A god variable
// becomes a plain self attribute (self.x); an ordinary scene-local variable
// becomes an entry in the scene's private __namespace dict, and an item-local
// variable is a plain local name inside the item's constructor function,
// following codegen.py's _process_expression_smt "is"/"godis" handling.
func (g *generator) assignTarget(target ast.Expr, scope symtab.Scope, god bool) (string, error) {
	id, ok := target.(*ast.IdentExpr)
	if !ok {
		return g.expr(target, scope)
	}
	if id.Key == "" {
		return id.Name, nil
	}
	entry, ok := g.table.GetWithKey(id.Key)
	if ok && entry.God {
		return "self." + id.Name, nil
	}
	if _, isItem := scope.IsItem(); isItem {
		return id.Name, nil
	}
	return fmt.Sprintf("self.__namespace[%q]", id.Name), nil
}

func (g *generator) ifStmt(n *ast.IfStmt, scope symtab.Scope, level int) (string, error) {
	prefix := strings.Repeat(" ", level*indentWidth)
	var b strings.Builder
	cond, err := g.expr(n.Cond, scope)
	if err != nil {
		return "", err
	}
	b.WriteString(prefix + "if " + cond + ":\n")
	body, err := g.stmts(n.Then, scope, level+1)
	if err != nil {
		return "", err
	}
	if body == "" {
		body = strings.Repeat(" ", (level+1)*indentWidth) + "pass\n"
	}
	b.WriteString(body)

	for _, el := range n.Elifs {
		econd, err := g.expr(el.Cond, scope)
		if err != nil {
			return "", err
		}
		b.WriteString(prefix + "elif " + econd + ":\n")
		ebody, err := g.stmts(el.Body, scope, level+1)
		if err != nil {
			return "", err
		}
		if ebody == "" {
			ebody = strings.Repeat(" ", (level+1)*indentWidth) + "pass\n"
		}
		b.WriteString(ebody)
	}

	if n.Else != nil {
		b.WriteString(prefix + "else:\n")
		ebody, err := g.stmts(n.Else, scope, level+1)
		if err != nil {
			return "", err
		}
		if ebody == "" {
			ebody = strings.Repeat(" ", (level+1)*indentWidth) + "pass\n"
		}
		b.WriteString(ebody)
	}

	return strings.TrimRight(b.String(), "\n"), nil
}

func (g *generator) whileStmt(n *ast.WhileStmt, scope symtab.Scope, level int) (string, error) {
	prefix := strings.Repeat(" ", level*indentWidth)
	cond, err := g.expr(n.Cond, scope)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	b.WriteString(prefix + "while " + cond + ":\n")
	body, err := g.stmts(n.Body, scope, level+1)
	if err != nil {
		return "", err
	}
	if body == "" {
		body = strings.Repeat(" ", (level+1)*indentWidth) + "pass\n"
	}
	b.WriteString(body)
	return strings.TrimRight(b.String(), "\n"), nil
}

func (g *generator) exprList(exprs []ast.Expr, scope symtab.Scope) (string, error) {
	parts := make([]string, len(exprs))
	for i, e := range exprs {
		s, err := g.expr(e, scope)
		if err != nil {
			return "", err
		}
		parts[i] = s
	}
	return strings.Join(parts, ", "), nil
}

// binOpSymbol maps a Narratr operator to its target-host rendering. "/" maps
// to the host's floor-dividing "//" rather than true division: there is no
// type-inference layer to tell an int "/" from a float one, and spec.md §8's
// arithmetic scenario requires 10/3 to evaluate to 3, matching the Python-2
// original (original_source/codegen.py's _process_arithmetic never even had
// a distinct "//" token — plain "/" floored on two ints there).
var binOpSymbol = map[string]string{
	"or": "or", "and": "and",
	"<": "<", "<=": "<=", ">": ">", ">=": ">=", "==": "==", "!=": "!=",
	"+": "+", "-": "-", "*": "*", "/": "//", "//": "//",
}

func (g *generator) expr(e ast.Expr, scope symtab.Scope) (string, error) {
	switch n := e.(type) {
	case *ast.BinaryExpr:
		left, err := g.expr(n.Left, scope)
		if err != nil {
			return "", err
		}
		right, err := g.expr(n.Right, scope)
		if err != nil {
			return "", err
		}
		op, ok := binOpSymbol[n.Op]
		if !ok {
			return "", ntrerr.Syntax(n.Line, "codegen: unknown binary operator %q", n.Op)
		}
		return fmt.Sprintf("(%s %s %s)", left, op, right), nil
	case *ast.UnaryExpr:
		operand, err := g.expr(n.Operand, scope)
		if err != nil {
			return "", err
		}
		switch n.Op {
		case "not":
			return "(not " + operand + ")", nil
		case "-":
			return "(-" + operand + ")", nil
		case "+":
			return operand, nil
		}
		return "", ntrerr.Syntax(n.Line, "codegen: unknown unary operator %q", n.Op)
	case *ast.LiteralExpr:
		return g.literal(n), nil
	case *ast.IdentExpr:
		return g.ident(n, scope), nil
	case *ast.ListExpr:
		parts, err := g.exprList(n.Elements, scope)
		if err != nil {
			return "", err
		}
		return "[" + parts + "]", nil
	case *ast.GroupExpr:
		inner, err := g.expr(n.Inner, scope)
		if err != nil {
			return "", err
		}
		return "(" + inner + ")", nil
	case *ast.AttrExpr:
		target, err := g.expr(n.Target, scope)
		if err != nil {
			return "", err
		}
		return target + "." + n.Attr, nil
	case *ast.CallExpr:
		return g.call(n, scope)
	default:
		return "", ntrerr.Syntax(e.Pos(), "codegen: unhandled expression type %T", e)
	}
}

func (g *generator) literal(n *ast.LiteralExpr) string {
	switch n.Kind {
	case ast.LitString:
		return fmt.Sprintf("%q", n.Str)
	case ast.LitInteger:
		return fmt.Sprintf("%d", n.Int)
	case ast.LitFloat:
		return fmt.Sprintf("%g", n.Float)
	case ast.LitBoolean:
		if n.Bool {
			return "True"
		}
		return "False"
	default:
		return "None"
	}
}

func (g *generator) ident(n *ast.IdentExpr, scope symtab.Scope) string {
	switch n.Name {
	case "pocket":
		return "pocket"
	case "str", "int", "float":
		return n.Name
	}
	if n.Key == "" {
		return n.Name
	}
	entry, ok := g.table.GetWithKey(n.Key)
	if ok && entry.Scope == symtab.Global {
		return n.Name // scene/item name reference, resolved structurally by the caller
	}
	if ok && entry.God {
		return "self." + n.Name
	}
	if _, isItem := scope.IsItem(); isItem {
		return n.Name
	}
	return fmt.Sprintf("self.__namespace[%q]", n.Name)
}

// call lowers a CallExpr. pocket.add/get/remove get their own mapping onto
// the global pocket dict (codegen.py's _process_pocket); an item name call
// (e.g. key(5)) becomes a constructor call; everything else becomes a
// normal target(args) call.
func (g *generator) call(n *ast.CallExpr, scope symtab.Scope) (string, error) {
	if attr, ok := n.Target.(*ast.AttrExpr); ok {
		if id, ok := attr.Target.(*ast.IdentExpr); ok && id.Name == "pocket" {
			return g.pocketCall(attr.Attr, n.Args, scope)
		}
	}
	target, err := g.expr(n.Target, scope)
	if err != nil {
		return "", err
	}
	args, err := g.exprList(n.Args, scope)
	if err != nil {
		return "", err
	}
	return target + "(" + args + ")", nil
}

// pocketCall lowers the five inventory operations spec.md §4.4/§9 requires.
// add is insert-if-absent (pocket_add, the frontmatter helper, leaves an
// existing key's value alone and prints a message); update is the
// unconditional store add used to do before this fix. Tests must be able to
// tell the two apart (§9), which is exactly what distinguishes them here.
func (g *generator) pocketCall(method string, args []ast.Expr, scope symtab.Scope) (string, error) {
	twoArgs := func(name string) (string, string, error) {
		if len(args) != 2 {
			return "", "", ntrerr.Semantic(ntrerr.ErrSyntax, args0Line(args), "pocket.%s requires exactly two arguments, got %d", name, len(args))
		}
		key, err := g.expr(args[0], scope)
		if err != nil {
			return "", "", err
		}
		val, err := g.expr(args[1], scope)
		if err != nil {
			return "", "", err
		}
		return key, val, nil
	}
	oneArg := func(name string) (string, error) {
		if len(args) != 1 {
			return "", ntrerr.Semantic(ntrerr.ErrSyntax, args0Line(args), "pocket.%s requires exactly one argument, got %d", name, len(args))
		}
		return g.expr(args[0], scope)
	}

	switch method {
	case "add":
		key, val, err := twoArgs("add")
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("pocket_add(%s, %s)", key, val), nil
	case "update":
		key, val, err := twoArgs("update")
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("pocket.__setitem__(%s, %s)", key, val), nil
	case "get":
		key, err := oneArg("get")
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("pocket[%s]", key), nil
	case "remove":
		key, err := oneArg("remove")
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("pocket.pop(%s)", key), nil
	case "has":
		key, err := oneArg("has")
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("(%s in pocket)", key), nil
	default:
		return "", ntrerr.Semantic(ntrerr.ErrSyntax, args0Line(args), "pocket has no method %q", method)
	}
}

func args0Line(args []ast.Expr) int {
	if len(args) == 0 {
		return 0
	}
	return args[0].Pos()
}

// main emits the program entry point: one global instance per scene, then a
// trampolined call into the start scene's setup method.
func (g *generator) main(prog *ast.Program, start *ast.StartDecl) string {
	ids := make([]string, 0, len(prog.Scenes))
	for _, sc := range prog.Scenes {
		ids = append(ids, sc.SceneID)
	}
	sort.Strings(ids)

	var b strings.Builder
	b.WriteString("if __name__ == \"__main__\":\n")
	for _, id := range ids {
		fmt.Fprintf(&b, "    %s_inst = %s()\n", sceneInstanceName(id), sceneClassName(id))
	}
	fmt.Fprintf(&b, "    _trampoline(lambda: %s_inst.setup())\n", sceneInstanceName(start.SceneID))
	return b.String()
}
