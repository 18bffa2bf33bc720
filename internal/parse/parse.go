// Package parse implements the Narratr parser: a hand-written recursive
// descent parser for statements and blocks, with precedence-climbing for
// expressions in the style of the Pratt parser in
// github.com/dekarrin/tunaq's internal/tunascript package. It builds the
// ast.Program tree described in spec.md §3 and, per spec.md §4.2,
// registers every scene/item/variable declaration into a symtab.Table as
// it goes.
package parse

import (
	"fmt"

	"github.com/dekarrin/narratr/internal/ast"
	"github.com/dekarrin/narratr/internal/ntrerr"
	"github.com/dekarrin/narratr/internal/symtab"
	"github.com/dekarrin/narratr/internal/token"
)

// builtins is the set of identifier names that never require a symbol table
// entry (spec.md §3 invariant, §4.6).
var builtins = map[string]bool{
	"str": true, "int": true, "float": true, "pocket": true,
}

// Parse parses the token stream produced by lex.Lex, returning the resulting AST and the symbol
// table populated while parsing it. The first syntax or semantic error
// encountered aborts parsing (spec.md §4.2, §7); any warnings produced along
// the way (e.g. a second start: declaration) are returned alongside a
// non-error result.
func Parse(tokens []token.Token) (*ast.Program, *symtab.Table, []*ntrerr.Diagnostic, error) {
	p := &Parser{
		toks:  tokens,
		table: symtab.New(),
	}
	prog, err := p.parseProgram()
	if err != nil {
		return nil, nil, p.warnings, err
	}
	return prog, p.table, p.warnings, nil
}

// Parser holds the mutable state of a single parse.
type Parser struct {
	toks  []token.Token
	pos   int
	table *symtab.Table

	// curScope is the scope new variable declarations/resolutions are made
	// in; it tracks whichever scene or item body is currently being parsed.
	curScope symtab.Scope
	inScope  bool

	warnings []*ntrerr.Diagnostic
}

func (p *Parser) peek() token.Token {
	return p.toks[p.pos]
}

func (p *Parser) peekAt(n int) token.Token {
	if p.pos+n >= len(p.toks) {
		return p.toks[len(p.toks)-1] // EOF
	}
	return p.toks[p.pos+n]
}

func (p *Parser) next() token.Token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *Parser) expect(class token.Class) (token.Token, error) {
	t := p.peek()
	if t.Class != class {
		return t, ntrerr.Syntax(t.Line, "expected %s, found %s %q", class, t.Class, t.Lexeme)
	}
	return p.next(), nil
}

func (p *Parser) at(class token.Class) bool {
	return p.peek().Class == class
}

// --- top level -------------------------------------------------------------

func (p *Parser) parseProgram() (*ast.Program, error) {
	prog := &ast.Program{Line: 1}
	p.skipNewlines()

	seenScenes := map[string]bool{}

	for !p.at(token.EOF) {
		switch p.peek().Class {
		case token.SCENE:
			sc, err := p.parseSceneBlock()
			if err != nil {
				return nil, err
			}
			if seenScenes[sc.SceneID] {
				return nil, ntrerr.Semantic(ntrerr.ErrDuplicateScene, sc.Line, "scene $%s declared more than once", sc.SceneID)
			}
			seenScenes[sc.SceneID] = true
			if err := p.table.Insert(sc.SceneID, sc, symtab.TypeScene, symtab.Global, false); err != nil {
				return nil, ntrerr.Semantic(ntrerr.ErrDuplicateScene, sc.Line, "%s", err)
			}
			prog.Scenes = append(prog.Scenes, sc)
		case token.ITEM:
			it, err := p.parseItemBlock()
			if err != nil {
				return nil, err
			}
			if err := p.table.Insert(it.Name, it, symtab.TypeItem, symtab.Global, false); err != nil {
				return nil, ntrerr.Semantic(ntrerr.ErrDuplicateSymbol, it.Line, "%s", err)
			}
			prog.Items = append(prog.Items, it)
		case token.START:
			st, err := p.parseStartState()
			if err != nil {
				return nil, err
			}
			if len(prog.Starts) > 0 {
				p.warnings = append(p.warnings, ntrerr.Warning(ntrerr.ErrMultipleStarts, st.Line,
					"multiple start scene declarations; keeping $%s", prog.Starts[0].SceneID))
			}
			prog.Starts = append(prog.Starts, st)
		default:
			t := p.peek()
			return nil, ntrerr.Syntax(t.Line, "expected 'scene', 'item', or 'start', found %s %q", t.Class, t.Lexeme)
		}
		p.skipNewlines()
	}

	return prog, nil
}

func (p *Parser) skipNewlines() {
	for p.at(token.NEWLINE) {
		p.next()
	}
}

func (p *Parser) parseStartState() (*ast.StartDecl, error) {
	kw, _ := p.expect(token.START)
	if _, err := p.expect(token.COLON); err != nil {
		return nil, err
	}
	id, err := p.expect(token.SCENEID)
	if err != nil {
		return nil, err
	}
	return &ast.StartDecl{SceneID: id.Lexeme, Line: kw.Line}, nil
}

// --- scenes and items --------------------------------------------------

func (p *Parser) parseSceneBlock() (*ast.SceneDecl, error) {
	kw, _ := p.expect(token.SCENE)
	id, err := p.expect(token.SCENEID)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LBRACE); err != nil {
		return nil, err
	}
	p.skipNewlines()
	indented := p.acceptIndentBlock()

	sc := &ast.SceneDecl{SceneID: id.Lexeme, Line: kw.Line}

	p.curScope = symtab.SceneScope(id.Lexeme)
	p.inScope = true
	defer func() { p.inScope = false }()

	if sc.Setup, err = p.parseNamedBlock(token.SETUP); err != nil {
		return nil, err
	}
	if sc.Action, err = p.parseNamedBlock(token.ACTION); err != nil {
		return nil, err
	}
	if sc.Cleanup, err = p.parseNamedBlock(token.CLEANUP); err != nil {
		return nil, err
	}

	if indented {
		if err := p.closeIndentBlock(); err != nil {
			return nil, err
		}
	}
	p.skipNewlines()
	if _, err := p.expect(token.RBRACE); err != nil {
		return nil, err
	}
	return sc, nil
}

func (p *Parser) parseNamedBlock(kw token.Class) ([]ast.Stmt, error) {
	if _, err := p.expect(kw); err != nil {
		return nil, err
	}
	if _, err := p.expect(token.COLON); err != nil {
		return nil, err
	}
	return p.parseSuiteAfterColon()
}

func (p *Parser) parseItemBlock() (*ast.ItemDecl, error) {
	kw, _ := p.expect(token.ITEM)
	name, err := p.expect(token.ID)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LPAREN); err != nil {
		return nil, err
	}
	var formals []string
	if !p.at(token.RPAREN) {
		for {
			fid, err := p.expect(token.ID)
			if err != nil {
				return nil, err
			}
			formals = append(formals, fid.Lexeme)
			if p.at(token.COMMA) {
				p.next()
				continue
			}
			break
		}
	}
	if _, err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LBRACE); err != nil {
		return nil, err
	}
	p.skipNewlines()

	it := &ast.ItemDecl{Name: name.Lexeme, Formals: formals, Line: kw.Line}

	prevScope, prevIn := p.curScope, p.inScope
	p.curScope = symtab.ItemScope(name.Lexeme)
	p.inScope = true
	// Formals are registered in the item's scope so references to them in
	// the body resolve; codegen binds them directly as constructor
	// parameters.
	for _, f := range formals {
		if err := p.table.Insert(f, nil, symtab.TypeString, p.curScope, false); err != nil {
			return nil, ntrerr.Semantic(ntrerr.ErrDuplicateSymbol, kw.Line, "%s", err)
		}
	}

	if !p.at(token.RBRACE) {
		indented := p.acceptIndentBlock()
		body, err := p.parseStatementsUntil(token.RBRACE, indented)
		if err != nil {
			return nil, err
		}
		it.Body = body
	}

	p.curScope, p.inScope = prevScope, prevIn
	p.skipNewlines()
	if _, err := p.expect(token.RBRACE); err != nil {
		return nil, err
	}
	return it, nil
}

// acceptIndentBlock consumes a leading INDENT token if present and reports
// whether it did, so the caller knows to expect a matching DEDENT later.
func (p *Parser) acceptIndentBlock() bool {
	if p.at(token.INDENT) {
		p.next()
		return true
	}
	return false
}

func (p *Parser) closeIndentBlock() error {
	if _, err := p.expect(token.DEDENT); err != nil {
		return err
	}
	return nil
}

// --- suites and statements -----------------------------------------------

// parseSuiteAfterColon parses the `suite` nonterminal immediately following
// a "setup:"/"action:"/"cleanup:"/"if test:"/... colon. Per spec.md §4.2 a
// suite is either a single simple statement on the same line, or an
// INDENT statement+ DEDENT block; a bare NEWLINE with no following INDENT is
// an explicitly empty suite (original narratr allows `setup:` with nothing
// in it).
func (p *Parser) parseSuiteAfterColon() ([]ast.Stmt, error) {
	if !p.at(token.NEWLINE) {
		s, err := p.parseSimpleStatement()
		if err != nil {
			return nil, err
		}
		return []ast.Stmt{s}, nil
	}
	p.skipNewlines()
	if !p.at(token.INDENT) {
		return nil, nil
	}
	p.next()
	return p.parseStatementsUntil(token.DEDENT, true)
}

// parseStatementsUntil parses statements until the stop class is reached. If
// consumeStop is true (an INDENT was opened), the stop token is consumed
// before returning.
func (p *Parser) parseStatementsUntil(stop token.Class, consumeStop bool) ([]ast.Stmt, error) {
	var stmts []ast.Stmt
	for !p.at(stop) {
		if p.at(token.EOF) {
			return nil, ntrerr.Syntax(p.peek().Line, "unexpected end of file, expected %s", stop)
		}
		st, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, st)
	}
	if consumeStop {
		if _, err := p.expect(stop); err != nil {
			return nil, err
		}
	}
	return stmts, nil
}

func (p *Parser) parseStatement() (ast.Stmt, error) {
	switch p.peek().Class {
	case token.IF:
		return p.parseIfStatement()
	case token.WHILE:
		return p.parseWhileStatement()
	default:
		return p.parseSimpleStatement()
	}
}

func (p *Parser) parseSimpleStatement() (ast.Stmt, error) {
	var stmt ast.Stmt
	var err error

	switch p.peek().Class {
	case token.SAY:
		stmt, err = p.parseSayOrExposition(false)
	case token.EXPOSITION:
		stmt, err = p.parseSayOrExposition(true)
	case token.WIN:
		stmt, err = p.parseWinOrLose(true)
	case token.LOSE:
		stmt, err = p.parseWinOrLose(false)
	case token.BREAK:
		kw := p.next()
		stmt = &ast.BreakStmt{Line: kw.Line}
	case token.CONTINUE:
		kw := p.next()
		stmt = &ast.ContinueStmt{Line: kw.Line}
	case token.MOVES:
		stmt, err = p.parseMoves()
	case token.MOVETO:
		stmt, err = p.parseMoveto()
	case token.GOD:
		stmt, err = p.parseAssignment(true)
	default:
		stmt, err = p.parseExprOrAssignStatement()
	}
	if err != nil {
		return nil, err
	}

	if _, err := p.expect(token.NEWLINE); err != nil {
		return nil, err
	}
	return stmt, nil
}

func (p *Parser) parseExprList() ([]ast.Expr, error) {
	var exprs []ast.Expr
	for {
		e, err := p.parseTest()
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, e)
		if p.at(token.COMMA) {
			p.next()
			continue
		}
		break
	}
	return exprs, nil
}

func (p *Parser) parseSayOrExposition(exposition bool) (ast.Stmt, error) {
	kw := p.next()
	args, err := p.parseExprList()
	if err != nil {
		return nil, err
	}
	if exposition {
		return &ast.ExpositionStmt{Args: args, Line: kw.Line}, nil
	}
	return &ast.SayStmt{Args: args, Line: kw.Line}, nil
}

func (p *Parser) parseWinOrLose(win bool) (ast.Stmt, error) {
	kw := p.next()
	var arg ast.Expr
	if !p.at(token.NEWLINE) {
		e, err := p.parseTest()
		if err != nil {
			return nil, err
		}
		arg = e
	}
	if win {
		return &ast.WinStmt{Arg: arg, Line: kw.Line}, nil
	}
	return &ast.LoseStmt{Arg: arg, Line: kw.Line}, nil
}

func (p *Parser) parseMoves() (ast.Stmt, error) {
	kw := p.next()
	var dirs []ast.Direction
	for {
		d, err := p.parseDirection()
		if err != nil {
			return nil, err
		}
		dirs = append(dirs, d)
		if p.at(token.COMMA) {
			p.next()
			continue
		}
		break
	}
	return &ast.MovesStmt{Directions: dirs, Line: kw.Line}, nil
}

var directionClasses = map[token.Class]string{
	token.LEFT: "left", token.RIGHT: "right", token.UP: "up", token.DOWN: "down",
}

func (p *Parser) parseDirection() (ast.Direction, error) {
	t := p.peek()
	name, ok := directionClasses[t.Class]
	if !ok {
		return ast.Direction{}, ntrerr.Syntax(t.Line, "expected a direction (left/right/up/down), found %s %q", t.Class, t.Lexeme)
	}
	p.next()
	if _, err := p.expect(token.LPAREN); err != nil {
		return ast.Direction{}, err
	}
	id, err := p.expect(token.SCENEID)
	if err != nil {
		return ast.Direction{}, err
	}
	if _, err := p.expect(token.RPAREN); err != nil {
		return ast.Direction{}, err
	}
	return ast.Direction{Keyword: name, SceneID: id.Lexeme, Line: t.Line}, nil
}

func (p *Parser) parseMoveto() (ast.Stmt, error) {
	kw := p.next()
	id, err := p.expect(token.SCENEID)
	if err != nil {
		return nil, err
	}
	return &ast.MovetoStmt{SceneID: id.Lexeme, Line: kw.Line}, nil
}

// parseExprOrAssignStatement handles `testlist is testlist` as well as a
// bare expression statement (spec.md grammar's expr_stmt).
func (p *Parser) parseExprOrAssignStatement() (ast.Stmt, error) {
	if p.at(token.ID) && p.peekAt(1).Class == token.IS {
		return p.parseAssignment(false)
	}
	start := p.pos
	e, err := p.parseTest()
	if err != nil {
		return nil, err
	}
	if p.at(token.IS) {
		p.pos = start
		return p.parseAssignment(false)
	}
	return &ast.ExprStmt{X: e, Line: e.Pos()}, nil
}

func (p *Parser) parseAssignment(god bool) (ast.Stmt, error) {
	line := p.peek().Line
	if god {
		p.next() // consume 'god'
	}
	var target ast.Expr
	var err error
	if t := p.peek(); t.Class == token.ID && p.peekAt(1).Class == token.IS {
		// a bare name being assigned is declared below, not resolved here
		p.next()
		target = &ast.IdentExpr{Name: t.Lexeme, Line: t.Line}
	} else if target, err = p.parseTest(); err != nil {
		return nil, err
	}
	if _, err := p.expect(token.IS); err != nil {
		return nil, err
	}
	value, err := p.parseTest()
	if err != nil {
		return nil, err
	}

	if err := p.declareAssignTarget(target, god); err != nil {
		return nil, err
	}

	return &ast.AssignStmt{God: god, Target: target, Value: value, Line: line}, nil
}

// declareAssignTarget registers (or updates) the symbol table entry for a
// simple-identifier assignment target, and annotates its Key, per spec.md
// §4.2 and §4.5. Attribute targets (pocket.*, item.*) need no symtab entry:
// their storage is already named by the attribute expression itself.
func (p *Parser) declareAssignTarget(target ast.Expr, god bool) error {
	id, ok := target.(*ast.IdentExpr)
	if !ok {
		// e.g. pocket.add(...) is is not a meaningful assignment target and
		// attribute/list targets are resolved structurally by codegen; spec.md
		// §9 leaves list-on-the-left as an open question this repo does not
		// attempt to guess at the symtab layer.
		return nil
	}
	if builtins[id.Name] {
		return ntrerr.Semantic(ntrerr.ErrSyntax, id.Line, "cannot assign to built-in name %q", id.Name)
	}

	scope := p.curScope
	typ := symtab.TypeString // concrete type is not tracked precisely pre-evaluation; default placeholder
	if existing, ok := p.table.Get(id.Name, scope); ok {
		if err := p.table.Update(id.Name, nil, existing.Type, scope, god || existing.God); err != nil {
			return ntrerr.Semantic(ntrerr.ErrDuplicateSymbol, id.Line, "%s", err)
		}
	} else {
		if err := p.table.Insert(id.Name, nil, typ, scope, god); err != nil {
			return ntrerr.Semantic(ntrerr.ErrDuplicateSymbol, id.Line, "%s", err)
		}
	}
	id.Key = symtab.Key(id.Name, scope)
	return nil
}

// --- control flow --------------------------------------------------------

func (p *Parser) parseIfStatement() (ast.Stmt, error) {
	kw := p.next()
	cond, err := p.parseTest()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.COLON); err != nil {
		return nil, err
	}
	body, err := p.parseSuiteAfterColon()
	if err != nil {
		return nil, err
	}

	stmt := &ast.IfStmt{Cond: cond, Then: body, Line: kw.Line}

	for p.at(token.ELIF) {
		ekw := p.next()
		econd, err := p.parseTest()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.COLON); err != nil {
			return nil, err
		}
		ebody, err := p.parseSuiteAfterColon()
		if err != nil {
			return nil, err
		}
		stmt.Elifs = append(stmt.Elifs, ast.ElifClause{Cond: econd, Body: ebody, Line: ekw.Line})
	}

	if p.at(token.ELSE) {
		p.next()
		if _, err := p.expect(token.COLON); err != nil {
			return nil, err
		}
		elseBody, err := p.parseSuiteAfterColon()
		if err != nil {
			return nil, err
		}
		stmt.Else = elseBody
		if stmt.Else == nil {
			stmt.Else = []ast.Stmt{}
		}
	}

	return stmt, nil
}

func (p *Parser) parseWhileStatement() (ast.Stmt, error) {
	kw := p.next()
	cond, err := p.parseTest()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.COLON); err != nil {
		return nil, err
	}
	body, err := p.parseSuiteAfterColon()
	if err != nil {
		return nil, err
	}
	return &ast.WhileStmt{Cond: cond, Body: body, Line: kw.Line}, nil
}

// --- expressions: precedence-climbing recursive descent -------------------
//
// or_test < and_test < not_test < comparison < arith(+-) < term(*,/,//) <
// factor(unary) < power(atom trailer*), per spec.md §4.2's grammar outline.

func (p *Parser) parseTest() (ast.Expr, error) {
	return p.parseOr()
}

func (p *Parser) parseOr() (ast.Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.at(token.OR) {
		kw := p.next()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpr{Op: "or", Left: left, Right: right, Line: kw.Line}
	}
	return left, nil
}

func (p *Parser) parseAnd() (ast.Expr, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.at(token.AND) {
		kw := p.next()
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpr{Op: "and", Left: left, Right: right, Line: kw.Line}
	}
	return left, nil
}

func (p *Parser) parseNot() (ast.Expr, error) {
	if p.at(token.NOT) {
		kw := p.next()
		// `not equals` is the textual alternative spelling of `!=` (spec.md
		// §4.6); only treat this as logical-not when followed by something
		// other than a bare equals-as-comparison-op use, which the grammar
		// never produces standalone, so this is simply unary not.
		operand, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryExpr{Op: "not", Operand: operand, Line: kw.Line}, nil
	}
	return p.parseComparison()
}

var comparisonOps = map[token.Class]string{
	token.LT: "<", token.LE: "<=", token.GT: ">", token.GE: ">=",
	token.EQ: "==", token.NE: "!=",
}

func (p *Parser) parseComparison() (ast.Expr, error) {
	left, err := p.parseArith()
	if err != nil {
		return nil, err
	}
	for {
		if op, ok := comparisonOps[p.peek().Class]; ok {
			kw := p.next()
			right, err := p.parseArith()
			if err != nil {
				return nil, err
			}
			left = &ast.BinaryExpr{Op: op, Left: left, Right: right, Line: kw.Line}
			continue
		}
		// `not ==` (NOT followed by the == token) spelling of !=
		if p.at(token.NOT) && p.peekAt(1).Class == token.EQ {
			kw := p.next()
			p.next()
			right, err := p.parseArith()
			if err != nil {
				return nil, err
			}
			left = &ast.BinaryExpr{Op: "!=", Left: left, Right: right, Line: kw.Line}
			continue
		}
		break
	}
	return left, nil
}

func (p *Parser) parseArith() (ast.Expr, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for p.at(token.PLUS) || p.at(token.MINUS) {
		kw := p.next()
		op := "+"
		if kw.Class == token.MINUS {
			op = "-"
		}
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpr{Op: op, Left: left, Right: right, Line: kw.Line}
	}
	return left, nil
}

func (p *Parser) parseTerm() (ast.Expr, error) {
	left, err := p.parseFactor()
	if err != nil {
		return nil, err
	}
	for p.at(token.STAR) || p.at(token.SLASH) || p.at(token.DSLASH) {
		kw := p.next()
		var op string
		switch kw.Class {
		case token.STAR:
			op = "*"
		case token.SLASH:
			op = "/"
		case token.DSLASH:
			op = "//"
		}
		right, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpr{Op: op, Left: left, Right: right, Line: kw.Line}
	}
	return left, nil
}

func (p *Parser) parseFactor() (ast.Expr, error) {
	if p.at(token.PLUS) || p.at(token.MINUS) {
		kw := p.next()
		op := "+"
		if kw.Class == token.MINUS {
			op = "-"
		}
		operand, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryExpr{Op: op, Operand: operand, Line: kw.Line}, nil
	}
	return p.parsePower()
}

func (p *Parser) parsePower() (ast.Expr, error) {
	atomExpr, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	for {
		switch p.peek().Class {
		case token.DOT:
			p.next()
			attr, err := p.expect(token.ID)
			if err != nil {
				return nil, err
			}
			atomExpr = &ast.AttrExpr{Target: atomExpr, Attr: attr.Lexeme, Line: attr.Line}
		case token.LPAREN:
			kw := p.next()
			var args []ast.Expr
			if !p.at(token.RPAREN) {
				args, err = p.parseArgs()
				if err != nil {
					return nil, err
				}
			}
			if _, err := p.expect(token.RPAREN); err != nil {
				return nil, err
			}
			atomExpr = &ast.CallExpr{Target: atomExpr, Args: args, Line: kw.Line}
		default:
			return atomExpr, nil
		}
	}
}

func (p *Parser) parseArgs() ([]ast.Expr, error) {
	var args []ast.Expr
	for {
		e, err := p.parseTest()
		if err != nil {
			return nil, err
		}
		args = append(args, e)
		if p.at(token.COMMA) {
			p.next()
			continue
		}
		break
	}
	return args, nil
}

func (p *Parser) parseAtom() (ast.Expr, error) {
	t := p.peek()
	switch t.Class {
	case token.LPAREN:
		p.next()
		inner, err := p.parseTest()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RPAREN); err != nil {
			return nil, err
		}
		return &ast.GroupExpr{Inner: inner, Line: t.Line}, nil
	case token.LBRACKET:
		return p.parseList()
	case token.INTEGER:
		p.next()
		var n int
		fmt.Sscanf(t.Lexeme, "%d", &n)
		return &ast.LiteralExpr{Kind: ast.LitInteger, Int: n, Line: t.Line}, nil
	case token.FLOAT:
		p.next()
		var f float64
		fmt.Sscanf(t.Lexeme, "%g", &f)
		return &ast.LiteralExpr{Kind: ast.LitFloat, Float: f, Line: t.Line}, nil
	case token.TRUE:
		p.next()
		return &ast.LiteralExpr{Kind: ast.LitBoolean, Bool: true, Line: t.Line}, nil
	case token.FALSE:
		p.next()
		return &ast.LiteralExpr{Kind: ast.LitBoolean, Bool: false, Line: t.Line}, nil
	case token.STRING:
		p.next()
		return &ast.LiteralExpr{Kind: ast.LitString, Str: t.Lexeme, Line: t.Line}, nil
	case token.ID:
		p.next()
		id := &ast.IdentExpr{Name: t.Lexeme, Line: t.Line}
		if err := p.resolveIdent(id); err != nil {
			return nil, err
		}
		return id, nil
	default:
		return nil, ntrerr.Syntax(t.Line, "unexpected token %s %q in expression", t.Class, t.Lexeme)
	}
}

func (p *Parser) parseList() (ast.Expr, error) {
	kw, _ := p.expect(token.LBRACKET)
	var elems []ast.Expr
	if !p.at(token.RBRACKET) {
		var err error
		elems, err = p.parseArgs()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(token.RBRACKET); err != nil {
		return nil, err
	}
	return &ast.ListExpr{Elements: elems, Line: kw.Line}, nil
}

// resolveIdent annotates id.Key with the symbol table key that resolves it,
// per spec.md §3/§4.2. Built-in names (str, int, float, pocket) pass through
// without a symtab entry. Any other name must already have a symtab entry,
// either in the current scope or in GLOBAL (where item names live, so an item
// must be declared earlier in the source than its first use); otherwise this
// is the "undefined identifier" semantic error from spec.md §7.
func (p *Parser) resolveIdent(id *ast.IdentExpr) error {
	if builtins[id.Name] {
		return nil
	}
	if p.inScope {
		if _, ok := p.table.Get(id.Name, p.curScope); ok {
			id.Key = symtab.Key(id.Name, p.curScope)
			return nil
		}
	}
	if _, ok := p.table.Get(id.Name, symtab.Global); ok {
		id.Key = symtab.Key(id.Name, symtab.Global)
		return nil
	}
	return ntrerr.Semantic(ntrerr.ErrUndefinedSymbol, id.Line, "undefined identifier %q", id.Name)
}
