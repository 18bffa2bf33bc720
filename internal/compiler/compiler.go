// Package compiler wires the lexer, parser, and code generator together
// into the single entry point the CLI and the HTTP service both call,
// mirroring the role github.com/dekarrin/tunaq's top-level engine.New
// plays for that project: one function that owns the pipeline and returns
// either a finished artifact or the first diagnostic that stopped it.
package compiler

import (
	"github.com/dekarrin/narratr/internal/codegen"
	"github.com/dekarrin/narratr/internal/lex"
	"github.com/dekarrin/narratr/internal/ntrerr"
	"github.com/dekarrin/narratr/internal/parse"
)

// Options configures a Compile call. It embeds codegen.Options so callers
// have one options struct to construct regardless of which stage a setting
// actually affects.
type Options struct {
	codegen.Options
}

// Result is the successful output of a Compile call.
type Result struct {
	// Source is the generated target-host script text.
	Source string
	// Warnings holds every non-fatal diagnostic produced while compiling,
	// in the order they were raised.
	Warnings []*ntrerr.Diagnostic
}

// Compile runs the full narratr pipeline over src: lex, parse (which also
// builds the symbol table), validate, and lower to target-host source.
// The first fatal diagnostic encountered at any stage is returned as err;
// it will satisfy errors.Is against one of the ntrerr sentinel errors.
func Compile(src string, opts Options) (*Result, error) {
	toks, err := lex.Lex(src)
	if err != nil {
		return nil, err
	}

	prog, table, parseWarnings, err := parse.Parse(toks)
	if err != nil {
		return nil, err
	}

	out, genWarnings, err := codegen.Generate(prog, table, opts.Options)
	if err != nil {
		return nil, err
	}

	warnings := append(append([]*ntrerr.Diagnostic{}, parseWarnings...), genWarnings...)
	return &Result{Source: out, Warnings: warnings}, nil
}
