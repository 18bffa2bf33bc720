/*
Narratr compiles Narratr DSL source into a target-host script, and can also
run an interactive compile session or serve a compile-as-a-service HTTP API.

Usage:

	narratr [flags] [FILE]

The flags are:

	-v, --version
		Give the current version of narratr and then exit.

	-o, --output FILE
		Write the generated script to FILE instead of stdout.

	-c, --config FILE
		Use the given narratr.toml configuration file instead of the default.

	--strict-start
		Treat a second start: declaration as a fatal error instead of a
		warning.

	repl
		Start an interactive compile session reading from stdin.

	serve
		Start the compile-as-a-service HTTP API.

If FILE is omitted, source is read from stdin. In `narratr repl`, the
session commands are :compile, :show, :reset, :load FILE, and :quit (or
:exit) to end the session.
*/
package main

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/dekarrin/narratr/internal/codegen"
	"github.com/dekarrin/narratr/internal/compiler"
	"github.com/dekarrin/narratr/internal/config"
	"github.com/dekarrin/narratr/internal/repl"
	"github.com/dekarrin/narratr/internal/svc/api"
	"github.com/dekarrin/narratr/internal/svc/dao"
	"github.com/dekarrin/narratr/internal/svc/dao/inmem"
	"github.com/dekarrin/narratr/internal/svc/dao/sqlite"
	"github.com/dekarrin/narratr/internal/version"
)

const (
	ExitSuccess = iota
	ExitCompileError
	ExitInitError
)

var (
	returnCode     = ExitSuccess
	flagVersion    = pflag.BoolP("version", "v", false, "Gives the version info")
	flagOutput     = pflag.StringP("output", "o", "", "Write generated source to this file instead of stdout")
	flagConfig     = pflag.StringP("config", "c", "narratr.toml", "Path to a narratr.toml configuration file")
	flagStrictStart = pflag.Bool("strict-start", false, "Treat a second start: declaration as a fatal error")
)

func main() {
	defer func() {
		if panicErr := recover(); panicErr != nil {
			panic(fmt.Sprintf("unrecoverable panic occurred: %v", panicErr))
		} else {
			os.Exit(returnCode)
		}
	}()

	pflag.Parse()

	if *flagVersion {
		fmt.Printf("%s\n", version.Current)
		return
	}

	cfg := config.Default()
	if _, err := os.Stat(*flagConfig); err == nil {
		loaded, err := config.Load(*flagConfig)
		if err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %s\n", err)
			returnCode = ExitInitError
			return
		}
		cfg = loaded
	}
	if *flagStrictStart {
		cfg.Compiler.StrictStart = true
	}

	opts := compiler.Options{Options: codegenOptions(cfg)}

	args := pflag.Args()
	switch {
	case len(args) > 0 && args[0] == "repl":
		runREPL(opts)
	case len(args) > 0 && args[0] == "serve":
		runServe(cfg, opts)
	default:
		runCompile(opts, args)
	}
}

func runCompile(opts compiler.Options, args []string) {
	var src []byte
	var err error
	if len(args) > 0 {
		src, err = os.ReadFile(args[0])
	} else {
		src, err = io.ReadAll(os.Stdin)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err)
		returnCode = ExitInitError
		return
	}

	result, err := compiler.Compile(string(src), opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		returnCode = ExitCompileError
		return
	}
	for _, w := range result.Warnings {
		fmt.Fprintln(os.Stderr, w.Error())
	}

	out := os.Stdout
	if *flagOutput != "" {
		f, ferr := os.Create(*flagOutput)
		if ferr != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %s\n", ferr)
			returnCode = ExitInitError
			return
		}
		defer f.Close()
		out = f
	}
	fmt.Fprint(out, result.Source)
}

func runREPL(opts compiler.Options) {
	sess, err := repl.New(os.Stdin, os.Stdout, os.Stderr, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err)
		returnCode = ExitInitError
		return
	}
	defer sess.Close()

	if err := sess.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err)
		returnCode = ExitCompileError
	}
}

func runServe(cfg config.Config, opts compiler.Options) {
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err)
		returnCode = ExitInitError
		return
	}

	store, err := connectStore(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err)
		returnCode = ExitInitError
		return
	}
	defer store.Close()

	a := &api.API{
		Store:    store,
		Opts:     opts,
		Secret:   []byte(cfg.Server.JWTSecret),
		TokenTTL: 24 * time.Hour,
	}

	fmt.Printf("narratr serve listening on %s\n", cfg.Server.Address)
	if err := http.ListenAndServe(cfg.Server.Address, a.Router()); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err)
		returnCode = ExitCompileError
	}
}

func connectStore(cfg config.Config) (dao.Store, error) {
	switch cfg.Server.DBType {
	case config.DatabaseSQLite:
		return sqlite.NewDatastore(cfg.Server.DataDir)
	default:
		return inmem.NewDatastore(), nil
	}
}

func codegenOptions(cfg config.Config) codegen.Options {
	return codegen.Options{StrictStart: cfg.Compiler.StrictStart}
}
