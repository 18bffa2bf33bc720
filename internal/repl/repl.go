// Package repl implements the `narratr repl` interactive compiler session,
// adapted from github.com/dekarrin/tunaq's internal/input command reader:
// the same split between a GNU-readline-backed reader for interactive TTYs
// and a plain buffered reader for piped input, now driving one-shot
// compiles of whatever source the user has typed or loaded instead of game
// commands.
package repl

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	shellquote "github.com/kballard/go-shellquote"

	"github.com/dekarrin/narratr/internal/compiler"
)

const prompt = "narratr> "

// Session is one REPL invocation: an accumulating source buffer the user
// appends to via ordinary lines, plus a handful of `:` meta-commands.
type Session struct {
	rl      *readline.Instance
	direct  *bufio.Reader
	out     io.Writer
	errOut  io.Writer
	opts    compiler.Options
	buf     strings.Builder
	useRL   bool
}

// New creates a Session reading from in and writing to out/errOut. If in is
// a terminal, GNU readline editing and history are used; otherwise in is
// read directly line by line, matching the direct-vs-interactive split in
// the reference command reader this is adapted from.
func New(in *os.File, out, errOut io.Writer, opts compiler.Options) (*Session, error) {
	s := &Session{out: out, errOut: errOut, opts: opts}

	if in == os.Stdin && readline.IsTerminal(int(os.Stdin.Fd())) {
		rl, err := readline.NewEx(&readline.Config{
			Prompt:      prompt,
			HistoryFile: historyFilePath(),
		})
		if err != nil {
			return nil, fmt.Errorf("create readline session: %w", err)
		}
		s.rl = rl
		s.useRL = true
	} else {
		s.direct = bufio.NewReader(in)
	}

	return s, nil
}

func historyFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".narratr_history"
	}
	return home + "/.narratr_history"
}

// Close releases readline resources, if any were allocated.
func (s *Session) Close() error {
	if s.rl != nil {
		return s.rl.Close()
	}
	return nil
}

// Run reads lines until EOF or a `:quit`, compiling the accumulated buffer
// whenever the user enters `:compile` and printing the resulting source (or
// the first diagnostic) to the session's output streams.
func (s *Session) Run() error {
	for {
		line, err := s.readLine()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}

		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, ":") {
			quit, err := s.handleMeta(trimmed)
			if err != nil {
				fmt.Fprintf(s.errOut, "ERROR: %s\n", err)
				continue
			}
			if quit {
				return nil
			}
			continue
		}

		s.buf.WriteString(line)
		s.buf.WriteString("\n")
	}
}

// handleMeta dispatches a `:`-prefixed session command. It reports quit=true
// when the session should end.
func (s *Session) handleMeta(line string) (quit bool, err error) {
	args, err := shellquote.Split(line[1:])
	if err != nil || len(args) == 0 {
		return false, fmt.Errorf("malformed command %q", line)
	}

	switch args[0] {
	case "quit", "exit":
		return true, nil
	case "reset":
		s.buf.Reset()
		return false, nil
	case "show":
		fmt.Fprint(s.out, s.buf.String())
		return false, nil
	case "load":
		if len(args) != 2 {
			return false, fmt.Errorf("usage: :load FILE")
		}
		data, err := os.ReadFile(args[1])
		if err != nil {
			return false, fmt.Errorf("read %q: %w", args[1], err)
		}
		s.buf.Reset()
		s.buf.Write(data)
		return false, nil
	case "compile":
		return false, s.compile()
	default:
		return false, fmt.Errorf("unknown command %q", args[0])
	}
}

func (s *Session) compile() error {
	result, err := compiler.Compile(s.buf.String(), s.opts)
	if err != nil {
		return err
	}
	for _, w := range result.Warnings {
		fmt.Fprintln(s.errOut, w.Error())
	}
	fmt.Fprint(s.out, result.Source)
	return nil
}

func (s *Session) readLine() (string, error) {
	if s.useRL {
		line, err := s.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt || err == io.EOF {
				return "", io.EOF
			}
			return "", err
		}
		return line, nil
	}
	line, err := s.direct.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	if line == "" && err == io.EOF {
		return "", io.EOF
	}
	return strings.TrimRight(line, "\n"), nil
}
