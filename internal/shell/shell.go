// Package shell dispatches line-oriented operator commands.
package shell

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/kitu-show/kitu/internal/core/errs"
	"go.uber.org/zap"
)

// CommandHandler runs one command and returns the text to print.
type CommandHandler func(args []string) (string, error)

// EchoCommand prints its arguments separated by spaces.
func EchoCommand(args []string) (string, error) {
	return strings.Join(args, " "), nil
}

type command struct {
	fn   CommandHandler
	help string
}

type Shell struct {
	commands map[string]command
	log      *zap.Logger
}

// New returns a shell with the echo and help commands registered.
func New(log *zap.Logger) *Shell {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Shell{
		commands: make(map[string]command),
		log:      log,
	}
	s.Register("echo", "echo <text...>: print the arguments", EchoCommand)
	s.Register("help", "help: list commands", s.helpCommand)
	return s
}

// RegisterCommand adds or replaces a command without help text.
func (s *Shell) RegisterCommand(name string, fn CommandHandler) {
	s.Register(name, name, fn)
}

// Register adds or replaces a command.
func (s *Shell) Register(name, help string, fn CommandHandler) {
	s.commands[name] = command{fn: fn, help: help}
}

// Run executes the named command.
func (s *Shell) Run(name string, args []string) (string, error) {
	c, ok := s.commands[name]
	if !ok {
		return "", errs.InvalidInput("unknown command: " + name)
	}
	return c.fn(args)
}

// Exec splits line on whitespace and runs it. A blank line is a no-op.
func (s *Shell) Exec(line string) (string, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", nil
	}
	return s.Run(fields[0], fields[1:])
}

// Serve reads commands from r until EOF, "quit" or ctx is done, writing
// each result or error to w. Command errors are printed, not returned.
func (s *Shell) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		line := strings.TrimSpace(sc.Text())
		if line == "quit" || line == "exit" {
			return nil
		}
		out, err := s.Exec(line)
		if err != nil {
			s.log.Debug("command failed", zap.String("line", line), zap.Error(err))
			fmt.Fprintf(w, "error: %v\n", err)
			continue
		}
		if out != "" {
			fmt.Fprintln(w, out)
		}
	}
	return sc.Err()
}

func (s *Shell) helpCommand([]string) (string, error) {
	names := make([]string, 0, len(s.commands))
	for n := range s.commands {
		names = append(names, n)
	}
	sort.Strings(names)
	lines := make([]string, len(names))
	for i, n := range names {
		lines[i] = s.commands[n].help
	}
	return strings.Join(lines, "\n"), nil
}
