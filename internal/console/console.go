// Package console runs sheet and dice commands read as text lines.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/cory-johannsen/exa/internal/game/command"
	"github.com/cory-johannsen/exa/internal/game/modifier"
	"github.com/cory-johannsen/exa/internal/game/roll"
	"github.com/cory-johannsen/exa/internal/sheet"
)

var (
	// ErrUnknownCommand is returned for a line whose first word is not a command.
	ErrUnknownCommand = errors.New("unknown command")
	// ErrUsage is returned when a command's arguments are malformed.
	ErrUsage = errors.New("usage")
	// ErrNoHistory is returned by history when no roll store is configured.
	ErrNoHistory = errors.New("roll history needs a durable roll store")
)

// History lists stored roll outcomes.
type History interface {
	Recent(ctx context.Context, entityID string, limit int) ([]roll.Outcome, error)
}

// Console dispatches parsed command lines to the sheet service and roller.
type Console struct {
	sheets   *sheet.Service
	roller   *roll.Roller
	history  History
	aliases  *modifier.Table
	registry *command.Registry
	logger   *zap.Logger
}

// New creates a Console. history may be nil, in which case the history
// command reports ErrNoHistory.
//
// Precondition: sheets, roller, aliases and logger must be non-nil.
func New(sheets *sheet.Service, roller *roll.Roller, history History, aliases *modifier.Table, logger *zap.Logger) *Console {
	return &Console{
		sheets:   sheets,
		roller:   roller,
		history:  history,
		aliases:  aliases,
		registry: command.DefaultRegistry(),
		logger:   logger,
	}
}

// request carries all inputs a handler needs.
type request struct {
	ctx    context.Context
	cmd    *command.Command
	parsed command.ParseResult
	out    io.Writer
}

// handlerFunc is the signature for all console handlers. quit reports that
// the session should end.
type handlerFunc func(c *Console, req *request) (quit bool, err error)

// handlerMap is the single source of truth for console dispatch.
// To add a command: add a Handler constant to commands.go AND an entry here.
var handlerMap = map[string]handlerFunc{
	command.HandlerCreate:    handleCreate,
	command.HandlerShow:      handleShow,
	command.HandlerSet:       handleSet,
	command.HandlerList:      handleList,
	command.HandlerCompanion: handleCompanion,
	command.HandlerParse:     handleParse,
	command.HandlerRoll:      handleRoll,
	command.HandlerHistory:   handleHistory,
	command.HandlerHelp:      handleHelp,
	command.HandlerQuit:      handleQuit,
}

// Exec runs one command line and writes its output to out.
//
// Postcondition: blank and comment lines are no-ops.
func (c *Console) Exec(ctx context.Context, line string, out io.Writer) (bool, error) {
	return c.dispatch(ctx, command.Parse(line), out)
}

// ExecArgs runs a command already split into words, as from os.Args.
func (c *Console) ExecArgs(ctx context.Context, args []string, out io.Writer) (bool, error) {
	if len(args) == 0 {
		return false, nil
	}
	parsed := command.ParseResult{
		Command: strings.ToLower(args[0]),
		Args:    args[1:],
		RawArgs: strings.Join(args[1:], " "),
	}
	return c.dispatch(ctx, parsed, out)
}

func (c *Console) dispatch(ctx context.Context, parsed command.ParseResult, out io.Writer) (bool, error) {
	if parsed.Command == "" {
		return false, nil
	}
	cmd, ok := c.registry.Resolve(parsed.Command)
	if !ok {
		if hint, ok := c.registry.Suggest(parsed.Command); ok {
			return false, fmt.Errorf("%w %q (did you mean %q?)", ErrUnknownCommand, parsed.Command, hint)
		}
		return false, fmt.Errorf("%w %q (try help)", ErrUnknownCommand, parsed.Command)
	}
	h, ok := handlerMap[cmd.Handler]
	if !ok {
		return false, fmt.Errorf("command %q has no handler", cmd.Name)
	}
	return h(c, &request{ctx: ctx, cmd: cmd, parsed: parsed, out: out})
}

// Run reads command lines from in until EOF, quit, or ctx is done. Command
// errors are reported to out and do not end the session.
//
// Postcondition: Returns nil on EOF or quit, ctx.Err() on cancellation, or a
// read error.
func (c *Console) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	lineNo := 0
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		lineNo++
		quit, err := c.Exec(ctx, scanner.Text(), out)
		if err != nil {
			c.logger.Debug("command failed", zap.Int("line", lineNo), zap.Error(err))
			fmt.Fprintf(out, "error: %v\n", err)
		}
		if quit {
			return nil
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}
	return nil
}

func usage(cmd *command.Command) error {
	return fmt.Errorf("%w: %s %s", ErrUsage, cmd.Name, cmd.Usage)
}
