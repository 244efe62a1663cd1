package safealloc

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/viant/safealloc/model/process"
	"github.com/viant/safealloc/service/safety"
	"go.uber.org/zap"
)

// ErrExit is returned by Execute for the exit command.
var ErrExit = errors.New("exit requested")

// CommandKind identifies a console command.
type CommandKind string

const (
	CommandOpen   CommandKind = "open"
	CommandClose  CommandKind = "close"
	CommandSafety CommandKind = "safety"
	CommandExit   CommandKind = "exit"
)

// Command is a single console request.
type Command struct {
	Kind      CommandKind `json:"kind"`
	CatalogID int         `json:"catalogId,omitempty"`
}

func (c Command) String() string {
	if c.Kind == CommandOpen {
		return fmt.Sprintf("%v %d", c.Kind, c.CatalogID)
	}
	return string(c.Kind)
}

// Outcome carries what a command produced.
type Outcome struct {
	Command Command         `json:"command"`
	Record  *process.Record `json:"record,omitempty"`
	Next    *process.Record `json:"next,omitempty"`
	Safety  *safety.Result  `json:"safety,omitempty"`
}

// ParseCommands parses argv style commands, for example
// "open 4 open 2 close safety exit". An open keyword must be followed by a
// catalog id.
func ParseCommands(args []string) ([]Command, error) {
	var ret []Command
	for i := 0; i < len(args); i++ {
		kind := CommandKind(strings.ToLower(strings.TrimSpace(args[i])))
		switch kind {
		case CommandClose, CommandSafety, CommandExit:
			ret = append(ret, Command{Kind: kind})
		case CommandOpen:
			if i+1 >= len(args) {
				return nil, fmt.Errorf("open: missing catalog id")
			}
			i++
			id, err := strconv.Atoi(args[i])
			if err != nil {
				return nil, fmt.Errorf("open: invalid catalog id %q: %w", args[i], err)
			}
			ret = append(ret, Command{Kind: CommandOpen, CatalogID: id})
		default:
			return nil, fmt.Errorf("unknown command %q", args[i])
		}
	}
	return ret, nil
}

// Execute runs cmd. Exit returns ErrExit; callers stop processing further
// commands and terminate successfully.
func (r *Runtime) Execute(ctx context.Context, cmd Command) (*Outcome, error) {
	r.logger.Debug("executing command", zap.Stringer("command", cmd))
	ret := &Outcome{Command: cmd}
	var err error
	switch cmd.Kind {
	case CommandOpen:
		ret.Record, err = r.Open(ctx, cmd.CatalogID)
	case CommandClose:
		ret.Record, ret.Next, err = r.CloseRunning(ctx)
	case CommandSafety:
		ret.Safety, err = r.CheckSafety(ctx, nil)
	case CommandExit:
		return nil, ErrExit
	default:
		return nil, fmt.Errorf("unknown command %q", cmd.Kind)
	}
	return ret, err
}
