package domain

import (
	"encoding/json"
	"fmt"
)

// Command names for the host-to-session protocol.
const (
	CommandSave    = "save"
	CommandRefresh = "refresh"
	CommandPage    = "page"
	CommandCancel  = "cancel"
)

// PageDirection selects the neighbouring page for a page command.
type PageDirection string

// Page directions.
const (
	PageNext PageDirection = "next"
	PagePrev PageDirection = "prev"
)

// Command is the closed set of messages a host may send to an edit
// session. Unrecognized command names are rejected at decode time rather
// than duck-typed on payload shape.
type Command interface {
	commandName() string
}

// SaveCommand asks the session to compile and apply its pending edits.
type SaveCommand struct{}

// RefreshCommand asks the session to reload the current page, discarding
// pending edits.
type RefreshCommand struct{}

// PageCommand asks the session to navigate to an adjacent page.
type PageCommand struct {
	Direction PageDirection
}

// CancelCommand asks the session to discard pending edits without saving.
type CancelCommand struct{}

func (SaveCommand) commandName() string    { return CommandSave }
func (RefreshCommand) commandName() string { return CommandRefresh }
func (PageCommand) commandName() string    { return CommandPage }
func (CancelCommand) commandName() string  { return CommandCancel }

type commandEnvelope struct {
	Command   string `json:"command"`
	Direction string `json:"direction,omitempty"`
}

// DecodeCommand parses a JSON command envelope into its tagged variant.
// Unknown commands and invalid page directions return a ValidationError.
func DecodeCommand(data []byte) (Command, error) {
	var env commandEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, ErrValidation("invalid command payload: %v", err)
	}
	switch env.Command {
	case CommandSave:
		return SaveCommand{}, nil
	case CommandRefresh:
		return RefreshCommand{}, nil
	case CommandCancel:
		return CancelCommand{}, nil
	case CommandPage:
		dir := PageDirection(env.Direction)
		if dir != PageNext && dir != PagePrev {
			return nil, ErrValidation("invalid page direction %q", env.Direction)
		}
		return PageCommand{Direction: dir}, nil
	default:
		return nil, ErrValidation("unrecognized command %q", env.Command)
	}
}

// EncodeCommand serializes a command back into its JSON envelope.
func EncodeCommand(c Command) ([]byte, error) {
	env := commandEnvelope{Command: c.commandName()}
	if p, ok := c.(PageCommand); ok {
		env.Direction = string(p.Direction)
	}
	out, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("encode command: %w", err)
	}
	return out, nil
}
