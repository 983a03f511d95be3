package domain

import (
	"fmt"
	"maps"

	"github.com/google/uuid"
)

// EventKind represents the kind of bus event
type EventKind int

// Event kinds
const (
	KindCommand EventKind = iota + 1
	KindData
)

func (k EventKind) String() string {
	switch k {
	case KindCommand:
		return "COMMAND"
	case KindData:
		return "DATA"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// Identity is the stable name a participant answers to on the bus
type Identity string

// Argument names
const (
	ArgID   = "id"
	ArgVal  = "val"
	ArgName = "name"
)

// Command names
const (
	CommandGenerate = "generate"
)

// Event is an immutable bus message. Build it with NewData or NewCommand.
type Event struct {
	ID     string
	Origin Identity
	Kind   EventKind
	args   map[string]Value
}

// NewData creates a DATA event announcing a single key's new value
func NewData(origin Identity, key string, val Value) Event {
	return Event{
		ID:     uuid.NewString(),
		Origin: origin,
		Kind:   KindData,
		args:   map[string]Value{ArgID: key, ArgVal: val},
	}
}

// NewCommand creates a COMMAND event. Extras are copied; a "name" entry in extras is ignored.
func NewCommand(origin Identity, name string, extras map[string]Value) Event {
	args := make(map[string]Value, len(extras)+1)
	maps.Copy(args, extras)
	args[ArgName] = name
	return Event{
		ID:     uuid.NewString(),
		Origin: origin,
		Kind:   KindCommand,
		args:   args,
	}
}

// NewEvent creates an event from a raw argument map without validating its shape.
// Receivers reject malformed events through Data and Command.
func NewEvent(origin Identity, kind EventKind, args map[string]Value) Event {
	return Event{
		ID:     uuid.NewString(),
		Origin: origin,
		Kind:   kind,
		args:   maps.Clone(args),
	}
}

// Args returns a copy of the event arguments
func (e Event) Args() map[string]Value {
	return maps.Clone(e.args)
}

// Arg returns a single argument
func (e Event) Arg(name string) (Value, bool) {
	v, ok := e.args[name]
	return v, ok
}

// Data returns the key and value of a DATA event
func (e Event) Data() (string, Value, error) {
	if e.Kind != KindData {
		return "", nil, fmt.Errorf("%w: %s is not a DATA event", ErrMalformedEvent, e.Kind)
	}
	raw, ok := e.args[ArgID]
	if !ok {
		return "", nil, fmt.Errorf("%w: missing %q", ErrMalformedEvent, ArgID)
	}
	key, ok := raw.(string)
	if !ok || key == "" {
		return "", nil, fmt.Errorf("%w: %q must be a non-empty string, got %T", ErrMalformedEvent, ArgID, raw)
	}
	val, ok := e.args[ArgVal]
	if !ok {
		return "", nil, fmt.Errorf("%w: missing %q for %s", ErrMalformedEvent, ArgVal, key)
	}
	return key, val, nil
}

// Command returns the name of a COMMAND event and its extras with the name stripped
func (e Event) Command() (string, map[string]Value, error) {
	if e.Kind != KindCommand {
		return "", nil, fmt.Errorf("%w: %s is not a COMMAND event", ErrMalformedEvent, e.Kind)
	}
	raw, ok := e.args[ArgName]
	if !ok {
		return "", nil, fmt.Errorf("%w: missing %q", ErrMalformedEvent, ArgName)
	}
	name, ok := raw.(string)
	if !ok || name == "" {
		return "", nil, fmt.Errorf("%w: %q must be a non-empty string, got %T", ErrMalformedEvent, ArgName, raw)
	}
	extras := maps.Clone(e.args)
	delete(extras, ArgName)
	return name, extras, nil
}

func (e Event) String() string {
	return fmt.Sprintf("%s(%v) from %s", e.Kind, e.args, e.Origin)
}
