package domain

import "errors"

var (
	// ErrMalformedEvent is returned when an event lacks a required argument
	ErrMalformedEvent = errors.New("malformed event")
	// ErrUnknownCommand is returned when a COMMAND has no handler
	ErrUnknownCommand = errors.New("unknown command")
)
