package eventbus

import (
	"fmt"
	"log"
	"runtime/debug"
	"slices"
	"sync"

	"ovpngen/internal/domain"
)

// Re-export domain types for convenience
type Event = domain.Event
type Identity = domain.Identity

// Participant is anything that can sit on the bus
type Participant interface {
	Identity() Identity
	Receive(event Event) error
}

// ErrorHandler is called when a participant fails to handle an event
type ErrorHandler func(p Participant, event Event, err error)

// Option configures a Bus
type Option func(*Bus)

// WithErrorHandler replaces the default logging error handler
func WithErrorHandler(h ErrorHandler) Option {
	return func(b *Bus) {
		b.onError = h
	}
}

// frame is one event's pending fan-out
type frame struct {
	event      Event
	recipients []Participant
	next       int
}

// Bus delivers each published event to every registered participant except its origin.
//
// Delivery is synchronous and depth-first: an event published while another is being
// delivered is fanned out completely before the outer event moves on to its next
// recipient. Nested publishes are pushed onto a frame stack and drained by the outermost
// Publish call, so the stack depth stays flat no matter how long a reaction chain gets.
// Publish is meant to be called from a single goroutine at a time.
type Bus struct {
	mu           sync.Mutex
	participants []Participant
	stack        []*frame
	draining     bool
	onError      ErrorHandler
}

// New creates a new event bus
func New(opts ...Option) *Bus {
	b := &Bus{
		onError: logError,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Register appends a participant. Registering the same participant twice delivers twice.
func (b *Bus) Register(p Participant) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.participants = append(b.participants, p)
	log.Printf("EventBus: Registered %s", p.Identity())
}

// Unregister removes every registration of p. Fan-outs already in progress still reach it.
func (b *Bus) Unregister(p Participant) {
	b.mu.Lock()
	defer b.mu.Unlock()
	kept := b.participants[:0]
	for _, existing := range b.participants {
		if existing != p {
			kept = append(kept, existing)
		}
	}
	// Clear the tail so removed participants can be collected
	for i := len(kept); i < len(b.participants); i++ {
		b.participants[i] = nil
	}
	b.participants = kept
	log.Printf("EventBus: Unregistered %s", p.Identity())
}

// Participants returns the registered participants in registration order
func (b *Bus) Participants() []Participant {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Participant, len(b.participants))
	copy(out, b.participants)
	return out
}

// Publish fans event out to every participant whose identity differs from its origin.
// When called from inside a Receive, delivery happens right after that Receive returns.
func (b *Bus) Publish(event Event) {
	log.Printf("EventBus: Publishing %s", event)

	b.mu.Lock()
	recipients := make([]Participant, 0, len(b.participants))
	for _, p := range b.participants {
		if p.Identity() != event.Origin {
			recipients = append(recipients, p)
		}
	}
	b.stack = append(b.stack, &frame{event: event, recipients: recipients})
	if b.draining {
		b.mu.Unlock()
		return
	}
	b.draining = true
	b.mu.Unlock()

	b.drain()
}

// drain delivers frames until the stack is empty, always working on the top frame
func (b *Bus) drain() {
	defer func() {
		b.mu.Lock()
		b.draining = false
		b.mu.Unlock()
	}()

	for {
		b.mu.Lock()
		if len(b.stack) == 0 {
			b.mu.Unlock()
			return
		}
		top := b.stack[len(b.stack)-1]
		if top.next >= len(top.recipients) {
			b.stack = b.stack[:len(b.stack)-1]
			b.mu.Unlock()
			continue
		}
		p := top.recipients[top.next]
		top.next++
		mark := len(b.stack)
		b.mu.Unlock()

		b.deliver(p, top.event)

		// Frames above mark were published by p, in order. Flip them so the
		// first one published is on top and is delivered first.
		b.mu.Lock()
		slices.Reverse(b.stack[mark:])
		b.mu.Unlock()
	}
}

// deliver calls Receive and reports errors and panics without aborting the fan-out
func (b *Bus) deliver(p Participant, event Event) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("EventBus: %s panicked handling %s: %v\nStack: %s", p.Identity(), event, r, debug.Stack())
			b.onError(p, event, fmt.Errorf("panic: %v", r))
		}
	}()
	if err := p.Receive(event); err != nil {
		b.onError(p, event, err)
	}
}

func logError(p Participant, event Event, err error) {
	log.Printf("EventBus: %s failed handling %s: %v", p.Identity(), event, err)
}
