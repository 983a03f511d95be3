package store

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"

	"ovpngen/internal/domain"
	"ovpngen/internal/eventbus"
)

// DefaultIdentity is the store's identity on the bus
const DefaultIdentity domain.Identity = "store"

// Publisher is the part of the bus the store needs
type Publisher interface {
	Publish(event domain.Event)
}

// Generator produces derived artifacts from the store's entries
type Generator interface {
	Generate(ctx context.Context, entries domain.Entries, opts map[string]domain.Value) error
}

// GeneratorFunc adapts a function to Generator
type GeneratorFunc func(ctx context.Context, entries domain.Entries, opts map[string]domain.Value) error

func (f GeneratorFunc) Generate(ctx context.Context, entries domain.Entries, opts map[string]domain.Value) error {
	return f(ctx, entries, opts)
}

// Option configures a Store
type Option func(*Store)

// WithIdentity overrides the store's bus identity
func WithIdentity(id domain.Identity) Option {
	return func(s *Store) { s.id = id }
}

// WithGenerator sets the collaborator invoked by the generate command
func WithGenerator(g Generator) Option {
	return func(s *Store) { s.generator = g }
}

// WithContext sets the context handed to the generator
func WithContext(ctx context.Context) Option {
	return func(s *Store) { s.ctx = ctx }
}

// Store owns the canonical configuration values and mirrors remote DATA events
type Store struct {
	id        domain.Identity
	bus       Publisher
	generator Generator
	ctx       context.Context

	mu      sync.RWMutex
	entries domain.Entries
}

// New creates a store. It does not register itself; callers register it on the bus.
func New(bus Publisher, opts ...Option) *Store {
	s := &Store{
		id:      DefaultIdentity,
		bus:     bus,
		ctx:     context.Background(),
		entries: make(domain.Entries),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Identity() domain.Identity { return s.id }

// Get returns a single entry
func (s *Store) Get(key string) (domain.Value, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.entries[key]
	return v, ok
}

// Entries returns a copy of every entry
func (s *Store) Entries() domain.Entries {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entries.Clone()
}

// Keys returns the entry keys sorted
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.entries))
	for k := range s.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Set writes an entry. With notify it announces the new value to every peer;
// without it only the local mirror changes, which is how remote updates are applied.
func (s *Store) Set(key string, val domain.Value, notify bool) {
	val = domain.Normalize(val)
	s.mu.Lock()
	s.entries[key] = val
	s.mu.Unlock()

	if notify && s.bus != nil {
		s.bus.Publish(domain.NewData(s.id, key, val))
	}
}

// Seed writes the initial population with notification enabled, in order.
// Peers registered after Seed runs never see these values until the next edit.
func (s *Store) Seed(seeds []domain.Seed) {
	if lister, ok := s.bus.(interface{ Participants() []eventbus.Participant }); ok {
		peers := 0
		for _, p := range lister.Participants() {
			if p.Identity() != s.id {
				peers++
			}
		}
		if peers == 0 {
			log.Printf("Store: seeding with no peers registered, surfaces registered later will not converge")
		}
	}
	for _, seed := range seeds {
		s.Set(seed.Key, seed.Value, true)
	}
}

// Receive applies DATA events locally and runs COMMAND events
func (s *Store) Receive(event domain.Event) error {
	log.Printf("Store < %s", event)

	switch event.Kind {
	case domain.KindData:
		key, val, err := event.Data()
		if err != nil {
			return err
		}
		s.Set(key, val, false)
		return nil

	case domain.KindCommand:
		name, extras, err := event.Command()
		if err != nil {
			return err
		}
		switch name {
		case domain.CommandGenerate:
			return s.Generate(extras)
		default:
			log.Printf("Store: ignoring %v", fmt.Errorf("%w %q", domain.ErrUnknownCommand, name))
			return nil
		}

	default:
		return fmt.Errorf("%w: unknown kind %s", domain.ErrMalformedEvent, event.Kind)
	}
}

// Generate hands the current entries to the generator
func (s *Store) Generate(opts map[string]domain.Value) error {
	entries := s.Entries()
	log.Printf("Store: generate from data %v", entries)
	if s.generator == nil {
		return nil
	}
	if err := s.generator.Generate(s.ctx, entries, opts); err != nil {
		log.Printf("Store: generate failed: %v", err)
		return fmt.Errorf("generate: %w", err)
	}
	return nil
}
