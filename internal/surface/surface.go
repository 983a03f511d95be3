package surface

import (
	"fmt"
	"log"
	"sync"

	"ovpngen/internal/domain"
)

// DefaultIdentity is the form surface's identity on the bus
const DefaultIdentity domain.Identity = "surface"

// Publisher is the part of the bus a surface needs
type Publisher interface {
	Publish(event domain.Event)
}

// Surface is a presentation participant: one editable cell per field.
// Local edits are published as DATA events; remote DATA events are applied
// with the cell's notifications suppressed so they never echo back.
type Surface struct {
	id     domain.Identity
	bus    Publisher
	fields []domain.Field
	cells  map[string]*Cell

	mu      sync.Mutex
	applied []string
}

// New creates a surface with a cell for every field. Cells start empty.
func New(id domain.Identity, bus Publisher, fields []domain.Field) *Surface {
	s := &Surface{
		id:     id,
		bus:    bus,
		fields: fields,
		cells:  make(map[string]*Cell, len(fields)),
	}
	for _, f := range fields {
		s.bind(f.Key)
	}
	return s
}

// bind creates the cell for key and hooks its observer to the bus
func (s *Surface) bind(key string) {
	cell := NewCell(nil)
	cell.Observe(func(val domain.Value) {
		s.bus.Publish(domain.NewData(s.id, key, val))
	})
	s.cells[key] = cell
}

func (s *Surface) Identity() domain.Identity { return s.id }

// Fields returns the surface's field schema
func (s *Surface) Fields() []domain.Field {
	return s.fields
}

// Cell returns the cell bound to key
func (s *Surface) Cell(key string) (*Cell, bool) {
	c, ok := s.cells[key]
	return c, ok
}

// Value returns the current value of key's cell
func (s *Surface) Value(key string) (domain.Value, bool) {
	c, ok := s.cells[key]
	if !ok {
		return nil, false
	}
	return c.Get(), true
}

// Edit is a local user edit of key
func (s *Surface) Edit(key string, val domain.Value) error {
	c, ok := s.cells[key]
	if !ok {
		return fmt.Errorf("no field %q on %s", key, s.id)
	}
	c.Set(domain.Normalize(val))
	return nil
}

// Commit publishes the generate command
func (s *Surface) Commit() {
	s.bus.Publish(domain.NewCommand(s.id, domain.CommandGenerate, nil))
}

// Receive applies remote DATA events and ignores commands
func (s *Surface) Receive(event domain.Event) error {
	log.Printf("Surface %s < %s", s.id, event)

	if event.Kind != domain.KindData {
		return nil
	}
	key, val, err := event.Data()
	if err != nil {
		return err
	}
	c, ok := s.cells[key]
	if !ok {
		return nil
	}

	c.Suppress()
	c.Set(domain.Normalize(val))
	c.Resume()

	s.mu.Lock()
	s.applied = append(s.applied, key)
	s.mu.Unlock()
	return nil
}

// TakeApplied returns the keys applied from remote events since the last call
func (s *Surface) TakeApplied() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := s.applied
	s.applied = nil
	return keys
}
