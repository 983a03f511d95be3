package surface

import (
	"sync"

	"ovpngen/internal/domain"
)

// Observer is called after a cell's value changes
type Observer func(val domain.Value)

// Cell is an editable value that notifies observers on every write.
// Notifications can be suppressed while a value is applied from elsewhere.
type Cell struct {
	mu         sync.Mutex
	val        domain.Value
	observers  []Observer
	suppressed int
}

// NewCell creates a cell holding val
func NewCell(val domain.Value) *Cell {
	return &Cell{val: val}
}

// Get returns the current value
func (c *Cell) Get() domain.Value {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.val
}

// Set writes the value and notifies observers unless suppressed
func (c *Cell) Set(val domain.Value) {
	c.mu.Lock()
	c.val = val
	var observers []Observer
	if c.suppressed == 0 {
		observers = append(observers, c.observers...)
	}
	c.mu.Unlock()

	for _, o := range observers {
		o(val)
	}
}

// Observe adds an observer
func (c *Cell) Observe(o Observer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers = append(c.observers, o)
}

// Suppress disables notifications until the matching Resume
func (c *Cell) Suppress() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.suppressed++
}

// Resume re-enables notifications
func (c *Cell) Resume() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.suppressed > 0 {
		c.suppressed--
	}
}

// Suppressed reports whether notifications are currently disabled
func (c *Cell) Suppressed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.suppressed > 0
}
