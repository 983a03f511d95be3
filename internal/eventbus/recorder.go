package eventbus

import "sync"

// Recorder is a participant that keeps every event it receives.
// It never publishes, so it can observe a bus without changing its behavior.
type Recorder struct {
	id Identity

	mu     sync.Mutex
	events []Event
}

// NewRecorder creates a recorder with the given identity
func NewRecorder(id Identity) *Recorder {
	return &Recorder{id: id}
}

func (r *Recorder) Identity() Identity { return r.id }

func (r *Recorder) Receive(event Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

// Events returns a copy of the received events in delivery order
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Count returns how many events were received
func (r *Recorder) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

// Reset forgets every received event
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
