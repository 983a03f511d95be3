// Package filesurface presents the configuration values as an editable TOML file.
//
// Remote DATA events are written to the file. External edits to the file are
// diffed against the last known values and published key by key. Writing a
// remote value produces a file that parses back to the mirror, so the watcher
// sees no difference and nothing is echoed.
package filesurface

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/pelletier/go-toml/v2"

	"ovpngen/internal/domain"
)

// DefaultIdentity is the values-file surface's identity on the bus
const DefaultIdentity domain.Identity = "values-file"

// Publisher is the part of the bus the surface needs
type Publisher interface {
	Publish(event domain.Event)
}

// Option configures a Surface
type Option func(*Surface)

// WithIdentity overrides the bus identity
func WithIdentity(id domain.Identity) Option {
	return func(s *Surface) { s.id = id }
}

// WithFields sets the keys an external edit may introduce. Keys already in the
// mirror are always accepted.
func WithFields(fields []domain.Field) Option {
	return func(s *Surface) { s.fields = fields }
}

// WithDispatch routes reloads triggered by the watcher through dispatch,
// so publishes happen on the goroutine that owns the bus.
func WithDispatch(dispatch func(func())) Option {
	return func(s *Surface) { s.dispatch = dispatch }
}

// Surface mirrors configuration values into a file and publishes edits made to it
type Surface struct {
	id       domain.Identity
	path     string
	bus      Publisher
	dispatch func(func())
	fields   []domain.Field

	mu      sync.Mutex
	mirror  domain.Entries
	written []byte // file content of our last write, nil before the first

	watcher *fsnotify.Watcher
	done    chan struct{}
}

// New creates a surface for path. Nothing touches the file until Start or Receive.
func New(path string, bus Publisher, opts ...Option) *Surface {
	s := &Surface{
		id:       DefaultIdentity,
		path:     path,
		bus:      bus,
		dispatch: func(fn func()) { fn() },
		fields:   domain.Fields,
		mirror:   make(domain.Entries),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Surface) Identity() domain.Identity { return s.id }

// Path returns the values file path
func (s *Surface) Path() string { return s.path }

// Values returns a copy of the mirror
func (s *Surface) Values() domain.Entries {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mirror.Clone()
}

// Receive writes remote DATA values to the file. Commands are ignored.
//
// An external edit whose reload is still pending would be overwritten by the
// write, so it is picked up first. The received key keeps the remote value.
func (s *Surface) Receive(event domain.Event) error {
	log.Printf("FileSurface < %s", event)

	if event.Kind != domain.KindData {
		return nil
	}
	key, val, err := event.Data()
	if err != nil {
		return err
	}

	if s.editedOnDisk() {
		if err := s.reload(key); err != nil {
			log.Printf("FileSurface: pending edit lost: %v", err)
		}
	}

	s.mu.Lock()
	s.mirror[key] = domain.Normalize(val)
	snapshot := s.mirror.Clone()
	s.mu.Unlock()

	return s.write(snapshot)
}

// editedOnDisk reports whether the file changed since our last write
func (s *Surface) editedOnDisk() bool {
	s.mu.Lock()
	written := s.written
	s.mu.Unlock()
	if written == nil {
		return false
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return false
	}
	return !bytes.Equal(data, written)
}

// Reload reads the file and publishes every known value that differs from the mirror
func (s *Surface) Reload() error {
	return s.reload("")
}

// reload is Reload leaving skip untouched
func (s *Surface) reload(skip string) error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("failed to read values file: %w", err)
	}
	var parsed map[string]any
	if err := toml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("failed to parse values file: %w", err)
	}

	keys := make([]string, 0, len(parsed))
	for k := range parsed {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var changed []domain.Event
	s.mu.Lock()
	for _, k := range keys {
		if k == skip {
			continue
		}
		old, known := s.mirror[k]
		if !known {
			if _, ok := domain.FieldByKey(s.fields, k); !ok {
				log.Printf("FileSurface: ignoring unknown key %q", k)
				continue
			}
		}
		val := domain.Normalize(parsed[k])
		if known && domain.Equal(old, val) {
			continue
		}
		s.mirror[k] = val
		changed = append(changed, domain.NewData(s.id, k, val))
	}
	s.mu.Unlock()

	for _, ev := range changed {
		s.bus.Publish(ev)
	}
	return nil
}

// Start creates the file if needed and watches it until ctx is done or Close is called
func (s *Surface) Start(ctx context.Context) error {
	if _, err := os.Stat(s.path); errors.Is(err, os.ErrNotExist) {
		if err := s.write(s.Values()); err != nil {
			return err
		}
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	// Watch the directory: editors often replace the file instead of writing it
	if err := watcher.Add(filepath.Dir(s.path)); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(s.path), err)
	}
	s.watcher = watcher
	s.done = make(chan struct{})

	go s.watch(ctx, watcher, s.done)
	log.Printf("FileSurface: watching %s", s.path)
	return nil
}

func (s *Surface) watch(ctx context.Context, watcher *fsnotify.Watcher, done chan struct{}) {
	defer close(done)
	target := filepath.Clean(s.path)
	for {
		select {
		case <-ctx.Done():
			watcher.Close()
			return
		case evt, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(evt.Name) != target {
				continue
			}
			if evt.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			s.dispatch(func() {
				if err := s.Reload(); err != nil {
					log.Printf("FileSurface: %v", err)
				}
			})
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.Printf("FileSurface: watcher error: %v", err)
		}
	}
}

// Close stops watching and waits for the watch loop to exit
func (s *Surface) Close() error {
	if s.watcher == nil {
		return nil
	}
	err := s.watcher.Close()
	<-s.done
	s.watcher = nil
	return err
}

func (s *Surface) write(values domain.Entries) error {
	data, err := toml.Marshal(map[string]any(values))
	if err != nil {
		return fmt.Errorf("failed to marshal values: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create values directory: %w", err)
	}
	// Replace the file in one step so the watcher never reads a partial write
	tmp, err := os.CreateTemp(filepath.Dir(s.path), "."+filepath.Base(s.path)+".*")
	if err != nil {
		return fmt.Errorf("failed to write values file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write values file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write values file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return fmt.Errorf("failed to write values file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to write values file: %w", err)
	}

	s.mu.Lock()
	s.written = data
	s.mu.Unlock()
	return nil
}
