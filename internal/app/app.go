package app

import (
	"context"
	"fmt"
	"log"
	"sync"

	"ovpngen/internal/config"
	"ovpngen/internal/domain"
	"ovpngen/internal/eventbus"
	"ovpngen/internal/filesurface"
	"ovpngen/internal/generate"
	"ovpngen/internal/store"
	"ovpngen/internal/surface"
)

// Option configures an App
type Option func(*App)

// WithGenerator replaces the file generator built from the config
func WithGenerator(g store.Generator) Option {
	return func(a *App) { a.generator = g }
}

// WithContext sets the context handed to the generator
func WithContext(ctx context.Context) Option {
	return func(a *App) { a.ctx = ctx }
}

// App wires the bus, the store and the surfaces together.
//
// Every publish happens on one goroutine. Work coming from other goroutines
// (file watch events) goes through Dispatch, which either feeds RunHeadless
// or, once SetDispatcher is called, the front end's own event loop.
type App struct {
	Config  *config.Config
	Bus     *eventbus.Bus
	Store   *store.Store
	Surface *surface.Surface
	Values  *filesurface.Surface // nil when no values file is configured

	ctx       context.Context
	generator store.Generator
	work      chan func()

	mu         sync.Mutex
	dispatcher func(func())
	reporter   func(error)
}

// New builds the application. The store is registered first, then the surfaces,
// so every surface is on the bus before Seed runs.
func New(cfg *config.Config, opts ...Option) *App {
	a := &App{
		Config: cfg,
		ctx:    context.Background(),
		work:   make(chan func(), 64),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.generator == nil {
		a.generator = generate.NewFileGenerator(cfg.Output.Dir, cfg.Output.Format)
	}

	a.Bus = eventbus.New(eventbus.WithErrorHandler(a.handleError))
	a.Store = store.New(a.Bus, store.WithGenerator(a.generator), store.WithContext(a.ctx))
	a.Surface = surface.New(surface.DefaultIdentity, a.Bus, domain.Fields)

	a.Bus.Register(a.Store)
	a.Bus.Register(a.Surface)
	if cfg.Values.File != "" {
		a.Values = filesurface.New(cfg.Values.File, a.Bus, filesurface.WithDispatch(a.Dispatch))
		a.Bus.Register(a.Values)
	}
	return a
}

// Seed publishes the initial values so every registered surface converges
func (a *App) Seed() {
	a.Store.Seed(a.Config.Seeds())
}

// Start begins watching the values file, if any
func (a *App) Start(ctx context.Context) error {
	if a.Values == nil {
		return nil
	}
	if err := a.Values.Start(ctx); err != nil {
		return fmt.Errorf("values file: %w", err)
	}
	return nil
}

// Close stops background watchers
func (a *App) Close() error {
	if a.Values == nil {
		return nil
	}
	return a.Values.Close()
}

// SetDispatcher routes dispatched work to another event loop
func (a *App) SetDispatcher(fn func(func())) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.dispatcher = fn
}

// SetErrorReporter is told about every participant failure, after it is logged
func (a *App) SetErrorReporter(fn func(error)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.reporter = fn
}

// Dispatch schedules fn on the goroutine that owns the bus
func (a *App) Dispatch(fn func()) {
	a.mu.Lock()
	dispatcher := a.dispatcher
	a.mu.Unlock()

	if dispatcher != nil {
		dispatcher(fn)
		return
	}
	a.work <- fn
}

// RunHeadless runs dispatched work until ctx is done
func (a *App) RunHeadless(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case fn := <-a.work:
			fn()
		}
	}
}

// Generate publishes the generate command from the form surface
func (a *App) Generate() {
	a.Surface.Commit()
}

// ArtifactPath returns the file Generate writes, or "" for a custom generator
func (a *App) ArtifactPath() string {
	if g, ok := a.generator.(*generate.FileGenerator); ok {
		return g.DefaultPath()
	}
	return ""
}

func (a *App) handleError(p eventbus.Participant, event domain.Event, err error) {
	log.Printf("EventBus: %s failed handling %s: %v", p.Identity(), event, err)

	a.mu.Lock()
	reporter := a.reporter
	a.mu.Unlock()
	if reporter != nil {
		reporter(fmt.Errorf("%s: %w", p.Identity(), err))
	}
}
