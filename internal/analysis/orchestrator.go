package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/studychess/studychess/internal/gametree"
	"github.com/studychess/studychess/internal/pgn"
)

var (
	// ErrUnknownTab marks an operation against a closed or never-opened tab.
	ErrUnknownTab = errors.New("unknown tab")
	// ErrUnknownEngine marks a request for an unconfigured engine.
	ErrUnknownEngine = errors.New("unknown engine")
	// ErrEngineBusy marks the session capacity being exhausted.
	ErrEngineBusy = errors.New("engine capacity exhausted")
	// ErrNoPuzzle marks puzzle input without an active puzzle.
	ErrNoPuzzle = errors.New("no active puzzle")
)

// Options tunes the orchestrator.
type Options struct {
	Depth       int   // search depth per session; 0 means infinite
	MultiPV     int   // principal variations per engine
	MaxSessions int64 // engine processes across all tabs
	EventBuffer int
}

// Orchestrator manages tabs, their engine sessions, and background
// tasks. Results flow out exclusively through Events; anything stale is
// dropped at this boundary before the rest of the system sees it.
type Orchestrator struct {
	opts      Options
	factories map[string]ProcFactory
	log       *slog.Logger

	sem    *semaphore.Weighted
	events chan Event

	mu    sync.Mutex
	tabs  map[string]*Tab
	tasks map[string]context.CancelFunc

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates an orchestrator with the configured engine factories,
// keyed by engine id.
func New(opts Options, factories map[string]ProcFactory, log *slog.Logger) *Orchestrator {
	if opts.MaxSessions <= 0 {
		opts.MaxSessions = 4
	}
	if opts.MultiPV <= 0 {
		opts.MultiPV = 1
	}
	if opts.EventBuffer <= 0 {
		opts.EventBuffer = 256
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Orchestrator{
		opts:      opts,
		factories: factories,
		log:       log,
		sem:       semaphore.NewWeighted(opts.MaxSessions),
		events:    make(chan Event, opts.EventBuffer),
		tabs:      map[string]*Tab{},
		tasks:     map[string]context.CancelFunc{},
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Events is the outward stream of bestMovesUpdate / taskProgress
// envelopes. It closes when the orchestrator shuts down.
func (o *Orchestrator) Events() <-chan Event { return o.events }

// Engines lists the configured engine ids.
func (o *Orchestrator) Engines() []string {
	ids := make([]string, 0, len(o.factories))
	for id := range o.factories {
		ids = append(ids, id)
	}
	return ids
}

// OpenTab registers a parsed game under a fresh tab id.
func (o *Orchestrator) OpenTab(tree *gametree.Tree, headers *pgn.Headers) *Tab {
	tab := NewTab(uuid.NewString(), tree, headers)
	o.mu.Lock()
	o.tabs[tab.ID] = tab
	o.mu.Unlock()
	return tab
}

// Tab looks up an open tab.
func (o *Orchestrator) Tab(id string) (*Tab, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	tab, ok := o.tabs[id]
	return tab, ok
}

// CloseTab stops the tab's sessions and forgets it.
func (o *Orchestrator) CloseTab(id string) {
	o.mu.Lock()
	tab, ok := o.tabs[id]
	delete(o.tabs, id)
	o.mu.Unlock()
	if !ok {
		return
	}
	for _, s := range tab.allSessions() {
		s.Stop()
	}
}

// StartAnalysis opens an engine session at the tab's current position,
// capturing the generation active now. Restarting an engine that is
// already running replaces its session.
func (o *Orchestrator) StartAnalysis(tabID, engineID string) (uuid.UUID, error) {
	tab, ok := o.Tab(tabID)
	if !ok {
		return uuid.Nil, fmt.Errorf("%w: %s", ErrUnknownTab, tabID)
	}
	factory, ok := o.factories[engineID]
	if !ok {
		return uuid.Nil, fmt.Errorf("%w: %s", ErrUnknownEngine, engineID)
	}

	// Replacing an engine frees its slot before the new session bids for
	// capacity. A replaced running engine also invalidates the tab's
	// generation first, so its wind-down emit and any peer streams go
	// stale; the peers then restart under the new generation.
	if s := tab.takeSession(engineID); s != nil {
		wasRunning := sessionRunning(s)
		if wasRunning {
			tab.Invalidate()
		}
		s.Stop()
		<-s.Done()
		if wasRunning {
			o.restart(tabID, tab.runningEngines())
		}
	}

	if !o.sem.TryAcquire(1) {
		return uuid.Nil, ErrEngineBusy
	}

	fen, line, _ := tab.Current()
	session := newSession(tabID, engineID, tab.Generation(), fen, line,
		o.opts.Depth, o.opts.MultiPV, o.log, o.deliver)
	session.release = func() { o.sem.Release(1) }

	tab.setSession(engineID, session)

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		session.run(o.ctx, factory)
	}()
	return session.ID, nil
}

// StopAnalysis winds down the tab's session for one engine. The stop is
// cooperative: lines already in flight still arrive and fall to the
// generation check.
func (o *Orchestrator) StopAnalysis(tabID, engineID string) error {
	tab, ok := o.Tab(tabID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTab, tabID)
	}
	if s := tab.takeSession(engineID); s != nil {
		s.Stop()
	}
	return nil
}

// Navigate moves a tab's current position and restarts its running
// engines there under the new generation.
func (o *Orchestrator) Navigate(tabID string, p gametree.Path) error {
	tab, ok := o.Tab(tabID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTab, tabID)
	}
	running := tab.runningEngines()
	if err := tab.Navigate(p); err != nil {
		return err
	}
	o.restart(tabID, running)
	return nil
}

// PlayMove plays a move at the given location, follows it, and restarts
// running engines at the new position.
func (o *Orchestrator) PlayMove(tabID string, p gametree.Path, move string) (gametree.Path, error) {
	tab, ok := o.Tab(tabID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTab, tabID)
	}
	running := tab.runningEngines()
	next, err := tab.AddMove(p, move)
	if err != nil {
		return nil, err
	}
	o.restart(tabID, running)
	return next, nil
}

func sessionRunning(s *Session) bool {
	st := s.State()
	return st != StateStopped && st != StateErrored
}

func (o *Orchestrator) restart(tabID string, engines []string) {
	tab, ok := o.Tab(tabID)
	if !ok {
		return
	}
	for _, engineID := range engines {
		// Wait for the old session's slot to come back, or the restart
		// loses the race for its own capacity.
		if s := tab.takeSession(engineID); s != nil {
			s.Stop()
			<-s.Done()
		}
		if _, err := o.StartAnalysis(tabID, engineID); err != nil {
			o.log.Warn("engine restart failed", "tab", tabID, "engine", engineID, "error", err)
		}
	}
}

// deliver is the consumer boundary for engine streams: results whose
// generation no longer matches their tab are dropped here, silently.
func (o *Orchestrator) deliver(r EngineResult) {
	tab, ok := o.Tab(r.Tab)
	if !ok || !tab.Accept(r) {
		o.log.Debug("stale result dropped",
			"tab", r.Tab, "engine", r.Engine, "generation", r.Generation)
		return
	}
	o.emit(Event{BestMoves: &r})
}

func (o *Orchestrator) emit(e Event) {
	select {
	case o.events <- e:
	case <-o.ctx.Done():
	default:
		o.log.Warn("event buffer full, dropping")
	}
}

// Close stops every session and task and closes the event stream.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	for _, tab := range o.tabs {
		for _, s := range tab.allSessions() {
			s.Stop()
		}
	}
	for _, cancel := range o.tasks {
		cancel()
	}
	o.mu.Unlock()

	o.cancel()
	o.wg.Wait()
	close(o.events)
}
