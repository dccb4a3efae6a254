package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// SessionState is the lifecycle of one engine session.
type SessionState int32

const (
	StateIdle SessionState = iota
	StateStarting
	StateStreaming
	StateStopped
	StateErrored
)

func (s SessionState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStarting:
		return "starting"
	case StateStreaming:
		return "streaming"
	case StateStopped:
		return "stopped"
	case StateErrored:
		return "errored"
	}
	return "unknown"
}

// Session is one engine analyzing one captured position. The generation
// is fixed at start; the session keeps emitting under it even after the
// tab moves on, and the consumer's generation check does the discarding.
type Session struct {
	ID       uuid.UUID
	TabID    string
	EngineID string

	generation uint64
	fen        string
	line       []string
	depth      int
	multiPV    int

	state atomic.Int32
	log   *slog.Logger
	sink  func(EngineResult)
	done  chan struct{}

	// release frees the orchestrator's session slot. It runs before done
	// closes, so a waiter on Done() can re-acquire the slot immediately.
	release func()

	procMu sync.Mutex
	proc   Proc
}

func newSession(tabID, engineID string, generation uint64, fen string, line []string, depth, multiPV int, log *slog.Logger, sink func(EngineResult)) *Session {
	s := &Session{
		ID:         uuid.New(),
		TabID:      tabID,
		EngineID:   engineID,
		generation: generation,
		fen:        fen,
		line:       line,
		depth:      depth,
		multiPV:    multiPV,
		log:        log.With("tab", tabID, "engine", engineID, "generation", generation),
		sink:       sink,
		done:       make(chan struct{}),
	}
	s.state.Store(int32(StateIdle))
	return s
}

// State returns the current lifecycle state.
func (s *Session) State() SessionState {
	return SessionState(s.state.Load())
}

// Generation returns the generation captured at start.
func (s *Session) Generation() uint64 { return s.generation }

// Done closes when the session's stream has terminated.
func (s *Session) Done() <-chan struct{} { return s.done }

// run drives the whole session: handshake commands, then the read loop.
// It blocks until the stream terminates and must run on its own
// goroutine. Every state transition is a CAS from the expected previous
// state, so a Stop that lands first (even before run is scheduled)
// stays latched and the engine is never launched against it.
func (s *Session) run(ctx context.Context, factory ProcFactory) {
	defer close(s.done)
	if s.release != nil {
		defer s.release()
	}

	if !s.state.CompareAndSwap(int32(StateIdle), int32(StateStarting)) {
		return
	}

	proc, err := factory()
	if err != nil {
		s.state.CompareAndSwap(int32(StateStarting), int32(StateErrored))
		s.log.Error("engine start failed", "error", err)
		return
	}
	s.setProc(proc)
	defer proc.Close()

	// Unblock the reader when the context goes away.
	stop := context.AfterFunc(ctx, func() {
		proc.Send("stop")
		proc.Close()
	})
	defer stop()

	if err := s.configure(proc); err != nil {
		s.state.CompareAndSwap(int32(StateStarting), int32(StateErrored))
		s.log.Error("engine configure failed", "error", err)
		return
	}
	if !s.state.CompareAndSwap(int32(StateStarting), int32(StateStreaming)) {
		// Stopped while the engine was coming up.
		proc.Send("stop")
		return
	}
	s.readLoop(proc)
}

func (s *Session) setProc(p Proc) {
	s.procMu.Lock()
	s.proc = p
	s.procMu.Unlock()
}

func (s *Session) sendStop() {
	s.procMu.Lock()
	p := s.proc
	s.procMu.Unlock()
	if p != nil {
		p.Send("stop")
	}
}

func (s *Session) configure(proc Proc) error {
	if s.multiPV > 1 {
		if err := proc.Send(fmt.Sprintf("setoption name MultiPV value %d", s.multiPV)); err != nil {
			return err
		}
	}
	if err := proc.Send("position fen " + s.fen); err != nil {
		return err
	}
	goCmd := "go infinite"
	if s.depth > 0 {
		goCmd = fmt.Sprintf("go depth %d", s.depth)
	}
	return proc.Send(goCmd)
}

func (s *Session) readLoop(proc Proc) {
	pvs := map[int]PV{}
	maxDepth := 0

	for {
		line, err := proc.ReadLine()
		if err != nil {
			if s.state.CompareAndSwap(int32(StateStreaming), int32(StateErrored)) {
				s.log.Warn("engine stream broke", "error", err)
			}
			return
		}
		if IsBestMove(line) {
			s.emit(pvs, maxDepth, true)
			s.state.CompareAndSwap(int32(StateStreaming), int32(StateStopped))
			return
		}
		info, ok := ParseInfo(line)
		if !ok {
			continue
		}
		// Progress is non-decreasing even when the engine revisits
		// shallower lines.
		if info.Depth > maxDepth {
			maxDepth = info.Depth
		}
		pvs[info.Rank] = PV{Rank: info.Rank, Score: info.Score, Moves: info.Moves}
		s.emit(pvs, maxDepth, false)
	}
}

func (s *Session) emit(pvs map[int]PV, depth int, finished bool) {
	ranked := make([]PV, 0, len(pvs))
	for _, pv := range pvs {
		ranked = append(ranked, pv)
	}
	sort.Slice(ranked, func(i, j int) bool { return ranked[i].Rank < ranked[j].Rank })

	s.sink(EngineResult{
		Tab:        s.TabID,
		Engine:     s.EngineID,
		Generation: s.generation,
		FEN:        s.fen,
		Line:       s.line,
		PVs:        ranked,
		Depth:      depth,
		Finished:   finished,
	})
}

// Stop asks the engine to wind down. In-flight lines may still arrive
// and are handled (and later discarded) like any others. Stopping
// before run is scheduled latches the stopped state so run bails out.
func (s *Session) Stop() {
	for {
		state := s.State()
		if state == StateStopped || state == StateErrored {
			return
		}
		if s.state.CompareAndSwap(int32(state), int32(StateStopped)) {
			break
		}
	}
	s.sendStop()
}
