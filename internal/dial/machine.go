// Package dial turns lunar phases into rotation angles for the two-sided moon dial.
//
// The dial advances at most once per calendar day. Inside a phase it crawls
// forward toward the next phase's start angle without ever reaching it; on a
// phase change it snaps to the new phase's start angle. Each full cycle the
// dial turns over from one artwork side to the other.
package dial

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"git.home.luguber.info/inful/moondial/internal/logfields"
	"git.home.luguber.info/inful/moondial/internal/lunar"
	"git.home.luguber.info/inful/moondial/internal/metrics"
)

// Machine owns the dial state. All mutation goes through OnTick.
type Machine struct {
	mu       sync.Mutex
	state    State
	gateway  Gateway
	sink     Sink
	recorder metrics.Recorder
	logger   *slog.Logger
}

// Option configures a Machine.
type Option func(*Machine)

// WithSink sets where readings are emitted.
func WithSink(s Sink) Option {
	return func(m *Machine) {
		if s != nil {
			m.sink = s
		}
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(m *Machine) {
		if r != nil {
			m.recorder = r
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Machine) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithState starts the machine from s instead of InitialState.
func WithState(s State) Option {
	return func(m *Machine) { m.state = s }
}

// NewMachine creates a dial state machine backed by gw.
func NewMachine(gw Gateway, opts ...Option) *Machine {
	if gw == nil {
		gw = nopGateway{}
	}
	m := &Machine{
		state:    InitialState(),
		gateway:  gw,
		sink:     discardSink{},
		recorder: metrics.NoopRecorder{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Snapshot returns a copy of the current state.
func (m *Machine) Snapshot() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// OnTick processes one clock tick. Ticks on an already-updated day re-emit the
// cached angle; the first tick of a new day recomputes, persists and emits it.
// The reading is emitted after the state lock is released.
func (m *Machine) OnTick(ctx context.Context, now time.Time) Reading {
	r := m.update(ctx, now)
	m.sink.Emit(ctx, r)
	return r
}

func (m *Machine) update(ctx context.Context, now time.Time) Reading {
	m.mu.Lock()
	defer m.mu.Unlock()

	today := DayOf(now)
	if m.state.LastUpdate == today {
		m.recorder.IncUpdate(metrics.UpdateCached)
		return m.reading(now)
	}

	newPhase := lunar.Classify(now)
	side := m.state.Side
	flipped := m.state.Phase == lunar.WaningCrescent && newPhase == lunar.NewMoon
	if flipped {
		side = side.Opposite()
	}

	entry, _ := Lookup(side, newPhase)
	var angle int
	if m.state.HasAngle && m.state.Phase == newPhase {
		angle = entry.Advance(m.state.Angle)
		m.recorder.IncUpdate(metrics.UpdateAdvanced)
	} else {
		angle = entry.Start
		m.recorder.IncUpdate(metrics.UpdateReset)
	}

	// A start angle on a day that does not begin a phase usually means the
	// process restarted and lost its position.
	recovered := false
	if IsPhaseStart(angle) && !lunar.IsPhaseStartDay(now) {
		if stored, ok := m.recover(ctx, angle); ok {
			angle = stored
			recovered = true
		}
	}

	m.state = State{
		Angle:      angle,
		HasAngle:   true,
		Side:       side,
		Phase:      newPhase,
		LastUpdate: today,
	}

	if err := m.gateway.Save(ctx, angle); err != nil {
		m.recorder.IncPersistError(metrics.OpSave)
		m.logger.WarnContext(ctx, "Failed to persist dial angle",
			logfields.Angle(angle),
			logfields.Error(err))
	}

	if flipped {
		m.recorder.IncSideFlip()
	}
	m.recorder.ObserveDial(side.String(), newPhase.String(), angle)

	r := m.reading(now)
	r.Fresh = true
	r.Flipped = flipped
	r.Recovered = recovered

	m.logger.InfoContext(ctx, "Dial updated",
		logfields.Day(today.String()),
		logfields.Phase(newPhase.String()),
		logfields.Side(side.String()),
		logfields.Angle(angle),
		slog.Bool("flipped", flipped),
		slog.Bool("recovered", recovered))

	return r
}

// recover reads the persisted angle. computed is only used for logging.
func (m *Machine) recover(ctx context.Context, computed int) (int, bool) {
	stored, ok, err := m.gateway.Load(ctx)
	switch {
	case err != nil:
		m.recorder.IncPersistError(metrics.OpLoad)
		m.recorder.IncRecovery(metrics.RecoveryError)
		m.logger.WarnContext(ctx, "Failed to read persisted dial angle", logfields.Error(err))
		return 0, false
	case !ok:
		m.recorder.IncRecovery(metrics.RecoveryNoData)
		m.logger.DebugContext(ctx, "No persisted dial angle to recover", logfields.Angle(computed))
		return 0, false
	case stored < 0 || stored >= FullTurn:
		m.recorder.IncRecovery(metrics.RecoveryRejected)
		m.logger.WarnContext(ctx, "Ignoring out of range persisted dial angle", logfields.Angle(stored))
		return 0, false
	}

	m.recorder.IncRecovery(metrics.RecoveryRestored)
	m.logger.InfoContext(ctx, "Recovered dial angle after restart",
		slog.Int("computed", computed),
		logfields.Angle(stored))
	return stored, true
}

func (m *Machine) reading(now time.Time) Reading {
	current := lunar.Classify(now)
	return Reading{
		Angle: m.state.Angle,
		Side:  m.state.Side,
		Phase: m.state.Phase,
		Label: lunar.ShortLabel(now),
		Icon:  current.Icon(),
		Day:   m.state.LastUpdate.String(),
		At:    now,
	}
}

type nopGateway struct{}

func (nopGateway) Load(context.Context) (int, bool, error) { return 0, false, nil }
func (nopGateway) Save(context.Context, int) error         { return nil }
