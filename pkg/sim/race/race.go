// Package race ties the simulation together: it owns the game state, applies
// external inputs and advances all controllers in a fixed order per tick.
package race

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/mpapenbr/quizrace/log"
	"github.com/mpapenbr/quizrace/pkg/model"
	"github.com/mpapenbr/quizrace/pkg/processing"
	raceproc "github.com/mpapenbr/quizrace/pkg/processing/race"
	"github.com/mpapenbr/quizrace/pkg/sim/bot"
	"github.com/mpapenbr/quizrace/pkg/sim/dynamics"
	"github.com/mpapenbr/quizrace/pkg/sim/lane"
	"github.com/mpapenbr/quizrace/pkg/sim/slip"
	"github.com/mpapenbr/quizrace/pkg/sim/track"
)

type (
	// Listener receives the snapshot and the events of each tick.
	// It is called on the simulation goroutine and must not block.
	Listener interface {
		OnTick(snap *model.Snapshot, events []model.RaceEvent)
	}
	ListenerFunc func(snap *model.Snapshot, events []model.RaceEvent)

	inputKind int
	input     struct {
		kind  inputKind
		index int
		dir   int
	}

	Race struct {
		id        string
		cfg       *model.RaceConfig
		state     *GameState
		cars      *dynamics.CarController
		lanes     *lane.LaneController
		bots      *bot.BotController
		slip      *slip.Effect
		proc      *processing.Processor
		listeners []Listener
		log       *log.Logger

		clock   float64
		tick    int64
		started bool

		mu      sync.Mutex
		pending []input

		snapshot atomic.Pointer[model.Snapshot]
		metrics  *raceMetrics
	}
	RaceOption func(*Race)

	raceMetrics struct {
		steps        metric.Int64Counter
		events       metric.Int64Counter
		tickDuration metric.Float64Histogram
	}
)

const (
	inputCorrect inputKind = iota
	inputIncorrect
	inputLaneChange
)

func (f ListenerFunc) OnTick(snap *model.Snapshot, events []model.RaceEvent) {
	f(snap, events)
}

func WithRaceID(id string) RaceOption {
	return func(r *Race) {
		r.id = id
	}
}

func WithListener(l Listener) RaceOption {
	return func(r *Race) {
		r.listeners = append(r.listeners, l)
	}
}

func WithLogger(l *log.Logger) RaceOption {
	return func(r *Race) {
		r.log = l
	}
}

// NewRace creates a race on the given track. The random source seeded from the
// config drives bot creation and bot decisions, so equal configs give equal races.
//
//nolint:funlen // by design
func NewRace(cfg *model.RaceConfig, tr *track.Track, opts ...RaceOption) (*Race, error) {
	ret := &Race{
		cfg: cfg,
		log: log.Default().Named("sim.race"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	if ret.id == "" {
		ret.id = uuid.NewString()
	}
	rng := newRand(cfg.Seed)
	state, err := NewGameState(cfg, tr, rng)
	if err != nil {
		return nil, err
	}
	ret.state = state
	ret.cars = dynamics.NewCarController(cfg.Physics)
	ret.lanes = lane.NewLaneController(tr, lane.WithChangeDuration(cfg.LaneChangeDuration))
	ret.bots = bot.NewBotController(tr, ret.lanes, ret.cars,
		bot.WithRand(rng),
		bot.WithCorrectReward(cfg.CorrectReward),
		bot.WithPenaltyFactor(cfg.PenaltyFactor),
	)
	ret.slip = slip.NewEffect(cfg.Physics)
	ret.proc = processing.NewProcessor(
		processing.WithRace(ret.id, cfg.Laps, tr.Length(), raceproc.FinishOnPlayer))
	ret.metrics = newRaceMetrics(ret.log)
	ret.snapshot.Store(ret.buildSnapshot())
	ret.log.Info("race created",
		log.String("raceId", ret.id),
		log.String("track", tr.Name()),
		log.Int("vehicles", state.Len()),
		log.Int("laps", cfg.Laps))
	return ret, nil
}

func newRaceMetrics(l *log.Logger) *raceMetrics {
	meter := otel.GetMeterProvider().Meter("quizrace.race")
	ret := &raceMetrics{}
	var err error
	if ret.steps, err = meter.Int64Counter("quizrace.race.steps",
		metric.WithDescription("Number of simulation steps"),
		metric.WithUnit("{step}")); err != nil {
		l.Warn("could not create metric", log.ErrorField(err))
	}
	if ret.events, err = meter.Int64Counter("quizrace.race.events",
		metric.WithDescription("Number of race events"),
		metric.WithUnit("{event}")); err != nil {
		l.Warn("could not create metric", log.ErrorField(err))
	}
	if ret.tickDuration, err = meter.Float64Histogram("quizrace.race.tick.duration",
		metric.WithDescription("Wall clock duration of a simulation step"),
		metric.WithUnit("ms")); err != nil {
		l.Warn("could not create metric", log.ErrorField(err))
	}
	return ret
}

func (r *Race) ID() string                    { return r.id }
func (r *Race) Config() *model.RaceConfig     { return r.cfg }
func (r *Race) State() *GameState             { return r.state }
func (r *Race) Bots() *bot.BotController      { return r.bots }
func (r *Race) Lanes() *lane.LaneController   { return r.lanes }
func (r *Race) Cars() *dynamics.CarController { return r.cars }
func (r *Race) Dt() float64                   { return r.cfg.Dt }

// AddListener registers l for all following ticks. Call it before the race is started.
func (r *Race) AddListener(l Listener) {
	r.listeners = append(r.listeners, l)
}

// Clock returns the simulation time in seconds
func (r *Race) Clock() float64 { return r.clock }

func (r *Race) Tick() int64 { return r.tick }

func (r *Race) Finished() bool { return r.proc.Finished() }

// Summary returns laps, standings and lane statistics of the race so far
func (r *Race) Summary() *model.RaceSummary { return r.proc.GetData() }

// Snapshot returns the state after the latest tick. It is safe for concurrent use.
func (r *Race) Snapshot() *model.Snapshot { return r.snapshot.Load() }

// SetAlpha publishes the interpolation fraction between the latest and the next step
func (r *Race) SetAlpha(alpha float64) {
	cur := r.snapshot.Load()
	if cur == nil {
		return
	}
	next := *cur
	next.Alpha = alpha
	r.snapshot.Store(&next)
}

// OnCorrectAnswer queues a reward for the vehicle. It is applied at the start of the next tick.
func (r *Race) OnCorrectAnswer(vehicleIndex int) {
	r.push(input{kind: inputCorrect, index: vehicleIndex})
}

// OnIncorrectAnswer queues a slowdown penalty for the vehicle.
// It is applied at the start of the next tick.
func (r *Race) OnIncorrectAnswer(vehicleIndex int) {
	r.push(input{kind: inputIncorrect, index: vehicleIndex})
}

// RequestLaneChange queues a lane change of the player, dir is -1 or +1
func (r *Race) RequestLaneChange(dir int) {
	r.push(input{kind: inputLaneChange, index: r.state.PlayerIndex(), dir: dir})
}

func (r *Race) push(in input) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending = append(r.pending, in)
}

func (r *Race) drain() []input {
	r.mu.Lock()
	defer r.mu.Unlock()
	ret := r.pending
	r.pending = nil
	return ret
}

// Start publishes the initial state. It is called by the first Step if needed.
func (r *Race) Start() {
	if r.started {
		return
	}
	r.started = true
	snap := r.buildSnapshot()
	events := r.proc.ProcessSnapshot(snap)
	r.publish(snap, events)
}

// Step advances the race by one fixed timestep.
func (r *Race) Step() {
	r.Start()
	if r.Finished() {
		return
	}
	start := time.Now()
	vehicles := r.state.Vehicles()
	tr := r.state.Track()

	events := r.applyInputs(r.drain())

	r.cars.Step(vehicles, tr, r.cfg.Dt)
	r.clock += r.cfg.Dt
	r.tick++
	r.lanes.UpdateAll(vehicles, r.clock)
	for _, o := range r.bots.Step(vehicles, r.clock) {
		events = append(events, r.botEvents(o)...)
	}
	r.slip.UpdateAll(vehicles, tr, r.clock, r.cfg.Dt)

	snap := r.buildSnapshot()
	events = append(events, r.proc.ProcessSnapshot(snap)...)
	snap.Finished = r.proc.Finished()
	r.publish(snap, events)

	ctx := context.Background()
	r.metrics.steps.Add(ctx, 1)
	r.metrics.tickDuration.Record(ctx, float64(time.Since(start).Microseconds())/1000)
}

func (r *Race) applyInputs(inputs []input) []model.RaceEvent {
	var events []model.RaceEvent
	vehicles := r.state.Vehicles()
	for _, in := range inputs {
		switch in.kind {
		case inputCorrect:
			res := r.cars.QueueRewardByIndex(vehicles, in.index, r.cfg.CorrectReward)
			events = r.answerEvent(events, in.index, true, res)
		case inputIncorrect:
			res := r.cars.ApplySlowdownPenaltyByIndex(vehicles, in.index, r.cfg.PenaltyFactor)
			events = r.answerEvent(events, in.index, false, res)
		case inputLaneChange:
			v := vehicles[in.index]
			res := r.lanes.SwitchLane(v, in.dir, r.clock)
			if res != lane.Started {
				r.log.Debug("lane change request rejected",
					log.String("vehicle", v.ID), log.Stringer("result", res))
				continue
			}
			e := r.newEvent(model.ETLaneChange)
			e.VehicleID = v.ID
			e.Direction = in.dir
			events = append(events, e)
		}
	}
	return events
}

//nolint:whitespace // editor/linter issue
func (r *Race) answerEvent(
	events []model.RaceEvent, idx int, correct bool, res dynamics.Result,
) []model.RaceEvent {
	if res != dynamics.Applied {
		r.log.Debug("answer ignored", log.Int("index", idx), log.Stringer("result", res))
		return events
	}
	e := r.newEvent(model.ETAnswer)
	e.VehicleID = r.state.Vehicles()[idx].ID
	e.Correct = correct
	return append(events, e)
}

func (r *Race) botEvents(o bot.Outcome) []model.RaceEvent {
	var ret []model.RaceEvent
	if o.Answered {
		e := r.newEvent(model.ETAnswer)
		e.VehicleID = o.VehicleID
		e.Correct = o.Correct
		ret = append(ret, e)
	}
	if o.Dir != 0 {
		e := r.newEvent(model.ETLaneChange)
		e.VehicleID = o.VehicleID
		e.Direction = o.Dir
		ret = append(ret, e)
	}
	return ret
}

func (r *Race) newEvent(t model.EventType) model.RaceEvent {
	return model.RaceEvent{Type: t, RaceID: r.id, SimTime: r.clock}
}

func (r *Race) publish(snap *model.Snapshot, events []model.RaceEvent) {
	r.snapshot.Store(snap)
	ctx := context.Background()
	for i := range events {
		r.metrics.events.Add(ctx, 1,
			metric.WithAttributes(attribute.String("type", events[i].Type.String())))
		r.logEvent(&events[i])
	}
	for _, l := range r.listeners {
		l.OnTick(snap, events)
	}
}

func (r *Race) logEvent(e *model.RaceEvent) {
	switch e.Type {
	case model.ETLapCompleted:
		r.log.Info("lap completed",
			log.String("vehicle", e.VehicleID),
			log.Int("lap", e.Lap),
			log.Float64("lapTime", e.LapTime))
	case model.ETRaceStarted, model.ETRaceFinished:
		r.log.Info(e.Type.String(), log.Float64("simTime", e.SimTime))
	case model.ETAnswer, model.ETLaneChange, model.ETEmpty:
		r.log.Debug(e.Type.String(),
			log.String("vehicle", e.VehicleID),
			log.Bool("correct", e.Correct),
			log.Int("dir", e.Direction))
	}
}

func (r *Race) buildSnapshot() *model.Snapshot {
	tr := r.state.Track()
	vehicles := r.state.Vehicles()
	ret := &model.Snapshot{
		RaceID:   r.id,
		Tick:     r.tick,
		SimTime:  r.clock,
		Vehicles: make([]model.VehicleSnapshot, len(vehicles)),
	}
	for i, v := range vehicles {
		pos := tr.LanePosAt(v.S, v.Lateral+v.Slip.Offset)
		target := -1
		if t, ok := v.TargetLane.Get(); ok {
			target = t
		}
		ret.Vehicles[i] = model.VehicleSnapshot{
			ID:         v.ID,
			Name:       v.Name,
			Kind:       v.Kind.String(),
			S:          v.S,
			V:          v.V,
			Lane:       v.Lane,
			TargetLane: target,
			Lateral:    v.Lateral,
			X:          pos.X,
			Y:          pos.Y,
			Heading:    tr.HeadingAt(v.S),
			SlipFactor: v.Slip.Factor,
			SlipWobble: v.Slip.Wobble,
			Laps:       v.Laps,
		}
	}
	return ret
}
