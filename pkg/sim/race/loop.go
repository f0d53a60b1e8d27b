package race

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/mpapenbr/quizrace/log"
)

const (
	DefaultMaxFrameDelta = 250 * time.Millisecond
	DefaultFrameInterval = time.Second / 60
)

type (
	// Stepper is advanced by the loop in fixed increments of Dt
	Stepper interface {
		Step()
		Finished() bool
		Clock() float64
		Dt() float64
		SetAlpha(alpha float64)
	}

	// Loop decouples the wall clock frame rate from the fixed simulation step.
	// Frame durations are clamped so a stalled frame cannot trigger a burst of steps.
	Loop struct {
		stepper  Stepper
		dt       float64
		acc      float64
		maxFrame time.Duration
		interval time.Duration
		maxTime  float64
		log      *log.Logger
	}
	LoopOption func(*Loop)
)

func WithMaxFrameDelta(d time.Duration) LoopOption {
	return func(l *Loop) {
		if d > 0 {
			l.maxFrame = d
		}
	}
}

// WithFrameInterval sets the wall clock interval between frames in Run
func WithFrameInterval(d time.Duration) LoopOption {
	return func(l *Loop) {
		if d > 0 {
			l.interval = d
		}
	}
}

// WithMaxTime stops the loop once the simulation clock reaches t seconds. 0 means no limit.
func WithMaxTime(t float64) LoopOption {
	return func(l *Loop) {
		l.maxTime = t
	}
}

func WithLoopLogger(logger *log.Logger) LoopOption {
	return func(l *Loop) {
		l.log = logger
	}
}

func NewLoop(s Stepper, opts ...LoopOption) *Loop {
	ret := &Loop{
		stepper:  s,
		dt:       s.Dt(),
		maxFrame: DefaultMaxFrameDelta,
		interval: DefaultFrameInterval,
		log:      log.Default().Named("sim.loop"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

// Advance feeds the elapsed frame time into the accumulator and runs as many
// fixed steps as fit. It returns the number of steps and the interpolation
// fraction of the remainder.
func (l *Loop) Advance(frame time.Duration) (steps int, alpha float64) {
	if frame < 0 {
		frame = 0
	}
	if frame > l.maxFrame {
		l.log.Debug("frame clamped",
			log.Duration("frame", frame), log.Duration("max", l.maxFrame))
		frame = l.maxFrame
	}
	l.acc += frame.Seconds()
	for l.acc >= l.dt && !l.done() {
		l.stepper.Step()
		l.acc -= l.dt
		steps++
	}
	if l.done() {
		l.acc = 0
	}
	alpha = l.acc / l.dt
	l.stepper.SetAlpha(alpha)
	return steps, alpha
}

// Run drives the loop from a wall clock ticker until the race is finished,
// the time limit is reached or ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	ctx, span := otel.Tracer("quizrace.sim").Start(ctx, "race.run",
		trace.WithAttributes(attribute.Float64("dt", l.dt)))
	defer span.End()

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()
	last := time.Now()
	total := 0
	for !l.done() {
		select {
		case <-ctx.Done():
			span.SetAttributes(attribute.Int("steps", total))
			return ctx.Err()
		case now := <-ticker.C:
			steps, _ := l.Advance(now.Sub(last))
			total += steps
			last = now
		}
	}
	span.SetAttributes(attribute.Int("steps", total))
	l.log.Info("loop done",
		log.Int("steps", total),
		log.Float64("clock", l.stepper.Clock()),
		log.Bool("finished", l.stepper.Finished()))
	return nil
}

// RunFast steps the simulation as fast as possible, ignoring the wall clock.
func (l *Loop) RunFast(ctx context.Context) (int, error) {
	steps := 0
	for !l.done() {
		if err := ctx.Err(); err != nil {
			return steps, err
		}
		l.stepper.Step()
		steps++
	}
	return steps, nil
}

func (l *Loop) done() bool {
	if l.stepper.Finished() {
		return true
	}
	return l.maxTime > 0 && l.stepper.Clock() >= l.maxTime-l.dt/2
}
