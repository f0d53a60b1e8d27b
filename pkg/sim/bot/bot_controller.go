// Package bot contains the per tick decisions of bot vehicles.
//
// Each tick a bot may answer a pending question, which queues a reward or
// applies a slowdown, and may change lanes when an adjacent lane is
// sufficiently safer than its current one.
package bot

import (
	"math"
	"math/rand"

	"github.com/mpapenbr/quizrace/log"
	"github.com/mpapenbr/quizrace/pkg/model"
	"github.com/mpapenbr/quizrace/pkg/sim/dynamics"
	"github.com/mpapenbr/quizrace/pkg/sim/lane"
)

const (
	DefaultCorrectReward = 150.0
	DefaultPenaltyFactor = 0.8
	// required relative improvement before a lane change is committed
	DefaultHysteresis = 1.1
)

type (
	Geometry interface {
		Length() float64
		NumLanes() int
	}

	// LaneOption is the evaluation of an adjacent lane
	LaneOption struct {
		Lane   int
		Safety float64
		Safe   bool
	}

	// Decision is the result of a lane change evaluation
	Decision struct {
		VehicleID string
		Time      float64
		Ahead     float64
		Behind    float64
		Current   float64
		Options   []LaneOption
		Dir       int
	}

	// Outcome records what a bot did during a tick
	Outcome struct {
		Index     int
		VehicleID string
		Answered  bool
		Correct   bool
		Dir       int
	}

	BotController struct {
		geo           Geometry
		lanes         *lane.LaneController
		cars          *dynamics.CarController
		rng           model.RandSource
		correctReward float64
		penaltyFactor float64
		hysteresis    float64
		decisions     map[string]Decision
		log           *log.Logger
	}
	BotControllerOption func(*BotController)
)

func WithRand(rng model.RandSource) BotControllerOption {
	return func(bc *BotController) {
		bc.rng = rng
	}
}

func WithCorrectReward(amount float64) BotControllerOption {
	return func(bc *BotController) {
		bc.correctReward = amount
	}
}

func WithPenaltyFactor(factor float64) BotControllerOption {
	return func(bc *BotController) {
		bc.penaltyFactor = factor
	}
}

func WithHysteresis(h float64) BotControllerOption {
	return func(bc *BotController) {
		if h >= 1 {
			bc.hysteresis = h
		}
	}
}

func WithLogger(l *log.Logger) BotControllerOption {
	return func(bc *BotController) {
		bc.log = l
	}
}

//nolint:whitespace // editor/linter issue
func NewBotController(
	geo Geometry,
	lanes *lane.LaneController,
	cars *dynamics.CarController,
	opts ...BotControllerOption,
) *BotController {
	ret := &BotController{
		geo:           geo,
		lanes:         lanes,
		cars:          cars,
		correctReward: DefaultCorrectReward,
		penaltyFactor: DefaultPenaltyFactor,
		hysteresis:    DefaultHysteresis,
		decisions:     make(map[string]Decision),
		log:           log.Default().Named("sim.bot"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	if ret.rng == nil {
		ret.rng = rand.New(rand.NewSource(1))
	}
	return ret
}

// Step runs the decisions of all bots at sim time t. The player is never touched.
// Only outcomes where a bot answered or changed lanes are returned.
func (bc *BotController) Step(vehicles []*model.Vehicle, t float64) []Outcome {
	var ret []Outcome
	for i, v := range vehicles {
		if v == nil || !v.IsBot() {
			continue
		}
		o := Outcome{Index: i, VehicleID: v.ID}
		o.Answered, o.Correct = bc.Answer(v, t)
		o.Dir = bc.ShouldLaneChange(v, vehicles, t)
		if o.Answered || o.Dir != 0 {
			ret = append(ret, o)
		}
	}
	return ret
}

// Answer resolves a question attempt if one is due at t.
func (bc *BotController) Answer(b *model.Vehicle, t float64) (answered, correct bool) {
	if !b.IsBot() || t < b.Bot.NextAnswerTime {
		return false, false
	}
	correct = bc.rng.Float64() < b.Bot.Accuracy
	if correct {
		bc.cars.QueueReward(b, bc.correctReward)
		b.Bot.Correct++
	} else {
		bc.cars.ApplySlowdownPenalty(b, bc.penaltyFactor)
		b.Bot.Incorrect++
	}
	b.Bot.NextAnswerTime = t + b.Bot.SampleAnswerDelay(bc.rng)
	bc.log.Debug("bot answered",
		log.String("vehicle", b.ID),
		log.Bool("correct", correct),
		log.Float64("t", t),
		log.Float64("next", b.Bot.NextAnswerTime))
	return true, correct
}

// PlanLaneChange evaluates the lane change options of b without changing any state.
// Dir is -1 for the lower lane index, +1 for the higher one and 0 to stay.
//
//nolint:whitespace // editor/linter issue
func (bc *BotController) PlanLaneChange(
	b *model.Vehicle, vehicles []*model.Vehicle, t float64,
) Decision {
	ret := Decision{VehicleID: b.ID, Time: t}
	if !b.IsBot() || b.IsChangingLanes() {
		ret.Ahead, ret.Behind, ret.Current = math.Inf(1), math.Inf(1), math.Inf(1)
		return ret
	}
	ret.Ahead, ret.Behind = bc.CurrentSafety(b, vehicles)
	ret.Current = math.Min(ret.Ahead, ret.Behind)

	best, bestLane := ret.Current, -1
	for _, l := range []int{b.Lane - 1, b.Lane + 1} {
		if l < 0 || l >= bc.geo.NumLanes() {
			continue
		}
		safety, safe := bc.LaneSafety(b, l, vehicles)
		ret.Options = append(ret.Options, LaneOption{Lane: l, Safety: safety, Safe: safe})
		if safe && safety > best {
			best, bestLane = safety, l
		}
	}
	if bestLane < 0 || !(best > ret.Current*bc.hysteresis) {
		return ret
	}
	if bestLane < b.Lane {
		ret.Dir = -1
	} else {
		ret.Dir = 1
	}
	return ret
}

// ShouldLaneChange evaluates the options of b and starts the lane change if one
// was chosen. Calling it again right away yields 0 since b is then in transition.
//
//nolint:whitespace // editor/linter issue
func (bc *BotController) ShouldLaneChange(
	b *model.Vehicle, vehicles []*model.Vehicle, t float64,
) int {
	d := bc.PlanLaneChange(b, vehicles, t)
	if d.Dir != 0 {
		if res := bc.lanes.SwitchLane(b, d.Dir, t); res != lane.Started {
			bc.log.Debug("lane change rejected",
				log.String("vehicle", b.ID),
				log.Stringer("result", res))
			d.Dir = 0
		} else {
			b.Bot.LaneChanges++
			bc.log.Debug("bot changes lane",
				log.String("vehicle", b.ID),
				log.Int("dir", d.Dir),
				log.Float64("current", d.Current),
				log.Int("lanes", len(d.Options)))
		}
	}
	bc.decisions[b.ID] = d
	return d.Dir
}

// LastDecision returns the most recent lane change evaluation of a bot
func (bc *BotController) LastDecision(id string) (Decision, bool) {
	d, ok := bc.decisions[id]
	return d, ok
}
