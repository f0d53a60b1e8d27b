// Package dynamics advances speed, reward and position of all vehicles per fixed timestep.
package dynamics

import (
	"math"

	"github.com/samber/lo"

	"github.com/mpapenbr/quizrace/log"
	"github.com/mpapenbr/quizrace/pkg/model"
	"github.com/mpapenbr/quizrace/pkg/sim/track"
)

type (
	// Geometry is the part of the track the integrator needs
	Geometry interface {
		Length() float64
		Curvature(s float64) float64
	}

	// Result reports the outcome of a queued mutation
	Result int

	CarController struct {
		params model.PhysicsParams
		log    *log.Logger
	}
	CarControllerOption func(*CarController)
)

const (
	Applied Result = iota
	IgnoredOutOfRange
	IgnoredNilVehicle
	IgnoredInvalidAmount
)

func (r Result) String() string {
	switch r {
	case Applied:
		return "applied"
	case IgnoredOutOfRange:
		return "ignored: out of range"
	case IgnoredNilVehicle:
		return "ignored: nil vehicle"
	case IgnoredInvalidAmount:
		return "ignored: invalid amount"
	default:
		return "unknown"
	}
}

func WithLogger(l *log.Logger) CarControllerOption {
	return func(c *CarController) {
		c.log = l
	}
}

func NewCarController(params model.PhysicsParams, opts ...CarControllerOption) *CarController {
	ret := &CarController{
		params: params,
		log:    log.Default().Named("sim.dynamics"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

func (c *CarController) Params() model.PhysicsParams {
	return c.params
}

// Step advances all vehicles by dt. It returns the indexes of vehicles
// that crossed the start/finish line during this step.
func (c *CarController) Step(vehicles []*model.Vehicle, geo Geometry, dt float64) []int {
	var crossed []int
	for i, v := range vehicles {
		if v == nil {
			continue
		}
		if c.StepVehicle(v, geo, dt) {
			crossed = append(crossed, i)
		}
	}
	return crossed
}

// StepVehicle integrates a single vehicle. Returns true if the vehicle completed a lap.
func (c *CarController) StepVehicle(v *model.Vehicle, geo Geometry, dt float64) bool {
	p := &c.params

	// pending reward is added after the decay so it is not decayed in the same step
	v.R = v.R*math.Exp(-dt/p.TauA) + v.PendingReward
	v.PendingReward = 0

	if v.V > p.VMin {
		v.V -= p.Beta * dt
	}

	v.V += c.RewardAcceleration(v.R) * dt

	if vCurve := c.CurveSpeed(geo.Curvature(v.S)); v.V > vCurve {
		gain := math.Min(1, p.KKappaBrake*dt)
		v.V -= gain * (v.V - vCurve)
	}

	v.V = lo.Clamp(v.V, 0, p.VMax)

	length := geo.Length()
	next := v.S + v.V*dt
	v.S = track.Wrap(next, length)
	if next >= length {
		v.Laps++
		return true
	}
	return false
}

// RewardAcceleration maps the smoothed reward to an acceleration.
// The mapping is monotonic in r, zero for r <= 0 and bounded by aBase.
// vBonus is the reward at which half of aBase is reached.
func (c *CarController) RewardAcceleration(r float64) float64 {
	if r <= 0 {
		return 0
	}
	if c.params.VBonus <= 0 {
		return c.params.ABase
	}
	return c.params.ABase * r / (r + c.params.VBonus)
}

// CurveSpeed returns the speed ceiling for the given curvature.
func (c *CarController) CurveSpeed(kappa float64) float64 {
	kappa = math.Max(kappa, c.params.KappaEps)
	if kappa <= 0 {
		return math.Inf(1)
	}
	return c.params.VKappaScale * math.Sqrt(c.params.BaseMu/kappa)
}

// QueueReward stages amount into the pending reward of v.
// It is folded into the reward accumulator on the next step.
func (c *CarController) QueueReward(v *model.Vehicle, amount float64) Result {
	if v == nil {
		return IgnoredNilVehicle
	}
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return IgnoredInvalidAmount
	}
	v.PendingReward += amount
	c.log.Debug("reward queued",
		log.String("vehicle", v.ID),
		log.Float64("amount", amount),
		log.Float64("pending", v.PendingReward))
	return Applied
}

// QueueRewardByIndex is QueueReward addressed by vehicle ordinal.
// Out of range indexes are ignored.
func (c *CarController) QueueRewardByIndex(vehicles []*model.Vehicle, idx int, amount float64) Result {
	if idx < 0 || idx >= len(vehicles) {
		return IgnoredOutOfRange
	}
	return c.QueueReward(vehicles[idx], amount)
}

// ApplySlowdownPenalty scales the speed of v by factor immediately.
// The factor is clamped to [0,1].
func (c *CarController) ApplySlowdownPenalty(v *model.Vehicle, factor float64) Result {
	if v == nil {
		return IgnoredNilVehicle
	}
	if math.IsNaN(factor) {
		return IgnoredInvalidAmount
	}
	v.V *= lo.Clamp(factor, 0, 1)
	c.log.Debug("slowdown applied",
		log.String("vehicle", v.ID),
		log.Float64("factor", factor),
		log.Float64("v", v.V))
	return Applied
}

//nolint:whitespace // editor/linter issue
func (c *CarController) ApplySlowdownPenaltyByIndex(
	vehicles []*model.Vehicle, idx int, factor float64,
) Result {
	if idx < 0 || idx >= len(vehicles) {
		return IgnoredOutOfRange
	}
	return c.ApplySlowdownPenalty(vehicles[idx], factor)
}
