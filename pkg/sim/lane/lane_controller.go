// Package lane owns the lane state machine of vehicles.
//
// A vehicle is either stationary in a lane or transitioning from its lane to
// an adjacent target lane. While transitioning it occupies both lanes.
package lane

import (
	"github.com/aarondl/opt/omit"
	"github.com/samber/lo"

	"github.com/mpapenbr/quizrace/log"
	"github.com/mpapenbr/quizrace/pkg/model"
)

const (
	DefaultChangeDuration = 0.6
	// sim time is a sum of float steps, a transition this close to done is done
	completeEps = 1e-9
)

type (
	// Geometry is the part of the track the lane controller needs
	Geometry interface {
		NumLanes() int
		LaneOffset(lane int) float64
	}

	SwitchResult int

	LaneController struct {
		geo      Geometry
		duration float64
		log      *log.Logger
	}
	LaneControllerOption func(*LaneController)
)

const (
	Started SwitchResult = iota
	RejectedOutOfRange
	RejectedInTransition
	RejectedBadDirection
)

func (r SwitchResult) String() string {
	switch r {
	case Started:
		return "started"
	case RejectedOutOfRange:
		return "rejected: out of range"
	case RejectedInTransition:
		return "rejected: in transition"
	case RejectedBadDirection:
		return "rejected: bad direction"
	default:
		return "unknown"
	}
}

// WithChangeDuration sets the time in seconds a lane change takes
func WithChangeDuration(d float64) LaneControllerOption {
	return func(lc *LaneController) {
		if d >= 0 {
			lc.duration = d
		}
	}
}

func WithLogger(l *log.Logger) LaneControllerOption {
	return func(lc *LaneController) {
		lc.log = l
	}
}

func NewLaneController(geo Geometry, opts ...LaneControllerOption) *LaneController {
	ret := &LaneController{
		geo:      geo,
		duration: DefaultChangeDuration,
		log:      log.Default().Named("sim.lane"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

func (lc *LaneController) ChangeDuration() float64 {
	return lc.duration
}

// EffectiveLanes returns {Lane} for a stationary vehicle and {Lane, TargetLane}
// while it is changing lanes.
func (lc *LaneController) EffectiveLanes(v *model.Vehicle) []int {
	if target, ok := v.TargetLane.Get(); ok && target != v.Lane {
		return []int{v.Lane, target}
	}
	return []int{v.Lane}
}

// Occupies reports whether lane is one of the effective lanes of v
func (lc *LaneController) Occupies(v *model.Vehicle, lane int) bool {
	return lo.Contains(lc.EffectiveLanes(v), lane)
}

// SharesLane reports whether a and b have at least one effective lane in common
func (lc *LaneController) SharesLane(a, b *model.Vehicle) bool {
	return len(lo.Intersect(lc.EffectiveLanes(a), lc.EffectiveLanes(b))) > 0
}

// SwitchLane starts a transition of v toward Lane+dir at sim time t.
// Impossible requests are rejected without changing v.
func (lc *LaneController) SwitchLane(v *model.Vehicle, dir int, t float64) SwitchResult {
	if dir != -1 && dir != 1 {
		return RejectedBadDirection
	}
	if v.IsChangingLanes() {
		return RejectedInTransition
	}
	target := v.Lane + dir
	if target < 0 || target >= lc.geo.NumLanes() {
		return RejectedOutOfRange
	}
	v.TargetLane = omit.From(target)
	v.TransitionStart = t
	lc.log.Debug("lane change started",
		log.String("vehicle", v.ID),
		log.Int("from", v.Lane),
		log.Int("to", target),
		log.Float64("t", t))
	return Started
}

// Update moves the lateral offset of v along the transition and completes it
// once the change duration has elapsed. Returns true if a transition completed.
func (lc *LaneController) Update(v *model.Vehicle, t float64) bool {
	target, ok := v.TargetLane.Get()
	if !ok || target == v.Lane {
		v.TargetLane.Unset()
		v.Lateral = lc.geo.LaneOffset(v.Lane)
		return false
	}
	p := 1.0
	if lc.duration > 0 {
		p = lo.Clamp((t-v.TransitionStart)/lc.duration, 0, 1)
	}
	if p >= 1-completeEps {
		v.Lane = target
		v.TargetLane.Unset()
		v.Lateral = lc.geo.LaneOffset(v.Lane)
		lc.log.Debug("lane change completed",
			log.String("vehicle", v.ID),
			log.Int("lane", v.Lane),
			log.Float64("t", t))
		return true
	}
	from, to := lc.geo.LaneOffset(v.Lane), lc.geo.LaneOffset(target)
	v.Lateral = from + (to-from)*smoothstep(p)
	return false
}

// UpdateAll runs Update for all vehicles and returns the indexes of completed transitions
func (lc *LaneController) UpdateAll(vehicles []*model.Vehicle, t float64) []int {
	var ret []int
	for i, v := range vehicles {
		if v != nil && lc.Update(v, t) {
			ret = append(ret, i)
		}
	}
	return ret
}

func smoothstep(p float64) float64 {
	return p * p * (3 - 2*p)
}
