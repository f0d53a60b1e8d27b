// Package slip computes the cosmetic slip and wobble of vehicles in curves.
// It only writes Vehicle.Slip and never the core state (s, v, r, lanes).
package slip

import (
	"math"

	"github.com/samber/lo"

	"github.com/mpapenbr/quizrace/pkg/model"
)

type Curvature interface {
	Curvature(s float64) float64
}

type Effect struct {
	params model.PhysicsParams
}

func NewEffect(params model.PhysicsParams) *Effect {
	return &Effect{params: params}
}

// Update advances the slip state of v at sim time t.
func (e *Effect) Update(v *model.Vehicle, kappa, t, dt float64) {
	p := &e.params
	excess := math.Max(0, v.V*v.V*kappa-p.BaseMu)
	slip := &v.Slip

	slip.Velocity += p.MomentumTransfer * excess * dt
	slip.Velocity *= math.Exp(-p.SlipVelocityDecay * dt)
	slip.Offset = (slip.Offset + slip.Velocity*dt) * math.Exp(-p.SlipVelocityDecay*dt)

	target := 0.0
	if p.BaseMu > 0 {
		target = lo.Clamp(excess/p.BaseMu, 0, 1)
	} else if excess > 0 {
		target = 1
	}
	slip.Factor = math.Max(slip.Factor*math.Exp(-p.SlipDecay*dt), target)
	slip.Wobble = p.SlipWobbleAmp * slip.Factor * math.Sin(2*math.Pi*p.SlipWobbleFreq*t)
}

func (e *Effect) UpdateAll(vehicles []*model.Vehicle, geo Curvature, t, dt float64) {
	for _, v := range vehicles {
		if v != nil {
			e.Update(v, geo.Curvature(v.S), t, dt)
		}
	}
}
