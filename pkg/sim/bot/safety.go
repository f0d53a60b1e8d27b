package bot

import (
	"math"

	"github.com/mpapenbr/quizrace/pkg/model"
	"github.com/mpapenbr/quizrace/pkg/sim/track"
)

const (
	// extra gap on top of the half car lengths below which a collision is imminent
	minSafeGap = 20.0
	// relative speeds up to this value count as not closing
	closingEps = 0.1
	// floor for the closing speed of an imminent collision
	minClosingSpeed = 0.5
	// any occupant of a lane closer than this many car lengths vetoes a change
	proximityCarLengths = 2.0
)

// TimeToCollision returns the projected time until b and o meet given their current speeds.
// +Inf means they are not closing in on each other.
func TimeToCollision(b, o *model.Vehicle, length float64) float64 {
	d := track.WrappedDistance(b.S, o.S, length)
	dv := math.Abs(b.V - o.V)
	if d < b.CarLength/2+o.CarLength/2+minSafeGap {
		if dv <= closingEps {
			return 0.1
		}
		return d / math.Max(dv, minClosingSpeed)
	}
	if dv <= closingEps {
		return math.Inf(1)
	}
	return d / dv
}

// CurrentSafety returns the minimum time to collision with vehicles ahead that b is
// closing in on and with vehicles behind that are closing in on b.
// Only vehicles sharing an effective lane with b are considered.
//
//nolint:whitespace // editor/linter issue
func (bc *BotController) CurrentSafety(
	b *model.Vehicle, vehicles []*model.Vehicle,
) (ahead, behind float64) {
	ahead, behind = math.Inf(1), math.Inf(1)
	length := bc.geo.Length()
	for _, o := range vehicles {
		if o == nil || o == b || !bc.lanes.SharesLane(b, o) {
			continue
		}
		diff := track.WrappedSignedDiff(o.S, b.S, length)
		dv := b.V - o.V
		switch {
		case diff > 0 && dv > 0:
			ahead = math.Min(ahead, TimeToCollision(b, o, length))
		case diff < 0 && dv < 0:
			behind = math.Min(behind, TimeToCollision(b, o, length))
		}
	}
	return ahead, behind
}

// LaneSafety computes the minimum time to collision of b against all vehicles
// occupying lane. A vehicle within two car lengths makes the lane unsafe.
//
//nolint:whitespace // editor/linter issue
func (bc *BotController) LaneSafety(
	b *model.Vehicle, lane int, vehicles []*model.Vehicle,
) (safety float64, safe bool) {
	length := bc.geo.Length()
	safety = math.Inf(1)
	for _, o := range vehicles {
		if o == nil || o == b || !bc.lanes.Occupies(o, lane) {
			continue
		}
		if track.WrappedDistance(b.S, o.S, length) < proximityCarLengths*b.CarLength {
			return 0, false
		}
		safety = math.Min(safety, TimeToCollision(b, o, length))
	}
	return safety, safety >= b.Bot.SafetyTimeThreshold
}
