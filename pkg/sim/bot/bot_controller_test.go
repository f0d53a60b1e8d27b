//nolint:funlen // ok for tests
package bot

import (
	"math"
	"math/rand"
	"testing"

	"github.com/aarondl/opt/omit"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"github.com/mpapenbr/quizrace/pkg/model"
	"github.com/mpapenbr/quizrace/pkg/sim/dynamics"
	"github.com/mpapenbr/quizrace/pkg/sim/lane"
)

type loop struct {
	length float64
	lanes  int
}

func (l loop) Length() float64 { return l.length }
func (l loop) NumLanes() int   { return l.lanes }
func (l loop) LaneOffset(i int) float64 {
	return (float64(i) - float64(l.lanes-1)/2) * 4
}

func newController(geo loop, opts ...BotControllerOption) *BotController {
	return NewBotController(geo,
		lane.NewLaneController(geo),
		dynamics.NewCarController(model.PhysicsParams{VMax: 100, TauA: 0.5}),
		opts...)
}

func car(id string, lane int, s, v float64) *model.Vehicle {
	return &model.Vehicle{ID: id, Kind: model.KindPlayer, Lane: lane, S: s, V: v, CarLength: 4}
}

func bot(id string, lane int, s, v float64) *model.Vehicle {
	ret := car(id, lane, s, v)
	ret.Kind = model.KindBot
	ret.Bot = &model.BotState{
		Accuracy:            0.5,
		AnswerSpeed:         1,
		AnswerSpeedStdDev:   0.3,
		SafetyTimeThreshold: 2,
		NextAnswerTime:      math.Inf(1),
	}
	return ret
}

func TestTimeToCollision(t *testing.T) {
	type args struct {
		s1, v1 float64
		s2, v2 float64
	}
	tests := []struct {
		name string
		args args
		want float64
	}{
		{"touching, same speed", args{100, 10, 110, 10}, 0.1},
		{"touching, tiny closing speed", args{100, 10.05, 110, 10}, 0.1},
		{"imminent, slow closing uses floor", args{100, 10.3, 110, 10}, 10 / 0.5},
		{"imminent, fast closing", args{100, 20, 110, 10}, 1},
		{"far, same speed", args{100, 10, 300, 10}, math.Inf(1)},
		{"far, closing", args{100, 20, 300, 10}, 20},
		{"far, separating is still a time", args{100, 10, 300, 20}, 20},
		{"across origin", args{990, 10, 10, 5}, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := car("a", 0, tt.args.s1, tt.args.v1)
			b := car("b", 0, tt.args.s2, tt.args.v2)
			got := TimeToCollision(a, b, 1000)
			if math.IsInf(tt.want, 1) {
				assert.True(t, math.IsInf(got, 1), "got %v", got)
				return
			}
			assert.InDelta(t, tt.want, got, 1e-9)
			assert.InDelta(t, got, TimeToCollision(b, a, 1000), 1e-9)
		})
	}
}

func TestCurrentSafety(t *testing.T) {
	geo := loop{1000, 3}
	tests := []struct {
		name       string
		others     []*model.Vehicle
		wantAhead  float64
		wantBehind float64
	}{
		{"alone", nil, math.Inf(1), math.Inf(1)},
		{"closing in on car ahead", []*model.Vehicle{car("o", 1, 200, 10)}, 10, math.Inf(1)},
		{"car ahead pulling away", []*model.Vehicle{car("o", 1, 200, 30)}, math.Inf(1), math.Inf(1)},
		{"car behind closing", []*model.Vehicle{car("o", 1, 50, 30)}, math.Inf(1), 5},
		{"car behind falling back", []*model.Vehicle{car("o", 1, 50, 10)}, math.Inf(1), math.Inf(1)},
		{"other lane ignored", []*model.Vehicle{car("o", 2, 200, 10)}, math.Inf(1), math.Inf(1)},
		{
			"car moving into our lane counts",
			[]*model.Vehicle{{ID: "o", Lane: 2, TargetLane: omit.From(1), S: 200, V: 10, CarLength: 4}},
			10, math.Inf(1),
		},
		{
			"minimum of all",
			[]*model.Vehicle{car("o1", 1, 200, 10), car("o2", 1, 150, 15), car("o3", 1, 80, 24)},
			10, 5,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bc := newController(geo)
			b := bot("b", 1, 100, 20)
			ahead, behind := bc.CurrentSafety(b, append([]*model.Vehicle{b}, tt.others...))
			assert.Equal(t, tt.wantAhead, ahead)
			assert.Equal(t, tt.wantBehind, behind)
		})
	}
}

func TestWrappedScenario(t *testing.T) {
	bc := newController(loop{1000, 2})
	b := bot("b", 0, 990, 10)
	o := car("o", 0, 10, 5)
	ahead, behind := bc.CurrentSafety(b, []*model.Vehicle{b, o})
	assert.InDelta(t, 4.0, ahead, 1e-9)
	assert.True(t, math.IsInf(behind, 1))

	// the bot drives through the origin without ever reaching the track length
	cars := dynamics.NewCarController(model.PhysicsParams{VMax: 100, TauA: 0.5, KappaEps: 1e-9})
	for range 300 {
		cars.Step([]*model.Vehicle{b, o}, straight{1000}, 0.05)
		if b.S < 0 || b.S >= 1000 {
			t.Fatalf("s=%v out of range", b.S)
		}
	}
	assert.Equal(t, 1, b.Laps)
	assert.InDelta(t, 140.0, b.S, 1e-6)
}

type straight struct{ length float64 }

func (s straight) Length() float64           { return s.length }
func (s straight) Curvature(float64) float64 { return 0 }

func TestLaneSafety(t *testing.T) {
	bc := newController(loop{1000, 3})
	b := bot("b", 1, 100, 20)

	safety, safe := bc.LaneSafety(b, 0, []*model.Vehicle{b})
	assert.True(t, math.IsInf(safety, 1))
	assert.True(t, safe)

	// close occupant vetoes regardless of speeds
	safety, safe = bc.LaneSafety(b, 0, []*model.Vehicle{b, car("o", 0, 95, 20)})
	assert.InDelta(t, 0.0, safety, 1e-9)
	assert.False(t, safe)

	// occupant transitioning into the lane counts as well
	inbound := &model.Vehicle{ID: "o", Lane: 1, TargetLane: omit.From(0), S: 104, V: 20, CarLength: 4}
	_, safe = bc.LaneSafety(b, 0, []*model.Vehicle{b, inbound})
	assert.False(t, safe)

	// below the threshold
	safety, safe = bc.LaneSafety(b, 2, []*model.Vehicle{b, car("o", 2, 130, 5)})
	assert.InDelta(t, 2.0, safety, 1e-9)
	assert.True(t, safe)
	safety, safe = bc.LaneSafety(b, 2, []*model.Vehicle{b, car("o", 2, 125, 5)})
	assert.InDelta(t, 25.0/15, safety, 1e-9)
	assert.False(t, safe)
}

func TestHysteresis(t *testing.T) {
	bc := newController(loop{1000, 3})
	b := bot("b", 1, 100, 20)
	ahead := car("a", 1, 200, 10) // current safety 10
	left := car("l", 0, 210, 10)  // 11, only 10% better
	right := car("r", 2, 205, 10) // 10.5
	vehicles := []*model.Vehicle{b, ahead, left, right}

	d := bc.PlanLaneChange(b, vehicles, 1)
	assert.Equal(t, 0, d.Dir)
	assert.InDelta(t, 10.0, d.Current, 1e-9)
	want := []LaneOption{{Lane: 0, Safety: 11, Safe: true}, {Lane: 2, Safety: 10.5, Safe: true}}
	if diff := cmp.Diff(want, d.Options); diff != "" {
		t.Errorf("PlanLaneChange() options mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 0, bc.ShouldLaneChange(b, vehicles, 1))
	assert.False(t, b.IsChangingLanes())

	left.S = 250 // now 15
	assert.Equal(t, -1, bc.PlanLaneChange(b, vehicles, 2).Dir)
	assert.False(t, b.IsChangingLanes(), "planning must not change state")

	assert.Equal(t, -1, bc.ShouldLaneChange(b, vehicles, 2))
	assert.True(t, b.IsChangingLanes())
	assert.Equal(t, 0, bc.ShouldLaneChange(b, vehicles, 2))
	assert.Equal(t, 1, b.Bot.LaneChanges)

	last, ok := bc.LastDecision("b")
	assert.True(t, ok)
	assert.Equal(t, 0, last.Dir)
}

func TestPicksSafeLane(t *testing.T) {
	bc := newController(loop{1000, 3})
	b := bot("b", 1, 100, 20)
	vehicles := []*model.Vehicle{
		b,
		car("a", 1, 150, 10), // closing, 5s
		car("l", 0, 95, 20),  // alongside, vetoes lane 0
	}
	assert.Equal(t, 1, bc.ShouldLaneChange(b, vehicles, 0))
	target, _ := b.TargetLane.Get()
	assert.Equal(t, 2, target)
}

func TestNoChangeWhenSafe(t *testing.T) {
	bc := newController(loop{1000, 3})
	b := bot("b", 1, 100, 20)
	// nothing closing: current safety is infinite, nothing can be better
	vehicles := []*model.Vehicle{b, car("a", 1, 150, 30)}
	assert.Equal(t, 0, bc.ShouldLaneChange(b, vehicles, 0))

	// edge lane only has one neighbor
	edge := bot("e", 0, 500, 20)
	vehicles = []*model.Vehicle{edge, car("a", 0, 550, 10)}
	d := bc.PlanLaneChange(edge, vehicles, 0)
	assert.Equal(t, 1, d.Dir)
	assert.Len(t, d.Options, 1)

	// a player is never planned for
	p := car("p", 1, 100, 20)
	assert.Equal(t, 0, bc.PlanLaneChange(p, []*model.Vehicle{p, car("a", 1, 150, 10)}, 0).Dir)
}

func TestAnswerAccuracy(t *testing.T) {
	tests := []struct {
		name     string
		accuracy float64
	}{
		{"always correct", 1.0},
		{"always wrong", 0.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bc := newController(loop{1000, 2}, WithRand(rand.New(rand.NewSource(3))))
			b := bot("b", 0, 0, 20)
			b.Bot.Accuracy = tt.accuracy
			b.Bot.NextAnswerTime = 0
			attempts := 0
			for i := range 2000 {
				now := float64(i) * 0.05
				answered, correct := bc.Answer(b, now)
				if !answered {
					continue
				}
				attempts++
				assert.Equal(t, tt.accuracy == 1.0, correct)
				assert.GreaterOrEqual(t, b.Bot.NextAnswerTime-now, model.MinAnswerSpeed-1e-9)
			}
			assert.Greater(t, attempts, 10)
			if tt.accuracy == 1.0 {
				assert.Equal(t, attempts, b.Bot.Correct)
				assert.Equal(t, 0, b.Bot.Incorrect)
				assert.InDelta(t, 150*float64(attempts), b.PendingReward, 1e-6)
				assert.InDelta(t, 20.0, b.V, 1e-9)
			} else {
				assert.Equal(t, attempts, b.Bot.Incorrect)
				assert.InDelta(t, 0.0, b.PendingReward, 1e-9)
				assert.InDelta(t, 20*math.Pow(0.8, float64(attempts)), b.V, 1e-9)
			}
		})
	}
}

func TestAnswerNotDue(t *testing.T) {
	bc := newController(loop{1000, 2})
	b := bot("b", 0, 0, 20)
	b.Bot.NextAnswerTime = 5
	answered, _ := bc.Answer(b, 4.99)
	assert.False(t, answered)
	answered, _ = bc.Answer(b, 5)
	assert.True(t, answered)
}

func TestStep(t *testing.T) {
	run := func() ([]Outcome, []*model.Vehicle) {
		bc := newController(loop{1000, 3},
			WithRand(rand.New(rand.NewSource(99))),
			WithCorrectReward(100),
			WithPenaltyFactor(0.5))
		b1 := bot("b1", 1, 100, 20)
		b1.Bot.NextAnswerTime = 0
		b1.Bot.Accuracy = 1
		b2 := bot("b2", 1, 500, 20)
		p := car("p", 1, 150, 10)
		vehicles := []*model.Vehicle{p, b1, nil, b2}
		return bc.Step(vehicles, 0), vehicles
	}
	outcomes, vehicles := run()
	again, _ := run()
	assert.Equal(t, outcomes, again, "same seed must give the same outcomes")

	// b1 answered and moved away from the slower player, b2 had nothing to do
	assert.Len(t, outcomes, 1)
	assert.Equal(t, 1, outcomes[0].Index)
	assert.True(t, outcomes[0].Answered)
	assert.NotEqual(t, 0, outcomes[0].Dir)

	p := vehicles[0]
	assert.InDelta(t, 0.0, p.PendingReward, 1e-9)
	assert.InDelta(t, 10.0, p.V, 1e-9)
	assert.False(t, p.IsChangingLanes())
}
