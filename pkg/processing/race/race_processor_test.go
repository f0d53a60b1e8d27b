//nolint:funlen // ok for tests
package race

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"github.com/mpapenbr/quizrace/pkg/model"
)

type pos struct {
	s    float64
	laps int
}

// snapshot with a player "p" followed by bots "b1", "b2", ...
func snapshot(simTime float64, positions ...pos) *model.Snapshot {
	ret := &model.Snapshot{SimTime: simTime}
	for i, p := range positions {
		vs := model.VehicleSnapshot{
			ID:   "p",
			Name: "Player",
			Kind: model.KindPlayer.String(),
			S:    p.s,
			Laps: p.laps,
		}
		if i > 0 {
			vs.ID = []string{"", "b1", "b2", "b3"}[i]
			vs.Name = vs.ID
			vs.Kind = model.KindBot.String()
		}
		ret.Vehicles = append(ret.Vehicles, vs)
	}
	return ret
}

func eventTypes(events []model.RaceEvent) []model.EventType {
	ret := make([]model.EventType, len(events))
	for i := range events {
		ret[i] = events[i].Type
	}
	return ret
}

func TestRaceProcessor_Laps(t *testing.T) {
	p := NewRaceProcessor(WithRaceID("r1"), WithLaps(3), WithTrackLength(1000))

	events := p.ProcessSnapshot(snapshot(0, pos{100, 0}, pos{900, 0}))
	assert.Equal(t, []model.EventType{model.ETRaceStarted}, eventTypes(events))
	assert.Equal(t, "r1", events[0].RaceID)
	assert.Equal(t, []string{"b1", "p"}, p.RaceOrder)

	events = p.ProcessSnapshot(snapshot(12.3456, pos{500, 0}, pos{20, 1}))
	assert.Equal(t, []model.EventType{model.ETLapCompleted}, eventTypes(events))
	assert.Equal(t, "b1", events[0].VehicleID)
	assert.Equal(t, 1, events[0].Lap)
	assert.InDelta(t, 12.346, events[0].LapTime, 1e-9)

	events = p.ProcessSnapshot(snapshot(20, pos{10, 1}, pos{600, 1}))
	assert.Equal(t, []model.EventType{model.ETLapCompleted}, eventTypes(events))
	assert.Equal(t, "p", events[0].VehicleID)
	assert.InDelta(t, 20.0, events[0].LapTime, 1e-9)

	want := []model.Standing{
		{Pos: 1, VehicleID: "b1", Name: "b1", Laps: 1, S: 600, Gap: 0, BestLap: 12.346},
		{Pos: 2, VehicleID: "p", Name: "Player", Laps: 1, S: 10, Gap: 590, BestLap: 20},
	}
	if diff := cmp.Diff(want, p.Standings); diff != "" {
		t.Errorf("Standings mismatch (-want +got):\n%s", diff)
	}
	assert.Len(t, p.RaceGraph, 1)
	assert.Equal(t, 1, p.RaceGraph[0].LapNo)
	assert.False(t, p.Finished)
}

func TestRaceProcessor_Finish(t *testing.T) {
	tests := []struct {
		name      string
		mode      FinishMode
		snaps     []*model.Snapshot
		wantOrder []string
		wantLast  []model.EventType
	}{
		{
			name: "bot finishing does not end the race for the player",
			mode: FinishOnPlayer,
			snaps: []*model.Snapshot{
				snapshot(0, pos{0, 0}, pos{500, 0}),
				snapshot(10, pos{400, 0}, pos{5, 1}),
			},
			wantOrder: []string{"b1", "p"},
			wantLast:  []model.EventType{model.ETLapCompleted},
		},
		{
			name: "player finishing ends the race",
			mode: FinishOnPlayer,
			snaps: []*model.Snapshot{
				snapshot(0, pos{0, 0}, pos{500, 0}),
				snapshot(10, pos{400, 0}, pos{5, 1}),
				snapshot(20, pos{2, 1}, pos{600, 1}),
			},
			wantOrder: []string{"b1", "p"},
			wantLast:  []model.EventType{model.ETLapCompleted, model.ETRaceFinished},
		},
		{
			name: "leader mode ends with the first finisher",
			mode: FinishOnLeader,
			snaps: []*model.Snapshot{
				snapshot(0, pos{0, 0}, pos{500, 0}, pos{900, 0}),
				snapshot(10, pos{400, 0}, pos{990, 0}, pos{3, 1}),
			},
			wantOrder: []string{"b2", "b1", "p"},
			wantLast:  []model.EventType{model.ETLapCompleted, model.ETRaceFinished},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewRaceProcessor(WithLaps(1), WithTrackLength(1000), WithFinishMode(tt.mode))
			var events []model.RaceEvent
			for _, s := range tt.snaps {
				events = p.ProcessSnapshot(s)
			}
			assert.Equal(t, tt.wantLast, eventTypes(events))
			assert.Equal(t, tt.wantOrder, p.RaceOrder)
			if p.Finished {
				last := events[len(events)-1]
				assert.Len(t, last.Standings, len(tt.wantOrder))
				assert.True(t, last.Standings[0].Finished)
			}
		})
	}
}

func TestRaceProcessor_FinishedVehiclesKeepPosition(t *testing.T) {
	p := NewRaceProcessor(WithLaps(1), WithTrackLength(1000))
	p.ProcessSnapshot(snapshot(0, pos{0, 0}, pos{900, 0}, pos{800, 0}))
	p.ProcessSnapshot(snapshot(5, pos{100, 0}, pos{10, 1}, pos{900, 0}))
	// b2 covered more distance after the line than b1 but finished later
	p.ProcessSnapshot(snapshot(8, pos{200, 0}, pos{40, 1}, pos{300, 1}))
	assert.Equal(t, []string{"b1", "b2"}, p.FinishOrder)
	assert.Equal(t, []string{"b1", "b2", "p"}, p.RaceOrder)
	assert.False(t, p.Finished)
}

func TestRoundTime(t *testing.T) {
	assert.InDelta(t, 1.235, roundTime(1.23456), 1e-12)
	assert.InDelta(t, 0.0, roundTime(0.0001), 1e-12)
	assert.InDelta(t, -2.5, roundTime(-2.5), 1e-12)
}
