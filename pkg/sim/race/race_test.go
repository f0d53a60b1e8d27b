package race

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpapenbr/quizrace/pkg/model"
	"github.com/mpapenbr/quizrace/pkg/sim/track"
	"github.com/mpapenbr/quizrace/testsupport/basedata"
)

const testDt = basedata.SampleDt

func testTrack(t *testing.T) *track.Track {
	t.Helper()
	tr, err := basedata.SampleTrack()
	require.NoError(t, err)
	return tr
}

func testConfig() *model.RaceConfig {
	return basedata.SampleRaceConfig()
}

type recorder struct {
	snaps  []*model.Snapshot
	events []model.RaceEvent
}

func (r *recorder) OnTick(snap *model.Snapshot, events []model.RaceEvent) {
	r.snaps = append(r.snaps, snap)
	r.events = append(r.events, events...)
}

func (r *recorder) ofType(t model.EventType) []model.RaceEvent {
	var ret []model.RaceEvent
	for _, e := range r.events {
		if e.Type == t {
			ret = append(ret, e)
		}
	}
	return ret
}

func newTestRace(t *testing.T, cfg *model.RaceConfig) (*Race, *recorder) {
	t.Helper()
	rec := &recorder{}
	r, err := NewRace(cfg, testTrack(t), WithRaceID("test"), WithListener(rec))
	require.NoError(t, err)
	return r, rec
}

func TestNewGameState(t *testing.T) {
	tr := testTrack(t)
	cfg := testConfig()
	cfg.Vehicles = append(cfg.Vehicles, model.VehicleSetup{
		Name: "Speedy", S: tr.Length() + 10, Lane: 2, CarLength: 5, Difficulty: 2,
	})
	g, err := NewGameState(cfg, tr, newRand(1))
	require.NoError(t, err)

	assert.Equal(t, 3, g.Len())
	assert.Equal(t, 0, g.PlayerIndex())
	assert.Equal(t, "Player", g.Player().Name)
	assert.True(t, g.Player().IsPlayer())
	assert.Nil(t, g.Player().Bot)

	names := []string{}
	for _, v := range g.Bots() {
		names = append(names, v.ID+":"+v.Name)
	}
	if diff := cmp.Diff([]string{"car1:Bot 1", "car2:Speedy"}, names); diff != "" {
		t.Errorf("Bots() mismatch (-want +got):\n%s", diff)
	}

	speedy, ok := g.VehicleByID("car2")
	require.True(t, ok)
	assert.InDelta(t, 10, speedy.S, 1e-9)
	assert.Equal(t, tr.LaneOffset(2), speedy.Lateral)
	assert.Equal(t, 5.0, speedy.CarLength)
	assert.Equal(t, DefaultCarWidth, speedy.CarWidth)
	assert.Equal(t, 2.0, speedy.Bot.Difficulty)

	bot1, _ := g.VehicleByID("car1")
	assert.Equal(t, 1.0, bot1.Bot.Difficulty)
	assert.Equal(t, DefaultCarLength, bot1.CarLength)

	_, ok = g.VehicleByIndex(3)
	assert.False(t, ok)
	_, ok = g.VehicleByID("unknown")
	assert.False(t, ok)
	assert.Len(t, g.Others(g.Player()), 2)
}

func TestNewGameStateInvalid(t *testing.T) {
	tests := []struct {
		name     string
		vehicles []model.VehicleSetup
	}{
		{"no player", []model.VehicleSetup{{Lane: 0}}},
		{"two players", []model.VehicleSetup{{Player: true}, {Player: true}}},
		{"lane out of range", []model.VehicleSetup{{Player: true, Lane: 3}}},
		{"negative lane", []model.VehicleSetup{{Player: true, Lane: -1}}},
		{"negative speed", []model.VehicleSetup{{Player: true, V: -1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			cfg.Vehicles = tt.vehicles
			_, err := NewGameState(cfg, testTrack(t), newRand(1))
			assert.True(t, errors.Is(err, ErrInvalidSetup), "got %v", err)
		})
	}
}

func TestRaceStart(t *testing.T) {
	r, rec := newTestRace(t, testConfig())
	assert.Equal(t, "test", r.ID())

	initial := r.Snapshot()
	require.NotNil(t, initial)
	assert.Equal(t, int64(0), initial.Tick)
	assert.Len(t, initial.Vehicles, 2)

	r.Start()
	r.Start()
	r.Step()
	assert.Len(t, rec.ofType(model.ETRaceStarted), 1)
	assert.Len(t, rec.snaps, 2)

	snap := r.Snapshot()
	assert.Equal(t, int64(1), snap.Tick)
	assert.Equal(t, testDt, snap.SimTime)
	assert.Equal(t, testDt, r.Clock())
	assert.Equal(t, "player", snap.Vehicles[0].Kind)
	assert.Equal(t, -1, snap.Vehicles[0].TargetLane)
}

func TestRaceIDDefault(t *testing.T) {
	r, err := NewRace(testConfig(), testTrack(t))
	require.NoError(t, err)
	assert.Len(t, r.ID(), 36)
}

func TestSetAlpha(t *testing.T) {
	r, _ := newTestRace(t, testConfig())
	r.Step()
	before := r.Snapshot()
	r.SetAlpha(0.25)
	after := r.Snapshot()
	assert.Equal(t, 0.25, after.Alpha)
	assert.Equal(t, 0.0, before.Alpha)
	assert.Equal(t, before.Tick, after.Tick)
}

func TestCorrectAnswerAppliesNextTick(t *testing.T) {
	r, rec := newTestRace(t, testConfig())
	player := r.State().Player()

	r.OnCorrectAnswer(0)
	assert.Equal(t, 0.0, player.PendingReward, "must not be applied before the next tick")
	assert.Equal(t, 0.0, player.R)

	r.Step()
	assert.InDelta(t, 150, player.R, 1e-9)
	assert.Equal(t, 0.0, player.PendingReward)
	// 10 - beta*dt + aBase*150/250*dt
	assert.InDelta(t, 10.6875, player.V, 1e-9)

	answers := rec.ofType(model.ETAnswer)
	require.Len(t, answers, 1)
	assert.Equal(t, "car0", answers[0].VehicleID)
	assert.True(t, answers[0].Correct)
}

func TestIncorrectAnswer(t *testing.T) {
	r, rec := newTestRace(t, testConfig())
	player := r.State().Player()

	r.OnIncorrectAnswer(0)
	assert.Equal(t, 10.0, player.V)
	r.Step()
	assert.InDelta(t, 8-testDt, player.V, 1e-9)

	answers := rec.ofType(model.ETAnswer)
	require.Len(t, answers, 1)
	assert.False(t, answers[0].Correct)
}

func TestAnswerOutOfRangeIgnored(t *testing.T) {
	r, rec := newTestRace(t, testConfig())
	r.OnCorrectAnswer(5)
	r.OnCorrectAnswer(-1)
	r.OnIncorrectAnswer(2)
	assert.NotPanics(t, r.Step)
	assert.Empty(t, rec.ofType(model.ETAnswer))
	for _, v := range r.State().Vehicles() {
		assert.Equal(t, 0.0, v.R)
	}
}

func TestPlayerLaneChange(t *testing.T) {
	r, rec := newTestRace(t, testConfig())
	player := r.State().Player()
	tr := r.State().Track()

	r.RequestLaneChange(1)
	r.RequestLaneChange(1)
	r.Step()
	assert.True(t, player.IsChangingLanes())
	assert.Len(t, rec.ofType(model.ETLaneChange), 1, "second request rejected while in transition")
	assert.Equal(t, 2, r.Snapshot().Vehicles[0].TargetLane)

	for i := 0; i < 10; i++ {
		r.Step()
	}
	assert.False(t, player.IsChangingLanes())
	assert.Equal(t, 2, player.Lane)
	assert.Equal(t, tr.LaneOffset(2), player.Lateral)

	r.RequestLaneChange(1)
	r.Step()
	assert.Equal(t, 2, player.Lane, "no lane beyond the edge")
	assert.Len(t, rec.ofType(model.ETLaneChange), 1)
}

func TestPlayerInstantLaneChange(t *testing.T) {
	cfg := testConfig()
	cfg.LaneChangeDuration = 0
	r, rec := newTestRace(t, cfg)
	player := r.State().Player()

	r.RequestLaneChange(1)
	r.Step()
	r.Step()
	assert.Equal(t, 2, player.Lane)
	assert.False(t, player.IsChangingLanes())
	assert.Len(t, rec.ofType(model.ETLaneChange), 1)

	summary := r.Summary()
	var stints *model.CarLaneStints
	for i := range summary.CarStints {
		if summary.CarStints[i].VehicleID == player.ID {
			stints = &summary.CarStints[i]
		}
	}
	require.NotNil(t, stints)
	assert.Equal(t, 2, stints.Current.Lane)
	require.Len(t, stints.History, 1)
	assert.Equal(t, 1, stints.History[0].Lane)

	var changes *model.CarLaneChanges
	for i := range summary.CarChanges {
		if summary.CarChanges[i].VehicleID == player.ID {
			changes = &summary.CarChanges[i]
		}
	}
	require.NotNil(t, changes)
	require.Len(t, changes.History, 1)
	assert.Equal(t, 1, changes.History[0].From)
	assert.Equal(t, 2, changes.History[0].To)
	assert.Equal(t, 0.0, changes.History[0].Duration)
}

func TestRaceToFinish(t *testing.T) {
	tr := testTrack(t)
	cfg := testConfig()
	cfg.Laps = 1
	cfg.Vehicles[0].S = tr.Length() - 5

	rec := &recorder{}
	r, err := NewRace(cfg, tr, WithRaceID("finish"), WithListener(rec))
	require.NoError(t, err)

	steps, err := NewLoop(r, WithMaxTime(10)).RunFast(context.Background())
	require.NoError(t, err)
	assert.True(t, r.Finished())
	assert.Less(t, steps, 16)

	player := r.State().Player()
	assert.Equal(t, 1, player.Laps)
	assert.Less(t, player.S, tr.Length())

	laps := rec.ofType(model.ETLapCompleted)
	require.Len(t, laps, 1)
	assert.Equal(t, "car0", laps[0].VehicleID)
	assert.Equal(t, 1, laps[0].Lap)

	finished := rec.ofType(model.ETRaceFinished)
	require.Len(t, finished, 1)
	require.NotEmpty(t, finished[0].Standings)
	assert.Equal(t, "car0", finished[0].Standings[0].VehicleID)
	assert.True(t, r.Snapshot().Finished)

	summary := r.Summary()
	assert.True(t, summary.Finished)
	assert.Equal(t, "finish", summary.RaceID)

	tick := r.Tick()
	r.Step()
	assert.Equal(t, tick, r.Tick(), "no steps after the race is finished")
}

func TestDeterministicSeed(t *testing.T) {
	cfg := testConfig()
	cfg.BotTemplate.AccuracyStdDev = 0.2
	cfg.BotTemplate.AnswerSpeedBase = 1
	cfg.BotTemplate.AnswerSpeedStdDev = 0.3
	cfg.Difficulty = model.DifficultyRange{Min: 0.5, Max: 1.5}

	run := func() []model.VehicleSnapshot {
		r, _ := newTestRace(t, cfg)
		for i := 0; i < 200; i++ {
			r.Step()
		}
		return r.Snapshot().Vehicles
	}
	if diff := cmp.Diff(run(), run()); diff != "" {
		t.Errorf("races with equal seed differ (-want +got):\n%s", diff)
	}
}

func TestAutoAnswer(t *testing.T) {
	r, rec := newTestRace(t, testConfig())
	r.AddListener(NewAutoAnswer(r, 0, 1, 1, 1))
	// 2s of simulation, answers at 1s and 2s are applied on the following tick
	for i := 0; i < 34; i++ {
		r.Step()
	}
	answers := rec.ofType(model.ETAnswer)
	require.Len(t, answers, 2)
	for _, a := range answers {
		assert.Equal(t, "car0", a.VehicleID)
		assert.True(t, a.Correct)
	}
	assert.Greater(t, r.State().Player().R, 0.0)
}
