// Package basedata provides sample tracks and race configs for tests.
package basedata

import (
	"github.com/mpapenbr/quizrace/pkg/model"
	"github.com/mpapenbr/quizrace/pkg/sim/track"
)

const (
	SampleStraight  = 100.0
	SampleRadius    = 100.0
	SampleLanes     = 3
	SampleLaneWidth = 4.0
	SampleDt        = 1.0 / 16
)

// SampleTrack returns a 3 lane oval of 200+200*pi meters
func SampleTrack() (*track.Track, error) {
	return track.NewOval(SampleStraight, SampleRadius, SampleLanes, SampleLaneWidth,
		track.WithName("testoval"))
}

func SamplePhysics() model.PhysicsParams {
	return model.PhysicsParams{
		VMin:              5,
		VMax:              100,
		ABase:             20,
		TauA:              1,
		Beta:              1,
		VBonus:            100,
		KappaEps:          1e-9,
		VKappaScale:       1,
		BaseMu:            1000,
		KKappaBrake:       2,
		SlipDecay:         2,
		SlipWobbleAmp:     0.1,
		SlipWobbleFreq:    2,
		SlipVelocityDecay: 3,
		MomentumTransfer:  0.1,
	}
}

// SampleRaceConfig returns a race of the player against a single bot.
// The grip is high enough for the sample track to never limit the speed and
// the bot answers so slowly that it never gets a reward during a test.
func SampleRaceConfig() *model.RaceConfig {
	return &model.RaceConfig{
		Version:            "1.0.0",
		Seed:               42,
		Dt:                 SampleDt,
		Laps:               3,
		LaneChangeDuration: 0.5,
		CorrectReward:      150,
		PenaltyFactor:      0.8,
		Physics:            SamplePhysics(),
		BotTemplate: model.BotTemplate{
			AnswerSpeedBase: 1000,
			AccuracyBase:    0.5,
			SafetyTimeBase:  2,
		},
		Difficulty: model.DifficultyRange{Min: 1, Max: 1},
		Vehicles: []model.VehicleSetup{
			{Player: true, S: 0, V: 10, Lane: 1},
			{S: 400, V: 10, Lane: 0},
		},
		Track: model.TrackRef{
			Lanes:     SampleLanes,
			LaneWidth: SampleLaneWidth,
			Oval:      model.OvalSpec{Straight: SampleStraight, Radius: SampleRadius},
		},
	}
}
