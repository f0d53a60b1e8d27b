package model

import (
	"math"

	"github.com/aarondl/opt/omit"
	"github.com/samber/lo"
)

type VehicleKind int

const (
	KindPlayer VehicleKind = iota
	KindBot
)

func (k VehicleKind) String() string {
	switch k {
	case KindPlayer:
		return "player"
	case KindBot:
		return "bot"
	default:
		return "unknown"
	}
}

// floors applied after sampling bot behavior
const (
	MinAnswerSpeed     = 0.1
	MinSafetyThreshold = 0.5
	MinDifficulty      = 0.1
)

type (
	// Vehicle is the state of a single car on the track.
	// Bot is non-nil iff Kind == KindBot.
	Vehicle struct {
		ID              string
		Name            string
		Kind            VehicleKind
		S               float64 // arc length position, [0, L)
		V               float64 // scalar speed, >= 0
		R               float64 // smoothed reward accumulator
		PendingReward   float64 // staged reward, folded in on the next integration step
		Lane            int
		TargetLane      omit.Val[int] // set only while a lane change is in progress
		TransitionStart float64       // sim time the current lane change started
		Lateral         float64       // lateral offset from centerline
		CarLength       float64
		CarWidth        float64
		Laps            int
		Slip            SlipState
		Bot             *BotState
	}

	// BotState holds the statistical behavior of a bot.
	BotState struct {
		Difficulty          float64
		AnswerSpeed         float64 // mean seconds between answer attempts
		AnswerSpeedStdDev   float64
		Accuracy            float64 // probability of a correct answer
		SafetyTimeThreshold float64 // min acceptable time to collision in seconds
		NextAnswerTime      float64 // absolute sim time of next attempt
		Correct             int
		Incorrect           int
		LaneChanges         int
	}

	// SlipState is cosmetic, written by the slip effect and read by renderers only.
	SlipState struct {
		Factor   float64
		Wobble   float64
		Velocity float64
		Offset   float64
	}

	// RandSource is satisfied by *rand.Rand
	RandSource interface {
		Float64() float64
		NormFloat64() float64
	}
)

func (v *Vehicle) IsBot() bool {
	return v.Kind == KindBot && v.Bot != nil
}

func (v *Vehicle) IsPlayer() bool {
	return v.Kind == KindPlayer
}

// IsChangingLanes reports whether a target lane is set and differs from the current lane.
func (v *Vehicle) IsChangingLanes() bool {
	target, ok := v.TargetLane.Get()
	return ok && target != v.Lane
}

// NewBotState samples the behavior of a bot around the template values.
// Higher difficulty means faster answers, better accuracy and a more careful driver.
func NewBotState(tmpl BotTemplate, difficulty float64, rng RandSource) *BotState {
	d := math.Max(difficulty, MinDifficulty)
	gauss := func(mean, stdDev float64) float64 {
		return mean + rng.NormFloat64()*stdDev
	}
	ret := &BotState{
		Difficulty:        difficulty,
		AnswerSpeed:       math.Max(MinAnswerSpeed, gauss(tmpl.AnswerSpeedBase/d, tmpl.AnswerSpeedStdDev)),
		AnswerSpeedStdDev: math.Max(0, tmpl.AnswerSpeedStdDev/d),
		Accuracy:          lo.Clamp(gauss(tmpl.AccuracyBase*d, tmpl.AccuracyStdDev), 0, 1),
		SafetyTimeThreshold: math.Max(MinSafetyThreshold,
			gauss(tmpl.SafetyTimeBase*d, tmpl.SafetyTimeStdDev)),
	}
	ret.NextAnswerTime = ret.SampleAnswerDelay(rng)
	return ret
}

// SampleAnswerDelay returns the time until the next answer attempt
func (b *BotState) SampleAnswerDelay(rng RandSource) float64 {
	return math.Max(MinAnswerSpeed, b.AnswerSpeed+rng.NormFloat64()*b.AnswerSpeedStdDev)
}
