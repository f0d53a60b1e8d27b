package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"golang.org/x/mod/semver"

	"github.com/mpapenbr/quizrace/pkg/model"
)

// SupportedConfigVersion is the highest race config version this build understands.
// Configs with the same major version are accepted.
const SupportedConfigVersion = "v1.0.0"

var (
	ErrUnsupportedConfigVersion = errors.New("unsupported config version")
	ErrInvalidConfig            = errors.New("invalid race config")
)

//nolint:funlen // defaults
func setRaceDefaults(v *viper.Viper) {
	v.SetDefault("version", "1.0.0")
	v.SetDefault("seed", 1)
	v.SetDefault("dt", 1.0/60)
	v.SetDefault("maxFrameDelta", 0.25)
	v.SetDefault("laps", 3)
	v.SetDefault("laneChangeDuration", 0.6)
	v.SetDefault("correctReward", 150)
	v.SetDefault("penaltyFactor", 0.8)

	v.SetDefault("physics.vMin", 20)
	v.SetDefault("physics.vMax", 90)
	v.SetDefault("physics.aBase", 25)
	v.SetDefault("physics.tauA", 2)
	v.SetDefault("physics.beta", 2)
	v.SetDefault("physics.vBonus", 100)
	v.SetDefault("physics.kappaEps", 1e-4)
	v.SetDefault("physics.vKappaScale", 1)
	v.SetDefault("physics.baseMu", 9)
	v.SetDefault("physics.kKappaBrake", 3)
	v.SetDefault("physics.slipDecay", 1.5)
	v.SetDefault("physics.slipWobbleAmp", 0.3)
	v.SetDefault("physics.slipWobbleFreq", 3)
	v.SetDefault("physics.slipVelocityDecay", 2)
	v.SetDefault("physics.momentumTransfer", 0.05)

	v.SetDefault("botTemplate.answerSpeedBase", 6)
	v.SetDefault("botTemplate.answerSpeedStdDev", 1.5)
	v.SetDefault("botTemplate.accuracyBase", 0.7)
	v.SetDefault("botTemplate.accuracyStdDev", 0.1)
	v.SetDefault("botTemplate.safetyTimeBase", 2)
	v.SetDefault("botTemplate.safetyTimeStdDev", 0.5)

	v.SetDefault("difficulty.min", 0.8)
	v.SetDefault("difficulty.max", 1.2)

	v.SetDefault("track.lanes", 3)
	v.SetDefault("track.laneWidth", 3.5)
	v.SetDefault("track.oval.straight", 300)
	v.SetDefault("track.oval.radius", 80)
}

// DefaultVehicles puts the player in the middle lane with three bots ahead
func DefaultVehicles() []model.VehicleSetup {
	return []model.VehicleSetup{
		{Player: true, S: 0, V: 20, Lane: 1},
		{S: 20, V: 20, Lane: 0},
		{S: 40, V: 20, Lane: 2},
		{S: 60, V: 20, Lane: 1},
	}
}

// LoadRaceConfig reads the race config from file. Missing values are taken
// from the defaults. An empty file name returns the default race.
func LoadRaceConfig(file string) (*model.RaceConfig, error) {
	v := viper.New()
	setRaceDefaults(v)
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("could not read race config %s: %w", file, err)
		}
	}
	cfg := &model.RaceConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("could not decode race config: %w", err)
	}
	if err := CheckConfigVersion(cfg.Version); err != nil {
		return nil, err
	}
	if len(cfg.Vehicles) == 0 {
		cfg.Vehicles = DefaultVehicles()
	}
	if err := ValidateRaceConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// BaseDir returns the directory relative track files of the race config are resolved against
func BaseDir(file string) string {
	if file == "" {
		return "."
	}
	return filepath.Dir(file)
}

func CheckConfigVersion(toCheck string) error {
	if !strings.HasPrefix(toCheck, "v") {
		toCheck = "v" + toCheck
	}
	if !semver.IsValid(toCheck) {
		return fmt.Errorf("%w: %q is not a semantic version", ErrUnsupportedConfigVersion, toCheck)
	}
	if semver.Major(toCheck) != semver.Major(SupportedConfigVersion) ||
		semver.Compare(toCheck, SupportedConfigVersion) > 0 {
		return fmt.Errorf("%w: %s (supported up to %s)",
			ErrUnsupportedConfigVersion, toCheck, SupportedConfigVersion)
	}
	return nil
}

// ValidateRaceConfig reports all invalid values of cfg at once
//
//nolint:cyclop // flat list of checks
func ValidateRaceConfig(cfg *model.RaceConfig) error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}
	p := cfg.Physics
	check(cfg.Dt > 0, "dt must be positive, got %v", cfg.Dt)
	check(cfg.MaxFrameDelta >= cfg.Dt, "maxFrameDelta must be >= dt, got %v", cfg.MaxFrameDelta)
	check(cfg.Laps >= 0, "laps must not be negative, got %d", cfg.Laps)
	check(cfg.LaneChangeDuration >= 0,
		"laneChangeDuration must not be negative, got %v", cfg.LaneChangeDuration)
	check(cfg.PenaltyFactor >= 0 && cfg.PenaltyFactor <= 1,
		"penaltyFactor must be in [0,1], got %v", cfg.PenaltyFactor)
	check(cfg.CorrectReward >= 0, "correctReward must not be negative, got %v", cfg.CorrectReward)
	check(p.VMin >= 0 && p.VMin <= p.VMax,
		"physics: need 0 <= vMin <= vMax, got %v and %v", p.VMin, p.VMax)
	check(p.VMax > 0, "physics.vMax must be positive, got %v", p.VMax)
	check(p.ABase >= 0, "physics.aBase must not be negative, got %v", p.ABase)
	check(p.Beta >= 0, "physics.beta must not be negative, got %v", p.Beta)
	check(p.VKappaScale > 0, "physics.vKappaScale must be positive, got %v", p.VKappaScale)
	check(p.KKappaBrake >= 0, "physics.kKappaBrake must not be negative, got %v", p.KKappaBrake)
	check(p.TauA > 0, "physics.tauA must be positive, got %v", p.TauA)
	check(p.BaseMu > 0, "physics.baseMu must be positive, got %v", p.BaseMu)
	check(p.KappaEps > 0, "physics.kappaEps must be positive, got %v", p.KappaEps)
	check(cfg.Difficulty.Min > 0 && cfg.Difficulty.Min <= cfg.Difficulty.Max,
		"difficulty: need 0 < min <= max, got %v and %v", cfg.Difficulty.Min, cfg.Difficulty.Max)
	check(cfg.Track.Lanes > 0, "track.lanes must be positive, got %d", cfg.Track.Lanes)
	check(cfg.Track.LaneWidth > 0, "track.laneWidth must be positive, got %v", cfg.Track.LaneWidth)
	players := 0
	for i, veh := range cfg.Vehicles {
		if veh.Player {
			players++
		}
		check(veh.Lane >= 0 && veh.Lane < cfg.Track.Lanes,
			"vehicles[%d]: lane %d not in [0,%d)", i, veh.Lane, cfg.Track.Lanes)
		check(veh.V >= 0, "vehicles[%d]: negative speed %v", i, veh.V)
	}
	check(players == 1, "need exactly one player, got %d", players)
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}
