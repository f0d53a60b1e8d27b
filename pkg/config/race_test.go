package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpapenbr/quizrace/pkg/model"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadRaceConfigDefaults(t *testing.T) {
	cfg, err := LoadRaceConfig("")
	require.NoError(t, err)
	assert.InDelta(t, 1.0/60, cfg.Dt, 1e-12)
	assert.Equal(t, 0.25, cfg.MaxFrameDelta)
	assert.Equal(t, 3, cfg.Laps)
	assert.Equal(t, 0.8, cfg.PenaltyFactor)
	assert.Equal(t, 9.0, cfg.Physics.BaseMu)
	assert.Equal(t, 3, cfg.Track.Lanes)
	assert.Equal(t, DefaultVehicles(), cfg.Vehicles)
}

func TestLoadRaceConfigFile(t *testing.T) {
	path := writeFile(t, "race.yml", `
version: 1.0.0
seed: 7
laps: 5
physics:
  vMax: 70
  baseMu: 12
difficulty:
  min: 0.5
  max: 2
track:
  file: tracks/ring.yml
  lanes: 2
vehicles:
  - name: Me
    player: true
    lane: 1
    v: 15
  - s: 30
    difficulty: 1.5
`)
	cfg, err := LoadRaceConfig(path)
	require.NoError(t, err)
	assert.Equal(t, int64(7), cfg.Seed)
	assert.Equal(t, 5, cfg.Laps)
	assert.Equal(t, 70.0, cfg.Physics.VMax)
	assert.Equal(t, 12.0, cfg.Physics.BaseMu)
	assert.Equal(t, 20.0, cfg.Physics.VMin, "defaults apply to missing keys")
	assert.Equal(t, model.DifficultyRange{Min: 0.5, Max: 2}, cfg.Difficulty)
	assert.Equal(t, "tracks/ring.yml", cfg.Track.File)
	assert.Equal(t, 2, cfg.Track.Lanes)
	assert.Equal(t, 3.5, cfg.Track.LaneWidth)
	assert.Equal(t, []model.VehicleSetup{
		{Name: "Me", Player: true, Lane: 1, V: 15},
		{S: 30, Difficulty: 1.5},
	}, cfg.Vehicles)
	assert.Equal(t, filepath.Dir(path), BaseDir(path))
	assert.Equal(t, ".", BaseDir(""))
}

func TestLoadRaceConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    error
	}{
		{"future major", "version: 2.0.0\n", ErrUnsupportedConfigVersion},
		{"invalid version", "version: latest\n", ErrUnsupportedConfigVersion},
		{"no player", "vehicles:\n  - lane: 0\n", ErrInvalidConfig},
		{"bad penalty", "penaltyFactor: 1.5\n", ErrInvalidConfig},
		{"bad lane", "vehicles:\n  - player: true\n    lane: 3\n", ErrInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadRaceConfig(writeFile(t, "race.yml", tt.content))
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
	t.Run("missing file", func(t *testing.T) {
		_, err := LoadRaceConfig(filepath.Join(t.TempDir(), "missing.yml"))
		assert.Error(t, err)
	})
}

func TestCheckConfigVersion(t *testing.T) {
	tests := []struct {
		version string
		wantErr bool
	}{
		{"1.0.0", false},
		{"v1.0.0", false},
		{"0.9.0", true},
		{"1.1.0", true},
		{"2.0.0", true},
		{"", true},
		{"abc", true},
	}
	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			err := CheckConfigVersion(tt.version)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnsupportedConfigVersion)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateRaceConfigReportsAll(t *testing.T) {
	cfg, err := LoadRaceConfig("")
	require.NoError(t, err)
	cfg.Dt = 0
	cfg.Physics.TauA = 0
	err = ValidateRaceConfig(cfg)
	require.ErrorIs(t, err, ErrInvalidConfig)
	assert.Contains(t, err.Error(), "dt must be positive")
	assert.Contains(t, err.Error(), "physics.tauA must be positive")
}

func TestValidateRaceConfigPhysics(t *testing.T) {
	tests := []struct {
		name   string
		modify func(p *model.PhysicsParams)
		want   string
	}{
		{
			"vMax zero",
			func(p *model.PhysicsParams) { p.VMin, p.VMax = 0, 0 },
			"physics.vMax must be positive",
		},
		{
			"aBase negative",
			func(p *model.PhysicsParams) { p.ABase = -1 },
			"physics.aBase must not be negative",
		},
		{
			"beta negative",
			func(p *model.PhysicsParams) { p.Beta = -2 },
			"physics.beta must not be negative",
		},
		{
			"vKappaScale zero",
			func(p *model.PhysicsParams) { p.VKappaScale = 0 },
			"physics.vKappaScale must be positive",
		},
		{
			"vKappaScale negative",
			func(p *model.PhysicsParams) { p.VKappaScale = -1 },
			"physics.vKappaScale must be positive",
		},
		{
			"kKappaBrake negative",
			func(p *model.PhysicsParams) { p.KKappaBrake = -3 },
			"physics.kKappaBrake must not be negative",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadRaceConfig("")
			require.NoError(t, err)
			require.NoError(t, ValidateRaceConfig(cfg))
			tt.modify(&cfg.Physics)
			err = ValidateRaceConfig(cfg)
			require.ErrorIs(t, err, ErrInvalidConfig)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
