package race

import (
	"errors"
	"fmt"

	"github.com/samber/lo"

	"github.com/mpapenbr/quizrace/pkg/model"
	"github.com/mpapenbr/quizrace/pkg/sim/track"
)

const (
	DefaultCarLength = 4.5
	DefaultCarWidth  = 2.0
)

var ErrInvalidSetup = errors.New("invalid race setup")

// GameState owns the track and all vehicles of a race.
// Vehicles keep their order for the lifetime of the race.
type GameState struct {
	track    *track.Track
	vehicles []*model.Vehicle
	player   int
}

// NewGameState builds the vehicles from their setup. Exactly one vehicle must be the player.
// Bots without an explicit difficulty draw one uniformly from the configured range.
//
//nolint:whitespace // editor/linter issue
func NewGameState(
	cfg *model.RaceConfig, tr *track.Track, rng model.RandSource,
) (*GameState, error) {
	players := lo.CountBy(cfg.Vehicles, func(v model.VehicleSetup) bool { return v.Player })
	if players != 1 {
		return nil, fmt.Errorf("%w: need exactly one player, got %d", ErrInvalidSetup, players)
	}
	ret := &GameState{track: tr, vehicles: make([]*model.Vehicle, 0, len(cfg.Vehicles))}
	botNum := 0
	for i, setup := range cfg.Vehicles {
		if !tr.ValidLane(setup.Lane) {
			return nil, fmt.Errorf("%w: vehicle %d: lane %d not in [0,%d)",
				ErrInvalidSetup, i, setup.Lane, tr.NumLanes())
		}
		if setup.V < 0 {
			return nil, fmt.Errorf("%w: vehicle %d: negative speed", ErrInvalidSetup, i)
		}
		v := &model.Vehicle{
			ID:        fmt.Sprintf("car%d", i),
			Name:      setup.Name,
			S:         track.Wrap(setup.S, tr.Length()),
			V:         setup.V,
			Lane:      setup.Lane,
			Lateral:   tr.LaneOffset(setup.Lane),
			CarLength: lo.Ternary(setup.CarLength > 0, setup.CarLength, DefaultCarLength),
			CarWidth:  lo.Ternary(setup.CarWidth > 0, setup.CarWidth, DefaultCarWidth),
		}
		if setup.Player {
			v.Kind = model.KindPlayer
			v.Name = lo.Ternary(v.Name != "", v.Name, "Player")
			ret.player = i
		} else {
			botNum++
			v.Kind = model.KindBot
			v.Name = lo.Ternary(v.Name != "", v.Name, fmt.Sprintf("Bot %d", botNum))
			difficulty := setup.Difficulty
			if difficulty <= 0 {
				difficulty = cfg.Difficulty.Min +
					rng.Float64()*(cfg.Difficulty.Max-cfg.Difficulty.Min)
			}
			v.Bot = model.NewBotState(cfg.BotTemplate, difficulty, rng)
		}
		ret.vehicles = append(ret.vehicles, v)
	}
	return ret, nil
}

func (g *GameState) Track() *track.Track { return g.track }

// Vehicles returns all vehicles in race order of setup. The slice must not be modified.
func (g *GameState) Vehicles() []*model.Vehicle { return g.vehicles }

func (g *GameState) Len() int { return len(g.vehicles) }

func (g *GameState) Player() *model.Vehicle { return g.vehicles[g.player] }

func (g *GameState) PlayerIndex() int { return g.player }

func (g *GameState) Bots() []*model.Vehicle {
	return lo.Filter(g.vehicles, func(v *model.Vehicle, _ int) bool { return v.IsBot() })
}

func (g *GameState) VehicleByIndex(i int) (*model.Vehicle, bool) {
	if i < 0 || i >= len(g.vehicles) {
		return nil, false
	}
	return g.vehicles[i], true
}

func (g *GameState) VehicleByID(id string) (*model.Vehicle, bool) {
	return lo.Find(g.vehicles, func(v *model.Vehicle) bool { return v.ID == id })
}

// Others returns all vehicles except v
func (g *GameState) Others(v *model.Vehicle) []*model.Vehicle {
	return lo.Filter(g.vehicles, func(o *model.Vehicle, _ int) bool { return o != v })
}
