// Package processing derives laps, standings, lane stints and race events from
// the snapshots a race produces after each tick.
package processing

import (
	"github.com/mpapenbr/quizrace/pkg/model"
	"github.com/mpapenbr/quizrace/pkg/processing/car"
	"github.com/mpapenbr/quizrace/pkg/processing/race"
)

type Processor struct {
	CurrentData   *model.RaceSummary
	carProcessor  *car.CarProcessor
	raceProcessor *race.RaceProcessor
	raceID        string
	latest        *model.Snapshot
}
type ProcessorOption func(proc *Processor)

// WithRace creates the car and race processors for a race of the given laps on
// a track of the given length.
//
//nolint:whitespace // editor/linter issue
func WithRace(
	raceID string, laps int, trackLength float64, mode race.FinishMode,
) ProcessorOption {
	return func(proc *Processor) {
		proc.raceID = raceID
		proc.carProcessor = car.NewCarProcessor(car.WithLaps(laps))
		proc.raceProcessor = race.NewRaceProcessor(
			race.WithRaceID(raceID),
			race.WithLaps(laps),
			race.WithTrackLength(trackLength),
			race.WithFinishMode(mode),
		)
	}
}

func NewProcessor(opts ...ProcessorOption) *Processor {
	ret := &Processor{}
	for _, opt := range opts {
		opt(ret)
	}
	if ret.carProcessor == nil {
		ret.carProcessor = car.NewCarProcessor()
	}
	if ret.raceProcessor == nil {
		ret.raceProcessor = race.NewRaceProcessor()
	}
	return ret
}

// ProcessSnapshot processes the given snapshot and returns the resulting race events
func (p *Processor) ProcessSnapshot(snap *model.Snapshot) []model.RaceEvent {
	p.carProcessor.ProcessSnapshot(snap)
	events := p.raceProcessor.ProcessSnapshot(snap)
	p.latest = snap
	p.composeRaceSummary()
	return events
}

func (p *Processor) Finished() bool {
	return p.raceProcessor.Finished
}

func (p *Processor) GetData() *model.RaceSummary {
	return p.CurrentData
}

func (p *Processor) composeRaceSummary() {
	raceOrder := p.raceProcessor.RaceOrder // to keep names shorter
	p.CurrentData = &model.RaceSummary{
		RaceID:     p.raceID,
		SimTime:    p.latest.SimTime,
		Finished:   p.raceProcessor.Finished,
		RaceOrder:  raceOrder,
		Standings:  p.raceProcessor.Standings,
		CarLaps:    flattenByReference(p.raceProcessor.CarLaps, raceOrder),
		CarStates:  flattenByReference(p.carProcessor.ComputeState, raceOrder),
		CarStints:  flattenByReference(p.carProcessor.StintLookup, raceOrder),
		CarChanges: flattenByReference(p.carProcessor.ChangeLookup, raceOrder),
		RaceGraph:  p.raceProcessor.RaceGraph,
	}
}

func flattenByReference[E any](data map[string]E, sortReference []string) []E {
	arr := make([]E, 0, len(data))
	for _, k := range sortReference {
		if v, ok := data[k]; ok {
			arr = append(arr, v)
		}
	}
	return arr
}
