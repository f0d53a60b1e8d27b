package race

import (
	"slices"

	"github.com/shopspring/decimal"

	"github.com/mpapenbr/quizrace/pkg/model"
)

// FinishMode decides when the race as a whole is finished
type FinishMode int

const (
	// race ends when the player completes the laps, or the first vehicle if there is no player
	FinishOnPlayer FinishMode = iota
	// race ends when the first vehicle completes the laps
	FinishOnLeader
)

type RaceProcessor struct {
	// vehicle ids
	RaceOrder   []string
	Standings   []model.Standing
	CarLaps     map[string]model.CarLaps // key vehicle id
	RaceGraph   []model.RaceGraph
	FinishOrder []string
	Finished    bool

	raceID      string
	laps        int
	trackLength float64
	finishMode  FinishMode
	started     bool
	lastLaps    map[string]int
	lapStart    map[string]float64
}

type RaceProcessorOption func(rp *RaceProcessor)

func WithRaceID(id string) RaceProcessorOption {
	return func(rp *RaceProcessor) {
		rp.raceID = id
	}
}

func WithLaps(laps int) RaceProcessorOption {
	return func(rp *RaceProcessor) {
		rp.laps = laps
	}
}

func WithTrackLength(length float64) RaceProcessorOption {
	return func(rp *RaceProcessor) {
		rp.trackLength = length
	}
}

func WithFinishMode(mode FinishMode) RaceProcessorOption {
	return func(rp *RaceProcessor) {
		rp.finishMode = mode
	}
}

func NewRaceProcessor(opts ...RaceProcessorOption) *RaceProcessor {
	ret := &RaceProcessor{
		RaceOrder:   make([]string, 0),
		CarLaps:     make(map[string]model.CarLaps),
		RaceGraph:   make([]model.RaceGraph, 0),
		FinishOrder: make([]string, 0),
		lastLaps:    make(map[string]int),
		lapStart:    make(map[string]float64),
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

// ProcessSnapshot processes the state after a tick and returns the events
// derived from it.
func (p *RaceProcessor) ProcessSnapshot(snap *model.Snapshot) []model.RaceEvent {
	events := make([]model.RaceEvent, 0)
	if !p.started {
		p.started = true
		for i := range snap.Vehicles {
			p.lastLaps[snap.Vehicles[i].ID] = snap.Vehicles[i].Laps
			p.lapStart[snap.Vehicles[i].ID] = snap.SimTime
		}
		events = append(events, p.newEvent(model.ETRaceStarted, snap.SimTime))
	}
	if p.Finished {
		return events
	}

	events = append(events, p.processCarLaps(snap)...)
	p.processRaceOrder(snap)
	p.processRaceGraph(snap)

	if p.checkFinished(snap) {
		p.Finished = true
		e := p.newEvent(model.ETRaceFinished, snap.SimTime)
		e.Standings = slices.Clone(p.Standings)
		events = append(events, e)
	}
	return events
}

func (p *RaceProcessor) processCarLaps(snap *model.Snapshot) []model.RaceEvent {
	var events []model.RaceEvent
	for i := range snap.Vehicles {
		vs := &snap.Vehicles[i]
		last, ok := p.lastLaps[vs.ID]
		if !ok {
			// vehicle joined late
			p.lastLaps[vs.ID] = vs.Laps
			p.lapStart[vs.ID] = snap.SimTime
			continue
		}
		if vs.Laps <= last {
			continue
		}
		carEntry, ok := p.CarLaps[vs.ID]
		if !ok {
			carEntry = model.CarLaps{
				VehicleID: vs.ID,
				Laps:      make([]model.LapInfo, 0),
			}
		}
		// more than one lap per tick is not expected, the time goes to the last one
		lapTime := roundTime(snap.SimTime - p.lapStart[vs.ID])
		for lap := last + 1; lap <= vs.Laps; lap++ {
			lt := 0.0
			if lap == vs.Laps {
				lt = lapTime
			}
			carEntry.Laps = append(carEntry.Laps, model.LapInfo{LapNo: lap, LapTime: lt})
			e := p.newEvent(model.ETLapCompleted, snap.SimTime)
			e.VehicleID = vs.ID
			e.Lap = lap
			e.LapTime = lt
			events = append(events, e)
		}
		p.CarLaps[vs.ID] = carEntry
		p.lastLaps[vs.ID] = vs.Laps
		p.lapStart[vs.ID] = snap.SimTime

		if p.laps > 0 && vs.Laps >= p.laps && !slices.Contains(p.FinishOrder, vs.ID) {
			p.FinishOrder = append(p.FinishOrder, vs.ID)
		}
	}
	return events
}

// finished vehicles first in order of finishing, then by distance covered
func (p *RaceProcessor) processRaceOrder(snap *model.Snapshot) {
	entries := slices.Clone(snap.Vehicles)
	finishPos := func(id string) int {
		if idx := slices.Index(p.FinishOrder, id); idx != -1 {
			return idx
		}
		return len(p.FinishOrder)
	}
	slices.SortStableFunc(entries, func(a, b model.VehicleSnapshot) int {
		if fa, fb := finishPos(a.ID), finishPos(b.ID); fa != fb {
			return fa - fb
		}
		da, db := p.distance(&a), p.distance(&b)
		switch {
		case da > db:
			return -1
		case da < db:
			return 1
		default:
			return 0
		}
	})

	p.RaceOrder = make([]string, 0, len(entries))
	p.Standings = make([]model.Standing, 0, len(entries))
	var leader float64
	for i := range entries {
		vs := &entries[i]
		if i == 0 {
			leader = p.distance(vs)
		}
		p.RaceOrder = append(p.RaceOrder, vs.ID)
		p.Standings = append(p.Standings, model.Standing{
			Pos:       i + 1,
			VehicleID: vs.ID,
			Name:      vs.Name,
			Laps:      vs.Laps,
			S:         vs.S,
			Gap:       roundTime(leader - p.distance(vs)),
			BestLap:   p.bestLap(vs.ID),
			Finished:  slices.Contains(p.FinishOrder, vs.ID),
		})
	}
}

// a new race graph entry is recorded each time the leader completes a lap
func (p *RaceProcessor) processRaceGraph(snap *model.Snapshot) {
	if len(p.Standings) == 0 {
		return
	}
	leaderLaps := p.Standings[0].Laps
	if leaderLaps == 0 {
		return
	}
	if idx := slices.IndexFunc(p.RaceGraph, func(item model.RaceGraph) bool {
		return item.LapNo == leaderLaps
	}); idx != -1 {
		return
	}
	entry := model.RaceGraph{
		LapNo: leaderLaps,
		Gaps:  make([]model.GapInfo, 0, len(p.Standings)),
	}
	for _, s := range p.Standings {
		entry.Gaps = append(entry.Gaps, model.GapInfo{
			VehicleID: s.VehicleID,
			Laps:      s.Laps,
			Pos:       s.Pos,
			Gap:       s.Gap,
		})
	}
	p.RaceGraph = append(p.RaceGraph, entry)
}

func (p *RaceProcessor) checkFinished(snap *model.Snapshot) bool {
	if p.laps <= 0 || len(p.FinishOrder) == 0 {
		return false
	}
	if p.finishMode == FinishOnLeader {
		return true
	}
	player := slices.IndexFunc(snap.Vehicles, func(vs model.VehicleSnapshot) bool {
		return vs.Kind == model.KindPlayer.String()
	})
	if player == -1 {
		return true
	}
	return slices.Contains(p.FinishOrder, snap.Vehicles[player].ID)
}

func (p *RaceProcessor) bestLap(id string) float64 {
	laps := p.CarLaps[id].Laps
	best := 0.0
	for _, l := range laps {
		if l.LapTime > 0 && (best == 0 || l.LapTime < best) {
			best = l.LapTime
		}
	}
	return best
}

func (p *RaceProcessor) distance(vs *model.VehicleSnapshot) float64 {
	return float64(vs.Laps)*p.trackLength + vs.S
}

func (p *RaceProcessor) newEvent(t model.EventType, simTime float64) model.RaceEvent {
	return model.RaceEvent{Type: t, RaceID: p.raceID, SimTime: simTime}
}

// roundTime rounds to milliseconds (or millimeters for distances)
func roundTime(v float64) float64 {
	return decimal.NewFromFloat(v).Round(3).InexactFloat64()
}
