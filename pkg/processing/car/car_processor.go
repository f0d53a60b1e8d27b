package car

import (
	"math"

	"github.com/mpapenbr/quizrace/pkg/model"
)

const (
	StateInit   = "INIT"
	StateRun    = "RUN"
	StateChange = "CHANGE" // changing lanes
	StateFinish = "FINISH"
)

type CarProcessor struct {
	ComputeState map[string]model.CarComputeState
	StintLookup  map[string]model.CarLaneStints
	ChangeLookup map[string]model.CarLaneChanges
	// vehicle ids in order of appearance
	Order []string
	laps  int
}

type CarProcessorOption func(cp *CarProcessor)

// WithLaps sets the number of laps after which a vehicle is finished.
// 0 means the race has no lap limit.
func WithLaps(laps int) CarProcessorOption {
	return func(cp *CarProcessor) {
		cp.laps = laps
	}
}

func NewCarProcessor(opts ...CarProcessorOption) *CarProcessor {
	cp := &CarProcessor{
		ComputeState: make(map[string]model.CarComputeState),
		StintLookup:  make(map[string]model.CarLaneStints),
		ChangeLookup: make(map[string]model.CarLaneChanges),
		Order:        make([]string, 0),
	}
	for _, opt := range opts {
		opt(cp)
	}
	return cp
}

// ProcessSnapshots processes multiple snapshots in order (mainly in tests)
func (p *CarProcessor) ProcessSnapshots(snaps []*model.Snapshot) {
	for i := range snaps {
		p.ProcessSnapshot(snaps[i])
	}
}

// ProcessSnapshot is called after each tick of the race
func (p *CarProcessor) ProcessSnapshot(snap *model.Snapshot) {
	for i := range snap.Vehicles {
		vs := &snap.Vehicles[i]
		state, ok := p.ComputeState[vs.ID]
		if !ok {
			state = model.CarComputeState{VehicleID: vs.ID, State: StateInit}
			p.Order = append(p.Order, vs.ID)
		}
		state.TopSpeed = math.Max(state.TopSpeed, vs.V)
		p.handleComputeState(&state, vs, snap.SimTime)
		p.ComputeState[vs.ID] = state
	}
}

//nolint:whitespace // can't make the linters happy
func (p *CarProcessor) handleComputeState(
	state *model.CarComputeState,
	vs *model.VehicleSnapshot,
	simTime float64,
) {
	switch state.State {
	case StateInit:
		p.handleComputeStateInit(state, vs, simTime)
	case StateRun:
		p.handleComputeStateRun(state, vs, simTime)
	case StateChange:
		p.handleComputeStateChange(state, vs, simTime)
	case StateFinish: // nothing to do
	}
}

//nolint:whitespace // can't make the linters happy
func (p *CarProcessor) handleComputeStateInit(
	state *model.CarComputeState,
	vs *model.VehicleSnapshot,
	simTime float64,
) {
	p.StintLookup[vs.ID] = model.CarLaneStints{
		VehicleID: vs.ID,
		Current:   p.newStint(vs, simTime),
		History:   []model.LaneStintInfo{},
	}
	p.ChangeLookup[vs.ID] = model.CarLaneChanges{
		VehicleID: vs.ID,
		History:   []model.LaneChangeInfo{},
	}
	state.State = StateRun
	// a vehicle may already be changing lanes in its first snapshot
	if vs.TargetLane >= 0 {
		p.handleComputeStateRun(state, vs, simTime)
	}
}

//nolint:whitespace // can't make the linters happy
func (p *CarProcessor) handleComputeStateRun(
	state *model.CarComputeState,
	vs *model.VehicleSnapshot,
	simTime float64,
) {
	stint := p.StintLookup[vs.ID]
	// precomputed in case the stint ends now
	stint.Current.ExitTime = simTime
	stint.Current.LapExit = vs.Laps
	stint.Current.StintTime = simTime - stint.Current.EnterTime

	switch {
	case p.isFinished(vs):
		p.finish(state, &stint, nil, simTime)
	case vs.TargetLane >= 0:
		stint.Current.IsCurrentStint = false
		stint.History = append(stint.History, stint.Current)
		stint.Current = model.LaneStintInfo{IsCurrentStint: false}

		changes := p.ChangeLookup[vs.ID]
		changes.Current = model.LaneChangeInfo{
			From:      vs.Lane,
			To:        vs.TargetLane,
			StartTime: simTime,
			EndTime:   simTime,
			Lap:       vs.Laps,
			IsCurrent: true,
		}
		p.ChangeLookup[vs.ID] = changes
		state.State = StateChange
	case vs.Lane != stint.Current.Lane:
		// change started and completed within a single tick
		stint.Current.IsCurrentStint = false
		stint.History = append(stint.History, stint.Current)
		changes := p.ChangeLookup[vs.ID]
		changes.History = append(changes.History, model.LaneChangeInfo{
			From:      stint.Current.Lane,
			To:        vs.Lane,
			StartTime: simTime,
			EndTime:   simTime,
			Lap:       vs.Laps,
		})
		p.ChangeLookup[vs.ID] = changes
		stint.Current = p.newStint(vs, simTime)
	}
	p.StintLookup[vs.ID] = stint
}

//nolint:whitespace // can't make the linters happy
func (p *CarProcessor) handleComputeStateChange(
	state *model.CarComputeState,
	vs *model.VehicleSnapshot,
	simTime float64,
) {
	changes := p.ChangeLookup[vs.ID]
	changes.Current.EndTime = simTime
	changes.Current.Duration = simTime - changes.Current.StartTime

	if vs.TargetLane < 0 {
		changes.Current.IsCurrent = false
		changes.History = append(changes.History, changes.Current)
		changes.Current = model.LaneChangeInfo{IsCurrent: false}

		stints := p.StintLookup[vs.ID]
		stints.Current = p.newStint(vs, simTime)
		if p.isFinished(vs) {
			p.finish(state, &stints, nil, simTime)
		} else {
			state.State = StateRun
		}
		p.StintLookup[vs.ID] = stints
	} else if p.isFinished(vs) {
		p.finish(state, nil, &changes, simTime)
	}
	p.ChangeLookup[vs.ID] = changes
}

//nolint:whitespace // can't make the linters happy
func (p *CarProcessor) finish(
	state *model.CarComputeState,
	stint *model.CarLaneStints,
	change *model.CarLaneChanges,
	simTime float64,
) {
	if stint != nil && stint.Current.IsCurrentStint {
		stint.Current.IsCurrentStint = false
		stint.History = append(stint.History, stint.Current)
		stint.Current = model.LaneStintInfo{}
	}
	if change != nil && change.Current.IsCurrent {
		change.Current.IsCurrent = false
		change.History = append(change.History, change.Current)
		change.Current = model.LaneChangeInfo{}
	}
	state.State = StateFinish
	state.FinishTime = simTime
}

func (p *CarProcessor) isFinished(vs *model.VehicleSnapshot) bool {
	return p.laps > 0 && vs.Laps >= p.laps
}

func (p *CarProcessor) newStint(vs *model.VehicleSnapshot, simTime float64) model.LaneStintInfo {
	return model.LaneStintInfo{
		Lane:           vs.Lane,
		EnterTime:      simTime,
		ExitTime:       simTime,
		LapEnter:       vs.Laps,
		LapExit:        vs.Laps,
		IsCurrentStint: true,
	}
}
