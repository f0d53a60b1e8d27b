package model

type EventType int

const (
	ETEmpty        EventType = 0
	ETRaceStarted  EventType = 1
	ETLapCompleted EventType = 2
	ETRaceFinished EventType = 3
	ETAnswer       EventType = 4 // quiz answer resolved (bot or player)
	ETLaneChange   EventType = 5 // lane change started
)

func (e EventType) String() string {
	switch e {
	case ETRaceStarted:
		return "raceStarted"
	case ETLapCompleted:
		return "lapCompleted"
	case ETRaceFinished:
		return "raceFinished"
	case ETAnswer:
		return "answer"
	case ETLaneChange:
		return "laneChange"
	default:
		return "empty"
	}
}
