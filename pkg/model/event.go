package model

// RaceEvent is emitted by the race for collaborators (minigames, feeds, logging)
type RaceEvent struct {
	Type      EventType  `json:"type"`
	RaceID    string     `json:"raceId"`
	SimTime   float64    `json:"simTime"`
	VehicleID string     `json:"vehicleId,omitempty"`
	Lap       int        `json:"lap,omitempty"`
	LapTime   float64    `json:"lapTime,omitempty"`
	Correct   bool       `json:"correct,omitempty"`
	Direction int        `json:"direction,omitempty"`
	Standings []Standing `json:"standings,omitempty"`
}
