package model

type LapInfo struct {
	LapNo   int     `json:"lapNo"`
	LapTime float64 `json:"lapTime"`
}

type CarLaps struct {
	VehicleID string    `json:"vehicleId"`
	Laps      []LapInfo `json:"laps"`
}

// Standing is the position of a vehicle in the race order
type Standing struct {
	Pos       int     `json:"pos"`
	VehicleID string  `json:"vehicleId"`
	Name      string  `json:"name"`
	Laps      int     `json:"laps"`
	S         float64 `json:"s"`
	Gap       float64 `json:"gap"` // distance behind the leader along the track
	BestLap   float64 `json:"bestLap"`
	Finished  bool    `json:"finished"`
}

type GapInfo struct {
	VehicleID string  `json:"vehicleId"`
	Laps      int     `json:"laps"`
	Pos       int     `json:"pos"`
	Gap       float64 `json:"gap"`
}

// RaceGraph holds the gaps of all vehicles when the leader completed LapNo
type RaceGraph struct {
	LapNo int       `json:"lapNo"`
	Gaps  []GapInfo `json:"gaps"`
}

type CarComputeState struct {
	VehicleID  string  `json:"vehicleId"`
	State      string  `json:"state"`
	TopSpeed   float64 `json:"topSpeed"`
	FinishTime float64 `json:"finishTime"`
}

// LaneStintInfo is a period a vehicle spent in a single lane
type LaneStintInfo struct {
	Lane           int     `json:"lane"`
	EnterTime      float64 `json:"enterTime"`
	ExitTime       float64 `json:"exitTime"`
	LapEnter       int     `json:"lapEnter"`
	LapExit        int     `json:"lapExit"`
	StintTime      float64 `json:"stintTime"`
	IsCurrentStint bool    `json:"isCurrentStint"`
}

type CarLaneStints struct {
	VehicleID string          `json:"vehicleId"`
	Current   LaneStintInfo   `json:"current"`
	History   []LaneStintInfo `json:"history"`
}

type LaneChangeInfo struct {
	From      int     `json:"from"`
	To        int     `json:"to"`
	StartTime float64 `json:"startTime"`
	EndTime   float64 `json:"endTime"`
	Duration  float64 `json:"duration"`
	Lap       int     `json:"lap"`
	IsCurrent bool    `json:"isCurrent"`
}

type CarLaneChanges struct {
	VehicleID string           `json:"vehicleId"`
	Current   LaneChangeInfo   `json:"current"`
	History   []LaneChangeInfo `json:"history"`
}

// RaceSummary is the aggregated analysis of a race
type RaceSummary struct {
	RaceID     string            `json:"raceId"`
	SimTime    float64           `json:"simTime"`
	Finished   bool              `json:"finished"`
	RaceOrder  []string          `json:"raceOrder"`
	Standings  []Standing        `json:"standings"`
	CarLaps    []CarLaps         `json:"carLaps"`
	CarStates  []CarComputeState `json:"carStates"`
	CarStints  []CarLaneStints   `json:"carStints"`
	CarChanges []CarLaneChanges  `json:"carChanges"`
	RaceGraph  []RaceGraph       `json:"raceGraph"`
}
