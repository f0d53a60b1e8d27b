package model

// Snapshot is the read-only view of a race handed to renderers after each tick
type Snapshot struct {
	RaceID   string            `json:"raceId"`
	Tick     int64             `json:"tick"`
	SimTime  float64           `json:"simTime"`
	Alpha    float64           `json:"alpha"` // interpolation fraction toward the next step
	Finished bool              `json:"finished"`
	Vehicles []VehicleSnapshot `json:"vehicles"`
}

type VehicleSnapshot struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Kind       string  `json:"kind"`
	S          float64 `json:"s"`
	V          float64 `json:"v"`
	Lane       int     `json:"lane"`
	TargetLane int     `json:"targetLane"` // -1 if not changing lanes
	Lateral    float64 `json:"lateral"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Heading    float64 `json:"heading"` // radians
	SlipFactor float64 `json:"slipFactor"`
	SlipWobble float64 `json:"slipWobble"`
	Laps       int     `json:"laps"`
}
