package model

// TrackFile is the on-disk description of a track
type TrackFile struct {
	Name      string      `yaml:"name"`
	Lanes     int         `yaml:"lanes"`
	LaneWidth float64     `yaml:"laneWidth"`
	Samples   int         `yaml:"samples"` // resolution of the arc length table, 0 means default
	Points    [][]float64 `yaml:"points"`  // closed list of [x, y] control points
}

type TrackInfo struct {
	Name         string  `json:"name" yaml:"name"`
	Length       float64 `json:"length" yaml:"length"`
	Lanes        int     `json:"lanes" yaml:"lanes"`
	LaneWidth    float64 `json:"laneWidth" yaml:"laneWidth"`
	MaxCurvature float64 `json:"maxCurvature" yaml:"maxCurvature"`
	ApexPos      float64 `json:"apexPos" yaml:"apexPos"`
}
