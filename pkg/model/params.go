package model

// PhysicsParams are the tunables of the vehicle dynamics.
//
//nolint:lll // readability
type PhysicsParams struct {
	VMin              float64 `mapstructure:"vMin" yaml:"vMin"`                           // soft speed floor, no decay below
	VMax              float64 `mapstructure:"vMax" yaml:"vMax"`                           // hard speed ceiling
	ABase             float64 `mapstructure:"aBase" yaml:"aBase"`                         // max reward driven acceleration
	TauA              float64 `mapstructure:"tauA" yaml:"tauA"`                           // reward decay time constant (s)
	Beta              float64 `mapstructure:"beta" yaml:"beta"`                           // constant deceleration above vMin
	VBonus            float64 `mapstructure:"vBonus" yaml:"vBonus"`                       // reward at which half of aBase applies
	KappaEps          float64 `mapstructure:"kappaEps" yaml:"kappaEps"`                   // curvature floor
	VKappaScale       float64 `mapstructure:"vKappaScale" yaml:"vKappaScale"`             // scales the curve speed ceiling
	BaseMu            float64 `mapstructure:"baseMu" yaml:"baseMu"`                       // grip, lateral accel budget
	KKappaBrake       float64 `mapstructure:"kKappaBrake" yaml:"kKappaBrake"`             // gain pulling v toward curve ceiling
	SlipDecay         float64 `mapstructure:"slipDecay" yaml:"slipDecay"`                 // per second decay of slip factor
	SlipWobbleAmp     float64 `mapstructure:"slipWobbleAmp" yaml:"slipWobbleAmp"`         // wobble amplitude at full slip
	SlipWobbleFreq    float64 `mapstructure:"slipWobbleFreq" yaml:"slipWobbleFreq"`       // wobble frequency (Hz)
	SlipVelocityDecay float64 `mapstructure:"slipVelocityDecay" yaml:"slipVelocityDecay"` // per second decay of skid velocity
	MomentumTransfer  float64 `mapstructure:"momentumTransfer" yaml:"momentumTransfer"`   // share of excess lateral demand fed into skid
}

// BotTemplate holds the base values bots are sampled from
type BotTemplate struct {
	AnswerSpeedBase   float64 `mapstructure:"answerSpeedBase" yaml:"answerSpeedBase"`
	AnswerSpeedStdDev float64 `mapstructure:"answerSpeedStdDev" yaml:"answerSpeedStdDev"`
	AccuracyBase      float64 `mapstructure:"accuracyBase" yaml:"accuracyBase"`
	AccuracyStdDev    float64 `mapstructure:"accuracyStdDev" yaml:"accuracyStdDev"`
	SafetyTimeBase    float64 `mapstructure:"safetyTimeBase" yaml:"safetyTimeBase"`
	SafetyTimeStdDev  float64 `mapstructure:"safetyTimeStdDev" yaml:"safetyTimeStdDev"`
}

type DifficultyRange struct {
	Min float64 `mapstructure:"min" yaml:"min"`
	Max float64 `mapstructure:"max" yaml:"max"`
}

type VehicleSetup struct {
	Name      string  `mapstructure:"name" yaml:"name"`
	Player    bool    `mapstructure:"player" yaml:"player"`
	S         float64 `mapstructure:"s" yaml:"s"`
	V         float64 `mapstructure:"v" yaml:"v"`
	Lane      int     `mapstructure:"lane" yaml:"lane"`
	CarLength float64 `mapstructure:"carLength" yaml:"carLength"`
	CarWidth  float64 `mapstructure:"carWidth" yaml:"carWidth"`
	// Difficulty overrides the random draw from the difficulty range when > 0
	Difficulty float64 `mapstructure:"difficulty" yaml:"difficulty"`
}

// RaceConfig is the complete, resolved configuration of a race
//
//nolint:lll // readability
type RaceConfig struct {
	Version            string          `mapstructure:"version" yaml:"version"`
	Seed               int64           `mapstructure:"seed" yaml:"seed"`
	Dt                 float64         `mapstructure:"dt" yaml:"dt"`
	MaxFrameDelta      float64         `mapstructure:"maxFrameDelta" yaml:"maxFrameDelta"` // seconds
	Laps               int             `mapstructure:"laps" yaml:"laps"`
	LaneChangeDuration float64         `mapstructure:"laneChangeDuration" yaml:"laneChangeDuration"`
	CorrectReward      float64         `mapstructure:"correctReward" yaml:"correctReward"`
	PenaltyFactor      float64         `mapstructure:"penaltyFactor" yaml:"penaltyFactor"`
	Physics            PhysicsParams   `mapstructure:"physics" yaml:"physics"`
	BotTemplate        BotTemplate     `mapstructure:"botTemplate" yaml:"botTemplate"`
	Difficulty         DifficultyRange `mapstructure:"difficulty" yaml:"difficulty"`
	Vehicles           []VehicleSetup  `mapstructure:"vehicles" yaml:"vehicles"`
	Track              TrackRef        `mapstructure:"track" yaml:"track"`
}

// TrackRef references a track file or describes a generated oval
type TrackRef struct {
	File      string  `mapstructure:"file" yaml:"file,omitempty"`
	Lanes     int     `mapstructure:"lanes" yaml:"lanes"`
	LaneWidth float64 `mapstructure:"laneWidth" yaml:"laneWidth"`
	// used when no file is given
	Oval OvalSpec `mapstructure:"oval" yaml:"oval"`
}

type OvalSpec struct {
	Straight float64 `mapstructure:"straight" yaml:"straight"`
	Radius   float64 `mapstructure:"radius" yaml:"radius"`
}
