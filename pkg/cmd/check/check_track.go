package check

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mpapenbr/quizrace/pkg/config"
	"github.com/mpapenbr/quizrace/pkg/sim/dynamics"
	"github.com/mpapenbr/quizrace/pkg/sim/track"
)

func NewCheckTrackCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "track file",
		Short: "print length, lanes and curve speed limits of a track file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return checkTrack(cmd.OutOrStdout(), args[0])
		},
	}
	return cmd
}

func checkTrack(out io.Writer, file string) error {
	tr, err := track.Load(file)
	if err != nil {
		return err
	}
	// the physics of the race config decide about the curve speed
	cfg, err := config.LoadRaceConfig(config.RaceConfigFile)
	if err != nil {
		return err
	}
	return printTrack(out, tr, dynamics.NewCarController(cfg.Physics))
}

type trackReport struct {
	Track         any     `yaml:"track"`
	ApexSpeed     float64 `yaml:"apexSpeed"`     // m/s
	ApexSpeedKmh  float64 `yaml:"apexSpeedKmh"`  // km/h
	MinLapTime    float64 `yaml:"minLapTime"`    // at vMax, ignoring curves
	LaneOffsetMin float64 `yaml:"laneOffsetMin"` // lateral offset of lane 0
	LaneOffsetMax float64 `yaml:"laneOffsetMax"`
}

func printTrack(out io.Writer, tr *track.Track, cars *dynamics.CarController) error {
	info := tr.Info()
	apex := cars.CurveSpeed(info.MaxCurvature)
	report := trackReport{
		Track:         info,
		ApexSpeed:     apex,
		ApexSpeedKmh:  apex * 3.6,
		LaneOffsetMin: tr.LaneOffset(0),
		LaneOffsetMax: tr.LaneOffset(tr.NumLanes() - 1),
	}
	if vMax := cars.Params().VMax; vMax > 0 {
		report.MinLapTime = info.Length / vMax
	}
	data, err := yaml.Marshal(report)
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(out, string(data))
	return err
}
