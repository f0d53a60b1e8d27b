package check

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mpapenbr/quizrace/log"
	"github.com/mpapenbr/quizrace/pkg/config"
	"github.com/mpapenbr/quizrace/pkg/sim/dynamics"
	"github.com/mpapenbr/quizrace/pkg/sim/track"
)

func NewCheckConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "validate the race config and print it with all defaults applied",
		RunE: func(cmd *cobra.Command, args []string) error {
			return checkConfig(cmd.OutOrStdout(), config.RaceConfigFile)
		},
	}
	return cmd
}

func checkConfig(out io.Writer, file string) error {
	logger := log.Default().Named("check")
	cfg, err := config.LoadRaceConfig(file)
	if err != nil {
		return err
	}
	logger.Debug("race config loaded", log.String("file", file))
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if _, err = out.Write(data); err != nil {
		return err
	}
	tr, err := track.FromRef(cfg.Track, config.BaseDir(file))
	if err != nil {
		return err
	}
	fmt.Fprintln(out, "---")
	return printTrack(out, tr, dynamics.NewCarController(cfg.Physics))
}
