package check

import (
	"github.com/spf13/cobra"
)

func NewCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "commands to check race configs and tracks",
	}

	cmd.AddCommand(NewCheckConfigCmd())
	cmd.AddCommand(NewCheckTrackCmd())

	return cmd
}
