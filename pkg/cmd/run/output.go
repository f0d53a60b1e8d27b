package run

import (
	"fmt"
	"io"
	"path/filepath"
	"text/tabwriter"

	"github.com/mpapenbr/quizrace/pkg/model"
	"github.com/mpapenbr/quizrace/pkg/publish"
	"github.com/mpapenbr/quizrace/pkg/sim/race"
)

// printLaps writes a line for each completed lap until frames is closed
func printLaps(out io.Writer, state *race.GameState, frames <-chan publish.Frame) {
	for f := range frames {
		for _, e := range f.Events {
			if e.Type != model.ETLapCompleted {
				continue
			}
			name := e.VehicleID
			if v, ok := state.VehicleByID(e.VehicleID); ok {
				name = v.Name
			}
			fmt.Fprintf(out, "%8.2fs  %-10s lap %d  %.3fs\n", e.SimTime, name, e.Lap, e.LapTime)
		}
	}
}

func printStandings(out io.Writer, summary *model.RaceSummary) {
	if summary == nil {
		return
	}
	status := "running"
	if summary.Finished {
		status = "finished"
	}
	fmt.Fprintf(out, "\nrace %s %s after %.2fs\n", summary.RaceID, status, summary.SimTime)
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "Pos\tVehicle\tLaps\tGap\tBest lap\t\t")
	for _, s := range summary.Standings {
		flag := ""
		if s.Finished {
			flag = "F"
		}
		fmt.Fprintf(w, "%d\t%s\t%d\t%.3f\t%.3f\t%s\t\n",
			s.Pos, s.Name, s.Laps, s.Gap, s.BestLap, flag)
	}
	w.Flush()
}

func resolve(baseDir, file string) string {
	if filepath.IsAbs(file) {
		return file
	}
	return filepath.Join(baseDir, file)
}
