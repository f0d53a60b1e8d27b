package run

import (
	"bufio"
	"context"
	"io"
	"strings"

	"github.com/mpapenbr/quizrace/log"
	"github.com/mpapenbr/quizrace/pkg/sim/race"
)

type command int

const (
	cmdCorrect command = iota
	cmdIncorrect
	cmdLeft
	cmdRight
)

func parseCommand(line string) (command, bool) {
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "c", "correct":
		return cmdCorrect, true
	case "x", "wrong":
		return cmdIncorrect, true
	case "l", "left":
		return cmdLeft, true
	case "r", "right":
		return cmdRight, true
	default:
		return 0, false
	}
}

// readCommands sends the commands read from in to ch until in is exhausted
// or ctx is done. Unknown input is skipped.
func readCommands(ctx context.Context, in io.Reader, ch chan<- command) {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		c, ok := parseCommand(scanner.Text())
		if !ok {
			log.Debug("unknown command", log.String("input", scanner.Text()))
			continue
		}
		select {
		case ch <- c:
		case <-ctx.Done():
			return
		}
	}
}

func applyCommands(ctx context.Context, rc *race.Race, ch <-chan command) {
	player := rc.State().PlayerIndex()
	for {
		select {
		case <-ctx.Done():
			return
		case c := <-ch:
			switch c {
			case cmdCorrect:
				rc.OnCorrectAnswer(player)
			case cmdIncorrect:
				rc.OnIncorrectAnswer(player)
			case cmdLeft:
				rc.RequestLaneChange(-1)
			case cmdRight:
				rc.RequestLaneChange(1)
			}
		}
	}
}
