package race

import (
	"math/rand"

	"github.com/mpapenbr/quizrace/pkg/model"
)

// AutoAnswer stands in for the quiz of a vehicle. It answers in fixed intervals
// of simulation time with the given accuracy. Answers go through the same queue
// as those of a real quiz.
type AutoAnswer struct {
	race     *Race
	index    int
	interval float64
	accuracy float64
	next     float64
	rng      *rand.Rand
}

//nolint:whitespace // editor/linter issue
func NewAutoAnswer(
	r *Race, vehicleIndex int, interval, accuracy float64, seed int64,
) *AutoAnswer {
	return &AutoAnswer{
		race:     r,
		index:    vehicleIndex,
		interval: interval,
		accuracy: accuracy,
		next:     interval,
		rng:      newRand(seed),
	}
}

func (a *AutoAnswer) OnTick(snap *model.Snapshot, _ []model.RaceEvent) {
	if a.interval <= 0 || snap.Finished || snap.SimTime < a.next {
		return
	}
	a.next = snap.SimTime + a.interval
	if a.rng.Float64() < a.accuracy {
		a.race.OnCorrectAnswer(a.index)
	} else {
		a.race.OnIncorrectAnswer(a.index)
	}
}
