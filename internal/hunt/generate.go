// Package hunt contains the drivers on top of the search engine: the
// generate loop that streams matches to a sink, and the batch-size
// optimizer that measures sustained throughput across the batch-size
// space.
package hunt

import (
	"time"
)

// StepRunner is the engine surface the drivers need. engine.Runner
// satisfies it.
type StepRunner interface {
	Step() (processed int, done bool)
	BatchSize() int
}

// Progress is a rolling throughput snapshot reported after a step.
type Progress struct {
	Elapsed time.Duration
	Total   int

	// Average is candidates per second since the run started.
	Average float64

	// Last is candidates per second for the most recent step.
	Last float64
}

// Drive steps r until it reports done and returns the total number of
// candidates processed. When progress is non-nil it is invoked after every
// non-terminal step once any work has been done.
func Drive(r StepRunner, progress func(Progress)) int {
	return drive(r, progress, time.Now)
}

func drive(r StepRunner, progress func(Progress), now func() time.Time) int {
	start := now()
	total := 0

	for {
		stepStart := now()
		processed, done := r.Step()
		total += processed

		if progress != nil && !done && total > 0 {
			end := now()
			elapsed := end.Sub(start)
			stepElapsed := end.Sub(stepStart)
			if elapsed > 0 && stepElapsed > 0 {
				progress(Progress{
					Elapsed: elapsed,
					Total:   total,
					Average: float64(total) / elapsed.Seconds(),
					Last:    float64(r.BatchSize()) / stepElapsed.Seconds(),
				})
			}
		}

		if done {
			return total
		}
	}
}
