package hunt

import (
	"context"
	"errors"
	"io"
	"math/rand/v2"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/algovanity/algovanity/internal/engine"
)

// BuildFunc constructs a fresh sink-less runner for one measurement trial.
type BuildFunc func(batchSize int) (StepRunner, error)

// Trial is one finalized (batch size, throughput) sample. Improved is set
// when the sample beat the best seen so far.
type Trial struct {
	BatchSize  int
	Throughput float64
	Improved   bool
}

// Best is the highest-throughput sample seen in a run. It only ever
// increases across trials.
type Best struct {
	BatchSize  int
	Throughput float64
}

// Optimizer searches the batch-size space for the size with maximum
// sustained throughput. In ordered mode it sweeps from the aligned minimum
// to the aligned maximum in preferred-multiple steps; otherwise it samples
// the range uniformly at random until the context is cancelled.
type Optimizer struct {
	Min int

	// Max bounds the sweep; 0 selects DeviceMax.
	Max int

	// DeviceMax is the backend's maximum feasible batch size, already
	// aligned to Multiple.
	DeviceMax int

	// Multiple is the backend's preferred batch multiple.
	Multiple int

	Ordered bool

	Build BuildFunc

	// Report is invoked once per finalized trial, improving or not.
	Report func(Trial)

	// test seams; nil selects the real clock and random source
	now      func() time.Time
	randIntN func(n int) int
}

// Run executes trials until the ordered sweep completes or ctx is
// cancelled. Cancellation is only observed at trial boundaries, so an
// in-flight trial always finishes and is reported.
func (o *Optimizer) Run(ctx context.Context) (Best, error) {
	if o.Build == nil {
		return Best{}, errors.New("build function is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	now := o.now
	if now == nil {
		now = time.Now
	}
	randIntN := o.randIntN
	if randIntN == nil {
		randIntN = rand.IntN
	}

	multiple := o.Multiple
	if multiple <= 0 {
		multiple = 1
	}

	min := engine.AlignBatchSize(o.Min, multiple)
	max := o.Max
	if max == 0 {
		max = o.DeviceMax
	} else {
		max = engine.AlignBatchSize(max, multiple)
	}

	best := Best{}
	current := min

	for ctx.Err() == nil {
		if !o.Ordered {
			width := max - min
			offset := 0
			if width > 0 {
				offset = randIntN(width)
			}
			current = engine.AlignBatchSize(min+offset, multiple)
		}

		runner, err := o.Build(current)
		if err != nil {
			return best, err
		}

		logrus.WithField("batch_size", current).Debug("starting trial")
		throughput := measure(runner, now)
		closeRunner(runner)

		trial := Trial{BatchSize: current, Throughput: throughput}
		if throughput > best.Throughput {
			best = Best{BatchSize: current, Throughput: throughput}
			trial.Improved = true
		}
		if o.Report != nil {
			o.Report(trial)
		}

		if o.Ordered {
			current += multiple
			if current > max {
				break
			}
		}
	}

	return best, nil
}

// measure preheats the runner past its warm-up, then times steps until the
// measurement stabilizes: the trial is accepted once the work done is at
// least one second's worth at the observed rate and the truncated
// throughput is positive.
func measure(r StepRunner, now func() time.Time) float64 {
	preheat := 0
	for preheat <= r.BatchSize()*2 {
		processed, _ := r.Step()
		preheat += processed
	}

	start := now()
	total := 0
	for {
		processed, _ := r.Step()
		total += processed

		elapsed := now().Sub(start)
		if elapsed == 0 {
			continue
		}

		throughput := float64(total) / elapsed.Seconds()
		if int(throughput) > 0 && float64(total) >= throughput {
			return throughput
		}
	}
}

func closeRunner(r StepRunner) {
	if closer, ok := r.(io.Closer); ok {
		_ = closer.Close()
	}
}
