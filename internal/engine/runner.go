package engine

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"runtime"
	"strings"
	"sync"

	"github.com/algorand/go-algorand-sdk/v2/types"
	"golang.org/x/sync/errgroup"
)

const seedBufferCap = 4096

// Runner drives one configured search instance. It is double-buffered:
// Step launches the next batch before returning the previous batch's
// results, so the very first Step on a fresh runner returns (0, false).
// A Runner has a single owner; Step and Close must not be called
// concurrently.
type Runner struct {
	device   *Device
	prefixes []string
	batch    int
	workers  int
	sink     Callback

	seeds   chan [ed25519.SeedSize]byte
	pending chan batchResult
	cancel  context.CancelFunc
	ctx     context.Context

	inflight bool
	done     bool
	closed   bool
}

type batchResult struct {
	processed int
	matches   [][]byte
	err       error
}

// Runner builds a runner for the given batch size and concurrency values.
// Zero values select the backend defaults. Construction is the heavyweight
// step: it spawns the seed workers that feed key material to the batch
// workers.
func (s *Search) Runner(batch, seedConcurrency, workerConcurrency int, sink Callback) *Runner {
	if batch <= 0 {
		batch = s.device.DefaultBatch
	}
	if seedConcurrency <= 0 {
		seedConcurrency = s.device.SeedWorkers
	}
	if seedConcurrency <= 0 {
		seedConcurrency = 1
	}
	if workerConcurrency <= 0 {
		workerConcurrency = s.device.BatchWorkers
	}
	if workerConcurrency <= 0 {
		workerConcurrency = runtime.NumCPU()
	}

	buffer := batch
	if buffer > seedBufferCap {
		buffer = seedBufferCap
	}

	ctx, cancel := context.WithCancel(context.Background())
	r := &Runner{
		device:   s.device,
		prefixes: s.prefixes,
		batch:    batch,
		workers:  workerConcurrency,
		sink:     sink,
		seeds:    make(chan [ed25519.SeedSize]byte, buffer),
		pending:  make(chan batchResult, 1),
		cancel:   cancel,
		ctx:      ctx,
	}

	for i := 0; i < seedConcurrency; i++ {
		go r.seedLoop()
	}

	return r
}

// BatchSize returns the effective configured batch size.
func (r *Runner) BatchSize() int {
	return r.batch
}

// Step processes one batch of candidate keys. It returns the number of
// candidates evaluated and whether the search has finished. done becomes
// true only once the bound callback has signalled stop.
func (r *Runner) Step() (int, bool) {
	if r.done || r.closed {
		return 0, true
	}

	if !r.inflight {
		r.launch()
		r.inflight = true
		return 0, false
	}

	result := <-r.pending
	r.inflight = false
	if result.err != nil {
		r.done = true
		return result.processed, true
	}

	for _, key := range result.matches {
		if r.sink != nil && !r.sink.Found(key) {
			r.done = true
			break
		}
	}
	if r.done {
		return result.processed, true
	}

	r.launch()
	r.inflight = true
	return result.processed, false
}

// Close stops the seed workers and waits for any in-flight batch.
func (r *Runner) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	r.cancel()
	if r.inflight {
		<-r.pending
		r.inflight = false
	}
	return nil
}

func (r *Runner) seedLoop() {
	for {
		var seed [ed25519.SeedSize]byte
		// crypto/rand does not fail on supported platforms
		if _, err := rand.Read(seed[:]); err != nil {
			panic(err)
		}

		select {
		case <-r.ctx.Done():
			return
		case r.seeds <- seed:
		}
	}
}

// launch starts one batch in the background. The result is buffered so the
// batch can complete even if the owner closes the runner before collecting.
func (r *Runner) launch() {
	collect := r.sink != nil

	go func() {
		var (
			mu      sync.Mutex
			matches [][]byte
		)

		g := new(errgroup.Group)
		share := r.batch / r.workers
		extra := r.batch % r.workers
		for w := 0; w < r.workers; w++ {
			n := share
			if w < extra {
				n++
			}
			if n == 0 {
				continue
			}

			g.Go(func() error {
				for i := 0; i < n; i++ {
					var seed [ed25519.SeedSize]byte
					select {
					case <-r.ctx.Done():
						return r.ctx.Err()
					case seed = <-r.seeds:
					}

					key := ed25519.NewKeyFromSeed(seed[:])
					address := encodeAddress(key.Public().(ed25519.PublicKey))
					// discovery mode (no sink) still pays for matching
					if r.matches(address) && collect {
						mu.Lock()
						matches = append(matches, []byte(key))
						mu.Unlock()
					}
				}
				return nil
			})
		}

		err := g.Wait()
		r.pending <- batchResult{processed: r.batch, matches: matches, err: err}
	}()
}

func (r *Runner) matches(address string) bool {
	if len(r.prefixes) == 0 {
		return true
	}
	for _, prefix := range r.prefixes {
		if strings.HasPrefix(address, prefix) {
			return true
		}
	}
	return false
}

func encodeAddress(pub ed25519.PublicKey) string {
	var address types.Address
	copy(address[:], pub)
	return address.String()
}
