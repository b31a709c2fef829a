// Package engine generates candidate Algorand accounts in batches and
// matches their addresses against a set of desired prefixes. A Context
// selects a compute backend, a Search holds a compiled prefix set, and a
// Runner drives one configured search instance. Runners are exclusively
// owned: Step must never be called from more than one goroutine.
package engine

import (
	"errors"
	"fmt"
	"strings"
)

// addressAlphabet is the base32 alphabet Algorand addresses are encoded in.
const addressAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ234567"

// addressLength is the length of an encoded Algorand address.
const addressLength = 58

var (
	ErrInvalidPrefix = errors.New("prefix contains characters outside the address alphabet")
	ErrPrefixTooLong = errors.New("prefix is longer than an encoded address")
)

// Callback receives each matched key. Returning false stops the search;
// once a callback returns false no further keys are delivered.
type Callback interface {
	Found(key []byte) bool
}

// Device describes a compute backend's batch geometry and defaults.
type Device struct {
	Name string

	// PreferredMultiple is the alignment granularity batch sizes must
	// respect for the backend to run at full efficiency.
	PreferredMultiple int

	// MaxBatch is the largest feasible batch size before alignment.
	MaxBatch int

	// DefaultBatch is used when a runner is built with batch size 0.
	DefaultBatch int

	// SeedWorkers and BatchWorkers are the default concurrency values
	// applied when a runner is built with 0. BatchWorkers 0 falls back
	// to the number of logical CPUs at build time.
	SeedWorkers  int
	BatchWorkers int
}

// Context represents a selected compute backend.
type Context struct {
	device *Device
}

// NewContext selects the CPU-assist backend when cpuAssist is set,
// otherwise the default pipeline backend.
func NewContext(cpuAssist bool) (*Context, error) {
	name := DefaultName()
	if cpuAssist {
		name = cpuBackendName
	}

	device, ok := Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrBackendNotFound, name)
	}

	return &Context{device: device}, nil
}

// Device returns the selected backend.
func (c *Context) Device() *Device {
	return c.device
}

// PreferredMultiple returns the backend's batch alignment granularity.
func (c *Context) PreferredMultiple() int {
	return c.device.PreferredMultiple
}

// Prepare compiles a prefix set into a Search. Blank prefixes are
// normalized away; an empty result matches every address.
func (c *Context) Prepare(prefixes []string) (*Search, error) {
	cleaned := PreparePrefixes(prefixes)
	for _, prefix := range cleaned {
		if err := validatePrefix(prefix); err != nil {
			return nil, err
		}
	}

	return &Search{device: c.device, prefixes: cleaned}, nil
}

// Search is an immutable compiled prefix set bound to a backend. It may
// instantiate any number of independent runners.
type Search struct {
	device   *Device
	prefixes []string
}

// Prefixes returns the normalized prefix set.
func (s *Search) Prefixes() []string {
	return s.prefixes
}

// PreparePrefixes trims surrounding whitespace and drops blank entries.
func PreparePrefixes(prefixes []string) []string {
	cleaned := make([]string, 0, len(prefixes))
	for _, prefix := range prefixes {
		trimmed := strings.TrimSpace(prefix)
		if trimmed == "" {
			continue
		}
		cleaned = append(cleaned, trimmed)
	}
	return cleaned
}

// AlignBatchSize rounds n up to the nearest multiple. Already-aligned
// values are returned unchanged.
func AlignBatchSize(n, multiple int) int {
	if multiple <= 0 {
		return n
	}
	return (n + multiple - 1) / multiple * multiple
}

// MaxBatchSize returns the largest batch size the device supports that is
// still a multiple of the preferred multiple.
func MaxBatchSize(device *Device, multiple int) int {
	if multiple <= 0 {
		return device.MaxBatch
	}
	return device.MaxBatch / multiple * multiple
}

func validatePrefix(prefix string) error {
	if len(prefix) > addressLength {
		return fmt.Errorf("%w: %q", ErrPrefixTooLong, prefix)
	}
	for _, r := range prefix {
		if !strings.ContainsRune(addressAlphabet, r) {
			return fmt.Errorf("%w: %q", ErrInvalidPrefix, prefix)
		}
	}
	return nil
}
