// Package state persists tuned batch sizes per backend so a generate run
// can reuse the result of an earlier optimize run.
package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/algovanity/algovanity/internal/config"
)

var ErrLockTimeout = errors.New("state lock timeout")

const (
	lockRetryDelay = 50 * time.Millisecond
	lockTimeout    = 5 * time.Second
)

// Tuned records the best measured batch size for a backend.
type Tuned struct {
	BatchSize  int    `json:"batch_size"`
	Throughput int    `json:"throughput"`
	UpdatedAt  string `json:"updated_at"`
}

type stateFile struct {
	Tuned map[string]Tuned `json:"tuned"`
}

// Get returns the tuned entry for a backend, if one has been saved.
func Get(backend string) (Tuned, bool, error) {
	if backend == "" {
		return Tuned{}, false, errors.New("backend name is required")
	}

	var (
		tuned Tuned
		found bool
	)
	err := withLock(func() error {
		state, err := readState()
		if err != nil {
			return err
		}
		tuned, found = state.Tuned[backend]
		return nil
	})

	return tuned, found, err
}

// Set upserts the tuned entry for a backend.
func Set(backend string, tuned Tuned) error {
	if backend == "" {
		return errors.New("backend name is required")
	}
	if tuned.UpdatedAt == "" {
		tuned.UpdatedAt = time.Now().Format(time.RFC3339)
	}

	return withLock(func() error {
		state, err := readState()
		if err != nil {
			return err
		}
		state.Tuned[backend] = tuned
		return writeState(state)
	})
}

func statePath() (string, error) {
	if path, ok := os.LookupEnv("ALGOVANITY_STATE_FILE"); ok && path != "" {
		return path, nil
	}

	dir := config.Dir()
	if dir == "" {
		return "", errors.New("state directory is not available")
	}
	return filepath.Join(dir, "tuned.json"), nil
}

func readState() (*stateFile, error) {
	path, err := statePath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return &stateFile{Tuned: map[string]Tuned{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read state file: %w", err)
	}

	state := &stateFile{}
	if err := json.Unmarshal(data, state); err != nil {
		return nil, fmt.Errorf("parse state file: %w", err)
	}
	if state.Tuned == nil {
		state.Tuned = map[string]Tuned{}
	}
	return state, nil
}

func writeState(state *stateFile) error {
	path, err := statePath()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace state file: %w", err)
	}
	return nil
}

func withLock(fn func() error) error {
	path, err := statePath()
	if err != nil {
		return err
	}
	lockPath := path + ".lock"

	if err := os.MkdirAll(filepath.Dir(lockPath), 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	deadline := time.Now().Add(lockTimeout)
	for {
		file, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
		if err == nil {
			file.Close()
			defer os.Remove(lockPath)
			return fn()
		}
		if !errors.Is(err, os.ErrExist) {
			return fmt.Errorf("acquire state lock: %w", err)
		}
		if time.Now().After(deadline) {
			return ErrLockTimeout
		}
		time.Sleep(lockRetryDelay)
	}
}
