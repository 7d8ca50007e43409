// Package gate provides a thin admission layer serializing entry into a
// request handler via a file-based mutual-exclusion lock, so that two
// supervisor instances sharing an install directory cannot race
// (spec.md §4.5).
package gate

import (
	"fmt"

	"github.com/gofrs/flock"
)

// Gate owns a single file lock, acquired for the duration of each request.
type Gate struct {
	lockPath string
}

// New returns a Gate that locks lockPath. The file is created on first
// acquisition if it does not exist.
func New(lockPath string) *Gate {
	return &Gate{lockPath: lockPath}
}

// Acquire blocks until the lock is held and returns a release function.
// Callers must invoke it on every exit path (spec.md §4.5 "The file lock
// is released on every exit path").
func (g *Gate) Acquire() (release func(), err error) {
	fl := flock.New(g.lockPath)
	if err := fl.Lock(); err != nil {
		return nil, fmt.Errorf("acquiring request gate lock %q: %w", g.lockPath, err)
	}
	return func() {
		_ = fl.Unlock()
	}, nil
}
