package interval

import (
	"sync"
	"sync/atomic"
)

// Build states.
const (
	stateDirty int32 = iota
	stateBuilding
	stateBuilt
)

// coordinator runs at most one build at a time and lets readers skip the
// lock once the index is built. The zero value is dirty.
type coordinator struct {
	mu    sync.Mutex
	state atomic.Int32
}

// ensure runs build unless the index is already built. Concurrent callers
// wait for the running build and then see it complete. A failed build
// leaves the state dirty so the next caller retries.
func (c *coordinator) ensure(build func() error) error {
	if c.state.Load() == stateBuilt {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Load() == stateBuilt {
		return nil
	}

	c.state.Store(stateBuilding)

	if err := build(); err != nil {
		c.state.Store(stateDirty)

		return err
	}

	c.state.Store(stateBuilt)

	return nil
}

// invalidate marks the index stale after a mutation.
func (c *coordinator) invalidate() {
	c.state.Store(stateDirty)
}

func (c *coordinator) built() bool {
	return c.state.Load() == stateBuilt
}
