package session

import "sync"

// stateCell holds the current State and fans changes out to subscribers.
// Subscribers see the latest value; intermediate values may be skipped.
type stateCell struct {
	mu    sync.RWMutex
	value State
	subs  map[int]chan State
	next  int
}

func newStateCell(initial State) *stateCell {
	return &stateCell{value: initial.clone(), subs: make(map[int]chan State)}
}

func (c *stateCell) get() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.value.clone()
}

func (c *stateCell) set(s State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value = s.clone()
	for _, ch := range c.subs {
		// drop the stale value, if any, so the send never blocks
		select {
		case <-ch:
		default:
		}
		ch <- c.value.clone()
	}
}

func (c *stateCell) subscribe() (<-chan State, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.next
	c.next++
	ch := make(chan State, 1)
	ch <- c.value.clone()
	c.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			delete(c.subs, id)
			close(ch)
		})
	}
	return ch, cancel
}
