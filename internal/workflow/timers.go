package workflow

import (
	"context"
	"errors"
	"sync"
	"time"

	"voiceowl/backend/internal/logging"
)

// Stage is one delayed action in a timer chain. The action receives the
// chain's context, which is cancelled when the chain is disarmed; the action
// must check it after entering its own critical section and return
// context.Canceled to abort silently. Returning any other error stops the
// chain without arming the next stage.
type Stage struct {
	Delay  time.Duration
	Action func(ctx context.Context) error
}

type chain struct {
	ctx    context.Context
	cancel context.CancelFunc
	timer  *time.Timer
}

// TimerRegistry owns, per entity id, at most one live chain of scheduled
// actions. Arm atomically replaces any prior chain for the id; Disarm is
// idempotent and best-effort: an action that has already started executing
// is not unwound, only future stages are prevented.
type TimerRegistry struct {
	mu     sync.Mutex
	chains map[string]*chain
	logger *logging.Logger
}

// NewTimerRegistry creates an empty TimerRegistry.
func NewTimerRegistry(logger *logging.Logger) *TimerRegistry {
	return &TimerRegistry{
		chains: make(map[string]*chain),
		logger: logger,
	}
}

// Arm tears down any live chain for id and schedules the given stages as
// the new chain, as a single operation: there is no window in which two
// chains are live for the same id. Arming zero stages is equivalent to
// Disarm.
func (r *TimerRegistry) Arm(id string, stages []Stage) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.disarmLocked(id)
	if len(stages) == 0 {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &chain{ctx: ctx, cancel: cancel}
	c.timer = time.AfterFunc(stages[0].Delay, func() {
		r.fire(id, c, stages, 0)
	})
	r.chains[id] = c
}

// Disarm cancels the live chain for id, if any. Disarming an id with no
// live chain is a no-op.
func (r *TimerRegistry) Disarm(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.disarmLocked(id)
}

// Armed reports whether a chain is currently live for id.
func (r *TimerRegistry) Armed(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.chains[id]
	return ok
}

// Len returns the number of live chains.
func (r *TimerRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.chains)
}

// Stop disarms every live chain. Called on shutdown; pending
// auto-transitions are dropped (they only live in process memory).
func (r *TimerRegistry) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id := range r.chains {
		r.disarmLocked(id)
	}
}

func (r *TimerRegistry) disarmLocked(id string) {
	c, ok := r.chains[id]
	if !ok {
		return
	}
	c.cancel()
	if c.timer != nil {
		c.timer.Stop()
	}
	delete(r.chains, id)
}

// fire runs one stage and, if the chain is still live afterwards, arms the
// next stage under the same id.
func (r *TimerRegistry) fire(id string, c *chain, stages []Stage, idx int) {
	if err := stages[idx].Action(c.ctx); err != nil {
		if !errors.Is(err, context.Canceled) {
			r.logger.Error("timer stage failed", "id", id, "stage", idx, "error", err)
		}
		r.remove(id, c)
		return
	}
	if c.ctx.Err() != nil {
		// Disarmed while the action was running; the action's own effect
		// stands (best-effort cancellation), but no further stages fire.
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.chains[id] != c {
		// Replaced by a newer chain while this stage ran.
		return
	}
	if idx+1 < len(stages) {
		c.timer = time.AfterFunc(stages[idx+1].Delay, func() {
			r.fire(id, c, stages, idx+1)
		})
	} else {
		delete(r.chains, id)
	}
}

func (r *TimerRegistry) remove(id string, c *chain) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.chains[id] == c {
		delete(r.chains, id)
	}
}
