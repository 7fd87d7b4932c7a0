// Package credential rotates between a primary and an optional secondary
// API key when the provider rejects calls for quota reasons.
package credential

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/MimeLyc/gemini-sub-translator/pkg/log"
)

// DefaultCooldown is the wait applied when no alternate key is usable.
const DefaultCooldown = 60 * time.Second

// State of the failover machine.
type State int

const (
	UsingPrimary State = iota
	UsingSecondary
	Exhausted
)

func (s State) String() string {
	switch s {
	case UsingPrimary:
		return "UsingPrimary"
	case UsingSecondary:
		return "UsingSecondary"
	case Exhausted:
		return "Exhausted"
	default:
		return "Unknown"
	}
}

// Sleeper blocks for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Pair is the configured primary and optional secondary key.
type Pair struct {
	Primary   string
	Secondary string
}

// Switch describes what a quota failure caused.
type Switch struct {
	From   int
	To     int
	Waited time.Duration
}

func (s Switch) String() string {
	if s.From == s.To {
		return fmt.Sprintf("retrying key %d after %s cooldown", s.To, s.Waited)
	}
	if s.Waited > 0 {
		return fmt.Sprintf("switched from key %d to key %d after %s cooldown", s.From, s.To, s.Waited)
	}
	return fmt.Sprintf("switched from key %d to key %d", s.From, s.To)
}

// Pending describes the switch before it happens.
func (s Switch) Pending() string {
	switch {
	case s.From == s.To:
		return fmt.Sprintf("waiting %s before retrying key %d", s.Waited, s.To)
	case s.Waited > 0:
		return fmt.Sprintf("waiting %s before switching from key %d to key %d", s.Waited, s.From, s.To)
	}
	return fmt.Sprintf("switching from key %d to key %d", s.From, s.To)
}

// Failover tracks which key is active. It is safe for concurrent use.
type Failover struct {
	keys     Pair
	cooldown time.Duration
	sleep    Sleeper

	mu     sync.Mutex
	state  State
	active int
	failed map[int]bool
}

// Option configures a Failover.
type Option func(*Failover)

// WithCooldown overrides DefaultCooldown.
func WithCooldown(d time.Duration) Option {
	return func(f *Failover) {
		if d > 0 {
			f.cooldown = d
		}
	}
}

// WithSleeper replaces the wait used during cooldown.
func WithSleeper(s Sleeper) Option {
	return func(f *Failover) {
		if s != nil {
			f.sleep = s
		}
	}
}

// New creates a failover starting on the primary key.
func New(keys Pair, opts ...Option) (*Failover, error) {
	if keys.Primary == "" {
		return nil, fmt.Errorf("primary API key is required")
	}
	f := &Failover{
		keys:     keys,
		cooldown: DefaultCooldown,
		sleep:    sleepContext,
		state:    UsingPrimary,
		active:   1,
		failed:   make(map[int]bool),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// Key returns the API key to use for the next call.
func (f *Failover) Key() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.keyFor(f.active)
}

// Slot returns the active slot, 1 for primary and 2 for secondary.
func (f *Failover) Slot() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.active
}

// State returns the current state.
func (f *Failover) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// HasSecondary reports whether a secondary key is configured.
func (f *Failover) HasSecondary() bool {
	return f.keys.Secondary != ""
}

// MarkSuccess records an accepted call on the active key.
func (f *Failover) MarkSuccess() {
	f.mu.Lock()
	defer f.mu.Unlock()
	clear(f.failed)
}

// HandleQuota reacts to a quota error on the active key. With a secondary
// key configured it switches to the other slot, waiting out the cooldown
// first when both keys have failed since the last success. Without one it
// waits the cooldown and stays on the primary key. hint, when longer than
// the cooldown, replaces it. notify, when set, receives the planned switch
// before any cooldown starts.
func (f *Failover) HandleQuota(ctx context.Context, hint time.Duration, notify func(Switch)) (Switch, error) {
	f.mu.Lock()
	from := f.active
	f.failed[from] = true

	to := from
	if f.HasSecondary() {
		to = 3 - from
	}
	mustWait := !f.HasSecondary() || f.failed[to]

	wait := time.Duration(0)
	if mustWait {
		wait = max(f.cooldown, hint)
		f.state = Exhausted
		clear(f.failed)
	} else {
		f.setActive(to)
	}
	f.mu.Unlock()

	sw := Switch{From: from, To: to, Waited: wait}
	if notify != nil {
		notify(sw)
	}
	if !mustWait {
		log.Warn("quota exceeded on key %d, %s", from, sw)
		return sw, nil
	}

	log.Warn("quota exceeded on key %d, cooling down for %s", from, wait)
	err := f.sleep(ctx, wait)

	f.mu.Lock()
	f.setActive(to)
	f.mu.Unlock()

	return sw, err
}

func (f *Failover) setActive(slot int) {
	f.active = slot
	if slot == 2 {
		f.state = UsingSecondary
	} else {
		f.state = UsingPrimary
	}
}

func (f *Failover) keyFor(slot int) string {
	if slot == 2 {
		return f.keys.Secondary
	}
	return f.keys.Primary
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
