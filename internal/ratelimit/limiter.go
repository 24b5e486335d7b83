// TownPulse - Community Engagement and Trending Engine
// Copyright 2026 TownPulse contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/townpulse/townpulse

// Package ratelimit implements per-caller sliding window admission for
// event ingestion. Each caller gets two independent windows: one for
// views and one for every other action. Admission is a single
// check-and-increment under the counter's lock, so concurrent requests
// for one caller cannot double-spend the remaining budget.
//
// This limiter protects write semantics, not the HTTP perimeter; the
// router applies its own per-IP limits on top.
package ratelimit

import (
	"fmt"
	"sync"
	"time"

	"github.com/townpulse/townpulse/internal/models"
)

// Class separates the view budget from the interaction budget.
type Class string

const (
	ClassView     Class = "view"
	ClassInteract Class = "interact"
)

// ClassForAction maps an action onto its rate limit class.
func ClassForAction(action models.Action) Class {
	if action == models.ActionView {
		return ClassView
	}
	return ClassInteract
}

// RateLimitedError reports a denied event with the wait until capacity
// frees up.
type RateLimitedError struct {
	CallerKey  string
	Class      Class
	Limit      int64
	RetryAfter time.Duration
}

// Error implements the error interface.
func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limit exceeded for %s actions: retry after %ds",
		e.Class, e.RetryAfterSeconds())
}

// RetryAfterSeconds returns the wait rounded up to whole seconds,
// never less than 1.
func (e *RateLimitedError) RetryAfterSeconds() int {
	secs := int((e.RetryAfter + time.Second - 1) / time.Second)
	if secs < 1 {
		return 1
	}
	return secs
}

// Config holds limiter tuning.
type Config struct {
	// Window is the sliding window length for both classes.
	Window time.Duration

	// ViewLimit is the maximum view events per caller per window.
	ViewLimit int64

	// InteractLimit is the maximum non-view events per caller per window.
	InteractLimit int64

	// NumBuckets divides the window for the circular counters.
	NumBuckets int

	// MaxCallers bounds limiter memory; 0 means unlimited.
	MaxCallers int

	// InactiveAfter is how long an idle caller's state survives before
	// the sweep removes it.
	InactiveAfter time.Duration

	// SweepInterval is how often the background sweep runs.
	SweepInterval time.Duration
}

// DefaultConfig returns the standard ingestion limits: 100 views and
// 30 interactions per caller per rolling 60 seconds.
func DefaultConfig() Config {
	return Config{
		Window:        60 * time.Second,
		ViewLimit:     100,
		InteractLimit: 30,
		NumBuckets:    12,
		MaxCallers:    100000,
		InactiveAfter: 5 * time.Minute,
		SweepInterval: time.Minute,
	}
}

// windowCounter is a bucketed sliding window with atomic admission.
type windowCounter struct {
	mu         sync.Mutex
	buckets    []int64
	bucketSize time.Duration
	numBuckets int
	current    int
	lastUpdate time.Time
}

func newWindowCounter(window time.Duration, numBuckets int) *windowCounter {
	return &windowCounter{
		buckets:    make([]int64, numBuckets),
		bucketSize: window / time.Duration(numBuckets),
		numBuckets: numBuckets,
		lastUpdate: time.Now(),
	}
}

// tryAcquire admits one event if the window total is below limit.
// Check and increment happen inside one critical section. On denial it
// returns the time until the oldest counted bucket rotates out.
func (w *windowCounter) tryAcquire(limit int64) (bool, time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.advance()

	var total int64
	for _, count := range w.buckets {
		total += count
	}

	if total >= limit {
		return false, w.timeToOldest()
	}

	w.buckets[w.current]++
	return true, 0
}

// count returns the current window total. Test and sweep helper.
func (w *windowCounter) count() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.advance()

	var total int64
	for _, count := range w.buckets {
		total += count
	}
	return total
}

// advance rotates expired buckets forward. Must be called with mu held.
func (w *windowCounter) advance() {
	now := time.Now()
	elapsed := now.Sub(w.lastUpdate)

	bucketsElapsed := int(elapsed / w.bucketSize)
	if bucketsElapsed <= 0 {
		return
	}

	if bucketsElapsed >= w.numBuckets {
		for i := range w.buckets {
			w.buckets[i] = 0
		}
		w.current = 0
	} else {
		for i := 0; i < bucketsElapsed; i++ {
			w.current = (w.current + 1) % w.numBuckets
			w.buckets[w.current] = 0
		}
	}

	w.lastUpdate = now
}

// timeToOldest returns how long until the oldest occupied bucket leaves
// the window. Must be called with mu held, after advance.
func (w *windowCounter) timeToOldest() time.Duration {
	for offset := 1; offset <= w.numBuckets; offset++ {
		idx := (w.current + offset) % w.numBuckets
		if w.buckets[idx] > 0 {
			steps := w.numBuckets - offset + 1
			return time.Duration(steps) * w.bucketSize
		}
	}
	// All counts sit in the current bucket.
	return time.Duration(w.numBuckets) * w.bucketSize
}

// callerState holds both class windows for one caller.
type callerState struct {
	views     *windowCounter
	interacts *windowCounter
	lastSeen  time.Time
}

// Limiter tracks sliding window budgets per caller key.
type Limiter struct {
	mu      sync.Mutex
	callers map[string]*callerState
	cfg     Config
}

// New creates a limiter; zero config fields fall back to defaults.
func New(cfg Config) *Limiter {
	def := DefaultConfig()
	if cfg.Window <= 0 {
		cfg.Window = def.Window
	}
	if cfg.ViewLimit <= 0 {
		cfg.ViewLimit = def.ViewLimit
	}
	if cfg.InteractLimit <= 0 {
		cfg.InteractLimit = def.InteractLimit
	}
	if cfg.NumBuckets <= 0 {
		cfg.NumBuckets = def.NumBuckets
	}
	if cfg.InactiveAfter <= 0 {
		cfg.InactiveAfter = def.InactiveAfter
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = def.SweepInterval
	}

	return &Limiter{
		callers: make(map[string]*callerState),
		cfg:     cfg,
	}
}

// Config returns the effective limiter configuration.
func (l *Limiter) Config() Config {
	return l.cfg
}

// Allow admits one event for the caller or returns *RateLimitedError.
// The two classes never borrow from each other's budget.
func (l *Limiter) Allow(callerKey string, action models.Action) error {
	state := l.stateFor(callerKey)

	class := ClassForAction(action)
	counter := state.interacts
	limit := l.cfg.InteractLimit
	if class == ClassView {
		counter = state.views
		limit = l.cfg.ViewLimit
	}

	ok, retryAfter := counter.tryAcquire(limit)
	if !ok {
		return &RateLimitedError{
			CallerKey:  callerKey,
			Class:      class,
			Limit:      limit,
			RetryAfter: retryAfter,
		}
	}
	return nil
}

// stateFor returns the caller's state, creating it if needed.
func (l *Limiter) stateFor(callerKey string) *callerState {
	l.mu.Lock()
	defer l.mu.Unlock()

	state, exists := l.callers[callerKey]
	if !exists {
		if l.cfg.MaxCallers > 0 && len(l.callers) >= l.cfg.MaxCallers {
			l.evictOne()
		}
		state = &callerState{
			views:     newWindowCounter(l.cfg.Window, l.cfg.NumBuckets),
			interacts: newWindowCounter(l.cfg.Window, l.cfg.NumBuckets),
		}
		l.callers[callerKey] = state
	}
	state.lastSeen = time.Now()
	return state
}

// evictOne removes the least recently seen caller when at capacity.
// Must be called with mu held.
func (l *Limiter) evictOne() {
	var (
		oldestKey string
		oldest    time.Time
	)
	for key, state := range l.callers {
		if oldestKey == "" || state.lastSeen.Before(oldest) {
			oldestKey = key
			oldest = state.lastSeen
		}
	}
	if oldestKey != "" {
		delete(l.callers, oldestKey)
	}
}

// CleanupInactive removes callers idle past the inactivity threshold.
// Returns the number removed.
func (l *Limiter) CleanupInactive() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := time.Now().Add(-l.cfg.InactiveAfter)
	removed := 0
	for key, state := range l.callers {
		if state.lastSeen.Before(cutoff) {
			delete(l.callers, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked callers.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.callers)
}
