// (c) Siemens AG 2024
//
// SPDX-License-Identifier: MIT

package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/siemens/dockdash"
	"github.com/thediveo/lxkns/log"
	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"
)

// DefaultInterval is the default duration between the end of a timer-driven
// render pass and the start of the next one.
const DefaultInterval = 300 * time.Second

// ErrStopped is returned for passes that are refused because the scheduler
// has been drained.
var ErrStopped = errors.New("scheduler is shutting down")

// ErrPanicked is wrapped by the errors of passes whose renderer panicked.
var ErrPanicked = errors.New("render pass panicked")

// Trigger names the cause of a render pass.
type Trigger string

// The triggers of render passes.
const (
	TriggerStartup Trigger = "startup"
	TriggerTimer   Trigger = "timer"
	TriggerRefresh Trigger = "refresh"
	TriggerOnce    Trigger = "once"
)

// Renderer carries out a single render pass.
type Renderer interface {
	Render(ctx context.Context) (*dockdash.Snapshot, error)
}

var _ Renderer = (*dockdash.Renderer)(nil)

// Outcome is the outcome of a render pass.
type Outcome struct {
	PassID   string             // unique ID of the pass; empty if no pass ran.
	Trigger  Trigger            // trigger that started the pass.
	Joined   bool               // true if the caller joined a pass started by another trigger.
	Started  time.Time          // start of the pass.
	Finished time.Time          // end of the pass.
	Snapshot *dockdash.Snapshot // rendered snapshot, nil if the pass failed.
	Changed  bool               // fingerprint differs from the previous successful pass.
	Err      error
}

// Kind returns the kind of error of this outcome, if any.
func (o Outcome) Kind() dockdash.Kind { return dockdash.KindOf(o.Err) }

// Duration returns how long the pass took.
func (o Outcome) Duration() time.Duration { return o.Finished.Sub(o.Started) }

// Scheduler runs render passes, one at a time.
type Scheduler struct {
	renderer Renderer
	interval time.Duration
	clock    func() time.Time

	flight  singleflight.Group  // joins triggers into the in-flight pass.
	gate    *semaphore.Weighted // held by the in-flight pass, and finally by Drain.
	stopped atomic.Bool

	mu          sync.Mutex
	last        *Outcome // most recent completed pass.
	fingerprint uint64   // of the most recent successful pass.
	rendered    bool     // true after the first successful pass.
}

// passKey is the single singleflight key, as all triggers share the same
// render pass.
const passKey = "render"

// New returns a new Scheduler driving the specified renderer. Options
// ([NewOption]) allow to customize the interval and the clock.
func New(r Renderer, opts ...NewOption) *Scheduler {
	s := &Scheduler{
		renderer: r,
		interval: DefaultInterval,
		clock:    time.Now,
		gate:     semaphore.NewWeighted(1),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.interval <= 0 {
		s.interval = DefaultInterval
	}
	return s
}

// Interval returns the interval between timer-driven passes.
func (s *Scheduler) Interval() time.Duration { return s.interval }

// Once runs a single render pass and returns its outcome.
func (s *Scheduler) Once(ctx context.Context) Outcome {
	return s.Trigger(ctx, TriggerOnce)
}

// Trigger runs a render pass for the specified trigger and returns its
// outcome. If a pass is already in flight, Trigger waits for it to finish and
// returns the in-flight pass' outcome instead of starting another pass.
//
// If ctx is done before the pass finishes, Trigger returns early with the
// context's error, but the pass still runs to completion. After Drain,
// Trigger immediately returns an outcome with ErrStopped.
func (s *Scheduler) Trigger(ctx context.Context, trigger Trigger) Outcome {
	if s.stopped.Load() {
		return Outcome{Trigger: trigger, Err: ErrStopped}
	}
	// started is only written by the pass function if we lead the flight, and
	// only read after the result has been received.
	started := false
	resultch := s.flight.DoChan(passKey, func() (interface{}, error) {
		started = true
		return s.pass(trigger), nil
	})
	select {
	case res := <-resultch:
		outcome := res.Val.(Outcome)
		outcome.Joined = !started
		if outcome.Joined {
			log.Debugf("%s trigger joined render pass %s", trigger, outcome.PassID)
		}
		return outcome
	case <-ctx.Done():
		return Outcome{Trigger: trigger, Err: ctx.Err()}
	}
}

// pass carries out a single render pass, holding the gate for its duration.
// Passes have no independent cancellation: once admitted, a pass runs to
// completion, bounded by the renderer's query timeout.
func (s *Scheduler) pass(trigger Trigger) Outcome {
	// The flight already keeps passes from overlapping, so the only contender
	// for the gate is a Drain.
	if !s.gate.TryAcquire(1) {
		return Outcome{Trigger: trigger, Err: ErrStopped}
	}
	defer s.gate.Release(1)
	if s.stopped.Load() {
		return Outcome{Trigger: trigger, Err: ErrStopped}
	}

	outcome := Outcome{
		PassID:  uuid.NewString(),
		Trigger: trigger,
		Started: s.clock(),
	}
	log.Debugf("render pass %s triggered by %s", outcome.PassID, trigger)
	outcome.Snapshot, outcome.Err = s.render()
	outcome.Finished = s.clock()

	s.mu.Lock()
	if outcome.Err == nil {
		fingerprint := outcome.Snapshot.Fingerprint()
		outcome.Changed = !s.rendered || fingerprint != s.fingerprint
		s.fingerprint = fingerprint
		s.rendered = true
	}
	last := outcome
	s.last = &last
	s.mu.Unlock()

	logOutcome(outcome)
	return outcome
}

// render runs the renderer, turning a panic into a failed pass.
func (s *Scheduler) render() (snapshot *dockdash.Snapshot, err error) {
	defer func() {
		if r := recover(); r != nil {
			snapshot = nil
			err = fmt.Errorf("%w: %v", ErrPanicked, r)
		}
	}()
	return s.renderer.Render(context.Background())
}

// logOutcome logs the outcome of a completed render pass.
func logOutcome(o Outcome) {
	if o.Err != nil {
		log.Errorf("render pass %s triggered by %s at %s failed after %s with %s: %s",
			o.PassID, o.Trigger, o.Started.Format(time.RFC3339), o.Duration(), o.Kind(), o.Err.Error())
		return
	}
	changed := "unchanged"
	if o.Changed {
		changed = "changed"
	}
	log.Infof("render pass %s triggered by %s at %s rendered %d services in %s, services %s",
		o.PassID, o.Trigger, o.Started.Format(time.RFC3339), len(o.Snapshot.Records), o.Duration(), changed)
}

// Last returns the outcome of the most recently completed render pass, and
// false if no pass has completed so far.
func (s *Scheduler) Last() (Outcome, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return Outcome{}, false
	}
	return *s.last, true
}

// Run runs a startup pass and then timer-driven passes until ctx is done, or
// until the scheduler is drained. The interval always counts from the end of
// the previous pass, so passes never queue up behind a slow pass. Failed
// passes are logged and don't stop Run.
//
// Run returns nil when ctx is done, and ErrStopped when the scheduler has been
// drained.
func (s *Scheduler) Run(ctx context.Context) error {
	log.Infof("rendering every %s", s.interval)
	if outcome := s.Trigger(ctx, TriggerStartup); errors.Is(outcome.Err, ErrStopped) {
		return ErrStopped
	}
	wecker := time.NewTimer(s.interval)
	defer wecker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-wecker.C:
			if outcome := s.Trigger(ctx, TriggerTimer); errors.Is(outcome.Err, ErrStopped) {
				return ErrStopped
			}
			wecker.Reset(s.interval)
		}
	}
}

// Drain stops the scheduler from starting any further passes and then waits
// for an in-flight pass to finish, but at most for the specified grace
// period. Drain returns nil if no pass is in flight anymore, otherwise the
// context error after the grace period has expired. Drain is meant to be
// called only once.
func (s *Scheduler) Drain(grace time.Duration) error {
	if !s.stopped.CompareAndSwap(false, true) {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	if err := s.gate.Acquire(ctx, 1); err != nil {
		log.Warnf("render pass still in flight after %s grace period, giving up waiting", grace)
		return err
	}
	// Keep the gate, so that no pass is able to sneak in anymore.
	log.Infof("render passes drained")
	return nil
}
