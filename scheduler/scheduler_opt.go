// (c) Siemens AG 2024
//
// SPDX-License-Identifier: MIT

package scheduler

import "time"

// NewOption represents options to New when creating a new Scheduler.
type NewOption func(*Scheduler)

// WithInterval sets the duration between the end of a timer-driven pass and
// the start of the next one. A duration of zero or less is taken as
// DefaultInterval instead.
func WithInterval(d time.Duration) NewOption {
	return func(s *Scheduler) {
		s.interval = d
	}
}

// WithClock sets the source of the start and end times of passes, which
// otherwise is time.Now.
func WithClock(clock func() time.Time) NewOption {
	return func(s *Scheduler) {
		if clock != nil {
			s.clock = clock
		}
	}
}
