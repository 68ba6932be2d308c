// (c) Siemens AG 2024
//
// SPDX-License-Identifier: MIT

package dockdash

import (
	"os"
	"time"
)

// NewOption represents options to NewRenderer when creating a new Renderer.
type NewOption func(*Renderer)

// WithQueryTimeout sets the maximum duration of querying the container
// runtime for its running workloads. When the runtime doesn't answer within
// this duration, the render pass fails with ErrRuntimeUnavailable. A duration
// of zero or less is taken as DefaultQueryTimeout instead.
func WithQueryTimeout(d time.Duration) NewOption {
	return func(r *Renderer) {
		r.querytimeout = d
	}
}

// WithClock sets the source of the snapshot generation times, which otherwise
// is time.Now.
func WithClock(clock func() time.Time) NewOption {
	return func(r *Renderer) {
		if clock != nil {
			r.clock = clock
		}
	}
}

// WithPermissions sets the file permissions of the rendered page.
func WithPermissions(perm os.FileMode) NewOption {
	return func(r *Renderer) {
		r.perm = perm
	}
}
