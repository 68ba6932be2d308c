// (c) Siemens AG 2024
//
// SPDX-License-Identifier: MIT

package dockdash

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/siemens/dockdash/artifact"
	"github.com/siemens/dockdash/config"
	"github.com/siemens/dockdash/lister"
	"github.com/thediveo/lxkns/log"
)

// DefaultQueryTimeout is the default upper bound on querying the container
// runtime for its running workloads.
const DefaultQueryTimeout = 5 * time.Second

// Renderer carries out render passes: it discovers the running workloads of a
// container runtime and renders them into a page written to a fixed output
// path. A Renderer has no memory across render passes: each pass is
// reproducible from the current runtime state alone.
//
// A Renderer can be safely used from multiple goroutines, but it is up to the
// caller to serialize render passes writing to the same output path, if so
// desired. Readers of the output path never see partially written pages.
type Renderer struct {
	lister       lister.Lister
	config       config.Config
	output       string
	querytimeout time.Duration    // max. duration of a runtime query.
	clock        func() time.Time // source of snapshot generation times.
	perm         os.FileMode      // output file permissions.
}

// NewRenderer returns a Renderer using the specified lister to discover
// running workloads and the specified configuration to build service URLs,
// rendering into the file at the specified output path.
//
// Further options ([NewOption], such as [WithQueryTimeout] and [WithClock])
// allow to customize the Renderer object returned.
func NewRenderer(l lister.Lister, cfg config.Config, output string, opts ...NewOption) *Renderer {
	r := &Renderer{
		lister:       l,
		config:       cfg,
		output:       output,
		querytimeout: DefaultQueryTimeout,
		clock:        time.Now,
		perm:         artifact.DefaultPerm,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.querytimeout <= 0 {
		r.querytimeout = DefaultQueryTimeout
	}
	return r
}

// Output returns the path of the rendered page.
func (r *Renderer) Output() string { return r.output }

// Config returns the configuration this Renderer renders with.
func (r *Renderer) Config() config.Config { return r.config }

// Discover queries the container runtime for its running workloads and returns
// the snapshot of exposed services. Discover fails with an error wrapping
// ErrRuntimeUnavailable if the runtime cannot be queried within the query
// timeout.
func (r *Renderer) Discover(ctx context.Context) (*Snapshot, error) {
	queryctx, cancel := context.WithTimeout(ctx, r.querytimeout)
	defer cancel()
	workloads, err := r.lister.ListRunningWorkloads(queryctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRuntimeUnavailable, err)
	}
	snapshot := BuildSnapshot(workloads, r.config, r.clock())
	log.Debugf("discovered %d running workloads, %d of them exposing ports",
		len(workloads), len(snapshot.Records))
	return snapshot, nil
}

// Render carries out a complete render pass: it discovers the exposed services
// and then atomically replaces the output page with a newly rendered page. On
// failure, the previously rendered page stays in place.
//
// Render fails with an error wrapping ErrRuntimeUnavailable if the container
// runtime cannot be queried, and with an error wrapping ErrRenderWrite if the
// page cannot be written.
func (r *Renderer) Render(ctx context.Context) (*Snapshot, error) {
	snapshot, err := r.Discover(ctx)
	if err != nil {
		return nil, err
	}
	if err := r.Write(snapshot); err != nil {
		return nil, err
	}
	return snapshot, nil
}

// Write renders the specified snapshot into the output page, atomically
// replacing any previous page.
func (r *Renderer) Write(snapshot *Snapshot) error {
	err := artifact.WriteFile(r.output, r.perm, func(w io.Writer) error {
		return WritePage(w, snapshot, r.config)
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRenderWrite, err)
	}
	log.Debugf("rendered %d services into %s", len(snapshot.Records), r.output)
	return nil
}
