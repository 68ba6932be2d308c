/*
Package dockdash renders a status page of the services exposed by the running
containers of a host: each running container with at least one host-bound port
becomes a service card showing its name and the URL it can be reached at.

# Quick Start

That's all that is necessary for a single render pass:

	l, err := lister.New("docker", "")
	if err != nil { ... }
	defer l.Close()
	cfg, _ := config.Load("config.json")
	snapshot, err := dockdash.NewRenderer(l, cfg, "index.html").Render(ctx)

The “scheduler” sub-package then takes care of rendering periodically and on
demand, without ever running two render passes at the same time.

# Render Passes

A render pass strictly runs the following steps in sequence:

  - query the container runtime for its running workloads, time-boxed by the
    query timeout (see [WithQueryTimeout]); a runtime that cannot be reached in
    time fails the pass with [ErrRuntimeUnavailable].
  - drop all workloads without host-bound ports. This is expected, as most
    infrastructure containers never publish any ports.
  - normalize each workload name into a display name (see [DisplayName]) and
    deduplicate its host ports; the lowest host port becomes the primary URL
    “{protocol}://{hostname}:{port}”.
  - sort the service records case-insensitively by display name, with ties
    broken by workload name, so that the same workloads always result in the
    same order.
  - render the page and atomically replace the previous page; failing to do so
    fails the pass with [ErrRenderWrite], but never leaves a half-written or
    empty page behind.

The rendered page depends only on the snapshot and the configuration: the same
snapshot and configuration always render into the same bytes.

# Runtimes

Container runtimes are queried through the [lister.Lister] capability
interface. The “lister/all” sub-package pulls in the runtime plugins supported
out-of-the-box:

  - [Docker]
  - [podman] (via its Docker-compatible API)

[Docker]: https://docker.com
[podman]: https://podman.io
*/
package dockdash
