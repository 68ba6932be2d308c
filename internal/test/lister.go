// (c) Siemens AG 2024
//
// SPDX-License-Identifier: MIT

package test

import (
	"context"
	"encoding/hex"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/siemens/dockdash/lister"
)

// Lister is a fake workload lister returning canned workloads (or errors)
// without any container runtime present. It additionally tracks how often it
// has been queried and the maximum number of concurrent queries.
type Lister struct {
	mu        sync.Mutex
	workloads []lister.Workload
	err       error
	delay     time.Duration
	hang      bool

	calls       atomic.Int64
	inflight    atomic.Int32
	maxinflight atomic.Int32
}

var _ lister.Lister = (*Lister)(nil)

// NewLister returns a fake lister reporting the specified workloads.
func NewLister(workloads ...lister.Workload) *Lister {
	return &Lister{workloads: workloads}
}

// SetWorkloads sets the workloads reported by subsequent queries.
func (l *Lister) SetWorkloads(workloads ...lister.Workload) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.workloads = workloads
}

// SetError makes subsequent queries fail with the specified error; a nil error
// makes queries succeed again.
func (l *Lister) SetError(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.err = err
}

// SetDelay delays subsequent queries by the specified duration (or until the
// query context is done).
func (l *Lister) SetDelay(d time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.delay = d
}

// SetHang makes subsequent queries block until their contexts are done,
// simulating a wedged runtime.
func (l *Lister) SetHang(hang bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.hang = hang
}

// Calls returns the number of queries so far.
func (l *Lister) Calls() int { return int(l.calls.Load()) }

// MaxConcurrent returns the maximum number of queries that were in flight at
// the same time.
func (l *Lister) MaxConcurrent() int { return int(l.maxinflight.Load()) }

// ListRunningWorkloads returns the canned workloads or error.
func (l *Lister) ListRunningWorkloads(ctx context.Context) ([]lister.Workload, error) {
	l.calls.Add(1)
	inflight := l.inflight.Add(1)
	defer l.inflight.Add(-1)
	for {
		max := l.maxinflight.Load()
		if inflight <= max || l.maxinflight.CompareAndSwap(max, inflight) {
			break
		}
	}

	l.mu.Lock()
	workloads := append([]lister.Workload(nil), l.workloads...)
	err := l.err
	delay := l.delay
	hang := l.hang
	l.mu.Unlock()

	if hang {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if delay > 0 {
		wecker := time.NewTimer(delay)
		select {
		case <-wecker.C:
		case <-ctx.Done():
			if !wecker.Stop() {
				<-wecker.C
			}
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	return workloads, nil
}

// Close does nothing.
func (l *Lister) Close() error { return nil }

// Running returns a running workload with the specified name and ports. Ports
// are specified in “docker ps” notation: "8080->80/tcp" for a container port 80
// bound to host port 8080, and "80/tcp" for an unbound container port.
// Malformed port specifications panic.
func Running(name string, ports ...string) lister.Workload {
	w := lister.Workload{
		ID:     hex.EncodeToString([]byte(name)),
		Name:   name,
		Image:  "example.org/" + name + ":latest",
		State:  "running",
		Status: "Up 42 minutes",
	}
	for _, spec := range ports {
		w.Ports = append(w.Ports, portMapping(spec))
	}
	return w
}

func portMapping(spec string) lister.PortMapping {
	spec, protocol, ok := strings.Cut(spec, "/")
	if !ok {
		protocol = "tcp"
	}
	mapping := lister.PortMapping{Protocol: protocol}
	hostport, cntrport, bound := strings.Cut(spec, "->")
	if !bound {
		cntrport = hostport
		hostport = ""
	}
	if hostport != "" {
		if idx := strings.LastIndex(hostport, ":"); idx >= 0 {
			mapping.HostIP = hostport[:idx]
			hostport = hostport[idx+1:]
		}
		mapping.HostPort = mustPort(hostport)
	}
	mapping.ContainerPort = mustPort(cntrport)
	return mapping
}

func mustPort(s string) uint16 {
	port, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		panic("invalid port " + strconv.Quote(s))
	}
	return uint16(port)
}
