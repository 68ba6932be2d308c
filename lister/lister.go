// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package lister

import (
	"context"
	"fmt"
	"strings"

	"github.com/thediveo/go-plugger/v3"
)

// Lister enumerates the currently running workloads of a single container
// runtime.
type Lister interface {
	// ListRunningWorkloads returns the workloads that are currently in running
	// state, together with their port mappings. Implementations must honor
	// the context deadline and return an error instead of blocking
	// indefinitely when the runtime cannot be reached.
	ListRunningWorkloads(ctx context.Context) ([]Workload, error)

	// Close releases any resources (connections) held by the lister.
	Close() error
}

// Factory creates listers for a particular container runtime type. Factories
// are registered as plugins in the Factory plugin group.
type Factory interface {
	// Runtime returns the runtime type name, such as "docker.com".
	Runtime() string

	// DefaultEndpoint returns the API endpoint used when no explicit endpoint
	// has been configured.
	DefaultEndpoint() string

	// New returns a new Lister talking to the runtime at the specified API
	// endpoint. An empty endpoint selects the default endpoint.
	New(endpoint string) (Lister, error)
}

// Workload describes a single running workload as reported by a container
// runtime.
type Workload struct {
	ID     string        // runtime-specific unique ID.
	Name   string        // workload name, without any leading "/".
	Image  string        // image reference the workload was created from.
	State  string        // machine-readable state, such as "running".
	Status string        // human-readable status, such as "Up 2 hours".
	Ports  []PortMapping // all port mappings, including unbound ones.
}

// PortMapping describes a single port of a workload and its optional host
// binding.
type PortMapping struct {
	HostIP        string // host address the port is bound to, if any.
	HostPort      uint16 // host port; zero if not bound to the host.
	ContainerPort uint16 // port inside the workload.
	Protocol      string // transport protocol, such as "tcp" or "udp".
}

// HostBound returns true if this port mapping forwards a host port into the
// workload.
func (p PortMapping) HostBound() bool {
	return p.HostPort != 0
}

// Identifier returns the stable identifier of the workload: its name or, if
// the runtime didn't report a name, its ID.
func (w Workload) Identifier() string {
	if name := strings.TrimLeft(w.Name, "/"); name != "" {
		return name
	}
	return w.ID
}

// Runtimes returns the plugin names of all registered runtime listers.
func Runtimes() []string {
	return plugger.Group[Factory]().Plugins()
}

// New returns a Lister for the runtime registered under the specified plugin
// name, talking to the specified API endpoint (or the runtime's default
// endpoint if empty).
func New(runtime string, endpoint string) (Lister, error) {
	for _, factory := range plugger.Group[Factory]().PluginsSymbols() {
		if factory.Plugin != runtime {
			continue
		}
		return factory.S.New(endpoint)
	}
	return nil, fmt.Errorf("unknown container runtime %q, available: %s",
		runtime, strings.Join(Runtimes(), ", "))
}
