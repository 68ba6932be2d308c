// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package moby

import (
	"context"
	"os"
	"strings"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/client" // priceless
	"github.com/siemens/dockdash/lister"
	"github.com/thediveo/go-plugger/v3"
	"github.com/thediveo/lxkns/log"
)

// Type identifying Docker workloads.
const Type = "docker.com"

// Register this Docker runtime lister plugin. This statically ensures that the
// Factory interface is fully implemented.
func init() {
	plugger.Group[lister.Factory]().Register(
		&Factory{}, plugger.WithPlugin("docker"))
}

// Factory implements the lister.Factory interface for the Docker engine.
type Factory struct{}

// Runtime returns the Docker runtime type name.
func (f *Factory) Runtime() string { return Type }

// DefaultEndpoint returns the API endpoint as specified by DOCKER_HOST, or the
// standard Docker API socket otherwise.
func (f *Factory) DefaultEndpoint() string {
	if host := os.Getenv(client.EnvOverrideHost); host != "" {
		return host
	}
	return client.DefaultDockerHost
}

// New returns a new lister for the Docker engine at the specified API endpoint.
func (f *Factory) New(endpoint string) (lister.Lister, error) {
	if endpoint == "" {
		endpoint = f.DefaultEndpoint()
	}
	return New(endpoint, Type)
}

// Lister implements the lister.Lister interface using the Docker Engine API.
// Other engines serving a Docker-compatible API, such as podman, reuse it.
type Lister struct {
	client   *client.Client
	endpoint string
	runtime  string
}

var _ lister.Lister = (*Lister)(nil)

// New returns a Lister talking to the Docker-compatible API at the specified
// endpoint, such as "unix:///run/docker.sock". As Docker's go client will
// accept any API endpoint we throw at it and throw up only when actually trying
// to communicate with the engine, New does not contact the engine; any
// connection problems surface only when listing workloads.
func New(endpoint string, runtime string) (*Lister, error) {
	log.Debugf("using %s API endpoint '%s'", runtime, endpoint)
	cl, err := client.NewClientWithOpts(
		client.WithHost(endpoint),
		client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, err
	}
	return &Lister{
		client:   cl,
		endpoint: endpoint,
		runtime:  runtime,
	}, nil
}

// Endpoint returns the API endpoint this lister talks to.
func (l *Lister) Endpoint() string { return l.endpoint }

// Runtime returns the runtime type name of the engine this lister talks to.
func (l *Lister) Runtime() string { return l.runtime }

// ListRunningWorkloads returns the currently running containers together with
// their port mappings.
func (l *Lister) ListRunningWorkloads(ctx context.Context) ([]lister.Workload, error) {
	containers, err := l.client.ContainerList(ctx, container.ListOptions{
		Filters: filters.NewArgs(filters.Arg("status", "running")),
	})
	if err != nil {
		// A deadline hit by the HTTP round trip is better reported as such,
		// as the client's own error message is rather unhelpful then.
		if ctxerr := ctx.Err(); ctxerr != nil {
			return nil, ctxerr
		}
		return nil, err
	}
	workloads := make([]lister.Workload, 0, len(containers))
	for _, cntr := range containers {
		workloads = append(workloads, workloadFromSummary(cntr))
	}
	return workloads, nil
}

// Close closes the underlying API client.
func (l *Lister) Close() error {
	return l.client.Close()
}

// workloadFromSummary converts a container summary as returned by the Docker
// API into a workload.
func workloadFromSummary(cntr container.Summary) lister.Workload {
	name := ""
	if len(cntr.Names) > 0 {
		// The first name is the canonical one; any further names are legacy
		// link aliases of the form "/other/alias".
		name = strings.TrimLeft(cntr.Names[0], "/")
	}
	ports := make([]lister.PortMapping, 0, len(cntr.Ports))
	for _, port := range cntr.Ports {
		ports = append(ports, lister.PortMapping{
			HostIP:        port.IP,
			HostPort:      port.PublicPort,
			ContainerPort: port.PrivatePort,
			Protocol:      strings.ToLower(port.Type),
		})
	}
	return lister.Workload{
		ID:     cntr.ID,
		Name:   name,
		Image:  cntr.Image,
		State:  string(cntr.State),
		Status: cntr.Status,
		Ports:  ports,
	}
}
