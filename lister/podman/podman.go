// (c) Siemens AG 2024
//
// SPDX-License-Identifier: MIT

/*
Package podman provides the podman runtime lister plugin, registered under the
plugin name “podman”.

We use the Docker API on podman, not least as the podman developers basically
told us to stick with the Docker API, so this plugin reuses the Docker lister,
only with a different default API endpoint.
*/
package podman

import (
	"os"
	"path/filepath"

	"github.com/siemens/dockdash/lister"
	"github.com/siemens/dockdash/lister/moby"
	"github.com/thediveo/go-plugger/v3"
)

// Type identifying podman workloads.
const Type = "podman.io"

// systemSocket is the API endpoint of the system podman service.
const systemSocket = "unix:///run/podman/podman.sock"

func init() {
	plugger.Group[lister.Factory]().Register(
		&Factory{}, plugger.WithPlugin("podman"))
}

// Factory implements the lister.Factory interface for podman.
type Factory struct{}

// Runtime returns the podman runtime type name.
func (f *Factory) Runtime() string { return Type }

// DefaultEndpoint returns the API endpoint as specified by CONTAINER_HOST. If
// not set, then the rootless user service socket is used when running as a
// non-root user with a runtime directory, and the system service socket
// otherwise.
func (f *Factory) DefaultEndpoint() string {
	if host := os.Getenv("CONTAINER_HOST"); host != "" {
		return host
	}
	if os.Getuid() != 0 {
		if rundir := os.Getenv("XDG_RUNTIME_DIR"); rundir != "" {
			return "unix://" + filepath.Join(rundir, "podman", "podman.sock")
		}
	}
	return systemSocket
}

// New returns a new lister for the podman service at the specified API
// endpoint.
func (f *Factory) New(endpoint string) (lister.Lister, error) {
	if endpoint == "" {
		endpoint = f.DefaultEndpoint()
	}
	return moby.New(endpoint, Type)
}
