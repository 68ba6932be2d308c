// (c) Siemens AG 2024
//
// SPDX-License-Identifier: MIT

package dockdash

import (
	"cmp"
	"strings"
	"time"

	"github.com/siemens/dockdash/config"
	"github.com/siemens/dockdash/lister"
	"golang.org/x/exp/slices"
)

// runningState is the workload state that a workload must be in in order to
// be shown.
const runningState = "running"

// BuildSnapshot returns the snapshot of exposed services for the specified
// workloads. Only running workloads with at least one host-bound port make it
// into the snapshot; all others are silently dropped, as are workloads
// matching any of the configured exclusion keywords. The service records are
// sorted case-insensitively by their display names, with ties broken by
// identifier.
//
// BuildSnapshot is a pure function of its arguments.
func BuildSnapshot(workloads []lister.Workload, cfg config.Config, generatedAt time.Time) *Snapshot {
	records := make([]ServiceRecord, 0, len(workloads))
	for _, workload := range workloads {
		// Listers are asked for running workloads only, but a workload might
		// be caught while going away.
		if workload.State != "" && workload.State != runningState {
			continue
		}
		ports := hostPorts(workload.Ports)
		if len(ports) == 0 {
			continue // that's what most infrastructure containers look like.
		}
		identifier := workload.Identifier()
		if cfg.Excludes(identifier, workload.Image) {
			continue
		}
		records = append(records, newServiceRecord(identifier, workload, ports, cfg))
	}
	slices.SortStableFunc(records, compareRecords)
	return &Snapshot{
		GeneratedAt: generatedAt,
		Records:     records,
	}
}

// newServiceRecord returns the service record for a workload with the
// specified (sorted and unique) host ports.
func newServiceRecord(identifier string, workload lister.Workload, ports []Port, cfg config.Config) ServiceRecord {
	primary := ports[0].HostPort
	links := []Link{}
	for _, port := range ports {
		// The same port number might be listed for multiple protocols, but we
		// only need a single link per port.
		if port.HostPort == primary || (len(links) > 0 && links[len(links)-1].HostPort == port.HostPort) {
			continue
		}
		links = append(links, Link{
			HostPort: port.HostPort,
			URL:      serviceURL(cfg.Protocol, cfg.Hostname, port.HostPort),
		})
	}
	return ServiceRecord{
		Identifier:  identifier,
		DisplayName: displayNameOf(identifier, workload.Image),
		Image:       workload.Image,
		Status:      workload.Status,
		Ports:       ports,
		URL:         serviceURL(cfg.Protocol, cfg.Hostname, primary),
		Links:       links,
	}
}

// hostPorts returns the unique host-bound ports of the specified port
// mappings, sorted in ascending order of port number and then protocol. The
// same host port is usually listed multiple times when bound to both IPv4 and
// IPv6 host addresses.
func hostPorts(mappings []lister.PortMapping) []Port {
	ports := make([]Port, 0, len(mappings))
	for _, mapping := range mappings {
		if !mapping.HostBound() {
			continue
		}
		protocol := strings.ToLower(mapping.Protocol)
		if protocol == "" {
			protocol = "tcp"
		}
		ports = append(ports, Port{
			HostPort: mapping.HostPort,
			Protocol: protocol,
		})
	}
	return sortedUniqueFunc(ports, comparePorts)
}

func comparePorts(a, b Port) int {
	return cmp.Or(
		cmp.Compare(a.HostPort, b.HostPort),
		cmp.Compare(a.Protocol, b.Protocol))
}

// compareRecords defines the total order of service records: display names
// case-insensitively, then identifiers, and for the odd remaining cases
// display names case-sensitively and finally primary URLs.
func compareRecords(a, b ServiceRecord) int {
	return cmp.Or(
		cmp.Compare(strings.ToLower(a.DisplayName), strings.ToLower(b.DisplayName)),
		cmp.Compare(a.Identifier, b.Identifier),
		cmp.Compare(a.DisplayName, b.DisplayName),
		cmp.Compare(a.URL, b.URL))
}
