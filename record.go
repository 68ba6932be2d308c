// (c) Siemens AG 2024
//
// SPDX-License-Identifier: MIT

package dockdash

import (
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
)

// Port is a host port of a service, together with its transport protocol.
type Port struct {
	HostPort uint16 `json:"port"`
	Protocol string `json:"protocol"`
}

// Link is a secondary link to a service, on a host port other than the
// primary one.
type Link struct {
	HostPort uint16 `json:"port"`
	URL      string `json:"url"`
}

// ServiceRecord describes a single running workload exposing at least one
// host-bound port.
type ServiceRecord struct {
	Identifier  string `json:"identifier"`  // workload name or ID.
	DisplayName string `json:"displayName"` // normalized identifier.
	Image       string `json:"image"`
	Status      string `json:"status"`
	Ports       []Port `json:"ports"` // unique (port, protocol), in ascending order.
	URL         string `json:"url"`   // URL of the lowest host port.
	Links       []Link `json:"links"` // URLs of further host ports, in ascending order.
}

// PrimaryPort returns the lowest host port of this service, or zero if the
// service has no ports.
func (r ServiceRecord) PrimaryPort() uint16 {
	if len(r.Ports) == 0 {
		return 0
	}
	return r.Ports[0].HostPort
}

// Unhealthy returns true if the runtime reports this service to fail its
// health check.
func (r ServiceRecord) Unhealthy() bool {
	return strings.Contains(strings.ToLower(r.Status), "unhealthy")
}

// Snapshot is the complete set of exposed services at a particular point in
// time, sorted case-insensitively by display name and then by identifier.
type Snapshot struct {
	GeneratedAt time.Time       `json:"generatedAt"`
	Records     []ServiceRecord `json:"records"`
}

// PortCount returns the total number of exposed ports over all services.
func (s *Snapshot) PortCount() int {
	count := 0
	for _, record := range s.Records {
		count += len(record.Ports)
	}
	return count
}

// Fingerprint returns a hash over the services in this snapshot, but not its
// generation time. Snapshots of the same services thus have the same
// fingerprint.
func (s *Snapshot) Fingerprint() uint64 {
	h := xxhash.New()
	for _, record := range s.Records {
		_, _ = h.WriteString(record.Identifier)
		_, _ = h.WriteString("\x00")
		_, _ = h.WriteString(record.DisplayName)
		_, _ = h.WriteString("\x00")
		_, _ = h.WriteString(record.Image)
		_, _ = h.WriteString("\x00")
		_, _ = h.WriteString(record.URL)
		for _, port := range record.Ports {
			_, _ = h.WriteString("\x00")
			_, _ = h.WriteString(strconv.FormatUint(uint64(port.HostPort), 10))
			_, _ = h.WriteString("/")
			_, _ = h.WriteString(port.Protocol)
		}
		_, _ = h.WriteString("\x01")
	}
	return h.Sum64()
}

// serviceURL returns the URL of a service on the specified host port, such as
// "http://localhost:8080".
func serviceURL(protocol, hostname string, port uint16) string {
	return protocol + "://" + net.JoinHostPort(hostname, strconv.FormatUint(uint64(port), 10))
}
