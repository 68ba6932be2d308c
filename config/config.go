// (c) Siemens AG 2024
//
// SPDX-License-Identifier: MIT

package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Defaults used when the configuration source is missing, malformed, or leaves
// fields unset.
const (
	DefaultHostname = "localhost"
	DefaultProtocol = "http"
	DefaultTitle    = "Container Services"
)

// ErrInvalid signals a configuration source that is present but cannot be
// used as is. Load still returns a usable configuration together with such an
// error.
var ErrInvalid = errors.New("configuration invalid")

// Config is the process-wide dashboard configuration. It is resolved once at
// startup and then passed by value; there is no global configuration state.
type Config struct {
	Hostname    string   `yaml:"hostname"`    // host name used in every service URL.
	Protocol    string   `yaml:"protocol"`    // "http" or "https", for all service URLs.
	Title       string   `yaml:"title"`       // page title.
	Description string   `yaml:"description"` // free text, not used.
	Exclude     []string `yaml:"exclude"`     // case-insensitive keywords of workloads to hide.
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		Hostname: DefaultHostname,
		Protocol: DefaultProtocol,
		Title:    DefaultTitle,
	}
}

// Load reads the configuration from the specified file, which can be either in
// JSON or YAML format. A missing file results in the default configuration
// without any error. A file that cannot be read or parsed results in the
// default configuration together with an error wrapping ErrInvalid. Invalid
// field values are replaced by their defaults, and also reported through an
// error wrapping ErrInvalid.
func Load(filename string) (Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return Default(), fmt.Errorf("%w: cannot read %s: %w", ErrInvalid, filename, err)
	}
	return Parse(data)
}

// Parse parses the configuration from the specified JSON or YAML data, see
// also [Load].
func Parse(data []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Default(), fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return cfg.normalized()
}

// normalized returns a copy of this configuration with unset fields set to
// their defaults and invalid fields replaced by their defaults. Invalid fields
// are additionally reported in the returned error.
func (c Config) normalized() (Config, error) {
	var problems []string
	c.Hostname = strings.TrimSpace(c.Hostname)
	switch {
	case c.Hostname == "":
		c.Hostname = DefaultHostname
	case !validHostname(c.Hostname):
		problems = append(problems, fmt.Sprintf("invalid hostname %q", c.Hostname))
		c.Hostname = DefaultHostname
	}
	c.Protocol = strings.ToLower(strings.TrimSpace(c.Protocol))
	switch c.Protocol {
	case "":
		c.Protocol = DefaultProtocol
	case "http", "https":
	default:
		problems = append(problems, fmt.Sprintf("invalid protocol %q, must be \"http\" or \"https\"", c.Protocol))
		c.Protocol = DefaultProtocol
	}
	if strings.TrimSpace(c.Title) == "" {
		c.Title = DefaultTitle
	}
	exclude := make([]string, 0, len(c.Exclude))
	for _, keyword := range c.Exclude {
		keyword = strings.ToLower(strings.TrimSpace(keyword))
		if keyword == "" {
			continue
		}
		exclude = append(exclude, keyword)
	}
	c.Exclude = exclude
	if len(problems) > 0 {
		return c, fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
	}
	return c, nil
}

// validHostname returns true if h is either an IP address literal (without
// brackets) or a DNS name. Names carrying ports, paths, or user information are
// rejected, as service URLs add their ports themselves.
func validHostname(h string) bool {
	if net.ParseIP(h) != nil {
		return true
	}
	if len(h) > 253 {
		return false
	}
	for _, label := range strings.Split(strings.TrimSuffix(h, "."), ".") {
		if label == "" || len(label) > 63 ||
			label[0] == '-' || label[len(label)-1] == '-' {
			return false
		}
		for _, r := range label {
			switch {
			case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			default:
				return false
			}
		}
	}
	return true
}

// Excludes returns true if any of the exclusion keywords is contained in
// either the specified identifier or image reference.
func (c Config) Excludes(identifier, image string) bool {
	if len(c.Exclude) == 0 {
		return false
	}
	identifier = strings.ToLower(identifier)
	image = strings.ToLower(image)
	for _, keyword := range c.Exclude {
		keyword = strings.ToLower(keyword)
		if strings.Contains(identifier, keyword) || strings.Contains(image, keyword) {
			return true
		}
	}
	return false
}
