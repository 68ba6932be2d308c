// (c) Siemens AG 2024
//
// SPDX-License-Identifier: MIT

package dockdash

import (
	"errors"

	"github.com/siemens/dockdash/config"
)

// ErrRuntimeUnavailable is wrapped by all errors caused by a container runtime
// that could not be reached or queried in time.
var ErrRuntimeUnavailable = errors.New("container runtime unavailable")

// ErrRenderWrite is wrapped by all errors caused by an artifact that could not
// be durably written.
var ErrRenderWrite = errors.New("cannot write rendered page")

// Kind classifies errors of a render pass (and of loading the configuration).
type Kind int

// Error kinds; all of them are recoverable.
const (
	NoError Kind = iota
	RuntimeUnavailable
	RenderWriteError
	ConfigurationInvalid
	Unknown
)

// String returns the name of this error kind, as used in logs and API
// responses.
func (k Kind) String() string {
	switch k {
	case NoError:
		return ""
	case RuntimeUnavailable:
		return "RuntimeUnavailable"
	case RenderWriteError:
		return "RenderWriteError"
	case ConfigurationInvalid:
		return "ConfigurationInvalid"
	default:
		return "Unknown"
	}
}

// KindOf returns the kind of the specified error; NoError for a nil error and
// Unknown for any error not belonging to the dashboard's error taxonomy.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return NoError
	case errors.Is(err, ErrRuntimeUnavailable):
		return RuntimeUnavailable
	case errors.Is(err, ErrRenderWrite):
		return RenderWriteError
	case errors.Is(err, config.ErrInvalid):
		return ConfigurationInvalid
	}
	return Unknown
}
