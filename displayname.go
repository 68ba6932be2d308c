// (c) Siemens AG 2024
//
// SPDX-License-Identifier: MIT

package dockdash

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DisplayName returns the human-friendly label for a workload identifier:
// leading punctuation is stripped, underscores and hyphens become spaces, runs
// of spaces are collapsed, and finally the words are title-cased. For
// instance, "/web_app" becomes "Web App".
//
// DisplayName is a pure function: the same identifier always yields the same
// display name.
func DisplayName(identifier string) string {
	name := strings.TrimLeftFunc(identifier, func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSymbol(r) || unicode.IsSpace(r)
	})
	name = strings.Map(func(r rune) rune {
		switch r {
		case '_', '-':
			return ' '
		}
		return r
	}, name)
	name = strings.Join(strings.Fields(name), " ")
	// Casers are stateful, so we need a fresh one for each call in order to
	// be safe for concurrent use.
	return cases.Title(language.Und).String(name)
}

// imageName returns the repository base name of an image reference, without
// any registry, path, tag, or digest. For instance,
// "docker.io/library/nginx:1.25" becomes "nginx".
func imageName(ref string) string {
	ref, _, _ = strings.Cut(ref, "@")
	if idx := strings.LastIndex(ref, "/"); idx >= 0 {
		ref = ref[idx+1:]
	}
	ref, _, _ = strings.Cut(ref, ":")
	return ref
}

// displayNameOf returns the display name for a workload with the specified
// identifier and image reference, falling back to the image name if the
// identifier normalizes to nothing, and finally to the identifier itself.
func displayNameOf(identifier, image string) string {
	if name := DisplayName(identifier); name != "" {
		return name
	}
	if name := DisplayName(imageName(image)); name != "" {
		return name
	}
	return identifier
}
