// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package dockdash

import "golang.org/x/exp/slices"

// sortedUniqueFunc sorts the elements of s in place as determined by the cmp
// function and then removes all duplicate elements, that is, elements for which
// cmp returns 0. Like slices.DeleteFunc (in newer Go versions), the now unused
// elements at the end are set to zero.
func sortedUniqueFunc[S ~[]E, E any](s S, cmp func(a, b E) int) S {
	if len(s) < 2 {
		return s
	}
	slices.SortFunc(s, cmp)
	i := 1
	for j := 1; j < len(s); j++ {
		if cmp(s[i-1], s[j]) == 0 {
			continue
		}
		s[i] = s[j]
		i++
	}
	var zero E
	for j := i; j < len(s); j++ {
		s[j] = zero
	}
	return s[:i]
}
