// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package matcher

import (
	"fmt"

	"github.com/siemens/dockdash"

	g "github.com/onsi/gomega"
	"github.com/onsi/gomega/types"
)

// HaveServiceNameID succeeds if ACTUAL is either a dockdash.ServiceRecord or
// *dockdash.ServiceRecord with the specified display name or identifier.
// Alternatively of a name/identifier string, a GomegaMatcher can also be
// specified for matching the display name or identifier, such as
// ContainSubstring and MatchRegexp.
func HaveServiceNameID(nameorid interface{}) types.GomegaMatcher {
	nameoridMatcher := stringMatcher("HaveServiceNameID", nameorid)
	return g.SatisfyAny(
		g.WithTransform(func(actual interface{}) (string, error) {
			record, err := asRecord("HaveServiceNameID", actual)
			if err != nil {
				return "", err
			}
			return record.Identifier, nil
		}, nameoridMatcher),
		g.WithTransform(func(actual interface{}) (string, error) {
			record, err := asRecord("HaveServiceNameID", actual)
			if err != nil {
				return "", err
			}
			return record.DisplayName, nil
		}, nameoridMatcher),
	)
}

// HaveServiceURL succeeds if ACTUAL is either a dockdash.ServiceRecord or
// *dockdash.ServiceRecord with the specified primary URL (or a URL satisfying
// the specified GomegaMatcher).
func HaveServiceURL(url interface{}) types.GomegaMatcher {
	urlMatcher := stringMatcher("HaveServiceURL", url)
	return g.WithTransform(func(actual interface{}) (string, error) {
		record, err := asRecord("HaveServiceURL", actual)
		if err != nil {
			return "", err
		}
		return record.URL, nil
	}, urlMatcher)
}

// HaveServiceNames succeeds if ACTUAL is a *dockdash.Snapshot or
// dockdash.Snapshot whose service records have exactly the specified display
// names, in exactly the specified order.
func HaveServiceNames(names ...string) types.GomegaMatcher {
	return g.WithTransform(func(actual interface{}) ([]string, error) {
		var records []dockdash.ServiceRecord
		switch snapshot := actual.(type) {
		case *dockdash.Snapshot:
			records = snapshot.Records
		case dockdash.Snapshot:
			records = snapshot.Records
		default:
			return nil, fmt.Errorf("HaveServiceNames expects a dockdash.Snapshot or *dockdash.Snapshot, but got %T", actual)
		}
		displaynames := make([]string, 0, len(records))
		for _, record := range records {
			displaynames = append(displaynames, record.DisplayName)
		}
		return displaynames, nil
	}, namesMatcher(names))
}

func namesMatcher(names []string) types.GomegaMatcher {
	if len(names) == 0 {
		return g.BeEmpty()
	}
	return g.Equal(names)
}

func stringMatcher(name string, expected interface{}) types.GomegaMatcher {
	switch expected := expected.(type) {
	case string:
		return g.Equal(expected)
	case types.GomegaMatcher:
		return expected
	}
	panic(name + " argument must be string or GomegaMatcher")
}

func asRecord(name string, actual interface{}) (*dockdash.ServiceRecord, error) {
	switch record := actual.(type) {
	case *dockdash.ServiceRecord:
		return record, nil
	case dockdash.ServiceRecord:
		return &record, nil
	}
	return nil, fmt.Errorf("%s expects a dockdash.ServiceRecord or *dockdash.ServiceRecord, but got %T", name, actual)
}
