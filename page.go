// (c) Siemens AG 2024
//
// SPDX-License-Identifier: MIT

package dockdash

import (
	_ "embed"
	"html/template"
	"io"
	"strconv"

	"github.com/dustin/go-humanize/english"
	"github.com/siemens/dockdash/config"
)

//go:embed page.gohtml
var pageTemplateText string

// pageTemplate renders a snapshot into an HTML page. Executing templates is
// safe for concurrent use.
var pageTemplate = template.Must(template.New("page").Parse(pageTemplateText))

// generatedAtLayout is the layout of the “Last updated” timestamp.
const generatedAtLayout = "2006-01-02 15:04:05 MST"

// pageData is what the page template gets to see.
type pageData struct {
	Title       string
	Summary     string
	GeneratedAt string
	Fingerprint string
	PortCount   int
	Records     []ServiceRecord
}

// WritePage renders the specified snapshot as an HTML page into w. The page
// only depends on the snapshot and the configuration, so the same snapshot and
// configuration always render into the same bytes.
func WritePage(w io.Writer, snapshot *Snapshot, cfg config.Config) error {
	return pageTemplate.Execute(w, pageData{
		Title: cfg.Title,
		Summary: english.Plural(len(snapshot.Records), "service", "") + " exposed on " +
			cfg.Hostname + " via " + english.Plural(snapshot.PortCount(), "port", ""),
		GeneratedAt: snapshot.GeneratedAt.Format(generatedAtLayout),
		Fingerprint: strconv.FormatUint(snapshot.Fingerprint(), 16),
		PortCount:   snapshot.PortCount(),
		Records:     snapshot.Records,
	})
}
