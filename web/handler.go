// (c) Siemens AG 2024
//
// SPDX-License-Identifier: MIT

package web

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/siemens/dockdash"
	"github.com/siemens/dockdash/scheduler"
	"github.com/thediveo/lxkns/log"
)

// Refresher triggers render passes and knows about the most recent one.
type Refresher interface {
	Trigger(ctx context.Context, trigger scheduler.Trigger) scheduler.Outcome
	Last() (scheduler.Outcome, bool)
}

var _ Refresher = (*scheduler.Scheduler)(nil)

// ShuttingDown is the error kind reported for refresh requests that arrive
// after the scheduler has been drained.
const ShuttingDown = "ShuttingDown"

// PassData describes a render pass in API responses.
type PassData struct {
	PassID      string            `json:"passId,omitempty"`
	Trigger     scheduler.Trigger `json:"trigger,omitempty"`
	Joined      bool              `json:"joined,omitempty"`
	Kind        string            `json:"kind,omitempty"`
	GeneratedAt *time.Time        `json:"generatedAt,omitempty"`
	Services    int               `json:"services"`
	Ports       int               `json:"ports"`
	Fingerprint string            `json:"fingerprint,omitempty"`
	Timestamp   time.Time         `json:"timestamp"`
}

// HealthData is the data of a health response.
type HealthData struct {
	Status   string    `json:"status"`
	LastPass *PassData `json:"lastPass,omitempty"`
}

// Handler handles the API and page requests.
type Handler struct {
	refresher Refresher
	page      string // path of the rendered page.
}

// NewHandler returns a new Handler triggering passes using the specified
// refresher and serving the rendered page from the specified path.
func NewHandler(refresher Refresher, page string) *Handler {
	return &Handler{
		refresher: refresher,
		page:      page,
	}
}

// Refresh triggers a render pass, or joins the one in flight, and reports its
// outcome. If the client goes away before the pass finishes, nothing is sent,
// while the pass nevertheless runs to completion.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	outcome := h.refresher.Trigger(r.Context(), scheduler.TriggerRefresh)
	data := passData(outcome)
	switch {
	case outcome.Err == nil:
		SendSuccess(w, "dashboard updated successfully", data)
	case errors.Is(outcome.Err, scheduler.ErrStopped):
		data.Kind = ShuttingDown
		SendError(w, outcome.Err.Error(), http.StatusServiceUnavailable, data)
	case outcome.PassID == "" && r.Context().Err() != nil:
		log.Debugf("refresh client went away while waiting for render pass")
	default:
		status := http.StatusInternalServerError
		if outcome.Kind() == dockdash.RuntimeUnavailable {
			status = http.StatusServiceUnavailable
		}
		SendError(w, outcome.Err.Error(), status, data)
	}
}

// Health reports that we're up and about, together with the outcome of the
// most recent pass, if any.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	health := HealthData{Status: "ok"}
	if outcome, ok := h.refresher.Last(); ok {
		data := passData(outcome)
		health.LastPass = &data
	}
	SendSuccess(w, "", health)
}

// Page serves the most recently rendered page. As pages are always replaced
// atomically, an opened page never changes under our feet.
func (h *Handler) Page(w http.ResponseWriter, r *http.Request) {
	f, err := os.Open(h.page)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			sendHTML(w, http.StatusNotFound, "Dashboard Not Found",
				"The dashboard page "+html.EscapeString(strconv.Quote(filepath.Base(h.page)))+
					" has not been rendered yet. Please try again after the next render pass, or "+
					`<a href="/api/refresh">trigger a refresh</a>.`)
			return
		}
		log.Errorf("cannot open dashboard page %s, reason: %s", h.page, err.Error())
		sendHTML(w, http.StatusInternalServerError, "Server Error", "Cannot load the dashboard page.")
		return
	}
	defer f.Close()
	fi, err := f.Stat()
	if err != nil || fi.IsDir() {
		sendHTML(w, http.StatusInternalServerError, "Server Error", "Cannot load the dashboard page.")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	http.ServeContent(w, r, fi.Name(), fi.ModTime(), f)
}

// NotFound tells clients where to go instead.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	sendHTML(w, http.StatusNotFound, "404 Not Found",
		"The requested page "+html.EscapeString(strconv.Quote(r.URL.Path))+" was not found. Available endpoints: "+
			`<a href="/">Dashboard</a>, <a href="/api/refresh">API Refresh</a>, <a href="/health">Health</a>.`)
}

// sendHTML sends a minimal HTML page; the title gets escaped, but the body is
// sent as is, so callers must escape anything in it that isn't theirs.
func sendHTML(w http.ResponseWriter, statusCode int, title, body string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(statusCode)
	fmt.Fprintf(w, "<html><body>\n<h1>%s</h1>\n<p>%s</p>\n</body></html>\n",
		html.EscapeString(title), body)
}

// passData returns the API description of the specified pass outcome.
func passData(outcome scheduler.Outcome) PassData {
	data := PassData{
		PassID:    outcome.PassID,
		Trigger:   outcome.Trigger,
		Joined:    outcome.Joined,
		Kind:      outcome.Kind().String(),
		Timestamp: time.Now(),
	}
	if snapshot := outcome.Snapshot; snapshot != nil {
		generatedAt := snapshot.GeneratedAt
		data.GeneratedAt = &generatedAt
		data.Services = len(snapshot.Records)
		data.Ports = snapshot.PortCount()
		data.Fingerprint = strconv.FormatUint(snapshot.Fingerprint(), 16)
	}
	return data
}
