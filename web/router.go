// (c) Siemens AG 2024
//
// SPDX-License-Identifier: MIT

package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

// NewRouter returns a new chi router with all routes of the refresh listener
// configured.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()

	// Middleware; request IDs and real IPs must be known before logging.
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.RequestLogger(&chimiddleware.DefaultLogFormatter{
		Logger:  logrus.StandardLogger(),
		NoColor: true,
	}))
	r.Use(chimiddleware.Recoverer)

	r.Get("/health", h.Health)
	r.Get("/api/refresh", h.Refresh)

	r.Get("/", h.Page)
	r.Get("/dashboard", h.Page)

	r.NotFound(h.NotFound)

	return r
}
