/*
Package web implements the refresh listener: a small HTTP API to trigger render
passes on demand, which additionally serves the most recently rendered page.

Routes:

  - GET /api/refresh triggers a render pass (or joins the one in flight) and
    reports its outcome in a JSON [Response] envelope. Failed passes are
    reported with HTTP 503 for an unavailable container runtime and with HTTP
    500 for a page that couldn't be written; the error kind is in the
    envelope's data.
  - GET /health reports that the listener is up, together with the outcome
    of the most recent pass.
  - GET / and GET /dashboard serve the rendered page.

The listener doesn't implement any authentication. Binding it only to the
loopback and private overlay network addresses is the only access control.
*/
package web
