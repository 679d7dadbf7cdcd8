// ABOUTME: Package documentation for the admin web UI
// ABOUTME: Describes authentication and the available pages

// Package webadmin serves the operator-facing web UI.
//
// Authentication is a single shared password, checked against a bcrypt hash
// computed at startup. A successful login issues an HS256 JWT stored in an
// HttpOnly cookie valid for 24 hours; every other page requires it.
//
// Pages:
//
//   - GET  /            leads dashboard with status filter, search and paging
//   - POST /leads/{id}/status   move a lead through the pipeline
//   - GET  /users       registered chat users
//   - GET  /users/{id}/transcript   recorded conversation, Markdown rendered
//   - GET  /healthz     unauthenticated liveness probe
//
// Templates are embedded with go:embed and rendered with html/template.
package webadmin
