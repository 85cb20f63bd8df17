// Package web implements a browser UI over the library query API.
//
// # Library Browser Implementation Plan
//
// # Architecture
//
// The browser UI is a thin client over the JSON endpoints served by
// internal/server. Each view maps to one or two API calls:
//
//  1. Library Table: paginated track list with sort controls (GET /api/tracks)
//  2. Search: debounced text search across title, artist and album (GET /api/tracks/search)
//  3. Facets: genre and year filter sidebars (GET /api/genres, GET /api/years)
//  4. Track Detail: single-track panel with album art and genres (GET /api/tracks/{id})
//  5. Dashboard: library stats, top genres, decade chart (GET /api/stats)
//  6. Run Control: trigger a refresh and poll its progress (POST /api/run, GET /api/status)
//
// Core Components
//
//   - Static assets embedded with go:embed and served from the query server
//   - HTMX for partial swaps on search, pagination and facet selection
//   - Polling against /api/status while a pipeline run is in flight
//
// Routes
//
//	GET /            → library table with facets
//	GET /dashboard   → stats view
//	GET /tracks/{id} → track detail panel
//
// # State Management
//
// All state lives server-side in SQLite; the UI carries only the current
// filter set in the query string, so views are linkable and the browser
// back button works without client-side routing.
//
// Refresh Flow
//
//  1. User clicks refresh, POST /api/run returns 202 or 409
//  2. UI polls GET /api/status, rendering the phase message
//  3. On "done" the table reloads; on "error" the message is surfaced inline
//
// Dependencies
//
//   - html/template: server-side rendering
//   - net/http: static file serving via the existing Router
//
// Implementation Tasks
//
//  1. Base template with navigation and run status banner
//  2. Track table partial with sort headers
//  3. Facet sidebar partials (genres, years)
//  4. Detail panel partial
//  5. Stats dashboard with decade distribution
//  6. Status polling fragment
//
// # Testing Strategy
//
// Use httptest against the assembled router: validate template rendering,
// HTMX fragment boundaries, and that filter parameters round-trip into
// repository queries.
package web
