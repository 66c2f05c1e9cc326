// Package api implements the HTTP surface of insightcsv.
//
// New(registry, metrics) returns a Handler that serves:
//
//	GET /report                  — CSV for the first configured report
//	GET /reports/{name}          — CSV for a named report
//	GET /reports/{name}/summary  — aggregated CSV (group_by required)
//	GET /healthz                 — liveness JSON
//
// Successful report responses carry Content-Type: text/csv and a
// Content-Disposition filename hint. Pipeline failures map to:
//
//	upstream unreachable / timeout  → 503
//	upstream non-2xx or bad JSON    → 502
//	body not iterable as records    → 502
//	unknown report or summary       → 404
//	non-GET method                  → 405
//
// Error bodies are short JSON messages; the raw upstream response is
// logged but never echoed to the caller.
//
// The handler holds the upstream client and compiled report specs in an
// atomically swappable Registry so config hot-reload never races
// in-flight requests. No other state is shared across requests.
package api
