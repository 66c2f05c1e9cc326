// Package config loads the insightcsv configuration from a YAML file.
//
// Config fields:
//   - Server.HTTPPort    — port for the report API (default 5000)
//   - Upstream.BaseURL   — root URL of the external API reports fetch from
//   - Upstream.Timeout   — per-request deadline for upstream calls (default 10s)
//   - Upstream.Auth      — "bearer", "apikey" or "none"; secrets resolved
//     from the environment via TokenEnv / KeyEnv, never stored inline
//   - Reports            — one entry per CSV report: upstream path, static
//     query parameters, records_path into the response body, the ordered
//     column specification, and an optional group_by for summaries
//
// Load(path) applies defaults before unmarshalling, then validates: report
// names must be unique, every column needs exactly one of path or expr, and
// group_by must name a declared column.
//
// Watch(ctx, path, onChange) hot-reloads the file on write; an invalid file
// keeps the previous configuration active.
package config
