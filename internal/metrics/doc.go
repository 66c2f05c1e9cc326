// Package metrics exposes the service's operational counters in
// Prometheus text exposition format on GET /metrics.
//
// Families:
//
//	insightcsv_requests_total{report,code}  — report requests served
//	insightcsv_upstream_errors_total{kind}  — upstream failures by kind
//	insightcsv_rows_emitted_total{report}   — CSV data rows written
//	insightcsv_reports_configured           — reports in the active config
//
// Counters are held in plain maps behind a mutex and rendered on demand
// as client_model metric families through the expfmt encoder.
package metrics
