package metrics

import (
	"net/http"
	"sort"
	"strconv"
	"sync"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
)

// Metric family names exposed on /metrics.
const (
	famRequests    = "insightcsv_requests_total"
	famUpstreamErr = "insightcsv_upstream_errors_total"
	famRows        = "insightcsv_rows_emitted_total"
	famReports     = "insightcsv_reports_configured"
)

// Metrics holds the service's counters and renders them in Prometheus
// text exposition format. Safe for concurrent use.
type Metrics struct {
	mu             sync.Mutex
	requests       map[[2]string]float64 // {report, code} → count
	upstreamErrors map[string]float64    // kind → count
	rowsEmitted    map[string]float64    // report → count
	reports        float64
}

// New creates an empty Metrics registry.
func New() *Metrics {
	return &Metrics{
		requests:       make(map[[2]string]float64),
		upstreamErrors: make(map[string]float64),
		rowsEmitted:    make(map[string]float64),
	}
}

// ObserveRequest counts one served report request by name and status code.
func (m *Metrics) ObserveRequest(report string, code int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests[[2]string{report, strconv.Itoa(code)}]++
}

// ObserveUpstreamError counts one upstream failure by kind
// (unavailable | bad_status | malformed).
func (m *Metrics) ObserveUpstreamError(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upstreamErrors[kind]++
}

// AddRows counts CSV data rows emitted for a report.
func (m *Metrics) AddRows(report string, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rowsEmitted[report] += float64(n)
}

// SetReportsConfigured records how many reports the active config defines.
func (m *Metrics) SetReportsConfigured(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reports = float64(n)
}

// ServeHTTP renders all families in Prometheus text format.
func (m *Metrics) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	format := expfmt.NewFormat(expfmt.TypeTextPlain)
	w.Header().Set("Content-Type", string(format))

	enc := expfmt.NewEncoder(w, format)
	for _, mf := range m.gather() {
		if err := enc.Encode(mf); err != nil {
			return
		}
	}
}

// gather snapshots the counters into metric families with stable ordering.
func (m *Metrics) gather() []*dto.MetricFamily {
	m.mu.Lock()
	defer m.mu.Unlock()

	requests := counterFamily(famRequests,
		"Report requests served, by report name and HTTP status code.")
	for _, k := range sortedKeys2(m.requests) {
		requests.Metric = append(requests.Metric, counter(m.requests[k],
			label("report", k[0]), label("code", k[1])))
	}

	upstreamErr := counterFamily(famUpstreamErr,
		"Upstream fetch failures, by failure kind.")
	for _, k := range sortedKeys(m.upstreamErrors) {
		upstreamErr.Metric = append(upstreamErr.Metric, counter(m.upstreamErrors[k],
			label("kind", k)))
	}

	rows := counterFamily(famRows,
		"CSV data rows emitted, by report name.")
	for _, k := range sortedKeys(m.rowsEmitted) {
		rows.Metric = append(rows.Metric, counter(m.rowsEmitted[k],
			label("report", k)))
	}

	reports := &dto.MetricFamily{
		Name: ptr(famReports),
		Help: ptr("Number of reports defined by the active configuration."),
		Type: dto.MetricType_GAUGE.Enum(),
		Metric: []*dto.Metric{
			{Gauge: &dto.Gauge{Value: ptr(m.reports)}},
		},
	}

	// The text encoder rejects families without metrics, so counter
	// families appear only once they have observations.
	out := make([]*dto.MetricFamily, 0, 4)
	for _, mf := range []*dto.MetricFamily{requests, upstreamErr, rows, reports} {
		if len(mf.Metric) > 0 {
			out = append(out, mf)
		}
	}
	return out
}

// --- dto construction helpers ------------------------------------------------

func counterFamily(name, help string) *dto.MetricFamily {
	return &dto.MetricFamily{
		Name: ptr(name),
		Help: ptr(help),
		Type: dto.MetricType_COUNTER.Enum(),
	}
}

func counter(value float64, labels ...*dto.LabelPair) *dto.Metric {
	return &dto.Metric{
		Label:   labels,
		Counter: &dto.Counter{Value: ptr(value)},
	}
}

func label(name, value string) *dto.LabelPair {
	return &dto.LabelPair{Name: ptr(name), Value: ptr(value)}
}

func ptr[T any](v T) *T { return &v }

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedKeys2(m map[[2]string]float64) [][2]string {
	keys := make([][2]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i][0] != keys[j][0] {
			return keys[i][0] < keys[j][0]
		}
		return keys[i][1] < keys[j][1]
	})
	return keys
}
