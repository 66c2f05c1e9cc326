package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"

	"github.com/insightcsv/insightcsv/internal/csvenc"
	"github.com/insightcsv/insightcsv/internal/metrics"
	"github.com/insightcsv/insightcsv/internal/upstream"
)

// Handler is the HTTP handler for the report endpoints.
// It runs the fetch → map → encode pipeline per request against the
// current Registry generation.
type Handler struct {
	reg     atomic.Pointer[Registry]
	metrics *metrics.Metrics
	mux     *http.ServeMux
}

// New creates a Handler serving the given registry and registers all routes.
func New(reg *Registry, m *metrics.Metrics) *Handler {
	h := &Handler{metrics: m, mux: http.NewServeMux()}
	h.reg.Store(reg)
	m.SetReportsConfigured(len(reg.Reports))

	h.mux.HandleFunc("/report", h.defaultReport)
	h.mux.HandleFunc("/reports/", h.namedReport) // subtree — extracts {name}[/summary]
	h.mux.HandleFunc("/healthz", h.healthz)

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// Reload swaps in a new registry generation. In-flight requests keep
// the generation they started with.
func (h *Handler) Reload(reg *Registry) {
	h.reg.Store(reg)
	h.metrics.SetReportsConfigured(len(reg.Reports))
}

// --- route handlers ----------------------------------------------------------

// defaultReport serves GET /report — the first configured report.
func (h *Handler) defaultReport(w http.ResponseWriter, r *http.Request) {
	reg := h.reg.Load()
	rep := reg.Default()
	if rep == nil {
		jsonErr(w, http.StatusNotFound, "no reports configured")
		return
	}
	h.serve(w, r, reg, rep, false)
}

// namedReport serves GET /reports/{name} and GET /reports/{name}/summary.
func (h *Handler) namedReport(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/reports/")
	name, variant, _ := strings.Cut(rest, "/")
	summary := false
	switch variant {
	case "":
	case "summary":
		summary = true
	default:
		jsonErr(w, http.StatusNotFound, "report not found")
		return
	}

	reg := h.reg.Load()
	rep, ok := reg.Lookup(name)
	if !ok {
		jsonErr(w, http.StatusNotFound, "report not found")
		return
	}
	h.serve(w, r, reg, rep, summary)
}

// healthz serves GET /healthz — process liveness.
func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	jsonResp(w, http.StatusOK, healthResponse{
		Status:  "ok",
		Reports: len(h.reg.Load().Reports),
	})
}

// --- pipeline ----------------------------------------------------------------

// serve runs one report request end to end: fetch the upstream
// resource, map records into rows, optionally aggregate, encode CSV.
// Every pipeline failure is caught here and mapped to a status with a
// sanitized message — the upstream body is never echoed to the caller.
func (h *Handler) serve(w http.ResponseWriter, r *http.Request, reg *Registry, rep *Report, summary bool) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		h.metrics.ObserveRequest(rep.Name, http.StatusMethodNotAllowed)
		return
	}

	if summary && !rep.Spec.HasSummary() {
		jsonErr(w, http.StatusNotFound, "report has no summary variant")
		h.metrics.ObserveRequest(rep.Name, http.StatusNotFound)
		return
	}

	body, err := reg.Client.Fetch(r.Context(), rep.Path, rep.Query)
	if err != nil {
		h.upstreamFailure(w, rep, err)
		return
	}

	rows, err := rep.Spec.Rows(body)
	if err != nil {
		slog.Warn("report: mapping failed", "report", rep.Name, "err", err)
		h.metrics.ObserveRequest(rep.Name, http.StatusBadGateway)
		jsonErr(w, http.StatusBadGateway, "upstream response has an unexpected shape")
		return
	}

	filename := rep.Name
	if summary {
		rows = rep.Spec.Summarize(rows)
		filename += "-summary"
	}

	var buf bytes.Buffer
	if err := csvenc.Encode(&buf, rep.Spec.Header(), rows); err != nil {
		// Encoding a well-formed row set cannot fail; this guards the writer.
		slog.Error("report: csv encoding failed", "report", rep.Name, "err", err)
		h.metrics.ObserveRequest(rep.Name, http.StatusInternalServerError)
		jsonErr(w, http.StatusInternalServerError, "report encoding failed")
		return
	}

	h.metrics.ObserveRequest(rep.Name, http.StatusOK)
	h.metrics.AddRows(rep.Name, len(rows))

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename+".csv"))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes()) //nolint:errcheck
}

// upstreamFailure maps an upstream error kind to an HTTP status and a
// sanitized message. The full error (including any body snippet) goes
// to the log only.
func (h *Handler) upstreamFailure(w http.ResponseWriter, rep *Report, err error) {
	var ue *upstream.Error
	if !errors.As(err, &ue) {
		// Fetch only returns *upstream.Error; anything else is a bug.
		slog.Error("report: unexpected fetch error", "report", rep.Name, "err", err)
		h.metrics.ObserveRequest(rep.Name, http.StatusBadGateway)
		jsonErr(w, http.StatusBadGateway, "upstream request failed")
		return
	}

	slog.Warn("report: upstream fetch failed",
		"report", rep.Name,
		"kind", ue.Kind.String(),
		"status", ue.Status,
		"err", err,
	)
	h.metrics.ObserveUpstreamError(ue.Kind.String())

	switch ue.Kind {
	case upstream.KindUnavailable:
		h.metrics.ObserveRequest(rep.Name, http.StatusServiceUnavailable)
		jsonErr(w, http.StatusServiceUnavailable, "upstream API is unavailable")
	case upstream.KindBadStatus:
		h.metrics.ObserveRequest(rep.Name, http.StatusBadGateway)
		jsonErr(w, http.StatusBadGateway,
			fmt.Sprintf("upstream API returned status %d", ue.Status))
	default: // KindMalformed
		h.metrics.ObserveRequest(rep.Name, http.StatusBadGateway)
		jsonErr(w, http.StatusBadGateway, "upstream API returned a malformed response")
	}
}

// --- helpers -----------------------------------------------------------------

func jsonResp(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	jsonResp(w, code, errorResponse{Error: msg})
}
