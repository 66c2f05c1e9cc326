package docs

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"

	"github.com/insightcsv/insightcsv/internal/config"
)

// OpenAPI 3.0 document types — only the subset this service emits.

type Document struct {
	OpenAPI string               `json:"openapi"`
	Info    Info                 `json:"info"`
	Paths   map[string]*PathItem `json:"paths"`
}

type Info struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Version     string `json:"version"`
}

type PathItem struct {
	Get *Operation `json:"get,omitempty"`
}

type Operation struct {
	OperationID string               `json:"operationId"`
	Summary     string               `json:"summary"`
	Tags        []string             `json:"tags,omitempty"`
	Responses   map[string]*Response `json:"responses"`
}

type Response struct {
	Description string                `json:"description"`
	Content     map[string]*MediaType `json:"content,omitempty"`
}

type MediaType struct {
	Schema *Schema `json:"schema,omitempty"`
}

type Schema struct {
	Type string `json:"type,omitempty"`
}

// Handler serves the generated document at its registered path
// (GET /apidocs). Reload regenerates the document from a new config.
type Handler struct {
	doc atomic.Pointer[Document]
}

// New builds a Handler documenting the endpoints the given config exposes.
func New(cfg *config.Config) *Handler {
	h := &Handler{}
	h.doc.Store(Build(cfg))
	return h
}

// Reload regenerates the document for a new config generation.
func (h *Handler) Reload(cfg *config.Config) {
	h.doc.Store(Build(cfg))
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.doc.Load()) //nolint:errcheck
}

// Build generates the OpenAPI document for the configured reports. The
// document mirrors the api package's actual surface: one path per
// report (plus the summary variant where group_by is set), the /report
// default alias, /healthz and /metrics.
func Build(cfg *config.Config) *Document {
	doc := &Document{
		OpenAPI: "3.0.3",
		Info: Info{
			Title:       "insightcsv",
			Description: "Fetches upstream API data and serves it as CSV reports.",
			Version:     "1.0.0",
		},
		Paths: make(map[string]*PathItem),
	}

	if len(cfg.Reports) > 0 {
		doc.Paths["/report"] = &PathItem{Get: &Operation{
			OperationID: "getDefaultReport",
			Summary:     fmt.Sprintf("CSV for the default report (%q)", cfg.Reports[0].Name),
			Tags:        []string{"reports"},
			Responses:   csvResponses(),
		}}
	}

	for _, r := range cfg.Reports {
		doc.Paths["/reports/"+r.Name] = &PathItem{Get: &Operation{
			OperationID: "getReport_" + r.Name,
			Summary:     fmt.Sprintf("CSV report %q, one row per upstream record", r.Name),
			Tags:        []string{"reports"},
			Responses:   csvResponses(),
		}}
		if r.GroupBy != "" {
			doc.Paths["/reports/"+r.Name+"/summary"] = &PathItem{Get: &Operation{
				OperationID: "getReportSummary_" + r.Name,
				Summary: fmt.Sprintf("CSV report %q aggregated by %q: numeric columns summed per group",
					r.Name, r.GroupBy),
				Tags:      []string{"reports"},
				Responses: csvResponses(),
			}}
		}
	}

	doc.Paths["/healthz"] = &PathItem{Get: &Operation{
		OperationID: "getHealth",
		Summary:     "Process liveness",
		Tags:        []string{"ops"},
		Responses: map[string]*Response{
			"200": jsonResponse("Service is up."),
		},
	}}
	doc.Paths["/metrics"] = &PathItem{Get: &Operation{
		OperationID: "getMetrics",
		Summary:     "Prometheus text exposition of service counters",
		Tags:        []string{"ops"},
		Responses: map[string]*Response{
			"200": textResponse("Metric families in Prometheus text format."),
		},
	}}

	return doc
}

func csvResponses() map[string]*Response {
	return map[string]*Response{
		"200": {
			Description: "CSV document: header row of column names, then one line per record, CRLF-terminated.",
			Content: map[string]*MediaType{
				"text/csv": {Schema: &Schema{Type: "string"}},
			},
		},
		"404": jsonResponse("Report (or its summary variant) is not configured."),
		"502": jsonResponse("Upstream returned a non-2xx status or an unusable body."),
		"503": jsonResponse("Upstream API is unreachable."),
	}
}

func jsonResponse(desc string) *Response {
	return &Response{
		Description: desc,
		Content: map[string]*MediaType{
			"application/json": {Schema: &Schema{Type: "object"}},
		},
	}
}

func textResponse(desc string) *Response {
	return &Response{
		Description: desc,
		Content: map[string]*MediaType{
			"text/plain": {Schema: &Schema{Type: "string"}},
		},
	}
}
