package api

import (
	"fmt"
	"net/url"

	"github.com/insightcsv/insightcsv/internal/config"
	"github.com/insightcsv/insightcsv/internal/mapper"
	"github.com/insightcsv/insightcsv/internal/upstream"
)

// Report is one servable report: its upstream resource plus the
// compiled column specification.
type Report struct {
	Name  string
	Path  string
	Query url.Values
	Spec  *mapper.Spec
}

// Registry is one immutable generation of the pipeline configuration:
// the upstream client and every compiled report. The handler swaps
// whole generations atomically on config reload, so an in-flight
// request always sees one consistent view.
type Registry struct {
	Client  *upstream.Client
	Reports []*Report
	byName  map[string]*Report
}

// NewRegistry compiles the configuration into a Registry. Report order
// follows the config file; the first report is the default served at
// /report.
func NewRegistry(cfg *config.Config) (*Registry, error) {
	reg := &Registry{
		byName: make(map[string]*Report, len(cfg.Reports)),
	}

	// No reports means no upstream fetches, so the client is optional.
	if len(cfg.Reports) > 0 {
		client, err := upstream.New(cfg.Upstream)
		if err != nil {
			return nil, err
		}
		reg.Client = client
	}
	for _, rc := range cfg.Reports {
		spec, err := mapper.NewSpec(rc)
		if err != nil {
			return nil, fmt.Errorf("registry: %w", err)
		}
		query := url.Values{}
		for k, v := range rc.Query {
			query.Set(k, v)
		}
		rep := &Report{Name: rc.Name, Path: rc.Path, Query: query, Spec: spec}
		reg.Reports = append(reg.Reports, rep)
		reg.byName[rc.Name] = rep
	}
	return reg, nil
}

// Lookup returns the report with the given name.
func (r *Registry) Lookup(name string) (*Report, bool) {
	rep, ok := r.byName[name]
	return rep, ok
}

// Default returns the first configured report, or nil when none exist.
func (r *Registry) Default() *Report {
	if len(r.Reports) == 0 {
		return nil
	}
	return r.Reports[0]
}
