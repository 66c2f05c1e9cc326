package mapper

import (
	"encoding/json"
	"strconv"

	"github.com/insightcsv/insightcsv/internal/config"
)

// Cell is one CSV field value. Numeric cells keep their float64 value
// alongside the rendered text so Summarize can aggregate without
// re-parsing.
type Cell struct {
	Text    string
	Num     float64
	Numeric bool
}

// Row is one report row: a fixed-arity slice of cells, one per column,
// in column-specification order.
type Row []Cell

// Strings returns the row's rendered field values for CSV encoding.
func (r Row) Strings() []string {
	out := make([]string, len(r))
	for i, c := range r {
		out[i] = c.Text
	}
	return out
}

type column struct {
	name    string
	path    Path
	expr    Expr
	derived bool
}

// Spec is a compiled report specification: the ordered columns, the
// location of the record array inside the upstream body, and the
// optional summary grouping column. A Spec is immutable once compiled
// and safe for concurrent use.
type Spec struct {
	columns []column
	records *Path // nil — the body itself is the record array
	groupBy int   // column index, -1 when no summary is configured
}

// NewSpec compiles a report configuration. Paths and expressions are
// parsed once here so per-request mapping never re-parses.
func NewSpec(cfg config.ReportConfig) (*Spec, error) {
	s := &Spec{
		columns: make([]column, 0, len(cfg.Columns)),
		groupBy: -1,
	}

	if cfg.RecordsPath != "" {
		p, err := ParsePath(cfg.RecordsPath)
		if err != nil {
			return nil, errf("report %q: records_path: %v", cfg.Name, err)
		}
		s.records = &p
	}

	for i, c := range cfg.Columns {
		col := column{name: c.Name}
		switch {
		case c.Expr != "":
			expr, err := ParseExpr(c.Expr)
			if err != nil {
				return nil, errf("report %q: column %q: %v", cfg.Name, c.Name, err)
			}
			col.expr = expr
			col.derived = true
		default:
			p, err := ParsePath(c.Path)
			if err != nil {
				return nil, errf("report %q: column %q: %v", cfg.Name, c.Name, err)
			}
			col.path = p
		}
		if c.Name == cfg.GroupBy {
			s.groupBy = i
		}
		s.columns = append(s.columns, col)
	}

	return s, nil
}

// Header returns the ordered column names.
func (s *Spec) Header() []string {
	out := make([]string, len(s.columns))
	for i, c := range s.columns {
		out[i] = c.name
	}
	return out
}

// HasSummary reports whether a group_by column is configured.
func (s *Spec) HasSummary() bool { return s.groupBy >= 0 }

// Rows maps the decoded upstream body into report rows. The record
// array is located via records_path; the body itself must be the array
// when no records_path is set. Row order follows upstream record order.
//
// Rows fails with *Error when the located value is not a JSON array.
// Individual records of unexpected shape do not fail the report: every
// column path that cannot be resolved renders as an empty cell, so rows
// always keep the header's arity.
func (s *Spec) Rows(body any) ([]Row, error) {
	located := body
	if s.records != nil {
		v, ok := s.records.Eval(body)
		if !ok {
			return nil, errf("records_path %q not found in upstream body", s.records.String())
		}
		located = v
	}

	records, ok := located.([]any)
	if !ok {
		return nil, errf("upstream body is %T, want a JSON array of records", located)
	}

	rows := make([]Row, 0, len(records))
	for _, rec := range records {
		row := make(Row, len(s.columns))
		for i, col := range s.columns {
			if col.derived {
				row[i] = numericCell(col.expr.Eval(rec))
				continue
			}
			row[i] = cellFor(col.path.Eval(rec))
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Summarize aggregates rows by the group_by column: numeric cells are
// summed per group, text cells are blanked except the group key itself.
// Group order follows first appearance in rows. The caller must check
// HasSummary first.
func (s *Spec) Summarize(rows []Row) []Row {
	type group struct {
		sums []float64
		seen []bool
	}
	var order []string
	groups := make(map[string]*group)

	for _, row := range rows {
		key := row[s.groupBy].Text
		g, ok := groups[key]
		if !ok {
			g = &group{
				sums: make([]float64, len(s.columns)),
				seen: make([]bool, len(s.columns)),
			}
			groups[key] = g
			order = append(order, key)
		}
		for i, c := range row {
			if i == s.groupBy || !c.Numeric {
				continue
			}
			g.sums[i] += c.Num
			g.seen[i] = true
		}
	}

	out := make([]Row, 0, len(order))
	for _, key := range order {
		g := groups[key]
		row := make(Row, len(s.columns))
		for i := range s.columns {
			switch {
			case i == s.groupBy:
				row[i] = Cell{Text: key}
			case g.seen[i]:
				row[i] = numericCell(g.sums[i])
			}
		}
		out = append(out, row)
	}
	return out
}

// cellFor renders one resolved leaf value. Missing and null become the
// empty cell — never a shifted column.
func cellFor(v any, ok bool) Cell {
	if !ok {
		return Cell{}
	}
	switch t := v.(type) {
	case string:
		return Cell{Text: t}
	case float64:
		return numericCell(t)
	case bool:
		return Cell{Text: strconv.FormatBool(t)}
	default:
		// Composite value — the column points at an object or array.
		// Render as compact JSON rather than failing the row.
		b, err := json.Marshal(t)
		if err != nil {
			return Cell{}
		}
		return Cell{Text: string(b)}
	}
}

// numericCell renders f with the minimal digits that round-trip, so an
// upstream integer 1 emits "1", not "1.000000".
func numericCell(f float64) Cell {
	return Cell{
		Text:    strconv.FormatFloat(f, 'f', -1, 64),
		Num:     f,
		Numeric: true,
	}
}
