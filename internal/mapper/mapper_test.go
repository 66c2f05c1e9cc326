package mapper

import (
	"errors"
	"testing"

	"github.com/insightcsv/insightcsv/internal/config"
)

func col(name, path string) config.ColumnConfig {
	return config.ColumnConfig{Name: name, Path: path}
}

func mustSpec(t *testing.T, cfg config.ReportConfig) *Spec {
	t.Helper()
	s, err := NewSpec(cfg)
	if err != nil {
		t.Fatalf("NewSpec: %v", err)
	}
	return s
}

func TestRows_BasicMapping(t *testing.T) {
	s := mustSpec(t, config.ReportConfig{
		Name:    "ads",
		Columns: []config.ColumnConfig{col("id", "id"), col("name", "name")},
	})

	body := decode(t, `[{"id":1,"name":"Alice, A."},{"id":2,"name":null}]`)
	rows, err := s.Rows(body)
	if err != nil {
		t.Fatalf("Rows: %v", err)
	}

	if len(rows) != 2 {
		t.Fatalf("rows: got %d, want 2", len(rows))
	}
	for i, r := range rows {
		if len(r) != 2 {
			t.Fatalf("row %d: got %d cells, want 2", i, len(r))
		}
	}
	if rows[0][0].Text != "1" || rows[0][1].Text != "Alice, A." {
		t.Errorf("row 0: got %q %q", rows[0][0].Text, rows[0][1].Text)
	}
	// null maps to an explicit empty value, never a shifted column.
	if rows[1][0].Text != "2" || rows[1][1].Text != "" {
		t.Errorf("row 1: got %q %q", rows[1][0].Text, rows[1][1].Text)
	}
}

func TestRows_RecordsPath(t *testing.T) {
	s := mustSpec(t, config.ReportConfig{
		Name:        "ads",
		RecordsPath: "data.insights",
		Columns:     []config.ColumnConfig{col("id", "id")},
	})

	body := decode(t, `{"data":{"insights":[{"id":10},{"id":20},{"id":30}]}}`)
	rows, err := s.Rows(body)
	if err != nil {
		t.Fatalf("Rows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows: got %d, want 3", len(rows))
	}
	// Output order equals upstream record order.
	if rows[0][0].Text != "10" || rows[1][0].Text != "20" || rows[2][0].Text != "30" {
		t.Errorf("order: got %q %q %q", rows[0][0].Text, rows[1][0].Text, rows[2][0].Text)
	}
}

func TestRows_NotIterable(t *testing.T) {
	s := mustSpec(t, config.ReportConfig{
		Name:    "ads",
		Columns: []config.ColumnConfig{col("id", "id")},
	})

	for _, raw := range []string{`{"id":1}`, `42`, `"nope"`} {
		_, err := s.Rows(decode(t, raw))
		var me *Error
		if !errors.As(err, &me) {
			t.Errorf("body %s: got %T (%v), want *Error", raw, err, err)
		}
	}
}

func TestRows_RecordsPathMissing(t *testing.T) {
	s := mustSpec(t, config.ReportConfig{
		Name:        "ads",
		RecordsPath: "insights",
		Columns:     []config.ColumnConfig{col("id", "id")},
	})

	_, err := s.Rows(decode(t, `{"other":[]}`))
	var me *Error
	if !errors.As(err, &me) {
		t.Fatalf("got %T (%v), want *Error", err, err)
	}
}

func TestRows_ValueRendering(t *testing.T) {
	s := mustSpec(t, config.ReportConfig{
		Name: "ads",
		Columns: []config.ColumnConfig{
			col("num", "num"),
			col("frac", "frac"),
			col("flag", "flag"),
			col("obj", "obj"),
			col("text", "text"),
		},
	})

	body := decode(t, `[{"num":7,"frac":2.75,"flag":true,"obj":{"k":"v"},"text":"héllo"}]`)
	rows, err := s.Rows(body)
	if err != nil {
		t.Fatalf("Rows: %v", err)
	}

	r := rows[0]
	if r[0].Text != "7" || !r[0].Numeric {
		t.Errorf("num: got %q numeric=%v", r[0].Text, r[0].Numeric)
	}
	if r[1].Text != "2.75" {
		t.Errorf("frac: got %q, want 2.75", r[1].Text)
	}
	if r[2].Text != "true" {
		t.Errorf("flag: got %q, want true", r[2].Text)
	}
	if r[3].Text != `{"k":"v"}` {
		t.Errorf("obj: got %q", r[3].Text)
	}
	if r[4].Text != "héllo" {
		t.Errorf("text: got %q, want héllo", r[4].Text)
	}
}

func TestRows_DerivedColumn(t *testing.T) {
	s := mustSpec(t, config.ReportConfig{
		Name: "ads",
		Columns: []config.ColumnConfig{
			col("Account", "account"),
			{Name: "Cost per Click", Expr: "spend / clicks"},
		},
	})

	body := decode(t, `[{"account":"a1","spend":100,"clicks":40},{"account":"a2","spend":5,"clicks":0}]`)
	rows, err := s.Rows(body)
	if err != nil {
		t.Fatalf("Rows: %v", err)
	}
	if rows[0][1].Text != "2.5" {
		t.Errorf("cpc: got %q, want 2.5", rows[0][1].Text)
	}
	if rows[1][1].Text != "0" {
		t.Errorf("cpc zero clicks: got %q, want 0", rows[1][1].Text)
	}
}

func TestSummarize_GroupsAndSums(t *testing.T) {
	s := mustSpec(t, config.ReportConfig{
		Name:    "ads",
		GroupBy: "Account",
		Columns: []config.ColumnConfig{
			col("Account", "account"),
			col("Campaign", "campaign"),
			col("Clicks", "clicks"),
			col("Spend", "spend"),
		},
	})

	body := decode(t, `[
		{"account":"acme","campaign":"c1","clicks":10,"spend":1.5},
		{"account":"globex","campaign":"c2","clicks":3,"spend":2},
		{"account":"acme","campaign":"c3","clicks":5,"spend":0.25}
	]`)
	rows, err := s.Rows(body)
	if err != nil {
		t.Fatalf("Rows: %v", err)
	}

	agg := s.Summarize(rows)
	if len(agg) != 2 {
		t.Fatalf("groups: got %d, want 2", len(agg))
	}

	// First-seen order: acme, then globex.
	acme, globex := agg[0], agg[1]
	if acme[0].Text != "acme" || globex[0].Text != "globex" {
		t.Fatalf("group order: got %q %q", acme[0].Text, globex[0].Text)
	}
	// Text columns blank except the group key.
	if acme[1].Text != "" {
		t.Errorf("campaign: got %q, want empty", acme[1].Text)
	}
	// Numeric columns summed.
	if acme[2].Text != "15" || acme[3].Text != "1.75" {
		t.Errorf("acme sums: got clicks=%q spend=%q", acme[2].Text, acme[3].Text)
	}
	if globex[2].Text != "3" || globex[3].Text != "2" {
		t.Errorf("globex sums: got clicks=%q spend=%q", globex[2].Text, globex[3].Text)
	}
}

func TestSummarize_MissingNumericStaysEmpty(t *testing.T) {
	s := mustSpec(t, config.ReportConfig{
		Name:    "ads",
		GroupBy: "Account",
		Columns: []config.ColumnConfig{
			col("Account", "account"),
			col("Clicks", "clicks"),
		},
	})

	// No record carries a numeric clicks value — the summary cell stays empty.
	body := decode(t, `[{"account":"acme"},{"account":"acme","clicks":"n/a"}]`)
	rows, err := s.Rows(body)
	if err != nil {
		t.Fatalf("Rows: %v", err)
	}
	agg := s.Summarize(rows)
	if agg[0][1].Text != "" {
		t.Errorf("clicks: got %q, want empty", agg[0][1].Text)
	}
}

func TestHeader_Order(t *testing.T) {
	s := mustSpec(t, config.ReportConfig{
		Name: "ads",
		Columns: []config.ColumnConfig{
			col("Platform", "platform"),
			col("Account", "account"),
			col("Clicks", "clicks"),
		},
	})
	h := s.Header()
	if len(h) != 3 || h[0] != "Platform" || h[1] != "Account" || h[2] != "Clicks" {
		t.Errorf("header: got %v", h)
	}
}

func TestNewSpec_InvalidColumn(t *testing.T) {
	_, err := NewSpec(config.ReportConfig{
		Name:    "ads",
		Columns: []config.ColumnConfig{{Name: "bad", Expr: "spend %% clicks"}},
	})
	if err == nil {
		t.Fatal("expected error for invalid expr, got nil")
	}

	_, err = NewSpec(config.ReportConfig{
		Name:        "ads",
		RecordsPath: "a..b",
		Columns:     []config.ColumnConfig{col("id", "id")},
	})
	if err == nil {
		t.Fatal("expected error for invalid records_path, got nil")
	}
}
