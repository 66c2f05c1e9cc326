// Package mapper turns decoded upstream JSON into fixed-column report rows.
//
// A Spec is compiled once from a report's column configuration: each
// column is either a Path (dot-separated walk into the record, numeric
// segments index arrays) or an Expr (an arithmetic combination of two
// paths, e.g. "spend / clicks" for a cost-per-click column).
//
// Rows(body) locates the record array, maps each record in upstream
// order, and guarantees every row has exactly one cell per column —
// missing or null fields become empty cells, never shifted columns.
// A body that is not iterable as records fails with *Error.
//
// Summarize(rows) produces the aggregated variant of a report: rows are
// grouped by the configured group_by column, numeric cells summed, text
// cells blanked except the group key.
package mapper
