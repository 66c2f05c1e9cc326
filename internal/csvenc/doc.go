// Package csvenc serializes report rows as CSV.
//
// Encoding is deterministic and side-effect free: CRLF line endings,
// standard quoting, and the stable column order the mapper's header
// defines.
package csvenc
