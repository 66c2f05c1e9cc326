package mapper

import (
	"strconv"
	"strings"
)

// Path is a compiled extraction path into a decoded JSON value.
// Segments are separated by dots; a numeric segment indexes into an
// array ("data.items.0.name"). Paths are parsed once at config load and
// evaluated per record.
type Path struct {
	raw  string
	segs []segment
}

type segment struct {
	key     string
	index   int
	isIndex bool
}

// ParsePath compiles a dot-separated path expression.
func ParsePath(s string) (Path, error) {
	if s == "" {
		return Path{}, errf("empty path")
	}
	parts := strings.Split(s, ".")
	segs := make([]segment, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			return Path{}, errf("path %q has an empty segment", s)
		}
		if i, err := strconv.Atoi(p); err == nil && i >= 0 {
			segs = append(segs, segment{index: i, isIndex: true})
			continue
		}
		segs = append(segs, segment{key: p})
	}
	return Path{raw: s, segs: segs}, nil
}

// String returns the original path expression.
func (p Path) String() string { return p.raw }

// Eval walks v segment by segment. The second return is false when any
// segment is missing, out of range, of the wrong container type, or
// resolves to JSON null. Eval never panics on unexpected shapes.
func (p Path) Eval(v any) (any, bool) {
	cur := v
	for _, seg := range p.segs {
		if seg.isIndex {
			arr, ok := cur.([]any)
			if !ok || seg.index >= len(arr) {
				return nil, false
			}
			cur = arr[seg.index]
			continue
		}
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = obj[seg.key]
		if !ok {
			return nil, false
		}
	}
	if cur == nil {
		return nil, false
	}
	return cur, true
}
