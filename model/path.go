package model

import "strings"

// splitPath splits a dotted path "a.b.c" into its segments. An empty
// string yields a single empty segment, matching how a bare field name is
// addressed.
func splitPath(p string) []string {
	if p == "" {
		return []string{""}
	}
	return strings.Split(p, ".")
}

func joinPath(segs []string) string {
	return strings.Join(segs, ".")
}

// matchPrefix reports whether pattern segments match query segments over
// their shared prefix length: each pattern segment must equal the
// corresponding query segment or be the wildcard "*". This is the
// algorithm behind watcher pattern matching.
func matchPrefix(pattern, query []string) bool {
	n := len(pattern)
	if len(query) < n {
		n = len(query)
	}
	for i := 0; i < n; i++ {
		if pattern[i] != "*" && pattern[i] != query[i] {
			return false
		}
	}
	return true
}

// watcherMatches implements the full watcher-matching rule, including the
// asymmetric strict-prefix behaviors:
//
//   - p strict prefix of q: fires only if deep.
//   - q strict prefix of p (or equal length, equal-or-wildcard): always
//     fires — the newly assigned parent reshapes descendants.
func watcherMatches(pattern, query []string, deep bool) bool {
	if !matchPrefix(pattern, query) {
		return false
	}
	switch {
	case len(pattern) < len(query):
		// pattern is a strict prefix of query.
		return deep
	default:
		// query is a prefix of (or equal to) pattern: always fires.
		return true
	}
}

// PathSpec is the compile-time-ish result of PathOf: the static shape of a
// dotted field path resolved against a ClassDef.
type PathSpec struct {
	Path      string
	PathArray []string
	Kind      FieldKind
	Required  bool
	Reference bool
}

// PathOf resolves a dotted field path against class, walking through
// nested Model-typed fields the way the runtime path navigator does,
// returning its static shape.
func PathOf(class *ClassDef, dotted string) (PathSpec, error) {
	segs := splitPath(dotted)
	cur := class
	var lastDef *FieldDef
	for i, seg := range segs {
		if cur == nil {
			return PathSpec{}, notFoundPathErr(dotted)
		}
		fd := cur.FieldDef(seg)
		if fd == nil {
			return PathSpec{}, notFoundPathErr(dotted)
		}
		lastDef = fd
		if i < len(segs)-1 {
			if fd.Kind != KindModel || fd.ModelClass == nil {
				return PathSpec{}, notFoundPathErr(dotted)
			}
			cur = fd.ModelClass
		}
	}
	return PathSpec{
		Path:      dotted,
		PathArray: segs,
		Kind:      lastDef.Kind,
		Required:  lastDef.Required,
		Reference: lastDef.Reference,
	}, nil
}

// Path resolves a dotted path (no wildcards) against a live Model,
// returning the value at that path. Numeric segments index into list
// fields. On a non-Model intermediate, returns (nil, false).
func (m *Model) Path(p string) (any, bool) {
	segs := splitPath(p)
	return m.pathSegs(segs)
}

func (m *Model) pathSegs(segs []string) (any, bool) {
	if len(segs) == 0 {
		return nil, false
	}
	head, rest := segs[0], segs[1:]
	v, ok := m.getRaw(head)
	if !ok {
		return nil, false
	}
	if len(rest) == 0 {
		return v, true
	}
	switch t := v.(type) {
	case *Model:
		return t.pathSegs(rest)
	case *FieldList:
		idx, err := parseIndex(rest[0])
		if err != nil {
			return nil, false
		}
		item, ok := t.GetOK(idx)
		if !ok {
			return nil, false
		}
		if len(rest) == 1 {
			return item, true
		}
		if sub, ok := item.(*Model); ok {
			return sub.pathSegs(rest[1:])
		}
		return nil, false
	default:
		return nil, false
	}
}

// PathPattern resolves a dotted path containing "*" wildcards on
// intermediate or final segments against a live Model, returning a map of
// every matching concrete path to its value.
func (m *Model) PathPattern(p string) map[string]any {
	segs := splitPath(p)
	out := make(map[string]any)
	m.collectPattern(segs, nil, out)
	return out
}

func (m *Model) collectPattern(remaining, prefix []string, out map[string]any) {
	if len(remaining) == 0 {
		return
	}
	head, rest := remaining[0], remaining[1:]
	candidates := []string{head}
	if head == "*" {
		candidates = m.FieldNames()
	}
	for _, name := range candidates {
		v, ok := m.getRaw(name)
		if !ok {
			continue
		}
		path := append(append([]string(nil), prefix...), name)
		if len(rest) == 0 {
			out[joinPath(path)] = v
			continue
		}
		if sub, ok := v.(*Model); ok {
			sub.collectPattern(rest, path, out)
		}
	}
}

func parseIndex(seg string) (int, error) {
	n := 0
	if seg == "" {
		return 0, notFoundPathErr(seg)
	}
	for _, r := range seg {
		if r < '0' || r > '9' {
			return 0, notFoundPathErr(seg)
		}
		n = n*10 + int(r-'0')
	}
	return n, nil
}
