package sqlite

import (
	"fmt"
	"strings"

	"github.com/mesh-intelligence/profilefields/pkg/types"
)

// whereClause accumulates filter conditions for a Fetch query.
type whereClause struct {
	conditions []string
	args       []any
}

func (w *whereClause) add(cond string, args ...any) {
	w.conditions = append(w.conditions, cond)
	w.args = append(w.args, args...)
}

func (w *whereClause) String() string {
	if len(w.conditions) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conditions, " AND ")
}

// filterColumn describes one accepted filter key.
type filterColumn struct {
	key  string
	kind string // "string", "int" or "bool"
	cond string // SQL condition with a single placeholder
}

// buildWhere turns a filter into a WHERE clause. Keys not listed in cols
// and values of the wrong type are rejected with ErrInvalidFilter.
func buildWhere(filter types.Filter, cols []filterColumn) (*whereClause, error) {
	w := &whereClause{}
	if len(filter) == 0 {
		return w, nil
	}
	known := make(map[string]filterColumn, len(cols))
	for _, c := range cols {
		known[c.key] = c
	}
	for key := range filter {
		if _, ok := known[key]; !ok {
			return nil, fmt.Errorf("%w: unknown key %q", types.ErrInvalidFilter, key)
		}
	}
	// Iterate cols, not the map, so the generated SQL is stable.
	for _, c := range cols {
		v, ok := filter[c.key]
		if !ok {
			continue
		}
		var arg any
		switch c.kind {
		case "string":
			s, ok := v.(string)
			if !ok {
				return nil, fmt.Errorf("%w: %s must be a string", types.ErrInvalidFilter, c.key)
			}
			arg = s
		case "int":
			n, ok := asInt64(v)
			if !ok {
				return nil, fmt.Errorf("%w: %s must be an integer", types.ErrInvalidFilter, c.key)
			}
			arg = n
		case "bool":
			bv, ok := v.(bool)
			if !ok {
				return nil, fmt.Errorf("%w: %s must be a bool", types.ErrInvalidFilter, c.key)
			}
			arg = bv
		}
		w.add(c.cond, arg)
	}
	return w, nil
}

func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	default:
		return 0, false
	}
}

// toAny converts a typed slice into the []any the Table interface returns.
func toAny[T any](items []T) []any {
	out := make([]any, 0, len(items))
	for i := range items {
		out = append(out, &items[i])
	}
	return out
}
