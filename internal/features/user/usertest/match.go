package usertest

import (
	"reflect"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
)

// Matches evaluates the subset of the MongoDB query language used by the
// repositories: $and, $or, $ne, $in, $exists and equality on dotted paths.
func Matches(doc bson.M, filter bson.M) bool {
	for key, cond := range filter {
		switch key {
		case "$and":
			for _, sub := range clauses(cond) {
				if !Matches(doc, sub) {
					return false
				}
			}
		case "$or":
			matched := false
			for _, sub := range clauses(cond) {
				if Matches(doc, sub) {
					matched = true
					break
				}
			}
			if !matched {
				return false
			}
		default:
			value, found := lookup(doc, key)
			if !matchValue(value, found, cond) {
				return false
			}
		}
	}
	return true
}

func clauses(v any) []bson.M {
	switch c := v.(type) {
	case []bson.M:
		return c
	case bson.A:
		return toMaps(c)
	case []any:
		return toMaps(c)
	}
	return nil
}

func toMaps(items []any) []bson.M {
	out := make([]bson.M, 0, len(items))
	for _, item := range items {
		if m, ok := item.(bson.M); ok {
			out = append(out, m)
		}
	}
	return out
}

func matchValue(value any, found bool, cond any) bool {
	ops, isOps := cond.(bson.M)
	if !isOps || !hasOperator(ops) {
		return found && contains(value, cond)
	}
	for op, arg := range ops {
		switch op {
		case "$ne":
			if found && contains(value, arg) {
				return false
			}
		case "$in":
			in := false
			for _, candidate := range asSlice(arg) {
				if found && contains(value, candidate) {
					in = true
					break
				}
			}
			if !in {
				return false
			}
		case "$exists":
			want, _ := arg.(bool)
			if (found && value != nil) != want {
				return false
			}
		default:
			// Operators like $geoWithin are not evaluated in memory.
		}
	}
	return true
}

func hasOperator(m bson.M) bool {
	for k := range m {
		if strings.HasPrefix(k, "$") {
			return true
		}
	}
	return false
}

func asSlice(v any) []any {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice {
		return nil
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out
}

func lookup(doc bson.M, path string) (any, bool) {
	var current any = doc
	for _, part := range strings.Split(path, ".") {
		m, ok := asMap(current)
		if !ok {
			return nil, false
		}
		current, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

func asMap(v any) (bson.M, bool) {
	switch m := v.(type) {
	case bson.M:
		return m, true
	case bson.D:
		return m.Map(), true
	}
	return nil, false
}

// contains matches value against target. An array value matches when the
// array itself or any of its elements equals target.
func contains(value, target any) bool {
	if equal(value, target) {
		return true
	}
	if arr, ok := value.(bson.A); ok {
		for _, elem := range arr {
			if equal(elem, target) {
				return true
			}
		}
	}
	return false
}

// equal compares after a BSON round trip so that e.g. models.Role and
// string compare equal.
func equal(a, b any) bool {
	return reflect.DeepEqual(canonical(a), canonical(b))
}

func canonical(v any) any {
	raw, err := bson.Marshal(bson.M{"v": v})
	if err != nil {
		return v
	}
	var out bson.M
	if err := bson.Unmarshal(raw, &out); err != nil {
		return v
	}
	return out["v"]
}

// setPath assigns value at a dotted path, creating intermediate documents.
func setPath(doc bson.M, path string, value any) {
	parts := strings.Split(path, ".")
	current := doc
	for _, part := range parts[:len(parts)-1] {
		next, ok := asMap(current[part])
		if !ok {
			next = bson.M{}
		}
		current[part] = next
		current = next
	}
	current[parts[len(parts)-1]] = canonical(value)
}
