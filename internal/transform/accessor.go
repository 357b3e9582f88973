package transform

import "strconv"

// lookup traverses a nested structure of JSON-decoded maps and slices.
// Each step must type-match: a string step requires a map with that key,
// an int step requires a slice with that index in range. Any mismatch,
// missing key, out-of-range index or nil value along the way yields nil.
func lookup(obj any, path ...any) any {
	cur := obj
	for _, step := range path {
		switch k := step.(type) {
		case int:
			seq, ok := cur.([]any)
			if !ok || k < 0 || k >= len(seq) {
				return nil
			}
			cur = seq[k]
		case string:
			m, ok := cur.(map[string]any)
			if !ok {
				return nil
			}
			v, ok := m[k]
			if !ok {
				return nil
			}
			cur = v
		default:
			return nil
		}
	}
	return cur
}

// asString renders a scalar as a string. Numbers are formatted the way
// they appear in JSON; anything else yields the empty string.
func asString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case int:
		return strconv.Itoa(s)
	case int64:
		return strconv.FormatInt(s, 10)
	default:
		return ""
	}
}

// asFloat coerces a scalar to a float64, reporting whether the coercion succeeded.
func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// asInt coerces a scalar to an int, truncating fractional values.
func asInt(v any) (int, bool) {
	f, ok := asFloat(v)
	if !ok {
		return 0, false
	}
	return int(f), true
}

// asBool coerces a scalar to a bool. Strings use the usual flag
// spellings rather than truthiness, so "N" means false.
func asBool(v any) (bool, bool) {
	switch b := v.(type) {
	case bool:
		return b, true
	case float64:
		return b != 0, true
	case string:
		switch {
		case b == "Y" || b == "y" || b == "1":
			return true, true
		case b == "N" || b == "n" || b == "0" || b == "":
			return false, true
		}
		parsed, err := strconv.ParseBool(b)
		if err != nil {
			return false, false
		}
		return parsed, true
	default:
		return false, false
	}
}

// optString returns a pointer to the string form of v, or nil when v is
// absent or renders empty. Dense views use it to emit JSON null.
func optString(v any) *string {
	s := asString(v)
	if s == "" {
		return nil
	}
	return &s
}

// optFloat returns a pointer to the float64 form of v, or nil when v is
// absent or not numeric.
func optFloat(v any) *float64 {
	f, ok := asFloat(v)
	if !ok {
		return nil
	}
	return &f
}

// optInt returns a pointer to the int form of v, or nil when v is absent
// or not numeric.
func optInt(v any) *int {
	i, ok := asInt(v)
	if !ok {
		return nil
	}
	return &i
}
