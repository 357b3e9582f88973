package sweep

import "strconv"

// str returns v as a string, or "" for anything that is not one.
func str(v any) string {
	s, _ := v.(string)
	return s
}

// scalar renders a scalar as a comparable string, formatting numbers
// the way they appear in JSON.
func scalar(v any) string {
	switch n := v.(type) {
	case string:
		return n
	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64)
	case int:
		return strconv.Itoa(n)
	default:
		return ""
	}
}

// orderID returns the order's id for outcome reporting.
func orderID(order map[string]any) string {
	if id := scalar(order["id"]); id != "" {
		return id
	}
	return "unknown"
}

// orderStops returns the order's stop list. Non-object entries become
// nil placeholders so positions are preserved.
func orderStops(order map[string]any) []map[string]any {
	list, ok := order["stops"].([]any)
	if !ok {
		return nil
	}
	stops := make([]map[string]any, 0, len(list))
	for _, el := range list {
		m, _ := el.(map[string]any)
		stops = append(stops, m)
	}
	return stops
}

// orderMovements returns the order's movement list, likewise with nil
// placeholders for non-object entries.
func orderMovements(order map[string]any) []map[string]any {
	list, ok := order["movement"].([]any)
	if !ok {
		return nil
	}
	movements := make([]map[string]any, 0, len(list))
	for _, el := range list {
		m, _ := el.(map[string]any)
		movements = append(movements, m)
	}
	return movements
}

// digitsOnly strips everything but digits from a phone number.
func digitsOnly(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			out = append(out, s[i])
		}
	}
	return string(out)
}
