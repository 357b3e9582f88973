package transform

import (
	"fmt"
	"strings"
)

// Stop type codes the TMS is known to emit. Anything else is classified
// by position.
func isPickupCode(code string) bool {
	return code == "PU" || code == "ORIGIN"
}

func isDropCode(code string) bool {
	return code == "SO" || code == "DESTINATION"
}

func stopTypeCode(stop map[string]any) string {
	return strings.ToUpper(asString(stop["stop_type"]))
}

// rawStops pulls the stops list off an order. Elements that are not
// objects are a malformed order, reported as an error so batch callers
// can drop the order and move on.
func rawStops(order map[string]any) ([]map[string]any, error) {
	list, ok := order["stops"].([]any)
	if !ok {
		return nil, nil
	}
	stops := make([]map[string]any, 0, len(list))
	for i, el := range list {
		m, ok := el.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("stop %d is not an object", i)
		}
		stops = append(stops, m)
	}
	return stops, nil
}

func stopLocation(stop map[string]any) Location {
	city := optString(stop["city_name"])
	if city == nil {
		city = optString(stop["city"])
	}
	zip := optString(stop["zip_code"])
	if zip == nil {
		zip = optString(stop["zip"])
	}
	return Location{
		City:    city,
		State:   optString(stop["state"]),
		Zip:     zip,
		Country: "US",
		Address: optString(stop["address"]),
	}
}

// stopWindow formats a stop's scheduled early/late timestamps.
func stopWindow(stop map[string]any) (openTS, closeTS string) {
	openTS, _ = NormalizeTimestamp(stop["sched_arrive_early"])
	closeTS, _ = NormalizeTimestamp(stop["sched_arrive_late"])
	return openTS, closeTS
}

// ClassifyStops assigns each raw stop a canonical role and builds the
// ordered stop list for a load event.
//
// The first pickup-class stop becomes the origin and later ones become
// intermediate picks; the last drop-class stop becomes the destination
// and earlier ones become drops. Unrecognized type codes fall back to
// position: a leading stop with no origin yet is the origin, a trailing
// stop with no explicit destination is the destination, and everything
// else defaults to pick. If the input is non-empty and no stop was
// classified origin or destination, one is synthesized from the first
// or last raw stop so the output always carries both.
func ClassifyStops(order map[string]any) ([]Stop, error) {
	stops, err := rawStops(order)
	if err != nil || len(stops) == 0 {
		return nil, err
	}

	// The destination is the last drop-class stop, wherever it sits.
	lastDropIdx := -1
	for i := len(stops) - 1; i >= 0; i-- {
		if isDropCode(stopTypeCode(stops[i])) {
			lastDropIdx = i
			break
		}
	}

	result := make([]Stop, 0, len(stops))
	originFound := false
	for i, st := range stops {
		var role string
		switch code := stopTypeCode(st); {
		case isPickupCode(code):
			if originFound {
				role = RolePick
			} else {
				role = RoleOrigin
				originFound = true
			}
		case isDropCode(code):
			if i == lastDropIdx {
				role = RoleDestination
			} else {
				role = RoleDrop
			}
		case code == "PICK" || code == "P":
			role = RolePick
		case code == "DROP" || code == "D":
			role = RoleDrop
		case i == 0 && !originFound:
			role = RoleOrigin
			originFound = true
		case i == len(stops)-1 && lastDropIdx == -1:
			role = RoleDestination
		default:
			role = RolePick
		}

		result = append(result, buildStop(st, role, stopOrder(st, i)))
	}

	result = ensureOrigin(result, stops)
	result = ensureDestination(result, stops)
	return result, nil
}

// stopOrder prefers the TMS sequence fields over list position.
func stopOrder(stop map[string]any, idx int) int {
	seq := stop["movement_sequence"]
	if seq == nil {
		seq = stop["order_sequence"]
	}
	if n, ok := asInt(seq); ok {
		return n
	}
	return idx + 1
}

func buildStop(st map[string]any, role string, order int) Stop {
	openTS, closeTS := stopWindow(st)
	s := Stop{
		Type:               role,
		Location:           stopLocation(st),
		StopOrder:          order,
		StopTimestampOpen:  openTS,
		StopTimestampClose: closeTS,
		LoadingType:        asString(st["__loadUnloadDescr"]),
	}
	if hasContent(st["notes"]) {
		s.Notes = st["notes"]
	}
	return s
}

// synthStop builds a bare synthesized stop: location and window only, no
// loading type or notes.
func synthStop(st map[string]any, role string, order int) Stop {
	openTS, closeTS := stopWindow(st)
	return Stop{
		Type:               role,
		Location:           stopLocation(st),
		StopOrder:          order,
		StopTimestampOpen:  openTS,
		StopTimestampClose: closeTS,
	}
}

func hasContent(v any) bool {
	switch n := v.(type) {
	case nil:
		return false
	case string:
		return n != ""
	case []any:
		return len(n) > 0
	default:
		return true
	}
}

func ensureOrigin(result []Stop, stops []map[string]any) []Stop {
	for _, s := range result {
		if s.Type == RoleOrigin {
			return result
		}
	}
	synth := synthStop(stops[0], RoleOrigin, 1)
	return append([]Stop{synth}, result...)
}

func ensureDestination(result []Stop, stops []map[string]any) []Stop {
	maxOrder := 0
	for _, s := range result {
		if s.Type == RoleDestination {
			return result
		}
		if s.StopOrder > maxOrder {
			maxOrder = s.StopOrder
		}
	}
	return append(result, synthStop(stops[len(stops)-1], RoleDestination, maxOrder+1))
}
