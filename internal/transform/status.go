package transform

import "strings"

// Status is a canonical load lifecycle status accepted by the broker.
type Status string

// The closed set of statuses the broker accepts.
const (
	StatusAtPickup    Status = "at_pickup"
	StatusPickedUp    Status = "picked_up"
	StatusAtDelivery  Status = "at_delivery"
	StatusDispatched  Status = "dispatched"
	StatusDelivered   Status = "delivered"
	StatusEnRoute     Status = "en_route"
	StatusInTransit   Status = "in_transit"
	StatusCompleted   Status = "completed"
	StatusAvailable   Status = "available"
	StatusCovered     Status = "covered"
	StatusUnavailable Status = "unavailable"
)

var canonicalStatuses = map[Status]struct{}{
	StatusAtPickup:    {},
	StatusPickedUp:    {},
	StatusAtDelivery:  {},
	StatusDispatched:  {},
	StatusDelivered:   {},
	StatusEnRoute:     {},
	StatusInTransit:   {},
	StatusCompleted:   {},
	StatusAvailable:   {},
	StatusCovered:     {},
	StatusUnavailable: {},
}

// statusAliases maps the TMS's abbreviations and descriptive spellings
// onto canonical statuses. Exact matches only; looser spellings are
// handled by statusPrefixRules.
var statusAliases = map[string]Status{
	"delv":       StatusDelivered,
	"disp":       StatusDispatched,
	"avail":      StatusAvailable,
	"at pu":      StatusAtPickup,
	"atpu":       StatusAtPickup,
	"pu":         StatusAtPickup,
	"picked up":  StatusPickedUp,
	"pku":        StatusPickedUp,
	"at dl":      StatusAtDelivery,
	"atdl":       StatusAtDelivery,
	"dl":         StatusAtDelivery,
	"en route":   StatusEnRoute,
	"enroute":    StatusEnRoute,
	"en_rt":      StatusEnRoute,
	"in transit": StatusInTransit,
	"intr":       StatusInTransit,
	"cmpl":       StatusCompleted,
	"covr":       StatusCovered,
	"unav":       StatusUnavailable,
}

// statusPrefixRules are evaluated in order after alias lookup fails.
var statusPrefixRules = []struct {
	prefix string
	status Status
}{
	{"deliver", StatusDelivered},
	{"dispatch", StatusDispatched},
	{"avail", StatusAvailable},
	{"complet", StatusCompleted},
	{"cover", StatusCovered},
	{"unavail", StatusUnavailable},
}

// normalizeStatusText maps free text onto a canonical status.
func normalizeStatusText(text string) (Status, bool) {
	t := strings.ToLower(strings.TrimSpace(text))
	if t == "" {
		return "", false
	}
	if _, ok := canonicalStatuses[Status(t)]; ok {
		return Status(t), true
	}
	if s, ok := statusAliases[t]; ok {
		return s, true
	}
	for _, rule := range statusPrefixRules {
		if strings.HasPrefix(t, rule.prefix) {
			return rule.status, true
		}
	}
	return "", false
}

// DeriveStatus resolves an order's canonical status. It is total: every
// order maps to exactly one of the canonical statuses.
//
// Resolution order:
//  1. first movement's brokerage_status text,
//  2. the order's display status (__statusDescr),
//  3. the single-letter order status code "D" (delivered),
//  4. default bucket: status code A/ACTIVE/REVIEW (or display status
//     AVAILABLE) means available, anything else means covered.
func DeriveStatus(order map[string]any) Status {
	if text, ok := lookup(order, "movement", 0, "brokerage_status").(string); ok {
		if s, ok := normalizeStatusText(text); ok {
			return s
		}
	}

	if text, ok := order["__statusDescr"].(string); ok {
		if s, ok := normalizeStatusText(text); ok {
			return s
		}
	}

	if code, ok := order["status"].(string); ok {
		if strings.ToUpper(strings.TrimSpace(code)) == "D" {
			return StatusDelivered
		}
	}

	code := strings.ToUpper(strings.TrimSpace(asString(order["status"])))
	descr := strings.ToUpper(strings.TrimSpace(asString(order["__statusDescr"])))
	switch code {
	case "A", "ACTIVE", "REVIEW":
		return StatusAvailable
	}
	switch descr {
	case "A", "ACTIVE", "REVIEW", "AVAILABLE":
		return StatusAvailable
	}
	return StatusCovered
}
