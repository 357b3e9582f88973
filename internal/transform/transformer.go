package transform

import (
	"fmt"
	"strings"
)

const saleNotesMaxLen = 2000

// Dropped records an order excluded from a batch transform and why.
type Dropped struct {
	OrderID string `json:"order_id"`
	Reason  string `json:"reason"`
}

// Orders transforms a batch of raw TMS orders into load events. The
// batch is best-effort: an order that cannot be transformed is dropped
// with a reason and never aborts the rest.
func Orders(orders []map[string]any) ([]LoadEvent, []Dropped) {
	events := make([]LoadEvent, 0, len(orders))
	var dropped []Dropped
	for _, order := range orders {
		ev, err := Order(order)
		if err != nil {
			dropped = append(dropped, Dropped{OrderID: orderID(order), Reason: err.Error()})
			continue
		}
		events = append(events, ev)
	}
	return events, dropped
}

// Order transforms one raw TMS order into a load event. Fields that the
// order does not carry, or carries in an uncoercible shape, are left out
// of the event; only structurally broken orders return an error.
func Order(order map[string]any) (ev LoadEvent, err error) {
	if order == nil {
		return ev, fmt.Errorf("order is not an object")
	}

	stops, err := ClassifyStops(order)
	if err != nil {
		return ev, err
	}
	movement, err := firstMovement(order)
	if err != nil {
		return ev, err
	}

	ev = LoadEvent{
		EventType:    eventTypeLoadUpsert,
		CustomLoadID: orderID(order),
		Status:       DeriveStatus(order),
		Type:         loadTypeOwned,
	}

	ev.EquipmentTypeName = extractEquipment(order)
	ev.Miles = extractMiles(order, movement)
	ev.MaxBuy = extractMaxBuy(movement)
	ev.PostedCarrierRate = extractPostedRate(movement)
	ev.Weight = extractWeight(order)
	ev.CommodityType = asString(order["commodity"])
	ev.NumberOfPieces = extractPieces(order)
	ev.IsPartial = extractFlag(order, "ltl")
	ev.IsHazmat = extractFlag(order, "hazmat")
	ev.IsHazardous = ev.IsHazmat
	ev.IsTeamRequired = extractFlag(order, "teams_required")
	ev.BOLNumber = asString(order["blnum"])
	ev.Branch = asString(order["revenue_code_id"])
	ev.CustomerID = asString(order["customer_id"])
	ev.TruckNumber = asString(movement["carrier_tractor"])
	ev.TrailerNumber = asString(movement["carrier_trailer"])
	ev.Origin, ev.Destination = extractOriginDestination(order)
	ev.Stops = stops
	ev.PickupNumber, ev.PONumber = extractReferenceNumbers(order)
	ev.PickupDateOpen, ev.PickupDateClose, ev.DeliveryDateOpen, ev.DeliveryDateClose = overallWindows(stops)
	ev.Contacts = extractContacts(order)
	ev.SaleNotes = extractSaleNotes(order)

	return ev, nil
}

// orderID prefers the order's own id, falling back to the freight
// group's order id.
func orderID(order map[string]any) string {
	if v, ok := order["id"]; ok {
		return strings.TrimSpace(asString(v))
	}
	if v := lookup(order, "freightGroup", "lme_order_id"); v != nil {
		return strings.TrimSpace(asString(v))
	}
	return ""
}

// firstMovement returns the first element of the order's movement list,
// or nil when there is none. A movement entry that is not an object is
// a malformed order.
func firstMovement(order map[string]any) (map[string]any, error) {
	list, ok := order["movement"].([]any)
	if !ok || len(list) == 0 {
		return nil, nil
	}
	if list[0] == nil {
		return nil, nil
	}
	m, ok := list[0].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("movement is not an object")
	}
	return m, nil
}

// extractEquipment scans every stop's reference numbers for one tagged
// "Equipment Initial", falling back to the order-level equipment
// descriptor.
func extractEquipment(order map[string]any) string {
	stops, err := rawStops(order)
	if err == nil {
		for _, st := range stops {
			refs, _ := st["referenceNumbers"].([]any)
			for _, r := range refs {
				ref, ok := r.(map[string]any)
				if !ok {
					continue
				}
				if asString(ref["__referenceQualDescr"]) != "Equipment Initial" {
					continue
				}
				if num := strings.TrimSpace(asString(ref["reference_number"])); num != "" {
					return num
				}
			}
		}
	}
	return strings.TrimSpace(asString(order["__equipmentTypeDescr"]))
}

// extractMiles prefers the order's billed distance over the movement's
// move distance. Uncoercible values fall through or drop silently.
func extractMiles(order, movement map[string]any) *int {
	if bill := order["bill_distance"]; bill != nil {
		if n, ok := asInt(bill); ok {
			return &n
		}
	}
	if movement != nil {
		if v := movement["move_distance"]; v != nil {
			if n, ok := asInt(v); ok {
				return &n
			}
		}
	}
	return nil
}

func extractMaxBuy(movement map[string]any) *float64 {
	if movement == nil {
		return nil
	}
	for _, key := range []string{"max_buy", "max_buy_n"} {
		if _, present := movement[key]; !present {
			continue
		}
		if f, ok := asFloat(movement[key]); ok {
			return &f
		}
	}
	return nil
}

// extractPostedRate prefers the override pay over the target pay.
func extractPostedRate(movement map[string]any) *float64 {
	if movement == nil {
		return nil
	}
	for _, key := range []string{"override_max_pay", "target_pay", "target_pay_n"} {
		if movement[key] == nil {
			continue
		}
		if f, ok := asFloat(movement[key]); ok {
			return &f
		}
	}
	return nil
}

// extractWeight takes the first stop carrying a coercible weight.
func extractWeight(order map[string]any) *float64 {
	stops, err := rawStops(order)
	if err != nil {
		return nil
	}
	for _, st := range stops {
		if st["weight"] == nil {
			continue
		}
		if f, ok := asFloat(st["weight"]); ok {
			return &f
		}
	}
	return nil
}

func extractPieces(order map[string]any) *int {
	if order["pieces"] == nil {
		return nil
	}
	if n, ok := asInt(order["pieces"]); ok {
		return &n
	}
	return nil
}

func extractFlag(order map[string]any, key string) *bool {
	if order[key] == nil {
		return nil
	}
	if b, ok := asBool(order[key]); ok {
		return &b
	}
	return nil
}

// extractOriginDestination picks the first explicit pickup-class stop
// and the last explicit drop-class stop. Unlike ClassifyStops it does
// not fall back to position; untyped stop lists yield no origin or
// destination here.
func extractOriginDestination(order map[string]any) (origin, destination *Location) {
	stops, err := rawStops(order)
	if err != nil {
		return nil, nil
	}
	for _, st := range stops {
		code := stopTypeCode(st)
		if origin == nil && isPickupCode(code) {
			loc := stopLocation(st)
			origin = &loc
		}
		if isDropCode(code) {
			loc := stopLocation(st)
			destination = &loc
		}
	}
	return origin, destination
}

// Reference number qualifiers for pickup and purchase order numbers.
func isPickupQual(qual string) bool {
	return qual == "OQ" || qual == "ORDER NUMBER"
}

func isPOQual(qual string) bool {
	return qual == "PO" || qual == "PURCHASE ORDER NUMBER"
}

// extractReferenceNumbers scans every stop's reference numbers; the
// first match per category wins across stops.
func extractReferenceNumbers(order map[string]any) (pickup, po string) {
	stops, err := rawStops(order)
	if err != nil {
		return "", ""
	}
	for _, st := range stops {
		refs, _ := st["referenceNumbers"].([]any)
		for _, r := range refs {
			ref, ok := r.(map[string]any)
			if !ok {
				continue
			}
			val := asString(ref["reference_number"])
			if val == "" {
				continue
			}
			qual := strings.ToUpper(asString(ref["reference_qual"]))
			if qual == "" {
				qual = strings.ToUpper(asString(ref["__referenceQualDescr"]))
			}
			if pickup == "" && isPickupQual(qual) {
				pickup = val
			}
			if po == "" && isPOQual(qual) {
				po = val
			}
		}
		if pickup != "" && po != "" {
			break
		}
	}
	return pickup, po
}

// overallWindows derives the load-level pickup and delivery windows from
// the classified origin and destination stops.
func overallWindows(stops []Stop) (pickupOpen, pickupClose, deliveryOpen, deliveryClose string) {
	for _, st := range stops {
		switch st.Type {
		case RoleOrigin:
			if pickupOpen == "" {
				pickupOpen = st.StopTimestampOpen
			}
			if pickupClose == "" {
				pickupClose = st.StopTimestampClose
			}
		case RoleDestination:
			if deliveryOpen == "" {
				deliveryOpen = st.StopTimestampOpen
			}
			if deliveryClose == "" {
				deliveryClose = st.StopTimestampClose
			}
		}
	}
	return pickupOpen, pickupClose, deliveryOpen, deliveryClose
}

// extractContacts builds the contacts list from the operations and
// entered-by users, in that order. A contact is included only when it
// has at least a name, email or phone; phone numbers are reduced to
// digits.
func extractContacts(order map[string]any) []Contact {
	var contacts []Contact
	for _, key := range []string{"operationsUser", "enteredUser"} {
		usr, ok := order[key].(map[string]any)
		if !ok {
			continue
		}
		name := asString(usr["name"])
		email := asString(usr["email_address"])
		phone := digitsOnly(asString(usr["phone"]))
		if name == "" && email == "" && phone == "" {
			continue
		}
		contacts = append(contacts, Contact{
			Name:  name,
			Email: email,
			Phone: phone,
			Type:  "assigned",
		})
	}
	return contacts
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// extractSaleNotes joins the note comments of the first pickup-class
// stop, capped to keep payloads bounded.
func extractSaleNotes(order map[string]any) string {
	stops, err := rawStops(order)
	if err != nil {
		return ""
	}
	for _, st := range stops {
		if !isPickupCode(stopTypeCode(st)) {
			continue
		}
		notes, _ := st["stopNotes"].([]any)
		var texts []string
		for _, n := range notes {
			note, ok := n.(map[string]any)
			if !ok {
				continue
			}
			if c := asString(note["comments"]); c != "" {
				texts = append(texts, c)
			}
		}
		if len(texts) == 0 {
			return ""
		}
		joined := strings.Join(texts, " \n")
		if len(joined) > saleNotesMaxLen {
			joined = joined[:saleNotesMaxLen]
		}
		return joined
	}
	return ""
}
