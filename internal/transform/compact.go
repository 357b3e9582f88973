package transform

// InternalNextSteps is the operational guidance attached to every
// compact find-load response, for the downstream conversational agent.
const InternalNextSteps = "1. Pitch the load with details: equipment, pickup, delivery, stops, distance, weight, commodity.\n\n" +
	"2. Ask the driver what number they have in mind. If they ask for the posted rate, " +
	"tell them there is no posted rate and ask again.\n\n" +
	"3. Internal note: schedule is strict. Do not transfer. " +
	"Pickup and delivery times cannot be changed."

// NotFoundNextSteps replaces the guidance when the lookup matched no load.
const NotFoundNextSteps = "Please ask the user again for the reference number (load number) to search for the load."

// CompactStopDetail is a dense stop description: every key is always
// present, null when the source lacks the value.
type CompactStopDetail struct {
	LocationName   *string `json:"location_name"`
	Address        *string `json:"address"`
	City           *string `json:"city"`
	State          *string `json:"state"`
	Zip            *string `json:"zip"`
	Phone          *string `json:"phone"`
	ScheduledEarly *string `json:"scheduled_early"`
	ScheduledLate  *string `json:"scheduled_late"`
	ActualArrival  *string `json:"actual_arrival"`
	Status         *string `json:"status"`
	LoadType       *string `json:"load_type"`
}

// CompactStop is one entry of the compact view's stop list.
type CompactStop struct {
	Type string `json:"type"`
	CompactStopDetail
	StopOrder int `json:"stop_order"`
}

// CompactCustomer identifies the order's customer.
type CompactCustomer struct {
	ID   *string `json:"id"`
	Name *string `json:"name"`
}

// CompactView is the dense single-order view served to callers (voice
// agents). Unlike LoadEvent every key is always emitted; missing source
// data becomes null. Rate, broker id and broker response are filled in
// by the serving layer, never by the mapper.
type CompactView struct {
	LoadNumber    *string `json:"load_number"`
	Status        *string `json:"status"`
	EquipmentType *string `json:"equipment_type"`

	Weight     *float64 `json:"weight"`
	WeightUnit *string  `json:"weight_unit"`
	Pieces     *int     `json:"pieces"`
	Cases      *int     `json:"cases"`
	Pallets    *int     `json:"pallets"`
	Commodity  *string  `json:"commodity"`

	Distance     *float64 `json:"distance"`
	DistanceUnit *string  `json:"distance_unit"`

	BOLNumber  *string `json:"bol_number"`
	ShipmentID *string `json:"shipment_id"`

	Pickup   CompactStopDetail `json:"pickup"`
	Delivery CompactStopDetail `json:"delivery"`

	Stops []CompactStop `json:"stops"`

	Customer CompactCustomer `json:"customer"`

	OrderedDate *string `json:"ordered_date"`
	Brokerage   any     `json:"brokerage"`
	Notes       *string `json:"notes"`

	InternalNextSteps string `json:"internal_next_steps"`

	Rate           any    `json:"rate,omitempty"`
	BrokerLoadID   string `json:"broker_load_id,omitempty"`
	BrokerResponse any    `json:"broker_response,omitempty"`
}

// Compact builds the dense view of a single order. formatTimestamps
// selects between normalized ISO timestamps and raw TMS passthrough,
// applied uniformly to every timestamp field.
func Compact(order map[string]any, formatTimestamps bool) CompactView {
	pickup, delivery := pickupAndDelivery(order)

	view := CompactView{
		LoadNumber:    optString(order["id"]),
		Status:        optString(order["__statusDescr"]),
		EquipmentType: optString(order["__equipmentTypeDescr"]),

		Weight:     optFloat(order["weight"]),
		WeightUnit: optString(order["weight_um"]),
		Pieces:     optInt(order["pieces"]),
		Cases:      optInt(pickup["cases"]),
		Pallets:    optInt(order["pallets_how_many"]),
		Commodity:  optString(order["commodity"]),

		Distance:     optFloat(order["bill_distance"]),
		DistanceUnit: optString(order["bill_distance_um"]),

		BOLNumber:  optString(order["blnum"]),
		ShipmentID: optString(order["shipment_id"]),

		Pickup:   compactStopDetail(pickup, formatTimestamps),
		Delivery: compactStopDetail(delivery, formatTimestamps),

		Stops: []CompactStop{},

		Customer: CompactCustomer{
			ID:   optString(order["customer_id"]),
			Name: optString(lookup(order, "customer", "name")),
		},

		OrderedDate: optString(order["ordered_date"]),
		Brokerage:   lookup(order, "movement", 0, "brokerage"),
		Notes:       optString(order["planning_comment"]),

		InternalNextSteps: InternalNextSteps,
	}

	if stops, err := rawStops(order); err == nil {
		for _, st := range stops {
			view.Stops = append(view.Stops, compactStop(st, formatTimestamps))
		}
	}

	return view
}

// pickupAndDelivery picks the compact view's pickup and delivery stops:
// first pickup-class stop (or first stop when none is typed) and last
// drop-class stop (or last stop). This is deliberately simpler than
// ClassifyStops and independent of it.
func pickupAndDelivery(order map[string]any) (pickup, delivery map[string]any) {
	stops, err := rawStops(order)
	if err != nil || len(stops) == 0 {
		return nil, nil
	}
	for _, st := range stops {
		code := stopTypeCode(st)
		if pickup == nil && isPickupCode(code) {
			pickup = st
		}
		if isDropCode(code) {
			delivery = st
		}
	}
	if pickup == nil {
		pickup = stops[0]
	}
	if delivery == nil {
		delivery = stops[len(stops)-1]
	}
	return pickup, delivery
}

// compactTimestamp applies the view's timestamp mode to one raw value.
func compactTimestamp(raw any, format bool) *string {
	if !format {
		return optString(raw)
	}
	ts, ok := NormalizeTimestamp(raw)
	if !ok {
		return nil
	}
	return &ts
}

func compactStopDetail(st map[string]any, format bool) CompactStopDetail {
	return CompactStopDetail{
		LocationName:   optString(st["location_name"]),
		Address:        optString(st["address"]),
		City:           optString(st["city_name"]),
		State:          optString(st["state"]),
		Zip:            optString(st["zip_code"]),
		Phone:          optString(st["phone"]),
		ScheduledEarly: compactTimestamp(st["sched_arrive_early"], format),
		ScheduledLate:  compactTimestamp(st["sched_arrive_late"], format),
		ActualArrival:  compactTimestamp(st["actual_arrival"], format),
		Status:         optString(st["__statusDescr"]),
		LoadType:       optString(st["__loadUnloadDescr"]),
	}
}

// compactRole maps a raw stop type code onto the compact view's role
// vocabulary, which names endpoints pickup/delivery rather than
// origin/destination.
func compactRole(code string) string {
	switch {
	case isPickupCode(code):
		return "pickup"
	case isDropCode(code):
		return "delivery"
	case code == "PICK" || code == "P":
		return "pick"
	case code == "DROP" || code == "D":
		return "drop"
	default:
		return "other"
	}
}

func compactStop(st map[string]any, format bool) CompactStop {
	order := 0
	if n, ok := asInt(st["order_sequence"]); ok {
		order = n
	} else if n, ok := asInt(st["movement_sequence"]); ok {
		order = n
	}

	return CompactStop{
		Type:              compactRole(stopTypeCode(st)),
		CompactStopDetail: compactStopDetail(st, format),
		StopOrder:         order,
	}
}
