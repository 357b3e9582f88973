package transform

// Load event constants fixed by the broker ingestion API.
const (
	eventTypeLoadUpsert = "load_upsert"
	loadTypeOwned       = "owned"
)

// Stop roles within a load.
const (
	RoleOrigin      = "origin"
	RoleDestination = "destination"
	RolePick        = "pick"
	RoleDrop        = "drop"
)

// Location is a stop location in the broker's schema. Country is always
// "US"; the other fields are null when the TMS record lacks them.
type Location struct {
	City    *string `json:"city"`
	State   *string `json:"state"`
	Zip     *string `json:"zip"`
	Country string  `json:"country"`
	Address *string `json:"address"`
}

// Stop is a classified stop within a load event.
type Stop struct {
	Type               string   `json:"type"`
	Location           Location `json:"location"`
	StopOrder          int      `json:"stop_order"`
	StopTimestampOpen  string   `json:"stop_timestamp_open,omitempty"`
	StopTimestampClose string   `json:"stop_timestamp_close,omitempty"`
	LoadingType        string   `json:"loading_type,omitempty"`
	Notes              any      `json:"notes,omitempty"`
}

// Contact is a person associated with a load.
type Contact struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
	Type  string `json:"type"`
}

// LoadEvent is the sparse load upsert payload sent to the broker. Only
// the first four fields are always present; every other field is
// emitted only when the source order carried a usable value.
type LoadEvent struct {
	EventType    string `json:"event_type"`
	CustomLoadID string `json:"custom_load_id"`
	Status       Status `json:"status"`
	Type         string `json:"type"`

	EquipmentTypeName string    `json:"equipment_type_name,omitempty"`
	Miles             *int      `json:"miles,omitempty"`
	MaxBuy            *float64  `json:"max_buy,omitempty"`
	PostedCarrierRate *float64  `json:"posted_carrier_rate,omitempty"`
	Weight            *float64  `json:"weight,omitempty"`
	CommodityType     string    `json:"commodity_type,omitempty"`
	NumberOfPieces    *int      `json:"number_of_pieces,omitempty"`
	IsPartial         *bool     `json:"is_partial,omitempty"`
	IsHazmat          *bool     `json:"is_hazmat,omitempty"`
	IsHazardous       *bool     `json:"is_hazardous,omitempty"`
	IsTeamRequired    *bool     `json:"is_team_required,omitempty"`
	BOLNumber         string    `json:"bol_number,omitempty"`
	TruckNumber       string    `json:"truck_number,omitempty"`
	TrailerNumber     string    `json:"trailer_number,omitempty"`
	Branch            string    `json:"branch,omitempty"`
	CustomerID        string    `json:"customer_id,omitempty"`
	Origin            *Location `json:"origin,omitempty"`
	Destination       *Location `json:"destination,omitempty"`
	Stops             []Stop    `json:"stops,omitempty"`
	PickupNumber      string    `json:"pickup_number,omitempty"`
	PONumber          string    `json:"po_number,omitempty"`
	PickupDateOpen    string    `json:"pickup_date_open,omitempty"`
	PickupDateClose   string    `json:"pickup_date_close,omitempty"`
	DeliveryDateOpen  string    `json:"delivery_date_open,omitempty"`
	DeliveryDateClose string    `json:"delivery_date_close,omitempty"`
	Contacts          []Contact `json:"contacts,omitempty"`
	SaleNotes         string    `json:"sale_notes,omitempty"`

	// OrgID is attached by the broker client when configured.
	OrgID string `json:"org_id,omitempty"`
}
