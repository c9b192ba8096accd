package transit

import "time"

type EventType string

const (
	EventTypeVehicleUpdate EventType = "vehicle:update"
	EventTypeVehicleStatus EventType = "vehicle:status"
)

// Event is the unit of fan-out delivery. RouteRef is the filter key for
// route-scoped subscriptions; exactly one of Update / StatusChange is set
// depending on Type.
type Event struct {
	Type EventType `json:"type"`

	RouteRef string `json:"route_id,omitempty"`

	Update       *VehicleUpdateEvent `json:"update,omitempty"`
	StatusChange *VehicleStatusEvent `json:"status_change,omitempty"`
}

type VehicleUpdateEvent struct {
	VehicleRef  string `json:"vehicle_id"`
	PlateNumber string `json:"plate_number"`

	RouteRef  string `json:"route_id"`
	RouteName string `json:"route_name"`

	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Speed     float64 `json:"speed"`

	Timestamp time.Time `json:"timestamp"`
}

type VehicleStatusEvent struct {
	VehicleRef string `json:"vehicle_id"`
	Status     Status `json:"status"`

	Timestamp time.Time `json:"timestamp"`
}
