package transit

import "time"

// LiveVehicle joins a vehicle's reference data with its most recent position
// report. It only exists for active vehicles that have reported at least one
// position.
type LiveVehicle struct {
	VehicleRef  string `json:"vehicle_id" groups:"basic"`
	PlateNumber string `json:"plate_number" groups:"basic"`

	RouteRef  string `json:"route_id" groups:"basic"`
	RouteName string `json:"route_name" groups:"basic"`

	StartPoint string `json:"start_point,omitempty" groups:"detailed"`
	EndPoint   string `json:"end_point,omitempty" groups:"detailed"`
	DriverName string `json:"driver_name,omitempty" groups:"detailed"`

	Latitude  float64 `json:"latitude" groups:"basic"`
	Longitude float64 `json:"longitude" groups:"basic"`
	Speed     float64 `json:"speed" groups:"basic"`

	ObservedAt time.Time `json:"timestamp" groups:"basic"`
}

// NearestVehicle is a LiveVehicle annotated with its distance from a query
// point and the estimated arrival time at the vehicle's own reported speed.
type NearestVehicle struct {
	LiveVehicle

	DistanceKm float64 `json:"distance_km"`
	ETAMinutes int     `json:"eta_minutes"`
}
