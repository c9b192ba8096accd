package transit

import "time"

// PositionReport is a single immutable location sample for a vehicle.
// Reports are appended to history and never mutated; the newest report per
// vehicle (by ObservedAt) forms the latest projection.
type PositionReport struct {
	VehicleRef string   `bson:"vehicleref" json:"vehicle_id"`
	Location   Location `bson:"location" json:"location"`
	Speed      float64  `bson:"speed" json:"speed"`

	ObservedAt       time.Time `bson:"observedat" json:"observed_at"`
	CreationDateTime time.Time `bson:"creationdatetime" json:"-"`
}

func (r *PositionReport) Latitude() float64 {
	return r.Location.Latitude()
}

func (r *PositionReport) Longitude() float64 {
	return r.Location.Longitude()
}
