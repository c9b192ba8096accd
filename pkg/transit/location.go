package transit

// Location is a GeoJSON point. Coordinates are ordered longitude, latitude
// so that MongoDB geo indexes can be used directly.
type Location struct {
	Type        string    `bson:"type" json:"-" groups:"basic"`
	Coordinates []float64 `bson:"coordinates" json:"coordinates" groups:"basic"`
}

func NewLocation(latitude float64, longitude float64) Location {
	return Location{
		Type:        "Point",
		Coordinates: []float64{longitude, latitude},
	}
}

func (l *Location) Longitude() float64 {
	if len(l.Coordinates) < 2 {
		return 0
	}
	return l.Coordinates[0]
}

func (l *Location) Latitude() float64 {
	if len(l.Coordinates) < 2 {
		return 0
	}
	return l.Coordinates[1]
}
