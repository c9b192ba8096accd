package transit

type Vehicle struct {
	PrimaryIdentifier string `bson:"primaryidentifier" json:"id" groups:"basic"`
	PlateNumber       string `bson:"platenumber" json:"plate_number" groups:"basic"`

	DriverRef string `bson:"driverref" json:"driver_id,omitempty" groups:"detailed"`
	RouteRef  string `bson:"routeref" json:"route_id,omitempty" groups:"basic"`

	Status Status `bson:"status" json:"status" groups:"basic"`
}

type Driver struct {
	PrimaryIdentifier string `bson:"primaryidentifier" json:"id"`
	Name              string `bson:"name" json:"name"`

	Status Status `bson:"status" json:"status"`
}
