package transit

type Route struct {
	PrimaryIdentifier string `bson:"primaryidentifier" json:"id" groups:"basic"`
	Name              string `bson:"name" json:"name" groups:"basic"`

	StartPoint string `bson:"startpoint" json:"start_point" groups:"basic"`
	EndPoint   string `bson:"endpoint" json:"end_point" groups:"basic"`

	Geometry []Location `bson:"geometry,omitempty" json:"geometry,omitempty" groups:"detailed"`

	Status Status `bson:"status" json:"status" groups:"basic"`
}
