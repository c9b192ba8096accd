package positions

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/fleetlive/fleetlive/pkg/database"
	"github.com/fleetlive/fleetlive/pkg/transit"
	"go.mongodb.org/mongo-driver/bson"
)

const appendMaxElapsedTime = 10 * time.Second

// MongoHistory stores position reports in the position_reports collection.
type MongoHistory struct{}

func NewMongoHistory() MongoHistory {
	return MongoHistory{}
}

func (MongoHistory) Append(ctx context.Context, report transit.PositionReport) error {
	positionReportsCollection := database.GetCollection("position_reports")

	retryBackoff := backoff.NewExponentialBackOff()
	retryBackoff.MaxElapsedTime = appendMaxElapsedTime

	err := backoff.Retry(func() error {
		_, insertErr := positionReportsCollection.InsertOne(ctx, report)
		return insertErr
	}, backoff.WithContext(retryBackoff, ctx))

	if err != nil {
		return transit.TransientStoreError{Operation: "position append", Err: err}
	}

	return nil
}

func (MongoHistory) LatestPerVehicle(ctx context.Context) ([]transit.PositionReport, error) {
	positionReportsCollection := database.GetCollection("position_reports")

	cursor, err := positionReportsCollection.Aggregate(ctx, bson.A{
		bson.M{"$sort": bson.D{
			{Key: "vehicleref", Value: 1},
			{Key: "observedat", Value: -1},
		}},
		bson.M{"$group": bson.M{
			"_id":    "$vehicleref",
			"latest": bson.M{"$first": "$$ROOT"},
		}},
		bson.M{"$replaceRoot": bson.M{"newRoot": "$latest"}},
	})
	if err != nil {
		return nil, transit.TransientStoreError{Operation: "latest projection load", Err: err}
	}

	var reports []transit.PositionReport
	if err := cursor.All(ctx, &reports); err != nil {
		return nil, transit.TransientStoreError{Operation: "latest projection load", Err: err}
	}

	return reports, nil
}
