package ingest

import (
	"context"
	"time"

	"github.com/fleetlive/fleetlive/pkg/transit"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
)

// PositionRecorder is the position store interface required by the gateway.
type PositionRecorder interface {
	Record(ctx context.Context, report transit.PositionReport) error
}

// Directory is the reference-data collaborator.
type Directory interface {
	Vehicle(ctx context.Context, identifier string) (*transit.Vehicle, error)
	Route(ctx context.Context, identifier string) (*transit.Route, error)
	VehicleForDriver(ctx context.Context, driverRef string) (*transit.Vehicle, error)
	UpdateVehicleStatus(ctx context.Context, identifier string, status transit.Status) error
	UpdateDriverStatus(ctx context.Context, identifier string, status transit.Status) error
}

// Publisher hands events to the fan-out pipeline. Failures are logged and
// never surfaced to the submitting driver.
type Publisher interface {
	Publish(event transit.Event) error
}

// Metrics is an optional hook for ingestion counters.
type Metrics interface {
	PositionIngested()
	SubmissionRejected()
}

// PositionSubmission is a driver's position report as it arrives at the
// boundary. Latitude and longitude are pointers so a missing field is
// distinguishable from zero.
type PositionSubmission struct {
	VehicleRef string   `json:"vehicle_id" validate:"required"`
	Latitude   *float64 `json:"latitude" validate:"required,gte=-90,lte=90"`
	Longitude  *float64 `json:"longitude" validate:"required,gte=-180,lte=180"`
	Speed      float64  `json:"speed" validate:"gte=0"`
	Status     string   `json:"status" validate:"omitempty,oneof=active inactive"`
}

type StatusSubmission struct {
	DriverRef string `json:"driver_id" validate:"required"`
	Status    string `json:"status" validate:"required,oneof=active inactive"`
}

// Gateway validates driver submissions, writes them to the position store
// and hands resulting events to the fan-out pipeline.
type Gateway struct {
	store     PositionRecorder
	directory Directory
	publisher Publisher
	metrics   Metrics

	validate *validator.Validate
}

func NewGateway(store PositionRecorder, directory Directory, publisher Publisher, metrics Metrics) *Gateway {
	return &Gateway{
		store:     store,
		directory: directory,
		publisher: publisher,
		metrics:   metrics,

		validate: validator.New(),
	}
}

// SubmitPosition records a driver's position report. On success a
// vehicle:update event is published to the fan-out pipeline; publish
// failures never fail the submission.
func (g *Gateway) SubmitPosition(ctx context.Context, submission PositionSubmission) error {
	if err := g.validate.Struct(submission); err != nil {
		g.rejected()
		return transit.NewValidationError("invalid position submission: %s", err)
	}

	vehicle, err := g.directory.Vehicle(ctx, submission.VehicleRef)
	if err != nil {
		g.rejected()
		return err
	}

	timestamp := time.Now().UTC()

	report := transit.PositionReport{
		VehicleRef: vehicle.PrimaryIdentifier,
		Location:   transit.NewLocation(*submission.Latitude, *submission.Longitude),
		Speed:      submission.Speed,
		ObservedAt: timestamp,
	}

	if err := g.store.Record(ctx, report); err != nil {
		g.rejected()
		return err
	}

	if submission.Status != "" {
		if err := g.directory.UpdateVehicleStatus(ctx, vehicle.PrimaryIdentifier, transit.Status(submission.Status)); err != nil {
			log.Error().Err(err).Str("vehicle", vehicle.PrimaryIdentifier).Msg("Failed to update vehicle status")
		}
	}

	if g.metrics != nil {
		g.metrics.PositionIngested()
	}

	routeName := ""
	if vehicle.RouteRef != "" {
		route, routeErr := g.directory.Route(ctx, vehicle.RouteRef)
		if routeErr == nil {
			routeName = route.Name
		}
	}

	g.publish(transit.Event{
		Type:     transit.EventTypeVehicleUpdate,
		RouteRef: vehicle.RouteRef,
		Update: &transit.VehicleUpdateEvent{
			VehicleRef:  vehicle.PrimaryIdentifier,
			PlateNumber: vehicle.PlateNumber,
			RouteRef:    vehicle.RouteRef,
			RouteName:   routeName,
			Latitude:    *submission.Latitude,
			Longitude:   *submission.Longitude,
			Speed:       submission.Speed,
			Timestamp:   timestamp,
		},
	})

	return nil
}

// SubmitStatus updates a driver's status and propagates it to the driver's
// currently-assigned vehicle, publishing a vehicle:status event.
func (g *Gateway) SubmitStatus(ctx context.Context, submission StatusSubmission) error {
	if err := g.validate.Struct(submission); err != nil {
		g.rejected()
		return transit.NewValidationError("invalid status submission: %s", err)
	}

	status := transit.Status(submission.Status)

	if err := g.directory.UpdateDriverStatus(ctx, submission.DriverRef, status); err != nil {
		g.rejected()
		return err
	}

	vehicle, err := g.directory.VehicleForDriver(ctx, submission.DriverRef)
	if err != nil {
		// driver without an assigned vehicle: nothing to broadcast
		if transit.IsNotFoundError(err) {
			return nil
		}
		return err
	}

	if err := g.directory.UpdateVehicleStatus(ctx, vehicle.PrimaryIdentifier, status); err != nil {
		return err
	}

	g.publish(transit.Event{
		Type:     transit.EventTypeVehicleStatus,
		RouteRef: vehicle.RouteRef,
		StatusChange: &transit.VehicleStatusEvent{
			VehicleRef: vehicle.PrimaryIdentifier,
			Status:     status,
			Timestamp:  time.Now().UTC(),
		},
	})

	return nil
}

func (g *Gateway) publish(event transit.Event) {
	if err := g.publisher.Publish(event); err != nil {
		log.Error().Err(err).Str("type", string(event.Type)).Msg("Failed to publish event to fan-out queue")
	}
}

func (g *Gateway) rejected() {
	if g.metrics != nil {
		g.metrics.SubmissionRejected()
	}
}
