package ingest

import (
	"context"
	"errors"
	"testing"

	"github.com/fleetlive/fleetlive/pkg/transit"
)

type fakeRecorder struct {
	reports []transit.PositionReport
	err     error
}

func (r *fakeRecorder) Record(_ context.Context, report transit.PositionReport) error {
	if r.err != nil {
		return r.err
	}
	r.reports = append(r.reports, report)
	return nil
}

type fakeDirectory struct {
	vehicles        map[string]*transit.Vehicle
	routes          map[string]*transit.Route
	vehicleByDriver map[string]*transit.Vehicle

	vehicleStatusUpdates map[string]transit.Status
	driverStatusUpdates  map[string]transit.Status
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{
		vehicles: map[string]*transit.Vehicle{
			"7": {PrimaryIdentifier: "7", PlateNumber: "CAI 1234", RouteRef: "r1", DriverRef: "d1", Status: transit.StatusActive},
		},
		routes: map[string]*transit.Route{
			"r1": {PrimaryIdentifier: "r1", Name: "Downtown Loop", Status: transit.StatusActive},
		},
		vehicleByDriver: map[string]*transit.Vehicle{
			"d1": {PrimaryIdentifier: "7", PlateNumber: "CAI 1234", RouteRef: "r1", Status: transit.StatusActive},
		},
		vehicleStatusUpdates: map[string]transit.Status{},
		driverStatusUpdates:  map[string]transit.Status{},
	}
}

func (d *fakeDirectory) Vehicle(_ context.Context, identifier string) (*transit.Vehicle, error) {
	vehicle, exists := d.vehicles[identifier]
	if !exists {
		return nil, transit.NotFoundError{Resource: "Vehicle", Identifier: identifier}
	}
	return vehicle, nil
}

func (d *fakeDirectory) Route(_ context.Context, identifier string) (*transit.Route, error) {
	route, exists := d.routes[identifier]
	if !exists {
		return nil, transit.NotFoundError{Resource: "Route", Identifier: identifier}
	}
	return route, nil
}

func (d *fakeDirectory) VehicleForDriver(_ context.Context, driverRef string) (*transit.Vehicle, error) {
	vehicle, exists := d.vehicleByDriver[driverRef]
	if !exists {
		return nil, transit.NotFoundError{Resource: "Vehicle", Identifier: driverRef}
	}
	return vehicle, nil
}

func (d *fakeDirectory) UpdateVehicleStatus(_ context.Context, identifier string, status transit.Status) error {
	d.vehicleStatusUpdates[identifier] = status
	return nil
}

func (d *fakeDirectory) UpdateDriverStatus(_ context.Context, identifier string, status transit.Status) error {
	d.driverStatusUpdates[identifier] = status
	return nil
}

type fakePublisher struct {
	events []transit.Event
	err    error
}

func (p *fakePublisher) Publish(event transit.Event) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

func floatPtr(f float64) *float64 {
	return &f
}

func TestSubmitPosition_PublishesUpdateEvent(t *testing.T) {
	recorder := &fakeRecorder{}
	publisher := &fakePublisher{}
	gateway := NewGateway(recorder, newFakeDirectory(), publisher, nil)

	err := gateway.SubmitPosition(context.Background(), PositionSubmission{
		VehicleRef: "7",
		Latitude:   floatPtr(30.0444),
		Longitude:  floatPtr(31.2357),
		Speed:      36,
	})
	if err != nil {
		t.Fatalf("SubmitPosition failed: %v", err)
	}

	if len(recorder.reports) != 1 {
		t.Fatalf("recorded %d reports, want 1", len(recorder.reports))
	}
	report := recorder.reports[0]
	if report.Latitude() != 30.0444 || report.Longitude() != 31.2357 {
		t.Errorf("recorded position = (%v, %v), want (30.0444, 31.2357)", report.Latitude(), report.Longitude())
	}
	if report.ObservedAt.IsZero() {
		t.Error("recorded report is missing a server-assigned timestamp")
	}

	if len(publisher.events) != 1 {
		t.Fatalf("published %d events, want 1", len(publisher.events))
	}
	event := publisher.events[0]
	if event.Type != transit.EventTypeVehicleUpdate {
		t.Errorf("event type = %s, want %s", event.Type, transit.EventTypeVehicleUpdate)
	}
	if event.RouteRef != "r1" {
		t.Errorf("event route = %s, want r1", event.RouteRef)
	}
	if event.Update == nil {
		t.Fatal("event has no update payload")
	}
	if event.Update.PlateNumber != "CAI 1234" {
		t.Errorf("event plate = %s, want CAI 1234", event.Update.PlateNumber)
	}
	if event.Update.RouteName != "Downtown Loop" {
		t.Errorf("event route name = %s, want Downtown Loop", event.Update.RouteName)
	}
	if event.Update.Speed != 36 {
		t.Errorf("event speed = %v, want 36", event.Update.Speed)
	}
}

func TestSubmitPosition_Validation(t *testing.T) {
	testCases := []struct {
		name       string
		submission PositionSubmission
	}{
		{"missing vehicle", PositionSubmission{Latitude: floatPtr(30), Longitude: floatPtr(31)}},
		{"missing latitude", PositionSubmission{VehicleRef: "7", Longitude: floatPtr(31)}},
		{"missing longitude", PositionSubmission{VehicleRef: "7", Latitude: floatPtr(30)}},
		{"latitude out of range", PositionSubmission{VehicleRef: "7", Latitude: floatPtr(91), Longitude: floatPtr(31)}},
		{"longitude out of range", PositionSubmission{VehicleRef: "7", Latitude: floatPtr(30), Longitude: floatPtr(-181)}},
		{"negative speed", PositionSubmission{VehicleRef: "7", Latitude: floatPtr(30), Longitude: floatPtr(31), Speed: -4}},
		{"bad status", PositionSubmission{VehicleRef: "7", Latitude: floatPtr(30), Longitude: floatPtr(31), Status: "parked"}},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			recorder := &fakeRecorder{}
			publisher := &fakePublisher{}
			gateway := NewGateway(recorder, newFakeDirectory(), publisher, nil)

			err := gateway.SubmitPosition(context.Background(), testCase.submission)
			if !transit.IsValidationError(err) {
				t.Errorf("error = %v, want ValidationError", err)
			}
			if len(recorder.reports) != 0 {
				t.Error("invalid submission was recorded")
			}
			if len(publisher.events) != 0 {
				t.Error("invalid submission was published")
			}
		})
	}
}

func TestSubmitPosition_UnknownVehicle(t *testing.T) {
	gateway := NewGateway(&fakeRecorder{}, newFakeDirectory(), &fakePublisher{}, nil)

	err := gateway.SubmitPosition(context.Background(), PositionSubmission{
		VehicleRef: "99",
		Latitude:   floatPtr(30),
		Longitude:  floatPtr(31),
	})
	if !transit.IsNotFoundError(err) {
		t.Errorf("error = %v, want NotFoundError", err)
	}
}

func TestSubmitPosition_PublishFailureNotSurfaced(t *testing.T) {
	recorder := &fakeRecorder{}
	publisher := &fakePublisher{err: errors.New("queue unavailable")}
	gateway := NewGateway(recorder, newFakeDirectory(), publisher, nil)

	err := gateway.SubmitPosition(context.Background(), PositionSubmission{
		VehicleRef: "7",
		Latitude:   floatPtr(30),
		Longitude:  floatPtr(31),
	})
	if err != nil {
		t.Errorf("SubmitPosition surfaced publish failure: %v", err)
	}
	if len(recorder.reports) != 1 {
		t.Errorf("recorded %d reports, want 1", len(recorder.reports))
	}
}

func TestSubmitPosition_StoreFailureSurfaced(t *testing.T) {
	recorder := &fakeRecorder{err: transit.TransientStoreError{Operation: "position append", Err: errors.New("down")}}
	publisher := &fakePublisher{}
	gateway := NewGateway(recorder, newFakeDirectory(), publisher, nil)

	err := gateway.SubmitPosition(context.Background(), PositionSubmission{
		VehicleRef: "7",
		Latitude:   floatPtr(30),
		Longitude:  floatPtr(31),
	})
	if !transit.IsTransientStoreError(err) {
		t.Errorf("error = %v, want TransientStoreError", err)
	}
	if len(publisher.events) != 0 {
		t.Error("event published despite store failure")
	}
}

func TestSubmitPosition_OptionalStatusUpdate(t *testing.T) {
	directory := newFakeDirectory()
	gateway := NewGateway(&fakeRecorder{}, directory, &fakePublisher{}, nil)

	err := gateway.SubmitPosition(context.Background(), PositionSubmission{
		VehicleRef: "7",
		Latitude:   floatPtr(30),
		Longitude:  floatPtr(31),
		Status:     "inactive",
	})
	if err != nil {
		t.Fatalf("SubmitPosition failed: %v", err)
	}

	if directory.vehicleStatusUpdates["7"] != transit.StatusInactive {
		t.Errorf("vehicle status update = %v, want inactive", directory.vehicleStatusUpdates["7"])
	}
}

func TestSubmitStatus_PropagatesToDriverAndVehicle(t *testing.T) {
	directory := newFakeDirectory()
	publisher := &fakePublisher{}
	gateway := NewGateway(&fakeRecorder{}, directory, publisher, nil)

	err := gateway.SubmitStatus(context.Background(), StatusSubmission{
		DriverRef: "d1",
		Status:    "inactive",
	})
	if err != nil {
		t.Fatalf("SubmitStatus failed: %v", err)
	}

	if directory.driverStatusUpdates["d1"] != transit.StatusInactive {
		t.Errorf("driver status = %v, want inactive", directory.driverStatusUpdates["d1"])
	}
	if directory.vehicleStatusUpdates["7"] != transit.StatusInactive {
		t.Errorf("vehicle status = %v, want inactive", directory.vehicleStatusUpdates["7"])
	}

	if len(publisher.events) != 1 {
		t.Fatalf("published %d events, want 1", len(publisher.events))
	}
	event := publisher.events[0]
	if event.Type != transit.EventTypeVehicleStatus {
		t.Errorf("event type = %s, want %s", event.Type, transit.EventTypeVehicleStatus)
	}
	if event.StatusChange == nil || event.StatusChange.VehicleRef != "7" {
		t.Errorf("status event = %+v, want vehicle 7", event.StatusChange)
	}
}

func TestSubmitStatus_DriverWithoutVehicle(t *testing.T) {
	directory := newFakeDirectory()
	delete(directory.vehicleByDriver, "d1")
	publisher := &fakePublisher{}
	gateway := NewGateway(&fakeRecorder{}, directory, publisher, nil)

	err := gateway.SubmitStatus(context.Background(), StatusSubmission{
		DriverRef: "d1",
		Status:    "active",
	})
	if err != nil {
		t.Fatalf("SubmitStatus failed for driver without vehicle: %v", err)
	}

	if len(publisher.events) != 0 {
		t.Error("status event published for driver without an assigned vehicle")
	}
}

func TestSubmitStatus_Validation(t *testing.T) {
	gateway := NewGateway(&fakeRecorder{}, newFakeDirectory(), &fakePublisher{}, nil)

	err := gateway.SubmitStatus(context.Background(), StatusSubmission{DriverRef: "d1", Status: "asleep"})
	if !transit.IsValidationError(err) {
		t.Errorf("error = %v, want ValidationError", err)
	}
}
