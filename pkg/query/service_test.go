package query

import (
	"context"
	"testing"

	"github.com/fleetlive/fleetlive/pkg/transit"
)

type fakeSource struct {
	vehicles []transit.LiveVehicle
}

func (s *fakeSource) LatestForActiveVehicles(_ context.Context, routeRef string) ([]transit.LiveVehicle, error) {
	if routeRef == "" {
		return s.vehicles, nil
	}

	var filtered []transit.LiveVehicle
	for _, vehicle := range s.vehicles {
		if vehicle.RouteRef == routeRef {
			filtered = append(filtered, vehicle)
		}
	}
	return filtered, nil
}

type fakeDirectory struct {
	routes map[string]*transit.Route
}

func (d *fakeDirectory) Route(_ context.Context, identifier string) (*transit.Route, error) {
	route, exists := d.routes[identifier]
	if !exists {
		return nil, transit.NotFoundError{Resource: "Route", Identifier: identifier}
	}
	return route, nil
}

func (d *fakeDirectory) ActiveRoutes(_ context.Context) ([]transit.Route, error) {
	var routes []transit.Route
	for _, route := range d.routes {
		if route.Status == transit.StatusActive {
			routes = append(routes, *route)
		}
	}
	return routes, nil
}

func testService() *Service {
	source := &fakeSource{
		vehicles: []transit.LiveVehicle{
			// roughly 5km and 1km from (30, 31)
			{VehicleRef: "far", RouteRef: "r1", Latitude: 30.045, Longitude: 31, Speed: 20},
			{VehicleRef: "near", RouteRef: "r2", Latitude: 30.009, Longitude: 31, Speed: 36},
		},
	}
	directory := &fakeDirectory{
		routes: map[string]*transit.Route{
			"r1": {PrimaryIdentifier: "r1", Name: "Downtown Loop", Status: transit.StatusActive},
			"r2": {PrimaryIdentifier: "r2", Name: "Airport Express", Status: transit.StatusActive},
			"r3": {PrimaryIdentifier: "r3", Name: "Old Night Line", Status: transit.StatusInactive},
		},
	}

	return NewService(source, directory)
}

func TestLiveVehicles(t *testing.T) {
	service := testService()

	vehicles, err := service.LiveVehicles(context.Background(), "")
	if err != nil {
		t.Fatalf("LiveVehicles failed: %v", err)
	}
	if len(vehicles) != 2 {
		t.Errorf("got %d vehicles, want 2", len(vehicles))
	}

	vehicles, err = service.LiveVehicles(context.Background(), "r1")
	if err != nil {
		t.Fatalf("LiveVehicles(r1) failed: %v", err)
	}
	if len(vehicles) != 1 || vehicles[0].VehicleRef != "far" {
		t.Errorf("LiveVehicles(r1) = %+v, want only vehicle far", vehicles)
	}
}

func TestRouteVehicles(t *testing.T) {
	service := testService()

	vehicles, err := service.RouteVehicles(context.Background(), "r2")
	if err != nil {
		t.Fatalf("RouteVehicles(r2) failed: %v", err)
	}
	if len(vehicles) != 1 || vehicles[0].VehicleRef != "near" {
		t.Errorf("RouteVehicles(r2) = %+v, want only vehicle near", vehicles)
	}
}

func TestRouteVehicles_UnknownRoute(t *testing.T) {
	service := testService()

	_, err := service.RouteVehicles(context.Background(), "r99")
	if !transit.IsNotFoundError(err) {
		t.Errorf("RouteVehicles(r99) error = %v, want NotFoundError", err)
	}
}

func TestRouteVehicles_InactiveRoute(t *testing.T) {
	service := testService()

	_, err := service.RouteVehicles(context.Background(), "r3")
	if !transit.IsNotFoundError(err) {
		t.Errorf("RouteVehicles(inactive) error = %v, want NotFoundError", err)
	}
}

func TestNearestVehicle(t *testing.T) {
	service := testService()

	nearest, err := service.NearestVehicle(context.Background(), 30, 31, "")
	if err != nil {
		t.Fatalf("NearestVehicle failed: %v", err)
	}
	if nearest == nil {
		t.Fatal("NearestVehicle = nil, want the near vehicle")
	}
	if nearest.VehicleRef != "near" {
		t.Errorf("NearestVehicle = %s, want near", nearest.VehicleRef)
	}
	if nearest.DistanceKm <= 0 || nearest.DistanceKm > 1.5 {
		t.Errorf("DistanceKm = %v, want roughly 1km", nearest.DistanceKm)
	}
	if nearest.ETAMinutes != 2 {
		// ~1km at the vehicle's own 36 km/h is ~1.7 minutes
		t.Errorf("ETAMinutes = %d, want 2", nearest.ETAMinutes)
	}
}

func TestNearestVehicle_RouteScoped(t *testing.T) {
	service := testService()

	nearest, err := service.NearestVehicle(context.Background(), 30, 31, "r1")
	if err != nil {
		t.Fatalf("NearestVehicle(r1) failed: %v", err)
	}
	if nearest == nil || nearest.VehicleRef != "far" {
		t.Errorf("NearestVehicle(r1) = %+v, want vehicle far", nearest)
	}
}

func TestNearestVehicle_NoCandidates(t *testing.T) {
	service := NewService(&fakeSource{}, &fakeDirectory{routes: map[string]*transit.Route{}})

	nearest, err := service.NearestVehicle(context.Background(), 30, 31, "")
	if err != nil {
		t.Fatalf("NearestVehicle failed: %v", err)
	}
	if nearest != nil {
		t.Errorf("NearestVehicle = %+v, want nil", nearest)
	}
}

func TestNearestVehicle_InvalidPoint(t *testing.T) {
	service := testService()

	if _, err := service.NearestVehicle(context.Background(), 91, 31, ""); !transit.IsValidationError(err) {
		t.Errorf("NearestVehicle(91, 31) error = %v, want ValidationError", err)
	}
	if _, err := service.NearestVehicle(context.Background(), 30, 181, ""); !transit.IsValidationError(err) {
		t.Errorf("NearestVehicle(30, 181) error = %v, want ValidationError", err)
	}
}

func TestRoutes_SortedByName(t *testing.T) {
	service := testService()

	routes, err := service.Routes(context.Background())
	if err != nil {
		t.Fatalf("Routes failed: %v", err)
	}

	if len(routes) != 2 {
		t.Fatalf("got %d routes, want 2 active", len(routes))
	}
	if routes[0].Name != "Airport Express" || routes[1].Name != "Downtown Loop" {
		t.Errorf("routes order = [%s, %s], want sorted by name", routes[0].Name, routes[1].Name)
	}
}
