package query

import (
	"context"
	"strings"

	"github.com/fleetlive/fleetlive/pkg/geomath"
	"github.com/fleetlive/fleetlive/pkg/transit"
	"golang.org/x/exp/slices"
)

// LiveSource provides the latest-per-vehicle live views.
type LiveSource interface {
	LatestForActiveVehicles(ctx context.Context, routeRef string) ([]transit.LiveVehicle, error)
}

// Directory is the reference-data collaborator.
type Directory interface {
	Route(ctx context.Context, identifier string) (*transit.Route, error)
	ActiveRoutes(ctx context.Context) ([]transit.Route, error)
}

// Service serves pull-based reads for viewers without an open push
// subscription.
type Service struct {
	source    LiveSource
	directory Directory
}

func NewService(source LiveSource, directory Directory) *Service {
	return &Service{
		source:    source,
		directory: directory,
	}
}

// LiveVehicles returns all active vehicles with a known position,
// optionally limited to one route.
func (s *Service) LiveVehicles(ctx context.Context, routeRef string) ([]transit.LiveVehicle, error) {
	return s.source.LatestForActiveVehicles(ctx, routeRef)
}

// RouteVehicles returns the live vehicles on one route. An unknown or
// inactive route is an explicit NotFoundError rather than an empty list, so
// callers can distinguish "no vehicles out" from "no such route".
func (s *Service) RouteVehicles(ctx context.Context, routeRef string) ([]transit.LiveVehicle, error) {
	route, err := s.directory.Route(ctx, routeRef)
	if err != nil {
		return nil, err
	}

	if route.Status != transit.StatusActive {
		return nil, transit.NotFoundError{Resource: "Route", Identifier: routeRef}
	}

	return s.source.LatestForActiveVehicles(ctx, routeRef)
}

// NearestVehicle returns the live vehicle closest to a point, annotated
// with distance and ETA, or nil when nothing is live.
func (s *Service) NearestVehicle(ctx context.Context, latitude float64, longitude float64, routeRef string) (*transit.NearestVehicle, error) {
	if latitude < -90 || latitude > 90 {
		return nil, transit.NewValidationError("latitude %v out of range [-90, 90]", latitude)
	}
	if longitude < -180 || longitude > 180 {
		return nil, transit.NewValidationError("longitude %v out of range [-180, 180]", longitude)
	}

	candidates, err := s.source.LatestForActiveVehicles(ctx, routeRef)
	if err != nil {
		return nil, err
	}

	return geomath.FindNearest(latitude, longitude, candidates), nil
}

// Routes lists the active routes, sorted by display name.
func (s *Service) Routes(ctx context.Context) ([]transit.Route, error) {
	routes, err := s.directory.ActiveRoutes(ctx)
	if err != nil {
		return nil, err
	}

	slices.SortFunc(routes, func(a transit.Route, b transit.Route) int {
		return strings.Compare(a.Name, b.Name)
	})

	return routes, nil
}
