package positions

import (
	"context"
	"sync"
	"time"

	"github.com/fleetlive/fleetlive/pkg/transit"
	"github.com/jinzhu/copier"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/pool"
)

const joinConcurrency = 8

// History is the durable append-only log of position reports.
type History interface {
	Append(ctx context.Context, report transit.PositionReport) error
	LatestPerVehicle(ctx context.Context) ([]transit.PositionReport, error)
}

// Directory answers the reference-data lookups needed to build live vehicle
// views.
type Directory interface {
	ActiveVehicles(ctx context.Context, routeRef string) ([]transit.Vehicle, error)
	Route(ctx context.Context, identifier string) (*transit.Route, error)
	Driver(ctx context.Context, identifier string) (*transit.Driver, error)
}

// Store is the authoritative log of position reports plus the
// latest-per-vehicle projection. The projection is monotonic per vehicle:
// a report older than the stored latest is kept in history but never
// replaces it.
type Store struct {
	history   History
	directory Directory

	mu     sync.RWMutex
	latest map[string]transit.PositionReport
}

func NewStore(history History, directory Directory) *Store {
	return &Store{
		history:   history,
		directory: directory,
		latest:    map[string]transit.PositionReport{},
	}
}

// WarmLoad rebuilds the latest projection from history, so a restart does
// not blank the live views until every vehicle reports again.
func (s *Store) WarmLoad(ctx context.Context) error {
	reports, err := s.history.LatestPerVehicle(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, report := range reports {
		current, exists := s.latest[report.VehicleRef]
		if !exists || report.ObservedAt.After(current.ObservedAt) {
			s.latest[report.VehicleRef] = report
		}
	}

	log.Info().Int("vehicles", len(reports)).Msg("Loaded latest position projection")

	return nil
}

// Record validates and appends a report to history, then advances the
// latest projection if the report is newer than the stored one.
func (s *Store) Record(ctx context.Context, report transit.PositionReport) error {
	if err := validateReport(&report); err != nil {
		return err
	}

	if report.CreationDateTime.IsZero() {
		report.CreationDateTime = time.Now().UTC()
	}

	if err := s.history.Append(ctx, report); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, exists := s.latest[report.VehicleRef]
	if !exists || report.ObservedAt.After(current.ObservedAt) {
		s.latest[report.VehicleRef] = report
	}

	return nil
}

// Latest returns the most recent report for a vehicle, or nil if it has
// never reported.
func (s *Store) Latest(vehicleRef string) *transit.PositionReport {
	s.mu.RLock()
	defer s.mu.RUnlock()

	report, exists := s.latest[vehicleRef]
	if !exists {
		return nil
	}

	return &report
}

// LatestForActiveVehicles joins the latest projection with active vehicles,
// optionally limited to one route. Vehicles without a recorded position are
// excluded. Order is unspecified.
func (s *Store) LatestForActiveVehicles(ctx context.Context, routeRef string) ([]transit.LiveVehicle, error) {
	vehicles, err := s.directory.ActiveVehicles(ctx, routeRef)
	if err != nil {
		return nil, err
	}

	liveVehicles := make([]*transit.LiveVehicle, len(vehicles))

	joinPool := pool.New().WithMaxGoroutines(joinConcurrency)
	for i, vehicle := range vehicles {
		i := i
		vehicle := vehicle

		joinPool.Go(func() {
			report := s.Latest(vehicle.PrimaryIdentifier)
			if report == nil {
				return
			}

			liveVehicles[i] = s.buildLiveVehicle(ctx, vehicle, report)
		})
	}
	joinPool.Wait()

	results := []transit.LiveVehicle{}
	for _, liveVehicle := range liveVehicles {
		if liveVehicle != nil {
			results = append(results, *liveVehicle)
		}
	}

	return results, nil
}

func (s *Store) buildLiveVehicle(ctx context.Context, vehicle transit.Vehicle, report *transit.PositionReport) *transit.LiveVehicle {
	liveVehicle := &transit.LiveVehicle{}

	// carries PlateNumber & RouteRef across by name
	if err := copier.Copy(liveVehicle, &vehicle); err != nil {
		log.Error().Err(err).Str("vehicle", vehicle.PrimaryIdentifier).Msg("Failed to copy vehicle record")
		return nil
	}

	liveVehicle.VehicleRef = vehicle.PrimaryIdentifier
	liveVehicle.Latitude = report.Latitude()
	liveVehicle.Longitude = report.Longitude()
	liveVehicle.Speed = report.Speed
	liveVehicle.ObservedAt = report.ObservedAt

	if vehicle.RouteRef != "" {
		route, err := s.directory.Route(ctx, vehicle.RouteRef)
		if err == nil {
			liveVehicle.RouteName = route.Name
			liveVehicle.StartPoint = route.StartPoint
			liveVehicle.EndPoint = route.EndPoint
		}
	}

	if vehicle.DriverRef != "" {
		driver, err := s.directory.Driver(ctx, vehicle.DriverRef)
		if err == nil {
			liveVehicle.DriverName = driver.Name
		}
	}

	return liveVehicle
}

func validateReport(report *transit.PositionReport) error {
	if report.VehicleRef == "" {
		return transit.NewValidationError("vehicle_id is required")
	}

	if len(report.Location.Coordinates) != 2 {
		return transit.NewValidationError("latitude and longitude are required")
	}

	latitude := report.Latitude()
	longitude := report.Longitude()

	if latitude < -90 || latitude > 90 {
		return transit.NewValidationError("latitude %v out of range [-90, 90]", latitude)
	}

	if longitude < -180 || longitude > 180 {
		return transit.NewValidationError("longitude %v out of range [-180, 180]", longitude)
	}

	if report.Speed < 0 {
		return transit.NewValidationError("speed must not be negative")
	}

	if report.ObservedAt.IsZero() {
		return transit.NewValidationError("observed_at is required")
	}

	return nil
}
