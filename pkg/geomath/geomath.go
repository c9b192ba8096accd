package geomath

import (
	"math"

	"github.com/fleetlive/fleetlive/pkg/transit"
)

const EarthRadiusKm = 6371

// DefaultSpeedKmh is assumed whenever a vehicle reports no usable speed.
const DefaultSpeedKmh = 30

// DistanceKm returns the Haversine great-circle distance between two points
// in kilometers.
func DistanceKm(lat1 float64, lon1 float64, lat2 float64, lon2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLon := toRadians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusKm * c
}

// ETAMinutes estimates travel time in whole minutes for a distance at the
// given speed. Speeds of zero or below fall back to DefaultSpeedKmh. Minutes
// are rounded with math.Round, so ties round half away from zero.
func ETAMinutes(distanceKm float64, speedKmh float64) int {
	if speedKmh <= 0 {
		speedKmh = DefaultSpeedKmh
	}

	return int(math.Round(distanceKm / speedKmh * 60))
}

// FindNearest returns the candidate closest to the query point, annotated
// with its distance and an ETA at its own reported speed. Ties keep the
// first-encountered candidate. Returns nil for an empty candidate set.
func FindNearest(latitude float64, longitude float64, candidates []transit.LiveVehicle) *transit.NearestVehicle {
	var nearest *transit.NearestVehicle
	minDistance := math.Inf(1)

	for _, candidate := range candidates {
		distance := DistanceKm(latitude, longitude, candidate.Latitude, candidate.Longitude)

		if distance < minDistance {
			minDistance = distance

			nearest = &transit.NearestVehicle{
				LiveVehicle: candidate,
				DistanceKm:  distance,
				ETAMinutes:  ETAMinutes(distance, candidate.Speed),
			}
		}
	}

	return nearest
}

func toRadians(degrees float64) float64 {
	return degrees * (math.Pi / 180)
}
