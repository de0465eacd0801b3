package calculator

import (
	"errors"
	"fmt"
	"route-sites/internal/models"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// KmPerDegree is the flat conversion used for every route distance. It ignores
// the shrinking of longitude degrees away from the equator, which is acceptable
// at the mid-latitudes the tool is used at.
const KmPerDegree = 111.0

var ErrInvalidRoute = errors.New("invalid route")

// DegreesToKm converts a planar distance in degrees to approximate kilometres.
func DegreesToKm(deg float64) float64 {
	return deg * KmPerDegree
}

func lineString(route []models.Coordinate) (orb.LineString, error) {
	if len(route) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 points, got %d", ErrInvalidRoute, len(route))
	}
	line := make(orb.LineString, 0, len(route))
	for _, c := range route {
		line = append(line, orb.Point{c.Lon, c.Lat})
	}
	return line, nil
}

func distanceKm(line orb.LineString, loc models.Coordinate) float64 {
	return DegreesToKm(planar.DistanceFrom(line, orb.Point{loc.Lon, loc.Lat}))
}

// DistanceToRouteKm returns the approximate distance from loc to the route polyline.
func DistanceToRouteKm(route []models.Coordinate, loc models.Coordinate) (float64, error) {
	line, err := lineString(route)
	if err != nil {
		return 0, err
	}
	return distanceKm(line, loc), nil
}

// FindNearby returns the facilities within maxDistanceKm of the route, in
// catalog order.
func FindNearby(route []models.Coordinate, facilities []models.Facility, maxDistanceKm float64) ([]models.Facility, error) {
	nearby, err := FindNearbyWithDistance(route, facilities, maxDistanceKm)
	if err != nil {
		return nil, err
	}
	out := make([]models.Facility, len(nearby))
	for i, n := range nearby {
		out[i] = n.Facility
	}
	return out, nil
}

// FindNearbyWithDistance is FindNearby keeping the computed distance of each match.
func FindNearbyWithDistance(route []models.Coordinate, facilities []models.Facility, maxDistanceKm float64) ([]models.NearbyFacility, error) {
	line, err := lineString(route)
	if err != nil {
		return nil, err
	}

	results := []models.NearbyFacility{}
	if maxDistanceKm <= 0 {
		return results, nil
	}

	for _, f := range facilities {
		d := distanceKm(line, f.Loc)
		if d <= maxDistanceKm {
			results = append(results, models.NearbyFacility{Facility: f, DistanceKm: d})
		}
	}
	return results, nil
}
