package calculator

import (
	"math"
	"route-sites/internal/models"
)

const earthRadius = 6371000.0 // meters

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}

// Haversine computes the distance between two points in meters
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	lat1Rad := toRadians(lat1)
	lon1Rad := toRadians(lon1)
	lat2Rad := toRadians(lat2)
	lon2Rad := toRadians(lon2)

	dLat := lat2Rad - lat1Rad
	dLon := lon2Rad - lon1Rad

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadius * c
}

// RouteLengthKm is the great-circle length of the route. It is only shown in
// summaries; proximity filtering uses the planar approximation.
func RouteLengthKm(route []models.Coordinate) float64 {
	var total float64
	for i := 1; i < len(route); i++ {
		a, b := route[i-1], route[i]
		total += Haversine(a.Lat, a.Lon, b.Lat, b.Lon)
	}
	return total / 1000
}
