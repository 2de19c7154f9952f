// Package geo provides great-circle distance between coordinates.
package geo

import "math"

// earthRadiusKm is the mean radius of the earth.
const earthRadiusKm = 6371

// Distance returns the haversine distance in kilometers between two points.
func Distance(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := rad(lat2 - lat1)
	dLng := rad(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rad(lat1))*math.Cos(rad(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

func rad(deg float64) float64 {
	return deg * math.Pi / 180
}
