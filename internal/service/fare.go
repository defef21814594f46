package service

import "math"

// Fare parameters, currency-agnostic units: minimum fare 50, 15 per km.
const (
	BaseFare  = 50.0
	PerKmRate = 15.0

	earthRadiusKm = 6371.0
)

// HaversineKm returns the great-circle distance in kilometers between two
// coordinates.
func HaversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLng := toRadians(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

// CalculateFare returns the fare for a given distance: the per-km rate with
// a floor at the base fare. An identical pickup/drop pair yields the base fare.
func CalculateFare(distanceKm float64) float64 {
	return math.Max(BaseFare, PerKmRate*distanceKm)
}

// Quote computes the distance and fare between pickup and drop. Pure and
// deterministic; coordinate validation happens on the command path before
// this is called.
func Quote(pickupLat, pickupLng, dropLat, dropLng float64) (distanceKm, fare float64) {
	distanceKm = HaversineKm(pickupLat, pickupLng, dropLat, dropLng)
	return distanceKm, CalculateFare(distanceKm)
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
