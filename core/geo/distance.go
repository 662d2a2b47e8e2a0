// Package geo provides great-circle distance estimation.
package geo

import (
	"math"

	"github.com/kilianp07/feederwatch/core/model"
)

// EarthRadiusKM is the mean Earth radius used by Distance.
const EarthRadiusKM = 6371.0

// Distance returns the haversine distance between a and b in kilometres.
// Latitudes outside [-90, 90] are not rejected.
func Distance(a, b model.Coordinate) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Pow(math.Sin(dLat/2), 2) + math.Cos(lat1)*math.Cos(lat2)*math.Pow(math.Sin(dLon/2), 2)
	return EarthRadiusKM * 2 * math.Asin(math.Min(1, math.Sqrt(h)))
}
