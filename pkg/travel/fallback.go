package travel

import (
	"math"

	"github.com/rgoodwin/fieldsync/pkg/model"
)

const (
	earthRadiusKm    = 6371
	fallbackSpeedKmh = 35
)

// fallbackEstimate derives distance from the haversine great-circle formula
// and duration from an assumed 35 km/h average drive speed.
func fallbackEstimate(origin, destination model.GeoPoint) Estimate {
	km := haversineKm(origin, destination)
	return Estimate{
		DistanceKm:  km,
		DurationMin: km / fallbackSpeedKmh * 60,
		Source:      SourceFallback,
	}
}

func haversineKm(a, b model.GeoPoint) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}
