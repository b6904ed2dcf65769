// Package geo provides great-circle distance math for station lookup.
package geo

import (
	"math"

	"github.com/goodday/climate/internal/models"
)

const earthRadiusKm = 6371.0

// Distance returns the haversine distance in kilometres between two
// WGS84 coordinates on a spherical earth.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	lat1Rad := lat1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	deltaLat := (lat2 - lat1) * math.Pi / 180
	deltaLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*math.Sin(deltaLon/2)*math.Sin(deltaLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

type NearestResult struct {
	Station    models.Station
	DistanceKm float64
}

// Nearest scans stations linearly and returns the closest one to the
// given point. Ties keep the first station encountered. Returns false
// when the slice is empty.
func Nearest(lat, lon float64, stations []models.Station) (NearestResult, bool) {
	if len(stations) == 0 {
		return NearestResult{}, false
	}

	best := NearestResult{Station: stations[0], DistanceKm: Distance(lat, lon, stations[0].Latitude, stations[0].Longitude)}
	for _, st := range stations[1:] {
		d := Distance(lat, lon, st.Latitude, st.Longitude)
		if d < best.DistanceKm {
			best = NearestResult{Station: st, DistanceKm: d}
		}
	}
	return best, true
}
