package geocode

import "math"

// Station is a response base the dispatcher map can route units from.
type Station struct {
	ID   string  `json:"id"`
	Name string  `json:"name"`
	Kind string  `json:"kind"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

var stations = []Station{
	{ID: "fs-01", Name: "Fire Station 1", Kind: "fire", Lat: 37.7771, Lon: -122.4093},
	{ID: "fs-07", Name: "Fire Station 7", Kind: "fire", Lat: 37.7609, Lon: -122.4221},
	{ID: "ems-02", Name: "EMS Post 2", Kind: "ems", Lat: 37.7831, Lon: -122.4039},
	{ID: "ems-05", Name: "EMS Post 5", Kind: "ems", Lat: 37.7625, Lon: -122.4351},
	{ID: "pd-c", Name: "Central Police Station", Kind: "police", Lat: 37.7986, Lon: -122.4099},
	{ID: "pd-m", Name: "Mission Police Station", Kind: "police", Lat: 37.7628, Lon: -122.4220},
}

// NearestStation returns the closest station of the given kind and its
// distance in kilometers. An empty kind considers every station.
func NearestStation(lat, lon float64, kind string) (Station, float64) {
	var best Station
	bestDist := math.MaxFloat64
	for _, s := range stations {
		if kind != "" && s.Kind != kind {
			continue
		}
		d := haversineKm(lat, lon, s.Lat, s.Lon)
		if d < bestDist {
			best = s
			bestDist = d
		}
	}
	return best, bestDist
}

func haversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	const earthRadiusKm = 6371.0
	dLat := radians(lat2 - lat1)
	dLon := radians(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(radians(lat1))*math.Cos(radians(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
