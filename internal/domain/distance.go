package domain

import "math"

const (
	earthRadiusMeters = 6371000
	feetPerMeter      = 3.28084
)

// DistanceFeet returns the unrounded great-circle (haversine) distance in feet.
func DistanceFeet(a, b Coordinates) float64 {
	phi1 := a.Lat * math.Pi / 180
	phi2 := b.Lat * math.Pi / 180
	dPhi := (b.Lat - a.Lat) * math.Pi / 180
	dLambda := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusMeters * c * feetPerMeter
}

// flowDistances reports each flow hydrant's separation from the test hydrant,
// rounded to whole feet, in input order.
func flowDistances(test *Coordinates, flows []FlowLocation) []Distance {
	if test == nil || len(flows) == 0 {
		return []Distance{}
	}
	out := make([]Distance, 0, len(flows))
	for _, f := range flows {
		out = append(out, Distance{
			ID:           f.ID,
			DistanceFeet: math.Round(DistanceFeet(*test, Coordinates{Lat: f.Lat, Lon: f.Lon})),
		})
	}
	return out
}
