package geo

import "math"

const (
	earthRadiusMeters = 6371000.0
	metersPerDegree   = 111000.0
)

type Point struct {
	Lat float64
	Lng float64
}

// Distance returns the haversine great-circle distance between two coordinates in meters.
func Distance(lat1, lng1, lat2, lng2 float64) float64 {
	rlat1 := radians(lat1)
	rlat2 := radians(lat2)
	dLat := radians(lat2 - lat1)
	dLng := radians(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rlat1)*math.Cos(rlat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return earthRadiusMeters * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// DistanceBetween is Distance over points.
func DistanceBetween(a, b Point) float64 {
	return Distance(a.Lat, a.Lng, b.Lat, b.Lng)
}

// Box is a lat/lng rectangle used to prefilter drops in SQL before exact distances.
type Box struct {
	MinLat, MaxLat float64
	MinLng, MaxLng float64
}

// BoundingBox returns the coarse box of radius meters around center.
func BoundingBox(center Point, radiusMeters float64) Box {
	latDelta := radiusMeters / metersPerDegree
	cosLat := math.Cos(radians(center.Lat))
	lngDelta := 180.0
	if cosLat > 1e-9 {
		lngDelta = math.Min(180, radiusMeters/(metersPerDegree*cosLat))
	}
	return Box{
		MinLat: center.Lat - latDelta,
		MaxLat: center.Lat + latDelta,
		MinLng: center.Lng - lngDelta,
		MaxLng: center.Lng + lngDelta,
	}
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
