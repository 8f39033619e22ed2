package scenario

import (
	"fmt"
	"math"
)

// City is a candidate extraction location.
type City struct {
	Country string
	Name    string
	Lat     float64
	Lon     float64
}

// BoundingBox is a geographic extraction window in degrees.
type BoundingBox struct {
	West  float64
	South float64
	East  float64
	North float64
}

// String renders the box in the west,south,east,north order map extraction
// tools expect.
func (b BoundingBox) String() string {
	return fmt.Sprintf("%g,%g,%g,%g", b.West, b.South, b.East, b.North)
}

// BoundedCity is a city with its computed extraction bounding box.
type BoundedCity struct {
	City
	Box BoundingBox
}

const earthRadiusKm = 6371.0

// boundingBoxAround computes the bounding box for a point and a radius in
// kilometers. Longitudinal extent is widened by the latitude's cosine so
// the box covers the same ground distance east-west as north-south.
func boundingBoxAround(lat, lon, radiusKm float64) BoundingBox {
	distDegree := radiusKm / earthRadiusKm * 180 / math.Pi
	lonDegree := distDegree / math.Cos(lat*math.Pi/180)
	return BoundingBox{
		West:  lon - lonDegree,
		South: lat - distDegree,
		East:  lon + lonDegree,
		North: lat + distDegree,
	}
}
