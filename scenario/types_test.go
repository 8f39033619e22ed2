package scenario

import (
	"math"
	"testing"
)

func TestBoundingBoxAround_Symmetry(t *testing.T) {
	box := boundingBoxAround(48.0, 11.0, 5.0)

	if box.South >= 48.0 || box.North <= 48.0 {
		t.Errorf("latitude not centered: %+v", box)
	}
	if box.West >= 11.0 || box.East <= 11.0 {
		t.Errorf("longitude not centered: %+v", box)
	}

	latSpan := box.North - box.South
	lonSpan := box.East - box.West
	wantLat := 2 * (5.0 / earthRadiusKm * 180 / math.Pi)
	if math.Abs(latSpan-wantLat) > 1e-9 {
		t.Errorf("latitude span: got %g, want %g", latSpan, wantLat)
	}
	// East-west degrees widen with latitude to keep ground distance equal.
	if lonSpan <= latSpan {
		t.Errorf("longitude span %g should exceed latitude span %g at 48N", lonSpan, latSpan)
	}
}

func TestBoundingBoxAround_WidensTowardPoles(t *testing.T) {
	equator := boundingBoxAround(0.0, 0.0, 5.0)
	north := boundingBoxAround(60.0, 0.0, 5.0)

	if (north.East - north.West) <= (equator.East - equator.West) {
		t.Error("box should widen in degrees at higher latitude")
	}
	eqLat := equator.North - equator.South
	noLat := north.North - north.South
	if math.Abs(eqLat-noLat) > 1e-9 {
		t.Error("latitude span must not depend on latitude")
	}
}

func TestBoundingBox_String(t *testing.T) {
	box := BoundingBox{West: 10.9, South: 47.9, East: 11.1, North: 48.1}
	if got := box.String(); got != "10.9,47.9,11.1,48.1" {
		t.Errorf("got %q", got)
	}
}
