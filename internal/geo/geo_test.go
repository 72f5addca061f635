package geo

import (
	"math"
	"testing"
)

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

// TestDistanceOnSurfaceZeroForSamePoint ensures identical points are at zero distance.
func TestDistanceOnSurfaceZeroForSamePoint(t *testing.T) {
	if d := DistanceOnSurface(-1.8, 46.5, -1.8, 46.5); d != 0 {
		t.Fatalf("expected zero distance, got %f", d)
	}
}

// TestDistanceOnSurfaceIsSymmetric ensures distance does not depend on direction.
func TestDistanceOnSurfaceIsSymmetric(t *testing.T) {
	d1 := DistanceOnSurface(-1.8, 46.5, 77.6, -15.6)
	d2 := DistanceOnSurface(77.6, -15.6, -1.8, 46.5)
	if !almostEqual(d1, d2, 1e-9) {
		t.Fatalf("expected symmetric distances, got %f and %f", d1, d2)
	}
}

// TestDistanceOnSurfaceQuarterMeridian checks a known quarter-circle arc.
func TestDistanceOnSurfaceQuarterMeridian(t *testing.T) {
	d := DistanceOnSurface(0, 0, 0, 90)
	want := math.Pi * EarthRadiusKm / 2
	if !almostEqual(d, want, 1e-6) {
		t.Fatalf("expected %f km pole to equator, got %f", want, d)
	}
}

// TestWrapKeepsValidCoordinates ensures in-range positions pass through.
func TestWrapKeepsValidCoordinates(t *testing.T) {
	lat, lon := Wrap(46.5, -1.8)
	if !almostEqual(lat, 46.5, 1e-12) || !almostEqual(lon, -1.8, 1e-12) {
		t.Fatalf("expected position unchanged, got %f, %f", lat, lon)
	}
}

// TestWrapReflectsOverPole ensures crossing a pole flips to the far meridian.
func TestWrapReflectsOverPole(t *testing.T) {
	lat, lon := Wrap(100.0, 0.0)
	if !almostEqual(lat, 80.0, 1e-12) {
		t.Fatalf("expected latitude 80, got %f", lat)
	}
	if !almostEqual(lon, 180.0, 1e-12) && !almostEqual(lon, -180.0, 1e-12) {
		t.Fatalf("expected longitude on the far meridian, got %f", lon)
	}

	lat, lon = Wrap(-100.0, 10.0)
	if !almostEqual(lat, -80.0, 1e-12) {
		t.Fatalf("expected latitude -80, got %f", lat)
	}
	if !almostEqual(lon, -170.0, 1e-12) {
		t.Fatalf("expected longitude -170, got %f", lon)
	}
}

// TestWrapNormalizesLongitude ensures longitudes land in [-180, 180).
func TestWrapNormalizesLongitude(t *testing.T) {
	_, lon := Wrap(0.0, 190.0)
	if !almostEqual(lon, -170.0, 1e-12) {
		t.Fatalf("expected longitude -170, got %f", lon)
	}
	_, lon = Wrap(0.0, -190.0)
	if !almostEqual(lon, 170.0, 1e-12) {
		t.Fatalf("expected longitude 170, got %f", lon)
	}
}

// TestLongitudeDifferenceShortestPath ensures the antimeridian shortcut wins.
func TestLongitudeDifferenceShortestPath(t *testing.T) {
	if d := LongitudeDifference(170.0, -170.0); !almostEqual(d, -20.0, 1e-12) {
		t.Fatalf("expected -20, got %f", d)
	}
	if d := LongitudeDifference(-170.0, 170.0); !almostEqual(d, 20.0, 1e-12) {
		t.Fatalf("expected 20, got %f", d)
	}
	if d := LongitudeDifference(10.0, 5.0); !almostEqual(d, 5.0, 1e-12) {
		t.Fatalf("expected 5, got %f", d)
	}
}

// TestWindForceDownwindFullPower ensures sailing dead downwind captures the
// full wind speed.
func TestWindForceDownwindFullPower(t *testing.T) {
	ship := Vec{Lon: 1, Lat: 0}
	wind := Vec{Lon: 30, Lat: 0}
	f := WindForce(ship, wind)
	if !almostEqual(f.Lon, 30.0, 1e-9) || !almostEqual(f.Lat, 0.0, 1e-9) {
		t.Fatalf("expected force (30, 0), got (%f, %f)", f.Lon, f.Lat)
	}
}

// TestWindForceCrosswindIsWeaker ensures a crosswind yields less than the
// full wind speed, along the ship's axis.
func TestWindForceCrosswindIsWeaker(t *testing.T) {
	ship := Vec{Lon: 1, Lat: 0}
	wind := Vec{Lon: 0, Lat: 20}
	f := WindForce(ship, wind)
	if f.Lat != 0 {
		t.Fatalf("expected force along ship axis, got lat component %f", f.Lat)
	}
	if f.Lon <= 0 || f.Lon >= 20 {
		t.Fatalf("expected crosswind force in (0, 20), got %f", f.Lon)
	}
}

// TestWindForceCalmIsZero ensures zero wind produces zero force.
func TestWindForceCalmIsZero(t *testing.T) {
	f := WindForce(Vec{Lon: 1, Lat: 0}, Vec{})
	if f.Lon != 0 || f.Lat != 0 {
		t.Fatalf("expected zero force in a calm, got (%f, %f)", f.Lon, f.Lat)
	}
}

// TestHeadingVectorRoundTrip ensures heading and vector conversions agree.
func TestHeadingVectorRoundTrip(t *testing.T) {
	for _, heading := range []float64{0, 45, 90, 135, 180, 270, 359} {
		v := HeadingToVector(heading)
		if !almostEqual(v.Norm(), 1.0, 1e-12) {
			t.Fatalf("expected unit vector for heading %f, got norm %f", heading, v.Norm())
		}
		got := VectorToHeading(v)
		if !almostEqual(got, heading, 1e-9) {
			t.Fatalf("expected heading %f after round trip, got %f", heading, got)
		}
	}
}

// TestLatLonDegreeConversions checks the km-to-degree helpers at the equator.
func TestLatLonDegreeConversions(t *testing.T) {
	circumference := 2 * math.Pi * EarthRadiusKm
	if d := LatDegsFromKm(circumference / 4); !almostEqual(d, 90.0, 1e-9) {
		t.Fatalf("expected 90 degrees of latitude, got %f", d)
	}
	if d := LonDegsFromKm(circumference/4, 0.0); !almostEqual(d, 90.0, 1e-9) {
		t.Fatalf("expected 90 degrees of longitude at the equator, got %f", d)
	}
	// A degree of longitude shrinks with latitude.
	if LonDegsFromKm(100, 60.0) <= LonDegsFromKm(100, 0.0) {
		t.Fatal("expected more degrees per km at high latitude")
	}
}

// TestHeadingTowardsCrossesAntimeridian ensures target headings take the
// short way around.
func TestHeadingTowardsCrossesAntimeridian(t *testing.T) {
	h := HeadingTowards(0, 175, 0, -175)
	if !almostEqual(h, 0.0, 1e-9) {
		t.Fatalf("expected heading 0 (east), got %f", h)
	}
}

// TestToXYZStaysOnSphere ensures projected points sit on the globe surface.
func TestToXYZStaysOnSphere(t *testing.T) {
	x, y, z := ToXYZ(LonToPhi(-1.8), LatToTheta(46.5))
	r := math.Sqrt(x*x + y*y + z*z)
	if !almostEqual(r, EarthRadiusKm, 1e-6) {
		t.Fatalf("expected radius %f, got %f", EarthRadiusKm, r)
	}
}
