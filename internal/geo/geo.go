// Package geo provides spherical geometry helpers for the race globe.
//
// All angles are degrees unless noted otherwise. Longitudes live in
// [-180, 180) and latitudes in [-90, 90]; Wrap restores both after any
// arithmetic that may cross a pole or the antimeridian.
package geo

import "math"

// EarthRadiusKm is the radius of the race globe.
const EarthRadiusKm = 6371.0

// Location is a point on the globe.
type Location struct {
	Latitude  float64
	Longitude float64
}

// Vec is a direction in the local tangent plane, expressed as
// (longitude, latitude) components.
type Vec struct {
	Lon float64
	Lat float64
}

// Norm returns the Euclidean length of the vector.
func (v Vec) Norm() float64 {
	return math.Hypot(v.Lon, v.Lat)
}

// Scale returns the vector multiplied by f.
func (v Vec) Scale(f float64) Vec {
	return Vec{Lon: v.Lon * f, Lat: v.Lat * f}
}

// Unit returns the vector normalized to length one. The zero vector is
// returned unchanged.
func (v Vec) Unit() Vec {
	n := v.Norm()
	if n == 0 {
		return v
	}
	return Vec{Lon: v.Lon / n, Lat: v.Lat / n}
}

// Radians converts degrees to radians.
func Radians(deg float64) float64 {
	return deg * math.Pi / 180.0
}

// Degrees converts radians to degrees.
func Degrees(rad float64) float64 {
	return rad * 180.0 / math.Pi
}

// DistanceOnSurface computes the haversine distance in km between two
// points given by their longitudes and latitudes.
func DistanceOnSurface(lon1, lat1, lon2, lat2 float64) float64 {
	rlon1 := Radians(lon1)
	rlat1 := Radians(lat1)
	rlon2 := Radians(lon2)
	rlat2 := Radians(lat2)
	dlon := rlon2 - rlon1
	dlat := rlat2 - rlat1
	sinLat := math.Sin(dlat / 2)
	sinLon := math.Sin(dlon / 2)
	a := sinLat*sinLat + math.Cos(rlat1)*math.Cos(rlat2)*sinLon*sinLon
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1.0-a))
	return EarthRadiusKm * c
}

// Wrap folds a latitude/longitude pair back onto the globe. Latitudes
// past a pole are reflected onto the opposite meridian; longitudes are
// normalized into [-180, 180).
func Wrap(lat, lon float64) (float64, float64) {
	outLat := math.Max(math.Min(lat, 180.0-lat), -180.0-lat)
	outLon := lon + 180.0
	if lat > 90.0 || lat < -90.0 {
		outLon += 180.0
	}
	outLon = math.Mod(outLon, 360.0)
	if outLon < 0 {
		outLon += 360.0
	}
	return outLat, outLon - 180.0
}

// LonDegsFromKm converts a surface length to degrees of longitude at the
// given latitude.
func LonDegsFromKm(lengthKm, lat float64) float64 {
	return lengthKm / ((math.Pi * EarthRadiusKm * math.Cos(Radians(lat))) / 180.0)
}

// LatDegsFromKm converts a surface length to degrees of latitude.
func LatDegsFromKm(lengthKm float64) float64 {
	return lengthKm / (2.0 * math.Pi * EarthRadiusKm) * 360.0
}

// LongitudeDifference returns the signed difference lon1 - lon2 along the
// shortest way around the globe. Positive means lon1 lies east of lon2.
func LongitudeDifference(lon1, lon2 float64) float64 {
	diff := math.Mod(lon1-lon2+540.0, 360.0)
	if diff < 0 {
		diff += 360.0
	}
	return diff - 180.0
}

// WindForce projects the wind onto the ship's sail. The force acts along
// the ship vector, with magnitude equal to the wind speed scaled by how
// well the sail catches the mean of the ship and wind directions. A calm
// (zero wind) yields zero force.
func WindForce(ship Vec, wind Vec) Vec {
	norm := wind.Norm()
	if norm == 0 {
		return Vec{}
	}
	vsum := Vec{Lon: ship.Lon + wind.Lon/norm, Lat: ship.Lat + wind.Lat/norm}
	vsum = vsum.Unit()
	mag := math.Abs(ship.Lon*vsum.Lon + ship.Lat*vsum.Lat)
	return ship.Scale(mag * norm)
}

// HeadingToVector converts a heading in degrees (0 = east, growing
// counterclockwise) into a unit direction vector.
func HeadingToVector(heading float64) Vec {
	rad := Radians(heading)
	return Vec{Lon: math.Cos(rad), Lat: math.Sin(rad)}
}

// VectorToHeading converts a direction vector back into a heading in
// degrees within [0, 360).
func VectorToHeading(v Vec) float64 {
	deg := Degrees(math.Atan2(v.Lat, v.Lon))
	if deg < 0 {
		deg += 360.0
	}
	return deg
}

// LatToTheta converts a latitude to a polar angle in radians.
func LatToTheta(lat float64) float64 {
	return Radians(90.0 - lat)
}

// LonToPhi converts a longitude to an azimuthal angle in radians.
func LonToPhi(lon float64) float64 {
	out := math.Mod(lon, 360.0)
	if out < 0 {
		out += 360.0
	}
	return Radians(out + 180.0)
}

// ToXYZ converts spherical angles to Cartesian coordinates on the globe,
// used by the windowed view's projection.
func ToXYZ(phi, theta float64) (float64, float64, float64) {
	sinTheta := math.Sin(theta) * EarthRadiusKm
	x := sinTheta * math.Cos(phi)
	y := sinTheta * math.Sin(phi)
	z := math.Cos(theta) * EarthRadiusKm
	return x, y, z
}

// HeadingTowards returns the heading from a position to a target,
// accounting for the antimeridian crossing.
func HeadingTowards(fromLat, fromLon, toLat, toLon float64) float64 {
	dlon := LongitudeDifference(toLon, fromLon)
	dlat := toLat - fromLat
	return VectorToHeading(Vec{Lon: dlon, Lat: dlat})
}
