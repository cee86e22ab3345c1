package coordinates

import (
	"math"

	"github.com/soniakeys/unit"
)

// DegToRad converts degrees to radians
func DegToRad(deg float64) float64 {
	return unit.AngleFromDeg(deg).Rad()
}

// RadToDeg converts radians to degrees
func RadToDeg(rad float64) float64 {
	return unit.Angle(rad).Deg()
}

// NormalizeDegrees wraps an angle to the range [0, 360)
func NormalizeDegrees(deg float64) float64 {
	return unit.PMod(deg, 360)
}

// NormalizeRadians wraps an angle to the range [0, 2π)
func NormalizeRadians(rad float64) float64 {
	return unit.PMod(rad, 2*math.Pi)
}

// SphericalToRectangular converts a longitude (or right ascension), a
// latitude (or declination), both in degrees, and a distance into
// Cartesian components in the same linear unit as distance.
func SphericalToRectangular(lonOrRA, latOrDec, distance float64) (x, y, z float64) {
	sinLon, cosLon := math.Sincos(DegToRad(lonOrRA))
	sinLat, cosLat := math.Sincos(DegToRad(latOrDec))

	x = distance * cosLat * cosLon
	y = distance * cosLat * sinLon
	z = distance * sinLat
	return
}

// RectangularToSpherical converts Cartesian components into longitude and
// latitude in degrees and a distance. Longitude is in (-180, 180].
// The zero vector has no direction and returns a *DomainError.
func RectangularToSpherical(x, y, z float64) (lonOrRA, latOrDec, distance float64, err error) {
	distance = math.Hypot(math.Hypot(x, y), z)
	if distance == 0 {
		return 0, 0, 0, &DomainError{Op: "rectangular to spherical", Err: ErrZeroDistance}
	}

	// Rounding can push |z/d| just past 1
	ratio := z / distance
	if ratio > 1 {
		ratio = 1
	} else if ratio < -1 {
		ratio = -1
	}

	latOrDec = RadToDeg(math.Asin(ratio))
	lonOrRA = RadToDeg(math.Atan2(y, x))
	return lonOrRA, latOrDec, distance, nil
}
