// Package ephemeris supplies low-precision positions of the Sun and Moon
// and the origin shift between heliocentric and geocentric frames at a
// given instant. Positions are referred to the ecliptic and equinox of
// date; distances are in astronomical units.
package ephemeris

import (
	"fmt"
	"time"

	"github.com/chrissnell/celestial/pkg/coordinates"
	"github.com/soniakeys/meeus/v3/base"
	"github.com/soniakeys/meeus/v3/julian"
	"github.com/soniakeys/meeus/v3/moonposition"
	"github.com/soniakeys/meeus/v3/solar"
)

// AU is the astronomical unit in kilometres
const AU = 149597870.7

// SynodicMonth is the average length of the lunar cycle in days
const SynodicMonth = 29.530588853

// jde converts a UTC instant to a Julian ephemeris day. The TT-UT
// difference (about a minute) is below the precision of these series.
func jde(t time.Time) float64 {
	return julian.TimeToJD(t.UTC())
}

// Sun returns the geocentric ecliptic position of the Sun at t
func Sun(t time.Time) coordinates.Spherical {
	T := base.J2000Century(jde(t))
	lon, _ := solar.True(T)
	return coordinates.Spherical{
		LonOrRA:  coordinates.NormalizeDegrees(lon.Deg()),
		LatOrDec: 0,
		Distance: solar.Radius(T),
		Plane:    coordinates.Ecliptic,
		Origin:   coordinates.Geocentric,
	}
}

// Moon returns the geocentric ecliptic position of the Moon at t
func Moon(t time.Time) coordinates.Spherical {
	lon, lat, dist := moonposition.Position(jde(t))
	return coordinates.Spherical{
		LonOrRA:  coordinates.NormalizeDegrees(lon.Deg()),
		LatOrDec: lat.Deg(),
		Distance: dist / AU,
		Plane:    coordinates.Ecliptic,
		Origin:   coordinates.Geocentric,
	}
}

// Earth returns the heliocentric position of the Earth at t in plane
func Earth(t time.Time, plane coordinates.Plane) (coordinates.Rectangular, error) {
	sun, err := sunRectangular(t, plane)
	if err != nil {
		return coordinates.Rectangular{}, err
	}
	return coordinates.Rectangular{
		X:      -sun.X,
		Y:      -sun.Y,
		Z:      -sun.Z,
		Plane:  plane,
		Origin: coordinates.Heliocentric,
	}, nil
}

// OriginShift returns the translation that moves a point from origin
// from to origin to at instant t, expressed in plane. Equal origins
// yield the zero vector.
func OriginShift(t time.Time, from, to coordinates.Origin, plane coordinates.Plane) (coordinates.Vec3, error) {
	if !from.Valid() || !to.Valid() || !plane.Valid() {
		return coordinates.Vec3{}, fmt.Errorf("%w: origin shift %s -> %s in %s", coordinates.ErrUnknownFrame, from, to, plane)
	}
	if from == to {
		return coordinates.Vec3{}, nil
	}

	sun, err := sunRectangular(t, plane)
	if err != nil {
		return coordinates.Vec3{}, err
	}

	// geocentric = heliocentric - earth = heliocentric + sun(geocentric)
	if from == coordinates.Heliocentric {
		return sun.Vec(), nil
	}
	return coordinates.Vec3{X: -sun.X, Y: -sun.Y, Z: -sun.Z}, nil
}

// Elongation returns the Sun-Moon angle in ecliptic longitude, in [0, 360)
func Elongation(t time.Time) float64 {
	return coordinates.NormalizeDegrees(Moon(t).LonOrRA - Sun(t).LonOrRA)
}

// MoonAge returns the approximate days since new moon
func MoonAge(t time.Time) float64 {
	return Elongation(t) / 360 * SynodicMonth
}

func sunRectangular(t time.Time, plane coordinates.Plane) (coordinates.Rectangular, error) {
	req := coordinates.NewTransformRequest(Sun(t), coordinates.ShapeRectangular, plane, coordinates.Geocentric)
	out, err := coordinates.Convert(req)
	if err != nil {
		return coordinates.Rectangular{}, err
	}
	return out.(coordinates.Rectangular), nil
}
