// Package orbital provides closed-form Keplerian orbit helpers: period,
// vis-viva speed, specific orbital energy and the true anomaly for a
// given mean anomaly. All quantities are SI unless noted.
package orbital

import (
	"errors"
	"fmt"
	"math"

	"github.com/chrissnell/celestial/pkg/coordinates"
	"github.com/soniakeys/meeus/v3/kepler"
	"github.com/soniakeys/unit"
)

const (
	// G is the gravitational constant [m³ kg⁻¹ s⁻²]
	G = 6.67430e-11

	// GMSun is the standard gravitational parameter of the Sun [m³ s⁻²]
	GMSun = 1.32712440041e20
)

// ErrInvalidOrbit is wrapped by every parameter error in this package
var ErrInvalidOrbit = errors.New("invalid orbital parameters")

// Period returns the orbital period in seconds from Kepler's third law
func Period(semiMajorAxis, gm float64) (float64, error) {
	if err := positive("orbital period", semiMajorAxis, gm); err != nil {
		return 0, err
	}
	return 2 * math.Pi * math.Sqrt(semiMajorAxis*semiMajorAxis*semiMajorAxis/gm), nil
}

// Velocity returns the orbital speed in m/s at distance from the central
// body using the vis-viva equation. Hyperbolic orbits are not supported:
// the distance must not exceed twice the semi-major axis.
func Velocity(semiMajorAxis, distance, gm float64) (float64, error) {
	if err := positive("orbital velocity", semiMajorAxis, distance, gm); err != nil {
		return 0, err
	}

	v2 := gm * (2.0/distance - 1.0/semiMajorAxis)
	if v2 < 0 {
		return 0, &coordinates.DomainError{
			Op:  "orbital velocity",
			Err: fmt.Errorf("%w: distance %g is beyond aphelion bound 2a=%g", ErrInvalidOrbit, distance, 2*semiMajorAxis),
		}
	}
	return math.Sqrt(v2), nil
}

// SpecificEnergy returns the specific orbital energy in J/kg
func SpecificEnergy(semiMajorAxis, gm float64) (float64, error) {
	if err := positive("specific orbital energy", semiMajorAxis, gm); err != nil {
		return 0, err
	}
	return -gm / (2 * semiMajorAxis), nil
}

// TrueAnomaly solves Kepler's equation for an elliptic orbit and returns
// the true anomaly in degrees, in the range [0, 360). meanAnomaly is in
// degrees.
func TrueAnomaly(meanAnomaly, eccentricity float64) (float64, error) {
	if math.IsNaN(eccentricity) || eccentricity < 0 || eccentricity >= 1 {
		return 0, &coordinates.DomainError{
			Op:  "true anomaly",
			Err: fmt.Errorf("%w: eccentricity %g outside [0, 1)", ErrInvalidOrbit, eccentricity),
		}
	}

	E := kepler.Kepler3(eccentricity, unit.AngleFromDeg(meanAnomaly))
	ν := kepler.True(E, eccentricity)
	return coordinates.NormalizeDegrees(ν.Deg()), nil
}

func positive(op string, values ...float64) error {
	for _, v := range values {
		if !(v > 0) || math.IsInf(v, 0) {
			return &coordinates.DomainError{
				Op:  op,
				Err: fmt.Errorf("%w: %g must be positive and finite", ErrInvalidOrbit, v),
			}
		}
	}
	return nil
}
