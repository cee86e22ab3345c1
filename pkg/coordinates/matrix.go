package coordinates

import (
	"fmt"

	"github.com/soniakeys/unit"
	"gonum.org/v1/gonum/mat"
)

// Obliquity is the fixed tilt of the ecliptic against the celestial
// equator, 23°26'21.406".
var Obliquity = unit.NewAngle(' ', 23, 26, 21.406)

// Identity returns a new 4x4 identity matrix
func Identity() *mat.Dense {
	return mat.NewDense(4, 4, []float64{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	})
}

// PlaneRotation returns the rotation about the x axis (toward the vernal
// equinox) between the equatorial and ecliptic planes. toEcliptic selects
// +ε (equatorial to ecliptic), otherwise -ε.
func PlaneRotation(toEcliptic bool) *mat.Dense {
	eps := Obliquity
	if !toEcliptic {
		eps = -eps
	}
	s, c := eps.Sincos()

	return mat.NewDense(4, 4, []float64{
		1, 0, 0, 0,
		0, c, s, 0,
		0, -s, c, 0,
		0, 0, 0, 1,
	})
}

// Translation returns a matrix that displaces points by t. Moving the
// origin from body A to body B uses the negated position of B relative
// to A. The w row stays [0 0 0 1] so vectors pass through unchanged.
func Translation(t Vec3) *mat.Dense {
	return mat.NewDense(4, 4, []float64{
		1, 0, 0, t.X,
		0, 1, 0, t.Y,
		0, 0, 1, t.Z,
		0, 0, 0, 1,
	})
}

// Compose multiplies transforms in application order: the first argument
// is applied to an entity first, so Compose(a, b) returns b·a.
func Compose(ms ...mat.Matrix) (*mat.Dense, error) {
	out := Identity()
	for _, m := range ms {
		if err := checkHomogeneous(m); err != nil {
			return nil, err
		}
		var next mat.Dense
		next.Mul(m, out)
		out = &next
	}
	return out, nil
}

func checkHomogeneous(m mat.Matrix) error {
	if m == nil {
		return fmt.Errorf("%w: nil matrix", ErrMalformedMatrix)
	}
	if d, ok := m.(*mat.Dense); ok && d == nil {
		return fmt.Errorf("%w: nil matrix", ErrMalformedMatrix)
	}
	if r, c := m.Dims(); r != 4 || c != 4 {
		return fmt.Errorf("%w: got %dx%d, want 4x4", ErrMalformedMatrix, r, c)
	}
	return nil
}
