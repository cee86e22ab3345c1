package coordinates

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// ApplyTransform lifts p into homogeneous space with w set from state,
// left-multiplies it by m and projects the result back to three
// components. The returned state echoes how the entity was treated.
func ApplyTransform(p Vec3, m mat.Matrix, state PhysicalState) (Vec3, PhysicalState, error) {
	if err := checkHomogeneous(m); err != nil {
		return Vec3{}, state, err
	}
	if !state.Valid() {
		return Vec3{}, state, fmt.Errorf("%w: physical state %d", ErrUnknownFrame, int(state))
	}

	v := mat.NewVecDense(4, []float64{p.X, p.Y, p.Z, float64(state)})
	var out mat.VecDense
	out.MulVec(m, v)

	return Vec3{X: out.AtVec(0), Y: out.AtVec(1), Z: out.AtVec(2)}, state, nil
}
