package coordinates

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Convert transforms req.Input into the requested shape, plane and origin.
//
// The input is first normalized to rectangular form. If the plane differs
// a rotation is composed, if the origin differs a translation built from
// req.Translation is composed after it, and the combined matrix is applied
// with req.PhysicalState as w. The result is then formatted into the
// target shape and tagged with the target frame. When neither plane nor
// origin changes no matrix is applied and the components pass through
// untouched.
//
// Convert has no state and may be called concurrently.
func Convert(req TransformRequest) (Coordinate, error) {
	input, err := concrete(req.Input)
	if err != nil {
		return nil, err
	}
	req.Input = input

	if err := validate(req); err != nil {
		return nil, err
	}

	rect := normalize(req.Input)

	p, err := transform(rect, req)
	if err != nil {
		return nil, err
	}

	return format(p, req.TargetShape, req.Target())
}

// concrete dereferences pointer coordinates so later stages only see values
func concrete(c Coordinate) (Coordinate, error) {
	switch v := c.(type) {
	case Rectangular, Spherical:
		return v, nil
	case *Rectangular:
		if v != nil {
			return *v, nil
		}
	case *Spherical:
		if v != nil {
			return *v, nil
		}
	}
	return nil, fmt.Errorf("%w: missing input coordinate", ErrUnknownFrame)
}

func validate(req TransformRequest) error {
	if from := req.Input.Frame(); !from.Valid() {
		return fmt.Errorf("%w: input frame %s", ErrUnknownFrame, from)
	}
	if !req.TargetShape.Valid() {
		return fmt.Errorf("%w: target shape %q", ErrUnknownFrame, req.TargetShape)
	}
	if to := req.Target(); !to.Valid() {
		return fmt.Errorf("%w: target frame %s", ErrUnknownFrame, to)
	}
	if !req.PhysicalState.Valid() {
		return fmt.Errorf("%w: physical state %d", ErrUnknownFrame, int(req.PhysicalState))
	}
	return nil
}

// normalize returns c in rectangular form, keeping its original frame.
// c has already been through concrete.
func normalize(c Coordinate) Rectangular {
	switch v := c.(type) {
	case Spherical:
		x, y, z := SphericalToRectangular(v.LonOrRA, v.LatOrDec, v.Distance)
		return Rectangular{X: x, Y: y, Z: z, Plane: v.Plane, Origin: v.Origin}
	default:
		return c.(Rectangular)
	}
}

// transform builds the master matrix for the frame change and applies it
func transform(from Rectangular, req TransformRequest) (Vec3, error) {
	var steps []mat.Matrix
	if from.Plane != req.TargetPlane {
		steps = append(steps, PlaneRotation(req.TargetPlane == Ecliptic))
	}
	if from.Origin != req.TargetOrigin {
		steps = append(steps, Translation(req.Translation))
	}

	if len(steps) == 0 {
		return from.Vec(), nil
	}

	master, err := Compose(steps...)
	if err != nil {
		return Vec3{}, err
	}

	p, _, err := ApplyTransform(from.Vec(), master, req.PhysicalState)
	return p, err
}

// format renders p in the target shape and tags it with the target frame
func format(p Vec3, shape Shape, to Frame) (Coordinate, error) {
	if shape == ShapeRectangular {
		return Rectangular{X: p.X, Y: p.Y, Z: p.Z, Plane: to.Plane, Origin: to.Origin}, nil
	}

	lon, lat, d, err := RectangularToSpherical(p.X, p.Y, p.Z)
	if err != nil {
		return nil, err
	}
	return Spherical{LonOrRA: lon, LatOrDec: lat, Distance: d, Plane: to.Plane, Origin: to.Origin}, nil
}
