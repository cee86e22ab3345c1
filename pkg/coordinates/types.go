// Package coordinates converts celestial positions and vectors between
// rectangular and spherical shapes, the equatorial and ecliptic reference
// planes, and heliocentric and geocentric origins.
//
// Conversions run through a 4x4 homogeneous matrix: rotations change the
// reference plane, translations change the origin, and the w component of
// the entity (its PhysicalState) decides whether a translation applies.
package coordinates

import (
	"fmt"
	"strings"
)

// Shape is the geometric form a coordinate is expressed in
type Shape string

const (
	ShapeRectangular Shape = "rectangular"
	ShapeSpherical   Shape = "spherical"
)

// Valid reports whether s is one of the known shapes
func (s Shape) Valid() bool {
	return s == ShapeRectangular || s == ShapeSpherical
}

// Plane is the fundamental reference plane of a coordinate
type Plane string

const (
	Equatorial Plane = "equatorial"
	Ecliptic   Plane = "ecliptic"
)

// Valid reports whether p is one of the known planes
func (p Plane) Valid() bool {
	return p == Equatorial || p == Ecliptic
}

// Origin is the body placed at the centre of the coordinate system
type Origin string

const (
	Heliocentric Origin = "heliocentric"
	Geocentric   Origin = "geocentric"
)

// Valid reports whether o is one of the known origins
func (o Origin) Valid() bool {
	return o == Heliocentric || o == Geocentric
}

// PhysicalState is the homogeneous w component of an entity.
// Points (w=1) are displaced by translations, Vectors (w=0) are not.
type PhysicalState int

const (
	Vector PhysicalState = 0
	Point  PhysicalState = 1
)

// Valid reports whether ps is Vector or Point
func (ps PhysicalState) Valid() bool {
	return ps == Vector || ps == Point
}

func (ps PhysicalState) String() string {
	switch ps {
	case Vector:
		return "vector"
	case Point:
		return "point"
	default:
		return fmt.Sprintf("PhysicalState(%d)", int(ps))
	}
}

// ParseShape parses a shape name, ignoring case and surrounding space
func ParseShape(s string) (Shape, error) {
	shape := Shape(strings.ToLower(strings.TrimSpace(s)))
	if !shape.Valid() {
		return "", fmt.Errorf("%w: shape %q", ErrUnknownFrame, s)
	}
	return shape, nil
}

// ParsePlane parses a plane name, ignoring case and surrounding space
func ParsePlane(s string) (Plane, error) {
	plane := Plane(strings.ToLower(strings.TrimSpace(s)))
	if !plane.Valid() {
		return "", fmt.Errorf("%w: plane %q", ErrUnknownFrame, s)
	}
	return plane, nil
}

// ParseOrigin parses an origin name, ignoring case and surrounding space
func ParseOrigin(s string) (Origin, error) {
	origin := Origin(strings.ToLower(strings.TrimSpace(s)))
	if !origin.Valid() {
		return "", fmt.Errorf("%w: origin %q", ErrUnknownFrame, s)
	}
	return origin, nil
}

// Vec3 is a plain three component quantity with no frame attached
type Vec3 struct {
	X, Y, Z float64
}

// Frame is the (plane, origin) pair a coordinate value is tagged with
type Frame struct {
	Plane  Plane
	Origin Origin
}

// Valid reports whether both tags are known values
func (f Frame) Valid() bool {
	return f.Plane.Valid() && f.Origin.Valid()
}

func (f Frame) String() string {
	return string(f.Plane) + "/" + string(f.Origin)
}

// Coordinate is either a Rectangular or a Spherical value. The set of
// implementations is closed.
type Coordinate interface {
	Shape() Shape
	Frame() Frame
	isCoordinate()
}

// Rectangular is a Cartesian coordinate tagged with its frame
type Rectangular struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Z      float64 `json:"z"`
	Plane  Plane   `json:"plane"`
	Origin Origin  `json:"origin"`
}

func (Rectangular) Shape() Shape { return ShapeRectangular }

func (r Rectangular) Frame() Frame { return Frame{Plane: r.Plane, Origin: r.Origin} }

// Vec returns the Cartesian components without the frame tags
func (r Rectangular) Vec() Vec3 { return Vec3{X: r.X, Y: r.Y, Z: r.Z} }

func (Rectangular) isCoordinate() {}

// Spherical is a longitude/latitude/distance coordinate tagged with its
// frame. Angles are in degrees; LonOrRA is right ascension on the
// equatorial plane and ecliptic longitude on the ecliptic plane.
type Spherical struct {
	LonOrRA  float64 `json:"lon_or_ra"`
	LatOrDec float64 `json:"lat_or_dec"`
	Distance float64 `json:"distance"`
	Plane    Plane   `json:"plane"`
	Origin   Origin  `json:"origin"`
}

func (Spherical) Shape() Shape { return ShapeSpherical }

func (s Spherical) Frame() Frame { return Frame{Plane: s.Plane, Origin: s.Origin} }

func (Spherical) isCoordinate() {}

// TransformRequest describes one conversion. Translation is only used when
// the input and target origins differ and is expressed in the target plane.
type TransformRequest struct {
	Input         Coordinate
	TargetShape   Shape
	TargetPlane   Plane
	TargetOrigin  Origin
	PhysicalState PhysicalState
	Translation   Vec3
}

// NewTransformRequest returns a request for a Point with a zero translation
func NewTransformRequest(input Coordinate, shape Shape, plane Plane, origin Origin) TransformRequest {
	return TransformRequest{
		Input:         input,
		TargetShape:   shape,
		TargetPlane:   plane,
		TargetOrigin:  origin,
		PhysicalState: Point,
	}
}

// Target returns the frame the request converts into
func (r TransformRequest) Target() Frame {
	return Frame{Plane: r.TargetPlane, Origin: r.TargetOrigin}
}
