package restserver

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/chrissnell/celestial/pkg/coordinates"
	"github.com/chrissnell/celestial/pkg/ephemeris"
)

// RootResponse is returned by GET /
type RootResponse struct {
	Message string `json:"message"`
	Docs    string `json:"docs"`
	Version string `json:"version"`
}

// HealthResponse is returned by GET {prefix}/health
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// OrbitalResponse carries a single derived orbital quantity
type OrbitalResponse struct {
	Quantity string             `json:"quantity"`
	Value    float64            `json:"value"`
	Unit     string             `json:"unit"`
	Inputs   map[string]float64 `json:"inputs"`
}

// validationError marks request content that decoded but cannot be used
type validationError struct {
	msg string
}

func (e *validationError) Error() string {
	return e.msg
}

func invalid(format string, args ...any) error {
	return &validationError{msg: fmt.Sprintf(format, args...)}
}

// coordinateBody is the wire form of input_coords. Either the rectangular
// triple or the spherical triple must be complete; rectangular wins when
// both are.
type coordinateBody struct {
	X        *float64 `json:"x"`
	Y        *float64 `json:"y"`
	Z        *float64 `json:"z"`
	LonOrRA  *float64 `json:"lon_or_ra"`
	LatOrDec *float64 `json:"lat_or_dec"`
	Distance *float64 `json:"distance"`
	Plane    string   `json:"plane"`
	Origin   string   `json:"origin"`
}

// TransformRequestBody is the JSON body of POST {prefix}/coordinates/transformations
type TransformRequestBody struct {
	InputCoords       *coordinateBody `json:"input_coords"`
	TargetShape       string          `json:"target_shape"`
	TargetPlane       string          `json:"target_plane"`
	TargetOrigin      string          `json:"target_origin"`
	PhysicalState     *int            `json:"physical_state"`
	TranslationVector []float64       `json:"translation_vector"`

	// Epoch derives the origin shift from the Earth's position at that
	// instant, in AU. It excludes translation_vector.
	Epoch *time.Time `json:"epoch"`
}

func (c *coordinateBody) coordinate() (coordinates.Coordinate, error) {
	plane, err := coordinates.ParsePlane(c.Plane)
	if err != nil {
		return nil, invalid("input_coords.plane: %v", err)
	}
	origin, err := coordinates.ParseOrigin(c.Origin)
	if err != nil {
		return nil, invalid("input_coords.origin: %v", err)
	}

	switch {
	case c.X != nil && c.Y != nil && c.Z != nil:
		if err := finite("input_coords", *c.X, *c.Y, *c.Z); err != nil {
			return nil, err
		}
		return coordinates.Rectangular{X: *c.X, Y: *c.Y, Z: *c.Z, Plane: plane, Origin: origin}, nil
	case c.LonOrRA != nil && c.LatOrDec != nil && c.Distance != nil:
		if err := finite("input_coords", *c.LonOrRA, *c.LatOrDec, *c.Distance); err != nil {
			return nil, err
		}
		return coordinates.Spherical{LonOrRA: *c.LonOrRA, LatOrDec: *c.LatOrDec, Distance: *c.Distance, Plane: plane, Origin: origin}, nil
	default:
		return nil, invalid("input_coords must carry x, y, z or lon_or_ra, lat_or_dec, distance")
	}
}

// toTransformRequest validates the body and builds the pipeline request.
// physical_state defaults to point and translation_vector to the zero vector.
func (b *TransformRequestBody) toTransformRequest() (coordinates.TransformRequest, error) {
	var req coordinates.TransformRequest

	if b.InputCoords == nil {
		return req, invalid("input_coords is required")
	}
	input, err := b.InputCoords.coordinate()
	if err != nil {
		return req, err
	}

	shape, err := coordinates.ParseShape(b.TargetShape)
	if err != nil {
		return req, invalid("target_shape: %v", err)
	}
	plane, err := coordinates.ParsePlane(b.TargetPlane)
	if err != nil {
		return req, invalid("target_plane: %v", err)
	}
	origin, err := coordinates.ParseOrigin(b.TargetOrigin)
	if err != nil {
		return req, invalid("target_origin: %v", err)
	}

	req = coordinates.NewTransformRequest(input, shape, plane, origin)

	if b.PhysicalState != nil {
		state := coordinates.PhysicalState(*b.PhysicalState)
		if !state.Valid() {
			return req, invalid("physical_state must be 0 (vector) or 1 (point), got %d", *b.PhysicalState)
		}
		req.PhysicalState = state
	}

	if b.TranslationVector != nil {
		if len(b.TranslationVector) != 3 {
			return req, invalid("translation_vector must have exactly 3 components, got %d", len(b.TranslationVector))
		}
		if err := finite("translation_vector", b.TranslationVector...); err != nil {
			return req, err
		}
		req.Translation = coordinates.Vec3{
			X: b.TranslationVector[0],
			Y: b.TranslationVector[1],
			Z: b.TranslationVector[2],
		}
	}

	if b.Epoch != nil {
		if b.TranslationVector != nil {
			return req, invalid("translation_vector and epoch are mutually exclusive")
		}
		shift, err := ephemeris.OriginShift(*b.Epoch, input.Frame().Origin, origin, plane)
		if err != nil {
			return req, err
		}
		req.Translation = shift
	}

	return req, nil
}

func finite(field string, values ...float64) error {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return invalid("%s must contain finite numbers", field)
		}
	}
	return nil
}

// floatParam reads a float query parameter. A missing parameter yields def
// when def is non-nil and a validation error otherwise.
func floatParam(r *http.Request, name string, def *float64) (float64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		if def != nil {
			return *def, nil
		}
		return 0, invalid("query parameter %s is required", name)
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, invalid("query parameter %s: %q is not a number", name, raw)
	}
	if err := finite(name, v); err != nil {
		return 0, err
	}
	return v, nil
}

// timeParam reads an RFC3339 query parameter, defaulting to now
func timeParam(r *http.Request, name string, now func() time.Time) (time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return now().UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, invalid("query parameter %s: %q is not an RFC3339 time", name, raw)
	}
	return t, nil
}

// EphemerisResponse is a body position at an instant. Elongation (degrees
// east of the Sun) and AgeDays (since new moon) are set for the moon only.
type EphemerisResponse struct {
	Body       string                 `json:"body"`
	Time       time.Time              `json:"time"`
	Position   coordinates.Coordinate `json:"position"`
	Elongation *float64               `json:"elongation,omitempty"`
	AgeDays    *float64               `json:"age_days,omitempty"`
}
