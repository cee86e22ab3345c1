package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/chrissnell/celestial/pkg/coordinates"
	"github.com/chrissnell/celestial/pkg/ephemeris"
)

func main() {
	var (
		inShape   = flag.String("shape", "rectangular", "Input shape: rectangular or spherical")
		inPlane   = flag.String("plane", "equatorial", "Input plane: equatorial or ecliptic")
		inOrigin  = flag.String("origin", "geocentric", "Input origin: heliocentric or geocentric")
		a         = flag.Float64("a", 0, "x, or longitude/right ascension in degrees")
		b         = flag.Float64("b", 0, "y, or latitude/declination in degrees")
		c         = flag.Float64("c", 0, "z, or distance")
		toShape   = flag.String("to-shape", "spherical", "Target shape")
		toPlane   = flag.String("to-plane", "ecliptic", "Target plane")
		toOrigin  = flag.String("to-origin", "", "Target origin (default: input origin)")
		state     = flag.Int("state", int(coordinates.Point), "Physical state: 0 for vector, 1 for point")
		translate = flag.String("translate", "", "Origin shift x,y,z in the target plane")
		epochStr  = flag.String("epoch", "", "Derive the origin shift from the Earth's position at this UTC time (RFC3339)")
	)
	flag.Parse()

	if *toOrigin == "" {
		*toOrigin = *inOrigin
	}

	req, err := buildRequest(*inShape, *inPlane, *inOrigin, *a, *b, *c, *toShape, *toPlane, *toOrigin)
	if err != nil {
		fail(err)
	}

	req.PhysicalState = coordinates.PhysicalState(*state)

	switch {
	case *translate != "" && *epochStr != "":
		fail(fmt.Errorf("-translate and -epoch are mutually exclusive"))
	case *translate != "":
		req.Translation, err = parseVector(*translate)
		if err != nil {
			fail(err)
		}
	case *epochStr != "":
		t, err := time.Parse(time.RFC3339, *epochStr)
		if err != nil {
			fail(fmt.Errorf("parsing epoch: %v", err))
		}
		req.Translation, err = ephemeris.OriginShift(t, req.Input.Frame().Origin, req.TargetOrigin, req.TargetPlane)
		if err != nil {
			fail(err)
		}
	}

	out, err := coordinates.Convert(req)
	if err != nil {
		fail(err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		fail(err)
	}
}

func buildRequest(shape, plane, origin string, a, b, c float64, toShape, toPlane, toOrigin string) (coordinates.TransformRequest, error) {
	var req coordinates.TransformRequest

	s, err := coordinates.ParseShape(shape)
	if err != nil {
		return req, err
	}
	p, err := coordinates.ParsePlane(plane)
	if err != nil {
		return req, err
	}
	o, err := coordinates.ParseOrigin(origin)
	if err != nil {
		return req, err
	}

	var input coordinates.Coordinate
	if s == coordinates.ShapeRectangular {
		input = coordinates.Rectangular{X: a, Y: b, Z: c, Plane: p, Origin: o}
	} else {
		input = coordinates.Spherical{LonOrRA: a, LatOrDec: b, Distance: c, Plane: p, Origin: o}
	}

	ts, err := coordinates.ParseShape(toShape)
	if err != nil {
		return req, err
	}
	tp, err := coordinates.ParsePlane(toPlane)
	if err != nil {
		return req, err
	}
	to, err := coordinates.ParseOrigin(toOrigin)
	if err != nil {
		return req, err
	}

	return coordinates.NewTransformRequest(input, ts, tp, to), nil
}

func parseVector(v string) (coordinates.Vec3, error) {
	parts := strings.Split(v, ",")
	if len(parts) != 3 {
		return coordinates.Vec3{}, fmt.Errorf("translation must have exactly 3 components, got %d", len(parts))
	}

	var xyz [3]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return coordinates.Vec3{}, fmt.Errorf("translation component %d: %v", i, err)
		}
		xyz[i] = f
	}
	return coordinates.Vec3{X: xyz[0], Y: xyz[1], Z: xyz[2]}, nil
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
