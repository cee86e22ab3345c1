package restserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/chrissnell/celestial/pkg/coordinates"
	"github.com/chrissnell/celestial/pkg/ephemeris"
	"github.com/chrissnell/celestial/pkg/orbital"
	"github.com/chrissnell/celestial/pkg/responseformat"
	"github.com/gorilla/mux"
)

// maxBodyBytes caps the transformation request body
const maxBodyBytes = 1 << 20

// Handlers contains all HTTP handlers for the REST server
type Handlers struct {
	controller *Controller
	formatter  *responseformat.Formatter
	now        func() time.Time
}

// NewHandlers creates a new handlers instance
func NewHandlers(ctrl *Controller) *Handlers {
	return &Handlers{
		controller: ctrl,
		formatter:  responseformat.NewFormatter(),
		now:        time.Now,
	}
}

// GetRoot returns a welcome message with the docs location and version
func (h *Handlers) GetRoot(w http.ResponseWriter, req *http.Request) {
	s := h.controller.settings
	h.write(w, req, http.StatusOK, RootResponse{
		Message: "Welcome to the " + s.AppName,
		Docs:    "/docs",
		Version: s.AppVersion,
	})
}

// GetHealth reports liveness
func (h *Handlers) GetHealth(w http.ResponseWriter, req *http.Request) {
	h.write(w, req, http.StatusOK, HealthResponse{
		Status:  "ok",
		Version: h.controller.settings.AppVersion,
	})
}

// CreateTransformation converts input_coords into the requested shape,
// plane and origin.
func (h *Handlers) CreateTransformation(w http.ResponseWriter, req *http.Request) {
	var body TransformRequestBody

	dec := json.NewDecoder(http.MaxBytesReader(w, req.Body, maxBodyBytes))
	if err := dec.Decode(&body); err != nil {
		h.writeDecodeError(w, req, err)
		return
	}

	treq, err := body.toTransformRequest()
	if err != nil {
		h.controller.metrics.ObserveTransform(body.TargetShape, "invalid")
		h.writeError(w, req, err)
		return
	}

	result, err := coordinates.Convert(treq)
	if err != nil {
		h.controller.metrics.ObserveTransform(string(treq.TargetShape), "error")
		h.writeError(w, req, err)
		return
	}

	h.controller.metrics.ObserveTransform(string(treq.TargetShape), "ok")
	h.controller.logger.Debugw("coordinate transformed",
		"from", treq.Input.Frame().String(),
		"to", treq.Target().String(),
		"shape", treq.TargetShape,
		"state", treq.PhysicalState.String())
	h.write(w, req, http.StatusOK, result)
}

// GetOrbitalPeriod returns the period in seconds for semi_major_axis
func (h *Handlers) GetOrbitalPeriod(w http.ResponseWriter, req *http.Request) {
	a, gm, err := h.axisAndGM(req)
	if err != nil {
		h.writeError(w, req, err)
		return
	}

	v, err := orbital.Period(a, gm)
	h.writeOrbital(w, req, "period", "s", v, err, map[string]float64{"semi_major_axis": a, "gm": gm})
}

// GetOrbitalVelocity returns the vis-viva speed at distance
func (h *Handlers) GetOrbitalVelocity(w http.ResponseWriter, req *http.Request) {
	a, gm, err := h.axisAndGM(req)
	if err != nil {
		h.writeError(w, req, err)
		return
	}
	r, err := floatParam(req, "distance", nil)
	if err != nil {
		h.writeError(w, req, err)
		return
	}

	v, err := orbital.Velocity(a, r, gm)
	h.writeOrbital(w, req, "velocity", "m/s", v, err, map[string]float64{"semi_major_axis": a, "distance": r, "gm": gm})
}

// GetOrbitalEnergy returns the specific orbital energy
func (h *Handlers) GetOrbitalEnergy(w http.ResponseWriter, req *http.Request) {
	a, gm, err := h.axisAndGM(req)
	if err != nil {
		h.writeError(w, req, err)
		return
	}

	v, err := orbital.SpecificEnergy(a, gm)
	h.writeOrbital(w, req, "specific_energy", "J/kg", v, err, map[string]float64{"semi_major_axis": a, "gm": gm})
}

// GetTrueAnomaly solves Kepler's equation for mean_anomaly and eccentricity
func (h *Handlers) GetTrueAnomaly(w http.ResponseWriter, req *http.Request) {
	m, err := floatParam(req, "mean_anomaly", nil)
	if err != nil {
		h.writeError(w, req, err)
		return
	}
	e, err := floatParam(req, "eccentricity", nil)
	if err != nil {
		h.writeError(w, req, err)
		return
	}

	v, err := orbital.TrueAnomaly(m, e)
	h.writeOrbital(w, req, "true_anomaly", "deg", v, err, map[string]float64{"mean_anomaly": m, "eccentricity": e})
}

// GetEphemeris returns the position of the sun, moon or earth at ?time=
// (RFC3339, default now) in the requested plane and shape. The sun and
// moon are geocentric, the earth heliocentric. The moon also carries its
// elongation and age.
func (h *Handlers) GetEphemeris(w http.ResponseWriter, req *http.Request) {
	body := mux.Vars(req)["body"]

	at, err := timeParam(req, "time", h.now)
	if err != nil {
		h.writeError(w, req, err)
		return
	}

	q := req.URL.Query()
	plane, err := coordinates.ParsePlane(defaultString(q.Get("plane"), string(coordinates.Ecliptic)))
	if err != nil {
		h.writeError(w, req, invalid("plane: %v", err))
		return
	}
	shape, err := coordinates.ParseShape(defaultString(q.Get("shape"), string(coordinates.ShapeSpherical)))
	if err != nil {
		h.writeError(w, req, invalid("shape: %v", err))
		return
	}

	var pos coordinates.Coordinate
	switch body {
	case "sun":
		pos = ephemeris.Sun(at)
	case "moon":
		pos = ephemeris.Moon(at)
	case "earth":
		pos, err = ephemeris.Earth(at, coordinates.Ecliptic)
		if err != nil {
			h.writeError(w, req, err)
			return
		}
	default:
		h.formatter.WriteError(w, req, http.StatusNotFound, fmt.Sprintf("unknown body %q", body))
		return
	}

	out, err := coordinates.Convert(coordinates.NewTransformRequest(pos, shape, plane, pos.Frame().Origin))
	if err != nil {
		h.writeError(w, req, err)
		return
	}

	if sph, ok := out.(coordinates.Spherical); ok {
		sph.LonOrRA = coordinates.NormalizeDegrees(sph.LonOrRA)
		out = sph
	}

	resp := EphemerisResponse{
		Body:     body,
		Time:     at,
		Position: out,
	}
	if body == "moon" {
		elongation, age := ephemeris.Elongation(at), ephemeris.MoonAge(at)
		resp.Elongation = &elongation
		resp.AgeDays = &age
	}

	h.write(w, req, http.StatusOK, resp)
}

func defaultString(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func (h *Handlers) axisAndGM(req *http.Request) (a, gm float64, err error) {
	a, err = floatParam(req, "semi_major_axis", nil)
	if err != nil {
		return 0, 0, err
	}
	def := orbital.GMSun
	gm, err = floatParam(req, "gm", &def)
	return a, gm, err
}

func (h *Handlers) writeOrbital(w http.ResponseWriter, req *http.Request, quantity, unit string, value float64, err error, inputs map[string]float64) {
	if err != nil {
		h.writeError(w, req, err)
		return
	}
	h.write(w, req, http.StatusOK, OrbitalResponse{
		Quantity: quantity,
		Value:    value,
		Unit:     unit,
		Inputs:   inputs,
	})
}

// statusFor maps an error to its HTTP status
func statusFor(err error) int {
	var verr *validationError
	switch {
	case errors.As(err, &verr),
		errors.Is(err, coordinates.ErrUnknownFrame),
		errors.Is(err, coordinates.ErrZeroDistance),
		errors.Is(err, coordinates.ErrMalformedMatrix),
		errors.Is(err, orbital.ErrInvalidOrbit):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handlers) writeError(w http.ResponseWriter, req *http.Request, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		h.controller.logger.Errorw("request failed", "path", req.URL.Path, "error", err)
		msg = http.StatusText(status)
	}
	if ferr := h.formatter.WriteError(w, req, status, msg); ferr != nil {
		h.controller.logger.Errorf("error writing error response: %v", ferr)
	}
}

// writeDecodeError answers 422 for well-formed JSON of the wrong type or a
// malformed epoch and 400 for everything else the decoder rejects.
func (h *Handlers) writeDecodeError(w http.ResponseWriter, req *http.Request, err error) {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		h.writeError(w, req, invalid("%s: expected %s, got %s", typeErr.Field, typeErr.Type, typeErr.Value))
		return
	}
	var timeErr *time.ParseError
	if errors.As(err, &timeErr) {
		h.writeError(w, req, invalid("epoch: %v", timeErr))
		return
	}

	msg := fmt.Sprintf("could not decode request body: %v", err)
	if ferr := h.formatter.WriteError(w, req, http.StatusBadRequest, msg); ferr != nil {
		h.controller.logger.Errorf("error writing error response: %v", ferr)
	}
}

func (h *Handlers) write(w http.ResponseWriter, req *http.Request, status int, data any) {
	if err := h.formatter.WriteResponse(w, req, status, data); err != nil {
		h.controller.logger.Errorf("error writing response: %v", err)
	}
}
