package restserver

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/chrissnell/celestial/pkg/config"
	"github.com/chrissnell/celestial/pkg/coordinates"
	"github.com/chrissnell/celestial/pkg/ephemeris"
	"github.com/chrissnell/celestial/pkg/orbital"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"
)

const transformPath = "/api/v1/coordinates/transformations"

func newTestController(t *testing.T, mutate func(s *config.Settings)) *Controller {
	t.Helper()

	s := config.DefaultSettings()
	s.GRPCHealth = false
	if mutate != nil {
		mutate(s)
	}
	require.NoError(t, s.Validate())

	ctrl, err := NewController(context.Background(), &sync.WaitGroup{}, s, zap.NewNop().Sugar(), prometheus.NewRegistry())
	require.NoError(t, err)
	return ctrl
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestRootAndHealth(t *testing.T) {
	h := newTestController(t, nil).Handler()

	rec := do(t, h, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{
		"message": "Welcome to the Celestial Mechanics Calculations API",
		"docs":    "/docs",
		"version": "0.1.0",
	}, decode(t, rec))

	rec = do(t, h, http.MethodGet, "/api/v1/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{"status": "ok", "version": "0.1.0"}, decode(t, rec))
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))
}

func TestCustomPrefix(t *testing.T) {
	h := newTestController(t, func(s *config.Settings) { s.APIV1Prefix = "/v2/" }).Handler()

	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/v2/health", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/api/v1/health", "").Code)
}

func TestRequestIDPropagated(t *testing.T) {
	h := newTestController(t, nil).Handler()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	req.Header.Set(requestIDHeader, "trace-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "trace-123", rec.Header().Get(requestIDHeader))
}

func TestTransformRectangularToSpherical(t *testing.T) {
	ctrl := newTestController(t, nil)
	body := `{
		"input_coords": {"x": 1, "y": 1, "z": 0, "plane": "equatorial", "origin": "heliocentric"},
		"target_shape": "spherical",
		"target_plane": "equatorial",
		"target_origin": "heliocentric"
	}`

	rec := do(t, ctrl.Handler(), http.MethodPost, transformPath, body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	out := decode(t, rec)
	assert.InDelta(t, 45.0, out["lon_or_ra"], 1e-9)
	assert.InDelta(t, 0.0, out["lat_or_dec"], 1e-9)
	assert.InDelta(t, math.Sqrt2, out["distance"], 1e-9)
	assert.Equal(t, "equatorial", out["plane"])
	assert.Equal(t, "heliocentric", out["origin"])

	assert.Equal(t, 1.0, testutil.ToFloat64(ctrl.metrics.Transformations.WithLabelValues("spherical", "ok")))
}

func TestTransformSphericalToEclipticRectangular(t *testing.T) {
	h := newTestController(t, nil).Handler()
	body := `{
		"input_coords": {"lon_or_ra": 0, "lat_or_dec": 90, "distance": 1, "plane": "equatorial", "origin": "geocentric"},
		"target_shape": "rectangular",
		"target_plane": "ecliptic",
		"target_origin": "geocentric"
	}`

	rec := do(t, h, http.MethodPost, transformPath, body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	out := decode(t, rec)
	s, c := coordinates.Obliquity.Sincos()
	assert.InDelta(t, 0.0, out["x"], 1e-9)
	assert.InDelta(t, s, out["y"], 1e-9)
	assert.InDelta(t, c, out["z"], 1e-9)
	assert.Equal(t, "ecliptic", out["plane"])
}

func TestTransformTranslation(t *testing.T) {
	h := newTestController(t, nil).Handler()

	tests := []struct {
		name  string
		state string
		wantX float64
	}{
		{"point shifted", `, "physical_state": 1`, 0},
		{"default is point", ``, 0},
		{"vector immune", `, "physical_state": 0`, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := `{
				"input_coords": {"x": 1, "y": 0, "z": 0, "plane": "ecliptic", "origin": "heliocentric"},
				"target_shape": "rectangular",
				"target_plane": "ecliptic",
				"target_origin": "geocentric",
				"translation_vector": [-1, 0, 0]` + tt.state + `
			}`
			rec := do(t, h, http.MethodPost, transformPath, body)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			out := decode(t, rec)
			assert.InDelta(t, tt.wantX, out["x"], 1e-12)
			assert.Equal(t, "geocentric", out["origin"])
		})
	}
}

func TestTransformMsgPack(t *testing.T) {
	h := newTestController(t, nil).Handler()
	body := `{
		"input_coords": {"x": 3, "y": 4, "z": 0, "plane": "equatorial", "origin": "heliocentric"},
		"target_shape": "rectangular",
		"target_plane": "equatorial",
		"target_origin": "heliocentric"
	}`

	rec := do(t, h, http.MethodPost, transformPath+"?format=msgpack", body)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/x-msgpack", rec.Header().Get("Content-Type"))

	var out map[string]any
	require.NoError(t, msgpack.Unmarshal(rec.Body.Bytes(), &out))
	assert.EqualValues(t, 3, out["x"])
	assert.EqualValues(t, 4, out["y"])
	assert.Equal(t, "equatorial", out["plane"])
}

func TestTransformErrors(t *testing.T) {
	h := newTestController(t, nil).Handler()

	valid := `"input_coords": {"x": 1, "y": 2, "z": 3, "plane": "equatorial", "origin": "heliocentric"}`
	targets := `"target_shape": "rectangular", "target_plane": "equatorial", "target_origin": "heliocentric"`

	tests := []struct {
		name   string
		body   string
		status int
		detail string
	}{
		{"malformed json", `{"input_coords":`, http.StatusBadRequest, "could not decode"},
		{"empty body", ``, http.StatusBadRequest, "could not decode"},
		{"missing input", `{` + targets + `}`, http.StatusUnprocessableEntity, "input_coords is required"},
		{"incomplete input", `{"input_coords": {"x": 1, "plane": "equatorial", "origin": "heliocentric"}, ` + targets + `}`, http.StatusUnprocessableEntity, "must carry"},
		{"unknown plane", `{"input_coords": {"x": 1, "y": 2, "z": 3, "plane": "galactic", "origin": "heliocentric"}, ` + targets + `}`, http.StatusUnprocessableEntity, "galactic"},
		{"unknown target shape", `{` + valid + `, "target_shape": "cylindrical", "target_plane": "equatorial", "target_origin": "heliocentric"}`, http.StatusUnprocessableEntity, "target_shape"},
		{"bad physical state", `{` + valid + `, ` + targets + `, "physical_state": 2}`, http.StatusUnprocessableEntity, "physical_state"},
		{"fractional physical state", `{` + valid + `, ` + targets + `, "physical_state": 0.5}`, http.StatusUnprocessableEntity, "physical_state"},
		{"short translation", `{` + valid + `, ` + targets + `, "translation_vector": [1, 2]}`, http.StatusUnprocessableEntity, "exactly 3"},
		{"string coordinate", `{"input_coords": {"x": "1", "y": 2, "z": 3, "plane": "equatorial", "origin": "heliocentric"}, ` + targets + `}`, http.StatusUnprocessableEntity, "expected"},
		{"zero distance to spherical", `{"input_coords": {"x": 0, "y": 0, "z": 0, "plane": "equatorial", "origin": "heliocentric"}, "target_shape": "spherical", "target_plane": "equatorial", "target_origin": "heliocentric"}`, http.StatusUnprocessableEntity, "zero distance"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, transformPath, tt.body)
			require.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.Contains(t, decode(t, rec)["detail"], tt.detail)
		})
	}
}

func TestMethodNotAllowed(t *testing.T) {
	h := newTestController(t, nil).Handler()

	tests := []struct {
		method string
		target string
	}{
		{http.MethodGet, transformPath},
		{http.MethodPost, "/api/v1/health"},
		{http.MethodDelete, "/api/v1/ephemeris/sun"},
		{http.MethodPost, "/"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.target, func(t *testing.T) {
			rec := do(t, h, tt.method, tt.target, "")
			require.Equal(t, http.StatusMethodNotAllowed, rec.Code, rec.Body.String())
			assert.Equal(t, "Method Not Allowed", decode(t, rec)["detail"])
		})
	}
}

func TestUnknownPathUnderPrefix(t *testing.T) {
	h := newTestController(t, nil).Handler()
	rec := do(t, h, http.MethodGet, "/api/v1/nowhere", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Not Found", decode(t, rec)["detail"])
}

func TestOrbitalEndpoints(t *testing.T) {
	h := newTestController(t, nil).Handler()
	const au = 1.495978707e11

	tests := []struct {
		name   string
		target string
		want   float64
		delta  float64
	}{
		{"period", "/api/v1/orbital/period?semi_major_axis=1.495978707e11", 31558196.01550645, 1e-3},
		{"velocity", "/api/v1/orbital/velocity?semi_major_axis=1.495978707e11&distance=1.495978707e11", 29784.69183427775, 1e-6},
		{"energy", "/api/v1/orbital/energy?semi_major_axis=1.495978707e11", -orbital.GMSun / (2 * au), 1e-3},
		{"true anomaly", "/api/v1/orbital/true-anomaly?mean_anomaly=5&eccentricity=0.1", 6.139761520840446, 1e-6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodGet, tt.target, "")
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.InDelta(t, tt.want, decode(t, rec)["value"], tt.delta)
		})
	}
}

func TestOrbitalErrors(t *testing.T) {
	h := newTestController(t, nil).Handler()

	tests := []struct {
		name   string
		target string
	}{
		{"missing axis", "/api/v1/orbital/period"},
		{"non numeric", "/api/v1/orbital/period?semi_major_axis=far"},
		{"negative axis", "/api/v1/orbital/period?semi_major_axis=-1"},
		{"beyond aphelion", "/api/v1/orbital/velocity?semi_major_axis=1&distance=3"},
		{"hyperbolic", "/api/v1/orbital/true-anomaly?mean_anomaly=5&eccentricity=1.5"},
		{"infinite gm", "/api/v1/orbital/energy?semi_major_axis=1&gm=Inf"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodGet, tt.target, "")
			assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
			assert.NotEmpty(t, decode(t, rec)["detail"])
		})
	}
}

func TestRateLimit(t *testing.T) {
	h := newTestController(t, func(s *config.Settings) {
		s.RateLimitRPS = 0.001
		s.RateLimitBurst = 2
	}).Handler()

	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/api/v1/health", "").Code)
	}
	rec := do(t, h, http.MethodGet, "/api/v1/health", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "rate limit exceeded", decode(t, rec)["detail"])
}

func TestCORS(t *testing.T) {
	h := newTestController(t, nil).Handler()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	req.Header.Set("Origin", "http://evil.test")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestController(t, nil).Handler()
	do(t, h, http.MethodGet, "/api/v1/health", "")

	rec := do(t, h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `celestial_http_requests_total{code="200",method="GET",route="/api/v1/health"} 1`)
}

func TestMetricsDisabled(t *testing.T) {
	ctrl := newTestController(t, func(s *config.Settings) { s.MetricsEnabled = false })
	assert.Nil(t, ctrl.metrics)
	assert.Equal(t, http.StatusNotFound, do(t, ctrl.Handler(), http.MethodGet, "/metrics", "").Code)

	// nil metrics must not break the transform path
	body := `{"input_coords": {"x": 1, "y": 0, "z": 0, "plane": "equatorial", "origin": "heliocentric"}, "target_shape": "rectangular", "target_plane": "equatorial", "target_origin": "heliocentric"}`
	assert.Equal(t, http.StatusOK, do(t, ctrl.Handler(), http.MethodPost, transformPath, body).Code)
}

func TestEphemerisEndpoint(t *testing.T) {
	ctrl := newTestController(t, nil)
	ctrl.handlers.now = func() time.Time { return time.Date(1992, 10, 13, 0, 0, 0, 0, time.UTC) }
	h := ctrl.Handler()

	rec := do(t, h, http.MethodGet, "/api/v1/ephemeris/sun", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	out := decode(t, rec)
	assert.Equal(t, "sun", out["body"])
	assert.Equal(t, "1992-10-13T00:00:00Z", out["time"])

	pos := out["position"].(map[string]any)
	assert.InDelta(t, 199.90988, pos["lon_or_ra"], 0.002)
	assert.InDelta(t, 0.99766, pos["distance"], 1e-4)
	assert.Equal(t, "ecliptic", pos["plane"])
	assert.Equal(t, "geocentric", pos["origin"])
	assert.NotContains(t, out, "elongation")
	assert.NotContains(t, out, "age_days")

	// 2023-02-05 18:29 UTC full moon
	rec = do(t, h, http.MethodGet, "/api/v1/ephemeris/moon?time=2023-02-05T18:29:00Z", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	out = decode(t, rec)
	assert.InDelta(t, 180, out["elongation"], 1.0)
	assert.InDelta(t, ephemeris.SynodicMonth/2, out["age_days"], 0.2)

	rec = do(t, h, http.MethodGet, "/api/v1/ephemeris/earth?time=2025-06-21T12:00:00Z&plane=equatorial&shape=rectangular", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	pos = decode(t, rec)["position"].(map[string]any)
	assert.Equal(t, "heliocentric", pos["origin"])
	assert.Equal(t, "equatorial", pos["plane"])
	assert.Contains(t, pos, "x")
}

func TestEphemerisErrors(t *testing.T) {
	h := newTestController(t, nil).Handler()

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/api/v1/ephemeris/pluto", "").Code)
	assert.Equal(t, http.StatusUnprocessableEntity, do(t, h, http.MethodGet, "/api/v1/ephemeris/moon?time=yesterday", "").Code)
	assert.Equal(t, http.StatusUnprocessableEntity, do(t, h, http.MethodGet, "/api/v1/ephemeris/moon?plane=galactic", "").Code)
}

func TestTransformWithEpoch(t *testing.T) {
	h := newTestController(t, nil).Handler()

	// The Earth's heliocentric position lands on the geocentric origin.
	at := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	earth, err := ephemeris.Earth(at, coordinates.Ecliptic)
	require.NoError(t, err)

	body := fmt.Sprintf(`{
		"input_coords": {"x": %.17g, "y": %.17g, "z": %.17g, "plane": "ecliptic", "origin": "heliocentric"},
		"target_shape": "rectangular",
		"target_plane": "equatorial",
		"target_origin": "geocentric",
		"epoch": "2025-03-01T00:00:00Z"
	}`, earth.X, earth.Y, earth.Z)

	rec := do(t, h, http.MethodPost, transformPath, body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	out := decode(t, rec)
	assert.InDelta(t, 0, out["x"], 1e-12)
	assert.InDelta(t, 0, out["y"], 1e-12)
	assert.InDelta(t, 0, out["z"], 1e-12)

	conflict := `{
		"input_coords": {"x": 1, "y": 0, "z": 0, "plane": "ecliptic", "origin": "heliocentric"},
		"target_shape": "rectangular", "target_plane": "ecliptic", "target_origin": "geocentric",
		"translation_vector": [1, 0, 0], "epoch": "2025-03-01T00:00:00Z"
	}`
	rec = do(t, h, http.MethodPost, transformPath, conflict)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, decode(t, rec)["detail"], "mutually exclusive")

	badEpoch := `{
		"input_coords": {"x": 1, "y": 0, "z": 0, "plane": "ecliptic", "origin": "heliocentric"},
		"target_shape": "rectangular", "target_plane": "ecliptic", "target_origin": "geocentric",
		"epoch": "March 1st"
	}`
	rec = do(t, h, http.MethodPost, transformPath, badEpoch)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}
