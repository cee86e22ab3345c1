package app

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/chrissnell/celestial/internal/controllers/restserver"
	"github.com/chrissnell/celestial/pkg/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRunServesUntilCancelled(t *testing.T) {
	s := config.DefaultSettings()
	s.Host = "127.0.0.1"
	s.Port = freePort(t)
	require.NoError(t, s.Validate())

	a := New(s, zap.NewNop().Sugar()).WithRegistry(prometheus.NewRegistry())
	a.started = make(chan *restserver.Controller, 1)

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- a.Run(ctx) }()

	var rest *restserver.Controller
	select {
	case rest = <-a.started:
	case err := <-errc:
		t.Fatalf("Run returned early: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not start")
	}

	resp, err := http.Get(fmt.Sprintf("http://%s/api/v1/health", rest.Addr()))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-errc:
		assert.NoError(t, err)
	case <-time.After(15 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRunListenError(t *testing.T) {
	busy, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer busy.Close()

	s := config.DefaultSettings()
	s.Host = "127.0.0.1"
	s.Port = busy.Addr().(*net.TCPAddr).Port
	s.GRPCHealth = false

	err = New(s, zap.NewNop().Sugar()).WithRegistry(prometheus.NewRegistry()).Run(context.Background())
	assert.Error(t, err)
}

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}
