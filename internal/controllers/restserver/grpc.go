package restserver

import (
	"errors"
	"net"
	"net/http"

	"github.com/chrissnell/celestial/internal/constants"
	"github.com/soheilhy/cmux"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// newGRPCServer builds a server carrying grpc.health.v1 and reflection.
// Both the overall status and the coordinate service report SERVING.
func newGRPCServer() (*grpc.Server, *health.Server) {
	srv := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	reflection.Register(srv)

	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(constants.GRPCServiceName, healthpb.HealthCheckResponse_SERVING)
	return srv, hs
}

// serveMux splits l between gRPC (HTTP/2 with application/grpc) and the
// HTTP server, then blocks until the root listener closes.
func (c *Controller) serveMux(l net.Listener) {
	m := cmux.New(l)
	grpcL := m.MatchWithWriters(cmux.HTTP2MatchHeaderFieldSendSettings("content-type", "application/grpc"))
	httpL := m.Match(cmux.Any())

	c.wg.Add(2)
	go func() {
		defer c.wg.Done()
		if err := c.GRPCServer.Serve(grpcL); err != nil && !closedErr(err) {
			c.logger.Errorf("gRPC health server error: %v", err)
		}
	}()
	go func() {
		defer c.wg.Done()
		if err := c.Server.Serve(httpL); err != nil && !closedErr(err) {
			c.logger.Errorf("REST server error: %v", err)
		}
	}()

	if err := m.Serve(); err != nil && !closedErr(err) {
		c.logger.Errorf("listener mux error: %v", err)
	}
}

func closedErr(err error) bool {
	return errors.Is(err, http.ErrServerClosed) ||
		errors.Is(err, grpc.ErrServerStopped) ||
		errors.Is(err, net.ErrClosed) ||
		errors.Is(err, cmux.ErrListenerClosed) ||
		errors.Is(err, cmux.ErrServerClosed)
}
