package observability

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

// MetricsServer serves /metrics and the /health routes
type MetricsServer struct {
	listener net.Listener
	server   *http.Server
}

// ServeMetrics listens on addr and serves registry and checker in the
// background until Shutdown
func ServeMetrics(addr string, registry *prometheus.Registry, checker *HealthChecker, logger *logrus.Logger) (*MetricsServer, error) {
	logger = OrDefault(logger)

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	RegisterMetricsEndpoint(mux, registry)
	RegisterHealthRoutes(mux, checker)

	s := &MetricsServer{
		listener: listener,
		server: &http.Server{
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}

	go func() {
		defer RecoverPanic(logger, "metrics server")
		logger.Infof("Serving metrics on %s", listener.Addr())
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Error("Metrics server failed")
		}
	}()

	return s, nil
}

// Addr returns the address the server listens on
func (s *MetricsServer) Addr() string {
	return s.listener.Addr().String()
}

// Shutdown stops accepting connections and waits for active ones
func (s *MetricsServer) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
