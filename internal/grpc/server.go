package grpc

import (
	"context"
	"net"
	"sync"
	"time"

	gogrpc "google.golang.org/grpc"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/lostbyte/mainhero/internal/logger"
)

// ServiceName is the health service name reported for the character store
const ServiceName = "mainhero.v1.CharacterStore"

// Pinger is anything whose availability decides the serving status
type Pinger interface {
	Ping() error
}

// Server exposes grpc.health.v1.Health. The overall and character store
// statuses follow storage availability.
type Server struct {
	grpcServer *gogrpc.Server
	health     *health.Server
	storage    Pinger

	mu      sync.Mutex
	serving bool
}

// NewServer creates the gRPC server and registers the health service
func NewServer(storage Pinger) *Server {
	grpcServer := gogrpc.NewServer()
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)

	s := &Server{
		grpcServer: grpcServer,
		health:     healthServer,
		storage:    storage,
	}
	s.Check()
	return s
}

// Serve accepts connections on lis until Stop
func (s *Server) Serve(lis net.Listener) error {
	logger.Info("gRPC server starting", "address", lis.Addr().String())
	return s.grpcServer.Serve(lis)
}

// Check pings storage once and updates the serving status. It reports whether storage is reachable.
func (s *Server) Check() bool {
	err := s.storage.Ping()
	status := grpc_health_v1.HealthCheckResponse_SERVING
	if err != nil {
		status = grpc_health_v1.HealthCheckResponse_NOT_SERVING
	}

	s.mu.Lock()
	changed := s.serving != (err == nil)
	s.serving = err == nil
	s.mu.Unlock()

	if changed {
		if err != nil {
			logger.Warn("gRPC health: storage unavailable", "error", err)
		} else {
			logger.Info("gRPC health: storage available")
		}
	}

	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
	return err == nil
}

// Watch re-checks storage every interval until ctx ends
func (s *Server) Watch(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Check()
		}
	}
}

// Stop marks every service NOT_SERVING and drains in-flight calls
func (s *Server) Stop() {
	s.health.Shutdown()
	s.grpcServer.GracefulStop()
}
