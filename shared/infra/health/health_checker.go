package health

import (
	"context"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"

	zapLogger "github.com/nastyazhadan/trade-settlement/shared/interceptors/logger/zap"
)

// CheckFunc reports whether a dependency is reachable.
type CheckFunc func(ctx context.Context) error

type Checker struct {
	checks  map[string]CheckFunc
	timeout time.Duration
}

func NewChecker(timeout time.Duration) *Checker {
	return &Checker{
		checks:  make(map[string]CheckFunc),
		timeout: timeout,
	}
}

func (c *Checker) Register(name string, check CheckFunc) {
	c.checks[name] = check
}

// Run executes every registered check and returns the failures by name.
func (c *Checker) Run(ctx context.Context) map[string]error {
	failures := make(map[string]error)

	for name, check := range c.checks {
		checkCtx, cancel := context.WithTimeout(ctx, c.timeout)
		err := check(checkCtx)
		cancel()

		if err != nil {
			zapLogger.Warn(ctx, "health check failed", zap.String("dependency", name), zap.Error(err))
			failures[name] = err
		}
	}

	return failures
}

type Server struct {
	grpc_health_v1.UnimplementedHealthServer

	checker *Checker
}

func (s *Server) Check(
	ctx context.Context,
	request *grpc_health_v1.HealthCheckRequest,
) (*grpc_health_v1.HealthCheckResponse, error) {
	if request.GetService() != "" {
		if _, found := s.checker.checks[request.GetService()]; !found {
			return nil, status.Errorf(codes.NotFound, "unknown service %q", request.GetService())
		}
	}

	return &grpc_health_v1.HealthCheckResponse{Status: s.status(ctx, request.GetService())}, nil
}

func (s *Server) Watch(
	request *grpc_health_v1.HealthCheckRequest,
	stream grpc_health_v1.Health_WatchServer,
) error {
	return stream.Send(&grpc_health_v1.HealthCheckResponse{
		Status: s.status(stream.Context(), request.GetService()),
	})
}

func (s *Server) status(ctx context.Context, service string) grpc_health_v1.HealthCheckResponse_ServingStatus {
	failures := s.checker.Run(ctx)

	if service == "" && len(failures) > 0 {
		return grpc_health_v1.HealthCheckResponse_NOT_SERVING
	}

	if _, failed := failures[service]; failed {
		return grpc_health_v1.HealthCheckResponse_NOT_SERVING
	}

	return grpc_health_v1.HealthCheckResponse_SERVING
}

func RegisterService(server *grpc.Server, checker *Checker) {
	grpc_health_v1.RegisterHealthServer(server, &Server{checker: checker})
}
