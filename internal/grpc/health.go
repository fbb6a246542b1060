package grpc

import (
	"context"
	"net"
	"sort"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.uber.org/zap"
	grpclib "google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ServiceName is the health service name reported for the whole process
const ServiceName = "storefront"

// Check tests one backing dependency
type Check func(ctx context.Context) error

// HealthServer exposes the standard gRPC health service. Each named check is
// reported as its own service; the process-wide status is SERVING only while
// every check passes.
type HealthServer struct {
	server   *grpclib.Server
	health   *health.Server
	checks   map[string]Check
	interval time.Duration
	log      *zap.Logger
}

func NewHealthServer(checks map[string]Check, interval time.Duration, log *zap.Logger) *HealthServer {
	hs := &HealthServer{
		server:   grpclib.NewServer(grpclib.StatsHandler(otelgrpc.NewServerHandler())),
		health:   health.NewServer(),
		checks:   checks,
		interval: interval,
		log:      log.Named("health"),
	}
	healthpb.RegisterHealthServer(hs.server, hs.health)
	reflection.Register(hs.server)

	hs.health.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	for name := range checks {
		hs.health.SetServingStatus(name, healthpb.HealthCheckResponse_NOT_SERVING)
	}
	return hs
}

// CheckAll runs every check once and updates the reported statuses
func (hs *HealthServer) CheckAll(ctx context.Context) bool {
	names := make([]string, 0, len(hs.checks))
	for name := range hs.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	healthy := true
	for _, name := range names {
		status := healthpb.HealthCheckResponse_SERVING
		if err := hs.checks[name](ctx); err != nil {
			hs.log.Warn("dependency unhealthy", zap.String("dependency", name), zap.Error(err))
			status = healthpb.HealthCheckResponse_NOT_SERVING
			healthy = false
		}
		hs.health.SetServingStatus(name, status)
	}

	overall := healthpb.HealthCheckResponse_SERVING
	if !healthy {
		overall = healthpb.HealthCheckResponse_NOT_SERVING
	}
	hs.health.SetServingStatus(ServiceName, overall)
	return healthy
}

// Watch runs the checks on every interval until ctx is done
func (hs *HealthServer) Watch(ctx context.Context) {
	ticker := time.NewTicker(hs.interval)
	defer ticker.Stop()

	hs.runChecks(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			hs.runChecks(ctx)
		}
	}
}

func (hs *HealthServer) runChecks(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, hs.interval)
	defer cancel()
	hs.CheckAll(ctx)
}

// Serve blocks serving on lis until Stop is called
func (hs *HealthServer) Serve(lis net.Listener) error {
	hs.log.Info("health server listening", zap.String("addr", lis.Addr().String()))
	return hs.server.Serve(lis)
}

func (hs *HealthServer) Stop() {
	hs.health.Shutdown()
	hs.server.GracefulStop()
}
