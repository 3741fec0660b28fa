package grpc

import (
	"fmt"
	"log/slog"
	"net"

	grpc "google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the health service name reported alongside the overall status.
const ServiceName = "intro-bot"

// HealthServer exposes the standard gRPC health protocol so orchestrators can
// tell whether the gateway session is up.
type HealthServer struct {
	addr   string
	server *grpc.Server
	health *health.Server
	lis    net.Listener
}

// NewHealthServer creates a health server that reports NOT_SERVING until
// SetServing(true) is called.
func NewHealthServer(addr string) *HealthServer {
	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)

	server := grpc.NewServer()
	healthpb.RegisterHealthServer(server, hs)
	return &HealthServer{addr: addr, server: server, health: hs}
}

// Start listens on the configured address and serves in the background.
func (h *HealthServer) Start() error {
	lis, err := net.Listen("tcp", h.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", h.addr, err)
	}
	h.lis = lis
	go func() {
		slog.Info("health server listening", "addr", lis.Addr().String())
		if err := h.server.Serve(lis); err != nil {
			slog.Error("health server stopped", "error", err)
		}
	}()
	return nil
}

// Addr returns the bound address, or the configured one before Start.
func (h *HealthServer) Addr() string {
	if h.lis != nil {
		return h.lis.Addr().String()
	}
	return h.addr
}

// SetServing flips the reported status.
func (h *HealthServer) SetServing(serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	h.health.SetServingStatus("", status)
	h.health.SetServingStatus(ServiceName, status)
}

// Stop reports NOT_SERVING and stops the server.
func (h *HealthServer) Stop() {
	h.health.Shutdown()
	h.server.GracefulStop()
}
