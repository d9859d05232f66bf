// Package grpc exposes the internal gRPC endpoint used by other campus
// services and orchestrators. It currently serves the standard health
// protocol, gated by the shared service token interceptor.
package grpc

import (
	"context"
	"net"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the health service name reported next to the overall "" entry.
const ServiceName = "universe.Backend"

type Pinger interface {
	Ping(ctx context.Context) error
}

type Server struct {
	srv    *grpc.Server
	health *health.Server
	log    logrus.FieldLogger
}

func NewServer(serviceToken string, log logrus.FieldLogger) (*Server, error) {
	auth, err := NewServiceAuthUnaryInterceptor(serviceToken)
	if err != nil {
		return nil, err
	}
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(NewLoggingUnaryInterceptor(log), auth))
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)

	return &Server{srv: srv, health: hs, log: log}, nil
}

func (s *Server) Serve(lis net.Listener) error {
	return s.srv.Serve(lis)
}

// WatchDatabase flips the reported status whenever the database stops or
// resumes answering pings. It returns when ctx is done.
func (s *Server) WatchDatabase(ctx context.Context, db Pinger, interval time.Duration) {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	serving := true
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := db.Ping(pingCtx)
			cancel()
			if ok := err == nil; ok != serving {
				serving = ok
				s.setServing(ok)
				if ok {
					s.log.Info("database reachable again")
				} else {
					s.log.WithError(err).Warn("database unreachable, reporting NOT_SERVING")
				}
			}
		}
	}
}

func (s *Server) setServing(ok bool) {
	st := healthpb.HealthCheckResponse_NOT_SERVING
	if ok {
		st = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", st)
	s.health.SetServingStatus(ServiceName, st)
}

// Shutdown reports NOT_SERVING, then drains in-flight calls.
func (s *Server) Shutdown() {
	s.health.Shutdown()
	s.srv.GracefulStop()
}
