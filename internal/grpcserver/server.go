package grpcserver

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"stagehub/internal/merge"
	"stagehub/internal/refresh"
	"stagehub/pkg/models"
)

// Lister is the part of refresh.Service the gRPC server needs.
type Lister interface {
	Serve(ctx context.Context, fast bool) (*models.Snapshot, refresh.Origin, error)
	Status() refresh.Status
}

type Server struct {
	Lister Lister
}

func NewServer(l Lister) *Server {
	return &Server{Lister: l}
}

func (s *Server) ListPerformances(ctx context.Context, req *ListRequest) (*ListResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request required")
	}
	snap, origin, err := s.Lister.Serve(ctx, req.Fast)
	if errors.Is(err, refresh.ErrNoSnapshot) {
		return nil, status.Error(codes.Unavailable, "performance list unavailable")
	}
	if err != nil {
		return nil, status.Error(codes.Internal, "list failed")
	}

	items := merge.Select(snap.Performances, merge.Criteria{Part: req.Part, Region: req.Region})
	if items == nil {
		items = []models.UnifiedPerformance{}
	}
	return &ListResponse{
		CycleID:      snap.CycleID,
		Timestamp:    snap.ComputedAt.Format(models.TimestampLayout),
		Served:       string(origin),
		Stats:        snap.Stats(),
		Performances: items,
	}, nil
}

func (s *Server) GetCacheStatus(ctx context.Context, _ *StatusRequest) (*StatusResponse, error) {
	st := s.Lister.Status()
	if !st.HasCache {
		return &StatusResponse{}, nil
	}
	return &StatusResponse{
		HasCache:   true,
		LastUpdate: st.LastUpdate.Format(models.TimestampLayout),
		DataCount:  st.DataCount,
		AgeMinutes: math.Round(st.Age.Minutes()*10) / 10,
		Stats:      st.Stats,
	}, nil
}

// NewGRPCServer builds a grpc.Server with the service registered and
// unary calls logged.
func NewGRPCServer(srv PerformanceServiceServer, logger zerolog.Logger) *grpc.Server {
	logger = logger.With().Str("component", "grpc").Logger()
	gs := grpc.NewServer(grpc.UnaryInterceptor(func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		resp, err := handler(ctx, req)
		ev := logger.Debug()
		if err != nil {
			ev = logger.Warn().Err(err)
		}
		ev.Str("method", info.FullMethod).Str("code", status.Code(err).String()).Msg("call")
		return resp, err
	}))
	RegisterPerformanceServiceServer(gs, srv)
	return gs
}

// Service runs a grpc.Server under a supervisor.
type Service struct {
	Addr   string
	Server *grpc.Server
}

func (s *Service) Serve(ctx context.Context) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.Addr)
	if err != nil {
		return fmt.Errorf("grpc listen: %w", err)
	}

	errCh := make(chan error, 1)
	go func() { errCh <- s.Server.Serve(ln) }()

	select {
	case err := <-errCh:
		return fmt.Errorf("grpc server stopped: %w", err)
	case <-ctx.Done():
		s.Server.GracefulStop()
		<-errCh
		return ctx.Err()
	}
}

func (s *Service) String() string { return "grpc-server" }
