package grpc

import (
	"context"
	"errors"
	"log/slog"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/mr1hm/go-impactor/internal/impact"
	"github.com/mr1hm/go-impactor/internal/mitigation"
	"github.com/mr1hm/go-impactor/internal/models"
	"github.com/mr1hm/go-impactor/internal/neo"
	"github.com/mr1hm/go-impactor/internal/observability"
	"github.com/mr1hm/go-impactor/internal/repository"
	"github.com/mr1hm/go-impactor/internal/stream"
)

const maxListLimit = 500

// AsteroidLookup resolves objects the local catalog has not ingested yet.
type AsteroidLookup interface {
	Lookup(ctx context.Context, id string) (models.Asteroid, error)
}

type Server struct {
	repo        repository.AsteroidRepository
	lookup      AsteroidLookup
	broadcaster *stream.Broadcaster[*models.HazardAlert]
	metrics     *observability.Metrics
	grpcServer  *grpc.Server
}

// NewServer wires the service. lookup may be nil, in which case GetAsteroid
// only answers from the local catalog.
func NewServer(
	repo repository.AsteroidRepository,
	lookup AsteroidLookup,
	broadcaster *stream.Broadcaster[*models.HazardAlert],
	metrics *observability.Metrics,
) *Server {
	return &Server{
		repo:        repo,
		lookup:      lookup,
		broadcaster: broadcaster,
		metrics:     metrics,
		grpcServer:  grpc.NewServer(),
	}
}

func (s *Server) Start(addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	slog.Info("gRPC server listening", "addr", addr)
	return s.Serve(lis)
}

func (s *Server) Serve(lis net.Listener) error {
	RegisterImpactServiceServer(s.grpcServer, s)
	return s.grpcServer.Serve(lis)
}

func (s *Server) Stop() {
	s.grpcServer.GracefulStop()
}

func (s *Server) Simulate(ctx context.Context, req *SimulateRequest) (*impact.Result, error) {
	const endpoint = "grpc.Simulate"

	if req.DiameterM <= 0 {
		s.metrics.Simulations.WithLabelValues(endpoint, "invalid").Inc()
		return nil, status.Error(codes.InvalidArgument, "diameter_m must be greater than 0")
	}
	if req.DensityKgM3 < 0 {
		s.metrics.Simulations.WithLabelValues(endpoint, "invalid").Inc()
		return nil, status.Error(codes.InvalidArgument, "density_kgm3 must not be negative")
	}
	density := req.DensityKgM3
	if density == 0 {
		density = impact.DefaultDensityKgM3
	}

	in := impact.Input{
		DiameterM:   req.DiameterM,
		VelocityMS:  req.VelocityKmS * impact.MetersPerKilometer,
		DensityKgM3: density,
		AngleDeg:    req.AngleDeg,
	}
	if req.Lat != nil && req.Lon != nil {
		in.Location = &impact.Location{Lat: *req.Lat, Lon: *req.Lon}
	}

	res, err := impact.Simulate(in)
	if err != nil {
		s.metrics.Simulations.WithLabelValues(endpoint, "error").Inc()
		return nil, status.Errorf(codes.Internal, "Calculation error: %v", err)
	}

	s.metrics.Simulations.WithLabelValues(endpoint, "success").Inc()
	s.metrics.SimulationSeverity.WithLabelValues(string(res.Comparisons.Severity)).Inc()
	return &res, nil
}

func (s *Server) Deflect(ctx context.Context, req *DeflectRequest) (*mitigation.Result, error) {
	if req.TimeBeforeImpactDays < 0 {
		return nil, status.Error(codes.InvalidArgument, "time_before_impact_days must not be negative")
	}

	res := mitigation.Deflect(mitigation.Request{
		DiameterM:        req.DiameterM,
		VelocityKmS:      req.VelocityKmS,
		DensityKgM3:      req.DensityKgM3,
		DeltaVMS:         req.DeltaVMS,
		TimeBeforeImpact: req.TimeBeforeImpactDays,
		Location:         req.Location,
	})
	return &res, nil
}

func (s *Server) GetAsteroid(ctx context.Context, req *GetAsteroidRequest) (*models.Asteroid, error) {
	if req.ID == "" {
		return nil, status.Error(codes.InvalidArgument, "id is required")
	}

	asteroid, err := s.repo.GetByID(ctx, req.ID)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to get asteroid: %v", err)
	}
	if asteroid != nil {
		return asteroid, nil
	}
	if s.lookup == nil {
		return nil, status.Errorf(codes.NotFound, "asteroid not found: %s", req.ID)
	}

	remote, err := s.lookup.Lookup(ctx, req.ID)
	if err != nil {
		return nil, statusFromNEOError(req.ID, err)
	}
	return &remote, nil
}

func (s *Server) ListAsteroids(ctx context.Context, req *ListAsteroidsRequest) (*ListAsteroidsResponse, error) {
	filter := repository.Filter{
		Limit:        req.Limit,
		Hazardous:    req.Hazardous,
		MinDiameterM: req.MinDiameterM,
	}
	if filter.Limit <= 0 || filter.Limit > maxListLimit {
		filter.Limit = 20
	}

	asteroids, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to list asteroids: %v", err)
	}
	if asteroids == nil {
		asteroids = []models.Asteroid{}
	}
	return &ListAsteroidsResponse{Asteroids: asteroids}, nil
}

func (s *Server) WatchHazards(req *WatchHazardsRequest, srv grpc.ServerStreamingServer[models.HazardAlert]) error {
	id, ch := s.broadcaster.Subscribe()
	defer s.broadcaster.Unsubscribe(id)

	s.metrics.StreamSubscribers.Inc()
	defer s.metrics.StreamSubscribers.Dec()

	slog.Info("client subscribed to hazard stream", "subscriber_id", id)

	for {
		select {
		case <-srv.Context().Done():
			slog.Info("client disconnected from hazard stream", "subscriber_id", id)
			return nil
		case alert, ok := <-ch:
			if !ok {
				return nil
			}
			if alert.DiameterM < req.MinDiameterM {
				continue
			}

			if err := srv.Send(alert); err != nil {
				slog.Error("failed to send hazard alert to stream", "error", err, "subscriber_id", id)
				return err
			}
		}
	}
}

func statusFromNEOError(id string, err error) error {
	if errors.Is(err, neo.ErrNotFound) {
		return status.Errorf(codes.NotFound, "asteroid not found: %s", id)
	}
	return status.Errorf(codes.Unavailable, "NASA API error: %v", err)
}
