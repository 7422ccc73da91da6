package grpc

import (
	"context"

	"google.golang.org/grpc"

	"github.com/mr1hm/go-impactor/internal/impact"
	"github.com/mr1hm/go-impactor/internal/mitigation"
	"github.com/mr1hm/go-impactor/internal/models"
)

const ServiceName = "impactor.v1.ImpactService"

type SimulateRequest struct {
	DiameterM   float64  `json:"diameter_m"`
	VelocityKmS float64  `json:"velocity_km_s"`
	DensityKgM3 float64  `json:"density_kgm3,omitempty"` // 0 selects the default rocky density
	AngleDeg    float64  `json:"angle_deg,omitempty"`
	Lat         *float64 `json:"lat,omitempty"`
	Lon         *float64 `json:"lon,omitempty"`
}

type DeflectRequest struct {
	DiameterM            float64         `json:"diameter_m"`
	VelocityKmS          float64         `json:"velocity_km_s"`
	DensityKgM3          float64         `json:"density_kgm3"`
	DeltaVMS             float64         `json:"delta_v_ms"`
	TimeBeforeImpactDays float64         `json:"time_before_impact_days"`
	Location             impact.Location `json:"location"`
}

type GetAsteroidRequest struct {
	ID string `json:"id"`
}

type ListAsteroidsRequest struct {
	Limit        int      `json:"limit,omitempty"`
	Hazardous    *bool    `json:"hazardous,omitempty"`
	MinDiameterM *float64 `json:"min_diameter_m,omitempty"`
}

type ListAsteroidsResponse struct {
	Asteroids []models.Asteroid `json:"asteroids"`
}

type WatchHazardsRequest struct {
	MinDiameterM float64 `json:"min_diameter_m,omitempty"`
}

type ImpactServiceServer interface {
	Simulate(context.Context, *SimulateRequest) (*impact.Result, error)
	Deflect(context.Context, *DeflectRequest) (*mitigation.Result, error)
	GetAsteroid(context.Context, *GetAsteroidRequest) (*models.Asteroid, error)
	ListAsteroids(context.Context, *ListAsteroidsRequest) (*ListAsteroidsResponse, error)
	WatchHazards(*WatchHazardsRequest, grpc.ServerStreamingServer[models.HazardAlert]) error
}

func RegisterImpactServiceServer(s grpc.ServiceRegistrar, srv ImpactServiceServer) {
	s.RegisterService(&ImpactServiceDesc, srv)
}

var ImpactServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ImpactServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Simulate", Handler: unaryHandler("Simulate", ImpactServiceServer.Simulate)},
		{MethodName: "Deflect", Handler: unaryHandler("Deflect", ImpactServiceServer.Deflect)},
		{MethodName: "GetAsteroid", Handler: unaryHandler("GetAsteroid", ImpactServiceServer.GetAsteroid)},
		{MethodName: "ListAsteroids", Handler: unaryHandler("ListAsteroids", ImpactServiceServer.ListAsteroids)},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "WatchHazards",
			Handler:       watchHazardsHandler,
			ServerStreams: true,
		},
	},
	Metadata: "impactor/v1/impact",
}

func fullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

func unaryHandler[Req, Res any](
	method string,
	call func(ImpactServiceServer, context.Context, *Req) (*Res, error),
) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(ImpactServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(method)}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(ImpactServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

func watchHazardsHandler(srv any, stream grpc.ServerStream) error {
	in := new(WatchHazardsRequest)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(ImpactServiceServer).WatchHazards(in, &grpc.GenericServerStream[WatchHazardsRequest, models.HazardAlert]{ServerStream: stream})
}
