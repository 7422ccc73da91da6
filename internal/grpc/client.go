package grpc

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/mr1hm/go-impactor/internal/impact"
	"github.com/mr1hm/go-impactor/internal/mitigation"
	"github.com/mr1hm/go-impactor/internal/models"
)

// Client calls a remote ImpactService using the JSON codec.
type Client struct {
	conn *grpc.ClientConn
}

// Dial connects without transport security; the service is meant for a
// trusted network.
func Dial(target string, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(CodecName)),
	}, opts...)

	conn, err := grpc.NewClient(target, opts...)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", target, err)
	}
	return &Client{conn: conn}, nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) Simulate(ctx context.Context, req *SimulateRequest) (*impact.Result, error) {
	out := new(impact.Result)
	if err := c.conn.Invoke(ctx, fullMethod("Simulate"), req, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Deflect(ctx context.Context, req *DeflectRequest) (*mitigation.Result, error) {
	out := new(mitigation.Result)
	if err := c.conn.Invoke(ctx, fullMethod("Deflect"), req, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetAsteroid(ctx context.Context, id string) (*models.Asteroid, error) {
	out := new(models.Asteroid)
	if err := c.conn.Invoke(ctx, fullMethod("GetAsteroid"), &GetAsteroidRequest{ID: id}, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListAsteroids(ctx context.Context, req *ListAsteroidsRequest) (*ListAsteroidsResponse, error) {
	out := new(ListAsteroidsResponse)
	if err := c.conn.Invoke(ctx, fullMethod("ListAsteroids"), req, out); err != nil {
		return nil, err
	}
	return out, nil
}

// WatchHazards opens the alert stream; Recv returns io.EOF when the server
// closes it.
func (c *Client) WatchHazards(ctx context.Context, req *WatchHazardsRequest) (grpc.ServerStreamingClient[models.HazardAlert], error) {
	stream, err := c.conn.NewStream(ctx, &ImpactServiceDesc.Streams[0], fullMethod("WatchHazards"))
	if err != nil {
		return nil, err
	}
	x := &grpc.GenericClientStream[WatchHazardsRequest, models.HazardAlert]{ClientStream: stream}
	if err := x.ClientStream.SendMsg(req); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}
