// Package grpcserver exposes the performance list over gRPC.
package grpcserver

import (
	"context"

	"google.golang.org/grpc"

	"stagehub/pkg/models"
)

const ServiceName = "stagehub.v1.PerformanceService"

type ListRequest struct {
	Fast   bool   `json:"fast"`
	Part   string `json:"part,omitempty"`
	Region string `json:"region,omitempty"`
}

type ListResponse struct {
	CycleID      string                      `json:"cycle_id"`
	Timestamp    string                      `json:"timestamp"`
	Served       string                      `json:"served"`
	Stats        map[string]int              `json:"stats"`
	Performances []models.UnifiedPerformance `json:"performances"`
}

type StatusRequest struct{}

type StatusResponse struct {
	HasCache   bool           `json:"has_cache"`
	LastUpdate string         `json:"last_update,omitempty"`
	DataCount  int            `json:"data_count"`
	AgeMinutes float64        `json:"cache_age_minutes"`
	Stats      map[string]int `json:"stats,omitempty"`
}

type PerformanceServiceServer interface {
	ListPerformances(ctx context.Context, req *ListRequest) (*ListResponse, error)
	GetCacheStatus(ctx context.Context, req *StatusRequest) (*StatusResponse, error)
}

func RegisterPerformanceServiceServer(s grpc.ServiceRegistrar, srv PerformanceServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*PerformanceServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ListPerformances", Handler: listPerformancesHandler},
		{MethodName: "GetCacheStatus", Handler: getCacheStatusHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "stagehub/v1/performance",
}

func listPerformancesHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ListRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(PerformanceServiceServer).ListPerformances(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/ListPerformances"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(PerformanceServiceServer).ListPerformances(ctx, req.(*ListRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func getCacheStatusHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(StatusRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(PerformanceServiceServer).GetCacheStatus(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/GetCacheStatus"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(PerformanceServiceServer).GetCacheStatus(ctx, req.(*StatusRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// Client calls the service over the JSON codec.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) ListPerformances(ctx context.Context, req *ListRequest, opts ...grpc.CallOption) (*ListResponse, error) {
	out := new(ListResponse)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/ListPerformances", req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetCacheStatus(ctx context.Context, opts ...grpc.CallOption) (*StatusResponse, error) {
	out := new(StatusResponse)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/GetCacheStatus", &StatusRequest{}, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
