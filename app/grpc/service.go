package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	TrackingServiceName = "letters.v1.TrackingService"

	methodTrackOrder       = "/" + TrackingServiceName + "/TrackOrder"
	methodGetPaymentStatus = "/" + TrackingServiceName + "/GetPaymentStatus"
)

// TrackingServiceServer answers lookups with well-known protobuf types so no
// generated code is needed on either side.
type TrackingServiceServer interface {
	TrackOrder(ctx context.Context, trackingCode *wrapperspb.StringValue) (*structpb.Struct, error)
	GetPaymentStatus(ctx context.Context, orderID *wrapperspb.StringValue) (*structpb.Struct, error)
}

var TrackingServiceDesc = grpc.ServiceDesc{
	ServiceName: TrackingServiceName,
	HandlerType: (*TrackingServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "TrackOrder", Handler: trackOrderHandler},
		{MethodName: "GetPaymentStatus", Handler: getPaymentStatusHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "letters/v1/tracking.proto",
}

func RegisterTrackingServiceServer(registrar grpc.ServiceRegistrar, srv TrackingServiceServer) {
	registrar.RegisterService(&TrackingServiceDesc, srv)
}

func trackOrderHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(TrackingServiceServer).TrackOrder(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodTrackOrder}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(TrackingServiceServer).TrackOrder(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func getPaymentStatusHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(TrackingServiceServer).GetPaymentStatus(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodGetPaymentStatus}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(TrackingServiceServer).GetPaymentStatus(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

type TrackingServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewTrackingServiceClient(cc grpc.ClientConnInterface) *TrackingServiceClient {
	return &TrackingServiceClient{cc: cc}
}

func (c *TrackingServiceClient) TrackOrder(ctx context.Context, trackingCode string, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, methodTrackOrder, wrapperspb.String(trackingCode), out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *TrackingServiceClient) GetPaymentStatus(ctx context.Context, orderID string, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, methodGetPaymentStatus, wrapperspb.String(orderID), out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
