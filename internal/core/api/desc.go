package api

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully-qualified gRPC service name.
const ServiceName = "fieldkeeper.visibility.v1.VisibilityService"

// Full method names, used by interceptors and clients.
const (
	MethodEvaluate            = "/" + ServiceName + "/Evaluate"
	MethodReactiveFields      = "/" + ServiceName + "/ReactiveFields"
	MethodVisibleRecordFields = "/" + ServiceName + "/VisibleRecordFields"
	MethodSaveRecord          = "/" + ServiceName + "/SaveRecord"
)

// VisibilityServiceServer is the server API for VisibilityService.
// Requests and responses are google.protobuf.Struct holding the JSON wire
// shapes in wire.go.
type VisibilityServiceServer interface {
	Evaluate(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ReactiveFields(context.Context, *structpb.Struct) (*structpb.Struct, error)
	VisibleRecordFields(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SaveRecord(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryMethod func(VisibilityServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(fullMethod string, call unaryMethod) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(VisibilityServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(VisibilityServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// VisibilityServiceDesc is the grpc.ServiceDesc for VisibilityService.
var VisibilityServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*VisibilityServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Evaluate",
			Handler:    unaryHandler(MethodEvaluate, VisibilityServiceServer.Evaluate),
		},
		{
			MethodName: "ReactiveFields",
			Handler:    unaryHandler(MethodReactiveFields, VisibilityServiceServer.ReactiveFields),
		},
		{
			MethodName: "VisibleRecordFields",
			Handler:    unaryHandler(MethodVisibleRecordFields, VisibilityServiceServer.VisibleRecordFields),
		},
		{
			MethodName: "SaveRecord",
			Handler:    unaryHandler(MethodSaveRecord, VisibilityServiceServer.SaveRecord),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "fieldkeeper/visibility/v1/visibility.proto",
}

// RegisterVisibilityServiceServer registers srv with s.
func RegisterVisibilityServiceServer(s grpc.ServiceRegistrar, srv VisibilityServiceServer) {
	s.RegisterService(&VisibilityServiceDesc, srv)
}

// VisibilityServiceClient is the client API for VisibilityService.
type VisibilityServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewVisibilityServiceClient wraps a client connection.
func NewVisibilityServiceClient(cc grpc.ClientConnInterface) *VisibilityServiceClient {
	return &VisibilityServiceClient{cc: cc}
}

func (c *VisibilityServiceClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *VisibilityServiceClient) Evaluate(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodEvaluate, in, opts...)
}

func (c *VisibilityServiceClient) ReactiveFields(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodReactiveFields, in, opts...)
}

func (c *VisibilityServiceClient) VisibleRecordFields(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodVisibleRecordFields, in, opts...)
}

func (c *VisibilityServiceClient) SaveRecord(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodSaveRecord, in, opts...)
}
