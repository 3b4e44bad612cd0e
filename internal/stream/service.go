package stream

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// The pose stream uses protobuf well-known Struct messages so renderers in
// any language can consume it without generated bindings.
const (
	ServiceName      = "mapcam.v1.PoseStream"
	subscribeMethod  = "/" + ServiceName + "/Subscribe"
	reportMethod     = "/" + ServiceName + "/Report"
	serviceProtoFile = "mapcam/v1/pose_stream.proto"
)

// PoseStreamServer is the server API for the pose stream.
type PoseStreamServer interface {
	// Subscribe streams one frame per published camera state.
	Subscribe(req *structpb.Struct, stream grpc.ServerStreamingServer[structpb.Struct]) error
	// Report receives renderer feedback: feature picks and realized poses.
	Report(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

// PoseStreamServiceDesc describes the service for grpc.Server.RegisterService.
var PoseStreamServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*PoseStreamServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Report", Handler: reportHandler},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "Subscribe", Handler: subscribeHandler, ServerStreams: true},
	},
	Metadata: serviceProtoFile,
}

// RegisterPoseStreamServer registers srv with s.
func RegisterPoseStreamServer(s grpc.ServiceRegistrar, srv PoseStreamServer) {
	s.RegisterService(&PoseStreamServiceDesc, srv)
}

func reportHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(PoseStreamServer).Report(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: reportMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(PoseStreamServer).Report(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func subscribeHandler(srv any, stream grpc.ServerStream) error {
	in := new(structpb.Struct)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(PoseStreamServer).Subscribe(in, &grpc.GenericServerStream[structpb.Struct, structpb.Struct]{ServerStream: stream})
}

// Client is a thin client for the pose stream.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient wraps an established connection.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Subscribe opens a frame stream.
func (c *Client) Subscribe(ctx context.Context, req *structpb.Struct, opts ...grpc.CallOption) (grpc.ServerStreamingClient[structpb.Struct], error) {
	if req == nil {
		req = &structpb.Struct{}
	}
	cs, err := c.cc.NewStream(ctx, &PoseStreamServiceDesc.Streams[0], subscribeMethod, opts...)
	if err != nil {
		return nil, err
	}
	x := &grpc.GenericClientStream[structpb.Struct, structpb.Struct]{ClientStream: cs}
	if err := x.ClientStream.SendMsg(req); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}

// Report sends renderer feedback.
func (c *Client) Report(ctx context.Context, req *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, reportMethod, req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
