package stream

import (
	"context"
	"errors"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/banshee-data/mapcam/internal/camera"
	"github.com/banshee-data/mapcam/internal/geo"
	"github.com/banshee-data/mapcam/internal/monitoring"
)

// Reporter applies renderer feedback to the camera.
type Reporter interface {
	Pick(ctx context.Context, featureID string) error
	Realized(ctx context.Context, p camera.Pose, moving bool) error
}

// Ensure Server implements the service interface.
var _ PoseStreamServer = (*Server)(nil)

// Server implements the pose stream service on top of a Publisher.
type Server struct {
	publisher *Publisher
	reporter  Reporter
}

// NewServer creates a server. reporter may be nil, in which case reports are
// rejected as unimplemented.
func NewServer(publisher *Publisher, reporter Reporter) *Server {
	return &Server{publisher: publisher, reporter: reporter}
}

// Subscribe streams frames until the client goes away or the publisher stops.
func (s *Server) Subscribe(req *structpb.Struct, stream grpc.ServerStreamingServer[structpb.Struct]) error {
	client, err := s.publisher.addClient()
	if err != nil {
		return status.Error(codes.ResourceExhausted, err.Error())
	}
	defer s.publisher.removeClient(client.id)

	every := int(req.GetFields()["every_n"].GetNumberValue())
	if every < 1 {
		every = 1
	}

	ctx := stream.Context()
	n := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.publisher.stopCh:
			return nil
		case frame := <-client.frameCh:
			n++
			if (n-1)%every != 0 {
				continue
			}
			if err := stream.Send(frame); err != nil {
				monitoring.Logf("[Stream] send error for %s: %v", client.id, err)
				return err
			}
		}
	}
}

// Report handles {"type":"pick","feature_id":...} and
// {"type":"realized","pose":{...},"moving":bool}.
func (s *Server) Report(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if s.reporter == nil {
		return nil, status.Error(codes.Unimplemented, "reports not accepted")
	}
	fields := req.GetFields()
	switch kind := fields["type"].GetStringValue(); kind {
	case "pick":
		id := fields["feature_id"].GetStringValue()
		if id == "" {
			return nil, status.Error(codes.InvalidArgument, "feature_id is required")
		}
		if err := s.reporter.Pick(ctx, id); err != nil {
			return nil, toStatus(err)
		}
	case "realized":
		p, err := decodePose(fields["pose"])
		if err != nil {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}
		if err := s.reporter.Realized(ctx, p, fields["moving"].GetBoolValue()); err != nil {
			return nil, toStatus(err)
		}
	default:
		return nil, status.Errorf(codes.InvalidArgument, "unknown report type %q", kind)
	}
	return structpb.NewStruct(map[string]any{"ok": true})
}

func toStatus(err error) error {
	switch {
	case errors.Is(err, geo.ErrInvalidFeature), errors.Is(err, camera.ErrNonFinitePose):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, geo.ErrFeatureNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return status.Error(codes.DeadlineExceeded, err.Error())
	}
	return status.Error(codes.Internal, err.Error())
}
