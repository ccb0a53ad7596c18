package daemonclient

import (
	"context"
	"fmt"
	"io"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// Conn is the part of a client connection a bound service needs.
// *grpc.ClientConn satisfies it.
type Conn interface {
	grpc.ClientConnInterface
	io.Closer
}

// BoundService is a service descriptor bound to an endpoint and a channel
// credential. Endpoint and credential never change after construction.
type BoundService struct {
	desc       ServiceDescriptor
	endpoint   string
	credential ChannelCredential
	conn       Conn
}

// NewBoundService wraps conn as the bound handle for desc
func NewBoundService(endpoint string, desc ServiceDescriptor, credential ChannelCredential, conn Conn) *BoundService {
	return &BoundService{
		desc:       desc.clone(),
		endpoint:   endpoint,
		credential: credential,
		conn:       conn,
	}
}

// Name returns the service name, e.g. "OrderService"
func (s *BoundService) Name() string { return s.desc.Name }

// FullName returns the package-qualified service name
func (s *BoundService) FullName() string { return s.desc.FullName() }

// Endpoint returns the host:port the service is bound to
func (s *BoundService) Endpoint() string { return s.endpoint }

// Credential returns the channel credential the service is bound with
func (s *BoundService) Credential() ChannelCredential { return s.credential }

// Descriptor returns a copy of the service descriptor
func (s *BoundService) Descriptor() ServiceDescriptor { return s.desc.clone() }

// Call invokes a unary method. A nil request is sent as an empty struct.
func (s *BoundService) Call(ctx context.Context, method string, req *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	m, err := s.lookup(method)
	if err != nil {
		return nil, err
	}
	if m.ServerStreaming {
		return nil, status.Errorf(codes.InvalidArgument, "%s.%s is a streaming method, use Stream", s.desc.Name, method)
	}
	if req == nil {
		req = &structpb.Struct{}
	}

	out := new(structpb.Struct)
	if err := s.conn.Invoke(ctx, s.desc.FullMethod(method), req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// Stream starts a server-streaming method. Cancel ctx to stop the stream.
func (s *BoundService) Stream(ctx context.Context, method string, req *structpb.Struct, opts ...grpc.CallOption) (*ResponseStream, error) {
	m, err := s.lookup(method)
	if err != nil {
		return nil, err
	}
	if !m.ServerStreaming {
		return nil, status.Errorf(codes.InvalidArgument, "%s.%s is a unary method, use Call", s.desc.Name, method)
	}
	if req == nil {
		req = &structpb.Struct{}
	}

	desc := &grpc.StreamDesc{StreamName: method, ServerStreams: true}
	stream, err := s.conn.NewStream(ctx, desc, s.desc.FullMethod(method), opts...)
	if err != nil {
		return nil, err
	}
	if err := stream.SendMsg(req); err != nil {
		return nil, err
	}
	if err := stream.CloseSend(); err != nil {
		return nil, err
	}
	return &ResponseStream{stream: stream}, nil
}

// Close releases the underlying connection
func (s *BoundService) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

func (s *BoundService) lookup(method string) (MethodDescriptor, error) {
	m, ok := s.desc.Method(method)
	if !ok {
		return MethodDescriptor{}, status.Errorf(codes.Unimplemented, "unknown method %s.%s", s.desc.Name, method)
	}
	return m, nil
}

// String implements fmt.Stringer
func (s *BoundService) String() string {
	return fmt.Sprintf("%s@%s", s.desc.FullName(), s.endpoint)
}

// ResponseStream yields the messages of a server-streaming call
type ResponseStream struct {
	stream grpc.ClientStream
}

// Recv returns the next message, or io.EOF once the server finished
func (r *ResponseStream) Recv() (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := r.stream.RecvMsg(out); err != nil {
		return nil, err
	}
	return out, nil
}
