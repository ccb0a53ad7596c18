package grpc

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sparkswap/broker-cli/pkg/core/logging"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

var interceptorLogger = logging.New("grpc").WithLevel(logging.LevelWarn)

// SetInterceptorLogger replaces the logger used by the client interceptors.
// It must be called before any client is created.
func SetInterceptorLogger(l *logging.Logger) {
	if l != nil {
		interceptorLogger = l
	}
}

// Context keys for request metadata
type contextKey string

const (
	RequestIDKey    contextKey = "request_id"
	RequestIDHeader string     = "x-request-id"
)

// ClientRequestIDInterceptor propagates a request ID to outgoing requests,
// generating one when the context carries none
func ClientRequestIDInterceptor() grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		return invoker(withOutgoingRequestID(ctx), method, req, reply, cc, opts...)
	}
}

// ClientStreamRequestIDInterceptor propagates a request ID to outgoing streams
func ClientStreamRequestIDInterceptor() grpc.StreamClientInterceptor {
	return func(ctx context.Context, desc *grpc.StreamDesc, cc *grpc.ClientConn, method string, streamer grpc.Streamer, opts ...grpc.CallOption) (grpc.ClientStream, error) {
		return streamer(withOutgoingRequestID(ctx), desc, cc, method, opts...)
	}
}

func withOutgoingRequestID(ctx context.Context) context.Context {
	requestID := GetRequestID(ctx)
	if requestID == "" {
		requestID = uuid.New().String()
	}
	return metadata.AppendToOutgoingContext(ctx, RequestIDHeader, requestID)
}

// ClientLoggingInterceptor logs outgoing gRPC requests
func ClientLoggingInterceptor() grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		start := time.Now()

		err := invoker(ctx, method, req, reply, cc, opts...)

		duration := time.Since(start)
		statusCode := codes.OK
		if err != nil {
			statusCode = status.Code(err)
		}

		interceptorLogger.Debug("gRPC client request",
			"method", method,
			"target", cc.Target(),
			"status", statusCode.String(),
			"duration", duration,
		)

		return err
	}
}

// ClientStreamLoggingInterceptor logs outgoing streaming gRPC requests
func ClientStreamLoggingInterceptor() grpc.StreamClientInterceptor {
	return func(ctx context.Context, desc *grpc.StreamDesc, cc *grpc.ClientConn, method string, streamer grpc.Streamer, opts ...grpc.CallOption) (grpc.ClientStream, error) {
		start := time.Now()

		stream, err := streamer(ctx, desc, cc, method, opts...)

		duration := time.Since(start)
		statusCode := codes.OK
		if err != nil {
			statusCode = status.Code(err)
		}

		interceptorLogger.Debug("gRPC client stream request",
			"method", method,
			"target", cc.Target(),
			"status", statusCode.String(),
			"duration", duration,
		)

		return stream, err
	}
}

// GetRequestID extracts the request ID from context
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}

// WithRequestID adds a request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}
