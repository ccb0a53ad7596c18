package grpc

import (
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/keepalive"
)

// ClientConfig holds gRPC client configuration
type ClientConfig struct {
	MaxRecvMsgSize    int
	MaxSendMsgSize    int
	KeepaliveInterval time.Duration
	KeepaliveTimeout  time.Duration
	UserAgent         string
}

// DefaultClientConfig returns a default client configuration
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		MaxRecvMsgSize: 16 * 1024 * 1024, // 16MB
		MaxSendMsgSize: 16 * 1024 * 1024, // 16MB
		// The broker daemon keeps the grpc-go default enforcement policy,
		// which rejects pings more frequent than every 5 minutes.
		KeepaliveInterval: 5 * time.Minute,
		KeepaliveTimeout:  20 * time.Second,
		UserAgent:         "sparkswap-cli",
	}
}

// ClientDialOptions returns the dial options shared by every client
// connection. Transport credentials are not included; callers add them.
func ClientDialOptions(cfg ClientConfig) []grpc.DialOption {
	opts := []grpc.DialOption{
		grpc.WithDefaultCallOptions(
			grpc.MaxCallRecvMsgSize(cfg.MaxRecvMsgSize),
			grpc.MaxCallSendMsgSize(cfg.MaxSendMsgSize),
		),
		grpc.WithKeepaliveParams(keepalive.ClientParameters{
			Time:    cfg.KeepaliveInterval,
			Timeout: cfg.KeepaliveTimeout,
		}),
		grpc.WithChainUnaryInterceptor(
			ClientRequestIDInterceptor(),
			ClientLoggingInterceptor(),
		),
		grpc.WithChainStreamInterceptor(
			ClientStreamRequestIDInterceptor(),
			ClientStreamLoggingInterceptor(),
		),
	}
	if cfg.UserAgent != "" {
		opts = append(opts, grpc.WithUserAgent(cfg.UserAgent))
	}
	return opts
}

// NewClient creates a lazily connecting client for target. No network I/O
// happens until the first call.
func NewClient(target string, cfg ClientConfig, opts ...grpc.DialOption) (*grpc.ClientConn, error) {
	dialOpts := append(ClientDialOptions(cfg), opts...)

	conn, err := grpc.NewClient(target, dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create client for %s: %w", target, err)
	}
	return conn, nil
}
