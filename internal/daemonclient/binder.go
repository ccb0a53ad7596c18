package daemonclient

import (
	"errors"

	coregrpc "github.com/sparkswap/broker-cli/pkg/core/grpc"
	"google.golang.org/grpc"
)

// Binder turns a descriptor into a callable handle for endpoint/credential
type Binder interface {
	Bind(endpoint string, desc ServiceDescriptor, credential ChannelCredential) (*BoundService, error)
}

// BinderFunc adapts a function to Binder
type BinderFunc func(endpoint string, desc ServiceDescriptor, credential ChannelCredential) (*BoundService, error)

// Bind implements Binder
func (f BinderFunc) Bind(endpoint string, desc ServiceDescriptor, credential ChannelCredential) (*BoundService, error) {
	return f(endpoint, desc, credential)
}

// GRPCBinder binds each service to its own lazily connecting grpc client.
// Connecting happens on the first call, never during Bind.
type GRPCBinder struct {
	Config      coregrpc.ClientConfig
	DialOptions []grpc.DialOption
}

// NewGRPCBinder returns a binder with the default client configuration
func NewGRPCBinder(opts ...grpc.DialOption) *GRPCBinder {
	return &GRPCBinder{Config: coregrpc.DefaultClientConfig(), DialOptions: opts}
}

// Bind implements Binder
func (b *GRPCBinder) Bind(endpoint string, desc ServiceDescriptor, credential ChannelCredential) (*BoundService, error) {
	opts := append(credential.DialOptions(), b.DialOptions...)
	conn, err := coregrpc.NewClient(endpoint, b.Config, opts...)
	if err != nil {
		return nil, err
	}
	return NewBoundService(endpoint, desc, credential, conn), nil
}

// BindAll binds every descriptor to the same endpoint and credential. All
// descriptors are attempted; if any fails, the ones already bound are
// closed and the joined binding errors are returned.
func BindAll(endpoint string, credential ChannelCredential, descriptors *DescriptorSet, binder Binder) (map[string]*BoundService, error) {
	bound := make(map[string]*BoundService, descriptors.Len())
	var errs []error

	for _, desc := range descriptors.Services() {
		svc, err := binder.Bind(endpoint, desc, credential)
		if err == nil && svc == nil {
			err = errors.New("binder returned no service")
		}
		if err != nil {
			errs = append(errs, &Error{Kind: KindBinding, Service: desc.Name, Err: err})
			continue
		}
		bound[desc.Name] = svc
	}

	if len(errs) > 0 {
		for _, svc := range bound {
			_ = svc.Close()
		}
		return nil, errors.Join(errs...)
	}
	return bound, nil
}
