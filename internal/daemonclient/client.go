package daemonclient

import (
	"errors"
	"os"

	"github.com/sparkswap/broker-cli/pkg/core/config"
	"github.com/sparkswap/broker-cli/pkg/core/logging"
	"google.golang.org/grpc"
)

// Client exposes every broker daemon service bound to one address and one
// channel credential. It is not modified after New returns.
type Client struct {
	address     string
	disableAuth bool
	credential  ChannelCredential
	services    map[string]*BoundService
	names       []string
}

type options struct {
	logger      *logging.Logger
	binder      Binder
	readFile    CertReader
	descriptors *DescriptorSet
	dialOptions []grpc.DialOption
}

// Option configures New
type Option func(*options)

// WithLogger sets the logger receiving the auth-disabled warning
func WithLogger(l *logging.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithBinder replaces the grpc binder
func WithBinder(b Binder) Option {
	return func(o *options) { o.binder = b }
}

// WithCertReader replaces os.ReadFile for reading the certificate
func WithCertReader(r CertReader) Option {
	return func(o *options) { o.readFile = r }
}

// WithDescriptors binds against d instead of the embedded catalog
func WithDescriptors(d *DescriptorSet) Option {
	return func(o *options) { o.descriptors = d }
}

// WithDialOptions adds grpc dial options to the default binder
func WithDialOptions(opts ...grpc.DialOption) Option {
	return func(o *options) { o.dialOptions = append(o.dialOptions, opts...) }
}

// New bootstraps a client from cfg. providedHost overrides the configured
// address; a host without port gets DefaultRPCPort. Either every service is
// bound or an error is returned.
func New(cfg config.RPCConfig, providedHost string, opts ...Option) (*Client, error) {
	o := options{readFile: os.ReadFile}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logging.New("daemon-client")
	}
	if o.binder == nil {
		o.binder = NewGRPCBinder(o.dialOptions...)
	}

	if err := cfg.Validate(); err != nil {
		e := &Error{Kind: KindConfig, Err: err}
		var fieldErr *config.FieldError
		if errors.As(err, &fieldErr) {
			e.Field = fieldErr.Field
		}
		return nil, e
	}

	descriptors := o.descriptors
	if descriptors == nil {
		var err error
		if descriptors, err = Descriptors(); err != nil {
			return nil, &Error{Kind: KindConfig, Field: "descriptors", Err: err}
		}
	}

	address := ResolveAddress(providedHost, cfg.Address, DefaultRPCPort)

	credential, err := NewChannelCredential(cfg, o.readFile, o.logger)
	if err != nil {
		return nil, err
	}

	services, err := BindAll(address, credential, descriptors, o.binder)
	if err != nil {
		return nil, err
	}

	return &Client{
		address:     address,
		disableAuth: cfg.DisableAuth,
		credential:  credential,
		services:    services,
		names:       descriptors.Names(),
	}, nil
}

// NewFromConfig loads the configuration from the environment and default
// locations, then calls New.
func NewFromConfig(providedHost string, opts ...Option) (*Client, error) {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return nil, &Error{Kind: KindConfig, Err: err}
	}
	return New(cfg.RPC, providedHost, opts...)
}

// Address returns the resolved host:port
func (c *Client) Address() string { return c.address }

// DisableAuth reports whether the client runs without TLS and basic auth
func (c *Client) DisableAuth() bool { return c.disableAuth }

// Credential returns the channel credential shared by all services
func (c *Client) Credential() ChannelCredential { return c.credential }

// Admin returns the AdminService handle
func (c *Client) Admin() *BoundService { return c.services[AdminService] }

// Order returns the OrderService handle
func (c *Client) Order() *BoundService { return c.services[OrderService] }

// OrderBook returns the OrderBookService handle
func (c *Client) OrderBook() *BoundService { return c.services[OrderBookService] }

// Wallet returns the WalletService handle
func (c *Client) Wallet() *BoundService { return c.services[WalletService] }

// Info returns the InfoService handle
func (c *Client) Info() *BoundService { return c.services[InfoService] }

// Service returns the handle for any bound service by name
func (c *Client) Service(name string) (*BoundService, bool) {
	svc, ok := c.services[name]
	return svc, ok
}

// Services returns the bound service names in catalog order
func (c *Client) Services() []string {
	return append([]string(nil), c.names...)
}

// Close closes every bound service
func (c *Client) Close() error {
	var errs []error
	for _, name := range c.names {
		if svc, ok := c.services[name]; ok {
			if err := svc.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
