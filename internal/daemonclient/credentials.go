package daemonclient

import (
	"crypto/x509"
	"errors"
	"fmt"
	"os"

	"github.com/sparkswap/broker-cli/internal/basicauth"
	"github.com/sparkswap/broker-cli/pkg/core/config"
	"github.com/sparkswap/broker-cli/pkg/core/logging"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
)

// AuthDisabledMessage is logged once per bootstrap when authentication is off
const AuthDisabledMessage = "authentication disabled"

// CertReader reads a certificate file. os.ReadFile is the default.
type CertReader func(path string) ([]byte, error)

// TransportCredential secures the connection itself. It is either
// InsecureTransport or *TLSTransport.
type TransportCredential interface {
	transportCredentials() credentials.TransportCredentials
}

// InsecureTransport is a plaintext connection
type InsecureTransport struct{}

func (InsecureTransport) transportCredentials() credentials.TransportCredentials {
	return insecure.NewCredentials()
}

// TLSTransport verifies the daemon against the configured certificate
type TLSTransport struct {
	// Certificate holds the PEM bytes read from the cert file
	Certificate []byte

	creds credentials.TransportCredentials
}

func (t *TLSTransport) transportCredentials() credentials.TransportCredentials {
	return t.creds
}

// NewTLSTransport builds TLS transport credentials trusting the PEM
// certificates in certPEM.
func NewTLSTransport(certPEM []byte) (*TLSTransport, error) {
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(certPEM) {
		return nil, errors.New("no PEM certificate found")
	}
	return &TLSTransport{
		Certificate: certPEM,
		creds:       credentials.NewClientTLSFromCert(pool, ""),
	}, nil
}

// BuildTransport returns InsecureTransport when authentication is disabled,
// logging a warning and touching no files. Otherwise the certificate at
// certPath is read and turned into a TLS transport.
func BuildTransport(certPath string, disableAuth bool, readFile CertReader, logger *logging.Logger) (TransportCredential, error) {
	if disableAuth {
		logger.Warn(AuthDisabledMessage, "event", "auth_disabled", "transport", "insecure")
		return InsecureTransport{}, nil
	}

	if readFile == nil {
		readFile = os.ReadFile
	}
	certPEM, err := readFile(certPath)
	if err != nil {
		return nil, &Error{Kind: KindCertRead, Path: certPath, Err: err}
	}

	transport, err := NewTLSTransport(certPEM)
	if err != nil {
		return nil, &Error{Kind: KindCertRead, Path: certPath, Err: err}
	}
	return transport, nil
}

// BuildCall derives the per-call basic auth credential from user and pass
func BuildCall(user, pass string) (credentials.PerRPCCredentials, error) {
	creds, err := basicauth.Generate(user, pass)
	if err != nil {
		field := "user"
		if errors.Is(err, basicauth.ErrEmptyPassword) {
			field = "pass"
		}
		return nil, &Error{Kind: KindCredential, Field: field, Err: err}
	}
	return creds, nil
}

// ChannelCredential is what gets attached to every bound service: either
// Insecure or Authenticated. No other implementations exist.
type ChannelCredential interface {
	// DialOptions returns the grpc options that apply the credential
	DialOptions() []grpc.DialOption
	// Secure reports whether the channel is encrypted and authenticated
	Secure() bool

	channelCredential()
}

// Insecure is a plaintext channel without call credentials
type Insecure struct{}

// DialOptions implements ChannelCredential
func (Insecure) DialOptions() []grpc.DialOption {
	return []grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}
}

// Secure implements ChannelCredential
func (Insecure) Secure() bool { return false }

func (Insecure) channelCredential() {}

// String implements fmt.Stringer
func (Insecure) String() string { return "insecure" }

// Authenticated combines TLS transport security with a per-call credential
type Authenticated struct {
	Transport *TLSTransport
	Call      credentials.PerRPCCredentials
}

// DialOptions implements ChannelCredential
func (a *Authenticated) DialOptions() []grpc.DialOption {
	return []grpc.DialOption{
		grpc.WithTransportCredentials(a.Transport.transportCredentials()),
		grpc.WithPerRPCCredentials(a.Call),
	}
}

// Secure implements ChannelCredential
func (a *Authenticated) Secure() bool { return true }

func (a *Authenticated) channelCredential() {}

// String implements fmt.Stringer
func (a *Authenticated) String() string { return "tls+basic" }

// Compose merges transport and call credentials into the channel
// credential. Insecure transport must come without a call credential and
// TLS transport must come with one; anything else means the auth toggle and
// the credential builders disagree, which is a bug, so Compose panics.
func Compose(transport TransportCredential, call credentials.PerRPCCredentials) ChannelCredential {
	switch t := transport.(type) {
	case InsecureTransport:
		if call != nil {
			panic("daemonclient: call credential given for an insecure transport")
		}
		return Insecure{}
	case *TLSTransport:
		if call == nil {
			panic("daemonclient: TLS transport composed without a call credential")
		}
		return &Authenticated{Transport: t, Call: call}
	default:
		panic(fmt.Sprintf("daemonclient: unknown transport credential %T", transport))
	}
}

// NewChannelCredential builds both credential halves under the same
// DisableAuth branch and composes them.
func NewChannelCredential(cfg config.RPCConfig, readFile CertReader, logger *logging.Logger) (ChannelCredential, error) {
	transport, err := BuildTransport(cfg.Cert, cfg.DisableAuth, readFile, logger)
	if err != nil {
		return nil, err
	}
	if cfg.DisableAuth {
		return Compose(transport, nil), nil
	}

	call, err := BuildCall(cfg.User, cfg.Pass)
	if err != nil {
		return nil, err
	}
	return Compose(transport, call), nil
}
