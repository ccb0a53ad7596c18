package daemonclient

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"errors"
	"math/big"
	"net"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sparkswap/broker-cli/pkg/core/config"
	"github.com/sparkswap/broker-cli/pkg/core/logging"
	"google.golang.org/grpc"
)

// selfSignedCert returns a PEM certificate and the matching tls.Certificate
// valid for localhost
func selfSignedCert(t *testing.T) ([]byte, tls.Certificate) {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}

	tmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "localhost"},
		DNSNames:              []string{"localhost"},
		IPAddresses:           []net.IP{net.ParseIP("127.0.0.1"), net.ParseIP("::1")},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(time.Hour),
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
		IsCA:                  true,
	}

	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("CreateCertificate: %v", err)
	}
	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})

	keyDER, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		t.Fatalf("MarshalECPrivateKey: %v", err)
	}
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER})

	pair, err := tls.X509KeyPair(certPEM, keyPEM)
	if err != nil {
		t.Fatalf("X509KeyPair: %v", err)
	}
	return certPEM, pair
}

func writeCert(t *testing.T, certPEM []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "broker-rpc-tls.cert")
	if err := os.WriteFile(path, certPEM, 0o600); err != nil {
		t.Fatalf("failed to write cert: %v", err)
	}
	return path
}

// certReaderStub serves fixed bytes and records requested paths
type certReaderStub struct {
	mu    sync.Mutex
	data  []byte
	err   error
	paths []string
}

func (r *certReaderStub) Read(path string) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = append(r.paths, path)
	if r.err != nil {
		return nil, r.err
	}
	return r.data, nil
}

func (r *certReaderStub) Paths() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.paths...)
}

// fakeConn satisfies Conn without any network
type fakeConn struct {
	closed atomic.Int32
}

func (c *fakeConn) Invoke(ctx context.Context, method string, args, reply interface{}, opts ...grpc.CallOption) error {
	return errors.New("fakeConn: no network")
}

func (c *fakeConn) NewStream(ctx context.Context, desc *grpc.StreamDesc, method string, opts ...grpc.CallOption) (grpc.ClientStream, error) {
	return nil, errors.New("fakeConn: no network")
}

func (c *fakeConn) Close() error {
	c.closed.Add(1)
	return nil
}

type bindCall struct {
	endpoint   string
	service    string
	credential ChannelCredential
	conn       *fakeConn
}

// recordingBinder records every Bind and fails for services listed in fail
type recordingBinder struct {
	mu    sync.Mutex
	calls []bindCall
	fail  map[string]error
}

func (b *recordingBinder) Bind(endpoint string, desc ServiceDescriptor, credential ChannelCredential) (*BoundService, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	conn := &fakeConn{}
	b.calls = append(b.calls, bindCall{endpoint: endpoint, service: desc.Name, credential: credential, conn: conn})
	if err := b.fail[desc.Name]; err != nil {
		return nil, err
	}
	return NewBoundService(endpoint, desc, credential, conn), nil
}

func (b *recordingBinder) Calls() []bindCall {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]bindCall(nil), b.calls...)
}

func authConfig() config.RPCConfig {
	return config.RPCConfig{
		Address:     "172.0.0.1:27492",
		Cert:        "/my/cert/path.cert",
		DisableAuth: false,
		User:        "sparkswap",
		Pass:        "passwd",
	}
}

func noAuthConfig() config.RPCConfig {
	return config.RPCConfig{
		Address:     "172.0.0.1:27492",
		DisableAuth: true,
	}
}

func bufferLogger() (*logging.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return logging.NewWithOutput("daemon-client", &buf), &buf
}
