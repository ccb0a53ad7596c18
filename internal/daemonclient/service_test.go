package daemonclient

import (
	"context"
	"crypto/tls"
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"github.com/sparkswap/broker-cli/internal/basicauth"
	"github.com/sparkswap/broker-cli/pkg/core/logging"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"
)

// fakeBroker answers every method generically. When user is set, calls
// must carry matching basic auth.
type fakeBroker struct {
	user string
	pass string
}

func (b *fakeBroker) handle(srv interface{}, stream grpc.ServerStream) error {
	method, _ := grpc.MethodFromServerStream(stream)

	auth := ""
	if md, ok := metadata.FromIncomingContext(stream.Context()); ok {
		if v := md.Get(basicauth.MetadataKey); len(v) > 0 {
			auth = v[0]
		}
	}
	if b.user != "" {
		user, pass, ok := basicauth.Parse(auth)
		if !ok || user != b.user || pass != b.pass {
			return status.Error(codes.Unauthenticated, "invalid credentials")
		}
	}

	req := new(structpb.Struct)
	if err := stream.RecvMsg(req); err != nil {
		return err
	}

	if method == "/broker.rpc.OrderBookService/WatchMarket" {
		for i := 0; i < 3; i++ {
			msg, _ := structpb.NewStruct(map[string]interface{}{
				"market": req.GetFields()["market"].GetStringValue(),
				"seq":    float64(i),
			})
			if err := stream.SendMsg(msg); err != nil {
				return err
			}
		}
		return nil
	}

	resp, _ := structpb.NewStruct(map[string]interface{}{
		"method":        method,
		"authorization": auth,
	})
	return stream.SendMsg(resp)
}

func startBroker(t *testing.T, broker *fakeBroker, opts ...grpc.ServerOption) *bufconn.Listener {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer(append(opts, grpc.UnknownServiceHandler(broker.handle))...)
	go func() {
		_ = srv.Serve(lis)
	}()
	t.Cleanup(func() {
		srv.Stop()
		_ = lis.Close()
	})
	return lis
}

func bufDialer(lis *bufconn.Listener) grpc.DialOption {
	return grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
		return lis.DialContext(ctx)
	})
}

func TestBoundService_InsecureRoundTrip(t *testing.T) {
	lis := startBroker(t, &fakeBroker{})

	client, err := New(noAuthConfig(), "", WithDialOptions(bufDialer(lis)), WithLogger(logging.Nop()))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	res, err := client.Admin().Call(ctx, "HealthCheck", nil)
	if err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	if got := res.GetFields()["method"].GetStringValue(); got != "/broker.rpc.AdminService/HealthCheck" {
		t.Errorf("server saw method %v, want /broker.rpc.AdminService/HealthCheck", got)
	}
	if got := res.GetFields()["authorization"].GetStringValue(); got != "" {
		t.Errorf("insecure channel sent authorization %q", got)
	}
}

func TestBoundService_Stream(t *testing.T) {
	lis := startBroker(t, &fakeBroker{})

	client, err := New(noAuthConfig(), "", WithDialOptions(bufDialer(lis)), WithLogger(logging.Nop()))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, _ := structpb.NewStruct(map[string]interface{}{"market": "BTC/LTC"})
	stream, err := client.OrderBook().Stream(ctx, "WatchMarket", req)
	if err != nil {
		t.Fatalf("Stream() error = %v", err)
	}

	var count int
	for {
		msg, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("Recv() error = %v", err)
		}
		if got := msg.GetFields()["market"].GetStringValue(); got != "BTC/LTC" {
			t.Errorf("market = %v, want BTC/LTC", got)
		}
		if got := int(msg.GetFields()["seq"].GetNumberValue()); got != count {
			t.Errorf("seq = %d, want %d", got, count)
		}
		count++
	}
	if count != 3 {
		t.Errorf("received %d messages, want 3", count)
	}
}

func TestBoundService_TLSWithBasicAuth(t *testing.T) {
	certPEM, pair := selfSignedCert(t)
	broker := &fakeBroker{user: "sparkswap", pass: "passwd"}
	lis := startBroker(t, broker, grpc.Creds(credentials.NewTLS(&tls.Config{Certificates: []tls.Certificate{pair}})))

	cfg := authConfig()
	cfg.Cert = writeCert(t, certPEM)

	client, err := New(cfg, "127.0.0.1", WithDialOptions(bufDialer(lis)), WithLogger(logging.Nop()))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	res, err := client.Wallet().Call(ctx, "GetBalances", nil)
	if err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	if got := res.GetFields()["authorization"].GetStringValue(); got != "Basic c3Bhcmtzd2FwOnBhc3N3ZA==" {
		t.Errorf("server saw authorization %q", got)
	}
}

func TestBoundService_TLSWrongPassword(t *testing.T) {
	certPEM, pair := selfSignedCert(t)
	broker := &fakeBroker{user: "sparkswap", pass: "other"}
	lis := startBroker(t, broker, grpc.Creds(credentials.NewTLS(&tls.Config{Certificates: []tls.Certificate{pair}})))

	cfg := authConfig()
	cfg.Cert = writeCert(t, certPEM)

	client, err := New(cfg, "127.0.0.1", WithDialOptions(bufDialer(lis)), WithLogger(logging.Nop()))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err = client.Admin().Call(ctx, "HealthCheck", nil)
	if status.Code(err) != codes.Unauthenticated {
		t.Errorf("Call() code = %v, want Unauthenticated", status.Code(err))
	}
}

func TestBoundService_MethodChecks(t *testing.T) {
	client, err := New(noAuthConfig(), "", WithBinder(&recordingBinder{}), WithLogger(logging.Nop()))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer client.Close()

	ctx := context.Background()

	if _, err := client.Admin().Call(ctx, "NoSuchMethod", nil); status.Code(err) != codes.Unimplemented {
		t.Errorf("unknown method code = %v, want Unimplemented", status.Code(err))
	}
	if _, err := client.OrderBook().Call(ctx, "WatchMarket", nil); status.Code(err) != codes.InvalidArgument {
		t.Errorf("Call() on streaming method code = %v, want InvalidArgument", status.Code(err))
	}
	if _, err := client.Admin().Stream(ctx, "HealthCheck", nil); status.Code(err) != codes.InvalidArgument {
		t.Errorf("Stream() on unary method code = %v, want InvalidArgument", status.Code(err))
	}
}

func TestBoundService_Accessors(t *testing.T) {
	set, _ := Descriptors()
	desc, _ := set.Service(OrderService)
	conn := &fakeConn{}

	svc := NewBoundService("127.0.0.1:27492", desc, Insecure{}, conn)

	if svc.Name() != OrderService {
		t.Errorf("Name() = %v, want %v", svc.Name(), OrderService)
	}
	if svc.FullName() != "broker.rpc.OrderService" {
		t.Errorf("FullName() = %v, want broker.rpc.OrderService", svc.FullName())
	}
	if svc.String() != "broker.rpc.OrderService@127.0.0.1:27492" {
		t.Errorf("String() = %v", svc.String())
	}

	d := svc.Descriptor()
	d.Methods = nil
	if len(svc.Descriptor().Methods) == 0 {
		t.Error("Descriptor() should return a copy")
	}

	if err := svc.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if conn.closed.Load() != 1 {
		t.Errorf("connection closed %d times, want 1", conn.closed.Load())
	}
}
