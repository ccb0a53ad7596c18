// Package daemonclient bootstraps the client for the broker daemon.
//
// New turns an RPC configuration into a Client exposing the Admin, Order,
// OrderBook, Wallet and Info services. All services share one resolved
// address and one ChannelCredential:
//
//   - with authentication disabled the channel is Insecure and a warning is
//     logged;
//   - otherwise the configured certificate is read into a TLS transport and
//     combined with basic auth call credentials built from rpc user and
//     password (Authenticated).
//
// Bootstrapping does no network I/O. Every service gets its own lazily
// connecting grpc client, requests and responses are google.protobuf.Struct
// values checked against the embedded service catalog.
//
//	client, err := daemonclient.New(cfg.RPC, "127.0.0.1")
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	res, err := client.Admin().Call(ctx, "HealthCheck", nil)
package daemonclient
