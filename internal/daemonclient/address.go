package daemonclient

import (
	"net"
	"strconv"
	"strings"
)

// DefaultRPCPort is appended to hosts given without a port
const DefaultRPCPort = 27492

// ResolveAddress returns the endpoint to connect to. An empty providedHost
// yields configuredAddress unchanged, a host that already carries a port is
// returned as is, and a bare host gets defaultPort appended.
func ResolveAddress(providedHost, configuredAddress string, defaultPort int) string {
	if providedHost == "" {
		return configuredAddress
	}
	if _, _, err := net.SplitHostPort(providedHost); err == nil {
		return providedHost
	}

	host := strings.TrimSuffix(strings.TrimPrefix(providedHost, "["), "]")
	return net.JoinHostPort(host, strconv.Itoa(defaultPort))
}
