package cmd

import (
	"fmt"
	"net"
	"regexp"
	"strconv"
	"strings"
)

// Order sides understood by OrderService.CreateBlockOrder
const (
	sideBid = "BID"
	sideAsk = "ASK"
)

// TimeInForce lists the accepted time in force policies, GTC first as default
var TimeInForce = []string{"GTC", "PO", "FOK", "IOC"}

var (
	decimalPattern = regexp.MustCompile(`^[0-9]+(\.[0-9]+)?$`)
	marketPattern  = regexp.MustCompile(`^[A-Z]{2,5}/[A-Z]{2,5}$`)
)

func validateDecimal(name, value string) error {
	if !decimalPattern.MatchString(value) {
		return fmt.Errorf("%s must be a decimal, got %q", name, value)
	}
	return nil
}

// validateMarket normalizes and checks a market name such as BTC/LTC
func validateMarket(value string) (string, error) {
	market := strings.ToUpper(strings.TrimSpace(value))
	if market == "" {
		return "", fmt.Errorf("market is required")
	}
	if !marketPattern.MatchString(market) {
		return "", fmt.Errorf("market must look like BASE/COUNTER, got %q", value)
	}
	base, counter, _ := strings.Cut(market, "/")
	if base == counter {
		return "", fmt.Errorf("market %q trades a currency against itself", value)
	}
	return market, nil
}

func validateTimeInForce(value string) (string, error) {
	tif := strings.ToUpper(strings.TrimSpace(value))
	for _, allowed := range TimeInForce {
		if tif == allowed {
			return tif, nil
		}
	}
	return "", fmt.Errorf("time in force must be one of %s, got %q", strings.Join(TimeInForce, ", "), value)
}

// validateHost checks --rpc-address: a host with optional port
func validateHost(value string) error {
	if value == "" {
		return nil
	}
	if strings.Contains(value, "://") || strings.ContainsAny(value, " \t/") {
		return fmt.Errorf("rpc address must be host or host:port, got %q", value)
	}
	host, port, err := net.SplitHostPort(value)
	if err != nil {
		// no port
		return nil
	}
	if host == "" {
		return fmt.Errorf("rpc address is missing a host: %q", value)
	}
	if n, err := strconv.Atoi(port); err != nil || n < 1 || n > 65535 {
		return fmt.Errorf("rpc address has an invalid port: %q", value)
	}
	return nil
}
