package cmd

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/sparkswap/broker-cli/internal/daemonclient"
	"github.com/sparkswap/broker-cli/pkg/core/health"
	"github.com/sparkswap/broker-cli/pkg/core/version"
	"github.com/spf13/cobra"
	"google.golang.org/protobuf/types/known/structpb"
)

var orderbookMarket string

var healthcheckCmd = &cobra.Command{
	Use:   "healthcheck",
	Short: "Check the health of the broker daemon and its engines",
	Args:  cobra.NoArgs,
	RunE:  runHealthcheck,
}

var walletCmd = &cobra.Command{
	Use:   "wallet",
	Short: "Wallet operations",
}

var walletBalanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Show the committed and uncommitted balances per currency",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runUnary(cmd, daemonclient.WalletService, "GetBalances", nil, "Wallet balances")
	},
}

var orderbookCmd = &cobra.Command{
	Use:   "orderbook",
	Short: "Show the orderbook of a market",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		market, err := validateMarket(orderbookMarket)
		if err != nil {
			return err
		}
		req, err := structpb.NewStruct(map[string]interface{}{"market": market})
		if err != nil {
			return err
		}
		return runUnary(cmd, daemonclient.OrderBookService, "GetOrderbook", req, "Orderbook "+market)
	},
}

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Market information",
}

var infoMarketsCmd = &cobra.Command{
	Use:   "markets",
	Short: "List the markets supported by the daemon",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runUnary(cmd, daemonclient.InfoService, "GetSupportedMarkets", nil, "Supported markets")
	},
}

func init() {
	orderbookCmd.Flags().StringVar(&orderbookMarket, "market", "", "relevant market name, e.g. BTC/LTC")
	_ = orderbookCmd.MarkFlagRequired("market")

	walletCmd.AddCommand(walletBalanceCmd)
	infoCmd.AddCommand(infoMarketsCmd)
	rootCmd.AddCommand(healthcheckCmd, walletCmd, orderbookCmd, infoCmd)
}

func runHealthcheck(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	registry := health.NewRegistry(s.client.Address(), version.Client)
	registry.Register(health.RPCCheck("daemon", s.client.Admin(), "HealthCheck"))

	ctx, cancel := s.callContext(cmd.Context())
	defer cancel()
	report := registry.Check(ctx)

	w := cmd.OutOrStdout()
	if jsonOutput {
		out, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(out))
	} else {
		fmt.Fprint(w, renderReport(report))
	}

	if !report.Healthy() {
		return fmt.Errorf("broker daemon at %s is %s", report.Target, report.Status)
	}
	return nil
}

func statusStyle(status health.Status) lipgloss.Style {
	switch status {
	case health.StatusHealthy:
		return SuccessStyle
	case health.StatusDegraded, health.StatusUnknown:
		return WarningStyle
	default:
		return ErrorStyle
	}
}

func renderReport(report *health.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", TitleStyle.Render("Broker daemon "+report.Target), statusStyle(report.Status).Render(string(report.Status)))
	for _, check := range report.Checks {
		fmt.Fprintf(&b, "  %-10s %s %s\n", check.Name, statusStyle(check.Status).Render(string(check.Status)), MutedStyle.Render(check.Message))

		keys := make([]string, 0, len(check.Details))
		for k := range check.Details {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			v := check.Details[k]
			fmt.Fprintf(&b, "    %s %s\n", KeyStyle.Render(k), statusStyle(health.ParseStatus(v)).Render(v))
		}
	}
	return b.String()
}

// runUnary bootstraps a client, calls service.method with req and prints
// the response under title.
func runUnary(cmd *cobra.Command, service, method string, req *structpb.Struct, title string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	svc, ok := s.client.Service(service)
	if !ok {
		return fmt.Errorf("service %s is not available", service)
	}

	ctx, cancel := s.callContext(cmd.Context())
	defer cancel()

	res, err := svc.Call(ctx, method, req)
	if err != nil {
		return fmt.Errorf("%s.%s failed: %w", service, method, err)
	}
	return printResponse(cmd.OutOrStdout(), title, res)
}
