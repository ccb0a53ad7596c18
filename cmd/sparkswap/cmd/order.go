package cmd

import (
	"fmt"

	"github.com/sparkswap/broker-cli/internal/blockorder"
	"github.com/spf13/cobra"
	"google.golang.org/protobuf/types/known/structpb"
)

var (
	orderMarket      string
	orderTimeInForce string
)

var buyCmd = &cobra.Command{
	Use:   "buy <amount> [price]",
	Short: "Submit an order to buy",
	Long: `Submits a block order buying <amount> of the base currency.

Without a price the order executes at the market price.

Examples:
  sparkswap buy 10 100 --market BTC/LTC
  sparkswap buy 10 --market BTC/LTC --time-in-force IOC`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOrder(cmd, sideBid, args)
	},
}

var sellCmd = &cobra.Command{
	Use:   "sell <amount> [price]",
	Short: "Submit an order to sell",
	Long: `Submits a block order selling <amount> of the base currency.

Without a price the order executes at the market price.

Examples:
  sparkswap sell 10 100 --market BTC/LTC`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOrder(cmd, sideAsk, args)
	},
}

var orderCmd = &cobra.Command{
	Use:   "order",
	Short: "Inspect and cancel block orders",
}

var orderStatusCmd = &cobra.Command{
	Use:   "status <block-order-id>",
	Short: "Show a block order",
	Args:  cobra.ExactArgs(1),
	RunE:  runOrderStatus,
}

var orderCancelCmd = &cobra.Command{
	Use:   "cancel <block-order-id>",
	Short: "Cancel a block order",
	Args:  cobra.ExactArgs(1),
	RunE:  runOrderCancel,
}

func init() {
	for _, c := range []*cobra.Command{buyCmd, sellCmd} {
		c.Flags().StringVar(&orderMarket, "market", "", "relevant market name, e.g. BTC/LTC")
		c.Flags().StringVarP(&orderTimeInForce, "time-in-force", "t", TimeInForce[0], "time in force policy for this order (GTC, PO, FOK, IOC)")
		_ = c.MarkFlagRequired("market")
		rootCmd.AddCommand(c)
	}

	orderCmd.AddCommand(orderStatusCmd, orderCancelCmd)
	rootCmd.AddCommand(orderCmd)
}

// buildOrderRequest validates the order arguments and assembles the
// CreateBlockOrder request. Without a price the order is a market order.
func buildOrderRequest(side, amount, price, market, timeInForce string) (*structpb.Struct, error) {
	if err := validateDecimal("amount", amount); err != nil {
		return nil, err
	}
	market, err := validateMarket(market)
	if err != nil {
		return nil, err
	}
	tif, err := validateTimeInForce(timeInForce)
	if err != nil {
		return nil, err
	}

	fields := map[string]interface{}{
		"amount":      amount,
		"market":      market,
		"side":        side,
		"timeInForce": tif,
	}
	if price != "" {
		if err := validateDecimal("price", price); err != nil {
			return nil, err
		}
		fields["limitPrice"] = price
	} else {
		fields["isMarketOrder"] = true
	}
	return structpb.NewStruct(fields)
}

func runOrder(cmd *cobra.Command, side string, args []string) error {
	price := ""
	if len(args) > 1 {
		price = args[1]
	}
	req, err := buildOrderRequest(side, args[0], price, orderMarket, orderTimeInForce)
	if err != nil {
		return err
	}

	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx, cancel := s.callContext(cmd.Context())
	defer cancel()

	res, err := s.client.Order().Call(ctx, "CreateBlockOrder", req)
	if err != nil {
		return fmt.Errorf("failed to create block order: %w", err)
	}
	return printResponse(cmd.OutOrStdout(), "Block order created", res)
}

func blockOrderRequest(id string) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]interface{}{"blockOrderId": id})
}

func runOrderStatus(cmd *cobra.Command, args []string) error {
	return callBlockOrder(cmd, args[0], "GetBlockOrder", "Block order "+args[0])
}

func runOrderCancel(cmd *cobra.Command, args []string) error {
	return callBlockOrder(cmd, args[0], "CancelBlockOrder", "Block order "+args[0]+" cancelled")
}

func callBlockOrder(cmd *cobra.Command, id, method, title string) error {
	req, err := blockOrderRequest(id)
	if err != nil {
		return err
	}

	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx, cancel := s.callContext(cmd.Context())
	defer cancel()

	res, err := s.client.Order().Call(ctx, method, req)
	if err != nil {
		return blockorder.FromStatus(id, err)
	}
	return printResponse(cmd.OutOrStdout(), title, res)
}
