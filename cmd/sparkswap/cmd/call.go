package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/sparkswap/broker-cli/internal/daemonclient"
	"github.com/spf13/cobra"
)

var callCmd = &cobra.Command{
	Use:   "call <service> <method> [json]",
	Short: "Call any daemon method with a JSON request",
	Long: `Calls a method of the broker daemon directly. The request is a JSON
object matching the method's request message; omit it to send an empty
request. Server-streaming methods print every message until the stream ends
or the timeout expires.

Examples:
  sparkswap call AdminService HealthCheck
  sparkswap call OrderService GetBlockOrder '{"blockOrderId":"abc"}'
  sparkswap call OrderBookService WatchMarket '{"market":"BTC/LTC"}'`,
	Args: cobra.RangeArgs(2, 3),
	RunE: runCall,
}

var servicesCmd = &cobra.Command{
	Use:   "services",
	Short: "List the daemon services and methods the client knows",
	Args:  cobra.NoArgs,
	RunE:  runServices,
}

func init() {
	rootCmd.AddCommand(callCmd, servicesCmd)
}

func runCall(cmd *cobra.Command, args []string) error {
	service, method := args[0], args[1]
	raw := ""
	if len(args) > 2 {
		raw = args[2]
	}
	req, err := parseRequest(raw)
	if err != nil {
		return err
	}

	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	svc, ok := s.client.Service(service)
	if !ok {
		return fmt.Errorf("unknown service %q, see `sparkswap services`", service)
	}
	m, ok := svc.Descriptor().Method(method)
	if !ok {
		return fmt.Errorf("unknown method %s.%s, see `sparkswap services`", service, method)
	}

	ctx, cancel := s.callContext(cmd.Context())
	defer cancel()

	title := service + "." + method
	if !m.ServerStreaming {
		res, err := svc.Call(ctx, method, req)
		if err != nil {
			return fmt.Errorf("%s failed: %w", title, err)
		}
		return printResponse(cmd.OutOrStdout(), title, res)
	}

	stream, err := svc.Stream(ctx, method, req)
	if err != nil {
		return fmt.Errorf("%s failed: %w", title, err)
	}
	for {
		msg, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%s stream failed: %w", title, err)
		}
		if err := printResponse(cmd.OutOrStdout(), title, msg); err != nil {
			return err
		}
	}
}

func runServices(cmd *cobra.Command, args []string) error {
	set, err := daemonclient.Descriptors()
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	fmt.Fprintln(w, TitleStyle.Render(fmt.Sprintf("Broker daemon services (%s %s)", set.Package(), set.Version())))
	for _, svc := range set.Services() {
		fmt.Fprintln(w)
		fmt.Fprintln(w, ValueStyle.Render(svc.Name))
		for _, m := range svc.Methods {
			line := "  " + m.Name
			if m.ServerStreaming {
				line += " " + WarningStyle.Render("(stream)")
			}
			if m.Description != "" {
				line += "  " + MutedStyle.Render(m.Description)
			}
			fmt.Fprintln(w, line)
		}
	}
	return nil
}
