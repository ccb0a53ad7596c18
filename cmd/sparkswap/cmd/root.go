package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/sparkswap/broker-cli/internal/daemonclient"
	"github.com/sparkswap/broker-cli/pkg/core/config"
	coregrpc "github.com/sparkswap/broker-cli/pkg/core/grpc"
	"github.com/sparkswap/broker-cli/pkg/core/logging"
	"github.com/spf13/cobra"
)

var (
	cfgFile    string
	rpcAddress string
	verbose    bool
	jsonOutput bool
)

// clientOptions are appended to every daemon client; tests use it to dial
// an in-memory broker.
var clientOptions []daemonclient.Option

var rootCmd = &cobra.Command{
	Use:   "sparkswap",
	Short: "Command line interface for the sparkswap broker daemon",
	Long: `sparkswap talks to a running broker daemon over gRPC.

Connection settings come from the config file (--config, $SPARKSWAP_CONFIG,
./sparkswap.toml or ~/.sparkswap/config.toml) and SPARKSWAP_* environment
variables. --rpc-address overrides the configured daemon address; a host
without port uses 27492.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and prints any error to stderr
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		printError(rootCmd, err)
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./sparkswap.toml, ~/.sparkswap/config.toml)")
	rootCmd.PersistentFlags().StringVar(&rpcAddress, "rpc-address", "", "location of the broker daemon rpc server (host[:port])")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print raw JSON responses")
}

func printError(cmd *cobra.Command, err error) {
	fmt.Fprintln(cmd.ErrOrStderr(), ErrorStyle.Render("Error: "+err.Error()))
}

func loadConfig() (*config.Config, error) {
	if cfgFile != "" {
		return config.Load(cfgFile)
	}
	return config.LoadFromEnv()
}

func newLogger(cfg *config.Config, out io.Writer) *logging.Logger {
	lc := logging.DefaultLoggerConfig("sparkswap")
	lc.Level = cfg.Log.Level
	lc.Format = cfg.Log.Format
	lc.Output = out
	if verbose {
		lc.Level = logging.LevelDebug.String()
	}
	return logging.NewLogger(lc)
}

// session is a bootstrapped client plus the settings a command needs
type session struct {
	client *daemonclient.Client
	cfg    *config.Config
	logger *logging.Logger
}

func newSession(cmd *cobra.Command) (*session, error) {
	if err := validateHost(rpcAddress); err != nil {
		return nil, err
	}

	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := newLogger(cfg, cmd.ErrOrStderr())
	if verbose {
		coregrpc.SetInterceptorLogger(logger.Named("grpc"))
	}

	opts := append([]daemonclient.Option{daemonclient.WithLogger(logger)}, clientOptions...)
	client, err := daemonclient.New(cfg.RPC, rpcAddress, opts...)
	if err != nil {
		return nil, err
	}

	logger.Debug("daemon client ready",
		"address", client.Address(),
		"credential", fmt.Sprint(client.Credential()),
	)
	return &session{client: client, cfg: cfg, logger: logger}, nil
}

func (s *session) Close() {
	if err := s.client.Close(); err != nil {
		s.logger.Warn("failed to close daemon client", "error", err)
	}
}

// callContext bounds a single rpc by the configured timeout
func (s *session) callContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, s.cfg.RPC.Timeout.Duration)
}
