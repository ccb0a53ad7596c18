package cmd

import (
	"encoding/json"
	"fmt"
	"runtime"

	"github.com/sparkswap/broker-cli/pkg/core/version"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	RunE: func(cmd *cobra.Command, args []string) error {
		info := version.Get()
		w := cmd.OutOrStdout()

		if jsonOutput {
			out, err := json.MarshalIndent(info, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(w, string(out))
			return nil
		}

		fmt.Fprintf(w, "sparkswap v%s\n", info.Client)
		fmt.Fprintf(w, "  Daemon API: %s\n", info.API)
		fmt.Fprintf(w, "  Git Commit: %s\n", info.Commit)
		fmt.Fprintf(w, "  Build Date: %s\n", info.BuildDate)
		fmt.Fprintf(w, "  Go Version: %s\n", info.GoVersion)
		fmt.Fprintf(w, "  OS/Arch:    %s/%s\n", runtime.GOOS, runtime.GOARCH)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
