package main

import (
	"os"

	"github.com/sparkswap/broker-cli/cmd/sparkswap/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
