// Package main is the entry point for the chatgate gateway and its
// operator tooling.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aussiebroadwan/chatgate/internal/gateway/app"
)

const defaultGatewayURL = "http://localhost:8000"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "gateway",
		Short: "Weekly rotating-key gateway for a chat completion API",
		Long: `gateway serves an authenticating HTTP proxy in front of an
OpenAI-compatible chat completion API. Callers present a key that changes
every ISO week and is derived from the admin secret.`,
		Version:       app.BuildVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newServeCmd())
	root.AddCommand(newDeriveKeyCmd())
	root.AddCommand(newCurrentKeyCmd())
	root.AddCommand(newChatCmd())

	return root
}

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
