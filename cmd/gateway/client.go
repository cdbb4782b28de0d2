package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aussiebroadwan/chatgate/pkg/gatewaysdk"
)

func newCurrentKeyCmd() *cobra.Command {
	var (
		url    string
		secret string
	)

	cmd := &cobra.Command{
		Use:   "current-key",
		Short: "Fetch the current API key from a running gateway",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				secret = os.Getenv("ADMIN_SECRET")
			}
			if secret == "" {
				return fmt.Errorf("--secret or ADMIN_SECRET is required")
			}

			key, err := gatewaysdk.NewClient(url).GetCurrentKey(cmd.Context(), secret)
			if err != nil {
				return err
			}

			if key.Warning != "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %s\n", key.Warning)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(key)
		},
	}

	cmd.Flags().StringVar(&url, "url", defaultGatewayURL, "Gateway base URL")
	cmd.Flags().StringVar(&secret, "secret", "", "Admin secret (default $ADMIN_SECRET)")

	return cmd
}

func newChatCmd() *cobra.Command {
	var (
		url    string
		apiKey string
		raw    bool
	)

	cmd := &cobra.Command{
		Use:   "chat <prompt...>",
		Short: "Send a prompt through a running gateway",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if apiKey == "" {
				apiKey = os.Getenv("CHATGATE_API_KEY")
			}
			if apiKey == "" {
				return fmt.Errorf("--key or CHATGATE_API_KEY is required")
			}

			completion, err := gatewaysdk.NewClient(url).Chat(cmd.Context(), apiKey, strings.Join(args, " "))
			if err != nil {
				return err
			}

			if raw {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), string(completion.Raw))
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), completion.Text())
			return err
		},
	}

	cmd.Flags().StringVar(&url, "url", defaultGatewayURL, "Gateway base URL")
	cmd.Flags().StringVar(&apiKey, "key", "", "API key (default $CHATGATE_API_KEY)")
	cmd.Flags().BoolVar(&raw, "raw", false, "Print the full completion document")

	return cmd
}
