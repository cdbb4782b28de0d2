package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/aussiebroadwan/chatgate/pkg/keyx"
)

type derivedKey struct {
	Week   string `json:"week"`
	APIKey string `json:"api_key"`
	Expiry string `json:"expiry"`
}

func newDeriveKeyCmd() *cobra.Command {
	var (
		secret string
		at     string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "derive-key",
		Short: "Compute the API key for a week offline",
		Long: `Compute the API key any gateway sharing the secret serves during the
ISO week containing --at (default: now). The secret defaults to ADMIN_SECRET.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				secret = os.Getenv("ADMIN_SECRET")
			}
			if secret == "" {
				return fmt.Errorf("--secret or ADMIN_SECRET is required")
			}

			now := keyx.SystemClock.Now()
			if at != "" {
				t, err := time.Parse(time.RFC3339, at)
				if err != nil {
					return fmt.Errorf("invalid --at %q: %w", at, err)
				}
				now = t.UTC()
			}

			rec := keyx.Derive(now, secret)
			out := derivedKey{
				Week:   keyx.WeekOf(now).String(),
				APIKey: rec.Key,
				Expiry: keyx.FormatExpiry(rec.Expiry),
			}

			w := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(out)
			}

			fmt.Fprintf(w, "week:    %s\n", out.Week)
			fmt.Fprintf(w, "api_key: %s\n", out.APIKey)
			fmt.Fprintf(w, "expiry:  %s\n", out.Expiry)
			return nil
		},
	}

	cmd.Flags().StringVar(&secret, "secret", "", "Derivation secret (default $ADMIN_SECRET)")
	cmd.Flags().StringVar(&at, "at", "", "RFC 3339 instant inside the target week (default now)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")

	return cmd
}
