package main

import (
	"github.com/spf13/cobra"

	"github.com/aussiebroadwan/chatgate/internal/gateway/app"
)

func newServeCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the gateway HTTP server",
		Long: `Run the gateway. Configuration is read from the environment;
GROQ_API_KEY and ADMIN_SECRET are required.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.LoadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}

			application, err := app.New(cfg)
			if err != nil {
				return err
			}

			return application.Run(cmd.Context())
		},
	}

	cmd.Flags().IntVar(&port, "port", 8000, "Listen port (overrides PORT)")

	return cmd
}
