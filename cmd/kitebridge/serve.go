package main

import (
	"github.com/spf13/cobra"

	"github.com/tradewire/kitebridge/internal/authserver"
	"github.com/tradewire/kitebridge/internal/kite"
	"github.com/tradewire/kitebridge/internal/tokenstore"
)

var (
	serveHost string
	servePort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the auth server in the foreground",
	Long: `Run the auth server in the foreground. This is what 'start' spawns
in the background; running it directly is useful for debugging.

Environment variables:
  KITEBRIDGE_SERVER_HOST   Bind address (default: 127.0.0.1)
  KITEBRIDGE_SERVER_PORT   Port (default: 5001)
  KITEBRIDGE_KITE_API_KEY     Kite Connect API key
  KITEBRIDGE_KITE_API_SECRET  Kite Connect API secret`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Bind address (overrides config)")
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to run the server on (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	_, cfg, err := loadEnvironment()
	if err != nil {
		return err
	}

	if serveHost != "" {
		cfg.Server.Host = serveHost
	}
	if servePort != 0 {
		cfg.Server.Port = servePort
	}

	kc := kite.New(cfg.Kite.APIKey, cfg.Kite.APISecret)
	tokens := tokenstore.New(cfg.Kite.TokenFile)

	authserver.Version = Version
	srv := authserver.New(cfg, kc, tokens)
	return srv.RunWithSignalHandling()
}
