package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/tradewire/kitebridge/internal/config"
	"github.com/tradewire/kitebridge/internal/launcher"
	"github.com/tradewire/kitebridge/internal/logger"
)

// Version is set via ldflags at build time
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "kitebridge",
	Short: "Kitebridge - local Kite Connect auth bridge",
	Long: `Kitebridge runs a small local web server that handles the daily
Kite Connect login flow and stores the access token for trading scripts.`,
	Example: `  # Start the auth server in the background and follow the log
  kitebridge start
  tail -f server.log

  # Log in from the terminal instead of the web UI
  kitebridge login

  # Check what is running and whether the token is valid
  kitebridge status`,
}

func init() {
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadEnvironment resolves the base directory and loads configuration
// anchored there. Every command starts here; a base directory that cannot
// be resolved is the one fatal error in the whole tool.
func loadEnvironment() (string, *config.Config, error) {
	baseDir, err := launcher.ResolveBaseDir()
	if err != nil {
		return "", nil, err
	}

	cfg, err := config.Load(baseDir)
	if err != nil {
		return "", nil, err
	}

	logger.Init(cfg.Log.Format, cfg.Log.Level)
	return baseDir, cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
