package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tradewire/kitebridge/internal/launcher"
)

var (
	startWait      bool
	startNoEnvSync bool
	startTimeout   time.Duration
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the auth server in the background",
	Long: `Start the auth server as a detached process.

The sequence mirrors the old shell launcher: sync the Python environment
(best-effort), kill whatever holds the configured port, wait for the port to
come free, then spawn the server with its output captured to the log file.
The command returns as soon as the child is running; pass --wait to block
until the server answers its health endpoint.`,
	Args: cobra.NoArgs,
	RunE: runStart,
}

func init() {
	startCmd.Flags().BoolVar(&startWait, "wait", false, "Block until the server is healthy")
	startCmd.Flags().BoolVar(&startNoEnvSync, "no-env-sync", false, "Skip the Python environment sync")
	startCmd.Flags().DurationVar(&startTimeout, "timeout", launcher.DefaultHealthTimeout, "Readiness timeout for --wait")
}

func runStart(cmd *cobra.Command, args []string) error {
	baseDir, cfg, err := loadEnvironment()
	if err != nil {
		return err
	}

	res, err := launcher.Launch(cmd.Context(), baseDir, cfg, launcher.Options{
		SkipEnvSync: startNoEnvSync,
		Wait:        startWait,
		WaitTimeout: startTimeout,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Server started (pid %d) on http://%s:%d\n", res.PID, cfg.Server.Host, res.Port)
	fmt.Printf("Log: %s\n", res.LogFile)
	return nil
}
