package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tradewire/kitebridge/internal/launcher"
)

// stopGrace is how long stop waits for the server to exit after SIGTERM
// before escalating to SIGKILL.
const stopGrace = 5 * time.Second

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the background auth server",
	Args:  cobra.NoArgs,
	RunE:  runStop,
}

func runStop(cmd *cobra.Command, args []string) error {
	baseDir, _, err := loadEnvironment()
	if err != nil {
		return err
	}

	state, err := launcher.ReadState(baseDir)
	if err != nil {
		return err
	}
	if state == nil {
		fmt.Println("No server state found; nothing to stop.")
		return nil
	}

	if !launcher.IsProcessAlive(state.PID) {
		fmt.Printf("Server (pid %d) is not running; cleaning up state.\n", state.PID)
		return launcher.RemoveState(baseDir)
	}

	if err := launcher.StopProcess(state.PID); err != nil {
		return err
	}

	deadline := time.Now().Add(stopGrace)
	for launcher.IsProcessAlive(state.PID) {
		if time.Now().After(deadline) {
			fmt.Printf("Server (pid %d) did not exit, killing.\n", state.PID)
			if err := launcher.KillProcess(state.PID); err != nil {
				return err
			}
			break
		}
		time.Sleep(100 * time.Millisecond)
	}

	if err := launcher.RemoveState(baseDir); err != nil {
		return err
	}

	fmt.Printf("Server (pid %d) stopped.\n", state.PID)
	return nil
}
