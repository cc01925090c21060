package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tradewire/kitebridge/internal/launcher"
	"github.com/tradewire/kitebridge/internal/tokenstore"
)

var statusJSON bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show server and token status",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "Output status as JSON")
}

type statusOutput struct {
	Running      bool   `json:"running"`
	Healthy      bool   `json:"healthy"`
	PID          int    `json:"pid,omitempty"`
	Host         string `json:"host,omitempty"`
	Port         int    `json:"port,omitempty"`
	LogFile      string `json:"log_file,omitempty"`
	TokenValid   bool   `json:"token_valid"`
	TokenUserID  string `json:"token_user_id,omitempty"`
	TokenSavedAt string `json:"token_saved_at,omitempty"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	baseDir, cfg, err := loadEnvironment()
	if err != nil {
		return err
	}

	var out statusOutput

	state, err := launcher.ReadState(baseDir)
	if err != nil {
		return err
	}
	if state != nil && launcher.IsProcessAlive(state.PID) {
		out.Running = true
		out.PID = state.PID
		out.Host = state.Host
		out.Port = state.Port
		out.LogFile = state.LogFile
		out.Healthy = launcher.IsHealthy(cmd.Context(), state.Host, state.Port)
	}

	// Local expiry check only; the server's /api/v1/status is the one that
	// verifies the token against the API.
	tokens := tokenstore.New(cfg.Kite.TokenFile)
	if tok, err := tokens.Load(); err == nil && tok != nil {
		out.TokenValid = true
		out.TokenUserID = tok.UserID
		out.TokenSavedAt = tok.SavedAt.Format("2006-01-02 15:04:05 MST")
	}

	if statusJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	if out.Running {
		fmt.Printf("Server:  running (pid %d) on http://%s:%d\n", out.PID, out.Host, out.Port)
		if out.Healthy {
			fmt.Println("Health:  ok")
		} else {
			fmt.Println("Health:  not responding")
		}
		fmt.Printf("Log:     %s\n", out.LogFile)
	} else {
		fmt.Println("Server:  not running")
	}

	if out.TokenValid {
		fmt.Printf("Token:   valid (user %s, saved %s)\n", out.TokenUserID, out.TokenSavedAt)
	} else {
		fmt.Println("Token:   missing or expired")
	}

	return nil
}
