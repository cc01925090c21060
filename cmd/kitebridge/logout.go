package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tradewire/kitebridge/internal/kite"
	"github.com/tradewire/kitebridge/internal/tokenstore"
)

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Invalidate the session and delete the stored token",
	Args:  cobra.NoArgs,
	RunE:  runLogout,
}

func runLogout(cmd *cobra.Command, args []string) error {
	_, cfg, err := loadEnvironment()
	if err != nil {
		return err
	}

	tokens := tokenstore.New(cfg.Kite.TokenFile)

	tok, err := tokens.Load()
	if err != nil {
		return err
	}
	if tok == nil {
		fmt.Println("No stored token; nothing to do.")
		return nil
	}

	// Best-effort: the token may already be dead on the API side.
	kc := kite.New(cfg.Kite.APIKey, cfg.Kite.APISecret)
	kc.SetAccessToken(tok.AccessToken)
	if err := kc.InvalidateSession(cmd.Context()); err != nil {
		fmt.Printf("Warning: could not invalidate session remotely: %v\n", err)
	}

	if err := tokens.Clear(); err != nil {
		return err
	}

	fmt.Println("Logged out.")
	return nil
}
