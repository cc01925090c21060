package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/exec"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/tradewire/kitebridge/internal/kite"
	"github.com/tradewire/kitebridge/internal/tokenstore"
)

// loginTimeout bounds the wait for the browser callback.
const loginTimeout = 5 * time.Minute

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in to Kite from the terminal",
	Long: `Run the Kite Connect login flow without the background server:
listen for the OAuth callback, open the browser to the Kite login page,
exchange the request token, and save the access token.

The Kite developer console must have http://<host>:<port>/callback
registered as the redirect URL.`,
	Args: cobra.NoArgs,
	RunE: runLogin,
}

// callbackResult is what the temporary callback listener captures.
type callbackResult struct {
	requestToken string
	err          error
}

func runLogin(cmd *cobra.Command, args []string) error {
	_, cfg, err := loadEnvironment()
	if err != nil {
		return err
	}

	if cfg.Kite.APIKey == "" || cfg.Kite.APISecret == "" {
		return fmt.Errorf("kite api_key and api_secret must be configured (KITEBRIDGE_KITE_API_KEY / KITEBRIDGE_KITE_API_SECRET)")
	}

	kc := kite.New(cfg.Kite.APIKey, cfg.Kite.APISecret)
	tokens := tokenstore.New(cfg.Kite.TokenFile)

	// Reuse an existing valid token if the API still accepts it.
	if tok, err := tokens.Load(); err == nil && tok != nil {
		kc.SetAccessToken(tok.AccessToken)
		if profile, err := kc.Profile(cmd.Context()); err == nil {
			fmt.Printf("Already logged in as: %s\n", profile.UserID)
			return nil
		}
	}

	addr := net.JoinHostPort(cfg.Server.Host, fmt.Sprintf("%d", cfg.Server.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("cannot listen on %s for the callback (is the server running? try 'kitebridge stop' first): %w", addr, err)
	}

	resultCh := make(chan callbackResult, 1)
	srv := &http.Server{Handler: callbackHandler(resultCh)}
	go srv.Serve(ln)
	defer srv.Close()

	loginURL := kc.LoginURL()
	if openBrowser(loginURL) {
		fmt.Fprintln(os.Stderr, "Opening browser for login...")
		fmt.Fprintln(os.Stderr, "If the browser doesn't open, visit this URL:")
	} else {
		fmt.Fprintln(os.Stderr, "Open this URL in a browser to log in:")
	}
	fmt.Fprintf(os.Stderr, "\n  %s\n\n", loginURL)
	fmt.Fprintln(os.Stderr, "Waiting for authentication callback...")

	ctx, cancel := context.WithTimeout(cmd.Context(), loginTimeout)
	defer cancel()

	var result callbackResult
	select {
	case result = <-resultCh:
	case <-ctx.Done():
		return errors.New("timed out waiting for the authentication callback")
	}
	if result.err != nil {
		return fmt.Errorf("authentication failed: %w", result.err)
	}

	sess, err := kc.GenerateSession(cmd.Context(), result.requestToken)
	if err != nil {
		return err
	}
	if err := tokens.Save(sess.AccessToken, sess.UserID); err != nil {
		return err
	}

	fmt.Printf("Logged in as: %s\n", sess.UserID)
	fmt.Printf("Token saved to: %s\n", cfg.Kite.TokenFile)
	return nil
}

// callbackHandler serves /callback once and pushes the captured result.
func callbackHandler(resultCh chan<- callbackResult) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		if errMsg := r.URL.Query().Get("error"); errMsg != "" {
			fmt.Fprintf(w, "<h2>Authentication Failed</h2><p>%s</p>", errMsg)
			select {
			case resultCh <- callbackResult{err: errors.New(errMsg)}:
			default:
			}
			return
		}

		token := r.URL.Query().Get("request_token")
		if token == "" {
			fmt.Fprint(w, "<h2>Authentication Failed</h2><p>No request token received</p>")
			select {
			case resultCh <- callbackResult{err: errors.New("no request token received")}:
			default:
			}
			return
		}

		fmt.Fprint(w, "<h2>Authentication Successful</h2><p>You can close this window.</p>")
		select {
		case resultCh <- callbackResult{requestToken: token}:
		default:
		}
	})
	return mux
}

// openBrowser makes a best-effort attempt to open url in the default browser.
func openBrowser(url string) bool {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", url)
	default:
		return false
	}
	return cmd.Start() == nil
}
