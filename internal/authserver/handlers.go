package authserver

import (
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
)

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head>
    <title>Kite Bridge - Auth</title>
    <style>
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
            max-width: 600px;
            margin: 100px auto;
            padding: 20px;
            text-align: center;
        }
        .status {
            padding: 20px;
            border-radius: 8px;
            margin: 20px 0;
        }
        .success { background: #d4edda; color: #155724; }
        .error { background: #f8d7da; color: #721c24; }
        .info { background: #e7f1ff; color: #004085; }
        .btn {
            display: inline-block;
            padding: 12px 24px;
            background: #387ed1;
            color: white;
            text-decoration: none;
            border-radius: 6px;
            font-size: 16px;
        }
        .btn:hover { background: #2c6ab8; }
    </style>
</head>
<body>
    <h1>Kite Bridge</h1>
    {{if eq .Status "authenticated"}}
        <div class="status success">
            <h2>Authenticated</h2>
            <p>Logged in as: <strong>{{.UserID}}</strong></p>
            <p>Token valid until ~6 AM IST tomorrow</p>
        </div>
        <a href="/login" class="btn">Re-authenticate</a>
    {{else if eq .Status "success"}}
        <div class="status success">
            <h2>Login Successful</h2>
            <p>Welcome, <strong>{{.UserID}}</strong>!</p>
            <p>Token saved. You can close this window.</p>
        </div>
    {{else if eq .Status "error"}}
        <div class="status error">
            <h2>Error</h2>
            <p>{{.Message}}</p>
        </div>
        <a href="/login" class="btn">Try Again</a>
    {{else}}
        <div class="status info">
            <p>Not authenticated or token expired</p>
        </div>
        <a href="/login" class="btn">Login with Kite</a>
    {{end}}
</body>
</html>
`))

type pageData struct {
	Status  string
	UserID  string
	Message string
}

// StatusResponse is the JSON body for /api/v1/status.
type StatusResponse struct {
	Authenticated bool   `json:"authenticated"`
	UserID        string `json:"user_id,omitempty"`
}

// HealthResponse is the JSON body for /api/v1/health.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// Index shows the current auth status as an HTML page.
func (s *Server) Index(c *gin.Context) {
	if userID, ok := s.validTokenUser(c); ok {
		s.renderPage(c, http.StatusOK, pageData{Status: "authenticated", UserID: userID})
		return
	}
	s.renderPage(c, http.StatusOK, pageData{Status: "none"})
}

// Login redirects to the Kite login page.
func (s *Server) Login(c *gin.Context) {
	c.Redirect(http.StatusFound, s.kite.LoginURL())
}

// Callback handles the OAuth callback from Kite. Exchange failures render an
// error page; they never take the server down.
func (s *Server) Callback(c *gin.Context) {
	if errMsg := c.Query("error"); errMsg != "" {
		s.renderPage(c, http.StatusOK, pageData{Status: "error", Message: errMsg})
		return
	}

	requestToken := c.Query("request_token")
	if requestToken == "" {
		s.renderPage(c, http.StatusOK, pageData{Status: "error", Message: "No request token received"})
		return
	}

	sess, err := s.kite.GenerateSession(c.Request.Context(), requestToken)
	if err != nil {
		s.renderPage(c, http.StatusOK, pageData{Status: "error", Message: err.Error()})
		return
	}

	if err := s.tokens.Save(sess.AccessToken, sess.UserID); err != nil {
		s.renderPage(c, http.StatusOK, pageData{Status: "error", Message: err.Error()})
		return
	}

	s.renderPage(c, http.StatusOK, pageData{Status: "success", UserID: sess.UserID})
}

// Status reports auth state as JSON, for scripts.
func (s *Server) Status(c *gin.Context) {
	if userID, ok := s.validTokenUser(c); ok {
		c.JSON(http.StatusOK, StatusResponse{Authenticated: true, UserID: userID})
		return
	}
	c.JSON(http.StatusOK, StatusResponse{Authenticated: false})
}

// Health is the liveness endpoint the launcher's --wait polls.
func (s *Server) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "ok", Version: Version})
}

// validTokenUser loads the stored token and validates it against the profile
// endpoint. A stored token the API rejects counts as unauthenticated.
func (s *Server) validTokenUser(c *gin.Context) (string, bool) {
	tok, err := s.tokens.Load()
	if err != nil || tok == nil {
		return "", false
	}

	s.kite.SetAccessToken(tok.AccessToken)
	profile, err := s.kite.Profile(c.Request.Context())
	if err != nil {
		return "", false
	}
	return profile.UserID, true
}

func (s *Server) renderPage(c *gin.Context, code int, data pageData) {
	c.Status(code)
	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplate.Execute(c.Writer, data); err != nil {
		c.String(http.StatusInternalServerError, "template error: %v", err)
	}
}
