package backup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"

	"github.com/137-reciprocal/TaskGeek-sub001/internal/credential"
)

const (
	// tokenKey is the keyring entry holding the Drive OAuth token.
	tokenKey = "google-drive-token"

	oauthCallbackTimeout = 5 * time.Minute
	tokenExchangeTimeout = 30 * time.Second
	oauthStartPort       = 8085
	oauthMaxPortAttempts = 5
)

// ErrNotLoggedIn is returned when no Drive token is stored.
var ErrNotLoggedIn = errors.New("not logged in to Google Drive; run 'taskgeek backup login'")

// TokenStore persists the OAuth token.
type TokenStore interface {
	LoadToken() (*oauth2.Token, error)
	SaveToken(tok *oauth2.Token) error
	DeleteToken() error
}

// KeyringTokens keeps the token as JSON in the credential store.
type KeyringTokens struct {
	Creds *credential.Store
}

// LoadToken reads the stored token.
func (k KeyringTokens) LoadToken() (*oauth2.Token, error) {
	raw, err := k.Creds.Get(tokenKey)
	if errors.Is(err, credential.ErrNotFound) {
		return nil, ErrNotLoggedIn
	}
	if err != nil {
		return nil, err
	}
	var tok oauth2.Token
	if err := json.Unmarshal([]byte(raw), &tok); err != nil {
		return nil, fmt.Errorf("decoding stored token: %w", err)
	}
	return &tok, nil
}

// SaveToken stores tok.
func (k KeyringTokens) SaveToken(tok *oauth2.Token) error {
	raw, err := json.Marshal(tok)
	if err != nil {
		return err
	}
	return k.Creds.Set(tokenKey, string(raw))
}

// DeleteToken forgets the stored token.
func (k KeyringTokens) DeleteToken() error {
	return k.Creds.Delete(tokenKey)
}

// OAuthConfig reads a desktop-app client secrets file downloaded from the
// Google Cloud console.
func OAuthConfig(clientSecretsPath string) (*oauth2.Config, error) {
	b, err := os.ReadFile(clientSecretsPath)
	if err != nil {
		return nil, fmt.Errorf("reading client secrets %s: %w", clientSecretsPath, err)
	}
	cfg, err := google.ConfigFromJSON(b, drive.DriveAppdataScope, drive.DriveFileScope)
	if err != nil {
		return nil, fmt.Errorf("parsing client secrets: %w", err)
	}
	return cfg, nil
}

// Login runs the loopback authorization flow: it prints the consent URL to
// out, waits for Google to redirect back with a code and stores the token.
func Login(ctx context.Context, cfg *oauth2.Config, tokens TokenStore, out io.Writer) error {
	port, listener, err := findAvailablePort()
	if err != nil {
		return err
	}
	defer listener.Close()

	cfg.RedirectURL = fmt.Sprintf("http://localhost:%d/callback", port)
	verifier := oauth2.GenerateVerifier()
	authURL := cfg.AuthCodeURL("state",
		oauth2.AccessTypeOffline,
		oauth2.S256ChallengeOption(verifier),
	)

	fmt.Fprintln(out, "Open this URL in your browser:")
	fmt.Fprintln(out, authURL)

	codeCh := make(chan string, 1)
	errCh := make(chan error, 1)

	mux := http.NewServeMux()
	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		if code == "" {
			http.Error(w, "No code in callback", http.StatusBadRequest)
			errCh <- fmt.Errorf("no code in callback")
			return
		}
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, "<html><body><h1>TaskGeek is connected</h1><p>You may close this window.</p></body></html>")
		codeCh <- code
	})

	server := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	var code string
	select {
	case code = <-codeCh:
	case err := <-errCh:
		return err
	case <-time.After(oauthCallbackTimeout):
		return fmt.Errorf("oauth callback timed out")
	case <-ctx.Done():
		return ctx.Err()
	}

	exchangeCtx, cancel := context.WithTimeout(ctx, tokenExchangeTimeout)
	defer cancel()
	tok, err := cfg.Exchange(exchangeCtx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return fmt.Errorf("exchanging code for token: %w", err)
	}
	return tokens.SaveToken(tok)
}

// Client returns an HTTP client that refreshes the stored token and writes
// refreshed tokens back.
func Client(ctx context.Context, cfg *oauth2.Config, tokens TokenStore) (*http.Client, error) {
	tok, err := tokens.LoadToken()
	if err != nil {
		return nil, err
	}
	src := &savingSource{
		base:   cfg.TokenSource(ctx, tok),
		tokens: tokens,
		last:   tok.AccessToken,
	}
	return oauth2.NewClient(ctx, oauth2.ReuseTokenSource(tok, src)), nil
}

// savingSource persists a token whenever the access token changes.
type savingSource struct {
	base   oauth2.TokenSource
	tokens TokenStore
	last   string
}

func (s *savingSource) Token() (*oauth2.Token, error) {
	tok, err := s.base.Token()
	if err != nil {
		return nil, err
	}
	if tok.AccessToken != s.last {
		s.last = tok.AccessToken
		if err := s.tokens.SaveToken(tok); err != nil {
			return nil, fmt.Errorf("saving refreshed token: %w", err)
		}
	}
	return tok, nil
}

// findAvailablePort tries ports starting at oauthStartPort.
func findAvailablePort() (int, net.Listener, error) {
	for i := 0; i < oauthMaxPortAttempts; i++ {
		port := oauthStartPort + i
		listener, err := net.Listen("tcp", fmt.Sprintf("localhost:%d", port))
		if err == nil {
			return port, listener, nil
		}
	}
	return 0, nil, fmt.Errorf("no available port found for the oauth callback")
}
