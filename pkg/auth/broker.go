// Package auth brokers the OAuth2 credential for the Google Calendar API.
//
// The broker owns its token cache: a bearer valid for at least another
// 60 seconds is returned without any network round trip, an expired one is
// refreshed silently through the stored refresh token, and only when that
// fails does the interactive browser consent flow run. Refreshes go through
// singleflight so concurrent callers share one authorization instead of
// racing into separate consent prompts.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/sync/singleflight"
	"google.golang.org/api/calendar/v3"
)

const (
	// LocalhostAuthPort is where the local listener captures the OAuth
	// redirect. Must match a redirect URI registered for the client.
	LocalhostAuthPort = "6789"

	// minValidity is how long a cached token must remain valid to be
	// handed out without a refresh.
	minValidity = 60 * time.Second

	authorizeTimeout = 5 * time.Minute
)

// AuthorizationError is a denial or failure reported by the identity
// provider during the consent flow.
type AuthorizationError struct {
	Code        string
	Description string
}

func (e *AuthorizationError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("authorization failed: %s (%s)", e.Code, e.Description)
	}
	return fmt.Sprintf("authorization failed: %s", e.Code)
}

// Broker obtains and caches the calendar bearer credential.
type Broker struct {
	cfg       *oauth2.Config
	tokenFile string
	log       *zap.SugaredLogger

	mu     sync.Mutex
	cached *oauth2.Token
	sf     singleflight.Group

	// authorize runs the interactive consent flow. Swapped out in tests.
	authorize func(ctx context.Context) (*oauth2.Token, error)
}

// NewBroker reads the OAuth client credentials and any previously saved
// token. A missing or unreadable credentials file fails here, before any
// token request.
func NewBroker(credentialsFile, tokenFile string, log *zap.SugaredLogger) (*Broker, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	b, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, errors.Wrapf(err, "reading client credentials %s", credentialsFile)
	}
	cfg, err := google.ConfigFromJSON(b, calendar.CalendarEventsScope, calendar.CalendarReadonlyScope)
	if err != nil {
		return nil, errors.Wrap(err, "parsing client credentials")
	}
	// The local listener owns the redirect regardless of what the
	// credentials file registered.
	cfg.RedirectURL = fmt.Sprintf("http://localhost:%s/oauth2callback", LocalhostAuthPort)

	broker := &Broker{cfg: cfg, tokenFile: tokenFile, log: log}
	broker.authorize = broker.tokenFromWeb

	if tok, err := tokenFromFile(tokenFile); err == nil {
		broker.cached = tok
	}
	return broker, nil
}

// Token returns a bearer credential, refreshing or re-authorizing as
// needed.
func (b *Broker) Token(ctx context.Context) (*oauth2.Token, error) {
	b.mu.Lock()
	tok := b.cached
	b.mu.Unlock()
	if usable(tok) {
		return tok, nil
	}

	v, err, _ := b.sf.Do("token", func() (any, error) {
		return b.refresh(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.(*oauth2.Token), nil
}

// AccessToken returns just the bearer string.
func (b *Broker) AccessToken(ctx context.Context) (string, error) {
	tok, err := b.Token(ctx)
	if err != nil {
		return "", err
	}
	return tok.AccessToken, nil
}

// TokenSource adapts the broker to the oauth2 interface so the calendar
// service refreshes through the shared cache.
func (b *Broker) TokenSource(ctx context.Context) oauth2.TokenSource {
	return brokerSource{ctx: ctx, b: b}
}

// Client returns an HTTP client whose requests carry the brokered bearer.
func (b *Broker) Client(ctx context.Context) *http.Client {
	return oauth2.NewClient(ctx, b.TokenSource(ctx))
}

// Authorize forces the interactive consent flow, replacing any cached
// token. Used by the auth CLI command.
func (b *Broker) Authorize(ctx context.Context) error {
	tok, err := b.authorize(ctx)
	if err != nil {
		return err
	}
	b.store(tok)
	return nil
}

type brokerSource struct {
	ctx context.Context
	b   *Broker
}

func (s brokerSource) Token() (*oauth2.Token, error) {
	return s.b.Token(s.ctx)
}

func usable(tok *oauth2.Token) bool {
	return tok != nil && tok.AccessToken != "" &&
		(tok.Expiry.IsZero() || time.Until(tok.Expiry) >= minValidity)
}

// refresh runs inside singleflight. It re-checks the cache first: the
// caller that lost the race may find a fresh token already stored.
func (b *Broker) refresh(ctx context.Context) (*oauth2.Token, error) {
	b.mu.Lock()
	cached := b.cached
	b.mu.Unlock()
	if usable(cached) {
		return cached, nil
	}

	// Silent path: the stored refresh token mints a new bearer without
	// user interaction.
	if cached != nil && cached.RefreshToken != "" {
		tok, err := b.cfg.TokenSource(ctx, cached).Token()
		if err == nil {
			b.store(tok)
			b.log.Debugw("token refreshed silently", "expiry", tok.Expiry)
			return tok, nil
		}
		b.log.Warnw("silent refresh failed, falling back to consent flow", "err", err)
	}

	tok, err := b.authorize(ctx)
	if err != nil {
		return nil, err
	}
	b.store(tok)
	return tok, nil
}

func (b *Broker) store(tok *oauth2.Token) {
	b.mu.Lock()
	// A refresh response may omit the refresh token; keep the old one.
	if tok.RefreshToken == "" && b.cached != nil {
		tok.RefreshToken = b.cached.RefreshToken
	}
	b.cached = tok
	b.mu.Unlock()

	if b.tokenFile != "" {
		if err := saveToken(b.tokenFile, tok); err != nil {
			b.log.Warnw("could not save token", "path", b.tokenFile, "err", err)
		}
	}
}

// tokenFromWeb runs the authorization code flow through a local listener:
// the browser is pointed at the consent page and the redirect delivers the
// code back to us.
func (b *Broker) tokenFromWeb(ctx context.Context) (*oauth2.Token, error) {
	codeCh := make(chan string, 1)
	errCh := make(chan error, 1)

	listener, err := net.Listen("tcp", ":"+LocalhostAuthPort)
	if err != nil {
		return nil, errors.Wrapf(err, "starting listener on port %s", LocalhostAuthPort)
	}
	defer listener.Close()

	server := &http.Server{
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			if errCode := q.Get("error"); errCode != "" {
				http.Error(w, "Authorization denied", http.StatusForbidden)
				errCh <- &AuthorizationError{Code: errCode, Description: q.Get("error_description")}
				return
			}
			code := q.Get("code")
			if code == "" {
				http.Error(w, "Authorization code not found", http.StatusBadRequest)
				errCh <- errors.New("authorization code not found in redirect")
				return
			}
			fmt.Fprint(w, "Authentication successful! You can close this window.")
			codeCh <- code
		}),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	go func() {
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			errCh <- errors.Wrap(err, "redirect listener")
		}
	}()
	defer server.Shutdown(context.Background())

	// AccessTypeOffline requests a refresh token so later syncs stay
	// silent.
	authURL := b.cfg.AuthCodeURL("state-token", oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"))
	fmt.Printf("Open the following URL in your browser to authorize fieldsync:\n%s\n", authURL)
	b.log.Infow("waiting for authorization", "redirect", b.cfg.RedirectURL)

	select {
	case code := <-codeCh:
		exchangeCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		tok, err := b.cfg.Exchange(exchangeCtx, code)
		if err != nil {
			return nil, errors.Wrap(err, "exchanging authorization code")
		}
		return tok, nil
	case err := <-errCh:
		return nil, err
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(authorizeTimeout):
		return nil, errors.New("authorization timed out, please try again")
	}
}

func tokenFromFile(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tok := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(tok); err != nil {
		return nil, errors.Wrapf(err, "decoding token file %s", path)
	}
	return tok, nil
}

func saveToken(path string, tok *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(tok)
}
