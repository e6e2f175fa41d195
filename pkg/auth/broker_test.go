package auth

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

func newTestBroker() *Broker {
	return &Broker{
		cfg: &oauth2.Config{ClientID: "client-id"},
		log: zap.NewNop().Sugar(),
	}
}

func TestTokenReturnsCachedWhenStillValid(t *testing.T) {
	b := newTestBroker()
	b.cached = &oauth2.Token{
		AccessToken: "cached-bearer",
		Expiry:      time.Now().Add(5 * time.Minute),
	}
	b.authorize = func(context.Context) (*oauth2.Token, error) {
		t.Fatal("authorize must not run for a valid cached token")
		return nil, nil
	}

	tok, err := b.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "cached-bearer", tok.AccessToken)
}

func TestTokenRefreshesWhenExpiringSoon(t *testing.T) {
	b := newTestBroker()
	// Inside the 60-second validity window: must be replaced.
	b.cached = &oauth2.Token{
		AccessToken: "stale-bearer",
		Expiry:      time.Now().Add(10 * time.Second),
	}
	b.authorize = func(context.Context) (*oauth2.Token, error) {
		return &oauth2.Token{
			AccessToken: "fresh-bearer",
			Expiry:      time.Now().Add(time.Hour),
		}, nil
	}

	tok, err := b.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fresh-bearer", tok.AccessToken)

	// The fresh token is cached for the next caller.
	got, err := b.AccessToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fresh-bearer", got)
}

func TestTokenSilentRefresh(t *testing.T) {
	var grantTypes []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		grantTypes = append(grantTypes, r.FormValue("grant_type"))
		assert.Equal(t, "refresh-1", r.FormValue("refresh_token"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token":"silent-bearer","token_type":"Bearer","expires_in":3600}`)
	}))
	defer srv.Close()

	b := newTestBroker()
	b.cfg.Endpoint = oauth2.Endpoint{TokenURL: srv.URL}
	b.cached = &oauth2.Token{
		AccessToken:  "stale-bearer",
		RefreshToken: "refresh-1",
		Expiry:       time.Now().Add(5 * time.Second),
	}
	interactive := false
	b.authorize = func(context.Context) (*oauth2.Token, error) {
		interactive = true
		return nil, errors.New("interactive flow must not run")
	}

	tok, err := b.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "silent-bearer", tok.AccessToken)
	assert.False(t, interactive, "a stored refresh token must keep the flow silent")
	assert.Equal(t, []string{"refresh_token"}, grantTypes)

	// The refresh response omitted the refresh token; the old one survives.
	assert.Equal(t, "refresh-1", b.cached.RefreshToken)
}

func TestTokenSingleFlight(t *testing.T) {
	b := newTestBroker()
	var calls atomic.Int32
	b.authorize = func(context.Context) (*oauth2.Token, error) {
		calls.Add(1)
		time.Sleep(50 * time.Millisecond)
		return &oauth2.Token{
			AccessToken: "fresh-bearer",
			Expiry:      time.Now().Add(time.Hour),
		}, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tok, err := b.Token(context.Background())
			assert.NoError(t, err)
			assert.Equal(t, "fresh-bearer", tok.AccessToken)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load(), "concurrent callers must share one authorization")
}

func TestTokenSurfacesAuthorizationError(t *testing.T) {
	b := newTestBroker()
	b.authorize = func(context.Context) (*oauth2.Token, error) {
		return nil, &AuthorizationError{Code: "access_denied", Description: "user declined"}
	}

	_, err := b.Token(context.Background())
	require.Error(t, err)

	var authErr *AuthorizationError
	require.True(t, errors.As(err, &authErr))
	assert.Equal(t, "access_denied", authErr.Code)
	assert.Contains(t, err.Error(), "user declined")
}

func TestStoreKeepsRefreshToken(t *testing.T) {
	b := newTestBroker()
	b.cached = &oauth2.Token{AccessToken: "old", RefreshToken: "refresh-1"}

	b.store(&oauth2.Token{AccessToken: "new", Expiry: time.Now().Add(time.Hour)})
	assert.Equal(t, "refresh-1", b.cached.RefreshToken)
	assert.Equal(t, "new", b.cached.AccessToken)
}

func TestNewBrokerFailsFastWithoutCredentials(t *testing.T) {
	_, err := NewBroker("/nonexistent/credentials.json", "/tmp/token.json", nil)
	require.Error(t, err)
}
