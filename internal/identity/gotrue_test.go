package identity_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pokemcp/internal/identity"
	"pokemcp/internal/identity/identitytest"
)

const testAPIKey = "anon-key"

func newTestClient(t *testing.T, backend *identitytest.Backend) *identity.GoTrueClient {
	t.Helper()

	backend.APIKey = testAPIKey
	server := httptest.NewServer(backend.Handler())
	t.Cleanup(server.Close)

	client, err := identity.NewGoTrueClient(identity.Config{
		URL:     server.URL,
		APIKey:  testAPIKey,
		Timeout: 5 * time.Second,
	})
	require.NoError(t, err)
	return client
}

func TestNewGoTrueClient(t *testing.T) {
	t.Run("requires URL", func(t *testing.T) {
		_, err := identity.NewGoTrueClient(identity.Config{APIKey: "k"})
		assert.Error(t, err)
	})

	t.Run("requires API key", func(t *testing.T) {
		_, err := identity.NewGoTrueClient(identity.Config{URL: "https://example.supabase.co"})
		assert.Error(t, err)
	})

	t.Run("accepts trailing slash", func(t *testing.T) {
		client, err := identity.NewGoTrueClient(identity.Config{URL: "https://example.supabase.co/", APIKey: "k"})
		require.NoError(t, err)
		assert.NotNil(t, client)
	})
}

func TestGoTrueClient_SignInWithPassword(t *testing.T) {
	ctx := context.Background()

	t.Run("returns session and user", func(t *testing.T) {
		backend := identitytest.New()
		user := backend.AddUser("ash@pallet.town", "pikachu")
		client := newTestClient(t, backend)

		resp, err := client.SignInWithPassword(ctx, "ash@pallet.town", "pikachu")
		require.NoError(t, err)
		require.NotNil(t, resp.Session)
		require.NotNil(t, resp.User)

		assert.NotEmpty(t, resp.Session.AccessToken)
		assert.NotEmpty(t, resp.Session.RefreshToken)
		assert.Greater(t, resp.Session.ExpiresAt, time.Now().Unix())
		assert.Equal(t, user.ID, resp.User.ID)
		assert.Equal(t, "ash@pallet.town", resp.User.Email)
	})

	t.Run("wrong password is a credential error", func(t *testing.T) {
		backend := identitytest.New()
		backend.AddUser("ash@pallet.town", "pikachu")
		client := newTestClient(t, backend)

		_, err := client.SignInWithPassword(ctx, "ash@pallet.town", "raichu")
		require.Error(t, err)
		assert.ErrorIs(t, err, identity.ErrInvalidCredentials)
		assert.False(t, identity.IsTransportError(err))
	})

	t.Run("unconfirmed email", func(t *testing.T) {
		backend := identitytest.New()
		client := newTestClient(t, backend)

		_, err := client.SignUp(ctx, "misty@cerulean.city", "starmie")
		require.NoError(t, err)

		_, err = client.SignInWithPassword(ctx, "misty@cerulean.city", "starmie")
		assert.ErrorIs(t, err, identity.ErrEmailNotConfirmed)
	})

	t.Run("missing API key is rejected", func(t *testing.T) {
		backend := identitytest.New()
		backend.AddUser("ash@pallet.town", "pikachu")
		backend.APIKey = testAPIKey
		server := httptest.NewServer(backend.Handler())
		defer server.Close()

		client, err := identity.NewGoTrueClient(identity.Config{URL: server.URL, APIKey: "wrong"})
		require.NoError(t, err)

		_, err = client.SignInWithPassword(ctx, "ash@pallet.town", "pikachu")
		assert.Error(t, err)
		assert.Equal(t, 0, backend.Calls(identitytest.OpSignIn))
	})
}

func TestGoTrueClient_SignUp(t *testing.T) {
	backend := identitytest.New()
	client := newTestClient(t, backend)

	user, err := client.SignUp(context.Background(), "brock@pewter.city", "onix")
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "brock@pewter.city", user.Email)

	_, err = client.SignUp(context.Background(), "brock@pewter.city", "onix")
	var apiErr *identity.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.StatusCode)
}

func TestGoTrueClient_Refresh(t *testing.T) {
	ctx := context.Background()
	backend := identitytest.New()
	backend.AddUser("ash@pallet.town", "pikachu")
	client := newTestClient(t, backend)

	first, err := client.SignInWithPassword(ctx, "ash@pallet.town", "pikachu")
	require.NoError(t, err)

	second, err := client.Refresh(ctx, first.Session.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, first.Session.AccessToken, second.Session.AccessToken)
	assert.NotEqual(t, first.Session.RefreshToken, second.Session.RefreshToken)

	// Refresh tokens are single use.
	_, err = client.Refresh(ctx, first.Session.RefreshToken)
	assert.ErrorIs(t, err, identity.ErrInvalidToken)

	_, err = client.Refresh(ctx, "")
	assert.ErrorIs(t, err, identity.ErrInvalidToken)
}

func TestGoTrueClient_Introspect(t *testing.T) {
	ctx := context.Background()
	backend := identitytest.New()
	user := backend.AddUser("ash@pallet.town", "pikachu")
	client := newTestClient(t, backend)

	resp, err := client.SignInWithPassword(ctx, "ash@pallet.town", "pikachu")
	require.NoError(t, err)

	got, err := client.Introspect(ctx, resp.Session.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.Equal(t, user.Email, got.Email)
	assert.Equal(t, user.CreatedAt.Unix(), got.CreatedAt.Unix())

	_, err = client.Introspect(ctx, "not-a-token")
	assert.ErrorIs(t, err, identity.ErrInvalidToken)

	require.NoError(t, client.SignOut(ctx, resp.Session.AccessToken))
	_, err = client.Introspect(ctx, resp.Session.AccessToken)
	assert.ErrorIs(t, err, identity.ErrInvalidToken)
}

func TestGoTrueClient_TransportErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("server error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "upstream down", http.StatusBadGateway)
		}))
		defer server.Close()

		client, err := identity.NewGoTrueClient(identity.Config{URL: server.URL, APIKey: testAPIKey})
		require.NoError(t, err)

		_, err = client.Introspect(ctx, "token")
		require.Error(t, err)
		assert.True(t, identity.IsTransportError(err))
		assert.False(t, errors.Is(err, identity.ErrInvalidToken))
	})

	t.Run("non JSON body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("<html>captive portal</html>"))
		}))
		defer server.Close()

		client, err := identity.NewGoTrueClient(identity.Config{URL: server.URL, APIKey: testAPIKey})
		require.NoError(t, err)

		_, err = client.SignInWithPassword(ctx, "a@x.com", "p")
		assert.True(t, identity.IsTransportError(err))
		assert.ErrorIs(t, err, identity.ErrMalformedResponse)
	})

	t.Run("unreachable", func(t *testing.T) {
		server := httptest.NewServer(http.NotFoundHandler())
		url := server.URL
		server.Close()

		client, err := identity.NewGoTrueClient(identity.Config{URL: url, APIKey: testAPIKey, Timeout: time.Second})
		require.NoError(t, err)

		_, err = client.Refresh(ctx, "refresh")
		assert.True(t, identity.IsTransportError(err))
	})
}

func TestGoTrueClient_ExpiresInOnly(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"T1","refresh_token":"R1","token_type":"bearer","expires_in":3600,"user":{"id":"u1","email":"a@x.com"}}`))
	}))
	defer server.Close()

	fixed := time.Unix(1_700_000_000, 0)
	client, err := identity.NewGoTrueClient(
		identity.Config{URL: server.URL, APIKey: testAPIKey},
		identity.WithClock(func() time.Time { return fixed }),
	)
	require.NoError(t, err)

	resp, err := client.SignInWithPassword(context.Background(), "a@x.com", "p")
	require.NoError(t, err)
	assert.Equal(t, fixed.Unix()+3600, resp.Session.ExpiresAt)
	assert.Equal(t, "u1", resp.User.ID)
}
