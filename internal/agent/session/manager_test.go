package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"pokemcp/internal/identity"
	"pokemcp/internal/identity/identitytest"
)

var testNow = time.Unix(1_700_000_000, 0)

func fixedClock() time.Time { return testNow }

type fixture struct {
	backend *identitytest.Backend
	store   *CredentialStore
	manager *Manager
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	backend := identitytest.New()
	backend.Now = fixedClock
	store := newTestStore(t)

	manager, err := NewManager(Config{
		Backend: backend,
		Store:   store,
		Now:     fixedClock,
	})
	require.NoError(t, err)

	return &fixture{backend: backend, store: store, manager: manager}
}

func tokensResponse(access, refresh string, expiresAt int64, userID, email string) *identity.AuthResponse {
	return &identity.AuthResponse{
		Session: &identity.Tokens{AccessToken: access, RefreshToken: refresh, ExpiresAt: expiresAt},
		User:    &identity.User{ID: userID, Email: email},
	}
}

func TestNewManager(t *testing.T) {
	_, err := NewManager(Config{Store: newTestStore(t)})
	assert.Error(t, err)

	_, err = NewManager(Config{Backend: identitytest.New()})
	assert.Error(t, err)

	m, err := NewManager(Config{Backend: identitytest.New(), Store: newTestStore(t)})
	require.NoError(t, err)
	assert.Equal(t, DefaultRefreshBuffer, m.refreshBuffer)
	assert.Equal(t, DefaultTimeout, m.timeout)
	assert.Equal(t, StateUnauthenticated, m.State())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "unauthenticated", StateUnauthenticated.String())
	assert.Equal(t, "authenticated", StateAuthenticated.String())
	assert.Equal(t, "refreshing", StateRefreshing.String())
	assert.Equal(t, "unknown", State(42).String())
}

func TestManager_LoginThenCurrentToken(t *testing.T) {
	f := newFixture(t)
	f.backend.AddUser("ash@pallet.town", "pikachu")

	var issued string
	f.backend.SignInFunc = func(ctx context.Context, email, password string) (*identity.AuthResponse, error) {
		f.backend.SignInFunc = nil
		resp, err := f.backend.SignInWithPassword(ctx, email, password)
		if err == nil {
			issued = resp.Session.AccessToken
		}
		return resp, err
	}

	require.NoError(t, f.manager.Login(context.Background(), "ash@pallet.town", "pikachu"))
	assert.Equal(t, StateAuthenticated, f.manager.State())

	token, err := f.manager.CurrentToken(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, issued, token)
	assert.Equal(t, 0, f.backend.Calls(identitytest.OpRefresh))
}

func TestManager_LoginScenario(t *testing.T) {
	f := newFixture(t)
	f.backend.SignInFunc = func(ctx context.Context, email, password string) (*identity.AuthResponse, error) {
		if email != "a@x.com" || password != "p" {
			return nil, identity.ErrInvalidCredentials
		}
		return tokensResponse("T1", "R1", testNow.Unix()+3600, "user-a", "a@x.com"), nil
	}

	require.NoError(t, f.manager.Login(context.Background(), "a@x.com", "p"))

	data, err := os.ReadFile(f.store.Path())
	require.NoError(t, err)
	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, map[string]any{
		"access_token":  "T1",
		"refresh_token": "R1",
		"expires_at":    float64(testNow.Unix() + 3600),
		"user_id":       "user-a",
		"email":         "a@x.com",
	}, raw)

	token, err := f.manager.CurrentToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "T1", token)
}

func TestManager_ExpiredScenario(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.store.Save(&Session{
		AccessToken: "T1", RefreshToken: "R1", ExpiresAt: testNow.Unix() - 10, UserID: "user-a", Email: "a@x.com",
	}))

	f.backend.RefreshFunc = func(ctx context.Context, refreshToken string) (*identity.AuthResponse, error) {
		require.Equal(t, "R1", refreshToken)
		return tokensResponse("T2", "R2", testNow.Unix()+3600, "user-a", "a@x.com"), nil
	}

	token, err := f.manager.CurrentToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "T2", token)

	stored := f.store.Load()
	require.NotNil(t, stored)
	assert.Equal(t, "R2", stored.RefreshToken)
	assert.Equal(t, 1, f.backend.Calls(identitytest.OpRefresh))
	assert.Equal(t, StateAuthenticated, f.manager.State())
}

func TestManager_RefreshWithinBuffer(t *testing.T) {
	tests := []struct {
		name        string
		offset      int64
		wantRefresh int
	}{
		{name: "long expired", offset: -86400, wantRefresh: 1},
		{name: "just expired", offset: -10, wantRefresh: 1},
		{name: "expiring now", offset: 0, wantRefresh: 1},
		{name: "inside buffer", offset: 120, wantRefresh: 1},
		{name: "at buffer edge", offset: 300, wantRefresh: 1},
		{name: "just outside buffer", offset: 301, wantRefresh: 0},
		{name: "fresh", offset: 3600, wantRefresh: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			require.NoError(t, f.store.Save(&Session{
				AccessToken: "old", RefreshToken: "old-refresh", ExpiresAt: testNow.Unix() + tt.offset,
			}))
			f.backend.RefreshFunc = func(ctx context.Context, refreshToken string) (*identity.AuthResponse, error) {
				return tokensResponse("new", "new-refresh", testNow.Unix()+3600, "u", "e"), nil
			}

			token, err := f.manager.CurrentToken(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.wantRefresh, f.backend.Calls(identitytest.OpRefresh))
			if tt.wantRefresh == 1 {
				assert.Equal(t, "new", token)
			} else {
				assert.Equal(t, "old", token)
			}
		})
	}
}

func TestManager_RefreshFailureLeavesStoreUntouched(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{name: "rejected refresh token", err: identity.ErrInvalidToken},
		{name: "transport error", err: &identity.TransportError{Op: "refresh", Err: errors.New("connection refused")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			expired := &Session{
				AccessToken: "T1", RefreshToken: "R1", ExpiresAt: testNow.Unix() - 10, UserID: "u", Email: "a@x.com",
			}
			require.NoError(t, f.store.Save(expired))
			before, err := os.ReadFile(f.store.Path())
			require.NoError(t, err)

			f.backend.RefreshFunc = func(ctx context.Context, refreshToken string) (*identity.AuthResponse, error) {
				return nil, tt.err
			}

			token, err := f.manager.CurrentToken(context.Background())
			assert.Empty(t, token)
			assert.ErrorIs(t, err, ErrRefreshFailed)
			assert.ErrorIs(t, err, tt.err)
			assert.Equal(t, StateUnauthenticated, f.manager.State())

			after, err := os.ReadFile(f.store.Path())
			require.NoError(t, err)
			assert.Equal(t, before, after)
			assert.Equal(t, expired, f.store.Load())
		})
	}
}

func TestManager_RefreshMalformedResponse(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.store.Save(&Session{AccessToken: "T1", RefreshToken: "R1", ExpiresAt: testNow.Unix()}))

	f.backend.RefreshFunc = func(ctx context.Context, refreshToken string) (*identity.AuthResponse, error) {
		return &identity.AuthResponse{}, nil
	}

	_, err := f.manager.CurrentToken(context.Background())
	assert.ErrorIs(t, err, ErrRefreshFailed)
	assert.Equal(t, "T1", f.store.Load().AccessToken)
}

func TestManager_RefreshIsBounded(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.store.Save(&Session{AccessToken: "T1", RefreshToken: "R1", ExpiresAt: testNow.Unix() - 10}))

	// The provider keeps handing out sessions that are already stale.
	f.backend.RefreshFunc = func(ctx context.Context, refreshToken string) (*identity.AuthResponse, error) {
		return tokensResponse("stale", "R-stale", testNow.Unix()+60, "u", "e"), nil
	}

	_, err := f.manager.CurrentToken(context.Background())
	assert.ErrorIs(t, err, ErrRefreshFailed)
	assert.Equal(t, 1, f.backend.Calls(identitytest.OpRefresh))
}

func TestManager_RefreshWithoutRefreshToken(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.store.Save(&Session{AccessToken: "T1", ExpiresAt: testNow.Unix() - 10}))

	_, err := f.manager.CurrentToken(context.Background())
	assert.ErrorIs(t, err, ErrRefreshFailed)
	assert.Equal(t, 0, f.backend.Calls(identitytest.OpRefresh))
}

func TestManager_RefreshKeepsIdentityWhenResponseOmitsUser(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.store.Save(&Session{
		AccessToken: "T1", RefreshToken: "R1", ExpiresAt: testNow.Unix(), UserID: "user-a", Email: "a@x.com",
	}))
	f.backend.RefreshFunc = func(ctx context.Context, refreshToken string) (*identity.AuthResponse, error) {
		return &identity.AuthResponse{Session: &identity.Tokens{
			AccessToken: "T2", RefreshToken: "R2", ExpiresAt: testNow.Unix() + 3600,
		}}, nil
	}

	_, err := f.manager.CurrentToken(context.Background())
	require.NoError(t, err)

	stored := f.store.Load()
	assert.Equal(t, "user-a", stored.UserID)
	assert.Equal(t, "a@x.com", stored.Email)
}

func TestManager_ConcurrentRefreshSharesOneCall(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.store.Save(&Session{AccessToken: "T1", RefreshToken: "R1", ExpiresAt: testNow.Unix() - 10}))

	f.backend.RefreshFunc = func(ctx context.Context, refreshToken string) (*identity.AuthResponse, error) {
		if refreshToken != "R1" {
			return nil, identity.ErrInvalidToken
		}
		time.Sleep(20 * time.Millisecond)
		return tokensResponse("T2", "R2", testNow.Unix()+3600, "u", "e"), nil
	}

	const workers = 8
	var wg sync.WaitGroup
	tokens := make([]string, workers)
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tokens[i], errs[i] = f.manager.CurrentToken(context.Background())
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, "T2", tokens[i])
	}
	assert.Equal(t, 1, f.backend.Calls(identitytest.OpRefresh))
}

func TestManager_CurrentTokenWithoutSession(t *testing.T) {
	f := newFixture(t)

	token, err := f.manager.CurrentToken(context.Background())
	assert.Empty(t, token)
	assert.ErrorIs(t, err, ErrNotAuthenticated)
	assert.False(t, f.manager.IsAuthenticated(context.Background()))
}

func TestManager_LoginFailureKeepsExistingSession(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantReason string
	}{
		{name: "bad password", err: identity.ErrInvalidCredentials, wantReason: "invalid email or password"},
		{name: "unverified", err: identity.ErrEmailNotConfirmed, wantReason: "email address has not been confirmed yet"},
		{name: "unreachable", err: &identity.TransportError{Op: "sign in", Err: errors.New("dial tcp: timeout")}, wantReason: "identity provider is unreachable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			existing := &Session{AccessToken: "keep", RefreshToken: "keep-r", ExpiresAt: testNow.Unix() + 3600}
			require.NoError(t, f.store.Save(existing))

			f.backend.SignInFunc = func(ctx context.Context, email, password string) (*identity.AuthResponse, error) {
				return nil, tt.err
			}

			err := f.manager.Login(context.Background(), "a@x.com", "wrong")
			var loginErr *LoginError
			require.ErrorAs(t, err, &loginErr)
			assert.Equal(t, tt.wantReason, loginErr.Reason)
			assert.ErrorIs(t, err, tt.err)
			assert.Equal(t, existing, f.store.Load())
		})
	}
}

func TestManager_LoginMalformedResponse(t *testing.T) {
	f := newFixture(t)
	f.backend.SignInFunc = func(ctx context.Context, email, password string) (*identity.AuthResponse, error) {
		return &identity.AuthResponse{Session: &identity.Tokens{AccessToken: "T1"}}, nil
	}

	err := f.manager.Login(context.Background(), "a@x.com", "p")
	assert.ErrorIs(t, err, identity.ErrMalformedResponse)
	assert.Nil(t, f.store.Load())
}

func TestManager_SignUpDoesNotStoreSession(t *testing.T) {
	f := newFixture(t)

	user, err := f.manager.SignUp(context.Background(), "misty@cerulean.city", "starmie")
	require.NoError(t, err)
	assert.Equal(t, "misty@cerulean.city", user.Email)
	assert.Nil(t, f.store.Load())

	// Unverified accounts cannot log in yet.
	err = f.manager.Login(context.Background(), "misty@cerulean.city", "starmie")
	assert.ErrorIs(t, err, identity.ErrEmailNotConfirmed)

	f.backend.Confirm("misty@cerulean.city")
	require.NoError(t, f.manager.Login(context.Background(), "misty@cerulean.city", "starmie"))
	assert.NotNil(t, f.store.Load())
}

func TestManager_Logout(t *testing.T) {
	t.Run("signs out remotely and clears", func(t *testing.T) {
		f := newFixture(t)
		f.backend.AddUser("ash@pallet.town", "pikachu")
		require.NoError(t, f.manager.Login(context.Background(), "ash@pallet.town", "pikachu"))
		token := f.store.Load().AccessToken

		require.NoError(t, f.manager.Logout(context.Background()))
		assert.Nil(t, f.store.Load())
		assert.Equal(t, 1, f.backend.Calls(identitytest.OpSignOut))
		assert.Equal(t, StateUnauthenticated, f.manager.State())

		_, err := f.backend.Introspect(context.Background(), token)
		assert.ErrorIs(t, err, identity.ErrInvalidToken)
	})

	t.Run("clears even when remote sign-out fails", func(t *testing.T) {
		for _, signOutErr := range []error{
			identity.ErrInvalidToken,
			&identity.TransportError{Op: "sign out", Err: errors.New("connection reset")},
		} {
			f := newFixture(t)
			require.NoError(t, f.store.Save(&Session{AccessToken: "T1", RefreshToken: "R1", ExpiresAt: testNow.Unix() + 3600}))
			f.backend.SignOutFunc = func(ctx context.Context, accessToken string) error {
				assert.Equal(t, "T1", accessToken)
				return signOutErr
			}

			require.NoError(t, f.manager.Logout(context.Background()))
			assert.Nil(t, f.store.Load())
		}
	})

	t.Run("without session", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.manager.Logout(context.Background()))
		assert.Equal(t, 0, f.backend.Calls(identitytest.OpSignOut))
	})
}

func TestManager_UserInfoNeverRefreshes(t *testing.T) {
	f := newFixture(t)
	assert.Nil(t, f.manager.UserInfo())

	require.NoError(t, f.store.Save(&Session{
		AccessToken: "T1", RefreshToken: "R1", ExpiresAt: testNow.Unix() - 10, UserID: "user-a", Email: "a@x.com",
	}))

	info := f.manager.UserInfo()
	require.NotNil(t, info)
	assert.Equal(t, "user-a", info.UserID)
	assert.Equal(t, "a@x.com", info.Email)
	assert.True(t, info.HasToken)
	assert.True(t, info.Expired)
	assert.Equal(t, testNow.Unix()-10, info.ExpiresAt.Unix())
	assert.Equal(t, 0, f.backend.Calls(identitytest.OpRefresh))
}

func TestManager_TokenSourceAttachesBearer(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.store.Save(&Session{AccessToken: "T1", RefreshToken: "R1", ExpiresAt: testNow.Unix() + 3600}))

	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
	}))
	defer server.Close()

	client := &http.Client{Transport: &oauth2.Transport{Source: f.manager.TokenSource(context.Background())}}
	resp, err := client.Get(server.URL)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "Bearer T1", gotAuth)

	tok, err := f.manager.TokenSource(context.Background()).Token()
	require.NoError(t, err)
	assert.Equal(t, testNow.Unix()+3600, tok.Expiry.Unix())

	require.NoError(t, f.store.Clear())
	_, err = f.manager.TokenSource(context.Background()).Token()
	assert.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestManager_ForcedRefresh(t *testing.T) {
	t.Run("renews a session that is not yet due", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.store.Save(&Session{
			AccessToken: "T1", RefreshToken: "R1", ExpiresAt: testNow.Unix() + 3600, UserID: "u", Email: "a@x.com",
		}))
		f.backend.RefreshFunc = func(ctx context.Context, refreshToken string) (*identity.AuthResponse, error) {
			return tokensResponse("T2", "R2", testNow.Unix()+7200, "u", "a@x.com"), nil
		}

		require.NoError(t, f.manager.Refresh(context.Background()))
		assert.Equal(t, "T2", f.store.Load().AccessToken)
		assert.Equal(t, StateAuthenticated, f.manager.State())
	})

	t.Run("failure keeps a still valid session usable", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.store.Save(&Session{
			AccessToken: "T1", RefreshToken: "R1", ExpiresAt: testNow.Unix() + 3600, UserID: "u",
		}))
		f.backend.RefreshFunc = func(ctx context.Context, refreshToken string) (*identity.AuthResponse, error) {
			return nil, identity.ErrInvalidToken
		}

		err := f.manager.Refresh(context.Background())
		assert.ErrorIs(t, err, ErrRefreshFailed)
		assert.Equal(t, "T1", f.store.Load().AccessToken)
		assert.Equal(t, StateAuthenticated, f.manager.State())
	})

	t.Run("without a session", func(t *testing.T) {
		f := newFixture(t)
		assert.ErrorIs(t, f.manager.Refresh(context.Background()), ErrNotAuthenticated)
		assert.Equal(t, 0, f.backend.Calls(identitytest.OpRefresh))
	})
}
