package session

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *CredentialStore {
	t.Helper()
	store, err := NewCredentialStore(filepath.Join(t.TempDir(), "pokemcp", "session.json"))
	require.NoError(t, err)
	return store
}

func TestNewCredentialStore_DefaultPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	store, err := NewCredentialStore("")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, DefaultTokenFile), store.Path())
}

func TestCredentialStore_RoundTrip(t *testing.T) {
	store := newTestStore(t)

	want := &Session{
		AccessToken:  "access",
		RefreshToken: "refresh",
		ExpiresAt:    1_700_003_600,
		UserID:       "user-1",
		Email:        "a@x.com",
	}
	require.NoError(t, store.Save(want))

	got := store.Load()
	require.NotNil(t, got)
	assert.Equal(t, want, got)
}

func TestCredentialStore_Permissions(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Save(&Session{AccessToken: "a", RefreshToken: "r", ExpiresAt: 1}))

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	dirInfo, err := os.Stat(filepath.Dir(store.Path()))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0700), dirInfo.Mode().Perm())
}

func TestCredentialStore_TightensExistingPermissions(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(store.Path()), 0700))
	require.NoError(t, os.WriteFile(store.Path(), []byte("{}"), 0644))

	require.NoError(t, store.Save(&Session{AccessToken: "a", ExpiresAt: 1}))

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestCredentialStore_SaveOverwritesWholesale(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Save(&Session{
		AccessToken: "old", RefreshToken: "old-refresh", ExpiresAt: 10, UserID: "u1", Email: "a@x.com",
	}))
	require.NoError(t, store.Save(&Session{AccessToken: "new", ExpiresAt: 20}))

	got := store.Load()
	require.NotNil(t, got)
	assert.Equal(t, &Session{AccessToken: "new", ExpiresAt: 20}, got)

	entries, err := os.ReadDir(filepath.Dir(store.Path()))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must not be left behind")
}

func TestCredentialStore_SaveRejectsInvalid(t *testing.T) {
	store := newTestStore(t)

	assert.Error(t, store.Save(&Session{RefreshToken: "r", ExpiresAt: 10}))
	assert.Error(t, store.Save(&Session{AccessToken: "a"}))
	assert.Error(t, store.Save(nil))

	_, err := os.Stat(store.Path())
	assert.True(t, os.IsNotExist(err))
}

func TestCredentialStore_LoadFailsSoft(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "malformed JSON", content: "{not json"},
		{name: "empty file", content: ""},
		{name: "missing access token", content: `{"refresh_token":"r","expires_at":1700000000}`},
		{name: "missing expiry", content: `{"access_token":"a","refresh_token":"r"}`},
		{name: "expiry of wrong type", content: `{"access_token":"a","expires_at":"tomorrow"}`},
		{name: "JSON array", content: `[]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newTestStore(t)
			require.NoError(t, os.MkdirAll(filepath.Dir(store.Path()), 0700))
			require.NoError(t, os.WriteFile(store.Path(), []byte(tt.content), 0600))

			assert.Nil(t, store.Load())
		})
	}

	t.Run("missing file", func(t *testing.T) {
		assert.Nil(t, newTestStore(t).Load())
	})

	t.Run("path is a directory", func(t *testing.T) {
		store := newTestStore(t)
		require.NoError(t, os.MkdirAll(store.Path(), 0700))
		assert.Nil(t, store.Load())
	})
}

func TestCredentialStore_MalformedFileHealsOnSave(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(store.Path()), 0700))
	require.NoError(t, os.WriteFile(store.Path(), []byte("garbage"), 0600))
	require.Nil(t, store.Load())

	require.NoError(t, store.Save(&Session{AccessToken: "a", ExpiresAt: 5}))
	assert.NotNil(t, store.Load())
}

func TestCredentialStore_Clear(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Save(&Session{AccessToken: "a", ExpiresAt: 5}))

	require.NoError(t, store.Clear())
	assert.Nil(t, store.Load())

	// Idempotent
	require.NoError(t, store.Clear())
}

func TestCredentialStore_FileFormat(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Save(&Session{
		AccessToken: "T1", RefreshToken: "R1", ExpiresAt: 1_700_003_600, UserID: "u1", Email: "a@x.com",
	}))

	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, map[string]any{
		"access_token":  "T1",
		"refresh_token": "R1",
		"expires_at":    float64(1_700_003_600),
		"user_id":       "u1",
		"email":         "a@x.com",
	}, raw)
}
