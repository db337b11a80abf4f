package auth_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matchpoint-app/matchpoint-go/auth"
	"github.com/matchpoint-app/matchpoint-go/models"
)

func tempStore(t *testing.T) *auth.Store {
	t.Helper()
	return auth.NewStore(filepath.Join(t.TempDir(), "nested", "credentials.json"))
}

func TestStore_LoadMissingFileIsEmpty(t *testing.T) {
	store := tempStore(t)

	creds, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, creds.Token)
	assert.Nil(t, creds.User)
	assert.False(t, creds.OnboardingComplete)
}

func TestStore_SaveRoundTrip(t *testing.T) {
	store := tempStore(t)

	in := &auth.Credentials{
		Token:              "tok123",
		RefreshToken:       "refresh456",
		User:               &models.User{ID: "u1", FirstName: "Alex"},
		OnboardingComplete: true,
	}
	require.NoError(t, store.Save(in))

	out, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestStore_SaveRestrictsPermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	store := auth.NewStore(path)
	require.NoError(t, store.Save(&auth.Credentials{Token: "tok"}))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestStore_ClearIsIdempotent(t *testing.T) {
	store := tempStore(t)
	require.NoError(t, store.Save(&auth.Credentials{Token: "tok"}))

	require.NoError(t, store.Clear())
	require.NoError(t, store.Clear())

	creds, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, creds.Token)
}

func TestStore_LoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o600))

	_, err := auth.NewStore(path).Load()
	assert.Error(t, err)
}

func TestManager_SignInSignOutLifecycle(t *testing.T) {
	store := tempStore(t)
	mgr, err := auth.NewManager(store)
	require.NoError(t, err)
	assert.False(t, mgr.Authenticated())

	require.NoError(t, mgr.SignIn("tok123", "refresh456", models.User{ID: "u1", FirstName: "Alex"}))
	assert.True(t, mgr.Authenticated())
	assert.Equal(t, "tok123", mgr.Token())
	assert.Equal(t, "u1", mgr.User().ID)

	// persisted: a fresh manager on the same store sees the session
	again, err := auth.NewManager(store)
	require.NoError(t, err)
	assert.True(t, again.Authenticated())

	var hookFired bool
	mgr.SetSignOutHook(func() { hookFired = true })
	require.NoError(t, mgr.SignOut())
	assert.False(t, mgr.Authenticated())
	assert.Empty(t, mgr.Token())
	assert.True(t, hookFired)
}

func TestManager_OnboardingSurvivesSignOut(t *testing.T) {
	store := tempStore(t)
	mgr, err := auth.NewManager(store)
	require.NoError(t, err)

	require.NoError(t, mgr.SignIn("tok", "", models.User{ID: "u1"}))
	require.NoError(t, mgr.CompleteOnboarding())
	require.NoError(t, mgr.SignOut())

	assert.True(t, mgr.OnboardingComplete())

	again, err := auth.NewManager(store)
	require.NoError(t, err)
	assert.True(t, again.OnboardingComplete())
	assert.False(t, again.Authenticated())
}

func TestManager_ForceSignOutDropsCredentials(t *testing.T) {
	store := tempStore(t)
	mgr, err := auth.NewManager(store)
	require.NoError(t, err)
	require.NoError(t, mgr.SignIn("tok", "", models.User{ID: "u1"}))

	var hookFired bool
	mgr.SetSignOutHook(func() { hookFired = true })
	mgr.ForceSignOut()

	assert.False(t, mgr.Authenticated())
	assert.True(t, hookFired)
}

func TestManager_TokenStale(t *testing.T) {
	signed := func(exp time.Time) string {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"sub": "u1",
			"exp": exp.Unix(),
		})
		s, err := token.SignedString([]byte("test-secret"))
		require.NoError(t, err)
		return s
	}

	store := tempStore(t)
	mgr, err := auth.NewManager(store)
	require.NoError(t, err)

	// signed out: nothing usable
	assert.True(t, mgr.TokenStale())

	require.NoError(t, mgr.SignIn(signed(time.Now().Add(time.Hour)), "", models.User{ID: "u1"}))
	assert.False(t, mgr.TokenStale())

	require.NoError(t, mgr.SignIn(signed(time.Now().Add(-time.Hour)), "", models.User{ID: "u1"}))
	assert.True(t, mgr.TokenStale())

	// opaque tokens are treated as non-expiring
	require.NoError(t, mgr.SignIn("not-a-jwt", "", models.User{ID: "u1"}))
	assert.False(t, mgr.TokenStale())
}

func TestManager_TokenStaleWithoutExpClaim(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "u1"})
	s, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)

	store := tempStore(t)
	mgr, err := auth.NewManager(store)
	require.NoError(t, err)
	require.NoError(t, mgr.SignIn(s, "", models.User{ID: "u1"}))

	assert.False(t, mgr.TokenStale())
}
