package store

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/preludehq/leaddesk/internal/cache"
)

func TestTokenStoreWritesBothKeySpellings(t *testing.T) {
	c := cache.New(cache.NewMemoryStorage(0))
	ts := NewTokenStore(c, "alice@example.test")

	ts.Save(ProviderGoogle, "tok-123")

	var viaLegacy string
	assert.True(t, c.Get("gcal_access_token", tokenTTL, "alice@example.test", &viaLegacy))
	assert.Equal(t, "tok-123", viaLegacy)

	got, ok := ts.Load(ProviderGoogle)
	assert.True(t, ok)
	assert.Equal(t, "tok-123", got)
}

func TestTokenStoreFallsBackToLegacyKey(t *testing.T) {
	c := cache.New(cache.NewMemoryStorage(0))
	ts := NewTokenStore(c, "alice@example.test")

	// Simulate an entry written by an older install under the legacy key only.
	c.Set("outlook_access_token", "legacy-tok", "alice@example.test")

	got, ok := ts.Load(ProviderMicrosoft)
	assert.True(t, ok)
	assert.Equal(t, "legacy-tok", got)
}

func TestTokenStoreIgnoresUnknownProvider(t *testing.T) {
	c := cache.New(cache.NewMemoryStorage(0))
	ts := NewTokenStore(c, "")

	ts.Save("yahoo", "tok")
	_, ok := ts.Load("yahoo")
	assert.False(t, ok)
}

func TestTokenStoreClear(t *testing.T) {
	c := cache.New(cache.NewMemoryStorage(0))
	ts := NewTokenStore(c, "alice@example.test")

	ts.Save(ProviderGoogle, "tok-123")
	ts.Clear(ProviderGoogle)

	_, ok := ts.Load(ProviderGoogle)
	assert.False(t, ok)
}
