package store

import (
	"time"

	"github.com/preludehq/leaddesk/internal/cache"
)

const (
	ProviderGoogle    = "google"
	ProviderMicrosoft = "microsoft"

	// OAuth access tokens outlive our interest in them; an hour matches the
	// upstream expiry closely enough that we never hand out a dead token.
	tokenTTL = time.Hour
)

// providerKeys maps a provider to its current cache key plus the legacy key
// older installs wrote. Saves write both so downgrades keep working; loads
// try current first.
var providerKeys = map[string][2]string{
	ProviderGoogle:    {"google_access_token", "gcal_access_token"},
	ProviderMicrosoft: {"microsoft_access_token", "outlook_access_token"},
}

// TokenStore keeps per-provider OAuth access tokens in the data cache so a
// reply sync can run without the client resending the token every time.
type TokenStore struct {
	cache     *cache.Cache
	userEmail string
}

func NewTokenStore(c *cache.Cache, userEmail string) *TokenStore {
	return &TokenStore{cache: c, userEmail: userEmail}
}

func (t *TokenStore) Save(provider, token string) {
	keys, ok := providerKeys[provider]
	if !ok || token == "" {
		return
	}
	t.cache.Set(keys[0], token, t.userEmail)
	t.cache.Set(keys[1], token, t.userEmail)
}

// Load returns the stored token for a provider, or false when none is cached
// or it has expired.
func (t *TokenStore) Load(provider string) (string, bool) {
	keys, ok := providerKeys[provider]
	if !ok {
		return "", false
	}
	var token string
	for _, k := range keys {
		if t.cache.Get(k, tokenTTL, t.userEmail, &token) && token != "" {
			return token, true
		}
	}
	return "", false
}

func (t *TokenStore) Clear(provider string) {
	keys, ok := providerKeys[provider]
	if !ok {
		return
	}
	t.cache.Clear(keys[0], t.userEmail)
	t.cache.Clear(keys[1], t.userEmail)
}
