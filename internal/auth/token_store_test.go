package auth

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenStore_IssueAndValidate(t *testing.T) {
	ts := NewTokenStore()
	defer ts.Stop()

	ac := NewCredentialContext("a@b.com", "x", "", "", "")

	token, err := ts.Issue(ac)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	got, ok := ts.Validate(token)
	require.True(t, ok)
	assert.Equal(t, ac, got)
}

func TestTokenStore_ValidateNeverIssued(t *testing.T) {
	ts := NewTokenStore()
	defer ts.Stop()

	_, ok := ts.Validate("not-a-token")
	assert.False(t, ok)
}

func TestTokenStore_ValidateExpired(t *testing.T) {
	ts := NewTokenStore()
	defer ts.Stop()

	// Issue with an already-elapsed TTL so the entry is stale immediately.
	ts.ttl = -time.Second
	token, err := ts.Issue(NewCredentialContext("a@b.com", "x", "", "", ""))
	require.NoError(t, err)

	_, ok := ts.Validate(token)
	assert.False(t, ok)

	// Lazy eviction removed the stale entry.
	assert.Equal(t, 0, ts.Count())
}

func TestTokenStore_TokensAreUnique(t *testing.T) {
	ts := NewTokenStore()
	defer ts.Stop()

	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		token, err := ts.Issue(NewCredentialContext("a@b.com", "x", "", "", ""))
		require.NoError(t, err)
		require.False(t, seen[token], "token issued twice")
		seen[token] = true
	}
}

func TestTokenStore_ConcurrentAccess(t *testing.T) {
	ts := NewTokenStore()
	defer ts.Stop()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				token, err := ts.Issue(NewOAuthContext("at", "rt"))
				if err != nil {
					t.Error(err)
					return
				}
				if _, ok := ts.Validate(token); !ok {
					t.Error("freshly issued token did not validate")
					return
				}
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 20*50, ts.Count())
}

func TestTokenStore_Cleanup(t *testing.T) {
	ts := NewTokenStore()
	defer ts.Stop()

	ts.ttl = -time.Second
	for i := 0; i < 5; i++ {
		_, err := ts.Issue(NewCredentialContext("a@b.com", "x", "", "", ""))
		require.NoError(t, err)
	}
	require.Equal(t, 5, ts.Count())

	ts.cleanup()
	assert.Equal(t, 0, ts.Count())
}
