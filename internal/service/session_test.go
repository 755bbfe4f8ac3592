package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/omarespejel/starknet-unity-clicker-demo/internal/errors"
	"github.com/omarespejel/starknet-unity-clicker-demo/internal/model"
	"github.com/omarespejel/starknet-unity-clicker-demo/internal/store"
)

const testWorldAddress = "0x036a97624274017898f269fa20ba5f44d0b586e7d0ec1ebef98b8d76926c1bed"

// swappingStore swaps in a replacement key after every read, simulating a
// concurrent replacement between a secret check and a re-read.
type swappingStore struct {
	store.SessionStore
	replacement *model.SessionKey
	reads       int
}

func (s *swappingStore) Get(ctx context.Context, playerAddress string) (*model.SessionKey, error) {
	s.reads++
	key, err := s.SessionStore.Get(ctx, playerAddress)
	if err == nil && s.replacement != nil {
		if derr := s.SessionStore.Delete(ctx, playerAddress); derr == nil {
			s.SessionStore.PutIfAbsent(ctx, s.replacement)
		}
	}
	return key, err
}

func newTestSessionService(ttl time.Duration) (*SessionService, *store.MemoryStore) {
	st := store.NewMemoryStore()
	policy := model.NewWorldPolicy(testWorldAddress)
	return NewSessionService(st, policy, ttl), st
}

func TestCreateOrGet(t *testing.T) {
	ctx := context.Background()

	t.Run("creates a key with policy capabilities", func(t *testing.T) {
		svc, _ := newTestSessionService(24 * time.Hour)

		key, err := svc.CreateOrGet(ctx, "0xABC")
		require.NoError(t, err)

		assert.Equal(t, "0xABC", key.PlayerAddress)
		assert.NotEmpty(t, key.Secret)
		assert.Equal(t, "pending", key.AccountAddress)
		assert.True(t, key.Gasless)
		assert.Equal(t, []string{model.SystemClick, model.SystemBuyUpgrade}, key.Policies)
		assert.WithinDuration(t, time.Now().Add(24*time.Hour), key.ExpiresAt, time.Minute)
	})

	t.Run("is idempotent", func(t *testing.T) {
		svc, st := newTestSessionService(24 * time.Hour)

		first, err := svc.CreateOrGet(ctx, "0xABC")
		require.NoError(t, err)
		second, err := svc.CreateOrGet(ctx, "0xABC")
		require.NoError(t, err)

		assert.Equal(t, first.Secret, second.Secret)
		assert.Equal(t, 1, st.Len())
	})

	t.Run("rejects empty player address", func(t *testing.T) {
		svc, _ := newTestSessionService(24 * time.Hour)

		_, err := svc.CreateOrGet(ctx, "")
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrCodeMissingRequired, apperrors.GetCode(err))
	})

	t.Run("replaces an expired key", func(t *testing.T) {
		svc, _ := newTestSessionService(10 * time.Millisecond)

		first, err := svc.CreateOrGet(ctx, "0xABC")
		require.NoError(t, err)

		time.Sleep(20 * time.Millisecond)

		second, err := svc.CreateOrGet(ctx, "0xABC")
		require.NoError(t, err)
		assert.NotEqual(t, first.Secret, second.Secret)
	})

	t.Run("concurrent creations converge on one key", func(t *testing.T) {
		svc, st := newTestSessionService(24 * time.Hour)
		const n = 50

		var wg sync.WaitGroup
		secrets := make([]string, n)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				key, err := svc.CreateOrGet(ctx, "0xABC")
				require.NoError(t, err)
				secrets[i] = key.Secret
			}(i)
		}
		wg.Wait()

		assert.Equal(t, 1, st.Len())
		for i := 1; i < n; i++ {
			assert.Equal(t, secrets[0], secrets[i])
		}
	})
}

func TestValidate(t *testing.T) {
	ctx := context.Background()

	t.Run("accepts the issued key", func(t *testing.T) {
		svc, _ := newTestSessionService(24 * time.Hour)
		key, err := svc.CreateOrGet(ctx, "0xABC")
		require.NoError(t, err)

		assert.True(t, svc.Validate(ctx, model.PresentedKey{
			PlayerAddress: key.PlayerAddress,
			Secret:        key.Secret,
		}))
	})

	t.Run("fails closed", func(t *testing.T) {
		svc, _ := newTestSessionService(24 * time.Hour)
		key, err := svc.CreateOrGet(ctx, "0xABC")
		require.NoError(t, err)

		cases := map[string]model.PresentedKey{
			"empty":          {},
			"missing secret": {PlayerAddress: "0xABC"},
			"missing player": {Secret: key.Secret},
			"unknown player": {PlayerAddress: "0xDEF", Secret: key.Secret},
			"wrong secret":   {PlayerAddress: "0xABC", Secret: "0xdeadbeef"},
			"swapped fields": {PlayerAddress: key.Secret, Secret: "0xABC"},
		}
		for name, presented := range cases {
			t.Run(name, func(t *testing.T) {
				assert.False(t, svc.Validate(ctx, presented))
			})
		}
	})

	t.Run("rejects an expired key", func(t *testing.T) {
		svc, _ := newTestSessionService(10 * time.Millisecond)
		key, err := svc.CreateOrGet(ctx, "0xABC")
		require.NoError(t, err)

		time.Sleep(20 * time.Millisecond)

		assert.False(t, svc.Validate(ctx, model.PresentedKey{
			PlayerAddress: key.PlayerAddress,
			Secret:        key.Secret,
		}))
	})
}

func TestAuthorize(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the stored key after validation", func(t *testing.T) {
		svc, _ := newTestSessionService(24 * time.Hour)
		issued, err := svc.CreateOrGet(ctx, "0xABC")
		require.NoError(t, err)

		key, err := svc.Authorize(ctx, model.PresentedKey{
			PlayerAddress: issued.PlayerAddress,
			Secret:        issued.Secret,
		})
		require.NoError(t, err)
		assert.Equal(t, issued.Secret, key.Secret)
		assert.Equal(t, issued.Policies, key.Policies)
	})

	t.Run("resolves against the same read it validated", func(t *testing.T) {
		st := store.NewMemoryStore()
		policy := model.NewWorldPolicy(testWorldAddress)
		svc := NewSessionService(st, policy, 24*time.Hour)

		issued, err := svc.CreateOrGet(ctx, "0xABC")
		require.NoError(t, err)

		replacement := *issued
		replacement.Secret = "0xreplaced"
		swapping := &swappingStore{SessionStore: st, replacement: &replacement}
		svc = NewSessionService(swapping, policy, 24*time.Hour)

		key, err := svc.Authorize(ctx, model.PresentedKey{
			PlayerAddress: issued.PlayerAddress,
			Secret:        issued.Secret,
		})
		require.NoError(t, err)
		assert.Equal(t, issued.Secret, key.Secret)
		assert.Equal(t, 1, swapping.reads)
	})

	t.Run("rejects a player that never created a session", func(t *testing.T) {
		svc, _ := newTestSessionService(24 * time.Hour)

		_, err := svc.Authorize(ctx, model.PresentedKey{
			PlayerAddress: "0xNEVER",
			Secret:        "0xsecret",
		})
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrCodeInvalidSession, apperrors.GetCode(err))
	})
}
