package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	apperrors "github.com/omarespejel/starknet-unity-clicker-demo/internal/errors"
	"github.com/omarespejel/starknet-unity-clicker-demo/internal/model"
	"github.com/omarespejel/starknet-unity-clicker-demo/internal/store"
	"github.com/omarespejel/starknet-unity-clicker-demo/internal/util"
)

// createRetries bounds the replace-expired-then-insert loop in CreateOrGet.
const createRetries = 3

// SessionService issues and validates session keys. It is the only component
// allowed to decide whether a presented key is trusted.
type SessionService struct {
	store      store.SessionStore
	policy     model.WorldPolicy
	sessionTTL time.Duration
}

func NewSessionService(st store.SessionStore, policy model.WorldPolicy, sessionTTL time.Duration) *SessionService {
	return &SessionService{
		store:      st,
		policy:     policy,
		sessionTTL: sessionTTL,
	}
}

// CreateOrGet returns the live session key for a player, creating one if none
// exists. Creation is idempotent: a second request for the same player
// returns the stored key unchanged. Expired keys are replaced.
func (s *SessionService) CreateOrGet(ctx context.Context, playerAddress string) (*model.SessionKey, error) {
	if playerAddress == "" {
		return nil, apperrors.MissingRequired("player")
	}

	for attempt := 0; attempt < createRetries; attempt++ {
		existing, err := s.store.Get(ctx, playerAddress)
		if err != nil {
			return nil, apperrors.Store(err)
		}
		if existing != nil && !existing.Expired(time.Now()) {
			return existing, nil
		}
		if existing != nil {
			if err := s.store.Delete(ctx, playerAddress); err != nil {
				return nil, apperrors.Store(err)
			}
		}

		key, err := s.newSessionKey(playerAddress)
		if err != nil {
			return nil, apperrors.Internal("Failed to generate session key").WithCause(err)
		}

		stored, created, err := s.store.PutIfAbsent(ctx, key)
		if err != nil {
			return nil, apperrors.Store(err)
		}
		if created {
			log.Info().
				Str("player", playerAddress).
				Time("expiresAt", stored.ExpiresAt).
				Msg("session key created")
			return stored, nil
		}
		// Lost a race. The winner's key is usually live; loop again only if
		// it happens to be expired already.
		if !stored.Expired(time.Now()) {
			return stored, nil
		}
	}

	return nil, apperrors.Internal(fmt.Sprintf("Could not create session key for %s", playerAddress))
}

// resolve reads the stored key once and compares it against the presented
// one. It fails closed: missing fields, an absent record, a secret mismatch,
// or an expired key all yield nil. Malformed input is invalid, never an
// error.
func (s *SessionService) resolve(ctx context.Context, presented model.PresentedKey) *model.SessionKey {
	if presented.PlayerAddress == "" || presented.Secret == "" {
		return nil
	}

	stored, err := s.store.Get(ctx, presented.PlayerAddress)
	if err != nil {
		log.Error().Err(err).Str("player", presented.PlayerAddress).Msg("session store read failed during validation")
		return nil
	}
	if stored == nil || stored.Expired(time.Now()) {
		return nil
	}
	if !util.ConstantTimeEqual(stored.Secret, presented.Secret) {
		return nil
	}
	return stored
}

// Validate reports whether the presented key matches the stored one.
func (s *SessionService) Validate(ctx context.Context, presented model.PresentedKey) bool {
	return s.resolve(ctx, presented) != nil
}

// Authorize validates the presented key and resolves its stored credential.
// Both happen against a single store read, so the returned record is always
// the one the secret was checked against.
func (s *SessionService) Authorize(ctx context.Context, presented model.PresentedKey) (*model.SessionKey, error) {
	stored := s.resolve(ctx, presented)
	if stored == nil {
		return nil, apperrors.InvalidSessionKey()
	}
	return stored, nil
}

func (s *SessionService) newSessionKey(playerAddress string) (*model.SessionKey, error) {
	secret, err := util.GenerateSecret()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	policies := make([]string, len(s.policy.Entrypoints))
	copy(policies, s.policy.Entrypoints)

	return &model.SessionKey{
		Secret:        secret,
		PlayerAddress: playerAddress,
		// Resolved when the service account executes on the player's behalf.
		AccountAddress: "pending",
		CreatedAt:      now,
		ExpiresAt:      now.Add(s.sessionTTL),
		Policies:       policies,
		Gasless:        true,
	}, nil
}
