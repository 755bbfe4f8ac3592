package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/omarespejel/starknet-unity-clicker-demo/internal/model"
)

const redisKeyPrefix = "sessionkey:"

// redisSessionKey is the persisted form. The model keeps its secret out of
// JSON entirely, so persistence carries its own tags.
type redisSessionKey struct {
	Secret         string    `json:"secret"`
	PlayerAddress  string    `json:"playerAddress"`
	AccountAddress string    `json:"accountAddress"`
	CreatedAt      time.Time `json:"createdAt"`
	ExpiresAt      time.Time `json:"expiresAt"`
	Policies       []string  `json:"policies"`
	Gasless        bool      `json:"gasless"`
}

func toRedisSessionKey(k *model.SessionKey) redisSessionKey {
	return redisSessionKey{
		Secret:         k.Secret,
		PlayerAddress:  k.PlayerAddress,
		AccountAddress: k.AccountAddress,
		CreatedAt:      k.CreatedAt,
		ExpiresAt:      k.ExpiresAt,
		Policies:       k.Policies,
		Gasless:        k.Gasless,
	}
}

func (r redisSessionKey) toModel() *model.SessionKey {
	return &model.SessionKey{
		Secret:         r.Secret,
		PlayerAddress:  r.PlayerAddress,
		AccountAddress: r.AccountAddress,
		CreatedAt:      r.CreatedAt,
		ExpiresAt:      r.ExpiresAt,
		Policies:       r.Policies,
		Gasless:        r.Gasless,
	}
}

// RedisStore keeps session keys in Redis, JSON-encoded, with the key TTL set
// from the credential expiry so Redis evicts expired entries on its own.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func redisKey(playerAddress string) string {
	return redisKeyPrefix + playerAddress
}

func (s *RedisStore) Get(ctx context.Context, playerAddress string) (*model.SessionKey, error) {
	data, err := s.client.Get(ctx, redisKey(playerAddress)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var row redisSessionKey
	if err := json.Unmarshal(data, &row); err != nil {
		return nil, fmt.Errorf("decode session key: %w", err)
	}
	return row.toModel(), nil
}

func (s *RedisStore) PutIfAbsent(ctx context.Context, key *model.SessionKey) (*model.SessionKey, bool, error) {
	data, err := json.Marshal(toRedisSessionKey(key))
	if err != nil {
		return nil, false, fmt.Errorf("encode session key: %w", err)
	}

	ttl := time.Until(key.ExpiresAt)
	if ttl <= 0 {
		return nil, false, fmt.Errorf("session key already expired")
	}

	created, err := s.client.SetNX(ctx, redisKey(key.PlayerAddress), data, ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("redis setnx: %w", err)
	}

	if created {
		cp := *key
		return &cp, true, nil
	}

	// Lost the race: read back the winner. The stored key can expire between
	// the SetNX and the Get, so retry the insert once in that window.
	existing, err := s.Get(ctx, key.PlayerAddress)
	if err != nil {
		return nil, false, err
	}
	if existing == nil {
		created, err = s.client.SetNX(ctx, redisKey(key.PlayerAddress), data, ttl).Result()
		if err != nil {
			return nil, false, fmt.Errorf("redis setnx: %w", err)
		}
		if created {
			cp := *key
			return &cp, true, nil
		}
		existing, err = s.Get(ctx, key.PlayerAddress)
		if err != nil {
			return nil, false, err
		}
		if existing == nil {
			return nil, false, fmt.Errorf("session key vanished during insert")
		}
	}
	return existing, false, nil
}

func (s *RedisStore) Delete(ctx context.Context, playerAddress string) error {
	if err := s.client.Del(ctx, redisKey(playerAddress)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
