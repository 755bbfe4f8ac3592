package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/omarespejel/starknet-unity-clicker-demo/internal/model"
)

// PostgresStore keeps session keys in a session_keys table:
//
//	CREATE TABLE session_keys (
//	    player_address  TEXT PRIMARY KEY,
//	    secret          TEXT NOT NULL,
//	    account_address TEXT NOT NULL,
//	    policies        TEXT[] NOT NULL,
//	    gasless         BOOLEAN NOT NULL,
//	    created_at      TIMESTAMPTZ NOT NULL,
//	    expires_at      TIMESTAMPTZ NOT NULL
//	);
type PostgresStore struct {
	db *sqlx.DB
}

func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type sessionKeyRow struct {
	PlayerAddress  string         `db:"player_address"`
	Secret         string         `db:"secret"`
	AccountAddress string         `db:"account_address"`
	Policies       pq.StringArray `db:"policies"`
	Gasless        bool           `db:"gasless"`
	CreatedAt      time.Time      `db:"created_at"`
	ExpiresAt      time.Time      `db:"expires_at"`
}

func (r sessionKeyRow) toModel() *model.SessionKey {
	return &model.SessionKey{
		Secret:         r.Secret,
		PlayerAddress:  r.PlayerAddress,
		AccountAddress: r.AccountAddress,
		Policies:       []string(r.Policies),
		Gasless:        r.Gasless,
		CreatedAt:      r.CreatedAt,
		ExpiresAt:      r.ExpiresAt,
	}
}

func (s *PostgresStore) Get(ctx context.Context, playerAddress string) (*model.SessionKey, error) {
	var row sessionKeyRow
	err := s.db.GetContext(ctx, &row, `
		SELECT player_address, secret, account_address, policies, gasless, created_at, expires_at
		FROM session_keys
		WHERE player_address = $1 AND expires_at > NOW()
	`, playerAddress)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return row.toModel(), nil
}

func (s *PostgresStore) PutIfAbsent(ctx context.Context, key *model.SessionKey) (*model.SessionKey, bool, error) {
	var row sessionKeyRow
	err := s.db.GetContext(ctx, &row, `
		INSERT INTO session_keys (player_address, secret, account_address, policies, gasless, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (player_address) DO NOTHING
		RETURNING player_address, secret, account_address, policies, gasless, created_at, expires_at
	`, key.PlayerAddress, key.Secret, key.AccountAddress, pq.StringArray(key.Policies),
		key.Gasless, key.CreatedAt, key.ExpiresAt)
	if err == nil {
		return row.toModel(), true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, err
	}

	// Conflict: a key already exists for this player.
	existing, err := s.Get(ctx, key.PlayerAddress)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	// Only an expired row can block the insert while Get sees nothing.
	// Replace it and treat whoever wins the second insert as the winner.
	_, err = s.db.ExecContext(ctx, `
		DELETE FROM session_keys WHERE player_address = $1 AND expires_at <= NOW()
	`, key.PlayerAddress)
	if err != nil {
		return nil, false, err
	}

	err = s.db.GetContext(ctx, &row, `
		INSERT INTO session_keys (player_address, secret, account_address, policies, gasless, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (player_address) DO NOTHING
		RETURNING player_address, secret, account_address, policies, gasless, created_at, expires_at
	`, key.PlayerAddress, key.Secret, key.AccountAddress, pq.StringArray(key.Policies),
		key.Gasless, key.CreatedAt, key.ExpiresAt)
	if err == nil {
		return row.toModel(), true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, err
	}

	existing, err = s.Get(ctx, key.PlayerAddress)
	if err != nil {
		return nil, false, err
	}
	if existing == nil {
		return nil, false, fmt.Errorf("session key insert raced for %s", key.PlayerAddress)
	}
	return existing, false, nil
}

func (s *PostgresStore) Delete(ctx context.Context, playerAddress string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM session_keys WHERE player_address = $1
	`, playerAddress)
	return err
}

// DeleteExpired removes all keys past their expiry and reports how many were
// removed.
func (s *PostgresStore) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM session_keys WHERE expires_at <= NOW()
	`)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
