package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SQLConfig parameterizes the relational broker. Queries are operator
// supplied and positional: $1, $2, ... in the documented order.
type SQLConfig struct {
	// URL is the postgres connection string.
	URL string `mapstructure:"url" yaml:"url"`

	// AuthQuery selects the uuid of the row matching ($1 username,
	// $2 password). No row means the login is rejected.
	AuthQuery string `mapstructure:"auth_query" yaml:"auth_query"`

	// EntryByUUIDQuery selects (uuid, username, access_token, server_id)
	// for $1 uuid.
	EntryByUUIDQuery string `mapstructure:"entry_by_uuid_query" yaml:"entry_by_uuid_query"`

	// EntryByNameQuery selects the same columns for $1 username.
	EntryByNameQuery string `mapstructure:"entry_by_name_query" yaml:"entry_by_name_query"`

	// UpdateAccessTokenQuery updates the access token: ($1 token, $2 uuid).
	UpdateAccessTokenQuery string `mapstructure:"update_access_token_query" yaml:"update_access_token_query"`

	// UpdateServerIDQuery updates the server id: ($1 server id, $2 uuid).
	// This is deliberately a distinct statement from the token update.
	UpdateServerIDQuery string `mapstructure:"update_server_id_query" yaml:"update_server_id_query"`
}

// SQL is the relational broker variant backed by a pgx connection pool.
type SQL struct {
	cfg  SQLConfig
	pool *pgxpool.Pool
}

// NewSQL opens the connection pool and verifies connectivity.
func NewSQL(ctx context.Context, cfg SQLConfig) (*SQL, error) {
	for name, q := range map[string]string{
		"auth_query":                cfg.AuthQuery,
		"entry_by_uuid_query":       cfg.EntryByUUIDQuery,
		"entry_by_name_query":       cfg.EntryByNameQuery,
		"update_access_token_query": cfg.UpdateAccessTokenQuery,
		"update_server_id_query":    cfg.UpdateServerIDQuery,
	} {
		if q == "" {
			return nil, fmt.Errorf("sql auth provider: %s is required", name)
		}
	}

	pool, err := pgxpool.New(ctx, cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping auth database: %w", err)
	}
	return &SQL{cfg: cfg, pool: pool}, nil
}

// Auth is "a row exists with these bindings": the query must yield a uuid
// for the login to succeed. The client address is not bound; it is accepted
// for interface parity.
func (s *SQL) Auth(ctx context.Context, login, password, ip string) (uuid.UUID, error) {
	var id uuid.UUID
	err := s.pool.QueryRow(ctx, s.cfg.AuthQuery, login, password).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, ErrAuthFailed
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("auth query: %w", err)
	}
	return id, nil
}

func (s *SQL) scanEntry(row pgx.Row) (Entry, error) {
	var entry Entry
	var token, serverID *string
	if err := row.Scan(&entry.UUID, &entry.Username, &token, &serverID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Entry{}, ErrEntryNotFound
		}
		return Entry{}, fmt.Errorf("entry query: %w", err)
	}
	if token != nil {
		entry.AccessToken = *token
	}
	if serverID != nil {
		entry.ServerID = *serverID
	}
	return entry, nil
}

func (s *SQL) EntryByUUID(ctx context.Context, id uuid.UUID) (Entry, error) {
	return s.scanEntry(s.pool.QueryRow(ctx, s.cfg.EntryByUUIDQuery, id))
}

func (s *SQL) EntryByUsername(ctx context.Context, username string) (Entry, error) {
	return s.scanEntry(s.pool.QueryRow(ctx, s.cfg.EntryByNameQuery, username))
}

func (s *SQL) SetAccessToken(ctx context.Context, id uuid.UUID, token string) error {
	tag, err := s.pool.Exec(ctx, s.cfg.UpdateAccessTokenQuery, token, id)
	if err != nil {
		return fmt.Errorf("update access token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: uuid %s", ErrEntryNotFound, id)
	}
	return nil
}

func (s *SQL) SetServerID(ctx context.Context, id uuid.UUID, serverID string) error {
	tag, err := s.pool.Exec(ctx, s.cfg.UpdateServerIDQuery, serverID, id)
	if err != nil {
		return fmt.Errorf("update server id: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: uuid %s", ErrEntryNotFound, id)
	}
	return nil
}

func (s *SQL) Close() error {
	s.pool.Close()
	return nil
}
