// Package auth defines the credential broker behind the launch server: it
// validates logins and owns the per-user Entry records binding access tokens
// and join-proof server ids.
//
// Three interchangeable variants exist, chosen from configuration at
// startup: a delegated HTTP JSON backend, a relational backend driven by
// operator-supplied SQL, and an accept-any backend for development.
package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Entry is one user's credential record. Mutated only by the broker in
// response to login, token refresh or join.
type Entry struct {
	UUID        uuid.UUID `json:"uuid"`
	Username    string    `json:"username"`
	AccessToken string    `json:"accessToken,omitempty"`
	ServerID    string    `json:"serverId,omitempty"`
}

var (
	// ErrAuthFailed is returned when the backend rejects a login.
	ErrAuthFailed = errors.New("authentication failed")
	// ErrEntryNotFound is returned for lookups of unknown users.
	ErrEntryNotFound = errors.New("entry not found")
)

// Provider is the broker interface shared by all variants. Entry lookups are
// idempotent and total for any user that authenticated successfully.
type Provider interface {
	// Auth validates a login and returns the user's uuid.
	Auth(ctx context.Context, login, password, ip string) (uuid.UUID, error)

	// EntryByUUID returns the record for a user id.
	EntryByUUID(ctx context.Context, id uuid.UUID) (Entry, error)

	// EntryByUsername returns the record for a username.
	EntryByUsername(ctx context.Context, username string) (Entry, error)

	// SetAccessToken binds a freshly minted token to the entry,
	// invalidating any previous one.
	SetAccessToken(ctx context.Context, id uuid.UUID, token string) error

	// SetServerID records the join-proof server id on the entry.
	SetServerID(ctx context.Context, id uuid.UUID, serverID string) error

	// Close releases backend resources.
	Close() error
}

// Provider variant tags used in configuration.
const (
	KindAcceptAny = "accept"
	KindHTTP      = "http"
	KindSQL       = "sql"
)

// Config selects and parameterizes a broker variant.
type Config struct {
	Kind string     `mapstructure:"kind" validate:"required,oneof=accept http sql" yaml:"kind"`
	HTTP HTTPConfig `mapstructure:"http" yaml:"http,omitempty"`
	SQL  SQLConfig  `mapstructure:"sql" yaml:"sql,omitempty"`
}

// New constructs the broker variant named by cfg.Kind.
func New(ctx context.Context, cfg Config) (Provider, error) {
	switch cfg.Kind {
	case KindAcceptAny:
		return NewAcceptAny(), nil
	case KindHTTP:
		return NewHTTP(cfg.HTTP)
	case KindSQL:
		return NewSQL(ctx, cfg.SQL)
	default:
		return nil, fmt.Errorf("unknown auth provider kind %q", cfg.Kind)
	}
}
