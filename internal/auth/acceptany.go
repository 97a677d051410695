package auth

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// AcceptAny accepts every login and keeps entries in memory. Intended for
// development and tests; a restart forgets all users.
type AcceptAny struct {
	mu     sync.Mutex
	byUUID map[uuid.UUID]*Entry
	byName map[string]*Entry
}

// NewAcceptAny returns an empty accept-any broker.
func NewAcceptAny() *AcceptAny {
	return &AcceptAny{
		byUUID: make(map[uuid.UUID]*Entry),
		byName: make(map[string]*Entry),
	}
}

// Auth accepts any non-empty login and mints a fresh uuid for it. A repeat
// login replaces the user's previous uuid.
func (a *AcceptAny) Auth(_ context.Context, login, password, ip string) (uuid.UUID, error) {
	if login == "" {
		return uuid.Nil, fmt.Errorf("%w: empty login", ErrAuthFailed)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if old, ok := a.byName[login]; ok {
		delete(a.byUUID, old.UUID)
	}
	entry := &Entry{UUID: uuid.New(), Username: login}
	a.byUUID[entry.UUID] = entry
	a.byName[login] = entry
	return entry.UUID, nil
}

func (a *AcceptAny) EntryByUUID(_ context.Context, id uuid.UUID) (Entry, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	entry, ok := a.byUUID[id]
	if !ok {
		return Entry{}, fmt.Errorf("%w: uuid %s", ErrEntryNotFound, id)
	}
	return *entry, nil
}

func (a *AcceptAny) EntryByUsername(_ context.Context, username string) (Entry, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	entry, ok := a.byName[username]
	if !ok {
		return Entry{}, fmt.Errorf("%w: username %q", ErrEntryNotFound, username)
	}
	return *entry, nil
}

func (a *AcceptAny) SetAccessToken(_ context.Context, id uuid.UUID, token string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	entry, ok := a.byUUID[id]
	if !ok {
		return fmt.Errorf("%w: uuid %s", ErrEntryNotFound, id)
	}
	entry.AccessToken = token
	return nil
}

func (a *AcceptAny) SetServerID(_ context.Context, id uuid.UUID, serverID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	entry, ok := a.byUUID[id]
	if !ok {
		return fmt.Errorf("%w: uuid %s", ErrEntryNotFound, id)
	}
	entry.ServerID = serverID
	return nil
}

func (a *AcceptAny) Close() error {
	return nil
}
