// Package store holds the shared mutable state of the bot: the TTL-bounded
// staging area for unconfirmed records, the tenant key registry, each chat's
// selected tenant, and the per-tenant ledger of committed books.
package store

import (
	"context"
	"errors"

	"bookbot/pkg/domain"
)

var (
	// ErrNotFound indicates a pending id that was never staged, already
	// committed, or expired. Callers treat it as normal flow.
	ErrNotFound = errors.New("pending record not found")
	// ErrUnavailable indicates the backing cache could not be reached.
	ErrUnavailable = errors.New("store unavailable")
)

// PendingStore stages extracted-but-unconfirmed records under opaque ids.
// Entries expire on their own after the configured TTL; an expired id behaves
// exactly like one that never existed.
type PendingStore interface {
	// Stage stores the record under a fresh id and returns it.
	Stage(ctx context.Context, book domain.Book) (string, error)
	// FetchAndRemove atomically claims and deletes the entry. A claimed id
	// never yields a record again; absent ids report ErrNotFound.
	FetchAndRemove(ctx context.Context, id string) (domain.Book, error)
	// Restage puts a claimed record back under its original id with a fresh
	// TTL, so a failed commit leaves the confirmation retryable.
	Restage(ctx context.Context, id string, book domain.Book) error
}

// TenantRegistry maps short administrator-issued keys to ledger locations.
// Reads reflect the most recent Bind from any caller.
type TenantRegistry interface {
	Bind(ctx context.Context, key, location string) error
	Lookup(ctx context.Context, key string) (string, bool, error)
}

// SessionStore tracks each chat's currently selected tenant key. Selection is
// per chat, never process-global, so concurrent conversations stay isolated.
type SessionStore interface {
	SetActiveTenant(ctx context.Context, chatID, key string) error
	ActiveTenant(ctx context.Context, chatID string) (string, bool, error)
}

// Ledger is the durable, append-only collection of committed books for one
// tenant location.
type Ledger interface {
	// Append assigns a fresh record id and creation timestamp and inserts
	// one row, returning the committed record.
	Append(ctx context.Context, book domain.Book) (domain.Book, error)
	Count(ctx context.Context) (int, error)
	FindByAuthor(ctx context.Context, author string) ([]domain.Book, error)
	FindByYear(ctx context.Context, year int) ([]domain.Book, error)
	Recent(ctx context.Context, limit int) ([]domain.Book, error)
}
