// Package app sequences the staging workflow: extraction, parsing, the
// pending-record store, and on confirmation the tenant's book ledger. It is
// transport-agnostic; the Telegram layer feeds it events and sends whatever
// replies it returns.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"bookbot/pkg/ai"
	"bookbot/pkg/bookcard"
	"bookbot/pkg/domain"
	"bookbot/pkg/store"
)

// LedgerProvider opens per-tenant ledgers by location. *store.LedgerManager
// implements it.
type LedgerProvider interface {
	Ledger(location string) (store.Ledger, error)
	EnsureSchema(location string) error
}

// Config holds the collaborators of the application core.
type Config struct {
	Extractor   ai.VisionExtractor
	Pending     store.PendingStore
	Registry    store.TenantRegistry
	Sessions    store.SessionStore
	Ledgers     LedgerProvider
	AdminUserID string
	// Prompt overrides the extraction instructions; defaults to
	// bookcard.Prompt so the instructed labels match the parser.
	Prompt string
}

// App is the workflow orchestrator.
type App struct {
	extractor   ai.VisionExtractor
	pending     store.PendingStore
	registry    store.TenantRegistry
	sessions    store.SessionStore
	ledgers     LedgerProvider
	adminUserID string
	prompt      string
}

// New wires the application core.
func New(cfg Config) (*App, error) {
	if cfg.Extractor == nil {
		return nil, fmt.Errorf("extractor required")
	}
	if cfg.Pending == nil {
		return nil, fmt.Errorf("pending store required")
	}
	if cfg.Registry == nil {
		return nil, fmt.Errorf("tenant registry required")
	}
	if cfg.Sessions == nil {
		return nil, fmt.Errorf("session store required")
	}
	if cfg.Ledgers == nil {
		return nil, fmt.Errorf("ledger manager required")
	}
	prompt := cfg.Prompt
	if strings.TrimSpace(prompt) == "" {
		prompt = bookcard.Prompt
	}
	return &App{
		extractor:   cfg.Extractor,
		pending:     cfg.Pending,
		registry:    cfg.Registry,
		sessions:    cfg.Sessions,
		ledgers:     cfg.Ledgers,
		adminUserID: cfg.AdminUserID,
		prompt:      prompt,
	}, nil
}

// HandleCommand routes a text command to its handler and returns the reply.
func (a *App) HandleCommand(ctx context.Context, chatID, userID, text string) string {
	command, args, _ := strings.Cut(strings.TrimSpace(text), " ")
	args = strings.TrimSpace(args)
	switch command {
	case "/start":
		return a.SelectTenant(ctx, chatID, args)
	case "/total":
		return a.Count(ctx, chatID)
	case "/my_id":
		return a.WhoAmI(userID)
	case "/add_key":
		key, location, _ := strings.Cut(args, " ")
		return a.BindTenant(ctx, userID, key, strings.TrimSpace(location))
	case "/find_author":
		return a.FindByAuthor(ctx, chatID, args)
	case "/find_year":
		return a.FindByYear(ctx, chatID, args)
	case "/last":
		return a.Recent(ctx, chatID, args)
	default:
		return MsgUnknownCommand
	}
}

// SelectTenant validates the key against the registry, records it as the
// chat's active tenant, and ensures the ledger schema exists.
func (a *App) SelectTenant(ctx context.Context, chatID, key string) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return MsgSelectTenantUsage
	}
	location, ok, err := a.registry.Lookup(ctx, key)
	if err != nil {
		slog.Error("tenant lookup failed", "op", "select_tenant", "key", key, "err", err)
		return MsgStorageFailed
	}
	if !ok {
		return MsgUnknownTenant
	}
	if err := a.sessions.SetActiveTenant(ctx, chatID, key); err != nil {
		slog.Error("set active tenant failed", "op", "select_tenant", "chat", chatID, "key", key, "err", err)
		return MsgStorageFailed
	}
	if err := a.ledgers.EnsureSchema(location); err != nil {
		slog.Error("ensure schema failed", "op", "select_tenant", "location", location, "err", err)
		return MsgStorageFailed
	}
	return fmt.Sprintf(msgConnectedFmt, key)
}

// Count replies with the number of books in the chat's active ledger.
func (a *App) Count(ctx context.Context, chatID string) string {
	ledger, errReply := a.activeLedger(ctx, chatID, "total")
	if errReply != "" {
		return errReply
	}
	total, err := ledger.Count(ctx)
	if err != nil {
		slog.Error("count failed", "op", "total", "chat", chatID, "err", err)
		return MsgStorageFailed
	}
	return fmt.Sprintf(msgTotalFmt, total)
}

// WhoAmI replies with the caller's opaque user id.
func (a *App) WhoAmI(userID string) string {
	return fmt.Sprintf(msgWhoAmIFmt, userID)
}

// BindTenant upserts a tenant binding. Admin-only; a rejected call leaves the
// registry unchanged.
func (a *App) BindTenant(ctx context.Context, callerID, key, location string) string {
	if a.adminUserID == "" || callerID != a.adminUserID {
		return MsgAdminOnly
	}
	key = strings.TrimSpace(key)
	location = strings.TrimSpace(location)
	if key == "" || location == "" {
		return MsgBindUsage
	}
	if !strings.HasSuffix(location, ".db") {
		location += ".db"
	}
	if err := a.registry.Bind(ctx, key, location); err != nil {
		slog.Error("bind tenant failed", "op", "add_key", "key", key, "err", err)
		return MsgStorageFailed
	}
	if err := a.ledgers.EnsureSchema(location); err != nil {
		slog.Error("ensure schema failed", "op", "add_key", "location", location, "err", err)
		return MsgStorageFailed
	}
	return fmt.Sprintf(msgBoundFmt, key, location)
}

// FindByAuthor replies with books whose author contains the substring.
func (a *App) FindByAuthor(ctx context.Context, chatID, author string) string {
	author = strings.TrimSpace(author)
	if author == "" {
		return MsgFindAuthorUsage
	}
	ledger, errReply := a.activeLedger(ctx, chatID, "find_author")
	if errReply != "" {
		return errReply
	}
	books, err := ledger.FindByAuthor(ctx, author)
	if err != nil {
		slog.Error("find by author failed", "op", "find_author", "chat", chatID, "err", err)
		return MsgStorageFailed
	}
	return renderBooks(books)
}

// FindByYear replies with books published in the given year.
func (a *App) FindByYear(ctx context.Context, chatID, arg string) string {
	year, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil || year < 0 {
		return MsgFindYearUsage
	}
	ledger, errReply := a.activeLedger(ctx, chatID, "find_year")
	if errReply != "" {
		return errReply
	}
	books, err := ledger.FindByYear(ctx, year)
	if err != nil {
		slog.Error("find by year failed", "op", "find_year", "chat", chatID, "err", err)
		return MsgStorageFailed
	}
	return renderBooks(books)
}

// Recent replies with the most recently committed books.
func (a *App) Recent(ctx context.Context, chatID, arg string) string {
	limit, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil || limit <= 0 {
		return MsgLastUsage
	}
	ledger, errReply := a.activeLedger(ctx, chatID, "last")
	if errReply != "" {
		return errReply
	}
	books, err := ledger.Recent(ctx, limit)
	if err != nil {
		slog.Error("recent failed", "op", "last", "chat", chatID, "err", err)
		return MsgStorageFailed
	}
	return renderBooks(books)
}

// HandlePhoto runs the staging workflow for one title-page photo. The second
// return value is the pending id to bind to the confirmation button; it is
// empty when nothing was staged.
func (a *App) HandlePhoto(ctx context.Context, chatID, userID string, image []byte) (string, string) {
	if _, errReply := a.activeTenant(ctx, chatID, "photo"); errReply != "" {
		return errReply, ""
	}
	text, err := a.extractor.Extract(ctx, [][]byte{image}, a.prompt)
	if err != nil {
		slog.Error("extraction failed", "op", "photo", "chat", chatID, "err", err)
		return MsgExtractionFailed, ""
	}
	book := bookcard.Parse(text)
	pendingID, err := a.pending.Stage(ctx, book)
	if err != nil {
		slog.Error("stage failed", "op", "photo", "chat", chatID, "err", err)
		return MsgStageFailed, ""
	}
	slog.Info("book staged", "chat", chatID, "user", userID, "pending_id", pendingID)
	return text, pendingID
}

// Confirm commits a staged record into the chat's active ledger. The pending
// entry is claimed atomically; if the ledger append fails it is restaged
// under the same id so the confirmation can be retried.
func (a *App) Confirm(ctx context.Context, chatID, userID, pendingID string) string {
	tenant, errReply := a.activeTenant(ctx, chatID, "confirm")
	if errReply != "" {
		return errReply
	}
	book, err := a.pending.FetchAndRemove(ctx, pendingID)
	if errors.Is(err, store.ErrNotFound) {
		return MsgPendingNotFound
	}
	if err != nil {
		slog.Error("pending fetch failed", "op", "confirm", "pending_id", pendingID, "err", err)
		return MsgStorageFailed
	}
	book.UserID = userID
	ledger, err := a.ledgers.Ledger(tenant.Location)
	if err == nil {
		_, err = ledger.Append(ctx, book)
	}
	if err != nil {
		slog.Error("commit failed", "op", "confirm", "pending_id", pendingID, "location", tenant.Location, "err", err)
		if restageErr := a.pending.Restage(ctx, pendingID, book); restageErr != nil {
			slog.Error("restage failed, staged record lost", "op", "confirm", "pending_id", pendingID, "err", restageErr)
		}
		return MsgSaveFailed
	}
	slog.Info("book committed", "chat", chatID, "user", userID, "pending_id", pendingID, "location", tenant.Location)
	return MsgSaved
}

// activeTenant resolves the chat's selected tenant binding. The second return
// value is a user-facing reply when resolution fails.
func (a *App) activeTenant(ctx context.Context, chatID, op string) (domain.TenantBinding, string) {
	key, ok, err := a.sessions.ActiveTenant(ctx, chatID)
	if err != nil {
		slog.Error("active tenant lookup failed", "op", op, "chat", chatID, "err", err)
		return domain.TenantBinding{}, MsgStorageFailed
	}
	if !ok {
		return domain.TenantBinding{}, MsgNeedTenant
	}
	location, ok, err := a.registry.Lookup(ctx, key)
	if err != nil {
		slog.Error("tenant lookup failed", "op", op, "key", key, "err", err)
		return domain.TenantBinding{}, MsgStorageFailed
	}
	if !ok {
		// The binding was selected earlier but is gone from the registry.
		return domain.TenantBinding{}, MsgUnknownTenant
	}
	return domain.TenantBinding{Key: key, Location: location}, ""
}

func (a *App) activeLedger(ctx context.Context, chatID, op string) (store.Ledger, string) {
	tenant, errReply := a.activeTenant(ctx, chatID, op)
	if errReply != "" {
		return nil, errReply
	}
	ledger, err := a.ledgers.Ledger(tenant.Location)
	if err != nil {
		slog.Error("open ledger failed", "op", op, "location", tenant.Location, "err", err)
		return nil, MsgStorageFailed
	}
	return ledger, ""
}

func renderBooks(books []domain.Book) string {
	if len(books) == 0 {
		return MsgNothingFound
	}
	blocks := make([]string, 0, len(books))
	for _, book := range books {
		blocks = append(blocks, bookcard.Render(book))
	}
	return strings.Join(blocks, "\n\n")
}
