package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"bookbot/pkg/domain"
)

func testLedger(t *testing.T) *GormLedger {
	t.Helper()
	ledger, err := OpenGormLedger(filepath.Join(t.TempDir(), "books.db"))
	if err != nil {
		t.Fatalf("open ledger: %v", err)
	}
	return ledger
}

func TestLedgerAppendAssignsIDAndTimestamp(t *testing.T) {
	ledger := testLedger(t)
	ctx := context.Background()

	committed, err := ledger.Append(ctx, domain.Book{
		Author:          "Tolkien",
		Title:           "Hobbit",
		PublicationYear: 1937,
		UserID:          "42",
	})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if committed.ID == "" {
		t.Fatalf("expected assigned record id")
	}
	if committed.CreatedAt.IsZero() {
		t.Fatalf("expected assigned creation timestamp")
	}

	books, err := ledger.Recent(ctx, 1)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(books) != 1 {
		t.Fatalf("expected one committed row, got %d", len(books))
	}
	got := books[0]
	if got.ID != committed.ID || got.Author != "Tolkien" || got.Title != "Hobbit" || got.PublicationYear != 1937 || got.UserID != "42" {
		t.Fatalf("unexpected row: %+v", got)
	}
}

func TestLedgerCountEmptyIsZero(t *testing.T) {
	ledger := testLedger(t)
	count, err := ledger.Count(context.Background())
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Fatalf("count = %d, want 0", count)
	}
}

func TestLedgerCount(t *testing.T) {
	ledger := testLedger(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if _, err := ledger.Append(ctx, domain.Book{Title: "Book"}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	count, err := ledger.Count(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 3 {
		t.Fatalf("count = %d, want 3", count)
	}
}

func TestLedgerFindByAuthorSubstring(t *testing.T) {
	ledger := testLedger(t)
	ctx := context.Background()
	for _, author := range []string{"J.R.R. Tolkien", "Strugatsky", "Tolkien"} {
		if _, err := ledger.Append(ctx, domain.Book{Author: author}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	books, err := ledger.FindByAuthor(ctx, "Tolkien")
	if err != nil {
		t.Fatalf("find by author: %v", err)
	}
	if len(books) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(books))
	}
	if _, err := ledger.FindByAuthor(ctx, "Lem"); err != nil {
		t.Fatalf("find by author (no match): %v", err)
	}
}

func TestLedgerFindByYearExactMatch(t *testing.T) {
	ledger := testLedger(t)
	ctx := context.Background()
	for _, year := range []int{1937, 1954, 1937} {
		if _, err := ledger.Append(ctx, domain.Book{PublicationYear: year}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	books, err := ledger.FindByYear(ctx, 1937)
	if err != nil {
		t.Fatalf("find by year: %v", err)
	}
	if len(books) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(books))
	}
	books, err = ledger.FindByYear(ctx, 2020)
	if err != nil {
		t.Fatalf("find by year (no match): %v", err)
	}
	if len(books) != 0 {
		t.Fatalf("expected no matches, got %d", len(books))
	}
}

func TestLedgerRecentOrdersNewestFirstWithLimit(t *testing.T) {
	ledger := testLedger(t)
	ctx := context.Background()
	for _, title := range []string{"first", "second", "third"} {
		if _, err := ledger.Append(ctx, domain.Book{Title: title}); err != nil {
			t.Fatalf("append: %v", err)
		}
		time.Sleep(2 * time.Millisecond)
	}
	books, err := ledger.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(books) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(books))
	}
	if books[0].Title != "third" || books[1].Title != "second" {
		t.Fatalf("unexpected order: %q, %q", books[0].Title, books[1].Title)
	}

	if books, err := ledger.Recent(ctx, 0); err != nil || len(books) != 0 {
		t.Fatalf("recent(0) = (%d rows, %v), want empty", len(books), err)
	}
}

func TestLedgerManagerIsolatesLocations(t *testing.T) {
	manager := NewLedgerManager()
	ctx := context.Background()
	dir := t.TempDir()
	locationA := filepath.Join(dir, "a.db")
	locationB := filepath.Join(dir, "b.db")

	ledgerA, err := manager.Ledger(locationA)
	if err != nil {
		t.Fatalf("open a: %v", err)
	}
	if _, err := ledgerA.Append(ctx, domain.Book{Title: "only in A"}); err != nil {
		t.Fatalf("append: %v", err)
	}

	ledgerB, err := manager.Ledger(locationB)
	if err != nil {
		t.Fatalf("open b: %v", err)
	}
	count, err := ledgerB.Count(ctx)
	if err != nil {
		t.Fatalf("count b: %v", err)
	}
	if count != 0 {
		t.Fatalf("tenant B count = %d, want 0", count)
	}
}

func TestLedgerManagerEnsureSchemaIdempotent(t *testing.T) {
	manager := NewLedgerManager()
	location := filepath.Join(t.TempDir(), "books.db")
	for i := 0; i < 3; i++ {
		if err := manager.EnsureSchema(location); err != nil {
			t.Fatalf("ensure schema (call %d): %v", i+1, err)
		}
	}
	ledger, err := manager.Ledger(location)
	if err != nil {
		t.Fatalf("ledger: %v", err)
	}
	if _, err := ledger.Append(context.Background(), domain.Book{Title: "ok"}); err != nil {
		t.Fatalf("append after repeated ensure: %v", err)
	}
}
