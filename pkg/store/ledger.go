package store

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"bookbot/pkg/domain"
)

// BookModel is the GORM model for one committed book row.
type BookModel struct {
	ID              string `gorm:"primaryKey"`
	Author          string
	Title           string
	PublicationYear int `gorm:"index"`
	Category        string
	Publisher       string
	UserID          string
	CreatedAt       time.Time `gorm:"not null;index"`
}

// TableName implements the GORM tabler interface.
func (BookModel) TableName() string { return "books" }

// GormLedger implements Ledger for one tenant's sqlite database.
type GormLedger struct {
	db *gorm.DB
}

// OpenGormLedger opens the database at location and ensures the books table
// exists. AutoMigrate is idempotent, so repeated opens of the same location
// are safe.
func OpenGormLedger(location string) (*GormLedger, error) {
	gormLog := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	db, err := gorm.Open(sqlite.Open(location), &gorm.Config{Logger: gormLog})
	if err != nil {
		return nil, fmt.Errorf("open ledger %s: %w", location, err)
	}
	if err := db.AutoMigrate(&BookModel{}); err != nil {
		return nil, fmt.Errorf("migrate ledger %s: %w", location, err)
	}
	return &GormLedger{db: db}, nil
}

// Append assigns a fresh record id and creation timestamp and inserts one row.
func (l *GormLedger) Append(ctx context.Context, book domain.Book) (domain.Book, error) {
	book.ID = uuid.NewString()
	book.CreatedAt = time.Now().UTC()
	model := bookToModel(book)
	if err := l.db.WithContext(ctx).Create(&model).Error; err != nil {
		return domain.Book{}, fmt.Errorf("append book: %w", err)
	}
	return book, nil
}

// Count returns the number of committed books.
func (l *GormLedger) Count(ctx context.Context) (int, error) {
	var count int64
	if err := l.db.WithContext(ctx).Model(&BookModel{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count books: %w", err)
	}
	return int(count), nil
}

// FindByAuthor returns books whose author contains the given substring.
func (l *GormLedger) FindByAuthor(ctx context.Context, author string) ([]domain.Book, error) {
	return l.listBooks(ctx, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("author LIKE ?", "%"+author+"%").Order("created_at ASC")
	})
}

// FindByYear returns books published in the given year.
func (l *GormLedger) FindByYear(ctx context.Context, year int) ([]domain.Book, error) {
	return l.listBooks(ctx, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("publication_year = ?", year).Order("created_at ASC")
	})
}

// Recent returns the most recently committed books, newest first.
func (l *GormLedger) Recent(ctx context.Context, limit int) ([]domain.Book, error) {
	if limit <= 0 {
		return []domain.Book{}, nil
	}
	return l.listBooks(ctx, func(tx *gorm.DB) *gorm.DB {
		return tx.Order("created_at DESC").Limit(limit)
	})
}

func (l *GormLedger) listBooks(ctx context.Context, scope func(*gorm.DB) *gorm.DB) ([]domain.Book, error) {
	var models []BookModel
	if err := scope(l.db.WithContext(ctx).Model(&BookModel{})).Find(&models).Error; err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	books := make([]domain.Book, 0, len(models))
	for _, m := range models {
		books = append(books, bookFromModel(m))
	}
	return books, nil
}

// LedgerManager opens each tenant location lazily on first use and caches the
// open handle for the life of the process.
type LedgerManager struct {
	mu      sync.Mutex
	ledgers map[string]*GormLedger
}

// NewLedgerManager constructs an empty manager.
func NewLedgerManager() *LedgerManager {
	return &LedgerManager{ledgers: make(map[string]*GormLedger)}
}

// Ledger returns the ledger for a location, opening it on first use.
func (m *LedgerManager) Ledger(location string) (Ledger, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ledger, ok := m.ledgers[location]; ok {
		return ledger, nil
	}
	ledger, err := OpenGormLedger(location)
	if err != nil {
		return nil, err
	}
	m.ledgers[location] = ledger
	return ledger, nil
}

// EnsureSchema opens the location so its table exists, without returning the
// handle. Safe to call concurrently and repeatedly.
func (m *LedgerManager) EnsureSchema(location string) error {
	_, err := m.Ledger(location)
	return err
}

func bookToModel(b domain.Book) BookModel {
	return BookModel{
		ID:              b.ID,
		Author:          b.Author,
		Title:           b.Title,
		PublicationYear: b.PublicationYear,
		Category:        b.Category,
		Publisher:       b.Publisher,
		UserID:          b.UserID,
		CreatedAt:       b.CreatedAt,
	}
}

func bookFromModel(m BookModel) domain.Book {
	return domain.Book{
		ID:              m.ID,
		Author:          m.Author,
		Title:           m.Title,
		PublicationYear: m.PublicationYear,
		Category:        m.Category,
		Publisher:       m.Publisher,
		UserID:          m.UserID,
		CreatedAt:       m.CreatedAt,
	}
}
