package domain

import "time"

// Book is one physically scanned book. Until it is confirmed the record is
// only partially populated: ID and CreatedAt are assigned at commit time, and
// any field the vision model failed to read stays at its zero value
// (PublicationYear 0 means "unknown").
type Book struct {
	ID              string    `json:"id"`
	Author          string    `json:"author"`
	Title           string    `json:"title"`
	PublicationYear int       `json:"publicationYear"`
	Category        string    `json:"category"`
	Publisher       string    `json:"publisher"`
	UserID          string    `json:"userId"`
	CreatedAt       time.Time `json:"createdAt"`
}

// TenantBinding maps a short administrator-issued key to the ledger location
// (database path) holding that tenant's committed books.
type TenantBinding struct {
	Key      string `json:"key"`
	Location string `json:"location"`
}
