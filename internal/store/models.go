package store

import (
	"time"

	"gorm.io/datatypes"
)

// GORM models used for persistence.
type BookModel struct {
	ID           string `gorm:"primaryKey"`
	Title        string `gorm:"not null"`
	Author       string
	Category     string `gorm:"index"`
	Description  string
	Price        float64 `gorm:"not null"`
	ImageURL     string
	SellerEmail  string    `gorm:"not null;index"`
	Availability string    `gorm:"not null"`
	CreatedAt    time.Time `gorm:"not null;index"`
}

// CartItemModel intentionally has no unique index on
// (user_email, original_id): uniqueness is checked read-then-insert to
// keep the original duplicate semantics observable.
type CartItemModel struct {
	ID         string `gorm:"primaryKey"`
	OriginalID string `gorm:"not null;index"`
	UserEmail  string `gorm:"not null;index"`
	Title      string `gorm:"not null"`
	Price      float64
	ImageURL   string
	CreatedAt  time.Time `gorm:"not null"`
}

type PaymentModel struct {
	ID          string `gorm:"primaryKey"`
	Email       string `gorm:"not null;index"`
	Amount      float64
	Items       datatypes.JSON
	Address     string
	Method      string    `gorm:"not null"`
	PaymentDate time.Time `gorm:"not null"`
}

type ReportModel struct {
	ID            string `gorm:"primaryKey"`
	BookID        string `gorm:"not null;index"`
	ReporterEmail string `gorm:"not null;index"`
	Reason        string
	Details       string
	CreatedAt     time.Time `gorm:"not null"`
}

type PostModel struct {
	ID          string `gorm:"primaryKey"`
	Title       string
	Content     string
	AuthorName  string
	AuthorEmail string
	Likes       int64 `gorm:"not null;default:0"`
	Dislikes    int64 `gorm:"not null;default:0"`
	Comments    datatypes.JSON
	CreatedAt   time.Time `gorm:"not null;index"`
}
