package domain

import "time"

type Availability string

const (
	Available Availability = "available"
	Sold      Availability = "sold"
)

type PaymentMethod string

const (
	MethodCard           PaymentMethod = "card"
	MethodCashOnDelivery PaymentMethod = "cash on delivery"
)

// Book is a single listed copy. JSON field names follow the shapes the
// frontend already consumes, including the capitalized "Price".
type Book struct {
	ID           string       `json:"_id"`
	Title        string       `json:"bookTitle"`
	Author       string       `json:"authorName"`
	Category     string       `json:"category"`
	Description  string       `json:"bookDescription,omitempty"`
	Price        float64      `json:"Price"`
	ImageURL     string       `json:"imageURL"`
	SellerEmail  string       `json:"email"`
	Availability Availability `json:"availability"`
	CreatedAt    time.Time    `json:"createdAt"`
}

// CartItem is a denormalized snapshot of a book taken at add-to-cart
// time. OriginalID points back at the listed book.
type CartItem struct {
	ID         string    `json:"_id"`
	OriginalID string    `json:"original_id"`
	UserEmail  string    `json:"user_email"`
	Title      string    `json:"bookTitle"`
	Price      float64   `json:"Price"`
	ImageURL   string    `json:"imageURL"`
	CreatedAt  time.Time `json:"createdAt"`
}

type PaymentItem struct {
	BookID    string `json:"bookId"`
	BookTitle string `json:"bookTitle"`
}

// Payment is an append-only record of a completed transaction.
type Payment struct {
	ID          string        `json:"_id"`
	Email       string        `json:"email"`
	Amount      float64       `json:"amount"`
	Items       []PaymentItem `json:"items"`
	Address     string        `json:"address,omitempty"`
	Method      PaymentMethod `json:"paymentMethod"`
	PaymentDate time.Time     `json:"paymentDate"`
}

// Report is a user flag on a listing. One per (book, reporter) pair.
type Report struct {
	ID            string    `json:"_id"`
	BookID        string    `json:"bookId"`
	ReporterEmail string    `json:"reporterEmail"`
	Reason        string    `json:"reason,omitempty"`
	Details       string    `json:"details,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

type Comment struct {
	ID          string    `json:"_id"`
	Content     string    `json:"content"`
	AuthorName  string    `json:"authorName,omitempty"`
	AuthorEmail string    `json:"authorEmail,omitempty"`
	Edited      bool      `json:"edited"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Post is a blog entry owning an ordered sequence of embedded comments.
// Comment IDs are unique within one post's sequence.
type Post struct {
	ID          string    `json:"_id"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	AuthorName  string    `json:"authorName,omitempty"`
	AuthorEmail string    `json:"authorEmail,omitempty"`
	Likes       int64     `json:"likes"`
	Dislikes    int64     `json:"dislikes"`
	Comments    []Comment `json:"comments"`
	CreatedAt   time.Time `json:"createdAt"`
}
