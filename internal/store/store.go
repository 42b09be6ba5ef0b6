package store

import "github.com/SiamFS/Project471/internal/domain"

// ListOptions controls catalog listing. A zero value means default sort
// (creation time descending) and no category filter or limit.
type ListOptions struct {
	Category   string
	SortField  string // "createdAt" or "Price"
	Descending bool
	Limit      int // 0 = unlimited
}

// BookUpdate carries a partial book mutation; nil fields are untouched.
type BookUpdate struct {
	Title        *string
	Author       *string
	Category     *string
	Description  *string
	Price        *float64
	ImageURL     *string
	Availability *domain.Availability
}

// PostUpdate carries a partial post mutation; nil fields are untouched.
type PostUpdate struct {
	Title   *string
	Content *string
}

// Store defines persistence operations for books, cart lines, payments,
// reports, and posts.
type Store interface {
	// books
	CreateBook(domain.Book) (domain.Book, error)
	GetBookByID(id string) (domain.Book, error)
	ListBooksByEmail(email string) ([]domain.Book, error)
	ListBooks(ListOptions) ([]domain.Book, error)
	SearchBooks(titleSubstring string) ([]domain.Book, error)
	UpdateBook(id string, upd BookUpdate) error
	SetAvailability(id string, status domain.Availability) error
	DeleteBook(id string) error

	// cart
	AddCartItem(domain.CartItem) (domain.CartItem, error)
	ListCartByEmail(email string) ([]domain.CartItem, error)
	CountCartByEmail(email string) (int64, error)
	RemoveCartItemByID(id string) error
	// RemoveCartItemByOriginalID deletes the cart line for (bookID,
	// email) and reports whether a line was removed. A missing line is
	// not an error.
	RemoveCartItemByOriginalID(bookID, email string) (bool, error)

	// payments (append-only)
	CreatePayment(domain.Payment) (domain.Payment, error)
	ListPaymentsByEmail(email string) ([]domain.Payment, error)

	// reports
	SubmitReport(domain.Report) (domain.Report, error)

	// posts
	CreatePost(domain.Post) (domain.Post, error)
	ListPosts() ([]domain.Post, error)
	AddComment(postID string, c domain.Comment) (domain.Post, error)
	UpdateComment(postID, commentID, content string) (domain.Post, error)
	DeleteComment(postID, commentID string) (domain.Post, error)
	// IncrementLike and IncrementDislike are unconditional counters. A
	// missing post is a silent no-op, matching the behavior clients
	// already rely on.
	IncrementLike(postID string) error
	IncrementDislike(postID string) error
	UpdatePost(postID string, upd PostUpdate) (domain.Post, error)
	DeletePost(postID string) error
}

// Transactor runs a function against a transaction-scoped store.
// Implementations that cannot isolate (the in-memory store) run the
// function directly.
type Transactor interface {
	WithinTransaction(fn func(Store) error) error
}
