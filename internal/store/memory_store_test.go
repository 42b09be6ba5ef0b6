package store

import (
	"errors"
	"testing"
	"time"

	"github.com/SiamFS/Project471/internal/domain"
)

func seedBook(t *testing.T, s *MemoryStore, title string, price float64, category string, createdAt time.Time) domain.Book {
	t.Helper()
	b, err := s.CreateBook(domain.Book{
		Title:       title,
		Author:      "author",
		Category:    category,
		Price:       price,
		SellerEmail: "seller@example.com",
		CreatedAt:   createdAt,
	})
	if err != nil {
		t.Fatalf("CreateBook(%q): %v", title, err)
	}
	return b
}

func TestListBooksDefaultSortNewestFirst(t *testing.T) {
	s := NewMemoryStore()
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	seedBook(t, s, "oldest", 10, "Fiction", base)
	seedBook(t, s, "middle", 20, "Fiction", base.Add(time.Hour))
	seedBook(t, s, "newest", 30, "Fiction", base.Add(2*time.Hour))

	books, err := s.ListBooks(ListOptions{})
	if err != nil {
		t.Fatalf("ListBooks: %v", err)
	}
	if len(books) != 3 {
		t.Fatalf("got %d books, want 3", len(books))
	}
	if books[0].Title != "newest" || books[2].Title != "oldest" {
		t.Errorf("order = [%s %s %s], want newest first", books[0].Title, books[1].Title, books[2].Title)
	}
}

func TestListBooksSortByPriceAscending(t *testing.T) {
	s := NewMemoryStore()
	now := time.Now().UTC()
	seedBook(t, s, "pricey", 99, "Fiction", now)
	seedBook(t, s, "cheap", 5, "Fiction", now.Add(time.Minute))
	seedBook(t, s, "mid", 40, "History", now.Add(2*time.Minute))

	books, err := s.ListBooks(ListOptions{SortField: "Price", Descending: false})
	if err != nil {
		t.Fatalf("ListBooks: %v", err)
	}
	if books[0].Title != "cheap" || books[2].Title != "pricey" {
		t.Errorf("order = [%s %s %s], want cheapest first", books[0].Title, books[1].Title, books[2].Title)
	}
}

func TestListBooksCategoryFilterAndLimit(t *testing.T) {
	s := NewMemoryStore()
	now := time.Now().UTC()
	seedBook(t, s, "h1", 10, "History", now)
	seedBook(t, s, "f1", 10, "Fiction", now.Add(time.Minute))
	seedBook(t, s, "h2", 10, "History", now.Add(2*time.Minute))

	books, err := s.ListBooks(ListOptions{Category: "History"})
	if err != nil {
		t.Fatalf("ListBooks: %v", err)
	}
	if len(books) != 2 {
		t.Fatalf("got %d History books, want 2", len(books))
	}

	limited, err := s.ListBooks(ListOptions{Limit: 1})
	if err != nil {
		t.Fatalf("ListBooks: %v", err)
	}
	if len(limited) != 1 || limited[0].Title != "h2" {
		t.Errorf("limited list = %+v, want single newest book", limited)
	}
}

func TestGetBookByIDInvalidAndMissing(t *testing.T) {
	s := NewMemoryStore()
	if _, err := s.GetBookByID("not-a-hex-id"); !errors.Is(err, ErrInvalidID) {
		t.Errorf("malformed id: got %v, want ErrInvalidID", err)
	}
	if _, err := s.GetBookByID(NewID()); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing id: got %v, want ErrNotFound", err)
	}
}

func TestUpdateBookUpsertsMissingID(t *testing.T) {
	s := NewMemoryStore()
	id := NewID()
	title := "resurrected"
	if err := s.UpdateBook(id, BookUpdate{Title: &title}); err != nil {
		t.Fatalf("UpdateBook: %v", err)
	}
	b, err := s.GetBookByID(id)
	if err != nil {
		t.Fatalf("GetBookByID after upsert: %v", err)
	}
	if b.Title != "resurrected" || b.Availability != domain.Available {
		t.Errorf("upserted book = %+v", b)
	}
}

func TestAddCartItemDuplicateRejected(t *testing.T) {
	s := NewMemoryStore()
	item := domain.CartItem{OriginalID: NewID(), UserEmail: "buyer@example.com", Title: "a book", Price: 12}
	if _, err := s.AddCartItem(item); err != nil {
		t.Fatalf("first AddCartItem: %v", err)
	}
	if _, err := s.AddCartItem(item); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("second AddCartItem: got %v, want ErrDuplicate", err)
	}
	count, err := s.CountCartByEmail("buyer@example.com")
	if err != nil {
		t.Fatalf("CountCartByEmail: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d after duplicate add, want 1", count)
	}
}

func TestRemoveCartItemByOriginalID(t *testing.T) {
	s := NewMemoryStore()
	bookID := NewID()
	if _, err := s.AddCartItem(domain.CartItem{OriginalID: bookID, UserEmail: "buyer@example.com"}); err != nil {
		t.Fatalf("AddCartItem: %v", err)
	}
	removed, err := s.RemoveCartItemByOriginalID(bookID, "buyer@example.com")
	if err != nil || !removed {
		t.Fatalf("RemoveCartItemByOriginalID = (%v, %v), want (true, nil)", removed, err)
	}
	removed, err = s.RemoveCartItemByOriginalID(bookID, "buyer@example.com")
	if err != nil || removed {
		t.Fatalf("second remove = (%v, %v), want (false, nil)", removed, err)
	}
}

func TestSubmitReportOnePerReporter(t *testing.T) {
	s := NewMemoryStore()
	r := domain.Report{BookID: NewID(), ReporterEmail: "reader@example.com", Reason: "spam"}
	if _, err := s.SubmitReport(r); err != nil {
		t.Fatalf("first SubmitReport: %v", err)
	}
	if _, err := s.SubmitReport(r); !errors.Is(err, ErrDuplicate) {
		t.Errorf("second SubmitReport: got %v, want ErrDuplicate", err)
	}
	other := domain.Report{BookID: r.BookID, ReporterEmail: "someone-else@example.com"}
	if _, err := s.SubmitReport(other); err != nil {
		t.Errorf("report from a different user: %v", err)
	}
}

func TestCommentLifecycle(t *testing.T) {
	s := NewMemoryStore()
	post, err := s.CreatePost(domain.Post{Title: "hello", Content: "first"})
	if err != nil {
		t.Fatalf("CreatePost: %v", err)
	}

	withComment, err := s.AddComment(post.ID, domain.Comment{Content: "nice read"})
	if err != nil {
		t.Fatalf("AddComment: %v", err)
	}
	if len(withComment.Comments) != 1 {
		t.Fatalf("got %d comments, want 1", len(withComment.Comments))
	}
	commentID := withComment.Comments[0].ID

	updated, err := s.UpdateComment(post.ID, commentID, "changed my mind")
	if err != nil {
		t.Fatalf("UpdateComment: %v", err)
	}
	if c := updated.Comments[0]; c.Content != "changed my mind" || !c.Edited {
		t.Errorf("updated comment = %+v, want edited content", c)
	}

	if _, err := s.UpdateComment(post.ID, "missing-comment", "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("update missing comment: got %v, want ErrNotFound", err)
	}

	after, err := s.DeleteComment(post.ID, commentID)
	if err != nil {
		t.Fatalf("DeleteComment: %v", err)
	}
	if len(after.Comments) != 0 {
		t.Errorf("got %d comments after delete, want 0", len(after.Comments))
	}
	if _, err := s.DeleteComment(post.ID, commentID); !errors.Is(err, ErrNotFound) {
		t.Errorf("delete missing comment: got %v, want ErrNotFound", err)
	}
}

func TestReactionsMissingPostIsNoOp(t *testing.T) {
	s := NewMemoryStore()
	if err := s.IncrementLike("does-not-exist"); err != nil {
		t.Errorf("IncrementLike on missing post: %v", err)
	}
	if err := s.IncrementDislike("does-not-exist"); err != nil {
		t.Errorf("IncrementDislike on missing post: %v", err)
	}

	post, err := s.CreatePost(domain.Post{Title: "t", Content: "c"})
	if err != nil {
		t.Fatalf("CreatePost: %v", err)
	}
	if err := s.IncrementLike(post.ID); err != nil {
		t.Fatalf("IncrementLike: %v", err)
	}
	if err := s.IncrementLike(post.ID); err != nil {
		t.Fatalf("IncrementLike: %v", err)
	}
	if err := s.IncrementDislike(post.ID); err != nil {
		t.Fatalf("IncrementDislike: %v", err)
	}
	posts, err := s.ListPosts()
	if err != nil {
		t.Fatalf("ListPosts: %v", err)
	}
	if posts[0].Likes != 2 || posts[0].Dislikes != 1 {
		t.Errorf("likes=%d dislikes=%d, want 2 and 1", posts[0].Likes, posts[0].Dislikes)
	}
}

func TestListPostsInsertionOrder(t *testing.T) {
	s := NewMemoryStore()
	for _, title := range []string{"one", "two", "three"} {
		if _, err := s.CreatePost(domain.Post{Title: title}); err != nil {
			t.Fatalf("CreatePost(%q): %v", title, err)
		}
	}
	posts, err := s.ListPosts()
	if err != nil {
		t.Fatalf("ListPosts: %v", err)
	}
	if len(posts) != 3 || posts[0].Title != "one" || posts[2].Title != "three" {
		t.Errorf("posts out of insertion order: %+v", posts)
	}
}

func TestValidID(t *testing.T) {
	if !ValidID(NewID()) {
		t.Error("NewID() should produce a valid id")
	}
	for _, bad := range []string{"", "short", "zzzzzzzzzzzzzzzzzzzzzzzz", NewID() + "ff"} {
		if ValidID(bad) {
			t.Errorf("ValidID(%q) = true, want false", bad)
		}
	}
}
