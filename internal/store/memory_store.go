package store

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/SiamFS/Project471/internal/domain"
)

// MemoryStore keeps everything in-process. It mirrors GormStore's
// semantics closely enough to back the HTTP and orchestrator tests.
type MemoryStore struct {
	mu        sync.RWMutex
	books     map[string]domain.Book
	bookOrder []string
	cart      map[string]domain.CartItem
	cartOrder []string
	payments  []domain.Payment
	reports   map[string]domain.Report // key: bookID|reporterEmail
	posts     map[string]domain.Post
	postOrder []string
}

// NewMemoryStore initializes an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		books:   make(map[string]domain.Book),
		cart:    make(map[string]domain.CartItem),
		reports: make(map[string]domain.Report),
		posts:   make(map[string]domain.Post),
	}
}

// WithinTransaction runs fn directly; the in-memory store has no
// isolation to offer.
func (m *MemoryStore) WithinTransaction(fn func(Store) error) error {
	return fn(m)
}

// books

func (m *MemoryStore) CreateBook(b domain.Book) (domain.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b.ID == "" {
		b.ID = NewID()
	}
	if b.Availability == "" {
		b.Availability = domain.Available
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
	if _, exists := m.books[b.ID]; !exists {
		m.bookOrder = append(m.bookOrder, b.ID)
	}
	m.books[b.ID] = b
	return b, nil
}

func (m *MemoryStore) GetBookByID(id string) (domain.Book, error) {
	if !ValidID(id) {
		return domain.Book{}, ErrInvalidID
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.books[id]
	if !ok {
		return domain.Book{}, ErrNotFound
	}
	return b, nil
}

func (m *MemoryStore) ListBooksByEmail(email string) ([]domain.Book, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.Book, 0)
	for _, id := range m.bookOrder {
		if b, ok := m.books[id]; ok && b.SellerEmail == email {
			res = append(res, b)
		}
	}
	sort.SliceStable(res, func(i, j int) bool { return res[i].CreatedAt.After(res[j].CreatedAt) })
	return res, nil
}

func (m *MemoryStore) ListBooks(opts ListOptions) ([]domain.Book, error) {
	m.mu.RLock()
	res := make([]domain.Book, 0, len(m.bookOrder))
	for _, id := range m.bookOrder {
		b, ok := m.books[id]
		if !ok {
			continue
		}
		if opts.Category != "" && b.Category != opts.Category {
			continue
		}
		res = append(res, b)
	}
	m.mu.RUnlock()

	field := opts.SortField
	desc := opts.Descending
	if _, ok := sortColumns[field]; !ok {
		field = "createdAt"
		desc = true
	}
	sort.SliceStable(res, func(i, j int) bool {
		var less bool
		switch field {
		case "Price":
			less = res[i].Price < res[j].Price
		default:
			less = res[i].CreatedAt.Before(res[j].CreatedAt)
		}
		if desc {
			return !less
		}
		return less
	})
	if opts.Limit > 0 && len(res) > opts.Limit {
		res = res[:opts.Limit]
	}
	return res, nil
}

func (m *MemoryStore) SearchBooks(titleSubstring string) ([]domain.Book, error) {
	needle := strings.ToLower(titleSubstring)
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.Book, 0)
	for _, id := range m.bookOrder {
		if b, ok := m.books[id]; ok && strings.Contains(strings.ToLower(b.Title), needle) {
			res = append(res, b)
		}
	}
	return res, nil
}

func (m *MemoryStore) UpdateBook(id string, upd BookUpdate) error {
	if !ValidID(id) {
		return ErrInvalidID
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.books[id]
	if !ok {
		b = domain.Book{ID: id, Availability: domain.Available, CreatedAt: time.Now().UTC()}
		m.bookOrder = append(m.bookOrder, id)
	}
	if upd.Title != nil {
		b.Title = *upd.Title
	}
	if upd.Author != nil {
		b.Author = *upd.Author
	}
	if upd.Category != nil {
		b.Category = *upd.Category
	}
	if upd.Description != nil {
		b.Description = *upd.Description
	}
	if upd.Price != nil {
		b.Price = *upd.Price
	}
	if upd.ImageURL != nil {
		b.ImageURL = *upd.ImageURL
	}
	if upd.Availability != nil {
		b.Availability = *upd.Availability
	}
	m.books[id] = b
	return nil
}

func (m *MemoryStore) SetAvailability(id string, status domain.Availability) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.books[id]
	if !ok {
		return nil
	}
	b.Availability = status
	m.books[id] = b
	return nil
}

func (m *MemoryStore) DeleteBook(id string) error {
	if !ValidID(id) {
		return ErrInvalidID
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.books[id]; !ok {
		return ErrNotFound
	}
	delete(m.books, id)
	m.bookOrder = removeString(m.bookOrder, id)
	return nil
}

// cart

func (m *MemoryStore) AddCartItem(item domain.CartItem) (domain.CartItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.cart {
		if existing.UserEmail == item.UserEmail && existing.OriginalID == item.OriginalID {
			return domain.CartItem{}, ErrDuplicate
		}
	}
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}
	m.cart[item.ID] = item
	m.cartOrder = append(m.cartOrder, item.ID)
	return item, nil
}

func (m *MemoryStore) ListCartByEmail(email string) ([]domain.CartItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.CartItem, 0)
	for _, id := range m.cartOrder {
		if item, ok := m.cart[id]; ok && item.UserEmail == email {
			res = append(res, item)
		}
	}
	return res, nil
}

func (m *MemoryStore) CountCartByEmail(email string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var count int64
	for _, item := range m.cart {
		if item.UserEmail == email {
			count++
		}
	}
	return count, nil
}

func (m *MemoryStore) RemoveCartItemByID(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.cart[id]; !ok {
		return ErrNotFound
	}
	delete(m.cart, id)
	m.cartOrder = removeString(m.cartOrder, id)
	return nil
}

func (m *MemoryStore) RemoveCartItemByOriginalID(bookID, email string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, item := range m.cart {
		if item.OriginalID == bookID && item.UserEmail == email {
			delete(m.cart, id)
			m.cartOrder = removeString(m.cartOrder, id)
			return true, nil
		}
	}
	return false, nil
}

// payments

func (m *MemoryStore) CreatePayment(p domain.Payment) (domain.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID == "" {
		p.ID = NewID()
	}
	if p.PaymentDate.IsZero() {
		p.PaymentDate = time.Now().UTC()
	}
	m.payments = append(m.payments, p)
	return p, nil
}

func (m *MemoryStore) ListPaymentsByEmail(email string) ([]domain.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.Payment, 0)
	for _, p := range m.payments {
		if p.Email == email {
			res = append(res, p)
		}
	}
	sort.SliceStable(res, func(i, j int) bool { return res[i].PaymentDate.After(res[j].PaymentDate) })
	return res, nil
}

// reports

func (m *MemoryStore) SubmitReport(r domain.Report) (domain.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := r.BookID + "|" + r.ReporterEmail
	if _, exists := m.reports[key]; exists {
		return domain.Report{}, ErrDuplicate
	}
	if r.ID == "" {
		r.ID = NewID()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	m.reports[key] = r
	return r, nil
}

// posts

func (m *MemoryStore) CreatePost(p domain.Post) (domain.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID == "" {
		p.ID = NewID()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	p.Likes = 0
	p.Dislikes = 0
	p.Comments = []domain.Comment{}
	m.posts[p.ID] = p
	m.postOrder = append(m.postOrder, p.ID)
	return p, nil
}

func (m *MemoryStore) ListPosts() ([]domain.Post, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.Post, 0, len(m.postOrder))
	for _, id := range m.postOrder {
		if p, ok := m.posts[id]; ok {
			res = append(res, p)
		}
	}
	return res, nil
}

func (m *MemoryStore) AddComment(postID string, c domain.Comment) (domain.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[postID]
	if !ok {
		return domain.Post{}, ErrNotFound
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	p.Comments = append(append([]domain.Comment{}, p.Comments...), c)
	m.posts[postID] = p
	return p, nil
}

func (m *MemoryStore) UpdateComment(postID, commentID, content string) (domain.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[postID]
	if !ok {
		return domain.Post{}, ErrNotFound
	}
	comments := append([]domain.Comment{}, p.Comments...)
	found := false
	for i := range comments {
		if comments[i].ID == commentID {
			comments[i].Content = content
			comments[i].Edited = true
			found = true
			break
		}
	}
	if !found {
		return domain.Post{}, ErrNotFound
	}
	p.Comments = comments
	m.posts[postID] = p
	return p, nil
}

func (m *MemoryStore) DeleteComment(postID, commentID string) (domain.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[postID]
	if !ok {
		return domain.Post{}, ErrNotFound
	}
	kept := make([]domain.Comment, 0, len(p.Comments))
	found := false
	for _, c := range p.Comments {
		if c.ID == commentID {
			found = true
			continue
		}
		kept = append(kept, c)
	}
	if !found {
		return domain.Post{}, ErrNotFound
	}
	p.Comments = kept
	m.posts[postID] = p
	return p, nil
}

func (m *MemoryStore) IncrementLike(postID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.posts[postID]; ok {
		p.Likes++
		m.posts[postID] = p
	}
	return nil
}

func (m *MemoryStore) IncrementDislike(postID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.posts[postID]; ok {
		p.Dislikes++
		m.posts[postID] = p
	}
	return nil
}

func (m *MemoryStore) UpdatePost(postID string, upd PostUpdate) (domain.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[postID]
	if !ok {
		return domain.Post{}, ErrNotFound
	}
	if upd.Title != nil {
		p.Title = *upd.Title
	}
	if upd.Content != nil {
		p.Content = *upd.Content
	}
	m.posts[postID] = p
	return p, nil
}

func (m *MemoryStore) DeletePost(postID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.posts[postID]; !ok {
		return ErrNotFound
	}
	delete(m.posts, postID)
	m.postOrder = removeString(m.postOrder, postID)
	return nil
}

func removeString(items []string, target string) []string {
	filtered := items[:0]
	for _, item := range items {
		if item != target {
			filtered = append(filtered, item)
		}
	}
	return filtered
}
