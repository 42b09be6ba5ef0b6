package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/SiamFS/Project471/internal/domain"
)

// GormStore implements Store using GORM + Postgres. Embedded comment and
// payment item sequences live in JSON columns.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore opens the DB and runs auto-migrations.
func NewGormStore(dsn string) (*GormStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.AutoMigrate(&BookModel{}, &CartItemModel{}, &PaymentModel{}, &ReportModel{}, &PostModel{}); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	return &GormStore{db: db}, nil
}

// Close releases the underlying connection pool.
func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// WithinTransaction runs fn against a transaction-scoped store.
func (s *GormStore) WithinTransaction(fn func(Store) error) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}

// books

// CreateBook stores a new book, generating identifier and timestamp.
func (s *GormStore) CreateBook(b domain.Book) (domain.Book, error) {
	if b.ID == "" {
		b.ID = NewID()
	}
	if b.Availability == "" {
		b.Availability = domain.Available
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
	model := bookToModel(b)
	if err := s.db.Create(&model).Error; err != nil {
		return domain.Book{}, err
	}
	return b, nil
}

// GetBookByID retrieves a book, distinguishing malformed from missing ids.
func (s *GormStore) GetBookByID(id string) (domain.Book, error) {
	if !ValidID(id) {
		return domain.Book{}, ErrInvalidID
	}
	var model BookModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Book{}, ErrNotFound
		}
		return domain.Book{}, err
	}
	return bookFromModel(model), nil
}

// ListBooksByEmail returns the seller's listings.
func (s *GormStore) ListBooksByEmail(email string) ([]domain.Book, error) {
	var models []BookModel
	if err := s.db.Where("seller_email = ?", email).Order("created_at DESC").Find(&models).Error; err != nil {
		return nil, err
	}
	return booksFromModels(models), nil
}

var sortColumns = map[string]string{
	"createdAt": "created_at",
	"Price":     "price",
}

// ListBooks returns books with optional category filter, sort, and
// limit. The default order is creation time descending.
func (s *GormStore) ListBooks(opts ListOptions) ([]domain.Book, error) {
	tx := s.db.Model(&BookModel{})
	if opts.Category != "" {
		tx = tx.Where("category = ?", opts.Category)
	}
	column, ok := sortColumns[opts.SortField]
	if !ok {
		column = "created_at"
		opts.Descending = true
	}
	direction := "ASC"
	if opts.Descending {
		direction = "DESC"
	}
	tx = tx.Order(column + " " + direction)
	if opts.Limit > 0 {
		tx = tx.Limit(opts.Limit)
	}
	var models []BookModel
	if err := tx.Find(&models).Error; err != nil {
		return nil, err
	}
	return booksFromModels(models), nil
}

// SearchBooks matches titles by case-insensitive substring.
func (s *GormStore) SearchBooks(titleSubstring string) ([]domain.Book, error) {
	var models []BookModel
	if err := s.db.Where("title ILIKE ?", "%"+titleSubstring+"%").Find(&models).Error; err != nil {
		return nil, err
	}
	return booksFromModels(models), nil
}

// UpdateBook merges the given fields into the record, creating it when
// absent (the original endpoint upserts).
func (s *GormStore) UpdateBook(id string, upd BookUpdate) error {
	if !ValidID(id) {
		return ErrInvalidID
	}
	fields := bookUpdateColumns(upd)
	if len(fields) == 0 {
		return nil
	}
	res := s.db.Model(&BookModel{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		model := BookModel{ID: id, Availability: string(domain.Available), CreatedAt: time.Now().UTC()}
		applyBookUpdate(&model, upd)
		return s.db.Create(&model).Error
	}
	return nil
}

// SetAvailability flips a book's availability. A missing book is not an
// error here; the checkout commit treats each item as best-effort.
func (s *GormStore) SetAvailability(id string, status domain.Availability) error {
	return s.db.Model(&BookModel{}).Where("id = ?", id).
		UpdateColumn("availability", string(status)).Error
}

// DeleteBook removes a book.
func (s *GormStore) DeleteBook(id string) error {
	if !ValidID(id) {
		return ErrInvalidID
	}
	res := s.db.Delete(&BookModel{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// cart

// AddCartItem inserts a cart line unless one already exists for the
// (user, book) pair. The duplicate check is read-then-insert, so two
// concurrent adds for the same pair can both pass the read.
func (s *GormStore) AddCartItem(item domain.CartItem) (domain.CartItem, error) {
	var count int64
	if err := s.db.Model(&CartItemModel{}).
		Where("user_email = ? AND original_id = ?", item.UserEmail, item.OriginalID).
		Count(&count).Error; err != nil {
		return domain.CartItem{}, err
	}
	if count > 0 {
		return domain.CartItem{}, ErrDuplicate
	}
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}
	model := cartItemToModel(item)
	if err := s.db.Create(&model).Error; err != nil {
		return domain.CartItem{}, err
	}
	return item, nil
}

// ListCartByEmail returns the user's cart lines.
func (s *GormStore) ListCartByEmail(email string) ([]domain.CartItem, error) {
	var models []CartItemModel
	if err := s.db.Where("user_email = ?", email).Order("created_at ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	items := make([]domain.CartItem, 0, len(models))
	for _, m := range models {
		items = append(items, cartItemFromModel(m))
	}
	return items, nil
}

// CountCartByEmail returns the number of cart lines for a user.
func (s *GormStore) CountCartByEmail(email string) (int64, error) {
	var count int64
	err := s.db.Model(&CartItemModel{}).Where("user_email = ?", email).Count(&count).Error
	return count, err
}

// RemoveCartItemByID deletes a cart line by its own identifier.
func (s *GormStore) RemoveCartItemByID(id string) error {
	res := s.db.Delete(&CartItemModel{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// RemoveCartItemByOriginalID deletes the cart line referencing a book
// for one user, reporting whether anything was removed.
func (s *GormStore) RemoveCartItemByOriginalID(bookID, email string) (bool, error) {
	res := s.db.Delete(&CartItemModel{}, "original_id = ? AND user_email = ?", bookID, email)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// payments

// CreatePayment appends a payment record.
func (s *GormStore) CreatePayment(p domain.Payment) (domain.Payment, error) {
	if p.ID == "" {
		p.ID = NewID()
	}
	if p.PaymentDate.IsZero() {
		p.PaymentDate = time.Now().UTC()
	}
	items, err := json.Marshal(p.Items)
	if err != nil {
		return domain.Payment{}, fmt.Errorf("marshal payment items: %w", err)
	}
	model := PaymentModel{
		ID:          p.ID,
		Email:       p.Email,
		Amount:      p.Amount,
		Items:       datatypes.JSON(items),
		Address:     p.Address,
		Method:      string(p.Method),
		PaymentDate: p.PaymentDate,
	}
	if err := s.db.Create(&model).Error; err != nil {
		return domain.Payment{}, err
	}
	return p, nil
}

// ListPaymentsByEmail returns a user's payment history, newest first.
func (s *GormStore) ListPaymentsByEmail(email string) ([]domain.Payment, error) {
	var models []PaymentModel
	if err := s.db.Where("email = ?", email).Order("payment_date DESC").Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Payment, 0, len(models))
	for _, m := range models {
		p, err := paymentFromModel(m)
		if err != nil {
			return nil, err
		}
		res = append(res, p)
	}
	return res, nil
}

// reports

// SubmitReport records a report unless the reporter already flagged the
// book. Same read-then-insert shape as the cart duplicate check.
func (s *GormStore) SubmitReport(r domain.Report) (domain.Report, error) {
	var count int64
	if err := s.db.Model(&ReportModel{}).
		Where("book_id = ? AND reporter_email = ?", r.BookID, r.ReporterEmail).
		Count(&count).Error; err != nil {
		return domain.Report{}, err
	}
	if count > 0 {
		return domain.Report{}, ErrDuplicate
	}
	if r.ID == "" {
		r.ID = NewID()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	model := ReportModel{
		ID:            r.ID,
		BookID:        r.BookID,
		ReporterEmail: r.ReporterEmail,
		Reason:        r.Reason,
		Details:       r.Details,
		CreatedAt:     r.CreatedAt,
	}
	if err := s.db.Create(&model).Error; err != nil {
		return domain.Report{}, err
	}
	return r, nil
}

// posts

// CreatePost stores a post with an empty comment sequence and zero
// counters.
func (s *GormStore) CreatePost(p domain.Post) (domain.Post, error) {
	if p.ID == "" {
		p.ID = NewID()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	p.Likes = 0
	p.Dislikes = 0
	p.Comments = []domain.Comment{}
	model, err := postToModel(p)
	if err != nil {
		return domain.Post{}, err
	}
	if err := s.db.Create(&model).Error; err != nil {
		return domain.Post{}, err
	}
	return p, nil
}

// ListPosts returns all posts in insertion order.
func (s *GormStore) ListPosts() ([]domain.Post, error) {
	var models []PostModel
	if err := s.db.Order("created_at ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Post, 0, len(models))
	for _, m := range models {
		p, err := postFromModel(m)
		if err != nil {
			return nil, err
		}
		res = append(res, p)
	}
	return res, nil
}

// AddComment appends a comment with a fresh identifier and timestamp.
func (s *GormStore) AddComment(postID string, c domain.Comment) (domain.Post, error) {
	post, err := s.getPost(postID)
	if err != nil {
		return domain.Post{}, err
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	post.Comments = append(post.Comments, c)
	if err := s.saveComments(post); err != nil {
		return domain.Post{}, err
	}
	return post, nil
}

// UpdateComment sets content and marks the matching comment edited.
func (s *GormStore) UpdateComment(postID, commentID, content string) (domain.Post, error) {
	post, err := s.getPost(postID)
	if err != nil {
		return domain.Post{}, err
	}
	found := false
	for i := range post.Comments {
		if post.Comments[i].ID == commentID {
			post.Comments[i].Content = content
			post.Comments[i].Edited = true
			found = true
			break
		}
	}
	if !found {
		return domain.Post{}, ErrNotFound
	}
	if err := s.saveComments(post); err != nil {
		return domain.Post{}, err
	}
	return post, nil
}

// DeleteComment removes the matching comment from the sequence.
func (s *GormStore) DeleteComment(postID, commentID string) (domain.Post, error) {
	post, err := s.getPost(postID)
	if err != nil {
		return domain.Post{}, err
	}
	kept := post.Comments[:0]
	found := false
	for _, c := range post.Comments {
		if c.ID == commentID {
			found = true
			continue
		}
		kept = append(kept, c)
	}
	if !found {
		return domain.Post{}, ErrNotFound
	}
	post.Comments = kept
	if err := s.saveComments(post); err != nil {
		return domain.Post{}, err
	}
	return post, nil
}

// IncrementLike adds one like. A missing post is a silent no-op.
func (s *GormStore) IncrementLike(postID string) error {
	return s.db.Model(&PostModel{}).Where("id = ?", postID).
		UpdateColumn("likes", gorm.Expr("likes + 1")).Error
}

// IncrementDislike adds one dislike. A missing post is a silent no-op.
func (s *GormStore) IncrementDislike(postID string) error {
	return s.db.Model(&PostModel{}).Where("id = ?", postID).
		UpdateColumn("dislikes", gorm.Expr("dislikes + 1")).Error
}

// UpdatePost merges the given fields into an existing post.
func (s *GormStore) UpdatePost(postID string, upd PostUpdate) (domain.Post, error) {
	fields := map[string]any{}
	if upd.Title != nil {
		fields["title"] = *upd.Title
	}
	if upd.Content != nil {
		fields["content"] = *upd.Content
	}
	if len(fields) > 0 {
		res := s.db.Model(&PostModel{}).Where("id = ?", postID).Updates(fields)
		if res.Error != nil {
			return domain.Post{}, res.Error
		}
		if res.RowsAffected == 0 {
			return domain.Post{}, ErrNotFound
		}
	}
	return s.getPost(postID)
}

// DeletePost removes a post and its embedded comments.
func (s *GormStore) DeletePost(postID string) error {
	res := s.db.Delete(&PostModel{}, "id = ?", postID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) getPost(id string) (domain.Post, error) {
	var model PostModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Post{}, ErrNotFound
		}
		return domain.Post{}, err
	}
	return postFromModel(model)
}

func (s *GormStore) saveComments(p domain.Post) error {
	data, err := json.Marshal(p.Comments)
	if err != nil {
		return fmt.Errorf("marshal comments: %w", err)
	}
	return s.db.Model(&PostModel{}).Where("id = ?", p.ID).
		UpdateColumn("comments", datatypes.JSON(data)).Error
}

// conversions

func bookToModel(b domain.Book) BookModel {
	return BookModel{
		ID:           b.ID,
		Title:        b.Title,
		Author:       b.Author,
		Category:     b.Category,
		Description:  b.Description,
		Price:        b.Price,
		ImageURL:     b.ImageURL,
		SellerEmail:  b.SellerEmail,
		Availability: string(b.Availability),
		CreatedAt:    b.CreatedAt,
	}
}

func bookFromModel(m BookModel) domain.Book {
	return domain.Book{
		ID:           m.ID,
		Title:        m.Title,
		Author:       m.Author,
		Category:     m.Category,
		Description:  m.Description,
		Price:        m.Price,
		ImageURL:     m.ImageURL,
		SellerEmail:  m.SellerEmail,
		Availability: domain.Availability(m.Availability),
		CreatedAt:    m.CreatedAt,
	}
}

func booksFromModels(models []BookModel) []domain.Book {
	res := make([]domain.Book, 0, len(models))
	for _, m := range models {
		res = append(res, bookFromModel(m))
	}
	return res
}

func cartItemToModel(item domain.CartItem) CartItemModel {
	return CartItemModel{
		ID:         item.ID,
		OriginalID: item.OriginalID,
		UserEmail:  item.UserEmail,
		Title:      item.Title,
		Price:      item.Price,
		ImageURL:   item.ImageURL,
		CreatedAt:  item.CreatedAt,
	}
}

func cartItemFromModel(m CartItemModel) domain.CartItem {
	return domain.CartItem{
		ID:         m.ID,
		OriginalID: m.OriginalID,
		UserEmail:  m.UserEmail,
		Title:      m.Title,
		Price:      m.Price,
		ImageURL:   m.ImageURL,
		CreatedAt:  m.CreatedAt,
	}
}

func paymentFromModel(m PaymentModel) (domain.Payment, error) {
	var items []domain.PaymentItem
	if len(m.Items) > 0 {
		if err := json.Unmarshal(m.Items, &items); err != nil {
			return domain.Payment{}, fmt.Errorf("unmarshal payment items: %w", err)
		}
	}
	return domain.Payment{
		ID:          m.ID,
		Email:       m.Email,
		Amount:      m.Amount,
		Items:       items,
		Address:     m.Address,
		Method:      domain.PaymentMethod(m.Method),
		PaymentDate: m.PaymentDate,
	}, nil
}

func postToModel(p domain.Post) (PostModel, error) {
	comments, err := json.Marshal(p.Comments)
	if err != nil {
		return PostModel{}, fmt.Errorf("marshal comments: %w", err)
	}
	return PostModel{
		ID:          p.ID,
		Title:       p.Title,
		Content:     p.Content,
		AuthorName:  p.AuthorName,
		AuthorEmail: p.AuthorEmail,
		Likes:       p.Likes,
		Dislikes:    p.Dislikes,
		Comments:    datatypes.JSON(comments),
		CreatedAt:   p.CreatedAt,
	}, nil
}

func postFromModel(m PostModel) (domain.Post, error) {
	var comments []domain.Comment
	if len(m.Comments) > 0 {
		if err := json.Unmarshal(m.Comments, &comments); err != nil {
			return domain.Post{}, fmt.Errorf("unmarshal comments: %w", err)
		}
	}
	if comments == nil {
		comments = []domain.Comment{}
	}
	return domain.Post{
		ID:          m.ID,
		Title:       m.Title,
		Content:     m.Content,
		AuthorName:  m.AuthorName,
		AuthorEmail: m.AuthorEmail,
		Likes:       m.Likes,
		Dislikes:    m.Dislikes,
		Comments:    comments,
		CreatedAt:   m.CreatedAt,
	}, nil
}

func bookUpdateColumns(upd BookUpdate) map[string]any {
	fields := map[string]any{}
	if upd.Title != nil {
		fields["title"] = *upd.Title
	}
	if upd.Author != nil {
		fields["author"] = *upd.Author
	}
	if upd.Category != nil {
		fields["category"] = *upd.Category
	}
	if upd.Description != nil {
		fields["description"] = *upd.Description
	}
	if upd.Price != nil {
		fields["price"] = *upd.Price
	}
	if upd.ImageURL != nil {
		fields["image_url"] = *upd.ImageURL
	}
	if upd.Availability != nil {
		fields["availability"] = string(*upd.Availability)
	}
	return fields
}

func applyBookUpdate(model *BookModel, upd BookUpdate) {
	if upd.Title != nil {
		model.Title = *upd.Title
	}
	if upd.Author != nil {
		model.Author = *upd.Author
	}
	if upd.Category != nil {
		model.Category = *upd.Category
	}
	if upd.Description != nil {
		model.Description = *upd.Description
	}
	if upd.Price != nil {
		model.Price = *upd.Price
	}
	if upd.ImageURL != nil {
		model.ImageURL = *upd.ImageURL
	}
	if upd.Availability != nil {
		model.Availability = string(*upd.Availability)
	}
}
