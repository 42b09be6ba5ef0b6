package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/SiamFS/Project471/internal/app"
	"github.com/SiamFS/Project471/internal/domain"
	"github.com/SiamFS/Project471/internal/payment"
	"github.com/SiamFS/Project471/internal/store"
)

// stubGateway serves a fixed session map; create always succeeds.
type stubGateway struct {
	sessions map[string]payment.Session
}

func (g *stubGateway) CreateSession(_ context.Context, req payment.SessionRequest) (payment.Session, error) {
	return payment.Session{ID: "cs_stub", PaymentStatus: "unpaid", Metadata: req.Metadata}, nil
}

func (g *stubGateway) GetSession(_ context.Context, id string) (payment.Session, error) {
	sess, ok := g.sessions[id]
	if !ok {
		return payment.Session{}, fmt.Errorf("no such session %s", id)
	}
	return sess, nil
}

func newTestServer(t *testing.T) (http.Handler, *store.MemoryStore, *stubGateway) {
	t.Helper()
	mem := store.NewMemoryStore()
	gw := &stubGateway{sessions: make(map[string]payment.Session)}
	core, err := app.New(app.Config{Store: mem, Gateway: gw})
	if err != nil {
		t.Fatalf("app.New: %v", err)
	}
	srv := New(Config{Store: mem, App: core, AllowedOrigin: "*"})
	return srv.Router(), mem, gw
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

func TestHealthCheck(t *testing.T) {
	handler, _, _ := newTestServer(t)
	rec := doJSON(t, handler, http.MethodGet, "/", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Body.String(); got != "Hello from the Book Inventory API!" {
		t.Errorf("body = %q", got)
	}

	rec = doJSON(t, handler, http.MethodGet, "/nope", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown path status = %d, want 404", rec.Code)
	}
}

func TestCORSHeaders(t *testing.T) {
	handler, _, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodOptions, "/allbooks", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want *", got)
	}
}

func TestUploadBook(t *testing.T) {
	handler, mem, _ := newTestServer(t)
	rec := doJSON(t, handler, http.MethodPost, "/upload-book", map[string]any{
		"bookTitle":  "The Test Book",
		"authorName": "Jane",
		"category":   "Fiction",
		"Price":      120.5,
		"email":      "seller@example.com",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Message string      `json:"message"`
		Book    domain.Book `json:"book"`
	}
	decodeBody(t, rec, &resp)
	if resp.Message != "Book uploaded successfully" {
		t.Errorf("message = %q", resp.Message)
	}
	if resp.Book.ID == "" || resp.Book.Availability != domain.Available {
		t.Errorf("book = %+v", resp.Book)
	}
	if _, err := mem.GetBookByID(resp.Book.ID); err != nil {
		t.Errorf("book not persisted: %v", err)
	}

	rec = doJSON(t, handler, http.MethodPost, "/upload-book", map[string]any{"authorName": "No Title"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing title status = %d, want 400", rec.Code)
	}
}

func TestGetBookErrors(t *testing.T) {
	handler, _, _ := newTestServer(t)
	rec := doJSON(t, handler, http.MethodGet, "/book/bogus", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("malformed id status = %d, want 400", rec.Code)
	}
	var resp map[string]string
	decodeBody(t, rec, &resp)
	if resp["message"] != "Invalid ID format" {
		t.Errorf("message = %q", resp["message"])
	}

	rec = doJSON(t, handler, http.MethodGet, "/book/"+store.NewID(), nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing book status = %d, want 404", rec.Code)
	}
}

func TestPatchBookAvailability(t *testing.T) {
	handler, mem, _ := newTestServer(t)
	b, err := mem.CreateBook(domain.Book{Title: "Patchable", SellerEmail: "s@example.com"})
	if err != nil {
		t.Fatalf("CreateBook: %v", err)
	}

	rec := doJSON(t, handler, http.MethodPatch, "/book/"+b.ID, map[string]any{"availability": "sold", "Price": 75})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}
	got, _ := mem.GetBookByID(b.ID)
	if got.Availability != domain.Sold || got.Price != 75 {
		t.Errorf("book after patch = %+v", got)
	}

	rec = doJSON(t, handler, http.MethodPatch, "/book/"+b.ID, map[string]any{"availability": "lost"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad availability status = %d, want 400", rec.Code)
	}
}

func TestAllBooksSorting(t *testing.T) {
	handler, mem, _ := newTestServer(t)
	for i, title := range []string{"a", "b", "c"} {
		if _, err := mem.CreateBook(domain.Book{Title: title, SellerEmail: "s@example.com", Price: float64(30 - i*10), Category: "Fiction"}); err != nil {
			t.Fatalf("CreateBook: %v", err)
		}
	}

	rec := doJSON(t, handler, http.MethodGet, "/allbooks?sort=Price&order=asc", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var books []domain.Book
	decodeBody(t, rec, &books)
	if len(books) != 3 || books[0].Title != "c" || books[2].Title != "a" {
		t.Errorf("price-ascending order wrong: %+v", books)
	}

	rec = doJSON(t, handler, http.MethodGet, "/books/sort/price?order=desc", nil)
	decodeBody(t, rec, &books)
	if books[0].Title != "a" {
		t.Errorf("price-descending first = %q, want a", books[0].Title)
	}

	rec = doJSON(t, handler, http.MethodGet, "/allbooks?limit=2", nil)
	decodeBody(t, rec, &books)
	if len(books) != 2 {
		t.Errorf("limited list length = %d, want 2", len(books))
	}
}

func TestCartAddDuplicate(t *testing.T) {
	handler, _, _ := newTestServer(t)
	body := map[string]any{
		"_id":        store.NewID(),
		"user_email": "buyer@example.com",
		"bookTitle":  "Dup Book",
		"Price":      50,
	}
	rec := doJSON(t, handler, http.MethodPost, "/cart", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("first add status = %d body = %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, handler, http.MethodPost, "/cart", body)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("duplicate add status = %d, want 400", rec.Code)
	}
	var resp map[string]any
	decodeBody(t, rec, &resp)
	if resp["message"] != "This book is already in your cart" {
		t.Errorf("message = %v", resp["message"])
	}
}

func TestCartCountRoutes(t *testing.T) {
	handler, mem, _ := newTestServer(t)
	email := "buyer@example.com"
	if _, err := mem.AddCartItem(domain.CartItem{OriginalID: store.NewID(), UserEmail: email}); err != nil {
		t.Fatalf("AddCartItem: %v", err)
	}

	rec := doJSON(t, handler, http.MethodGet, "/cart/count/"+email, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp map[string]int64
	decodeBody(t, rec, &resp)
	if resp["count"] != 1 {
		t.Errorf("count = %d, want 1", resp["count"])
	}

	rec = doJSON(t, handler, http.MethodPost, "/cart/count", map[string]string{"email": email})
	decodeBody(t, rec, &resp)
	if resp["count"] != 1 {
		t.Errorf("count by body = %d, want 1", resp["count"])
	}

	rec = doJSON(t, handler, http.MethodPost, "/cart/count", map[string]string{})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing email status = %d, want 400", rec.Code)
	}
}

func TestCartRemove(t *testing.T) {
	handler, mem, _ := newTestServer(t)
	item, err := mem.AddCartItem(domain.CartItem{OriginalID: store.NewID(), UserEmail: "buyer@example.com"})
	if err != nil {
		t.Fatalf("AddCartItem: %v", err)
	}

	rec := doJSON(t, handler, http.MethodDelete, "/cart/"+item.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	rec = doJSON(t, handler, http.MethodDelete, "/cart/"+item.ID, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", rec.Code)
	}
}

func TestReportDuplicate(t *testing.T) {
	handler, _, _ := newTestServer(t)
	body := map[string]string{"bookId": store.NewID(), "reporterEmail": "reader@example.com", "reason": "spam"}

	rec := doJSON(t, handler, http.MethodPost, "/report", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("first report status = %d body = %s", rec.Code, rec.Body.String())
	}
	rec = doJSON(t, handler, http.MethodPost, "/report", body)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("second report status = %d, want 400", rec.Code)
	}
	var resp map[string]any
	decodeBody(t, rec, &resp)
	if resp["message"] != "Already reported" {
		t.Errorf("message = %v", resp["message"])
	}
}

func TestPostAndCommentEndpoints(t *testing.T) {
	handler, _, _ := newTestServer(t)

	rec := doJSON(t, handler, http.MethodPost, "/posts/create", map[string]string{"title": "Hello", "content": "World"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create post status = %d", rec.Code)
	}
	var post domain.Post
	decodeBody(t, rec, &post)

	rec = doJSON(t, handler, http.MethodPost, "/posts/"+post.ID+"/comments", map[string]string{"content": "first!"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("add comment status = %d", rec.Code)
	}
	decodeBody(t, rec, &post)
	if len(post.Comments) != 1 {
		t.Fatalf("comments = %+v", post.Comments)
	}
	commentID := post.Comments[0].ID

	rec = doJSON(t, handler, http.MethodPut, "/posts/"+post.ID+"/comments/"+commentID, map[string]string{"content": "edited"})
	if rec.Code != http.StatusOK {
		t.Fatalf("update comment status = %d", rec.Code)
	}
	decodeBody(t, rec, &post)
	if !post.Comments[0].Edited || post.Comments[0].Content != "edited" {
		t.Errorf("comment after update = %+v", post.Comments[0])
	}

	rec = doJSON(t, handler, http.MethodDelete, "/posts/"+post.ID+"/comments/"+commentID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete comment status = %d", rec.Code)
	}
	rec = doJSON(t, handler, http.MethodDelete, "/posts/"+post.ID+"/comments/"+commentID, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("delete missing comment status = %d, want 404", rec.Code)
	}
	var errResp map[string]string
	decodeBody(t, rec, &errResp)
	if errResp["error"] != "Comment not found or not deleted" {
		t.Errorf("error = %q", errResp["error"])
	}
}

func TestReactionMissingPostStillSucceeds(t *testing.T) {
	handler, _, _ := newTestServer(t)
	rec := doJSON(t, handler, http.MethodPost, "/posts/"+store.NewID()+"/like", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("like on missing post status = %d, want 200", rec.Code)
	}
	var resp map[string]string
	decodeBody(t, rec, &resp)
	if resp["message"] != "Post liked" {
		t.Errorf("message = %q", resp["message"])
	}
}

func TestPaymentSuccessFlow(t *testing.T) {
	handler, mem, gw := newTestServer(t)
	email := "buyer@example.com"
	book, err := mem.CreateBook(domain.Book{Title: "Paid Book", SellerEmail: "s@example.com", Price: 300})
	if err != nil {
		t.Fatalf("CreateBook: %v", err)
	}
	if _, err := mem.AddCartItem(domain.CartItem{OriginalID: book.ID, UserEmail: email, Title: "Paid Book"}); err != nil {
		t.Fatalf("AddCartItem: %v", err)
	}

	gw.sessions["cs_unpaid"] = payment.Session{
		ID:            "cs_unpaid",
		PaymentStatus: "unpaid",
		Metadata: map[string]string{
			"originalBookIds": fmt.Sprintf(`["%s"]`, book.ID),
			"customerEmail":   email,
		},
	}
	rec := doJSON(t, handler, http.MethodPost, "/payment-success", map[string]string{"session_id": "cs_unpaid"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unpaid session status = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Payment not completed") {
		t.Errorf("body = %s", rec.Body.String())
	}

	gw.sessions["cs_paid"] = payment.Session{
		ID:            "cs_paid",
		PaymentStatus: payment.StatusPaid,
		AmountTotal:   30000,
		Metadata: map[string]string{
			"originalBookIds": fmt.Sprintf(`["%s"]`, book.ID),
			"customerEmail":   email,
			"bookTitles":      `["Paid Book"]`,
		},
	}
	rec = doJSON(t, handler, http.MethodPost, "/payment-success", map[string]string{"session_id": "cs_paid"})
	if rec.Code != http.StatusOK {
		t.Fatalf("paid session status = %d body = %s", rec.Code, rec.Body.String())
	}
	got, _ := mem.GetBookByID(book.ID)
	if got.Availability != domain.Sold {
		t.Errorf("availability = %q, want sold", got.Availability)
	}
	payments, _ := mem.ListPaymentsByEmail(email)
	if len(payments) != 1 || payments[0].Amount != 300 {
		t.Errorf("payments = %+v", payments)
	}
}

func TestCashOnDelivery(t *testing.T) {
	handler, mem, _ := newTestServer(t)
	email := "buyer@example.com"
	book, err := mem.CreateBook(domain.Book{Title: "COD Book", SellerEmail: "s@example.com", Price: 150})
	if err != nil {
		t.Fatalf("CreateBook: %v", err)
	}
	if _, err := mem.AddCartItem(domain.CartItem{OriginalID: book.ID, UserEmail: email}); err != nil {
		t.Fatalf("AddCartItem: %v", err)
	}

	rec := doJSON(t, handler, http.MethodPost, "/cash-on-delivery", map[string]any{
		"email":       email,
		"address":     "12 Road, Dhaka",
		"totalAmount": 150,
		"items":       []map[string]string{{"_id": book.ID, "bookTitle": "COD Book"}},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "Order placed successfully") {
		t.Errorf("body = %s", rec.Body.String())
	}
	got, _ := mem.GetBookByID(book.ID)
	if got.Availability != domain.Sold {
		t.Errorf("availability = %q, want sold", got.Availability)
	}
	count, _ := mem.CountCartByEmail(email)
	if count != 0 {
		t.Errorf("cart count = %d, want 0", count)
	}
}

func TestUploadCoverUnconfigured(t *testing.T) {
	handler, _, _ := newTestServer(t)
	rec := doJSON(t, handler, http.MethodPost, "/upload-cover", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503 without object storage", rec.Code)
	}
}

// fakeCoverStore records uploads and serves deterministic URLs.
type fakeCoverStore struct {
	keys []string
}

func (f *fakeCoverStore) Upload(_ context.Context, ext string, r io.Reader, _ int64, _ string) (string, error) {
	if _, err := io.Copy(io.Discard, r); err != nil {
		return "", err
	}
	key := fmt.Sprintf("covers/test-%d%s", len(f.keys), ext)
	f.keys = append(f.keys, key)
	return key, nil
}

func (f *fakeCoverStore) ShareURL(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://cdn.example.com/" + key, nil
}

func (f *fakeCoverStore) Remove(context.Context, string) error { return nil }

func multipartCover(t *testing.T, filename string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("cover", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write([]byte("fake image bytes")); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &buf, writer.FormDataContentType()
}

func TestUploadCover(t *testing.T) {
	mem := store.NewMemoryStore()
	core, err := app.New(app.Config{Store: mem, Gateway: &stubGateway{}})
	if err != nil {
		t.Fatalf("app.New: %v", err)
	}
	covers := &fakeCoverStore{}
	handler := New(Config{Store: mem, App: core, Objects: covers}).Router()

	body, contentType := multipartCover(t, "cover.jpg")
	req := httptest.NewRequest(http.MethodPost, "/upload-cover", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}
	var resp map[string]string
	decodeBody(t, rec, &resp)
	if !strings.HasPrefix(resp["url"], "https://cdn.example.com/covers/") {
		t.Errorf("url = %q", resp["url"])
	}
	if len(covers.keys) != 1 || !strings.HasSuffix(covers.keys[0], ".jpg") {
		t.Errorf("stored keys = %v", covers.keys)
	}

	body, contentType = multipartCover(t, "cover.exe")
	req = httptest.NewRequest(http.MethodPost, "/upload-cover", body)
	req.Header.Set("Content-Type", contentType)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("disallowed extension status = %d, want 400", rec.Code)
	}
}

func TestSearch(t *testing.T) {
	handler, mem, _ := newTestServer(t)
	if _, err := mem.CreateBook(domain.Book{Title: "Golang in Action", SellerEmail: "s@example.com"}); err != nil {
		t.Fatalf("CreateBook: %v", err)
	}
	rec := doJSON(t, handler, http.MethodGet, "/search/golang", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var books []domain.Book
	decodeBody(t, rec, &books)
	if len(books) != 1 || books[0].Title != "Golang in Action" {
		t.Errorf("search results = %+v", books)
	}
}
