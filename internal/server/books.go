package server

import (
	"context"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/SiamFS/Project471/internal/domain"
	"github.com/SiamFS/Project471/internal/store"
)

// POST /upload-book
func (s *Server) handleUploadBook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var book domain.Book
	if err := decodeJSON(r, &book); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if book.Title == "" || book.SellerEmail == "" {
		writeError(w, http.StatusBadRequest, "bookTitle and email are required")
		return
	}
	book.ID = ""
	created, err := s.store.CreateBook(book)
	if err != nil {
		slog.Error("upload book failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "Failed to upload book"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Book uploaded successfully",
		"book":    created,
	})
}

// /book/email/:email and /book/:id
func (s *Server) handleBookSubtree(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/book/")
	parts := strings.SplitN(path, "/", 2)
	if parts[0] == "" {
		http.NotFound(w, r)
		return
	}
	if parts[0] == "email" {
		if len(parts) != 2 || parts[1] == "" {
			http.NotFound(w, r)
			return
		}
		s.handleBooksByEmail(w, r, parts[1])
		return
	}
	if len(parts) == 2 {
		http.NotFound(w, r)
		return
	}
	id := parts[0]
	switch r.Method {
	case http.MethodGet:
		s.handleGetBook(w, id)
	case http.MethodPatch:
		s.handlePatchBook(w, r, id)
	case http.MethodDelete:
		s.handleDeleteBook(w, id)
	default:
		methodNotAllowed(w)
	}
}

// GET /book/email/:email
func (s *Server) handleBooksByEmail(w http.ResponseWriter, r *http.Request, email string) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	books, err := s.store.ListBooksByEmail(email)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, books)
}

// GET /book/:id
func (s *Server) handleGetBook(w http.ResponseWriter, id string) {
	book, err := s.store.GetBookByID(id)
	if err != nil {
		switch storeStatus(err) {
		case http.StatusBadRequest:
			writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid ID format"})
		case http.StatusNotFound:
			writeJSON(w, http.StatusNotFound, map[string]string{"message": "Book not found"})
		default:
			writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "Error fetching book"})
		}
		return
	}
	writeJSON(w, http.StatusOK, book)
}

type bookPatchRequest struct {
	Title        *string  `json:"bookTitle"`
	Author       *string  `json:"authorName"`
	Category     *string  `json:"category"`
	Description  *string  `json:"bookDescription"`
	Price        *float64 `json:"Price"`
	ImageURL     *string  `json:"imageURL"`
	Availability *string  `json:"availability"`
}

// PATCH /book/:id
func (s *Server) handlePatchBook(w http.ResponseWriter, r *http.Request, id string) {
	var req bookPatchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	upd := store.BookUpdate{
		Title:       req.Title,
		Author:      req.Author,
		Category:    req.Category,
		Description: req.Description,
		Price:       req.Price,
		ImageURL:    req.ImageURL,
	}
	if req.Availability != nil {
		availability := domain.Availability(*req.Availability)
		if availability != domain.Available && availability != domain.Sold {
			writeError(w, http.StatusBadRequest, "invalid availability")
			return
		}
		upd.Availability = &availability
	}
	if err := s.store.UpdateBook(id, upd); err != nil {
		writeError(w, storeStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Book updated successfully"})
}

// DELETE /book/:id
func (s *Server) handleDeleteBook(w http.ResponseWriter, id string) {
	if err := s.store.DeleteBook(id); err != nil {
		switch storeStatus(err) {
		case http.StatusNotFound:
			writeFailure(w, http.StatusNotFound, "Delete Failed")
		case http.StatusBadRequest:
			writeFailure(w, http.StatusBadRequest, "Invalid ID format")
		default:
			writeFailure(w, http.StatusInternalServerError, "Delete Failed")
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Book Deleted Successfully"})
}

// GET /allbooks?category&sort&order&limit
func (s *Server) handleAllBooks(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	query := r.URL.Query()
	opts := store.ListOptions{
		Category:   query.Get("category"),
		SortField:  query.Get("sort"),
		Descending: query.Get("order") == "desc",
	}
	if raw := query.Get("limit"); raw != "" {
		if limit, err := strconv.Atoi(raw); err == nil && limit > 0 {
			opts.Limit = limit
		}
	}
	books, err := s.store.ListBooks(opts)
	if err != nil {
		slog.Error("list books failed", "err", err)
		writeError(w, http.StatusInternalServerError, "An error occurred while fetching books")
		return
	}
	writeJSON(w, http.StatusOK, books)
}

// GET /search/:title
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	title := strings.TrimPrefix(r.URL.Path, "/search/")
	if title == "" || strings.Contains(title, "/") {
		http.NotFound(w, r)
		return
	}
	books, err := s.store.SearchBooks(title)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "search failed")
		return
	}
	writeJSON(w, http.StatusOK, books)
}

// /books/sort/price?order and /books/category/:category
func (s *Server) handleBooksSubtree(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	path := strings.TrimPrefix(r.URL.Path, "/books/")
	switch {
	case path == "sort/price":
		opts := store.ListOptions{
			SortField:  "Price",
			Descending: r.URL.Query().Get("order") == "desc",
		}
		books, err := s.store.ListBooks(opts)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "An error occurred while fetching books")
			return
		}
		writeJSON(w, http.StatusOK, books)
	case strings.HasPrefix(path, "category/"):
		category := strings.TrimPrefix(path, "category/")
		if category == "" || strings.Contains(category, "/") {
			http.NotFound(w, r)
			return
		}
		books, err := s.store.ListBooks(store.ListOptions{Category: category})
		if err != nil {
			writeError(w, http.StatusInternalServerError, "An error occurred while fetching books")
			return
		}
		writeJSON(w, http.StatusOK, books)
	default:
		http.NotFound(w, r)
	}
}

// POST /upload-cover
func (s *Server) handleUploadCover(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if s.objects == nil {
		writeError(w, http.StatusServiceUnavailable, "cover storage not configured")
		return
	}
	if s.maxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	}
	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form data")
		return
	}
	file, header, err := r.FormFile("cover")
	if err != nil {
		writeError(w, http.StatusBadRequest, "cover file is required (field: cover)")
		return
	}
	defer file.Close()
	ext := strings.ToLower(filepath.Ext(header.Filename))
	if _, ok := s.allowedExts[ext]; !ok {
		writeError(w, http.StatusBadRequest, "unsupported file type")
		return
	}
	contentType := mime.TypeByExtension(ext)
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()
	key, err := s.objects.Upload(ctx, ext, file, header.Size, contentType)
	if err != nil {
		slog.Error("cover upload failed", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to store cover image")
		return
	}
	url, err := s.objects.ShareURL(ctx, key, 7*24*time.Hour)
	if err != nil {
		slog.Error("cover presign failed", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to generate cover URL")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"url": url, "key": key})
}
