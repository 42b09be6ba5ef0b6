package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/SiamFS/Project471/internal/domain"
	"github.com/SiamFS/Project471/internal/store"
)

type cartAddRequest struct {
	BookID    string  `json:"_id"`
	UserEmail string  `json:"user_email"`
	Title     string  `json:"bookTitle"`
	Price     float64 `json:"Price"`
	ImageURL  string  `json:"imageURL"`
}

// POST /cart
func (s *Server) handleCartAdd(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req cartAddRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.UserEmail == "" || req.BookID == "" {
		writeError(w, http.StatusBadRequest, "user_email and _id are required")
		return
	}
	item, err := s.store.AddCartItem(domain.CartItem{
		OriginalID: req.BookID,
		UserEmail:  req.UserEmail,
		Title:      req.Title,
		Price:      req.Price,
		ImageURL:   req.ImageURL,
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			writeFailure(w, http.StatusBadRequest, "This book is already in your cart")
			return
		}
		writeFailure(w, http.StatusInternalServerError, "Error adding to cart")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "data": item})
}

// /cart/count/:email, /cart/count (POST), /cart/:email (GET),
// /cart/:id (DELETE). Route precedence mirrors the original service:
// "count" wins over the email/id catch-all.
func (s *Server) handleCartSubtree(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/cart/")
	if path == "" {
		http.NotFound(w, r)
		return
	}
	if path == "count" {
		s.handleCartCountBody(w, r)
		return
	}
	if rest, ok := strings.CutPrefix(path, "count/"); ok {
		if rest == "" || strings.Contains(rest, "/") {
			http.NotFound(w, r)
			return
		}
		s.handleCartCount(w, r, rest)
		return
	}
	if strings.Contains(path, "/") {
		http.NotFound(w, r)
		return
	}
	switch r.Method {
	case http.MethodGet:
		s.handleCartList(w, path)
	case http.MethodDelete:
		s.handleCartRemove(w, path)
	default:
		methodNotAllowed(w)
	}
}

// GET /cart/count/:email
func (s *Server) handleCartCount(w http.ResponseWriter, r *http.Request, email string) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	count, err := s.store.CountCartByEmail(email)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"count": count})
}

// POST /cart/count
func (s *Server) handleCartCountBody(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req struct {
		Email string `json:"email"`
	}
	if err := decodeJSON(r, &req); err != nil || req.Email == "" {
		writeError(w, http.StatusBadRequest, "Email is required")
		return
	}
	count, err := s.store.CountCartByEmail(req.Email)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Error fetching cart count")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"count": count})
}

// GET /cart/:email
func (s *Server) handleCartList(w http.ResponseWriter, email string) {
	items, err := s.store.ListCartByEmail(email)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// DELETE /cart/:id
func (s *Server) handleCartRemove(w http.ResponseWriter, id string) {
	if err := s.store.RemoveCartItemByID(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeFailure(w, http.StatusNotFound, "Item not found")
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Item removed from cart"})
}
