package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/SiamFS/Project471/internal/app"
	"github.com/SiamFS/Project471/internal/storage"
	"github.com/SiamFS/Project471/internal/store"
)

// Config wires required dependencies for the HTTP server.
type Config struct {
	Store          store.Store
	App            *app.App
	Objects        storage.CoverStore // optional; cover uploads 503 when nil
	AllowedOrigin  string
	MaxUploadBytes int64
	AllowedExts    []string
}

// Server exposes the marketplace HTTP endpoints.
type Server struct {
	store          store.Store
	app            *app.App
	objects        storage.CoverStore
	mux            *http.ServeMux
	allowedOrigin  string
	maxUploadBytes int64
	allowedExts    map[string]struct{}
}

// New constructs the server with routes configured.
func New(cfg Config) *Server {
	s := &Server{
		store:          cfg.Store,
		app:            cfg.App,
		objects:        cfg.Objects,
		mux:            http.NewServeMux(),
		allowedOrigin:  cfg.AllowedOrigin,
		maxUploadBytes: normalizeMaxBytes(cfg.MaxUploadBytes),
		allowedExts:    normalizeExtensions(cfg.AllowedExts),
	}
	s.routes()
	return s
}

// Router returns the configured handler.
func (s *Server) Router() http.Handler {
	return withCORS(s.allowedOrigin, s.mux)
}

func (s *Server) routes() {
	s.mux.HandleFunc("/", s.handleRoot)

	// checkout
	s.mux.HandleFunc("/create-checkout-session", s.handleCreateCheckoutSession)
	s.mux.HandleFunc("/payment-success", s.handlePaymentSuccess)
	s.mux.HandleFunc("/cash-on-delivery", s.handleCashOnDelivery)

	// books
	s.mux.HandleFunc("/upload-book", s.handleUploadBook)
	s.mux.HandleFunc("/book/", s.handleBookSubtree)
	s.mux.HandleFunc("/allbooks", s.handleAllBooks)
	s.mux.HandleFunc("/allbooks/", s.handleAllBooks)
	s.mux.HandleFunc("/search/", s.handleSearch)
	s.mux.HandleFunc("/books/", s.handleBooksSubtree)
	s.mux.HandleFunc("/upload-cover", s.handleUploadCover)

	// cart
	s.mux.HandleFunc("/cart", s.handleCartAdd)
	s.mux.HandleFunc("/cart/", s.handleCartSubtree)

	// blog
	s.mux.HandleFunc("/posts", s.handleListPosts)
	s.mux.HandleFunc("/posts/", s.handlePostSubtree)

	// payments & reports
	s.mux.HandleFunc("/payments", s.handleCreatePayment)
	s.mux.HandleFunc("/payments/", s.handlePaymentsByEmail)
	s.mux.HandleFunc("/report", s.handleReport)
}

// handleRoot is the health check. ServeMux routes every unmatched path
// here, so anything but "/" is a 404.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("Hello from the Book Inventory API!"))
}

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeFailure emits the {success, message} envelope several of the
// original endpoints respond with.
func writeFailure(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"success": false, "message": msg})
}

// storeStatus maps store errors onto the REST status taxonomy.
func storeStatus(err error) int {
	switch {
	case errors.Is(err, store.ErrInvalidID):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrDuplicate):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func decodeJSON(r *http.Request, dst any) error {
	return json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(dst)
}

func normalizeMaxBytes(value int64) int64 {
	if value <= 0 {
		return 5 * 1024 * 1024
	}
	return value
}

func normalizeExtensions(exts []string) map[string]struct{} {
	if len(exts) == 0 {
		exts = []string{".jpg", ".jpeg", ".png", ".webp"}
	}
	out := make(map[string]struct{}, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		out[ext] = struct{}{}
	}
	return out
}
