package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/SiamFS/Project471/internal/app"
	"github.com/SiamFS/Project471/internal/domain"
	"github.com/SiamFS/Project471/internal/store"
)

type checkoutItemPayload struct {
	Title    string  `json:"bookTitle"`
	ImageURL string  `json:"imageURL"`
	Price    float64 `json:"Price"`
}

type checkoutSessionRequest struct {
	Items []checkoutItemPayload `json:"items"`
	Email string                `json:"email"`
}

// POST /create-checkout-session
func (s *Server) handleCreateCheckoutSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req checkoutSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	items := make([]app.CheckoutItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, app.CheckoutItem{
			Title:    item.Title,
			ImageURL: item.ImageURL,
			Price:    item.Price,
		})
	}
	sessionID, err := s.app.CreateCheckoutSession(r.Context(), req.Email, items)
	if err != nil {
		if errors.Is(err, app.ErrValidation) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		slog.Error("create checkout session failed", "email", req.Email, "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": sessionID})
}

type paymentSuccessRequest struct {
	SessionID string `json:"session_id"`
}

// POST /payment-success
func (s *Server) handlePaymentSuccess(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req paymentSuccessRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := s.app.ConfirmPayment(r.Context(), req.SessionID); err != nil {
		switch {
		case errors.Is(err, app.ErrValidation):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, app.ErrPaymentIncomplete):
			writeFailure(w, http.StatusBadRequest, "Payment not completed")
		default:
			slog.Error("confirm payment failed", "sessionId", req.SessionID, "err", err)
			writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "error": err.Error()})
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Payment processed successfully, cart updated"})
}

type orderItemPayload struct {
	ID    string `json:"_id"`
	Title string `json:"bookTitle"`
}

type cashOnDeliveryRequest struct {
	Items       []orderItemPayload `json:"items"`
	Email       string             `json:"email"`
	Address     string             `json:"address"`
	TotalAmount float64            `json:"totalAmount"`
}

// POST /cash-on-delivery
func (s *Server) handleCashOnDelivery(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req cashOnDeliveryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	items := make([]app.OrderItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, app.OrderItem{ID: item.ID, Title: item.Title})
	}
	if err := s.app.PlaceCashOrder(r.Context(), req.Email, items, req.Address, req.TotalAmount); err != nil {
		if errors.Is(err, app.ErrValidation) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		slog.Error("cash on delivery failed", "email", req.Email, "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Order placed successfully"})
}

// POST /payments
func (s *Server) handleCreatePayment(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var payment domain.Payment
	if err := decodeJSON(r, &payment); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if payment.Email == "" {
		writeError(w, http.StatusBadRequest, "email is required")
		return
	}
	payment.ID = ""
	created, err := s.store.CreatePayment(payment)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Error processing payment")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// GET /payments/:email
func (s *Server) handlePaymentsByEmail(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	email := strings.TrimPrefix(r.URL.Path, "/payments/")
	if email == "" || strings.Contains(email, "/") {
		http.NotFound(w, r)
		return
	}
	payments, err := s.store.ListPaymentsByEmail(email)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Error fetching payments")
		return
	}
	writeJSON(w, http.StatusOK, payments)
}

type reportRequest struct {
	BookID        string `json:"bookId"`
	ReporterEmail string `json:"reporterEmail"`
	Reason        string `json:"reason"`
	Details       string `json:"details"`
}

// POST /report
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req reportRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.BookID == "" || req.ReporterEmail == "" {
		writeError(w, http.StatusBadRequest, "bookId and reporterEmail are required")
		return
	}
	if _, err := s.store.SubmitReport(domain.Report{
		BookID:        req.BookID,
		ReporterEmail: req.ReporterEmail,
		Reason:        req.Reason,
		Details:       req.Details,
	}); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			writeFailure(w, http.StatusBadRequest, "Already reported")
			return
		}
		writeFailure(w, http.StatusInternalServerError, "An error occurred while submitting the report")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "message": "Report submitted successfully"})
}
