package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/SiamFS/Project471/internal/domain"
	"github.com/SiamFS/Project471/internal/events"
	"github.com/SiamFS/Project471/internal/payment"
	"github.com/SiamFS/Project471/internal/store"
)

// Session metadata keys. The gateway carries these opaquely between
// session creation and confirmation.
const (
	metaBookIDs  = "originalBookIds"
	metaEmail    = "customerEmail"
	metaTitles   = "bookTitles"
	centsPerUnit = 100
)

// Config wires the checkout orchestrator's collaborators.
type Config struct {
	Store   store.Store
	Gateway payment.Gateway
	Events  events.Publisher
	BaseURL string
	// StrictCommit runs the per-order commit inside a store transaction
	// instead of the default best-effort loop. Requires Tx.
	StrictCommit bool
	Tx           store.Transactor
}

// App coordinates carts, the payment gateway, and the catalog for both
// checkout protocols.
type App struct {
	store   store.Store
	gateway payment.Gateway
	events  events.Publisher
	baseURL string
	strict  bool
	tx      store.Transactor
}

// New constructs the orchestrator.
func New(cfg Config) (*App, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("store required")
	}
	if cfg.Gateway == nil {
		return nil, fmt.Errorf("payment gateway required")
	}
	if cfg.StrictCommit && cfg.Tx == nil {
		return nil, fmt.Errorf("strict commit requires a transactor")
	}
	pub := cfg.Events
	if pub == nil {
		pub = events.NoopPublisher{}
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "http://localhost:5173"
	}
	return &App{
		store:   cfg.Store,
		gateway: cfg.Gateway,
		events:  pub,
		baseURL: baseURL,
		strict:  cfg.StrictCommit,
		tx:      cfg.Tx,
	}, nil
}

// CheckoutItem is a priced line from the client's cart view, used to
// build the gateway session.
type CheckoutItem struct {
	Title    string
	ImageURL string
	Price    float64
}

// OrderItem identifies one purchased book in a cash-on-delivery order.
type OrderItem struct {
	ID    string
	Title string
}

// CreateCheckoutSession opens a card-payment session with the gateway.
// The user's current cart is snapshotted into session metadata so
// confirmation can recover the original book ids and titles without
// trusting gateway line-item echoes. No local state is written.
func (a *App) CreateCheckoutSession(ctx context.Context, email string, items []CheckoutItem) (string, error) {
	if email == "" {
		return "", fmt.Errorf("%w: email is required", ErrValidation)
	}
	cartItems, err := a.store.ListCartByEmail(email)
	if err != nil {
		return "", fmt.Errorf("read cart: %w", err)
	}
	bookIDs := make([]string, 0, len(cartItems))
	titles := make([]string, 0, len(cartItems))
	for _, item := range cartItems {
		bookIDs = append(bookIDs, item.OriginalID)
		titles = append(titles, item.Title)
	}
	idsJSON, err := json.Marshal(bookIDs)
	if err != nil {
		return "", fmt.Errorf("marshal book ids: %w", err)
	}
	titlesJSON, err := json.Marshal(titles)
	if err != nil {
		return "", fmt.Errorf("marshal titles: %w", err)
	}

	lines := make([]payment.LineItem, 0, len(items))
	for _, item := range items {
		lines = append(lines, payment.LineItem{
			Title:      item.Title,
			ImageURL:   item.ImageURL,
			UnitAmount: int64(math.Round(item.Price * centsPerUnit)),
		})
	}
	sess, err := a.gateway.CreateSession(ctx, payment.SessionRequest{
		Email:      email,
		Items:      lines,
		SuccessURL: a.baseURL + "/payment-success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:  a.baseURL + "/add_to_payment",
		Metadata: map[string]string{
			metaBookIDs: string(idsJSON),
			metaEmail:   email,
			metaTitles:  string(titlesJSON),
		},
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGateway, err)
	}
	return sess.ID, nil
}

// ConfirmPayment verifies a session with the gateway and, when paid,
// commits the sale: books marked sold, cart lines removed, and a card
// payment recorded with the gateway-reported total.
func (a *App) ConfirmPayment(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("%w: session_id is required", ErrValidation)
	}
	sess, err := a.gateway.GetSession(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrGateway, err)
	}
	if sess.PaymentStatus != payment.StatusPaid {
		return ErrPaymentIncomplete
	}

	var bookIDs []string
	if err := json.Unmarshal([]byte(sess.Metadata[metaBookIDs]), &bookIDs); err != nil {
		return fmt.Errorf("%w: book ids: %v", ErrDataIntegrity, err)
	}
	email := sess.Metadata[metaEmail]
	if email == "" {
		return fmt.Errorf("%w: customer email missing", ErrDataIntegrity)
	}
	var titles []string
	// Titles were added to the metadata later; older sessions may lack
	// them, in which case the catalog is consulted per id.
	_ = json.Unmarshal([]byte(sess.Metadata[metaTitles]), &titles)

	if err := a.commit(bookIDs, email); err != nil {
		return err
	}

	items := make([]domain.PaymentItem, 0, len(bookIDs))
	for i, id := range bookIDs {
		title := ""
		if i < len(titles) {
			title = titles[i]
		} else if book, lookupErr := a.store.GetBookByID(id); lookupErr == nil {
			title = book.Title
		}
		items = append(items, domain.PaymentItem{BookID: id, BookTitle: title})
	}
	paymentRecord := domain.Payment{
		Email:  email,
		Amount: float64(sess.AmountTotal) / centsPerUnit,
		Items:  items,
		Method: domain.MethodCard,
	}
	if _, err := a.store.CreatePayment(paymentRecord); err != nil {
		return fmt.Errorf("record payment: %w", err)
	}
	a.publishOrderCompleted(ctx, email, domain.MethodCard, paymentRecord.Amount, bookIDs)
	return nil
}

// PlaceCashOrder records a cash-on-delivery payment, then commits the
// sale for each supplied item.
func (a *App) PlaceCashOrder(ctx context.Context, email string, items []OrderItem, address string, totalAmount float64) error {
	if email == "" {
		return fmt.Errorf("%w: email is required", ErrValidation)
	}
	paymentItems := make([]domain.PaymentItem, 0, len(items))
	bookIDs := make([]string, 0, len(items))
	for _, item := range items {
		paymentItems = append(paymentItems, domain.PaymentItem{BookID: item.ID, BookTitle: item.Title})
		bookIDs = append(bookIDs, item.ID)
	}
	if _, err := a.store.CreatePayment(domain.Payment{
		Email:   email,
		Amount:  totalAmount,
		Items:   paymentItems,
		Address: address,
		Method:  domain.MethodCashOnDelivery,
	}); err != nil {
		return fmt.Errorf("record payment: %w", err)
	}
	if err := a.commit(bookIDs, email); err != nil {
		return err
	}
	a.publishOrderCompleted(ctx, email, domain.MethodCashOnDelivery, totalAmount, bookIDs)
	return nil
}

// commit marks each book sold and removes its cart line for the buyer.
// The default mode attempts both sub-steps for every item and logs
// failures without aborting; a missing cart line or already-sold book
// is not an error. Strict mode runs the whole batch in one transaction.
func (a *App) commit(bookIDs []string, email string) error {
	if a.strict {
		return a.tx.WithinTransaction(func(s store.Store) error {
			for _, id := range bookIDs {
				if err := s.SetAvailability(id, domain.Sold); err != nil {
					return fmt.Errorf("mark sold %s: %w", id, err)
				}
				if _, err := s.RemoveCartItemByOriginalID(id, email); err != nil {
					return fmt.Errorf("remove cart line %s: %w", id, err)
				}
			}
			return nil
		})
	}
	for _, id := range bookIDs {
		if err := a.store.SetAvailability(id, domain.Sold); err != nil {
			slog.Warn("checkout: mark sold failed", "bookId", id, "err", err)
		}
		removed, err := a.store.RemoveCartItemByOriginalID(id, email)
		if err != nil {
			slog.Warn("checkout: cart removal failed", "bookId", id, "email", email, "err", err)
			continue
		}
		if !removed {
			slog.Info("checkout: no cart line to remove", "bookId", id, "email", email)
		}
	}
	return nil
}

func (a *App) publishOrderCompleted(ctx context.Context, email string, method domain.PaymentMethod, amount float64, bookIDs []string) {
	ev := events.OrderCompleted{
		Email:      email,
		Method:     string(method),
		Amount:     amount,
		BookIDs:    bookIDs,
		OccurredAt: time.Now().UTC(),
	}
	if err := a.events.PublishOrderCompleted(ctx, ev); err != nil {
		slog.Warn("publish order event failed", "email", email, "err", err)
	}
}
