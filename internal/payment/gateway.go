package payment

import "context"

// StatusPaid is the gateway's settled payment status.
const StatusPaid = "paid"

// LineItem is one priced entry on a checkout session. UnitAmount is in
// the smallest currency unit.
type LineItem struct {
	Title      string
	ImageURL   string
	UnitAmount int64
}

// SessionRequest describes a checkout session to create. Metadata rides
// on the session opaquely and comes back verbatim on retrieval.
type SessionRequest struct {
	Email      string
	Items      []LineItem
	SuccessURL string
	CancelURL  string
	Metadata   map[string]string
}

// Session is the gateway's view of a checkout session.
type Session struct {
	ID            string
	PaymentStatus string
	AmountTotal   int64 // smallest currency unit
	Metadata      map[string]string
}

// Gateway abstracts the external payment provider.
type Gateway interface {
	CreateSession(ctx context.Context, req SessionRequest) (Session, error)
	GetSession(ctx context.Context, id string) (Session, error)
}
