package app

import "errors"

var (
	// ErrPaymentIncomplete indicates the gateway has not settled the
	// session; nothing was written locally.
	ErrPaymentIncomplete = errors.New("payment not completed")
	// ErrGateway indicates the payment provider was unreachable or
	// returned an error.
	ErrGateway = errors.New("payment gateway error")
	// ErrDataIntegrity indicates corrupt or missing session metadata.
	ErrDataIntegrity = errors.New("corrupt session metadata")
	// ErrValidation indicates a missing or malformed request field.
	ErrValidation = errors.New("invalid request")
)
