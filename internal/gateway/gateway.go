// Package gateway wraps third-party payment providers behind a uniform
// request/response contract. The checkout core selects an intent, configures
// return URLs, and initiates; everything provider-specific stays here.
package gateway

import (
	"context"

	"shopcheckout/internal/domain"
)

// Intent selects the payment-service strategy for a gateway: reserve funds
// only, or capture immediately.
type Intent string

const (
	IntentAuthorize Intent = "authorize"
	IntentPurchase  Intent = "purchase"
)

// Adapter is the surface the checkout core consumes.
type Adapter interface {
	// IsSupported reports whether the gateway id is configured.
	IsSupported(id string) bool
	// Intent returns the configured strategy for the gateway.
	Intent(id string) Intent
	// Service builds a one-shot service object for the given payment.
	Service(p *domain.Payment, intent Intent) (Service, error)
}

// Service is a single gateway interaction. Initiate may block on network
// I/O; callers bound it with the context.
type Service interface {
	SetReturnURL(u string)
	SetCancelURL(u string)
	Initiate(ctx context.Context, payload map[string]string) (*Response, error)
}

// Response is the gateway's answer to an initiated transaction.
type Response struct {
	payment     *domain.Payment
	redirectURL string
	errored     bool
	message     string
}

// NewResponse builds an onsite response for a settled payment.
func NewResponse(p *domain.Payment) *Response {
	return &Response{payment: p}
}

// NewRedirectResponse builds a response sending the customer offsite.
func NewRedirectResponse(p *domain.Payment, redirectURL string) *Response {
	return &Response{payment: p, redirectURL: redirectURL}
}

// NewErrorResponse builds a rejected-transaction response carrying the
// provider's message.
func NewErrorResponse(p *domain.Payment, message string) *Response {
	return &Response{payment: p, errored: true, message: message}
}

// IsError reports whether the gateway rejected or failed the transaction.
func (r *Response) IsError() bool {
	return r.errored
}

// IsRedirect reports whether the customer must be sent offsite to finish.
func (r *Response) IsRedirect() bool {
	return r.redirectURL != ""
}

// Message is the provider's human-readable message, empty when none.
func (r *Response) Message() string {
	return r.message
}

// Payment returns the payment this response settles or rejects.
func (r *Response) Payment() *domain.Payment {
	return r.payment
}

// RedirectURL is the offsite payment page, empty for onsite responses.
func (r *Response) RedirectURL() string {
	return r.redirectURL
}
