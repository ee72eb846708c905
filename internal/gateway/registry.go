package gateway

import (
	"context"
	"fmt"
	"net/url"

	"go.uber.org/zap"

	"shopcheckout/internal/domain"
)

// Kind distinguishes gateways that settle within the request from gateways
// that redirect the customer to a hosted page.
type Kind string

const (
	KindOnsite  Kind = "onsite"
	KindOffsite Kind = "offsite"
)

// GatewayConfig describes one configured gateway.
type GatewayConfig struct {
	Kind   Kind
	Intent Intent
	// PageURL is the hosted payment page for offsite gateways.
	PageURL string
}

// Registry is an Adapter over a fixed map of configured gateways.
type Registry struct {
	gateways map[string]GatewayConfig
	logger   *zap.Logger
}

func NewRegistry(gateways map[string]GatewayConfig, logger *zap.Logger) *Registry {
	return &Registry{gateways: gateways, logger: logger}
}

func (r *Registry) IsSupported(id string) bool {
	_, ok := r.gateways[id]
	return ok
}

func (r *Registry) Intent(id string) Intent {
	if cfg, ok := r.gateways[id]; ok && cfg.Intent != "" {
		return cfg.Intent
	}
	return IntentPurchase
}

func (r *Registry) Service(p *domain.Payment, intent Intent) (Service, error) {
	cfg, ok := r.gateways[p.Gateway]
	if !ok {
		return nil, fmt.Errorf("gateway %q is not configured", p.Gateway)
	}
	log := r.logger.With(zap.String("gateway", p.Gateway), zap.String("transaction", p.TransactionReference))
	if cfg.Kind == KindOffsite {
		return &offsiteService{payment: p, pageURL: cfg.PageURL, logger: log}, nil
	}
	return &onsiteService{payment: p, intent: intent, logger: log}, nil
}

// DeclineKey in the payload forces an onsite decline. The sandbox gateway
// has no card network behind it, so tests and manual checkout drive the
// failure path through this key.
const DeclineKey = "decline"

// onsiteService settles synchronously: purchase intent captures, authorize
// intent only reserves funds.
type onsiteService struct {
	payment   *domain.Payment
	intent    Intent
	returnURL string
	cancelURL string
	logger    *zap.Logger
}

func (s *onsiteService) SetReturnURL(u string) { s.returnURL = u }
func (s *onsiteService) SetCancelURL(u string) { s.cancelURL = u }

func (s *onsiteService) Initiate(ctx context.Context, payload map[string]string) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if payload[DeclineKey] != "" {
		s.payment.Status = domain.PaymentFailed
		s.payment.Message = "card declined"
		s.logger.Info("payment declined")
		return NewErrorResponse(s.payment, "card declined"), nil
	}
	if s.intent == IntentAuthorize {
		s.payment.Status = domain.PaymentAuthorized
	} else {
		s.payment.Status = domain.PaymentCaptured
	}
	s.logger.Info("payment settled onsite", zap.String("status", string(s.payment.Status)))
	return NewResponse(s.payment), nil
}

// offsiteService never settles within the request: it hands back a redirect
// to the hosted page and the capture arrives later on the callback route.
type offsiteService struct {
	payment   *domain.Payment
	pageURL   string
	returnURL string
	cancelURL string
	logger    *zap.Logger
}

func (s *offsiteService) SetReturnURL(u string) { s.returnURL = u }
func (s *offsiteService) SetCancelURL(u string) { s.cancelURL = u }

func (s *offsiteService) Initiate(ctx context.Context, payload map[string]string) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	redirect, err := url.Parse(s.pageURL)
	if err != nil {
		return nil, fmt.Errorf("hosted page url: %w", err)
	}
	q := redirect.Query()
	q.Set("transaction", s.payment.TransactionReference)
	q.Set("amount", fmt.Sprintf("%d", s.payment.Amount))
	q.Set("currency", s.payment.Currency)
	if s.returnURL != "" {
		q.Set("return", s.returnURL)
	}
	if s.cancelURL != "" {
		q.Set("cancel", s.cancelURL)
	}
	redirect.RawQuery = q.Encode()

	s.logger.Info("payment redirected offsite")
	return NewRedirectResponse(s.payment, redirect.String()), nil
}
