package httpserver

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"shopcheckout/internal/checkout"
	"shopcheckout/internal/domain"
	"shopcheckout/internal/session"
)

const (
	headerSessionToken = "X-Session-Token"
	headerMemberID     = "X-Member-ID"
)

type checkoutHandler struct {
	deps   Deps
	logger *zap.Logger
}

type setCartRequest struct {
	Reference string `json:"reference" binding:"required"`
}

type makePaymentRequest struct {
	Gateway    string            `json:"gateway" binding:"required"`
	Data       map[string]string `json:"data"`
	SuccessURL string            `json:"successUrl"`
	CancelURL  string            `json:"cancelUrl"`
}

type orderResponse struct {
	Reference        string            `json:"reference"`
	Status           string            `json:"status"`
	Placed           *time.Time        `json:"placed,omitempty"`
	Paid             *time.Time        `json:"paid,omitempty"`
	ConfirmationSent bool              `json:"confirmationSent"`
	ReceiptSent      bool              `json:"receiptSent"`
	Currency         string            `json:"currency"`
	GrandTotal       int64             `json:"grandTotal"`
	Outstanding      int64             `json:"outstanding"`
	Payments         []paymentResponse `json:"payments"`
}

type paymentResponse struct {
	ID                   string `json:"id"`
	Gateway              string `json:"gateway"`
	Amount               int64  `json:"amount"`
	Currency             string `json:"currency"`
	Status               string `json:"status"`
	TransactionReference string `json:"transactionReference"`
	Message              string `json:"message,omitempty"`
}

type makePaymentResponse struct {
	RedirectURL string          `json:"redirectUrl,omitempty"`
	Payment     paymentResponse `json:"payment"`
	Order       orderResponse   `json:"order"`
}

func toOrderResponse(o *domain.Order) orderResponse {
	resp := orderResponse{
		Reference:        o.Reference,
		Status:           string(o.Status),
		Placed:           o.Placed,
		Paid:             o.Paid,
		ConfirmationSent: o.ConfirmationSent,
		ReceiptSent:      o.ReceiptSent,
		Currency:         o.Currency,
		GrandTotal:       o.GrandTotal(),
		Outstanding:      o.TotalOutstanding(false),
		Payments:         []paymentResponse{},
	}
	for _, p := range o.Payments {
		resp.Payments = append(resp.Payments, toPaymentResponse(p))
	}
	return resp
}

func toPaymentResponse(p *domain.Payment) paymentResponse {
	return paymentResponse{
		ID:                   p.ID,
		Gateway:              p.Gateway,
		Amount:               p.Amount,
		Currency:             p.Currency,
		Status:               string(p.Status),
		TransactionReference: p.TransactionReference,
		Message:              p.Message,
	}
}

// sessionContext resolves the caller's session, issuing a token when the
// request carries none. The token is echoed back so clients can stick to it.
func (h *checkoutHandler) sessionContext(c *gin.Context) *session.Context {
	token := c.GetHeader(headerSessionToken)
	if token == "" {
		token = h.deps.Sessions.NewToken()
	}
	c.Header(headerSessionToken, token)
	return h.deps.Sessions.Context(token)
}

// currentMember resolves the authenticated member, nil for guests. Auth
// itself is out of scope; the id arrives from the fronting layer.
func (h *checkoutHandler) currentMember(c *gin.Context) *domain.Member {
	id := c.GetHeader(headerMemberID)
	if id == "" {
		return nil
	}
	m, err := h.deps.Members.GetByID(c.Request.Context(), id)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			h.logger.Warn("could not load member", zap.String("member_id", id), zap.Error(err))
		}
		return nil
	}
	return m
}

func (h *checkoutHandler) processor(c *gin.Context, o *domain.Order, sess *session.Context) *checkout.Processor {
	return checkout.New(o, checkout.Context{
		Member:    h.currentMember(c),
		CartID:    sess.CartID(),
		IPAddress: c.ClientIP(),
	}, checkout.Deps{
		Orders:   h.deps.Orders,
		Members:  h.deps.Members,
		Gateways: h.deps.Gateways,
		Notifier: h.deps.Notifier,
		Session:  sess,
		Hooks:    h.deps.Hooks,
		Metrics:  h.deps.Metrics,
		Config:   h.deps.Checkout,
		Logger:   h.logger,
	})
}

func (h *checkoutHandler) loadOrder(c *gin.Context, reference string) *domain.Order {
	o, err := h.deps.Orders.GetByReference(c.Request.Context(), reference)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
			return nil
		}
		h.logger.Error("could not load order", zap.String("order_ref", reference), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return nil
	}
	return o
}

// setCart binds the given order as the session's active cart. Cart contents
// are managed by out-of-scope collaborators; the checkout core only needs
// to know which order the session considers current.
func (h *checkoutHandler) setCart(c *gin.Context) {
	var req setCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	o := h.loadOrder(c, req.Reference)
	if o == nil {
		return
	}
	if !o.IsCart() {
		c.JSON(http.StatusConflict, gin.H{"error": "order is not a cart"})
		return
	}
	sess := h.sessionContext(c)
	sess.SetCart(o.ID)
	c.JSON(http.StatusOK, gin.H{"cart": toOrderResponse(o), "sessionToken": sess.Token()})
}

func (h *checkoutHandler) getOrder(c *gin.Context) {
	o := h.loadOrder(c, c.Param("ref"))
	if o == nil {
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(o))
}

func (h *checkoutHandler) placeOrder(c *gin.Context) {
	o := h.loadOrder(c, c.Param("ref"))
	if o == nil {
		return
	}
	sess := h.sessionContext(c)
	proc := h.processor(c, o, sess)
	if !proc.PlaceOrder(c.Request.Context()) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": proc.Error()})
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(o))
}

func (h *checkoutHandler) makePayment(c *gin.Context) {
	var req makePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	o := h.loadOrder(c, c.Param("ref"))
	if o == nil {
		return
	}
	sess := h.sessionContext(c)
	proc := h.processor(c, o, sess)

	resp := proc.MakePayment(c.Request.Context(), req.Gateway, req.Data, req.SuccessURL, req.CancelURL)
	if resp == nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": proc.Error()})
		return
	}
	if resp.IsError() {
		c.JSON(http.StatusPaymentRequired, gin.H{
			"error":   proc.Error(),
			"payment": toPaymentResponse(resp.Payment()),
			"order":   toOrderResponse(o),
		})
		return
	}

	// A synchronous capture gets its completion event here; offsite
	// captures arrive later on the callback route.
	payment := resp.Payment()
	if !resp.IsRedirect() && payment.Status == domain.PaymentCaptured {
		if _, err := h.deps.Orders.CapturePayment(c.Request.Context(), payment.ID); err != nil {
			h.logger.Warn("could not persist capture", zap.String("payment_id", payment.ID), zap.Error(err))
		}
		proc.CompletePayment(c.Request.Context())
	}

	c.JSON(http.StatusOK, makePaymentResponse{
		RedirectURL: resp.RedirectURL(),
		Payment:     toPaymentResponse(payment),
		Order:       toOrderResponse(o),
	})
}

// completePayment is the gateway completion callback. It is idempotent:
// the capture transition and everything behind CompletePayment are
// compare-and-set, so duplicate deliveries settle the order exactly once.
func (h *checkoutHandler) completePayment(c *gin.Context) {
	paymentID := c.Param("id")
	o, err := h.deps.Orders.GetByPaymentID(c.Request.Context(), paymentID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "payment not found"})
			return
		}
		h.logger.Error("could not load order for payment", zap.String("payment_id", paymentID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	captured, err := h.deps.Orders.CapturePayment(c.Request.Context(), paymentID)
	if err != nil {
		h.logger.Error("could not capture payment", zap.String("payment_id", paymentID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	if captured {
		for _, p := range o.Payments {
			if p.ID == paymentID {
				p.Status = domain.PaymentCaptured
			}
		}
	}

	sess := h.sessionContext(c)
	proc := h.processor(c, o, sess)
	proc.CompletePayment(c.Request.Context())

	c.JSON(http.StatusOK, toOrderResponse(o))
}
