// Package session tracks per-caller cart state: which order is the active
// cart and which order was placed last. Tokens travel in a request header.
package session

import (
	"sync"

	"github.com/google/uuid"
)

type state struct {
	cartID      string
	lastOrderID string
}

// Store is an in-memory session store keyed by opaque token.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*state
}

func NewStore() *Store {
	return &Store{sessions: make(map[string]*state)}
}

// NewToken issues a fresh session token.
func (s *Store) NewToken() string {
	return uuid.NewString()
}

// SetCart records the active cart order for the token.
func (s *Store) SetCart(token, orderID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.get(token).cartID = orderID
}

// Context returns a per-token handle satisfying the checkout core's
// session interface.
func (s *Store) Context(token string) *Context {
	return &Context{store: s, token: token}
}

// get assumes the caller holds the lock.
func (s *Store) get(token string) *state {
	st, ok := s.sessions[token]
	if !ok {
		st = &state{}
		s.sessions[token] = st
	}
	return st
}

// Context is the view of one session.
type Context struct {
	store *Store
	token string
}

// Token returns the session token this context is bound to.
func (c *Context) Token() string {
	return c.token
}

// SetCart records the active cart order for this session.
func (c *Context) SetCart(orderID string) {
	c.store.SetCart(c.token, orderID)
}

// CartID returns the active cart order id, empty when no cart is open.
func (c *Context) CartID() string {
	c.store.mu.RLock()
	defer c.store.mu.RUnlock()
	if st, ok := c.store.sessions[c.token]; ok {
		return st.cartID
	}
	return ""
}

// ClearCart detaches the active cart so a new one can be started.
func (c *Context) ClearCart() {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	c.store.get(c.token).cartID = ""
}

// SetLastOrder records the most recently placed order for the session.
func (c *Context) SetLastOrder(orderID string) {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	c.store.get(c.token).lastOrderID = orderID
}

// LastOrderID returns the most recently placed order for the session.
func (c *Context) LastOrderID() string {
	c.store.mu.RLock()
	defer c.store.mu.RUnlock()
	if st, ok := c.store.sessions[c.token]; ok {
		return st.lastOrderID
	}
	return ""
}
