package session

import "testing"

func TestCartLifecycle(t *testing.T) {
	store := NewStore()
	token := store.NewToken()
	ctx := store.Context(token)

	if got := ctx.CartID(); got != "" {
		t.Fatalf("expected empty cart, got %q", got)
	}

	ctx.SetCart("o1")
	if got := ctx.CartID(); got != "o1" {
		t.Fatalf("expected o1, got %q", got)
	}

	ctx.ClearCart()
	if got := ctx.CartID(); got != "" {
		t.Fatalf("expected cleared cart, got %q", got)
	}
}

func TestLastOrder(t *testing.T) {
	store := NewStore()
	ctx := store.Context(store.NewToken())

	ctx.SetLastOrder("o9")
	if got := ctx.LastOrderID(); got != "o9" {
		t.Fatalf("expected o9, got %q", got)
	}
}

func TestSessionsAreIsolated(t *testing.T) {
	store := NewStore()
	a := store.Context(store.NewToken())
	b := store.Context(store.NewToken())

	a.SetCart("o1")
	if got := b.CartID(); got != "" {
		t.Fatalf("expected isolated sessions, got %q", got)
	}
}
