package seed

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type itemSeed struct {
	ProductID string
	Title     string
	Quantity  int
	UnitPrice int64
}

type orderSeed struct {
	Reference string
	Email     string
	FirstName string
	LastName  string
	Locale    string
	Currency  string
	Items     []itemSeed
	Shipping  int64
}

// Apply inserts basic seed data for manual testing of the checkout flow.
// It is idempotent via ON CONFLICT.
func Apply(ctx context.Context, pool *pgxpool.Pool) error {
	memberID, err := ensureMember(ctx, pool, "demo@example.com", "Demo", "Customer")
	if err != nil {
		return fmt.Errorf("ensure member: %w", err)
	}

	orders := []orderSeed{
		{
			Reference: "R100",
			Email:     "demo@example.com",
			FirstName: "Demo",
			LastName:  "Customer",
			Locale:    "en_US",
			Currency:  "USD",
			Items: []itemSeed{
				{ProductID: "SKU-TSHIRT", Title: "Demo T-Shirt", Quantity: 2, UnitPrice: 1999},
				{ProductID: "SKU-MUG", Title: "Demo Mug", Quantity: 1, UnitPrice: 1299},
			},
			Shipping: 500,
		},
		{
			Reference: "R101",
			Email:     "guest@example.com",
			FirstName: "Guest",
			LastName:  "Shopper",
			Locale:    "de_DE",
			Currency:  "USD",
			Items: []itemSeed{
				{ProductID: "SKU-STICKER", Title: "Demo Sticker", Quantity: 5, UnitPrice: 199},
			},
			Shipping: 250,
		},
	}

	for _, o := range orders {
		if err := upsertCartOrder(ctx, pool, memberID, o); err != nil {
			return fmt.Errorf("upsert order %s: %w", o.Reference, err)
		}
	}

	return nil
}

func ensureMember(ctx context.Context, pool *pgxpool.Pool, email, firstName, lastName string) (string, error) {
	const q = `
INSERT INTO members (email, first_name, last_name)
VALUES ($1, $2, $3)
ON CONFLICT (email) DO UPDATE SET first_name = EXCLUDED.first_name, last_name = EXCLUDED.last_name
RETURNING id::text
`
	var id string
	if err := pool.QueryRow(ctx, q, email, firstName, lastName).Scan(&id); err != nil {
		return "", err
	}
	return id, nil
}

func upsertCartOrder(ctx context.Context, pool *pgxpool.Pool, memberID string, o orderSeed) error {
	const orderQ = `
INSERT INTO orders (reference, status, locale, currency, member_id, email, first_name, last_name)
VALUES ($1, 'Cart', $2, $3, $4, $5, $6, $7)
ON CONFLICT (reference) DO NOTHING
RETURNING id::text
`
	var orderID string
	err := pool.QueryRow(ctx, orderQ, o.Reference, o.Locale, o.Currency, memberID, o.Email, o.FirstName, o.LastName).Scan(&orderID)
	if err != nil {
		// Already seeded; leave the existing order untouched.
		return nil
	}

	for _, it := range o.Items {
		if _, err := pool.Exec(ctx, `
INSERT INTO order_items (order_id, product_id, title, quantity, unit_price)
VALUES ($1, $2, $3, $4, $5)
`, orderID, it.ProductID, it.Title, it.Quantity, it.UnitPrice); err != nil {
			return err
		}
	}

	_, err = pool.Exec(ctx, `
INSERT INTO order_modifiers (order_id, type, amount, required, required_before_place, pending)
VALUES ($1, 'shipping', $2, TRUE, TRUE, FALSE)
`, orderID, o.Shipping)
	return err
}
