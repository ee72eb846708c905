package order

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"shopcheckout/internal/domain"
)

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

const orderColumns = `
id::text, reference, status, placed, paid, confirmation_sent, receipt_sent,
locale, ip_address, currency, member_id::text,
email, first_name, last_name, company,
billing_address1, billing_address2, billing_city, billing_postcode, billing_state, billing_country, billing_phone,
shipping_address1, shipping_address2, shipping_city, shipping_postcode, shipping_state, shipping_country, shipping_phone,
created_at`

func (r *postgresRepo) Create(ctx context.Context, o *domain.Order) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
INSERT INTO orders (id, reference, status, locale, ip_address, currency, member_id,
                    email, first_name, last_name, company,
                    billing_address1, billing_address2, billing_city, billing_postcode, billing_state, billing_country, billing_phone,
                    shipping_address1, shipping_address2, shipping_city, shipping_postcode, shipping_state, shipping_country, shipping_phone)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25)
`,
		o.ID, o.Reference, o.Status, o.Locale, o.IPAddress, o.Currency, o.MemberID,
		o.Email, o.FirstName, o.LastName, o.Company,
		o.BillingAddress.Address1, o.BillingAddress.Address2, o.BillingAddress.City, o.BillingAddress.Postcode, o.BillingAddress.State, o.BillingAddress.Country, o.BillingAddress.Phone,
		o.ShippingAddress.Address1, o.ShippingAddress.Address2, o.ShippingAddress.City, o.ShippingAddress.Postcode, o.ShippingAddress.State, o.ShippingAddress.Country, o.ShippingAddress.Phone,
	); err != nil {
		return err
	}

	for i := range o.Items {
		it := &o.Items[i]
		if _, err := tx.Exec(ctx, `
INSERT INTO order_items (id, order_id, product_id, title, quantity, unit_price, total, finalized, purchased)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
`, it.ID, o.ID, it.ProductID, it.Title, it.Quantity, it.UnitPrice, it.Total, it.Finalized, it.Purchased); err != nil {
			return err
		}
	}
	for i := range o.Modifiers {
		m := &o.Modifiers[i]
		if _, err := tx.Exec(ctx, `
INSERT INTO order_modifiers (id, order_id, type, amount, required, required_before_place, pending, finalized)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
`, m.ID, o.ID, m.Type, m.Amount, m.Required, m.RequiredBeforePlace, m.Pending, m.Finalized); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *postgresRepo) GetByReference(ctx context.Context, reference string) (*domain.Order, error) {
	return r.fetchOrder(ctx, `SELECT `+orderColumns+` FROM orders WHERE reference = $1`, reference)
}

func (r *postgresRepo) GetByPaymentID(ctx context.Context, paymentID string) (*domain.Order, error) {
	return r.fetchOrder(ctx, `
SELECT `+orderColumns+`
FROM orders
WHERE id = (SELECT order_id FROM payments WHERE id = $1)
`, paymentID)
}

func (r *postgresRepo) fetchOrder(ctx context.Context, query string, arg any) (*domain.Order, error) {
	var o domain.Order
	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&o.ID, &o.Reference, &o.Status, &o.Placed, &o.Paid, &o.ConfirmationSent, &o.ReceiptSent,
		&o.Locale, &o.IPAddress, &o.Currency, &o.MemberID,
		&o.Email, &o.FirstName, &o.LastName, &o.Company,
		&o.BillingAddress.Address1, &o.BillingAddress.Address2, &o.BillingAddress.City, &o.BillingAddress.Postcode, &o.BillingAddress.State, &o.BillingAddress.Country, &o.BillingAddress.Phone,
		&o.ShippingAddress.Address1, &o.ShippingAddress.Address2, &o.ShippingAddress.City, &o.ShippingAddress.Postcode, &o.ShippingAddress.State, &o.ShippingAddress.Country, &o.ShippingAddress.Phone,
		&o.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	if err := r.loadItems(ctx, &o); err != nil {
		return nil, err
	}
	if err := r.loadModifiers(ctx, &o); err != nil {
		return nil, err
	}
	if err := r.loadPayments(ctx, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *postgresRepo) loadItems(ctx context.Context, o *domain.Order) error {
	rows, err := r.pool.Query(ctx, `
SELECT id::text, product_id, title, quantity, unit_price, total, finalized, purchased
FROM order_items
WHERE order_id = $1
ORDER BY created_at, id
`, o.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		it := domain.Item{OrderID: o.ID}
		if err := rows.Scan(&it.ID, &it.ProductID, &it.Title, &it.Quantity, &it.UnitPrice, &it.Total, &it.Finalized, &it.Purchased); err != nil {
			return err
		}
		o.Items = append(o.Items, it)
	}
	return rows.Err()
}

func (r *postgresRepo) loadModifiers(ctx context.Context, o *domain.Order) error {
	rows, err := r.pool.Query(ctx, `
SELECT id::text, type, amount, required, required_before_place, pending, finalized
FROM order_modifiers
WHERE order_id = $1
ORDER BY created_at, id
`, o.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		m := domain.Modifier{OrderID: o.ID}
		if err := rows.Scan(&m.ID, &m.Type, &m.Amount, &m.Required, &m.RequiredBeforePlace, &m.Pending, &m.Finalized); err != nil {
			return err
		}
		o.Modifiers = append(o.Modifiers, m)
	}
	return rows.Err()
}

func (r *postgresRepo) loadPayments(ctx context.Context, o *domain.Order) error {
	rows, err := r.pool.Query(ctx, `
SELECT id::text, gateway, amount, currency, status, transaction_reference, message, created_at
FROM payments
WHERE order_id = $1
ORDER BY created_at, id
`, o.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		p := domain.Payment{OrderID: o.ID}
		if err := rows.Scan(&p.ID, &p.Gateway, &p.Amount, &p.Currency, &p.Status, &p.TransactionReference, &p.Message, &p.CreatedAt); err != nil {
			return err
		}
		o.Payments = append(o.Payments, &p)
	}
	return rows.Err()
}

// SaveOrder writes mutable order fields. Placed, Paid and the notification
// flags deliberately stay out of this statement; they only move through the
// Mark* compare-and-set methods.
func (r *postgresRepo) SaveOrder(ctx context.Context, o *domain.Order) error {
	_, err := r.pool.Exec(ctx, `
UPDATE orders
SET status = $2, locale = $3, member_id = $4
WHERE id = $1
`, o.ID, o.Status, o.Locale, o.MemberID)
	return err
}

func (r *postgresRepo) SaveItem(ctx context.Context, it *domain.Item) error {
	_, err := r.pool.Exec(ctx, `
UPDATE order_items
SET quantity = $2, unit_price = $3, total = $4, finalized = $5, purchased = $6
WHERE id = $1
`, it.ID, it.Quantity, it.UnitPrice, it.Total, it.Finalized, it.Purchased)
	return err
}

func (r *postgresRepo) SaveModifier(ctx context.Context, m *domain.Modifier) error {
	_, err := r.pool.Exec(ctx, `
UPDATE order_modifiers
SET amount = $2, pending = $3, finalized = $4
WHERE id = $1
`, m.ID, m.Amount, m.Pending, m.Finalized)
	return err
}

func (r *postgresRepo) SavePayment(ctx context.Context, p *domain.Payment) error {
	_, err := r.pool.Exec(ctx, `
INSERT INTO payments (id, order_id, gateway, amount, currency, status, transaction_reference, message, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (id) DO UPDATE SET status = EXCLUDED.status, message = EXCLUDED.message
`, p.ID, p.OrderID, p.Gateway, p.Amount, p.Currency, p.Status, p.TransactionReference, p.Message, p.CreatedAt)
	return err
}

func (r *postgresRepo) MarkPlaced(ctx context.Context, orderID string, at time.Time, ip string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
UPDATE orders
SET placed = $2, ip_address = $3
WHERE id = $1 AND placed IS NULL
`, orderID, at, ip)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *postgresRepo) MarkPaid(ctx context.Context, orderID string, at time.Time) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
UPDATE orders
SET paid = $2, status = 'Paid'
WHERE id = $1 AND paid IS NULL
`, orderID, at)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *postgresRepo) MarkConfirmationSent(ctx context.Context, orderID string) (bool, error) {
	return r.flipFlag(ctx, "confirmation_sent", orderID)
}

func (r *postgresRepo) MarkReceiptSent(ctx context.Context, orderID string) (bool, error) {
	return r.flipFlag(ctx, "receipt_sent", orderID)
}

func (r *postgresRepo) flipFlag(ctx context.Context, column, orderID string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
UPDATE orders
SET `+column+` = TRUE
WHERE id = $1 AND `+column+` = FALSE
`, orderID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *postgresRepo) CapturePayment(ctx context.Context, paymentID string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
UPDATE payments
SET status = 'Captured'
WHERE id = $1 AND status IN ('Created', 'Authorized')
`, paymentID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
