package member

import (
	"context"
	"errors"

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

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Member, error) {
	const q = `
SELECT id::text, email, first_name, last_name, created_at
FROM members
WHERE id = $1
`
	var m domain.Member
	if err := r.pool.QueryRow(ctx, q, id).Scan(&m.ID, &m.Email, &m.FirstName, &m.LastName, &m.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

func (r *postgresRepo) AddToGroup(ctx context.Context, memberID, group string) error {
	const q = `
INSERT INTO member_groups (member_id, group_name)
VALUES ($1, $2)
ON CONFLICT (member_id, group_name) DO NOTHING
`
	_, err := r.pool.Exec(ctx, q, memberID, group)
	return err
}
