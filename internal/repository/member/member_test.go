package member

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"shopcheckout/internal/domain"
	"shopcheckout/internal/migrate"
)

func testPool(ctx context.Context, t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	return pool
}

func TestPostgres_GetByIDNotFound(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()

	if err := migrate.Apply(ctx, pool); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}

	repo := NewPostgres(pool)
	_, err := repo.GetByID(ctx, uuid.NewString())
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPostgres_AddToGroupIdempotent(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()

	if err := migrate.Apply(ctx, pool); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}

	id := uuid.NewString()
	if _, err := pool.Exec(ctx, `
INSERT INTO members (id, email, first_name, last_name)
VALUES ($1, $2, 'Kim', 'Vos')
`, id, id+"@example.com"); err != nil {
		t.Fatalf("insert member: %v", err)
	}

	repo := NewPostgres(pool)
	for i := 0; i < 2; i++ {
		if err := repo.AddToGroup(ctx, id, "customers"); err != nil {
			t.Fatalf("AddToGroup attempt %d: %v", i+1, err)
		}
	}

	var n int
	if err := pool.QueryRow(ctx, `SELECT count(*) FROM member_groups WHERE member_id = $1`, id).Scan(&n); err != nil {
		t.Fatalf("count groups: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 group row, got %d", n)
	}
}
