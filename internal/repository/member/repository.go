package member

import (
	"context"

	"shopcheckout/internal/domain"
)

type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Member, error)
	// AddToGroup is idempotent: adding an existing member to a group is
	// a no-op.
	AddToGroup(ctx context.Context, memberID, group string) error
}
