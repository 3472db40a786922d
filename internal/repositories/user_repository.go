package repositories

import (
	"context"
	"time"

	"github.com/videoportal/backend/internal/models"
)

// UserRepository defines the data access contract for users.
type UserRepository interface {
	Create(ctx context.Context, user models.User) error
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
	ListByStatus(ctx context.Context, status string) ([]models.User, error)
	SetApproved(ctx context.Context, id string, at time.Time) error
	ToggleAdmin(ctx context.Context, id string, at time.Time) (models.User, error)
	UpdatePhoneNumber(ctx context.Context, id, phone string, at time.Time) (models.User, error)
}
