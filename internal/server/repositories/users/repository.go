package users

import (
	"context"

	"github.com/codesleeps/palmers/internal/server/models"
)

// Repository is the user store boundary. Lookups return common.ErrorNotFound
// when no row matches; Create returns common.ErrorAlreadyExists when the
// email is taken.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	UpdatePasswordHash(ctx context.Context, id string, hash string) error
	UpdateProfile(ctx context.Context, id string, upd models.ProfileUpdate) (*models.User, error)
	SetActive(ctx context.Context, id string, active bool) error
}
