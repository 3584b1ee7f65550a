package services

import (
	"context"

	"github.com/harborpoint/fund_backoffice_app/internal/core/domain"
	"github.com/harborpoint/fund_backoffice_app/internal/dto"
)

// UserSvcFacade manages staff users.
type UserSvcFacade interface {
	CreateUser(ctx context.Context, req dto.CreateUserRequest, creatorUserID string) (*domain.User, error)
	GetUserByID(ctx context.Context, userID int64) (*domain.User, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
	UpdateUser(ctx context.Context, userID int64, req dto.UpdateUserRequest, updaterUserID string) (*domain.User, error)

	// Authenticate verifies credentials and returns the user on success.
	Authenticate(ctx context.Context, username, password string) (*domain.User, error)
}

// TokenSvcFacade issues bearer tokens for authenticated staff.
type TokenSvcFacade interface {
	// GenerateToken returns a signed token and its lifetime in seconds.
	GenerateToken(user *domain.User) (string, int, error)
}
