package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/harborpoint/fund_backoffice_app/internal/apperrors"
	"github.com/harborpoint/fund_backoffice_app/internal/core/domain"
	portsrepo "github.com/harborpoint/fund_backoffice_app/internal/core/ports/repositories"
	portssvc "github.com/harborpoint/fund_backoffice_app/internal/core/ports/services"
	"github.com/harborpoint/fund_backoffice_app/internal/dto"
	"github.com/harborpoint/fund_backoffice_app/internal/utils"
)

type userServiceImpl struct {
	BaseService
	userRepo portsrepo.UserRepositoryFacade
}

// NewUserService creates the staff user service.
func NewUserService(userRepo portsrepo.UserRepositoryFacade) portssvc.UserSvcFacade {
	return &userServiceImpl{userRepo: userRepo}
}

var _ portssvc.UserSvcFacade = (*userServiceImpl)(nil)

func (s *userServiceImpl) CreateUser(ctx context.Context, req dto.CreateUserRequest, creatorUserID string) (*domain.User, error) {
	if _, err := s.userRepo.FindUserByUsername(ctx, req.Username); err == nil {
		return nil, fmt.Errorf("username %q is taken: %w", req.Username, apperrors.ErrDuplicate)
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		s.LogError(ctx, err, "Failed to hash password")
		return nil, err
	}

	now := time.Now().UTC()
	user := domain.User{
		Username:     req.Username,
		Name:         req.Name,
		PasswordHash: hash,
		Role:         domain.UserRole(req.Role),
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     creatorUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: creatorUserID,
		},
	}

	id, err := s.userRepo.CreateUser(ctx, user)
	if err != nil {
		s.LogError(ctx, err, "Failed to create user", slog.String("username", req.Username))
		return nil, err
	}
	user.UserID = id

	s.LogInfo(ctx, "Staff user created",
		slog.Int64("user_id", id),
		slog.String("username", req.Username),
		slog.String("role", req.Role))
	return &user, nil
}

func (s *userServiceImpl) GetUserByID(ctx context.Context, userID int64) (*domain.User, error) {
	return s.userRepo.FindUserByID(ctx, userID)
}

func (s *userServiceImpl) ListUsers(ctx context.Context) ([]domain.User, error) {
	return s.userRepo.ListUsers(ctx)
}

func (s *userServiceImpl) UpdateUser(ctx context.Context, userID int64, req dto.UpdateUserRequest, updaterUserID string) (*domain.User, error) {
	user, err := s.userRepo.FindUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	changed := false
	if req.Name != nil && *req.Name != user.Name {
		user.Name = *req.Name
		changed = true
	}
	if req.Password != nil {
		hash, hashErr := utils.HashPassword(*req.Password)
		if hashErr != nil {
			s.LogError(ctx, hashErr, "Failed to hash password")
			return nil, hashErr
		}
		user.PasswordHash = hash
		changed = true
	}
	if req.Role != nil {
		role := domain.UserRole(*req.Role)
		if role != domain.RoleStaff && role != domain.RoleAdmin {
			return nil, fmt.Errorf("unknown role %q: %w", *req.Role, apperrors.ErrValidation)
		}
		if role != user.Role {
			user.Role = role
			changed = true
		}
	}
	if req.Disabled != nil && *req.Disabled != user.Disabled {
		user.Disabled = *req.Disabled
		changed = true
	}

	if !changed {
		return user, nil
	}

	user.LastUpdatedAt = time.Now().UTC()
	user.LastUpdatedBy = updaterUserID
	if err := s.userRepo.UpdateUser(ctx, *user); err != nil {
		s.LogError(ctx, err, "Failed to update user", slog.Int64("user_id", userID))
		return nil, err
	}

	s.LogInfo(ctx, "Staff user updated", slog.Int64("user_id", userID))
	return user, nil
}

// Authenticate verifies a username and password. Disabled users cannot log in.
func (s *userServiceImpl) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	user, err := s.userRepo.FindUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("invalid credentials: %w", apperrors.ErrForbidden)
		}
		return nil, err
	}
	if user.Disabled {
		return nil, fmt.Errorf("account disabled: %w", apperrors.ErrForbidden)
	}
	if !utils.CheckPasswordHash(password, user.PasswordHash) {
		return nil, fmt.Errorf("invalid credentials: %w", apperrors.ErrForbidden)
	}
	return user, nil
}
