package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/structura-group/pipeline-api/internal/auth"
	"github.com/structura-group/pipeline-api/internal/domain"
	"github.com/structura-group/pipeline-api/internal/mapper"
	"github.com/structura-group/pipeline-api/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// UserService manages accounts. All operations here are admin-gated by the
// router; the service only enforces rules the route cannot, such as the ban
// on deleting one's own account.
type UserService struct {
	userRepo *repository.UserRepository
	activity *ActivityService
	logger   *zap.Logger
}

func NewUserService(userRepo *repository.UserRepository, activity *ActivityService, logger *zap.Logger) *UserService {
	return &UserService{
		userRepo: userRepo,
		activity: activity,
		logger:   logger,
	}
}

func (s *UserService) List(ctx context.Context, filters repository.UserFilters) ([]domain.UserDTO, error) {
	users, err := s.userRepo.List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	dtos := make([]domain.UserDTO, len(users))
	for i := range users {
		dtos[i] = mapper.ToUserDTO(&users[i])
	}
	return dtos, nil
}

func (s *UserService) GetByID(ctx context.Context, id uuid.UUID) (*domain.UserDTO, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	dto := mapper.ToUserDTO(user)
	return &dto, nil
}

// Update applies a partial update. Omitted fields stay untouched.
func (s *UserService) Update(ctx context.Context, id uuid.UUID, req *domain.UpdateUserRequest) (*domain.UserDTO, error) {
	if _, err := s.userRepo.FindByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Phone != nil {
		updates["phone"] = *req.Phone
	}
	if req.Role != nil {
		if !req.Role.IsValid() {
			return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, *req.Role)
		}
		updates["role"] = *req.Role
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if req.CommissionRate != nil {
		updates["commission_rate"] = *req.CommissionRate
	}
	if req.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		updates["password_hash"] = string(hash)
	}

	if len(updates) == 0 {
		return nil, ErrEmptyUpdate
	}

	if err := s.userRepo.Update(ctx, id, updates); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.activity.Record(ctx, "user", user.ID, nil, "user_updated",
		fmt.Sprintf("User '%s' updated", user.Name))

	dto := mapper.ToUserDTO(user)
	return &dto, nil
}

// Delete deactivates an account. Accounts are never hard-deleted and nobody
// may deactivate their own.
func (s *UserService) Delete(ctx context.Context, caller *auth.UserContext, id uuid.UUID) error {
	if caller.UserID == id {
		return ErrSelfDeletion
	}

	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}

	if err := s.userRepo.Deactivate(ctx, id); err != nil {
		return fmt.Errorf("failed to deactivate user: %w", err)
	}

	s.activity.Record(ctx, "user", id, nil, "user_deactivated",
		fmt.Sprintf("User '%s' deactivated", user.Name))

	return nil
}
