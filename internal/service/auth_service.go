package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/structura-group/pipeline-api/internal/auth"
	"github.com/structura-group/pipeline-api/internal/config"
	"github.com/structura-group/pipeline-api/internal/domain"
	"github.com/structura-group/pipeline-api/internal/mapper"
	"github.com/structura-group/pipeline-api/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AuthService handles registration, login and the bootstrap admin routine.
type AuthService struct {
	userRepo  *repository.UserRepository
	tokens    *auth.TokenManager
	activity  *ActivityService
	bootstrap config.BootstrapConfig
	logger    *zap.Logger
}

func NewAuthService(
	userRepo *repository.UserRepository,
	tokens *auth.TokenManager,
	activity *ActivityService,
	bootstrap config.BootstrapConfig,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		userRepo:  userRepo,
		tokens:    tokens,
		activity:  activity,
		bootstrap: bootstrap,
		logger:    logger,
	}
}

// Register creates a new account. Only administrators reach this through the
// router; the role still has to be a known one.
func (s *AuthService) Register(ctx context.Context, req *domain.RegisterRequest) (*domain.UserDTO, error) {
	if !req.Role.IsValid() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, req.Role)
	}

	existing, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check existing email: %w", err)
	}
	if existing != nil {
		return nil, ErrDuplicateEmail
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &domain.User{
		Email:          req.Email,
		PasswordHash:   string(hash),
		Name:           req.Name,
		Phone:          req.Phone,
		Role:           req.Role,
		IsActive:       true,
		CommissionRate: req.CommissionRate,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.activity.Record(ctx, "user", user.ID, nil, "user_created",
		fmt.Sprintf("User '%s' registered with role %s", user.Name, user.Role))

	dto := mapper.ToUserDTO(user)
	return &dto, nil
}

// Login verifies credentials and issues a bearer token. Unknown email, wrong
// password and deactivated account all read as invalid credentials or a
// deactivated account; the caller never learns which emails exist.
func (s *AuthService) Login(ctx context.Context, req *domain.LoginRequest) (*domain.LoginResponseDTO, error) {
	user, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	if !user.IsActive {
		return nil, ErrAccountDeactivated
	}

	token, expiresAt, err := s.tokens.Issue(user)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	s.logger.Info("user logged in",
		zap.String("userId", user.ID.String()),
		zap.String("role", string(user.Role)))

	return &domain.LoginResponseDTO{
		Token:     token,
		TokenType: "Bearer",
		ExpiresAt: domain.FormatTime(expiresAt),
		User:      mapper.ToUserDTO(user),
	}, nil
}

// Me returns the authenticated user's own profile.
func (s *AuthService) Me(ctx context.Context, user *auth.UserContext) (*domain.UserDTO, error) {
	record, err := s.userRepo.FindByID(ctx, user.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	dto := mapper.ToUserDTO(record)
	return &dto, nil
}

// InitAdmin creates the bootstrap administrator account. The routine is
// idempotent: when any admin already exists it reports created=false and
// changes nothing. The route is only mounted when bootstrap is enabled.
func (s *AuthService) InitAdmin(ctx context.Context) (*domain.UserDTO, bool, error) {
	if !s.bootstrap.Enabled {
		return nil, false, ErrNotFound
	}

	count, err := s.userRepo.CountByRole(ctx, domain.RoleAdmin)
	if err != nil {
		return nil, false, fmt.Errorf("failed to count admins: %w", err)
	}
	if count > 0 {
		admin, err := s.userRepo.FindByEmail(ctx, s.bootstrap.AdminEmail)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, false, nil
			}
			return nil, false, err
		}
		dto := mapper.ToUserDTO(admin)
		return &dto, false, nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(s.bootstrap.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, false, fmt.Errorf("failed to hash password: %w", err)
	}

	admin := &domain.User{
		Email:        s.bootstrap.AdminEmail,
		PasswordHash: string(hash),
		Name:         s.bootstrap.AdminName,
		Role:         domain.RoleAdmin,
		IsActive:     true,
	}

	if err := s.userRepo.Create(ctx, admin); err != nil {
		return nil, false, fmt.Errorf("failed to create admin: %w", err)
	}

	s.logger.Info("bootstrap admin created", zap.String("email", admin.Email))

	dto := mapper.ToUserDTO(admin)
	return &dto, true, nil
}
