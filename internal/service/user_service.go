package service

import (
	"context"
	"fmt"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/diagnosis/hotel-bookings/internal/domain"
	"github.com/diagnosis/hotel-bookings/internal/repo/postgres"
	"github.com/diagnosis/hotel-bookings/pkg/auth"
	"github.com/diagnosis/hotel-bookings/pkg/config"
	"github.com/diagnosis/hotel-bookings/pkg/logger"
)

type UserService interface {
	Register(ctx context.Context, actor *domain.Actor, req *domain.CreateUserRequest) (*domain.User, error)
	Login(ctx context.Context, req *domain.LoginRequest) (*domain.LoginResponse, error)
	Get(ctx context.Context, actor domain.Actor, id int64) (*domain.User, error)
	List(ctx context.Context, actor domain.Actor, limit, offset int) ([]domain.User, error)
	Update(ctx context.Context, actor domain.Actor, id int64, req *domain.UpdateUserRequest) (*domain.User, error)
	Delete(ctx context.Context, actor domain.Actor, id int64) error
}

type userService struct {
	users  postgres.UsersRepo
	config config.AuthConfig
	params *argon2id.Params
}

func NewUserService(users postgres.UsersRepo, cfg config.AuthConfig) UserService {
	return &userService{users: users, config: cfg, params: argon2id.DefaultParams}
}

func (s *userService) Register(ctx context.Context, actor *domain.Actor, req *domain.CreateUserRequest) (*domain.User, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if req.Role == domain.RoleAdmin && (actor == nil || !actor.IsAdmin()) {
		return nil, fmt.Errorf("only admins may create admin accounts: %w", domain.ErrForbidden)
	}

	existing, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		return nil, domain.ErrEmailExists
	}

	hash, err := argon2id.CreateHash(req.Password, s.params)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	u, err := s.users.Create(ctx, &domain.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         req.Role,
		Phone:        req.Phone,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	logger.InfoContext(ctx, "User registered", "user_id", u.ID, "role", u.Role)
	return u, nil
}

func (s *userService) Login(ctx context.Context, req *domain.LoginRequest) (*domain.LoginResponse, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	u, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if u == nil {
		return nil, domain.ErrInvalidCredentials
	}

	valid, err := argon2id.ComparePasswordAndHash(req.Password, u.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}
	if !valid {
		return nil, domain.ErrInvalidCredentials
	}

	token, err := auth.NewAccessToken(u.ID, u.Email, string(u.Role), s.config.JWTSecret, s.config.AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to create access token: %w", err)
	}
	return &domain.LoginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.config.AccessTokenTTL / time.Second),
		User:        u,
	}, nil
}

func (s *userService) Get(ctx context.Context, actor domain.Actor, id int64) (*domain.User, error) {
	if !actor.CanAccess(id) {
		return nil, domain.ErrForbidden
	}
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if u == nil {
		return nil, domain.ErrNotFound
	}
	return u, nil
}

func (s *userService) List(ctx context.Context, actor domain.Actor, limit, offset int) ([]domain.User, error) {
	if !actor.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	return s.users.List(ctx, limit, offset)
}

func (s *userService) Update(ctx context.Context, actor domain.Actor, id int64, req *domain.UpdateUserRequest) (*domain.User, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	u, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if req.Role != nil && *req.Role != u.Role && !actor.IsAdmin() {
		return nil, fmt.Errorf("only admins may change roles: %w", domain.ErrForbidden)
	}

	if req.Name != nil {
		u.Name = *req.Name
	}
	if req.Phone != nil {
		u.Phone = *req.Phone
	}
	if req.Role != nil {
		u.Role = *req.Role
	}
	if req.Password != nil {
		hash, err := argon2id.CreateHash(*req.Password, s.params)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		u.PasswordHash = hash
	}

	updated, err := s.users.Update(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	if updated == nil {
		return nil, domain.ErrNotFound
	}
	return updated, nil
}

func (s *userService) Delete(ctx context.Context, actor domain.Actor, id int64) error {
	if !actor.CanAccess(id) {
		return domain.ErrForbidden
	}
	ok, err := s.users.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete user %d: %w", id, err)
	}
	if !ok {
		return domain.ErrNotFound
	}
	logger.InfoContext(ctx, "User deleted", "user_id", id, "by", actor.UserID)
	return nil
}
