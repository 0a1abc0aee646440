package service

import (
	"context"
	"errors"
	"time"

	"RapperDashboard/internal/model"
	"RapperDashboard/internal/repo"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrUsernameTaken      = errors.New("service: username already taken")
	ErrEmailTaken         = errors.New("service: email already registered")
	ErrInvalidCredentials = errors.New("service: invalid credentials")
	ErrUserNotFound       = errors.New("service: user not found")
)

// UserService — регистрация, вход и загрузка пользователей.
type UserService struct {
	repo   repo.UserRepository
	logger *zap.SugaredLogger
}

func NewUserService(r repo.UserRepository, logger *zap.SugaredLogger) *UserService {
	return &UserService{repo: r, logger: logger}
}

// Register создаёт пользователя с ролью user. Уникальность username и email
// проверяется до вставки, чтобы вернуть точную причину конфликта.
func (s *UserService) Register(ctx context.Context, username, name, email, password string) (*model.User, error) {
	if existing, err := s.repo.GetUserByUsername(ctx, username); err == nil && existing != nil {
		return nil, ErrUsernameTaken
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if existing, err := s.repo.GetUserByEmail(ctx, email); err == nil && existing != nil {
		return nil, ErrEmailTaken
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		ID:       uuid.NewString(),
		Username: username,
		Name:     name,
		Email:    email,
		Password: string(hash),
		Role:     model.RoleUser,
	}

	created, err := s.repo.CreateUser(ctx, user)
	if err != nil {
		return nil, err
	}

	s.logger.Infow("user registered", "user_id", created.ID, "username", created.Username)
	return created, nil
}

// Login проверяет пароль и отмечает lastLogin. Неизвестный пользователь и
// неверный пароль неразличимы для клиента.
func (s *UserService) Login(ctx context.Context, username, password string) (*model.User, error) {
	user, err := s.repo.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	now := time.Now()
	if err := s.repo.UpdateLastLogin(ctx, user.ID, now); err != nil {
		// не фатально для входа
		s.logger.Warnw("failed to update last login", "user_id", user.ID, "error", err)
	}
	user.LastLogin = &now

	return user, nil
}

// GetByID загружает пользователя, ErrUserNotFound если записи нет.
func (s *UserService) GetByID(ctx context.Context, id string) (*model.User, error) {
	user, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// ListByIDs загружает пользователей по списку ID.
func (s *UserService) ListByIDs(ctx context.Context, ids []string) ([]model.User, error) {
	return s.repo.ListUsersByIDs(ctx, ids)
}
