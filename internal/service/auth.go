package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/mmeshcher/cuenty/internal/model"
	"github.com/mmeshcher/cuenty/internal/repository"
)

// LoginInput содержит учётные данные для входа администратора.
// Поля correo и contrasena принимаются как синонимы email и password.
type LoginInput struct {
	Email    string `json:"email" validate:"notblank"`
	Password string `json:"password" validate:"required"`
}

// UnmarshalJSON читает LoginInput, дополняя пустые поля испанскими синонимами.
func (in *LoginInput) UnmarshalJSON(data []byte) error {
	type plain LoginInput
	var aux struct {
		plain
		Correo     string `json:"correo"`
		Contrasena string `json:"contrasena"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*in = LoginInput(aux.plain)
	in.Email = firstNonEmpty(in.Email, aux.Correo)
	in.Password = firstNonEmpty(in.Password, aux.Contrasena)
	return nil
}

// LoginResult содержит выданный токен и данные администратора.
type LoginResult struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expira"`
	Admin     *model.Admin `json:"admin"`
}

// AdminInput содержит данные для создания администратора.
type AdminInput struct {
	Username string `json:"usuario" validate:"notblank,max=50"`
	Email    string `json:"correo" validate:"required,email"`
	Password string `json:"contrasena" validate:"required,min=6"`
}

// Login проверяет email и пароль администратора и выпускает токен доступа.
// Любая ошибка проверки (нет такого email, неверный пароль) приводит к ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	if err := validate(in); err != nil {
		return nil, err
	}

	email := normalizeEmail(in.Email)

	admin, err := s.repo.GetAdminByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword(admin.PasswordHash, []byte(in.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, expires, err := s.tokens.Issue(admin)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	return &LoginResult{Token: token, ExpiresAt: expires, Admin: admin}, nil
}

// CreateAdmin создаёт администратора с bcrypt-хешем пароля.
func (s *Service) CreateAdmin(ctx context.Context, in AdminInput) (*model.Admin, error) {
	if err := validate(in); err != nil {
		return nil, err
	}

	hash, err := s.hashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	return s.repo.CreateAdmin(ctx, &model.Admin{
		Username:     strings.TrimSpace(in.Username),
		Email:        normalizeEmail(in.Email),
		PasswordHash: hash,
	})
}

// ListAdmins возвращает всех администраторов.
func (s *Service) ListAdmins(ctx context.Context) ([]model.Admin, error) {
	return s.repo.ListAdmins(ctx)
}

// EnsureBootstrapAdmin создаёт начального администратора, если администратора
// с таким email ещё нет. Пустой email или пароль отключают создание.
func (s *Service) EnsureBootstrapAdmin(ctx context.Context, username, email, password string) error {
	if email == "" || password == "" {
		return nil
	}

	_, err := s.repo.GetAdminByEmail(ctx, normalizeEmail(email))
	if err == nil {
		return nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return err
	}

	admin, err := s.CreateAdmin(ctx, AdminInput{Username: username, Email: email, Password: password})
	if err != nil {
		return fmt.Errorf("create bootstrap admin: %w", err)
	}

	s.logger.Info("bootstrap admin created", zap.Int64("adminID", admin.ID), zap.String("username", admin.Username))
	return nil
}

func (s *Service) hashPassword(password string) ([]byte, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	return hash, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
