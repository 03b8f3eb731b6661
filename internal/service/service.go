// Package service реализует бизнес-логику магазина CUENTY.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/mmeshcher/cuenty/internal/cache"
	"github.com/mmeshcher/cuenty/internal/model"
	"github.com/mmeshcher/cuenty/internal/repository"
	"github.com/mmeshcher/cuenty/internal/validation"
)

var (
	// ErrValidation возвращается, если входные данные не прошли проверку.
	ErrValidation = errors.New("validation failed")
	// ErrInvalidCredentials возвращается при неудачном входе администратора.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidTransition возвращается, если смена статуса заказа запрещена.
	ErrInvalidTransition = errors.New("invalid order status transition")
)

// Repository описывает контракт доступа к данным, используемый сервисом.
type Repository interface {
	Close() error
	Ping(ctx context.Context) error

	CreateService(ctx context.Context, s *model.Service) (*model.Service, error)
	UpdateService(ctx context.Context, s *model.Service) (*model.Service, error)
	GetService(ctx context.Context, id int64) (*model.Service, error)
	ListServices(ctx context.Context) ([]model.Service, error)
	DeleteService(ctx context.Context, id int64) error

	CreatePlan(ctx context.Context, p *model.Plan) (*model.Plan, error)
	UpdatePlan(ctx context.Context, p *model.Plan) (*model.Plan, error)
	GetPlan(ctx context.Context, id int64) (*model.Plan, error)
	ListPlans(ctx context.Context, serviceID int64) ([]model.Plan, error)
	FirstPlanForService(ctx context.Context, serviceID int64) (*model.Plan, error)
	DeletePlan(ctx context.Context, id int64) error
	ListCatalog(ctx context.Context) ([]model.CatalogService, error)

	CreateAccount(ctx context.Context, a *model.Account) (*model.Account, error)
	UpdateAccount(ctx context.Context, a *model.Account) (*model.Account, error)
	GetAccount(ctx context.Context, id int64) (*model.Account, error)
	ListAccounts(ctx context.Context, f repository.AccountFilter) ([]model.Account, error)
	DeleteAccount(ctx context.Context, id int64) error
	AssignAccount(ctx context.Context, itemID int64, accountID *int64, now time.Time) (*model.OrderItem, error)
	DeliverItem(ctx context.Context, itemID int64) (*model.OrderItem, *model.Account, error)

	CreateOrder(ctx context.Context, o *model.Order, items []model.OrderItem) (*model.OrderDetail, error)
	GetOrder(ctx context.Context, id int64) (*model.OrderDetail, error)
	GetOrderItem(ctx context.Context, id int64) (*model.OrderItem, error)
	ListOrders(ctx context.Context, f repository.OrderFilter) ([]model.Order, int, error)
	UpdateOrder(ctx context.Context, id int64, fn func(o *model.Order) error) (*model.Order, error)
	DeleteOrder(ctx context.Context, id int64) error
	ExpireItems(ctx context.Context, now time.Time) (int64, int64, error)

	CreateCustomer(ctx context.Context, c *model.Customer) (*model.Customer, error)
	GetCustomer(ctx context.Context, id int64) (*model.Customer, error)
	ListCustomers(ctx context.Context, limit, offset int) ([]model.Customer, int, error)
	UpdateCustomer(ctx context.Context, c *model.Customer) (*model.Customer, error)
	DeleteCustomer(ctx context.Context, id int64) error

	CreateAdmin(ctx context.Context, a *model.Admin) (*model.Admin, error)
	GetAdminByEmail(ctx context.Context, email string) (*model.Admin, error)
	ListAdmins(ctx context.Context) ([]model.Admin, error)

	CreateContact(ctx context.Context, m *model.ContactMessage) (*model.ContactMessage, error)
	ListContacts(ctx context.Context, status model.ContactStatus, limit, offset int) ([]model.ContactMessage, int, error)
	UpdateContactStatus(ctx context.Context, id int64, status model.ContactStatus) (*model.ContactMessage, error)

	GetSiteConfig(ctx context.Context) (*model.SiteConfig, error)
	UpdateSiteConfig(ctx context.Context, c *model.SiteConfig) (*model.SiteConfig, error)
}

// Cache описывает кэш ответов публичных эндпоинтов.
type Cache interface {
	GetJSON(ctx context.Context, key string, dst any) (bool, error)
	SetJSON(ctx context.Context, key string, v any) error
	Delete(ctx context.Context, keys ...string) error
}

// TokenIssuer выпускает токены доступа администраторов.
type TokenIssuer interface {
	Issue(admin *model.Admin) (string, time.Time, error)
}

// Options задаёт необязательные параметры сервиса.
type Options struct {
	// StrictTransitions включает проверку таблицы переходов статусов заказа.
	StrictTransitions bool
}

// Service содержит бизнес-логику магазина CUENTY.
type Service struct {
	repo   Repository
	cache  Cache
	tokens TokenIssuer
	logger *zap.Logger

	strictTransitions bool
	bcryptCost        int
	now               func() time.Time
}

// NewService создаёт сервис. Если cache равен nil, кэширование отключено.
func NewService(repo Repository, c Cache, tokens TokenIssuer, logger *zap.Logger, opts Options) *Service {
	if c == nil {
		c = cache.Nop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repo:              repo,
		cache:             c,
		tokens:            tokens,
		logger:            logger,
		strictTransitions: opts.StrictTransitions,
		bcryptCost:        bcrypt.DefaultCost,
		now:               time.Now,
	}
}

// Close закрывает ресурсы сервиса.
func (s *Service) Close() error {
	if s.repo != nil {
		return s.repo.Close()
	}
	return nil
}

// Ping проверяет доступность хранилища.
func (s *Service) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

func validate(in any) error {
	if err := validation.Struct(in); err != nil {
		return fmt.Errorf("%w: %s", ErrValidation, err.Error())
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
