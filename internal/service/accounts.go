package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/mmeshcher/cuenty/internal/credential"
	"github.com/mmeshcher/cuenty/internal/model"
	"github.com/mmeshcher/cuenty/internal/repository"
)

// AccountInput содержит данные аккаунта склада. Email и пароль передаются в открытом виде.
// Если указан servicio_id, отличный от сервиса текущего плана, аккаунт
// переносится на первый план этого сервиса.
type AccountInput struct {
	PlanID    int64   `json:"plan_id" validate:"gte=0"`
	ServiceID int64   `json:"servicio_id" validate:"gte=0"`
	Email     string  `json:"correo" validate:"notblank,max=255"`
	Password  string  `json:"contrasena" validate:"notblank,max=255"`
	Profile   string  `json:"perfil" validate:"notblank,max=100"`
	PIN       *string `json:"pin" validate:"omitempty,max=20"`
	Notes     *string `json:"notas" validate:"omitempty,max=2000"`
	Active    *bool   `json:"activo"`
}

// AccountFilter задаёт фильтр списка аккаунтов.
type AccountFilter struct {
	PlanID    int64
	ServiceID int64
	Status    model.AccountStatus
}

// AccountView описывает аккаунт склада с раскодированными учётными данными.
type AccountView struct {
	model.Account
	Email    string `json:"correo"`
	Password string `json:"contrasena"`
}

// Delivery содержит учётные данные, выданные по позиции заказа.
type Delivery struct {
	Item     *model.OrderItem `json:"item"`
	Email    string           `json:"correo"`
	Password string           `json:"contrasena"`
	Profile  string           `json:"perfil"`
	PIN      *string          `json:"pin,omitempty"`
}

func viewAccount(a *model.Account) *AccountView {
	return &AccountView{
		Account:  *a,
		Email:    credential.Decode(a.EncodedEmail),
		Password: credential.Decode(a.EncodedPassword),
	}
}

// CreateAccount добавляет аккаунт на склад. План обязателен и должен существовать.
func (s *Service) CreateAccount(ctx context.Context, in AccountInput) (*AccountView, error) {
	if err := validate(in); err != nil {
		return nil, err
	}
	if in.PlanID == 0 {
		return nil, invalid("plan_id: es obligatorio")
	}
	if err := s.requirePlan(ctx, in.PlanID); err != nil {
		return nil, err
	}

	status := model.AccountStatusAvailable
	if !boolOr(in.Active, true) {
		status = model.AccountStatusBlocked
	}

	created, err := s.repo.CreateAccount(ctx, &model.Account{
		PlanID:          in.PlanID,
		EncodedEmail:    credential.Encode(strings.TrimSpace(in.Email)),
		EncodedPassword: credential.Encode(in.Password),
		Profile:         strings.TrimSpace(in.Profile),
		PIN:             trimOptional(in.PIN),
		Notes:           trimOptional(in.Notes),
		Status:          status,
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, catalogCacheKey)
	return viewAccount(created), nil
}

// UpdateAccount изменяет аккаунт склада. Назначенный аккаунт остаётся asignada
// независимо от activo.
func (s *Service) UpdateAccount(ctx context.Context, id int64, in AccountInput) (*AccountView, error) {
	if err := validate(in); err != nil {
		return nil, err
	}

	current, err := s.repo.GetAccount(ctx, id)
	if err != nil {
		return nil, err
	}

	planID := current.PlanID
	serviceID := current.ServiceID
	if in.PlanID != 0 && in.PlanID != planID {
		p, err := s.repo.GetPlan(ctx, in.PlanID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, invalid("plan_id: el plan %d no existe", in.PlanID)
			}
			return nil, err
		}
		planID, serviceID = p.ID, p.ServiceID
	}

	if in.ServiceID != 0 && in.ServiceID != serviceID {
		p, err := s.repo.FirstPlanForService(ctx, in.ServiceID)
		if err != nil {
			return nil, fmt.Errorf("resolve plan for service %d: %w", in.ServiceID, err)
		}
		planID = p.ID
	}

	status := current.Status
	if in.Active != nil {
		status = model.AccountStatusAvailable
		if !*in.Active {
			status = model.AccountStatusBlocked
		}
	}

	updated, err := s.repo.UpdateAccount(ctx, &model.Account{
		ID:              id,
		PlanID:          planID,
		EncodedEmail:    credential.Encode(strings.TrimSpace(in.Email)),
		EncodedPassword: credential.Encode(in.Password),
		Profile:         strings.TrimSpace(in.Profile),
		PIN:             trimOptional(in.PIN),
		Notes:           trimOptional(in.Notes),
		Status:          status,
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, catalogCacheKey)
	return viewAccount(updated), nil
}

// GetAccount возвращает аккаунт с раскодированными учётными данными.
func (s *Service) GetAccount(ctx context.Context, id int64) (*AccountView, error) {
	a, err := s.repo.GetAccount(ctx, id)
	if err != nil {
		return nil, err
	}
	return viewAccount(a), nil
}

// ListAccounts возвращает аккаунты склада с раскодированными учётными данными.
func (s *Service) ListAccounts(ctx context.Context, f AccountFilter) ([]AccountView, error) {
	switch f.Status {
	case "", model.AccountStatusAvailable, model.AccountStatusAssigned, model.AccountStatusBlocked:
	default:
		return nil, invalid("status: valor desconocido %q", f.Status)
	}

	accounts, err := s.repo.ListAccounts(ctx, repository.AccountFilter{
		PlanID:    f.PlanID,
		ServiceID: f.ServiceID,
		Status:    f.Status,
	})
	if err != nil {
		return nil, err
	}

	res := make([]AccountView, 0, len(accounts))
	for i := range accounts {
		res = append(res, *viewAccount(&accounts[i]))
	}
	return res, nil
}

// DeleteAccount удаляет аккаунт, на который не ссылаются позиции заказов.
func (s *Service) DeleteAccount(ctx context.Context, id int64) error {
	if err := s.repo.DeleteAccount(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, catalogCacheKey)
	return nil
}

// AssignAccount назначает аккаунт позиции заказа. Без accountID берётся самый
// старый свободный аккаунт плана позиции.
func (s *Service) AssignAccount(ctx context.Context, itemID int64, accountID *int64) (*model.OrderItem, error) {
	item, err := s.repo.AssignAccount(ctx, itemID, accountID, s.now())
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, catalogCacheKey)
	s.logger.Info("account assigned",
		zap.Int64("orderID", item.OrderID),
		zap.Int64("itemID", item.ID),
		zap.Int64p("accountID", item.AccountID),
	)
	return item, nil
}

// AssignOrder назначает аккаунты всем ещё не обслуженным позициям заказа.
// Назначение останавливается на первой ошибке; уже назначенные позиции сохраняются.
func (s *Service) AssignOrder(ctx context.Context, orderID int64) (*model.OrderDetail, error) {
	detail, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	for _, it := range detail.Items {
		if it.AccountID != nil || it.Status != model.ItemStatusPending {
			continue
		}
		if _, err := s.AssignAccount(ctx, it.ID, nil); err != nil {
			return nil, fmt.Errorf("assign item %d: %w", it.ID, err)
		}
	}

	return s.repo.GetOrder(ctx, orderID)
}

// DeliverItem отмечает выдачу учётных данных позиции и возвращает их в открытом виде.
func (s *Service) DeliverItem(ctx context.Context, itemID int64) (*Delivery, error) {
	item, account, err := s.repo.DeliverItem(ctx, itemID)
	if err != nil {
		return nil, err
	}

	return &Delivery{
		Item:     item,
		Email:    credential.Decode(account.EncodedEmail),
		Password: credential.Decode(account.EncodedPassword),
		Profile:  account.Profile,
		PIN:      account.PIN,
	}, nil
}

func (s *Service) requirePlan(ctx context.Context, planID int64) error {
	if _, err := s.repo.GetPlan(ctx, planID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return invalid("plan_id: el plan %d no existe", planID)
		}
		return err
	}
	return nil
}

func trimOptional(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	if t == "" {
		return nil
	}
	return &t
}
