package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mmeshcher/cuenty/internal/model"
	"github.com/mmeshcher/cuenty/internal/repository"
)

// OrderItemInput описывает позицию нового заказа. Количество 0 означает 1.
type OrderItemInput struct {
	PlanID   int64 `json:"plan_id" validate:"gt=0"`
	Quantity int   `json:"cantidad" validate:"gte=0,lte=100"`
}

// CreateOrderInput содержит данные нового заказа с витрины.
type CreateOrderInput struct {
	Phone      string           `json:"celular" validate:"required,phone"`
	CustomerID *int64           `json:"cliente_id" validate:"omitempty,gt=0"`
	Items      []OrderItemInput `json:"items" validate:"required,min=1,max=20,dive"`
}

// OrderListFilter задаёт фильтр и страницу списка заказов.
type OrderListFilter struct {
	Status model.OrderStatus
	Page   model.Page
}

// transitions перечисляет допустимые переходы статусов заказа в строгом режиме.
var transitions = map[model.OrderStatus][]model.OrderStatus{
	model.OrderStatusPending:        {model.OrderStatusPendingPayment, model.OrderStatusPaid, model.OrderStatusCancelled},
	model.OrderStatusPendingPayment: {model.OrderStatusPaid, model.OrderStatusCancelled},
	model.OrderStatusPaid:           {model.OrderStatusInProcess, model.OrderStatusDelivered, model.OrderStatusCancelled},
	model.OrderStatusInProcess:      {model.OrderStatusDelivered, model.OrderStatusCancelled},
}

// CanTransition сообщает, разрешён ли переход статуса заказа в строгом режиме.
// Переход в тот же статус всегда разрешён.
func CanTransition(from, to model.OrderStatus) bool {
	if from == to {
		return true
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// CreateOrder создаёт заказ в статусе pendiente. Цена каждой позиции берётся
// из текущей цены продажи плана, итог равен сумме позиций.
func (s *Service) CreateOrder(ctx context.Context, in CreateOrderInput) (*model.OrderDetail, error) {
	if err := validate(in); err != nil {
		return nil, err
	}

	if in.CustomerID != nil {
		if _, err := s.repo.GetCustomer(ctx, *in.CustomerID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, invalid("cliente_id: el cliente %d no existe", *in.CustomerID)
			}
			return nil, err
		}
	}

	total := decimal.Zero
	items := make([]model.OrderItem, 0, len(in.Items))
	for _, it := range in.Items {
		p, err := s.repo.GetPlan(ctx, it.PlanID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, invalid("plan_id: el plan %d no existe", it.PlanID)
			}
			return nil, err
		}
		if !p.Active {
			return nil, invalid("plan_id: el plan %d no está disponible", it.PlanID)
		}

		qty := it.Quantity
		if qty == 0 {
			qty = 1
		}
		subtotal := p.SalePrice.Mul(decimal.NewFromInt(int64(qty)))
		total = total.Add(subtotal)

		items = append(items, model.OrderItem{
			PlanID:    p.ID,
			Quantity:  qty,
			UnitPrice: p.SalePrice,
			Subtotal:  subtotal,
			Status:    model.ItemStatusPending,
		})
	}

	var instructions string
	cfg, err := s.SiteConfig(ctx)
	switch {
	case err == nil:
		instructions = cfg.PaymentInstructions
	case errors.Is(err, repository.ErrNotFound):
	default:
		return nil, err
	}

	detail, err := s.repo.CreateOrder(ctx, &model.Order{
		Code:                uuid.NewString(),
		Phone:               strings.TrimSpace(in.Phone),
		CustomerID:          in.CustomerID,
		Total:               total,
		Status:              model.OrderStatusPending,
		PaymentInstructions: instructions,
	}, items)
	if err != nil {
		return nil, err
	}

	s.logger.Info("order created",
		zap.Int64("orderID", detail.ID),
		zap.String("code", detail.Code),
		zap.String("total", detail.Total.StringFixed(2)),
	)
	return detail, nil
}

// ConfirmPayment переводит заказ в pagada и записывает текущее время оплаты.
// Повторное подтверждение перезаписывает время оплаты.
func (s *Service) ConfirmPayment(ctx context.Context, id int64) (*model.Order, error) {
	now := s.now()
	return s.repo.UpdateOrder(ctx, id, func(o *model.Order) error {
		if err := s.checkTransition(o.Status, model.OrderStatusPaid); err != nil {
			return err
		}
		o.Status = model.OrderStatusPaid
		o.PaidAt = &now
		return nil
	})
}

// SetStatus меняет статус заказа. fecha_pago и fecha_entrega выставляются
// только при первом переходе в pagada и entregada соответственно.
func (s *Service) SetStatus(ctx context.Context, id int64, status model.OrderStatus) (*model.Order, error) {
	if !status.Valid() {
		return nil, invalid("status: valor desconocido %q", status)
	}

	now := s.now()
	updated, err := s.repo.UpdateOrder(ctx, id, func(o *model.Order) error {
		if err := s.checkTransition(o.Status, status); err != nil {
			return err
		}
		o.Status = status
		if status == model.OrderStatusPaid && o.PaidAt == nil {
			o.PaidAt = &now
		}
		if status == model.OrderStatusDelivered && o.DeliveredAt == nil {
			o.DeliveredAt = &now
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("order status changed", zap.Int64("orderID", id), zap.String("status", string(status)))
	return updated, nil
}

func (s *Service) checkTransition(from, to model.OrderStatus) error {
	if s.strictTransitions && !CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}

// UpdateOrderNotes заменяет заметки администратора к заказу.
func (s *Service) UpdateOrderNotes(ctx context.Context, id int64, notes string) (*model.Order, error) {
	notes = strings.TrimSpace(notes)
	if len([]rune(notes)) > 5000 {
		return nil, invalid("notas: debe ser como máximo 5000")
	}
	return s.repo.UpdateOrder(ctx, id, func(o *model.Order) error {
		o.AdminNotes = notes
		return nil
	})
}

// GetOrder возвращает заказ со всеми позициями.
func (s *Service) GetOrder(ctx context.Context, id int64) (*model.OrderDetail, error) {
	return s.repo.GetOrder(ctx, id)
}

// ListOrders возвращает страницу сводок заказов и общее количество подходящих заказов.
func (s *Service) ListOrders(ctx context.Context, f OrderListFilter) ([]model.Order, int, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, 0, invalid("status: valor desconocido %q", f.Status)
	}
	return s.repo.ListOrders(ctx, repository.OrderFilter{
		Status: f.Status,
		Limit:  f.Page.Limit,
		Offset: f.Page.Offset(),
	})
}

// DeleteOrder удаляет заказ и освобождает аккаунты, на которые больше никто не ссылается.
func (s *Service) DeleteOrder(ctx context.Context, id int64) error {
	if err := s.repo.DeleteOrder(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, catalogCacheKey)
	s.logger.Info("order deleted", zap.Int64("orderID", id))
	return nil
}
