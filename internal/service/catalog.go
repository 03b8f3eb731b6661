package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mmeshcher/cuenty/internal/model"
)

const (
	catalogCacheKey    = "catalog"
	siteConfigCacheKey = "site-config"
)

// ServiceInput содержит данные для создания и изменения стримингового сервиса.
type ServiceInput struct {
	Name        string `json:"nombre" validate:"notblank,max=100"`
	Description string `json:"descripcion" validate:"max=2000"`
	LogoURL     string `json:"logo_url" validate:"omitempty,url"`
	Active      *bool  `json:"activo"`
}

// PlanInput содержит данные для создания и изменения плана.
// Если precio_venta не указана, она равна costo + margen.
type PlanInput struct {
	ServiceID      int64            `json:"servicio_id" validate:"gt=0"`
	Name           string           `json:"nombre" validate:"max=100"`
	DurationMonths int              `json:"duracion_meses" validate:"gte=1,lte=36"`
	Cost           decimal.Decimal  `json:"costo"`
	Margin         decimal.Decimal  `json:"margen"`
	SalePrice      *decimal.Decimal `json:"precio_venta"`
	Active         *bool            `json:"activo"`
}

// CreateService создаёт стриминговый сервис.
func (s *Service) CreateService(ctx context.Context, in ServiceInput) (*model.Service, error) {
	if err := validate(in); err != nil {
		return nil, err
	}

	created, err := s.repo.CreateService(ctx, &model.Service{
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		LogoURL:     strings.TrimSpace(in.LogoURL),
		Active:      boolOr(in.Active, true),
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, catalogCacheKey)
	return created, nil
}

// UpdateService изменяет стриминговый сервис. Не указанный activo сохраняет текущее значение.
func (s *Service) UpdateService(ctx context.Context, id int64, in ServiceInput) (*model.Service, error) {
	if err := validate(in); err != nil {
		return nil, err
	}

	current, err := s.repo.GetService(ctx, id)
	if err != nil {
		return nil, err
	}

	updated, err := s.repo.UpdateService(ctx, &model.Service{
		ID:          id,
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		LogoURL:     strings.TrimSpace(in.LogoURL),
		Active:      boolOr(in.Active, current.Active),
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, catalogCacheKey)
	return updated, nil
}

// GetService возвращает сервис по идентификатору.
func (s *Service) GetService(ctx context.Context, id int64) (*model.Service, error) {
	return s.repo.GetService(ctx, id)
}

// ListServices возвращает все сервисы, включая неактивные.
func (s *Service) ListServices(ctx context.Context) ([]model.Service, error) {
	return s.repo.ListServices(ctx)
}

// DeleteService удаляет сервис, у которого нет планов.
func (s *Service) DeleteService(ctx context.Context, id int64) error {
	if err := s.repo.DeleteService(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, catalogCacheKey)
	return nil
}

// CreatePlan создаёт план сервиса.
func (s *Service) CreatePlan(ctx context.Context, in PlanInput) (*model.Plan, error) {
	p, err := s.planFromInput(ctx, in, true)
	if err != nil {
		return nil, err
	}

	created, err := s.repo.CreatePlan(ctx, p)
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, catalogCacheKey)
	return created, nil
}

// UpdatePlan изменяет план. Не указанный activo сохраняет текущее значение.
func (s *Service) UpdatePlan(ctx context.Context, id int64, in PlanInput) (*model.Plan, error) {
	current, err := s.repo.GetPlan(ctx, id)
	if err != nil {
		return nil, err
	}

	p, err := s.planFromInput(ctx, in, current.Active)
	if err != nil {
		return nil, err
	}
	p.ID = id

	updated, err := s.repo.UpdatePlan(ctx, p)
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, catalogCacheKey)
	return updated, nil
}

func (s *Service) planFromInput(ctx context.Context, in PlanInput, defaultActive bool) (*model.Plan, error) {
	if err := validate(in); err != nil {
		return nil, err
	}
	if in.Cost.IsNegative() {
		return nil, invalid("costo: debe ser mayor o igual que 0")
	}
	if in.Margin.IsNegative() {
		return nil, invalid("margen: debe ser mayor o igual que 0")
	}

	salePrice := in.Cost.Add(in.Margin)
	if in.SalePrice != nil {
		if in.SalePrice.IsNegative() {
			return nil, invalid("precio_venta: debe ser mayor o igual que 0")
		}
		salePrice = *in.SalePrice
	}

	if _, err := s.repo.GetService(ctx, in.ServiceID); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = planName(in.DurationMonths)
	}

	return &model.Plan{
		ServiceID:      in.ServiceID,
		Name:           name,
		DurationMonths: in.DurationMonths,
		DurationDays:   in.DurationMonths * model.DaysPerMonth,
		Cost:           in.Cost.Round(2),
		Margin:         in.Margin.Round(2),
		SalePrice:      salePrice.Round(2),
		Active:         boolOr(in.Active, defaultActive),
	}, nil
}

func planName(months int) string {
	if months == 1 {
		return "1 mes"
	}
	return fmt.Sprintf("%d meses", months)
}

// GetPlan возвращает план по идентификатору.
func (s *Service) GetPlan(ctx context.Context, id int64) (*model.Plan, error) {
	return s.repo.GetPlan(ctx, id)
}

// ListPlans возвращает планы сервиса; serviceID = 0 означает все планы.
func (s *Service) ListPlans(ctx context.Context, serviceID int64) ([]model.Plan, error) {
	return s.repo.ListPlans(ctx, serviceID)
}

// DeletePlan удаляет план, на который не ссылаются аккаунты и позиции заказов.
func (s *Service) DeletePlan(ctx context.Context, id int64) error {
	if err := s.repo.DeletePlan(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, catalogCacheKey)
	return nil
}

// Catalog возвращает публичный каталог: активные сервисы, их активные планы
// и число свободных аккаунтов каждого плана.
func (s *Service) Catalog(ctx context.Context) ([]model.CatalogService, error) {
	var cached []model.CatalogService
	if s.cached(ctx, catalogCacheKey, &cached) {
		return cached, nil
	}

	catalog, err := s.repo.ListCatalog(ctx)
	if err != nil {
		return nil, err
	}
	if catalog == nil {
		catalog = []model.CatalogService{}
	}

	s.store(ctx, catalogCacheKey, catalog)
	return catalog, nil
}

// cached читает значение из кэша. Ошибки кэша не прерывают запрос.
func (s *Service) cached(ctx context.Context, key string, dst any) bool {
	ok, err := s.cache.GetJSON(ctx, key, dst)
	if err != nil {
		s.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
		return false
	}
	return ok
}

func (s *Service) store(ctx context.Context, key string, v any) {
	if err := s.cache.SetJSON(ctx, key, v); err != nil {
		s.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func (s *Service) invalidate(ctx context.Context, keys ...string) {
	if err := s.cache.Delete(ctx, keys...); err != nil {
		s.logger.Warn("cache invalidation failed", zap.Strings("keys", keys), zap.Error(err))
	}
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}
