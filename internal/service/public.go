package service

import (
	"context"
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"github.com/mmeshcher/cuenty/internal/model"
)

// ContactInput описывает сообщение из формы обратной связи.
// Поля nombre, correo, asunto и mensaje принимаются как синонимы.
type ContactInput struct {
	Name    string `json:"name" validate:"notblank,max=100"`
	Email   string `json:"email" validate:"required,email,max=255"`
	Subject string `json:"subject" validate:"max=200"`
	Message string `json:"message" validate:"notblank,max=5000"`
}

// UnmarshalJSON читает ContactInput, дополняя пустые поля испанскими синонимами.
func (in *ContactInput) UnmarshalJSON(data []byte) error {
	type plain ContactInput
	var aux struct {
		plain
		Nombre  string `json:"nombre"`
		Correo  string `json:"correo"`
		Asunto  string `json:"asunto"`
		Mensaje string `json:"mensaje"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*in = ContactInput(aux.plain)
	in.Name = firstNonEmpty(in.Name, aux.Nombre)
	in.Email = firstNonEmpty(in.Email, aux.Correo)
	in.Subject = firstNonEmpty(in.Subject, aux.Asunto)
	in.Message = firstNonEmpty(in.Message, aux.Mensaje)
	return nil
}

// SignupInput содержит данные регистрации покупателя.
type SignupInput struct {
	FirstName string `json:"nombre" validate:"notblank,max=100"`
	LastName  string `json:"apellido" validate:"max=100"`
	Email     string `json:"correo" validate:"required,email,max=255"`
	Password  string `json:"contrasena" validate:"required,min=6,max=72"`
	Phone     string `json:"telefono" validate:"omitempty,phone"`
	WhatsApp  string `json:"whatsapp" validate:"omitempty,phone"`
}

// CustomerInput содержит данные покупателя, создаваемого администратором.
type CustomerInput struct {
	SignupInput
	Verified bool  `json:"verificado"`
	Active   *bool `json:"activo"`
}

// CustomerUpdateInput содержит изменяемые поля покупателя. Не указанные флаги сохраняют значения.
type CustomerUpdateInput struct {
	FirstName string `json:"nombre" validate:"notblank,max=100"`
	LastName  string `json:"apellido" validate:"max=100"`
	Phone     string `json:"telefono" validate:"omitempty,phone"`
	WhatsApp  string `json:"whatsapp" validate:"omitempty,phone"`
	Verified  *bool  `json:"verificado"`
	Active    *bool  `json:"activo"`
}

// SiteConfigInput содержит маркетинговые тексты витрины.
type SiteConfigInput struct {
	SiteName            string `json:"nombre_sitio" validate:"notblank,max=100"`
	HeroTitle           string `json:"hero_titulo" validate:"max=200"`
	HeroSubtitle        string `json:"hero_subtitulo" validate:"max=500"`
	StatCustomersLabel  string `json:"stat_clientes" validate:"max=50"`
	StatServicesLabel   string `json:"stat_servicios" validate:"max=50"`
	StatSupportLabel    string `json:"stat_soporte" validate:"max=50"`
	LogoURL             string `json:"logo_url" validate:"omitempty,url"`
	FooterLogoURL       string `json:"logo_footer_url" validate:"omitempty,url"`
	WhatsApp            string `json:"whatsapp" validate:"omitempty,phone"`
	PaymentInstructions string `json:"instrucciones_pago" validate:"max=5000"`
}

// SubmitContact сохраняет сообщение из формы обратной связи в статусе PENDING.
func (s *Service) SubmitContact(ctx context.Context, in ContactInput) (*model.ContactMessage, error) {
	if err := validate(in); err != nil {
		return nil, err
	}

	return s.repo.CreateContact(ctx, &model.ContactMessage{
		Name:    strings.TrimSpace(in.Name),
		Email:   normalizeEmail(in.Email),
		Subject: strings.TrimSpace(in.Subject),
		Message: strings.TrimSpace(in.Message),
		Status:  model.ContactStatusPending,
	})
}

// ListContacts возвращает страницу сообщений; пустой status означает все сообщения.
func (s *Service) ListContacts(ctx context.Context, status model.ContactStatus, page model.Page) ([]model.ContactMessage, int, error) {
	if status != "" && !validContactStatus(status) {
		return nil, 0, invalid("status: valor desconocido %q", status)
	}
	return s.repo.ListContacts(ctx, status, page.Limit, page.Offset())
}

// UpdateContactStatus меняет статус обработки сообщения.
func (s *Service) UpdateContactStatus(ctx context.Context, id int64, status model.ContactStatus) (*model.ContactMessage, error) {
	if !validContactStatus(status) {
		return nil, invalid("status: debe ser uno de [PENDING READ ANSWERED]")
	}
	return s.repo.UpdateContactStatus(ctx, id, status)
}

func validContactStatus(status model.ContactStatus) bool {
	switch status {
	case model.ContactStatusPending, model.ContactStatusRead, model.ContactStatusAnswered:
		return true
	}
	return false
}

// Signup регистрирует покупателя. Пароль всегда хранится в виде bcrypt-хеша.
func (s *Service) Signup(ctx context.Context, in SignupInput) (*model.Customer, error) {
	return s.createCustomer(ctx, CustomerInput{SignupInput: in})
}

// CreateCustomer создаёт покупателя от имени администратора.
func (s *Service) CreateCustomer(ctx context.Context, in CustomerInput) (*model.Customer, error) {
	return s.createCustomer(ctx, in)
}

func (s *Service) createCustomer(ctx context.Context, in CustomerInput) (*model.Customer, error) {
	if err := validate(in); err != nil {
		return nil, err
	}

	hash, err := s.hashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	c, err := s.repo.CreateCustomer(ctx, &model.Customer{
		Email:        normalizeEmail(in.Email),
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Phone:        strings.TrimSpace(in.Phone),
		WhatsApp:     strings.TrimSpace(in.WhatsApp),
		Verified:     in.Verified,
		Active:       boolOr(in.Active, true),
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("customer registered", zap.Int64("customerID", c.ID))
	return c, nil
}

// GetCustomer возвращает покупателя по идентификатору.
func (s *Service) GetCustomer(ctx context.Context, id int64) (*model.Customer, error) {
	return s.repo.GetCustomer(ctx, id)
}

// ListCustomers возвращает страницу покупателей и их общее количество.
func (s *Service) ListCustomers(ctx context.Context, page model.Page) ([]model.Customer, int, error) {
	return s.repo.ListCustomers(ctx, page.Limit, page.Offset())
}

// UpdateCustomer изменяет профиль покупателя. Email и пароль не меняются.
func (s *Service) UpdateCustomer(ctx context.Context, id int64, in CustomerUpdateInput) (*model.Customer, error) {
	if err := validate(in); err != nil {
		return nil, err
	}

	current, err := s.repo.GetCustomer(ctx, id)
	if err != nil {
		return nil, err
	}

	current.FirstName = strings.TrimSpace(in.FirstName)
	current.LastName = strings.TrimSpace(in.LastName)
	current.Phone = strings.TrimSpace(in.Phone)
	current.WhatsApp = strings.TrimSpace(in.WhatsApp)
	current.Verified = boolOr(in.Verified, current.Verified)
	current.Active = boolOr(in.Active, current.Active)

	return s.repo.UpdateCustomer(ctx, current)
}

// DeleteCustomer удаляет покупателя без заказов.
func (s *Service) DeleteCustomer(ctx context.Context, id int64) error {
	return s.repo.DeleteCustomer(ctx, id)
}

// SiteConfig возвращает конфигурацию витрины.
func (s *Service) SiteConfig(ctx context.Context) (*model.SiteConfig, error) {
	var cached model.SiteConfig
	if s.cached(ctx, siteConfigCacheKey, &cached) {
		return &cached, nil
	}

	cfg, err := s.repo.GetSiteConfig(ctx)
	if err != nil {
		return nil, err
	}

	s.store(ctx, siteConfigCacheKey, cfg)
	return cfg, nil
}

// UpdateSiteConfig перезаписывает конфигурацию витрины.
func (s *Service) UpdateSiteConfig(ctx context.Context, in SiteConfigInput) (*model.SiteConfig, error) {
	if err := validate(in); err != nil {
		return nil, err
	}

	cfg, err := s.repo.UpdateSiteConfig(ctx, &model.SiteConfig{
		SiteName:            strings.TrimSpace(in.SiteName),
		HeroTitle:           strings.TrimSpace(in.HeroTitle),
		HeroSubtitle:        strings.TrimSpace(in.HeroSubtitle),
		StatCustomersLabel:  strings.TrimSpace(in.StatCustomersLabel),
		StatServicesLabel:   strings.TrimSpace(in.StatServicesLabel),
		StatSupportLabel:    strings.TrimSpace(in.StatSupportLabel),
		LogoURL:             strings.TrimSpace(in.LogoURL),
		FooterLogoURL:       strings.TrimSpace(in.FooterLogoURL),
		WhatsApp:            strings.TrimSpace(in.WhatsApp),
		PaymentInstructions: strings.TrimSpace(in.PaymentInstructions),
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, siteConfigCacheKey)
	return cfg, nil
}
