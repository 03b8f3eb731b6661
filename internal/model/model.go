// Package model содержит доменные сущности магазина CUENTY.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Service описывает стриминговый сервис, аккаунты которого продаются в магазине.
type Service struct {
	ID          int64     `json:"id"`
	Name        string    `json:"nombre"`
	Description string    `json:"descripcion"`
	LogoURL     string    `json:"logo_url"`
	Active      bool      `json:"activo"`
	CreatedAt   time.Time `json:"fecha_creacion"`
}

// DaysPerMonth задаёт количество дней, которым эквивалентен один месяц подписки.
const DaysPerMonth = 30

// Plan описывает вариант покупки сервиса с определённой длительностью и ценой.
type Plan struct {
	ID             int64           `json:"id"`
	ServiceID      int64           `json:"servicio_id"`
	ServiceName    string          `json:"servicio_nombre,omitempty"`
	Name           string          `json:"nombre"`
	DurationMonths int             `json:"duracion_meses"`
	DurationDays   int             `json:"duracion_dias"`
	Cost           decimal.Decimal `json:"costo"`
	Margin         decimal.Decimal `json:"margen"`
	SalePrice      decimal.Decimal `json:"precio_venta"`
	Active         bool            `json:"activo"`
	CreatedAt      time.Time       `json:"fecha_creacion"`
}

// AccountStatus описывает состояние аккаунта на складе.
type AccountStatus string

const (
	AccountStatusAvailable AccountStatus = "disponible"
	AccountStatusAssigned  AccountStatus = "asignada"
	AccountStatusBlocked   AccountStatus = "bloqueada"
)

// Account описывает учётные данные стримингового сервиса, хранящиеся на складе.
// Email и Password хранятся в закодированном виде (см. пакет credential).
type Account struct {
	ID              int64         `json:"id"`
	PlanID          int64         `json:"plan_id"`
	EncodedEmail    string        `json:"-"`
	EncodedPassword string        `json:"-"`
	Profile         string        `json:"perfil"`
	PIN             *string       `json:"pin,omitempty"`
	Notes           *string       `json:"notas,omitempty"`
	Status          AccountStatus `json:"estado"`
	AddedAt         time.Time     `json:"fecha_agregada"`

	ServiceID   int64  `json:"servicio_id"`
	ServiceName string `json:"servicio_nombre"`
	PlanName    string `json:"plan_nombre"`
}

// OrderStatus описывает статус заказа.
type OrderStatus string

const (
	OrderStatusPending        OrderStatus = "pendiente"
	OrderStatusPendingPayment OrderStatus = "pendiente_pago"
	OrderStatusPaid           OrderStatus = "pagada"
	OrderStatusInProcess      OrderStatus = "en_proceso"
	OrderStatusDelivered      OrderStatus = "entregada"
	OrderStatusCancelled      OrderStatus = "cancelada"
)

// OrderStatuses перечисляет все допустимые статусы заказа.
var OrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusPendingPayment,
	OrderStatusPaid,
	OrderStatusInProcess,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

// Valid сообщает, является ли статус одним из допустимых.
func (s OrderStatus) Valid() bool {
	for _, v := range OrderStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// ItemStatus описывает статус позиции заказа.
type ItemStatus string

const (
	ItemStatusPending   ItemStatus = "pendiente"
	ItemStatusAssigned  ItemStatus = "asignado"
	ItemStatusDelivered ItemStatus = "entregado"
	ItemStatusExpired   ItemStatus = "vencido"
	ItemStatusCancelled ItemStatus = "cancelado"
)

// Order описывает заказ покупателя.
type Order struct {
	ID                  int64           `json:"id"`
	Code                string          `json:"codigo"`
	Phone               string          `json:"celular"`
	CustomerID          *int64          `json:"cliente_id,omitempty"`
	Total               decimal.Decimal `json:"total"`
	Status              OrderStatus     `json:"estado"`
	CreatedAt           time.Time       `json:"fecha_creacion"`
	PaidAt              *time.Time      `json:"fecha_pago"`
	DeliveredAt         *time.Time      `json:"fecha_entrega"`
	PaymentInstructions string          `json:"instrucciones_pago"`
	AdminNotes          string          `json:"notas_admin"`

	// Поля сводки вычисляются по первой позиции заказа.
	ServiceName string `json:"servicio_nombre"`
	PlanName    string `json:"plan_nombre"`
}

// OrderItem описывает одну позицию заказа.
type OrderItem struct {
	ID                   int64           `json:"id"`
	OrderID              int64           `json:"orden_id"`
	PlanID               int64           `json:"plan_id"`
	AccountID            *int64          `json:"cuenta_id"`
	Quantity             int             `json:"cantidad"`
	UnitPrice            decimal.Decimal `json:"precio_unitario"`
	Subtotal             decimal.Decimal `json:"subtotal"`
	Status               ItemStatus      `json:"estado"`
	ExpiresAt            *time.Time      `json:"fecha_vencimiento"`
	CredentialsDelivered bool            `json:"credenciales_entregadas"`

	ServiceName string `json:"servicio_nombre"`
	PlanName    string `json:"plan_nombre"`
}

// OrderDetail объединяет сводку заказа и полный список его позиций.
type OrderDetail struct {
	Order
	Items []OrderItem `json:"items"`
}

// Customer описывает зарегистрированного покупателя.
type Customer struct {
	ID           int64     `json:"id"`
	Email        string    `json:"correo"`
	PasswordHash []byte    `json:"-"`
	FirstName    string    `json:"nombre"`
	LastName     string    `json:"apellido"`
	Phone        string    `json:"telefono"`
	WhatsApp     string    `json:"whatsapp"`
	Verified     bool      `json:"verificado"`
	Active       bool      `json:"activo"`
	CreatedAt    time.Time `json:"fecha_creacion"`
	UpdatedAt    time.Time `json:"fecha_actualizacion"`
}

// Admin описывает администратора магазина. Все администраторы имеют полный доступ.
type Admin struct {
	ID           int64     `json:"id"`
	Username     string    `json:"usuario"`
	PasswordHash []byte    `json:"-"`
	Email        string    `json:"correo"`
	CreatedAt    time.Time `json:"fecha_creacion"`
}

// ContactStatus описывает статус обработки сообщения из формы обратной связи.
type ContactStatus string

const (
	ContactStatusPending  ContactStatus = "PENDING"
	ContactStatusRead     ContactStatus = "READ"
	ContactStatusAnswered ContactStatus = "ANSWERED"
)

// ContactMessage описывает сообщение из формы обратной связи.
type ContactMessage struct {
	ID        int64         `json:"id"`
	Name      string        `json:"nombre"`
	Email     string        `json:"correo"`
	Subject   string        `json:"asunto"`
	Message   string        `json:"mensaje"`
	Status    ContactStatus `json:"estado"`
	CreatedAt time.Time     `json:"fecha_creacion"`
}

// SiteConfig содержит маркетинговые тексты витрины. Запись единственная.
type SiteConfig struct {
	SiteName            string    `json:"nombre_sitio"`
	HeroTitle           string    `json:"hero_titulo"`
	HeroSubtitle        string    `json:"hero_subtitulo"`
	StatCustomersLabel  string    `json:"stat_clientes"`
	StatServicesLabel   string    `json:"stat_servicios"`
	StatSupportLabel    string    `json:"stat_soporte"`
	LogoURL             string    `json:"logo_url"`
	FooterLogoURL       string    `json:"logo_footer_url"`
	WhatsApp            string    `json:"whatsapp"`
	PaymentInstructions string    `json:"instrucciones_pago"`
	UpdatedAt           time.Time `json:"fecha_actualizacion"`
}

// CatalogPlan описывает план в публичном каталоге с количеством свободных аккаунтов.
type CatalogPlan struct {
	Plan
	Available int `json:"disponibles"`
}

// CatalogService описывает сервис в публичном каталоге вместе с активными планами.
type CatalogService struct {
	Service
	Plans []CatalogPlan `json:"planes"`
}

// Page задаёт параметры постраничной выборки.
type Page struct {
	Page  int
	Limit int
}

// Offset возвращает смещение первой записи страницы.
func (p Page) Offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.Limit
}
