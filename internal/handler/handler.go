// Package handler содержит HTTP-обработчики API магазина CUENTY.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mmeshcher/cuenty/internal/backend"
	"github.com/mmeshcher/cuenty/internal/middleware"
	"github.com/mmeshcher/cuenty/internal/model"
	"github.com/mmeshcher/cuenty/internal/repository"
	"github.com/mmeshcher/cuenty/internal/service"
)

const (
	maxBodySize  = 1 << 20
	defaultLimit = 50
	maxLimit     = 200
)

// Service определяет контракт бизнес-логики, используемой HTTP-обработчиками.
type Service interface {
	Ping(ctx context.Context) error

	Login(ctx context.Context, in service.LoginInput) (*service.LoginResult, error)
	CreateAdmin(ctx context.Context, in service.AdminInput) (*model.Admin, error)
	ListAdmins(ctx context.Context) ([]model.Admin, error)

	CreateService(ctx context.Context, in service.ServiceInput) (*model.Service, error)
	UpdateService(ctx context.Context, id int64, in service.ServiceInput) (*model.Service, error)
	GetService(ctx context.Context, id int64) (*model.Service, error)
	ListServices(ctx context.Context) ([]model.Service, error)
	DeleteService(ctx context.Context, id int64) error

	CreatePlan(ctx context.Context, in service.PlanInput) (*model.Plan, error)
	UpdatePlan(ctx context.Context, id int64, in service.PlanInput) (*model.Plan, error)
	GetPlan(ctx context.Context, id int64) (*model.Plan, error)
	ListPlans(ctx context.Context, serviceID int64) ([]model.Plan, error)
	DeletePlan(ctx context.Context, id int64) error
	Catalog(ctx context.Context) ([]model.CatalogService, error)

	CreateAccount(ctx context.Context, in service.AccountInput) (*service.AccountView, error)
	UpdateAccount(ctx context.Context, id int64, in service.AccountInput) (*service.AccountView, error)
	GetAccount(ctx context.Context, id int64) (*service.AccountView, error)
	ListAccounts(ctx context.Context, f service.AccountFilter) ([]service.AccountView, error)
	DeleteAccount(ctx context.Context, id int64) error
	AssignAccount(ctx context.Context, itemID int64, accountID *int64) (*model.OrderItem, error)
	AssignOrder(ctx context.Context, orderID int64) (*model.OrderDetail, error)
	DeliverItem(ctx context.Context, itemID int64) (*service.Delivery, error)

	CreateOrder(ctx context.Context, in service.CreateOrderInput) (*model.OrderDetail, error)
	ConfirmPayment(ctx context.Context, id int64) (*model.Order, error)
	SetStatus(ctx context.Context, id int64, status model.OrderStatus) (*model.Order, error)
	UpdateOrderNotes(ctx context.Context, id int64, notes string) (*model.Order, error)
	GetOrder(ctx context.Context, id int64) (*model.OrderDetail, error)
	ListOrders(ctx context.Context, f service.OrderListFilter) ([]model.Order, int, error)
	DeleteOrder(ctx context.Context, id int64) error

	SubmitContact(ctx context.Context, in service.ContactInput) (*model.ContactMessage, error)
	ListContacts(ctx context.Context, status model.ContactStatus, page model.Page) ([]model.ContactMessage, int, error)
	UpdateContactStatus(ctx context.Context, id int64, status model.ContactStatus) (*model.ContactMessage, error)

	Signup(ctx context.Context, in service.SignupInput) (*model.Customer, error)
	CreateCustomer(ctx context.Context, in service.CustomerInput) (*model.Customer, error)
	GetCustomer(ctx context.Context, id int64) (*model.Customer, error)
	ListCustomers(ctx context.Context, page model.Page) ([]model.Customer, int, error)
	UpdateCustomer(ctx context.Context, id int64, in service.CustomerUpdateInput) (*model.Customer, error)
	DeleteCustomer(ctx context.Context, id int64) error

	SiteConfig(ctx context.Context) (*model.SiteConfig, error)
	UpdateSiteConfig(ctx context.Context, in service.SiteConfigInput) (*model.SiteConfig, error)
}

// Proxy пересылает запросы вторичному бэкенду.
type Proxy interface {
	Forward(ctx context.Context, method, path, rawQuery string, header http.Header, body io.Reader) (*backend.Response, error)
}

// Handler реализует HTTP-обработчики API магазина CUENTY.
type Handler struct {
	service Service
	proxy   Proxy
	logger  *zap.Logger
	auth    *middleware.AdminAuth
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов.
func NewHandler(s Service, proxy Proxy, logger *zap.Logger, auth *middleware.AdminAuth) *Handler {
	return &Handler{
		service: s,
		proxy:   proxy,
		logger:  logger,
		auth:    auth,
	}
}

type envelope struct {
	Success    bool        `json:"success"`
	Token      string      `json:"token,omitempty"`
	Data       any         `json:"data,omitempty"`
	Message    string      `json:"message,omitempty"`
	Error      string      `json:"error,omitempty"`
	Pagination *pagination `json:"pagination,omitempty"`
}

type pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
}

func writeJSON(w http.ResponseWriter, status int, v envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, envelope{Success: true, Data: data})
}

func writeMessage(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusOK, envelope{Success: true, Message: message})
}

func writeError(w http.ResponseWriter, status int, title, message string) {
	writeJSON(w, status, envelope{Success: false, Error: title, Message: message})
}

func badRequest(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, "Datos inválidos", message)
}

// errorMapping задаёт HTTP-ответ для ошибок бизнес-логики.
var errorMapping = []struct {
	err     error
	status  int
	title   string
	message string
}{
	{service.ErrInvalidCredentials, http.StatusUnauthorized, "Credenciales inválidas", "Correo o contraseña incorrectos"},
	{repository.ErrNotFound, http.StatusNotFound, "No encontrado", "El recurso solicitado no existe"},
	{repository.ErrConflict, http.StatusConflict, "Conflicto", "El registro ya existe"},
	{repository.ErrHasDependencies, http.StatusBadRequest, "Tiene dependencias", "El registro está en uso y no puede eliminarse"},
	{service.ErrInvalidTransition, http.StatusConflict, "Transición no permitida", "El cambio de estado de la orden no está permitido"},
	{repository.ErrNoAvailableAccount, http.StatusConflict, "Sin cuentas disponibles", "No hay cuentas disponibles para este plan"},
	{repository.ErrAlreadyAssigned, http.StatusConflict, "Conflicto", "El ítem ya tiene una cuenta asignada"},
	{repository.ErrAccountUnusable, http.StatusConflict, "Conflicto", "La cuenta no puede asignarse a este ítem"},
	{repository.ErrNotAssigned, http.StatusConflict, "Conflicto", "El ítem no tiene una cuenta asignada"},
	{backend.ErrUpstream, http.StatusBadGateway, "Error del servidor remoto", "El servicio remoto no está disponible"},
}

// handleError переводит ошибку бизнес-логики в HTTP-ответ.
func (h *Handler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, service.ErrValidation) {
		badRequest(w, strings.TrimPrefix(err.Error(), service.ErrValidation.Error()+": "))
		return
	}

	for _, m := range errorMapping {
		if errors.Is(err, m.err) {
			if m.status >= http.StatusInternalServerError {
				h.logger.Warn("upstream error", zap.String("path", r.URL.Path), zap.Error(err))
			}
			writeError(w, m.status, m.title, m.message)
			return
		}
	}

	h.logger.Error("request failed",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)
	writeError(w, http.StatusInternalServerError, "Error interno", "Ocurrió un error inesperado")
}

// decode читает JSON-тело запроса в dst. Пустое тело допускается, если allowEmpty.
func decode(w http.ResponseWriter, r *http.Request, dst any, allowEmpty bool) bool {
	defer r.Body.Close()

	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(dst)
	if err == nil || (allowEmpty && errors.Is(err, io.EOF)) {
		return true
	}

	badRequest(w, "JSON inválido")
	return false
}

func idParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		badRequest(w, "id: identificador inválido")
		return 0, false
	}
	return id, true
}

// queryID читает необязательный числовой параметр запроса; отсутствие означает 0.
func queryID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, true
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		badRequest(w, name+": identificador inválido")
		return 0, false
	}
	return id, true
}

// statusQuery читает фильтр статуса из параметра status или его синонима estado.
func statusQuery(r *http.Request) string {
	q := r.URL.Query()
	if v := q.Get("status"); v != "" {
		return v
	}
	return q.Get("estado")
}

func pageParams(w http.ResponseWriter, r *http.Request) (model.Page, bool) {
	p := model.Page{Page: 1, Limit: defaultLimit}
	q := r.URL.Query()

	if raw := q.Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			badRequest(w, "page: debe ser un entero positivo")
			return p, false
		}
		p.Page = n
	}

	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			badRequest(w, "limit: debe ser un entero positivo")
			return p, false
		}
		p.Limit = min(n, maxLimit)
	}

	return p, true
}

func writePage(w http.ResponseWriter, data any, p model.Page, total int) {
	writeJSON(w, http.StatusOK, envelope{
		Success:    true,
		Data:       data,
		Pagination: &pagination{Page: p.Page, Limit: p.Limit, Total: total},
	})
}
