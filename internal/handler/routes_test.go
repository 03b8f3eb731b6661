package handler

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmeshcher/cuenty/internal/model"
	"github.com/mmeshcher/cuenty/internal/repository"
	"github.com/mmeshcher/cuenty/internal/service"
)

// recordingService запоминает последний вызов и возвращает err, если он задан.
type recordingService struct {
	err error

	call  string
	id    int64
	input any
	page  model.Page
}

func (s *recordingService) record(call string, id int64, input any) error {
	s.call = call
	s.id = id
	s.input = input
	return s.err
}

func (s *recordingService) Ping(ctx context.Context) error { return s.record("Ping", 0, nil) }

func (s *recordingService) Login(ctx context.Context, in service.LoginInput) (*service.LoginResult, error) {
	if err := s.record("Login", 0, in); err != nil {
		return nil, err
	}
	return &service.LoginResult{Token: "tok", Admin: &model.Admin{ID: 1}}, nil
}

func (s *recordingService) CreateAdmin(ctx context.Context, in service.AdminInput) (*model.Admin, error) {
	if err := s.record("CreateAdmin", 0, in); err != nil {
		return nil, err
	}
	return &model.Admin{ID: 2, Username: in.Username, Email: in.Email}, nil
}

func (s *recordingService) ListAdmins(ctx context.Context) ([]model.Admin, error) {
	return []model.Admin{}, s.record("ListAdmins", 0, nil)
}

func (s *recordingService) CreateService(ctx context.Context, in service.ServiceInput) (*model.Service, error) {
	if err := s.record("CreateService", 0, in); err != nil {
		return nil, err
	}
	return &model.Service{ID: 1, Name: in.Name}, nil
}

func (s *recordingService) UpdateService(ctx context.Context, id int64, in service.ServiceInput) (*model.Service, error) {
	if err := s.record("UpdateService", id, in); err != nil {
		return nil, err
	}
	return &model.Service{ID: id, Name: in.Name}, nil
}

func (s *recordingService) GetService(ctx context.Context, id int64) (*model.Service, error) {
	if err := s.record("GetService", id, nil); err != nil {
		return nil, err
	}
	return &model.Service{ID: id}, nil
}

func (s *recordingService) ListServices(ctx context.Context) ([]model.Service, error) {
	return []model.Service{}, s.record("ListServices", 0, nil)
}

func (s *recordingService) DeleteService(ctx context.Context, id int64) error {
	return s.record("DeleteService", id, nil)
}

func (s *recordingService) CreatePlan(ctx context.Context, in service.PlanInput) (*model.Plan, error) {
	if err := s.record("CreatePlan", 0, in); err != nil {
		return nil, err
	}
	return &model.Plan{ID: 1, ServiceID: in.ServiceID}, nil
}

func (s *recordingService) UpdatePlan(ctx context.Context, id int64, in service.PlanInput) (*model.Plan, error) {
	if err := s.record("UpdatePlan", id, in); err != nil {
		return nil, err
	}
	return &model.Plan{ID: id, ServiceID: in.ServiceID}, nil
}

func (s *recordingService) GetPlan(ctx context.Context, id int64) (*model.Plan, error) {
	if err := s.record("GetPlan", id, nil); err != nil {
		return nil, err
	}
	return &model.Plan{ID: id}, nil
}

func (s *recordingService) ListPlans(ctx context.Context, serviceID int64) ([]model.Plan, error) {
	return []model.Plan{}, s.record("ListPlans", serviceID, nil)
}

func (s *recordingService) DeletePlan(ctx context.Context, id int64) error {
	return s.record("DeletePlan", id, nil)
}

func (s *recordingService) Catalog(ctx context.Context) ([]model.CatalogService, error) {
	return []model.CatalogService{}, s.record("Catalog", 0, nil)
}

func (s *recordingService) CreateAccount(ctx context.Context, in service.AccountInput) (*service.AccountView, error) {
	if err := s.record("CreateAccount", 0, in); err != nil {
		return nil, err
	}
	return &service.AccountView{Account: model.Account{ID: 1, PlanID: in.PlanID}, Email: in.Email}, nil
}

func (s *recordingService) UpdateAccount(ctx context.Context, id int64, in service.AccountInput) (*service.AccountView, error) {
	if err := s.record("UpdateAccount", id, in); err != nil {
		return nil, err
	}
	return &service.AccountView{Account: model.Account{ID: id}, Email: in.Email}, nil
}

func (s *recordingService) GetAccount(ctx context.Context, id int64) (*service.AccountView, error) {
	if err := s.record("GetAccount", id, nil); err != nil {
		return nil, err
	}
	return &service.AccountView{Account: model.Account{ID: id}}, nil
}

func (s *recordingService) ListAccounts(ctx context.Context, f service.AccountFilter) ([]service.AccountView, error) {
	return []service.AccountView{}, s.record("ListAccounts", 0, f)
}

func (s *recordingService) DeleteAccount(ctx context.Context, id int64) error {
	return s.record("DeleteAccount", id, nil)
}

func (s *recordingService) AssignAccount(ctx context.Context, itemID int64, accountID *int64) (*model.OrderItem, error) {
	if err := s.record("AssignAccount", itemID, accountID); err != nil {
		return nil, err
	}
	return &model.OrderItem{ID: itemID, AccountID: accountID, Status: model.ItemStatusAssigned}, nil
}

func (s *recordingService) AssignOrder(ctx context.Context, orderID int64) (*model.OrderDetail, error) {
	if err := s.record("AssignOrder", orderID, nil); err != nil {
		return nil, err
	}
	return &model.OrderDetail{Order: model.Order{ID: orderID}}, nil
}

func (s *recordingService) DeliverItem(ctx context.Context, itemID int64) (*service.Delivery, error) {
	if err := s.record("DeliverItem", itemID, nil); err != nil {
		return nil, err
	}
	return &service.Delivery{Item: &model.OrderItem{ID: itemID, Status: model.ItemStatusDelivered}}, nil
}

func (s *recordingService) CreateOrder(ctx context.Context, in service.CreateOrderInput) (*model.OrderDetail, error) {
	if err := s.record("CreateOrder", 0, in); err != nil {
		return nil, err
	}
	return &model.OrderDetail{Order: model.Order{ID: 1, Status: model.OrderStatusPending}}, nil
}

func (s *recordingService) ConfirmPayment(ctx context.Context, id int64) (*model.Order, error) {
	if err := s.record("ConfirmPayment", id, nil); err != nil {
		return nil, err
	}
	return &model.Order{ID: id, Status: model.OrderStatusPaid}, nil
}

func (s *recordingService) SetStatus(ctx context.Context, id int64, status model.OrderStatus) (*model.Order, error) {
	if err := s.record("SetStatus", id, status); err != nil {
		return nil, err
	}
	return &model.Order{ID: id, Status: status}, nil
}

func (s *recordingService) UpdateOrderNotes(ctx context.Context, id int64, notes string) (*model.Order, error) {
	if err := s.record("UpdateOrderNotes", id, notes); err != nil {
		return nil, err
	}
	return &model.Order{ID: id}, nil
}

func (s *recordingService) GetOrder(ctx context.Context, id int64) (*model.OrderDetail, error) {
	if err := s.record("GetOrder", id, nil); err != nil {
		return nil, err
	}
	return &model.OrderDetail{Order: model.Order{ID: id}}, nil
}

func (s *recordingService) ListOrders(ctx context.Context, f service.OrderListFilter) ([]model.Order, int, error) {
	s.page = f.Page
	return []model.Order{}, 0, s.record("ListOrders", 0, f.Status)
}

func (s *recordingService) DeleteOrder(ctx context.Context, id int64) error {
	return s.record("DeleteOrder", id, nil)
}

func (s *recordingService) SubmitContact(ctx context.Context, in service.ContactInput) (*model.ContactMessage, error) {
	if err := s.record("SubmitContact", 0, in); err != nil {
		return nil, err
	}
	return &model.ContactMessage{ID: 1, Name: in.Name, Email: in.Email}, nil
}

func (s *recordingService) ListContacts(ctx context.Context, status model.ContactStatus, page model.Page) ([]model.ContactMessage, int, error) {
	s.page = page
	return []model.ContactMessage{}, 0, s.record("ListContacts", 0, status)
}

func (s *recordingService) UpdateContactStatus(ctx context.Context, id int64, status model.ContactStatus) (*model.ContactMessage, error) {
	if err := s.record("UpdateContactStatus", id, status); err != nil {
		return nil, err
	}
	return &model.ContactMessage{ID: id, Status: status}, nil
}

func (s *recordingService) Signup(ctx context.Context, in service.SignupInput) (*model.Customer, error) {
	if err := s.record("Signup", 0, in); err != nil {
		return nil, err
	}
	return &model.Customer{ID: 1, Email: in.Email}, nil
}

func (s *recordingService) CreateCustomer(ctx context.Context, in service.CustomerInput) (*model.Customer, error) {
	if err := s.record("CreateCustomer", 0, in); err != nil {
		return nil, err
	}
	return &model.Customer{ID: 1, Email: in.Email}, nil
}

func (s *recordingService) GetCustomer(ctx context.Context, id int64) (*model.Customer, error) {
	if err := s.record("GetCustomer", id, nil); err != nil {
		return nil, err
	}
	return &model.Customer{ID: id}, nil
}

func (s *recordingService) ListCustomers(ctx context.Context, page model.Page) ([]model.Customer, int, error) {
	s.page = page
	return []model.Customer{}, 0, s.record("ListCustomers", 0, nil)
}

func (s *recordingService) UpdateCustomer(ctx context.Context, id int64, in service.CustomerUpdateInput) (*model.Customer, error) {
	if err := s.record("UpdateCustomer", id, in); err != nil {
		return nil, err
	}
	return &model.Customer{ID: id, FirstName: in.FirstName}, nil
}

func (s *recordingService) DeleteCustomer(ctx context.Context, id int64) error {
	return s.record("DeleteCustomer", id, nil)
}

func (s *recordingService) SiteConfig(ctx context.Context) (*model.SiteConfig, error) {
	if err := s.record("SiteConfig", 0, nil); err != nil {
		return nil, err
	}
	return &model.SiteConfig{SiteName: "CUENTY"}, nil
}

func (s *recordingService) UpdateSiteConfig(ctx context.Context, in service.SiteConfigInput) (*model.SiteConfig, error) {
	if err := s.record("UpdateSiteConfig", 0, in); err != nil {
		return nil, err
	}
	return &model.SiteConfig{SiteName: in.SiteName}, nil
}

func TestRoutes(t *testing.T) {
	accountID := int64(7)

	tests := []struct {
		name    string
		method  string
		target  string
		body    string
		public  bool
		status  int
		call    string
		id      int64
		input   any
		message string
	}{
		{
			name: "create order", method: http.MethodPost, target: "/api/orders", public: true,
			body:   `{"celular":"+51987654321","items":[{"plan_id":3,"cantidad":2}]}`,
			status: http.StatusCreated, call: "CreateOrder",
			input: service.CreateOrderInput{
				Phone: "+51987654321",
				Items: []service.OrderItemInput{{PlanID: 3, Quantity: 2}},
			},
			message: "Orden creada correctamente",
		},
		{
			name: "contact", method: http.MethodPost, target: "/api/contact", public: true,
			body:   `{"name":"Ana","email":"ana@x.com","subject":"hola","message":"hi"}`,
			status: http.StatusCreated, call: "SubmitContact",
			input:   service.ContactInput{Name: "Ana", Email: "ana@x.com", Subject: "hola", Message: "hi"},
			message: "Mensaje enviado correctamente",
		},
		{
			name: "signup", method: http.MethodPost, target: "/api/signup", public: true,
			body:   `{"nombre":"Ana","correo":"ana@x.com","contrasena":"secret1"}`,
			status: http.StatusCreated, call: "Signup",
			input:   service.SignupInput{FirstName: "Ana", Email: "ana@x.com", Password: "secret1"},
			message: "Usuario registrado correctamente",
		},
		{
			name: "site config", method: http.MethodGet, target: "/api/site-config", public: true,
			status: http.StatusOK, call: "SiteConfig",
		},
		{
			name: "update site config", method: http.MethodPut, target: "/api/admin/site-config",
			body:   `{"nombre_sitio":"CUENTY","whatsapp":"+51987654321"}`,
			status: http.StatusOK, call: "UpdateSiteConfig",
			input: service.SiteConfigInput{SiteName: "CUENTY", WhatsApp: "+51987654321"},
		},
		{
			name: "order status", method: http.MethodPut, target: "/api/admin/orders/4/status",
			body:   `{"status":"pagada"}`,
			status: http.StatusOK, call: "SetStatus", id: 4, input: model.OrderStatus("pagada"),
		},
		{
			name: "order status spanish field", method: http.MethodPut, target: "/api/admin/orders/4/status",
			body:   `{"estado":"cancelada"}`,
			status: http.StatusOK, call: "SetStatus", id: 4, input: model.OrderStatus("cancelada"),
		},
		{
			name: "confirm payment", method: http.MethodPost, target: "/api/admin/orders/4/confirm-payment",
			status: http.StatusOK, call: "ConfirmPayment", id: 4, message: "Pago confirmado",
		},
		{
			name: "order notes", method: http.MethodPut, target: "/api/admin/orders/4/notes",
			body:   `{"notas":"cliente frecuente"}`,
			status: http.StatusOK, call: "UpdateOrderNotes", id: 4, input: "cliente frecuente",
		},
		{
			name: "assign order", method: http.MethodPost, target: "/api/admin/orders/4/assign",
			status: http.StatusOK, call: "AssignOrder", id: 4,
		},
		{
			name: "get order", method: http.MethodGet, target: "/api/admin/orders/4",
			status: http.StatusOK, call: "GetOrder", id: 4,
		},
		{
			name: "delete order", method: http.MethodDelete, target: "/api/admin/orders/4",
			status: http.StatusOK, call: "DeleteOrder", id: 4, message: "Orden eliminada",
		},
		{
			name: "list orders by status", method: http.MethodGet, target: "/api/admin/orders?status=pagada",
			status: http.StatusOK, call: "ListOrders", input: model.OrderStatus("pagada"),
		},
		{
			name: "assign item", method: http.MethodPost, target: "/api/admin/order-items/5/assign",
			body:   `{"cuenta_id":7}`,
			status: http.StatusOK, call: "AssignAccount", id: 5, input: &accountID,
		},
		{
			name: "deliver item", method: http.MethodPost, target: "/api/admin/order-items/5/deliver",
			status: http.StatusOK, call: "DeliverItem", id: 5,
		},
		{
			name: "list accounts", method: http.MethodGet, target: "/api/admin/accounts?plan_id=2&servicio_id=1&estado=disponible",
			status: http.StatusOK, call: "ListAccounts",
			input: service.AccountFilter{PlanID: 2, ServiceID: 1, Status: model.AccountStatusAvailable},
		},
		{
			name: "create account", method: http.MethodPost, target: "/api/admin/accounts",
			body:   `{"plan_id":2,"correo":"u@netflix.com","contrasena":"x","perfil":"1"}`,
			status: http.StatusCreated, call: "CreateAccount",
			input: service.AccountInput{PlanID: 2, Email: "u@netflix.com", Password: "x", Profile: "1"},
		},
		{
			name: "get account", method: http.MethodGet, target: "/api/admin/accounts/3",
			status: http.StatusOK, call: "GetAccount", id: 3,
		},
		{
			name: "update account", method: http.MethodPut, target: "/api/admin/accounts/3",
			body:   `{"servicio_id":1,"correo":"u@netflix.com","contrasena":"y","perfil":"2"}`,
			status: http.StatusOK, call: "UpdateAccount", id: 3,
			input: service.AccountInput{ServiceID: 1, Email: "u@netflix.com", Password: "y", Profile: "2"},
		},
		{
			name: "delete account", method: http.MethodDelete, target: "/api/admin/accounts/3",
			status: http.StatusOK, call: "DeleteAccount", id: 3, message: "Cuenta eliminada",
		},
		{
			name: "list plans", method: http.MethodGet, target: "/api/admin/plans?servicio_id=6",
			status: http.StatusOK, call: "ListPlans", id: 6,
		},
		{
			name: "create plan", method: http.MethodPost, target: "/api/admin/plans",
			body:   `{"servicio_id":6,"duracion_meses":3}`,
			status: http.StatusCreated, call: "CreatePlan",
			input: service.PlanInput{ServiceID: 6, DurationMonths: 3},
		},
		{
			name: "get plan", method: http.MethodGet, target: "/api/admin/plans/2",
			status: http.StatusOK, call: "GetPlan", id: 2,
		},
		{
			name: "update plan", method: http.MethodPut, target: "/api/admin/plans/2",
			body:   `{"servicio_id":6,"duracion_meses":6}`,
			status: http.StatusOK, call: "UpdatePlan", id: 2,
			input: service.PlanInput{ServiceID: 6, DurationMonths: 6},
		},
		{
			name: "delete plan", method: http.MethodDelete, target: "/api/admin/plans/2",
			status: http.StatusOK, call: "DeletePlan", id: 2, message: "Plan eliminado",
		},
		{
			name: "update service", method: http.MethodPut, target: "/api/admin/services/1",
			body:   `{"nombre":"Disney+"}`,
			status: http.StatusOK, call: "UpdateService", id: 1, input: service.ServiceInput{Name: "Disney+"},
		},
		{
			name: "delete service", method: http.MethodDelete, target: "/api/admin/services/1",
			status: http.StatusOK, call: "DeleteService", id: 1, message: "Servicio eliminado",
		},
		{
			name: "list users", method: http.MethodGet, target: "/api/admin/users",
			status: http.StatusOK, call: "ListCustomers",
		},
		{
			name: "create user", method: http.MethodPost, target: "/api/admin/users",
			body:   `{"nombre":"Ana","correo":"ana@x.com","contrasena":"secret1","verificado":true}`,
			status: http.StatusCreated, call: "CreateCustomer",
			input: service.CustomerInput{
				SignupInput: service.SignupInput{FirstName: "Ana", Email: "ana@x.com", Password: "secret1"},
				Verified:    true,
			},
		},
		{
			name: "get user", method: http.MethodGet, target: "/api/admin/users/8",
			status: http.StatusOK, call: "GetCustomer", id: 8,
		},
		{
			name: "update user", method: http.MethodPut, target: "/api/admin/users/8",
			body:   `{"nombre":"Ana María"}`,
			status: http.StatusOK, call: "UpdateCustomer", id: 8,
			input: service.CustomerUpdateInput{FirstName: "Ana María"},
		},
		{
			name: "delete user", method: http.MethodDelete, target: "/api/admin/users/8",
			status: http.StatusOK, call: "DeleteCustomer", id: 8, message: "Usuario eliminado",
		},
		{
			name: "list admins", method: http.MethodGet, target: "/api/admin/admins",
			status: http.StatusOK, call: "ListAdmins",
		},
		{
			name: "create admin", method: http.MethodPost, target: "/api/admin/admins",
			body:   `{"usuario":"ops","correo":"ops@x.com","contrasena":"secret1"}`,
			status: http.StatusCreated, call: "CreateAdmin",
			input: service.AdminInput{Username: "ops", Email: "ops@x.com", Password: "secret1"},
		},
		{
			name: "list contacts by status", method: http.MethodGet, target: "/api/admin/contacts?estado=PENDING",
			status: http.StatusOK, call: "ListContacts", input: model.ContactStatus("PENDING"),
		},
		{
			name: "contact status", method: http.MethodPut, target: "/api/admin/contacts/9/status",
			body:   `{"status":"READ"}`,
			status: http.StatusOK, call: "UpdateContactStatus", id: 9, input: model.ContactStatus("READ"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &recordingService{}
			srv := newTestServer(t, svc, nil)

			rec, env := srv.do(t, tt.method, tt.target, tt.body, !tt.public)
			require.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.True(t, env.Success)
			assert.Equal(t, tt.call, svc.call)
			assert.Equal(t, tt.id, svc.id)
			if tt.input != nil {
				assert.Equal(t, tt.input, svc.input)
			}
			if tt.message != "" {
				assert.Equal(t, tt.message, env.Message)
			}
		})
	}
}

func TestRoutes_ListPagination(t *testing.T) {
	for _, target := range []string{"/api/admin/users", "/api/admin/contacts", "/api/admin/orders"} {
		t.Run(target, func(t *testing.T) {
			svc := &recordingService{}
			srv := newTestServer(t, svc, nil)

			rec, env := srv.do(t, http.MethodGet, target+"?page=3&limit=10", "", true)
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, model.Page{Page: 3, Limit: 10}, svc.page)
			require.NotNil(t, env.Pagination)
			assert.Equal(t, pagination{Page: 3, Limit: 10, Total: 0}, *env.Pagination)
		})
	}
}

func TestRoutes_ErrorStatus(t *testing.T) {
	dependencies := fmt.Errorf("%w: plan 2", repository.ErrHasDependencies)
	conflict := fmt.Errorf("%w: correo", repository.ErrConflict)
	unknownStatus := fmt.Errorf("%w: status: valor desconocido %q", service.ErrValidation, "perdida")
	transition := fmt.Errorf("%w: entregada -> pendiente", service.ErrInvalidTransition)
	notAssigned := fmt.Errorf("%w: item 5 is vencido", repository.ErrNotAssigned)
	unusable := fmt.Errorf("%w: account 7", repository.ErrAccountUnusable)

	tests := []struct {
		name    string
		method  string
		target  string
		body    string
		public  bool
		err     error
		status  int
		title   string
		message string
	}{
		{name: "delete plan in use", method: http.MethodDelete, target: "/api/admin/plans/2", err: dependencies, status: http.StatusBadRequest, title: "Tiene dependencias"},
		{name: "delete service in use", method: http.MethodDelete, target: "/api/admin/services/1", err: dependencies, status: http.StatusBadRequest, title: "Tiene dependencias"},
		{name: "delete account in use", method: http.MethodDelete, target: "/api/admin/accounts/3", err: dependencies, status: http.StatusBadRequest, title: "Tiene dependencias"},
		{name: "delete user with orders", method: http.MethodDelete, target: "/api/admin/users/8", err: dependencies, status: http.StatusBadRequest, title: "Tiene dependencias"},
		{name: "duplicate signup", method: http.MethodPost, target: "/api/signup", public: true, body: `{"nombre":"Ana","correo":"ana@x.com","contrasena":"secret1"}`, err: conflict, status: http.StatusConflict, title: "Conflicto"},
		{name: "duplicate admin", method: http.MethodPost, target: "/api/admin/admins", body: `{"usuario":"ops","correo":"ops@x.com","contrasena":"secret1"}`, err: conflict, status: http.StatusConflict, title: "Conflicto"},
		{name: "duplicate plan", method: http.MethodPost, target: "/api/admin/plans", body: `{"servicio_id":6,"duracion_meses":3}`, err: conflict, status: http.StatusConflict, title: "Conflicto"},
		{name: "unknown order status", method: http.MethodPut, target: "/api/admin/orders/4/status", body: `{"status":"perdida"}`, err: unknownStatus, status: http.StatusBadRequest, title: "Datos inválidos", message: `status: valor desconocido "perdida"`},
		{name: "unknown contact status", method: http.MethodPut, target: "/api/admin/contacts/9/status", body: `{"status":"perdida"}`, err: unknownStatus, status: http.StatusBadRequest, title: "Datos inválidos", message: `status: valor desconocido "perdida"`},
		{name: "forbidden transition", method: http.MethodPut, target: "/api/admin/orders/4/status", body: `{"status":"pendiente"}`, err: transition, status: http.StatusConflict, title: "Transición no permitida"},
		{name: "deliver expired item", method: http.MethodPost, target: "/api/admin/order-items/5/deliver", err: notAssigned, status: http.StatusConflict, title: "Conflicto"},
		{name: "assign taken account", method: http.MethodPost, target: "/api/admin/order-items/5/assign", body: `{"cuenta_id":7}`, err: unusable, status: http.StatusConflict, title: "Conflicto"},
		{name: "confirm missing order", method: http.MethodPost, target: "/api/admin/orders/4/confirm-payment", err: fmt.Errorf("%w: order 4", repository.ErrNotFound), status: http.StatusNotFound, title: "No encontrado"},
		{name: "order without stock", method: http.MethodPost, target: "/api/admin/orders/4/assign", err: fmt.Errorf("%w: plan 2", repository.ErrNoAvailableAccount), status: http.StatusConflict, title: "Sin cuentas disponibles"},
		{name: "invalid order", method: http.MethodPost, target: "/api/orders", public: true, body: `{"items":[]}`, err: fmt.Errorf("%w: celular: es obligatorio", service.ErrValidation), status: http.StatusBadRequest, title: "Datos inválidos", message: "celular: es obligatorio"},
		{name: "invalid contact", method: http.MethodPost, target: "/api/contact", public: true, body: `{"name":"Ana"}`, err: fmt.Errorf("%w: email: es obligatorio", service.ErrValidation), status: http.StatusBadRequest, title: "Datos inválidos", message: "email: es obligatorio"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &recordingService{err: tt.err}
			srv := newTestServer(t, svc, nil)

			rec, env := srv.do(t, tt.method, tt.target, tt.body, !tt.public)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.False(t, env.Success)
			assert.Equal(t, tt.title, env.Error)
			if tt.message != "" {
				assert.Equal(t, tt.message, env.Message)
			}
		})
	}
}

func TestRoutes_MalformedBodies(t *testing.T) {
	for _, target := range []string{
		"/api/admin/orders/4/status",
		"/api/admin/orders/4/notes",
		"/api/admin/contacts/9/status",
		"/api/admin/site-config",
	} {
		t.Run(target, func(t *testing.T) {
			svc := &recordingService{}
			srv := newTestServer(t, svc, nil)

			rec, env := srv.do(t, http.MethodPut, target, `{"status":`, true)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "JSON inválido", env.Message)
			assert.Empty(t, svc.call)
		})
	}
}
