package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mmeshcher/cuenty/internal/middleware"
	"github.com/mmeshcher/cuenty/internal/service"
)

// Health сообщает о доступности сервиса и базы данных.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.service.Ping(ctx); err != nil {
		h.logger.Warn("health check failed", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, envelope{
			Success: false,
			Error:   "Servicio no disponible",
			Message: "La base de datos no responde",
		})
		return
	}

	writeData(w, http.StatusOK, map[string]string{"status": "ok", "database": "ok"})
}

type publicPlan struct {
	ID             int64           `json:"id"`
	Name           string          `json:"nombre"`
	DurationMonths int             `json:"duracion_meses"`
	DurationDays   int             `json:"duracion_dias"`
	SalePrice      decimal.Decimal `json:"precio_venta"`
	Available      int             `json:"disponibles"`
}

type publicService struct {
	ID          int64        `json:"id"`
	Name        string       `json:"nombre"`
	Description string       `json:"descripcion"`
	LogoURL     string       `json:"logo_url"`
	Plans       []publicPlan `json:"planes"`
}

// Catalog возвращает публичный каталог без себестоимости и наценки.
func (h *Handler) Catalog(w http.ResponseWriter, r *http.Request) {
	catalog, err := h.service.Catalog(r.Context())
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	resp := make([]publicService, 0, len(catalog))
	for _, s := range catalog {
		ps := publicService{
			ID:          s.ID,
			Name:        s.Name,
			Description: s.Description,
			LogoURL:     s.LogoURL,
			Plans:       make([]publicPlan, 0, len(s.Plans)),
		}
		for _, p := range s.Plans {
			ps.Plans = append(ps.Plans, publicPlan{
				ID:             p.ID,
				Name:           p.Name,
				DurationMonths: p.DurationMonths,
				DurationDays:   p.DurationDays,
				SalePrice:      p.SalePrice,
				Available:      p.Available,
			})
		}
		resp = append(resp, ps)
	}

	writeData(w, http.StatusOK, resp)
}

// SiteConfig возвращает конфигурацию витрины.
func (h *Handler) SiteConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.service.SiteConfig(r.Context())
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, cfg)
}

// Contact принимает сообщение из формы обратной связи.
func (h *Handler) Contact(w http.ResponseWriter, r *http.Request) {
	var req service.ContactInput
	if !decode(w, r, &req, false) {
		return
	}

	m, err := h.service.SubmitContact(r.Context(), req)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, envelope{
		Success: true,
		Data:    m,
		Message: "Mensaje enviado correctamente",
	})
}

// Signup регистрирует покупателя.
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req service.SignupInput
	if !decode(w, r, &req, false) {
		return
	}

	c, err := h.service.Signup(r.Context(), req)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, envelope{
		Success: true,
		Data:    c,
		Message: "Usuario registrado correctamente",
	})
}

// CreateOrder оформляет заказ с витрины.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req service.CreateOrderInput
	if !decode(w, r, &req, false) {
		return
	}

	o, err := h.service.CreateOrder(r.Context(), req)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, envelope{
		Success: true,
		Data:    o,
		Message: "Orden creada correctamente",
	})
}

// Login выполняет вход администратора и возвращает токен доступа.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req service.LoginInput
	if !decode(w, r, &req, false) {
		return
	}

	res, err := h.service.Login(r.Context(), req)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, envelope{Success: true, Token: res.Token, Data: res})
}

type meResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"usuario"`
	Email    string `json:"correo"`
	Role     string `json:"role"`
}

// Me возвращает администратора, которому принадлежит токен.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "No autorizado", "Token no proporcionado")
		return
	}

	writeData(w, http.StatusOK, meResponse{
		ID:       claims.AdminID,
		Username: claims.Username,
		Email:    claims.Email,
		Role:     claims.Role,
	})
}
