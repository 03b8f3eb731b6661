package handler

import (
	"net/http"

	"github.com/mmeshcher/cuenty/internal/model"
	"github.com/mmeshcher/cuenty/internal/service"
)

// ListCustomers возвращает страницу покупателей.
func (h *Handler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	page, ok := pageParams(w, r)
	if !ok {
		return
	}

	customers, total, err := h.service.ListCustomers(r.Context(), page)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writePage(w, customers, page, total)
}

// CreateCustomer создаёт покупателя.
func (h *Handler) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	var req service.CustomerInput
	if !decode(w, r, &req, false) {
		return
	}

	c, err := h.service.CreateCustomer(r.Context(), req)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, c)
}

// GetCustomer возвращает покупателя.
func (h *Handler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	c, err := h.service.GetCustomer(r.Context(), id)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, c)
}

// UpdateCustomer изменяет профиль покупателя.
func (h *Handler) UpdateCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	var req service.CustomerUpdateInput
	if !decode(w, r, &req, false) {
		return
	}

	c, err := h.service.UpdateCustomer(r.Context(), id, req)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, c)
}

// DeleteCustomer удаляет покупателя без заказов.
func (h *Handler) DeleteCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteCustomer(r.Context(), id); err != nil {
		h.handleError(w, r, err)
		return
	}
	writeMessage(w, "Usuario eliminado")
}

// ListAdmins возвращает администраторов.
func (h *Handler) ListAdmins(w http.ResponseWriter, r *http.Request) {
	admins, err := h.service.ListAdmins(r.Context())
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, admins)
}

// CreateAdmin создаёт администратора.
func (h *Handler) CreateAdmin(w http.ResponseWriter, r *http.Request) {
	var req service.AdminInput
	if !decode(w, r, &req, false) {
		return
	}

	a, err := h.service.CreateAdmin(r.Context(), req)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, a)
}

// ListContacts возвращает страницу сообщений обратной связи с фильтром по статусу.
func (h *Handler) ListContacts(w http.ResponseWriter, r *http.Request) {
	page, ok := pageParams(w, r)
	if !ok {
		return
	}

	status := model.ContactStatus(statusQuery(r))
	messages, total, err := h.service.ListContacts(r.Context(), status, page)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writePage(w, messages, page, total)
}

// UpdateContactStatus меняет статус сообщения обратной связи.
func (h *Handler) UpdateContactStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	var req statusRequest
	if !decode(w, r, &req, false) {
		return
	}

	m, err := h.service.UpdateContactStatus(r.Context(), id, model.ContactStatus(req.value()))
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, m)
}

// UpdateSiteConfig перезаписывает конфигурацию витрины.
func (h *Handler) UpdateSiteConfig(w http.ResponseWriter, r *http.Request) {
	var req service.SiteConfigInput
	if !decode(w, r, &req, false) {
		return
	}

	cfg, err := h.service.UpdateSiteConfig(r.Context(), req)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, cfg)
}
