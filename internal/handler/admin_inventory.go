package handler

import (
	"net/http"

	"github.com/mmeshcher/cuenty/internal/model"
	"github.com/mmeshcher/cuenty/internal/service"
)

// ListAccounts возвращает аккаунты склада с фильтрами по плану, сервису и статусу.
func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	planID, ok := queryID(w, r, "plan_id")
	if !ok {
		return
	}
	serviceID, ok := queryID(w, r, "servicio_id")
	if !ok {
		return
	}

	accounts, err := h.service.ListAccounts(r.Context(), service.AccountFilter{
		PlanID:    planID,
		ServiceID: serviceID,
		Status:    model.AccountStatus(statusQuery(r)),
	})
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, accounts)
}

// CreateAccount добавляет аккаунт на склад.
func (h *Handler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req service.AccountInput
	if !decode(w, r, &req, false) {
		return
	}

	a, err := h.service.CreateAccount(r.Context(), req)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, a)
}

// GetAccount возвращает аккаунт с раскодированными учётными данными.
func (h *Handler) GetAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	a, err := h.service.GetAccount(r.Context(), id)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, a)
}

// UpdateAccount изменяет аккаунт склада.
func (h *Handler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	var req service.AccountInput
	if !decode(w, r, &req, false) {
		return
	}

	a, err := h.service.UpdateAccount(r.Context(), id, req)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, a)
}

// DeleteAccount удаляет аккаунт склада.
func (h *Handler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteAccount(r.Context(), id); err != nil {
		h.handleError(w, r, err)
		return
	}
	writeMessage(w, "Cuenta eliminada")
}

type assignRequest struct {
	AccountID *int64 `json:"cuenta_id"`
}

// AssignItem назначает аккаунт позиции заказа. Без cuenta_id берётся свободный аккаунт плана.
func (h *Handler) AssignItem(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	var req assignRequest
	if !decode(w, r, &req, true) {
		return
	}
	if req.AccountID != nil && *req.AccountID <= 0 {
		badRequest(w, "cuenta_id: identificador inválido")
		return
	}

	item, err := h.service.AssignAccount(r.Context(), id, req.AccountID)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, item)
}

// DeliverItem отмечает выдачу учётных данных позиции и возвращает их.
func (h *Handler) DeliverItem(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	d, err := h.service.DeliverItem(r.Context(), id)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, d)
}
