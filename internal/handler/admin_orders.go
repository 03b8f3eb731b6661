package handler

import (
	"net/http"

	"github.com/mmeshcher/cuenty/internal/model"
	"github.com/mmeshcher/cuenty/internal/service"
)

// ListOrders возвращает страницу сводок заказов с фильтром по статусу.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	page, ok := pageParams(w, r)
	if !ok {
		return
	}

	orders, total, err := h.service.ListOrders(r.Context(), service.OrderListFilter{
		Status: model.OrderStatus(statusQuery(r)),
		Page:   page,
	})
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writePage(w, orders, page, total)
}

// GetOrder возвращает заказ со всеми позициями.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	o, err := h.service.GetOrder(r.Context(), id)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, o)
}

// DeleteOrder удаляет заказ.
func (h *Handler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteOrder(r.Context(), id); err != nil {
		h.handleError(w, r, err)
		return
	}
	writeMessage(w, "Orden eliminada")
}

// statusRequest принимает новый статус в поле status или его синониме estado.
type statusRequest struct {
	Status string `json:"status"`
	Estado string `json:"estado"`
}

func (r statusRequest) value() string {
	if r.Status != "" {
		return r.Status
	}
	return r.Estado
}

// SetOrderStatus меняет статус заказа.
func (h *Handler) SetOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	var req statusRequest
	if !decode(w, r, &req, false) {
		return
	}

	o, err := h.service.SetStatus(r.Context(), id, model.OrderStatus(req.value()))
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, o)
}

// ConfirmPayment подтверждает оплату заказа.
func (h *Handler) ConfirmPayment(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	o, err := h.service.ConfirmPayment(r.Context(), id)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: o, Message: "Pago confirmado"})
}

type notesRequest struct {
	Notes string `json:"notas"`
}

// UpdateOrderNotes заменяет заметки администратора к заказу.
func (h *Handler) UpdateOrderNotes(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	var req notesRequest
	if !decode(w, r, &req, false) {
		return
	}

	o, err := h.service.UpdateOrderNotes(r.Context(), id, req.Notes)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, o)
}

// AssignOrder назначает аккаунты всем необслуженным позициям заказа.
func (h *Handler) AssignOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	o, err := h.service.AssignOrder(r.Context(), id)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, o)
}
