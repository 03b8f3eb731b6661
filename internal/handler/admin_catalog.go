package handler

import (
	"net/http"

	"github.com/mmeshcher/cuenty/internal/service"
)

// ListServices возвращает все сервисы, включая неактивные.
func (h *Handler) ListServices(w http.ResponseWriter, r *http.Request) {
	services, err := h.service.ListServices(r.Context())
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, services)
}

// CreateService создаёт сервис.
func (h *Handler) CreateService(w http.ResponseWriter, r *http.Request) {
	var req service.ServiceInput
	if !decode(w, r, &req, false) {
		return
	}

	s, err := h.service.CreateService(r.Context(), req)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, s)
}

// GetService возвращает сервис.
func (h *Handler) GetService(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	s, err := h.service.GetService(r.Context(), id)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, s)
}

// UpdateService изменяет сервис.
func (h *Handler) UpdateService(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	var req service.ServiceInput
	if !decode(w, r, &req, false) {
		return
	}

	s, err := h.service.UpdateService(r.Context(), id, req)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, s)
}

// DeleteService удаляет сервис без планов.
func (h *Handler) DeleteService(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteService(r.Context(), id); err != nil {
		h.handleError(w, r, err)
		return
	}
	writeMessage(w, "Servicio eliminado")
}

// ListPlans возвращает планы; при servicio_id только планы этого сервиса.
func (h *Handler) ListPlans(w http.ResponseWriter, r *http.Request) {
	serviceID, ok := queryID(w, r, "servicio_id")
	if !ok {
		return
	}

	plans, err := h.service.ListPlans(r.Context(), serviceID)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, plans)
}

// CreatePlan создаёт план.
func (h *Handler) CreatePlan(w http.ResponseWriter, r *http.Request) {
	var req service.PlanInput
	if !decode(w, r, &req, false) {
		return
	}

	p, err := h.service.CreatePlan(r.Context(), req)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, p)
}

// GetPlan возвращает план.
func (h *Handler) GetPlan(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	p, err := h.service.GetPlan(r.Context(), id)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, p)
}

// UpdatePlan изменяет план.
func (h *Handler) UpdatePlan(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	var req service.PlanInput
	if !decode(w, r, &req, false) {
		return
	}

	p, err := h.service.UpdatePlan(r.Context(), id, req)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, p)
}

// DeletePlan удаляет план без аккаунтов и позиций заказов.
func (h *Handler) DeletePlan(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	if err := h.service.DeletePlan(r.Context(), id); err != nil {
		h.handleError(w, r, err)
		return
	}
	writeMessage(w, "Plan eliminado")
}
