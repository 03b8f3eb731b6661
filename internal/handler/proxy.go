package handler

import (
	"net/http"
	"strings"

	"go.uber.org/zap"
)

const adminPrefix = "/api/admin/"

// Proxy пересылает запрос администратора вторичному бэкенду по тому же подпути
// и возвращает его ответ без изменений.
func (h *Handler) Proxy(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	path := strings.TrimPrefix(r.URL.Path, adminPrefix)

	resp, err := h.proxy.Forward(r.Context(), r.Method, path, r.URL.RawQuery, r.Header,
		http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	if resp.ContentType != "" {
		w.Header().Set("Content-Type", resp.ContentType)
	}
	w.WriteHeader(resp.StatusCode)
	if _, err := w.Write(resp.Body); err != nil {
		h.logger.Debug("write proxied response", zap.Error(err))
	}
}
