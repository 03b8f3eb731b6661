package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	custommiddleware "github.com/mmeshcher/cuenty/internal/middleware"
)

// SetupRouter настраивает HTTP-маршруты и middleware магазина.
func (h *Handler) SetupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(custommiddleware.GzipMiddleware)
	r.Use(custommiddleware.Logger(h.logger))
	r.Use(chimiddleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.Health)
		r.Get("/services", h.Catalog)
		r.Get("/site-config", h.SiteConfig)
		r.Post("/contact", h.Contact)
		r.Post("/signup", h.Signup)
		r.Post("/orders", h.CreateOrder)

		r.Route("/admin", func(r chi.Router) {
			r.Post("/login", h.Login)

			r.Group(func(r chi.Router) {
				r.Use(h.auth.Middleware)

				r.Get("/me", h.Me)

				r.Route("/services", func(r chi.Router) {
					r.Get("/", h.ListServices)
					r.Post("/", h.CreateService)
					r.Get("/{id}", h.GetService)
					r.Put("/{id}", h.UpdateService)
					r.Delete("/{id}", h.DeleteService)
				})

				r.Route("/plans", func(r chi.Router) {
					r.Get("/", h.ListPlans)
					r.Post("/", h.CreatePlan)
					r.Get("/{id}", h.GetPlan)
					r.Put("/{id}", h.UpdatePlan)
					r.Delete("/{id}", h.DeletePlan)
				})

				r.Route("/accounts", func(r chi.Router) {
					r.Get("/", h.ListAccounts)
					r.Post("/", h.CreateAccount)
					r.Get("/{id}", h.GetAccount)
					r.Put("/{id}", h.UpdateAccount)
					r.Delete("/{id}", h.DeleteAccount)
				})

				r.Route("/orders", func(r chi.Router) {
					r.Get("/", h.ListOrders)
					r.Get("/{id}", h.GetOrder)
					r.Delete("/{id}", h.DeleteOrder)
					r.Put("/{id}/status", h.SetOrderStatus)
					r.Post("/{id}/confirm-payment", h.ConfirmPayment)
					r.Put("/{id}/notes", h.UpdateOrderNotes)
					r.Post("/{id}/assign", h.AssignOrder)
				})

				r.Post("/order-items/{id}/assign", h.AssignItem)
				r.Post("/order-items/{id}/deliver", h.DeliverItem)

				r.Route("/users", func(r chi.Router) {
					r.Get("/", h.ListCustomers)
					r.Post("/", h.CreateCustomer)
					r.Get("/{id}", h.GetCustomer)
					r.Put("/{id}", h.UpdateCustomer)
					r.Delete("/{id}", h.DeleteCustomer)
				})

				r.Get("/admins", h.ListAdmins)
				r.Post("/admins", h.CreateAdmin)

				r.Get("/contacts", h.ListContacts)
				r.Put("/contacts/{id}/status", h.UpdateContactStatus)

				r.Put("/site-config", h.UpdateSiteConfig)

				r.HandleFunc("/combos", h.Proxy)
				r.HandleFunc("/combos/*", h.Proxy)
				r.HandleFunc("/payment-config", h.Proxy)
				r.HandleFunc("/payment-config/*", h.Proxy)
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "No encontrado", "Ruta no encontrada")
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Método no permitido", "Método no permitido para esta ruta")
	})

	return r
}
