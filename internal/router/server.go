package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/go-chi/chi/v5/middleware"

	"ordertrack/internal/config"
	"ordertrack/internal/handlers"
)

const (
	compressLevel = 5
)

type Middleware interface {
	Handle(h http.Handler) http.Handler
}

type Router struct {
	address string
	router  *chi.Mux
}

func NewRouter(conf *config.ServerConfig, h *handlers.HandlerSet, middlewares ...Middleware) *Router {

	r := chi.NewRouter()

	for _, m := range middlewares {
		r.Use(m.Handle)
	}
	r.Use(middleware.Compress(compressLevel))

	r.Get("/api/orders", h.HandleGetActiveOrders)
	r.Post("/api/orders", h.HandleCreateOrder)
	r.Get("/api/orders/archive", h.HandleGetArchive)
	r.Get("/api/orders/archive/export", h.HandleExportArchiveCSV)
	r.Get("/api/orders/{orderNo}", h.HandleGetOrder)
	r.Put("/api/orders/{orderNo}", h.HandleUpdateOrder)
	r.Delete("/api/orders/{orderNo}", h.HandleDeleteOrder)
	r.Get("/api/orders/{orderNo}/exists", h.HandleCheckOrderNo)

	return &Router{router: r, address: conf.RunAddress}
}

func (r *Router) ListenAndServe() error {
	err := http.ListenAndServe(r.address, r.router)
	return err
}
