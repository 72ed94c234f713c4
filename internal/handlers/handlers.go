package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/GlebRadaev/cryptocheckout/docs"
	authhandlers "github.com/GlebRadaev/cryptocheckout/internal/handlers/auth"
	ordershandlers "github.com/GlebRadaev/cryptocheckout/internal/handlers/orders"
	paymentshandlers "github.com/GlebRadaev/cryptocheckout/internal/handlers/payments"
	stockhandlers "github.com/GlebRadaev/cryptocheckout/internal/handlers/stock"
	"github.com/GlebRadaev/cryptocheckout/internal/metrics"
	"github.com/GlebRadaev/cryptocheckout/internal/service"
	"github.com/GlebRadaev/cryptocheckout/pkg/auth"
	"github.com/GlebRadaev/cryptocheckout/pkg/utils"
)

type AuthHandler interface {
	Register(w http.ResponseWriter, r *http.Request)
	Login(w http.ResponseWriter, r *http.Request)
}

type PaymentHandler interface {
	CreateQuote(w http.ResponseWriter, r *http.Request)
	GetStatus(w http.ResponseWriter, r *http.Request)
	SubmitTx(w http.ResponseWriter, r *http.Request)
	AdminConfirm(w http.ResponseWriter, r *http.Request)
	AdminConfirmLink(w http.ResponseWriter, r *http.Request)
}

type OrderHandler interface {
	CreateOrder(w http.ResponseWriter, r *http.Request)
	GetOrders(w http.ResponseWriter, r *http.Request)
	GetOrder(w http.ResponseWriter, r *http.Request)
}

type StockHandler interface {
	GetStock(w http.ResponseWriter, r *http.Request)
	Reserve(w http.ResponseWriter, r *http.Request)
	Confirm(w http.ResponseWriter, r *http.Request)
	Cancel(w http.ResponseWriter, r *http.Request)
	ListReservations(w http.ResponseWriter, r *http.Request)
}

type Handlers struct {
	AuthHandler    AuthHandler
	PaymentHandler PaymentHandler
	OrderHandler   OrderHandler
	StockHandler   StockHandler
	JWTService     auth.JWTServiceInterface
}

func New(s *service.Services) *Handlers {
	return &Handlers{
		AuthHandler:    authhandlers.New(s.AuthService),
		PaymentHandler: paymentshandlers.New(s.QuoteService, s.PaymentService),
		OrderHandler:   ordershandlers.New(s.OrderService),
		StockHandler:   stockhandlers.New(s.StockService),
		JWTService:     s.JWTService,
	}
}

// Health godoc
//
//	@Summary	Liveness probe
//	@Tags		System
//	@Produce	json
//	@Success	200	{object}	dto.OKResponseDTO
//	@Router		/api/health [get]
func Health(w http.ResponseWriter, r *http.Request) {
	utils.RespondWithJSON(w, r, http.StatusOK, map[string]bool{"ok": true})
}

func (h *Handlers) InitRoutes(r chi.Router) chi.Router {
	r.Use(
		cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", paymentshandlers.AdminTokenHeader},
			ExposedHeaders: []string{"Authorization"},
			MaxAge:         300,
		}),
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
	)
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("doc.json"),
	))
	r.Method(http.MethodGet, "/metrics", metrics.Handler())
	r.Get("/api/health", Health)

	r.Route("/api/user", func(r chi.Router) {
		r.Post("/register", h.AuthHandler.Register)
		r.Post("/login", h.AuthHandler.Login)
	})

	r.Route("/api/stock", func(r chi.Router) {
		r.Post("/reserve", h.StockHandler.Reserve)
		r.Post("/confirm", h.StockHandler.Confirm)
		r.Post("/cancel", h.StockHandler.Cancel)
		r.Get("/reservations", h.StockHandler.ListReservations)
		r.Get("/{productId}", h.StockHandler.GetStock)
	})

	r.Route("/api/payment", func(r chi.Router) {
		r.Post("/admin/confirm", h.PaymentHandler.AdminConfirm)
		r.Get("/admin/confirm", h.PaymentHandler.AdminConfirmLink)

		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(h.JWTService))
			r.Post("/quote", h.PaymentHandler.CreateQuote)
			r.Get("/status/{quoteId}", h.PaymentHandler.GetStatus)
			r.Post("/submit-tx", h.PaymentHandler.SubmitTx)
		})
	})

	r.Route("/api/orders", func(r chi.Router) {
		r.Use(auth.Middleware(h.JWTService))
		r.Post("/", h.OrderHandler.CreateOrder)
		r.Get("/", h.OrderHandler.GetOrders)
		r.Get("/{orderId}", h.OrderHandler.GetOrder)
	})

	return r
}
