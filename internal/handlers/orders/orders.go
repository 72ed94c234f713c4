package orders

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/GlebRadaev/cryptocheckout/internal/domain"
	"github.com/GlebRadaev/cryptocheckout/internal/dto"
	"github.com/GlebRadaev/cryptocheckout/internal/handlers/httperr"
	"github.com/GlebRadaev/cryptocheckout/pkg/auth"
	"github.com/GlebRadaev/cryptocheckout/pkg/utils"
	"github.com/GlebRadaev/cryptocheckout/pkg/validate"
)

type Service interface {
	CreateOrder(ctx context.Context, quoteID string, userID int) (*domain.Order, error)
	GetOrder(ctx context.Context, orderID string, userID int) (*domain.Order, error)
	GetOrders(ctx context.Context, userID int) ([]domain.Order, error)
}

type OrderHandler struct {
	orderService Service
}

func New(orderService Service) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
	}
}

// CreateOrder godoc
//
//	@Summary		Create an order
//	@Description	Turn a confirmed quote into an order. Repeating the call for the same quote returns the existing order.
//	@Tags			Orders
//	@Accept			json
//	@Produce		json
//	@Param			request	body	dto.CreateOrderRequestDTO	true	"Order request body"
//	@Security		BearerAuth
//	@Success		201	{object}	dto.OrderResponseDTO
//	@Failure		400	{object}	utils.Response	"Invalid request body"
//	@Failure		401	{object}	utils.Response	"User not authorized"
//	@Failure		404	{object}	utils.Response	"Quote not found"
//	@Failure		409	{object}	utils.Response	"Quote is not confirmed"
//	@Failure		500	{object}	utils.Response	"Internal server error"
//	@Router			/api/orders [post]
func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		utils.RespondWithError(w, r, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req dto.CreateOrderRequestDTO
	if err := utils.DecodeJSON(r, &req); err != nil {
		httperr.BadRequest(w, r, err)
		return
	}
	if err := validate.Struct(req); err != nil {
		httperr.BadRequest(w, r, err)
		return
	}

	order, err := h.orderService.CreateOrder(r.Context(), req.QuoteID, userID)
	if err != nil {
		httperr.Respond(w, r, err)
		return
	}
	utils.RespondWithJSON(w, r, http.StatusCreated, toDTO(order))
}

// GetOrders godoc
//
//	@Summary		Get orders list for user
//	@Description	Retrieve the orders of the authorized user, newest first
//	@Tags			Orders
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{array}		dto.OrderResponseDTO
//	@Failure		401	{object}	utils.Response	"User not authorized"
//	@Failure		500	{object}	utils.Response	"Internal server error"
//	@Router			/api/orders [get]
func (h *OrderHandler) GetOrders(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		utils.RespondWithError(w, r, http.StatusUnauthorized, "unauthorized")
		return
	}

	orders, err := h.orderService.GetOrders(r.Context(), userID)
	if err != nil {
		httperr.Respond(w, r, err)
		return
	}

	response := make([]dto.OrderResponseDTO, 0, len(orders))
	for i := range orders {
		response = append(response, toDTO(&orders[i]))
	}
	utils.RespondWithJSON(w, r, http.StatusOK, response)
}

// GetOrder godoc
//
//	@Summary		Get an order
//	@Tags			Orders
//	@Produce		json
//	@Param			orderId	path	string	true	"Order number"
//	@Security		BearerAuth
//	@Success		200	{object}	dto.OrderResponseDTO
//	@Failure		401	{object}	utils.Response	"User not authorized"
//	@Failure		404	{object}	utils.Response	"Order not found"
//	@Failure		422	{object}	utils.Response	"Invalid order number format"
//	@Failure		500	{object}	utils.Response	"Internal server error"
//	@Router			/api/orders/{orderId} [get]
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		utils.RespondWithError(w, r, http.StatusUnauthorized, "unauthorized")
		return
	}

	orderID := chi.URLParam(r, "orderId")
	if !validate.IsLuna(orderID) {
		utils.RespondWithError(w, r, http.StatusUnprocessableEntity, "invalid order number")
		return
	}

	order, err := h.orderService.GetOrder(r.Context(), orderID, userID)
	if err != nil {
		httperr.Respond(w, r, err)
		return
	}
	utils.RespondWithJSON(w, r, http.StatusOK, toDTO(order))
}

func toDTO(o *domain.Order) dto.OrderResponseDTO {
	return dto.OrderResponseDTO{
		OrderID:   o.ID,
		QuoteID:   o.QuoteID,
		TotalUSDT: o.TotalUSDT,
		Status:    o.Status,
		CreatedAt: o.CreatedAt.UTC().Format(time.RFC3339),
	}
}
