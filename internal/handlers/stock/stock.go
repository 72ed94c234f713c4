package stock

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/GlebRadaev/cryptocheckout/internal/domain"
	"github.com/GlebRadaev/cryptocheckout/internal/dto"
	"github.com/GlebRadaev/cryptocheckout/internal/handlers/httperr"
	"github.com/GlebRadaev/cryptocheckout/pkg/utils"
	"github.com/GlebRadaev/cryptocheckout/pkg/validate"
)

type Service interface {
	GetStock(ctx context.Context, productID string) (*domain.StockInfo, error)
	Reserve(ctx context.Context, productID, sessionID string, ttl time.Duration) (string, error)
	ConfirmPurchase(ctx context.Context, reservationID string) error
	CancelReservation(ctx context.Context, reservationID string) error
	ActiveReservations(ctx context.Context, sessionID string) ([]domain.Reservation, error)
}

type StockHandler struct {
	stockService Service
}

func New(stockService Service) *StockHandler {
	return &StockHandler{
		stockService: stockService,
	}
}

// GetStock godoc
//
//	@Summary		Get stock counters
//	@Tags			Stock
//	@Produce		json
//	@Param			productId	path	string	true	"Product id"
//	@Success		200	{object}	dto.StockResponseDTO
//	@Failure		404	{object}	utils.Response	"Unknown product"
//	@Failure		500	{object}	utils.Response	"Internal server error"
//	@Router			/api/stock/{productId} [get]
func (h *StockHandler) GetStock(w http.ResponseWriter, r *http.Request) {
	info, err := h.stockService.GetStock(r.Context(), chi.URLParam(r, "productId"))
	if err != nil {
		httperr.Respond(w, r, err)
		return
	}
	utils.RespondWithJSON(w, r, http.StatusOK, dto.StockResponseDTO{
		ProductID: info.ProductID,
		Available: info.Available,
		Reserved:  info.Reserved,
		Sold:      info.Sold,
	})
}

// Reserve godoc
//
//	@Summary		Reserve one unit
//	@Description	Hold one unit of the product for the session until the reservation is confirmed, cancelled or expires
//	@Tags			Stock
//	@Accept			json
//	@Produce		json
//	@Param			request	body	dto.ReserveRequestDTO	true	"Reserve request body"
//	@Success		201	{object}	dto.ReserveResponseDTO
//	@Failure		400	{object}	utils.Response	"Invalid request body"
//	@Failure		404	{object}	utils.Response	"Unknown product"
//	@Failure		409	{object}	utils.Response	"Stock exhausted"
//	@Failure		500	{object}	utils.Response	"Internal server error"
//	@Router			/api/stock/reserve [post]
func (h *StockHandler) Reserve(w http.ResponseWriter, r *http.Request) {
	var req dto.ReserveRequestDTO
	if err := utils.DecodeJSON(r, &req); err != nil {
		httperr.BadRequest(w, r, err)
		return
	}
	if err := validate.Struct(req); err != nil {
		httperr.BadRequest(w, r, err)
		return
	}

	id, err := h.stockService.Reserve(r.Context(), req.ProductID, req.SessionID, time.Duration(req.TTLSeconds)*time.Second)
	if err != nil {
		httperr.Respond(w, r, err)
		return
	}
	utils.RespondWithJSON(w, r, http.StatusCreated, dto.ReserveResponseDTO{ReservationID: id})
}

// Confirm godoc
//
//	@Summary		Convert a reservation into a sale
//	@Tags			Stock
//	@Accept			json
//	@Produce		json
//	@Param			request	body	dto.ReservationRequestDTO	true	"Reservation"
//	@Success		200	{object}	dto.OKResponseDTO
//	@Failure		400	{object}	utils.Response	"Invalid request body"
//	@Failure		404	{object}	utils.Response	"Reservation not found"
//	@Failure		500	{object}	utils.Response	"Internal server error"
//	@Router			/api/stock/confirm [post]
func (h *StockHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	h.settle(w, r, h.stockService.ConfirmPurchase)
}

// Cancel godoc
//
//	@Summary		Cancel a reservation
//	@Description	Return the reserved unit to available stock
//	@Tags			Stock
//	@Accept			json
//	@Produce		json
//	@Param			request	body	dto.ReservationRequestDTO	true	"Reservation"
//	@Success		200	{object}	dto.OKResponseDTO
//	@Failure		400	{object}	utils.Response	"Invalid request body"
//	@Failure		404	{object}	utils.Response	"Reservation not found"
//	@Failure		500	{object}	utils.Response	"Internal server error"
//	@Router			/api/stock/cancel [post]
func (h *StockHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.settle(w, r, h.stockService.CancelReservation)
}

// ListReservations godoc
//
//	@Summary		List active reservations of a session
//	@Description	Unexpired reservations held by the cart session, soonest expiry first
//	@Tags			Stock
//	@Produce		json
//	@Param			sessionId	query	string	true	"Cart session id"
//	@Success		200	{array}		dto.ReservationDTO
//	@Failure		400	{object}	utils.Response	"Missing session id"
//	@Failure		500	{object}	utils.Response	"Internal server error"
//	@Router			/api/stock/reservations [get]
func (h *StockHandler) ListReservations(w http.ResponseWriter, r *http.Request) {
	reservations, err := h.stockService.ActiveReservations(r.Context(), r.URL.Query().Get("sessionId"))
	if err != nil {
		httperr.Respond(w, r, err)
		return
	}

	resp := make([]dto.ReservationDTO, 0, len(reservations))
	for _, res := range reservations {
		resp = append(resp, dto.ReservationDTO{
			ReservationID: res.ID,
			ProductID:     res.ProductID,
			SessionID:     res.SessionID,
			ExpiresAt:     res.ExpiresAt.UTC().Format(time.RFC3339),
			CreatedAt:     res.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	utils.RespondWithJSON(w, r, http.StatusOK, resp)
}

func (h *StockHandler) settle(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, reservationID string) error) {
	var req dto.ReservationRequestDTO
	if err := utils.DecodeJSON(r, &req); err != nil {
		httperr.BadRequest(w, r, err)
		return
	}
	if err := validate.Struct(req); err != nil {
		httperr.BadRequest(w, r, err)
		return
	}

	if err := op(r.Context(), req.ReservationID); err != nil {
		httperr.Respond(w, r, err)
		return
	}
	utils.RespondWithJSON(w, r, http.StatusOK, dto.OKResponseDTO{OK: true})
}
