package payments

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/GlebRadaev/cryptocheckout/internal/domain"
	"github.com/GlebRadaev/cryptocheckout/internal/dto"
	"github.com/GlebRadaev/cryptocheckout/internal/handlers/httperr"
	"github.com/GlebRadaev/cryptocheckout/internal/service/paymentservice"
	"github.com/GlebRadaev/cryptocheckout/internal/service/quoteservice"
	"github.com/GlebRadaev/cryptocheckout/pkg/auth"
	"github.com/GlebRadaev/cryptocheckout/pkg/utils"
	"github.com/GlebRadaev/cryptocheckout/pkg/validate"
)

const AdminTokenHeader = "X-Admin-Token"

type QuoteService interface {
	CreateQuote(ctx context.Context, in quoteservice.CreateQuoteInput) (*domain.Quote, error)
}

type Service interface {
	CheckStatus(ctx context.Context, quoteID string, userID int) (*domain.PaymentStatus, error)
	SubmitTransaction(ctx context.Context, quoteID string, userID int, txHash string) (*domain.PaymentStatus, error)
	AdminConfirm(ctx context.Context, in paymentservice.AdminConfirmInput) (*domain.PaymentStatus, error)
}

type PaymentHandler struct {
	quoteService   QuoteService
	paymentService Service
}

func New(quoteService QuoteService, paymentService Service) *PaymentHandler {
	return &PaymentHandler{
		quoteService:   quoteService,
		paymentService: paymentService,
	}
}

// CreateQuote godoc
//
//	@Summary		Create a payment quote
//	@Description	Lock a EUR→USDT price for the cart and reserve one stock unit per cart unit
//	@Tags			Payments
//	@Accept			json
//	@Produce		json
//	@Param			request	body	dto.CreateQuoteRequestDTO	true	"Quote request body"
//	@Security		BearerAuth
//	@Success		201	{object}	dto.QuoteResponseDTO
//	@Failure		400	{object}	utils.Response	"Invalid amount, currency, network or cart"
//	@Failure		401	{object}	utils.Response	"User not authorized"
//	@Failure		409	{object}	utils.Response	"Stock exhausted"
//	@Failure		503	{object}	utils.Response	"No exchange rate available"
//	@Failure		500	{object}	utils.Response	"Internal server error"
//	@Router			/api/payment/quote [post]
func (h *PaymentHandler) CreateQuote(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		utils.RespondWithError(w, r, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req dto.CreateQuoteRequestDTO
	if err := utils.DecodeJSON(r, &req); err != nil {
		httperr.BadRequest(w, r, err)
		return
	}
	if err := validate.Struct(req); err != nil {
		httperr.BadRequest(w, r, err)
		return
	}

	cart := make([]domain.CartItem, 0, len(req.Cart))
	for _, item := range req.Cart {
		cart = append(cart, domain.CartItem{ProductID: item.ProductID, Qty: item.Qty})
	}
	quote, err := h.quoteService.CreateQuote(r.Context(), quoteservice.CreateQuoteInput{
		UserID:       userID,
		FiatAmount:   req.FiatAmount,
		FiatCurrency: strings.ToUpper(strings.TrimSpace(req.FiatCurrency)),
		Network:      strings.TrimSpace(req.Network),
		Cart:         cart,
	})
	if err != nil {
		httperr.Respond(w, r, err)
		return
	}

	utils.RespondWithJSON(w, r, http.StatusCreated, dto.QuoteResponseDTO{
		QuoteID:      quote.ID,
		Status:       string(quote.Status),
		FiatAmount:   quote.FiatAmount.StringFixed(2),
		FiatCurrency: quote.FiatCurrency,
		Rate:         quote.Rate.String(),
		RateProvider: quote.RateProvider,
		RateAt:       quote.RateAt.UTC().Format(time.RFC3339),
		SpreadBps:    quote.SpreadBps,
		AmountUSDT:   quote.AmountUSDT,
		Network:      string(quote.Network),
		Address:      quote.Address,
		ExpiresAt:    quote.ExpiresAt.UTC().Format(time.RFC3339),
		CreatedAt:    quote.CreatedAt.UTC().Format(time.RFC3339),
	})
}

// GetStatus godoc
//
//	@Summary		Get payment status
//	@Description	Return the quote status; a quote past its expiry is reported and stored as expired
//	@Tags			Payments
//	@Produce		json
//	@Param			quoteId	path	string	true	"Quote id"
//	@Security		BearerAuth
//	@Success		200	{object}	dto.PaymentStatusResponseDTO
//	@Failure		401	{object}	utils.Response	"User not authorized"
//	@Failure		404	{object}	utils.Response	"Quote not found"
//	@Failure		500	{object}	utils.Response	"Internal server error"
//	@Router			/api/payment/status/{quoteId} [get]
func (h *PaymentHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		utils.RespondWithError(w, r, http.StatusUnauthorized, "unauthorized")
		return
	}

	status, err := h.paymentService.CheckStatus(r.Context(), chi.URLParam(r, "quoteId"), userID)
	if err != nil {
		httperr.Respond(w, r, err)
		return
	}
	utils.RespondWithJSON(w, r, http.StatusOK, toStatusDTO(status))
}

// SubmitTx godoc
//
//	@Summary		Submit a transaction hash
//	@Description	Record the client-asserted transaction hash of the payment; the quote moves to submitted
//	@Tags			Payments
//	@Accept			json
//	@Produce		json
//	@Param			request	body	dto.SubmitTxRequestDTO	true	"Submit request body"
//	@Security		BearerAuth
//	@Success		200	{object}	dto.PaymentStatusResponseDTO
//	@Failure		400	{object}	utils.Response	"Invalid request body"
//	@Failure		401	{object}	utils.Response	"User not authorized"
//	@Failure		404	{object}	utils.Response	"Quote not found"
//	@Failure		409	{object}	utils.Response	"Quote is not pending"
//	@Failure		410	{object}	utils.Response	"Quote expired"
//	@Failure		500	{object}	utils.Response	"Internal server error"
//	@Router			/api/payment/submit-tx [post]
func (h *PaymentHandler) SubmitTx(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		utils.RespondWithError(w, r, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req dto.SubmitTxRequestDTO
	if err := utils.DecodeJSON(r, &req); err != nil {
		httperr.BadRequest(w, r, err)
		return
	}
	if err := validate.Struct(req); err != nil {
		httperr.BadRequest(w, r, err)
		return
	}

	status, err := h.paymentService.SubmitTransaction(r.Context(), req.QuoteID, userID, req.TxHash)
	if err != nil {
		httperr.Respond(w, r, err)
		return
	}
	utils.RespondWithJSON(w, r, http.StatusOK, toStatusDTO(status))
}

// AdminConfirm godoc
//
//	@Summary		Confirm a payment
//	@Description	Operator confirmation of a pending or submitted quote. The token is read from the X-Admin-Token header or the body.
//	@Tags			Payments
//	@Accept			json
//	@Produce		json
//	@Param			X-Admin-Token	header	string						false	"Admin token"
//	@Param			request			body	dto.AdminConfirmRequestDTO	true	"Confirm request body"
//	@Success		200	{object}	dto.PaymentStatusResponseDTO
//	@Failure		400	{object}	utils.Response	"Invalid request body"
//	@Failure		401	{object}	utils.Response	"Invalid admin token"
//	@Failure		404	{object}	utils.Response	"Quote not found"
//	@Failure		410	{object}	utils.Response	"Quote expired"
//	@Failure		500	{object}	utils.Response	"Internal server error"
//	@Router			/api/payment/admin/confirm [post]
func (h *PaymentHandler) AdminConfirm(w http.ResponseWriter, r *http.Request) {
	var req dto.AdminConfirmRequestDTO
	if err := utils.DecodeJSON(r, &req); err != nil {
		httperr.BadRequest(w, r, err)
		return
	}
	if err := validate.Struct(req); err != nil {
		httperr.BadRequest(w, r, err)
		return
	}

	token := r.Header.Get(AdminTokenHeader)
	if token == "" {
		token = req.Token
	}
	h.confirm(w, r, paymentservice.AdminConfirmInput{
		QuoteID:        req.QuoteID,
		Token:          token,
		Confirmations:  req.Confirmations,
		AmountReceived: req.AmountReceived,
		Notes:          req.Notes,
	})
}

// AdminConfirmLink godoc
//
//	@Summary		Confirm a payment by link
//	@Description	Same as the POST variant with defaults, for confirmation links
//	@Tags			Payments
//	@Produce		json
//	@Param			quoteId	query	string	true	"Quote id"
//	@Param			token	query	string	true	"Admin token"
//	@Success		200	{object}	dto.PaymentStatusResponseDTO
//	@Failure		400	{object}	utils.Response	"Missing quote id"
//	@Failure		401	{object}	utils.Response	"Invalid admin token"
//	@Failure		404	{object}	utils.Response	"Quote not found"
//	@Failure		410	{object}	utils.Response	"Quote expired"
//	@Router			/api/payment/admin/confirm [get]
func (h *PaymentHandler) AdminConfirmLink(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	token := r.Header.Get(AdminTokenHeader)
	if token == "" {
		token = q.Get("token")
	}
	h.confirm(w, r, paymentservice.AdminConfirmInput{
		QuoteID: q.Get("quoteId"),
		Token:   token,
	})
}

func (h *PaymentHandler) confirm(w http.ResponseWriter, r *http.Request, in paymentservice.AdminConfirmInput) {
	status, err := h.paymentService.AdminConfirm(r.Context(), in)
	if err != nil {
		httperr.Respond(w, r, err)
		return
	}
	utils.RespondWithJSON(w, r, http.StatusOK, toStatusDTO(status))
}

func toStatusDTO(s *domain.PaymentStatus) dto.PaymentStatusResponseDTO {
	return dto.PaymentStatusResponseDTO{
		QuoteID:       s.QuoteID,
		Status:        string(s.Status),
		TxHash:        s.TxHash,
		Confirmations: s.Confirmations,
		ExpiresAt:     s.ExpiresAt.UTC().Format(time.RFC3339),
	}
}
