package httperr

import (
	"net/http"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/GlebRadaev/cryptocheckout/internal/domain"
	"github.com/GlebRadaev/cryptocheckout/pkg/utils"
)

const internalError = "internal_error"

var statuses = []struct {
	target error
	code   int
}{
	{domain.ErrInvalidRequest, http.StatusBadRequest},
	{domain.ErrUnauthorized, http.StatusUnauthorized},
	{domain.ErrNotFound, http.StatusNotFound},
	{domain.ErrReservationNotFound, http.StatusNotFound},
	{domain.ErrExpired, http.StatusGone},
	{domain.ErrStockExhausted, http.StatusConflict},
	{domain.ErrInvalidTransition, http.StatusConflict},
	{domain.ErrNotConfirmed, http.StatusConflict},
	{domain.ErrAlreadyExists, http.StatusConflict},
	{domain.ErrRateUnavailable, http.StatusServiceUnavailable},
	{domain.ErrPersistence, http.StatusInternalServerError},
}

// Status returns the HTTP status and the stable message for err.
func Status(err error) (int, string) {
	for _, s := range statuses {
		if errors.Is(err, s.target) {
			return s.code, s.target.Error()
		}
	}
	return http.StatusInternalServerError, internalError
}

// Respond writes err as a JSON error body. Details are exposed only for
// user-correctable errors; server-side failures are logged instead.
func Respond(w http.ResponseWriter, r *http.Request, err error) {
	code, message := Status(err)
	resp := utils.Response{Message: message}
	switch {
	case code == http.StatusBadRequest:
		resp.Details = err.Error()
	case code >= http.StatusInternalServerError:
		zap.L().Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
	utils.RespondWithJSON(w, r, code, resp)
}

// BadRequest answers 400 for bodies that could not be decoded or validated.
func BadRequest(w http.ResponseWriter, r *http.Request, err error) {
	utils.RespondWithJSON(w, r, http.StatusBadRequest, utils.Response{
		Message: domain.ErrInvalidRequest.Error(),
		Details: err.Error(),
	})
}
