package domain

import (
	"strings"

	"github.com/cockroachdb/errors"
)

// Sentinel errors shared by services and handlers. Messages double as the
// machine-readable codes returned to clients.
var (
	ErrInvalidRequest      = errors.New("invalid_request")
	ErrNotFound            = errors.New("not_found")
	ErrExpired             = errors.New("quote_expired")
	ErrStockExhausted      = errors.New("stock_exhausted")
	ErrRateUnavailable     = errors.New("rate_unavailable")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrPersistence         = errors.New("persistence_failure")
	ErrNotConfirmed        = errors.New("not_confirmed")
	ErrReservationNotFound = errors.New("reservation_not_found")
	ErrInvalidTransition   = errors.New("invalid_transition")
	ErrAlreadyExists       = errors.New("already_exists")
)

func InvalidRequest(format string, args ...interface{}) error {
	return errors.Mark(errors.Newf(format, args...), ErrInvalidRequest)
}

func Persistence(err error, msg string) error {
	if err == nil {
		return nil
	}
	return errors.Mark(errors.Wrap(err, msg), ErrPersistence)
}

// RateUnavailableError lists why every rate provider failed.
type RateUnavailableError struct {
	Reasons []string
}

func (e *RateUnavailableError) Error() string {
	return "rate_unavailable: " + strings.Join(e.Reasons, "; ")
}

func RateUnavailable(reasons []string) error {
	return errors.Mark(&RateUnavailableError{Reasons: reasons}, ErrRateUnavailable)
}
