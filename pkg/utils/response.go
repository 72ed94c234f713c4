package utils

import (
	"net/http"

	"github.com/go-chi/render"
)

type Response struct {
	Message string `json:"message" example:"quote_expired"`
	Details string `json:"details,omitempty" example:"unsupported network \"SOL\""`
}

func RespondWithError(w http.ResponseWriter, r *http.Request, code int, message string) {
	RespondWithJSON(w, r, code, Response{Message: message})
}

func RespondWithJSON(w http.ResponseWriter, r *http.Request, code int, payload interface{}) {
	render.Status(r, code)
	render.JSON(w, r, payload)
}

// DecodeJSON reads a JSON request body into v.
func DecodeJSON(r *http.Request, v interface{}) error {
	return render.DecodeJSON(r.Body, v)
}
