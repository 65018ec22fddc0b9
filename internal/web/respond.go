package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/justestif/songquiz/internal/errs"
)

// errorBody is the JSON shape of every error response. Code is machine
// stable; message is for humans.
type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// respondError maps sentinel errors to HTTP statuses and stable codes.
// Anything unmapped is a 500 with the detail withheld from the client.
func respondError(w http.ResponseWriter, err error) {
	var status int
	var code string

	switch {
	case errors.Is(err, errs.ErrInvalidReference):
		status, code = http.StatusBadRequest, "invalid_reference"
	case errors.Is(err, errs.ErrValidation):
		status, code = http.StatusBadRequest, "validation"
	case errors.Is(err, errs.ErrUnauthenticated):
		status, code = http.StatusUnauthorized, "unauthenticated"
	case errors.Is(err, errs.ErrForbidden):
		status, code = http.StatusForbidden, "forbidden"
	case errors.Is(err, errs.ErrNotFound):
		status, code = http.StatusNotFound, "not_found"
	case errors.Is(err, errs.ErrAlreadyCompleted):
		status, code = http.StatusConflict, "already_completed"
	default:
		respondJSON(w, http.StatusInternalServerError, errorBody{
			Code:    "internal",
			Message: "internal server error",
		})
		return
	}

	respondJSON(w, status, errorBody{Code: code, Message: err.Error()})
}
