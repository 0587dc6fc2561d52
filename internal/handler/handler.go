// internal/handler/handler.go
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	appErrors "github.com/leadvault/leadvault-backend/internal/errors"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeErrorMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeError maps the error taxonomy onto HTTP statuses. Validation and
// configuration errors carry their own message; anything else gets the
// generic one, with detail going to the operator log only.
func writeError(w http.ResponseWriter, log *zap.Logger, err error, generic string) {
	var validationErr *appErrors.ValidationError
	var configErr *appErrors.ConfigurationError
	var notFoundErr *appErrors.NotFoundError
	switch {
	case errors.As(err, &validationErr):
		writeErrorMessage(w, http.StatusBadRequest, validationErr.Error())
	case errors.As(err, &configErr):
		writeErrorMessage(w, http.StatusInternalServerError, configErr.Error())
	case errors.As(err, &notFoundErr):
		writeErrorMessage(w, http.StatusNotFound, notFoundErr.Error())
	default:
		log.Error(generic, zap.Error(err))
		writeErrorMessage(w, http.StatusInternalServerError, generic)
	}
}
