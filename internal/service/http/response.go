package httpsvc

import (
	"encoding/json"
	"errors"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/orderdesk/internal/domain"
)

const (
	codeValidationFailed   = "validation_failed"
	codeInvalidID          = "invalid_id"
	codeUnknownItemVariant = "unknown_item_variant"
	codeNotFound           = "not_found"
	codeTransportFailure   = "transport_failure"
	codeInternal           = "internal"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, envelope{Success: true, Data: data})
}

func writeError(w http.ResponseWriter, status int, code, msg string, fields map[string]string) {
	writeJSON(w, status, envelope{Error: code, Message: msg, Errors: fields})
}

// writeServiceError переводит ошибку сервиса в HTTP-статус и код ошибки.
func writeServiceError(w http.ResponseWriter, logger *log.Entry, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, codeValidationFailed, "validation failed", verr.Fields)
	case errors.Is(err, domain.ErrValidationFailed):
		writeError(w, http.StatusBadRequest, codeValidationFailed, err.Error(), nil)
	case errors.Is(err, domain.ErrInvalidID):
		writeError(w, http.StatusBadRequest, codeInvalidID, "order id must be a positive integer", nil)
	case errors.Is(err, domain.ErrUnknownItemVariant):
		writeError(w, http.StatusBadRequest, codeUnknownItemVariant, "item must be either product or custom", nil)
	case errors.Is(err, domain.ErrOrderNotFound):
		writeError(w, http.StatusNotFound, codeNotFound, "order not found", nil)
	case errors.Is(err, domain.ErrTransportFailure):
		writeError(w, http.StatusBadGateway, codeTransportFailure, "printer is unavailable", nil)
	default:
		logger.WithError(err).Error("request failed")
		writeError(w, http.StatusInternalServerError, codeInternal, "internal error", nil)
	}
}
