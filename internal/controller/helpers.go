package controller

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	domainErrors "github.com/rahatc/paydesh/internal/domain/errors"
)

var validate = validator.New()

type errorMapping struct {
	err    error
	status int
	code   string
}

var errorMappings = []errorMapping{
	{domainErrors.ErrAccountNotFound, http.StatusNotFound, "not_found"},
	{domainErrors.ErrCounterpartyNotFound, http.StatusNotFound, "counterparty_not_found"},
	{domainErrors.ErrEntryNotFound, http.StatusNotFound, "not_found"},
	{domainErrors.ErrRequestNotFound, http.StatusNotFound, "not_found"},
	{domainErrors.ErrNotificationNotFound, http.StatusNotFound, "not_found"},
	{domainErrors.ErrInsufficientFunds, http.StatusUnprocessableEntity, "insufficient_funds"},
	{domainErrors.ErrInsufficientFundsForFee, http.StatusUnprocessableEntity, "insufficient_funds_for_fee"},
	{domainErrors.ErrAccountInactive, http.StatusUnprocessableEntity, "account_inactive"},
	{domainErrors.ErrNotAnAgent, http.StatusUnprocessableEntity, "not_an_agent"},
	{domainErrors.ErrSelfTransfer, http.StatusUnprocessableEntity, "self_transfer"},
	{domainErrors.ErrSelfRequest, http.StatusUnprocessableEntity, "self_request"},
	{domainErrors.ErrInvalidPIN, http.StatusForbidden, "invalid_pin"},
	{domainErrors.ErrNotAuthorized, http.StatusForbidden, "forbidden"},
	{domainErrors.ErrDuplicateAttempt, http.StatusConflict, "duplicate_attempt"},
	{domainErrors.ErrAlreadyResolved, http.StatusConflict, "already_resolved"},
	{domainErrors.ErrRequestExpired, http.StatusGone, "request_expired"},
	{domainErrors.ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
	{domainErrors.ErrForbidden, http.StatusForbidden, "forbidden"},
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	resp := ErrorResponse{Error: err.Error()}

	var validationErr *domainErrors.ValidationError
	if errors.As(err, &validationErr) {
		resp.Code = "validation_error"
		writeJSON(w, http.StatusBadRequest, resp)
		return
	}

	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			resp.Code = m.code
			writeJSON(w, m.status, resp)
			return
		}
	}

	var domainErr *domainErrors.DomainError
	if errors.As(err, &domainErr) {
		resp.Code = domainErr.Code
		writeJSON(w, http.StatusUnprocessableEntity, resp)
		return
	}

	log.Error().Err(err).Msg("unhandled error in handler")
	resp.Code = "internal_error"
	resp.Error = "internal server error"
	writeJSON(w, http.StatusInternalServerError, resp)
}

func decodeAndValidate(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return domainErrors.NewValidationError("body", "invalid JSON: "+err.Error())
	}
	if err := validate.Struct(dst); err != nil {
		if ve, ok := err.(validator.ValidationErrors); ok && len(ve) > 0 {
			return domainErrors.NewValidationError(ve[0].Field(), ve[0].Tag()+" validation failed")
		}
		return domainErrors.NewValidationError("body", err.Error())
	}
	return nil
}
