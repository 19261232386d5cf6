// Package httputil centralizes JSON response and domain error translation so
// every service returns the same envelopes.
package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "porter/pkg/domain-errors"
)

var statusByCode = map[dErrors.Code]int{
	dErrors.CodeValidation:          http.StatusBadRequest,
	dErrors.CodeConflict:            http.StatusConflict,
	dErrors.CodeInvalidCredentials:  http.StatusUnauthorized,
	dErrors.CodeOAuthExchange:       http.StatusUnauthorized,
	dErrors.CodeOAuthVerification:   http.StatusUnauthorized,
	dErrors.CodeIncompleteIdentity:  http.StatusBadRequest,
	dErrors.CodeInvalidToken:        http.StatusUnauthorized,
	dErrors.CodeNotFound:            http.StatusNotFound,
	dErrors.CodeUserNotFound:        http.StatusUnauthorized,
	dErrors.CodeUpstreamUnavailable: http.StatusBadGateway,
	dErrors.CodeRateLimited:         http.StatusTooManyRequests,
	dErrors.CodeInternal:            http.StatusInternalServerError,
}

// ToHTTPStatus maps a domain error code to its response status.
func ToHTTPStatus(code dErrors.Code) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// WriteJSON writes a JSON body with the given status.
func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// WriteError translates err into the stable error envelope. Internal errors
// omit the description so upstream details never reach callers.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)

	body := map[string]string{"error": string(code)}
	if code != dErrors.CodeInternal {
		var de *dErrors.Error
		if errors.As(err, &de) && de.Message != "" {
			body["error_description"] = de.Message
		}
	}
	WriteJSON(w, ToHTTPStatus(code), body)
}
