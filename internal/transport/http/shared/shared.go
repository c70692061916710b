// Package shared holds response helpers used by every HTTP handler so error
// envelopes stay consistent across the API.
package shared

import (
	"encoding/json"
	"net/http"

	domainerrors "missive/pkg/domain-errors"
)

// WriteError translates a coded domain error into its HTTP status and a JSON
// envelope. Uncoded errors collapse to a 500 internal_error without leaking
// the cause.
func WriteError(w http.ResponseWriter, err error) {
	code := domainerrors.CodeOf(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(domainerrors.HTTPStatus(code))
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error": string(code),
	})
}

// WriteJSON writes a JSON body with the given status.
func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
