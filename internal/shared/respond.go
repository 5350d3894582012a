package shared

import (
	"encoding/json"
	"net/http"
)

// RespondJSON writes a JSON payload with the given status.
func RespondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

type errorEnvelope struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RespondError writes the closed-taxonomy error envelope for err.
func RespondError(w http.ResponseWriter, err error) {
	code := CodeFor(err)
	RespondJSON(w, StatusFor(code), errorEnvelope{
		Success: false,
		Code:    code,
		Message: MessageFor(code),
	})
}
