// Package httpjson holds the JSON request/response conventions shared by
// every handler: one envelope for errors, one helper for decoding bodies.
package httpjson

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// errorBody is the error envelope: a stable machine code plus a
// human-readable message.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// Write serializes v with the given status. Encoding failures are
// swallowed; headers are already gone by then.
func Write(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// Error writes the error envelope.
func Error(w http.ResponseWriter, status int, code, message string) {
	Write(w, status, errorBody{Error: code, Message: message})
}

// Decode reads a JSON body into v, rejecting unknown fields and trailing
// garbage.
func Decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	if dec.More() {
		return fmt.Errorf("invalid request body: trailing data")
	}
	return nil
}
