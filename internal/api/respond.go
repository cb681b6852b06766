// Authgate - Request Authentication and Session Integrity Engine
// Copyright 2026 Authgate Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/govportal/authgate

package api

import (
	"fmt"
	"io"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/govportal/authgate/internal/logging"
	"github.com/govportal/authgate/internal/validation"
)

// maxBodyBytes bounds JSON request bodies. Uploads have their own limits.
const maxBodyBytes = 64 * 1024

// errorBody is the structured rejection payload. The shape matches the
// gatekeeper middleware rejections so clients handle both uniformly.
type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// writeJSON encodes v with the given status. Encoding failures are logged;
// by then the status line is already on the wire.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error().Err(err).Msg("Failed to encode response body")
	}
}

// writeError sends a structured error with a stable code.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorBody{Error: message, Code: code})
}

// writeValidationError reports field-level validation failures in the
// shared validation error shape.
func writeValidationError(w http.ResponseWriter, ve *validation.RequestValidationError) {
	apiErr := ve.ToAPIError()
	writeJSON(w, http.StatusBadRequest, map[string]interface{}{
		"error":   apiErr.Message,
		"code":    CodeValidationFailed,
		"details": apiErr.Details,
	})
}

// decodeJSON reads and unmarshals a bounded request body into dst.
func decodeJSON(r *http.Request, dst interface{}) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("failed to read request body: %w", err)
	}
	if len(body) == 0 {
		return fmt.Errorf("empty request body")
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("malformed JSON body: %w", err)
	}
	return nil
}

// decodeAndValidate decodes the body and runs struct validation, writing
// the error response itself. Returns false when the request was rejected.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := decodeJSON(r, dst); err != nil {
		writeError(w, http.StatusBadRequest, CodeMalformedRequest, "Request body must be valid JSON")
		return false
	}
	if ve := validation.ValidateStruct(dst); ve != nil {
		writeValidationError(w, ve)
		return false
	}
	return true
}
