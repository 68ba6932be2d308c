// (c) Siemens AG 2024
//
// SPDX-License-Identifier: MIT

package web

import (
	"encoding/json"
	"net/http"

	"github.com/thediveo/lxkns/log"
)

// Response is the JSON envelope of all API responses.
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// SendJSON sends a JSON response with the specified HTTP status code.
func SendJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	// The status must go out before the body, otherwise it's always 200.
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Warnf("cannot send response, reason: %s", err.Error())
	}
}

// SendError sends an unsuccessful response with the specified message, status
// code, and optional data.
func SendError(w http.ResponseWriter, message string, statusCode int, data interface{}) {
	SendJSON(w, statusCode, Response{
		Success: false,
		Message: message,
		Data:    data,
	})
}

// SendSuccess sends a successful response with the specified message and data.
func SendSuccess(w http.ResponseWriter, message string, data interface{}) {
	SendJSON(w, http.StatusOK, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}
