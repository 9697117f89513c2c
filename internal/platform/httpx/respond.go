// Package httpx provides the JSON envelope and request helpers shared by handlers.
package httpx

import (
	"encoding/json"
	"mime"
	"net"
	"net/http"

	"github.com/stallbook/stallbook/internal/shared"
)

// Envelope wraps every JSON response.
type Envelope struct {
	Success    bool               `json:"success"`
	Data       any                `json:"data,omitempty"`
	Message    string             `json:"message,omitempty"`
	Code       string             `json:"code,omitempty"`
	Pagination *shared.Pagination `json:"pagination,omitempty"`
}

// JSON sends a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// OK sends a successful envelope.
func OK(w http.ResponseWriter, status int, data any, message string) {
	JSON(w, status, Envelope{Success: true, Data: data, Message: message})
}

// Paged sends a successful envelope carrying pagination metadata.
func Paged(w http.ResponseWriter, data any, pagination shared.Pagination) {
	JSON(w, http.StatusOK, Envelope{Success: true, Data: data, Pagination: &pagination})
}

// Error sends a failed envelope.
func Error(w http.ResponseWriter, status int, code, message string) {
	JSON(w, status, Envelope{Success: false, Message: message, Code: code})
}

// DecodeJSON decodes JSON request body into the target struct.
func DecodeJSON(r *http.Request, target any) error {
	return json.NewDecoder(r.Body).Decode(target)
}

// Attachment marks the response as a download.
func Attachment(w http.ResponseWriter, contentType, filename string) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
}

// ClientIP returns the caller address, trimmed to fit the audit origin column.
func ClientIP(r *http.Request) string {
	addr := r.RemoteAddr
	if host, _, err := net.SplitHostPort(addr); err == nil {
		addr = host
	}
	if len(addr) > 45 {
		addr = addr[:45]
	}
	return addr
}
