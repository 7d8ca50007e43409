// Package httpapi is the concrete net/http transport RequestGate's
// contract runs behind: multipart parsing and the JSON response envelope
// (SPEC_FULL.md §4.8). The envelope shape is grounded in the pack's
// vortex-api internal/api/response.go helper pair, narrowed to the single
// {"status": "..."} body spec.md §4.5/§6 require.
package httpapi

import (
	"encoding/json"
	"net/http"
)

type statusBody struct {
	Status string `json:"status"`
}

// writeStatus writes {"status": status} with the JSON content type
// spec.md §4.5 requires, at the given HTTP code.
func writeStatus(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(statusBody{Status: status})
}
