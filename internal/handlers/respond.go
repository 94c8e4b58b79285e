package handlers

import (
	"encoding/json"
	"net/http"
)

// All responses share the {success, message, ...payload} envelope; errors
// carry {success:false, message} only, so no internal error text leaks out.

func writeJSON(w http.ResponseWriter, status int, payload map[string]interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeSuccess(w http.ResponseWriter, status int, message string, extra map[string]interface{}) {
	payload := map[string]interface{}{
		"success": true,
		"message": message,
	}
	for k, v := range extra {
		payload[k] = v
	}
	writeJSON(w, status, payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{
		"success": false,
		"message": message,
	})
}
