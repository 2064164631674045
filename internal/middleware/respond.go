package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/dukerupert/nutribox/internal/apperr"
)

func writeError(w http.ResponseWriter, status int, kind apperr.Kind, msg string) {
	body := map[string]string{"error": msg}
	if kind != "" {
		body["kind"] = string(kind)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
