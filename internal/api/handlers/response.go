package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
)

// renderJSON writes data with the given status code.
func renderJSON(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			log.Printf("[WARN] failed to encode response: %v", err)
		}
	}
}

// renderError writes the {"detail": ...} error body.
func renderError(w http.ResponseWriter, code int, detail string) {
	renderJSON(w, code, map[string]string{"detail": detail})
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	return dec.Decode(v)
}

// intParam reads a positive integer query parameter, falling back to def.
func intParam(r *http.Request, name string, def, max int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	if n > max {
		return max
	}
	return n
}
