package httpx

import (
	"encoding/json"
	"net/http"
	"strings"
)

// WriteJSON writes a JSON response with the given status code.
// It automatically sets the Content-Type header and Cache-Control headers.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	NoCache(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteDetail writes the {"detail": "..."} error shape used by every
// endpoint.
func WriteDetail(w http.ResponseWriter, code int, detail string) {
	WriteJSON(w, code, struct {
		Detail string `json:"detail"`
	}{Detail: detail})
}

// WriteEmpty writes a bodyless response that still must not be cached.
func WriteEmpty(w http.ResponseWriter, code int) {
	NoCache(w)
	w.WriteHeader(code)
}

// NoCache sets the Cache-Control and Pragma headers to prevent caching.
// Every response that sets or clears session cookies needs this.
func NoCache(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
}

// SplitCommaList splits "a, b ,c" into trimmed, non-empty entries.
func SplitCommaList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
