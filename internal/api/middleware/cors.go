package middleware

import (
	"net/http"
	"slices"
)

const (
	AllowedMethods = "POST, GET, PUT, DELETE, OPTIONS"
	AllowedHeaders = "Content-Type"
)

// CORS пропускает только запросы с Origin из списка (точное совпадение строки).
// Чужой origin получает 403 без тела, preflight OPTIONS - 200 без тела.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if !slices.Contains(allowedOrigins, origin) {
				w.WriteHeader(http.StatusForbidden)
				return
			}

			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", AllowedMethods)
			w.Header().Set("Access-Control-Allow-Headers", AllowedHeaders)

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
