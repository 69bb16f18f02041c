package middleware

import "net/http"

// NoStore marks responses as uncacheable by browsers and shared caches.
// Reputation profiles are looked up by phone number and must not linger in
// intermediaries.
func NoStore(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		w.Header().Set("Pragma", "no-cache")
		next.ServeHTTP(w, r)
	})
}
