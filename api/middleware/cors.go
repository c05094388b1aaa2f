package middleware

import (
	"net/http"
	"strings"

	"github.com/go-chi/cors"
)

const localDevOrigin = "http://localhost:3000"

// CORS allows the storefront origin and local development.
func CORS(siteURL string) func(http.Handler) http.Handler {
	origins := []string{localDevOrigin}
	if site := strings.TrimRight(strings.TrimSpace(siteURL), "/"); site != "" && site != localDevOrigin {
		origins = append(origins, site)
	}
	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler
}
