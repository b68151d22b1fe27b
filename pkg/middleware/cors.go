package middleware

import (
	"net/http"

	"github.com/rs/cors"
)

// CORS restricts browser access to the configured origins. The header
// allowlist covers the API surface: bearer auth for /api, the shared
// webhook token for /webhook.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Webhook-Token"},
		AllowCredentials: true,
		MaxAge:           300,
	})

	return c.Handler
}
