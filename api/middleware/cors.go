package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

var defaultCORSOrigins = []string{
	"http://localhost:3000",        // local dev
	"http://localhost:5173",        // Vite dev server
	"https://kreasivisual.id",      // production storefront
	"https://www.kreasivisual.id",  // production storefront alias
	"https://kreasivisual.web.app", // preview deployment
}

// CORS returns middleware that applies the API's allowed origin policy.
func CORS() func(http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins:   defaultCORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With", "Last-Event-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler
}
