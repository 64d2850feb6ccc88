package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"

	appmw "github.com/trailpeak/tours-api/internal/http/middleware"
	"github.com/trailpeak/tours-api/internal/http/response"
	pkgmw "github.com/trailpeak/tours-api/pkg/middleware"
)

type RouterDeps struct {
	Tours    *TourHandler
	Users    *UserHandler
	Reviews  *ReviewHandler
	Bookings *BookingHandler
	Resolver appmw.TokenResolver
	Redis    *redis.Client
}

// NewRouter assembles the full route tree.
func NewRouter(d RouterDeps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(pkgmw.RequestID)
	r.Use(pkgmw.Logging)
	r.Use(chimiddleware.Recoverer)
	r.Use(pkgmw.Health)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	// Stripe posts here with a signed raw body, so the route sits outside
	// the authed API tree.
	r.Post("/webhook-checkout", d.Bookings.Webhook)

	// Resized tour and user images.
	r.Handle("/img/*", http.StripPrefix("/img/", http.FileServer(http.Dir("public/img"))))

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(appmw.RateLimit(d.Redis))

		api.Mount("/tours", d.Tours.Routes(d.Resolver))
		api.Mount("/tours/{tourId}/reviews", d.Reviews.Routes(d.Resolver))
		api.Mount("/users", d.Users.Routes(d.Resolver))
		api.Mount("/reviews", d.Reviews.Routes(d.Resolver))
		api.Mount("/bookings", d.Bookings.Routes(d.Resolver))
	})

	r.NotFound(response.NotFoundRoute)

	return r
}
