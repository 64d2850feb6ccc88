package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/trailpeak/tours-api/internal/domain"
	"github.com/trailpeak/tours-api/internal/http/middleware"
	"github.com/trailpeak/tours-api/internal/service"
)

type ReviewHandler struct {
	factory *Factory[domain.Review]
}

func NewReviewHandler(svc *service.ReviewService) *ReviewHandler {
	factory := NewFactory[domain.Review](svc, "review", "reviews").
		WithParent("tourId", "tour").
		WithCreateHook(func(r *http.Request, doc map[string]any) {
			// The reviewer is always the logged-in user.
			if u := middleware.CurrentUser(r); u != nil {
				if _, set := doc["user"]; !set {
					doc["user"] = u.ID
				}
			}
		})
	return &ReviewHandler{factory: factory}
}

// Routes serves both /reviews and the nested /tours/{tourId}/reviews mount.
// All review routes require a login; only customers can write reviews.
func (h *ReviewHandler) Routes(resolver middleware.TokenResolver) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequireAuth(resolver))

	r.Get("/", h.factory.List)
	r.With(middleware.RestrictTo(domain.RoleUser)).Post("/", h.factory.Create)

	r.Get("/{id}", h.factory.GetOne)
	r.Group(func(r chi.Router) {
		r.Use(middleware.RestrictTo(domain.RoleUser, domain.RoleAdmin))
		r.Patch("/{id}", h.factory.Update)
		r.Delete("/{id}", h.factory.Delete)
	})

	return r
}
