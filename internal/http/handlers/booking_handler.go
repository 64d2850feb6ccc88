package handlers

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/trailpeak/tours-api/internal/domain"
	"github.com/trailpeak/tours-api/internal/http/middleware"
	"github.com/trailpeak/tours-api/internal/http/response"
	"github.com/trailpeak/tours-api/internal/service"
)

type BookingHandler struct {
	svc     *service.BookingService
	factory *Factory[domain.Booking]
}

func NewBookingHandler(svc *service.BookingService) *BookingHandler {
	return &BookingHandler{
		svc:     svc,
		factory: NewFactory[domain.Booking](svc, "booking", "bookings"),
	}
}

func (h *BookingHandler) Routes(resolver middleware.TokenResolver) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequireAuth(resolver))

	r.Get("/check-out/{tourId}", h.Checkout)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RestrictTo(domain.RoleAdmin, domain.RoleLeadGuide))
		r.Get("/", h.factory.List)
		r.Post("/", h.factory.Create)
		r.Get("/{id}", h.factory.GetOne)
		r.Patch("/{id}", h.factory.Update)
		r.Delete("/{id}", h.factory.Delete)
	})

	return r
}

// Checkout opens a Stripe checkout session for the tour.
func (h *BookingHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	tourID, err := idParam(r, "tourId")
	if err != nil {
		response.Error(w, err)
		return
	}

	sess, err := h.svc.CreateCheckoutSession(r.Context(), tourID, middleware.CurrentUser(r))
	if err != nil {
		response.Error(w, err)
		return
	}
	response.Data(w, http.StatusOK, "session", sess)
}

// Webhook receives Stripe events. It is mounted outside the authed group;
// authenticity comes from the signature header.
func (h *BookingHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		response.Error(w, domain.ErrValidation("Could not read request body"))
		return
	}

	if err := h.svc.HandleWebhook(r.Context(), payload, r.Header.Get("Stripe-Signature")); err != nil {
		response.Error(w, err)
		return
	}
	response.Data(w, http.StatusOK, "received", true)
}
