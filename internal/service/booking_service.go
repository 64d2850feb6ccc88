package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/trailpeak/tours-api/internal/domain"
	"github.com/trailpeak/tours-api/internal/payments"
	"github.com/trailpeak/tours-api/internal/query"
	"github.com/trailpeak/tours-api/pkg/config"
	"github.com/trailpeak/tours-api/pkg/events"
	"github.com/trailpeak/tours-api/pkg/logger"
)

type BookingStore interface {
	List(ctx context.Context, opts query.Options, scope ...query.Filter) ([]domain.Booking, error)
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	Create(ctx context.Context, body []byte) (*domain.Booking, error)
	UpdateByID(ctx context.Context, id int64, body []byte) (*domain.Booking, error)
	DeleteByID(ctx context.Context, id int64) error
}

// CheckoutTourReader resolves the tour being bought.
type CheckoutTourReader interface {
	GetByID(ctx context.Context, id int64) (*domain.Tour, error)
}

// CheckoutUserReader resolves the paying customer from the webhook email.
type CheckoutUserReader interface {
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
}

type BookingService struct {
	bookings BookingStore
	tours    CheckoutTourReader
	users    CheckoutUserReader
	payments *payments.Client
	bus      events.Publisher
	cfg      *config.Config
}

func NewBookingService(bookings BookingStore, tours CheckoutTourReader, users CheckoutUserReader, pc *payments.Client, bus events.Publisher, cfg *config.Config) *BookingService {
	return &BookingService{
		bookings: bookings,
		tours:    tours,
		users:    users,
		payments: pc,
		bus:      bus,
		cfg:      cfg,
	}
}

func (s *BookingService) List(ctx context.Context, opts query.Options, scope ...query.Filter) ([]domain.Booking, error) {
	return s.bookings.List(ctx, opts, scope...)
}

func (s *BookingService) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	return s.bookings.GetByID(ctx, id)
}

func (s *BookingService) Create(ctx context.Context, body []byte) (*domain.Booking, error) {
	b, err := s.bookings.Create(ctx, body)
	if err != nil {
		return nil, err
	}
	s.publishCreated(ctx, b)
	return b, nil
}

func (s *BookingService) UpdateByID(ctx context.Context, id int64, body []byte) (*domain.Booking, error) {
	return s.bookings.UpdateByID(ctx, id, body)
}

func (s *BookingService) DeleteByID(ctx context.Context, id int64) error {
	return s.bookings.DeleteByID(ctx, id)
}

// CreateCheckoutSession opens a Stripe checkout session for a tour on behalf
// of the logged-in user.
func (s *BookingService) CreateCheckoutSession(ctx context.Context, tourID int64, user *domain.User) (*payments.CheckoutSession, error) {
	tour, err := s.tours.GetByID(ctx, tourID)
	if err != nil {
		return nil, err
	}
	if tour == nil {
		return nil, domain.ErrNotFound("tour")
	}

	base := s.cfg.Server.PublicURL
	sess, err := s.payments.NewCheckoutSession(payments.CheckoutParams{
		TourID:      tour.ID,
		TourName:    tour.Name,
		TourSummary: tour.Summary,
		ImageURL:    fmt.Sprintf("%s/img/tours/%s", base, tour.ImageCover),
		Amount:      int64(tour.Price * 100),
		Email:       user.Email,
		SuccessURL:  base + "/?booking=success",
		CancelURL:   fmt.Sprintf("%s/tour/%s", base, tour.Slug),
	})
	if err != nil {
		return nil, domain.ErrInternal(err)
	}
	return sess, nil
}

// HandleWebhook verifies a Stripe webhook and records a paid booking for
// completed checkout sessions.
func (s *BookingService) HandleWebhook(ctx context.Context, payload []byte, sigHeader string) error {
	completed, err := s.payments.ParseWebhook(payload, sigHeader)
	if err != nil {
		return domain.ErrValidation("Webhook error: " + err.Error())
	}
	if completed == nil {
		return nil
	}

	user, err := s.users.FindByEmail(ctx, completed.CustomerEmail)
	if err != nil {
		return err
	}
	if user == nil {
		return domain.ErrNotFound("user for checkout session")
	}

	in := domain.BookingInput{
		Tour:  completed.TourID,
		User:  user.ID,
		Price: float64(completed.AmountTotal) / 100,
		Paid:  true,
	}
	body, err := json.Marshal(in)
	if err != nil {
		return domain.ErrInternal(err)
	}

	b, err := s.bookings.Create(ctx, body)
	if err != nil {
		return err
	}
	s.publishCreated(ctx, b)
	return nil
}

func (s *BookingService) publishCreated(ctx context.Context, b *domain.Booking) {
	evt := events.BookingCreatedEvent{
		BookingID: b.ID,
		TourID:    b.Tour,
		UserID:    b.User,
		Price:     b.Price,
		Paid:      b.Paid,
		At:        time.Now(),
	}
	if err := s.bus.Publish(ctx, events.BookingCreated, evt); err != nil {
		logger.WarnContext(ctx, "failed to publish booking event", "err", err)
	}
}
