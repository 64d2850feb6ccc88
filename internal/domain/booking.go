package domain

import "time"

type Booking struct {
	ID        int64     `json:"id"`
	Tour      int64     `json:"tour"`
	User      int64     `json:"user"`
	Price     float64   `json:"price"`
	Paid      bool      `json:"paid"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type BookingInput struct {
	Tour  int64   `json:"tour"`
	User  int64   `json:"user"`
	Price float64 `json:"price"`
	Paid  bool    `json:"paid"`
}

func (in *BookingInput) Validate() error {
	problems := map[string]string{}

	if in.Tour == 0 {
		problems["tour"] = "Booking must belong to a tour"
	}
	if in.User == 0 {
		problems["user"] = "Booking must belong to a user"
	}
	if in.Price < 0 {
		problems["price"] = "Minimum price is 0"
	}

	if len(problems) > 0 {
		return ErrValidationFields(problems)
	}
	return nil
}

func InputFromBooking(b *Booking) *BookingInput {
	return &BookingInput{
		Tour:  b.Tour,
		User:  b.User,
		Price: b.Price,
		Paid:  b.Paid,
	}
}
