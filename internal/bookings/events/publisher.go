// Package events publishes booking lifecycle events. Publishing is best
// effort: a broker outage never fails the request that produced the event.
package events

import (
	"context"

	"stayvoucher/pkg/kafka"
	"stayvoucher/pkg/logger"
	"stayvoucher/pkg/model"
)

const (
	EventBookingCreated       = "booking.created"
	EventBookingStatusChanged = "booking.status_changed"

	source = "stayvoucher.bookings"
)

// BookingCreated is the payload of a booking.created event.
type BookingCreated struct {
	BookingID string  `json:"booking_id"`
	SubjectID string  `json:"subject_id"`
	VoucherID string  `json:"voucher_id"`
	HotelID   string  `json:"hotel_id,omitempty"`
	Quantity  int64   `json:"quantity"`
	Total     float64 `json:"total"`
}

// BookingStatusChanged is the payload of a booking.status_changed event.
type BookingStatusChanged struct {
	BookingID string `json:"booking_id"`
	Status    string `json:"status"`
}

// Publisher emits booking events. A nil *KafkaPublisher is a valid no-op
// publisher, so callers never branch on whether events are enabled.
type Publisher interface {
	BookingCreated(ctx context.Context, booking *model.Booking)
	BookingStatusChanged(ctx context.Context, bookingID, status string)
}

type KafkaPublisher struct {
	producer *kafka.Producer
	log      *logger.Logger
}

func NewKafkaPublisher(producer *kafka.Producer, log *logger.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		producer: producer,
		log:      log,
	}
}

// BookingCreated publishes the creation event keyed by booking ID, so all
// events of one booking land on the same partition in order.
func (p *KafkaPublisher) BookingCreated(ctx context.Context, booking *model.Booking) {
	if p == nil {
		return
	}

	msg := kafka.NewMessage().
		WithKey(booking.ID).
		WithEventType(EventBookingCreated).
		WithSource(source).
		WithValue(BookingCreated{
			BookingID: booking.ID,
			SubjectID: booking.SubjectID,
			VoucherID: booking.VoucherID,
			HotelID:   booking.HotelID,
			Quantity:  booking.Quantity,
			Total:     booking.Total,
		}).
		Build()

	if err := p.producer.Publish(ctx, msg); err != nil {
		p.log.Warn("Failed to publish booking created event",
			"booking_id", booking.ID,
			"error", err,
		)
	}
}

func (p *KafkaPublisher) BookingStatusChanged(ctx context.Context, bookingID, status string) {
	if p == nil {
		return
	}

	msg := kafka.NewMessage().
		WithKey(bookingID).
		WithEventType(EventBookingStatusChanged).
		WithSource(source).
		WithValue(BookingStatusChanged{
			BookingID: bookingID,
			Status:    status,
		}).
		Build()

	if err := p.producer.Publish(ctx, msg); err != nil {
		p.log.Warn("Failed to publish booking status event",
			"booking_id", bookingID,
			"status", status,
			"error", err,
		)
	}
}
