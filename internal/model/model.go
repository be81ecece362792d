package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending Status = "PENDING"
	StatusPaid    Status = "PAID"

	// StatusExpired is derived at read time from expires_at and is never
	// written to the store.
	StatusExpired Status = "EXPIRED"
)

const idLength = 25

// Payment is the persisted representation of a single payment request.
// Everything except Status and PaidAt is immutable after creation.
type Payment struct {
	ID          string     `json:"id"`
	Value       int64      `json:"value"`
	Description string     `json:"description"`
	PixCode     string     `json:"pix_code"`
	QRCode      string     `json:"qr_code"`
	CreatedAt   time.Time  `json:"created_at"`
	ExpiresAt   time.Time  `json:"expires_at"`
	Status      Status     `json:"status"`
	PaidAt      *time.Time `json:"paid_at,omitempty"`
}

// PaidEvent is the projection returned by a simulate call and carried in
// the payment.paid webhook body.
type PaidEvent struct {
	ID          string     `json:"id"`
	Description string     `json:"description"`
	Status      Status     `json:"status"`
	PaidAt      *time.Time `json:"paid_at"`
}

// NewID generates a payment identifier: a dashless UUID truncated to 25
// characters, the shape downstream integrations already store.
func NewID() string {
	id := strings.ReplaceAll(uuid.New().String(), "-", "")
	return id[:idLength]
}

// StatusAt derives the externally visible status: a pending payment past
// its expiry reads as EXPIRED, a paid one stays PAID.
func (p Payment) StatusAt(now time.Time) Status {
	if p.Status != StatusPaid && now.After(p.ExpiresAt) {
		return StatusExpired
	}
	return p.Status
}

// View returns a copy with the status derived for the given instant.
func (p Payment) View(now time.Time) Payment {
	p.Status = p.StatusAt(now)
	return p
}

func (p Payment) PaidEvent() PaidEvent {
	return PaidEvent{
		ID:          p.ID,
		Description: p.Description,
		Status:      p.Status,
		PaidAt:      p.PaidAt,
	}
}
