package payment

import (
	"context"
	"log/slog"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/pkg/errors"

	"pix-provider/internal/logging"
	"pix-provider/internal/model"
	"pix-provider/internal/pix"
)

const EventPaymentPaid = "payment.paid"

var (
	createdCounter        = metrics.GetOrCreateCounter(`payments_created_total`)
	createRejectedCounter = metrics.GetOrCreateCounter(`payment_create_total{result="rejected"}`)
	createErrorCounter    = metrics.GetOrCreateCounter(`payment_create_total{result="codegen_failed"}`)

	simulatePaidCounter    = metrics.GetOrCreateCounter(`payment_simulate_total{result="paid"}`)
	simulateExpiredCounter = metrics.GetOrCreateCounter(`payment_simulate_total{result="expired"}`)
	simulateAlreadyCounter = metrics.GetOrCreateCounter(`payment_simulate_total{result="already_paid"}`)
)

// Notifier is the outbound side channel for paid events. Implementations
// must contain their own failures; the engine never inspects the outcome.
type Notifier interface {
	Notify(ctx context.Context, event string, data any)
}

type CreateInput struct {
	Value       int64
	ExpiresIn   int64
	Description string
}

// Engine owns the payment lifecycle: creation, the single
// PENDING to PAID transition, and the derived expiry view.
type Engine struct {
	repo      *Repository
	generator pix.Generator
	notifier  Notifier
	logger    *slog.Logger
	now       func() time.Time
}

func NewEngine(repo *Repository, generator pix.Generator, notifier Notifier, logger *slog.Logger) *Engine {
	return &Engine{
		repo:      repo,
		generator: generator,
		notifier:  notifier,
		logger:    logger,
		now:       time.Now,
	}
}

// WithClock overrides the engine clock. Tests use it to move payments
// past their expiry without sleeping.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// Create validates the input, asks the code generator for a presentment
// pair and persists the new PENDING payment. A generator failure leaves
// the store untouched.
func (e *Engine) Create(ctx context.Context, in CreateInput) (model.Payment, error) {
	if in.Value <= 0 {
		createRejectedCounter.Inc()
		return model.Payment{}, &ValidationError{Field: "value", Reason: "must be a positive number"}
	}
	if in.ExpiresIn <= 0 {
		createRejectedCounter.Inc()
		return model.Payment{}, &ValidationError{Field: "expires_in", Reason: "must be a positive number"}
	}

	id := model.NewID()
	ctx = logging.AppendCtx(ctx, slog.String("paymentId", id))

	code, err := e.generator.Generate(pix.Request{
		Amount:      float64(in.Value) / 100,
		Description: in.Description,
		TxID:        id,
	})
	if err != nil {
		e.logger.ErrorContext(ctx, "Error generating pix code", "error", err)
		createErrorCounter.Inc()
		return model.Payment{}, errors.Wrap(ErrCodeGeneration, err.Error())
	}

	now := e.now()
	p := model.Payment{
		ID:          id,
		Value:       in.Value,
		Description: in.Description,
		PixCode:     code.Payload,
		QRCode:      code.Image,
		CreatedAt:   now,
		ExpiresAt:   now.Add(time.Duration(in.ExpiresIn) * time.Second),
		Status:      model.StatusPending,
	}

	e.repo.Create(ctx, p)

	e.logger.InfoContext(ctx, "Payment created", "id", id)
	createdCounter.Inc()

	return p, nil
}

// Get returns the record with its status derived for the current instant.
// The stored record is never touched: EXPIRED exists only in the view.
func (e *Engine) Get(ctx context.Context, id string) (model.Payment, error) {
	p, err := e.repo.FindByID(ctx, id)
	if err != nil {
		return model.Payment{}, err
	}

	return p.View(e.now()), nil
}

// Simulate marks a pending payment as paid. The expiry check runs before
// the already-paid check; a payment that is both reports expired. On
// success the paid event goes out on a detached goroutine, so delivery
// failures can never fail the transition.
func (e *Engine) Simulate(ctx context.Context, id string) (model.PaidEvent, error) {
	ctx = logging.AppendCtx(ctx, slog.String("paymentId", id))

	updated, err := e.repo.Update(ctx, id, func(p *model.Payment) error {
		now := e.now()

		if now.After(p.ExpiresAt) {
			return ErrAlreadyExpired
		}
		if p.Status == model.StatusPaid {
			return ErrAlreadyPaid
		}

		paidAt := now
		p.Status = model.StatusPaid
		p.PaidAt = &paidAt

		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrAlreadyExpired):
			simulateExpiredCounter.Inc()
		case errors.Is(err, ErrAlreadyPaid):
			simulateAlreadyCounter.Inc()
		}
		return model.PaidEvent{}, err
	}

	event := updated.PaidEvent()

	go e.notifier.Notify(logging.AppendCtx(context.Background(), slog.String("paymentId", id)), EventPaymentPaid, event)

	e.logger.InfoContext(ctx, "Payment simulated", "id", id)
	simulatePaidCounter.Inc()

	return event, nil
}

// List returns a snapshot of every stored record.
func (e *Engine) List(ctx context.Context) []model.Payment {
	return e.repo.All(ctx)
}
