package payment

import (
	"context"
	"log/slog"
	"sync"

	"github.com/VictoriaMetrics/metrics"

	"pix-provider/internal/model"
	"pix-provider/internal/store"
)

var (
	persistErrorCounter   = metrics.GetOrCreateCounter(`store_persist_total{result="failed"}`)
	persistSuccessCounter = metrics.GetOrCreateCounter(`store_persist_total{result="success"}`)
)

// Repository holds the in-memory payment collection backed by the file
// store. A single mutex serializes all mutations, which closes the
// lost-update window a concurrent full-collection rewrite would open.
// Persistence is best-effort: a failed save is logged and counted, and
// the in-memory state keeps the mutation.
type Repository struct {
	mu       sync.Mutex
	payments []model.Payment
	store    *store.FileStore
	logger   *slog.Logger
}

func NewRepository(fs *store.FileStore, logger *slog.Logger) (*Repository, error) {
	payments, err := fs.Load()
	if err != nil {
		return nil, err
	}

	return &Repository{
		payments: payments,
		store:    fs,
		logger:   logger,
	}, nil
}

func (r *Repository) Create(ctx context.Context, p model.Payment) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.payments = append(r.payments, p)
	r.persist(ctx)
}

func (r *Repository) FindByID(ctx context.Context, id string) (model.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range r.payments {
		if p.ID == id {
			return p, nil
		}
	}

	return model.Payment{}, ErrNotFound
}

// Update applies mutate to the record under the mutation gate and writes
// the collection back. A mutator error aborts the update with nothing
// changed, which keeps transition checks and the write atomic.
func (r *Repository) Update(ctx context.Context, id string, mutate func(*model.Payment) error) (model.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.payments {
		if r.payments[i].ID != id {
			continue
		}

		updated := r.payments[i]
		if err := mutate(&updated); err != nil {
			return model.Payment{}, err
		}

		r.payments[i] = updated
		r.persist(ctx)

		return updated, nil
	}

	return model.Payment{}, ErrNotFound
}

func (r *Repository) All(ctx context.Context) []model.Payment {
	r.mu.Lock()
	defer r.mu.Unlock()

	snapshot := make([]model.Payment, len(r.payments))
	copy(snapshot, r.payments)

	return snapshot
}

// persist is called with the lock held.
func (r *Repository) persist(ctx context.Context) {
	if err := r.store.Save(r.payments); err != nil {
		r.logger.ErrorContext(ctx, "Error persisting payment collection", "error", err)
		persistErrorCounter.Inc()
		return
	}

	persistSuccessCounter.Inc()
}
