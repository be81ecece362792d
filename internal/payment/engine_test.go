package payment

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"pix-provider/internal/model"
	"pix-provider/internal/pix"
)

type stubGenerator struct {
	err error
}

func (g stubGenerator) Generate(req pix.Request) (pix.Code, error) {
	if g.err != nil {
		return pix.Code{}, g.err
	}
	return pix.Code{
		Payload: "000201-payload-" + req.TxID,
		Image:   "data:image/png;base64,stub",
	}, nil
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []string
	data   []any
	ch     chan struct{}
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{ch: make(chan struct{}, 16)}
}

func (n *recordingNotifier) Notify(_ context.Context, event string, data any) {
	n.mu.Lock()
	n.events = append(n.events, event)
	n.data = append(n.data, data)
	n.mu.Unlock()
	n.ch <- struct{}{}
}

func (n *recordingNotifier) waitForDelivery(t *testing.T) {
	t.Helper()
	select {
	case <-n.ch:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for notification")
	}
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.events)
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestEngine(t *testing.T, gen pix.Generator) (*Engine, *recordingNotifier, *testClock) {
	t.Helper()

	repo, _ := newTestRepository(t)
	notifier := newRecordingNotifier()
	clock := &testClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}

	engine := NewEngine(repo, gen, notifier, slog.Default()).WithClock(clock.Now)

	return engine, notifier, clock
}

func TestEngine_Create(t *testing.T) {
	sut, _, clock := newTestEngine(t, stubGenerator{})
	ctx := context.Background()

	p, err := sut.Create(ctx, CreateInput{Value: 1000, ExpiresIn: 60, Description: "order-1"})

	assert.NoError(t, err)
	assert.Len(t, p.ID, 25)
	assert.Equal(t, model.StatusPending, p.Status)
	assert.Equal(t, clock.Now(), p.CreatedAt)
	assert.Equal(t, p.CreatedAt.Add(60*time.Second), p.ExpiresAt)
	assert.Equal(t, "000201-payload-"+p.ID, p.PixCode)
	assert.Equal(t, "data:image/png;base64,stub", p.QRCode)
	assert.Nil(t, p.PaidAt)
}

func TestEngine_Create_UniqueIDs(t *testing.T) {
	sut, _, _ := newTestEngine(t, stubGenerator{})
	ctx := context.Background()

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		p, err := sut.Create(ctx, CreateInput{Value: 100, ExpiresIn: 60, Description: "x"})
		assert.NoError(t, err)
		assert.False(t, seen[p.ID], "duplicate id %s", p.ID)
		seen[p.ID] = true
	}
}

func TestEngine_Create_Validation(t *testing.T) {
	sut, _, _ := newTestEngine(t, stubGenerator{})
	ctx := context.Background()

	tests := []struct {
		name  string
		input CreateInput
	}{
		{name: "ZeroValue", input: CreateInput{Value: 0, ExpiresIn: 60, Description: "x"}},
		{name: "NegativeValue", input: CreateInput{Value: -1, ExpiresIn: 60, Description: "x"}},
		{name: "ZeroExpiresIn", input: CreateInput{Value: 100, ExpiresIn: 0, Description: "x"}},
		{name: "NegativeExpiresIn", input: CreateInput{Value: 100, ExpiresIn: -5, Description: "x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := sut.Create(ctx, tt.input)

			var validationErr *ValidationError
			assert.ErrorAs(t, err, &validationErr)
		})
	}

	assert.Empty(t, sut.List(ctx), "no record written on validation failure")
}

func TestEngine_Create_GeneratorFailure(t *testing.T) {
	sut, _, _ := newTestEngine(t, stubGenerator{err: errors.New("key rejected")})
	ctx := context.Background()

	_, err := sut.Create(ctx, CreateInput{Value: 100, ExpiresIn: 60, Description: "x"})

	assert.ErrorIs(t, err, ErrCodeGeneration)
	assert.Empty(t, sut.List(ctx), "no partial write on generator failure")
}

func TestEngine_Get(t *testing.T) {
	sut, _, clock := newTestEngine(t, stubGenerator{})
	ctx := context.Background()

	p, err := sut.Create(ctx, CreateInput{Value: 1000, ExpiresIn: 60, Description: "order-1"})
	assert.NoError(t, err)

	got, err := sut.Get(ctx, p.ID)
	assert.NoError(t, err)
	assert.Equal(t, model.StatusPending, got.Status)

	clock.Advance(2 * time.Minute)

	got, err = sut.Get(ctx, p.ID)
	assert.NoError(t, err)
	assert.Equal(t, model.StatusExpired, got.Status, "view derives EXPIRED past expiry")

	stored := sut.List(ctx)
	assert.Equal(t, model.StatusPending, stored[0].Status, "EXPIRED is never persisted")
}

func TestEngine_Get_NotFound(t *testing.T) {
	sut, _, _ := newTestEngine(t, stubGenerator{})

	_, err := sut.Get(context.Background(), "unknown")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEngine_Get_PaidNeverExpires(t *testing.T) {
	sut, notifier, clock := newTestEngine(t, stubGenerator{})
	ctx := context.Background()

	p, _ := sut.Create(ctx, CreateInput{Value: 1000, ExpiresIn: 60, Description: "order-1"})

	_, err := sut.Simulate(ctx, p.ID)
	assert.NoError(t, err)
	notifier.waitForDelivery(t)

	clock.Advance(2 * time.Minute)

	got, err := sut.Get(ctx, p.ID)
	assert.NoError(t, err)
	assert.Equal(t, model.StatusPaid, got.Status)
}

func TestEngine_Simulate(t *testing.T) {
	sut, notifier, clock := newTestEngine(t, stubGenerator{})
	ctx := context.Background()

	p, _ := sut.Create(ctx, CreateInput{Value: 1000, ExpiresIn: 60, Description: "order-1"})

	event, err := sut.Simulate(ctx, p.ID)
	assert.NoError(t, err)
	assert.Equal(t, p.ID, event.ID)
	assert.Equal(t, "order-1", event.Description)
	assert.Equal(t, model.StatusPaid, event.Status)
	assert.NotNil(t, event.PaidAt)
	assert.Equal(t, clock.Now(), *event.PaidAt)

	notifier.waitForDelivery(t)
	assert.Equal(t, []string{EventPaymentPaid}, notifier.events)
	assert.Equal(t, event, notifier.data[0], "webhook body equals the simulate projection")
}

func TestEngine_Simulate_AlreadyPaidIsTerminal(t *testing.T) {
	sut, notifier, _ := newTestEngine(t, stubGenerator{})
	ctx := context.Background()

	p, _ := sut.Create(ctx, CreateInput{Value: 1000, ExpiresIn: 60, Description: "order-1"})

	first, err := sut.Simulate(ctx, p.ID)
	assert.NoError(t, err)
	notifier.waitForDelivery(t)

	_, err = sut.Simulate(ctx, p.ID)
	assert.ErrorIs(t, err, ErrAlreadyPaid)

	got, err := sut.Get(ctx, p.ID)
	assert.NoError(t, err)
	assert.Equal(t, *first.PaidAt, *got.PaidAt, "paid_at is set exactly once")

	assert.Equal(t, 1, notifier.count(), "no notification for failed simulate")
}

func TestEngine_Simulate_Expired(t *testing.T) {
	sut, notifier, clock := newTestEngine(t, stubGenerator{})
	ctx := context.Background()

	p, _ := sut.Create(ctx, CreateInput{Value: 500, ExpiresIn: 1, Description: "order-2"})

	clock.Advance(2 * time.Second)

	_, err := sut.Simulate(ctx, p.ID)
	assert.ErrorIs(t, err, ErrAlreadyExpired)
	assert.Equal(t, 0, notifier.count())

	stored := sut.List(ctx)
	assert.Equal(t, model.StatusPending, stored[0].Status)
	assert.Nil(t, stored[0].PaidAt)
}

func TestEngine_Simulate_ExpiryCheckedBeforePaid(t *testing.T) {
	sut, notifier, clock := newTestEngine(t, stubGenerator{})
	ctx := context.Background()

	p, _ := sut.Create(ctx, CreateInput{Value: 1000, ExpiresIn: 60, Description: "order-1"})

	_, err := sut.Simulate(ctx, p.ID)
	assert.NoError(t, err)
	notifier.waitForDelivery(t)

	clock.Advance(2 * time.Minute)

	// Expired and paid at the same time: expiry wins.
	_, err = sut.Simulate(ctx, p.ID)
	assert.ErrorIs(t, err, ErrAlreadyExpired)
}

func TestEngine_Simulate_NotFound(t *testing.T) {
	sut, _, _ := newTestEngine(t, stubGenerator{})

	_, err := sut.Simulate(context.Background(), "unknown")
	assert.ErrorIs(t, err, ErrNotFound)
}
