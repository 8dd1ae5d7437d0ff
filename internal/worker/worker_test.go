package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-booking/internal/model"
	"github.com/jwalitptl/clinic-booking/pkg/logger"
	"github.com/jwalitptl/clinic-booking/pkg/messaging/redis"
)

type cleanupRepo struct {
	before time.Time
	rows   int64
	err    error
}

func (r *cleanupRepo) ClaimPending(ctx context.Context, limit int) ([]*model.OutboxEvent, error) {
	return nil, nil
}
func (r *cleanupRepo) MarkProcessed(ctx context.Context, id uuid.UUID) error { return nil }
func (r *cleanupRepo) MarkFailed(ctx context.Context, id uuid.UUID, errMsg string, maxRetries int) error {
	return nil
}
func (r *cleanupRepo) DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error) {
	r.before = before
	return r.rows, r.err
}

func TestOutboxCleanup(t *testing.T) {
	repo := &cleanupRepo{rows: 4}
	w := NewOutboxCleanupWorker(repo, 7*24*time.Hour, time.Hour, nil)
	now := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	w.now = func() time.Time { return now }

	rows, err := w.Cleanup(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 4, rows)
	assert.Equal(t, time.Date(2026, 10, 8, 12, 0, 0, 0, time.UTC), repo.before)

	repo.err = errors.New("db down")
	_, err = w.Cleanup(context.Background())
	assert.ErrorContains(t, err, "db down")
}

type recordingMailer struct {
	mu   sync.Mutex
	to   []string
	sent []*model.BookingEvent
}

func (m *recordingMailer) SendBookingCreated(ctx context.Context, to string, event *model.BookingEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.to = append(m.to, to)
	m.sent = append(m.sent, event)
	return nil
}

func (m *recordingMailer) SendCustom(ctx context.Context, to, subject, content string) error {
	return nil
}

func (m *recordingMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

func TestBookingNotifier_Handle(t *testing.T) {
	mailer := &recordingMailer{}
	n := NewBookingNotifier(nil, mailer, "front-desk@clinic.test", nil)

	id := uuid.New()
	payload, err := json.Marshal(model.BookingEvent{BookingID: id, ServiceName: "Massage"})
	require.NoError(t, err)

	require.NoError(t, n.Handle(context.Background(), payload))
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, id, mailer.sent[0].BookingID)
	assert.Equal(t, []string{"front-desk@clinic.test"}, mailer.to)

	assert.Error(t, n.Handle(context.Background(), []byte("{")))
}

func TestBookingNotifier_RunOverRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	broker := redis.NewWithClient(client, logger.Nop())
	t.Cleanup(func() { _ = broker.Close() })

	mailer := &recordingMailer{}
	n := NewBookingNotifier(broker, mailer, "front-desk@clinic.test", logger.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- n.Run(ctx) }()

	payload, err := json.Marshal(model.BookingEvent{BookingID: uuid.New()})
	require.NoError(t, err)

	// The subscription is established asynchronously; publish until it lands.
	require.Eventually(t, func() bool {
		_ = broker.Publish(ctx, model.EventBookingCreated, payload)
		return mailer.count() > 0
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("notifier did not stop")
	}
}
