package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishSubscribe(t *testing.T) {
	mr := miniredis.RunT(t)
	broker := NewWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), nil)
	defer broker.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	msgs, err := broker.Subscribe(ctx, "booking.created")
	require.NoError(t, err)

	require.NoError(t, broker.Publish(ctx, "booking.created", []byte(`{"booking_id":"b-1"}`)))

	select {
	case msg := <-msgs:
		assert.JSONEq(t, `{"booking_id":"b-1"}`, string(msg))
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
	}

	cancel()
	select {
	case _, ok := <-msgs:
		for ok {
			_, ok = <-msgs
		}
	case <-time.After(2 * time.Second):
		t.Fatal("subscription channel not closed after cancel")
	}
}

func TestNewRedisBrokerRejectsBadURL(t *testing.T) {
	_, err := NewRedisBroker(Config{URL: "://nope"}, nil)
	assert.Error(t, err)
}

func TestPublishFailsWhenRedisDown(t *testing.T) {
	mr := miniredis.RunT(t)
	broker := NewWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1}), nil)
	defer broker.Close()
	mr.Close()

	err := broker.Publish(context.Background(), "booking.created", []byte("{}"))
	assert.Error(t, err)
}
