package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) redis.UniversalClient {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestPublishThenConsume(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	pub := NewPublisher(client)
	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	pub.now = func() time.Time { return fixed }

	require.NoError(t, pub.Publish(ctx, UserEventsStream, UserPasswordResetRequested, PasswordResetRequestedEvent{
		UserID: "usr-abc", Name: "Alice", Email: "a@x.com", ResetLink: "https://cellar.test/reset/usr-abc/tok",
	}))

	var got []Event
	sub := NewSubscriber(client, SubscriberConfig{
		Group:         "mailer",
		Consumer:      "test",
		Stream:        UserEventsStream,
		BlockDuration: 10 * time.Millisecond,
		Handlers: map[string]Handler{
			UserPasswordResetRequested: func(ctx context.Context, event Event) error {
				got = append(got, event)
				return nil
			},
		},
	})
	require.NoError(t, client.XGroupCreateMkStream(ctx, UserEventsStream, "mailer", "0").Err())

	acked, err := sub.readMessages(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, acked)
	require.Len(t, got, 1)
	assert.Equal(t, UserPasswordResetRequested, got[0].Type)
	assert.True(t, fixed.Equal(got[0].Timestamp))

	var data PasswordResetRequestedEvent
	require.NoError(t, got[0].Decode(&data))
	assert.Equal(t, "Alice", data.Name)
	assert.Equal(t, "https://cellar.test/reset/usr-abc/tok", data.ResetLink)

	pending, err := client.XPending(ctx, UserEventsStream, "mailer").Result()
	require.NoError(t, err)
	assert.EqualValues(t, 0, pending.Count)
}

func TestFailedMessageStaysPending(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, NewPublisher(client).Publish(ctx, UserEventsStream, UserDeleted, UserDeletedEvent{UserID: "usr-abc"}))

	sub := NewSubscriber(client, SubscriberConfig{
		Group:         "mailer",
		Consumer:      "test",
		Stream:        UserEventsStream,
		BlockDuration: 10 * time.Millisecond,
		Handlers: map[string]Handler{
			UserDeleted: func(ctx context.Context, event Event) error {
				return errors.New("smtp down")
			},
		},
	})
	require.NoError(t, client.XGroupCreateMkStream(ctx, UserEventsStream, "mailer", "0").Err())

	acked, err := sub.readMessages(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, acked)

	pending, err := client.XPending(ctx, UserEventsStream, "mailer").Result()
	require.NoError(t, err)
	assert.EqualValues(t, 1, pending.Count)
}

func TestEventsAreRoutedByType(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	pub := NewPublisher(client)
	require.NoError(t, pub.Publish(ctx, UserEventsStream, UserCreated, UserCreatedEvent{UserID: "usr-abc"}))
	require.NoError(t, pub.Publish(ctx, UserEventsStream, UserPasswordResetRequested, PasswordResetRequestedEvent{UserID: "usr-abc"}))
	require.NoError(t, pub.Publish(ctx, UserEventsStream, UserDeleted, UserDeletedEvent{UserID: "usr-abc"}))

	var resets, deletes int
	sub := NewSubscriber(client, SubscriberConfig{
		Group:         "mailer",
		Consumer:      "test",
		Stream:        UserEventsStream,
		BlockDuration: 10 * time.Millisecond,
		Handlers: map[string]Handler{
			UserPasswordResetRequested: func(ctx context.Context, event Event) error { resets++; return nil },
			UserDeleted:                func(ctx context.Context, event Event) error { deletes++; return nil },
		},
	})
	require.NoError(t, client.XGroupCreateMkStream(ctx, UserEventsStream, "mailer", "0").Err())

	acked, err := sub.readMessages(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, acked, "unrouted events are acknowledged too")
	assert.Equal(t, 1, resets)
	assert.Equal(t, 1, deletes)

	pending, err := client.XPending(ctx, UserEventsStream, "mailer").Result()
	require.NoError(t, err)
	assert.EqualValues(t, 0, pending.Count)
}

func TestStartStopsOnCancel(t *testing.T) {
	client := newTestClient(t)
	ctx, cancel := context.WithCancel(context.Background())

	sub := NewSubscriber(client, SubscriberConfig{
		Group:         "mailer",
		Consumer:      "test",
		Stream:        UserEventsStream,
		BlockDuration: 10 * time.Millisecond,
		Handlers:      map[string]Handler{},
	})

	done := make(chan error, 1)
	go func() { done <- sub.Start(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(3 * time.Second):
		t.Fatal("subscriber did not stop")
	}
}

func TestPublishFailure(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	mr.Close()

	err := NewPublisher(client).Publish(context.Background(), UserEventsStream, UserCreated, UserCreatedEvent{UserID: "usr-abc"})
	assert.Error(t, err)
}
