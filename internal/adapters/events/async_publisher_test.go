package events

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type gatedPublisher struct {
	started chan struct{}
	release chan struct{}

	mu       sync.Mutex
	received []string
}

func newGatedPublisher() *gatedPublisher {
	return &gatedPublisher{started: make(chan struct{}, 16), release: make(chan struct{})}
}

func (p *gatedPublisher) Publish(ctx context.Context, eventType string, _ []byte, _ string) error {
	p.started <- struct{}{}
	select {
	case <-p.release:
	case <-ctx.Done():
		return ctx.Err()
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.received = append(p.received, eventType)
	return nil
}

func (p *gatedPublisher) Received() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.received...)
}

func TestAsyncPublisherDoesNotWaitForDelivery(t *testing.T) {
	inner := newGatedPublisher()
	pub := NewAsyncPublisher(nil, inner, 8, time.Minute)

	returned := make(chan error, 1)
	go func() {
		returned <- pub.Publish(context.Background(), "deferred_deeplink.created", []byte(`{}`), "fp")
	}()
	select {
	case err := <-returned:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked on a stalled broker")
	}

	close(inner.release)
	require.NoError(t, pub.Close())
	assert.Equal(t, []string{"deferred_deeplink.created"}, inner.Received())
}

func TestAsyncPublisherDrainsOnClose(t *testing.T) {
	inner := newGatedPublisher()
	close(inner.release)
	pub := NewAsyncPublisher(nil, inner, 8, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	for _, eventType := range []string{"a", "b", "c"} {
		require.NoError(t, pub.Publish(ctx, eventType, nil, "fp"))
	}
	cancel()

	require.NoError(t, pub.Close())
	assert.Equal(t, []string{"a", "b", "c"}, inner.Received(), "request cancellation must not abort queued events")
	assert.ErrorIs(t, pub.Publish(context.Background(), "d", nil, "fp"), ErrPublisherClosed)
	require.NoError(t, pub.Close())
}

func TestAsyncPublisherDropsWhenQueueFull(t *testing.T) {
	inner := newGatedPublisher()
	pub := NewAsyncPublisher(nil, inner, 1, time.Minute)

	require.NoError(t, pub.Publish(context.Background(), "first", nil, "fp"))
	<-inner.started
	require.NoError(t, pub.Publish(context.Background(), "second", nil, "fp"))
	assert.ErrorIs(t, pub.Publish(context.Background(), "third", nil, "fp"), ErrQueueFull)

	close(inner.release)
	require.NoError(t, pub.Close())
	assert.Equal(t, []string{"first", "second"}, inner.Received())
}

func TestAsyncPublisherBoundsEachDelivery(t *testing.T) {
	inner := newGatedPublisher()
	pub := NewAsyncPublisher(nil, inner, 1, 20*time.Millisecond)

	require.NoError(t, pub.Publish(context.Background(), "stalled", nil, "fp"))
	require.NoError(t, pub.Close())
	assert.Empty(t, inner.Received(), "a delivery that exceeds the timeout is abandoned")
}
