package reconnect_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notisync/pkg/channel"
	"github.com/dmitrymomot/notisync/pkg/reconnect"
)

// scriptedChannel returns a scripted result per Open call, counted from 1.
type scriptedChannel struct {
	mu    sync.Mutex
	calls int
	open  func(call int, ctx context.Context) (*channel.Stream, error)
}

func (c *scriptedChannel) Kind() channel.Kind { return channel.KindPush }

func (c *scriptedChannel) Open(ctx context.Context, userID int64) (*channel.Stream, error) {
	c.mu.Lock()
	c.calls++
	call := c.calls
	c.mu.Unlock()
	return c.open(call, ctx)
}

func (c *scriptedChannel) openCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

// idleStream returns a stream that stays open until ctx is cancelled.
func idleStream(ctx context.Context) *channel.Stream {
	stream := channel.NewStream(1)
	go func() {
		<-ctx.Done()
		stream.Close(ctx.Err())
	}()
	return stream
}

func TestNew_NilChannel(t *testing.T) {
	t.Parallel()

	_, err := reconnect.New(nil)
	assert.ErrorIs(t, err, reconnect.ErrNilChannel)
}

func TestSupervisor_StartTwice(t *testing.T) {
	t.Parallel()

	ch := &scriptedChannel{open: func(_ int, ctx context.Context) (*channel.Stream, error) {
		return idleStream(ctx), nil
	}}

	sup, err := reconnect.New(ch)
	require.NoError(t, err)

	require.NoError(t, sup.Start(context.Background(), 42))
	defer sup.Stop()

	assert.ErrorIs(t, sup.Start(context.Background(), 42), reconnect.ErrAlreadyRunning)
}

func TestSupervisor_ReconnectsAfterFailure(t *testing.T) {
	t.Parallel()

	events := make(chan channel.Event, 16)
	connects := make(chan struct{}, 16)

	ch := &scriptedChannel{open: func(call int, ctx context.Context) (*channel.Stream, error) {
		switch call {
		case 1:
			// First attempt fails outright.
			return nil, channel.ErrConnectionLost
		case 2:
			// Second attempt delivers one event, then drops.
			stream := channel.NewStream(1)
			go func() {
				_ = stream.Emit(ctx, channel.Event{ID: "n1", Message: "hello"})
				stream.Close(channel.ErrConnectionLost)
			}()
			return stream, nil
		default:
			return idleStream(ctx), nil
		}
	}}

	sup, err := reconnect.New(ch,
		reconnect.WithBackoff(reconnect.FixedBackoff{Interval: time.Millisecond}),
		reconnect.WithOnConnected(func(context.Context) { connects <- struct{}{} }),
		reconnect.WithOnEvent(func(ev channel.Event) { events <- ev }),
	)
	require.NoError(t, err)

	require.NoError(t, sup.Start(context.Background(), 42))
	defer sup.Stop()

	// Event from the second connection arrives despite the first failure.
	select {
	case ev := <-events:
		assert.Equal(t, "n1", ev.ID)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for event")
	}

	// The drop after the event triggers a third connection.
	require.Eventually(t, func() bool { return ch.openCalls() >= 3 }, 5*time.Second, time.Millisecond)
	require.Eventually(t, func() bool { return len(connects) >= 2 }, 5*time.Second, time.Millisecond)
	require.Eventually(t, func() bool { return sup.State() == reconnect.StateConnected }, 5*time.Second, time.Millisecond)

	sup.Stop()
	assert.Equal(t, reconnect.StateDisconnected, sup.State())
}

func TestSupervisor_OnConnectedFiresBeforeEvents(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var order []string
	record := func(step string) {
		mu.Lock()
		order = append(order, step)
		mu.Unlock()
	}

	ch := &scriptedChannel{open: func(_ int, ctx context.Context) (*channel.Stream, error) {
		stream := channel.NewStream(1)
		go func() {
			_ = stream.Emit(ctx, channel.Event{ID: "n1", Message: "x"})
			<-ctx.Done()
			stream.Close(ctx.Err())
		}()
		return stream, nil
	}}

	sup, err := reconnect.New(ch,
		reconnect.WithOnConnected(func(context.Context) { record("connected") }),
		reconnect.WithOnEvent(func(channel.Event) { record("event") }),
	)
	require.NoError(t, err)

	require.NoError(t, sup.Start(context.Background(), 42))
	defer sup.Stop()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(order) >= 2
	}, 5*time.Second, time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"connected", "event"}, order[:2],
		"resync hook must run before any event of the connection is applied")
}

func TestSupervisor_UnauthorizedOnOpenIsTerminal(t *testing.T) {
	t.Parallel()

	ended := make(chan struct{})

	ch := &scriptedChannel{open: func(_ int, _ context.Context) (*channel.Stream, error) {
		return nil, channel.ErrUnauthorized
	}}

	sup, err := reconnect.New(ch,
		reconnect.WithBackoff(reconnect.FixedBackoff{Interval: time.Millisecond}),
		reconnect.WithOnSessionEnded(func() { close(ended) }),
	)
	require.NoError(t, err)

	require.NoError(t, sup.Start(context.Background(), 42))
	defer sup.Stop()

	select {
	case <-ended:
	case <-time.After(5 * time.Second):
		t.Fatal("session end hook never fired")
	}

	// Give a would-be retry loop time to misbehave; no second open may happen.
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 1, ch.openCalls())
	assert.Equal(t, reconnect.StateDisconnected, sup.State())
}

func TestSupervisor_UnauthorizedFromStreamIsTerminal(t *testing.T) {
	t.Parallel()

	ended := make(chan struct{})

	ch := &scriptedChannel{open: func(_ int, _ context.Context) (*channel.Stream, error) {
		stream := channel.NewStream(1)
		stream.Close(channel.ErrUnauthorized)
		return stream, nil
	}}

	sup, err := reconnect.New(ch,
		reconnect.WithBackoff(reconnect.FixedBackoff{Interval: time.Millisecond}),
		reconnect.WithOnSessionEnded(func() { close(ended) }),
	)
	require.NoError(t, err)

	require.NoError(t, sup.Start(context.Background(), 42))
	defer sup.Stop()

	select {
	case <-ended:
	case <-time.After(5 * time.Second):
		t.Fatal("session end hook never fired")
	}

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 1, ch.openCalls())
}

func TestSupervisor_StopCancelsBackoff(t *testing.T) {
	t.Parallel()

	states := make(chan reconnect.State, 16)

	ch := &scriptedChannel{open: func(_ int, _ context.Context) (*channel.Stream, error) {
		return nil, channel.ErrConnectionLost
	}}

	sup, err := reconnect.New(ch,
		reconnect.WithBackoff(reconnect.FixedBackoff{Interval: time.Hour}),
		reconnect.WithOnStateChange(func(s reconnect.State) { states <- s }),
	)
	require.NoError(t, err)

	require.NoError(t, sup.Start(context.Background(), 42))

	require.Eventually(t, func() bool { return sup.State() == reconnect.StateBackoff }, 5*time.Second, time.Millisecond)

	// Stop must not wait out the hour-long backoff timer.
	stopped := make(chan struct{})
	go func() {
		sup.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(5 * time.Second):
		t.Fatal("Stop blocked on a pending backoff timer")
	}

	assert.Equal(t, reconnect.StateDisconnected, sup.State())
	// Stop is idempotent.
	sup.Stop()
}
