// Package reconnect supervises a push channel that can disconnect.
//
// The Supervisor runs an explicit state machine
//
//	disconnected -> connecting -> connected -> backoff -> connecting -> ...
//
// with a sequential loop, so there is never more than one live open attempt
// and events are delivered one at a time. Stopping the supervisor cancels a
// pending backoff timer deterministically; a dangling reconnect can never
// fire after teardown.
//
// Recoverable transport failures are absorbed and retried with the
// configured BackoffStrategy (capped exponential with jitter by default; a
// constant delay is available as FixedBackoff). A session rejection
// is terminal: the supervisor fires OnSessionEnded and stops for good.
//
//	sup, err := reconnect.New(pushChannel,
//	    reconnect.WithOnConnected(func(ctx context.Context) { resyncCounter(ctx) }),
//	    reconnect.WithOnEvent(handleEvent),
//	)
//	if err != nil { ... }
//	if err := sup.Start(ctx, userID); err != nil { ... }
//	defer sup.Stop()
package reconnect
