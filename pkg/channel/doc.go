// Package channel abstracts the transports that deliver notifications to a
// client: a persistent Redis pub/sub push subscription and a periodic HTTP
// polling fallback. Both variants produce the same lazy, unbounded Stream of
// decoded Events, so the orchestrator, counter and dedup logic are written
// once and stay polymorphic over the delivery mechanism.
//
// # Push
//
//	rdb, err := channel.ConnectRedis(ctx, redisCfg)
//	if err != nil { ... }
//	push := channel.NewPushChannel(rdb)
//	stream, err := push.Open(ctx, userID)
//
// Push streams terminate with ErrConnectionLost when the subscription drops;
// callers are expected to wrap the channel in a reconnect supervisor.
//
// # Poll
//
//	poll := channel.NewPollChannel(apiClient, channel.WithPollInterval(10*time.Second))
//	stream, err := poll.Open(ctx, userID)
//
// Poll streams only terminate on context cancellation or an unauthorized
// response; every other failure skips a tick and polling continues.
//
// # Decoding
//
// Wire payloads are validated by DecodeEvent, which fails closed with
// ErrMalformedEvent instead of letting half-filled events reach the UI.
// Malformed push payloads are dropped and logged without ending the
// subscription.
package channel
