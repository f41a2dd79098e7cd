// Package notisync keeps a user's client-side notification state
// synchronized with a notification server.
//
// A Client ties together four concerns:
//
//   - Delivery: notifications arrive over a channel.Channel, either a
//     persistent push subscription (Redis pub/sub) or a periodic polling
//     loop against the HTTP API.
//   - Unread counter: every delivered notification increments a local
//     counter; marking one read decrements it only after the server
//     confirmed the mutation. The counter never goes negative.
//   - Resynchronization: after every successful (re)connection the counter
//     is replaced with the server's authoritative count, so notifications
//     missed while disconnected cannot cause silent undercounting.
//     Notifications delivered while a resync request is in flight win over
//     the stale response.
//   - Deduplication: concurrent mark-read calls for the same notification
//     collapse into a single server request.
//
// Push channels are supervised: transient connection failures trigger
// capped exponential backoff with jitter and automatic reconnection, while
// an authorization rejection ends the session permanently and is surfaced
// through the session-ended callback.
//
// # Usage
//
//	backend, err := api.New("https://api.example.com")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	client, err := notisync.New(backend, pushChannel,
//		notisync.WithOnNotification(showToast),
//		notisync.WithOnCounterChanged(updateBadge),
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	if err := client.Start(ctx, userID, initialUnread); err != nil {
//		log.Fatal(err)
//	}
//	defer client.Stop()
package notisync
