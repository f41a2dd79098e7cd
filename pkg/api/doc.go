// Package api is the HTTP client for the server-side notification endpoints.
//
// It covers the three operations the sync client needs:
//
//   - Pending: GET the notifications created since the previous fetch, used
//     by the polling channel. The server marks returned items delivered.
//   - MarkRead: POST the mark-read mutation for one notification.
//   - UnreadCount: GET the server-authoritative unread count, used for
//     counter resynchronization.
//
// A 401 response on any operation maps to channel.ErrUnauthorized, the
// terminal "session ended" signal. Every other non-success response wraps
// ErrRequestFailed and is treated as transient by callers.
//
//	client, err := api.New("https://app.example.com")
//	if err != nil { ... }
//	events, err := client.Pending(ctx, userID)
package api
