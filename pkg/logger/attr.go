package logger

import "log/slog"

// Group creates a slog group attribute from the provided attributes.
func Group(name string, attrs ...slog.Attr) slog.Attr {
	return slog.Attr{Key: name, Value: slog.GroupValue(attrs...)}
}

// Error creates an attribute for a single error under the key "error".
// If err is nil, it returns an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// UserID records the user identifier under the key "user_id".
func UserID(id int64) slog.Attr {
	return slog.Int64("user_id", id)
}

// NotificationID records the notification identifier under the key "notification_id".
// If id is empty, it returns an empty Attr.
func NotificationID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("notification_id", id)
}

// ClientID records the sync client instance identifier under the key "client_id".
// If id is nil, it returns an empty Attr.
func ClientID(id any) slog.Attr {
	if id == nil {
		return slog.Attr{}
	}
	return slog.Any("client_id", id)
}

// ChannelKind records the transport kind under the key "channel".
func ChannelKind(kind string) slog.Attr {
	return slog.String("channel", kind)
}

// State records a connection state name under the key "state".
func State(state string) slog.Attr {
	return slog.String("state", state)
}

// Attempt records a reconnection attempt number under the key "attempt".
func Attempt(n int) slog.Attr {
	return slog.Int("attempt", n)
}

// Count records an unread counter value under the key "count".
func Count(v int) slog.Attr {
	return slog.Int("count", v)
}

// Duration records a duration under the key "duration".
func Duration(d any) slog.Attr {
	return slog.Any("duration", d)
}

// Component records the component name under the key "component".
func Component(name string) slog.Attr {
	return slog.String("component", name)
}
