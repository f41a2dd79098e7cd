// Package logger provides a thin factory around Go's slog package plus helper
// attribute constructors shared across the notisync packages.
//
// The single factory – New – creates a *slog.Logger configured by a set of
// Option functions:
//
//   - Select an output format (text or json)
//   - Set the minimum log level
//   - Supply default slog.Attr values applied to every record
//
// Helper constructors such as Error, UserID, NotificationID or ChannelKind
// live in attr.go and keep attribute naming consistent across the codebase.
//
// # Usage
//
//	import "github.com/dmitrymomot/notisync/pkg/logger"
//
//	log := logger.New(logger.WithDevelopment("web-frontend"))
//	logger.SetAsDefault(log)
//
//	log.Info("notification arrived",
//	    logger.UserID(42),
//	    logger.NotificationID("n1"),
//	)
//
// # Error Handling
//
// The Error helper produces an attribute only when the supplied error value
// is non-nil allowing calls like:
//
//	log.Info("operation finished", logger.Error(err))
//
// without an additional nil check.
package logger
