// Package logger builds *slog.Logger instances with functional options and
// provides attribute helpers so every package logs deliveries, lines and
// jobs under the same keys.
//
// New picks a text or JSON slog handler, applies static attributes and wraps
// it with LogHandlerDecorator, which pulls extra attributes out of the
// context on every record:
//
//	log := logger.New(
//		logger.WithEnvironment("production", "notifyd"),
//		logger.WithContextValue("request_id", requestIDKey{}),
//	)
//	log.LogAttrs(ctx, slog.LevelInfo, "notification delivered",
//		logger.Delivery("PostsDelivery"),
//		logger.Line("mailer"),
//		logger.Action("published"),
//	)
//
// WithFileOutput writes to a size-rotated file via lumberjack. Config maps
// LOG_* environment variables to options for use with pkg/config.
//
// Error and Errors return an empty attribute for nil errors, so they can be
// passed unconditionally.
package logger
