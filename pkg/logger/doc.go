// Package logger builds *slog.Logger instances for the web client.
//
// New assembles a text or JSON handler from functional options and wraps it
// with LogHandlerDecorator, which runs registered ContextExtractor callbacks
// on every record. The request id extractor from pkg/requestid is installed
// this way so that every log line of a request carries its X-Request-ID.
//
// NewFromConfig maps Config (LOG_LEVEL, LOG_FORMAT, APP_ENV) onto the same
// options. Development logs text at debug level; staging and production log
// JSON at info level. Explicit level and format settings override both.
//
// The attribute helpers in attr.go keep key names consistent:
//
//	log.WarnContext(ctx, "login rejected",
//	    logger.Operation("login"),
//	    logger.Username(name),
//	    logger.Status(resp.StatusCode),
//	)
//
// Error, Errors, RequestID and Username return an empty slog.Attr for zero
// values so they can be passed unconditionally.
package logger
