package utils

import (
	"context"

	"github.com/getsentry/sentry-go"
	sentryecho "github.com/getsentry/sentry-go/echo"
	"github.com/labstack/echo/v4"
)

func GetTraceID(c echo.Context) string {
	if span := sentryecho.GetSpanFromContext(c); span != nil {
		return span.TraceID.String()
	}
	return ""
}

// TraceparentFromContext returns the sentry-trace header value of the span attached to ctx.
func TraceparentFromContext(ctx context.Context) string {
	if span := sentry.SpanFromContext(ctx); span != nil {
		return span.ToSentryTrace()
	}
	return ""
}
