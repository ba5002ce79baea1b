package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"taskboard/internal/logging"
	"taskboard/internal/metrics"
)

// ZapRequestLogger attaches a request-scoped logger to the context, logs each completed
// request and records its duration under the matched route pattern.
func ZapRequestLogger(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			reqLogger := logger
			if reqID := middleware.GetReqID(r.Context()); reqID != "" {
				reqLogger = logger.With(zap.String("request_id", reqID))
			}
			r = r.WithContext(logging.WithContext(r.Context(), reqLogger))

			defer func() {
				elapsed := time.Since(start)
				route := r.URL.Path
				if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
					route = rctx.RoutePattern()
				}
				metrics.RecordHTTPRequestDuration(r.Method, route, strconv.Itoa(ww.Status()), elapsed)

				fields := []zap.Field{
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.String("route", route),
					zap.Int("status", ww.Status()),
					zap.Int("bytes", ww.BytesWritten()),
					zap.Duration("duration", elapsed),
					zap.String("remote_ip", r.RemoteAddr),
				}

				if reqLogger.Core().Enabled(zapcore.DebugLevel) {
					reqLogger.Info(fmt.Sprintf("%s %s %d %s", r.Method, r.URL.Path, ww.Status(), elapsed), fields...)
				} else {
					reqLogger.Info("request completed", fields...)
				}
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
