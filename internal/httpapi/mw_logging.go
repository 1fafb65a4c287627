package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

func AccessLog(log zerolog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rid := GetRequestID(r.Context())

		reqLog := log.With().
			Str("rid", rid).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Logger()

		reqLog.Debug().Msg("request started")

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		ev := reqLog.Info()
		if status >= 500 {
			ev = reqLog.Error()
		}
		ev.Int("status", status).
			Int("bytes", ww.BytesWritten()).
			Dur("dur", time.Since(start)).
			Msg("request completed")
	})
}
