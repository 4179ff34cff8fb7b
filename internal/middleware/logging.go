package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"k8s.io/klog/v2"
)

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    int64
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.written += int64(n)
	return n, err
}

// LoggingMiddleware logs HTTP requests. Server errors log at error level,
// everything else at V(2).
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(wrapped, r)

		duration := time.Since(start)
		reqID := middleware.GetReqID(r.Context())
		if wrapped.statusCode >= http.StatusInternalServerError {
			klog.Errorf("req=%s method=%s path=%s status=%d duration=%s bytes=%d ip=%s",
				reqID, r.Method, r.URL.Path, wrapped.statusCode, duration, wrapped.written, r.RemoteAddr)
			return
		}
		klog.V(2).Infof("req=%s method=%s path=%s status=%d duration=%s bytes=%d ip=%s user_agent=%s",
			reqID, r.Method, r.URL.Path, wrapped.statusCode, duration, wrapped.written, r.RemoteAddr, r.UserAgent())
	})
}
