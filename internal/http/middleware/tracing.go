package middleware

import (
	"net/http"

	"go.opencensus.io/plugin/ochttp"
	"go.opencensus.io/trace"
)

// Tracing starts an OpenCensus server span per request. Attributes are
// added inside the ochttp handler, where the span already exists.
func Tracing(next http.Handler) http.Handler {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if span := trace.FromContext(ctx); span != nil {
			span.AddAttributes(
				trace.StringAttribute("http.host", r.Host),
				trace.StringAttribute("http.user_agent", r.UserAgent()),
				trace.StringAttribute("http.method", r.Method),
				trace.StringAttribute("http.path", r.URL.Path),
			)
			if requestID := r.Header.Get("X-Request-ID"); requestID != "" {
				span.AddAttributes(trace.StringAttribute("http.request_id", requestID))
			}
		}

		next.ServeHTTP(&traceResponseWriter{ResponseWriter: w, r: r}, r)
	})

	return &ochttp.Handler{
		Handler: inner,
		FormatSpanName: func(r *http.Request) string {
			return r.Method + " " + r.URL.Path
		},
		IsPublicEndpoint: true,
	}
}

// TagUser records the authenticated user on the request span. It must run
// after RequireAuth.
func TagUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if user, ok := UserFromContext(r.Context()); ok {
			if span := trace.FromContext(r.Context()); span != nil {
				span.AddAttributes(trace.StringAttribute("enduser.id", user.ID))
			}
		}
		next.ServeHTTP(w, r)
	})
}

// traceResponseWriter records the status code on the span.
type traceResponseWriter struct {
	http.ResponseWriter
	r          *http.Request
	statusCode int
}

func (trw *traceResponseWriter) WriteHeader(code int) {
	trw.statusCode = code

	if span := trace.FromContext(trw.r.Context()); span != nil {
		span.AddAttributes(trace.Int64Attribute("http.status_code", int64(code)))
		if code >= 500 {
			span.SetStatus(trace.Status{
				Code:    trace.StatusCodeUnknown,
				Message: http.StatusText(code),
			})
		}
	}

	trw.ResponseWriter.WriteHeader(code)
}

// Flush keeps SSE streaming working through the wrapper.
func (trw *traceResponseWriter) Flush() {
	if flusher, ok := trw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

var _ http.Flusher = (*traceResponseWriter)(nil)
