package errors

import (
	"net/http"

	"go.uber.org/zap"
)

// ErrorLogger logs a failure with request context and renders a friendly
// error page in its place.
type ErrorLogger struct {
	Log *zap.Logger
}

// NewErrorLogger constructs an ErrorLogger.
func NewErrorLogger(logger *zap.Logger) *ErrorLogger {
	return &ErrorLogger{Log: logger}
}

// LogServerError logs err at error level and renders a 500 page.
func (e *ErrorLogger) LogServerError(w http.ResponseWriter, r *http.Request, msg string, err error, userMsg, backURL string) {
	e.Log.Error(msg, e.fields(r, err)...)
	render(w, r, http.StatusInternalServerError, "Something went wrong", userMsg, backURL, "")
}

// LogBadGateway logs a backend failure and renders a 502 page with a retry
// link.
func (e *ErrorLogger) LogBadGateway(w http.ResponseWriter, r *http.Request, msg string, err error, userMsg, retryURL string) {
	e.Log.Warn(msg, e.fields(r, err)...)
	render(w, r, http.StatusBadGateway, "Service unavailable", userMsg, "/", retryURL)
}

// LogBadRequest logs err at warn level and renders a 400 page.
func (e *ErrorLogger) LogBadRequest(w http.ResponseWriter, r *http.Request, msg string, err error, userMsg, backURL string) {
	e.Log.Warn(msg, e.fields(r, err)...)
	render(w, r, http.StatusBadRequest, "Bad request", userMsg, backURL, "")
}

func (e *ErrorLogger) fields(r *http.Request, err error) []zap.Field {
	return []zap.Field{
		zap.Error(err),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
	}
}
