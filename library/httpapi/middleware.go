package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/AntonStoeckl/library-ledger-go/library/shared/core"
)

const bearerPrefix = "Bearer "

// statusRecorder captures the response status for the request log.
type statusRecorder struct {
	http.ResponseWriter
	status    int
	bytesSent int
}

func (w *statusRecorder) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusRecorder) Write(b []byte) (int, error) {
	n, err := w.ResponseWriter.Write(b)
	w.bytesSent += n

	return n, err
}

func (a *API) recoverPanics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if p := recover(); p != nil {
				a.logger.ErrorContext(r.Context(), "request panic",
					"method", r.Method,
					"uri", r.RequestURI,
					"panic", fmt.Sprint(p),
					"stack", string(debug.Stack()),
				)
				a.writeError(w, r, fmt.Errorf("panic: %v", p))
			}
		}()

		next.ServeHTTP(w, r)
	})
}

// logRequests logs every response at a level derived from its status: 5xx error, 4xx warn, otherwise info.
func (a *API) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(recorder, r)

		args := []any{
			"method", r.Method,
			"uri", r.RequestURI,
			"status", recorder.status,
			"bytes_sent", recorder.bytesSent,
			"duration_ms", float64(time.Since(start).Microseconds()) / 1000,
		}

		switch {
		case recorder.status >= http.StatusInternalServerError:
			a.logger.ErrorContext(r.Context(), "response", args...)
		case recorder.status >= http.StatusBadRequest:
			a.logger.WarnContext(r.Context(), "response", args...)
		default:
			a.logger.InfoContext(r.Context(), "response", args...)
		}
	})
}

func (a *API) limitDuration(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.requestTimeout <= 0 {
			next.ServeHTTP(w, r)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), a.requestTimeout)
		defer cancel()

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// authenticate resolves a bearer token into the request Actor. Requests without a token stay anonymous,
// requests with a bad token are rejected.
func (a *API) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			next.ServeHTTP(w, r)
			return
		}

		token, ok := strings.CutPrefix(header, bearerPrefix)
		if !ok {
			a.writeError(w, r, errUnauthenticated)
			return
		}

		actor, err := a.authenticator.Authenticate(r.Context(), strings.TrimSpace(token))
		if err != nil {
			a.writeError(w, r, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(withActor(r.Context(), actor)))
	})
}

// require guards a route group with a permission check. Anonymous requests get 401, others the check's result.
func (a *API) require(check func(core.Actor) error) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor := ActorFrom(r.Context())

			if actor.IsAnonymous() {
				a.writeError(w, r, errUnauthenticated)
				return
			}

			if err := check(actor); err != nil {
				a.writeError(w, r, err)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func (a *API) guarded(check func(core.Actor) error, fn handlerFunc) http.Handler {
	return a.require(check)(a.handle(fn))
}
