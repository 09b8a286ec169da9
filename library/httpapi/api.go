package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/AntonStoeckl/library-ledger-go/ledger"
	"github.com/AntonStoeckl/library-ledger-go/library/application"
	"github.com/AntonStoeckl/library-ledger-go/library/auth"
	"github.com/AntonStoeckl/library-ledger-go/library/shared/core"
)

const bannerMessage = "Library Management System API"

// Authenticator logs users in and resolves bearer tokens.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (auth.Session, error)
	IssueSession(user ledger.User) (auth.Session, error)
	Authenticate(ctx context.Context, token string) (core.Actor, error)
}

// API is the HTTP surface of the library.
type API struct {
	handlers       application.Handlers
	authenticator  Authenticator
	clock          core.Clock
	newID          func() uuid.UUID
	logger         ledger.ContextualLogger
	requestTimeout time.Duration
}

// Option configures an API.
type Option func(*API)

// WithClock sets the clock that timestamps borrowings, returns and new records.
func WithClock(clock core.Clock) Option {
	return func(a *API) {
		a.clock = clock
	}
}

// WithIDGenerator sets the generator for the ids of new records.
func WithIDGenerator(newID func() uuid.UUID) Option {
	return func(a *API) {
		a.newID = newID
	}
}

// WithLogger sets the logger for requests and failures.
func WithLogger(logger ledger.ContextualLogger) Option {
	return func(a *API) {
		a.logger = logger
	}
}

// WithRequestTimeout bounds the time each request may take. Zero disables the bound.
func WithRequestTimeout(timeout time.Duration) Option {
	return func(a *API) {
		a.requestTimeout = timeout
	}
}

// New creates an API.
func New(handlers application.Handlers, authenticator Authenticator, opts ...Option) *API {
	api := &API{
		handlers:      handlers,
		authenticator: authenticator,
		clock:         core.SystemClock(),
		newID:         core.NewID,
		logger:        slog.New(slog.DiscardHandler),
	}

	for _, opt := range opts {
		opt(api)
	}

	return api
}

// Handler returns the routed http.Handler wrapped in the middleware chain.
func (a *API) Handler() http.Handler {
	router := mux.NewRouter()
	a.routeErrors(router)

	router.HandleFunc("/", a.handle(a.banner)).Methods(http.MethodGet)
	router.HandleFunc("/healthz", a.handle(a.health)).Methods(http.MethodGet)

	a.authRoutes(a.subrouter(router, "/api/auth"))
	a.bookRoutes(a.subrouter(router, "/api/books"))
	a.borrowingRoutes(a.subrouter(router, "/api/borrowings"))
	a.userRoutes(a.subrouter(router, "/api/users"))
	a.adminRoutes(a.subrouter(router, "/api/admin"))

	var handler http.Handler = router
	handler = a.authenticate(handler)
	handler = a.limitDuration(handler)
	handler = a.logRequests(handler)
	handler = a.recoverPanics(handler)

	return handler
}

// subrouter mounts a router under prefix. Subrouters answer unmatched paths and methods themselves,
// the root router's handlers are not consulted for them.
func (a *API) subrouter(router *mux.Router, prefix string) *mux.Router {
	sub := router.PathPrefix(prefix).Subrouter()
	a.routeErrors(sub)

	return sub
}

func (a *API) routeErrors(router *mux.Router) {
	router.NotFoundHandler = a.handle(func(http.ResponseWriter, *http.Request) error { return errRouteNotFound })
	router.MethodNotAllowedHandler = a.handle(func(http.ResponseWriter, *http.Request) error { return errMethodNotAllowed })
}

type handlerFunc func(w http.ResponseWriter, r *http.Request) error

func (a *API) handle(fn handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := fn(w, r); err != nil {
			a.writeError(w, r, err)
		}
	}
}

func (a *API) banner(w http.ResponseWriter, _ *http.Request) error {
	return writeJSON(w, http.StatusOK, messageResponse{Message: bannerMessage})
}

func (a *API) health(w http.ResponseWriter, _ *http.Request) error {
	return writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func pathID(r *http.Request) (uuid.UUID, error) {
	raw := mux.Vars(r)["id"]

	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, invalidID(raw)
	}

	return id, nil
}
