package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/AntonStoeckl/library-ledger-go/ledger"
	"github.com/AntonStoeckl/library-ledger-go/library/auth"
	"github.com/AntonStoeckl/library-ledger-go/library/features/command/registeruser"
	"github.com/AntonStoeckl/library-ledger-go/library/features/query/userprofile"
	"github.com/AntonStoeckl/library-ledger-go/library/shared/core"
)

type registerRequest struct {
	Name     string      `json:"name"`
	Email    string      `json:"email"`
	Password string      `json:"password"`
	Role     ledger.Role `json:"role"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Token string      `json:"token"`
	User  ledger.User `json:"user"`
}

type userResponse struct {
	User ledger.User `json:"user"`
}

func (a *API) authRoutes(router *mux.Router) {
	router.HandleFunc("/register", a.handle(a.register)).Methods(http.MethodPost)
	router.HandleFunc("/login", a.handle(a.login)).Methods(http.MethodPost)
	router.Handle("/me", a.guarded(core.RequireUser, a.me)).Methods(http.MethodGet)
}

// register creates an account. Anonymous callers get a student account, an admin token allows other roles.
func (a *API) register(w http.ResponseWriter, r *http.Request) error {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}

	user, err := a.registerUser(r, req)
	if err != nil {
		return err
	}

	session, err := a.authenticator.IssueSession(user)
	if err != nil {
		return err
	}

	return writeJSON(w, http.StatusCreated, sessionResponse{Token: session.Token, User: session.User})
}

func (a *API) registerUser(r *http.Request, req registerRequest) (ledger.User, error) {
	command := registeruser.BuildCommand(
		a.newID(),
		ActorFrom(r.Context()),
		req.Name,
		req.Email,
		req.Password,
		req.Role,
		a.clock(),
	)

	result, err := a.handlers.RegisterUser.Handle(r.Context(), command)
	if err != nil {
		return ledger.User{}, err
	}

	return result.Value, nil
}

func (a *API) login(w http.ResponseWriter, r *http.Request) error {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}

	if req.Email == "" || req.Password == "" {
		return auth.ErrInvalidCredentials
	}

	session, err := a.authenticator.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return writeJSON(w, http.StatusOK, sessionResponse{Token: session.Token, User: session.User})
}

func (a *API) me(w http.ResponseWriter, r *http.Request) error {
	actor := ActorFrom(r.Context())

	user, err := a.handlers.UserProfile.Handle(r.Context(), userprofile.BuildQuery(actor.UserID, actor))
	if err != nil {
		return err
	}

	return writeJSON(w, http.StatusOK, userResponse{User: user})
}
