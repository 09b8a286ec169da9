package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/AntonStoeckl/library-ledger-go/ledger"
	"github.com/AntonStoeckl/library-ledger-go/library/features/command/removeuser"
	"github.com/AntonStoeckl/library-ledger-go/library/features/command/updateuser"
	"github.com/AntonStoeckl/library-ledger-go/library/features/query/listusers"
	"github.com/AntonStoeckl/library-ledger-go/library/shared/core"
)

func (a *API) userRoutes(router *mux.Router) {
	router.Handle("", a.guarded(core.RequireAdmin, a.listUsers)).Methods(http.MethodGet)
	router.Handle("", a.guarded(core.RequireAdmin, a.createUser)).Methods(http.MethodPost)
	router.Handle("/{id}", a.guarded(core.RequireAdmin, a.updateUser)).Methods(http.MethodPut)
	router.Handle("/{id}", a.guarded(core.RequireAdmin, a.removeUser)).Methods(http.MethodDelete)
}

func (a *API) listUsers(w http.ResponseWriter, r *http.Request) error {
	result, err := a.handlers.ListUsers.Handle(r.Context(), listusers.BuildQuery(ActorFrom(r.Context())))
	if err != nil {
		return err
	}

	return writeJSON(w, http.StatusOK, result.Users)
}

func (a *API) createUser(w http.ResponseWriter, r *http.Request) error {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}

	user, err := a.registerUser(r, req)
	if err != nil {
		return err
	}

	return writeJSON(w, http.StatusCreated, user)
}

func (a *API) updateUser(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}

	var update ledger.UserUpdate
	if err = decodeJSON(w, r, &update); err != nil {
		return err
	}

	result, err := a.handlers.UpdateUser.Handle(r.Context(), updateuser.BuildCommand(id, ActorFrom(r.Context()), update))
	if err != nil {
		return err
	}

	return writeJSON(w, http.StatusOK, result.Value)
}

func (a *API) removeUser(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}

	if _, err = a.handlers.RemoveUser.Handle(r.Context(), removeuser.BuildCommand(id, ActorFrom(r.Context()))); err != nil {
		return err
	}

	return writeJSON(w, http.StatusOK, messageResponse{Message: "User deleted successfully"})
}
