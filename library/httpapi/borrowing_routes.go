package httpapi

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/AntonStoeckl/library-ledger-go/ledger"
	"github.com/AntonStoeckl/library-ledger-go/library/features/command/borrowbook"
	"github.com/AntonStoeckl/library-ledger-go/library/features/command/returnbook"
	"github.com/AntonStoeckl/library-ledger-go/library/features/query/allborrowings"
	"github.com/AntonStoeckl/library-ledger-go/library/features/query/myborrowings"
	"github.com/AntonStoeckl/library-ledger-go/library/shared/core"
)

type borrowRequest struct {
	BookID string `json:"bookId"`
}

func (a *API) borrowingRoutes(router *mux.Router) {
	router.Handle("/borrow", a.guarded(core.RequireUser, a.borrowBook)).Methods(http.MethodPost)
	router.Handle("/return/{id}", a.guarded(core.RequireStaff, a.returnBook)).Methods(http.MethodPost)
	router.Handle("/my", a.guarded(core.RequireUser, a.myBorrowings)).Methods(http.MethodGet)
	router.Handle("", a.guarded(core.RequireStaff, a.allBorrowings)).Methods(http.MethodGet)
}

func (a *API) borrowBook(w http.ResponseWriter, r *http.Request) error {
	var req borrowRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}

	bookID, err := uuid.Parse(req.BookID)
	if err != nil {
		return fmt.Errorf("%w: bookId %q is not a valid id", ledger.ErrInvalidInput, req.BookID)
	}

	command := borrowbook.BuildCommand(a.newID(), ActorFrom(r.Context()).UserID, bookID, a.clock())

	result, err := a.handlers.BorrowBook.Handle(r.Context(), command)
	if err != nil {
		return err
	}

	return writeJSON(w, http.StatusCreated, result.Value)
}

func (a *API) returnBook(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}

	result, err := a.handlers.ReturnBook.Handle(r.Context(), returnbook.BuildCommand(id, ActorFrom(r.Context()), a.clock()))
	if err != nil {
		return err
	}

	return writeJSON(w, http.StatusOK, result.Value)
}

func (a *API) myBorrowings(w http.ResponseWriter, r *http.Request) error {
	result, err := a.handlers.MyBorrowings.Handle(r.Context(), myborrowings.BuildQuery(ActorFrom(r.Context()).UserID))
	if err != nil {
		return err
	}

	return writeJSON(w, http.StatusOK, result.Borrowings)
}

func (a *API) allBorrowings(w http.ResponseWriter, r *http.Request) error {
	result, err := a.handlers.AllBorrowings.Handle(r.Context(), allborrowings.BuildQuery(ActorFrom(r.Context())))
	if err != nil {
		return err
	}

	return writeJSON(w, http.StatusOK, result.Borrowings)
}
