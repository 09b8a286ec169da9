package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/AntonStoeckl/library-ledger-go/ledger"
	"github.com/AntonStoeckl/library-ledger-go/library/features/command/addbook"
	"github.com/AntonStoeckl/library-ledger-go/library/features/command/removebook"
	"github.com/AntonStoeckl/library-ledger-go/library/features/command/updatebook"
	"github.com/AntonStoeckl/library-ledger-go/library/features/query/bookdetails"
	"github.com/AntonStoeckl/library-ledger-go/library/features/query/listbooks"
	"github.com/AntonStoeckl/library-ledger-go/library/features/query/recommendations"
	"github.com/AntonStoeckl/library-ledger-go/library/shared/core"
)

type addBookRequest struct {
	Title       string `json:"title"`
	Author      string `json:"author"`
	ISBN        string `json:"isbn"`
	Genre       string `json:"genre"`
	Description string `json:"description"`
	TotalCopies int    `json:"totalCopies"`
}

func (a *API) bookRoutes(router *mux.Router) {
	router.HandleFunc("", a.handle(a.listBooks)).Methods(http.MethodGet)
	router.HandleFunc("/recommendations", a.handle(a.recommendations)).Methods(http.MethodGet)
	router.HandleFunc("/{id}", a.handle(a.bookDetails)).Methods(http.MethodGet)

	router.Handle("", a.guarded(core.RequireStaff, a.addBook)).Methods(http.MethodPost)
	router.Handle("/{id}", a.guarded(core.RequireStaff, a.updateBook)).Methods(http.MethodPut)
	router.Handle("/{id}", a.guarded(core.RequireStaff, a.removeBook)).Methods(http.MethodDelete)
}

func (a *API) listBooks(w http.ResponseWriter, r *http.Request) error {
	params := r.URL.Query()

	result, err := a.handlers.ListBooks.Handle(r.Context(), listbooks.BuildQuery(params.Get("search"), params.Get("genre")))
	if err != nil {
		return err
	}

	return writeJSON(w, http.StatusOK, result.Books)
}

func (a *API) recommendations(w http.ResponseWriter, r *http.Request) error {
	limit := ledger.DefaultRecommendationCount

	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return invalidQueryParam("limit", raw)
		}

		limit = parsed
	}

	result, err := a.handlers.Recommendations.Handle(r.Context(), recommendations.BuildQuery(limit))
	if err != nil {
		return err
	}

	return writeJSON(w, http.StatusOK, result.Books)
}

func (a *API) bookDetails(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}

	book, err := a.handlers.BookDetails.Handle(r.Context(), bookdetails.BuildQuery(id))
	if err != nil {
		return err
	}

	return writeJSON(w, http.StatusOK, book)
}

func (a *API) addBook(w http.ResponseWriter, r *http.Request) error {
	var req addBookRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}

	command := addbook.BuildCommand(
		a.newID(),
		ActorFrom(r.Context()),
		req.Title,
		req.Author,
		req.ISBN,
		req.Genre,
		req.Description,
		req.TotalCopies,
		a.clock(),
	)

	result, err := a.handlers.AddBook.Handle(r.Context(), command)
	if err != nil {
		return err
	}

	return writeJSON(w, http.StatusCreated, result.Value)
}

func (a *API) updateBook(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}

	var update ledger.BookUpdate
	if err = decodeJSON(w, r, &update); err != nil {
		return err
	}

	result, err := a.handlers.UpdateBook.Handle(r.Context(), updatebook.BuildCommand(id, ActorFrom(r.Context()), update))
	if err != nil {
		return err
	}

	return writeJSON(w, http.StatusOK, result.Value)
}

func (a *API) removeBook(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}

	if _, err = a.handlers.RemoveBook.Handle(r.Context(), removebook.BuildCommand(id, ActorFrom(r.Context()))); err != nil {
		return err
	}

	return writeJSON(w, http.StatusOK, messageResponse{Message: "Book deleted successfully"})
}
