package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/AntonStoeckl/library-ledger-go/library/features/command/seedcatalog"
	"github.com/AntonStoeckl/library-ledger-go/library/features/command/sweepoverdue"
	"github.com/AntonStoeckl/library-ledger-go/library/features/query/inventoryaudit"
	"github.com/AntonStoeckl/library-ledger-go/library/shared/core"
)

type sweepResponse struct {
	Transitioned int64 `json:"transitioned"`
}

// adminRoutes serves the maintenance operations. Their handlers carry no actor, this router is their only guard.
func (a *API) adminRoutes(router *mux.Router) {
	router.Use(a.require(core.RequireAdmin))

	router.HandleFunc("/inventory-audit", a.handle(a.inventoryAudit)).Methods(http.MethodGet)
	router.HandleFunc("/sweep-overdue", a.handle(a.sweepOverdue)).Methods(http.MethodPost)
	router.HandleFunc("/seed", a.handle(a.seedCatalog)).Methods(http.MethodPost)
}

func (a *API) inventoryAudit(w http.ResponseWriter, r *http.Request) error {
	report, err := a.handlers.InventoryAudit.Handle(r.Context(), inventoryaudit.BuildQuery())
	if err != nil {
		return err
	}

	return writeJSON(w, http.StatusOK, report)
}

func (a *API) sweepOverdue(w http.ResponseWriter, r *http.Request) error {
	result, err := a.handlers.SweepOverdue.Handle(r.Context(), sweepoverdue.BuildCommand(a.clock()))
	if err != nil {
		return err
	}

	return writeJSON(w, http.StatusOK, sweepResponse{Transitioned: result.Value})
}

func (a *API) seedCatalog(w http.ResponseWriter, r *http.Request) error {
	result, err := a.handlers.SeedCatalog.Handle(r.Context(), seedcatalog.BuildCommand(a.clock()))
	if err != nil {
		return err
	}

	return writeJSON(w, http.StatusOK, result.Value)
}
