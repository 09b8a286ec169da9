package listusers

import (
	"github.com/AntonStoeckl/library-ledger-go/ledger"
)

// Users represents the query result containing all accounts.
type Users struct {
	Users []ledger.User `json:"users"`
	Count int           `json:"count"`
}
