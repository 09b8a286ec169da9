package mongoengine_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/AntonStoeckl/library-ledger-go/ledger"
	"github.com/AntonStoeckl/library-ledger-go/ledger/ledgertest"
	"github.com/AntonStoeckl/library-ledger-go/testutil/mongoengine/mongotesthelpers"
)

func Test_Conformance(t *testing.T) {
	ledgertest.RunConformance(t, func(t *testing.T) ledger.Store {
		return mongotesthelpers.NewStore(t)
	})
}

func Test_Migrate_IsIdempotent(t *testing.T) {
	// arrange
	store := mongotesthelpers.NewStore(t)

	// act
	err := store.Migrate(context.Background())

	// assert
	assert.NoError(t, err)
}
