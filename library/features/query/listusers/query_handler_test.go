package listusers_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-ledger-go/ledger"
	"github.com/AntonStoeckl/library-ledger-go/ledger/ledgertest"
	"github.com/AntonStoeckl/library-ledger-go/ledger/memoryengine"
	"github.com/AntonStoeckl/library-ledger-go/library/features/query/listusers"
	"github.com/AntonStoeckl/library-ledger-go/library/shared/core"
)

func Test_QueryHandler_Handle_ListsUsersWithoutPasswordHashes(t *testing.T) {
	// arrange
	store := memoryengine.New()
	ledgertest.GivenUser(t, store)
	ledgertest.GivenUserWithRole(t, store, ledger.RoleLibrarian)
	admin := ledgertest.GivenUserWithRole(t, store, ledger.RoleAdmin)
	handler := listusers.NewQueryHandler(store)

	// act
	result, err := handler.Handle(context.Background(), listusers.BuildQuery(core.BuildActor(admin.ID, admin.Role)))

	// assert
	require.NoError(t, err)
	assert.Equal(t, 3, result.Count)

	encoded, marshalErr := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(result)
	require.NoError(t, marshalErr)
	assert.NotContains(t, string(encoded), "hash")
	assert.Contains(t, string(encoded), `"role":"librarian"`)
}

func Test_QueryHandler_Handle_Error_NotAuthorized(t *testing.T) {
	// arrange
	handler := listusers.NewQueryHandler(memoryengine.New())

	// act
	_, err := handler.Handle(context.Background(), listusers.BuildQuery(core.BuildActor(uuid.New(), ledger.RoleLibrarian)))

	// assert
	assert.ErrorIs(t, err, ledger.ErrNotAuthorized)
}
