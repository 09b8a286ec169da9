package ledger_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-ledger-go/ledger"
)

func Test_NewBorrowing_DueDateIsExactlyFourteenDaysAfterBorrowDate(t *testing.T) {
	// arrange
	borrowedAt := time.Date(2025, 3, 1, 10, 30, 0, 0, time.UTC)

	// act
	borrowing := ledger.NewBorrowing(uuid.New(), uuid.New(), uuid.New(), borrowedAt)

	// assert
	assert.Equal(t, borrowedAt, borrowing.BorrowDate)
	assert.Equal(t, time.Date(2025, 3, 15, 10, 30, 0, 0, time.UTC), borrowing.DueDate)
	assert.Equal(t, ledger.StatusBorrowed, borrowing.Status)
	assert.Nil(t, borrowing.ReturnDate)
	assert.NoError(t, borrowing.Validate())
}

func Test_Borrowing_Validate_RejectsTamperedDueDate(t *testing.T) {
	// arrange
	borrowing := ledger.NewBorrowing(uuid.New(), uuid.New(), uuid.New(), time.Now())
	borrowing.DueDate = borrowing.DueDate.Add(time.Hour)

	// act
	err := borrowing.Validate()

	// assert
	assert.ErrorIs(t, err, ledger.ErrInvalidInput)
}

func Test_Borrowing_Validate_RejectsMissingReferences(t *testing.T) {
	// arrange
	now := time.Now()
	withoutUser := ledger.NewBorrowing(uuid.New(), uuid.Nil, uuid.New(), now)
	withoutBook := ledger.NewBorrowing(uuid.New(), uuid.New(), uuid.Nil, now)

	// act & assert
	assert.ErrorIs(t, withoutUser.Validate(), ledger.ErrInvalidInput)
	assert.ErrorIs(t, withoutBook.Validate(), ledger.ErrInvalidInput)
}

func Test_BorrowingStatus_CanTransitionTo(t *testing.T) {
	testCases := []struct {
		from    ledger.BorrowingStatus
		to      ledger.BorrowingStatus
		allowed bool
	}{
		{ledger.StatusBorrowed, ledger.StatusReturned, true},
		{ledger.StatusBorrowed, ledger.StatusOverdue, true},
		{ledger.StatusOverdue, ledger.StatusReturned, true},
		{ledger.StatusOverdue, ledger.StatusBorrowed, false},
		{ledger.StatusReturned, ledger.StatusBorrowed, false},
		{ledger.StatusReturned, ledger.StatusOverdue, false},
		{ledger.StatusReturned, ledger.StatusReturned, false},
		{ledger.StatusBorrowed, ledger.StatusBorrowed, false},
	}

	for _, tc := range testCases {
		t.Run(string(tc.from)+"_to_"+string(tc.to), func(t *testing.T) {
			assert.Equal(t, tc.allowed, tc.from.CanTransitionTo(tc.to))
		})
	}
}

func Test_Borrowing_Return_SetsReturnDateOnce(t *testing.T) {
	// arrange
	borrowing := ledger.NewBorrowing(uuid.New(), uuid.New(), uuid.New(), time.Now().Add(-time.Hour))
	returnedAt := time.Now()

	// act
	returned, err := borrowing.Return(returnedAt)
	_, secondErr := returned.Return(returnedAt.Add(time.Minute))

	// assert
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusReturned, returned.Status)
	require.NotNil(t, returned.ReturnDate)
	assert.Equal(t, returnedAt, *returned.ReturnDate)
	assert.ErrorIs(t, secondErr, ledger.ErrAlreadyReturned)
}

func Test_Borrowing_Return_AllowedFromOverdue(t *testing.T) {
	// arrange
	borrowing := ledger.NewBorrowing(uuid.New(), uuid.New(), uuid.New(), time.Now().Add(-20*24*time.Hour))
	borrowing.Status = ledger.StatusOverdue

	// act
	returned, err := borrowing.Return(time.Now())

	// assert
	assert.NoError(t, err)
	assert.Equal(t, ledger.StatusReturned, returned.Status)
}

func Test_Borrowing_IsOverdueAt(t *testing.T) {
	// arrange
	borrowing := ledger.NewBorrowing(uuid.New(), uuid.New(), uuid.New(), time.Now())

	// act & assert
	assert.False(t, borrowing.IsOverdueAt(borrowing.DueDate), "due date itself is not overdue")
	assert.True(t, borrowing.IsOverdueAt(borrowing.DueDate.Add(time.Second)))

	borrowing.Status = ledger.StatusOverdue
	assert.False(t, borrowing.IsOverdueAt(borrowing.DueDate.Add(time.Second)), "already overdue loans are not transitioned again")
}
