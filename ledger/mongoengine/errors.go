package mongoengine

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/AntonStoeckl/library-ledger-go/ledger"
)

const (
	labelTransientTransaction = "TransientTransactionError"
	codeWriteConflict         = 112
)

// ErrDecodingDocumentFailed is returned when a stored document does not match the expected shape.
var ErrDecodingDocumentFailed = errors.New("decoding a mongodb document failed")

// classify maps a driver error to the ledger error taxonomy, keeping the original error in the chain.
func (s Store) classify(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
		return errors.Join(ctxErr, err)
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	if ledger.IsDomainError(err) || errors.Is(err, ledger.ErrTransientConflict) || errors.Is(err, ledger.ErrStorageUnavailable) {
		return err
	}

	if mongo.IsDuplicateKeyError(err) {
		return errors.Join(s.duplicateKey(err), err)
	}

	var serverErr mongo.ServerError
	if errors.As(err, &serverErr) &&
		(serverErr.HasErrorLabel(labelTransientTransaction) || serverErr.HasErrorCode(codeWriteConflict)) {
		return errors.Join(ledger.ErrTransientConflict, err)
	}

	if mongo.IsNetworkError(err) || mongo.IsTimeout(err) || errors.Is(err, mongo.ErrClientDisconnected) {
		return errors.Join(ledger.ErrStorageUnavailable, err)
	}

	return err
}

// duplicateKey identifies the violated unique index from the server message.
func (s Store) duplicateKey(err error) error {
	msg := err.Error()

	switch {
	case strings.Contains(msg, indexBooksISBN):
		return ledger.ErrDuplicateISBN
	case strings.Contains(msg, indexUsersEmail):
		return ledger.ErrDuplicateEmail
	case strings.Contains(msg, indexOneActiveLoan):
		return ledger.ErrAlreadyBorrowed
	default:
		return ledger.ErrInconsistentState
	}
}
