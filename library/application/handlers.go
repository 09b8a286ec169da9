package application

import (
	"errors"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/library-ledger-go/ledger"
	"github.com/AntonStoeckl/library-ledger-go/library/features/command/addbook"
	"github.com/AntonStoeckl/library-ledger-go/library/features/command/borrowbook"
	"github.com/AntonStoeckl/library-ledger-go/library/features/command/registeruser"
	"github.com/AntonStoeckl/library-ledger-go/library/features/command/removebook"
	"github.com/AntonStoeckl/library-ledger-go/library/features/command/removeuser"
	"github.com/AntonStoeckl/library-ledger-go/library/features/command/returnbook"
	"github.com/AntonStoeckl/library-ledger-go/library/features/command/seedcatalog"
	"github.com/AntonStoeckl/library-ledger-go/library/features/command/sweepoverdue"
	"github.com/AntonStoeckl/library-ledger-go/library/features/command/updatebook"
	"github.com/AntonStoeckl/library-ledger-go/library/features/command/updateuser"
	"github.com/AntonStoeckl/library-ledger-go/library/features/query/allborrowings"
	"github.com/AntonStoeckl/library-ledger-go/library/features/query/bookdetails"
	"github.com/AntonStoeckl/library-ledger-go/library/features/query/inventoryaudit"
	"github.com/AntonStoeckl/library-ledger-go/library/features/query/listbooks"
	"github.com/AntonStoeckl/library-ledger-go/library/features/query/listusers"
	"github.com/AntonStoeckl/library-ledger-go/library/features/query/myborrowings"
	"github.com/AntonStoeckl/library-ledger-go/library/features/query/recommendations"
	"github.com/AntonStoeckl/library-ledger-go/library/features/query/userprofile"
	"github.com/AntonStoeckl/library-ledger-go/library/shared/shell"
	"github.com/AntonStoeckl/library-ledger-go/library/shared/shell/observable"
)

// Observability holds the optional collaborators every handler is instrumented with. Nil fields are skipped.
type Observability struct {
	Metrics shell.MetricsCollector
	Tracing shell.TracingCollector
	Logger  shell.ContextualLogger
}

// Handlers exposes every use case of the library.
type Handlers struct {
	BorrowBook   shell.CoreCommandHandler[borrowbook.Command, ledger.Borrowing]
	ReturnBook   shell.CoreCommandHandler[returnbook.Command, ledger.Borrowing]
	SweepOverdue shell.CoreCommandHandler[sweepoverdue.Command, int64]
	AddBook      shell.CoreCommandHandler[addbook.Command, ledger.Book]
	UpdateBook   shell.CoreCommandHandler[updatebook.Command, ledger.Book]
	RemoveBook   shell.CoreCommandHandler[removebook.Command, uuid.UUID]
	RegisterUser shell.CoreCommandHandler[registeruser.Command, ledger.User]
	UpdateUser   shell.CoreCommandHandler[updateuser.Command, ledger.User]
	RemoveUser   shell.CoreCommandHandler[removeuser.Command, uuid.UUID]
	SeedCatalog  shell.CoreCommandHandler[seedcatalog.Command, seedcatalog.Result]

	MyBorrowings    shell.CoreQueryHandler[myborrowings.Query, myborrowings.Borrowings]
	AllBorrowings   shell.CoreQueryHandler[allborrowings.Query, allborrowings.Borrowings]
	ListBooks       shell.CoreQueryHandler[listbooks.Query, listbooks.Books]
	BookDetails     shell.CoreQueryHandler[bookdetails.Query, ledger.Book]
	Recommendations shell.CoreQueryHandler[recommendations.Query, recommendations.Books]
	ListUsers       shell.CoreQueryHandler[listusers.Query, listusers.Users]
	UserProfile     shell.CoreQueryHandler[userprofile.Query, ledger.User]
	InventoryAudit  shell.CoreQueryHandler[inventoryaudit.Query, inventoryaudit.Report]
}

// New builds all Handlers over store.
func New(store ledger.Store, hasher registeruser.PasswordHasher, obs Observability) (Handlers, error) {
	b := &builder{obs: obs}

	handlers := Handlers{
		BorrowBook: command[borrowbook.Command, ledger.Borrowing](b, borrowbook.NewCommandHandler(store,
			borrowbook.WithRetryOptions(b.retry(borrowbook.Command{})...))),
		ReturnBook: command[returnbook.Command, ledger.Borrowing](b, returnbook.NewCommandHandler(store,
			returnbook.WithRetryOptions(b.retry(returnbook.Command{})...))),
		SweepOverdue: command[sweepoverdue.Command, int64](b, sweepoverdue.NewCommandHandler(store,
			sweepoverdue.WithRetryOptions(b.retry(sweepoverdue.Command{})...))),
		AddBook: command[addbook.Command, ledger.Book](b, addbook.NewCommandHandler(store,
			addbook.WithRetryOptions(b.retry(addbook.Command{})...))),
		UpdateBook: command[updatebook.Command, ledger.Book](b, updatebook.NewCommandHandler(store,
			updatebook.WithRetryOptions(b.retry(updatebook.Command{})...))),
		RemoveBook: command[removebook.Command, uuid.UUID](b, removebook.NewCommandHandler(store,
			removebook.WithRetryOptions(b.retry(removebook.Command{})...))),
		RegisterUser: command[registeruser.Command, ledger.User](b, registeruser.NewCommandHandler(store, hasher,
			registeruser.WithRetryOptions(b.retry(registeruser.Command{})...))),
		UpdateUser: command[updateuser.Command, ledger.User](b, updateuser.NewCommandHandler(store,
			updateuser.WithRetryOptions(b.retry(updateuser.Command{})...))),
		RemoveUser: command[removeuser.Command, uuid.UUID](b, removeuser.NewCommandHandler(store,
			removeuser.WithRetryOptions(b.retry(removeuser.Command{})...))),
		SeedCatalog: command[seedcatalog.Command, seedcatalog.Result](b, seedcatalog.NewCommandHandler(store,
			seedcatalog.WithRetryOptions(b.retry(seedcatalog.Command{})...))),

		MyBorrowings: query[myborrowings.Query, myborrowings.Borrowings](b, myborrowings.NewQueryHandler(store,
			myborrowings.WithRetryOptions(b.retry(myborrowings.Query{})...))),
		AllBorrowings: query[allborrowings.Query, allborrowings.Borrowings](b, allborrowings.NewQueryHandler(store,
			allborrowings.WithRetryOptions(b.retry(allborrowings.Query{})...))),
		ListBooks: query[listbooks.Query, listbooks.Books](b, listbooks.NewQueryHandler(store,
			listbooks.WithRetryOptions(b.retry(listbooks.Query{})...))),
		BookDetails: query[bookdetails.Query, ledger.Book](b, bookdetails.NewQueryHandler(store,
			bookdetails.WithRetryOptions(b.retry(bookdetails.Query{})...))),
		Recommendations: query[recommendations.Query, recommendations.Books](b, recommendations.NewQueryHandler(store,
			recommendations.WithRetryOptions(b.retry(recommendations.Query{})...))),
		ListUsers: query[listusers.Query, listusers.Users](b, listusers.NewQueryHandler(store,
			listusers.WithRetryOptions(b.retry(listusers.Query{})...))),
		UserProfile: query[userprofile.Query, ledger.User](b, userprofile.NewQueryHandler(store,
			userprofile.WithRetryOptions(b.retry(userprofile.Query{})...))),
		InventoryAudit: query[inventoryaudit.Query, inventoryaudit.Report](b, inventoryaudit.NewQueryHandler(store,
			inventoryaudit.WithRetryOptions(b.retry(inventoryaudit.Query{})...))),
	}

	if err := errors.Join(b.errs...); err != nil {
		return Handlers{}, err
	}

	return handlers, nil
}

type builder struct {
	obs  Observability
	errs []error
}

// retry labels the retry metrics with the command or query type of op.
func (b *builder) retry(op any) []shell.RetryOption {
	if b.obs.Metrics == nil {
		return nil
	}

	var operationType string

	switch typed := op.(type) {
	case shell.Command:
		operationType = typed.CommandType()
	case shell.Query:
		operationType = typed.QueryType()
	}

	return []shell.RetryOption{shell.WithMetrics(b.obs.Metrics, operationType)}
}

func command[C shell.Command, R any](b *builder, core shell.CoreCommandHandler[C, R]) shell.CoreCommandHandler[C, R] {
	wrapper, err := observable.NewCommandWrapper[C, R](
		core,
		observable.WithCommandMetrics[C, R](b.obs.Metrics),
		observable.WithCommandTracing[C, R](b.obs.Tracing),
		observable.WithCommandContextualLogging[C, R](b.obs.Logger),
	)
	if err != nil {
		b.errs = append(b.errs, err)
		return core
	}

	return wrapper
}

func query[Q shell.Query, R any](b *builder, core shell.CoreQueryHandler[Q, R]) shell.CoreQueryHandler[Q, R] {
	wrapper, err := observable.NewQueryWrapper[Q, R](
		core,
		observable.WithQueryMetrics[Q, R](b.obs.Metrics),
		observable.WithQueryTracing[Q, R](b.obs.Tracing),
		observable.WithQueryContextualLogging[Q, R](b.obs.Logger),
	)
	if err != nil {
		b.errs = append(b.errs, err)
		return core
	}

	return wrapper
}
