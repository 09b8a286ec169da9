package shell

import "context"

// Command represents the contract for all command types.
// The CommandType method enables polymorphic handling and observability instrumentation.
type Command interface {
	CommandType() string
}

// CoreCommandHandler defines the contract for components that process commands with pure business logic.
// The generic parameter R is the value the use case produces, e.g. the created Borrowing.
// Implementations must not contain observability concerns, those are added by observable.CommandWrapper.
type CoreCommandHandler[C Command, R any] interface {
	Handle(ctx context.Context, command C) (HandlerResult[R], error)
}

// Query represents the contract for all query types.
type Query interface {
	QueryType() string
}

// CoreQueryHandler defines the contract for components that answer queries.
// Implementations must not contain observability concerns, those are added by observable.QueryWrapper.
type CoreQueryHandler[Q Query, R any] interface {
	Handle(ctx context.Context, query Q) (R, error)
}
