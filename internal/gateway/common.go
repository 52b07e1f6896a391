package gateway

import "context"

// TransactionObject is the opaque handle carrying the storage transaction.
// The usecase never inspects it; repositories assert it to their own type.
type TransactionObject interface{}

// TransactionManager runs fn inside an all-or-nothing unit of work. A nil
// return commits; any error rolls back every write made through repositories
// bound to the transaction.
type TransactionManager interface {
	Run(ctx context.Context, fn func(ctx context.Context) error) error
}

// TransactionKeyType avoids context key collisions.
type TransactionKeyType string

const TransactionKey TransactionKeyType = "transaction"
