package ports

import "context"

// Transactor runs fn inside a single database transaction. Repository calls
// made with the context passed to fn join that transaction; when fn returns an
// error the transaction is rolled back. Nested InTx calls join the outer
// transaction rather than opening a new one.
type Transactor interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}
