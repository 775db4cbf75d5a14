// Package itf carries shared test fixtures. It is imported from
// _test.go files only.
package itf

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/litepie/organization/modules/core/domain/aggregates/user"
	"github.com/litepie/organization/pkg/composables"
)

// nopTx satisfies pgx.Tx without touching a database. Binding it to a
// context makes transactional code paths join it instead of demanding
// a pool, so services can be exercised against in-memory repositories.
type nopTx struct{}

func (nopTx) Begin(ctx context.Context) (pgx.Tx, error) { return nopTx{}, nil }
func (nopTx) Commit(ctx context.Context) error          { return nil }
func (nopTx) Rollback(ctx context.Context) error        { return nil }

func (nopTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}

func (nopTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (nopTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }

func (nopTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}

func (nopTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (nopTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}

func (nopTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row { return nil }
func (nopTx) Conn() *pgx.Conn                                               { return nil }

// NopTx returns a transaction stand-in for context plumbing in tests.
func NopTx() pgx.Tx {
	return nopTx{}
}

// TxContext returns a context carrying a no-op transaction.
func TxContext() context.Context {
	return composables.WithTx(context.Background(), NopTx())
}

// UserContext binds u as the authenticated actor on top of TxContext.
func UserContext(u user.User) context.Context {
	return composables.WithUser(TxContext(), u)
}

// TenantContext binds tenantID on top of TxContext.
func TenantContext(tenantID uuid.UUID) context.Context {
	return composables.WithTenantID(TxContext(), tenantID)
}

// TestUser builds a deterministic user entity for fixtures.
func TestUser(id uint, tenantID uuid.UUID) user.User {
	return user.New(
		"Test",
		"User",
		"test.user@example.com",
		user.WithID(id),
		user.WithTenantID(tenantID),
	)
}
