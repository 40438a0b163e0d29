package uow

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/msalarini/store-lamayer/internal/dal/interfaces/iauditrepo"
	iorder "github.com/msalarini/store-lamayer/internal/dal/interfaces/iorderrepo"
	iorderitem "github.com/msalarini/store-lamayer/internal/dal/interfaces/iorderitemrepo"
	"github.com/msalarini/store-lamayer/internal/dal/interfaces/ioutboxrepo"
	"github.com/msalarini/store-lamayer/internal/dal/postgres"
	auditrepo "github.com/msalarini/store-lamayer/internal/dal/repositories/audit/postgres"
	orderrepo "github.com/msalarini/store-lamayer/internal/dal/repositories/order/postgres"
	orderitemrepo "github.com/msalarini/store-lamayer/internal/dal/repositories/orderitem/postgres"
	outboxrepo "github.com/msalarini/store-lamayer/internal/dal/repositories/outbox/postgres"
)

type unitOfWork struct {
	client        *postgres.Client
	tx            pgx.Tx
	orderRepo     iorder.IOrderRepository
	orderItemRepo iorderitem.IOrderItemRepository
	auditRepo     iauditrepo.IAuditRepository
	outboxRepo    ioutboxrepo.IOutboxRepository
}

func (u *unitOfWork) OrderRepository() iorder.IOrderRepository {
	return u.orderRepo
}

func (u *unitOfWork) OrderItemRepository() iorderitem.IOrderItemRepository {
	return u.orderItemRepo
}

func (u *unitOfWork) AuditRepository() iauditrepo.IAuditRepository {
	return u.auditRepo
}

func (u *unitOfWork) OutboxRepository() ioutboxrepo.IOutboxRepository {
	return u.outboxRepo
}

// NewUnitOfWork returns repositories bound to the pool. After Begin they are
// rebound to the transaction.
func NewUnitOfWork(client *postgres.Client) *unitOfWork {
	u := &unitOfWork{client: client}
	u.bind(client.Pool())

	return u
}

func (u *unitOfWork) bind(conn postgres.GenericConn) {
	u.orderRepo = orderrepo.NewPostgresOrderRepository(conn)
	u.orderItemRepo = orderitemrepo.NewPostgresOrderItemRepository(conn)
	u.auditRepo = auditrepo.NewAuditRepository(conn)
	u.outboxRepo = outboxrepo.NewOutboxRepository(conn)
}

func (u *unitOfWork) Begin(ctx context.Context) error {
	if u.tx != nil {
		return errors.New("transaction already started")
	}

	tx, err := u.client.Pool().Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	u.tx = tx
	u.bind(tx)

	return nil
}

func (u *unitOfWork) Commit(ctx context.Context) error {
	if u.tx == nil {
		return nil
	}
	if err := u.tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Rollback is a no-op after a successful Commit.
func (u *unitOfWork) Rollback(ctx context.Context) error {
	if u.tx == nil {
		return nil
	}
	if err := u.tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}

	return nil
}
