package postgres

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/msalarini/store-lamayer/internal/dal/postgres"
	"github.com/msalarini/store-lamayer/internal/service/models/auditlog"
)

// AuditRepository writes the user action log.
type AuditRepository struct {
	conn postgres.GenericConn
}

func NewAuditRepository(conn postgres.GenericConn) *AuditRepository {
	return &AuditRepository{
		conn: conn,
	}
}

// Insert appends one entry to the logs table.
func (r *AuditRepository) Insert(ctx context.Context, log auditlog.AuditLog) error {
	query, args, err := sq.Insert("logs").
		Columns("action", "details", "user_email").
		Values(log.Action, log.Details, log.UserEmail).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert query: %w", err)
	}

	if _, err := r.conn.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert audit log: %w", err)
	}

	return nil
}
