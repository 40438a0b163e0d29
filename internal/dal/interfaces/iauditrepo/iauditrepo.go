package iauditrepo

import (
	"context"

	"github.com/msalarini/store-lamayer/internal/service/models/auditlog"
)

// IAuditRepository is interface for the user action log repository.
type IAuditRepository interface {
	Insert(ctx context.Context, log auditlog.AuditLog) error
}
