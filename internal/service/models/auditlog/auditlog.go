package auditlog

import "time"

const (
	ActionCreateOrder       = "PEDIDO"
	ActionUpdateOrderStatus = "PEDIDO_STATUS"
	ActionReprintOrder      = "PEDIDO_REIMPRESSAO"
)

// AuditLog is one row of the user action log.
type AuditLog struct {
	ID        int64     `json:"id"`
	Action    string    `json:"action"`
	Details   string    `json:"details"`
	UserEmail string    `json:"userEmail"`
	CreatedAt time.Time `json:"createdAt"`
}
