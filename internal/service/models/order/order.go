package order

import (
	"errors"
	"time"

	"github.com/msalarini/store-lamayer/internal/service/models/orderitem"
	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of an order.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

var (
	ErrInvalidStatus = errors.New("invalid order status")
	ErrOrderNotFound = errors.New("order not found")
)

func (s Status) String() string {
	return string(s)
}

func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusCompleted, StatusCancelled:
		return Status(s), nil
	default:
		return "", ErrInvalidStatus
	}
}

// CanTransitionTo reports whether an order in status s may move to next.
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusPending:
		return next == StatusCompleted || next == StatusCancelled
	case StatusCompleted:
		return next == StatusCancelled
	default:
		return false
	}
}

// Order is a finalized sale. Totals and rate are frozen at creation.
type Order struct {
	ID            int64                 `json:"id"`
	OrderNumber   string                `json:"orderNumber"`
	CustomerName  string                `json:"customerName,omitempty"`
	CustomerPhone string                `json:"customerPhone,omitempty"`
	TotalBRL      decimal.Decimal       `json:"totalBRL"`
	TotalPYG      decimal.Decimal       `json:"totalPYG"`
	ExchangeRate  decimal.Decimal       `json:"exchangeRate"`
	Status        Status                `json:"status"`
	CreatedBy     string                `json:"createdBy"`
	CreatedAt     time.Time             `json:"createdAt"`
	OrderItems    []orderitem.OrderItem `json:"orderItems"`
}

// QueryOrdersModel represents filter parameters for querying orders.
type QueryOrdersModel struct {
	Ids      []int64  `json:"ids,omitempty"`
	Statuses []Status `json:"statuses,omitempty"`
	Limit    int      `json:"limit,omitempty"`
	Offset   int      `json:"offset,omitempty"`
}
