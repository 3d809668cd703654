package db_models

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type TransactionStatus string

const (
	TxnStatusPending  TransactionStatus = "pending"
	TxnStatusPaid     TransactionStatus = "paid"
	TxnStatusFailed   TransactionStatus = "failed"
	TxnStatusRefunded TransactionStatus = "refunded"
)

// Transaction links a local checkout to the gateway order. ProviderTxnID is
// the idempotency key across webhook retries.
type Transaction struct {
	BaseModel
	AccountID      uuid.UUID         `gorm:"index"`
	SubscriptionID *uuid.UUID        `gorm:"index"`
	AmountMinor    int64
	Currency       string            `gorm:"size:3"`
	Status         TransactionStatus `gorm:"type:transaction_status;index"`

	Provider      string `gorm:"index"`
	ProviderTxnID string `gorm:"uniqueIndex"`

	PaidAt     *int64
	RefundedAt *int64

	Receipt  datatypes.JSON `gorm:"type:jsonb;default:'{}'"`
	Metadata datatypes.JSON `gorm:"type:jsonb;default:'{}'"`

	Account      Account       `gorm:"foreignKey:AccountID"`
	Subscription *Subscription `gorm:"foreignKey:SubscriptionID"`
}
