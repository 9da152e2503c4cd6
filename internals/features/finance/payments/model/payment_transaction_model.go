// file: internals/features/finance/payments/model/payment_transaction_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

/* =========================================================
   Audit log pembayaran — append only. SETIAP delivery callback
   dicatat, valid maupun tidak, duplikat sekalipun; tabel ini
   tidak pernah di-update atau di-delete.
========================================================= */

const (
	TxnKindCreate         = "create"
	TxnKindReturnCallback = "return_callback"
	TxnKindIPNCallback    = "ipn_callback"
	TxnKindCashConfirm    = "cash_confirm"
	TxnKindSystem         = "system"
)

type PaymentTransactionModel struct {
	PaymentTransactionID uuid.UUID `gorm:"column:payment_transaction_id;type:uuid;primaryKey" json:"payment_transaction_id"`

	// Nullable: delivery dengan external ref tak dikenal tetap dicatat.
	PaymentTransactionPaymentID *uuid.UUID `gorm:"column:payment_transaction_payment_id;type:uuid;index" json:"payment_transaction_payment_id,omitempty"`

	PaymentTransactionKind         string  `gorm:"column:payment_transaction_kind;type:varchar(20);not null" json:"payment_transaction_kind"`
	PaymentTransactionExternalRef  *string `gorm:"column:payment_transaction_external_ref;type:varchar(80);index" json:"payment_transaction_external_ref,omitempty"`
	PaymentTransactionResponseCode *string `gorm:"column:payment_transaction_response_code;type:varchar(8)" json:"payment_transaction_response_code,omitempty"`

	PaymentTransactionSignatureValid *bool `gorm:"column:payment_transaction_signature_valid" json:"payment_transaction_signature_valid,omitempty"`

	// Payload verbatim seperti yang diterima di wire.
	PaymentTransactionPayload datatypes.JSON `gorm:"column:payment_transaction_payload;type:jsonb" json:"payment_transaction_payload,omitempty"`

	PaymentTransactionNote *string `gorm:"column:payment_transaction_note;type:text" json:"payment_transaction_note,omitempty"`

	PaymentTransactionCreatedAt time.Time `gorm:"column:payment_transaction_created_at;not null;index" json:"payment_transaction_created_at"`
}

func (PaymentTransactionModel) TableName() string { return "payment_transactions" }

func (m *PaymentTransactionModel) BeforeCreate(tx *gorm.DB) error {
	if m.PaymentTransactionID == uuid.Nil {
		m.PaymentTransactionID = uuid.New()
	}
	if m.PaymentTransactionCreatedAt.IsZero() {
		m.PaymentTransactionCreatedAt = time.Now()
	}
	return nil
}
