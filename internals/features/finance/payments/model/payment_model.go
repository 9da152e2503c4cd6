// file: internals/features/finance/payments/model/payment_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

/* ===================== Enums (string) ===================== */
/* Disimpan varchar; konstanta Go jadi satu-satunya sumber nilai. */

const (
	PaymentStatusInitiated = "initiated" // baru dibuat, belum ke gateway
	PaymentStatusPending   = "pending"   // menunggu callback / konfirmasi kasir
	PaymentStatusPaid      = "paid"      // final
	PaymentStatusFailed    = "failed"    // final
)

// PaymentOpenStatuses: status yang masih boleh transisi.
var PaymentOpenStatuses = []string{PaymentStatusInitiated, PaymentStatusPending}

/* ===================== Model ===================== */

type PaymentModel struct {
	PaymentID uuid.UUID `gorm:"column:payment_id;type:uuid;primaryKey" json:"payment_id"`

	PaymentStudentID   uuid.UUID  `gorm:"column:payment_student_id;type:uuid;not null;index" json:"payment_student_id"`
	PaymentPayerUserID uuid.UUID  `gorm:"column:payment_payer_user_id;type:uuid;not null" json:"payment_payer_user_id"`
	PaymentBranchID    *uuid.UUID `gorm:"column:payment_branch_id;type:uuid" json:"payment_branch_id,omitempty"`

	// Snapshot identitas (tahan rename master data)
	PaymentStudentName *string `gorm:"column:payment_student_name;type:varchar(100)" json:"payment_student_name,omitempty"`
	PaymentBranchName  *string `gorm:"column:payment_branch_name;type:varchar(100)" json:"payment_branch_name,omitempty"`

	// Nominal
	PaymentAmountIDR int64  `gorm:"column:payment_amount_idr;not null;check:payment_amount_idr >= 0" json:"payment_amount_idr"`
	PaymentCurrency  string `gorm:"column:payment_currency;type:varchar(8);not null;default:IDR" json:"payment_currency"`

	// Status & channel
	PaymentStatus  string `gorm:"column:payment_status;type:varchar(20);not null;index" json:"payment_status"`
	PaymentChannel string `gorm:"column:payment_channel;type:varchar(20);not null" json:"payment_channel"`

	// Korelasi gateway. OrderID dibuat kita; ExternalRef dari adapter —
	// kunci idempoten untuk callback (unik bila terisi).
	PaymentOrderID     string  `gorm:"column:payment_order_id;type:varchar(64);not null;uniqueIndex:uniq_payment_order_id" json:"payment_order_id"`
	PaymentExternalRef *string `gorm:"column:payment_external_ref;type:varchar(80);uniqueIndex:uniq_payment_external_ref" json:"payment_external_ref,omitempty"`

	PaymentRedirectURL  *string `gorm:"column:payment_redirect_url;type:text" json:"payment_redirect_url,omitempty"`
	PaymentInstructions *string `gorm:"column:payment_instructions;type:text" json:"payment_instructions,omitempty"`

	// Hasil settle dari gateway
	PaymentResponseCode  *string `gorm:"column:payment_response_code;type:varchar(8)" json:"payment_response_code,omitempty"`
	PaymentTransactionNo *string `gorm:"column:payment_transaction_no;type:varchar(40)" json:"payment_transaction_no,omitempty"`
	PaymentBankCode      *string `gorm:"column:payment_bank_code;type:varchar(20)" json:"payment_bank_code,omitempty"`

	// Jalur cash
	PaymentConfirmedBy *uuid.UUID `gorm:"column:payment_confirmed_by;type:uuid" json:"payment_confirmed_by,omitempty"`
	PaymentConfirmedAt *time.Time `gorm:"column:payment_confirmed_at" json:"payment_confirmed_at,omitempty"`
	PaymentNote        *string    `gorm:"column:payment_note;type:text" json:"payment_note,omitempty"`

	// Payload callback verbatim — bahan audit & dispute
	PaymentReturnPayload datatypes.JSON `gorm:"column:payment_return_payload;type:jsonb" json:"payment_return_payload,omitempty"`
	PaymentIPNPayload    datatypes.JSON `gorm:"column:payment_ipn_payload;type:jsonb" json:"payment_ipn_payload,omitempty"`

	PaymentDescription *string `gorm:"column:payment_description;type:text" json:"payment_description,omitempty"`

	PaymentPaidAt   *time.Time `gorm:"column:payment_paid_at" json:"payment_paid_at,omitempty"`
	PaymentFailedAt *time.Time `gorm:"column:payment_failed_at" json:"payment_failed_at,omitempty"`

	PaymentCreatedAt time.Time      `gorm:"column:payment_created_at;not null" json:"payment_created_at"`
	PaymentUpdatedAt time.Time      `gorm:"column:payment_updated_at;not null" json:"payment_updated_at"`
	PaymentDeletedAt gorm.DeletedAt `gorm:"column:payment_deleted_at;index" json:"payment_deleted_at,omitempty"`
}

func (PaymentModel) TableName() string { return "payments" }

func (m *PaymentModel) BeforeCreate(tx *gorm.DB) error {
	if m.PaymentID == uuid.Nil {
		m.PaymentID = uuid.New()
	}
	if m.PaymentCurrency == "" {
		m.PaymentCurrency = "IDR"
	}
	now := time.Now()
	if m.PaymentCreatedAt.IsZero() {
		m.PaymentCreatedAt = now
	}
	m.PaymentUpdatedAt = now
	return nil
}

func (m *PaymentModel) BeforeUpdate(tx *gorm.DB) error {
	m.PaymentUpdatedAt = time.Now()
	return nil
}

/* ===================== Helpers ===================== */

func (m *PaymentModel) IsOpen() bool {
	return m.PaymentStatus == PaymentStatusInitiated || m.PaymentStatus == PaymentStatusPending
}

func (m *PaymentModel) IsPaid() bool { return m.PaymentStatus == PaymentStatusPaid }
