// file: internals/features/finance/payments/model/payment_item_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

/* =========================================================
   Item pembayaran: satu baris per tagihan yang ikut dibayar.
   Nominal di-snapshot dari tagihan saat checkout supaya total
   payment bisa diaudit tanpa join ke data hidup.
========================================================= */

type PaymentItemModel struct {
	PaymentItemID uuid.UUID `gorm:"column:payment_item_id;type:uuid;primaryKey" json:"payment_item_id"`

	PaymentItemPaymentID    uuid.UUID `gorm:"column:payment_item_payment_id;type:uuid;not null;index" json:"payment_item_payment_id"`
	PaymentItemObligationID uuid.UUID `gorm:"column:payment_item_obligation_id;type:uuid;not null;index" json:"payment_item_obligation_id"`
	PaymentItemCampaignID   uuid.UUID `gorm:"column:payment_item_campaign_id;type:uuid;not null;index" json:"payment_item_campaign_id"`

	// Snapshot
	PaymentItemTitle     string `gorm:"column:payment_item_title;type:varchar(150);not null" json:"payment_item_title"`
	PaymentItemAmountIDR int64  `gorm:"column:payment_item_amount_idr;not null;check:payment_item_amount_idr >= 0" json:"payment_item_amount_idr"`

	PaymentItemCreatedAt time.Time `gorm:"column:payment_item_created_at;not null" json:"payment_item_created_at"`
}

func (PaymentItemModel) TableName() string { return "payment_obligation_items" }

func (m *PaymentItemModel) BeforeCreate(tx *gorm.DB) error {
	if m.PaymentItemID == uuid.Nil {
		m.PaymentItemID = uuid.New()
	}
	if m.PaymentItemCreatedAt.IsZero() {
		m.PaymentItemCreatedAt = time.Now()
	}
	return nil
}
