// file: internals/features/finance/campaigns/model/obligation_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

/* ==============================
   ENUM — status obligation
============================== */

type ObligationStatus string

const (
	ObligationStatusPending   ObligationStatus = "pending"
	ObligationStatusPaid      ObligationStatus = "paid"
	ObligationStatusCancelled ObligationStatus = "cancelled"
	ObligationStatusOverdue   ObligationStatus = "overdue"
)

// PayableStatuses: status yang masih boleh dibayar.
var PayableStatuses = []ObligationStatus{ObligationStatusPending, ObligationStatusOverdue}

/* ==============================================
   MODEL — billing_obligations (tagihan per siswa)
   Semua kolom harga adalah snapshot saat create;
   perubahan beasiswa setelahnya tidak berlaku surut.
============================================== */

type ObligationModel struct {
	ObligationID uuid.UUID `gorm:"column:obligation_id;type:uuid;primaryKey" json:"obligation_id"`

	ObligationCampaignID uuid.UUID `gorm:"column:obligation_campaign_id;type:uuid;not null;index;uniqueIndex:uniq_campaign_student,priority:1" json:"obligation_campaign_id"`
	ObligationClassID    uuid.UUID `gorm:"column:obligation_class_id;type:uuid;not null;index" json:"obligation_class_id"`
	ObligationStudentID  uuid.UUID `gorm:"column:obligation_student_id;type:uuid;not null;index;uniqueIndex:uniq_campaign_student,priority:2" json:"obligation_student_id"`

	// Snapshot identitas
	ObligationStudentNameSnapshot  string  `gorm:"column:obligation_student_name_snapshot;type:text;not null" json:"obligation_student_name_snapshot"`
	ObligationStudentCodeSnapshot  string  `gorm:"column:obligation_student_code_snapshot;type:varchar(40);not null" json:"obligation_student_code_snapshot"`
	ObligationClassNameSnapshot    string  `gorm:"column:obligation_class_name_snapshot;type:text;not null" json:"obligation_class_name_snapshot"`
	ObligationClassSubjectSnapshot *string `gorm:"column:obligation_class_subject_snapshot;type:text" json:"obligation_class_subject_snapshot,omitempty"`

	// Harga (snapshot beasiswa)
	ObligationBaseAmountIDR      int64   `gorm:"column:obligation_base_amount_idr;not null" json:"obligation_base_amount_idr"`
	ObligationScholarshipPercent int     `gorm:"column:obligation_scholarship_percent;not null" json:"obligation_scholarship_percent"`
	ObligationScholarshipLabel   *string `gorm:"column:obligation_scholarship_label;type:varchar(60)" json:"obligation_scholarship_label,omitempty"`
	ObligationDiscountIDR        int64   `gorm:"column:obligation_discount_idr;not null" json:"obligation_discount_idr"`
	ObligationFinalAmountIDR     int64   `gorm:"column:obligation_final_amount_idr;not null;check:obligation_final_amount_idr>=0" json:"obligation_final_amount_idr"`

	ObligationDueDate *time.Time `gorm:"column:obligation_due_date;type:date" json:"obligation_due_date,omitempty"`

	// Status & settlement
	ObligationStatus      ObligationStatus `gorm:"column:obligation_status;type:varchar(20);not null;default:'pending';index" json:"obligation_status"`
	ObligationPaidAt      *time.Time       `gorm:"column:obligation_paid_at" json:"obligation_paid_at,omitempty"`
	ObligationPaymentID   *uuid.UUID       `gorm:"column:obligation_payment_id;type:uuid;index" json:"obligation_payment_id,omitempty"`
	ObligationCancelledAt *time.Time       `gorm:"column:obligation_cancelled_at" json:"obligation_cancelled_at,omitempty"`

	ObligationCreatedAt time.Time `gorm:"column:obligation_created_at;not null" json:"obligation_created_at"`
	ObligationUpdatedAt time.Time `gorm:"column:obligation_updated_at;not null" json:"obligation_updated_at"`
}

func (ObligationModel) TableName() string { return "billing_obligations" }

func (m *ObligationModel) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	if m.ObligationID == uuid.Nil {
		m.ObligationID = uuid.New()
	}
	if m.ObligationStatus == "" {
		m.ObligationStatus = ObligationStatusPending
	}
	if m.ObligationCreatedAt.IsZero() {
		m.ObligationCreatedAt = now
	}
	m.ObligationUpdatedAt = now
	return nil
}

func (m *ObligationModel) BeforeUpdate(tx *gorm.DB) error {
	m.ObligationUpdatedAt = time.Now()
	return nil
}

// IsPayable: masih boleh masuk ke payment baru.
func (m *ObligationModel) IsPayable() bool {
	return m.ObligationStatus == ObligationStatusPending || m.ObligationStatus == ObligationStatusOverdue
}
