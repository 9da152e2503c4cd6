// file: internals/features/finance/campaigns/model/campaign_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

/* ==============================
   ENUM — status campaign
============================== */

type CampaignStatus string

const (
	CampaignStatusActive    CampaignStatus = "active"
	CampaignStatusCancelled CampaignStatus = "cancelled"
)

/* ==============================================
   MODEL — billing_campaigns (tagihan per kelas)
============================================== */

type CampaignModel struct {
	CampaignID uuid.UUID `gorm:"column:campaign_id;type:uuid;primaryKey" json:"campaign_id"`

	CampaignClassID uuid.UUID `gorm:"column:campaign_class_id;type:uuid;not null;index" json:"campaign_class_id"`

	CampaignTitle       string     `gorm:"column:campaign_title;type:text;not null" json:"campaign_title"`
	CampaignDescription *string    `gorm:"column:campaign_description;type:text" json:"campaign_description,omitempty"`
	CampaignAmountIDR   int64      `gorm:"column:campaign_amount_idr;not null" json:"campaign_amount_idr"`
	CampaignDueDate     *time.Time `gorm:"column:campaign_due_date;type:date" json:"campaign_due_date,omitempty"`

	// Snapshot kelas saat campaign dibuat (kebal terhadap edit kelas)
	CampaignClassNameSnapshot    string     `gorm:"column:campaign_class_name_snapshot;type:text;not null" json:"campaign_class_name_snapshot"`
	CampaignClassSubjectSnapshot *string    `gorm:"column:campaign_class_subject_snapshot;type:text" json:"campaign_class_subject_snapshot,omitempty"`
	CampaignBranchID             *uuid.UUID `gorm:"column:campaign_branch_id;type:uuid" json:"campaign_branch_id,omitempty"`

	// Agregat berjalan — SELALU hasil re-sum obligations (lihat ApplySettlement)
	CampaignStudentCount int   `gorm:"column:campaign_student_count;not null" json:"campaign_student_count"`
	CampaignPaidCount    int   `gorm:"column:campaign_paid_count;not null" json:"campaign_paid_count"`
	CampaignCollectedIDR int64 `gorm:"column:campaign_collected_idr;not null" json:"campaign_collected_idr"`

	CampaignStatus      CampaignStatus `gorm:"column:campaign_status;type:varchar(20);not null;default:'active';index" json:"campaign_status"`
	CampaignCancelledAt *time.Time     `gorm:"column:campaign_cancelled_at" json:"campaign_cancelled_at,omitempty"`

	CampaignCreatedByUserID *uuid.UUID `gorm:"column:campaign_created_by_user_id;type:uuid" json:"campaign_created_by_user_id,omitempty"`

	CampaignCreatedAt time.Time `gorm:"column:campaign_created_at;not null" json:"campaign_created_at"`
	CampaignUpdatedAt time.Time `gorm:"column:campaign_updated_at;not null" json:"campaign_updated_at"`
}

func (CampaignModel) TableName() string { return "billing_campaigns" }

func (m *CampaignModel) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	if m.CampaignID == uuid.Nil {
		m.CampaignID = uuid.New()
	}
	if m.CampaignStatus == "" {
		m.CampaignStatus = CampaignStatusActive
	}
	if m.CampaignCreatedAt.IsZero() {
		m.CampaignCreatedAt = now
	}
	m.CampaignUpdatedAt = now
	return nil
}

func (m *CampaignModel) BeforeUpdate(tx *gorm.DB) error {
	m.CampaignUpdatedAt = time.Now()
	return nil
}
