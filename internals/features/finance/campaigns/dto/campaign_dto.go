// file: internals/features/finance/campaigns/dto/campaign_dto.go
package dto

import (
	"time"

	"github.com/google/uuid"

	model "sekolahku_backend/internals/features/finance/campaigns/model"
)

/* ===================== REQUESTS ===================== */

type CampaignCreateDTO struct {
	CampaignClassID     uuid.UUID `json:"campaign_class_id" validate:"required"`
	CampaignTitle       string    `json:"campaign_title" validate:"required,min=3,max=200"`
	CampaignDescription *string   `json:"campaign_description" validate:"omitempty,max=2000"`
	// Kosong/0 → pakai fee kelas
	CampaignAmountIDR *int64     `json:"campaign_amount_idr" validate:"omitempty,gte=0"`
	CampaignDueDate   *time.Time `json:"campaign_due_date"`
}

/* ===================== RESPONSES ===================== */

type CampaignResponse struct {
	CampaignID                   uuid.UUID            `json:"campaign_id"`
	CampaignClassID              uuid.UUID            `json:"campaign_class_id"`
	CampaignTitle                string               `json:"campaign_title"`
	CampaignDescription          *string              `json:"campaign_description,omitempty"`
	CampaignAmountIDR            int64                `json:"campaign_amount_idr"`
	CampaignDueDate              *time.Time           `json:"campaign_due_date,omitempty"`
	CampaignClassNameSnapshot    string               `json:"campaign_class_name_snapshot"`
	CampaignClassSubjectSnapshot *string              `json:"campaign_class_subject_snapshot,omitempty"`
	CampaignStudentCount         int                  `json:"campaign_student_count"`
	CampaignPaidCount            int                  `json:"campaign_paid_count"`
	CampaignCollectedIDR         int64                `json:"campaign_collected_idr"`
	CampaignStatus               model.CampaignStatus `json:"campaign_status"`
	CampaignCreatedAt            time.Time            `json:"campaign_created_at"`
}

func ToCampaignResponse(m model.CampaignModel) CampaignResponse {
	return CampaignResponse{
		CampaignID:                   m.CampaignID,
		CampaignClassID:              m.CampaignClassID,
		CampaignTitle:                m.CampaignTitle,
		CampaignDescription:          m.CampaignDescription,
		CampaignAmountIDR:            m.CampaignAmountIDR,
		CampaignDueDate:              m.CampaignDueDate,
		CampaignClassNameSnapshot:    m.CampaignClassNameSnapshot,
		CampaignClassSubjectSnapshot: m.CampaignClassSubjectSnapshot,
		CampaignStudentCount:         m.CampaignStudentCount,
		CampaignPaidCount:            m.CampaignPaidCount,
		CampaignCollectedIDR:         m.CampaignCollectedIDR,
		CampaignStatus:               m.CampaignStatus,
		CampaignCreatedAt:            m.CampaignCreatedAt,
	}
}

func ToCampaignResponses(ms []model.CampaignModel) []CampaignResponse {
	out := make([]CampaignResponse, 0, len(ms))
	for _, m := range ms {
		out = append(out, ToCampaignResponse(m))
	}
	return out
}

type ObligationResponse struct {
	ObligationID                  uuid.UUID              `json:"obligation_id"`
	ObligationCampaignID          uuid.UUID              `json:"obligation_campaign_id"`
	ObligationStudentID           uuid.UUID              `json:"obligation_student_id"`
	ObligationStudentNameSnapshot string                 `json:"obligation_student_name_snapshot"`
	ObligationStudentCodeSnapshot string                 `json:"obligation_student_code_snapshot"`
	ObligationClassNameSnapshot   string                 `json:"obligation_class_name_snapshot"`
	ObligationBaseAmountIDR       int64                  `json:"obligation_base_amount_idr"`
	ObligationScholarshipPercent  int                    `json:"obligation_scholarship_percent"`
	ObligationScholarshipLabel    *string                `json:"obligation_scholarship_label,omitempty"`
	ObligationDiscountIDR         int64                  `json:"obligation_discount_idr"`
	ObligationFinalAmountIDR      int64                  `json:"obligation_final_amount_idr"`
	ObligationDueDate             *time.Time             `json:"obligation_due_date,omitempty"`
	ObligationStatus              model.ObligationStatus `json:"obligation_status"`
	ObligationPaidAt              *time.Time             `json:"obligation_paid_at,omitempty"`
	ObligationPaymentID           *uuid.UUID             `json:"obligation_payment_id,omitempty"`
}

func ToObligationResponse(m model.ObligationModel) ObligationResponse {
	return ObligationResponse{
		ObligationID:                  m.ObligationID,
		ObligationCampaignID:          m.ObligationCampaignID,
		ObligationStudentID:           m.ObligationStudentID,
		ObligationStudentNameSnapshot: m.ObligationStudentNameSnapshot,
		ObligationStudentCodeSnapshot: m.ObligationStudentCodeSnapshot,
		ObligationClassNameSnapshot:   m.ObligationClassNameSnapshot,
		ObligationBaseAmountIDR:       m.ObligationBaseAmountIDR,
		ObligationScholarshipPercent:  m.ObligationScholarshipPercent,
		ObligationScholarshipLabel:    m.ObligationScholarshipLabel,
		ObligationDiscountIDR:         m.ObligationDiscountIDR,
		ObligationFinalAmountIDR:      m.ObligationFinalAmountIDR,
		ObligationDueDate:             m.ObligationDueDate,
		ObligationStatus:              m.ObligationStatus,
		ObligationPaidAt:              m.ObligationPaidAt,
		ObligationPaymentID:           m.ObligationPaymentID,
	}
}

func ToObligationResponses(ms []model.ObligationModel) []ObligationResponse {
	out := make([]ObligationResponse, 0, len(ms))
	for _, m := range ms {
		out = append(out, ToObligationResponse(m))
	}
	return out
}

// CampaignObligationsResponse: detail satu campaign + rekap status.
type CampaignObligationsResponse struct {
	Campaign    CampaignResponse     `json:"campaign"`
	Total       int                  `json:"total"`
	Paid        int                  `json:"paid"`
	Pending     int                  `json:"pending"`
	Obligations []ObligationResponse `json:"obligations"`
}
