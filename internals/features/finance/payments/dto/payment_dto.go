// file: internals/features/finance/payments/dto/payment_dto.go
package dto

import (
	"time"

	"github.com/google/uuid"

	"sekolahku_backend/internals/features/finance/payments/model"
)

/* ===================== Request ===================== */

type CheckoutRequest struct {
	ObligationIDs []uuid.UUID `json:"obligation_ids" validate:"required,min=1,dive,required"`
	Channel       string      `json:"channel" validate:"required,oneof=gateway cash snap"`

	// Diisi wali yang membayar untuk anaknya; murid login tak perlu mengisi.
	StudentID *uuid.UUID `json:"student_id,omitempty"`

	Note *string `json:"note,omitempty" validate:"omitempty,max=300"`
}

type CashConfirmRequest struct {
	Note *string `json:"note,omitempty" validate:"omitempty,max=300"`
}

/* ===================== Response ===================== */

type PaymentItemResponse struct {
	PaymentItemID uuid.UUID `json:"payment_item_id"`
	ObligationID  uuid.UUID `json:"obligation_id"`
	CampaignID    uuid.UUID `json:"campaign_id"`
	Title         string    `json:"title"`
	AmountIDR     int64     `json:"amount_idr"`
}

type PaymentResponse struct {
	PaymentID    uuid.UUID  `json:"payment_id"`
	StudentID    uuid.UUID  `json:"student_id"`
	PayerUserID  uuid.UUID  `json:"payer_user_id"`
	StudentName  *string    `json:"student_name,omitempty"`
	BranchName   *string    `json:"branch_name,omitempty"`
	AmountIDR    int64      `json:"amount_idr"`
	Currency     string     `json:"currency"`
	Status       string     `json:"status"`
	Channel      string     `json:"channel"`
	OrderID      string     `json:"order_id"`
	ExternalRef  *string    `json:"external_ref,omitempty"`
	RedirectURL  *string    `json:"redirect_url,omitempty"`
	Instructions *string    `json:"instructions,omitempty"`
	Description  *string    `json:"description,omitempty"`
	PaidAt       *time.Time `json:"paid_at,omitempty"`
	FailedAt     *time.Time `json:"failed_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`

	Items []PaymentItemResponse `json:"items,omitempty"`
}

type PaymentTransactionResponse struct {
	TransactionID  uuid.UUID  `json:"transaction_id"`
	PaymentID      *uuid.UUID `json:"payment_id,omitempty"`
	Kind           string     `json:"kind"`
	ExternalRef    *string    `json:"external_ref,omitempty"`
	ResponseCode   *string    `json:"response_code,omitempty"`
	SignatureValid *bool      `json:"signature_valid,omitempty"`
	Note           *string    `json:"note,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

/* ===================== Converter ===================== */

func ToPaymentItemResponse(m *model.PaymentItemModel) PaymentItemResponse {
	return PaymentItemResponse{
		PaymentItemID: m.PaymentItemID,
		ObligationID:  m.PaymentItemObligationID,
		CampaignID:    m.PaymentItemCampaignID,
		Title:         m.PaymentItemTitle,
		AmountIDR:     m.PaymentItemAmountIDR,
	}
}

func ToPaymentResponse(m *model.PaymentModel, items []model.PaymentItemModel) PaymentResponse {
	resp := PaymentResponse{
		PaymentID:    m.PaymentID,
		StudentID:    m.PaymentStudentID,
		PayerUserID:  m.PaymentPayerUserID,
		StudentName:  m.PaymentStudentName,
		BranchName:   m.PaymentBranchName,
		AmountIDR:    m.PaymentAmountIDR,
		Currency:     m.PaymentCurrency,
		Status:       m.PaymentStatus,
		Channel:      m.PaymentChannel,
		OrderID:      m.PaymentOrderID,
		ExternalRef:  m.PaymentExternalRef,
		RedirectURL:  m.PaymentRedirectURL,
		Instructions: m.PaymentInstructions,
		Description:  m.PaymentDescription,
		PaidAt:       m.PaymentPaidAt,
		FailedAt:     m.PaymentFailedAt,
		CreatedAt:    m.PaymentCreatedAt,
	}
	for i := range items {
		resp.Items = append(resp.Items, ToPaymentItemResponse(&items[i]))
	}
	return resp
}

func ToPaymentTransactionResponse(m *model.PaymentTransactionModel) PaymentTransactionResponse {
	return PaymentTransactionResponse{
		TransactionID:  m.PaymentTransactionID,
		PaymentID:      m.PaymentTransactionPaymentID,
		Kind:           m.PaymentTransactionKind,
		ExternalRef:    m.PaymentTransactionExternalRef,
		ResponseCode:   m.PaymentTransactionResponseCode,
		SignatureValid: m.PaymentTransactionSignatureValid,
		Note:           m.PaymentTransactionNote,
		CreatedAt:      m.PaymentTransactionCreatedAt,
	}
}
