// file: internals/features/finance/payments/service/checkout_service.go
package service

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	campaignmodel "sekolahku_backend/internals/features/finance/campaigns/model"
	campaignservice "sekolahku_backend/internals/features/finance/campaigns/service"
	"sekolahku_backend/internals/features/finance/directory"
	"sekolahku_backend/internals/features/finance/gateway"
	"sekolahku_backend/internals/features/finance/payments/dto"
	"sekolahku_backend/internals/features/finance/payments/model"
)

/* =========================================================
   Checkout: dari daftar tagihan ke payment intent, lalu
   menerima hasilnya kembali lewat return-redirect / IPN.
========================================================= */

type CheckoutService struct {
	DB        *gorm.DB
	Students  directory.StudentDirectory
	Branches  directory.BranchDirectory
	Campaigns *campaignservice.CampaignService
	Ledger    *LedgerService
	Gateways  *gateway.Registry

	// Dipegang langsung untuk verifikasi callback (registry hanya
	// tahu CreateIntent).
	Paygate *gateway.Paygate
	Snap    *gateway.Snap

	// URL frontend tujuan setelah return-redirect.
	ResultRedirect string
}

func NewCheckoutService(
	db *gorm.DB,
	students directory.StudentDirectory,
	branches directory.BranchDirectory,
	campaigns *campaignservice.CampaignService,
	ledger *LedgerService,
	gateways *gateway.Registry,
	paygate *gateway.Paygate,
	snapGw *gateway.Snap,
	resultRedirect string,
) *CheckoutService {
	return &CheckoutService{
		DB:             db,
		Students:       students,
		Branches:       branches,
		Campaigns:      campaigns,
		Ledger:         ledger,
		Gateways:       gateways,
		Paygate:        paygate,
		Snap:           snapGw,
		ResultRedirect: resultRedirect,
	}
}

/* ================= Initiate ================= */

// InitiatePayment membuat payment untuk sekumpulan tagihan. Payer boleh
// siswa itu sendiri atau walinya.
func (s *CheckoutService) InitiatePayment(ctx context.Context, payerUserID uuid.UUID, in dto.CheckoutRequest, clientIP string) (model.PaymentModel, gateway.Intent, error) {
	var empty gateway.Intent

	ch, err := gateway.ParseChannel(in.Channel)
	if err != nil {
		return model.PaymentModel{}, empty, err
	}
	gw, err := s.Gateways.Get(ch)
	if err != nil {
		return model.PaymentModel{}, empty, err
	}

	student, err := s.resolveStudent(ctx, payerUserID, in.StudentID)
	if err != nil {
		return model.PaymentModel{}, empty, err
	}

	obligations, total, err := s.Campaigns.ValidateForPayment(ctx, nil, in.ObligationIDs, student.StudentID)
	if err != nil {
		return model.PaymentModel{}, empty, err
	}
	if total <= 0 {
		return model.PaymentModel{}, empty, fiber.NewError(fiber.StatusBadRequest, "total tagihan nol, tidak ada yang perlu dibayar")
	}

	obligationIDs := make([]uuid.UUID, 0, len(obligations))
	for _, ob := range obligations {
		obligationIDs = append(obligationIDs, ob.ObligationID)
	}
	open, err := s.Ledger.HasOpenPayment(ctx, nil, obligationIDs)
	if err != nil {
		return model.PaymentModel{}, empty, err
	}
	if open {
		return model.PaymentModel{}, empty, fiber.NewError(fiber.StatusConflict, "sudah ada pembayaran berjalan untuk tagihan ini")
	}

	titles, err := s.campaignTitles(ctx, obligations)
	if err != nil {
		return model.PaymentModel{}, empty, err
	}

	var branchName *string
	if student.BranchID != nil && s.Branches != nil {
		if name, err := s.Branches.BranchName(ctx, *student.BranchID); err == nil && name != "" {
			branchName = &name
		}
	}

	desc := fmt.Sprintf("Pembayaran %d tagihan - %s", len(obligations), student.Name)
	payment := model.PaymentModel{
		PaymentStudentID:   student.StudentID,
		PaymentPayerUserID: payerUserID,
		PaymentBranchID:    student.BranchID,
		PaymentStudentName: &student.Name,
		PaymentBranchName:  branchName,
		PaymentAmountIDR:   total,
		PaymentStatus:      model.PaymentStatusInitiated,
		PaymentChannel:     string(ch),
		PaymentOrderID:     gateway.GenOrderID("PAY"),
		PaymentDescription: &desc,
		PaymentNote:        in.Note,
	}

	items := make([]model.PaymentItemModel, 0, len(obligations))
	for _, ob := range obligations {
		items = append(items, model.PaymentItemModel{
			PaymentItemObligationID: ob.ObligationID,
			PaymentItemCampaignID:   ob.ObligationCampaignID,
			PaymentItemTitle:        titles[ob.ObligationCampaignID],
			PaymentItemAmountIDR:    ob.ObligationFinalAmountIDR,
		})
	}

	if err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&payment).Error; err != nil {
			return err
		}
		for i := range items {
			items[i].PaymentItemPaymentID = payment.PaymentID
		}
		if err := tx.Create(&items).Error; err != nil {
			return err
		}
		return s.Ledger.RecordTransaction(tx, &model.PaymentTransactionModel{
			PaymentTransactionPaymentID: &payment.PaymentID,
			PaymentTransactionKind:      model.TxnKindCreate,
		})
	}); err != nil {
		return model.PaymentModel{}, empty, err
	}

	intent, err := gw.CreateIntent(ctx, gateway.IntentRequest{
		OrderID:     payment.PaymentOrderID,
		AmountIDR:   total,
		Description: desc,
		ClientIP:    clientIP,
	})
	if err != nil {
		// Intent gagal: payment di-fail supaya guard in-flight lepas.
		now := time.Now()
		reason := err.Error()
		_ = s.DB.WithContext(ctx).Model(&model.PaymentModel{}).
			Where("payment_id = ?", payment.PaymentID).
			Updates(map[string]any{
				"payment_status":     model.PaymentStatusFailed,
				"payment_failed_at":  now,
				"payment_note":       reason,
				"payment_updated_at": now,
			}).Error
		return model.PaymentModel{}, empty, err
	}

	updates := map[string]any{
		"payment_status":     model.PaymentStatusPending,
		"payment_updated_at": time.Now(),
	}
	if intent.ExternalRef != "" {
		updates["payment_external_ref"] = intent.ExternalRef
	}
	if intent.RedirectURL != "" {
		updates["payment_redirect_url"] = intent.RedirectURL
	}
	if intent.Instructions != "" {
		updates["payment_instructions"] = intent.Instructions
	}
	if err := s.DB.WithContext(ctx).Model(&model.PaymentModel{}).
		Where("payment_id = ?", payment.PaymentID).
		Updates(updates).Error; err != nil {
		return model.PaymentModel{}, empty, err
	}

	var fresh model.PaymentModel
	if err := s.DB.WithContext(ctx).
		Where("payment_id = ?", payment.PaymentID).
		First(&fresh).Error; err != nil {
		return model.PaymentModel{}, empty, err
	}
	return fresh, intent, nil
}

func (s *CheckoutService) resolveStudent(ctx context.Context, payerUserID uuid.UUID, studentID *uuid.UUID) (directory.StudentInfo, error) {
	if studentID == nil {
		return s.Students.FindByUserID(ctx, payerUserID)
	}
	student, err := s.Students.FindByID(ctx, *studentID)
	if err != nil {
		return directory.StudentInfo{}, err
	}
	if student.UserID != payerUserID &&
		(student.GuardianUserID == nil || *student.GuardianUserID != payerUserID) {
		return directory.StudentInfo{}, fiber.NewError(fiber.StatusForbidden, "Anda bukan wali siswa ini")
	}
	return student, nil
}

func (s *CheckoutService) campaignTitles(ctx context.Context, obligations []campaignmodel.ObligationModel) (map[uuid.UUID]string, error) {
	ids := make([]uuid.UUID, 0, len(obligations))
	seen := map[uuid.UUID]struct{}{}
	for _, ob := range obligations {
		if _, ok := seen[ob.ObligationCampaignID]; !ok {
			seen[ob.ObligationCampaignID] = struct{}{}
			ids = append(ids, ob.ObligationCampaignID)
		}
	}

	var campaigns []campaignmodel.CampaignModel
	if err := s.DB.WithContext(ctx).
		Select("campaign_id, campaign_title").
		Where("campaign_id IN ?", ids).
		Find(&campaigns).Error; err != nil {
		return nil, err
	}

	titles := make(map[uuid.UUID]string, len(campaigns))
	for _, c := range campaigns {
		titles[c.CampaignID] = c.CampaignTitle
	}
	return titles, nil
}

/* ================= Callback paygate ================= */

// IPNAck: body jawaban untuk server gateway, format {RspCode, Message}.
type IPNAck struct {
	RspCode string `json:"RspCode"`
	Message string `json:"Message"`
}

// HandleIPN memproses notifikasi server-to-server. Selalu menjawab ack
// (gateway akan retry kalau bukan 00), tidak pernah bocor error 500 kecuali
// DB benar-benar tumbang.
func (s *CheckoutService) HandleIPN(ctx context.Context, params map[string]string) (IPNAck, error) {
	res, err := s.Paygate.VerifyCallback(params)
	if err != nil {
		return IPNAck{}, err
	}
	if !res.Valid {
		if err := s.recordInvalidDelivery(ctx, model.TxnKindIPNCallback, params); err != nil {
			return IPNAck{}, err
		}
		return IPNAck{RspCode: "97", Message: "Invalid signature"}, nil
	}

	payment, _, err := s.Ledger.ApplyCallback(ctx, callbackSettlement(res, model.TxnKindIPNCallback, params))
	if err != nil {
		return IPNAck{}, err
	}
	if payment.PaymentID == uuid.Nil {
		return IPNAck{RspCode: "01", Message: "Order not found"}, nil
	}
	return IPNAck{RspCode: "00", Message: "Confirm success"}, nil
}

// HandleReturn memproses redirect browser. Hasilnya URL frontend, dengan
// status ringkas di query string.
func (s *CheckoutService) HandleReturn(ctx context.Context, params map[string]string) (string, error) {
	res, err := s.Paygate.VerifyCallback(params)
	if err != nil {
		return "", err
	}
	if !res.Valid {
		if err := s.recordInvalidDelivery(ctx, model.TxnKindReturnCallback, params); err != nil {
			return "", err
		}
		return s.resultURL("invalid", "", ""), nil
	}

	payment, _, err := s.Ledger.ApplyCallback(ctx, callbackSettlement(res, model.TxnKindReturnCallback, params))
	if err != nil {
		return "", err
	}
	if payment.PaymentID == uuid.Nil {
		return s.resultURL("unknown", "", res.ExternalRef), nil
	}
	return s.resultURL(payment.PaymentStatus, payment.PaymentOrderID, res.ExternalRef), nil
}

func (s *CheckoutService) resultURL(status, orderID, ref string) string {
	q := url.Values{}
	q.Set("status", status)
	if orderID != "" {
		q.Set("order_id", orderID)
	}
	if ref != "" {
		q.Set("ref", ref)
	}
	return s.ResultRedirect + "?" + q.Encode()
}

func callbackSettlement(res gateway.CallbackResult, kind string, params map[string]string) CallbackSettlement {
	payload, _ := sonic.Marshal(params)
	return CallbackSettlement{
		ExternalRef:   res.ExternalRef,
		Kind:          kind,
		Success:       res.Success,
		ResponseCode:  res.ResponseCode,
		AmountIDR:     res.AmountIDR,
		TransactionNo: res.TransactionNo,
		BankCode:      res.BankCode,
		Payload:       payload,
	}
}

// recordInvalidDelivery: delivery dengan signature rusak tetap masuk audit.
func (s *CheckoutService) recordInvalidDelivery(ctx context.Context, kind string, params map[string]string) error {
	payload, _ := sonic.Marshal(params)
	sigValid := false
	ref := params[gateway.FieldTxnRef]
	row := model.PaymentTransactionModel{
		PaymentTransactionKind:           kind,
		PaymentTransactionSignatureValid: &sigValid,
		PaymentTransactionPayload:        payload,
	}
	if ref != "" {
		row.PaymentTransactionExternalRef = &ref
	}
	log.Printf("[WARN] callback %s: signature tidak valid (ref=%s)", kind, ref)
	return s.Ledger.RecordTransaction(s.DB.WithContext(ctx), &row)
}

/* ================= Notifikasi Midtrans ================= */

// SnapNotification: field yang kita pakai dari webhook Midtrans.
type SnapNotification struct {
	OrderID           string `json:"order_id"`
	StatusCode        string `json:"status_code"`
	GrossAmount       string `json:"gross_amount"`
	SignatureKey      string `json:"signature_key"`
	TransactionStatus string `json:"transaction_status"`
	FraudStatus       string `json:"fraud_status"`
}

func (s *CheckoutService) HandleSnapNotification(ctx context.Context, n SnapNotification, raw []byte) error {
	if !s.Snap.VerifyNotificationSignature(n.OrderID, n.StatusCode, n.GrossAmount, n.SignatureKey) {
		sigValid := false
		row := model.PaymentTransactionModel{
			PaymentTransactionKind:           model.TxnKindIPNCallback,
			PaymentTransactionSignatureValid: &sigValid,
			PaymentTransactionPayload:        raw,
		}
		if n.OrderID != "" {
			row.PaymentTransactionExternalRef = &n.OrderID
		}
		log.Printf("[WARN] webhook midtrans: signature tidak valid (order=%s)", n.OrderID)
		if err := s.Ledger.RecordTransaction(s.DB.WithContext(ctx), &row); err != nil {
			return err
		}
		return fiber.NewError(fiber.StatusUnauthorized, "signature tidak valid")
	}

	outcome := gateway.MapSnapStatus(n.TransactionStatus, n.FraudStatus)
	if outcome == gateway.SnapOutcomePending {
		// Belum final — catat saja, status payment tidak berubah.
		sigValid := true
		note := "transaksi masih " + n.TransactionStatus
		return s.Ledger.RecordTransaction(s.DB.WithContext(ctx), &model.PaymentTransactionModel{
			PaymentTransactionKind:           model.TxnKindIPNCallback,
			PaymentTransactionExternalRef:    &n.OrderID,
			PaymentTransactionResponseCode:   &n.TransactionStatus,
			PaymentTransactionSignatureValid: &sigValid,
			PaymentTransactionPayload:        raw,
			PaymentTransactionNote:           &note,
		})
	}

	var amount int64
	if f, err := strconv.ParseFloat(n.GrossAmount, 64); err == nil {
		amount = int64(f)
	}

	_, _, err := s.Ledger.ApplyCallback(ctx, CallbackSettlement{
		ExternalRef:   n.OrderID,
		Kind:          model.TxnKindIPNCallback,
		Success:       outcome == gateway.SnapOutcomePaid,
		ResponseCode:  n.TransactionStatus,
		AmountIDR:     amount,
		TransactionNo: n.OrderID,
		Payload:       raw,
	})
	return err
}
