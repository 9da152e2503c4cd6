// file: internals/features/finance/payments/service/ledger_service.go
package service

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	campaignservice "sekolahku_backend/internals/features/finance/campaigns/service"
	"sekolahku_backend/internals/features/finance/gateway"
	"sekolahku_backend/internals/features/finance/payments/model"
)

/* =========================================================
   Ledger pembayaran. Semua mutasi status payment lewat sini,
   selalu dalam transaksi, selalu meninggalkan jejak di
   payment_transactions.
========================================================= */

type LedgerService struct {
	DB        *gorm.DB
	Campaigns *campaignservice.CampaignService
}

func NewLedgerService(db *gorm.DB, campaigns *campaignservice.CampaignService) *LedgerService {
	return &LedgerService{DB: db, Campaigns: campaigns}
}

/* ================= Audit log ================= */

// RecordTransaction menulis satu baris audit. Dipakai juga untuk delivery
// yang TIDAK menghasilkan transisi (signature invalid, ref tak dikenal,
// duplikat) — itu justru gunanya.
func (s *LedgerService) RecordTransaction(tx *gorm.DB, row *model.PaymentTransactionModel) error {
	if tx == nil {
		tx = s.DB
	}
	return tx.Create(row).Error
}

/* ================= Settlement via callback ================= */

// CallbackSettlement: hasil verifikasi satu delivery (return ATAU ipn),
// sudah lolos signature check di lapisan atasnya.
type CallbackSettlement struct {
	ExternalRef   string
	Kind          string // model.TxnKindReturnCallback / TxnKindIPNCallback
	Success       bool
	ResponseCode  string
	AmountIDR     int64
	TransactionNo string
	BankCode      string
	Payload       datatypes.JSON
}

// ApplyCallback memproses satu delivery callback. Idempoten: delivery kedua
// untuk payment yang sudah final hanya menambah baris audit, tidak mengubah
// apa pun. Return (payment, transitioned, error); payment kosong kalau
// external ref tidak dikenal.
func (s *LedgerService) ApplyCallback(ctx context.Context, in CallbackSettlement) (model.PaymentModel, bool, error) {
	var out model.PaymentModel
	var rejected *fiber.Error
	transitioned := false

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var payment model.PaymentModel
		found := true
		if err := tx.Where("payment_external_ref = ?", in.ExternalRef).
			First(&payment).Error; err != nil {
			if err != gorm.ErrRecordNotFound {
				return err
			}
			found = false
		}

		// Baris audit ditulis DULUAN, apa pun hasilnya.
		sigValid := true
		row := model.PaymentTransactionModel{
			PaymentTransactionKind:           in.Kind,
			PaymentTransactionExternalRef:    &in.ExternalRef,
			PaymentTransactionResponseCode:   &in.ResponseCode,
			PaymentTransactionSignatureValid: &sigValid,
			PaymentTransactionPayload:        in.Payload,
		}
		if found {
			row.PaymentTransactionPaymentID = &payment.PaymentID
		} else {
			note := "external ref tidak dikenal"
			row.PaymentTransactionNote = &note
		}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		if !found {
			log.Printf("[WARN] callback %s: external ref %s tidak dikenal", in.Kind, in.ExternalRef)
			return nil
		}

		// Simpan payload verbatim per jalur (delivery pertama menang).
		payloadCol := "payment_return_payload"
		if in.Kind == model.TxnKindIPNCallback {
			payloadCol = "payment_ipn_payload"
		}
		if err := tx.Model(&model.PaymentModel{}).
			Where("payment_id = ? AND "+payloadCol+" IS NULL", payment.PaymentID).
			Update(payloadCol, in.Payload).Error; err != nil {
			return err
		}

		if !payment.IsOpen() {
			out = payment
			return nil // sudah final — delivery duplikat
		}

		// Nominal callback wajib sama dengan nominal payment.
		if in.Success && in.AmountIDR != payment.PaymentAmountIDR {
			note := "nominal callback tidak cocok, settlement ditolak"
			log.Printf("[WARN] payment %s: callback amount %d != %d", payment.PaymentID, in.AmountIDR, payment.PaymentAmountIDR)
			out = payment
			return tx.Create(&model.PaymentTransactionModel{
				PaymentTransactionPaymentID:   &payment.PaymentID,
				PaymentTransactionKind:        model.TxnKindSystem,
				PaymentTransactionExternalRef: &in.ExternalRef,
				PaymentTransactionNote:        &note,
			}).Error
		}

		now := time.Now()
		if in.Success {
			ok, err := s.settle(tx, &payment, now, map[string]any{
				"payment_response_code":  in.ResponseCode,
				"payment_transaction_no": in.TransactionNo,
				"payment_bank_code":      in.BankCode,
			})
			if err != nil {
				if fe, isFiber := err.(*fiber.Error); isFiber && fe.Code == fiber.StatusConflict {
					rejected = fe
					out = payment
				}
				return err
			}
			transitioned = ok
		} else {
			res := tx.Model(&model.PaymentModel{}).
				Where("payment_id = ? AND payment_status IN ?", payment.PaymentID, model.PaymentOpenStatuses).
				Updates(map[string]any{
					"payment_status":        model.PaymentStatusFailed,
					"payment_failed_at":     now,
					"payment_response_code": in.ResponseCode,
					"payment_updated_at":    now,
				})
			if res.Error != nil {
				return res.Error
			}
			transitioned = res.RowsAffected == 1
		}

		return tx.Where("payment_id = ?", payment.PaymentID).First(&out).Error
	})
	if err != nil && rejected != nil {
		// Settlement ditolak fail-closed (campaign dibatalkan / tagihan sudah
		// berubah). Rollback ikut menghapus baris audit di atas, jadi delivery
		// direkam ulang di luar transaksi supaya jejaknya tetap ada dan gateway
		// berhenti retry.
		if rerr := s.recordRejectedSettlement(ctx, in, out.PaymentID, rejected.Message); rerr != nil {
			return out, false, rerr
		}
		return out, false, nil
	}
	return out, transitioned, err
}

func (s *LedgerService) recordRejectedSettlement(ctx context.Context, in CallbackSettlement, paymentID uuid.UUID, reason string) error {
	sigValid := true
	note := "settlement ditolak: " + reason
	log.Printf("[WARN] payment %s: %s", paymentID, note)
	return s.RecordTransaction(s.DB.WithContext(ctx), &model.PaymentTransactionModel{
		PaymentTransactionPaymentID:      &paymentID,
		PaymentTransactionKind:           in.Kind,
		PaymentTransactionExternalRef:    &in.ExternalRef,
		PaymentTransactionResponseCode:   &in.ResponseCode,
		PaymentTransactionSignatureValid: &sigValid,
		PaymentTransactionPayload:        in.Payload,
		PaymentTransactionNote:           &note,
	})
}

// settle: CAS payment → paid, lalu settle obligations dalam tx yang sama.
// RowsAffected 0 berarti kalah race dengan delivery lain — bukan error.
func (s *LedgerService) settle(tx *gorm.DB, payment *model.PaymentModel, now time.Time, extra map[string]any) (bool, error) {
	updates := map[string]any{
		"payment_status":     model.PaymentStatusPaid,
		"payment_paid_at":    now,
		"payment_updated_at": now,
	}
	for k, v := range extra {
		updates[k] = v
	}

	res := tx.Model(&model.PaymentModel{}).
		Where("payment_id = ? AND payment_status IN ?", payment.PaymentID, model.PaymentOpenStatuses).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}

	var items []model.PaymentItemModel
	if err := tx.Where("payment_item_payment_id = ?", payment.PaymentID).
		Find(&items).Error; err != nil {
		return false, err
	}
	obligationIDs := make([]uuid.UUID, 0, len(items))
	for _, it := range items {
		obligationIDs = append(obligationIDs, it.PaymentItemObligationID)
	}

	if err := s.Campaigns.ApplySettlement(tx, obligationIDs, payment.PaymentID, now); err != nil {
		return false, err
	}
	return true, nil
}

/* ================= Konfirmasi cash ================= */

// ConfirmCash: kasir mengonfirmasi uang diterima. Transisi + settle tagihan
// + baris audit dalam satu transaksi.
func (s *LedgerService) ConfirmCash(ctx context.Context, paymentID, adminUserID uuid.UUID, note *string) (model.PaymentModel, error) {
	var out model.PaymentModel

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var payment model.PaymentModel
		if err := tx.Where("payment_id = ?", paymentID).First(&payment).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return fiber.NewError(fiber.StatusNotFound, "pembayaran tidak ditemukan")
			}
			return err
		}
		if payment.PaymentChannel != string(gateway.ChannelCash) {
			return fiber.NewError(fiber.StatusConflict, "pembayaran ini bukan channel cash")
		}
		// Konfirmasi ulang atas yang sudah lunas: no-op sukses.
		if payment.IsPaid() {
			out = payment
			return nil
		}
		if !payment.IsOpen() {
			return fiber.NewError(fiber.StatusConflict, "pembayaran sudah final")
		}

		now := time.Now()
		ok, err := s.settle(tx, &payment, now, map[string]any{
			"payment_confirmed_by": adminUserID,
			"payment_confirmed_at": now,
			"payment_note":         note,
		})
		if err != nil {
			return err
		}
		if !ok {
			return fiber.NewError(fiber.StatusConflict, "pembayaran berubah status, coba muat ulang")
		}

		if err := tx.Create(&model.PaymentTransactionModel{
			PaymentTransactionPaymentID: &payment.PaymentID,
			PaymentTransactionKind:      model.TxnKindCashConfirm,
			PaymentTransactionNote:      note,
		}).Error; err != nil {
			return err
		}

		return tx.Where("payment_id = ?", paymentID).First(&out).Error
	})
	return out, err
}

/* ================= Query ================= */

func (s *LedgerService) GetPayment(ctx context.Context, paymentID uuid.UUID) (model.PaymentModel, []model.PaymentItemModel, error) {
	var payment model.PaymentModel
	if err := s.DB.WithContext(ctx).
		Where("payment_id = ?", paymentID).
		First(&payment).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return payment, nil, fiber.NewError(fiber.StatusNotFound, "pembayaran tidak ditemukan")
		}
		return payment, nil, err
	}

	var items []model.PaymentItemModel
	if err := s.DB.WithContext(ctx).
		Where("payment_item_payment_id = ?", paymentID).
		Order("payment_item_created_at ASC").
		Find(&items).Error; err != nil {
		return payment, nil, err
	}
	return payment, items, nil
}

func (s *LedgerService) ListStudentPayments(ctx context.Context, studentID uuid.UUID) ([]model.PaymentModel, error) {
	var payments []model.PaymentModel
	err := s.DB.WithContext(ctx).
		Where("payment_student_id = ?", studentID).
		Order("payment_created_at DESC").
		Find(&payments).Error
	return payments, err
}

// ListAllPayments: tampilan admin, terbaru duluan.
func (s *LedgerService) ListAllPayments(ctx context.Context, status string) ([]model.PaymentModel, error) {
	q := s.DB.WithContext(ctx).Model(&model.PaymentModel{})
	if status != "" {
		q = q.Where("payment_status = ?", status)
	}
	var payments []model.PaymentModel
	err := q.Order("payment_created_at DESC").Find(&payments).Error
	return payments, err
}

// ListPendingCash: antrian loket untuk kasir.
func (s *LedgerService) ListPendingCash(ctx context.Context) ([]model.PaymentModel, error) {
	var payments []model.PaymentModel
	err := s.DB.WithContext(ctx).
		Where("payment_channel = ? AND payment_status IN ?", string(gateway.ChannelCash), model.PaymentOpenStatuses).
		Order("payment_created_at ASC").
		Find(&payments).Error
	return payments, err
}

func (s *LedgerService) ListTransactions(ctx context.Context, paymentID uuid.UUID) ([]model.PaymentTransactionModel, error) {
	var rows []model.PaymentTransactionModel
	err := s.DB.WithContext(ctx).
		Where("payment_transaction_payment_id = ?", paymentID).
		Order("payment_transaction_created_at ASC").
		Find(&rows).Error
	return rows, err
}

// HasOpenPayment: guard anti dobel-bayar — ada payment yang masih open
// yang menyentuh salah satu tagihan ini?
func (s *LedgerService) HasOpenPayment(ctx context.Context, tx *gorm.DB, obligationIDs []uuid.UUID) (bool, error) {
	if tx == nil {
		tx = s.DB
	}
	var n int64
	err := tx.WithContext(ctx).Model(&model.PaymentModel{}).
		Joins("JOIN payment_obligation_items ON payment_item_payment_id = payment_id").
		Where("payment_status IN ? AND payment_item_obligation_id IN ?", model.PaymentOpenStatuses, obligationIDs).
		Count(&n).Error
	return n > 0, err
}
