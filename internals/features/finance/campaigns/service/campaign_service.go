// file: internals/features/finance/campaigns/service/campaign_service.go
package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	dto "sekolahku_backend/internals/features/finance/campaigns/dto"
	model "sekolahku_backend/internals/features/finance/campaigns/model"
	"sekolahku_backend/internals/features/finance/directory"
	"sekolahku_backend/internals/features/finance/pricing"
)

/* =========================================================
   CampaignService — pemilik billing_campaigns & obligations.
   Transisi status obligation hanya lewat service ini.
========================================================= */

type CampaignService struct {
	DB       *gorm.DB
	Students directory.StudentDirectory
	Classes  directory.ClassDirectory
}

func NewCampaignService(db *gorm.DB, students directory.StudentDirectory, classes directory.ClassDirectory) *CampaignService {
	return &CampaignService{DB: db, Students: students, Classes: classes}
}

/* =========================================================
   CREATE + FAN-OUT
========================================================= */

// CreateCampaign membuat campaign kelas lalu fan-out satu obligation per
// siswa terdaftar. Harga per siswa dihitung SEKALI di sini (snapshot);
// obligation dengan final 0 langsung berstatus paid tanpa payment record.
func (s *CampaignService) CreateCampaign(ctx context.Context, in dto.CampaignCreateDTO, createdBy uuid.UUID) (model.CampaignModel, []model.ObligationModel, error) {
	class, err := s.Classes.FindByID(ctx, in.CampaignClassID)
	if err != nil {
		return model.CampaignModel{}, nil, err
	}

	amount := class.FeeIDR
	if in.CampaignAmountIDR != nil && *in.CampaignAmountIDR > 0 {
		amount = *in.CampaignAmountIDR
	}
	if amount <= 0 {
		return model.CampaignModel{}, nil, fiber.NewError(fiber.StatusBadRequest, "nominal campaign harus lebih dari 0")
	}

	students, err := s.Classes.ListStudents(ctx, in.CampaignClassID)
	if err != nil {
		return model.CampaignModel{}, nil, err
	}
	if len(students) == 0 {
		return model.CampaignModel{}, nil, fiber.NewError(fiber.StatusBadRequest, "kelas tidak memiliki siswa terdaftar")
	}

	now := time.Now()
	campaign := model.CampaignModel{
		CampaignClassID:              class.ClassID,
		CampaignTitle:                in.CampaignTitle,
		CampaignDescription:          in.CampaignDescription,
		CampaignAmountIDR:            amount,
		CampaignDueDate:              in.CampaignDueDate,
		CampaignClassNameSnapshot:    class.Name,
		CampaignClassSubjectSnapshot: class.Subject,
		CampaignBranchID:             class.BranchID,
		CampaignStatus:               model.CampaignStatusActive,
		CampaignCreatedByUserID:      &createdBy,
	}

	obligations := make([]model.ObligationModel, 0, len(students))
	paidCount := 0
	for _, st := range students {
		discount, final := pricing.ComputeFinal(amount, st.ScholarshipPercent)

		ob := model.ObligationModel{
			ObligationClassID:              class.ClassID,
			ObligationStudentID:            st.StudentID,
			ObligationStudentNameSnapshot:  st.Name,
			ObligationStudentCodeSnapshot:  st.Code,
			ObligationClassNameSnapshot:    class.Name,
			ObligationClassSubjectSnapshot: class.Subject,
			ObligationBaseAmountIDR:        amount,
			ObligationScholarshipPercent:   st.ScholarshipPercent,
			ObligationScholarshipLabel:     st.ScholarshipLabel,
			ObligationDiscountIDR:          discount,
			ObligationFinalAmountIDR:       final,
			ObligationDueDate:              in.CampaignDueDate,
			ObligationStatus:               model.ObligationStatusPending,
		}
		// Beasiswa penuh: tagihan dianggap lunas sejak lahir,
		// tidak pernah ada payment record untuknya.
		if final == 0 {
			paidAt := now
			ob.ObligationStatus = model.ObligationStatusPaid
			ob.ObligationPaidAt = &paidAt
			paidCount++
		}
		obligations = append(obligations, ob)
	}

	campaign.CampaignStudentCount = len(obligations)
	campaign.CampaignPaidCount = paidCount
	campaign.CampaignCollectedIDR = 0

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&campaign).Error; err != nil {
			return err
		}
		for i := range obligations {
			obligations[i].ObligationCampaignID = campaign.CampaignID
		}
		return tx.CreateInBatches(&obligations, 200).Error
	})
	if err != nil {
		return model.CampaignModel{}, nil, err
	}

	return campaign, obligations, nil
}

/* =========================================================
   QUERIES
========================================================= */

// ListCampaigns: default hanya yang active.
func (s *CampaignService) ListCampaigns(ctx context.Context, classID *uuid.UUID, includeCancelled bool) ([]model.CampaignModel, error) {
	q := s.DB.WithContext(ctx).Model(&model.CampaignModel{})
	if classID != nil {
		q = q.Where("campaign_class_id = ?", *classID)
	}
	if !includeCancelled {
		q = q.Where("campaign_status = ?", model.CampaignStatusActive)
	}
	var out []model.CampaignModel
	if err := q.Order("campaign_created_at DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (s *CampaignService) GetCampaign(ctx context.Context, id uuid.UUID) (model.CampaignModel, error) {
	var m model.CampaignModel
	if err := s.DB.WithContext(ctx).First(&m, "campaign_id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return m, fiber.NewError(fiber.StatusNotFound, "campaign tidak ditemukan")
		}
		return m, err
	}
	return m, nil
}

// GetCampaignObligations mengembalikan campaign + seluruh obligation +
// rekap jumlah paid/pending.
func (s *CampaignService) GetCampaignObligations(ctx context.Context, id uuid.UUID) (model.CampaignModel, []model.ObligationModel, int, int, error) {
	campaign, err := s.GetCampaign(ctx, id)
	if err != nil {
		return campaign, nil, 0, 0, err
	}

	var obligations []model.ObligationModel
	if err := s.DB.WithContext(ctx).
		Where("obligation_campaign_id = ?", id).
		Order("obligation_student_name_snapshot ASC").
		Find(&obligations).Error; err != nil {
		return campaign, nil, 0, 0, err
	}

	paid, pending := 0, 0
	for _, ob := range obligations {
		switch ob.ObligationStatus {
		case model.ObligationStatusPaid:
			paid++
		case model.ObligationStatusPending, model.ObligationStatusOverdue:
			pending++
		}
	}
	return campaign, obligations, paid, pending, nil
}

// ListStudentObligations: tampilan "tagihan saya".
// Tanpa filter status → default yang masih harus dibayar (pending/overdue).
func (s *CampaignService) ListStudentObligations(ctx context.Context, studentID uuid.UUID, statuses []model.ObligationStatus) ([]model.ObligationModel, error) {
	if len(statuses) == 0 {
		statuses = model.PayableStatuses
	}
	var out []model.ObligationModel
	if err := s.DB.WithContext(ctx).
		Where("obligation_student_id = ? AND obligation_status IN ?", studentID, statuses).
		Order("obligation_created_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (s *CampaignService) GetObligation(ctx context.Context, id uuid.UUID) (model.ObligationModel, error) {
	var m model.ObligationModel
	if err := s.DB.WithContext(ctx).First(&m, "obligation_id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return m, fiber.NewError(fiber.StatusNotFound, "tagihan tidak ditemukan")
		}
		return m, err
	}
	return m, nil
}

/* =========================================================
   CANCEL
========================================================= */

// CancelCampaign membatalkan campaign + seluruh obligation yang belum
// dibayar. Idempotent: campaign yang sudah cancelled tidak error.
// Obligation paid tidak pernah disentuh.
func (s *CampaignService) CancelCampaign(ctx context.Context, id uuid.UUID) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var campaign model.CampaignModel
		if err := tx.First(&campaign, "campaign_id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "campaign tidak ditemukan")
			}
			return err
		}
		if campaign.CampaignStatus == model.CampaignStatusCancelled {
			return nil // idempotent
		}

		now := time.Now()
		// CAS di status: hanya satu pembatalan yang menang.
		res := tx.Model(&model.CampaignModel{}).
			Where("campaign_id = ? AND campaign_status = ?", id, model.CampaignStatusActive).
			Updates(map[string]any{
				"campaign_status":       model.CampaignStatusCancelled,
				"campaign_cancelled_at": now,
				"campaign_updated_at":   now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil // keduluan pembatalan lain
		}

		return tx.Model(&model.ObligationModel{}).
			Where("obligation_campaign_id = ? AND obligation_status IN ?", id, model.PayableStatuses).
			Updates(map[string]any{
				"obligation_status":       model.ObligationStatusCancelled,
				"obligation_cancelled_at": now,
				"obligation_updated_at":   now,
			}).Error
	})
}

/* =========================================================
   OVERDUE SWEEP
========================================================= */

// MarkOverdue menandai obligation pending yang sudah lewat due date.
func (s *CampaignService) MarkOverdue(ctx context.Context, now time.Time) (int64, error) {
	res := s.DB.WithContext(ctx).Model(&model.ObligationModel{}).
		Where("obligation_status = ? AND obligation_due_date IS NOT NULL AND obligation_due_date < ?",
			model.ObligationStatusPending, now).
		Updates(map[string]any{
			"obligation_status":     model.ObligationStatusOverdue,
			"obligation_updated_at": now,
		})
	return res.RowsAffected, res.Error
}

/* =========================================================
   GERBANG PEMBAYARAN
========================================================= */

// ValidateForPayment adalah SATU-SATUNYA gerbang sebelum uang berpindah.
// All-or-nothing: semua obligation harus ada, milik studentID, dan masih
// payable. Dipanggil ulang (bukan di-cache) saat settlement.
func (s *CampaignService) ValidateForPayment(ctx context.Context, db *gorm.DB, obligationIDs []uuid.UUID, studentID uuid.UUID) ([]model.ObligationModel, int64, error) {
	if db == nil {
		db = s.DB
	}

	ids := dedupe(obligationIDs)
	if len(ids) == 0 {
		return nil, 0, fiber.NewError(fiber.StatusBadRequest, "daftar tagihan kosong")
	}

	var obligations []model.ObligationModel
	if err := db.WithContext(ctx).
		Where("obligation_id IN ?", ids).
		Find(&obligations).Error; err != nil {
		return nil, 0, err
	}
	if len(obligations) != len(ids) {
		return nil, 0, fiber.NewError(fiber.StatusConflict, "satu atau lebih tagihan tidak ditemukan")
	}

	var total int64
	for _, ob := range obligations {
		if ob.ObligationStudentID != studentID {
			return nil, 0, fiber.NewError(fiber.StatusConflict, "tagihan bukan milik siswa ini")
		}
		if !ob.IsPayable() {
			return nil, 0, fiber.NewError(fiber.StatusConflict, "tagihan sudah dibayar atau dibatalkan")
		}
		total += ob.ObligationFinalAmountIDR
	}
	return obligations, total, nil
}

/* =========================================================
   SETTLEMENT
========================================================= */

// ApplySettlement menandai obligations paid lalu MENGHITUNG ULANG agregat
// campaign dengan re-sum seluruh obligation paid (bukan counter increment —
// tahan drift kalau ada perubahan out-of-band). Wajib dipanggil dalam
// transaksi yang sama dengan transisi payment. Fail closed kalau campaign
// keburu dibatalkan.
func (s *CampaignService) ApplySettlement(tx *gorm.DB, obligationIDs []uuid.UUID, paymentID uuid.UUID, paidAt time.Time) error {
	ids := dedupe(obligationIDs)
	if len(ids) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "daftar tagihan kosong")
	}

	var obligations []model.ObligationModel
	if err := tx.Where("obligation_id IN ?", ids).Find(&obligations).Error; err != nil {
		return err
	}
	if len(obligations) != len(ids) {
		return fiber.NewError(fiber.StatusConflict, "satu atau lebih tagihan tidak ditemukan")
	}

	campaignIDs := make([]uuid.UUID, 0, 1)
	seen := map[uuid.UUID]struct{}{}
	for _, ob := range obligations {
		if _, ok := seen[ob.ObligationCampaignID]; !ok {
			seen[ob.ObligationCampaignID] = struct{}{}
			campaignIDs = append(campaignIDs, ob.ObligationCampaignID)
		}
	}

	// Campaign yang sudah cancelled menolak settlement (fail closed).
	var cancelled int64
	if err := tx.Model(&model.CampaignModel{}).
		Where("campaign_id IN ? AND campaign_status = ?", campaignIDs, model.CampaignStatusCancelled).
		Count(&cancelled).Error; err != nil {
		return err
	}
	if cancelled > 0 {
		return fiber.NewError(fiber.StatusConflict, "campaign sudah dibatalkan, settlement ditolak")
	}

	// CAS per-status: hanya obligation yang masih payable yang boleh flip.
	res := tx.Model(&model.ObligationModel{}).
		Where("obligation_id IN ? AND obligation_status IN ?", ids, model.PayableStatuses).
		Updates(map[string]any{
			"obligation_status":     model.ObligationStatusPaid,
			"obligation_paid_at":    paidAt,
			"obligation_payment_id": paymentID,
			"obligation_updated_at": paidAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected != int64(len(ids)) {
		log.Printf("[WARN] settlement payment=%s: %d/%d obligations masih payable", paymentID, res.RowsAffected, len(ids))
		return fiber.NewError(fiber.StatusConflict, "tagihan berubah status sebelum settlement")
	}

	for _, cid := range campaignIDs {
		if err := s.recomputeAggregates(tx, cid, paidAt); err != nil {
			return err
		}
	}
	return nil
}

// recomputeAggregates: re-sum obligation paid di bawah satu campaign.
func (s *CampaignService) recomputeAggregates(tx *gorm.DB, campaignID uuid.UUID, now time.Time) error {
	// Tag kolom eksplisit: naming default GORM memecah "IDR" jadi id_r.
	var agg struct {
		PaidCount    int64 `gorm:"column:paid_count"`
		CollectedIDR int64 `gorm:"column:collected_idr"`
	}
	if err := tx.Model(&model.ObligationModel{}).
		Select("COUNT(*) AS paid_count, COALESCE(SUM(obligation_final_amount_idr), 0) AS collected_idr").
		Where("obligation_campaign_id = ? AND obligation_status = ?", campaignID, model.ObligationStatusPaid).
		Scan(&agg).Error; err != nil {
		return err
	}

	return tx.Model(&model.CampaignModel{}).
		Where("campaign_id = ?", campaignID).
		Updates(map[string]any{
			"campaign_paid_count":    agg.PaidCount,
			"campaign_collected_idr": agg.CollectedIDR,
			"campaign_updated_at":    now,
		}).Error
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
