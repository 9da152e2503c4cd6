// file: internals/features/finance/payments/service/checkout_service_test.go
package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	campaigndto "sekolahku_backend/internals/features/finance/campaigns/dto"
	campaignmodel "sekolahku_backend/internals/features/finance/campaigns/model"
	campaignservice "sekolahku_backend/internals/features/finance/campaigns/service"
	"sekolahku_backend/internals/features/finance/directory"
	"sekolahku_backend/internals/features/finance/gateway"
	"sekolahku_backend/internals/features/finance/payments/dto"
	"sekolahku_backend/internals/features/finance/payments/model"
)

const testHashSecret = "rahasia-test"

/* ================= harness ================= */

type fakeStudentDir struct {
	byID map[uuid.UUID]directory.StudentInfo
}

func (f *fakeStudentDir) FindByID(_ context.Context, id uuid.UUID) (directory.StudentInfo, error) {
	st, ok := f.byID[id]
	if !ok {
		return directory.StudentInfo{}, fiber.NewError(fiber.StatusNotFound, "siswa tidak ditemukan")
	}
	return st, nil
}

func (f *fakeStudentDir) FindByUserID(_ context.Context, userID uuid.UUID) (directory.StudentInfo, error) {
	for _, st := range f.byID {
		if st.UserID == userID {
			return st, nil
		}
	}
	return directory.StudentInfo{}, fiber.NewError(fiber.StatusNotFound, "siswa tidak ditemukan")
}

type fakeClassDir struct {
	class    directory.ClassInfo
	students []directory.StudentInfo
}

func (f *fakeClassDir) FindByID(_ context.Context, id uuid.UUID) (directory.ClassInfo, error) {
	if id != f.class.ClassID {
		return directory.ClassInfo{}, fiber.NewError(fiber.StatusNotFound, "kelas tidak ditemukan")
	}
	return f.class, nil
}

func (f *fakeClassDir) ListStudents(_ context.Context, id uuid.UUID) ([]directory.StudentInfo, error) {
	if id != f.class.ClassID {
		return nil, fiber.NewError(fiber.StatusNotFound, "kelas tidak ditemukan")
	}
	return f.students, nil
}

type fixture struct {
	db        *gorm.DB
	campaigns *campaignservice.CampaignService
	ledger    *LedgerService
	checkout  *CheckoutService
	classes   *fakeClassDir
	students  []directory.StudentInfo
}

func newFixture(t *testing.T, feeIDR int64, students ...directory.StudentInfo) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&campaignmodel.CampaignModel{},
		&campaignmodel.ObligationModel{},
		&model.PaymentModel{},
		&model.PaymentItemModel{},
		&model.PaymentTransactionModel{},
	))

	classes := &fakeClassDir{
		class: directory.ClassInfo{
			ClassID: uuid.New(),
			Name:    "Fisika 8B",
			FeeIDR:  feeIDR,
		},
		students: students,
	}
	byID := make(map[uuid.UUID]directory.StudentInfo, len(students))
	for _, st := range students {
		byID[st.StudentID] = st
	}
	studentDir := &fakeStudentDir{byID: byID}

	campaignSvc := campaignservice.NewCampaignService(db, studentDir, classes)
	ledger := NewLedgerService(db, campaignSvc)

	paygate := gateway.NewPaygate(gateway.PaygateConfig{
		TmnCode:    "SCH001",
		HashSecret: testHashSecret,
		PayURL:     "https://sandbox.paygate.test/pay",
		ReturnURL:  "https://api.sekolahku.test/api/public/finance/payments/return",
	})
	snapGw := gateway.NewSnap("snap-server-key", false)
	registry := gateway.NewRegistry(paygate, gateway.NewCash(), snapGw)

	checkout := NewCheckoutService(
		db, studentDir, nil, campaignSvc, ledger, registry,
		paygate, snapGw, "https://app.sekolahku.test/payment/result",
	)

	return &fixture{
		db:        db,
		campaigns: campaignSvc,
		ledger:    ledger,
		checkout:  checkout,
		classes:   classes,
		students:  students,
	}
}

func newStudent(name string, percent int) directory.StudentInfo {
	return directory.StudentInfo{
		StudentID:          uuid.New(),
		UserID:             uuid.New(),
		Name:               name,
		Code:               "S-" + name,
		ScholarshipPercent: percent,
	}
}

func (f *fixture) createCampaign(t *testing.T, title string) (campaignmodel.CampaignModel, []campaignmodel.ObligationModel) {
	t.Helper()
	campaign, obligations, err := f.campaigns.CreateCampaign(context.Background(), campaigndto.CampaignCreateDTO{
		CampaignClassID: f.classes.class.ClassID,
		CampaignTitle:   title,
	}, uuid.New())
	require.NoError(t, err)
	return campaign, obligations
}

func requireFiberCode(t *testing.T, err error, code int) {
	t.Helper()
	require.Error(t, err)
	fe, ok := err.(*fiber.Error)
	require.True(t, ok, "bukan *fiber.Error: %v", err)
	assert.Equal(t, code, fe.Code)
}

// signParams meniru kontrak wire gateway: query terurut alfabetis,
// HMAC-SHA512 dengan shared secret.
func signParams(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k, v := range params {
		if v == "" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(k))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(params[k]))
	}

	mac := hmac.New(sha512.New, []byte(testHashSecret))
	mac.Write([]byte(b.String()))
	return hex.EncodeToString(mac.Sum(nil))
}

func signedCallback(externalRef string, amountIDR int64, responseCode string) map[string]string {
	params := map[string]string{
		gateway.FieldTxnRef:   externalRef,
		gateway.FieldAmount:   strconv.FormatInt(amountIDR*100, 10),
		gateway.FieldRspCode:  responseCode,
		gateway.FieldTxnNo:    "14421795",
		gateway.FieldBankCode: "NCB",
		"pg_TmnCode":          "SCH001",
	}
	params[gateway.FieldSecureHash] = signParams(params)
	return params
}

/* ================= initiate ================= */

func TestInitiatePaymentGateway(t *testing.T) {
	ctx := context.Background()
	st := newStudent("Andi", 0)
	f := newFixture(t, 1_500_000, st)
	_, obligations := f.createCampaign(t, "SPP Maret")

	payment, intent, err := f.checkout.InitiatePayment(ctx, st.UserID, dto.CheckoutRequest{
		ObligationIDs: []uuid.UUID{obligations[0].ObligationID},
		Channel:       "gateway",
	}, "10.0.0.7")
	require.NoError(t, err)

	assert.Equal(t, model.PaymentStatusPending, payment.PaymentStatus)
	assert.Equal(t, int64(1_500_000), payment.PaymentAmountIDR)
	assert.Equal(t, st.StudentID, payment.PaymentStudentID)
	require.NotNil(t, payment.PaymentExternalRef)
	assert.NotEmpty(t, intent.RedirectURL)

	_, items, err := f.ledger.GetPayment(ctx, payment.PaymentID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, obligations[0].ObligationID, items[0].PaymentItemObligationID)
	assert.Equal(t, "SPP Maret", items[0].PaymentItemTitle)

	rows, err := f.ledger.ListTransactions(ctx, payment.PaymentID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, model.TxnKindCreate, rows[0].PaymentTransactionKind)
}

func TestInitiatePaymentBlocksDoubleCheckout(t *testing.T) {
	ctx := context.Background()
	st := newStudent("Andi", 0)
	f := newFixture(t, 1_000_000, st)
	_, obligations := f.createCampaign(t, "SPP April")

	req := dto.CheckoutRequest{
		ObligationIDs: []uuid.UUID{obligations[0].ObligationID},
		Channel:       "gateway",
	}
	_, _, err := f.checkout.InitiatePayment(ctx, st.UserID, req, "10.0.0.7")
	require.NoError(t, err)

	_, _, err = f.checkout.InitiatePayment(ctx, st.UserID, req, "10.0.0.7")
	requireFiberCode(t, err, fiber.StatusConflict)
}

func TestInitiatePaymentGuardian(t *testing.T) {
	ctx := context.Background()
	guardian := uuid.New()
	st := newStudent("Andi", 0)
	st.GuardianUserID = &guardian
	f := newFixture(t, 900_000, st)
	_, obligations := f.createCampaign(t, "SPP Mei")

	req := dto.CheckoutRequest{
		ObligationIDs: []uuid.UUID{obligations[0].ObligationID},
		Channel:       "cash",
		StudentID:     &st.StudentID,
	}

	// orang asing ditolak
	_, _, err := f.checkout.InitiatePayment(ctx, uuid.New(), req, "10.0.0.7")
	requireFiberCode(t, err, fiber.StatusForbidden)

	// wali sah
	payment, intent, err := f.checkout.InitiatePayment(ctx, guardian, req, "10.0.0.7")
	require.NoError(t, err)
	assert.Equal(t, guardian, payment.PaymentPayerUserID)
	assert.Equal(t, st.StudentID, payment.PaymentStudentID)
	assert.NotEmpty(t, intent.Instructions)
	assert.Nil(t, payment.PaymentExternalRef) // cash tak punya ref gateway
}

func TestInitiatePaymentRejectsZeroTotal(t *testing.T) {
	ctx := context.Background()
	st := newStudent("Andi", 0)
	f := newFixture(t, 800_000, st)

	// campaign terpisah, supaya tidak tabrakan dengan obligation hasil fan-out
	zeroCampaign := campaignmodel.CampaignModel{
		CampaignClassID:           f.classes.class.ClassID,
		CampaignTitle:             "SPP Juni",
		CampaignAmountIDR:         0,
		CampaignClassNameSnapshot: f.classes.class.Name,
		CampaignStudentCount:      1,
	}
	require.NoError(t, f.db.Create(&zeroCampaign).Error)

	// tagihan nol yang entah bagaimana masih pending
	ob := campaignmodel.ObligationModel{
		ObligationCampaignID:          zeroCampaign.CampaignID,
		ObligationClassID:             f.classes.class.ClassID,
		ObligationStudentID:           st.StudentID,
		ObligationStudentNameSnapshot: st.Name,
		ObligationStudentCodeSnapshot: st.Code,
		ObligationClassNameSnapshot:   f.classes.class.Name,
		ObligationBaseAmountIDR:       0,
		ObligationFinalAmountIDR:      0,
		ObligationStatus:              campaignmodel.ObligationStatusPending,
	}
	require.NoError(t, f.db.Create(&ob).Error)

	_, _, err := f.checkout.InitiatePayment(ctx, st.UserID, dto.CheckoutRequest{
		ObligationIDs: []uuid.UUID{ob.ObligationID},
		Channel:       "gateway",
	}, "10.0.0.7")
	requireFiberCode(t, err, fiber.StatusBadRequest)
}

func TestInitiatePaymentUnknownChannel(t *testing.T) {
	st := newStudent("Andi", 0)
	f := newFixture(t, 500_000, st)
	_, obligations := f.createCampaign(t, "SPP Juli")

	_, _, err := f.checkout.InitiatePayment(context.Background(), st.UserID, dto.CheckoutRequest{
		ObligationIDs: []uuid.UUID{obligations[0].ObligationID},
		Channel:       "pulsa",
	}, "10.0.0.7")
	requireFiberCode(t, err, fiber.StatusBadRequest)
}

/* ================= end-to-end callback ================= */

func TestCheckoutSettlesViaIPN(t *testing.T) {
	ctx := context.Background()
	st := newStudent("Andi", 0)
	f := newFixture(t, 1_500_000, st)
	campaign, obligations := f.createCampaign(t, "SPP Agustus")

	payment, _, err := f.checkout.InitiatePayment(ctx, st.UserID, dto.CheckoutRequest{
		ObligationIDs: []uuid.UUID{obligations[0].ObligationID},
		Channel:       "gateway",
	}, "10.0.0.7")
	require.NoError(t, err)

	params := signedCallback(*payment.PaymentExternalRef, 1_500_000, gateway.RspCodeSuccess)
	ack, err := f.checkout.HandleIPN(ctx, params)
	require.NoError(t, err)
	assert.Equal(t, "00", ack.RspCode)

	fresh, _, err := f.ledger.GetPayment(ctx, payment.PaymentID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusPaid, fresh.PaymentStatus)
	assert.NotNil(t, fresh.PaymentPaidAt)
	assert.NotNil(t, fresh.PaymentIPNPayload)

	ob, err := f.campaigns.GetObligation(ctx, obligations[0].ObligationID)
	require.NoError(t, err)
	assert.Equal(t, campaignmodel.ObligationStatusPaid, ob.ObligationStatus)
	require.NotNil(t, ob.ObligationPaymentID)
	assert.Equal(t, payment.PaymentID, *ob.ObligationPaymentID)

	freshCampaign, err := f.campaigns.GetCampaign(ctx, campaign.CampaignID)
	require.NoError(t, err)
	assert.Equal(t, 1, freshCampaign.CampaignPaidCount)
	assert.Equal(t, int64(1_500_000), freshCampaign.CampaignCollectedIDR)
}

func TestCheckoutDuplicateDeliveryIsNoOp(t *testing.T) {
	ctx := context.Background()
	st := newStudent("Andi", 0)
	f := newFixture(t, 1_200_000, st)
	campaign, obligations := f.createCampaign(t, "SPP September")

	payment, _, err := f.checkout.InitiatePayment(ctx, st.UserID, dto.CheckoutRequest{
		ObligationIDs: []uuid.UUID{obligations[0].ObligationID},
		Channel:       "gateway",
	}, "10.0.0.7")
	require.NoError(t, err)

	params := signedCallback(*payment.PaymentExternalRef, 1_200_000, gateway.RspCodeSuccess)

	// IPN duluan, lalu return-redirect membawa payload yang sama
	_, err = f.checkout.HandleIPN(ctx, params)
	require.NoError(t, err)
	target, err := f.checkout.HandleReturn(ctx, params)
	require.NoError(t, err)
	assert.Contains(t, target, "status=paid")

	fresh, _, err := f.ledger.GetPayment(ctx, payment.PaymentID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusPaid, fresh.PaymentStatus)

	// agregat terhitung SEKALI
	freshCampaign, err := f.campaigns.GetCampaign(ctx, campaign.CampaignID)
	require.NoError(t, err)
	assert.Equal(t, 1, freshCampaign.CampaignPaidCount)
	assert.Equal(t, int64(1_200_000), freshCampaign.CampaignCollectedIDR)

	// tiga jejak audit: create + ipn + return
	rows, err := f.ledger.ListTransactions(ctx, payment.PaymentID)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, model.TxnKindCreate, rows[0].PaymentTransactionKind)
	assert.Equal(t, model.TxnKindIPNCallback, rows[1].PaymentTransactionKind)
	assert.Equal(t, model.TxnKindReturnCallback, rows[2].PaymentTransactionKind)
}

func TestCheckoutTamperedCallbackChangesNothing(t *testing.T) {
	ctx := context.Background()
	st := newStudent("Andi", 0)
	f := newFixture(t, 1_000_000, st)
	_, obligations := f.createCampaign(t, "SPP Oktober")

	payment, _, err := f.checkout.InitiatePayment(ctx, st.UserID, dto.CheckoutRequest{
		ObligationIDs: []uuid.UUID{obligations[0].ObligationID},
		Channel:       "gateway",
	}, "10.0.0.7")
	require.NoError(t, err)

	params := signedCallback(*payment.PaymentExternalRef, 1_000_000, "24")
	params[gateway.FieldRspCode] = gateway.RspCodeSuccess // dipalsukan

	ack, err := f.checkout.HandleIPN(ctx, params)
	require.NoError(t, err)
	assert.Equal(t, "97", ack.RspCode)

	fresh, _, err := f.ledger.GetPayment(ctx, payment.PaymentID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusPending, fresh.PaymentStatus)

	ob, err := f.campaigns.GetObligation(ctx, obligations[0].ObligationID)
	require.NoError(t, err)
	assert.Equal(t, campaignmodel.ObligationStatusPending, ob.ObligationStatus)

	// delivery rusak tetap terekam
	rows, err := f.ledger.ListTransactions(ctx, payment.PaymentID)
	require.NoError(t, err)
	require.Len(t, rows, 1) // hanya create; baris invalid tak ber-payment_id

	var orphan model.PaymentTransactionModel
	require.NoError(t, f.db.
		Where("payment_transaction_signature_valid = ?", false).
		First(&orphan).Error)
	assert.Equal(t, model.TxnKindIPNCallback, orphan.PaymentTransactionKind)
}

func TestCheckoutFailedCallbackReleasesObligations(t *testing.T) {
	ctx := context.Background()
	st := newStudent("Andi", 0)
	f := newFixture(t, 700_000, st)
	_, obligations := f.createCampaign(t, "SPP November")

	req := dto.CheckoutRequest{
		ObligationIDs: []uuid.UUID{obligations[0].ObligationID},
		Channel:       "gateway",
	}
	payment, _, err := f.checkout.InitiatePayment(ctx, st.UserID, req, "10.0.0.7")
	require.NoError(t, err)

	// user membatalkan di halaman gateway
	params := signedCallback(*payment.PaymentExternalRef, 700_000, "24")
	ack, err := f.checkout.HandleIPN(ctx, params)
	require.NoError(t, err)
	assert.Equal(t, "00", ack.RspCode)

	fresh, _, err := f.ledger.GetPayment(ctx, payment.PaymentID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusFailed, fresh.PaymentStatus)
	assert.NotNil(t, fresh.PaymentFailedAt)

	ob, err := f.campaigns.GetObligation(ctx, obligations[0].ObligationID)
	require.NoError(t, err)
	assert.Equal(t, campaignmodel.ObligationStatusPending, ob.ObligationStatus)

	// guard in-flight lepas: checkout ulang boleh
	_, _, err = f.checkout.InitiatePayment(ctx, st.UserID, req, "10.0.0.7")
	require.NoError(t, err)
}

func TestCheckoutCancelledCampaignRejectsSettlement(t *testing.T) {
	ctx := context.Background()
	st := newStudent("Andi", 0)
	f := newFixture(t, 1_000_000, st)
	campaign, obligations := f.createCampaign(t, "SPP Khusus")

	payment, _, err := f.checkout.InitiatePayment(ctx, st.UserID, dto.CheckoutRequest{
		ObligationIDs: []uuid.UUID{obligations[0].ObligationID},
		Channel:       "gateway",
	}, "10.0.0.7")
	require.NoError(t, err)

	// campaign dibatalkan selagi user masih di halaman gateway
	require.NoError(t, f.campaigns.CancelCampaign(ctx, campaign.CampaignID))

	params := signedCallback(*payment.PaymentExternalRef, 1_000_000, gateway.RspCodeSuccess)
	ack, err := f.checkout.HandleIPN(ctx, params)
	require.NoError(t, err)
	assert.Equal(t, "00", ack.RspCode) // di-ack supaya gateway berhenti retry

	// transisi batal total: payment tetap pending, agregat tak tersentuh
	fresh, _, err := f.ledger.GetPayment(ctx, payment.PaymentID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusPending, fresh.PaymentStatus)

	freshCampaign, err := f.campaigns.GetCampaign(ctx, campaign.CampaignID)
	require.NoError(t, err)
	assert.Equal(t, 0, freshCampaign.CampaignPaidCount)
	assert.Equal(t, int64(0), freshCampaign.CampaignCollectedIDR)

	// delivery yang ditolak tetap terekam
	rows, err := f.ledger.ListTransactions(ctx, payment.PaymentID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, model.TxnKindIPNCallback, rows[1].PaymentTransactionKind)
	require.NotNil(t, rows[1].PaymentTransactionNote)
	assert.Contains(t, *rows[1].PaymentTransactionNote, "settlement ditolak")
}

func TestCheckoutUnknownRefAcked(t *testing.T) {
	st := newStudent("Andi", 0)
	f := newFixture(t, 500_000, st)

	params := signedCallback("REF-TIDAK-ADA", 500_000, gateway.RspCodeSuccess)
	ack, err := f.checkout.HandleIPN(context.Background(), params)
	require.NoError(t, err)
	assert.Equal(t, "01", ack.RspCode)

	// tetap terekam untuk investigasi
	var row model.PaymentTransactionModel
	require.NoError(t, f.db.
		Where("payment_transaction_external_ref = ?", "REF-TIDAK-ADA").
		First(&row).Error)
	assert.Nil(t, row.PaymentTransactionPaymentID)
}

func TestCheckoutAmountMismatchRejected(t *testing.T) {
	ctx := context.Background()
	st := newStudent("Andi", 0)
	f := newFixture(t, 1_000_000, st)
	_, obligations := f.createCampaign(t, "SPP Desember")

	payment, _, err := f.checkout.InitiatePayment(ctx, st.UserID, dto.CheckoutRequest{
		ObligationIDs: []uuid.UUID{obligations[0].ObligationID},
		Channel:       "gateway",
	}, "10.0.0.7")
	require.NoError(t, err)

	// signature sah tapi nominalnya cuma 1.000 — settlement wajib ditolak
	params := signedCallback(*payment.PaymentExternalRef, 1_000, gateway.RspCodeSuccess)
	_, err = f.checkout.HandleIPN(ctx, params)
	require.NoError(t, err)

	fresh, _, err := f.ledger.GetPayment(ctx, payment.PaymentID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusPending, fresh.PaymentStatus)
}
