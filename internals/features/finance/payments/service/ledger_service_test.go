// file: internals/features/finance/payments/service/ledger_service_test.go
package service

import (
	"context"
	"crypto/sha512"
	"encoding/hex"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	campaignmodel "sekolahku_backend/internals/features/finance/campaigns/model"
	"sekolahku_backend/internals/features/finance/payments/dto"
	"sekolahku_backend/internals/features/finance/payments/model"
)

func snapTestSignature(n SnapNotification, serverKey string) string {
	h := sha512.Sum512([]byte(n.OrderID + n.StatusCode + n.GrossAmount + serverKey))
	return hex.EncodeToString(h[:])
}

func TestConfirmCash(t *testing.T) {
	ctx := context.Background()
	st := newStudent("Andi", 0)
	f := newFixture(t, 600_000, st)
	campaign, obligations := f.createCampaign(t, "Iuran pramuka")

	payment, _, err := f.checkout.InitiatePayment(ctx, st.UserID, dto.CheckoutRequest{
		ObligationIDs: []uuid.UUID{obligations[0].ObligationID},
		Channel:       "cash",
	}, "10.0.0.7")
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusPending, payment.PaymentStatus)

	// muncul di antrian kasir
	queue, err := f.ledger.ListPendingCash(ctx)
	require.NoError(t, err)
	require.Len(t, queue, 1)

	adminID := uuid.New()
	note := "diterima tunai di loket"
	confirmed, err := f.ledger.ConfirmCash(ctx, payment.PaymentID, adminID, &note)
	require.NoError(t, err)

	assert.Equal(t, model.PaymentStatusPaid, confirmed.PaymentStatus)
	require.NotNil(t, confirmed.PaymentConfirmedBy)
	assert.Equal(t, adminID, *confirmed.PaymentConfirmedBy)
	assert.NotNil(t, confirmed.PaymentConfirmedAt)
	assert.NotNil(t, confirmed.PaymentPaidAt)

	ob, err := f.campaigns.GetObligation(ctx, obligations[0].ObligationID)
	require.NoError(t, err)
	assert.Equal(t, campaignmodel.ObligationStatusPaid, ob.ObligationStatus)

	freshCampaign, err := f.campaigns.GetCampaign(ctx, campaign.CampaignID)
	require.NoError(t, err)
	assert.Equal(t, int64(600_000), freshCampaign.CampaignCollectedIDR)

	// jejak audit: create + cash_confirm
	rows, err := f.ledger.ListTransactions(ctx, payment.PaymentID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, model.TxnKindCashConfirm, rows[1].PaymentTransactionKind)

	// antrian kosong lagi
	queue, err = f.ledger.ListPendingCash(ctx)
	require.NoError(t, err)
	assert.Empty(t, queue)

	// konfirmasi ulang: no-op sukses, tanpa jejak audit baru
	again, err := f.ledger.ConfirmCash(ctx, payment.PaymentID, adminID, nil)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusPaid, again.PaymentStatus)

	rows, err = f.ledger.ListTransactions(ctx, payment.PaymentID)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestConfirmCashNotFound(t *testing.T) {
	f := newFixture(t, 500_000, newStudent("Andi", 0))
	_, err := f.ledger.ConfirmCash(context.Background(), uuid.New(), uuid.New(), nil)
	requireFiberCode(t, err, fiber.StatusNotFound)
}

func TestConfirmCashRejectsGatewayChannel(t *testing.T) {
	ctx := context.Background()
	st := newStudent("Andi", 0)
	f := newFixture(t, 500_000, st)
	_, obligations := f.createCampaign(t, "SPP Januari")

	payment, _, err := f.checkout.InitiatePayment(ctx, st.UserID, dto.CheckoutRequest{
		ObligationIDs: []uuid.UUID{obligations[0].ObligationID},
		Channel:       "gateway",
	}, "10.0.0.7")
	require.NoError(t, err)

	_, err = f.ledger.ConfirmCash(ctx, payment.PaymentID, uuid.New(), nil)
	requireFiberCode(t, err, fiber.StatusConflict)
}

func TestListStudentPayments(t *testing.T) {
	ctx := context.Background()
	st := newStudent("Andi", 0)
	f := newFixture(t, 400_000, st)
	_, obligations := f.createCampaign(t, "SPP Februari")

	payment, _, err := f.checkout.InitiatePayment(ctx, st.UserID, dto.CheckoutRequest{
		ObligationIDs: []uuid.UUID{obligations[0].ObligationID},
		Channel:       "cash",
	}, "10.0.0.7")
	require.NoError(t, err)

	payments, err := f.ledger.ListStudentPayments(ctx, st.StudentID)
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, payment.PaymentID, payments[0].PaymentID)

	payments, err = f.ledger.ListStudentPayments(ctx, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, payments)
}

func TestSnapNotificationSettles(t *testing.T) {
	ctx := context.Background()
	st := newStudent("Andi", 0)
	f := newFixture(t, 500_000, st)
	_, obligations := f.createCampaign(t, "SPP Snap")

	// channel snap butuh call API Midtrans saat intent; tanam payment-nya
	// langsung dengan external ref = order id.
	orderID := "PAY-TEST-SNAP"
	payment := model.PaymentModel{
		PaymentStudentID:   st.StudentID,
		PaymentPayerUserID: st.UserID,
		PaymentAmountIDR:   500_000,
		PaymentStatus:      model.PaymentStatusPending,
		PaymentChannel:     "snap",
		PaymentOrderID:     orderID,
		PaymentExternalRef: &orderID,
	}
	require.NoError(t, f.db.Create(&payment).Error)
	require.NoError(t, f.db.Create(&model.PaymentItemModel{
		PaymentItemPaymentID:    payment.PaymentID,
		PaymentItemObligationID: obligations[0].ObligationID,
		PaymentItemCampaignID:   obligations[0].ObligationCampaignID,
		PaymentItemTitle:        "SPP Snap",
		PaymentItemAmountIDR:    500_000,
	}).Error)

	n := SnapNotification{
		OrderID:           orderID,
		StatusCode:        "200",
		GrossAmount:       "500000.00",
		TransactionStatus: "settlement",
	}
	n.SignatureKey = snapTestSignature(n, "snap-server-key")

	require.NoError(t, f.checkout.HandleSnapNotification(ctx, n, []byte(`{"transaction_status":"settlement"}`)))

	fresh, _, err := f.ledger.GetPayment(ctx, payment.PaymentID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusPaid, fresh.PaymentStatus)

	ob, err := f.campaigns.GetObligation(ctx, obligations[0].ObligationID)
	require.NoError(t, err)
	assert.Equal(t, campaignmodel.ObligationStatusPaid, ob.ObligationStatus)
}

func TestSnapNotificationBadSignature(t *testing.T) {
	f := newFixture(t, 500_000, newStudent("Andi", 0))

	n := SnapNotification{
		OrderID:           "PAY-X",
		StatusCode:        "200",
		GrossAmount:       "500000.00",
		TransactionStatus: "settlement",
		SignatureKey:      "deadbeef",
	}
	err := f.checkout.HandleSnapNotification(context.Background(), n, []byte(`{}`))
	requireFiberCode(t, err, fiber.StatusUnauthorized)
}
