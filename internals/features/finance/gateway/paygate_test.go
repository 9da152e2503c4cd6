// file: internals/features/finance/gateway/paygate_test.go
package gateway

import (
	"context"
	"crypto/sha512"
	"encoding/hex"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snapSignature(orderID, statusCode, grossAmount, serverKey string) string {
	h := sha512.Sum512([]byte(orderID + statusCode + grossAmount + serverKey))
	return hex.EncodeToString(h[:])
}

func testPaygate() *Paygate {
	cfg := PaygateConfig{
		TmnCode:    "SCH001",
		HashSecret: "rahasia-bersama",
		PayURL:     "https://sandbox.paygate.test/paymentv2/vpcpay.html",
		ReturnURL:  "https://sekolahku.test/api/public/finance/payments/return",
	}
	fixed := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	return NewPaygateAt(cfg, func() time.Time { return fixed })
}

// Payload callback dibangun dari intent asli supaya round-trip-nya nyata:
// sign di CreateIntent, verify di VerifyCallback.
func callbackParams(t *testing.T, g *Paygate, responseCode string) map[string]string {
	t.Helper()

	intent, err := g.CreateIntent(context.Background(), IntentRequest{
		OrderID:     "PAY-20260314-093000-AB12CD34",
		AmountIDR:   1_500_000,
		Description: "SPP Maret",
		ClientIP:    "10.0.0.7",
	})
	require.NoError(t, err)

	params := map[string]string{
		FieldTxnRef:   intent.ExternalRef,
		FieldAmount:   "150000000",
		FieldRspCode:  responseCode,
		FieldTxnNo:    "14421795",
		FieldBankCode: "NCB",
		"pg_TmnCode":  "SCH001",
	}
	params[FieldSecureHash] = g.sign(canonicalQuery(params))
	return params
}

func TestPaygateCreateIntent(t *testing.T) {
	g := testPaygate()

	intent, err := g.CreateIntent(context.Background(), IntentRequest{
		OrderID:     "PAY-20260314-093000-AB12CD34",
		AmountIDR:   1_500_000,
		Description: "SPP Maret",
		ClientIP:    "10.0.0.7",
	})
	require.NoError(t, err)

	assert.Equal(t, ChannelGateway, intent.Channel)
	assert.Equal(t, "PAY-20260314-093000-AB12CD34-093000", intent.ExternalRef)

	u, err := url.Parse(intent.RedirectURL)
	require.NoError(t, err)
	q := u.Query()
	// nominal x100 per kontrak gateway
	assert.Equal(t, "150000000", q.Get(FieldAmount))
	assert.Equal(t, "SCH001", q.Get("pg_TmnCode"))
	assert.Equal(t, intent.ExternalRef, q.Get(FieldTxnRef))
	assert.NotEmpty(t, q.Get(FieldSecureHash))
}

func TestPaygateCreateIntentRejectsBadAmount(t *testing.T) {
	g := testPaygate()

	_, err := g.CreateIntent(context.Background(), IntentRequest{OrderID: "X", AmountIDR: 0})
	require.Error(t, err)

	_, err = g.CreateIntent(context.Background(), IntentRequest{OrderID: "X", AmountIDR: -5})
	require.Error(t, err)
}

func TestPaygateCreateIntentRequiresConfig(t *testing.T) {
	g := NewPaygate(PaygateConfig{})

	_, err := g.CreateIntent(context.Background(), IntentRequest{OrderID: "X", AmountIDR: 100})
	require.Error(t, err)
}

func TestPaygateVerifyCallbackRoundTrip(t *testing.T) {
	g := testPaygate()
	params := callbackParams(t, g, RspCodeSuccess)

	res, err := g.VerifyCallback(params)
	require.NoError(t, err)

	assert.True(t, res.Valid)
	assert.True(t, res.Success)
	assert.Equal(t, "PAY-20260314-093000-AB12CD34-093000", res.ExternalRef)
	assert.Equal(t, int64(1_500_000), res.AmountIDR)
	assert.Equal(t, "14421795", res.TransactionNo)
	assert.Equal(t, "NCB", res.BankCode)
}

func TestPaygateVerifyCallbackFailedCode(t *testing.T) {
	g := testPaygate()
	params := callbackParams(t, g, "24")

	res, err := g.VerifyCallback(params)
	require.NoError(t, err)

	assert.True(t, res.Valid)
	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "dibatalkan")
}

func TestPaygateVerifyCallbackRejectsTamper(t *testing.T) {
	g := testPaygate()

	t.Run("amount diubah", func(t *testing.T) {
		params := callbackParams(t, g, RspCodeSuccess)
		params[FieldAmount] = "1"
		res, err := g.VerifyCallback(params)
		require.NoError(t, err)
		assert.False(t, res.Valid)
	})

	t.Run("response code diubah", func(t *testing.T) {
		params := callbackParams(t, g, "51")
		params[FieldRspCode] = RspCodeSuccess
		res, err := g.VerifyCallback(params)
		require.NoError(t, err)
		assert.False(t, res.Valid)
	})

	t.Run("signature hilang", func(t *testing.T) {
		params := callbackParams(t, g, RspCodeSuccess)
		delete(params, FieldSecureHash)
		res, err := g.VerifyCallback(params)
		require.NoError(t, err)
		assert.False(t, res.Valid)
	})

	t.Run("signature acak", func(t *testing.T) {
		params := callbackParams(t, g, RspCodeSuccess)
		params[FieldSecureHash] = strings.Repeat("ab", 64)
		res, err := g.VerifyCallback(params)
		require.NoError(t, err)
		assert.False(t, res.Valid)
	})
}

func TestPaygateVerifyIgnoresHashTypeField(t *testing.T) {
	g := testPaygate()
	params := callbackParams(t, g, RspCodeSuccess)
	// field meta dari gateway, tidak ikut ditandatangani
	params["pg_SecureHashType"] = "HMACSHA512"

	res, err := g.VerifyCallback(params)
	require.NoError(t, err)
	assert.True(t, res.Valid)
}

func TestCanonicalQuerySortsAndSkipsEmpty(t *testing.T) {
	got := canonicalQuery(map[string]string{
		"pg_B": "2",
		"pg_A": "1",
		"pg_C": "",
		"pg_D": "a b",
	})
	assert.Equal(t, "pg_A=1&pg_B=2&pg_D=a+b", got)
}

func TestResponseMessageUnknownCode(t *testing.T) {
	assert.Contains(t, ResponseMessage("42"), "42")
}

func TestMapSnapStatus(t *testing.T) {
	assert.Equal(t, SnapOutcomePaid, MapSnapStatus("settlement", ""))
	assert.Equal(t, SnapOutcomePaid, MapSnapStatus("capture", "accept"))
	assert.Equal(t, SnapOutcomePending, MapSnapStatus("capture", "challenge"))
	assert.Equal(t, SnapOutcomeFailed, MapSnapStatus("capture", "deny"))
	assert.Equal(t, SnapOutcomePending, MapSnapStatus("pending", ""))
	assert.Equal(t, SnapOutcomeFailed, MapSnapStatus("expire", ""))
	assert.Equal(t, SnapOutcomeFailed, MapSnapStatus("cancel", ""))
	assert.Equal(t, SnapOutcomePending, MapSnapStatus("sesuatu-baru", ""))
}

func TestSnapVerifyNotificationSignature(t *testing.T) {
	g := NewSnap("server-key-123", false)

	// sha512("ORDER-1" + "200" + "1500000.00" + "server-key-123")
	ok := g.VerifyNotificationSignature("ORDER-1", "200", "1500000.00",
		snapSignature("ORDER-1", "200", "1500000.00", "server-key-123"))
	assert.True(t, ok)

	bad := g.VerifyNotificationSignature("ORDER-1", "200", "1500000.00", "deadbeef")
	assert.False(t, bad)
}
