// file: internals/features/finance/gateway/paygate.go
package gateway

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

/* =========================================================
   Paygate — online redirect gateway.
   Kontrak wire: query string di-sort alfabetis, ditandatangani
   HMAC-SHA512 dengan shared secret, signature menempel di
   pg_SecureHash. Return-redirect dan IPN membawa payload
   bertanda tangan yang sama, jadi verifikasinya satu jalur.
========================================================= */

const (
	FieldSecureHash = "pg_SecureHash"
	FieldTxnRef     = "pg_TxnRef"
	FieldAmount     = "pg_Amount"
	FieldRspCode    = "pg_ResponseCode"
	FieldTxnNo      = "pg_TransactionNo"
	FieldBankCode   = "pg_BankCode"

	// Kode settle dari gateway
	RspCodeSuccess = "00"
)

type PaygateConfig struct {
	TmnCode    string // kode merchant
	HashSecret string
	PayURL     string // endpoint checkout gateway
	ReturnURL  string // URL return-redirect kita
}

type Paygate struct {
	cfg PaygateConfig
	now func() time.Time
}

func NewPaygate(cfg PaygateConfig) *Paygate {
	return &Paygate{cfg: cfg, now: time.Now}
}

// NewPaygateAt: inject clock untuk test.
func NewPaygateAt(cfg PaygateConfig, now func() time.Time) *Paygate {
	return &Paygate{cfg: cfg, now: now}
}

func (g *Paygate) Channel() Channel { return ChannelGateway }

func (g *Paygate) checkConfig() error {
	if g.cfg.TmnCode == "" || g.cfg.HashSecret == "" || g.cfg.PayURL == "" {
		return fiber.NewError(fiber.StatusInternalServerError, "payment gateway belum dikonfigurasi")
	}
	return nil
}

// CreateIntent membangun redirect URL bertanda tangan. External ref unik:
// orderID + timestamp, dipakai gateway untuk korelasi callback.
func (g *Paygate) CreateIntent(ctx context.Context, req IntentRequest) (Intent, error) {
	if err := g.checkConfig(); err != nil {
		return Intent{}, err
	}
	if req.AmountIDR <= 0 {
		return Intent{}, fiber.NewError(fiber.StatusBadRequest, "nominal pembayaran tidak valid")
	}

	now := g.now()
	externalRef := req.OrderID + "-" + now.Format("150405")

	params := map[string]string{
		"pg_Version": "1.0",
		"pg_Command": "pay",
		"pg_TmnCode": g.cfg.TmnCode,
		FieldTxnRef:  externalRef,
		// kontrak gateway: nominal dikirim x100
		FieldAmount:     strconv.FormatInt(req.AmountIDR*100, 10),
		"pg_OrderInfo":  req.Description,
		"pg_ReturnUrl":  g.cfg.ReturnURL,
		"pg_IpAddr":     req.ClientIP,
		"pg_CreateDate": now.Format("20060102150405"),
		"pg_CurrCode":   "IDR",
	}

	canonical := canonicalQuery(params)
	sig := g.sign(canonical)
	redirect := g.cfg.PayURL + "?" + canonical + "&" + FieldSecureHash + "=" + sig

	return Intent{
		Channel:     ChannelGateway,
		RedirectURL: redirect,
		ExternalRef: externalRef,
	}, nil
}

/* ================= Verifikasi callback ================= */

// CallbackResult: hasil verifikasi satu delivery (return ATAU ipn).
type CallbackResult struct {
	Valid         bool
	ExternalRef   string
	ResponseCode  string
	Success       bool
	Message       string
	AmountIDR     int64
	TransactionNo string
	BankCode      string
}

// VerifyCallback mencabut signature, menyusun ulang query terurut dari
// field sisanya, menurunkan ulang HMAC dan membandingkan constant-time.
// Berlaku identik untuk jalur return dan IPN.
func (g *Paygate) VerifyCallback(params map[string]string) (CallbackResult, error) {
	if err := g.checkConfig(); err != nil {
		return CallbackResult{}, err
	}

	received := params[FieldSecureHash]
	if received == "" {
		return CallbackResult{Valid: false}, nil
	}

	rest := make(map[string]string, len(params))
	for k, v := range params {
		if k == FieldSecureHash || k == "pg_SecureHashType" {
			continue
		}
		rest[k] = v
	}

	expected := g.sign(canonicalQuery(rest))
	if subtle.ConstantTimeCompare([]byte(strings.ToLower(received)), []byte(expected)) != 1 {
		return CallbackResult{Valid: false}, nil
	}

	res := CallbackResult{
		Valid:         true,
		ExternalRef:   params[FieldTxnRef],
		ResponseCode:  params[FieldRspCode],
		TransactionNo: params[FieldTxnNo],
		BankCode:      params[FieldBankCode],
	}
	res.Success = res.ResponseCode == RspCodeSuccess
	res.Message = ResponseMessage(res.ResponseCode)
	if raw := params[FieldAmount]; raw != "" {
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
			res.AmountIDR = n / 100
		}
	}
	return res, nil
}

func (g *Paygate) sign(canonical string) string {
	mac := hmac.New(sha512.New, []byte(g.cfg.HashSecret))
	mac.Write([]byte(canonical))
	return hex.EncodeToString(mac.Sum(nil))
}

// canonicalQuery: field diurutkan alfabetis, value di-encode query.
func canonicalQuery(params map[string]string) string {
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
	return b.String()
}

/* ================= Tabel response code ================= */

var responseMessages = map[string]string{
	"00": "Transaksi berhasil",
	"07": "Transaksi ditahan (dicurigai fraud)",
	"09": "Kartu/akun belum terdaftar layanan online",
	"10": "Autentikasi gagal lebih dari 3 kali",
	"11": "Sesi pembayaran kedaluwarsa",
	"12": "Kartu/akun terkunci",
	"13": "OTP salah",
	"24": "Transaksi dibatalkan oleh pelanggan",
	"51": "Saldo tidak mencukupi",
	"65": "Melebihi limit transaksi harian",
	"75": "Bank sedang maintenance",
	"79": "Password pembayaran salah melebihi batas",
	"99": "Kesalahan lain",
}

// ResponseMessage memetakan response code gateway ke pesan manusiawi.
func ResponseMessage(code string) string {
	if msg, ok := responseMessages[code]; ok {
		return msg
	}
	return fmt.Sprintf("Kode response tidak dikenal (%s)", code)
}
