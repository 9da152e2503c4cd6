// file: internals/features/finance/gateway/snap.go
package gateway

import (
	"context"
	"crypto/sha512"
	"encoding/hex"

	"github.com/gofiber/fiber/v2"
	midtrans "github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/snap"
)

/* =========================================================
   Snap — channel Midtrans. Order ID kita langsung jadi
   external ref; notifikasi diverifikasi dengan signature_key
   (sha512 order_id + status_code + gross_amount + server key).
========================================================= */

type Snap struct {
	client    snap.Client
	serverKey string
}

func NewSnap(serverKey string, production bool) *Snap {
	g := &Snap{serverKey: serverKey}
	env := midtrans.Sandbox
	if production {
		env = midtrans.Production
	}
	g.client.New(serverKey, env)
	return g
}

func (g *Snap) Channel() Channel { return ChannelSnap }

func (g *Snap) CreateIntent(ctx context.Context, req IntentRequest) (Intent, error) {
	if g.serverKey == "" {
		return Intent{}, fiber.NewError(fiber.StatusInternalServerError, "Midtrans belum dikonfigurasi")
	}
	if req.AmountIDR <= 0 {
		return Intent{}, fiber.NewError(fiber.StatusBadRequest, "nominal pembayaran tidak valid")
	}

	sreq := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  req.OrderID,
			GrossAmt: req.AmountIDR,
		},
		CustomerDetail: &midtrans.CustomerDetails{
			FName: req.CustomerName,
			Email: req.CustomerEmail,
		},
		Items: &[]midtrans.ItemDetails{
			{
				ID:       req.OrderID,
				Price:    req.AmountIDR,
				Qty:      1,
				Name:     itemName(req.Description),
				Category: "SPP",
			},
		},
	}

	resp, err := g.client.CreateTransaction(sreq)
	if err != nil {
		return Intent{}, fiber.NewError(fiber.StatusBadGateway, "gagal membuat transaksi Midtrans: "+err.Error())
	}

	return Intent{
		Channel:     ChannelSnap,
		RedirectURL: resp.RedirectURL,
		ExternalRef: req.OrderID,
	}, nil
}

// VerifyNotificationSignature memvalidasi signature_key webhook Midtrans.
func (g *Snap) VerifyNotificationSignature(orderID, statusCode, grossAmount, signatureKey string) bool {
	if g.serverKey == "" || signatureKey == "" {
		return false
	}
	h := sha512.Sum512([]byte(orderID + statusCode + grossAmount + g.serverKey))
	return hex.EncodeToString(h[:]) == signatureKey
}

// SnapOutcome: terjemahan status transaksi Midtrans untuk ledger.
type SnapOutcome int

const (
	SnapOutcomePending SnapOutcome = iota
	SnapOutcomePaid
	SnapOutcomeFailed
)

// MapSnapStatus mengonversi transaction_status+fraud_status Midtrans.
func MapSnapStatus(transactionStatus, fraudStatus string) SnapOutcome {
	switch transactionStatus {
	case "capture":
		if fraudStatus == "accept" {
			return SnapOutcomePaid
		}
		if fraudStatus == "challenge" {
			return SnapOutcomePending
		}
		return SnapOutcomeFailed
	case "settlement":
		return SnapOutcomePaid
	case "pending":
		return SnapOutcomePending
	case "deny", "cancel", "expire", "failure":
		return SnapOutcomeFailed
	}
	return SnapOutcomePending
}

func itemName(desc string) string {
	if desc == "" {
		return "Pembayaran SPP"
	}
	if len(desc) > 50 {
		return desc[:50]
	}
	return desc
}
