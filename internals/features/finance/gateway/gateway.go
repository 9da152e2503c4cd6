// file: internals/features/finance/gateway/gateway.go
package gateway

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

/* =========================================================
   Abstraksi channel pembayaran. Dispatch polymorphic lewat
   registry (bukan inheritance) — channel baru tinggal
   implement Gateway dan Register.
========================================================= */

type Channel string

const (
	ChannelGateway Channel = "gateway" // online redirect (signed query)
	ChannelCash    Channel = "cash"    // bayar di loket, konfirmasi admin
	ChannelSnap    Channel = "snap"    // Midtrans Snap
)

func ParseChannel(s string) (Channel, error) {
	switch Channel(strings.ToLower(strings.TrimSpace(s))) {
	case ChannelGateway:
		return ChannelGateway, nil
	case ChannelCash:
		return ChannelCash, nil
	case ChannelSnap:
		return ChannelSnap, nil
	}
	return "", fiber.NewError(fiber.StatusBadRequest, "channel pembayaran tidak dikenal")
}

// IntentRequest: konteks yang dibutuhkan adapter untuk membuat intent.
type IntentRequest struct {
	OrderID       string
	AmountIDR     int64
	Description   string
	ClientIP      string
	CustomerName  string
	CustomerEmail string
}

// Intent: hasil createIntent. RedirectURL untuk channel online,
// Instructions untuk channel manual. ExternalRef kosong untuk cash.
type Intent struct {
	Channel      Channel `json:"channel"`
	RedirectURL  string  `json:"redirect_url,omitempty"`
	Instructions string  `json:"instructions,omitempty"`
	ExternalRef  string  `json:"external_ref,omitempty"`
}

type Gateway interface {
	Channel() Channel
	CreateIntent(ctx context.Context, req IntentRequest) (Intent, error)
}

/* ================= Registry ================= */

type Registry struct {
	gateways map[Channel]Gateway
}

func NewRegistry(gws ...Gateway) *Registry {
	r := &Registry{gateways: make(map[Channel]Gateway, len(gws))}
	for _, gw := range gws {
		r.Register(gw)
	}
	return r
}

func (r *Registry) Register(gw Gateway) {
	r.gateways[gw.Channel()] = gw
}

func (r *Registry) Get(ch Channel) (Gateway, error) {
	gw, ok := r.gateways[ch]
	if !ok {
		return nil, fiber.NewError(fiber.StatusBadRequest, "channel pembayaran tidak tersedia")
	}
	return gw, nil
}

/* ================= Order ID ================= */

// GenOrderID membuat order_id unik dengan prefix tertentu.
func GenOrderID(prefix string) string {
	now := time.Now().Format("20060102-150405")
	u := uuid.New().String()
	if len(u) > 8 {
		u = u[:8]
	}
	return prefix + "-" + now + "-" + strings.ToUpper(u)
}
