// file: internals/features/finance/gateway/cash.go
package gateway

import "context"

/* =========================================================
   Cash — tanpa network call. Pembayaran direkonsiliasi lewat
   aksi admin (confirm), bukan callback, jadi tidak ada
   external ref.
========================================================= */

type Cash struct {
	Instructions string
}

func NewCash() *Cash {
	return &Cash{
		Instructions: "Silakan bayar di loket tata usaha sekolah. Sebutkan nomor pembayaran Anda; petugas akan mengonfirmasi setelah uang diterima.",
	}
}

func (g *Cash) Channel() Channel { return ChannelCash }

func (g *Cash) CreateIntent(ctx context.Context, req IntentRequest) (Intent, error) {
	return Intent{
		Channel:      ChannelCash,
		Instructions: g.Instructions,
	}, nil
}
